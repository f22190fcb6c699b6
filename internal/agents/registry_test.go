package agents_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/agent-forge/internal/agents"
	"github.com/JaimeStill/agent-forge/internal/compiler"
	"github.com/JaimeStill/agent-forge/internal/specs"
	"github.com/JaimeStill/agent-forge/internal/tools"
	"github.com/JaimeStill/agent-forge/pkg/logging"
	"github.com/JaimeStill/agent-forge/pkg/pagination"
	"github.com/google/uuid"
)

const financeSpec = `{
	"agent_config": {
		"name": "Finance Expert",
		"slug": "finance_expert",
		"description": "Equity research assistant",
		"role": "analyst",
		"specialization": "finance"
	},
	"model_config": {"provider": "openai", "model_id": "gpt-4o", "max_tokens": 1500, "temperature": 0.3},
	"tools_config": [
		{"name": "YFinanceTools", "enabled": true, "config": {"analyst_recommendations": true}},
		{"name": "ReasoningTools", "enabled": true}
	],
	"instructions": {"system_message": "You analyze stocks.", "guidelines": ["Cite sources"]},
	"features": {"reasoning_enabled": true, "memory_enabled": true}
}`

type fakeBuilder struct {
	builds atomic.Int32
	gate   chan struct{}

	mu   sync.Mutex
	fail error
}

func (b *fakeBuilder) setFail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = err
}

func (b *fakeBuilder) Build(ctx context.Context, cfg *compiler.Config) (agents.Instance, error) {
	b.builds.Add(1)

	if b.gate != nil {
		select {
		case <-b.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	b.mu.Lock()
	err := b.fail
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return agents.InstanceFunc(func(ctx context.Context, prompt string, opts map[string]any) (string, error) {
		if prompt == "fail" {
			return "", errors.New("provider unavailable")
		}
		return cfg.Slug + ": " + prompt, nil
	}), nil
}

type fixture struct {
	sys       agents.System
	builder   *fakeBuilder
	validator *specs.Validator
	catalog   *tools.Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	seed, err := tools.Seed()
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	catalog := tools.New(logging.Discard(), nil)
	catalog.Register(seed...)

	validator := specs.NewValidator(catalog, 0)
	builder := &fakeBuilder{}
	sys := agents.New(
		agents.NewMemoryStore(),
		validator,
		compiler.New(catalog),
		builder,
		logging.Discard(),
	)

	return &fixture{sys: sys, builder: builder, validator: validator, catalog: catalog}
}

func (f *fixture) validate(t *testing.T, raw string) specs.Validated {
	t.Helper()
	result, doc := f.validator.ValidateRaw([]byte(raw))
	if doc == nil {
		t.Fatalf("ValidateRaw() document = nil: %+v", result)
	}
	return specs.Validated{Document: doc, Result: result}
}

func (f *fixture) create(t *testing.T, raw string) *agents.Agent {
	t.Helper()
	a, err := f.sys.Create(context.Background(), f.validate(t, raw))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return a
}

func window() pagination.Window {
	return pagination.Window{Limit: 20}
}

func ptr[T any](v T) *T {
	return &v
}

func TestCreate_RoundTrip(t *testing.T) {
	f := newFixture(t)
	v := f.validate(t, financeSpec)

	created, err := f.sys.Create(context.Background(), v)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := f.sys.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	doc := v.Document
	if got.Description != doc.AgentConfig.Description || got.Role != doc.AgentConfig.Role {
		t.Errorf("description/role = %q/%q", got.Description, got.Role)
	}
	if !reflect.DeepEqual(got.ModelConfig, doc.ModelConfig) {
		t.Errorf("ModelConfig = %+v, want %+v", got.ModelConfig, doc.ModelConfig)
	}
	if !reflect.DeepEqual(got.Instructions, doc.Instructions) {
		t.Errorf("Instructions = %+v, want %+v", got.Instructions, doc.Instructions)
	}
	if !reflect.DeepEqual(got.Features, doc.Features) {
		t.Errorf("Features = %+v, want %+v", got.Features, doc.Features)
	}
	if len(got.ToolsConfig) != 2 || got.ToolsConfig[0].Name != "YFinanceTools" || got.ToolsConfig[0].Config["analyst_recommendations"] != true {
		t.Errorf("ToolsConfig = %+v", got.ToolsConfig)
	}

	if got.Slug != "finance_expert" || got.Status != agents.StatusActive {
		t.Errorf("slug/status = %s/%s", got.Slug, got.Status)
	}
	if got.TotalSessions != 0 || got.TotalRuns != 0 || got.LastUsedAt != nil {
		t.Errorf("Metrics = %+v, want zero", got.Metrics)
	}
	if got.SpecificationID == nil {
		t.Error("SpecificationID = nil, want audit row")
	}
	if got.ConfigHash == "" || got.Config == nil || got.Config.SystemPrompt != "You analyze stocks.\n\nGuidelines:\n- Cite sources" {
		t.Errorf("Config = %+v, hash %q", got.Config, got.ConfigHash)
	}
}

func TestCreate_DuplicateSlug(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, financeSpec)

	_, err := f.sys.Create(context.Background(), f.validate(t, financeSpec))
	if !errors.Is(err, agents.ErrDuplicateSlug) {
		t.Fatalf("second Create() error = %v, want ErrDuplicateSlug", err)
	}

	if err := f.sys.SoftDelete(context.Background(), first.ID); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}
	if _, err := f.sys.Create(context.Background(), f.validate(t, financeSpec)); err != nil {
		t.Errorf("Create() after soft delete error = %v, want slug freed", err)
	}

	_, err = f.sys.Update(context.Background(), first.ID, agents.UpdateCommand{Status: ptr(agents.StatusActive)})
	if !errors.Is(err, agents.ErrDuplicateSlug) {
		t.Errorf("reactivation error = %v, want ErrDuplicateSlug", err)
	}
}

func TestCreate_DerivedSlugsDiffer(t *testing.T) {
	f := newFixture(t)
	raw := strings.Replace(financeSpec, `"slug": "finance_expert",`, ``, 1)

	a := f.create(t, raw)
	b := f.create(t, raw)

	if a.Slug == b.Slug {
		t.Errorf("derived slugs collide: %s", a.Slug)
	}
	if !strings.HasPrefix(a.Slug, "finance_expert_") {
		t.Errorf("Slug = %q, want finance_expert_ prefix", a.Slug)
	}
}

func TestCreate_NothingPersistedOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		sentinel error
	}{
		{
			name:     "invalid specification",
			raw:      strings.Replace(financeSpec, `"model_id": "gpt-4o", `, ``, 1),
			sentinel: agents.ErrInvalidSpecification,
		},
		{
			name:     "unresolved tool",
			raw:      strings.Replace(financeSpec, `"ReasoningTools"`, `"FooBarTool"`, 1),
			sentinel: compiler.ErrUnresolvedTool,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.sys.Create(context.Background(), f.validate(t, tt.raw))
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("Create() error = %v, want %v", err, tt.sentinel)
			}

			list, err := f.sys.List(context.Background(), agents.Filters{}, window())
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if list.Total != 0 {
				t.Errorf("Total = %d, want 0", list.Total)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.sys.Get(ctx, uuid.New()); !errors.Is(err, agents.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if err := f.sys.SoftDelete(ctx, uuid.New()); !errors.Is(err, agents.ErrNotFound) {
		t.Errorf("SoftDelete() error = %v, want ErrNotFound", err)
	}
	if _, err := f.sys.ResolveLiveInstance(ctx, uuid.New()); !errors.Is(err, agents.ErrNotFound) {
		t.Errorf("ResolveLiveInstance() error = %v, want ErrNotFound", err)
	}
	if _, err := f.sys.Update(ctx, uuid.New(), agents.UpdateCommand{Role: ptr("x")}); !errors.Is(err, agents.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fin := f.create(t, financeSpec)
	f.create(t, strings.NewReplacer(
		`"Finance Expert"`, `"Travel Planner"`,
		`"finance_expert"`, `"travel_planner"`,
		`"specialization": "finance"`, `"specialization": "travel"`,
	).Replace(financeSpec))
	f.create(t, strings.NewReplacer(
		`"Finance Expert"`, `"Tax Expert"`,
		`"finance_expert"`, `"tax_expert"`,
	).Replace(financeSpec))

	if err := f.sys.SoftDelete(ctx, fin.ID); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}

	tests := []struct {
		name    string
		filters agents.Filters
		window  pagination.Window
		want    []string
		total   int
	}{
		{"all", agents.Filters{}, window(), []string{"Finance Expert", "Tax Expert", "Travel Planner"}, 3},
		{"specialization", agents.Filters{Specialization: ptr("finance")}, window(), []string{"Finance Expert", "Tax Expert"}, 2},
		{"active only", agents.Filters{Status: ptr("active")}, window(), []string{"Tax Expert", "Travel Planner"}, 2},
		{"active finance", agents.Filters{Status: ptr("active"), Specialization: ptr("finance")}, window(), []string{"Tax Expert"}, 1},
		{"search", agents.Filters{Search: ptr("plan")}, window(), []string{"Travel Planner"}, 1},
		{"window", agents.Filters{}, pagination.Window{Limit: 1, Offset: 1}, []string{"Tax Expert"}, 3},
		{"past end", agents.Filters{}, pagination.Window{Limit: 5, Offset: 10}, []string{}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.sys.List(ctx, tt.filters, tt.window)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}

			names := make([]string, len(result.Data))
			for i, a := range result.Data {
				names[i] = a.Name
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("names = %v, want %v", names, tt.want)
			}
			if result.Total != tt.total {
				t.Errorf("Total = %d, want %d", result.Total, tt.total)
			}
		})
	}
}

func TestSoftDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, financeSpec)

	if err := f.sys.SoftDelete(ctx, a.ID); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}

	got, err := f.sys.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get() after delete error = %v", err)
	}
	if got.Status != agents.StatusInactive {
		t.Errorf("Status = %s, want inactive", got.Status)
	}

	active, err := f.sys.List(ctx, agents.Filters{Status: ptr("active")}, window())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if active.Total != 0 {
		t.Errorf("active Total = %d, want 0", active.Total)
	}

	if _, err := f.sys.ResolveLiveInstance(ctx, a.ID); !errors.Is(err, agents.ErrInactive) {
		t.Errorf("ResolveLiveInstance() error = %v, want ErrInactive", err)
	}

	reactivated, err := f.sys.Update(ctx, a.ID, agents.UpdateCommand{Status: ptr(agents.StatusActive)})
	if err != nil {
		t.Fatalf("reactivate error = %v", err)
	}
	if reactivated.Status != agents.StatusActive {
		t.Errorf("Status = %s, want active", reactivated.Status)
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, financeSpec)

	updated, err := f.sys.Update(ctx, a.ID, agents.UpdateCommand{
		Description: ptr("Covers bonds too"),
		ModelConfig: []byte(`{"provider": "openai", "modelId": "gpt-4o-mini"}`),
		Features:    []byte(`{"markdown": false}`),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Description != "Covers bonds too" || updated.ModelConfig.ModelID != "gpt-4o-mini" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Config.Model.ModelID != "gpt-4o-mini" || updated.Config.Features.Markdown {
		t.Errorf("Config = %+v, want recompiled", updated.Config)
	}
	if updated.ConfigHash == a.ConfigHash {
		t.Error("ConfigHash unchanged after update")
	}
	if updated.ID != a.ID || updated.Slug != a.Slug || updated.Name != a.Name || updated.Specialization != a.Specialization {
		t.Errorf("identity changed: %+v", updated)
	}
	if len(updated.ToolsConfig) != 2 {
		t.Errorf("ToolsConfig = %+v, want untouched", updated.ToolsConfig)
	}
}

func TestUpdate_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		cmd      agents.UpdateCommand
		sentinel error
	}{
		{
			name:     "removes model id",
			cmd:      agents.UpdateCommand{ModelConfig: []byte(`{"provider": "openai"}`)},
			sentinel: agents.ErrInvalidSpecification,
		},
		{
			name:     "malformed section",
			cmd:      agents.UpdateCommand{Instructions: []byte(`{"system_message":`)},
			sentinel: agents.ErrInvalidSpecification,
		},
		{
			name:     "unknown tool",
			cmd:      agents.UpdateCommand{ToolsConfig: []byte(`[{"name": "FooBarTool"}]`)},
			sentinel: compiler.ErrUnresolvedTool,
		},
		{
			name:     "error status",
			cmd:      agents.UpdateCommand{Status: ptr(agents.StatusError)},
			sentinel: agents.ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			a := f.create(t, financeSpec)

			if _, err := f.sys.Update(ctx, a.ID, tt.cmd); !errors.Is(err, tt.sentinel) {
				t.Fatalf("Update() error = %v, want %v", err, tt.sentinel)
			}

			got, err := f.sys.Get(ctx, a.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.ConfigHash != a.ConfigHash || got.ModelConfig.ModelID != "gpt-4o" || got.Status != agents.StatusActive {
				t.Errorf("record changed after rejected update: %+v", got)
			}
		})
	}
}

func TestUpdate_ValidationErrorCarriesResult(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, financeSpec)

	_, err := f.sys.Update(context.Background(), a.ID, agents.UpdateCommand{ModelConfig: []byte(`{"provider": "openai"}`)})

	var verr *agents.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error %T is not *ValidationError", err)
	}
	found := false
	for _, issue := range verr.Result.Errors {
		if issue.Field == "model_config.model_id" {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want model_config.model_id", verr.Result.Errors)
	}
}

func TestResolveLiveInstance_Caching(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, financeSpec)

	first, err := f.sys.ResolveLiveInstance(ctx, a.ID)
	if err != nil {
		t.Fatalf("ResolveLiveInstance() error = %v", err)
	}
	second, err := f.sys.ResolveLiveInstance(ctx, a.ID)
	if err != nil {
		t.Fatalf("ResolveLiveInstance() error = %v", err)
	}

	if first != second {
		t.Error("cached handle not reused")
	}
	if n := f.builder.builds.Load(); n != 1 {
		t.Errorf("builds = %d, want 1", n)
	}
	if first.Hash != a.ConfigHash {
		t.Errorf("Hash = %q, want %q", first.Hash, a.ConfigHash)
	}

	if _, err := f.sys.Update(ctx, a.ID, agents.UpdateCommand{Role: ptr("strategist")}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	third, err := f.sys.ResolveLiveInstance(ctx, a.ID)
	if err != nil {
		t.Fatalf("ResolveLiveInstance() error = %v", err)
	}
	if third == first || third.Config.Role != "strategist" {
		t.Error("stale instance served after update")
	}
	if n := f.builder.builds.Load(); n != 2 {
		t.Errorf("builds = %d, want 2", n)
	}

	f.sys.Evict(a.ID)
	if _, err := f.sys.ResolveLiveInstance(ctx, a.ID); err != nil {
		t.Fatalf("ResolveLiveInstance() error = %v", err)
	}
	if n := f.builder.builds.Load(); n != 3 {
		t.Errorf("builds = %d, want 3 after eviction", n)
	}
}

func TestResolveLiveInstance_SingleBuild(t *testing.T) {
	f := newFixture(t)
	f.builder.gate = make(chan struct{})
	a := f.create(t, financeSpec)

	const callers = 10
	var wg sync.WaitGroup
	handles := make([]*agents.Handle, callers)
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i], errs[i] = f.sys.ResolveLiveInstance(context.Background(), a.ID)
		}()
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.builder.builds.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(f.builder.gate)
	wg.Wait()

	if n := f.builder.builds.Load(); n != 1 {
		t.Errorf("builds = %d, want 1", n)
	}
	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d error = %v", i, errs[i])
		}
		if handles[i] != handles[0] {
			t.Errorf("caller %d got a different handle", i)
		}
	}
}

func TestResolveLiveInstance_Cancelled(t *testing.T) {
	f := newFixture(t)
	f.builder.gate = make(chan struct{})
	a := f.create(t, financeSpec)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := f.sys.ResolveLiveInstance(ctx, a.ID); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ResolveLiveInstance() error = %v, want DeadlineExceeded", err)
	}

	got, err := f.sys.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != agents.StatusActive {
		t.Errorf("Status = %s, cancellation must not mark the record", got.Status)
	}
}

func TestResolveLiveInstance_BuildFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, financeSpec)

	refused := errors.New("handshake refused")
	f.builder.setFail(refused)
	_, err := f.sys.ResolveLiveInstance(ctx, a.ID)
	if !errors.Is(err, agents.ErrBuild) {
		t.Fatalf("ResolveLiveInstance() error = %v, want ErrBuild", err)
	}
	if !errors.Is(err, refused) {
		t.Errorf("ResolveLiveInstance() error = %v, want builder error in chain", err)
	}

	got, _ := f.sys.Get(ctx, a.ID)
	if got.Status != agents.StatusError {
		t.Errorf("Status = %s, want error", got.Status)
	}

	f.builder.setFail(nil)
	if _, err := f.sys.ResolveLiveInstance(ctx, a.ID); err != nil {
		t.Fatalf("ResolveLiveInstance() retry error = %v", err)
	}

	got, _ = f.sys.Get(ctx, a.ID)
	if got.Status != agents.StatusActive {
		t.Errorf("Status = %s, want active after successful build", got.Status)
	}
}

func TestResolveLiveInstance_BuilderTimeout(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, financeSpec)

	f.builder.setFail(fmt.Errorf("dial provider: %w", context.DeadlineExceeded))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := f.sys.ResolveLiveInstance(ctx, a.ID)
	if !errors.Is(err, agents.ErrBuild) {
		t.Fatalf("ResolveLiveInstance() error = %v, want ErrBuild", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ResolveLiveInstance() error = %v, want provider deadline in chain", err)
	}
	if n := f.builder.builds.Load(); n != 1 {
		t.Errorf("builds = %d, want 1", n)
	}

	got, err := f.sys.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != agents.StatusError {
		t.Errorf("Status = %s, want error", got.Status)
	}
}

func TestResolveLiveInstance_AbandonedBuild(t *testing.T) {
	f := newFixture(t)
	f.builder.gate = make(chan struct{})
	a := f.create(t, financeSpec)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.sys.ResolveLiveInstance(first, a.ID)
		firstErr <- err
	}()
	waitFor(t, func() bool { return f.builder.builds.Load() >= 1 })

	type outcome struct {
		h   *agents.Handle
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		h, err := f.sys.ResolveLiveInstance(context.Background(), a.ID)
		second <- outcome{h, err}
	}()
	time.Sleep(10 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller error = %v, want Canceled", err)
	}

	waitFor(t, func() bool { return f.builder.builds.Load() >= 2 })
	close(f.builder.gate)

	res := <-second
	if res.err != nil {
		t.Fatalf("second caller error = %v", res.err)
	}
	if res.h == nil || res.h.AgentID != a.ID {
		t.Errorf("second caller handle = %+v", res.h)
	}

	got, _ := f.sys.Get(context.Background(), a.ID)
	if got.Status != agents.StatusActive {
		t.Errorf("Status = %s, want active", got.Status)
	}
}

func TestList_ZeroWindow(t *testing.T) {
	f := newFixture(t)
	f.create(t, financeSpec)

	res, err := f.sys.List(context.Background(), agents.Filters{}, pagination.Window{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 || len(res.Data) != 1 {
		t.Errorf("total = %d, returned = %d, want 1 and 1", res.Total, len(res.Data))
	}
	if res.Limit != pagination.DefaultConfig().DefaultPageSize {
		t.Errorf("Limit = %d, want default page size", res.Limit)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRecordUsage_Concurrent(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, financeSpec)

	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u := agents.Usage{SessionDelta: 1, LatencyMs: 100, Success: i%2 == 0}
			if _, err := f.sys.RecordUsage(context.Background(), a.ID, u); err != nil {
				t.Errorf("RecordUsage() error = %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := f.sys.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.TotalSessions != n || got.TotalRuns != n {
		t.Errorf("sessions/runs = %d/%d, want %d/%d", got.TotalSessions, got.TotalRuns, n, n)
	}
	if got.SuccessfulRuns != n/2 || got.SuccessRate != 0.5 {
		t.Errorf("successful/rate = %d/%v, want %d/0.5", got.SuccessfulRuns, got.SuccessRate, n/2)
	}
	if got.AvgResponseTimeMs != 100 {
		t.Errorf("AvgResponseTimeMs = %v, want 100", got.AvgResponseTimeMs)
	}
}

func TestRecordUsage_RunningAverage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, financeSpec)

	reports := []agents.Usage{
		{SessionDelta: 1, LatencyMs: 100, Success: true},
		{SessionDelta: 0, LatencyMs: 200, Success: true},
		{SessionDelta: 1, LatencyMs: 600, Success: false},
	}

	var got *agents.Agent
	for _, u := range reports {
		var err error
		if got, err = f.sys.RecordUsage(ctx, a.ID, u); err != nil {
			t.Fatalf("RecordUsage() error = %v", err)
		}
	}

	if got.TotalSessions != 2 || got.TotalRuns != 3 || got.SuccessfulRuns != 2 {
		t.Errorf("counters = %+v", got.Metrics)
	}
	if got.AvgResponseTimeMs != 300 {
		t.Errorf("AvgResponseTimeMs = %v, want 300", got.AvgResponseTimeMs)
	}
	if got.SuccessRate < 0.666 || got.SuccessRate > 0.667 {
		t.Errorf("SuccessRate = %v, want 2/3", got.SuccessRate)
	}
	if got.LastUsedAt == nil {
		t.Error("LastUsedAt = nil")
	}

	if _, err := f.sys.RecordUsage(ctx, a.ID, agents.Usage{SessionDelta: -1}); !errors.Is(err, agents.ErrInvalidUsage) {
		t.Errorf("RecordUsage() error = %v, want ErrInvalidUsage", err)
	}
}

func TestChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, financeSpec)

	first, err := f.sys.Chat(ctx, a.ID, agents.ChatCommand{Prompt: "hello"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if first.Content != "finance_expert: hello" || first.SessionID == "" {
		t.Errorf("result = %+v", first)
	}

	if _, err := f.sys.Chat(ctx, a.ID, agents.ChatCommand{Prompt: "again", SessionID: first.SessionID}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if _, err := f.sys.Chat(ctx, a.ID, agents.ChatCommand{Prompt: "fail", SessionID: first.SessionID}); !errors.Is(err, agents.ErrExecution) {
		t.Errorf("Chat() error = %v, want ErrExecution", err)
	}
	if _, err := f.sys.Chat(ctx, a.ID, agents.ChatCommand{Prompt: " "}); !errors.Is(err, agents.ErrEmptyPrompt) {
		t.Errorf("Chat() error = %v, want ErrEmptyPrompt", err)
	}

	got, _ := f.sys.Get(ctx, a.ID)
	if got.TotalSessions != 1 || got.TotalRuns != 3 || got.SuccessfulRuns != 2 {
		t.Errorf("metrics = %+v, want 1 session, 3 runs, 2 successful", got.Metrics)
	}
	if n := f.builder.builds.Load(); n != 1 {
		t.Errorf("builds = %d, want 1", n)
	}
}
