package pagination_test

import (
	"net/url"
	"testing"

	"github.com/JaimeStill/agent-forge/pkg/pagination"
)

func TestConfig_Finalize_Defaults(t *testing.T) {
	var cfg pagination.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.DefaultPageSize != 20 {
		t.Errorf("DefaultPageSize = %d, want 20", cfg.DefaultPageSize)
	}
	if cfg.MaxPageSize != 100 {
		t.Errorf("MaxPageSize = %d, want 100", cfg.MaxPageSize)
	}
}

func TestConfig_Finalize_Env(t *testing.T) {
	env := &pagination.Env{
		DefaultPageSize: "TEST_PAGINATION_DEFAULT",
		MaxPageSize:     "TEST_PAGINATION_MAX",
	}
	t.Setenv(env.DefaultPageSize, "5")
	t.Setenv(env.MaxPageSize, "50")

	var cfg pagination.Config
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.DefaultPageSize != 5 || cfg.MaxPageSize != 50 {
		t.Errorf("cfg = %+v, want {5 50}", cfg)
	}
}

func TestConfig_Finalize_DefaultExceedsMax(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 200, MaxPageSize: 100}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("Finalize() error = nil, want error")
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	cfg.Merge(&pagination.Config{MaxPageSize: 250})

	if cfg.DefaultPageSize != 20 {
		t.Errorf("DefaultPageSize = %d, want 20", cfg.DefaultPageSize)
	}
	if cfg.MaxPageSize != 250 {
		t.Errorf("MaxPageSize = %d, want 250", cfg.MaxPageSize)
	}
}

func TestWindowFromQuery(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

	tests := []struct {
		name  string
		query string
		want  pagination.Window
	}{
		{"empty", "", pagination.Window{Limit: 20, Offset: 0}},
		{"explicit", "limit=10&offset=30", pagination.Window{Limit: 10, Offset: 30}},
		{"clamped limit", "limit=1000", pagination.Window{Limit: 100, Offset: 0}},
		{"negative offset", "offset=-4", pagination.Window{Limit: 20, Offset: 0}},
		{"garbage", "limit=abc&offset=xyz", pagination.Window{Limit: 20, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			got := pagination.WindowFromQuery(values, cfg)
			if got != tt.want {
				t.Errorf("WindowFromQuery(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestNewResult_NilData(t *testing.T) {
	r := pagination.NewResult[string](nil, 0, pagination.Window{Limit: 20})

	if r.Data == nil {
		t.Error("Data = nil, want empty slice")
	}
	if r.Limit != 20 {
		t.Errorf("Limit = %d, want 20", r.Limit)
	}
}
