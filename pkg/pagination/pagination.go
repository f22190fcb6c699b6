package pagination

import (
	"net/url"
	"strconv"
)

// Window represents a limit/offset slice of a result set.
type Window struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Normalize clamps the window to the configured bounds.
// A non-positive limit takes the default; a negative offset becomes zero.
func (w *Window) Normalize(cfg Config) {
	if w.Limit < 1 {
		w.Limit = cfg.DefaultPageSize
	}
	if w.Limit > cfg.MaxPageSize {
		w.Limit = cfg.MaxPageSize
	}
	if w.Offset < 0 {
		w.Offset = 0
	}
}

// WindowFromQuery parses limit and offset from URL query values and normalizes the result.
func WindowFromQuery(values url.Values, cfg Config) Window {
	limit, _ := strconv.Atoi(values.Get("limit"))
	offset, _ := strconv.Atoi(values.Get("offset"))

	w := Window{Limit: limit, Offset: offset}
	w.Normalize(cfg)
	return w
}

// Result holds one window of data along with the total match count.
type Result[T any] struct {
	Data   []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewResult creates a Result, substituting an empty slice for nil data.
func NewResult[T any](data []T, total int, w Window) Result[T] {
	if data == nil {
		data = []T{}
	}

	return Result[T]{
		Data:   data,
		Total:  total,
		Limit:  w.Limit,
		Offset: w.Offset,
	}
}
