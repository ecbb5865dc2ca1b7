// Package paging computes page windows over a result set of known size.
//
// A Window is an immutable value: start offset, page size, the number of
// items actually on the page, and the total number of items. Navigation
// returns new windows and never fails.
package paging

import "encoding/json"

// Window is a single page over total items.
type Window struct {
	start int
	size  int
	count int
	total int
}

// NewWindow builds the window beginning at start. A size below 1 is treated
// as 1 and negative start or total are treated as 0.
func NewWindow(start, size, total int) Window {
	size = max(size, 1)
	start = max(start, 0)
	total = max(total, 0)

	return Window{
		start: start,
		size:  size,
		count: countAt(start, size, total),
		total: total,
	}
}

// FromOffsetLimit is NewWindow for callers that speak offset/limit.
func FromOffsetLimit(offset, limit, total int) Window {
	return NewWindow(offset, limit, total)
}

// countAt is the number of items on a page of the given size beginning at start.
func countAt(start, size, total int) int {
	if start >= total {
		return 0
	}
	return min(size, total-start)
}

// Start is the zero-based offset of the first item on the page.
func (w Window) Start() int { return w.start }

// Size is the page capacity.
func (w Window) Size() int { return w.size }

// Count is the number of items on the page.
func (w Window) Count() int { return w.count }

// Total is the number of items in the whole result set.
func (w Window) Total() int { return w.total }

// FirstPage returns the window at offset 0.
func (w Window) FirstPage() Window {
	return NewWindow(0, w.size, w.total)
}

// PreviousPage moves back one page. When that would reach or cross offset 0
// the first page is returned.
func (w Window) PreviousPage() Window {
	start := w.start - w.size
	if start <= 0 {
		return w.FirstPage()
	}
	return NewWindow(start, w.size, w.total)
}

// NextPage moves forward one page. Past the end it yields an empty trailing
// page (Count() == 0) rather than stopping.
func (w Window) NextPage() Window {
	return NewWindow(w.start+w.size, w.size, w.total)
}

// LastPage returns the last non-empty page: its start is the largest multiple
// of Size() below Total(), or 0 when there is nothing to page over.
func (w Window) LastPage() Window {
	if w.total == 0 {
		return w.FirstPage()
	}
	return NewWindow(((w.total-1)/w.size)*w.size, w.size, w.total)
}

// HasNext reports whether items exist beyond this page.
func (w Window) HasNext() bool {
	return w.start+w.size < w.total
}

// HasPrevious reports whether this page starts after the first item.
func (w Window) HasPrevious() bool {
	return w.start > 0
}

// IsEmpty reports whether the page holds no items.
func (w Window) IsEmpty() bool {
	return w.count == 0
}

// PageNumber is the 1-based index of the page containing Start().
func (w Window) PageNumber() int {
	return w.start/w.size + 1
}

// PageCount is the number of non-empty pages. An empty result set has zero.
func (w Window) PageCount() int {
	return (w.total + w.size - 1) / w.size
}

type windowJSON struct {
	Start       int  `json:"start"`
	Size        int  `json:"size"`
	Count       int  `json:"count"`
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Pages       int  `json:"pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// MarshalJSON renders the window together with its derived fields.
func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(windowJSON{
		Start:       w.start,
		Size:        w.size,
		Count:       w.count,
		Total:       w.total,
		Page:        w.PageNumber(),
		Pages:       w.PageCount(),
		HasNext:     w.HasNext(),
		HasPrevious: w.HasPrevious(),
	})
}
