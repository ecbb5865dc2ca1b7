package paging_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/commons/internal/domain/paging"
)

func assertWindow(t *testing.T, w paging.Window, start, count int) {
	t.Helper()
	assert.Equal(t, start, w.Start(), "start")
	assert.Equal(t, count, w.Count(), "count")
}

func TestNewWindow(t *testing.T) {
	t.Run("computes count", func(t *testing.T) {
		w := paging.NewWindow(100, 15, 200)

		assertWindow(t, w, 100, 15)
		assert.Equal(t, 15, w.Size())
		assert.Equal(t, 200, w.Total())
	})

	t.Run("count is zero past the end", func(t *testing.T) {
		assertWindow(t, paging.NewWindow(250, 15, 200), 250, 0)
	})

	t.Run("partial trailing page", func(t *testing.T) {
		assertWindow(t, paging.NewWindow(195, 15, 200), 195, 5)
	})

	t.Run("normalizes out of range input", func(t *testing.T) {
		w := paging.NewWindow(-5, 0, -1)

		assertWindow(t, w, 0, 0)
		assert.Equal(t, 1, w.Size())
		assert.Equal(t, 0, w.Total())
	})

	t.Run("FromOffsetLimit matches NewWindow", func(t *testing.T) {
		assert.Equal(t, paging.NewWindow(20, 10, 35), paging.FromOffsetLimit(20, 10, 35))
	})
}

func TestWindow_FirstPage(t *testing.T) {
	assertWindow(t, paging.NewWindow(100, 15, 200).FirstPage(), 0, 15)
	assertWindow(t, paging.NewWindow(0, 300, 200).FirstPage(), 0, 200)
	assertWindow(t, paging.NewWindow(10, 5, 0).FirstPage(), 0, 0)
}

func TestWindow_NextPage(t *testing.T) {
	t.Run("full page", func(t *testing.T) {
		next := paging.NewWindow(100, 15, 200).NextPage()

		assertWindow(t, next, 115, 15)
		assert.Equal(t, 200, next.Total())
	})

	t.Run("short page", func(t *testing.T) {
		assertWindow(t, paging.NewWindow(100, 15, 123).NextPage(), 115, 8)
	})

	t.Run("advances by size", func(t *testing.T) {
		for _, start := range []int{0, 7, 100, 500} {
			w := paging.NewWindow(start, 15, 123)
			assert.Equal(t, start+15, w.NextPage().Start())
		}
	})

	t.Run("repeated NextPage reaches an empty page", func(t *testing.T) {
		w := paging.NewWindow(40, 15, 123).FirstPage()
		steps := 0
		for !w.IsEmpty() {
			w = w.NextPage()
			steps++
			require.Less(t, steps, 100)
		}

		assertWindow(t, w, 135, 0)
		assert.Equal(t, 9, steps)
	})
}

func TestWindow_PreviousPage(t *testing.T) {
	t.Run("moves back one page", func(t *testing.T) {
		assertWindow(t, paging.NewWindow(100, 15, 200).PreviousPage(), 85, 15)
	})

	t.Run("clamps to first page when size exceeds start", func(t *testing.T) {
		assertWindow(t, paging.NewWindow(100, 300, 200).PreviousPage(), 0, 200)
	})

	t.Run("exactly one page back is the first page", func(t *testing.T) {
		assertWindow(t, paging.NewWindow(15, 15, 200).PreviousPage(), 0, 15)
	})

	t.Run("never negative", func(t *testing.T) {
		for start := range 50 {
			w := paging.NewWindow(start, 7, 40)
			for range 10 {
				w = w.PreviousPage()
				assert.GreaterOrEqual(t, w.Start(), 0)
			}
		}
	})

	t.Run("from an empty trailing page", func(t *testing.T) {
		assertWindow(t, paging.NewWindow(135, 15, 123).PreviousPage(), 120, 3)
	})
}

func TestWindow_LastPage(t *testing.T) {
	testCases := []struct {
		name      string
		size      int
		total     int
		wantStart int
		wantCount int
	}{
		{"partial last page", 15, 123, 120, 3},
		{"exact multiple stays on last full page", 100, 200, 100, 100},
		{"total equal to size", 50, 50, 0, 50},
		{"total below size", 300, 200, 0, 200},
		{"empty result set", 10, 0, 0, 0},
		{"single item", 10, 1, 0, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			last := paging.NewWindow(100, tc.size, tc.total).LastPage()

			assertWindow(t, last, tc.wantStart, tc.wantCount)
			assert.Zero(t, last.Start()%tc.size)
			if tc.total > 0 {
				assert.Less(t, last.Start(), tc.total)
			}
			assert.False(t, last.HasNext())
		})
	}
}

func TestWindow_Navigation(t *testing.T) {
	w := paging.NewWindow(30, 15, 40)

	assert.True(t, w.HasPrevious())
	assert.False(t, w.HasNext())
	assert.Equal(t, 3, w.PageNumber())
	assert.Equal(t, 3, w.PageCount())
	assert.False(t, w.IsEmpty())

	first := w.FirstPage()
	assert.False(t, first.HasPrevious())
	assert.True(t, first.HasNext())
	assert.Equal(t, 1, first.PageNumber())

	assert.Equal(t, 0, paging.NewWindow(0, 15, 0).PageCount())
}

func TestWindow_IsImmutable(t *testing.T) {
	w := paging.NewWindow(100, 15, 200)

	_ = w.NextPage()
	_ = w.PreviousPage()
	_ = w.LastPage()

	assertWindow(t, w, 100, 15)
}

func TestWindow_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(paging.NewWindow(120, 15, 123))

	require.NoError(t, err)
	assert.JSONEq(t, `{
		"start": 120,
		"size": 15,
		"count": 3,
		"total": 123,
		"page": 9,
		"pages": 9,
		"has_next": false,
		"has_previous": true
	}`, string(data))
}

func TestWindow_Links(t *testing.T) {
	t.Run("middle page", func(t *testing.T) {
		// Arrange
		w := paging.NewWindow(15, 15, 40)

		// Act
		links, err := w.Links("/api/v1/users?sort=name")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "/api/v1/users?limit=15&offset=15&sort=name", links.Self)
		assert.Equal(t, "/api/v1/users?limit=15&offset=0&sort=name", links.First)
		assert.Equal(t, "/api/v1/users?limit=15&offset=0&sort=name", links.Prev)
		assert.Equal(t, "/api/v1/users?limit=15&offset=30&sort=name", links.Next)
		assert.Equal(t, "/api/v1/users?limit=15&offset=30&sort=name", links.Last)
	})

	t.Run("single page omits prev and next", func(t *testing.T) {
		links, err := paging.NewWindow(0, 20, 5).Links("/users")

		require.NoError(t, err)
		assert.Empty(t, links.Prev)
		assert.Empty(t, links.Next)
		assert.Equal(t, links.First, links.Last)
	})

	t.Run("invalid base URL", func(t *testing.T) {
		_, err := paging.NewWindow(0, 20, 5).Links("://bad")
		require.Error(t, err)
	})
}
