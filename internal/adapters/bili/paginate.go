package bili

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"net/http"
	"strconv"
)

const (
	DefaultCursorCeiling = 100
	// offsetPageSlack is added to the page count implied by the first page's
	// declared total when no explicit MaxPages is set.
	offsetPageSlack = 5

	paramPage     = "pn"
	paramPageSize = "ps"
	paramCursor   = "cursor"
)

type Endpoint struct {
	Path   string
	Query  map[string]string
	Signed bool
}

func (e Endpoint) request(query map[string]string) Request {
	return Request{Method: http.MethodGet, Path: e.Path, Query: query, Signed: e.Signed}
}

type OffsetPage[T any] struct {
	List  []T `json:"list"`
	Total int `json:"total"`
}

type OffsetOptions[T any] struct {
	PageSize int
	// MaxPages bounds the walk; zero derives the bound from the first page's
	// declared total plus a small slack.
	MaxPages int
	// Decode maps endpoint-specific data onto OffsetPage; nil reads {list, total}.
	Decode func(data json.RawMessage) (OffsetPage[T], error)
}

// OffsetPages walks pn=1.. until the running total reaches the declared total,
// a page comes back empty or null, or the page bound is reached. It humanizes
// between pages, never after the last.
func OffsetPages[T any](ctx context.Context, c Caller, ep Endpoint, opts OffsetOptions[T]) iter.Seq2[[]T, error] {
	decode := opts.Decode
	if decode == nil {
		decode = decodeJSON[OffsetPage[T]]
	}

	return func(yield func([]T, error) bool) {
		accumulated := 0
		maxPages := opts.MaxPages
		for page := 1; ; page++ {
			query := maps.Clone(ep.Query)
			if query == nil {
				query = map[string]string{}
			}
			query[paramPage] = strconv.Itoa(page)
			if opts.PageSize > 0 {
				query[paramPageSize] = strconv.Itoa(opts.PageSize)
			}

			data, err := callRaw(ctx, c, ep.request(query))
			if err != nil {
				yield(nil, fmt.Errorf("fetch %s page %d: %w", ep.Path, page, err))
				return
			}
			if data == nil {
				return
			}
			p, err := decode(data)
			if err != nil {
				yield(nil, fmt.Errorf("decode %s page %d: %w", ep.Path, page, err))
				return
			}

			if page == 1 && maxPages <= 0 {
				maxPages = derivedPageBound(p.Total, opts.PageSize, len(p.List))
			}
			accumulated += len(p.List)
			if !yield(p.List, nil) {
				return
			}

			last := len(p.List) == 0 || accumulated >= p.Total || page >= maxPages
			if last {
				return
			}
			if err := c.Humanize(ctx); err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// derivedPageBound is the page count a declared total needs at the given page
// size, plus offsetPageSlack. Without a page size the first page's length is
// taken as the size.
func derivedPageBound(total int, pageSize int, firstPage int) int {
	size := pageSize
	if size <= 0 {
		size = firstPage
	}
	if size <= 0 || total <= 0 {
		return 1 + offsetPageSlack
	}
	return (total+size-1)/size + offsetPageSlack
}

type CursorPage[T any] struct {
	List    []T
	Cursor  string
	HasMore bool
}

type CursorOptions[T any] struct {
	// Ceiling caps the number of calls; zero means DefaultCursorCeiling.
	Ceiling int
	// Apply writes the continuation token into the query; nil sets "cursor".
	Apply  func(query map[string]string, cursor string)
	Decode func(data json.RawMessage) (CursorPage[T], error)
}

type cursorData[T any] struct {
	List    []T     `json:"list"`
	Cursor  *string `json:"cursor"`
	HasMore bool    `json:"has_more"`
}

func decodeCursorData[T any](data json.RawMessage) (CursorPage[T], error) {
	d, err := decodeJSON[cursorData[T]](data)
	if err != nil {
		return CursorPage[T]{}, err
	}
	p := CursorPage[T]{List: d.List, HasMore: d.HasMore}
	if d.Cursor != nil {
		p.Cursor = *d.Cursor
	}
	return p, nil
}

// CursorPages starts without a cursor and continues while the server reports
// has_more with a non-empty cursor, up to the ceiling.
func CursorPages[T any](ctx context.Context, c Caller, ep Endpoint, opts CursorOptions[T]) iter.Seq2[[]T, error] {
	ceiling := opts.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultCursorCeiling
	}
	apply := opts.Apply
	if apply == nil {
		apply = func(query map[string]string, cursor string) { query[paramCursor] = cursor }
	}
	decode := opts.Decode
	if decode == nil {
		decode = decodeCursorData[T]
	}

	return func(yield func([]T, error) bool) {
		cursor := ""
		for call := 1; call <= ceiling; call++ {
			query := maps.Clone(ep.Query)
			if query == nil {
				query = map[string]string{}
			}
			if cursor != "" {
				apply(query, cursor)
			}

			data, err := callRaw(ctx, c, ep.request(query))
			if err != nil {
				yield(nil, fmt.Errorf("fetch %s call %d: %w", ep.Path, call, err))
				return
			}
			if data == nil {
				return
			}
			p, err := decode(data)
			if err != nil {
				yield(nil, fmt.Errorf("decode %s call %d: %w", ep.Path, call, err))
				return
			}

			if !yield(p.List, nil) {
				return
			}
			if !p.HasMore || p.Cursor == "" || call == ceiling {
				return
			}
			if err := c.Humanize(ctx); err != nil {
				yield(nil, err)
				return
			}
			cursor = p.Cursor
		}
	}
}

// Collect folds a page sequence into one slice, stopping at the first error.
func Collect[T any](pages iter.Seq2[[]T, error]) ([]T, error) {
	out := []T{}
	for items, err := range pages {
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

func decodeJSON[T any](data json.RawMessage) (T, error) {
	var out T
	err := json.Unmarshal(data, &out)
	return out, err
}
