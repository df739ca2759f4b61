package bili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const historyPageSize = 20

type HistoryRef struct {
	Oid      int64  `json:"oid"`
	Epid     int64  `json:"epid,omitempty"`
	Bvid     string `json:"bvid,omitempty"`
	Page     int    `json:"page,omitempty"`
	Cid      int64  `json:"cid,omitempty"`
	Part     string `json:"part,omitempty"`
	Business string `json:"business,omitempty"`
	Dt       int    `json:"dt,omitempty"`
}

type History struct {
	Title      string     `json:"title"`
	Cover      string     `json:"cover,omitempty"`
	URI        string     `json:"uri,omitempty"`
	History    HistoryRef `json:"history"`
	Videos     int        `json:"videos,omitempty"`
	AuthorName string     `json:"author_name,omitempty"`
	AuthorMid  int64      `json:"author_mid,omitempty"`
	ViewAt     int64      `json:"view_at,omitempty"`
	Progress   int        `json:"progress,omitempty"`
	ShowTitle  string     `json:"show_title,omitempty"`
	Duration   int        `json:"duration,omitempty"`
	Kid        string     `json:"kid,omitempty"`
}

// kid identifies the entry for deletion, "<business>_<oid>".
func (h History) kid() string {
	if h.Kid != "" {
		return h.Kid
	}
	business := h.History.Business
	if business == "" {
		business = "archive"
	}
	return business + "_" + strconv.FormatInt(h.History.Oid, 10)
}

type historyCursor struct {
	Max      int64  `json:"max"`
	ViewAt   int64  `json:"view_at"`
	Business string `json:"business"`
}

type historyData struct {
	Cursor *historyCursor `json:"cursor"`
	List   []History      `json:"list"`
}

// decodeHistoryPage folds the (max, view_at) pair into one opaque token. The
// endpoint has no has_more flag; an empty page ends the walk.
func decodeHistoryPage(data json.RawMessage) (CursorPage[History], error) {
	d, err := decodeJSON[historyData](data)
	if err != nil {
		return CursorPage[History]{}, err
	}

	p := CursorPage[History]{List: d.List, HasMore: len(d.List) > 0}
	if d.Cursor != nil && d.Cursor.Max != 0 {
		token := url.Values{}
		token.Set("max", strconv.FormatInt(d.Cursor.Max, 10))
		token.Set("view_at", strconv.FormatInt(d.Cursor.ViewAt, 10))
		if d.Cursor.Business != "" {
			token.Set("business", d.Cursor.Business)
		}
		p.Cursor = token.Encode()
	}
	return p, nil
}

func applyHistoryCursor(query map[string]string, cursor string) {
	values, err := url.ParseQuery(cursor)
	if err != nil {
		return
	}
	for k := range values {
		query[k] = values.Get(k)
	}
}

// WatchHistory is backup and clear only; the platform records views itself.
type WatchHistory struct {
	client  *Client
	ceiling int
}

func NewWatchHistory(client *Client) *WatchHistory {
	return &WatchHistory{client: client, ceiling: DefaultCursorCeiling}
}

func (w *WatchHistory) Name() string { return "history" }

func (w *WatchHistory) List(ctx context.Context) ([]History, error) {
	if _, _, err := w.client.self(ctx); err != nil {
		return nil, err
	}

	ep := Endpoint{Path: pathHistory, Query: map[string]string{"ps": strconv.Itoa(historyPageSize)}}
	items, err := Collect(CursorPages(ctx, w.client, ep, CursorOptions[History]{
		Ceiling: w.ceiling,
		Apply:   applyHistoryCursor,
		Decode:  decodeHistoryPage,
	}))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return items, nil
}

func (w *WatchHistory) Remove(ctx context.Context, h History) error {
	if err := w.client.mutate(ctx, pathHistoryDelete, url.Values{"kid": {h.kid()}}); err != nil {
		return fmt.Errorf("delete history %s: %w", h.kid(), err)
	}
	return nil
}

func (w *WatchHistory) Describe(h History) string {
	return fmt.Sprintf("%s (%s)", h.Title, h.kid())
}
