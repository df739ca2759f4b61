package bili

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

type Owner struct {
	Mid  int64  `json:"mid"`
	Name string `json:"name"`
	Face string `json:"face,omitempty"`
}

type ToView struct {
	Aid      int64  `json:"aid"`
	Bvid     string `json:"bvid,omitempty"`
	Cid      int64  `json:"cid"`
	Title    string `json:"title"`
	Pic      string `json:"pic"`
	Owner    *Owner `json:"owner,omitempty"`
	AddAt    int64  `json:"add_at,omitempty"`
	Duration int    `json:"duration,omitempty"`
	State    int    `json:"state,omitempty"`
	Videos   int    `json:"videos,omitempty"`
}

type toViewData struct {
	Count int      `json:"count"`
	List  []ToView `json:"list"`
}

// WatchLater is the watch-later queue. The endpoint returns it in one piece.
type WatchLater struct {
	client *Client
}

func NewWatchLater(client *Client) *WatchLater {
	return &WatchLater{client: client}
}

func (w *WatchLater) Name() string { return "toview" }

func (w *WatchLater) List(ctx context.Context) ([]ToView, error) {
	if _, _, err := w.client.self(ctx); err != nil {
		return nil, err
	}

	data, err := Call[toViewData](ctx, w.client, Request{Method: http.MethodGet, Path: pathToView})
	if err != nil {
		return nil, fmt.Errorf("list watch later: %w", err)
	}
	if data.List == nil {
		return []ToView{}, nil
	}
	return data.List, nil
}

func (w *WatchLater) Apply(ctx context.Context, v ToView) error {
	if err := w.client.mutate(ctx, pathToViewAdd, url.Values{"aid": {strconv.FormatInt(v.Aid, 10)}}); err != nil {
		return fmt.Errorf("add %d to watch later: %w", v.Aid, err)
	}
	return nil
}

func (w *WatchLater) Remove(ctx context.Context, v ToView) error {
	if err := w.client.mutate(ctx, pathToViewDelete, url.Values{"aid": {strconv.FormatInt(v.Aid, 10)}}); err != nil {
		return fmt.Errorf("remove %d from watch later: %w", v.Aid, err)
	}
	return nil
}

func (w *WatchLater) Describe(v ToView) string {
	return fmt.Sprintf("%s (av%d)", v.Title, v.Aid)
}
