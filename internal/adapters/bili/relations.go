package bili

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bnema/bilibackup/internal/domain"
)

const (
	relationPageSize = 50

	// defaultTagID is the implicit group every follow belongs to.
	defaultTagID = 0
)

type Vip struct {
	Type   int `json:"vipType"`
	Status int `json:"vipStatus"`
}

type Relation struct {
	Mid       int64   `json:"mid"`
	Uname     string  `json:"uname"`
	Face      string  `json:"face"`
	Sign      string  `json:"sign,omitempty"`
	Mtime     int64   `json:"mtime"`
	Attribute int     `json:"attribute,omitempty"`
	Special   int     `json:"special,omitempty"`
	Tag       []int64 `json:"tag,omitempty"`
	Vip       *Vip    `json:"vip,omitempty"`
	// Groups carries tag names so they survive the move to another account.
	Groups []domain.GroupTag `json:"groups,omitempty"`
}

func describeRelation(r Relation) string {
	return fmt.Sprintf("%s (mid %d)", r.Uname, r.Mid)
}

type relationTag struct {
	TagID int64  `json:"tagid"`
	Name  string `json:"name"`
	Count int    `json:"count"`
	Tip   string `json:"tip,omitempty"`
}

// Following is the list of accounts the user follows, grouped by tags.
type Following struct {
	client *Client
}

func NewFollowing(client *Client) *Following {
	return &Following{client: client}
}

func (f *Following) Name() string { return "following" }

func (f *Following) List(ctx context.Context) ([]Relation, error) {
	_, mid, err := f.client.self(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := f.Groups(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(tags))
	for _, t := range tags {
		names[t.ID] = t.Name
	}

	ep := Endpoint{
		Path:   pathFollowings,
		Query:  map[string]string{"vmid": strconv.FormatInt(mid, 10), "order": "attention"},
		Signed: true,
	}
	items, err := Collect(OffsetPages(ctx, f.client, ep, OffsetOptions[Relation]{PageSize: relationPageSize}))
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}

	for i := range items {
		for _, id := range items[i].Tag {
			if name, ok := names[id]; ok {
				items[i].Groups = append(items[i].Groups, domain.GroupTag{ID: id, Name: name})
			}
		}
	}
	return items, nil
}

func (f *Following) Apply(ctx context.Context, r Relation) error {
	return f.client.modifyRelation(ctx, r.Mid, actFollow)
}

func (f *Following) Remove(ctx context.Context, r Relation) error {
	return f.client.modifyRelation(ctx, r.Mid, actUnfollow)
}

func (f *Following) Describe(r Relation) string { return describeRelation(r) }

func (f *Following) Groups(ctx context.Context) ([]domain.GroupTag, error) {
	tags, err := Call[[]relationTag](ctx, f.client, Request{Method: http.MethodGet, Path: pathRelationTags})
	if err != nil {
		return nil, fmt.Errorf("list relation tags: %w", err)
	}

	out := make([]domain.GroupTag, 0, len(tags))
	for _, t := range tags {
		out = append(out, domain.GroupTag{ID: t.TagID, Name: t.Name})
	}
	return out, nil
}

func (f *Following) CreateGroup(ctx context.Context, name string) (domain.GroupTag, error) {
	req, err := f.client.postForm(ctx, pathTagCreate, url.Values{"tag": {name}})
	if err != nil {
		return domain.GroupTag{}, err
	}

	created, err := Call[struct {
		TagID int64 `json:"tagid"`
	}](ctx, f.client, req)
	if err != nil {
		return domain.GroupTag{}, fmt.Errorf("create relation tag %q: %w", name, err)
	}
	return domain.GroupTag{ID: created.TagID, Name: name}, nil
}

// GroupsOf skips the implicit default group, which exists on every account.
func (f *Following) GroupsOf(r Relation) []domain.GroupTag {
	out := make([]domain.GroupTag, 0, len(r.Groups))
	for _, g := range r.Groups {
		if g.ID != defaultTagID {
			out = append(out, g)
		}
	}
	return out
}

func (f *Following) Assign(ctx context.Context, r Relation, tagIDs []int64) error {
	ids := make([]string, 0, len(tagIDs))
	for _, id := range tagIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	form := url.Values{}
	form.Set("fids", strconv.FormatInt(r.Mid, 10))
	form.Set("tagids", strings.Join(ids, ","))
	if err := f.client.mutate(ctx, pathTagAddUsers, form); err != nil {
		return fmt.Errorf("assign tags to %d: %w", r.Mid, err)
	}
	return nil
}

// Followers is backup-only: the platform offers no way to make someone follow you.
type Followers struct {
	client *Client
}

func NewFollowers(client *Client) *Followers {
	return &Followers{client: client}
}

func (f *Followers) Name() string { return "followers" }

func (f *Followers) List(ctx context.Context) ([]Relation, error) {
	_, mid, err := f.client.self(ctx)
	if err != nil {
		return nil, err
	}

	ep := Endpoint{Path: pathFollowers, Query: map[string]string{"vmid": strconv.FormatInt(mid, 10)}}
	items, err := Collect(OffsetPages(ctx, f.client, ep, OffsetOptions[Relation]{PageSize: relationPageSize}))
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return items, nil
}

type User struct {
	Mid   int64  `json:"mid"`
	Uname string `json:"uname"`
	Face  string `json:"face"`
	Sign  string `json:"sign,omitempty"`
	Mtime int64  `json:"mtime,omitempty"`
}

// Blacklist is the user's blocklist.
type Blacklist struct {
	client *Client
}

func NewBlacklist(client *Client) *Blacklist {
	return &Blacklist{client: client}
}

func (b *Blacklist) Name() string { return "blacklist" }

func (b *Blacklist) List(ctx context.Context) ([]User, error) {
	if _, _, err := b.client.self(ctx); err != nil {
		return nil, err
	}

	items, err := Collect(OffsetPages(ctx, b.client, Endpoint{Path: pathBlacks}, OffsetOptions[User]{PageSize: relationPageSize}))
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	return items, nil
}

func (b *Blacklist) Apply(ctx context.Context, u User) error {
	return b.client.modifyRelation(ctx, u.Mid, actBlock)
}

func (b *Blacklist) Remove(ctx context.Context, u User) error {
	return b.client.modifyRelation(ctx, u.Mid, actUnblock)
}

func (b *Blacklist) Describe(u User) string {
	return fmt.Sprintf("%s (mid %d)", u.Uname, u.Mid)
}
