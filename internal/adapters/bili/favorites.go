package bili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bnema/bilibackup/internal/domain"
)

const (
	DefaultFolderCapacity = 50000
	UserFolderCapacity    = 1000

	// MaxBatchDelete is the largest resource list batch-del accepts.
	MaxBatchDelete = 20

	mediaPageSize   = 20
	mediaTypeVideo  = 2
	folderAttrPriv  = 1
	folderAttrNoDef = 1 << 1
)

type Folder struct {
	ID         int64  `json:"id"`
	Fid        int64  `json:"fid,omitempty"`
	Mid        int64  `json:"mid"`
	Attr       int    `json:"attr"`
	Title      string `json:"title"`
	Cover      string `json:"cover,omitempty"`
	Intro      string `json:"intro,omitempty"`
	Ctime      int64  `json:"ctime,omitempty"`
	MediaCount int    `json:"media_count"`
}

// IsDefault reports whether attr bit 1 is clear, which marks the account's
// built-in folder.
func (f Folder) IsDefault() bool {
	return f.Attr&folderAttrNoDef == 0
}

func (f Folder) IsPrivate() bool {
	return f.Attr&folderAttrPriv != 0
}

type Upper struct {
	Mid  int64  `json:"mid"`
	Name string `json:"name"`
	Face string `json:"face,omitempty"`
}

type CountInfo struct {
	Collect int64 `json:"collect"`
	Play    int64 `json:"play"`
	Danmaku int64 `json:"danmaku"`
}

type Media struct {
	ID       int64      `json:"id"`
	Type     int        `json:"type"`
	Title    string     `json:"title"`
	Cover    string     `json:"cover,omitempty"`
	Intro    string     `json:"intro,omitempty"`
	Page     int        `json:"page,omitempty"`
	Duration int        `json:"duration,omitempty"`
	Upper    *Upper     `json:"upper,omitempty"`
	Attr     int        `json:"attr,omitempty"`
	CntInfo  *CountInfo `json:"cnt_info,omitempty"`
	Link     string     `json:"link,omitempty"`
	Ctime    int64      `json:"ctime,omitempty"`
	Pubtime  int64      `json:"pubtime,omitempty"`
	FavTime  int64      `json:"fav_time,omitempty"`
	Bvid     string     `json:"bvid,omitempty"`
}

func (m Media) resourceType() int {
	if m.Type == 0 {
		return mediaTypeVideo
	}
	return m.Type
}

// FolderBackup is one folder with its full media list.
type FolderBackup struct {
	Folder    Folder  `json:"folder"`
	MediaList []Media `json:"media_list"`
}

type folderList struct {
	Count int      `json:"count"`
	List  []Folder `json:"list"`
}

type mediaPage struct {
	Info struct {
		MediaCount int `json:"media_count"`
	} `json:"info"`
	Medias  []Media `json:"medias"`
	HasMore bool    `json:"has_more"`
}

func decodeMediaPage(data json.RawMessage) (OffsetPage[Media], error) {
	p, err := decodeJSON[mediaPage](data)
	if err != nil {
		return OffsetPage[Media]{}, err
	}
	return OffsetPage[Media]{List: p.Medias, Total: p.Info.MediaCount}, nil
}

// Favorites is the set of user folders. Each folder is a capacity-bounded
// container of media.
type Favorites struct {
	client *Client
}

func NewFavorites(client *Client) *Favorites {
	return &Favorites{client: client}
}

func (f *Favorites) Name() string { return "favorites" }

func (f *Favorites) folders(ctx context.Context) ([]Folder, error) {
	_, mid, err := f.client.self(ctx)
	if err != nil {
		return nil, err
	}

	req := Request{
		Method: http.MethodGet,
		Path:   pathFavFolders,
		Query:  map[string]string{"up_mid": strconv.FormatInt(mid, 10), "type": "0"},
	}
	data, err := callRaw(ctx, f.client, req)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	if data == nil {
		return []Folder{}, nil
	}
	list, err := decodeJSON[folderList](data)
	if err != nil {
		return nil, fmt.Errorf("decode folders: %w", err)
	}
	return list.List, nil
}

func (f *Favorites) ListContainers(ctx context.Context) ([]FolderBackup, error) {
	folders, err := f.folders(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]FolderBackup, 0, len(folders))
	for i, folder := range folders {
		ep := Endpoint{Path: pathFavResources, Query: map[string]string{"media_id": strconv.FormatInt(folder.ID, 10)}}
		media, err := Collect(OffsetPages(ctx, f.client, ep, OffsetOptions[Media]{
			PageSize: mediaPageSize,
			Decode:   decodeMediaPage,
		}))
		if err != nil {
			return nil, fmt.Errorf("list folder %q: %w", folder.Title, err)
		}
		out = append(out, FolderBackup{Folder: folder, MediaList: media})

		if i < len(folders)-1 {
			if err := f.client.Humanize(ctx); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (f *Favorites) Spec(b FolderBackup) domain.ContainerSpec {
	kind := domain.ContainerUser
	if b.Folder.IsDefault() {
		kind = domain.ContainerDefault
	}
	return domain.ContainerSpec{
		Title:   b.Folder.Title,
		Intro:   b.Folder.Intro,
		Private: b.Folder.IsPrivate(),
		Kind:    kind,
	}
}

func (f *Favorites) Ref(b FolderBackup) domain.ContainerRef {
	return folderRef(b.Folder)
}

func folderRef(folder Folder) domain.ContainerRef {
	kind := domain.ContainerUser
	if folder.IsDefault() {
		kind = domain.ContainerDefault
	}
	return domain.ContainerRef{ID: folder.ID, Title: folder.Title, Kind: kind, Used: folder.MediaCount}
}

func (f *Favorites) Items(b FolderBackup) []Media {
	return b.MediaList
}

func (f *Favorites) Capacity(kind domain.ContainerKind) int {
	if kind == domain.ContainerDefault {
		return DefaultFolderCapacity
	}
	return UserFolderCapacity
}

func (f *Favorites) MaxBatch() int {
	return MaxBatchDelete
}

// Open maps the source default folder onto the destination's default folder
// and creates a fresh folder for everything else.
func (f *Favorites) Open(ctx context.Context, spec domain.ContainerSpec) (domain.ContainerRef, error) {
	if spec.Kind != domain.ContainerDefault {
		return f.Create(ctx, spec)
	}

	folders, err := f.folders(ctx)
	if err != nil {
		return domain.ContainerRef{}, err
	}
	for _, folder := range folders {
		if folder.IsDefault() {
			return folderRef(folder), nil
		}
	}
	return domain.ContainerRef{}, fmt.Errorf("%w: destination has no default folder", domain.ErrRemote)
}

func (f *Favorites) Create(ctx context.Context, spec domain.ContainerSpec) (domain.ContainerRef, error) {
	privacy := "0"
	if spec.Private {
		privacy = "1"
	}
	form := url.Values{}
	form.Set("title", spec.Title)
	form.Set("intro", spec.Intro)
	form.Set("privacy", privacy)

	req, err := f.client.postForm(ctx, pathFavFolderAdd, form)
	if err != nil {
		return domain.ContainerRef{}, err
	}
	created, err := Call[Folder](ctx, f.client, req)
	if err != nil {
		return domain.ContainerRef{}, fmt.Errorf("create folder %q: %w", spec.Title, err)
	}
	return domain.ContainerRef{ID: created.ID, Title: spec.Title, Kind: domain.ContainerUser}, nil
}

func (f *Favorites) AddItem(ctx context.Context, ref domain.ContainerRef, m Media) error {
	form := url.Values{}
	form.Set("rid", strconv.FormatInt(m.ID, 10))
	form.Set("type", strconv.Itoa(m.resourceType()))
	form.Set("add_media_ids", strconv.FormatInt(ref.ID, 10))
	form.Set("del_media_ids", "")
	if err := f.client.mutate(ctx, pathFavDeal, form); err != nil {
		return fmt.Errorf("add %d to folder %d: %w", m.ID, ref.ID, err)
	}
	return nil
}

func (f *Favorites) RemoveItems(ctx context.Context, ref domain.ContainerRef, media []Media) error {
	if len(media) == 0 {
		return nil
	}
	if len(media) > MaxBatchDelete {
		return domain.ParamError("batch delete of %d items exceeds limit %d", len(media), MaxBatchDelete)
	}

	resources := make([]string, 0, len(media))
	for _, m := range media {
		resources = append(resources, fmt.Sprintf("%d:%d", m.ID, m.resourceType()))
	}
	form := url.Values{}
	form.Set("media_id", strconv.FormatInt(ref.ID, 10))
	form.Set("resources", strings.Join(resources, ","))
	if err := f.client.mutate(ctx, pathFavBatchDelete, form); err != nil {
		return fmt.Errorf("remove %d items from folder %d: %w", len(media), ref.ID, err)
	}
	return nil
}

func (f *Favorites) DescribeItem(m Media) string {
	return fmt.Sprintf("%s (id %d)", m.Title, m.ID)
}
