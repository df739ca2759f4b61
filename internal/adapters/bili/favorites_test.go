package bili

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/bilibackup/internal/domain"
)

func favoritesMux(t *testing.T) *http.ServeMux {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(pathFavFolders, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("up_mid"))
		writeEnvelope(w, 0, map[string]any{
			"count": 2,
			"list": []map[string]any{
				{"id": 100, "mid": 42, "attr": 0, "title": "default", "media_count": 30},
				{"id": 200, "mid": 42, "attr": 3, "title": "secret", "media_count": 1},
			},
		})
	})
	mux.HandleFunc(pathFavResources, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		pn, _ := strconv.Atoi(q.Get("pn"))
		switch q.Get("media_id") {
		case "100":
			medias := []map[string]any{}
			for i := (pn - 1) * 20; i < pn*20 && i < 30; i++ {
				medias = append(medias, map[string]any{"id": i + 1, "type": 2, "title": "v" + strconv.Itoa(i+1)})
			}
			writeEnvelope(w, 0, map[string]any{"info": map[string]any{"media_count": 30}, "medias": medias, "has_more": pn*20 < 30})
		default:
			writeEnvelope(w, 0, map[string]any{"info": map[string]any{"media_count": 1}, "medias": []map[string]any{{"id": 500, "type": 12, "title": "audio"}}})
		}
	})
	return mux
}

func TestFavoritesListContainersWithMedia(t *testing.T) {
	t.Parallel()

	client, clock := newTestClient(t, favoritesMux(t))
	favorites := NewFavorites(client)

	folders, err := favorites.ListContainers(context.Background())
	require.NoError(t, err)
	require.Len(t, folders, 2)

	assert.Len(t, folders[0].MediaList, 30)
	assert.True(t, folders[0].Folder.IsDefault())
	assert.Equal(t, domain.ContainerDefault, favorites.Spec(folders[0]).Kind)

	secret := favorites.Spec(folders[1])
	assert.Equal(t, domain.ContainerUser, secret.Kind)
	assert.True(t, secret.Private)
	assert.Equal(t, "secret", secret.Title)

	// one pause between the two media pages of folder 100, one between folders
	assert.Len(t, clock.Sleeps(), 2)

	assert.Equal(t, DefaultFolderCapacity, favorites.Capacity(domain.ContainerDefault))
	assert.Equal(t, UserFolderCapacity, favorites.Capacity(domain.ContainerUser))
}

func TestFavoritesOpenUsesDestinationDefaultFolder(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, favoritesMux(t))

	ref, err := NewFavorites(client).Open(context.Background(), domain.ContainerSpec{Title: "anything", Kind: domain.ContainerDefault})
	require.NoError(t, err)
	assert.Equal(t, domain.ContainerRef{ID: 100, Title: "default", Kind: domain.ContainerDefault, Used: 30}, ref)
}

func TestFavoritesCreateKeepsPrivacy(t *testing.T) {
	t.Parallel()

	var form url.Values
	mux := http.NewServeMux()
	mux.HandleFunc(pathFavFolderAdd, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
		writeEnvelope(w, 0, map[string]any{"id": 777, "title": r.PostForm.Get("title")})
	})
	client, _ := newTestClient(t, mux)

	ref, err := NewFavorites(client).Open(context.Background(), domain.ContainerSpec{Title: "mine", Intro: "hi", Private: true})
	require.NoError(t, err)

	assert.Equal(t, int64(777), ref.ID)
	assert.Equal(t, 0, ref.Used)
	assert.Equal(t, "1", form.Get("privacy"))
	assert.Equal(t, "hi", form.Get("intro"))
	assert.Equal(t, "csrf-token", form.Get("csrf"))
}

func TestFavoritesAddAndRemoveItems(t *testing.T) {
	t.Parallel()

	var deal, del url.Values
	mux := http.NewServeMux()
	mux.HandleFunc(pathFavDeal, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		deal = r.PostForm
		writeEnvelope(w, 0, nil)
	})
	mux.HandleFunc(pathFavBatchDelete, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		del = r.PostForm
		writeEnvelope(w, 0, nil)
	})
	client, _ := newTestClient(t, mux)
	favorites := NewFavorites(client)
	ref := domain.ContainerRef{ID: 300}

	require.NoError(t, favorites.AddItem(context.Background(), ref, Media{ID: 8}))
	assert.Equal(t, "8", deal.Get("rid"))
	assert.Equal(t, "2", deal.Get("type"))
	assert.Equal(t, "300", deal.Get("add_media_ids"))

	require.NoError(t, favorites.RemoveItems(context.Background(), ref, []Media{{ID: 1, Type: 2}, {ID: 2, Type: 12}}))
	assert.Equal(t, "300", del.Get("media_id"))
	assert.Equal(t, "1:2,2:12", del.Get("resources"))

	tooMany := make([]Media, MaxBatchDelete+1)
	err := favorites.RemoveItems(context.Background(), ref, tooMany)
	require.ErrorIs(t, err, domain.ErrParam)
}
