package bili

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/bilibackup/internal/domain"
)

func TestFollowingListAttachesGroupNames(t *testing.T) {
	t.Parallel()

	var followQuery url.Values
	mux := http.NewServeMux()
	mux.HandleFunc(pathRelationTags, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 0, []map[string]any{
			{"tagid": 0, "name": "default", "count": 1},
			{"tagid": 7, "name": "music", "count": 1},
		})
	})
	mux.HandleFunc(pathFollowings, func(w http.ResponseWriter, r *http.Request) {
		followQuery = r.URL.Query()
		writeEnvelope(w, 0, map[string]any{
			"list": []map[string]any{
				{"mid": 1, "uname": "alice", "face": "f", "mtime": 10, "tag": []int64{7}},
				{"mid": 2, "uname": "bob", "face": "f", "mtime": 11, "tag": nil},
			},
			"total": 2,
		})
	})
	client, _ := newTestClient(t, mux)

	following := NewFollowing(client)
	items, err := following.List(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, []domain.GroupTag{{ID: 7, Name: "music"}}, items[0].Groups)
	assert.Equal(t, []domain.GroupTag{{ID: 7, Name: "music"}}, following.GroupsOf(items[0]))
	assert.Empty(t, items[1].Groups)

	assert.Equal(t, "42", followQuery.Get("vmid"))
	assert.Equal(t, "attention", followQuery.Get("order"))
	assert.Equal(t, "1", followQuery.Get("pn"))
	assert.Equal(t, "50", followQuery.Get("ps"))
	assert.NotEmpty(t, followQuery.Get("wts"))
	assert.Len(t, followQuery.Get("w_rid"), 32)
}

func TestFollowingListRequiresSession(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.NotFoundHandler())
	client.Sessions().Replace(nil)

	_, err := NewFollowing(client).List(context.Background())
	require.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestRelationMutationsSendActAndCSRF(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var forms []url.Values
	mux := http.NewServeMux()
	mux.HandleFunc(pathModify, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		mu.Lock()
		forms = append(forms, r.PostForm)
		mu.Unlock()
		writeEnvelope(w, 0, nil)
	})
	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	require.NoError(t, NewFollowing(client).Apply(ctx, Relation{Mid: 5}))
	require.NoError(t, NewFollowing(client).Remove(ctx, Relation{Mid: 5}))
	require.NoError(t, NewBlacklist(client).Apply(ctx, User{Mid: 6}))
	require.NoError(t, NewBlacklist(client).Remove(ctx, User{Mid: 6}))

	require.Len(t, forms, 4)
	acts := []string{}
	for _, f := range forms {
		acts = append(acts, f.Get("act"))
		assert.Equal(t, "csrf-token", f.Get("csrf"))
		assert.Equal(t, "11", f.Get("re_src"))
	}
	assert.Equal(t, []string{"1", "2", "5", "6"}, acts)
	assert.Equal(t, "6", forms[3].Get("fid"))
}

func TestFollowingCreateAndAssignGroups(t *testing.T) {
	t.Parallel()

	var assigned url.Values
	mux := http.NewServeMux()
	mux.HandleFunc(pathTagCreate, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "music", r.PostForm.Get("tag"))
		writeEnvelope(w, 0, map[string]any{"tagid": 99})
	})
	mux.HandleFunc(pathTagAddUsers, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assigned = r.PostForm
		writeEnvelope(w, 0, nil)
	})
	client, _ := newTestClient(t, mux)
	following := NewFollowing(client)

	tag, err := following.CreateGroup(context.Background(), "music")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupTag{ID: 99, Name: "music"}, tag)

	require.NoError(t, following.Assign(context.Background(), Relation{Mid: 3}, []int64{99, 100}))
	assert.Equal(t, "3", assigned.Get("fids"))
	assert.Equal(t, "99,100", assigned.Get("tagids"))
}

func TestShowTrackingUsesJSONBodies(t *testing.T) {
	t.Parallel()

	var body map[string]any
	var listQuery url.Values
	mux := http.NewServeMux()
	mux.HandleFunc(pathBangumiFollow, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeEnvelope(w, 0, nil)
	})
	mux.HandleFunc(pathBangumiList, func(w http.ResponseWriter, r *http.Request) {
		listQuery = r.URL.Query()
		writeEnvelope(w, 0, map[string]any{
			"list":  []map[string]any{{"season_id": 33, "media_id": 1, "title": "show", "cover": "c"}},
			"total": 1,
		})
	})
	client, _ := newTestClient(t, mux)
	drama := NewShowTracking(client, SeasonDrama)

	assert.Equal(t, "cinema", drama.Name())
	assert.Equal(t, "bangumi", NewShowTracking(client, SeasonAnime).Name())

	items, err := drama.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2", listQuery.Get("type"))
	assert.Equal(t, "show (season 33)", drama.Describe(items[0]))

	require.NoError(t, drama.Apply(context.Background(), items[0]))
	assert.Equal(t, float64(33), body["season_id"])
	assert.Equal(t, "csrf-token", body["csrf"])
}

func TestWatchLaterListsWholeQueue(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc(pathToView, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 0, map[string]any{
			"count": 2,
			"list": []map[string]any{
				{"aid": 1, "cid": 10, "title": "one", "pic": "p"},
				{"aid": 2, "cid": 20, "title": "two", "pic": "p"},
			},
		})
	})
	var added string
	mux.HandleFunc(pathToViewAdd, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		added = r.PostForm.Get("aid")
		writeEnvelope(w, 0, nil)
	})
	client, _ := newTestClient(t, mux)
	queue := NewWatchLater(client)

	items, err := queue.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "two (av2)", queue.Describe(items[1]))

	require.NoError(t, queue.Apply(context.Background(), items[1]))
	assert.Equal(t, "2", added)
}
