package bili

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bnema/bilibackup/internal/domain"
)

const (
	pathNav = "/x/web-interface/nav"

	pathFollowings   = "/x/relation/followings"
	pathFollowers    = "/x/relation/followers"
	pathBlacks       = "/x/relation/blacks"
	pathRelationTags = "/x/relation/tags"
	pathModify       = "/x/relation/modify"
	pathTagCreate    = "/x/relation/tag/create"
	pathTagAddUsers  = "/x/relation/tags/addUsers"

	pathFavFolders     = "/x/v3/fav/folder/created/list-all"
	pathFavResources   = "/x/v3/fav/resource/list"
	pathFavFolderAdd   = "/x/v3/fav/folder/add"
	pathFavDeal        = "/x/v3/fav/resource/deal"
	pathFavBatchDelete = "/x/v3/fav/resource/batch-del"

	pathBangumiList     = "/x/space/bangumi/follow/list"
	pathBangumiFollow   = "/pgc/web/follow/add"
	pathBangumiUnfollow = "/pgc/web/follow/del"

	pathHistory       = "/x/web-interface/history/cursor"
	pathHistoryDelete = "/x/v2/history/delete"

	pathToView       = "/x/v2/history/toview"
	pathToViewAdd    = "/x/v2/history/toview/add"
	pathToViewDelete = "/x/v2/history/toview/del"
)

const (
	actFollow   = 1
	actUnfollow = 2
	actBlock    = 5
	actUnblock  = 6

	relationSource = "11"
)

// self returns the pinned session and its numeric account id.
func (c *Client) self(ctx context.Context) (*domain.Session, int64, error) {
	session := c.Session(ctx)
	if session == nil || session.Credential.IsZero() {
		return nil, 0, domain.ErrNotLoggedIn
	}
	mid, err := session.Credential.Mid()
	if err != nil {
		return nil, 0, err
	}
	return session, mid, nil
}

// postForm sends a form mutation carrying the session's CSRF token.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) (Request, error) {
	session := c.Session(ctx)
	if session == nil {
		return Request{}, domain.ErrNotLoggedIn
	}
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", session.Credential.CSRFToken)
	return Request{Method: http.MethodPost, Path: path, Form: form}, nil
}

func (c *Client) mutate(ctx context.Context, path string, form url.Values) error {
	req, err := c.postForm(ctx, path, form)
	if err != nil {
		return err
	}
	return Invoke(ctx, c, req)
}

func (c *Client) mutateJSON(ctx context.Context, path string, body map[string]any) error {
	session := c.Session(ctx)
	if session == nil {
		return domain.ErrNotLoggedIn
	}
	body["csrf"] = session.Credential.CSRFToken
	return Invoke(ctx, c, Request{Method: http.MethodPost, Path: path, JSON: body})
}

func (c *Client) modifyRelation(ctx context.Context, mid int64, act int) error {
	form := url.Values{}
	form.Set("fid", fmt.Sprint(mid))
	form.Set("act", fmt.Sprint(act))
	form.Set("re_src", relationSource)
	if err := c.mutate(ctx, pathModify, form); err != nil {
		return fmt.Errorf("modify relation %d act %d: %w", mid, act, err)
	}
	return nil
}
