package bili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bnema/bilibackup/internal/domain"
)

// codeNotLoggedIn is returned by the navigation endpoint together with the
// signing key URLs when the cookie is missing or expired.
const codeNotLoggedIn = -101

type navData struct {
	IsLogin bool   `json:"isLogin"`
	Mid     int64  `json:"mid"`
	Uname   string `json:"uname"`
	Face    string `json:"face"`
	WbiImg  struct {
		ImgURL string `json:"img_url"`
		SubURL string `json:"sub_url"`
	} `json:"wbi_img"`
}

type Navigator struct {
	client *Client
}

func NewNavigator(client *Client) *Navigator {
	return &Navigator{client: client}
}

func (n *Navigator) Navigate(ctx context.Context) (domain.Navigation, error) {
	req := Request{Method: http.MethodGet, Path: pathNav}
	body, err := n.client.Execute(ctx, req)
	if err != nil {
		return domain.Navigation{}, fmt.Errorf("fetch navigation: %w", err)
	}

	env, err := decodeEnvelope(req.op(), body)
	if err != nil {
		return domain.Navigation{}, err
	}
	if env.Code != 0 && env.Code != codeNotLoggedIn {
		return domain.Navigation{}, fmt.Errorf("fetch navigation: %w", &domain.RemoteError{Code: env.Code, Message: env.Message})
	}
	if isNull(env.Data) {
		return domain.Navigation{}, fmt.Errorf("fetch navigation: %w: %w", domain.ErrRemote, errEmptyData)
	}

	var data navData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return domain.Navigation{}, fmt.Errorf("decode navigation: %w", err)
	}

	nav := domain.Navigation{
		LoggedIn: env.Code == 0 && data.IsLogin,
		Name:     data.Uname,
		Keys:     KeysFromURLs(data.WbiImg.ImgURL, data.WbiImg.SubURL),
	}
	if data.Mid != 0 {
		nav.AccountID = domain.AccountID(strconv.FormatInt(data.Mid, 10))
	}
	return nav, nil
}
