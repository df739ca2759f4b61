package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	CookieAccountField = "DedeUserID"
	CookieCSRFField    = "bili_jct"
	CookieSessionField = "SESSDATA"
)

// Credential is replaced wholesale on login and logout, never mutated in place.
type Credential struct {
	Cookie    string
	CSRFToken string
	AccountID AccountID
}

func (c Credential) IsZero() bool {
	return c.Cookie == ""
}

// Mid returns the numeric account id used by the remote API.
func (c Credential) Mid() (int64, error) {
	mid, err := strconv.ParseInt(string(c.AccountID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: account id %q is not numeric", ErrAuth, c.AccountID)
	}
	return mid, nil
}

// ParseCookieField tolerates whitespace around "=" and ";".
func ParseCookieField(cookie string, field string) (string, bool) {
	for _, part := range strings.Split(cookie, ";") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(name) == field {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

func CredentialFromCookie(cookie string) (Credential, error) {
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return Credential{}, fmt.Errorf("%w: cookie is empty", ErrAuth)
	}

	mid, ok := ParseCookieField(cookie, CookieAccountField)
	if !ok || mid == "" {
		return Credential{}, fmt.Errorf("%w: cookie is missing %s", ErrAuth, CookieAccountField)
	}
	csrf, ok := ParseCookieField(cookie, CookieCSRFField)
	if !ok || csrf == "" {
		return Credential{}, fmt.Errorf("%w: cookie is missing %s", ErrAuth, CookieCSRFField)
	}

	return Credential{
		Cookie:    cookie,
		CSRFToken: csrf,
		AccountID: AccountID(mid),
	}, nil
}
