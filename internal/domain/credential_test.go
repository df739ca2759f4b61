package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCookieField(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		field  string
		want   string
		found  bool
	}{
		{name: "plain", cookie: "DedeUserID=123456; bili_jct=abcdef", field: "DedeUserID", want: "123456", found: true},
		{name: "spaces around separators", cookie: "DedeUserID = 123456 ; bili_jct = abcdef", field: "bili_jct", want: "abcdef", found: true},
		{name: "missing", cookie: "SESSDATA=x", field: "bili_jct", found: false},
		{name: "value with equals", cookie: "SESSDATA=a%2Cb=c; DedeUserID=1", field: "SESSDATA", want: "a%2Cb=c", found: true},
		{name: "prefix is not a match", cookie: "DedeUserID__ckMd5=zz; DedeUserID=9", field: "DedeUserID", want: "9", found: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCookieField(tt.cookie, tt.field)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCredentialFromCookie(t *testing.T) {
	cred, err := CredentialFromCookie(" SESSDATA=s; DedeUserID=42; bili_jct=tok ")
	require.NoError(t, err)

	assert.Equal(t, AccountID("42"), cred.AccountID)
	assert.Equal(t, "tok", cred.CSRFToken)
	assert.Equal(t, "SESSDATA=s; DedeUserID=42; bili_jct=tok", cred.Cookie)

	mid, err := cred.Mid()
	require.NoError(t, err)
	assert.Equal(t, int64(42), mid)
}

func TestCredentialFromCookieRequiresFields(t *testing.T) {
	_, err := CredentialFromCookie("SESSDATA=s; bili_jct=tok")
	require.ErrorIs(t, err, ErrAuth)

	_, err = CredentialFromCookie("DedeUserID=1")
	require.ErrorIs(t, err, ErrAuth)

	_, err = CredentialFromCookie("   ")
	require.ErrorIs(t, err, ErrAuth)
}

func TestSessionContextRoundTrip(t *testing.T) {
	_, ok := SessionFrom(context.Background())
	assert.False(t, ok)

	s := &Session{Credential: Credential{Cookie: "c", AccountID: "1"}}
	got, ok := SessionFrom(WithSession(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = SessionFrom(WithSession(context.Background(), nil))
	assert.False(t, ok)
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	remote := error(&RemoteError{Code: -101, Message: "not logged in"})
	assert.ErrorIs(t, remote, ErrRemote)
	assert.NotErrorIs(t, remote, ErrNetwork)

	cause := errors.New("connection reset")
	network := error(&NetworkError{Op: "GET /x", Attempts: 3, Err: cause})
	assert.ErrorIs(t, network, ErrNetwork)
	assert.ErrorIs(t, network, cause)
	assert.Contains(t, network.Error(), "3 attempt(s)")

	var re *RemoteError
	require.ErrorAs(t, errors.Join(errors.New("other"), remote), &re)
	assert.Equal(t, -101, re.Code)

	assert.ErrorIs(t, ErrNotLoggedIn, ErrAuth)
}
