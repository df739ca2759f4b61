package domain

import "context"

type SigningKeyPair struct {
	ImageKey string
	SubKey   string
}

func (k SigningKeyPair) IsZero() bool {
	return k.ImageKey == "" && k.SubKey == ""
}

// Session pairs a credential with the signing keys fetched for it. Holders swap
// the whole value so readers never observe a credential from one login next to
// keys from another.
type Session struct {
	Credential Credential
	Keys       SigningKeyPair
	Name       string
}

type sessionKey struct{}

// WithSession pins s for every call made with the returned context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// Navigation is the account summary returned by the navigation endpoint.
type Navigation struct {
	LoggedIn  bool
	AccountID AccountID
	Name      string
	Keys      SigningKeyPair
}
