package domain

import "time"

type AccountID string

// Account is a locally stored login profile. The cookie itself lives in the
// secret store under SecretRef.
type Account struct {
	ID        AccountID
	Name      string
	SecretRef string
	LastLogin time.Time
}

func SecretRefFor(id AccountID) string {
	return "bili://" + string(id) + "/cookie"
}
