package bili

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/bilibackup/internal/domain"
)

const (
	paramTimestamp = "wts"
	paramSignature = "w_rid"
	mixinKeyLength = 32
)

var mixinKeyTable = [64]int{
	46, 47, 18, 2, 53, 8, 23, 32, 15, 50, 10, 31, 58, 3, 45, 35,
	27, 43, 5, 49, 33, 9, 42, 19, 29, 28, 14, 39, 12, 38, 41, 13,
	37, 48, 7, 16, 24, 55, 40, 61, 26, 17, 0, 1, 60, 51, 30, 4,
	22, 25, 54, 21, 56, 59, 6, 63, 57, 62, 11, 36, 20, 34, 44, 52,
}

// Signer adds the wts/w_rid pair to query parameters of signed endpoints.
type Signer struct {
	mixin string
	now   func() time.Time
}

func NewSigner(keys domain.SigningKeyPair, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{mixin: MixinKey(keys), now: now}
}

// MixinKey permutes imageKey+subKey through the table. Positions beyond the raw
// key are skipped, so empty keys give an empty mixin key.
func MixinKey(keys domain.SigningKeyPair) string {
	raw := keys.ImageKey + keys.SubKey

	var b strings.Builder
	for _, idx := range mixinKeyTable {
		if b.Len() == mixinKeyLength {
			break
		}
		if idx < len(raw) {
			b.WriteByte(raw[idx])
		}
	}
	return b.String()
}

// ExtractKey returns the file stem of the last path segment of a key URL.
func ExtractKey(rawURL string) string {
	segment := rawURL
	if i := strings.LastIndexByte(segment, '/'); i >= 0 {
		segment = segment[i+1:]
	}
	if i := strings.IndexByte(segment, '.'); i >= 0 {
		segment = segment[:i]
	}
	return segment
}

func KeysFromURLs(imageURL, subURL string) domain.SigningKeyPair {
	return domain.SigningKeyPair{
		ImageKey: ExtractKey(imageURL),
		SubKey:   ExtractKey(subURL),
	}
}

// Sign stamps params with wts and w_rid and returns the signature. Any stale
// w_rid is discarded first. Callers normally leave wts out so it is taken from
// the clock; a wts already in params is kept as is, which makes the signature
// deterministic for tests and replays.
func (s *Signer) Sign(params map[string]string) string {
	delete(params, paramSignature)
	if _, ok := params[paramTimestamp]; !ok {
		params[paramTimestamp] = strconv.FormatInt(s.now().Unix(), 10)
	}

	sum := md5.Sum([]byte(canonicalQuery(params) + s.mixin))
	signature := hex.EncodeToString(sum[:])
	params[paramSignature] = signature
	return signature
}

// Encode signs params and renders them as a query string.
func (s *Signer) Encode(params map[string]string) string {
	s.Sign(params)
	return canonicalQuery(params)
}

// canonicalQuery renders params in ascending key order. The signed string and
// the sent query are the same bytes.
func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, escape(k)+"="+escape(params[k]))
	}
	return strings.Join(parts, "&")
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
