package norsani

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SignatureMethod is the only OAuth signature method the API accepts.
const SignatureMethod = "HMAC-SHA256"

const oauthVersion = "1.0"

// Clock returns the current time used for oauth_timestamp.
type Clock func() time.Time

// NonceSource returns a fresh, unpredictable oauth_nonce.
type NonceSource func() (string, error)

// SignerOption configures an OAuthSigner.
type SignerOption func(*OAuthSigner)

// WithClock replaces the signer's time source.
func WithClock(clock Clock) SignerOption {
	return func(s *OAuthSigner) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithNonceSource replaces the signer's nonce generator.
func WithNonceSource(nonce NonceSource) SignerOption {
	return func(s *OAuthSigner) {
		if nonce != nil {
			s.nonce = nonce
		}
	}
}

// OAuthSigner produces OAuth 1.0a HMAC-SHA256 query parameters for plain
// HTTP requests. It holds no mutable state and is safe for concurrent use.
type OAuthSigner struct {
	consumerKey    string
	consumerSecret string
	lastAmpersand  bool
	now            Clock
	nonce          NonceSource
}

// NewOAuthSigner returns a signer for the credentials in cfg.
func NewOAuthSigner(cfg ClientConfig, opts ...SignerOption) *OAuthSigner {
	s := &OAuthSigner{
		consumerKey:    cfg.consumerKey,
		consumerSecret: cfg.consumerSecret,
		lastAmpersand:  cfg.lastAmpersand(),
		now:            time.Now,
		nonce:          randomNonce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign returns the OAuth parameters for method and rawURL, sorted by key.
// Every call draws a new nonce and timestamp.
func (s *OAuthSigner) Sign(method, rawURL string) (Params, error) {
	nonce, err := s.nonce()
	if err != nil {
		return nil, &ConfigurationError{Field: "oauth_nonce", Err: err}
	}
	return s.SignWith(method, rawURL, nonce, s.now().Unix()), nil
}

// SignWith is the deterministic part of Sign.
func (s *OAuthSigner) SignWith(method, rawURL, nonce string, timestamp int64) Params {
	params := Params{
		{Key: "oauth_consumer_key", Value: s.consumerKey},
		{Key: "oauth_nonce", Value: nonce},
		{Key: "oauth_signature_method", Value: SignatureMethod},
		{Key: "oauth_timestamp", Value: strconv.FormatInt(timestamp, 10)},
		{Key: "oauth_version", Value: oauthVersion},
	}

	mac := hmac.New(sha256.New, []byte(s.signingKey()))
	mac.Write([]byte(BaseString(method, rawURL, params)))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	params = append(params, Param{Key: "oauth_signature", Value: signature})
	sortParamsByKey(params)
	return params
}

func (s *OAuthSigner) signingKey() string {
	key := percentEncode(s.consumerSecret)
	if s.lastAmpersand {
		key += "&"
	}
	return key
}

// BaseString builds the OAuth signature base string: the upper-cased
// method, the URL without its query, and the sorted, encoded union of
// oauthParams and the URL's own query parameters.
func BaseString(method, rawURL string, oauthParams Params) string {
	base, query := splitURL(rawURL)

	all := make(Params, 0, len(oauthParams)+len(query))
	for _, p := range oauthParams {
		all = append(all, Param{Key: percentEncode(p.Key), Value: percentEncode(p.Value)})
	}
	for _, p := range query {
		all = append(all, Param{Key: percentEncode(p.Key), Value: percentEncode(p.Value)})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Key != all[j].Key {
			return all[i].Key < all[j].Key
		}
		return all[i].Value < all[j].Value
	})

	pairs := make([]string, len(all))
	for i, p := range all {
		pairs[i] = p.Key + "=" + p.Value
	}

	return strings.ToUpper(method) + "&" + percentEncode(base) + "&" + percentEncode(strings.Join(pairs, "&"))
}

func randomNonce() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
