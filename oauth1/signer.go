package oauth1

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// nonceBytes is the amount of randomness in a nonce. Hex encoded this is 64 characters,
// the longest nonce the provider accepts.
const nonceBytes = 32

// NonceSource returns a fresh nonce for every call.
type NonceSource func() (string, error)

// Signer builds PLAINTEXT Authorization headers for one consumer credential.
type Signer struct {
	consumer ConsumerCredential
	nowTime  func() time.Time
	nonce    NonceSource
}

// SignerOption modifies a Signer.
type SignerOption func(*Signer)

// WithNowTime sets the clock used for oauth_timestamp (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SignerOption {
	return func(s *Signer) {
		s.nowTime = nowFunc
	}
}

// WithNonceSource replaces the random nonce generator (primarily for testing)
func WithNonceSource(source NonceSource) SignerOption {
	return func(s *Signer) {
		s.nonce = source
	}
}

// NewSigner validates the consumer credential and returns a Signer for it.
func NewSigner(consumer ConsumerCredential, options ...SignerOption) (*Signer, error) {
	if err := consumer.Validate(); err != nil {
		return nil, fmt.Errorf("[NewSigner] %w", err)
	}
	s := &Signer{
		consumer: consumer,
		nowTime:  time.Now,
		nonce:    NewNonce,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Consumer returns the consumer credential the signer was built with.
func (s *Signer) Consumer() ConsumerCredential {
	return s.consumer
}

// AuthorizationHeader returns the value of the Authorization header for one request.
// token may be nil (request-token step); the oauth_token field is then omitted and the
// signature is "<consumer secret>&".
func (s *Signer) AuthorizationHeader(token *TokenCredential, extra ...Param) (string, error) {
	nonce, err := s.nonce()
	if err != nil {
		return "", fmt.Errorf("[Signer AuthorizationHeader] nonce: %w", err)
	}

	tokenSecret := ""
	params := make([]Param, 0, 6+len(extra))
	params = append(params,
		Param{Key: ParamConsumerKey, Value: s.consumer.Key},
		Param{Key: ParamNonce, Value: nonce},
	)
	if token != nil && token.Token != "" {
		params = append(params, Param{Key: ParamToken, Value: token.Token})
		tokenSecret = token.Secret
	}

	var b strings.Builder
	b.WriteString("OAuth ")
	for _, p := range params {
		writeParam(&b, p.Key, PercentEncode(p.Value))
	}
	// PLAINTEXT signatures are sent unencoded.
	writeParam(&b, ParamSignature, Signature(s.consumer.Secret, tokenSecret))
	writeParam(&b, ParamSignatureMethod, SignatureMethodPlaintext)
	writeParam(&b, ParamTimestamp, strconv.FormatInt(s.nowTime().Unix(), 10))
	for _, p := range extra {
		writeParam(&b, p.Key, PercentEncode(p.Value))
	}
	return strings.TrimSuffix(b.String(), ", "), nil
}

func writeParam(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(`="`)
	b.WriteString(value)
	b.WriteString(`", `)
}

// Signature is the PLAINTEXT signature for the given secrets.
func Signature(consumerSecret, tokenSecret string) string {
	return consumerSecret + "&" + tokenSecret
}

// BuildAuthorizationHeader signs a single request with a fresh nonce and the current time.
func BuildAuthorizationHeader(consumer ConsumerCredential, token *TokenCredential, extra ...Param) (string, error) {
	s, err := NewSigner(consumer)
	if err != nil {
		return "", err
	}
	return s.AuthorizationHeader(token, extra...)
}

// NewNonce returns 32 random bytes, hex encoded.
func NewNonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
