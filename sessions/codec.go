package sessions

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the shortest session secret accepted.
const MinSecretLength = 32

const hkdfInfo = "vinylogger cookie v1"

var errUnsealable = errors.New("cookie cannot be opened")

type cookieKey struct {
	aead   cipher.AEAD
	macKey []byte
}

// Codec seals claims into an opaque cookie value: an HS256 JWT encrypted with XChaCha20-Poly1305.
// The first secret seals; every secret can open, so secrets can be rotated.
type Codec struct {
	keys    []cookieKey
	nowTime func() time.Time
}

// CodecOption modifies a Codec.
type CodecOption func(*Codec)

// WithCodecTime sets the clock used to check claim expiry (primarily for testing)
func WithCodecTime(nowFunc func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowTime = nowFunc
	}
}

// NewCodec derives an encryption key and a MAC key from each secret.
func NewCodec(secrets []string, options ...CodecOption) (*Codec, error) {
	if len(secrets) == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "[NewCodec] at least one session secret is required")
	}

	c := &Codec{nowTime: time.Now}
	for i, secret := range secrets {
		if len(secret) < MinSecretLength {
			return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "[NewCodec] session secret %d is shorter than %d characters", i, MinSecretLength)
		}
		key, err := deriveKey(secret)
		if err != nil {
			return nil, fmt.Errorf("[NewCodec] %w", err)
		}
		c.keys = append(c.keys, key)
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

func deriveKey(secret string) (cookieKey, error) {
	material := make([]byte, chacha20poly1305.KeySize+sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), material); err != nil {
		return cookieKey{}, fmt.Errorf("derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(material[:chacha20poly1305.KeySize])
	if err != nil {
		return cookieKey{}, fmt.Errorf("create cipher: %w", err)
	}
	return cookieKey{aead: aead, macKey: material[chacha20poly1305.KeySize:]}, nil
}

// Seal signs and encrypts claims with the current key.
func (c *Codec) Seal(claims jwt.Claims) (string, error) {
	key := c.keys[0]
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.macKey)
	if err != nil {
		return "", fmt.Errorf("[Codec Seal] sign: %w", err)
	}

	nonce := make([]byte, key.aead.NonceSize(), key.aead.NonceSize()+len(signed)+key.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("[Codec Seal] nonce: %w", err)
	}
	sealed := key.aead.Seal(nonce, nonce, []byte(signed), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts value with each key in turn and validates the JWT inside into claims.
func (c *Codec) Open(value string, claims jwt.Claims) error {
	sealed, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return fmt.Errorf("[Codec Open] %w: %v", errUnsealable, err)
	}

	for _, key := range c.keys {
		if len(sealed) < key.aead.NonceSize() {
			break
		}
		nonce, ciphertext := sealed[:key.aead.NonceSize()], sealed[key.aead.NonceSize():]
		plaintext, err := key.aead.Open(nil, nonce, ciphertext, nil)
		if err != nil {
			continue
		}

		macKey := key.macKey
		_, err = jwt.ParseWithClaims(string(plaintext), claims,
			func(*jwt.Token) (any, error) { return macKey, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(c.nowTime),
		)
		if err != nil {
			return fmt.Errorf("[Codec Open] %w", err)
		}
		return nil
	}
	return fmt.Errorf("[Codec Open] %w", errUnsealable)
}
