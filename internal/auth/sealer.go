package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// sealVersion is prepended to every sealed value and authenticated as
// additional data.
const sealVersion byte = 0x01

var hkdfInfoSession = []byte("focusflow.session.cookie.v1")

var (
	// ErrInvalidToken is returned for values that fail to decode or
	// authenticate.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrExpiredToken is returned for authentic values past expiry.
	ErrExpiredToken = errors.New("session token expired")
)

// Claims is the payload carried in the session cookie.
type Claims struct {
	UserID    string `cbor:"1,keyasint"`
	IssuedAt  int64  `cbor:"2,keyasint"`
	ExpiresAt int64  `cbor:"3,keyasint"`
}

var (
	claimsEncMode cbor.EncMode
	claimsDecMode cbor.DecMode
)

func init() {
	var err error
	claimsEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("auth: CBOR encoder initialization failed: " + err.Error())
	}
	claimsDecMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("auth: CBOR decoder initialization failed: " + err.Error())
	}
}

// CookieSealer encrypts claims into an opaque cookie value with
// XChaCha20-Poly1305 under a key derived from a server secret.
//
// Layout before base64url encoding:
//
//	[version: 1] [nonce: 24] [ciphertext+tag]
type CookieSealer struct {
	key []byte
}

// NewCookieSealer derives the sealing key from secret. An empty secret
// gets a random one, so cookies do not survive a restart.
func NewCookieSealer(secret []byte) (*CookieSealer, error) {
	if len(secret) == 0 {
		secret = make([]byte, chacha20poly1305.KeySize)
		if _, err := io.ReadFull(rand.Reader, secret); err != nil {
			return nil, fmt.Errorf("generating session secret: %w", err)
		}
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, hkdfInfoSession), key); err != nil {
		return nil, fmt.Errorf("deriving session key: %w", err)
	}
	return &CookieSealer{key: key}, nil
}

// Seal encodes and encrypts claims.
func (s *CookieSealer) Seal(c Claims) (string, error) {
	plaintext, err := claimsEncMode.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding claims: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	out := make([]byte, 1+chacha20poly1305.NonceSizeX, 1+chacha20poly1305.NonceSizeX+len(plaintext)+aead.Overhead())
	out[0] = sealVersion
	if _, err := io.ReadFull(rand.Reader, out[1:]); err != nil {
		return "", fmt.Errorf("generating random nonce: %w", err)
	}

	out = aead.Seal(out, out[1:], plaintext, out[:1])
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a sealed value and checks expiry against now.
func (s *CookieSealer) Open(token string, now time.Time) (Claims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < 1+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return Claims{}, ErrInvalidToken
	}
	if raw[0] != sealVersion {
		return Claims{}, ErrInvalidToken
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return Claims{}, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	nonce := raw[1 : 1+chacha20poly1305.NonceSizeX]
	plaintext, err := aead.Open(nil, nonce, raw[1+chacha20poly1305.NonceSizeX:], raw[:1])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	var c Claims
	if err := claimsDecMode.Unmarshal(plaintext, &c); err != nil || c.UserID == "" {
		return Claims{}, ErrInvalidToken
	}
	if now.Unix() >= c.ExpiresAt {
		return Claims{}, ErrExpiredToken
	}
	return c, nil
}
