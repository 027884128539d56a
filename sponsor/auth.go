package sponsor

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// TokenSource mints short-lived ES256 bearer tokens for sponsor requests.
// It is immutable after construction and safe for concurrent use; the
// parsed signing key is cached to avoid re-parsing the PEM per request.
type TokenSource struct {
	keyID string
	key   *ecdsa.PrivateKey
	ttl   time.Duration
}

// NewTokenSource parses a PEM-encoded ECDSA key and returns a source of
// bearer tokens identified by keyID.
func NewTokenSource(keyID, pemKey string) (*TokenSource, error) {
	if keyID == "" {
		return nil, fmt.Errorf("keyID must not be empty")
	}

	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block: invalid PEM format")
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		// PKCS8 is the other encoding in the wild.
		parsed, pkcs8Err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if pkcs8Err != nil {
			return nil, fmt.Errorf("failed to parse signing key: %w", err)
		}
		ec, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("signing key is %T, want *ecdsa.PrivateKey", parsed)
		}
		key = ec
	}

	return &TokenSource{keyID: keyID, key: key, ttl: 2 * time.Minute}, nil
}

// Token mints a fresh signed JWT.
func (t *TokenSource) Token() (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.ES256, Key: t.key},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", t.keyID),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}

	now := time.Now()
	claims := jwt.Claims{
		Issuer:    t.keyID,
		Subject:   t.keyID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(now.Add(t.ttl)),
	}

	token, err := jwt.Signed(signer).Claims(claims).CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}
