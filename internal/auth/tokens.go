package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wyvern0us/proxy/internal/shared/id"
)

// ErrInvalidToken indicates a token that failed signature or claim checks.
var ErrInvalidToken = errors.New("auth: invalid token")

const defaultTokenTTL = 168 * time.Hour

// Claims are the JWT claims carried by desktop identity tokens.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 identity tokens.
type TokenIssuer struct {
	key    []byte
	ttl    time.Duration
	issuer string
}

// NewTokenIssuer creates an issuer with the given signing key. An empty key
// gets a random one, which invalidates outstanding tokens on restart.
func NewTokenIssuer(key string, ttl time.Duration) *TokenIssuer {
	if ttl == 0 {
		ttl = defaultTokenTTL
	}

	var signingKey []byte
	if key == "" {
		signingKey = make([]byte, 32)
		if _, err := rand.Read(signingKey); err != nil {
			panic(fmt.Sprintf("failed to generate signing key: %v", err))
		}
	} else {
		signingKey = []byte(key)
	}

	return &TokenIssuer{
		key:    signingKey,
		ttl:    ttl,
		issuer: "desktop",
	}
}

// Issue mints a signed token for an authenticated user.
func (t *TokenIssuer) Issue(userID id.UserID, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims. Expired, malformed, and
// wrongly-signed tokens all return ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.key, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// KeyFingerprint returns a short identifier for the active signing key,
// useful in logs when diagnosing restarts with ephemeral keys.
func (t *TokenIssuer) KeyFingerprint() string {
	sum := sha256.Sum256(t.key)
	return hex.EncodeToString(sum[:4])
}
