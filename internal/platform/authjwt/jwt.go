package authjwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken means no usable bearer token was presented.
	ErrMissingToken = errors.New("no token provided")

	// ErrInvalidToken covers bad signatures, malformed payloads, and expired
	// tokens alike. The cases are deliberately indistinguishable so the
	// gateway cannot be probed as a signature/expiry oracle.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the decoded payload of a verified token. The auth service issues
// userId and email as custom claims; sub is honored as a fallback user id for
// tokens from older issuers.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Service verifies bearer tokens against a shared HMAC secret. It is a pure
// function of (token, secret, clock): no storage, no revocation lookups.
type Service struct {
	secret []byte
}

func New(secret []byte) *Service {
	return &Service{secret: secret}
}

// FromHeader extracts the bearer token from an Authorization header value.
// A header without the space-separated Bearer scheme counts as missing, not
// invalid.
func FromHeader(header string) (string, error) {
	const prefix = "Bearer "
	if header == "" || !strings.HasPrefix(header, prefix) {
		return "", ErrMissingToken
	}
	tok := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if tok == "" {
		return "", ErrMissingToken
	}
	return tok, nil
}

// Parse verifies the token's signature and temporal claims and returns its
// claim set. Every failure mode collapses into ErrInvalidToken.
func (s *Service) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// NewAccessToken mints a signed token. The gateway never issues tokens to
// clients; this exists for local development and tests.
func (s *Service) NewAccessToken(userID, email string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)

	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign: %w", err)
	}
	return signed, exp, nil
}
