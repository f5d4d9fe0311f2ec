package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/community-service/internal/config"
	"github.com/spec-kit/community-service/internal/domain"
)

// ErrInvalidToken is returned for every verification failure: bad signature,
// malformed input, wrong token kind and expiry alike. The wrapped cause is for
// logs only.
var ErrInvalidToken = errors.New("invalid token")

// TokenKind separates access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Principal is the verified caller handed to handlers.
type Principal struct {
	UserID string
	Role   domain.Role
}

// IssuedToken is a signed token and the instant it stops verifying.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Claims describes JWT payload.
type Claims struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role,omitempty"`
	Kind   TokenKind   `json:"typ"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 tokens with a process-wide secret.
type TokenCodec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption customizes a TokenCodec.
type TokenOption func(*TokenCodec)

// WithClock replaces the wall clock used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(tc *TokenCodec) {
		if now != nil {
			tc.now = now
		}
	}
}

// NewTokenCodec builds a codec from auth configuration.
func NewTokenCodec(cfg config.AuthConfig, opts ...TokenOption) (*TokenCodec, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	tc := &TokenCodec{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL(),
		refreshTTL: cfg.RefreshTokenTTL(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc, nil
}

// IssueAccessToken signs a short-lived token for p.
func (tc *TokenCodec) IssueAccessToken(p Principal) (IssuedToken, error) {
	return tc.issue(p, TokenKindAccess, tc.accessTTL)
}

// IssueRefreshToken signs a long-lived token usable only to mint access tokens.
func (tc *TokenCodec) IssueRefreshToken(p Principal) (IssuedToken, error) {
	return tc.issue(p, TokenKindRefresh, tc.refreshTTL)
}

// VerifyAccessToken returns the principal carried by an access token.
func (tc *TokenCodec) VerifyAccessToken(token string) (Principal, error) {
	return tc.verify(token, TokenKindAccess)
}

// VerifyRefreshToken returns the principal carried by a refresh token.
func (tc *TokenCodec) VerifyRefreshToken(token string) (Principal, error) {
	return tc.verify(token, TokenKindRefresh)
}

func (tc *TokenCodec) issue(p Principal, kind TokenKind, ttl time.Duration) (IssuedToken, error) {
	if p.UserID == "" || !p.Role.Valid() {
		return IssuedToken{}, fmt.Errorf("issue %s token: incomplete principal", kind)
	}

	// NumericDate has second precision; truncate so ExpiresAt matches the claim.
	issuedAt := tc.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)
	claims := &Claims{
		UserID: p.UserID,
		Role:   p.Role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tc.issuer,
			Subject:   p.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tc.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Value: tokenString, ExpiresAt: expiresAt}, nil
}

func (tc *TokenCodec) verify(tokenStr string, kind TokenKind) (Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return tc.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tc.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(tc.issuer),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return Principal{}, fmt.Errorf("%w: token not valid", ErrInvalidToken)
	}
	if claims.Kind != kind {
		return Principal{}, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, kind, claims.Kind)
	}
	if claims.UserID == "" || claims.UserID != claims.Subject {
		return Principal{}, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return Principal{UserID: claims.UserID, Role: claims.Role}, nil
}
