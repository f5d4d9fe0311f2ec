package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/community-service/internal/config"
	"github.com/spec-kit/community-service/internal/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:             "test-secret",
		Issuer:                "community-service",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLHours:  24,
		AccessCookieName:      "access_token",
		RefreshCookieName:     "refresh_token",
		CookieSameSite:        "Lax",
	}
}

func newTestCodec(t *testing.T) (*TokenCodec, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}
	codec, err := NewTokenCodec(testAuthConfig(), WithClock(clock.Now))
	require.NoError(t, err)
	return codec, clock
}

func TestNewTokenCodecRequiresSecret(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTSecret = ""
	_, err := NewTokenCodec(cfg)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec, _ := newTestCodec(t)

	for _, role := range domain.AllRoles {
		p := Principal{UserID: "user-" + string(role), Role: role}
		issued, err := codec.IssueAccessToken(p)
		require.NoError(t, err)

		got, err := codec.VerifyAccessToken(issued.Value)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	codec, clock := newTestCodec(t)
	p := Principal{UserID: "u1", Role: domain.RoleResident}

	issued, err := codec.IssueRefreshToken(p)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(24*time.Hour), issued.ExpiresAt)

	got, err := codec.VerifyRefreshToken(issued.Value)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	codec, _ := newTestCodec(t)
	p := Principal{UserID: "u1", Role: domain.RoleAdmin}

	refresh, err := codec.IssueRefreshToken(p)
	require.NoError(t, err)
	_, err = codec.VerifyAccessToken(refresh.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := codec.IssueAccessToken(p)
	require.NoError(t, err)
	_, err = codec.VerifyRefreshToken(access.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpiryBoundary(t *testing.T) {
	codec, clock := newTestCodec(t)
	issuedAt := clock.now

	issued, err := codec.IssueAccessToken(Principal{UserID: "u1", Role: domain.RoleResident})
	require.NoError(t, err)
	require.Equal(t, issuedAt.Add(15*time.Minute), issued.ExpiresAt)

	clock.now = issued.ExpiresAt.Add(-time.Nanosecond)
	_, err = codec.VerifyAccessToken(issued.Value)
	assert.NoError(t, err, "strictly before expiry must verify")

	clock.now = issued.ExpiresAt
	_, err = codec.VerifyAccessToken(issued.Value)
	assert.ErrorIs(t, err, ErrInvalidToken, "exactly at expiry must fail")

	clock.now = issued.ExpiresAt.Add(time.Hour)
	_, err = codec.VerifyAccessToken(issued.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired, "cause stays available for logs")
}

func TestIssuedAtIsTruncatedToSeconds(t *testing.T) {
	codec, clock := newTestCodec(t)
	clock.now = clock.now.Add(750 * time.Millisecond)

	issued, err := codec.IssueAccessToken(Principal{UserID: "u1", Role: domain.RoleResident})
	require.NoError(t, err)
	assert.Equal(t, clock.now.Truncate(time.Second).Add(15*time.Minute), issued.ExpiresAt)

	_, err = codec.VerifyAccessToken(issued.Value)
	assert.NoError(t, err)
}

func TestTokenTamperSensitivity(t *testing.T) {
	codec, _ := newTestCodec(t)

	issued, err := codec.IssueAccessToken(Principal{UserID: "8d7f1c2e", Role: domain.RoleSuperAdmin})
	require.NoError(t, err)

	raw := []byte(issued.Value)
	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			tampered := make([]byte, len(raw))
			copy(tampered, raw)
			tampered[i] ^= 1 << bit

			_, err := codec.VerifyAccessToken(string(tampered))
			require.ErrorIs(t, err, ErrInvalidToken, "byte %d bit %d", i, bit)
		}
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	codec, clock := newTestCodec(t)
	cfg := testAuthConfig()
	cfg.JWTSecret = "another-secret"
	other, err := NewTokenCodec(cfg, WithClock(clock.Now))
	require.NoError(t, err)

	issued, err := other.IssueAccessToken(Principal{UserID: "u1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = codec.VerifyAccessToken(issued.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	codec, clock := newTestCodec(t)
	claims := &Claims{
		UserID: "u1",
		Role:   domain.RoleAdmin,
		Kind:   TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "community-service",
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(clock.now),
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Minute)),
		},
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = codec.VerifyAccessToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = codec.VerifyAccessToken(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsUnknownRoleAndMissingExpiry(t *testing.T) {
	codec, clock := newTestCodec(t)
	sign := func(c *Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		return s
	}
	base := jwt.RegisteredClaims{
		Issuer:    "community-service",
		Subject:   "u1",
		IssuedAt:  jwt.NewNumericDate(clock.now),
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Minute)),
	}

	_, err := codec.VerifyAccessToken(sign(&Claims{UserID: "u1", Role: "ROOT", Kind: TokenKindAccess, RegisteredClaims: base}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp := base
	noExp.ExpiresAt = nil
	_, err = codec.VerifyAccessToken(sign(&Claims{UserID: "u1", Role: domain.RoleAdmin, Kind: TokenKindAccess, RegisteredClaims: noExp}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := base
	wrongIssuer.Issuer = "elsewhere"
	_, err = codec.VerifyAccessToken(sign(&Claims{UserID: "u1", Role: domain.RoleAdmin, Kind: TokenKindAccess, RegisteredClaims: wrongIssuer}))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	codec, _ := newTestCodec(t)
	for _, tok := range []string{"", "abc", "a.b.c", strings.Repeat(".", 2)} {
		_, err := codec.VerifyAccessToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, tok)
	}
}

func TestIssueRejectsIncompletePrincipal(t *testing.T) {
	codec, _ := newTestCodec(t)
	_, err := codec.IssueAccessToken(Principal{Role: domain.RoleAdmin})
	assert.Error(t, err)
	_, err = codec.IssueAccessToken(Principal{UserID: "u1", Role: "GUEST"})
	assert.Error(t, err)
}
