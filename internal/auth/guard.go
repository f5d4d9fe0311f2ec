package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/community-service/internal/domain"
	apperrors "github.com/spec-kit/community-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Guard enforces authentication and role allow-lists. It fails closed.
type Guard struct {
	sessions *SessionExtractor
}

// NewGuard constructs a guard over the session extractor.
func NewGuard(sessions *SessionExtractor) *Guard {
	return &Guard{sessions: sessions}
}

// RequireAuth returns the caller or an Unauthorized error.
func (g *Guard) RequireAuth(cookies CookieReader) (Principal, error) {
	p := g.sessions.ExtractPrincipal(cookies)
	if p == nil {
		return Principal{}, apperrors.NewUnauthorized("")
	}
	return *p, nil
}

// RequireRole returns the caller when its role is in allowed. Membership is
// exact; an empty allow-list admits nobody.
func (g *Guard) RequireRole(cookies CookieReader, allowed ...domain.Role) (Principal, error) {
	p, err := g.RequireAuth(cookies)
	if err != nil {
		return Principal{}, err
	}
	if !roleAllowed(p.Role, allowed) {
		return Principal{}, apperrors.NewForbidden("")
	}
	return p, nil
}

// Authenticated is middleware requiring any valid session.
func (g *Guard) Authenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := g.RequireAuth(c)
		if err != nil {
			return err
		}
		c.Locals(principalKey, p)
		return c.Next()
	}
}

// RoleRequired is middleware requiring one of the allowed roles.
func (g *Guard) RoleRequired(allowed ...domain.Role) fiber.Handler {
	allowed = append([]domain.Role(nil), allowed...)
	return func(c *fiber.Ctx) error {
		p, err := g.RequireRole(c, allowed...)
		if err != nil {
			return err
		}
		c.Locals(principalKey, p)
		return c.Next()
	}
}

// PrincipalFromContext retrieves the principal stored by the guard middleware.
func PrincipalFromContext(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	return p, ok
}

// MustPrincipal is PrincipalFromContext for handlers mounted behind the guard.
func MustPrincipal(c *fiber.Ctx) (Principal, error) {
	p, ok := PrincipalFromContext(c)
	if !ok {
		return Principal{}, apperrors.NewUnauthorized("")
	}
	return p, nil
}

func roleAllowed(role domain.Role, allowed []domain.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
