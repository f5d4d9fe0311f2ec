package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/community-service/internal/config"
)

// CookieSettings describes the access and refresh cookies.
type CookieSettings struct {
	AccessName  string
	RefreshName string
	Secure      bool
	SameSite    string
}

// NewCookieSettings reads cookie settings from auth configuration.
func NewCookieSettings(cfg config.AuthConfig) CookieSettings {
	return CookieSettings{
		AccessName:  cfg.AccessCookieName,
		RefreshName: cfg.RefreshCookieName,
		Secure:      cfg.CookieSecure,
		SameSite:    cfg.CookieSameSite,
	}
}

// SetSession writes both session cookies.
func (s CookieSettings) SetSession(c *fiber.Ctx, access, refresh IssuedToken) {
	c.Cookie(s.cookie(s.AccessName, access.Value, access.ExpiresAt))
	c.Cookie(s.cookie(s.RefreshName, refresh.Value, refresh.ExpiresAt))
}

// ClearSession overwrites both cookies with empty, already expired values.
func (s CookieSettings) ClearSession(c *fiber.Ctx) {
	expired := time.Unix(0, 0).UTC()
	c.Cookie(s.cookie(s.AccessName, "", expired))
	c.Cookie(s.cookie(s.RefreshName, "", expired))
}

func (s CookieSettings) cookie(name, value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		Secure:   s.Secure,
		HTTPOnly: true,
		SameSite: s.SameSite,
	}
}
