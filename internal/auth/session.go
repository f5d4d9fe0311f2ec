package auth

import (
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// CookieReader exposes request cookies by name. *fiber.Ctx satisfies it.
type CookieReader interface {
	Cookies(key string, defaultValue ...string) string
}

// CookieMap is a CookieReader over already extracted cookies.
type CookieMap map[string]string

// Cookies returns the named cookie or the optional default.
func (m CookieMap) Cookies(key string, defaultValue ...string) string {
	if val, ok := m[key]; ok && val != "" {
		return val
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// SessionExtractor decodes the access cookie into a principal.
type SessionExtractor struct {
	codec      *TokenCodec
	cookieName string
	logger     *zap.Logger
}

// NewSessionExtractor constructs an extractor reading cookieName.
func NewSessionExtractor(codec *TokenCodec, cookieName string, logger *zap.Logger) *SessionExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionExtractor{codec: codec, cookieName: cookieName, logger: logger}
}

// ExtractPrincipal returns the caller or nil. A missing cookie and a rejected
// token both yield nil; only the logs tell them apart.
func (s *SessionExtractor) ExtractPrincipal(cookies CookieReader) (principal *Principal) {
	if cookies == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session extraction panicked", zap.Any("panic", r))
			principal = nil
		}
	}()

	token := cookies.Cookies(s.cookieName)
	if token == "" {
		return nil
	}

	p, err := s.codec.VerifyAccessToken(token)
	if err != nil {
		reason := "rejected"
		if errors.Is(err, jwt.ErrTokenExpired) {
			reason = "expired"
		}
		s.logger.Debug("access token not accepted", zap.String("reason", reason), zap.Error(err))
		return nil
	}
	return &p
}
