package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/community-service/internal/auth"
	"github.com/spec-kit/community-service/internal/domain"
	"github.com/spec-kit/community-service/internal/repository"
	apperrors "github.com/spec-kit/community-service/pkg/util/errorutil"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgNotApproved        = "Account not approved"
)

// SessionTokens is the pair written to the session cookies.
type SessionTokens struct {
	Access  auth.IssuedToken
	Refresh auth.IssuedToken
}

// RegisterInput describes a resident sign-up.
type RegisterInput struct {
	Name       string
	Email      string
	Phone      string
	UnitNumber string
	Password   string
}

// AuthService coordinates registration, login and token refresh.
type AuthService struct {
	users     repository.UserRepository
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenCodec
	dummyHash string
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Hasher   *auth.PasswordHasher
	Tokens   *auth.TokenCodec
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	// Compared against when the email is unknown so both paths cost one bcrypt.
	dummy, _ := deps.Hasher.Hash("community-service/unknown-account")
	return &AuthService{
		users:     deps.UserRepo,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		dummyHash: dummy,
	}
}

// Register creates a resident account awaiting approval.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	hash, err := s.hashPassword("password", in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		UnitNumber:   strings.TrimSpace(in.UnitNumber),
		PasswordHash: hash,
		Role:         domain.RoleResident,
		Status:       domain.UserStatusPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates by email and password and issues a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, SessionTokens, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, SessionTokens{}, apperrors.NewUnauthorized(msgInvalidCredentials)
		}
		return nil, SessionTokens{}, apperrors.MapError(err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, SessionTokens{}, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	if user.Status != domain.UserStatusApproved {
		return nil, SessionTokens{}, apperrors.NewForbidden(msgNotApproved)
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, SessionTokens{}, err
	}
	return user, tokens, nil
}

// Refresh mints a new session from a refresh token. The role is re-read from
// storage so promotions and demotions take effect on the next refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, SessionTokens, error) {
	if refreshToken == "" {
		return nil, SessionTokens{}, apperrors.NewUnauthorized("")
	}
	principal, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, SessionTokens{}, apperrors.NewUnauthorized("")
	}

	user, err := s.loadPrincipalUser(ctx, principal)
	if err != nil {
		return nil, SessionTokens{}, err
	}
	if user.Status != domain.UserStatusApproved {
		return nil, SessionTokens{}, apperrors.NewUnauthorized("")
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, SessionTokens{}, err
	}
	return user, tokens, nil
}

// Me returns the account behind the principal.
func (s *AuthService) Me(ctx context.Context, principal auth.Principal) (*domain.User, error) {
	return s.loadPrincipalUser(ctx, principal)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, principal auth.Principal, currentPassword, newPassword string) error {
	user, err := s.loadPrincipalUser(ctx, principal)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return apperrors.NewValidationError("current password is incorrect", nil)
	}
	hash, err := s.hashPassword("new_password", newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return apperrors.MapError(s.users.UpdatePasswordHash(ctx, user))
}

// hashPassword reports bcrypt's 72 byte limit as a validation failure on field.
func (s *AuthService) hashPassword(field, password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperrors.NewValidationError("validation failed", map[string]string{field: "maxbytes=72"})
	}
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

func (s *AuthService) loadPrincipalUser(ctx context.Context, principal auth.Principal) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (SessionTokens, error) {
	principal := auth.Principal{UserID: user.ID, Role: user.Role}
	access, err := s.tokens.IssueAccessToken(principal)
	if err != nil {
		return SessionTokens{}, apperrors.NewInternalError(err)
	}
	refresh, err := s.tokens.IssueRefreshToken(principal)
	if err != nil {
		return SessionTokens{}, apperrors.NewInternalError(err)
	}
	return SessionTokens{Access: access, Refresh: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
