package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/community-service/internal/api/http/handlers"
	"github.com/spec-kit/community-service/internal/auth"
	"github.com/spec-kit/community-service/internal/config"
	"github.com/spec-kit/community-service/internal/domain"
	"github.com/spec-kit/community-service/internal/events"
	"github.com/spec-kit/community-service/internal/observability"
	"github.com/spec-kit/community-service/internal/repository/memstore"
	"github.com/spec-kit/community-service/internal/service"
)

type testServer struct {
	app   *fiber.App
	store *memstore.Store
	users *service.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	authCfg := config.AuthConfig{
		JWTSecret:             "router-test-secret",
		Issuer:                "community-service",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLHours:  24,
		AccessCookieName:      "access_token",
		RefreshCookieName:     "refresh_token",
		CookieSameSite:        "Lax",
	}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	tokens, err := auth.NewTokenCodec(authCfg)
	require.NoError(t, err)

	store := memstore.NewStore()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	dispatcher := events.NewInMemoryDispatcher(logger)
	authService := service.NewAuthService(service.AuthDependencies{UserRepo: store.Users(), Hasher: hasher, Tokens: tokens})
	userService := service.NewUserService(service.UserDependencies{UserRepo: store.Users(), Hasher: hasher, Dispatcher: dispatcher})
	bookingService := service.NewBookingService(service.BookingDependencies{
		FacilityRepo: store.Facilities(),
		BookingRepo:  store.Bookings(),
		Dispatcher:   dispatcher,
	})

	app := NewApp(config.AppConfig{Name: "test", RequestTimeoutSeconds: 5}, logger, metrics)
	RegisterRoutes(app, RouteConfig{
		Health:     handlers.NewHealthHandler("test", "dev", metrics, nil),
		Auth:       handlers.NewAuthHandler(authService, auth.NewCookieSettings(authCfg)),
		AdminUsers: handlers.NewAdminUsersHandler(userService),
		Facilities: handlers.NewFacilitiesHandler(bookingService),
		Bookings:   handlers.NewBookingsHandler(bookingService),
		Guard:      auth.NewGuard(auth.NewSessionExtractor(tokens, authCfg.AccessCookieName, logger)),
	})
	return &testServer{app: app, store: store, users: userService}
}

// client keeps the cookies a browser would.
type client struct {
	t   *testing.T
	srv *testServer
	jar map[string]string
}

func (s *testServer) client(t *testing.T) *client {
	return &client{t: t, srv: s, jar: map[string]string{}}
}

func (c *client) do(method, path string, payload any) (int, map[string]any) {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(c.t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for name, val := range c.jar {
		req.AddCookie(&stdhttp.Cookie{Name: name, Value: val})
	}
	resp, err := c.srv.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	for _, ck := range resp.Cookies() {
		if ck.Value == "" {
			delete(c.jar, ck.Name)
			continue
		}
		c.jar[ck.Name] = ck.Value
	}

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(c.t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

func (c *client) login(email, password string) {
	c.t.Helper()
	status, body := c.do(fiber.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(c.t, fiber.StatusOK, status, body)
}

func (s *testServer) seed(t *testing.T, email string, role domain.Role) string {
	t.Helper()
	hash, err := auth.NewPasswordHasher(bcrypt.MinCost).Hash("correct-horse")
	require.NoError(t, err)
	user := &domain.User{Name: email, Email: email, Phone: "+" + email, PasswordHash: hash, Role: role, Status: domain.UserStatusApproved}
	require.NoError(t, s.store.Users().Create(context.Background(), user))
	return user.ID
}

func data(body map[string]any) map[string]any {
	m, _ := body["data"].(map[string]any)
	return m
}

func TestResidentOnStaffRouteIsForbidden(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, "res@example.com", domain.RoleResident)
	c := srv.client(t)
	c.login("res@example.com", "correct-horse")

	for _, path := range []string{"/api/admin/users", "/api/admin/bookings", "/health/metrics"} {
		status, body := c.do(fiber.MethodGet, path, nil)
		assert.Equal(t, fiber.StatusForbidden, status, path)
		assert.Equal(t, map[string]any{"error": "Forbidden"}, body, path)
	}
}

func TestProtectedRoutesWithoutCookies(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client(t)

	for _, path := range []string{"/api/auth/me", "/api/admin/users", "/api/bookings/mine", "/api/facilities"} {
		status, body := c.do(fiber.MethodGet, path, nil)
		assert.Equal(t, fiber.StatusUnauthorized, status, path)
		assert.Equal(t, map[string]any{"error": "Unauthorized"}, body, path)
	}

	c.jar["access_token"] = "garbage"
	status, body := c.do(fiber.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, map[string]any{"error": "Unauthorized"}, body)
}

func TestRegistrationApprovalFlow(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, "admin@example.com", domain.RoleAdmin)

	resident := srv.client(t)
	status, body := resident.do(fiber.MethodPost, "/api/auth/register", map[string]string{
		"name": "Dana", "email": "dana@example.com", "phone": "+15550001", "password": "long-enough", "unit_number": "B-12",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	userID := data(body)["id"].(string)
	assert.Equal(t, "PENDING", data(body)["status"])
	assert.NotContains(t, data(body), "password_hash")

	status, body = resident.do(fiber.MethodPost, "/api/auth/register", map[string]string{
		"name": "Dana", "email": "dana@example.com", "phone": "+15550009", "password": "long-enough",
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Resource already exists", body["error"])

	status, body = resident.do(fiber.MethodPost, "/api/auth/login", map[string]string{"email": "dana@example.com", "password": "long-enough"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, map[string]any{"error": "Account not approved"}, body)

	status, body = resident.do(fiber.MethodPost, "/api/auth/login", map[string]string{"email": "dana@example.com", "password": "wrong-password"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, map[string]any{"error": "Invalid credentials"}, body)

	admin := srv.client(t)
	admin.login("admin@example.com", "correct-horse")
	status, body = admin.do(fiber.MethodPatch, "/api/admin/users/"+userID+"/status", map[string]string{"status": "APPROVED"})
	require.Equal(t, fiber.StatusOK, status, body)

	status, body = admin.do(fiber.MethodPatch, "/api/admin/users/"+userID+"/role", map[string]string{"role": "ADMIN"})
	assert.Equal(t, fiber.StatusForbidden, status, "role changes are SUPER_ADMIN only")
	assert.Equal(t, map[string]any{"error": "Forbidden"}, body)

	resident.login("dana@example.com", "long-enough")
	assert.Contains(t, resident.jar, "access_token")
	assert.Contains(t, resident.jar, "refresh_token")

	status, body = resident.do(fiber.MethodGet, "/api/auth/me", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "RESIDENT", data(body)["role"])

	status, _ = resident.do(fiber.MethodPost, "/api/auth/refresh", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = resident.do(fiber.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, resident.jar)

	status, _ = resident.do(fiber.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestSuperAdminChangesRole(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, "root@example.com", domain.RoleSuperAdmin)
	target := srv.seed(t, "res@example.com", domain.RoleResident)
	root := srv.client(t)
	root.login("root@example.com", "correct-horse")

	status, body := root.do(fiber.MethodPatch, "/api/admin/users/"+target+"/role", map[string]string{"role": "ADMIN"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "ADMIN", data(body)["role"])

	status, body = root.do(fiber.MethodPatch, "/api/admin/users/"+target+"/role", map[string]string{"role": "OWNER"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation failed", body["error"])
	assert.Equal(t, map[string]any{"role": "oneof=RESIDENT ADMIN SUPER_ADMIN"}, body["details"])
}

func TestBookingFlow(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, "admin@example.com", domain.RoleAdmin)
	srv.seed(t, "a@example.com", domain.RoleResident)
	srv.seed(t, "b@example.com", domain.RoleResident)

	admin := srv.client(t)
	admin.login("admin@example.com", "correct-horse")
	status, body := admin.do(fiber.MethodPost, "/api/facilities", map[string]any{"name": "Hall", "capacity": 40})
	require.Equal(t, fiber.StatusCreated, status, body)
	facilityID := data(body)["id"].(string)

	status, body = admin.do(fiber.MethodPost, "/api/facilities", map[string]any{"name": "Hall"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Resource already exists", body["error"])

	a := srv.client(t)
	a.login("a@example.com", "correct-horse")
	status, _ = a.do(fiber.MethodPost, "/api/facilities", map[string]any{"name": "Gym"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = a.do(fiber.MethodGet, "/api/facilities", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	status, body = a.do(fiber.MethodPost, "/api/bookings", map[string]any{
		"facility_id": facilityID, "starts_at": start, "ends_at": start.Add(2 * time.Hour), "note": "party",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	bookingID := data(body)["id"].(string)
	assert.Equal(t, "PENDING", data(body)["status"])

	b := srv.client(t)
	b.login("b@example.com", "correct-horse")
	status, body = b.do(fiber.MethodPost, "/api/bookings", map[string]any{
		"facility_id": facilityID, "starts_at": start.Add(time.Hour), "ends_at": start.Add(3 * time.Hour),
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "facility already booked for this window", body["error"])

	status, body = b.do(fiber.MethodPost, "/api/bookings/"+bookingID+"/cancel", nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, map[string]any{"error": "Forbidden"}, body)

	status, body = admin.do(fiber.MethodPatch, "/api/admin/bookings/"+bookingID+"/status", map[string]string{"status": "CONFIRMED"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "CONFIRMED", data(body)["status"])

	status, _ = admin.do(fiber.MethodPatch, "/api/admin/bookings/"+bookingID+"/status", map[string]string{"status": "REJECTED"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = admin.do(fiber.MethodGet, "/api/admin/bookings?status=CONFIRMED", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = admin.do(fiber.MethodGet, "/api/admin/bookings?status=LOST", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = a.do(fiber.MethodPost, "/api/bookings/"+bookingID+"/cancel", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "CANCELLED", data(body)["status"])

	status, body = a.do(fiber.MethodGet, "/api/bookings/mine", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = admin.do(fiber.MethodGet, "/health/metrics", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotZero(t, data(body)["total_requests"])
}

func TestOverlongPasswordsAreBadRequests(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, "res@example.com", domain.RoleResident)
	tooLong := strings.Repeat("€", 40)

	anon := srv.client(t)
	status, body := anon.do(fiber.MethodPost, "/api/auth/register", map[string]string{
		"name": "Dana", "email": "dana@example.com", "phone": "+15550001", "password": tooLong,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, map[string]any{"error": "validation failed", "details": map[string]any{"password": "maxbytes=72"}}, body)

	res := srv.client(t)
	res.login("res@example.com", "correct-horse")
	status, body = res.do(fiber.MethodPost, "/api/auth/password", map[string]string{
		"current_password": "correct-horse", "new_password": tooLong,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, map[string]any{"new_password": "maxbytes=72"}, body["details"])
}

func TestMalformedIDsAreClientErrors(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, "root@example.com", domain.RoleSuperAdmin)
	root := srv.client(t)
	root.login("root@example.com", "correct-horse")

	status, body := root.do(fiber.MethodPost, "/api/bookings/abc/cancel", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, map[string]any{"error": "booking not found"}, body)

	status, body = root.do(fiber.MethodPatch, "/api/admin/bookings/abc/status", map[string]string{"status": "CONFIRMED"})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "booking not found", body["error"])

	status, body = root.do(fiber.MethodPatch, "/api/admin/users/abc/status", map[string]string{"status": "APPROVED"})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "user not found", body["error"])

	status, body = root.do(fiber.MethodPatch, "/api/admin/users/abc/role", map[string]string{"role": "ADMIN"})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "user not found", body["error"])

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	status, body = root.do(fiber.MethodPost, "/api/bookings", map[string]any{
		"facility_id": "abc", "starts_at": start, "ends_at": start.Add(time.Hour),
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, map[string]any{"facility_id": "uuid"}, body["details"])

	status, _ = root.do(fiber.MethodGet, "/api/admin/bookings?facility_id=abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestUnknownRouteAndPanicUseEnvelope(t *testing.T) {
	metrics := observability.NewMetrics()
	app := NewApp(config.AppConfig{Name: "test"}, zap.NewNop(), metrics)
	app.Get("/boom", func(*fiber.Ctx) error { panic("secret internals") })
	c := &client{t: t, srv: &testServer{app: app}, jar: map[string]string{}}

	status, body := c.do(fiber.MethodGet, "/boom", nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, map[string]any{"error": "Internal server error"}, body)

	status, body = c.do(fiber.MethodGet, "/nope", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.NotEmpty(t, body["error"])

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Len(t, snap.Errors, 2)
}
