package dto

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/community-service/pkg/util/errorutil"
)

func TestValidateRegisterRequest(t *testing.T) {
	ok := RegisterRequest{Name: "Dana", Email: "dana@example.com", Phone: "+15550001", Password: "long-enough"}
	require.NoError(t, Validate(ok))

	bad := RegisterRequest{Email: "not-an-email", Phone: "+1", Password: "short"}
	err := Validate(bad)
	require.Error(t, err)

	status, body := apperrors.ToResponse(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation failed", body.Error)
	assert.Equal(t, map[string]string{
		"name":     "required",
		"email":    "email",
		"phone":    "min=5",
		"password": "min=8",
	}, body.Details)
}

func TestValidateBookingWindow(t *testing.T) {
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	err := Validate(CreateBookingRequest{FacilityID: "9b2f6a4e-1c1d-4a8e-9a53-2f0d6c3b7e11", StartsAt: start, EndsAt: start.Add(-time.Hour)})
	require.Error(t, err)
	_, body := apperrors.ToResponse(err)
	assert.Equal(t, map[string]string{"ends_at": "gtfield=StartsAt"}, body.Details)

	err = Validate(CreateBookingRequest{FacilityID: "abc", StartsAt: start, EndsAt: start.Add(time.Hour)})
	require.Error(t, err)
	_, body = apperrors.ToResponse(err)
	assert.Equal(t, map[string]string{"facility_id": "uuid"}, body.Details)
}

func TestValidatePasswordByteLength(t *testing.T) {
	ok := RegisterRequest{Name: "Dana", Email: "dana@example.com", Phone: "+15550001", Password: strings.Repeat("€", 24)}
	require.NoError(t, Validate(ok), "72 bytes fits")

	tooLong := ok
	tooLong.Password = strings.Repeat("€", 40)
	_, body := apperrors.ToResponse(Validate(tooLong))
	assert.Equal(t, map[string]string{"password": "maxbytes=72"}, body.Details)

	_, body = apperrors.ToResponse(Validate(ChangePasswordRequest{CurrentPassword: "old-password", NewPassword: strings.Repeat("€", 40)}))
	assert.Equal(t, map[string]string{"new_password": "maxbytes=72"}, body.Details)
}

func TestValidateStatusEnums(t *testing.T) {
	assert.NoError(t, Validate(UserStatusRequest{Status: "APPROVED"}))
	assert.Error(t, Validate(UserStatusRequest{Status: "PENDING"}))
	assert.NoError(t, Validate(BookingStatusRequest{Status: "REJECTED"}))
	assert.Error(t, Validate(BookingStatusRequest{Status: "CANCELLED"}))
	assert.Error(t, Validate(UserRoleRequest{Role: "OWNER"}))
}
