package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/community-service/internal/api/dto"
	"github.com/spec-kit/community-service/internal/auth"
	"github.com/spec-kit/community-service/internal/domain"
	"github.com/spec-kit/community-service/internal/service"
	apperrors "github.com/spec-kit/community-service/pkg/util/errorutil"
)

// BookingsHandler manages facility reservations.
type BookingsHandler struct {
	bookings *service.BookingService
}

// NewBookingsHandler constructs handler.
func NewBookingsHandler(bookings *service.BookingService) *BookingsHandler {
	return &BookingsHandler{bookings: bookings}
}

// Create handles POST /api/bookings.
func (h *BookingsHandler) Create(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateBookingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	booking, err := h.bookings.CreateBooking(c.UserContext(), principal, service.BookingCreateInput{
		FacilityID: req.FacilityID,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		Note:       req.Note,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewBookingResponse(booking)})
}

// ListMine handles GET /api/bookings/mine.
func (h *BookingsHandler) ListMine(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := pageParams(c)
	bookings, err := h.bookings.ListUserBookings(c.UserContext(), principal, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": bookingResponses(bookings)})
}

// Cancel handles POST /api/bookings/:id/cancel.
func (h *BookingsHandler) Cancel(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "booking")
	if err != nil {
		return err
	}
	booking, err := h.bookings.CancelBooking(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBookingResponse(booking)})
}

// AdminList handles GET /api/admin/bookings.
func (h *BookingsHandler) AdminList(c *fiber.Ctx) error {
	var filters service.BookingListFilters
	if raw := c.Query("status"); raw != "" {
		status := domain.BookingStatus(raw)
		if !status.Valid() {
			return apperrors.NewValidationError("invalid status filter", map[string]string{"status": raw})
		}
		filters.Status = &status
	}
	if facilityID := c.Query("facility_id"); facilityID != "" {
		if _, err := uuid.Parse(facilityID); err != nil {
			return apperrors.NewValidationError("invalid facility filter", map[string]string{"facility_id": facilityID})
		}
		filters.FacilityID = &facilityID
	}
	filters.Limit, filters.Offset = pageParams(c)

	bookings, err := h.bookings.ListBookings(c.UserContext(), filters)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": bookingResponses(bookings)})
}

// SetStatus handles PATCH /api/admin/bookings/:id/status.
func (h *BookingsHandler) SetStatus(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "booking")
	if err != nil {
		return err
	}
	var req dto.BookingStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	booking, err := h.bookings.SetBookingStatus(c.UserContext(), principal, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBookingResponse(booking)})
}

func bookingResponses(bookings []domain.Booking) []dto.BookingResponse {
	items := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, dto.NewBookingResponse(&bookings[i]))
	}
	return items
}
