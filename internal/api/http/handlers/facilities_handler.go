package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/community-service/internal/api/dto"
	"github.com/spec-kit/community-service/internal/auth"
	"github.com/spec-kit/community-service/internal/service"
)

// FacilitiesHandler lists and creates bookable facilities.
type FacilitiesHandler struct {
	bookings *service.BookingService
}

// NewFacilitiesHandler constructs handler.
func NewFacilitiesHandler(bookings *service.BookingService) *FacilitiesHandler {
	return &FacilitiesHandler{bookings: bookings}
}

// List handles GET /api/facilities. Staff may pass include_inactive=true.
func (h *FacilitiesHandler) List(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	includeInactive := c.QueryBool("include_inactive") && principal.Role.IsStaff()

	facilities, err := h.bookings.ListFacilities(c.UserContext(), includeInactive)
	if err != nil {
		return err
	}
	items := make([]dto.FacilityResponse, 0, len(facilities))
	for i := range facilities {
		items = append(items, dto.NewFacilityResponse(&facilities[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create handles POST /api/facilities.
func (h *FacilitiesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateFacilityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	facility, err := h.bookings.CreateFacility(c.UserContext(), service.FacilityInput{
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewFacilityResponse(facility)})
}
