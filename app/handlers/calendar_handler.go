package handlers

import (
	businessflow "github.com/amirphl/Tsukuyomi/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

type CalendarHandlerInterface interface {
	List(c fiber.Ctx) error
	Mine(c fiber.Ctx) error
}

type CalendarHandler struct {
	flow   businessflow.CalendarFlow
	logger zerolog.Logger
}

func NewCalendarHandler(flow businessflow.CalendarFlow, logger zerolog.Logger) CalendarHandlerInterface {
	return &CalendarHandler{
		flow:   flow,
		logger: logger.With().Str("handler", "calendars").Logger(),
	}
}

// List returns the calendars of a named scope
// @Summary List calendars
// @Tags Calendars
// @Produce json
// @Security TokenAuth
// @Param scope query string false "Scope" Enums(active, archived, test)
// @Success 200 {object} dto.APIResponse{data=[]dto.CalendarDTO} "Calendars"
// @Failure 400 {object} dto.APIResponse "Unknown scope"
// @Router /api/v1/calendars [get]
func (h *CalendarHandler) List(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/calendars")
	defer cancel()

	calendars, err := h.flow.List(ctx, c.Query("scope"))
	if err != nil {
		if businessflow.IsInvalidScope(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Unknown calendar scope", "INVALID_SCOPE", nil)
		}
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("calendar list failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list calendars", "CALENDAR_LIST_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, "Calendars retrieved", calendars)
}

// Mine returns the calendars the current user belongs to
// @Summary List my calendars
// @Tags Calendars
// @Produce json
// @Security TokenAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.CalendarDTO} "Calendars"
// @Router /api/v1/users/me/calendars [get]
func (h *CalendarHandler) Mine(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return errorResponse(c, fiber.StatusForbidden, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/users/me/calendars")
	defer cancel()

	calendars, err := h.flow.ListForUser(ctx, user.ID.String())
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("calendar list failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list calendars", "CALENDAR_LIST_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, "Calendars retrieved", calendars)
}
