package handlers

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/amirphl/Tsukuyomi/app/admin"
	businessflow "github.com/amirphl/Tsukuyomi/business_flow"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

const adminBasePath = "/admin"

// AdminResourceHandlerInterface defines the back office pages and admin mutations
type AdminResourceHandlerInterface interface {
	Index(c fiber.Ctx) error
	Export(c fiber.Ctx) error
	CreateTag(c fiber.Ctx) error
	UpdateTag(c fiber.Ctx) error
	DeleteTag(c fiber.Ctx) error
	UnlockUser(c fiber.Ctx) error
	AddCalendarMember(c fiber.Ctx) error
	RemoveCalendarMember(c fiber.Ctx) error
}

type AdminResourceHandler struct {
	resourceFlow businessflow.AdminResourceFlow
	tagFlow      businessflow.TagFlow
	authFlow     businessflow.AuthFlow
	calendarFlow businessflow.CalendarFlow
	validator    *validator.Validate
	logger       zerolog.Logger
}

func NewAdminResourceHandler(
	resourceFlow businessflow.AdminResourceFlow,
	tagFlow businessflow.TagFlow,
	authFlow businessflow.AuthFlow,
	calendarFlow businessflow.CalendarFlow,
	logger zerolog.Logger,
) AdminResourceHandlerInterface {
	return &AdminResourceHandler{
		resourceFlow: resourceFlow,
		tagFlow:      tagFlow,
		authFlow:     authFlow,
		calendarFlow: calendarFlow,
		validator:    newAttributeValidator(),
		logger:       logger.With().Str("handler", "admin_resources").Logger(),
	}
}

// Index renders one page of a resource as an HTML table
// @Summary Admin resource index
// @Description Filters are the manifest's filter fields passed as query parameters.
// @Tags Admin
// @Produce html
// @Security BearerAuth
// @Param resource path string true "Resource" Enums(tags, regions, calendars, users)
// @Param page query int false "Page number"
// @Success 200 {string} string "HTML page"
// @Failure 400 {object} dto.APIResponse "Invalid filter"
// @Failure 404 {object} dto.APIResponse "Unknown resource"
// @Router /admin/{resource} [get]
func (h *AdminResourceHandler) Index(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/admin/:resource")
	defer cancel()

	page, _ := strconv.Atoi(c.Query("page", "1"))
	table, filters, err := h.resourceFlow.Index(ctx, c.Params("resource"), queryParams(c), page)
	if err != nil {
		return h.failure(c, err)
	}

	var buf bytes.Buffer
	if err := admin.RenderHTML(&buf, adminBasePath, *table, filters); err != nil {
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("admin page render failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to render page", "ADMIN_RENDER_FAILED", nil)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

// Export downloads every matching row as an XLSX workbook
// @Summary Admin resource export
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param resource path string true "Resource" Enums(tags, regions, calendars, users)
// @Success 200 {file} file "XLSX workbook"
// @Failure 400 {object} dto.APIResponse "Invalid filter"
// @Failure 404 {object} dto.APIResponse "Unknown resource"
// @Router /admin/{resource}/export [get]
func (h *AdminResourceHandler) Export(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/admin/:resource/export")
	defer cancel()

	data, filename, err := h.resourceFlow.Export(ctx, c.Params("resource"), queryParams(c))
	if err != nil {
		return h.failure(c, err)
	}

	c.Set(fiber.HeaderContentType, admin.XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Status(fiber.StatusOK).Send(data)
}

// CreateTag adds a tag. Keys outside the tag manifest's permitted params are ignored.
// @Summary Create tag
// @Tags Admin
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Success 201 {object} dto.APIResponse{data=dto.TagDTO} "Tag created"
// @Failure 422 {object} dto.APIResponse "Validation failed"
// @Router /admin/tags [post]
func (h *AdminResourceHandler) CreateTag(c fiber.Ctx) error {
	params, responded, err := h.parseTag(c)
	if responded {
		return err
	}

	ctx, cancel := createRequestContext(c, "/admin/tags")
	defer cancel()

	tag, err := h.tagFlow.Create(ctx, params, clientMetadata(c))
	if err != nil {
		return h.failure(c, err)
	}
	return successResponse(c, fiber.StatusCreated, "Tag created successfully", tag)
}

// UpdateTag changes the supplied attributes of a tag
// @Summary Update tag
// @Tags Admin
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tag ID"
// @Success 200 {object} dto.APIResponse{data=dto.TagDTO} "Tag updated"
// @Failure 404 {object} dto.APIResponse "Tag not found"
// @Failure 422 {object} dto.APIResponse "Validation failed"
// @Router /admin/tags/{id} [put]
func (h *AdminResourceHandler) UpdateTag(c fiber.Ctx) error {
	params, responded, err := h.parseTag(c)
	if responded {
		return err
	}

	ctx, cancel := createRequestContext(c, "/admin/tags/:id")
	defer cancel()

	tag, err := h.tagFlow.Update(ctx, c.Params("id"), params, clientMetadata(c))
	if err != nil {
		return h.failure(c, err)
	}
	return successResponse(c, fiber.StatusOK, "Tag updated successfully", tag)
}

// DeleteTag removes a tag and its event links
// @Summary Delete tag
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tag ID"
// @Success 200 {object} dto.APIResponse "Tag deleted"
// @Failure 404 {object} dto.APIResponse "Tag not found"
// @Router /admin/tags/{id} [delete]
func (h *AdminResourceHandler) DeleteTag(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/admin/tags/:id")
	defer cancel()

	if err := h.tagFlow.Delete(ctx, c.Params("id"), clientMetadata(c)); err != nil {
		return h.failure(c, err)
	}
	return successResponse(c, fiber.StatusOK, "Tag deleted successfully", nil)
}

// UnlockUser clears the lockout of a user
// @Summary Unlock user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} dto.APIResponse "User unlocked"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /admin/users/{id}/unlock [post]
func (h *AdminResourceHandler) UnlockUser(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/admin/users/:id/unlock")
	defer cancel()

	if err := h.authFlow.UnlockUser(ctx, c.Params("id"), clientMetadata(c)); err != nil {
		return h.failure(c, err)
	}
	return successResponse(c, fiber.StatusOK, "User unlocked successfully", nil)
}

// AddCalendarMember adds a user to a calendar
// @Summary Add calendar member
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Calendar ID"
// @Param user_id path string true "User ID"
// @Success 200 {object} dto.APIResponse "Member added"
// @Failure 404 {object} dto.APIResponse "Calendar or user not found"
// @Router /admin/calendars/{id}/users/{user_id} [post]
func (h *AdminResourceHandler) AddCalendarMember(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/admin/calendars/:id/users/:user_id")
	defer cancel()

	if err := h.calendarFlow.AddMember(ctx, c.Params("id"), c.Params("user_id")); err != nil {
		return h.failure(c, err)
	}
	return successResponse(c, fiber.StatusOK, "Member added", nil)
}

// RemoveCalendarMember removes a user from a calendar
// @Summary Remove calendar member
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Calendar ID"
// @Param user_id path string true "User ID"
// @Success 200 {object} dto.APIResponse "Member removed"
// @Failure 404 {object} dto.APIResponse "Calendar or user not found"
// @Router /admin/calendars/{id}/users/{user_id} [delete]
func (h *AdminResourceHandler) RemoveCalendarMember(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/admin/calendars/:id/users/:user_id")
	defer cancel()

	if err := h.calendarFlow.RemoveMember(ctx, c.Params("id"), c.Params("user_id")); err != nil {
		return h.failure(c, err)
	}
	return successResponse(c, fiber.StatusOK, "Member removed", nil)
}

// parseTag answers malformed or invalid bodies itself; responded reports that it did
func (h *AdminResourceHandler) parseTag(c fiber.Ctx) (params map[string]any, responded bool, err error) {
	req, berr := bindTag(c)
	if berr != nil {
		if errs, ok := typeErrors(berr); ok {
			return nil, true, errorResponse(c, fiber.StatusUnprocessableEntity, "Validation failed", "VALIDATION_ERROR", errs)
		}
		return nil, true, errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", errMalformedBody.Error())
	}
	if verr := h.validator.Struct(req); verr != nil {
		return nil, true, errorResponse(c, fiber.StatusUnprocessableEntity, "Validation failed", "VALIDATION_ERROR", models.FromValidator(verr))
	}
	return req.Params(), false, nil
}

func (h *AdminResourceHandler) failure(c fiber.Ctx, err error) error {
	if fe, ok := businessflow.AsFieldErrors(err); ok {
		return errorResponse(c, fiber.StatusUnprocessableEntity, "Validation failed", "VALIDATION_ERROR", fe)
	}
	switch {
	case businessflow.IsUnknownResource(err):
		return errorResponse(c, fiber.StatusNotFound, "Unknown resource", "UNKNOWN_RESOURCE", nil)
	case businessflow.IsInvalidFilter(err):
		return errorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_FILTER", nil)
	case businessflow.IsNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Record not found", "NOT_FOUND", nil)
	}

	h.logger.Error().Err(err).Str("request_id", requestID(c)).Str("code", businessflow.CodeOf(err)).Msg("admin request failed")
	return errorResponse(c, fiber.StatusInternalServerError, "Something went wrong", "INTERNAL_ERROR", nil)
}
