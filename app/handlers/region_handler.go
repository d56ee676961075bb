package handlers

import (
	"github.com/amirphl/Tsukuyomi/app/dto"
	businessflow "github.com/amirphl/Tsukuyomi/business_flow"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

// RegionHandlerInterface defines the contract for the region resource
type RegionHandlerInterface interface {
	Index(c fiber.Ctx) error
	Show(c fiber.Ctx) error
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Destroy(c fiber.Ctx) error
}

// RegionHandler serves regions as JSON:API documents
type RegionHandler struct {
	flow      businessflow.RegionFlow
	validator *validator.Validate
	logger    zerolog.Logger
}

func NewRegionHandler(flow businessflow.RegionFlow, logger zerolog.Logger) RegionHandlerInterface {
	return &RegionHandler{
		flow:      flow,
		validator: newAttributeValidator(),
		logger:    logger.With().Str("handler", "regions").Logger(),
	}
}

// Index lists every region
// @Summary List regions
// @Tags Regions
// @Produce json
// @Security TokenAuth
// @Success 200 {object} dto.RegionListDocument
// @Failure 403 {object} dto.JSONAPIErrorDocument "Missing or invalid token"
// @Router /api/v1/regions [get]
func (h *RegionHandler) Index(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/regions")
	defer cancel()

	regions, err := h.flow.List(ctx)
	if err != nil {
		return h.failure(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.RegionListDocument{Data: regions})
}

// Show returns one region
// @Summary Show region
// @Tags Regions
// @Produce json
// @Security TokenAuth
// @Param id path string true "Region ID"
// @Success 200 {object} dto.RegionDocument
// @Failure 403 {object} dto.JSONAPIErrorDocument "Missing or invalid token"
// @Failure 404 {object} dto.JSONAPIErrorDocument "Region not found"
// @Router /api/v1/regions/{id} [get]
func (h *RegionHandler) Show(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/regions/:id")
	defer cancel()

	region, err := h.flow.Get(ctx, c.Params("id"))
	if err != nil {
		return h.failure(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.RegionDocument{Data: *region})
}

// Create adds a region from a flat JSON or form body
// @Summary Create region
// @Tags Regions
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security TokenAuth
// @Param request body dto.RegionRequest true "Region attributes"
// @Success 201 {object} dto.RegionDocument
// @Failure 403 {object} dto.JSONAPIErrorDocument "Missing or invalid token"
// @Failure 422 {object} dto.JSONAPIErrorDocument "Validation failed"
// @Router /api/v1/regions [post]
func (h *RegionHandler) Create(c fiber.Ctx) error {
	req, responded, err := h.parse(c)
	if responded {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/regions")
	defer cancel()

	region, ferr := h.flow.Create(ctx, req)
	if ferr != nil {
		return h.failure(c, ferr)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RegionDocument{Data: *region})
}

// Update changes the supplied attributes only
// @Summary Update region
// @Tags Regions
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security TokenAuth
// @Param id path string true "Region ID"
// @Param request body dto.RegionRequest true "Region attributes"
// @Success 202 {object} dto.RegionDocument
// @Failure 403 {object} dto.JSONAPIErrorDocument "Missing or invalid token"
// @Failure 404 {object} dto.JSONAPIErrorDocument "Region not found"
// @Failure 422 {object} dto.JSONAPIErrorDocument "Validation failed"
// @Router /api/v1/regions/{id} [put]
// @Router /api/v1/regions/{id} [patch]
func (h *RegionHandler) Update(c fiber.Ctx) error {
	req, responded, err := h.parse(c)
	if responded {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/regions/:id")
	defer cancel()

	region, ferr := h.flow.Update(ctx, c.Params("id"), req)
	if ferr != nil {
		return h.failure(c, ferr)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.RegionDocument{Data: *region})
}

// Destroy deletes a region and answers with an empty object
// @Summary Delete region
// @Tags Regions
// @Produce json
// @Security TokenAuth
// @Param id path string true "Region ID"
// @Success 202 {object} object
// @Failure 403 {object} dto.JSONAPIErrorDocument "Missing or invalid token"
// @Failure 404 {object} dto.JSONAPIErrorDocument "Region not found"
// @Router /api/v1/regions/{id} [delete]
func (h *RegionHandler) Destroy(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/regions/:id")
	defer cancel()

	if err := h.flow.Delete(ctx, c.Params("id")); err != nil {
		return h.failure(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{})
}

// parse answers malformed bodies itself; responded reports that it did
func (h *RegionHandler) parse(c fiber.Ctx) (req *dto.RegionRequest, responded bool, err error) {
	req, berr := bindRegion(c)
	if berr != nil {
		if errs, ok := typeErrors(berr); ok {
			return nil, true, c.Status(fiber.StatusUnprocessableEntity).JSON(fieldErrorsDocument(errs))
		}
		return nil, true, jsonAPIError(c, fiber.StatusBadRequest, "Bad Request", errMalformedBody.Error())
	}
	if verr := h.validator.Struct(req); verr != nil {
		return nil, true, c.Status(fiber.StatusUnprocessableEntity).JSON(fieldErrorsDocument(models.FromValidator(verr)))
	}
	return req, false, nil
}

func (h *RegionHandler) failure(c fiber.Ctx, err error) error {
	if fe, ok := businessflow.AsFieldErrors(err); ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fieldErrorsDocument(fe))
	}
	if businessflow.IsRegionNotFound(err) {
		return jsonAPIError(c, fiber.StatusNotFound, "Not Found", "Region not found")
	}

	h.logger.Error().Err(err).Str("request_id", requestID(c)).Str("code", businessflow.CodeOf(err)).Msg("region request failed")
	return jsonAPIError(c, fiber.StatusInternalServerError, "Internal Server Error", "Something went wrong")
}
