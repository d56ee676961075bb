package handlers

import (
	"time"

	"github.com/amirphl/Tsukuyomi/app/dto"
	businessflow "github.com/amirphl/Tsukuyomi/business_flow"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

// AdminAuthHandlerInterface defines the contract for admin auth handlers
type AdminAuthHandlerInterface interface {
	InitCaptcha(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
}

// AdminAuthHandler implements AdminAuthHandlerInterface
type AdminAuthHandler struct {
	flow         businessflow.AdminAuthFlow
	validator    *validator.Validate
	secureCookie bool
	logger       zerolog.Logger
}

// NewAdminAuthHandler creates the admin login handler. secureCookie marks the
// access token cookie Secure and should be set behind TLS.
func NewAdminAuthHandler(flow businessflow.AdminAuthFlow, secureCookie bool, logger zerolog.Logger) AdminAuthHandlerInterface {
	return &AdminAuthHandler{
		flow:         flow,
		validator:    validator.New(),
		secureCookie: secureCookie,
		logger:       logger.With().Str("handler", "admin_auth").Logger(),
	}
}

// InitCaptcha starts the admin login by returning a rotate captcha challenge
// @Summary Admin captcha init
// @Description Initialize rotate captcha for admin login (returns base64 images and challenge ID)
// @Tags Admin Authentication
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.AdminCaptchaInitResponse} "Captcha initialized"
// @Failure 503 {object} dto.APIResponse "Captcha disabled"
// @Failure 500 {object} dto.APIResponse "Failed to initialize captcha"
// @Router /admin/captcha [get]
func (h *AdminAuthHandler) InitCaptcha(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/admin/captcha")
	defer cancel()

	resp, err := h.flow.InitCaptcha(ctx)
	if err != nil {
		if businessflow.IsCaptchaNotEnabled(err) {
			return errorResponse(c, fiber.StatusServiceUnavailable, "Captcha is not enabled", "CAPTCHA_NOT_AVAILABLE", nil)
		}
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("admin captcha init failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Admin captcha init failed", "ADMIN_CAPTCHA_INIT_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Captcha initialized", resp)
}

// Login completes admin login by verifying captcha and credentials
// @Summary Admin login
// @Description Verify the captcha and authenticate an admin. The access token is also set as an HTTP-only cookie for the back office pages.
// @Tags Admin Authentication
// @Accept json
// @Produce json
// @Param request body dto.AdminLoginRequest true "Admin login data"
// @Success 200 {object} dto.APIResponse{data=dto.AdminLoginResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid captcha"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Failure 403 {object} dto.APIResponse "Not an admin"
// @Router /admin/login [post]
func (h *AdminAuthHandler) Login(c fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := createRequestContext(c, "/admin/login")
	defer cancel()

	resp, err := h.flow.Login(ctx, &req, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsInvalidCaptcha(err):
			return errorResponse(c, fiber.StatusBadRequest, "Captcha validation failed", "CAPTCHA_INVALID", nil)
		case businessflow.IsInvalidCredentials(err):
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS", nil)
		case businessflow.IsNotAdmin(err), businessflow.IsAccountLocked(err), businessflow.IsAccountInactive(err):
			return errorResponse(c, fiber.StatusForbidden, "Admin access denied", "ADMIN_ACCESS_DENIED", nil)
		}
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("admin login failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Admin login failed", "ADMIN_LOGIN_FAILED", nil)
	}

	h.setAccessCookie(c, resp.Session.AccessToken, time.Duration(resp.Session.ExpiresIn)*time.Second)
	return successResponse(c, fiber.StatusOK, "Login successful", resp)
}

// Refresh exchanges a refresh token for a new token pair
// @Summary Admin token refresh
// @Tags Admin Authentication
// @Accept json
// @Produce json
// @Param request body dto.AdminRefreshRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.AdminSessionDTO} "Tokens refreshed"
// @Failure 401 {object} dto.APIResponse "Invalid or expired refresh token"
// @Router /admin/refresh [post]
func (h *AdminAuthHandler) Refresh(c fiber.Ctx) error {
	var req dto.AdminRefreshRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := createRequestContext(c, "/admin/refresh")
	defer cancel()

	session, err := h.flow.Refresh(ctx, &req)
	if err != nil {
		if businessflow.IsTokenExpired(err) {
			return errorResponse(c, fiber.StatusUnauthorized, "Refresh token has expired", "REFRESH_TOKEN_EXPIRED", nil)
		}
		if businessflow.IsTokenInvalid(err) {
			return errorResponse(c, fiber.StatusUnauthorized, "Refresh token is invalid", "REFRESH_TOKEN_INVALID", nil)
		}
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("admin token refresh failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Token refresh failed", "TOKEN_REFRESH_FAILED", nil)
	}

	h.setAccessCookie(c, session.AccessToken, time.Duration(session.ExpiresIn)*time.Second)
	return successResponse(c, fiber.StatusOK, "Tokens refreshed", session)
}

// Logout revokes the access token and, when supplied, the refresh token
// @Summary Admin logout
// @Tags Admin Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AdminRefreshRequest false "Refresh token to revoke"
// @Success 200 {object} dto.APIResponse "Logged out"
// @Failure 401 {object} dto.APIResponse "Authentication required"
// @Router /admin/logout [post]
func (h *AdminAuthHandler) Logout(c fiber.Ctx) error {
	var req dto.AdminRefreshRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}

	ctx, cancel := createRequestContext(c, "/admin/logout")
	defer cancel()

	if err := h.flow.Logout(ctx, adminToken(c), req.RefreshToken); err != nil {
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("admin logout failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Logout failed", "LOGOUT_FAILED", nil)
	}

	h.setAccessCookie(c, "", -time.Hour)
	return successResponse(c, fiber.StatusOK, "Logged out successfully", nil)
}

func (h *AdminAuthHandler) setAccessCookie(c fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     utils.AdminAccessCookie,
		Value:    token,
		Path:     "/admin",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
