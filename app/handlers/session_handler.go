package handlers

import (
	"github.com/amirphl/Tsukuyomi/app/dto"
	businessflow "github.com/amirphl/Tsukuyomi/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

// SessionHandlerInterface defines the contract for user session, recovery and confirmation handlers
type SessionHandlerInterface interface {
	SignIn(c fiber.Ctx) error
	SignOut(c fiber.Ctx) error
	RequestPasswordReset(c fiber.Ctx) error
	EditPassword(c fiber.Ctx) error
	ResetPassword(c fiber.Ctx) error
	SendConfirmation(c fiber.Ctx) error
	Confirm(c fiber.Ctx) error
	Unlock(c fiber.Ctx) error
}

// SessionHandler handles the user authentication endpoints
type SessionHandler struct {
	flow      businessflow.AuthFlow
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(flow businessflow.AuthFlow, logger zerolog.Logger) SessionHandlerInterface {
	return &SessionHandler{
		flow:      flow,
		validator: validator.New(),
		logger:    logger.With().Str("handler", "sessions").Logger(),
	}
}

// SignIn exchanges credentials for an API token
// @Summary Sign in
// @Description Authenticate with email and password. The returned token is sent as "Authorization: Token <token>".
// @Tags Sessions
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body dto.SignInRequest true "Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.SignInResponse} "Signed in"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid email or password"
// @Failure 403 {object} dto.APIResponse "Account locked, inactive or unconfirmed"
// @Router /api/v1/users/sign_in [post]
func (h *SessionHandler) SignIn(c fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/users/sign_in")
	defer cancel()

	result, err := h.flow.SignIn(ctx, &req, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsInvalidCredentials(err):
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS", nil)
		case businessflow.IsAccountLocked(err):
			return errorResponse(c, fiber.StatusForbidden, "Your account is locked", "ACCOUNT_LOCKED", nil)
		case businessflow.IsAccountInactive(err):
			return errorResponse(c, fiber.StatusForbidden, "Your account is not active", "ACCOUNT_INACTIVE", nil)
		case businessflow.IsAccountUnconfirmed(err):
			return errorResponse(c, fiber.StatusForbidden, "You have to confirm your email address before continuing", "ACCOUNT_UNCONFIRMED", nil)
		}
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("sign in failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Sign in failed", "SIGN_IN_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Signed in successfully", result)
}

// SignOut forgets the token of the current user
// @Summary Sign out
// @Tags Sessions
// @Produce json
// @Security TokenAuth
// @Success 200 {object} dto.APIResponse "Signed out"
// @Failure 403 {object} dto.JSONAPIErrorDocument "Missing or invalid token"
// @Router /api/v1/users/sign_out [delete]
func (h *SessionHandler) SignOut(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return errorResponse(c, fiber.StatusForbidden, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/users/sign_out")
	defer cancel()

	if err := h.flow.SignOut(ctx, user.ID, clientMetadata(c)); err != nil {
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("sign out failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Sign out failed", "SIGN_OUT_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, "Signed out successfully", nil)
}

// RequestPasswordReset mails reset instructions
// @Summary Request password reset
// @Description Always answers the same way so that registered emails cannot be discovered.
// @Tags Sessions
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body dto.PasswordResetRequest true "Email"
// @Success 200 {object} dto.APIResponse "Instructions sent when the email exists"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/users/password [post]
func (h *SessionHandler) RequestPasswordReset(c fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/users/password")
	defer cancel()

	if err := h.flow.RequestPasswordReset(ctx, &req, clientMetadata(c)); err != nil {
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("password reset request failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Password reset failed", "PASSWORD_RESET_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, "If your email address exists in our database, you will receive a password recovery link in a few minutes.", nil)
}

// EditPassword is the target of the reset email link. It checks the token
// and hands it back for the PUT that sets the new password.
// @Summary Check reset password token
// @Tags Sessions
// @Produce json
// @Param reset_password_token query string true "Mailed token"
// @Success 200 {object} dto.APIResponse{data=dto.ResetPasswordTokenResponse} "Token can be used"
// @Failure 400 {object} dto.APIResponse "Invalid or expired token"
// @Router /api/v1/users/password/edit [get]
func (h *SessionHandler) EditPassword(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/users/password/edit")
	defer cancel()

	token := c.Query("reset_password_token")
	if err := h.flow.CheckResetPasswordToken(ctx, token, clientMetadata(c)); err != nil {
		if businessflow.IsTokenExpired(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Reset password token has expired, please request a new one", "RESET_TOKEN_EXPIRED", nil)
		}
		if businessflow.IsTokenInvalid(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Reset password token is invalid", "RESET_TOKEN_INVALID", nil)
		}
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("reset token check failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Password reset failed", "PASSWORD_RESET_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, "Choose a new password.", dto.ResetPasswordTokenResponse{ResetPasswordToken: token})
}

// ResetPassword sets a new password with a mailed token
// @Summary Reset password
// @Tags Sessions
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Token and new password"
// @Success 200 {object} dto.APIResponse "Password changed"
// @Failure 400 {object} dto.APIResponse "Invalid or expired token"
// @Failure 422 {object} dto.APIResponse "Password rejected"
// @Router /api/v1/users/password [put]
func (h *SessionHandler) ResetPassword(c fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/users/password")
	defer cancel()

	if err := h.flow.ResetPassword(ctx, &req, clientMetadata(c)); err != nil {
		if fe, ok := businessflow.AsFieldErrors(err); ok {
			return errorResponse(c, fiber.StatusUnprocessableEntity, "Password validation failed", "PASSWORD_VALIDATION_FAILED", fe)
		}
		if businessflow.IsTokenExpired(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Reset password token has expired, please request a new one", "RESET_TOKEN_EXPIRED", nil)
		}
		if businessflow.IsTokenInvalid(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Reset password token is invalid", "RESET_TOKEN_INVALID", nil)
		}
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("password reset failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Password reset failed", "PASSWORD_RESET_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, "Your password has been changed successfully.", nil)
}

// SendConfirmation mails confirmation instructions again
// @Summary Resend confirmation
// @Tags Sessions
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body dto.ConfirmationRequest true "Email"
// @Success 200 {object} dto.APIResponse "Instructions sent when the email exists"
// @Failure 409 {object} dto.APIResponse "Already confirmed"
// @Router /api/v1/users/confirmation [post]
func (h *SessionHandler) SendConfirmation(c fiber.Ctx) error {
	var req dto.ConfirmationRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/users/confirmation")
	defer cancel()

	if err := h.flow.SendConfirmation(ctx, &req, clientMetadata(c)); err != nil {
		if businessflow.IsAlreadyConfirmed(err) {
			return errorResponse(c, fiber.StatusConflict, "Email was already confirmed, please try signing in", "ALREADY_CONFIRMED", nil)
		}
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("confirmation request failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Confirmation failed", "CONFIRMATION_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, "If your email address exists in our database, you will receive an email with instructions for how to confirm your email address in a few minutes.", nil)
}

// Confirm consumes the token from a confirmation email
// @Summary Confirm email
// @Tags Sessions
// @Produce json
// @Param confirmation_token query string true "Mailed token"
// @Success 200 {object} dto.APIResponse{data=dto.UserDTO} "Email confirmed"
// @Failure 400 {object} dto.APIResponse "Invalid or expired token"
// @Failure 422 {object} dto.APIResponse "Email already taken"
// @Router /api/v1/users/confirmation [get]
func (h *SessionHandler) Confirm(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/users/confirmation")
	defer cancel()

	user, err := h.flow.Confirm(ctx, c.Query("confirmation_token"), clientMetadata(c))
	if err != nil {
		if fe, ok := businessflow.AsFieldErrors(err); ok {
			return errorResponse(c, fiber.StatusUnprocessableEntity, "Email confirmation failed", "CONFIRMATION_FAILED", fe)
		}
		if businessflow.IsTokenExpired(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Confirmation token has expired, please request a new one", "CONFIRMATION_TOKEN_EXPIRED", nil)
		}
		if businessflow.IsTokenInvalid(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Confirmation token is invalid", "CONFIRMATION_TOKEN_INVALID", nil)
		}
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("confirmation failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Email confirmation failed", "CONFIRMATION_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, "Your email address has been successfully confirmed.", user)
}

// Unlock consumes the token from an unlock email
// @Summary Unlock account
// @Tags Sessions
// @Produce json
// @Param unlock_token query string true "Mailed token"
// @Success 200 {object} dto.APIResponse "Account unlocked"
// @Failure 400 {object} dto.APIResponse "Invalid token"
// @Router /api/v1/users/unlock [get]
func (h *SessionHandler) Unlock(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/users/unlock")
	defer cancel()

	if err := h.flow.Unlock(ctx, c.Query("unlock_token"), clientMetadata(c)); err != nil {
		if businessflow.IsTokenInvalid(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Unlock token is invalid", "UNLOCK_TOKEN_INVALID", nil)
		}
		h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("unlock failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Unlock failed", "UNLOCK_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, "Your account has been unlocked successfully. Please sign in to continue.", nil)
}
