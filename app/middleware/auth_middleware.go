// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/Tsukuyomi/app/dto"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

const authTimeout = 5 * time.Second

// Authenticator resolves a raw credential to its user. Both the API token
// flow and the admin JWT flow satisfy it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware guards the API with opaque user tokens and the back office with admin JWTs
type AuthMiddleware struct {
	users  Authenticator
	admins Authenticator
	logger zerolog.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(users, admins Authenticator, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		users:  users,
		admins: admins,
		logger: logger.With().Str("middleware", "auth").Logger(),
	}
}

// TokenAuthenticate requires an API token. Failures answer 403 with a JSON:API
// errors document and never reach the handler.
func (m *AuthMiddleware) TokenAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token := APIToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			authFailures.WithLabelValues("api", "missing").Inc()
			return forbidden(c, "Authorization token is required")
		}

		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()

		user, err := m.users.Authenticate(ctx, token)
		if err != nil || user == nil {
			authFailures.WithLabelValues("api", "invalid").Inc()
			if err != nil {
				m.logger.Debug().Err(err).Str("path", c.Path()).Msg("api token rejected")
			}
			return forbidden(c, "Invalid authorization token")
		}

		c.Locals(utils.CurrentUserKey, user)
		return c.Next()
	}
}

// AdminAuthenticate requires an admin access token, from the Authorization
// header or the back office cookie.
func (m *AuthMiddleware) AdminAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token := AdminToken(c)
		if token == "" {
			authFailures.WithLabelValues("admin", "missing").Inc()
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Admin authentication required",
				Error:   dto.ErrorDetail{Code: "ADMIN_AUTHENTICATION_REQUIRED"},
			})
		}

		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()

		admin, err := m.admins.Authenticate(ctx, token)
		if err != nil || admin == nil {
			authFailures.WithLabelValues("admin", "invalid").Inc()
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid or expired admin token",
				Error:   dto.ErrorDetail{Code: "TOKEN_INVALID"},
			})
		}

		c.Locals(utils.AdminIDKey, admin.ID)
		c.Locals(utils.AdminTokenKey, token)
		return c.Next()
	}
}

// APIToken extracts the token from "Token <t>", `Token token="<t>"` or "Bearer <t>"
func APIToken(header string) string {
	header = strings.TrimSpace(header)
	scheme, rest, ok := strings.Cut(header, " ")
	if !ok {
		return ""
	}
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(scheme) {
	case "bearer":
		return rest
	case "token":
		if value, found := strings.CutPrefix(rest, "token="); found {
			// Extra options after the token are separated by commas
			value, _, _ = strings.Cut(value, ",")
			value = strings.TrimSpace(value)
			if unquoted, err := strconv.Unquote(value); err == nil {
				return unquoted
			}
			return strings.Trim(value, `"`)
		}
		return rest
	}
	return ""
}

// AdminToken returns the bearer token of the request, falling back to the back office cookie
func AdminToken(c fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if scheme, rest, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	return c.Cookies(utils.AdminAccessCookie)
}

func forbidden(c fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.JSONAPIErrorDocument{Errors: []dto.JSONAPIError{{
		Status: strconv.Itoa(fiber.StatusForbidden),
		Code:   "forbidden",
		Title:  "Forbidden",
		Detail: detail,
	}}})
}
