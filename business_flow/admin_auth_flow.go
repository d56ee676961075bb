package businessflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/amirphl/Tsukuyomi/app/dto"
	"github.com/amirphl/Tsukuyomi/app/services"
	"github.com/amirphl/Tsukuyomi/config"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/repository"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthFlow represents the admin authentication flow used by handlers
type AdminAuthFlow interface {
	InitCaptcha(ctx context.Context) (*dto.AdminCaptchaInitResponse, error)
	Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
	Refresh(ctx context.Context, req *dto.AdminRefreshRequest) (*dto.AdminSessionDTO, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// AdminAuthFlowImpl provides captcha-init and admin credential verification
type AdminAuthFlowImpl struct {
	userRepo       repository.UserRepository
	tokenService   services.TokenService
	captchaSvc     services.CaptchaService
	accessTokenTTL time.Duration
	audit          auditor
	lockout        lockout
}

// NewAdminAuthFlow creates the admin login flow. captchaSvc may be nil when captchas are disabled.
// Wrong passwords count towards the same lock as API sign ins.
func NewAdminAuthFlow(
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	notificationSvc services.NotificationService,
	tokenService services.TokenService,
	captchaSvc services.CaptchaService,
	authConfig config.AuthConfig,
	accessTokenTTL time.Duration,
	logger zerolog.Logger,
) AdminAuthFlow {
	audit := auditor{repo: auditRepo, logger: logger}
	return &AdminAuthFlowImpl{
		userRepo:       userRepo,
		tokenService:   tokenService,
		captchaSvc:     captchaSvc,
		accessTokenTTL: accessTokenTTL,
		audit:          audit,
		lockout: lockout{
			userRepo:        userRepo,
			notificationSvc: notificationSvc,
			authConfig:      authConfig,
			audit:           audit,
			logger:          logger,
		},
	}
}

func (af *AdminAuthFlowImpl) InitCaptcha(ctx context.Context) (*dto.AdminCaptchaInitResponse, error) {
	if af.captchaSvc == nil {
		return nil, NewBusinessError("CAPTCHA_NOT_AVAILABLE", "Captcha service not available", ErrCaptchaNotEnabled)
	}
	ch, err := af.captchaSvc.GenerateRotate(ctx)
	if err != nil {
		return nil, NewBusinessError("CAPTCHA_INIT_FAILED", "Failed to initialize captcha", err)
	}
	return &dto.AdminCaptchaInitResponse{
		ChallengeID:       ch.ID,
		MasterImageBase64: ch.MasterImageBase64,
		ThumbImageBase64:  ch.ThumbImageBase64,
	}, nil
}

// Login verifies the captcha first, then the credentials and the admin role
func (af *AdminAuthFlowImpl) Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	if req == nil || req.Email == "" || req.Password == "" {
		return nil, NewBusinessError("ADMIN_LOGIN_VALIDATION_FAILED", "Admin login validation failed", ErrInvalidCredentials)
	}
	if af.captchaSvc != nil {
		if req.ChallengeID == "" || !af.captchaSvc.VerifyRotate(ctx, req.ChallengeID, req.UserAngle) {
			af.audit.record(ctx, nil, models.AuditActionAdminSignInFailed, "Captcha validation failed", false, ErrInvalidCaptcha, metadata)
			return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha validation failed", ErrInvalidCaptcha)
		}
	}

	user, err := af.userRepo.ByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to lookup admin", err)
	}
	if user == nil {
		af.audit.record(ctx, nil, models.AuditActionAdminSignInFailed, "Unknown admin email", false, ErrInvalidCredentials, metadata)
		return nil, NewBusinessError("ADMIN_LOGIN_FAILED", "Admin login failed", ErrInvalidCredentials)
	}
	if user.IsLocked() {
		af.audit.record(ctx, &user.ID, models.AuditActionAdminSignInFailed, "Admin login while locked", false, ErrAccountLocked, metadata)
		return nil, NewBusinessError("ACCOUNT_LOCKED", "Account is locked", ErrAccountLocked)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.EncryptedPassword), []byte(req.Password)); err != nil {
		locked, ferr := af.lockout.registerFailure(ctx, user, models.AuditActionAdminSignInFailed, metadata)
		if ferr != nil {
			return nil, NewBusinessError("ADMIN_LOGIN_FAILED", "Admin login failed", ferr)
		}
		if locked {
			return nil, NewBusinessError("ACCOUNT_LOCKED", "Account is locked", ErrAccountLocked)
		}
		return nil, NewBusinessError("ADMIN_LOGIN_FAILED", "Admin login failed", ErrInvalidCredentials)
	}
	if err := checkAdmin(user); err != nil {
		af.audit.record(ctx, &user.ID, models.AuditActionAdminSignInFailed, "Admin login refused", false, err, metadata)
		return nil, NewBusinessError("ADMIN_LOGIN_FAILED", "Admin login failed", err)
	}
	if err := af.lockout.resetFailures(ctx, user); err != nil {
		return nil, NewBusinessError("ADMIN_LOGIN_FAILED", "Admin login failed", err)
	}

	accessToken, refreshToken, err := af.tokenService.GenerateAdminTokens(user.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	af.audit.record(ctx, &user.ID, models.AuditActionAdminSignIn, "Admin signed in", true, nil, metadata)
	return &dto.AdminLoginResponse{
		Admin:   ToUserDTO(*user),
		Session: af.session(accessToken, refreshToken),
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is revoked.
func (af *AdminAuthFlowImpl) Refresh(ctx context.Context, req *dto.AdminRefreshRequest) (*dto.AdminSessionDTO, error) {
	if req == nil || req.RefreshToken == "" {
		return nil, NewBusinessError("REFRESH_TOKEN_INVALID", "Refresh token is invalid", ErrTokenInvalid)
	}
	accessToken, refreshToken, err := af.tokenService.RefreshAdminToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrTokenExpired) {
			return nil, NewBusinessError("REFRESH_TOKEN_EXPIRED", "Refresh token has expired", ErrTokenExpired)
		}
		return nil, NewBusinessError("REFRESH_TOKEN_INVALID", "Refresh token is invalid", ErrTokenInvalid)
	}
	session := af.session(accessToken, refreshToken)
	return &session, nil
}

// Logout revokes the presented tokens. Tokens that are already invalid are ignored.
func (af *AdminAuthFlowImpl) Logout(ctx context.Context, accessToken, refreshToken string) error {
	for _, token := range []string{accessToken, refreshToken} {
		if token == "" {
			continue
		}
		if err := af.tokenService.RevokeToken(ctx, token); err != nil {
			return NewBusinessError("LOGOUT_FAILED", "Failed to revoke token", err)
		}
	}
	return nil
}

// Authenticate resolves an admin access token to a user that still holds the admin role
func (af *AdminAuthFlowImpl) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := af.tokenService.ValidateAdminToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, services.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	user, err := af.userRepo.ByID(ctx, claims.UserID)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to lookup admin", err)
	}
	if user == nil {
		return nil, ErrTokenInvalid
	}
	if err := checkAdmin(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (af *AdminAuthFlowImpl) session(accessToken, refreshToken string) dto.AdminSessionDTO {
	return dto.AdminSessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(af.accessTokenTTL.Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    utils.FormatTime(utils.UTCNowPtr()),
	}
}

func checkAdmin(user *models.User) error {
	switch {
	case !user.HasRole(models.RoleAdmin):
		return ErrNotAdmin
	case user.IsLocked():
		return ErrAccountLocked
	case user.Archived:
		return ErrAccountInactive
	}
	return nil
}
