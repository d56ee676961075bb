package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/amirphl/Tsukuyomi/app/dto"
	"github.com/amirphl/Tsukuyomi/app/services"
	"github.com/amirphl/Tsukuyomi/config"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/repository"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthFlow is the user authentication contract: API session tokens, lockout,
// password recovery and email confirmation
type AuthFlow interface {
	SignIn(ctx context.Context, req *dto.SignInRequest, metadata *ClientMetadata) (*dto.SignInResponse, error)
	SignOut(ctx context.Context, userID uuid.UUID, metadata *ClientMetadata) error
	Authenticate(ctx context.Context, rawToken string) (*models.User, error)
	Unlock(ctx context.Context, rawToken string, metadata *ClientMetadata) error
	UnlockUser(ctx context.Context, userID string, metadata *ClientMetadata) error
	RequestPasswordReset(ctx context.Context, req *dto.PasswordResetRequest, metadata *ClientMetadata) error
	CheckResetPasswordToken(ctx context.Context, rawToken string, metadata *ClientMetadata) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest, metadata *ClientMetadata) error
	SendConfirmation(ctx context.Context, req *dto.ConfirmationRequest, metadata *ClientMetadata) error
	Confirm(ctx context.Context, rawToken string, metadata *ClientMetadata) (*dto.UserDTO, error)
}

// AuthFlowImpl implements the authentication business flow
type AuthFlowImpl struct {
	userRepo        repository.UserRepository
	notificationSvc services.NotificationService
	tx              repository.Transactor
	authConfig      config.AuthConfig
	securityConfig  config.SecurityConfig
	audit           auditor
	lockout         lockout
	logger          zerolog.Logger
}

// NewAuthFlow creates a new authentication flow instance
func NewAuthFlow(
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	notificationSvc services.NotificationService,
	tx repository.Transactor,
	authConfig config.AuthConfig,
	securityConfig config.SecurityConfig,
	logger zerolog.Logger,
) AuthFlow {
	audit := auditor{repo: auditRepo, logger: logger}
	return &AuthFlowImpl{
		userRepo:        userRepo,
		notificationSvc: notificationSvc,
		tx:              tx,
		authConfig:      authConfig,
		securityConfig:  securityConfig,
		audit:           audit,
		lockout: lockout{
			userRepo:        userRepo,
			notificationSvc: notificationSvc,
			authConfig:      authConfig,
			audit:           audit,
			logger:          logger,
		},
		logger: logger,
	}
}

// SignIn checks credentials and issues a fresh API token. The raw token is returned once.
func (af *AuthFlowImpl) SignIn(ctx context.Context, req *dto.SignInRequest, metadata *ClientMetadata) (*dto.SignInResponse, error) {
	if req == nil {
		return nil, NewBusinessError("SIGN_IN_FAILED", "Sign in failed", ErrInvalidCredentials)
	}

	user, err := af.userRepo.ByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user == nil {
		af.audit.record(ctx, nil, models.AuditActionSignInFailed, "Sign in with unknown email", false, ErrInvalidCredentials, metadata)
		return nil, NewBusinessError("SIGN_IN_FAILED", "Sign in failed", ErrInvalidCredentials)
	}

	if user.IsLocked() {
		af.audit.record(ctx, &user.ID, models.AuditActionSignInFailed, "Sign in while locked", false, ErrAccountLocked, metadata)
		return nil, NewBusinessError("ACCOUNT_LOCKED", "Account is locked", ErrAccountLocked)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.EncryptedPassword), []byte(req.Password)); err != nil {
		locked, ferr := af.lockout.registerFailure(ctx, user, models.AuditActionSignInFailed, metadata)
		if ferr != nil {
			return nil, NewBusinessError("SIGN_IN_FAILED", "Sign in failed", ferr)
		}
		if locked {
			return nil, NewBusinessError("ACCOUNT_LOCKED", "Account is locked", ErrAccountLocked)
		}
		return nil, NewBusinessError("SIGN_IN_FAILED", "Sign in failed", ErrInvalidCredentials)
	}

	if user.Archived {
		af.audit.record(ctx, &user.ID, models.AuditActionSignInFailed, "Sign in to archived account", false, ErrAccountInactive, metadata)
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "Account is inactive", ErrAccountInactive)
	}
	if af.authConfig.RequireConfirmation && !user.IsConfirmed() {
		af.audit.record(ctx, &user.ID, models.AuditActionSignInFailed, "Sign in before confirmation", false, ErrAccountUnconfirmed, metadata)
		return nil, NewBusinessError("ACCOUNT_UNCONFIRMED", "Account is not confirmed", ErrAccountUnconfirmed)
	}

	rawToken, err := utils.GenerateSecureToken(utils.SessionTokenBytes)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate token", err)
	}

	now := utils.UTCNow()
	ip := ""
	if metadata != nil {
		ip = metadata.IPAddress
	}
	lastAt := user.CurrentSignInAt
	if lastAt == nil {
		lastAt = &now
	}
	lastIP := user.CurrentSignInIP
	if lastIP == nil {
		lastIP = utils.NilIfBlank(ip)
	}
	digest := utils.DigestToken(rawToken)

	updates := map[string]any{
		"token":              digest,
		"failed_attempts":    0,
		"sign_in_count":      gorm.Expr("sign_in_count + 1"),
		"last_sign_in_at":    lastAt,
		"current_sign_in_at": now,
		"last_sign_in_ip":    lastIP,
		"current_sign_in_ip": utils.NilIfBlank(ip),
		"updated_at":         now,
	}
	err = af.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return af.userRepo.Update(ctx, user.ID, updates)
	})
	if err != nil {
		af.audit.record(ctx, &user.ID, models.AuditActionSignInFailed, "Failed to store session", false, err, metadata)
		return nil, NewBusinessError("SIGN_IN_FAILED", "Sign in failed", err)
	}

	user.Token = &digest
	user.FailedAttempts = 0
	user.SignInCount++
	user.LastSignInAt = lastAt
	user.CurrentSignInAt = &now
	user.LastSignInIP = lastIP
	user.CurrentSignInIP = utils.NilIfBlank(ip)

	af.audit.record(ctx, &user.ID, models.AuditActionSignInSuccess, fmt.Sprintf("User signed in: %s", user.ID), true, nil, metadata)

	return &dto.SignInResponse{
		Token:     rawToken,
		TokenType: "Token",
		User:      ToUserDTO(*user),
	}, nil
}

// SignOut forgets the API token of the user
func (af *AuthFlowImpl) SignOut(ctx context.Context, userID uuid.UUID, metadata *ClientMetadata) error {
	err := af.userRepo.Update(ctx, userID, map[string]any{
		"token":      nil,
		"updated_at": utils.UTCNow(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return NewBusinessError("SIGN_OUT_FAILED", "Sign out failed", err)
	}
	af.audit.record(ctx, &userID, models.AuditActionSignOut, "User signed out", true, nil, metadata)
	return nil
}

// Authenticate resolves a raw API token to its user
func (af *AuthFlowImpl) Authenticate(ctx context.Context, rawToken string) (*models.User, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrTokenInvalid
	}

	user, err := af.userRepo.ByToken(ctx, utils.DigestToken(rawToken))
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user == nil {
		return nil, ErrTokenInvalid
	}
	if user.IsLocked() {
		return nil, ErrAccountLocked
	}
	if user.Archived {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// Unlock consumes a mailed unlock token
func (af *AuthFlowImpl) Unlock(ctx context.Context, rawToken string, metadata *ClientMetadata) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return NewBusinessError("UNLOCK_TOKEN_INVALID", "Unlock token is invalid", ErrTokenInvalid)
	}
	user, err := af.userRepo.ByUnlockToken(ctx, utils.DigestToken(rawToken))
	if err != nil {
		return NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user == nil {
		return NewBusinessError("UNLOCK_TOKEN_INVALID", "Unlock token is invalid", ErrTokenInvalid)
	}
	return af.unlock(ctx, user, metadata)
}

// UnlockUser is the admin action that lifts a lock without a token
func (af *AuthFlowImpl) UnlockUser(ctx context.Context, userID string, metadata *ClientMetadata) error {
	id, err := parseID(userID, ErrUserNotFound)
	if err != nil {
		return err
	}
	user, err := af.userRepo.ByID(ctx, id)
	if err != nil {
		return NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	return af.unlock(ctx, user, metadata)
}

func (af *AuthFlowImpl) unlock(ctx context.Context, user *models.User, metadata *ClientMetadata) error {
	err := af.userRepo.Update(ctx, user.ID, map[string]any{
		"locked_at":       nil,
		"failed_attempts": 0,
		"unlock_token":    nil,
		"updated_at":      utils.UTCNow(),
	})
	if err != nil {
		return NewBusinessError("UNLOCK_FAILED", "Failed to unlock account", err)
	}
	af.audit.record(ctx, &user.ID, models.AuditActionAccountUnlocked, "Account unlocked", true, nil, metadata)
	return nil
}

// RequestPasswordReset mails a reset token. Unknown emails succeed silently.
func (af *AuthFlowImpl) RequestPasswordReset(ctx context.Context, req *dto.PasswordResetRequest, metadata *ClientMetadata) error {
	if req == nil {
		return nil
	}
	user, err := af.userRepo.ByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user == nil {
		af.audit.record(ctx, nil, models.AuditActionPasswordResetRequested, "Reset requested for unknown email", false, ErrUserNotFound, metadata)
		return nil
	}

	rawToken, err := utils.GenerateSecureToken(utils.SessionTokenBytes)
	if err != nil {
		return NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate token", err)
	}
	now := utils.UTCNow()
	err = af.userRepo.Update(ctx, user.ID, map[string]any{
		"reset_password_token":   utils.DigestToken(rawToken),
		"reset_password_sent_at": now,
		"updated_at":             now,
	})
	if err != nil {
		return NewBusinessError("PASSWORD_RESET_FAILED", "Failed to start password reset", err)
	}

	link := af.lockout.link("/api/v1/users/password/edit", "reset_password_token", rawToken)
	body := fmt.Sprintf("Someone has requested a link to change your password.\n\nChange it here: %s\n\nIf you didn't request this, please ignore this email.\n", link)
	if err := af.notificationSvc.SendEmail(ctx, user.Email, "Reset password instructions", body); err != nil {
		af.audit.record(ctx, &user.ID, models.AuditActionPasswordResetRequested, "Failed to send reset instructions", false, err, metadata)
		return NewBusinessError("EMAIL_SEND_FAILED", "Failed to send reset instructions", err)
	}

	af.audit.record(ctx, &user.ID, models.AuditActionPasswordResetRequested, "Reset instructions sent", true, nil, metadata)
	return nil
}

// CheckResetPasswordToken reports whether a mailed reset token can still be
// used, without consuming it
func (af *AuthFlowImpl) CheckResetPasswordToken(ctx context.Context, rawToken string, metadata *ClientMetadata) error {
	_, err := af.resetTokenOwner(ctx, rawToken, metadata)
	return err
}

// resetTokenOwner finds the user a live reset token was sent to
func (af *AuthFlowImpl) resetTokenOwner(ctx context.Context, rawToken string, metadata *ClientMetadata) (*models.User, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, NewBusinessError("RESET_TOKEN_INVALID", "Reset password token is invalid", ErrTokenInvalid)
	}

	user, err := af.userRepo.ByResetPasswordToken(ctx, utils.DigestToken(rawToken))
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user == nil {
		af.audit.record(ctx, nil, models.AuditActionPasswordResetFailed, "Unknown reset token", false, ErrTokenInvalid, metadata)
		return nil, NewBusinessError("RESET_TOKEN_INVALID", "Reset password token is invalid", ErrTokenInvalid)
	}
	if utils.OlderThan(user.ResetPasswordSentAt, af.resetPasswordWithin()) {
		af.audit.record(ctx, &user.ID, models.AuditActionPasswordResetFailed, "Expired reset token", false, ErrTokenExpired, metadata)
		return nil, NewBusinessError("RESET_TOKEN_EXPIRED", "Reset password token has expired, please request a new one", ErrTokenExpired)
	}
	return user, nil
}

// ResetPassword consumes a reset token, stores the new password and lifts any lock
func (af *AuthFlowImpl) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest, metadata *ClientMetadata) error {
	if req == nil {
		return NewBusinessError("RESET_TOKEN_INVALID", "Reset password token is invalid", ErrTokenInvalid)
	}
	user, err := af.resetTokenOwner(ctx, req.ResetPasswordToken, metadata)
	if err != nil {
		return err
	}

	errs := CheckPasswordPolicy(req.Password, af.securityConfig)
	if req.Password != req.PasswordConfirmation {
		errs.Add("password_confirmation", "doesn't match Password")
	}
	if len(errs) > 0 {
		return NewBusinessError("PASSWORD_VALIDATION_FAILED", "Password validation failed", errs)
	}

	hash, err := HashPassword(req.Password, af.securityConfig.BcryptCost)
	if err != nil {
		return NewBusinessError("PASSWORD_HASH_FAILED", "Failed to hash password", err)
	}

	err = af.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return af.userRepo.Update(ctx, user.ID, map[string]any{
			"encrypted_password":     hash,
			"reset_password_token":   nil,
			"reset_password_sent_at": nil,
			"locked_at":              nil,
			"failed_attempts":        0,
			"unlock_token":           nil,
			"updated_at":             utils.UTCNow(),
		})
	})
	if err != nil {
		af.audit.record(ctx, &user.ID, models.AuditActionPasswordResetFailed, "Failed to store password", false, err, metadata)
		return NewBusinessError("PASSWORD_RESET_FAILED", "Failed to reset password", err)
	}

	af.audit.record(ctx, &user.ID, models.AuditActionPasswordResetCompleted, "Password changed", true, nil, metadata)
	return nil
}

// SendConfirmation mails a confirmation token to the pending or current email
func (af *AuthFlowImpl) SendConfirmation(ctx context.Context, req *dto.ConfirmationRequest, metadata *ClientMetadata) error {
	if req == nil {
		return nil
	}
	user, err := af.userRepo.ByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user == nil {
		return nil
	}
	if user.IsConfirmed() && user.UnconfirmedEmail == nil {
		return NewBusinessError("ALREADY_CONFIRMED", "Email was already confirmed", ErrAlreadyConfirmed)
	}

	rawToken, err := utils.GenerateSecureToken(utils.SessionTokenBytes)
	if err != nil {
		return NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate token", err)
	}
	now := utils.UTCNow()
	err = af.userRepo.Update(ctx, user.ID, map[string]any{
		"confirmation_token":   utils.DigestToken(rawToken),
		"confirmation_sent_at": now,
		"updated_at":           now,
	})
	if err != nil {
		return NewBusinessError("CONFIRMATION_FAILED", "Failed to store confirmation token", err)
	}

	to := user.Email
	if user.UnconfirmedEmail != nil {
		to = *user.UnconfirmedEmail
	}
	link := af.lockout.link("/api/v1/users/confirmation", "confirmation_token", rawToken)
	body := fmt.Sprintf("You can confirm your account email through the link below:\n\n%s\n", link)
	if err := af.notificationSvc.SendEmail(ctx, to, "Confirmation instructions", body); err != nil {
		return NewBusinessError("EMAIL_SEND_FAILED", "Failed to send confirmation instructions", err)
	}

	af.audit.record(ctx, &user.ID, models.AuditActionConfirmationSent, "Confirmation instructions sent", true, nil, metadata)
	return nil
}

// Confirm consumes a confirmation token and promotes a pending email change
func (af *AuthFlowImpl) Confirm(ctx context.Context, rawToken string, metadata *ClientMetadata) (*dto.UserDTO, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, NewBusinessError("CONFIRMATION_TOKEN_INVALID", "Confirmation token is invalid", ErrTokenInvalid)
	}
	user, err := af.userRepo.ByConfirmationToken(ctx, utils.DigestToken(rawToken))
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user == nil {
		return nil, NewBusinessError("CONFIRMATION_TOKEN_INVALID", "Confirmation token is invalid", ErrTokenInvalid)
	}
	if af.authConfig.ConfirmWithin > 0 && utils.OlderThan(user.ConfirmationSentAt, af.authConfig.ConfirmWithin) {
		return nil, NewBusinessError("CONFIRMATION_TOKEN_EXPIRED", "Confirmation token has expired, please request a new one", ErrTokenExpired)
	}

	now := utils.UTCNow()
	updates := map[string]any{
		"confirmed_at":       now,
		"confirmation_token": nil,
		"updated_at":         now,
	}

	err = af.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if user.UnconfirmedEmail != nil {
			taken, err := af.userRepo.EmailTaken(ctx, *user.UnconfirmedEmail, &user.ID)
			if err != nil {
				return err
			}
			if taken {
				return models.FieldErrors{{Field: "email", Message: models.MsgTaken}}
			}
			updates["email"] = *user.UnconfirmedEmail
			updates["unconfirmed_email"] = nil
		}
		return af.userRepo.Update(ctx, user.ID, updates)
	})
	if err != nil {
		return nil, NewBusinessError("CONFIRMATION_FAILED", "Email confirmation failed", err)
	}

	user.ConfirmedAt = &now
	user.ConfirmationToken = nil
	if email, ok := updates["email"].(string); ok {
		user.Email = email
		user.UnconfirmedEmail = nil
	}

	af.audit.record(ctx, &user.ID, models.AuditActionEmailConfirmed, "Email confirmed", true, nil, metadata)
	out := ToUserDTO(*user)
	return &out, nil
}

func (af *AuthFlowImpl) resetPasswordWithin() time.Duration {
	if af.authConfig.ResetPasswordWithin > 0 {
		return af.authConfig.ResetPasswordWithin
	}
	return utils.ResetPasswordWithin
}


// CheckPasswordPolicy returns the failed rules of the configured password policy
func CheckPasswordPolicy(password string, policy config.SecurityConfig) models.FieldErrors {
	var errs models.FieldErrors
	if password == "" {
		errs.Add("password", models.MsgBlank)
		return errs
	}
	if len([]rune(password)) < policy.PasswordMinLength {
		errs.Add("password", fmt.Sprintf("is too short (minimum is %d characters)", policy.PasswordMinLength))
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		errs.Add("password", "is too long (maximum is 72 bytes)")
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if policy.PasswordRequireUpper && !upper {
		errs.Add("password", "must contain an uppercase letter")
	}
	if policy.PasswordRequireLower && !lower {
		errs.Add("password", "must contain a lowercase letter")
	}
	if policy.PasswordRequireNum && !digit {
		errs.Add("password", "must contain a number")
	}
	if policy.PasswordRequireSymbol && !symbol {
		errs.Add("password", "must contain a symbol")
	}
	return errs
}

// HashPassword hashes with bcrypt, falling back to the default cost when cost is out of range
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

