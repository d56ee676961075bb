package businessflow

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/amirphl/Tsukuyomi/app/services"
	"github.com/amirphl/Tsukuyomi/config"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/repository"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/rs/zerolog"
)

// lockout counts wrong passwords per account. Both the API sign in and the
// admin login share one counter and one lock.
type lockout struct {
	userRepo        repository.UserRepository
	notificationSvc services.NotificationService
	authConfig      config.AuthConfig
	audit           auditor
	logger          zerolog.Logger
}

// registerFailure records a wrong password under failedAction and locks the
// account once the limit is reached. It reports whether the account is now locked.
func (l lockout) registerFailure(ctx context.Context, user *models.User, failedAction string, metadata *ClientMetadata) (bool, error) {
	attempts, err := l.userRepo.IncrementFailedAttempts(ctx, user.ID)
	if err != nil {
		return false, err
	}
	l.audit.record(ctx, &user.ID, failedAction, fmt.Sprintf("Wrong password, attempt %d", attempts), false, ErrInvalidCredentials, metadata)

	if attempts < l.maxFailedAttempts() {
		return false, nil
	}

	rawToken, err := utils.GenerateSecureToken(utils.SessionTokenBytes)
	if err != nil {
		return false, err
	}
	now := utils.UTCNow()
	err = l.userRepo.Update(ctx, user.ID, map[string]any{
		"locked_at":    now,
		"unlock_token": utils.DigestToken(rawToken),
		"updated_at":   now,
	})
	if err != nil {
		return false, err
	}
	user.LockedAt = &now
	l.audit.record(ctx, &user.ID, models.AuditActionAccountLocked, fmt.Sprintf("Locked after %d failed attempts", attempts), true, nil, metadata)

	if l.notificationSvc == nil {
		return true, nil
	}
	link := l.link("/api/v1/users/unlock", "unlock_token", rawToken)
	body := fmt.Sprintf("Your account has been locked due to an excessive number of unsuccessful sign in attempts.\n\nUnlock it here: %s\n", link)
	if err := l.notificationSvc.SendEmail(ctx, user.Email, "Unlock instructions", body); err != nil {
		l.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to send unlock instructions")
	}
	return true, nil
}

// resetFailures clears the counter after a successful sign in
func (l lockout) resetFailures(ctx context.Context, user *models.User) error {
	if user.FailedAttempts == 0 {
		return nil
	}
	err := l.userRepo.Update(ctx, user.ID, map[string]any{
		"failed_attempts": 0,
		"updated_at":      utils.UTCNow(),
	})
	if err != nil {
		return err
	}
	user.FailedAttempts = 0
	return nil
}

func (l lockout) maxFailedAttempts() int {
	if l.authConfig.MaxFailedAttempts > 0 {
		return l.authConfig.MaxFailedAttempts
	}
	return utils.MaximumFailedAttempts
}

func (l lockout) link(path, param, token string) string {
	q := url.Values{}
	q.Set(param, token)
	return strings.TrimRight(l.authConfig.PublicURL, "/") + path + "?" + q.Encode()
}
