package businessflow

import (
	"context"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/amirphl/Tsukuyomi/app/dto"
	"github.com/amirphl/Tsukuyomi/app/services"
	"github.com/amirphl/Tsukuyomi/config"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Sup3r-secret"

type authFixture struct {
	flow  AuthFlow
	users *fakeUserRepo
	audit *fakeAuditRepo
	mail  *services.MockEmailProvider
	user  models.User
}

func newAuthFixture(t *testing.T, authConfig config.AuthConfig, mutate ...func(*models.User)) *authFixture {
	t.Helper()

	hash, err := HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		ID:                uuid.New(),
		Email:             "ada@example.com",
		EncryptedPassword: hash,
		TimeZone:          models.TimeZoneCentral,
		Locale:            models.LocaleEN,
		ConfirmedAt:       utils.UTCNowPtr(),
	}
	for _, m := range mutate {
		m(&user)
	}

	users := newFakeUserRepo(user)
	audit := &fakeAuditRepo{}
	mail := services.NewMockEmailProvider(zerolog.Nop())
	flow := NewAuthFlow(
		users,
		audit,
		services.NewNotificationService(mail),
		passthroughTx{},
		authConfig,
		config.SecurityConfig{PasswordMinLength: 8, BcryptCost: bcrypt.MinCost},
		zerolog.Nop(),
	)
	return &authFixture{flow: flow, users: users, audit: audit, mail: mail, user: user}
}

func defaultAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		MaxFailedAttempts:   3,
		ResetPasswordWithin: 6 * time.Hour,
		ConfirmWithin:       72 * time.Hour,
		PublicURL:           "http://localhost:8080/",
	}
}

// mailedToken pulls the raw token for param out of the last captured email
func mailedToken(t *testing.T, mail *services.MockEmailProvider, param string) string {
	t.Helper()
	sent := mail.Sent()
	require.NotEmpty(t, sent)
	match := regexp.MustCompile(param + `=([0-9a-f]+)`).FindStringSubmatch(sent[len(sent)-1].Body)
	require.Len(t, match, 2, "no %s in %q", param, sent[len(sent)-1].Body)
	return match[1]
}

func (f *authFixture) signIn(password string) (*dto.SignInResponse, error) {
	return f.flow.SignIn(context.Background(), &dto.SignInRequest{Email: f.user.Email, Password: password}, NewClientMetadata("10.0.0.1", "test"))
}

func TestAuthFlowSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("IssuesTokenAndTracksSignIn", func(t *testing.T) {
		f := newAuthFixture(t, defaultAuthConfig())

		res, err := f.signIn(testPassword)
		require.NoError(t, err)
		assert.Equal(t, "Token", res.TokenType)
		assert.Len(t, res.Token, 2*utils.SessionTokenBytes)
		assert.Equal(t, 1, res.User.SignInCount)

		stored := f.users.get(f.user.ID)
		require.NotNil(t, stored.Token)
		assert.Equal(t, utils.DigestToken(res.Token), *stored.Token)
		assert.NotEqual(t, res.Token, *stored.Token)
		assert.Equal(t, 1, stored.SignInCount)
		require.NotNil(t, stored.CurrentSignInIP)
		assert.Equal(t, "10.0.0.1", *stored.CurrentSignInIP)

		user, err := f.flow.Authenticate(ctx, res.Token)
		require.NoError(t, err)
		assert.Equal(t, f.user.ID, user.ID)
	})

	t.Run("SecondSignInRotatesToken", func(t *testing.T) {
		f := newAuthFixture(t, defaultAuthConfig())

		first, err := f.signIn(testPassword)
		require.NoError(t, err)
		second, err := f.signIn(testPassword)
		require.NoError(t, err)
		assert.NotEqual(t, first.Token, second.Token)
		assert.Equal(t, 2, f.users.get(f.user.ID).SignInCount)

		_, err = f.flow.Authenticate(ctx, first.Token)
		assert.True(t, IsTokenInvalid(err))
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		f := newAuthFixture(t, defaultAuthConfig())

		_, err := f.flow.SignIn(ctx, &dto.SignInRequest{Email: "nobody@example.com", Password: testPassword}, nil)
		assert.True(t, IsInvalidCredentials(err))
		assert.Equal(t, "SIGN_IN_FAILED", CodeOf(err))
	})

	t.Run("LocksAfterMaxFailures", func(t *testing.T) {
		f := newAuthFixture(t, defaultAuthConfig())

		for i := 0; i < 2; i++ {
			_, err := f.signIn("wrong-password")
			assert.True(t, IsInvalidCredentials(err))
		}
		assert.Empty(t, f.mail.Sent())

		_, err := f.signIn("wrong-password")
		assert.True(t, IsAccountLocked(err))
		assert.Equal(t, "ACCOUNT_LOCKED", CodeOf(err))

		stored := f.users.get(f.user.ID)
		assert.True(t, stored.IsLocked())
		assert.Equal(t, 3, stored.FailedAttempts)

		// The right password no longer helps
		_, err = f.signIn(testPassword)
		assert.True(t, IsAccountLocked(err))

		sent := f.mail.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, f.user.Email, sent[0].To)
		assert.Contains(t, sent[0].Body, "http://localhost:8080/api/v1/users/unlock?unlock_token=")
		assert.Contains(t, f.audit.actions(), models.AuditActionAccountLocked)
	})

	t.Run("ArchivedUserIsInactive", func(t *testing.T) {
		f := newAuthFixture(t, defaultAuthConfig(), func(u *models.User) { u.Archived = true })

		_, err := f.signIn(testPassword)
		assert.True(t, IsAccountInactive(err))
	})

	t.Run("UnconfirmedUserWhenRequired", func(t *testing.T) {
		cfg := defaultAuthConfig()
		cfg.RequireConfirmation = true
		f := newAuthFixture(t, cfg, func(u *models.User) { u.ConfirmedAt = nil })

		_, err := f.signIn(testPassword)
		assert.True(t, IsAccountUnconfirmed(err))
	})
}

func TestAuthFlowUnlock(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, defaultAuthConfig())

	for i := 0; i < 3; i++ {
		_, _ = f.signIn("wrong-password")
	}
	require.True(t, f.users.get(f.user.ID).IsLocked())
	token := mailedToken(t, f.mail, "unlock_token")

	require.NoError(t, f.flow.Unlock(ctx, token, nil))
	stored := f.users.get(f.user.ID)
	assert.False(t, stored.IsLocked())
	assert.Zero(t, stored.FailedAttempts)
	assert.Nil(t, stored.UnlockToken)

	// Tokens are single use
	err := f.flow.Unlock(ctx, token, nil)
	assert.True(t, IsTokenInvalid(err))

	_, err = f.signIn(testPassword)
	assert.NoError(t, err)
}

func TestAuthFlowUnlockUser(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, defaultAuthConfig(), func(u *models.User) {
		u.LockedAt = utils.UTCNowPtr()
		u.FailedAttempts = 5
	})

	require.NoError(t, f.flow.UnlockUser(ctx, f.user.ID.String(), nil))
	assert.False(t, f.users.get(f.user.ID).IsLocked())

	assert.True(t, IsUserNotFound(f.flow.UnlockUser(ctx, uuid.NewString(), nil)))
	assert.True(t, IsUserNotFound(f.flow.UnlockUser(ctx, "bogus", nil)))
}

func TestAuthFlowPasswordReset(t *testing.T) {
	ctx := context.Background()
	const newPassword = "An0ther-secret"

	t.Run("TokenWorksOnce", func(t *testing.T) {
		f := newAuthFixture(t, defaultAuthConfig(), func(u *models.User) {
			u.LockedAt = utils.UTCNowPtr()
			u.FailedAttempts = 3
		})

		require.NoError(t, f.flow.RequestPasswordReset(ctx, &dto.PasswordResetRequest{Email: f.user.Email}, nil))
		token := mailedToken(t, f.mail, "reset_password_token")

		err := f.flow.ResetPassword(ctx, &dto.ResetPasswordRequest{
			ResetPasswordToken:   token,
			Password:             newPassword,
			PasswordConfirmation: newPassword,
		}, nil)
		require.NoError(t, err)

		stored := f.users.get(f.user.ID)
		assert.Nil(t, stored.ResetPasswordToken)
		assert.False(t, stored.IsLocked())
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.EncryptedPassword), []byte(newPassword)))

		err = f.flow.ResetPassword(ctx, &dto.ResetPasswordRequest{
			ResetPasswordToken:   token,
			Password:             newPassword,
			PasswordConfirmation: newPassword,
		}, nil)
		assert.True(t, IsTokenInvalid(err))

		_, err = f.signIn(newPassword)
		assert.NoError(t, err)
	})

	t.Run("MailedLinkIsCheckedWithoutConsumingToken", func(t *testing.T) {
		f := newAuthFixture(t, defaultAuthConfig())

		require.NoError(t, f.flow.RequestPasswordReset(ctx, &dto.PasswordResetRequest{Email: f.user.Email}, nil))
		sent := f.mail.Sent()
		require.Len(t, sent, 1)
		raw := regexp.MustCompile(`http://\S+`).FindString(sent[0].Body)
		link, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "/api/v1/users/password/edit", link.Path)
		token := link.Query().Get("reset_password_token")
		require.NotEmpty(t, token)

		require.NoError(t, f.flow.CheckResetPasswordToken(ctx, token, nil))
		require.NoError(t, f.flow.CheckResetPasswordToken(ctx, token, nil))
		assert.NotNil(t, f.users.get(f.user.ID).ResetPasswordToken)

		assert.True(t, IsTokenInvalid(f.flow.CheckResetPasswordToken(ctx, "", nil)))
		assert.True(t, IsTokenInvalid(f.flow.CheckResetPasswordToken(ctx, "deadbeef", nil)))

		require.NoError(t, f.users.Update(ctx, f.user.ID, map[string]any{
			"reset_password_sent_at": utils.UTCNow().Add(-7 * time.Hour),
		}))
		assert.True(t, IsTokenExpired(f.flow.CheckResetPasswordToken(ctx, token, nil)))
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		f := newAuthFixture(t, defaultAuthConfig())

		require.NoError(t, f.flow.RequestPasswordReset(ctx, &dto.PasswordResetRequest{Email: f.user.Email}, nil))
		token := mailedToken(t, f.mail, "reset_password_token")

		require.NoError(t, f.users.Update(ctx, f.user.ID, map[string]any{
			"reset_password_sent_at": utils.UTCNow().Add(-7 * time.Hour),
		}))

		err := f.flow.ResetPassword(ctx, &dto.ResetPasswordRequest{
			ResetPasswordToken:   token,
			Password:             newPassword,
			PasswordConfirmation: newPassword,
		}, nil)
		assert.True(t, IsTokenExpired(err))
		assert.Equal(t, "RESET_TOKEN_EXPIRED", CodeOf(err))
	})

	t.Run("PolicyAndConfirmation", func(t *testing.T) {
		f := newAuthFixture(t, defaultAuthConfig())

		require.NoError(t, f.flow.RequestPasswordReset(ctx, &dto.PasswordResetRequest{Email: f.user.Email}, nil))
		token := mailedToken(t, f.mail, "reset_password_token")

		err := f.flow.ResetPassword(ctx, &dto.ResetPasswordRequest{
			ResetPasswordToken:   token,
			Password:             "short",
			PasswordConfirmation: "other",
		}, nil)
		fieldErrs, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Equal(t, []string{"is too short (minimum is 8 characters)"}, fieldErrs.On("password"))
		assert.Equal(t, []string{"doesn't match Password"}, fieldErrs.On("password_confirmation"))

		// The token survives a rejected attempt
		assert.NotNil(t, f.users.get(f.user.ID).ResetPasswordToken)
	})

	t.Run("UnknownEmailIsSilent", func(t *testing.T) {
		f := newAuthFixture(t, defaultAuthConfig())

		require.NoError(t, f.flow.RequestPasswordReset(ctx, &dto.PasswordResetRequest{Email: "ghost@example.com"}, nil))
		assert.Empty(t, f.mail.Sent())
	})
}

func TestAuthFlowConfirmation(t *testing.T) {
	ctx := context.Background()

	t.Run("TokenWorksOnce", func(t *testing.T) {
		f := newAuthFixture(t, defaultAuthConfig(), func(u *models.User) { u.ConfirmedAt = nil })

		require.NoError(t, f.flow.SendConfirmation(ctx, &dto.ConfirmationRequest{Email: f.user.Email}, nil))
		token := mailedToken(t, f.mail, "confirmation_token")

		user, err := f.flow.Confirm(ctx, token, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, user.ConfirmedAt)
		assert.True(t, f.users.get(f.user.ID).IsConfirmed())

		_, err = f.flow.Confirm(ctx, token, nil)
		assert.True(t, IsTokenInvalid(err))

		err = f.flow.SendConfirmation(ctx, &dto.ConfirmationRequest{Email: f.user.Email}, nil)
		assert.True(t, IsAlreadyConfirmed(err))
	})

	t.Run("PromotesPendingEmail", func(t *testing.T) {
		f := newAuthFixture(t, defaultAuthConfig(), func(u *models.User) {
			u.UnconfirmedEmail = utils.ToPtr("ada@new.example.com")
		})

		require.NoError(t, f.flow.SendConfirmation(ctx, &dto.ConfirmationRequest{Email: f.user.Email}, nil))
		sent := f.mail.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "ada@new.example.com", sent[0].To)

		user, err := f.flow.Confirm(ctx, mailedToken(t, f.mail, "confirmation_token"), nil)
		require.NoError(t, err)
		assert.Equal(t, "ada@new.example.com", user.Email)

		stored := f.users.get(f.user.ID)
		assert.Equal(t, "ada@new.example.com", stored.Email)
		assert.Nil(t, stored.UnconfirmedEmail)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		f := newAuthFixture(t, defaultAuthConfig(), func(u *models.User) { u.ConfirmedAt = nil })

		require.NoError(t, f.flow.SendConfirmation(ctx, &dto.ConfirmationRequest{Email: f.user.Email}, nil))
		token := mailedToken(t, f.mail, "confirmation_token")
		require.NoError(t, f.users.Update(ctx, f.user.ID, map[string]any{
			"confirmation_sent_at": utils.UTCNow().Add(-73 * time.Hour),
		}))

		_, err := f.flow.Confirm(ctx, token, nil)
		assert.True(t, IsTokenExpired(err))
	})
}

func TestAuthFlowSignOut(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, defaultAuthConfig())

	res, err := f.signIn(testPassword)
	require.NoError(t, err)

	require.NoError(t, f.flow.SignOut(ctx, f.user.ID, nil))
	assert.Nil(t, f.users.get(f.user.ID).Token)

	_, err = f.flow.Authenticate(ctx, res.Token)
	assert.True(t, IsTokenInvalid(err))

	_, err = f.flow.Authenticate(ctx, "   ")
	assert.True(t, IsTokenInvalid(err))
}

func TestCheckPasswordPolicy(t *testing.T) {
	policy := config.SecurityConfig{
		PasswordMinLength:     8,
		PasswordRequireUpper:  true,
		PasswordRequireNum:    true,
		PasswordRequireSymbol: true,
	}

	assert.Empty(t, CheckPasswordPolicy("Passw0rd!", policy))
	assert.Equal(t, []string{models.MsgBlank}, CheckPasswordPolicy("", policy).On("password"))

	errs := CheckPasswordPolicy("password", policy)
	assert.ElementsMatch(t, []string{
		"must contain an uppercase letter",
		"must contain a number",
		"must contain a symbol",
	}, errs.On("password"))
}
