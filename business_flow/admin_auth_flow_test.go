package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/Tsukuyomi/app/dto"
	"github.com/amirphl/Tsukuyomi/app/services"
	"github.com/amirphl/Tsukuyomi/config"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key-for-jwt-signing-32-chars"

func newTestAdminAuthFlow(t *testing.T, captcha services.CaptchaService, users ...models.User) (AdminAuthFlow, *fakeAuditRepo) {
	t.Helper()
	store := services.NewMemoryStore(time.Minute)
	t.Cleanup(store.Close)

	tokens, err := services.NewTokenService(15*time.Minute, 7*24*time.Hour, "test-issuer", "test-audience", false, "", "", testJWTSecret, store)
	require.NoError(t, err)

	audit := &fakeAuditRepo{}
	mail := services.NewMockEmailProvider(zerolog.Nop())
	flow := NewAdminAuthFlow(newFakeUserRepo(users...), audit, services.NewNotificationService(mail), tokens, captcha, defaultAuthConfig(), 15*time.Minute, zerolog.Nop())
	return flow, audit
}

func testAdmin(t *testing.T, roles ...string) models.User {
	t.Helper()
	hash, err := HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	return models.User{
		ID:                uuid.New(),
		Email:             "admin@example.com",
		EncryptedPassword: hash,
		Roles:             pq.StringArray(roles),
	}
}

func TestAdminAuthFlowLogin(t *testing.T) {
	ctx := context.Background()
	captcha := fakeCaptcha{angle: 90}

	t.Run("IssuesSession", func(t *testing.T) {
		admin := testAdmin(t, models.RoleAdmin)
		flow, audit := newTestAdminAuthFlow(t, captcha, admin)

		res, err := flow.Login(ctx, &dto.AdminLoginRequest{
			ChallengeID: "challenge",
			Email:       admin.Email,
			Password:    testPassword,
			UserAngle:   90,
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, admin.ID.String(), res.Admin.ID)
		assert.Equal(t, "Bearer", res.Session.TokenType)
		assert.Equal(t, int((15 * time.Minute).Seconds()), res.Session.ExpiresIn)
		assert.NotEmpty(t, res.Session.AccessToken)
		assert.NotEmpty(t, res.Session.RefreshToken)
		assert.Equal(t, []string{models.AuditActionAdminSignIn}, audit.actions())

		user, err := flow.Authenticate(ctx, res.Session.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, user.ID)

		// A refresh token is not an access token
		_, err = flow.Authenticate(ctx, res.Session.RefreshToken)
		assert.True(t, IsTokenInvalid(err))
	})

	t.Run("WrongAngle", func(t *testing.T) {
		admin := testAdmin(t, models.RoleAdmin)
		flow, _ := newTestAdminAuthFlow(t, captcha, admin)

		_, err := flow.Login(ctx, &dto.AdminLoginRequest{
			ChallengeID: "challenge",
			Email:       admin.Email,
			Password:    testPassword,
			UserAngle:   10,
		}, nil)
		assert.True(t, IsInvalidCaptcha(err))
	})

	t.Run("WrongPassword", func(t *testing.T) {
		admin := testAdmin(t, models.RoleAdmin)
		flow, _ := newTestAdminAuthFlow(t, captcha, admin)

		_, err := flow.Login(ctx, &dto.AdminLoginRequest{
			ChallengeID: "challenge",
			Email:       admin.Email,
			Password:    "nope",
			UserAngle:   90,
		}, nil)
		assert.True(t, IsInvalidCredentials(err))
	})

	t.Run("NonAdminRefused", func(t *testing.T) {
		editor := testAdmin(t, models.RoleEditor)
		flow, audit := newTestAdminAuthFlow(t, captcha, editor)

		_, err := flow.Login(ctx, &dto.AdminLoginRequest{
			ChallengeID: "challenge",
			Email:       editor.Email,
			Password:    testPassword,
			UserAngle:   90,
		}, nil)
		assert.True(t, IsNotAdmin(err))
		assert.Equal(t, []string{models.AuditActionAdminSignInFailed}, audit.actions())
	})

	t.Run("CaptchaDisabled", func(t *testing.T) {
		admin := testAdmin(t, models.RoleAdmin)
		flow, _ := newTestAdminAuthFlow(t, nil, admin)

		_, err := flow.InitCaptcha(ctx)
		assert.True(t, IsCaptchaNotEnabled(err))

		_, err = flow.Login(ctx, &dto.AdminLoginRequest{Email: admin.Email, Password: testPassword}, nil)
		assert.NoError(t, err)
	})
}

func TestAdminAuthFlowInitCaptcha(t *testing.T) {
	flow, _ := newTestAdminAuthFlow(t, fakeCaptcha{angle: 90})

	res, err := flow.InitCaptcha(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "challenge", res.ChallengeID)
	assert.Equal(t, "master", res.MasterImageBase64)
	assert.Equal(t, "thumb", res.ThumbImageBase64)
}

func TestAdminAuthFlowRefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	admin := testAdmin(t, models.RoleAdmin)
	flow, _ := newTestAdminAuthFlow(t, nil, admin)

	login, err := flow.Login(ctx, &dto.AdminLoginRequest{Email: admin.Email, Password: testPassword}, nil)
	require.NoError(t, err)

	session, err := flow.Refresh(ctx, &dto.AdminRefreshRequest{RefreshToken: login.Session.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.Session.RefreshToken, session.RefreshToken)

	// The exchanged refresh token is spent
	_, err = flow.Refresh(ctx, &dto.AdminRefreshRequest{RefreshToken: login.Session.RefreshToken})
	assert.True(t, IsTokenInvalid(err))

	require.NoError(t, flow.Logout(ctx, session.AccessToken, session.RefreshToken))
	_, err = flow.Authenticate(ctx, session.AccessToken)
	assert.True(t, IsTokenInvalid(err))

	// Logging out twice is harmless
	assert.NoError(t, flow.Logout(ctx, session.AccessToken, ""))
}

func TestAdminAuthFlowAuthenticateDemotedAdmin(t *testing.T) {
	ctx := context.Background()
	admin := testAdmin(t, models.RoleAdmin)

	store := services.NewMemoryStore(time.Minute)
	t.Cleanup(store.Close)
	tokens, err := services.NewTokenService(15*time.Minute, time.Hour, "test-issuer", "test-audience", false, "", "", testJWTSecret, store)
	require.NoError(t, err)

	users := newFakeUserRepo(admin)
	flow := NewAdminAuthFlow(users, nil, nil, tokens, nil, defaultAuthConfig(), 15*time.Minute, zerolog.Nop())

	access, _, err := tokens.GenerateAdminTokens(admin.ID)
	require.NoError(t, err)

	require.NoError(t, users.Update(ctx, admin.ID, map[string]any{"locked_at": time.Now()}))
	_, err = flow.Authenticate(ctx, access)
	assert.True(t, IsAccountLocked(err))
}

func TestAdminAuthFlowLockout(t *testing.T) {
	ctx := context.Background()
	admin := testAdmin(t, models.RoleAdmin)

	store := services.NewMemoryStore(time.Minute)
	t.Cleanup(store.Close)
	tokens, err := services.NewTokenService(15*time.Minute, time.Hour, "test-issuer", "test-audience", false, "", "", testJWTSecret, store)
	require.NoError(t, err)

	users := newFakeUserRepo(admin)
	audit := &fakeAuditRepo{}
	mail := services.NewMockEmailProvider(zerolog.Nop())
	flow := NewAdminAuthFlow(users, audit, services.NewNotificationService(mail), tokens, nil, defaultAuthConfig(), 15*time.Minute, zerolog.Nop())

	login := func(password string) error {
		_, err := flow.Login(ctx, &dto.AdminLoginRequest{Email: admin.Email, Password: password}, nil)
		return err
	}

	t.Run("SuccessClearsEarlierFailures", func(t *testing.T) {
		assert.True(t, IsInvalidCredentials(login("wrong-password")))
		assert.Equal(t, 1, users.get(admin.ID).FailedAttempts)

		require.NoError(t, login(testPassword))
		assert.Zero(t, users.get(admin.ID).FailedAttempts)
	})

	t.Run("LocksAfterMaxFailures", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			assert.True(t, IsInvalidCredentials(login("wrong-password")))
		}
		assert.True(t, IsAccountLocked(login("wrong-password")))

		stored := users.get(admin.ID)
		assert.True(t, stored.IsLocked())
		assert.Equal(t, 3, stored.FailedAttempts)
		require.NotNil(t, stored.UnlockToken)
		assert.Contains(t, audit.actions(), models.AuditActionAccountLocked)

		sent := mail.Sent()
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0].Body, "/api/v1/users/unlock?unlock_token=")
	})

	t.Run("CorrectPasswordWhileLocked", func(t *testing.T) {
		assert.True(t, IsAccountLocked(login(testPassword)))
		// a locked account does not reach the password check
		assert.Equal(t, 3, users.get(admin.ID).FailedAttempts)
	})

	t.Run("SharedWithApiSignIn", func(t *testing.T) {
		hash, err := HashPassword(testPassword, bcrypt.MinCost)
		require.NoError(t, err)
		other := models.User{ID: uuid.New(), Email: "ops@example.com", EncryptedPassword: hash, Roles: pq.StringArray{models.RoleAdmin}}
		require.NoError(t, users.Save(ctx, &other))

		api := NewAuthFlow(users, audit, services.NewNotificationService(mail), passthroughTx{}, defaultAuthConfig(),
			config.SecurityConfig{PasswordMinLength: 8, BcryptCost: bcrypt.MinCost}, zerolog.Nop())
		for i := 0; i < 2; i++ {
			_, err := api.SignIn(ctx, &dto.SignInRequest{Email: other.Email, Password: "wrong-password"}, nil)
			assert.True(t, IsInvalidCredentials(err))
		}

		_, err = flow.Login(ctx, &dto.AdminLoginRequest{Email: other.Email, Password: "wrong-password"}, nil)
		assert.True(t, IsAccountLocked(err))
		assert.True(t, users.get(other.ID).IsLocked())
	})
}
