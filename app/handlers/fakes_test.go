package handlers

import (
	"context"

	"github.com/amirphl/Tsukuyomi/app/dto"
	businessflow "github.com/amirphl/Tsukuyomi/business_flow"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/google/uuid"
)

// authFlowStub answers every AuthFlow call with err, recording what it was given
type authFlowStub struct {
	err        error
	signIn     *dto.SignInResponse
	confirmed  *dto.UserDTO
	lastToken  string
	lastUserID string
	lastReset  *dto.ResetPasswordRequest
	signedOut  uuid.UUID
}

func (s *authFlowStub) SignIn(_ context.Context, _ *dto.SignInRequest, _ *businessflow.ClientMetadata) (*dto.SignInResponse, error) {
	return s.signIn, s.err
}

func (s *authFlowStub) SignOut(_ context.Context, userID uuid.UUID, _ *businessflow.ClientMetadata) error {
	s.signedOut = userID
	return s.err
}

func (s *authFlowStub) Authenticate(context.Context, string) (*models.User, error) {
	return nil, s.err
}

func (s *authFlowStub) Unlock(_ context.Context, rawToken string, _ *businessflow.ClientMetadata) error {
	s.lastToken = rawToken
	return s.err
}

func (s *authFlowStub) UnlockUser(_ context.Context, userID string, _ *businessflow.ClientMetadata) error {
	s.lastUserID = userID
	return s.err
}

func (s *authFlowStub) RequestPasswordReset(context.Context, *dto.PasswordResetRequest, *businessflow.ClientMetadata) error {
	return s.err
}

func (s *authFlowStub) CheckResetPasswordToken(_ context.Context, rawToken string, _ *businessflow.ClientMetadata) error {
	s.lastToken = rawToken
	return s.err
}

func (s *authFlowStub) ResetPassword(_ context.Context, req *dto.ResetPasswordRequest, _ *businessflow.ClientMetadata) error {
	s.lastReset = req
	return s.err
}

func (s *authFlowStub) SendConfirmation(context.Context, *dto.ConfirmationRequest, *businessflow.ClientMetadata) error {
	return s.err
}

func (s *authFlowStub) Confirm(_ context.Context, rawToken string, _ *businessflow.ClientMetadata) (*dto.UserDTO, error) {
	s.lastToken = rawToken
	return s.confirmed, s.err
}

// calendarFlowStub returns calendars for the active scope only
type calendarFlowStub struct {
	calendars []dto.CalendarDTO
	members   map[string][]string
	err       error
}

func (s *calendarFlowStub) List(_ context.Context, scope string) ([]dto.CalendarDTO, error) {
	if scope != "" && scope != "active" && scope != "archived" && scope != "test" {
		return nil, businessflow.ErrInvalidScope
	}
	return s.calendars, s.err
}

func (s *calendarFlowStub) ListForUser(_ context.Context, userID string) ([]dto.CalendarDTO, error) {
	var out []dto.CalendarDTO
	for _, c := range s.calendars {
		for _, m := range s.members[c.ID] {
			if m == userID {
				out = append(out, c)
			}
		}
	}
	return out, s.err
}

func (s *calendarFlowStub) AddMember(_ context.Context, calendarID, userID string) error {
	if s.err != nil {
		return s.err
	}
	if s.members == nil {
		s.members = map[string][]string{}
	}
	s.members[calendarID] = append(s.members[calendarID], userID)
	return nil
}

func (s *calendarFlowStub) RemoveMember(_ context.Context, calendarID, userID string) error {
	if s.err != nil {
		return s.err
	}
	kept := s.members[calendarID][:0]
	for _, m := range s.members[calendarID] {
		if m != userID {
			kept = append(kept, m)
		}
	}
	s.members[calendarID] = kept
	return nil
}

// adminAuthStub records the tokens handed to Logout
type adminAuthStub struct {
	err          error
	login        *dto.AdminLoginResponse
	session      *dto.AdminSessionDTO
	loggedOut    string
	revokedToken string
}

func (s *adminAuthStub) InitCaptcha(context.Context) (*dto.AdminCaptchaInitResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AdminCaptchaInitResponse{ChallengeID: "challenge"}, nil
}

func (s *adminAuthStub) Login(context.Context, *dto.AdminLoginRequest, *businessflow.ClientMetadata) (*dto.AdminLoginResponse, error) {
	return s.login, s.err
}

func (s *adminAuthStub) Refresh(context.Context, *dto.AdminRefreshRequest) (*dto.AdminSessionDTO, error) {
	return s.session, s.err
}

func (s *adminAuthStub) Logout(_ context.Context, accessToken, refreshToken string) error {
	s.loggedOut = accessToken
	s.revokedToken = refreshToken
	return s.err
}

func (s *adminAuthStub) Authenticate(context.Context, string) (*models.User, error) {
	return nil, s.err
}
