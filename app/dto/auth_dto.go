package dto

// SignInRequest represents the request payload for user sign in
type SignInRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email,max=255" example:"user@example.com"`
	Password string `json:"password" form:"password" validate:"required,max=128" example:"SecurePass123!"`
}

// UserDTO is the public view of a user
type UserDTO struct {
	ID           string   `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email        string   `json:"email" example:"user@example.com"`
	FirstName    string   `json:"first_name,omitempty" example:"Ada"`
	LastName     string   `json:"last_name,omitempty" example:"Lovelace"`
	TimeZone     string   `json:"time_zone" example:"America/Chicago"`
	Locale       string   `json:"locale" example:"en"`
	Roles        []string `json:"roles"`
	SignInCount  int      `json:"sign_in_count" example:"3"`
	LastSignInAt string   `json:"last_sign_in_at,omitempty" example:"2024-01-15T10:30:00Z"`
	ConfirmedAt  string   `json:"confirmed_at,omitempty" example:"2024-01-15T10:30:00Z"`
	CreatedAt    string   `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// SignInResponse carries the raw API token. It is only ever returned here.
type SignInResponse struct {
	Token     string  `json:"token" example:"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"`
	TokenType string  `json:"token_type" example:"Token"`
	User      UserDTO `json:"user"`
}

// PasswordResetRequest starts password recovery
type PasswordResetRequest struct {
	Email string `json:"email" form:"email" validate:"required,email,max=255" example:"user@example.com"`
}

// ResetPasswordRequest completes password recovery with the mailed token
type ResetPasswordRequest struct {
	ResetPasswordToken   string `json:"reset_password_token" form:"reset_password_token" validate:"required" example:"3a7bd3e2360a3d29eea436fcfb7e44c735d117c42d1c1835420b6b9942dd4f1b"`
	Password             string `json:"password" form:"password" validate:"required,max=128" example:"NewSecurePass123!"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" validate:"required" example:"NewSecurePass123!"`
}

// ResetPasswordTokenResponse echoes a usable reset token back to the form that will submit it
type ResetPasswordTokenResponse struct {
	ResetPasswordToken string `json:"reset_password_token" example:"3a7bd3e2360a3d29eea436fcfb7e44c735d117c42d1c1835420b6b9942dd4f1b"`
}

// ConfirmationRequest asks for a new confirmation email
type ConfirmationRequest struct {
	Email string `json:"email" form:"email" validate:"required,email,max=255" example:"user@example.com"`
}
