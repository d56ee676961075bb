package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User holds credentials, profile and the trackable/confirmable/lockable/recoverable state
// Table: users
// Token columns hold SHA-256 digests, never the raw secret
type User struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email             string    `gorm:"not null;default:'';uniqueIndex:index_users_on_email" json:"email"`
	EncryptedPassword string    `gorm:"not null;default:''" json:"-"`

	// Recoverable
	ResetPasswordToken  *string    `gorm:"uniqueIndex:index_users_on_reset_password_token" json:"-"`
	ResetPasswordSentAt *time.Time `json:"-"`

	// Rememberable
	RememberCreatedAt *time.Time `json:"-"`

	// Trackable
	SignInCount     int        `gorm:"not null;default:0" json:"sign_in_count"`
	CurrentSignInAt *time.Time `json:"current_sign_in_at,omitempty"`
	LastSignInAt    *time.Time `json:"last_sign_in_at,omitempty"`
	CurrentSignInIP *string    `gorm:"size:64" json:"current_sign_in_ip,omitempty"`
	LastSignInIP    *string    `gorm:"size:64" json:"last_sign_in_ip,omitempty"`

	// Confirmable
	ConfirmationToken  *string    `gorm:"uniqueIndex:index_users_on_confirmation_token" json:"-"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	ConfirmationSentAt *time.Time `json:"-"`
	UnconfirmedEmail   *string    `json:"unconfirmed_email,omitempty"`

	// Lockable
	FailedAttempts int        `gorm:"not null;default:0" json:"failed_attempts"`
	UnlockToken    *string    `gorm:"uniqueIndex:index_users_on_unlock_token" json:"-"`
	LockedAt       *time.Time `json:"locked_at,omitempty"`

	// Profile
	FirstName  *string    `json:"first_name,omitempty"`
	LastName   *string    `gorm:"index:index_users_on_last_name" json:"last_name,omitempty"`
	ZipCode    *string    `json:"zip_code,omitempty"`
	TimeZone   string     `gorm:"default:America/Chicago" json:"time_zone"`
	Locale     string     `gorm:"default:en" json:"locale"`
	AdminNotes *string    `gorm:"type:text" json:"admin_notes,omitempty"`
	LocationID *uuid.UUID `gorm:"type:uuid;index:index_users_on_location_id" json:"location_id,omitempty"`
	Location   *Location  `gorm:"foreignKey:LocationID;references:ID" json:"location,omitempty"`

	Archived bool           `gorm:"not null;default:false" json:"archived"`
	Test     bool           `gorm:"not null;default:false" json:"test"`
	Dummy    bool           `gorm:"not null;default:false" json:"dummy"`
	Roles    pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"roles"`
	Statuses pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"statuses"`

	// API session token digest
	Token *string `gorm:"uniqueIndex:index_users_on_token" json:"-"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Calendars []Calendar `gorm:"many2many:calendar_users;" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.TimeZone == "" {
		u.TimeZone = TimeZoneCentral
	}
	if u.Locale == "" {
		u.Locale = LocaleEN
	}
	if u.Roles == nil {
		u.Roles = pq.StringArray{}
	}
	if u.Statuses == nil {
		u.Statuses = pq.StringArray{}
	}
	return nil
}

// IsLocked reports whether failed sign-ins have locked the account
func (u *User) IsLocked() bool {
	return u.LockedAt != nil
}

func (u *User) IsConfirmed() bool {
	return u.ConfirmedAt != nil
}

func (u *User) HasRole(role string) bool {
	return contains(u.Roles, role)
}

// FullName joins first and last name, skipping blanks
func (u *User) FullName() string {
	switch {
	case u.FirstName != nil && u.LastName != nil:
		return *u.FirstName + " " + *u.LastName
	case u.FirstName != nil:
		return *u.FirstName
	case u.LastName != nil:
		return *u.LastName
	}
	return ""
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID            *uuid.UUID
	Email         *string
	EmailContains *string
	LastName      *string
	LocationID    *uuid.UUID
	Locked        *bool
	Archived      *bool
	Test          *bool
}
