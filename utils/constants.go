package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the default time-to-live for admin access tokens
	AccessTokenTTL = 12 * time.Hour

	// RefreshTokenTTL is the default time-to-live for admin refresh tokens
	RefreshTokenTTL = 7 * 24 * time.Hour

	// ResetPasswordWithin is how long a password reset token stays usable
	ResetPasswordWithin = 6 * time.Hour

	// ConfirmWithin is how long an email confirmation token stays usable
	ConfirmWithin = 72 * time.Hour

	// MaximumFailedAttempts locks an account once reached
	MaximumFailedAttempts = 5

	// RequestTimeout bounds the work a single HTTP request may start
	RequestTimeout = 30 * time.Second
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400

	// SessionTokenBytes is the entropy of opaque API tokens
	SessionTokenBytes = 32
)

// AdminAccessCookie carries the admin access token for the HTML back office pages
const AdminAccessCookie = "admin_access_token"
