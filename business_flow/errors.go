// Package businessflow contains the use cases of the back office: regions, tags, calendars, user authentication and admin resources
package businessflow

import (
	"errors"
	"fmt"

	"github.com/amirphl/Tsukuyomi/models"
)

// Business flow error constants
var (
	// Record errors
	ErrRegionNotFound   = errors.New("region not found")
	ErrTagNotFound      = errors.New("tag not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrCalendarNotFound = errors.New("calendar not found")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrAccountUnconfirmed = errors.New("account is not confirmed")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token has expired")
	ErrAlreadyConfirmed   = errors.New("email was already confirmed")

	// Admin errors
	ErrInvalidCaptcha    = errors.New("invalid captcha")
	ErrNotAdmin          = errors.New("user is not an admin")
	ErrCaptchaNotEnabled = errors.New("captcha not available")
	ErrUnknownResource   = errors.New("unknown admin resource")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrInvalidScope      = errors.New("invalid calendar scope")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// AsFieldErrors extracts validation failures from anywhere in the chain
func AsFieldErrors(err error) (models.FieldErrors, bool) {
	var fe models.FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost BusinessError, or ""
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func IsRegionNotFound(err error) bool {
	return errors.Is(err, ErrRegionNotFound)
}

func IsTagNotFound(err error) bool {
	return errors.Is(err, ErrTagNotFound)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsCalendarNotFound(err error) bool {
	return errors.Is(err, ErrCalendarNotFound)
}

// IsNotFound reports any of the record-not-found errors
func IsNotFound(err error) bool {
	return IsRegionNotFound(err) || IsTagNotFound(err) || IsUserNotFound(err) || IsCalendarNotFound(err)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAccountLocked(err error) bool {
	return errors.Is(err, ErrAccountLocked)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsAccountUnconfirmed(err error) bool {
	return errors.Is(err, ErrAccountUnconfirmed)
}

func IsTokenInvalid(err error) bool {
	return errors.Is(err, ErrTokenInvalid)
}

func IsTokenExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}

func IsAlreadyConfirmed(err error) bool {
	return errors.Is(err, ErrAlreadyConfirmed)
}

func IsInvalidCaptcha(err error) bool {
	return errors.Is(err, ErrInvalidCaptcha)
}

func IsNotAdmin(err error) bool {
	return errors.Is(err, ErrNotAdmin)
}

func IsCaptchaNotEnabled(err error) bool {
	return errors.Is(err, ErrCaptchaNotEnabled)
}

func IsUnknownResource(err error) bool {
	return errors.Is(err, ErrUnknownResource)
}

func IsInvalidFilter(err error) bool {
	return errors.Is(err, ErrInvalidFilter)
}

func IsInvalidScope(err error) bool {
	return errors.Is(err, ErrInvalidScope)
}
