package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldError is a single failed rule on a single attribute
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors collects every failed rule of a record. A nil or empty value means valid.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Field+" "+e.Message)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Add appends a failure for field
func (fe *FieldErrors) Add(field, message string) {
	*fe = append(*fe, FieldError{Field: field, Message: message})
}

// On returns the messages recorded for field
func (fe FieldErrors) On(field string) []string {
	var out []string
	for _, e := range fe {
		if e.Field == field {
			out = append(out, e.Message)
		}
	}
	return out
}

// Err returns fe as an error, or nil when there are no failures
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

const (
	MsgBlank     = "can't be blank"
	MsgTaken     = "has already been taken"
	MsgInclusion = "is not included in the list"
	MsgInvalid   = "is invalid"
)

// check runs one validator tag chain against value and records the message of
// the first failed rule on field
func check(errs *FieldErrors, field string, value any, tag string) bool {
	err := validate.Var(value, tag)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		errs.Add(field, fieldMessage(verrs[0]))
		return false
	}
	errs.Add(field, MsgInvalid)
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgBlank
	case "max":
		return fmt.Sprintf("is too long (maximum is %s characters)", fe.Param())
	case "oneof":
		return MsgInclusion
	default:
		return MsgInvalid
	}
}

// FromValidator converts validator/v10 failures into field errors under the
// names the validator reports
func FromValidator(err error) FieldErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{{Field: "base", Message: MsgInvalid}}
	}
	errs := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		errs.Add(fe.Field(), fieldMessage(fe))
	}
	return errs
}

func requirePresent(errs *FieldErrors, field, value string) bool {
	return check(errs, field, strings.TrimSpace(value), "required")
}

func requireMaxLength(errs *FieldErrors, field, value string, max int) {
	check(errs, field, value, "max="+strconv.Itoa(max))
}

func requireInclusion(errs *FieldErrors, field, value string, list []string) {
	check(errs, field, value, "oneof="+strings.Join(list, " "))
}

// ValidateRegion checks the attributes a region needs before it is written
func ValidateRegion(r *Region) FieldErrors {
	var errs FieldErrors
	if requirePresent(&errs, "name", r.Name) {
		requireMaxLength(&errs, "name", r.Name, 255)
	}
	if requirePresent(&errs, "abbreviation", r.Abbreviation) {
		requireMaxLength(&errs, "abbreviation", r.Abbreviation, 16)
	}
	if requirePresent(&errs, "time_zone", r.TimeZone) {
		check(&errs, "time_zone", r.TimeZone, "max=64,timezone")
	}
	return errs
}

// ValidateTag expects t.Name to be normalized already (see NormalizeTagName)
func ValidateTag(t *Tag) FieldErrors {
	var errs FieldErrors
	if requirePresent(&errs, "name", t.Name) {
		requireMaxLength(&errs, "name", t.Name, 255)
	}
	if requirePresent(&errs, "tag_type", t.TagType) {
		requireInclusion(&errs, "tag_type", t.TagType, TagTypes)
	}
	if t.TagCategory != nil && *t.TagCategory != "" {
		requireInclusion(&errs, "tag_category", *t.TagCategory, TagCategories)
	}
	return errs
}

func ValidateCalendar(c *Calendar) FieldErrors {
	var errs FieldErrors
	if requirePresent(&errs, "name", c.Name) {
		requireMaxLength(&errs, "name", c.Name, 255)
	}
	return errs
}

func ValidateUser(u *User) FieldErrors {
	var errs FieldErrors
	if requirePresent(&errs, "email", u.Email) {
		check(&errs, "email", u.Email, "email")
	}
	if u.Locale != "" {
		requireInclusion(&errs, "locale", u.Locale, Locales)
	}
	if u.TimeZone != "" {
		requireInclusion(&errs, "time_zone", u.TimeZone, AllowedTimeZones)
	}
	return errs
}

func ValidateEvent(e *Event) FieldErrors {
	var errs FieldErrors
	if requirePresent(&errs, "name", e.Name) {
		requireMaxLength(&errs, "name", e.Name, 255)
	}
	if e.StartsAt != nil && e.EndsAt != nil && e.EndsAt.Before(*e.StartsAt) {
		errs.Add("ends_at", "must be after starts_at")
	}
	return errs
}
