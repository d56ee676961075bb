// Package models contains domain entities, filters, scopes and validators for the back office
package models

// Tag types offered by the admin tag_type select
const (
	TagTypeTopic         = "topic"
	TagTypeAudience      = "audience"
	TagTypeFormat        = "format"
	TagTypeCost          = "cost"
	TagTypeAccessibility = "accessibility"
)

// TagTypes lists every accepted tag_type in display order
var TagTypes = []string{
	TagTypeTopic,
	TagTypeAudience,
	TagTypeFormat,
	TagTypeCost,
	TagTypeAccessibility,
}

// TagCategories lists every accepted tag_category in display order
var TagCategories = []string{
	"civic",
	"community",
	"culture",
	"education",
	"health",
	"recreation",
}

// Time zones users and regions may be assigned to
const (
	TimeZoneEastern  = "America/New_York"
	TimeZoneCentral  = "America/Chicago"
	TimeZoneMountain = "America/Denver"
	TimeZoneArizona  = "America/Phoenix"
	TimeZonePacific  = "America/Los_Angeles"
	TimeZoneAlaska   = "America/Anchorage"
	TimeZoneHawaii   = "Pacific/Honolulu"
)

var AllowedTimeZones = []string{
	TimeZoneEastern,
	TimeZoneCentral,
	TimeZoneMountain,
	TimeZoneArizona,
	TimeZonePacific,
	TimeZoneAlaska,
	TimeZoneHawaii,
}

const (
	LocaleEN = "en"
	LocaleES = "es"
)

var Locales = []string{LocaleEN, LocaleES}

// User roles stored in users.roles
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
