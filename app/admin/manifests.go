package admin

import (
	"sort"

	"github.com/amirphl/Tsukuyomi/models"
)

const (
	ResourceTags      = "tags"
	ResourceRegions   = "regions"
	ResourceCalendars = "calendars"
	ResourceUsers     = "users"
	ResourceEvents    = "events"
	ResourceLocations = "locations"
)

var timestampFields = []Field{
	{Name: "updated_at", Label: "Updated", Type: FieldDateTime, Listed: true},
	{Name: "created_at", Label: "Created", Type: FieldDateTime, Listed: true},
}

// TagManifest: tags are edited freely and listed by name regardless of case
var TagManifest = Manifest{
	Resource: ResourceTags,
	Title:    "Tags",
	Fields: append([]Field{
		{Name: "name", Label: "Name", Type: FieldText, Editable: true, Filterable: true, Listed: true},
		{Name: "description", Label: "Description", Type: FieldTextArea, Editable: true},
		{Name: "tag_type", Label: "Tag type", Type: FieldSelect, Editable: true, Filterable: true, Listed: true, Collection: models.TagTypes},
		{Name: "tag_category", Label: "Tag category", Type: FieldSelect, Editable: true, Filterable: true, Listed: true, Collection: models.TagCategories},
	}, timestampFields...),
	PermittedParams: []string{"name", "description", "tag_type", "tag_category"},
	Filters: []Filter{
		{Field: "name", Label: "Name", Kind: FilterText},
		{Field: "tag_type", Label: "Tag type", Kind: FilterSelect, Collection: models.TagTypes},
		{Field: "tag_category", Label: "Tag category", Kind: FilterSelect, Collection: models.TagCategories},
	},
	ListColumns: []string{"name", "tag_type", "tag_category", "updated_at", "created_at"},
	SortOrder:   SortOrder{Expression: "lower(name)", Direction: "asc"},
}

var RegionManifest = Manifest{
	Resource: ResourceRegions,
	Title:    "Regions",
	Fields: append([]Field{
		{Name: "name", Label: "Name", Type: FieldText, Editable: true, Filterable: true, Listed: true},
		{Name: "abbreviation", Label: "Abbreviation", Type: FieldText, Editable: true, Listed: true},
		{Name: "time_zone", Label: "Time zone", Type: FieldText, Editable: true, Listed: true},
		{Name: "admin_notes", Label: "Admin notes", Type: FieldTextArea, Editable: true},
		{Name: "archived", Label: "Archived", Type: FieldBool, Editable: true, Filterable: true, Listed: true},
		{Name: "test", Label: "Test", Type: FieldBool, Editable: true, Filterable: true, Listed: true},
	}, timestampFields...),
	PermittedParams: []string{"name", "abbreviation", "time_zone", "admin_notes", "archived", "test"},
	Filters: []Filter{
		{Field: "name", Label: "Name", Kind: FilterText},
		{Field: "archived", Label: "Archived", Kind: FilterBool},
		{Field: "test", Label: "Test", Kind: FilterBool},
	},
	ListColumns: []string{"name", "abbreviation", "time_zone", "archived", "test", "updated_at"},
	SortOrder:   SortOrder{Expression: "name", Direction: "asc"},
}

var CalendarManifest = Manifest{
	Resource: ResourceCalendars,
	Title:    "Calendars",
	Fields: append([]Field{
		{Name: "name", Label: "Name", Type: FieldText, Editable: true, Filterable: true, Listed: true},
		{Name: "description", Label: "Description", Type: FieldTextArea, Editable: true},
		{Name: "archived", Label: "Archived", Type: FieldBool, Editable: true, Listed: true},
		{Name: "test", Label: "Test", Type: FieldBool, Editable: true, Listed: true},
	}, timestampFields...),
	PermittedParams: []string{"name", "description", "archived", "test"},
	Filters: []Filter{
		{Field: "name", Label: "Name", Kind: FilterText},
		{Field: "scope", Label: "Scope", Kind: FilterSelect, Collection: models.CalendarScopes},
	},
	ListColumns: []string{"name", "archived", "test", "updated_at", "created_at"},
	SortOrder:   SortOrder{Expression: "name", Direction: "asc"},
}

var UserManifest = Manifest{
	Resource: ResourceUsers,
	Title:    "Users",
	Fields: append([]Field{
		{Name: "email", Label: "Email", Type: FieldText, Editable: true, Filterable: true, Listed: true},
		{Name: "first_name", Label: "First name", Type: FieldText, Editable: true, Listed: true},
		{Name: "last_name", Label: "Last name", Type: FieldText, Editable: true, Filterable: true, Listed: true},
		{Name: "zip_code", Label: "Zip code", Type: FieldText, Editable: true},
		{Name: "time_zone", Label: "Time zone", Type: FieldSelect, Editable: true, Collection: models.AllowedTimeZones},
		{Name: "locale", Label: "Locale", Type: FieldSelect, Editable: true, Collection: models.Locales},
		{Name: "admin_notes", Label: "Admin notes", Type: FieldTextArea, Editable: true},
		{Name: "roles", Label: "Roles", Type: FieldText, Listed: true},
		{Name: "sign_in_count", Label: "Sign ins", Type: FieldText, Listed: true},
		{Name: "last_sign_in_at", Label: "Last sign in", Type: FieldDateTime, Listed: true},
		{Name: "locked", Label: "Locked", Type: FieldBool, Filterable: true, Listed: true},
		{Name: "archived", Label: "Archived", Type: FieldBool, Editable: true, Listed: true},
		{Name: "test", Label: "Test", Type: FieldBool, Editable: true},
	}, timestampFields...),
	PermittedParams: []string{"email", "first_name", "last_name", "zip_code", "time_zone", "locale", "admin_notes", "archived", "test"},
	Filters: []Filter{
		{Field: "email", Label: "Email", Kind: FilterText},
		{Field: "last_name", Label: "Last name", Kind: FilterText},
		{Field: "locked", Label: "Locked", Kind: FilterBool},
	},
	ListColumns: []string{"email", "first_name", "last_name", "roles", "sign_in_count", "last_sign_in_at", "locked", "archived"},
	SortOrder:   SortOrder{Expression: "created_at", Direction: "desc"},
}

// EventManifest and LocationManifest are read only
var EventManifest = Manifest{
	Resource: ResourceEvents,
	Title:    "Events",
	Fields: append([]Field{
		{Name: "name", Label: "Name", Type: FieldText, Filterable: true, Listed: true},
		{Name: "starts_at", Label: "Starts", Type: FieldDateTime, Filterable: true, Listed: true},
		{Name: "ends_at", Label: "Ends", Type: FieldDateTime, Listed: true},
		{Name: "calendar", Label: "Calendar", Type: FieldText, Listed: true},
		{Name: "location", Label: "Location", Type: FieldText, Listed: true},
		{Name: "tags", Label: "Tags", Type: FieldText, Listed: true},
		{Name: "archived", Label: "Archived", Type: FieldBool, Filterable: true, Listed: true},
		{Name: "test", Label: "Test", Type: FieldBool, Filterable: true},
	}, timestampFields...),
	Filters: []Filter{
		{Field: "name", Label: "Name", Kind: FilterText},
		{Field: "starts_on", Label: "Starts on", Kind: FilterDate},
		{Field: "archived", Label: "Archived", Kind: FilterBool},
		{Field: "test", Label: "Test", Kind: FilterBool},
	},
	ListColumns: []string{"name", "starts_at", "ends_at", "calendar", "location", "tags", "archived"},
	SortOrder:   SortOrder{Expression: "events.starts_at", Direction: "asc"},
}

var LocationManifest = Manifest{
	Resource: ResourceLocations,
	Title:    "Locations",
	Fields: append([]Field{
		{Name: "name", Label: "Name", Type: FieldText, Filterable: true, Listed: true},
		{Name: "address", Label: "Address", Type: FieldTextArea, Listed: true},
		{Name: "zip_code", Label: "Zip code", Type: FieldText, Listed: true},
		{Name: "region", Label: "Region", Type: FieldText, Listed: true},
		{Name: "archived", Label: "Archived", Type: FieldBool, Filterable: true, Listed: true},
		{Name: "test", Label: "Test", Type: FieldBool},
	}, timestampFields...),
	Filters: []Filter{
		{Field: "name", Label: "Name", Kind: FilterText},
		{Field: "archived", Label: "Archived", Kind: FilterBool},
	},
	ListColumns: []string{"name", "address", "zip_code", "region", "archived", "updated_at"},
	SortOrder:   SortOrder{Expression: "name", Direction: "asc"},
}

var registry = map[string]Manifest{
	ResourceTags:      TagManifest,
	ResourceRegions:   RegionManifest,
	ResourceCalendars: CalendarManifest,
	ResourceUsers:     UserManifest,
	ResourceEvents:    EventManifest,
	ResourceLocations: LocationManifest,
}

// Lookup returns the manifest of a resource
func Lookup(resource string) (Manifest, bool) {
	m, ok := registry[resource]
	return m, ok
}

// Resources lists every registered resource name, sorted
func Resources() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
