package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Calendar groups events and is shared with users
type Calendar struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Archived    bool      `gorm:"not null;default:false;index:index_calendars_on_archived_and_test" json:"archived"`
	Test        bool      `gorm:"not null;default:false;index:index_calendars_on_archived_and_test" json:"test"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Users         []User         `gorm:"many2many:calendar_users;" json:"-"`
	CalendarUsers []CalendarUser `gorm:"foreignKey:CalendarID" json:"-"`
	Events        []Event        `gorm:"foreignKey:CalendarID" json:"-"`
}

func (Calendar) TableName() string { return "calendars" }

func (c *Calendar) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return ValidateCalendar(c).Err()
}

// CalendarUser joins calendars and users
type CalendarUser struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CalendarID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:index_calendar_users_on_calendar_id_and_user_id" json:"calendar_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:index_calendar_users_on_calendar_id_and_user_id;index:index_calendar_users_on_user_id" json:"user_id"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (CalendarUser) TableName() string { return "calendar_users" }

func (cu *CalendarUser) BeforeCreate(tx *gorm.DB) error {
	if cu.ID == uuid.Nil {
		cu.ID = uuid.New()
	}
	return nil
}

// CalendarFilter represents filter criteria for calendar queries
type CalendarFilter struct {
	ID           *uuid.UUID
	NameContains *string
	Archived     *bool
	Test         *bool
	Scope        *CalendarScope
}

// CalendarScope names a reusable selection over calendars
type CalendarScope string

const (
	CalendarScopeActive   CalendarScope = "active"
	CalendarScopeArchived CalendarScope = "archived"
	CalendarScopeTest     CalendarScope = "test"
)

var CalendarScopes = []string{
	string(CalendarScopeActive),
	string(CalendarScopeArchived),
	string(CalendarScopeTest),
}

// ActiveCalendars keeps calendars that are neither archived nor test
func ActiveCalendars(db *gorm.DB) *gorm.DB {
	return db.Where("calendars.archived = ? AND calendars.test = ?", false, false)
}

// ArchivedCalendars keeps archived calendars, test or not
func ArchivedCalendars(db *gorm.DB) *gorm.DB {
	return db.Where("calendars.archived = ?", true)
}

func TestCalendars(db *gorm.DB) *gorm.DB {
	return db.Where("calendars.test = ?", true)
}

// Func returns the gorm scope for s
func (s CalendarScope) Func() (func(*gorm.DB) *gorm.DB, bool) {
	switch s {
	case CalendarScopeActive:
		return ActiveCalendars, true
	case CalendarScopeArchived:
		return ArchivedCalendars, true
	case CalendarScopeTest:
		return TestCalendars, true
	}
	return nil, false
}

// Includes mirrors the SQL of the scope for an already loaded calendar
func (s CalendarScope) Includes(c *Calendar) bool {
	switch s {
	case CalendarScopeActive:
		return !c.Archived && !c.Test
	case CalendarScopeArchived:
		return c.Archived
	case CalendarScopeTest:
		return c.Test
	}
	return false
}
