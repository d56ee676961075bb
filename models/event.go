package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is something that happens on a calendar at a location
type Event struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Description *string    `gorm:"type:text" json:"description,omitempty"`
	StartsAt    *time.Time `gorm:"index:index_events_on_starts_at" json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	LocationID  *uuid.UUID `gorm:"type:uuid;index:index_events_on_location_id" json:"location_id,omitempty"`
	Location    *Location  `gorm:"foreignKey:LocationID;references:ID" json:"location,omitempty"`
	CalendarID  *uuid.UUID `gorm:"type:uuid;index:index_events_on_calendar_id" json:"calendar_id,omitempty"`
	Calendar    *Calendar  `gorm:"foreignKey:CalendarID;references:ID" json:"calendar,omitempty"`
	Archived    bool       `gorm:"not null;default:false" json:"archived"`
	Test        bool       `gorm:"not null;default:false" json:"test"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Tags      []Tag      `gorm:"many2many:event_tags;" json:"tags,omitempty"`
	EventTags []EventTag `gorm:"foreignKey:EventID" json:"-"`
}

func (Event) TableName() string { return "events" }

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return ValidateEvent(e).Err()
}

// EventTag joins events and tags
type EventTag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:index_event_tags_on_event_id_and_tag_id" json:"event_id"`
	TagID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:index_event_tags_on_event_id_and_tag_id;index:index_event_tags_on_tag_id" json:"tag_id"`
	Event     *Event    `gorm:"foreignKey:EventID;references:ID" json:"-"`
	Tag       *Tag      `gorm:"foreignKey:TagID;references:ID" json:"-"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (EventTag) TableName() string { return "event_tags" }

func (et *EventTag) BeforeCreate(tx *gorm.DB) error {
	if et.ID == uuid.Nil {
		et.ID = uuid.New()
	}
	return nil
}

// EventFilter represents filter criteria for event queries
type EventFilter struct {
	ID           *uuid.UUID
	NameContains *string
	CalendarID   *uuid.UUID
	LocationID   *uuid.UUID
	TagID        *uuid.UUID
	StartsAfter  *time.Time
	StartsBefore *time.Time
	Archived     *bool
	Test         *bool
}
