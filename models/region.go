package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Region is exposed through the REST API
// Table: regions
type Region struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name         string    `gorm:"not null;index:idx_regions_name" json:"name"`
	Abbreviation string    `gorm:"not null" json:"abbreviation"`
	TimeZone     string    `gorm:"not null;default:America/Chicago" json:"time_zone"`
	AdminNotes   *string   `gorm:"type:text" json:"admin_notes,omitempty"`
	Archived     bool      `gorm:"not null;default:false" json:"archived"`
	Test         bool      `gorm:"not null;default:false" json:"test"`
	CreatedAt    time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Locations []Location `gorm:"foreignKey:RegionID" json:"-"`
}

func (Region) TableName() string { return "regions" }

func (r *Region) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.TimeZone == "" {
		r.TimeZone = TimeZoneCentral
	}
	return nil
}

// RegionFilter represents filter criteria for region queries
type RegionFilter struct {
	ID           *uuid.UUID
	Name         *string
	NameContains *string
	Abbreviation *string
	Archived     *bool
	Test         *bool
}
