package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location ties users to a region
type Location struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Address   *string    `gorm:"type:text" json:"address,omitempty"`
	ZipCode   *string    `gorm:"size:16" json:"zip_code,omitempty"`
	RegionID  *uuid.UUID `gorm:"type:uuid;index:index_locations_on_region_id" json:"region_id,omitempty"`
	Region    *Region    `gorm:"foreignKey:RegionID;references:ID" json:"region,omitempty"`
	Archived  bool       `gorm:"not null;default:false" json:"archived"`
	Test      bool       `gorm:"not null;default:false" json:"test"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Location) TableName() string { return "locations" }

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// LocationFilter represents filter criteria for location queries
type LocationFilter struct {
	ID           *uuid.UUID
	Name         *string
	NameContains *string
	RegionID     *uuid.UUID
	Archived     *bool
}
