package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag labels events
// Table: tags
// Name is stored lowercase; uniqueness is checked and enforced on that form
type Tag struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex:index_tags_on_name" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	TagType     string    `gorm:"not null;index:index_tags_on_tag_type" json:"tag_type"`
	TagCategory *string   `gorm:"index:index_tags_on_tag_category" json:"tag_category,omitempty"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Events    []Event    `gorm:"many2many:event_tags;" json:"-"`
	EventTags []EventTag `gorm:"foreignKey:TagID" json:"-"`
}

func (Tag) TableName() string { return "tags" }

// NormalizeTagName is the form a tag name is compared and stored in
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Tag) BeforeSave(tx *gorm.DB) error {
	t.Name = NormalizeTagName(t.Name)
	return nil
}

// TagFilter represents filter criteria for tag queries
type TagFilter struct {
	ID           *uuid.UUID
	Name         *string
	NameContains *string
	TagType      *string
	TagCategory  *string
}
