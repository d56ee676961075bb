package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Tsukuyomi/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventRepositoryImpl implements EventRepository interface
type EventRepositoryImpl struct {
	*BaseRepository[models.Event, models.EventFilter]
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &EventRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Event, models.EventFilter](db),
	}
}

// AttachTags links tags to an event. Existing links are left alone.
func (r *EventRepositoryImpl) AttachTags(ctx context.Context, eventID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	links := make([]*models.EventTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		links = append(links, &models.EventTag{EventID: eventID, TagID: tagID})
	}
	if err = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
		err = fmt.Errorf("failed to attach tags to event %s: %w", eventID, err)
	}
	return finish(db, shouldCommit, err)
}

func (r *EventRepositoryImpl) DetachTag(ctx context.Context, eventID, tagID uuid.UUID) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if err = db.Where("event_id = ? AND tag_id = ?", eventID, tagID).Delete(&models.EventTag{}).Error; err != nil {
		err = fmt.Errorf("failed to detach tag %s from event %s: %w", tagID, eventID, err)
	}
	return finish(db, shouldCommit, err)
}

// ListTags returns the tags of an event ordered by name
func (r *EventRepositoryImpl) ListTags(ctx context.Context, eventID uuid.UUID) ([]*models.Tag, error) {
	db := r.getDB(ctx)

	var tags []*models.Tag
	err := db.Model(&models.Tag{}).
		Joins("JOIN event_tags ON event_tags.tag_id = tags.id").
		Where("event_tags.event_id = ?", eventID).
		Order("lower(tags.name) ASC").
		Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tags of event %s: %w", eventID, err)
	}
	return tags, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *EventRepositoryImpl) applyFilter(query *gorm.DB, filter models.EventFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("events.id = ?", *filter.ID)
	}
	if filter.NameContains != nil {
		query = query.Where("events.name ILIKE ?", containsPattern(*filter.NameContains))
	}
	if filter.CalendarID != nil {
		query = query.Where("events.calendar_id = ?", *filter.CalendarID)
	}
	if filter.LocationID != nil {
		query = query.Where("events.location_id = ?", *filter.LocationID)
	}
	if filter.TagID != nil {
		query = query.Where("EXISTS (SELECT 1 FROM event_tags WHERE event_tags.event_id = events.id AND event_tags.tag_id = ?)", *filter.TagID)
	}
	if filter.StartsAfter != nil {
		query = query.Where("events.starts_at >= ?", *filter.StartsAfter)
	}
	if filter.StartsBefore != nil {
		query = query.Where("events.starts_at < ?", *filter.StartsBefore)
	}
	if filter.Archived != nil {
		query = query.Where("events.archived = ?", *filter.Archived)
	}
	if filter.Test != nil {
		query = query.Where("events.test = ?", *filter.Test)
	}
	return query
}

// ByFilter retrieves events based on filter criteria with tags, location and calendar preloaded
func (r *EventRepositoryImpl) ByFilter(ctx context.Context, filter models.EventFilter, orderBy string, limit, offset int) ([]*models.Event, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Event{}), filter).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("lower(tags.name) ASC") }).
		Preload("Location").
		Preload("Calendar")

	if orderBy == "" {
		orderBy = "events.starts_at ASC NULLS LAST"
	}
	query = paginate(query, orderBy, limit, offset)

	var events []*models.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Count returns the number of events matching the filter
func (r *EventRepositoryImpl) Count(ctx context.Context, filter models.EventFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Event{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// Exists checks if any event matches the filter
func (r *EventRepositoryImpl) Exists(ctx context.Context, filter models.EventFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}
