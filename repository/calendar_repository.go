package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Tsukuyomi/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CalendarRepositoryImpl implements CalendarRepository interface
type CalendarRepositoryImpl struct {
	*BaseRepository[models.Calendar, models.CalendarFilter]
}

// NewCalendarRepository creates a new calendar repository
func NewCalendarRepository(db *gorm.DB) CalendarRepository {
	return &CalendarRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Calendar, models.CalendarFilter](db),
	}
}

// ListByScope retrieves the calendars selected by a named scope
func (r *CalendarRepositoryImpl) ListByScope(ctx context.Context, scope models.CalendarScope, orderBy string, limit, offset int) ([]*models.Calendar, error) {
	fn, ok := scope.Func()
	if !ok {
		return nil, fmt.Errorf("unknown calendar scope %q", scope)
	}

	db := r.getDB(ctx)
	if orderBy == "" {
		orderBy = "calendars.name ASC"
	}
	query := paginate(db.Model(&models.Calendar{}).Scopes(fn), orderBy, limit, offset)

	var calendars []*models.Calendar
	if err := query.Find(&calendars).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s calendars: %w", scope, err)
	}
	return calendars, nil
}

// AddUser shares a calendar with a user. Adding twice is a no-op.
func (r *CalendarRepositoryImpl) AddUser(ctx context.Context, calendarID, userID uuid.UUID) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	link := &models.CalendarUser{CalendarID: calendarID, UserID: userID}
	if err = db.Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error; err != nil {
		err = fmt.Errorf("failed to add user %s to calendar %s: %w", userID, calendarID, err)
	}
	return finish(db, shouldCommit, err)
}

func (r *CalendarRepositoryImpl) RemoveUser(ctx context.Context, calendarID, userID uuid.UUID) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if err = db.Where("calendar_id = ? AND user_id = ?", calendarID, userID).Delete(&models.CalendarUser{}).Error; err != nil {
		err = fmt.Errorf("failed to remove user %s from calendar %s: %w", userID, calendarID, err)
	}
	return finish(db, shouldCommit, err)
}

// ListByUser returns the calendars shared with a user
func (r *CalendarRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Calendar, error) {
	db := r.getDB(ctx)

	var calendars []*models.Calendar
	err := db.Model(&models.Calendar{}).
		Joins("JOIN calendar_users ON calendar_users.calendar_id = calendars.id").
		Where("calendar_users.user_id = ?", userID).
		Order("calendars.name ASC").
		Find(&calendars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars of user %s: %w", userID, err)
	}
	return calendars, nil
}

func (r *CalendarRepositoryImpl) applyFilter(query *gorm.DB, filter models.CalendarFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("calendars.id = ?", *filter.ID)
	}
	if filter.NameContains != nil {
		query = query.Where("calendars.name ILIKE ?", containsPattern(*filter.NameContains))
	}
	if filter.Archived != nil {
		query = query.Where("calendars.archived = ?", *filter.Archived)
	}
	if filter.Test != nil {
		query = query.Where("calendars.test = ?", *filter.Test)
	}
	if filter.Scope != nil {
		if fn, ok := filter.Scope.Func(); ok {
			query = query.Scopes(fn)
		} else {
			query = query.Where("1 = 0")
		}
	}
	return query
}

// ByFilter retrieves calendars based on filter criteria
func (r *CalendarRepositoryImpl) ByFilter(ctx context.Context, filter models.CalendarFilter, orderBy string, limit, offset int) ([]*models.Calendar, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Calendar{}), filter)

	if orderBy == "" {
		orderBy = "calendars.name ASC"
	}
	query = paginate(query, orderBy, limit, offset)

	var calendars []*models.Calendar
	if err := query.Find(&calendars).Error; err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return calendars, nil
}

// Count returns the number of calendars matching the filter
func (r *CalendarRepositoryImpl) Count(ctx context.Context, filter models.CalendarFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Calendar{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count calendars: %w", err)
	}
	return count, nil
}

// Exists checks if any calendar matches the filter
func (r *CalendarRepositoryImpl) Exists(ctx context.Context, filter models.CalendarFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}
