// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"

	"github.com/amirphl/Tsukuyomi/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

// ErrNotFound is returned by writes that matched no row
var ErrNotFound = errors.New("record not found")

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uuid.UUID) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// MutableRepository adds column-map updates and hard deletes
type MutableRepository[T any, F any] interface {
	Repository[T, F]
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RegionRepository defines operations for regions
type RegionRepository interface {
	MutableRepository[models.Region, models.RegionFilter]
}

// LocationRepository defines operations for locations
type LocationRepository interface {
	Repository[models.Location, models.LocationFilter]
	ListByRegion(ctx context.Context, regionID uuid.UUID) ([]*models.Location, error)
}

// UserRepository defines operations for users.
// Token lookups take the stored digest, not the raw secret.
type UserRepository interface {
	MutableRepository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByToken(ctx context.Context, digest string) (*models.User, error)
	ByResetPasswordToken(ctx context.Context, digest string) (*models.User, error)
	ByConfirmationToken(ctx context.Context, digest string) (*models.User, error)
	ByUnlockToken(ctx context.Context, digest string) (*models.User, error)
	IncrementFailedAttempts(ctx context.Context, id uuid.UUID) (int, error)
	EmailTaken(ctx context.Context, email string, exceptID *uuid.UUID) (bool, error)
}

// TagRepository defines operations for tags
type TagRepository interface {
	MutableRepository[models.Tag, models.TagFilter]
	ByName(ctx context.Context, name string) (*models.Tag, error)
	ListByNames(ctx context.Context, names []string) ([]*models.Tag, error)
}

// EventRepository defines operations for events and their tags
type EventRepository interface {
	MutableRepository[models.Event, models.EventFilter]
	AttachTags(ctx context.Context, eventID uuid.UUID, tagIDs []uuid.UUID) error
	DetachTag(ctx context.Context, eventID, tagID uuid.UUID) error
	ListTags(ctx context.Context, eventID uuid.UUID) ([]*models.Tag, error)
}

// CalendarRepository defines operations for calendars and their members
type CalendarRepository interface {
	MutableRepository[models.Calendar, models.CalendarFilter]
	ListByScope(ctx context.Context, scope models.CalendarScope, orderBy string, limit, offset int) ([]*models.Calendar, error)
	AddUser(ctx context.Context, calendarID, userID uuid.UUID) error
	RemoveUser(ctx context.Context, calendarID, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Calendar, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Save(ctx context.Context, entity *models.AuditLog) error
	ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error)
	Count(ctx context.Context, filter models.AuditLogFilter) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
