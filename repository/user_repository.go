package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements UserRepository interface
type UserRepositoryImpl struct {
	*BaseRepository[models.User, models.UserFilter]
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{
		BaseRepository: NewBaseRepository[models.User, models.UserFilter](db),
	}
}

// ByEmail retrieves a user by email address, ignoring case
func (r *UserRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.User, error) {
	filter := models.UserFilter{Email: &email}
	users, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if len(users) == 0 {
		return nil, nil
	}

	return users[0], nil
}

// ByToken retrieves the owner of an API session token digest
func (r *UserRepositoryImpl) ByToken(ctx context.Context, digest string) (*models.User, error) {
	return r.byColumn(ctx, "token", digest)
}

func (r *UserRepositoryImpl) ByResetPasswordToken(ctx context.Context, digest string) (*models.User, error) {
	return r.byColumn(ctx, "reset_password_token", digest)
}

func (r *UserRepositoryImpl) ByConfirmationToken(ctx context.Context, digest string) (*models.User, error) {
	return r.byColumn(ctx, "confirmation_token", digest)
}

func (r *UserRepositoryImpl) ByUnlockToken(ctx context.Context, digest string) (*models.User, error) {
	return r.byColumn(ctx, "unlock_token", digest)
}

// byColumn looks a user up by one of the unique token columns
func (r *UserRepositoryImpl) byColumn(ctx context.Context, column, value string) (*models.User, error) {
	if value == "" {
		return nil, nil
	}
	db := r.getDB(ctx)

	var users []*models.User
	if err := db.Where(column+" = ?", value).Limit(1).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find user by %s: %w", column, err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

// IncrementFailedAttempts bumps the counter in a single statement and returns the new value
func (r *UserRepositoryImpl) IncrementFailedAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	db := r.getDB(ctx)

	var attempts int
	err := db.Raw(
		"UPDATE users SET failed_attempts = failed_attempts + 1, updated_at = ? WHERE id = ? RETURNING failed_attempts",
		utils.UTCNow(), id,
	).Scan(&attempts).Error
	if err != nil {
		return 0, fmt.Errorf("failed to increment failed attempts: %w", err)
	}
	return attempts, nil
}

// EmailTaken reports whether another user already owns email
func (r *UserRepositoryImpl) EmailTaken(ctx context.Context, email string, exceptID *uuid.UUID) (bool, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.User{}).Where("lower(email) = lower(?)", email)
	if exceptID != nil {
		query = query.Where("id <> ?", *exceptID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *UserRepositoryImpl) applyFilter(query *gorm.DB, filter models.UserFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Email != nil {
		query = query.Where("lower(email) = lower(?)", *filter.Email)
	}
	if filter.EmailContains != nil {
		query = query.Where("email ILIKE ?", containsPattern(*filter.EmailContains))
	}
	if filter.LastName != nil {
		query = query.Where("last_name ILIKE ?", containsPattern(*filter.LastName))
	}
	if filter.LocationID != nil {
		query = query.Where("location_id = ?", *filter.LocationID)
	}
	if filter.Locked != nil {
		if *filter.Locked {
			query = query.Where("locked_at IS NOT NULL")
		} else {
			query = query.Where("locked_at IS NULL")
		}
	}
	if filter.Archived != nil {
		query = query.Where("archived = ?", *filter.Archived)
	}
	if filter.Test != nil {
		query = query.Where("test = ?", *filter.Test)
	}
	return query
}

// ByFilter retrieves users based on filter criteria
func (r *UserRepositoryImpl) ByFilter(ctx context.Context, filter models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.User{}), filter)

	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query = paginate(query, orderBy, limit, offset)

	var users []*models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Count returns the number of users matching the filter
func (r *UserRepositoryImpl) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.User{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Exists checks if any user matches the filter
func (r *UserRepositoryImpl) Exists(ctx context.Context, filter models.UserFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}
