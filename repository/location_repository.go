package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Tsukuyomi/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationRepositoryImpl implements LocationRepository interface
type LocationRepositoryImpl struct {
	*BaseRepository[models.Location, models.LocationFilter]
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &LocationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Location, models.LocationFilter](db),
	}
}

// ListByRegion retrieves the locations of a region, region preloaded
func (r *LocationRepositoryImpl) ListByRegion(ctx context.Context, regionID uuid.UUID) ([]*models.Location, error) {
	return r.ByFilter(ctx, models.LocationFilter{RegionID: &regionID}, "", 0, 0)
}

func (r *LocationRepositoryImpl) applyFilter(query *gorm.DB, filter models.LocationFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.NameContains != nil {
		query = query.Where("name ILIKE ?", containsPattern(*filter.NameContains))
	}
	if filter.RegionID != nil {
		query = query.Where("region_id = ?", *filter.RegionID)
	}
	if filter.Archived != nil {
		query = query.Where("archived = ?", *filter.Archived)
	}
	return query
}

// ByFilter retrieves locations based on filter criteria
func (r *LocationRepositoryImpl) ByFilter(ctx context.Context, filter models.LocationFilter, orderBy string, limit, offset int) ([]*models.Location, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Location{}), filter).Preload("Region")

	if orderBy == "" {
		orderBy = "name ASC"
	}
	query = paginate(query, orderBy, limit, offset)

	var locations []*models.Location
	if err := query.Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// Count returns the number of locations matching the filter
func (r *LocationRepositoryImpl) Count(ctx context.Context, filter models.LocationFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Location{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count locations: %w", err)
	}
	return count, nil
}

// Exists checks if any location matches the filter
func (r *LocationRepositoryImpl) Exists(ctx context.Context, filter models.LocationFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}
