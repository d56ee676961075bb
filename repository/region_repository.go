package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Tsukuyomi/models"
	"gorm.io/gorm"
)

// RegionRepositoryImpl implements RegionRepository interface
type RegionRepositoryImpl struct {
	*BaseRepository[models.Region, models.RegionFilter]
}

// NewRegionRepository creates a new region repository
func NewRegionRepository(db *gorm.DB) RegionRepository {
	return &RegionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Region, models.RegionFilter](db),
	}
}

// applyFilter applies filter criteria to a GORM query
func (r *RegionRepositoryImpl) applyFilter(query *gorm.DB, filter models.RegionFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.NameContains != nil {
		query = query.Where("name ILIKE ?", containsPattern(*filter.NameContains))
	}
	if filter.Abbreviation != nil {
		query = query.Where("abbreviation = ?", *filter.Abbreviation)
	}
	if filter.Archived != nil {
		query = query.Where("archived = ?", *filter.Archived)
	}
	if filter.Test != nil {
		query = query.Where("test = ?", *filter.Test)
	}
	return query
}

// ByFilter retrieves regions based on filter criteria
func (r *RegionRepositoryImpl) ByFilter(ctx context.Context, filter models.RegionFilter, orderBy string, limit, offset int) ([]*models.Region, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Region{}), filter)

	if orderBy == "" {
		orderBy = "name ASC, id ASC"
	}
	query = paginate(query, orderBy, limit, offset)

	var regions []*models.Region
	if err := query.Find(&regions).Error; err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	return regions, nil
}

// Count returns the number of regions matching the filter
func (r *RegionRepositoryImpl) Count(ctx context.Context, filter models.RegionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Region{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count regions: %w", err)
	}
	return count, nil
}

// Exists checks if any region matches the filter
func (r *RegionRepositoryImpl) Exists(ctx context.Context, filter models.RegionFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}
