package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Tsukuyomi/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TagRepositoryImpl implements TagRepository interface
type TagRepositoryImpl struct {
	*BaseRepository[models.Tag, models.TagFilter]
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &TagRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Tag, models.TagFilter](db),
	}
}

// ByName retrieves a tag by name. The lookup uses the normalized form.
func (r *TagRepositoryImpl) ByName(ctx context.Context, name string) (*models.Tag, error) {
	normalized := models.NormalizeTagName(name)
	filter := models.TagFilter{Name: &normalized}
	rows, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListByNames retrieves tags for a list of names
func (r *TagRepositoryImpl) ListByNames(ctx context.Context, names []string) ([]*models.Tag, error) {
	if len(names) == 0 {
		return []*models.Tag{}, nil
	}
	normalized := make([]string, 0, len(names))
	for _, n := range names {
		normalized = append(normalized, models.NormalizeTagName(n))
	}

	db := r.getDB(ctx)
	var rows []*models.Tag
	if err := db.Model(&models.Tag{}).Where("name IN ?", normalized).Order("lower(name) ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags by names: %w", err)
	}
	return rows, nil
}

// Update applies updates to a tag. Map updates skip model hooks, so name is normalized here.
func (r *TagRepositoryImpl) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if name, ok := updates["name"].(string); ok {
		updates["name"] = models.NormalizeTagName(name)
	}
	return r.BaseRepository.Update(ctx, id, updates)
}

// applyFilter applies filter criteria to a GORM query
func (r *TagRepositoryImpl) applyFilter(query *gorm.DB, filter models.TagFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", models.NormalizeTagName(*filter.Name))
	}
	if filter.NameContains != nil {
		query = query.Where("name ILIKE ?", containsPattern(*filter.NameContains))
	}
	if filter.TagType != nil {
		query = query.Where("tag_type = ?", *filter.TagType)
	}
	if filter.TagCategory != nil {
		query = query.Where("tag_category = ?", *filter.TagCategory)
	}
	return query
}

// ByFilter retrieves tags based on filter criteria
func (r *TagRepositoryImpl) ByFilter(ctx context.Context, filter models.TagFilter, orderBy string, limit, offset int) ([]*models.Tag, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Tag{}), filter)

	if orderBy == "" {
		orderBy = "lower(name) ASC"
	}
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.Tag
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return rows, nil
}

// Count returns the number of tags matching the filter
func (r *TagRepositoryImpl) Count(ctx context.Context, filter models.TagFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Tag{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tags: %w", err)
	}
	return count, nil
}

// Exists checks if any tag matches the filter
func (r *TagRepositoryImpl) Exists(ctx context.Context, filter models.TagFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}
