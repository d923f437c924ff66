package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// CategoryRepository provides database operations for categories.
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository. Pass a transaction
// handle to scope all operations to that transaction.
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, c *Category) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id uint) (*Category, error) {
	var c Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// Save updates an existing category.
func (r *CategoryRepository) Save(ctx context.Context, c *Category) error {
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

// Delete removes a category by ID.
func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&Category{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// ExistsByID reports whether a category with the given ID exists.
func (r *CategoryRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check category existence: %w", err)
	}
	return count > 0, nil
}

// ExistsByNameFold reports whether a category other than excludeID already
// uses name, compared case-insensitively.
func (r *CategoryRepository) ExistsByNameFold(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return count > 0, nil
}

// FindByIDs retrieves the categories with the given IDs, in no particular
// order. Missing IDs are silently absent from the result.
func (r *CategoryRepository) FindByIDs(ctx context.Context, ids []uint) ([]Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []Category
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get categories by IDs: %w", err)
	}
	return categories, nil
}

// CategoryFilter narrows a category search.
type CategoryFilter struct {
	Q      string
	Status string
	Offset int
	Limit  int
}

// Search lists categories matching the filter, newest first, with totals.
func (r *CategoryRepository) Search(ctx context.Context, f CategoryFilter) ([]Category, int64, error) {
	q := r.db.WithContext(ctx).Model(&Category{})
	if f.Q != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Q)+"%")
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}

	q = q.Order("created_at DESC")
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}

	var categories []Category
	if err := q.Find(&categories).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search categories: %w", err)
	}
	return categories, total, nil
}
