package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ProductRepository provides database operations for products.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository. Pass a transaction
// handle to scope all operations to that transaction.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id uint) (*Product, error) {
	var p Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// Save updates an existing product.
func (r *ProductRepository) Save(ctx context.Context, p *Product) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// SaveAll upserts products in bulk. Used by the cascade consumer.
func (r *ProductRepository) SaveAll(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Save(&products).Error; err != nil {
		return fmt.Errorf("failed to save products: %w", err)
	}
	return nil
}

// Delete removes a product by ID.
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ExistsByID reports whether a product with the given ID exists.
func (r *ProductRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return count > 0, nil
}

// ExistsBySKUFold reports whether a product other than excludeID already uses
// sku, compared case-insensitively.
func (r *ProductRepository) ExistsBySKUFold(ctx context.Context, sku string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&Product{}).Where("LOWER(sku) = ?", strings.ToLower(sku))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product SKU: %w", err)
	}
	return count > 0, nil
}

// ExistsByCategoryID reports whether any product references the category.
func (r *ProductRepository) ExistsByCategoryID(ctx context.Context, categoryID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Product{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check category references: %w", err)
	}
	return count > 0, nil
}

// FindAllByCategoryID lists every product referencing the category.
func (r *ProductRepository) FindAllByCategoryID(ctx context.Context, categoryID uint) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products by category: %w", err)
	}
	return products, nil
}

// FindByCategoryIDAndStatus lists products of a category in a given status.
func (r *ProductRepository) FindByCategoryIDAndStatus(ctx context.Context, categoryID uint, status Status) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).
		Where("category_id = ? AND status = ?", categoryID, status).
		Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products by category and status: %w", err)
	}
	return products, nil
}

// ProductFilter narrows a product search.
type ProductFilter struct {
	Q          string
	SKU        string
	CategoryID uint
	Status     string
	StockLt    *int
	Offset     int
	Limit      int
}

// Search lists products matching the filter, newest first, with totals.
func (r *ProductRepository) Search(ctx context.Context, f ProductFilter) ([]Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&Product{})
	if f.Q != "" {
		like := "%" + strings.ToLower(f.Q) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	if f.SKU != "" {
		q = q.Where("LOWER(sku) = ?", strings.ToLower(f.SKU))
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.StockLt != nil {
		q = q.Where("stock < ?", *f.StockLt)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	q = q.Order("created_at DESC")
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}

	var products []Product
	if err := q.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}
	return products, total, nil
}
