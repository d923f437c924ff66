package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	domain "github.com/example/catalog-admin/domain/catalog"
	"github.com/example/catalog-admin/modules/cache"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ProductService implements product CRUD and the synchronous
// product-to-category reactivation cascade.
type ProductService struct {
	db         *gorm.DB
	products   *domain.ProductRepository
	categories *domain.CategoryRepository
	cache      *cache.Cache
	sf         singleflight.Group
}

// NewProductService creates a product service.
func NewProductService(db *gorm.DB, c *cache.Cache) *ProductService {
	return &ProductService{
		db:         db,
		products:   domain.NewProductRepository(db),
		categories: domain.NewCategoryRepository(db),
		cache:      c,
	}
}

// Create validates and persists a new product. Creating an ACTIVE product
// under an INACTIVE category reactivates the category in the same
// transaction; if either write fails, both roll back.
func (s *ProductService) Create(ctx context.Context, in domain.ProductInput) (*domain.ProductResponse, error) {
	sku, err := validateName(in.SKU, "SKU", 3, 100)
	if err != nil {
		return nil, err
	}
	name, err := validateName(in.Name, "product name", 2, 200)
	if err != nil {
		return nil, err
	}
	status, err := validateStatus(in.Status)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	if err := validateStock(in.Stock); err != nil {
		return nil, err
	}
	if in.CategoryID == 0 {
		return nil, domain.Validationf("category_id must not be empty")
	}

	var (
		p           *domain.Product
		cat         *domain.Category
		reactivated bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := domain.NewProductRepository(tx)
		categories := domain.NewCategoryRepository(tx)

		taken, err := products.ExistsBySKUFold(ctx, sku, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%q: %w", sku, domain.ErrDuplicateSKU)
		}

		cat, err = categories.GetByID(ctx, in.CategoryID)
		if err != nil {
			return err
		}

		p = &domain.Product{
			SKU:        sku,
			Name:       name,
			CategoryID: cat.ID,
			Price:      in.Price,
			Stock:      in.Stock,
			Status:     status,
		}
		if err := products.Create(ctx, p); err != nil {
			return err
		}

		action := domain.Decide(domain.Transition{
			Kind:           domain.KindProduct,
			New:            p.Status,
			CategoryStatus: cat.Status,
		})
		if action == domain.ActionActivateCategory {
			now := time.Now()
			cat.Status = domain.StatusActive
			cat.UpdatedAt = &now
			if err := categories.Save(ctx, cat); err != nil {
				return err
			}
			reactivated = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := p.ToResponse(cat.Name)
	s.cache.Put(ctx, cache.KindProduct, p.ID, resp)
	if reactivated {
		s.cache.Evict(ctx, cache.KindCategory, cat.ID)
		log.Printf("[catalog] category %d reactivated by product %d", cat.ID, p.ID)
	}
	return resp, nil
}

// Get returns the product projection, read-through the cache.
func (s *ProductService) Get(ctx context.Context, id uint) (*domain.ProductResponse, error) {
	var cached domain.ProductResponse
	if s.cache.Get(ctx, cache.KindProduct, id, &cached) {
		return &cached, nil
	}

	v, err, _ := s.sf.Do(fmt.Sprintf("product:%d", id), func() (any, error) {
		p, err := s.products.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		cat, err := s.categories.GetByID(ctx, p.CategoryID)
		if err != nil {
			return nil, err
		}
		resp := p.ToResponse(cat.Name)
		s.cache.Put(ctx, cache.KindProduct, id, resp)
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ProductResponse), nil
}

// Update validates and persists product changes. The SKU is immutable.
// Activating a product whose category is INACTIVE reactivates the category
// in the same transaction.
func (s *ProductService) Update(ctx context.Context, id uint, in domain.ProductInput) (*domain.ProductResponse, error) {
	name, err := validateName(in.Name, "product name", 2, 200)
	if err != nil {
		return nil, err
	}
	status, err := validateStatus(in.Status)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	if err := validateStock(in.Stock); err != nil {
		return nil, err
	}
	if in.CategoryID == 0 {
		return nil, domain.Validationf("category_id must not be empty")
	}

	var (
		p           *domain.Product
		cat         *domain.Category
		reactivated bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := domain.NewProductRepository(tx)
		categories := domain.NewCategoryRepository(tx)

		p, err = products.GetByID(ctx, id)
		if err != nil {
			return err
		}

		cat, err = categories.GetByID(ctx, in.CategoryID)
		if err != nil {
			return err
		}

		oldStatus := p.Status
		now := time.Now()
		p.Name = name
		p.CategoryID = cat.ID
		p.Price = in.Price
		p.Stock = in.Stock
		p.Status = status
		p.UpdatedAt = &now
		if err := products.Save(ctx, p); err != nil {
			return err
		}

		action := domain.Decide(domain.Transition{
			Kind:           domain.KindProduct,
			Old:            oldStatus,
			New:            p.Status,
			CategoryStatus: cat.Status,
		})
		if action == domain.ActionActivateCategory {
			cat.Status = domain.StatusActive
			cat.UpdatedAt = &now
			if err := categories.Save(ctx, cat); err != nil {
				return err
			}
			reactivated = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := p.ToResponse(cat.Name)
	s.cache.Put(ctx, cache.KindProduct, p.ID, resp)
	if reactivated {
		s.cache.Evict(ctx, cache.KindCategory, cat.ID)
		log.Printf("[catalog] category %d reactivated by product %d", cat.ID, p.ID)
	}
	return resp, nil
}

// Delete removes a product.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Evict(ctx, cache.KindProduct, id)
	return nil
}

// Search lists products matching the filter with denormalized category names.
func (s *ProductService) Search(ctx context.Context, f domain.ProductFilter) (*domain.Page[domain.ProductResponse], error) {
	if f.Status != "" {
		if _, err := validateStatus(f.Status); err != nil {
			return nil, err
		}
	}

	products, total, err := s.products.Search(ctx, f)
	if err != nil {
		return nil, err
	}

	items, err := s.project(ctx, products)
	if err != nil {
		return nil, err
	}
	return &domain.Page[domain.ProductResponse]{Items: items, Total: total, Offset: f.Offset, Limit: f.Limit}, nil
}

// ExportCSV streams every product matching the filter as CSV rows.
func (s *ProductService) ExportCSV(ctx context.Context, w io.Writer, f domain.ProductFilter) error {
	f.Offset = 0
	f.Limit = 0
	products, _, err := s.products.Search(ctx, f)
	if err != nil {
		return err
	}
	items, err := s.project(ctx, products)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "sku", "name", "category", "price", "stock", "status", "created_at"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, it := range items {
		row := []string{
			strconv.FormatUint(uint64(it.ID), 10),
			it.SKU,
			it.Name,
			it.CategoryName,
			strconv.FormatFloat(it.Price, 'f', 2, 64),
			strconv.Itoa(it.Stock),
			string(it.Status),
			it.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// project joins category names onto product rows with one bulk lookup.
func (s *ProductService) project(ctx context.Context, products []domain.Product) ([]domain.ProductResponse, error) {
	ids := make([]uint, 0, len(products))
	seen := make(map[uint]bool, len(products))
	for i := range products {
		if !seen[products[i].CategoryID] {
			seen[products[i].CategoryID] = true
			ids = append(ids, products[i].CategoryID)
		}
	}
	categories, err := s.categories.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(categories))
	for i := range categories {
		names[categories[i].ID] = categories[i].Name
	}

	items := make([]domain.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, *products[i].ToResponse(names[products[i].CategoryID]))
	}
	return items, nil
}
