// Package catalog wires the catalog domain to the entity store, the cache
// and the event pipeline, and hosts the synchronous cascade executor.
package catalog

import (
	"context"
	"fmt"
	"time"

	domain "github.com/example/catalog-admin/domain/catalog"
	"github.com/example/catalog-admin/modules/cache"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// EventPublisher is the slice of the event pipeline the services publish
// through. Publishing happens after the triggering write committed; a
// failed publish never rolls it back.
type EventPublisher interface {
	PublishCategoryCreated(ctx context.Context, c *domain.Category)
	PublishCategoryStatusChanged(ctx context.Context, c *domain.Category, oldStatus domain.Status)
}

// CategoryService implements category CRUD and the publish side of the
// asynchronous category-to-product cascade.
type CategoryService struct {
	db         *gorm.DB
	categories *domain.CategoryRepository
	products   *domain.ProductRepository
	cache      *cache.Cache
	publisher  EventPublisher
	sf         singleflight.Group
}

// NewCategoryService creates a category service.
func NewCategoryService(db *gorm.DB, c *cache.Cache, publisher EventPublisher) *CategoryService {
	return &CategoryService{
		db:         db,
		categories: domain.NewCategoryRepository(db),
		products:   domain.NewProductRepository(db),
		cache:      c,
		publisher:  publisher,
	}
}

// Create validates and persists a new category, publishes the CREATED event
// and primes the cache.
func (s *CategoryService) Create(ctx context.Context, in domain.CategoryInput) (*domain.CategoryResponse, error) {
	name, err := validateName(in.Name, "category name", 2, 150)
	if err != nil {
		return nil, err
	}
	status, err := validateStatus(in.Status)
	if err != nil {
		return nil, err
	}

	exists, err := s.categories.ExistsByNameFold(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%q: %w", name, domain.ErrDuplicateName)
	}

	c := &domain.Category{Name: name, Status: status}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}

	s.publisher.PublishCategoryCreated(ctx, c)

	resp := c.ToResponse()
	s.cache.Put(ctx, cache.KindCategory, c.ID, resp)
	return resp, nil
}

// Get returns the category projection, read-through the cache.
func (s *CategoryService) Get(ctx context.Context, id uint) (*domain.CategoryResponse, error) {
	var cached domain.CategoryResponse
	if s.cache.Get(ctx, cache.KindCategory, id, &cached) {
		return &cached, nil
	}

	v, err, _ := s.sf.Do(fmt.Sprintf("category:%d", id), func() (any, error) {
		c, err := s.categories.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		resp := c.ToResponse()
		s.cache.Put(ctx, cache.KindCategory, id, resp)
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CategoryResponse), nil
}

// Update validates and persists category changes. A status flip publishes a
// STATUS_CHANGED event after the write committed; the deactivation cascade
// itself is applied only by the asynchronous consumer.
func (s *CategoryService) Update(ctx context.Context, id uint, in domain.CategoryInput) (*domain.CategoryResponse, error) {
	name, err := validateName(in.Name, "category name", 2, 150)
	if err != nil {
		return nil, err
	}
	status, err := validateStatus(in.Status)
	if err != nil {
		return nil, err
	}

	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.categories.ExistsByNameFold(ctx, name, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%q: %w", name, domain.ErrDuplicateName)
	}

	oldStatus := c.Status
	now := time.Now()
	c.Name = name
	c.Status = status
	c.UpdatedAt = &now
	if err := s.categories.Save(ctx, c); err != nil {
		return nil, err
	}

	resp := c.ToResponse()
	s.cache.Put(ctx, cache.KindCategory, c.ID, resp)

	if oldStatus != c.Status {
		s.publisher.PublishCategoryStatusChanged(ctx, c, oldStatus)
	}
	return resp, nil
}

// Delete removes a category. Deletion is rejected, not cascaded, while any
// product still references the category.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	exists, err := s.categories.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrCategoryNotFound
	}

	inUse, err := s.products.ExistsByCategoryID(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return domain.ErrCategoryInUse
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Evict(ctx, cache.KindCategory, id)
	return nil
}

// Search lists categories matching the filter.
func (s *CategoryService) Search(ctx context.Context, f domain.CategoryFilter) (*domain.Page[domain.CategoryResponse], error) {
	if f.Status != "" {
		if _, err := validateStatus(f.Status); err != nil {
			return nil, err
		}
	}

	categories, total, err := s.categories.Search(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, *categories[i].ToResponse())
	}
	return &domain.Page[domain.CategoryResponse]{Items: items, Total: total, Offset: f.Offset, Limit: f.Limit}, nil
}
