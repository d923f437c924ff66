package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	domain "github.com/example/catalog-admin/domain/catalog"
	"github.com/example/catalog-admin/modules/cache"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// capturePublisher records published events instead of sending them anywhere.
type capturePublisher struct {
	mu      sync.Mutex
	created []domain.Category
	changed []statusChange
}

type statusChange struct {
	category  domain.Category
	oldStatus domain.Status
}

func (p *capturePublisher) PublishCategoryCreated(_ context.Context, c *domain.Category) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, *c)
}

func (p *capturePublisher) PublishCategoryStatusChanged(_ context.Context, c *domain.Category, oldStatus domain.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, statusChange{category: *c, oldStatus: oldStatus})
}

func (p *capturePublisher) changes() []statusChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]statusChange(nil), p.changed...)
}

// setupServices builds both services over an in-memory database and cache.
func setupServices(t *testing.T) (*CategoryService, *ProductService, *cache.Cache, *capturePublisher) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.Category{}, &domain.Product{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	c := cache.New(cache.NewMemoryBackend(), "test:", 0)
	pub := &capturePublisher{}
	return NewCategoryService(db, c, pub), NewProductService(db, c), c, pub
}

func TestCategoryServiceCreate(t *testing.T) {
	svc, _, c, pub := setupServices(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, domain.CategoryInput{Name: "  Electronics  ", Status: "ACTIVE"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if resp.Name != "Electronics" {
		t.Errorf("expected trimmed name, got %q", resp.Name)
	}
	if resp.Status != domain.StatusActive {
		t.Errorf("expected ACTIVE, got %v", resp.Status)
	}
	if resp.UpdatedAt != nil {
		t.Errorf("expected nil UpdatedAt on create, got %v", resp.UpdatedAt)
	}

	if len(pub.created) != 1 {
		t.Fatalf("expected 1 CREATED event, got %d", len(pub.created))
	}

	// The projection was primed into the cache.
	var cached domain.CategoryResponse
	if !c.Get(ctx, cache.KindCategory, resp.ID, &cached) {
		t.Error("expected category to be cached after create")
	}
}

func TestCategoryServiceCreateValidation(t *testing.T) {
	svc, _, _, _ := setupServices(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   domain.CategoryInput
	}{
		{"empty name", domain.CategoryInput{Name: "", Status: "ACTIVE"}},
		{"name too short", domain.CategoryInput{Name: "A", Status: "ACTIVE"}},
		{"name too long", domain.CategoryInput{Name: strings.Repeat("x", 151), Status: "ACTIVE"}},
		{"empty status", domain.CategoryInput{Name: "Valid Name", Status: ""}},
		{"unknown status", domain.CategoryInput{Name: "Valid Name", Status: "ARCHIVED"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			if !domain.IsValidation(err) {
				t.Errorf("Create(%+v) error = %v, want validation error", tt.in, err)
			}
		})
	}
}

func TestCategoryServiceCreateDuplicateName(t *testing.T) {
	svc, _, _, _ := setupServices(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, domain.CategoryInput{Name: "Electronics", Status: "ACTIVE"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := svc.Create(ctx, domain.CategoryInput{Name: "ELECTRONICS", Status: "ACTIVE"})
	if !errors.Is(err, domain.ErrDuplicateName) {
		t.Errorf("Create() with duplicate name error = %v, want ErrDuplicateName", err)
	}
}

func TestCategoryServiceUpdatePublishesStatusChange(t *testing.T) {
	svc, _, _, pub := setupServices(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, domain.CategoryInput{Name: "Electronics", Status: "ACTIVE"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Rename without a status change publishes nothing.
	if _, err := svc.Update(ctx, resp.ID, domain.CategoryInput{Name: "Gadgets", Status: "ACTIVE"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(pub.changes()) != 0 {
		t.Fatalf("expected no STATUS_CHANGED event after rename, got %d", len(pub.changes()))
	}

	updated, err := svc.Update(ctx, resp.ID, domain.CategoryInput{Name: "Gadgets", Status: "INACTIVE"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.UpdatedAt == nil {
		t.Error("expected UpdatedAt to be set after update")
	}

	changes := pub.changes()
	if len(changes) != 1 {
		t.Fatalf("expected 1 STATUS_CHANGED event, got %d", len(changes))
	}
	if changes[0].oldStatus != domain.StatusActive || changes[0].category.Status != domain.StatusInactive {
		t.Errorf("unexpected event: old=%v new=%v", changes[0].oldStatus, changes[0].category.Status)
	}
}

func TestCategoryServiceUpdateRefreshesCache(t *testing.T) {
	svc, _, c, _ := setupServices(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, domain.CategoryInput{Name: "Electronics", Status: "ACTIVE"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Update(ctx, resp.ID, domain.CategoryInput{Name: "Gadgets", Status: "ACTIVE"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// A read served from the cache must observe the committed write.
	var cached domain.CategoryResponse
	if !c.Get(ctx, cache.KindCategory, resp.ID, &cached) {
		t.Fatal("expected category to be cached after update")
	}
	if cached.Name != "Gadgets" {
		t.Errorf("cached name = %q, want %q", cached.Name, "Gadgets")
	}
}

func TestCategoryServiceGetReadThrough(t *testing.T) {
	svc, _, c, _ := setupServices(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, domain.CategoryInput{Name: "Electronics", Status: "ACTIVE"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Evict so the first read goes to the store and refills the cache.
	c.Evict(ctx, cache.KindCategory, resp.ID)

	got, err := svc.Get(ctx, resp.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Electronics" {
		t.Errorf("Get() name = %q, want Electronics", got.Name)
	}

	before := c.Snapshot().Hits
	if _, err := svc.Get(ctx, resp.ID); err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if c.Snapshot().Hits != before+1 {
		t.Error("expected second Get() to be served from cache")
	}
}

func TestCategoryServiceGetNotFound(t *testing.T) {
	svc, _, _, _ := setupServices(t)

	_, err := svc.Get(context.Background(), 999)
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Errorf("Get() error = %v, want ErrCategoryNotFound", err)
	}
}

func TestCategoryServiceDelete(t *testing.T) {
	catSvc, prodSvc, c, _ := setupServices(t)
	ctx := context.Background()

	resp, err := catSvc.Create(ctx, domain.CategoryInput{Name: "Electronics", Status: "ACTIVE"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := prodSvc.Create(ctx, domain.ProductInput{
		SKU: "EL-1", Name: "Laptop", CategoryID: resp.ID, Price: 999.99, Stock: 1, Status: "ACTIVE",
	}); err != nil {
		t.Fatalf("product Create() error = %v", err)
	}

	// Referenced categories cannot be deleted.
	if err := catSvc.Delete(ctx, resp.ID); !errors.Is(err, domain.ErrCategoryInUse) {
		t.Errorf("Delete() error = %v, want ErrCategoryInUse", err)
	}

	empty, err := catSvc.Create(ctx, domain.CategoryInput{Name: "Empty", Status: "ACTIVE"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := catSvc.Delete(ctx, empty.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var cached domain.CategoryResponse
	if c.Get(ctx, cache.KindCategory, empty.ID, &cached) {
		t.Error("expected cache entry to be evicted after delete")
	}

	if err := catSvc.Delete(ctx, empty.ID); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Errorf("second Delete() error = %v, want ErrCategoryNotFound", err)
	}
}

func TestCategoryServiceSearch(t *testing.T) {
	svc, _, _, _ := setupServices(t)
	ctx := context.Background()

	for _, in := range []domain.CategoryInput{
		{Name: "Electronics", Status: "ACTIVE"},
		{Name: "Electric Tools", Status: "ACTIVE"},
		{Name: "Books", Status: "INACTIVE"},
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("Create(%q) error = %v", in.Name, err)
		}
	}

	page, err := svc.Search(ctx, domain.CategoryFilter{Q: "electr", Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Errorf("Search(q=electr) = %d items, total %d, want 2/2", len(page.Items), page.Total)
	}

	if _, err := svc.Search(ctx, domain.CategoryFilter{Status: "BOGUS"}); !domain.IsValidation(err) {
		t.Errorf("Search(status=BOGUS) error = %v, want validation error", err)
	}
}
