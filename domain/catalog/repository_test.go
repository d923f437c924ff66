package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&Category{}, &Product{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func mustCreateCategory(t *testing.T, repo *CategoryRepository, name string, status Status) *Category {
	t.Helper()
	c := &Category{Name: name, Status: status}
	if err := repo.Create(context.Background(), c); err != nil {
		t.Fatalf("failed to create category %q: %v", name, err)
	}
	return c
}

func TestCategoryRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)

	c := mustCreateCategory(t, repo, "Electronics", StatusActive)
	if c.ID == 0 {
		t.Fatal("expected non-zero ID after create")
	}
	if c.UpdatedAt != nil {
		t.Errorf("expected nil UpdatedAt on create, got %v", c.UpdatedAt)
	}

	found, err := repo.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Name != "Electronics" {
		t.Errorf("expected name %q, got %q", "Electronics", found.Name)
	}
	if found.Status != StatusActive {
		t.Errorf("expected status %v, got %v", StatusActive, found.Status)
	}
	if found.UpdatedAt != nil {
		t.Errorf("expected nil UpdatedAt after round-trip, got %v", found.UpdatedAt)
	}
}

func TestCategoryRepository_GetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)

	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("GetByID() error = %v, want ErrCategoryNotFound", err)
	}
}

func TestCategoryRepository_SavePreservesUpdatedAt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)

	c := mustCreateCategory(t, repo, "Books", StatusActive)

	now := time.Now()
	c.Status = StatusInactive
	c.UpdatedAt = &now
	if err := repo.Save(context.Background(), c); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	found, err := repo.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Status != StatusInactive {
		t.Errorf("expected status %v, got %v", StatusInactive, found.Status)
	}
	if found.UpdatedAt == nil {
		t.Error("expected UpdatedAt to be set after update")
	}
}

func TestCategoryRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)

	c := mustCreateCategory(t, repo, "Toys", StatusActive)
	if err := repo.Delete(context.Background(), c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if err := repo.Delete(context.Background(), c.ID); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("second Delete() error = %v, want ErrCategoryNotFound", err)
	}
}

func TestCategoryRepository_ExistsByNameFold(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	c := mustCreateCategory(t, repo, "Electronics", StatusActive)

	tests := []struct {
		name      string
		query     string
		excludeID uint
		want      bool
	}{
		{"exact match", "Electronics", 0, true},
		{"case-insensitive match", "ELECTRONICS", 0, true},
		{"mixed case match", "eLeCtRoNiCs", 0, true},
		{"no match", "Furniture", 0, false},
		{"excluded self", "Electronics", c.ID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ExistsByNameFold(ctx, tt.query, tt.excludeID)
			if err != nil {
				t.Fatalf("ExistsByNameFold() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExistsByNameFold(%q, %d) = %v, want %v", tt.query, tt.excludeID, got, tt.want)
			}
		})
	}
}

func TestCategoryRepository_Search(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	mustCreateCategory(t, repo, "Electronics", StatusActive)
	mustCreateCategory(t, repo, "Electric Tools", StatusActive)
	mustCreateCategory(t, repo, "Books", StatusInactive)

	categories, total, err := repo.Search(ctx, CategoryFilter{Q: "electr"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 2 || len(categories) != 2 {
		t.Errorf("Search(q=electr) returned %d/%d, want 2/2", len(categories), total)
	}

	categories, total, err = repo.Search(ctx, CategoryFilter{Status: string(StatusInactive)})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 1 || len(categories) != 1 || categories[0].Name != "Books" {
		t.Errorf("Search(status=INACTIVE) = %v, total %d, want only Books", categories, total)
	}

	_, total, err = repo.Search(ctx, CategoryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 3 {
		t.Errorf("Search(limit=2) total = %d, want 3", total)
	}
}

func TestProductRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	categories := NewCategoryRepository(db)
	products := NewProductRepository(db)
	ctx := context.Background()

	cat := mustCreateCategory(t, categories, "Electronics", StatusActive)

	p := &Product{SKU: "SKU-001", Name: "Laptop", CategoryID: cat.ID, Price: 999.99, Stock: 5, Status: StatusActive}
	if err := products.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.ID == 0 {
		t.Fatal("expected non-zero ID after create")
	}

	found, err := products.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.SKU != "SKU-001" || found.Price != 999.99 {
		t.Errorf("unexpected product: %+v", found)
	}

	if err := products.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := products.GetByID(ctx, p.ID); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrProductNotFound", err)
	}
}

func TestProductRepository_ExistsBySKUFold(t *testing.T) {
	db := setupTestDB(t)
	categories := NewCategoryRepository(db)
	products := NewProductRepository(db)
	ctx := context.Background()

	cat := mustCreateCategory(t, categories, "Electronics", StatusActive)
	p := &Product{SKU: "ABC-123", Name: "Widget", CategoryID: cat.ID, Price: 1, Stock: 1, Status: StatusActive}
	if err := products.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := products.ExistsBySKUFold(ctx, "abc-123", 0)
	if err != nil {
		t.Fatalf("ExistsBySKUFold() error = %v", err)
	}
	if !got {
		t.Error("ExistsBySKUFold(abc-123) = false, want true")
	}

	got, err = products.ExistsBySKUFold(ctx, "abc-123", p.ID)
	if err != nil {
		t.Fatalf("ExistsBySKUFold() error = %v", err)
	}
	if got {
		t.Error("ExistsBySKUFold(abc-123, exclude self) = true, want false")
	}
}

func TestProductRepository_SaveAll(t *testing.T) {
	db := setupTestDB(t)
	categories := NewCategoryRepository(db)
	products := NewProductRepository(db)
	ctx := context.Background()

	cat := mustCreateCategory(t, categories, "Electronics", StatusActive)
	for _, sku := range []string{"A-1", "A-2", "A-3"} {
		p := &Product{SKU: sku, Name: "Item " + sku, CategoryID: cat.ID, Price: 1, Stock: 1, Status: StatusActive}
		if err := products.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s) error = %v", sku, err)
		}
	}

	all, err := products.FindAllByCategoryID(ctx, cat.ID)
	if err != nil {
		t.Fatalf("FindAllByCategoryID() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 products, got %d", len(all))
	}

	now := time.Now()
	for i := range all {
		all[i].Status = StatusInactive
		all[i].UpdatedAt = &now
	}
	if err := products.SaveAll(ctx, all); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	inactive, err := products.FindByCategoryIDAndStatus(ctx, cat.ID, StatusInactive)
	if err != nil {
		t.Fatalf("FindByCategoryIDAndStatus() error = %v", err)
	}
	if len(inactive) != 3 {
		t.Errorf("expected 3 inactive products, got %d", len(inactive))
	}
}

func TestProductRepository_Search(t *testing.T) {
	db := setupTestDB(t)
	categories := NewCategoryRepository(db)
	products := NewProductRepository(db)
	ctx := context.Background()

	electronics := mustCreateCategory(t, categories, "Electronics", StatusActive)
	books := mustCreateCategory(t, categories, "Books", StatusActive)

	seed := []Product{
		{SKU: "EL-1", Name: "Laptop", CategoryID: electronics.ID, Price: 999, Stock: 3, Status: StatusActive},
		{SKU: "EL-2", Name: "Mouse", CategoryID: electronics.ID, Price: 19, Stock: 50, Status: StatusInactive},
		{SKU: "BK-1", Name: "Go in Practice", CategoryID: books.ID, Price: 35, Stock: 0, Status: StatusActive},
	}
	for i := range seed {
		if err := products.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create(%s) error = %v", seed[i].SKU, err)
		}
	}

	_, total, err := products.Search(ctx, ProductFilter{CategoryID: electronics.ID})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 2 {
		t.Errorf("Search(category) total = %d, want 2", total)
	}

	got, _, err := products.Search(ctx, ProductFilter{SKU: "bk-1"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "Go in Practice" {
		t.Errorf("Search(sku=bk-1) = %v, want Go in Practice", got)
	}

	lowStock := 5
	got, _, err = products.Search(ctx, ProductFilter{StockLt: &lowStock})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Search(stock_lt=5) returned %d products, want 2", len(got))
	}
}
