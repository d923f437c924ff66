package catalog

import "time"

// CategoryInput carries the fields accepted on category create and update.
type CategoryInput struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ProductInput carries the fields accepted on product create and update.
type ProductInput struct {
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	CategoryID uint    `json:"category_id"`
	Price      float64 `json:"price"`
	Stock      int     `json:"stock"`
	Status     string  `json:"status"`
}

// CategoryResponse is the serialized projection returned to clients and
// stored in the cache.
type CategoryResponse struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ProductResponse is the serialized projection returned to clients and
// stored in the cache. CategoryName is denormalized from the joined category.
type ProductResponse struct {
	ID           uint       `json:"id"`
	SKU          string     `json:"sku"`
	Name         string     `json:"name"`
	CategoryID   uint       `json:"category_id"`
	CategoryName string     `json:"category_name"`
	Price        float64    `json:"price"`
	Stock        int        `json:"stock"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// ToResponse projects a category for clients and the cache.
func (c *Category) ToResponse() *CategoryResponse {
	return &CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToResponse projects a product for clients and the cache.
func (p *Product) ToResponse(categoryName string) *ProductResponse {
	return &ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		CategoryID:   p.CategoryID,
		CategoryName: categoryName,
		Price:        p.Price,
		Stock:        p.Stock,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// Page wraps a list result with pagination totals.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
}
