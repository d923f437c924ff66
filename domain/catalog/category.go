// Package catalog holds the catalog domain model: categories, products,
// their status-cascade rules and the events exchanged between them.
package catalog

import "time"

// Status is the activation state shared by categories and products.
type Status string

const (
	// StatusActive marks an entity as visible and sellable.
	StatusActive Status = "ACTIVE"
	// StatusInactive marks an entity as hidden from the storefront.
	StatusInactive Status = "INACTIVE"
)

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Category represents a product category.
type Category struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	Name      string     `gorm:"size:150;not null;index" json:"name"`
	Status    Status     `gorm:"size:16;not null;default:ACTIVE" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// TableName returns the table name for Category model.
func (Category) TableName() string {
	return "categories"
}
