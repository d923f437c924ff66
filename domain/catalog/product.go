package catalog

import "time"

// Product represents a catalog product. CategoryID is a foreign lookup,
// not an ownership relation: many products may reference one category and
// a category cannot be deleted while any product still references it.
type Product struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	SKU        string     `gorm:"size:100;not null;index" json:"sku"`
	Name       string     `gorm:"size:200;not null" json:"name"`
	CategoryID uint       `gorm:"not null;index" json:"category_id"`
	Price      float64    `gorm:"not null" json:"price"`
	Stock      int        `gorm:"not null;default:0" json:"stock"`
	Status     Status     `gorm:"size:16;not null;default:ACTIVE" json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// TableName returns the table name for Product model.
func (Product) TableName() string {
	return "products"
}
