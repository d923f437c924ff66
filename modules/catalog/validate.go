package catalog

import (
	"math"
	"strings"

	domain "github.com/example/catalog-admin/domain/catalog"
)

// maxPrice mirrors the store column DECIMAL(18,2): at most 16 integer digits.
const maxPrice = 1e16

func validateStatus(status string) (domain.Status, error) {
	if strings.TrimSpace(status) == "" {
		return "", domain.Validationf("status must not be empty")
	}
	s := domain.Status(status)
	if !s.Valid() {
		return "", domain.Validationf("status must be ACTIVE or INACTIVE")
	}
	return s, nil
}

// validateName trims and bounds-checks a name-like field.
func validateName(value, label string, min, max int) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", domain.Validationf("%s must not be empty", label)
	}
	if len(trimmed) < min {
		return "", domain.Validationf("%s must be at least %d characters", label, min)
	}
	if len(trimmed) > max {
		return "", domain.Validationf("%s must not exceed %d characters", label, max)
	}
	return trimmed, nil
}

func validatePrice(price float64) error {
	if price < 0 {
		return domain.Validationf("price must be >= 0")
	}
	if price >= maxPrice {
		return domain.Validationf("price must not exceed 9,999,999,999,999,999.99")
	}
	// At most two fraction digits.
	if cents := price * 100; math.Abs(cents-math.Round(cents)) > 1e-6 {
		return domain.Validationf("price must have at most 2 decimal places")
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return domain.Validationf("stock must be >= 0")
	}
	return nil
}
