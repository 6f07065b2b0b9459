package product

import (
	"strings"
	"time"
)

type Product struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	UnitPrice   float64    `json:"unit_price"`
	DiscardedAt *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate returns the field-level messages for an invalid product,
// or nil when the product can be persisted.
func (p *Product) Validate() []string {
	var errs []string
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, "Name can't be blank")
	}
	if strings.TrimSpace(p.Description) == "" {
		errs = append(errs, "Description can't be blank")
	}
	if p.UnitPrice < 0 {
		errs = append(errs, "Unit price must be greater than or equal to 0")
	}
	return errs
}
