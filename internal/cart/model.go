package cart

import (
	"strings"
	"time"
)

// Line is one product entry in a cart, joined with the product attributes
// the API exposes.
type Line struct {
	ProductID  int64     `json:"id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	TotalPrice float64   `json:"total_price"`
	UpdatedAt  time.Time `json:"-"`
}

type Cart struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"-"`
	AbandonedAt *time.Time `json:"-"`
	Products    []Line     `json:"products"`
	TotalPrice  float64    `json:"total_price"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

// Abandoned reports whether the cart is currently flagged by the sweeper.
func (c *Cart) Abandoned() bool {
	return c.AbandonedAt != nil
}

// LineRequest is one entry of a bulk add or remove call.
type LineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// BatchError carries the human-readable messages of a failed bulk
// mutation. The batch is rolled back as a whole whenever one is returned.
type BatchError struct {
	Messages []string
}

func (e *BatchError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Result is the contract exposed to controllers: a success flag, the
// resulting record when the call succeeded, and the error messages when
// it did not.
type Result struct {
	Success bool     `json:"success"`
	Record  *Cart    `json:"record,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}
