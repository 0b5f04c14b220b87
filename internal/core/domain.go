package core

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Journal blobs and API payloads carry money as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	// FallbackCategory labels transactions whose product carries no category.
	// Consumers group by this exact string, do not change it.
	FallbackCategory = "Uncategorized"

	// DateLayout is the calendar-day format used for transaction dates.
	// Lexicographic order on this layout matches chronological order.
	DateLayout = "2006-01-02"
)

type (
	// Product is an immutable catalog entry. The catalog is supplied at
	// startup and never mutated.
	Product struct {
		ItemName  string          `json:"itemName"`
		UnitPrice decimal.Decimal `json:"unitPrice"`
		Category  string          `json:"category"`
	}

	// Transaction is one recorded sale line item. UnitPrice and Total are
	// snapshots taken at creation time; once stored a transaction is never
	// edited in place, only deleted.
	Transaction struct {
		ID        string          `json:"id"`
		Date      string          `json:"date"`
		ItemName  string          `json:"itemName"`
		Category  string          `json:"category"`
		UnitPrice decimal.Decimal `json:"unitPrice"`
		Qty       int64           `json:"qty"`
		Total     decimal.Decimal `json:"total"`
	}
)

// ValidationError rejects sale input with a machine-readable reason code
// that callers can surface to the user.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid sale: " + e.Reason
}

var (
	ErrNoProduct   = &ValidationError{Reason: "no-product"}
	ErrNoDate      = &ValidationError{Reason: "no-date"}
	ErrBadQuantity = &ValidationError{Reason: "bad-quantity"}
)

// BuildSale validates user input and constructs one Transaction. It is pure
// construction: the caller is responsible for appending the result to the
// journal. The category resolves to the trimmed custom category if non-empty,
// else the product's category, else FallbackCategory.
func BuildSale(product *Product, qty int64, date, customCategory string) (Transaction, error) {
	if product == nil {
		return Transaction{}, ErrNoProduct
	}
	if date == "" {
		return Transaction{}, ErrNoDate
	}
	if qty < 1 {
		return Transaction{}, ErrBadQuantity
	}

	category := strings.TrimSpace(customCategory)
	if category == "" {
		category = product.Category
	}
	if category == "" {
		category = FallbackCategory
	}

	return Transaction{
		ID:        uuid.NewString(),
		Date:      date,
		ItemName:  product.ItemName,
		Category:  category,
		UnitPrice: product.UnitPrice,
		Qty:       qty,
		Total:     product.UnitPrice.Mul(decimal.NewFromInt(qty)),
	}, nil
}
