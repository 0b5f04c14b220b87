package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBuildSale(t *testing.T) {
	coffee := Product{ItemName: "Coffee", UnitPrice: dec("2.5"), Category: "Drinks"}

	tx, err := BuildSale(&coffee, 3, "2024-01-10", "")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if tx.ItemName != "Coffee" || tx.Category != "Drinks" || tx.Qty != 3 {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if !tx.UnitPrice.Equal(dec("2.5")) {
		t.Fatalf("unit price = %s, want 2.5", tx.UnitPrice)
	}
	if !tx.Total.Equal(dec("7.5")) {
		t.Fatalf("total = %s, want 7.5", tx.Total)
	}
	if tx.ID == "" {
		t.Fatal("expected a non-empty id")
	}
	if tx.Date != "2024-01-10" {
		t.Fatalf("date = %q", tx.Date)
	}
}

func TestBuildSaleValidation(t *testing.T) {
	coffee := Product{ItemName: "Coffee", UnitPrice: dec("2.5"), Category: "Drinks"}

	cases := []struct {
		name    string
		product *Product
		qty     int64
		date    string
		want    *ValidationError
	}{
		{"missing product", nil, 1, "2024-01-10", ErrNoProduct},
		{"missing date", &coffee, 1, "", ErrNoDate},
		{"zero quantity", &coffee, 0, "2024-01-10", ErrBadQuantity},
		{"negative quantity", &coffee, -2, "2024-01-10", ErrBadQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildSale(tc.product, tc.qty, tc.date, "")
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Reason != tc.want.Reason {
				t.Fatalf("reason = %q, want %q", verr.Reason, tc.want.Reason)
			}
		})
	}
}

func TestBuildSaleCategoryResolution(t *testing.T) {
	cases := []struct {
		name    string
		product Product
		custom  string
		want    string
	}{
		{"product category by default", Product{ItemName: "Tea", UnitPrice: dec("2"), Category: "Drinks"}, "", "Drinks"},
		{"custom category wins", Product{ItemName: "Tea", UnitPrice: dec("2"), Category: "Drinks"}, "Seasonal", "Seasonal"},
		{"custom category is trimmed", Product{ItemName: "Tea", UnitPrice: dec("2"), Category: "Drinks"}, "  Gifts  ", "Gifts"},
		{"whitespace custom falls back to product", Product{ItemName: "Tea", UnitPrice: dec("2"), Category: "Drinks"}, "  ", "Drinks"},
		{"no category at all", Product{ItemName: "Mystery", UnitPrice: dec("1")}, "", FallbackCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx, err := BuildSale(&tc.product, 1, "2024-01-10", tc.custom)
			if err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if tx.Category != tc.want {
				t.Fatalf("category = %q, want %q", tx.Category, tc.want)
			}
		})
	}
}

func TestBuildSaleIDsAreUnique(t *testing.T) {
	p := Product{ItemName: "Coffee", UnitPrice: dec("2.5"), Category: "Drinks"}
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tx, err := BuildSale(&p, 1, "2024-01-10", "")
		if err != nil {
			t.Fatalf("expected ok, got %v", err)
		}
		if seen[tx.ID] {
			t.Fatalf("duplicate id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
}
