// Package report derives dashboard views from a transaction list. Every
// function is pure: it takes the full list (plus a reference time where
// periods are involved) and returns a fresh value, so views can be recomputed
// on every query.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// UnknownItem labels groups whose source transactions are missing the
// grouping key. Consumers bind to this exact string.
const UnknownItem = "Unknown"

// DefaultTopItems is the ranking size used when the caller does not ask for
// a specific one.
const DefaultTopItems = 5

// Period names a time window for summary totals.
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

type (
	// ItemQuantity is one row of the top-sellers ranking.
	ItemQuantity struct {
		ItemName string `json:"itemName"`
		Qty      int64  `json:"qty"`
	}

	// ProductRollup aggregates quantity and revenue for one product.
	ProductRollup struct {
		ItemName string          `json:"itemName"`
		Qty      int64           `json:"qty"`
		Revenue  decimal.Decimal `json:"revenue"`
	}

	// DatePoint is one point of the sales-over-time series.
	DatePoint struct {
		Date  string          `json:"date"`
		Total decimal.Decimal `json:"total"`
	}

	// CategoryRollup aggregates revenue for one category.
	CategoryRollup struct {
		Category string          `json:"category"`
		Total    decimal.Decimal `json:"total"`
	}
)

// TotalSales sums the stored totals of all transactions.
func TotalSales(list []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range list {
		total = total.Add(t.Total)
	}
	return total
}

// PeriodSummary sums the totals of transactions whose date falls in the
// window implied by period, relative to now. An unrecognized period or an
// unparseable date matches nothing.
func PeriodSummary(list []core.Transaction, period Period, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, t := range list {
		if inPeriod(t.Date, period, now) {
			total = total.Add(t.Total)
		}
	}
	return total
}

func inPeriod(date string, period Period, now time.Time) bool {
	switch period {
	case Daily:
		// Same calendar day by string equality, not a rolling 24h window.
		return date == now.Format(core.DateLayout)
	case Weekly:
		d, err := time.Parse(core.DateLayout, date)
		if err != nil {
			return false
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		days := int(today.Sub(d).Hours() / 24)
		return days >= 0 && days <= 7
	case Monthly:
		d, err := time.Parse(core.DateLayout, date)
		if err != nil {
			return false
		}
		return d.Month() == now.Month() && d.Year() == now.Year()
	default:
		return false
	}
}

// TopItemsByQuantity ranks products by total quantity sold, descending, and
// returns the first n rows. Ties keep first-encounter order.
func TopItemsByQuantity(list []core.Transaction, n int) []ItemQuantity {
	if n <= 0 {
		n = DefaultTopItems
	}

	sums := make(map[string]int64)
	var order []string
	for _, t := range list {
		name := t.ItemName
		if name == "" {
			name = UnknownItem
		}
		if _, seen := sums[name]; !seen {
			order = append(order, name)
		}
		sums[name] += t.Qty
	}

	out := make([]ItemQuantity, 0, len(order))
	for _, name := range order {
		out = append(out, ItemQuantity{ItemName: name, Qty: sums[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Qty > out[j].Qty })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// RollupByProduct aggregates quantity and revenue per product, descending by
// revenue.
func RollupByProduct(list []core.Transaction) []ProductRollup {
	groups := make(map[string]*ProductRollup)
	var order []string
	for _, t := range list {
		name := t.ItemName
		if name == "" {
			name = UnknownItem
		}
		g, ok := groups[name]
		if !ok {
			g = &ProductRollup{ItemName: name, Revenue: decimal.Zero}
			groups[name] = g
			order = append(order, name)
		}
		g.Qty += t.Qty
		g.Revenue = g.Revenue.Add(t.Total)
	}

	out := make([]ProductRollup, 0, len(order))
	for _, name := range order {
		out = append(out, *groups[name])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue.GreaterThan(out[j].Revenue) })
	return out
}

// SeriesOverTime sums totals per date, ascending by date. Transactions with
// no date are excluded from the series.
func SeriesOverTime(list []core.Transaction) []DatePoint {
	totals := make(map[string]decimal.Decimal)
	for _, t := range list {
		date := t.Date
		if date == "" {
			date = UnknownItem
		}
		totals[date] = totals[date].Add(t.Total)
	}
	delete(totals, UnknownItem)

	out := make([]DatePoint, 0, len(totals))
	for date, total := range totals {
		out = append(out, DatePoint{Date: date, Total: total})
	}
	// Lexicographic order is chronological for YYYY-MM-DD.
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// RollupByCategory sums totals per category, descending.
func RollupByCategory(list []core.Transaction) []CategoryRollup {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, t := range list {
		cat := t.Category
		if cat == "" {
			cat = core.FallbackCategory
		}
		if _, seen := totals[cat]; !seen {
			order = append(order, cat)
		}
		totals[cat] = totals[cat].Add(t.Total)
	}

	out := make([]CategoryRollup, 0, len(order))
	for _, cat := range order {
		out = append(out, CategoryRollup{Category: cat, Total: totals[cat]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	return out
}
