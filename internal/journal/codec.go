package journal

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// decode parses a persisted blob into transactions. The blob may have been
// written by other processes sharing the key, so record fields are coerced
// one by one: missing or non-numeric values become zero, missing strings
// become "". Only a top-level shape mismatch is an error.
func decode(raw []byte) ([]core.Transaction, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode journal blob: %w", err)
	}

	txs := make([]core.Transaction, 0, len(records))
	for _, r := range records {
		txs = append(txs, core.Transaction{
			ID:        asString(r["id"]),
			Date:      asString(r["date"]),
			ItemName:  asString(r["itemName"]),
			Category:  asString(r["category"]),
			UnitPrice: asDecimal(r["unitPrice"]),
			Qty:       asInt(r["qty"]),
			Total:     asDecimal(r["total"]),
		})
	}
	return txs, nil
}

// encode serializes the list for storage. A nil list encodes as an empty
// sequence so readers always see a well-formed blob.
func encode(txs []core.Transaction) ([]byte, error) {
	if txs == nil {
		txs = []core.Transaction{}
	}
	return json.Marshal(txs)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case string:
		if d, err := decimal.NewFromString(n); err == nil {
			return d
		}
	}
	return decimal.Zero
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i
		}
	}
	return 0
}
