package journal

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestDecodeCoercesLooseRecords(t *testing.T) {
	blob := []byte(`[
		{"id":"1","date":"2024-01-10","itemName":"Coffee","category":"Drinks","unitPrice":2.5,"qty":3,"total":7.5},
		{"id":"2","date":"2024-01-11","itemName":"Tea","unitPrice":"2","qty":"4","total":"8"},
		{"id":"3","itemName":"Cake","total":"not-a-number"},
		{}
	]`)

	txs, err := decode(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(txs) != 4 {
		t.Fatalf("expected 4 records, got %d", len(txs))
	}

	if txs[0].Qty != 3 || !txs[0].Total.Equal(mustDecimal(t, "7.5")) {
		t.Fatalf("numeric fields: %+v", txs[0])
	}
	// Quoted numerics are accepted.
	if txs[1].Qty != 4 || !txs[1].Total.Equal(mustDecimal(t, "8")) {
		t.Fatalf("quoted numerics: %+v", txs[1])
	}
	// Non-numeric totals coerce to zero rather than failing the whole load.
	if !txs[2].Total.IsZero() || txs[2].Qty != 0 {
		t.Fatalf("bad numerics should coerce to zero: %+v", txs[2])
	}
	// Fully empty records decode to zero values.
	if txs[3].ID != "" || txs[3].Date != "" || !txs[3].Total.IsZero() {
		t.Fatalf("empty record: %+v", txs[3])
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	txs, err := decode(nil)
	if err != nil || txs != nil {
		t.Fatalf("decode(nil) = %v, %v", txs, err)
	}
	txs, err = decode([]byte(`[]`))
	if err != nil || len(txs) != 0 {
		t.Fatalf("decode([]) = %v, %v", txs, err)
	}
}

func TestDecodeRejectsNonSequence(t *testing.T) {
	for _, blob := range []string{`{"a":1}`, `"text"`, `]broken`} {
		if _, err := decode([]byte(blob)); err == nil {
			t.Fatalf("expected error for %q", blob)
		}
	}
}

func TestEncodeNilListIsEmptySequence(t *testing.T) {
	raw, err := encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(raw) != `[]` {
		t.Fatalf("encode(nil) = %q, want []", raw)
	}
}
