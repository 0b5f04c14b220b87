// Package catalog holds the product list sales are rung up against. The
// list ships embedded in the binary and can be overridden with a JSON file
// at startup.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"tally/internal/core"
)

//go:embed products.json
var seed []byte

// Catalog is a read-only product lookup.
type Catalog struct {
	products []core.Product
	byName   map[string]core.Product
}

// Load builds a catalog from the JSON file at path, or from the embedded
// seed when path is empty.
func Load(path string) (*Catalog, error) {
	raw := seed
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog file: %w", err)
		}
	}

	var products []core.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	byName := make(map[string]core.Product, len(products))
	for _, p := range products {
		if p.ItemName == "" {
			return nil, fmt.Errorf("catalog entry with empty itemName")
		}
		byName[p.ItemName] = p
	}
	return &Catalog{products: products, byName: byName}, nil
}

// Lookup returns the product with the given name, if present.
func (c *Catalog) Lookup(itemName string) (core.Product, bool) {
	p, ok := c.byName[itemName]
	return p, ok
}

// Products returns a copy of the full product list.
func (c *Catalog) Products() []core.Product {
	out := make([]core.Product, len(c.products))
	copy(out, c.products)
	return out
}
