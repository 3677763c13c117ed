// Package catalog serves the static product catalog.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

var ErrProductNotFound = errors.New("catalog: product not found")

type Product struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Category    string  `yaml:"category" json:"category"`
	Description string  `yaml:"description" json:"description"`
	ImageURL    string  `yaml:"image_url" json:"image_url"`
	Price       float64 `yaml:"price" json:"price"`
	Marketplace string  `yaml:"marketplace" json:"marketplace,omitempty"`
}

// Catalog is an immutable, in-memory product list.
type Catalog struct {
	products []Product
	byID     map[string]Product
}

type file struct {
	Products []Product `yaml:"products"`
}

// Default parses the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Load reads a catalog from path, or returns the embedded one when path is
// empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}

	c := &Catalog{byID: make(map[string]Product, len(f.Products))}
	for _, p := range f.Products {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("catalog: product %q is missing id or name", p.ID)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("catalog: product %q has a negative price", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %q", p.ID)
		}
		p.Category = strings.ToLower(p.Category)
		c.byID[p.ID] = p
		c.products = append(c.products, p)
	}
	return c, nil
}

// List returns the products in a category, or all products when category is
// empty, in catalog order.
func (c *Catalog) List(category string) []Product {
	category = strings.ToLower(strings.TrimSpace(category))
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) Get(id string) (Product, error) {
	p, ok := c.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %q", ErrProductNotFound, id)
	}
	return p, nil
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}
