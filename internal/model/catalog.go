package model

import "github.com/google/uuid"

// PriceListItem is a priced unit of work or material.
type PriceListItem struct {
	ID        string  `json:"id"`
	Category  string  `json:"category"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	UnitPrice float64 `json:"unitPrice"`
	Custom    bool    `json:"custom,omitempty"`
}

// NewCustomPriceListItem creates a company-specific catalog entry with a generated ID.
func NewCustomPriceListItem(category, name, unit string, unitPrice float64) PriceListItem {
	return PriceListItem{
		ID:        "custom-" + uuid.New().String()[:8],
		Category:  category,
		Name:      name,
		Unit:      unit,
		UnitPrice: unitPrice,
		Custom:    true,
	}
}

// Catalog is a read-only snapshot of the base price list plus company custom entries.
type Catalog struct {
	Items  []PriceListItem `json:"items"`
	Custom []PriceListItem `json:"custom"`
}

// NewCatalog builds a catalog from a category → items mapping, visiting
// categories in the given order. Categories not listed in order are skipped.
func NewCatalog(order []string, byCategory map[string][]PriceListItem) Catalog {
	var c Catalog
	for _, cat := range order {
		for _, it := range byCategory[cat] {
			if it.Category == "" {
				it.Category = cat
			}
			c.Items = append(c.Items, it)
		}
	}
	return c
}

// All returns base items followed by custom items, in lookup order.
func (c Catalog) All() []PriceListItem {
	all := make([]PriceListItem, 0, len(c.Items)+len(c.Custom))
	all = append(all, c.Items...)
	all = append(all, c.Custom...)
	return all
}

// FindByID returns a pointer to the entry with the given ID, or nil.
// The base list is searched before the custom list.
func (c *Catalog) FindByID(id string) *PriceListItem {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	for i := range c.Custom {
		if c.Custom[i].ID == id {
			return &c.Custom[i]
		}
	}
	return nil
}

// Categories returns the distinct category names in first-seen order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, it := range c.All() {
		if !seen[it.Category] {
			seen[it.Category] = true
			cats = append(cats, it.Category)
		}
	}
	return cats
}

// InCategory returns base and custom items of one category.
func (c *Catalog) InCategory(category string) []PriceListItem {
	var items []PriceListItem
	for _, it := range c.All() {
		if it.Category == category {
			items = append(items, it)
		}
	}
	return items
}

// ByCategory groups the catalog the way the document-analysis service expects it.
func (c *Catalog) ByCategory() map[string][]PriceListItem {
	m := make(map[string][]PriceListItem)
	for _, it := range c.All() {
		m[it.Category] = append(m[it.Category], it)
	}
	return m
}

// AddCustom appends a custom entry. Entries whose ID already exists are ignored.
func (c *Catalog) AddCustom(item PriceListItem) bool {
	if c.FindByID(item.ID) != nil {
		return false
	}
	item.Custom = true
	c.Custom = append(c.Custom, item)
	return true
}

// DefaultCatalog returns the bundled starter price list.
func DefaultCatalog() Catalog {
	return Catalog{
		Items: []PriceListItem{
			{ID: "fr-001", Category: "Framing", Name: "2x4x8 Stud", Unit: "EA", UnitPrice: 4.25},
			{ID: "fr-002", Category: "Framing", Name: "2x6x10 Lumber", Unit: "EA", UnitPrice: 9.80},
			{ID: "fr-003", Category: "Framing", Name: "Wall Framing Labor", Unit: "LF", UnitPrice: 12.50},
			{ID: "dw-001", Category: "Drywall", Name: "1/2\" Drywall Installed", Unit: "SF", UnitPrice: 2.10},
			{ID: "dw-002", Category: "Drywall", Name: "Drywall Tape and Finish", Unit: "SF", UnitPrice: 1.15},
			{ID: "fl-001", Category: "Flooring", Name: "Luxury Vinyl Plank", Unit: "SF", UnitPrice: 6.75},
			{ID: "fl-002", Category: "Flooring", Name: "Ceramic Tile", Unit: "SF", UnitPrice: 9.50},
			{ID: "fl-003", Category: "Flooring", Name: "Baseboard", Unit: "LF", UnitPrice: 4.40},
			{ID: "el-001", Category: "Electrical", Name: "Duplex Outlet", Unit: "EA", UnitPrice: 25.00},
			{ID: "el-002", Category: "Electrical", Name: "Recessed Light", Unit: "EA", UnitPrice: 145.00},
			{ID: "el-003", Category: "Electrical", Name: "Light Switch", Unit: "EA", UnitPrice: 22.00},
			{ID: "pl-001", Category: "Plumbing", Name: "Toilet Install", Unit: "EA", UnitPrice: 350.00},
			{ID: "pl-002", Category: "Plumbing", Name: "PEX Supply Line", Unit: "LF", UnitPrice: 3.25},
			{ID: "pt-001", Category: "Painting", Name: "Interior Wall Paint", Unit: "SF", UnitPrice: 1.85},
			{ID: "rf-001", Category: "Roofing", Name: "Asphalt Shingles", Unit: "SF", UnitPrice: 4.60},
		},
		Custom: []PriceListItem{},
	}
}
