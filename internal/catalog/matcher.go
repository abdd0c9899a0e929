// Package catalog resolves price list entries for takeoff measurements and
// AI-suggested items.
package catalog

import (
	"fmt"
	"math"
	"strings"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

// DefaultUnit is used for fallback entries when the suggestion has no unit.
const DefaultUnit = "EA"

// Suggestion is an item name proposed by the document-analysis service.
type Suggestion struct {
	Name      string
	Unit      string
	UnitPrice *float64
	Category  string
}

// Match is the outcome of a fuzzy lookup.
type Match struct {
	Item     model.PriceListItem
	Fallback bool // true when Item was synthesized from the suggestion
}

// Matcher looks items up in an immutable catalog snapshot.
type Matcher struct {
	catalog model.Catalog
}

// NewMatcher snapshots the catalog. Later changes to the caller's catalog are not seen.
func NewMatcher(c model.Catalog) *Matcher {
	snap := model.Catalog{
		Items:  append([]model.PriceListItem(nil), c.Items...),
		Custom: append([]model.PriceListItem(nil), c.Custom...),
	}
	return &Matcher{catalog: snap}
}

// Catalog returns the snapshot the matcher searches.
func (m *Matcher) Catalog() model.Catalog {
	return m.catalog
}

// ByID returns the entry with the given identifier from the base or custom list.
func (m *Matcher) ByID(id string) (model.PriceListItem, error) {
	if it := m.catalog.FindByID(id); it != nil {
		return *it, nil
	}
	return model.PriceListItem{}, fmt.Errorf("%w: %q", model.ErrCatalogItemNotFound, id)
}

// ByName finds the first entry whose name contains the suggestion's name, or
// whose name is contained in it, ignoring case. Entries are tried in catalog
// order (base, then custom) and the first hit wins without any ranking.
// When nothing matches a custom entry is built from the suggestion itself.
func (m *Matcher) ByName(s Suggestion) Match {
	query := normalize(s.Name)
	if query != "" {
		for _, it := range m.catalog.All() {
			name := normalize(it.Name)
			if name == "" {
				continue
			}
			if strings.Contains(name, query) || strings.Contains(query, name) {
				return Match{Item: it}
			}
		}
	}
	return Match{Item: Fallback(s), Fallback: true}
}

// Fallback synthesizes the custom entry used for an unmatched suggestion.
func Fallback(s Suggestion) model.PriceListItem {
	unit := strings.TrimSpace(s.Unit)
	if unit == "" {
		unit = DefaultUnit
	}
	price := 0.0
	if s.UnitPrice != nil && !math.IsNaN(*s.UnitPrice) && *s.UnitPrice >= 0 {
		price = *s.UnitPrice
	}
	return model.PriceListItem{
		ID:        model.CustomItemID,
		Category:  s.Category,
		Name:      strings.TrimSpace(s.Name),
		Unit:      unit,
		UnitPrice: price,
		Custom:    true,
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
