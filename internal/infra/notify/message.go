// Package notify shapes change events into alert messages and delivers
// them over a webhook.
package notify

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/domain"
)

const (
	unknownToken  = "Unknown"
	noSizeToken   = "N/A"
	thumbnailLine = "(thumbnail attached)"
)

// sizeOrder is the canonical size ordering for aggregated stock lines;
// unrecognized tokens sort after all of these, alphabetically.
var sizeOrder = []string{"XXXS", "XXS", "XS", "S", "M", "L", "XL", "XXL", "XXXL"}

// Formatter renders one fixed multi-line message per event kind.
type Formatter struct {
	// Region is the locale marker appended to every header, e.g.
	// "🇨🇦 Canada Store".
	Region string
	// CurrencyPrefix precedes every rendered amount, e.g. "CA$".
	CurrencyPrefix string
}

// Format renders the message for one change event. New variants use
// the new-listing shape: a fresh size appearing is as urgent as a
// fresh product. Inventory increases reuse the restock shape.
func (f Formatter) Format(ev domain.ChangeEvent) string {
	switch ev.Kind {
	case domain.EventProductCreated, domain.EventVariantCreated:
		return f.newListing(ev.Product)
	case domain.EventPriceChanged:
		return f.priceChange(ev.Product, ev.Previous, ev.Variant)
	case domain.EventRestocked, domain.EventInventoryIncreased:
		return f.restock(ev.Product, ev.Variant)
	default:
		return ""
	}
}

func (f Formatter) newListing(p domain.ProductState) string {
	rep, _ := p.RepresentativeVariant()
	return f.message("🔔 New Arrival", p.Title, rep,
		fmt.Sprintf("• Price: %s", f.price(rep.Price)),
		f.aggregateStock(p),
	)
}

func (f Formatter) restock(p domain.ProductState, v *domain.VariantState) string {
	return f.message("🔔 Restock", p.Title, *v,
		fmt.Sprintf("• Price: %s", f.price(v.Price)),
		f.singleStock(*v),
	)
}

func (f Formatter) priceChange(p domain.ProductState, old, cur *domain.VariantState) string {
	return f.message("🔔 Price Change", p.Title, *cur,
		fmt.Sprintf("• Price: %s → %s", f.exactPrice(old.Price), f.exactPrice(cur.Price)),
		f.singleStock(*cur),
	)
}

func (f Formatter) message(header, title string, v domain.VariantState, priceLine, stockLine string) string {
	lines := []string{
		strings.TrimSpace(header + " " + f.Region),
		"• Name: " + title,
		"• SKU: " + orUnknown(v.SKU),
		"• Color: " + orUnknown(v.Option1),
		priceLine,
		stockLine,
		"",
		thumbnailLine,
	}
	return strings.Join(lines, "\n")
}

// price renders integral amounts without decimals and fractional
// amounts with exactly two.
func (f Formatter) price(amount float64) string {
	if amount == math.Trunc(amount) {
		return fmt.Sprintf("%s %.0f", f.CurrencyPrefix, amount)
	}
	return f.exactPrice(amount)
}

// exactPrice always renders two decimals; price-change lines use it on
// both sides regardless of integrality.
func (f Formatter) exactPrice(amount float64) string {
	return fmt.Sprintf("%s %.2f", f.CurrencyPrefix, amount)
}

// aggregateStock sums quantities across all variants grouped by size.
// A variant without a numeric count contributes 1 when available and 0
// otherwise; negative sums clamp to 0.
func (f Formatter) aggregateStock(p domain.ProductState) string {
	counts := map[string]int{}
	for _, id := range p.SortedVariantIDs() {
		v := p.Variants[id]
		qty := displayQuantity(v)
		if qty < 0 {
			qty = 0
		}
		counts[sizeToken(v)] += qty
	}
	if len(counts) == 0 {
		return "🧾 Stock: " + noSizeToken
	}

	sizes := make([]string, 0, len(counts))
	for size := range counts {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool {
		ri, rj := sizeRank(sizes[i]), sizeRank(sizes[j])
		if ri != rj {
			return ri < rj
		}
		return sizes[i] < sizes[j]
	})

	parts := make([]string, 0, len(sizes))
	for _, size := range sizes {
		parts = append(parts, fmt.Sprintf("%s:%d", size, counts[size]))
	}
	return "🧾 Stock: " + strings.Join(parts, " | ")
}

// singleStock labels the line with the size option alone; a size-less
// variant shows the placeholder, never its color. Only the aggregate
// line falls through to option1.
func (f Formatter) singleStock(v domain.VariantState) string {
	qty := displayQuantity(v)
	if qty < 0 {
		qty = 0
	}
	size := noSizeToken
	if v.Option2 != nil && *v.Option2 != "" {
		size = *v.Option2
	}
	return fmt.Sprintf("🧾 Stock: %s:%d", size, qty)
}

func sizeToken(v domain.VariantState) string {
	if v.Option2 != nil && *v.Option2 != "" {
		return *v.Option2
	}
	if v.Option1 != nil && *v.Option1 != "" {
		return *v.Option1
	}
	return noSizeToken
}

func displayQuantity(v domain.VariantState) int {
	if v.InventoryQuantity != nil {
		return *v.InventoryQuantity
	}
	if v.Available {
		return 1
	}
	return 0
}

func sizeRank(token string) int {
	for i, size := range sizeOrder {
		if size == token {
			return i
		}
	}
	return len(sizeOrder)
}

func orUnknown(s *string) string {
	if s == nil || *s == "" {
		return unknownToken
	}
	return *s
}
