package domain

import (
	"sort"
	"strconv"
)

// VariantState is one purchasable SKU of a product. The id is stable
// across runs for the same physical SKU; a reassigned id is treated as
// a newly created variant.
type VariantState struct {
	ID                int64    `json:"id"`
	Title             string   `json:"title"`
	Option1           *string  `json:"option1"`
	Option2           *string  `json:"option2"`
	Option3           *string  `json:"option3"`
	SKU               *string  `json:"sku"`
	Price             float64  `json:"price"`
	CompareAtPrice    *float64 `json:"compare_at_price"`
	Available         bool     `json:"available"`
	InventoryQuantity *int     `json:"inventory_quantity"`
}

// ProductState is one listing. Handle is the product's identity across
// runs; variants are keyed by the string form of the variant id.
type ProductState struct {
	Handle   string                  `json:"handle"`
	Title    string                  `json:"title"`
	Vendor   *string                 `json:"vendor"`
	URL      string                  `json:"url"`
	Image    *string                 `json:"image"`
	Variants map[string]VariantState `json:"variants"`
}

// Catalog maps product handles to their observed state for one run.
type Catalog map[string]ProductState

// SortedVariantIDs returns the product's variant ids in a stable order:
// numeric ids ascending, non-numeric ids after them lexicographically.
func (p ProductState) SortedVariantIDs() []string {
	ids := make([]string, 0, len(p.Variants))
	for id := range p.Variants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return lessVariantID(ids[i], ids[j])
	})
	return ids
}

// RepresentativeVariant returns the variant used for new-listing
// messages: the one with the lowest id.
func (p ProductState) RepresentativeVariant() (VariantState, bool) {
	ids := p.SortedVariantIDs()
	if len(ids) == 0 {
		return VariantState{}, false
	}
	return p.Variants[ids[0]], true
}

func lessVariantID(a, b string) bool {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	if errA == nil {
		return true
	}
	if errB == nil {
		return false
	}
	return a < b
}

// SortedHandles returns the catalog's handles in ascending order.
func (c Catalog) SortedHandles() []string {
	handles := make([]string, 0, len(c))
	for handle := range c {
		handles = append(handles, handle)
	}
	sort.Strings(handles)
	return handles
}
