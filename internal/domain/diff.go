package domain

import "math"

// PriceEpsilon is the tolerance for price comparison. Prices pass
// through floating point during normalization, so exact equality would
// false-positive on rounding noise.
const PriceEpsilon = 1e-6

// DiffCatalogs compares two immutable catalog snapshots and returns the
// changes in emission order: every EventProductCreated first, then for
// each product present in both snapshots its EventVariantCreated
// events, then the per-variant change events. Products and variants
// are scanned in sorted order so output is deterministic.
//
// Products and variants absent from current are never reported; the
// new snapshot is built from scratch each run, so removals simply
// disappear.
func DiffCatalogs(previous, current Catalog) []ChangeEvent {
	var events []ChangeEvent

	handles := current.SortedHandles()

	for _, handle := range handles {
		if _, ok := previous[handle]; ok {
			continue
		}
		events = append(events, ChangeEvent{
			Kind:    EventProductCreated,
			Product: current[handle],
		})
	}

	for _, handle := range handles {
		prevProduct, ok := previous[handle]
		if !ok {
			continue
		}
		product := current[handle]

		for _, id := range product.SortedVariantIDs() {
			if _, ok := prevProduct.Variants[id]; ok {
				continue
			}
			variant := product.Variants[id]
			events = append(events, ChangeEvent{
				Kind:    EventVariantCreated,
				Product: product,
				Variant: &variant,
			})
		}

		for _, id := range product.SortedVariantIDs() {
			prevVariant, ok := prevProduct.Variants[id]
			if !ok {
				continue
			}
			variant := product.Variants[id]
			events = append(events, diffVariant(product, prevVariant, variant)...)
		}
	}

	return events
}

func diffVariant(product ProductState, prev, cur VariantState) []ChangeEvent {
	var events []ChangeEvent

	if math.Abs(cur.Price-prev.Price) > PriceEpsilon {
		events = append(events, ChangeEvent{
			Kind:     EventPriceChanged,
			Product:  product,
			Variant:  &cur,
			Previous: &prev,
		})
	}

	// Only the positive transition is notification-worthy; going out
	// of stock is silent.
	if !prev.Available && cur.Available {
		events = append(events, ChangeEvent{
			Kind:     EventRestocked,
			Product:  product,
			Variant:  &cur,
			Previous: &prev,
		})
	}

	// A null count is unknown, not zero; compare only when both sides
	// report one.
	if prev.InventoryQuantity != nil && cur.InventoryQuantity != nil &&
		*cur.InventoryQuantity > *prev.InventoryQuantity {
		events = append(events, ChangeEvent{
			Kind:     EventInventoryIncreased,
			Product:  product,
			Variant:  &cur,
			Previous: &prev,
		})
	}

	return events
}
