package domain

// MergeProduct combines a bulk-listing record with a per-item lookup of
// the same product and returns a new value; neither input is mutated.
// The overlay is more likely to reflect live stock, so its Available
// and InventoryQuantity win for every matching variant id, and its
// image wins whenever it carries one. The primary stays authoritative
// for everything else.
func MergeProduct(primary, overlay ProductState) ProductState {
	merged := primary
	merged.Variants = make(map[string]VariantState, len(primary.Variants))

	for id, variant := range primary.Variants {
		if over, ok := overlay.Variants[id]; ok {
			variant.Available = over.Available
			if over.InventoryQuantity != nil {
				quantity := *over.InventoryQuantity
				variant.InventoryQuantity = &quantity
			}
		}
		merged.Variants[id] = variant
	}

	if overlay.Image != nil {
		image := *overlay.Image
		merged.Image = &image
	}

	return merged
}
