package storefront

import (
	"net/url"
	"strconv"

	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/domain"
)

// InBrand reports whether a raw record belongs to the tracked brand,
// checking the vendor, the title, and every tag.
func InBrand(rec Record, matcher domain.BrandMatcher) bool {
	return matcher.Matches(rec.str("title"), rec.str("vendor"), rec.tags())
}

// NormalizeListing converts one bulk-listing record into canonical
// product state. Records without a handle or without any variant are
// rejected.
func NormalizeListing(rec Record, base *url.URL) (domain.ProductState, bool) {
	handle := rec.str("handle")
	if handle == "" {
		return domain.ProductState{}, false
	}

	var image *string
	if images := rec.list("images"); len(images) > 0 {
		if first, ok := images[0].(map[string]any); ok {
			image = Record(first).strPtr("src")
		}
	}

	return buildProduct(rec, handle, productURL(base, handle), image)
}

// NormalizeLookup converts one per-item lookup record. The lookup's
// image list holds plain URL strings and its own url field may be
// relative to the storefront root.
func NormalizeLookup(rec Record, base *url.URL) (domain.ProductState, bool) {
	handle := rec.str("handle")
	if handle == "" {
		return domain.ProductState{}, false
	}

	pageURL := productURL(base, handle)
	if raw := rec.str("url"); raw != "" {
		if ref, err := url.Parse(raw); err == nil {
			pageURL = base.ResolveReference(ref).String()
		}
	}

	var image *string
	if images := rec.list("images"); len(images) > 0 {
		if src, ok := images[0].(string); ok && src != "" {
			image = &src
		}
	}

	return buildProduct(rec, handle, pageURL, image)
}

func buildProduct(rec Record, handle, pageURL string, image *string) (domain.ProductState, bool) {
	variants := normalizeVariants(rec.list("variants"))
	if len(variants) == 0 {
		// A product with no purchasable unit cannot be diffed.
		return domain.ProductState{}, false
	}

	return domain.ProductState{
		Handle:   handle,
		Title:    rec.str("title"),
		Vendor:   rec.strPtr("vendor"),
		URL:      pageURL,
		Image:    image,
		Variants: variants,
	}, true
}

func normalizeVariants(items []any) map[string]domain.VariantState {
	variants := make(map[string]domain.VariantState, len(items))
	for _, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			continue
		}
		variant, ok := normalizeVariant(Record(raw))
		if !ok {
			continue
		}
		variants[strconv.FormatInt(variant.ID, 10)] = variant
	}
	return variants
}

func normalizeVariant(rec Record) (domain.VariantState, bool) {
	id := parseQuantity(rec["id"])
	if id == nil || *id <= 0 {
		return domain.VariantState{}, false
	}

	variant := domain.VariantState{
		ID:                int64(*id),
		Title:             rec.str("title"),
		Option1:           rec.strPtr("option1"),
		Option2:           rec.strPtr("option2"),
		Option3:           rec.strPtr("option3"),
		SKU:               rec.strPtr("sku"),
		Price:             parseMoney(rec["price"]),
		InventoryQuantity: parseQuantity(rec["inventory_quantity"]),
	}
	if available, ok := rec["available"].(bool); ok {
		variant.Available = available
	}
	if raw, ok := rec["compare_at_price"]; ok && raw != nil && raw != "" {
		if compare := parseMoney(raw); compare != 0 {
			variant.CompareAtPrice = &compare
		}
	}
	return variant, true
}

func productURL(base *url.URL, handle string) string {
	return base.JoinPath("products", handle).String()
}
