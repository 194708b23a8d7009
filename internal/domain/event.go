package domain

// EventKind identifies one class of tracked catalog change.
type EventKind string

const (
	// EventProductCreated fires for a handle absent from the previous
	// catalog.
	EventProductCreated EventKind = "product_created"
	// EventVariantCreated fires for a new variant id on an existing
	// product. It is reported with the new-listing message shape.
	EventVariantCreated EventKind = "variant_created"
	// EventPriceChanged fires when a surviving variant's price moved by
	// more than the comparison epsilon.
	EventPriceChanged EventKind = "price_changed"
	// EventRestocked fires on an availability transition from false to
	// true. The reverse transition is not an event.
	EventRestocked EventKind = "restocked"
	// EventInventoryIncreased fires when both snapshots expose a count
	// and the new one is strictly greater.
	EventInventoryIncreased EventKind = "inventory_increased"
)

// ChangeEvent is one notification-worthy change detected between two
// catalog snapshots. Product always carries the full current product
// state. Variant is set for every kind except EventProductCreated;
// Previous is set for the three kinds that require the variant to
// exist in the previous snapshot.
type ChangeEvent struct {
	Kind     EventKind
	Product  ProductState
	Variant  *VariantState
	Previous *VariantState
}
