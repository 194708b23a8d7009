package domain

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func variant(id int64, price float64, available bool, qty *int) VariantState {
	return VariantState{
		ID:                id,
		Title:             "Trail Magic / XL",
		Option1:           strPtr("Trail Magic"),
		Option2:           strPtr("XL"),
		SKU:               strPtr("X000009556"),
		Price:             price,
		Available:         available,
		InventoryQuantity: qty,
	}
}

func product(handle string, variants ...VariantState) ProductState {
	p := ProductState{
		Handle:   handle,
		Title:    "Atom Hoody Men's",
		Vendor:   strPtr("Arc'teryx"),
		URL:      "https://store.example.com/products/" + handle,
		Variants: map[string]VariantState{},
	}
	for _, v := range variants {
		p.Variants[strconv.FormatInt(v.ID, 10)] = v
	}
	return p
}

func TestDiffCatalogs_NewProduct(t *testing.T) {
	current := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(1))),
	}

	events := DiffCatalogs(Catalog{}, current)

	require.Len(t, events, 1)
	require.Equal(t, EventProductCreated, events[0].Kind)
	require.Equal(t, "atom-hoody", events[0].Product.Handle)
	require.Nil(t, events[0].Variant)
}

func TestDiffCatalogs_NewProductEmitsNoVariantEvents(t *testing.T) {
	current := Catalog{
		"atom-hoody": product("atom-hoody",
			variant(100, 360, true, intPtr(1)),
			variant(101, 360, false, nil),
		),
	}

	events := DiffCatalogs(Catalog{}, current)

	require.Len(t, events, 1)
	require.Equal(t, EventProductCreated, events[0].Kind)
}

func TestDiffCatalogs_VariantCreated(t *testing.T) {
	previous := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(1))),
	}
	current := Catalog{
		"atom-hoody": product("atom-hoody",
			variant(100, 360, true, intPtr(1)),
			variant(101, 360, true, intPtr(2)),
		),
	}

	events := DiffCatalogs(previous, current)

	require.Len(t, events, 1)
	require.Equal(t, EventVariantCreated, events[0].Kind)
	require.Equal(t, int64(101), events[0].Variant.ID)
	require.Equal(t, "atom-hoody", events[0].Product.Handle)
}

func TestDiffCatalogs_PriceChange(t *testing.T) {
	previous := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 200, true, intPtr(1))),
	}
	current := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 210, true, intPtr(1))),
	}

	events := DiffCatalogs(previous, current)

	require.Len(t, events, 1)
	require.Equal(t, EventPriceChanged, events[0].Kind)
	require.Equal(t, 200.0, events[0].Previous.Price)
	require.Equal(t, 210.0, events[0].Variant.Price)
}

func TestDiffCatalogs_PriceChangeBelowEpsilonIgnored(t *testing.T) {
	previous := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 200, true, intPtr(1))),
	}
	current := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 200+5e-7, true, intPtr(1))),
	}

	require.Empty(t, DiffCatalogs(previous, current))
	require.Empty(t, DiffCatalogs(current, previous))
}

func TestDiffCatalogs_Restock(t *testing.T) {
	previous := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, false, intPtr(0))),
	}
	current := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(0))),
	}

	events := DiffCatalogs(previous, current)

	require.Len(t, events, 1)
	require.Equal(t, EventRestocked, events[0].Kind)
}

func TestDiffCatalogs_GoingOutOfStockIsSilent(t *testing.T) {
	previous := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(2))),
	}
	current := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, false, intPtr(2))),
	}

	require.Empty(t, DiffCatalogs(previous, current))
}

func TestDiffCatalogs_InventoryIncrease(t *testing.T) {
	previous := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(1))),
	}
	current := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(3))),
	}

	events := DiffCatalogs(previous, current)

	require.Len(t, events, 1)
	require.Equal(t, EventInventoryIncreased, events[0].Kind)
}

func TestDiffCatalogs_InventoryNullNeverFires(t *testing.T) {
	cases := []struct {
		name string
		prev *int
		cur  *int
	}{
		{"both null", nil, nil},
		{"prev null", nil, intPtr(5)},
		{"cur null", intPtr(0), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			previous := Catalog{
				"atom-hoody": product("atom-hoody", variant(100, 360, true, tc.prev)),
			}
			current := Catalog{
				"atom-hoody": product("atom-hoody", variant(100, 360, true, tc.cur)),
			}
			require.Empty(t, DiffCatalogs(previous, current))
		})
	}
}

func TestDiffCatalogs_InventoryDecreaseIgnored(t *testing.T) {
	previous := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(5))),
	}
	current := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(2))),
	}

	require.Empty(t, DiffCatalogs(previous, current))
}

func TestDiffCatalogs_RestockAndInventoryIncreaseBothFire(t *testing.T) {
	previous := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, false, intPtr(0))),
	}
	current := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(3))),
	}

	events := DiffCatalogs(previous, current)

	require.Len(t, events, 2)
	require.Equal(t, EventRestocked, events[0].Kind)
	require.Equal(t, EventInventoryIncreased, events[1].Kind)
}

func TestDiffCatalogs_Idempotent(t *testing.T) {
	previous := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(1))),
		"beta-lt":    product("beta-lt", variant(200, 500, false, nil)),
	}
	current := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(1))),
		"beta-lt":    product("beta-lt", variant(200, 500, false, nil)),
	}

	require.Empty(t, DiffCatalogs(previous, current))
	require.Empty(t, DiffCatalogs(previous, current))
}

func TestDiffCatalogs_DelistedProductIsSilent(t *testing.T) {
	previous := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(1))),
		"beta-lt":    product("beta-lt", variant(200, 500, true, intPtr(2))),
	}
	current := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(1))),
	}

	require.Empty(t, DiffCatalogs(previous, current))
}

func TestDiffCatalogs_OrderingWithinProduct(t *testing.T) {
	previous := Catalog{
		"atom-hoody": product("atom-hoody",
			variant(100, 200, false, intPtr(0)),
			variant(101, 200, true, intPtr(1)),
		),
	}
	current := Catalog{
		"atom-hoody": product("atom-hoody",
			variant(100, 210, true, intPtr(2)),
			variant(101, 250, true, intPtr(1)),
			variant(102, 210, true, intPtr(1)),
		),
		"new-shell": product("new-shell", variant(900, 700, true, nil)),
	}

	events := DiffCatalogs(previous, current)

	kinds := make([]EventKind, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	require.Equal(t, []EventKind{
		EventProductCreated,     // new-shell
		EventVariantCreated,     // 102
		EventPriceChanged,       // 100
		EventRestocked,          // 100
		EventInventoryIncreased, // 100
		EventPriceChanged,       // 101
	}, kinds)
	require.Equal(t, int64(102), events[1].Variant.ID)
	require.Equal(t, int64(100), events[2].Variant.ID)
	require.Equal(t, int64(101), events[5].Variant.ID)
}

func TestDiffCatalogs_ReassignedIDIsCreated(t *testing.T) {
	previous := Catalog{
		"atom-hoody": product("atom-hoody", variant(100, 360, true, intPtr(1))),
	}
	current := Catalog{
		"atom-hoody": product("atom-hoody", variant(999, 360, true, intPtr(1))),
	}

	events := DiffCatalogs(previous, current)

	require.Len(t, events, 1)
	require.Equal(t, EventVariantCreated, events[0].Kind)
}
