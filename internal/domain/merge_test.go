package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestMergeProduct_OverlayWinsAvailability(t *testing.T) {
	primary := product("atom-hoody",
		variant(100, 360, true, intPtr(4)),
		variant(101, 360, true, nil),
	)
	overlay := product("atom-hoody",
		variant(100, 999, false, intPtr(0)), // overlay price must not win
		variant(101, 360, false, intPtr(2)),
	)

	merged := MergeProduct(primary, overlay)

	v100 := merged.Variants["100"]
	require.Equal(t, 360.0, v100.Price)
	require.False(t, v100.Available)
	require.Equal(t, 0, *v100.InventoryQuantity)

	v101 := merged.Variants["101"]
	require.False(t, v101.Available)
	require.Equal(t, 2, *v101.InventoryQuantity)
}

func TestMergeProduct_UnmatchedVariantsUntouched(t *testing.T) {
	primary := product("atom-hoody", variant(100, 360, true, intPtr(4)))
	overlay := product("atom-hoody", variant(999, 360, false, intPtr(0)))

	merged := MergeProduct(primary, overlay)

	if diff := cmp.Diff(primary.Variants, merged.Variants); diff != "" {
		t.Fatalf("variants changed (-want +got):\n%s", diff)
	}
	require.NotContains(t, merged.Variants, "999")
}

func TestMergeProduct_OverlayNullQuantityKeepsPrimary(t *testing.T) {
	primary := product("atom-hoody", variant(100, 360, true, intPtr(4)))
	overlay := product("atom-hoody", variant(100, 360, true, nil))

	merged := MergeProduct(primary, overlay)

	require.Equal(t, 4, *merged.Variants["100"].InventoryQuantity)
}

func TestMergeProduct_OverlayImageWins(t *testing.T) {
	primary := product("atom-hoody", variant(100, 360, true, nil))
	overlay := product("atom-hoody", variant(100, 360, true, nil))
	overlay.Image = strPtr("https://cdn.example.com/fresh.jpg")

	merged := MergeProduct(primary, overlay)
	require.Equal(t, "https://cdn.example.com/fresh.jpg", *merged.Image)

	// The lookup image is fresher, so it replaces the listing's.
	primary.Image = strPtr("https://cdn.example.com/stale.jpg")
	merged = MergeProduct(primary, overlay)
	require.Equal(t, "https://cdn.example.com/fresh.jpg", *merged.Image)
}

func TestMergeProduct_PrimaryImageKeptWhenOverlayHasNone(t *testing.T) {
	primary := product("atom-hoody", variant(100, 360, true, nil))
	primary.Image = strPtr("https://cdn.example.com/original.jpg")
	overlay := product("atom-hoody", variant(100, 360, true, nil))

	merged := MergeProduct(primary, overlay)
	require.Equal(t, "https://cdn.example.com/original.jpg", *merged.Image)
}

func TestMergeProduct_DoesNotMutateInputs(t *testing.T) {
	primary := product("atom-hoody", variant(100, 360, true, intPtr(4)))
	overlay := product("atom-hoody", variant(100, 360, false, intPtr(1)))

	_ = MergeProduct(primary, overlay)

	require.True(t, primary.Variants["100"].Available)
	require.Equal(t, 4, *primary.Variants["100"].InventoryQuantity)
}
