package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBrandMatcher_ApostropheInsensitive(t *testing.T) {
	m := NewBrandMatcher("Arc'teryx")

	require.True(t, m.Matches("Arc'teryx Atom Hoody", "", nil))
	require.True(t, m.Matches("ARCTERYX Atom Hoody", "", nil))
	require.True(t, m.Matches("", "arcteryx", nil))
	require.True(t, m.Matches("", "Arc’teryx", nil))
	require.False(t, m.Matches("Rab Microlight", "Rab", nil))
}

func TestBrandMatcher_Tags(t *testing.T) {
	m := NewBrandMatcher("Arc'teryx")

	require.True(t, m.Matches("Atom Hoody", "", []string{"sale", "Arcteryx"}))
	require.False(t, m.Matches("Atom Hoody", "", []string{"sale", "outdoor"}))
}

func TestBrandMatcher_EmptyBrandMatchesNothing(t *testing.T) {
	m := NewBrandMatcher("  ")
	require.False(t, m.Matches("anything", "anything", []string{"anything"}))
}

func TestProductState_SortedVariantIDs(t *testing.T) {
	p := ProductState{Variants: map[string]VariantState{
		"9":   {ID: 9},
		"100": {ID: 100},
		"21":  {ID: 21},
	}}
	require.Equal(t, []string{"9", "21", "100"}, p.SortedVariantIDs())
}

func TestProductState_RepresentativeVariant(t *testing.T) {
	p := ProductState{Variants: map[string]VariantState{
		"300": {ID: 300},
		"12":  {ID: 12},
	}}
	v, ok := p.RepresentativeVariant()
	require.True(t, ok)
	require.Equal(t, int64(12), v.ID)

	_, ok = ProductState{}.RepresentativeVariant()
	require.False(t, ok)
}
