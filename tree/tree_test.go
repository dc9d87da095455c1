package tree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapSetKeepsFirstPosition(t *testing.T) {
	m := NewMap()
	m.Set("b", String("1"))
	m.Set("a", String("2"))
	m.Set("b", String("3"))

	require.Equal(t, []string{"b", "a"}, m.Keys())
	v, ok := m.Get("b")
	require.True(t, ok)
	require.Equal(t, String("3"), v)
}

func TestEqualIsOrderSensitive(t *testing.T) {
	a := MapOf(Pair{"home", String("Home")}, Pair{"about", String("About")})
	b := MapOf(Pair{"about", String("About")}, Pair{"home", String("Home")})

	require.False(t, Equal(a, b))
	require.True(t, Equal(a, Clone(a)))
}

func TestEqualComparesNumbersByValue(t *testing.T) {
	require.True(t, Equal(Leaf{Value: json.Number("1.0")}, Leaf{Value: json.Number("1")}))
	require.False(t, Equal(Leaf{Value: json.Number("1")}, String("1")))
	require.True(t, Equal(Leaf{}, Leaf{}))
	require.False(t, Equal(Leaf{}, nil))
}

func TestCloneIsDeep(t *testing.T) {
	inner := MapOf(Pair{"k", String("v")})
	orig := MapOf(Pair{"ns", inner}, Pair{"list", List{String("x")}})

	cp := Clone(orig).(*Map)
	inner.Set("k", String("changed"))

	got, ok := Lookup(cp, Path{"ns", "k"})
	require.True(t, ok)
	require.Equal(t, String("v"), got)
}

func TestWalkVisitsLeavesInOrder(t *testing.T) {
	doc := MapOf(
		Pair{"nav", MapOf(Pair{"home", String("Home")}, Pair{"about", String("About")})},
		Pair{"items", List{String("a"), Leaf{Value: true}}},
	)

	var paths []string
	Walk(doc, func(p Path, _ Leaf) {
		paths = append(paths, p.String())
	})
	require.Equal(t, []string{"nav.home", "nav.about", "items.0", "items.1"}, paths)
	require.Equal(t, 3, CountStrings(doc))
}

func TestLookup(t *testing.T) {
	doc := MapOf(Pair{"items", List{MapOf(Pair{"title", String("T")})}})

	got, ok := Lookup(doc, Path{"items", "0", "title"})
	require.True(t, ok)
	require.Equal(t, String("T"), got)

	_, ok = Lookup(doc, Path{"items", "1"})
	require.False(t, ok)
	_, ok = Lookup(doc, Path{"items", "x"})
	require.False(t, ok)
}
