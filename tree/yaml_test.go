package tree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseYAMLNested(t *testing.T) {
	doc, err := ParseYAML([]byte(`nav:
  home: Home
  about: About
count: 42
ratio: 1.5
enabled: true
nothing: ~
items:
  - one
  - two
`))
	require.NoError(t, err)
	require.Equal(t, []string{"nav", "count", "ratio", "enabled", "nothing", "items"}, doc.Keys())

	nav, _ := doc.Get("nav")
	require.Equal(t, []string{"home", "about"}, nav.(*Map).Keys())

	count, _ := doc.Get("count")
	require.Equal(t, Leaf{Value: json.Number("42")}, count)
	ratio, _ := doc.Get("ratio")
	require.Equal(t, Leaf{Value: json.Number("1.5")}, ratio)
	enabled, _ := doc.Get("enabled")
	require.Equal(t, Leaf{Value: true}, enabled)
	nothing, _ := doc.Get("nothing")
	require.Equal(t, Leaf{}, nothing)
	items, _ := doc.Get("items")
	require.Equal(t, List{String("one"), String("two")}, items)
}

func TestParseYAMLQuotedNumberIsString(t *testing.T) {
	doc, err := ParseYAML([]byte(`version: "42"`))
	require.NoError(t, err)
	v, _ := doc.Get("version")
	require.Equal(t, String("42"), v)
}

func TestParseYAMLEmptyAndInvalid(t *testing.T) {
	doc, err := ParseYAML(nil)
	require.NoError(t, err)
	require.Equal(t, 0, doc.Len())

	_, err = ParseYAML([]byte("- a\n- b\n"))
	require.Error(t, err)
}
