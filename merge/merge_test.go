package merge

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minios-linux/locsync/tree"
)

func doc(t *testing.T, s string) *tree.Map {
	t.Helper()
	m, err := tree.ParseJSON([]byte(s))
	require.NoError(t, err)
	return m
}

func jsonOf(t *testing.T, m *tree.Map) string {
	t.Helper()
	b, err := tree.MarshalJSON(m)
	require.NoError(t, err)
	return string(b)
}

// upper "translates" by upper-casing and counts calls.
type upper struct {
	calls int32
	seen  sync.Map
}

func (u *upper) TranslateLeaf(_ context.Context, l tree.Leaf) tree.Leaf {
	s, ok := l.Str()
	if !ok {
		return l
	}
	atomic.AddInt32(&u.calls, 1)
	u.seen.Store(s, true)
	return tree.String(strings.ToUpper(s))
}

// identity returns every leaf unchanged, like a translator whose
// providers all failed.
var identity = TranslatorFunc(func(_ context.Context, l tree.Leaf) tree.Leaf { return l })

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

func TestMergeNewNamespace(t *testing.T) {
	src := doc(t, `{"nav":{"home":"Home","about":"About"},"footer":{"copy":"(c)","year":2024}}`)
	existing := doc(t, `{"nav":{"home":"Startseite","about":"Über uns"}}`)

	tr := &upper{}
	merged, stats, err := Merge(context.Background(), src, existing, tr, Options{})
	require.NoError(t, err)

	require.Equal(t, `{"nav":{"home":"Startseite","about":"Über uns"},"footer":{"copy":"(C)","year":2024}}`, jsonOf(t, merged))
	require.Equal(t, 1, stats.NewNamespaces)
	require.Equal(t, 1, stats.Translated)
	require.Equal(t, 2, stats.Copied)
	require.Equal(t, []tree.Path{{"footer", "copy"}}, stats.Filled)
	require.EqualValues(t, 1, atomic.LoadInt32(&tr.calls))
}

func TestMergePartialNamespaceFollowsSourceOrder(t *testing.T) {
	src := doc(t, `{"ns":{"a":"A","b":"B","c":"C"}}`)
	existing := doc(t, `{"ns":{"c":"c-de","a":"a-de"}}`)

	merged, stats, err := Merge(context.Background(), src, existing, &upper{}, Options{})
	require.NoError(t, err)

	require.Equal(t, []string{"a", "b", "c"}, mustMap(t, merged, "ns").Keys())
	require.Equal(t, `{"ns":{"a":"a-de","b":"B","c":"c-de"}}`, jsonOf(t, merged))
	require.Equal(t, []tree.Path{{"ns", "b"}}, stats.Filled)
}

func TestMergeSourceShapeAuthority(t *testing.T) {
	src := doc(t, `{"ns":{"a":"A"}}`)
	existing := doc(t, `{"ns":{"a":"a-de","gone":"weg"},"old":{"x":"y"}}`)

	merged, _, err := Merge(context.Background(), src, existing, &upper{}, Options{})
	require.NoError(t, err)
	require.Equal(t, `{"ns":{"a":"a-de"}}`, jsonOf(t, merged))
}

func TestMergeNonDestructiveFill(t *testing.T) {
	src := doc(t, `{"ns":{"greeting":"Hello there","bye":"Bye"}}`)
	existing := doc(t, `{"ns":{"greeting":"Hallo"}}`)

	tr := &upper{}
	merged, _, err := Merge(context.Background(), src, existing, tr, Options{})
	require.NoError(t, err)

	v, ok := tree.Lookup(merged, tree.Path{"ns", "greeting"})
	require.True(t, ok)
	require.Equal(t, tree.String("Hallo"), v)

	_, seen := tr.seen.Load("Hello there")
	require.False(t, seen, "existing value must not be re-translated")
}

func TestMergeIdempotent(t *testing.T) {
	src := doc(t, `{"a":{"x":"X","list":["one","two",{"k":"v"}]},"b":{"n":1,"t":true,"z":null}}`)
	existing := doc(t, `{"a":{"x":"x-de"}}`)

	first, _, err := Merge(context.Background(), src, existing, &upper{}, Options{})
	require.NoError(t, err)
	require.False(t, tree.Equal(first, existing))

	tr := &upper{}
	second, stats, err := Merge(context.Background(), src, first, tr, Options{})
	require.NoError(t, err)
	require.True(t, tree.Equal(first, second))
	require.Zero(t, stats.Translated)
	require.Zero(t, atomic.LoadInt32(&tr.calls))
}

func TestMergeNoOpTranslation(t *testing.T) {
	src := doc(t, `{"ns":{"a":"A","nested":{"b":"B"}},"new":{"c":"C"}}`)
	existing := doc(t, `{"ns":{"a":"a-de"}}`)

	merged, stats, err := Merge(context.Background(), src, existing, identity, Options{})
	require.NoError(t, err)
	require.Equal(t, `{"ns":{"a":"a-de","nested":{"b":"B"}},"new":{"c":"C"}}`, jsonOf(t, merged))
	require.Equal(t, 2, stats.Translated)
}

func TestMergeEmptyExisting(t *testing.T) {
	src := doc(t, `{"ns":{"a":"A"}}`)

	merged, stats, err := Merge(context.Background(), src, nil, &upper{}, Options{})
	require.NoError(t, err)
	require.Equal(t, `{"ns":{"a":"A"}}`, jsonOf(t, merged))
	require.Equal(t, 1, stats.NewNamespaces)
}

// ---------------------------------------------------------------------------
// Nested values
// ---------------------------------------------------------------------------

func TestMergeShapeConflictTranslatesSource(t *testing.T) {
	src := doc(t, `{"nav":{"home":"Home","about":"About"},"footer":"Bye","ns":{"a":{"x":"x"},"b":"b","c":["c"],"n":1}}`)
	existing := doc(t, `{"nav":"Navigation","footer":{"old":"Alt"},"ns":{"a":"flat","b":{"y":"Y"},"c":"not a list","n":"eins"}}`)

	merged, stats, err := Merge(context.Background(), src, existing, &upper{}, Options{})
	require.NoError(t, err)
	require.Equal(t, `{"nav":{"home":"HOME","about":"ABOUT"},"footer":"BYE","ns":{"a":{"x":"X"},"b":"B","c":["C"],"n":"eins"}}`, jsonOf(t, merged))
	require.Equal(t, 6, stats.Translated)
	require.Equal(t, 1, stats.Copied)

	tree.Walk(src, func(p tree.Path, _ tree.Leaf) {
		_, ok := tree.Lookup(merged, p)
		require.True(t, ok, "source path %s missing from merged", p)
	})
	tree.Walk(merged, func(p tree.Path, _ tree.Leaf) {
		_, ok := tree.Lookup(src, p)
		require.True(t, ok, "path %s is not in the source", p)
	})
}

func TestMergeListsPositionally(t *testing.T) {
	src := doc(t, `{"ns":{"steps":["one","two","three"],"short":["a"]}}`)
	existing := doc(t, `{"ns":{"steps":["eins"],"short":["x","y","z"]}}`)

	merged, stats, err := Merge(context.Background(), src, existing, &upper{}, Options{})
	require.NoError(t, err)
	require.Equal(t, `{"ns":{"steps":["eins","TWO","THREE"],"short":["x"]}}`, jsonOf(t, merged))
	require.Equal(t, []tree.Path{{"ns", "steps", "1"}, {"ns", "steps", "2"}}, stats.Filled)
}

func TestMergeNestedMaps(t *testing.T) {
	src := doc(t, `{"ns":{"menu":{"file":"File","edit":{"undo":"Undo","redo":"Redo"}}}}`)
	existing := doc(t, `{"ns":{"menu":{"edit":{"redo":"Wiederholen"}}}}`)

	merged, _, err := Merge(context.Background(), src, existing, &upper{}, Options{})
	require.NoError(t, err)
	require.Equal(t, `{"ns":{"menu":{"file":"FILE","edit":{"undo":"UNDO","redo":"Wiederholen"}}}}`, jsonOf(t, merged))
}

func TestMergeDoesNotAliasExisting(t *testing.T) {
	src := doc(t, `{"ns":{"a":"A"}}`)
	existing := doc(t, `{"ns":{"a":"a-de"}}`)

	merged, _, err := Merge(context.Background(), src, existing, &upper{}, Options{})
	require.NoError(t, err)

	mustMap(t, merged, "ns").Set("a", tree.String("changed"))
	require.Equal(t, `{"ns":{"a":"a-de"}}`, jsonOf(t, existing))
}

// ---------------------------------------------------------------------------
// Concurrency, hooks, cancellation
// ---------------------------------------------------------------------------

func TestParallelMergeEqualsSequential(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"ns":{`)
	for i := 0; i < 200; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`"k` + strconv.Itoa(i) + `":"value ` + strconv.Itoa(i) + `"`)
	}
	b.WriteString(`},"list":["a","b","c","d"]}`)
	src := doc(t, b.String())
	existing := doc(t, `{"ns":{"k0":"kept"}}`)

	seq, seqStats, err := Merge(context.Background(), src, existing, &upper{}, Options{})
	require.NoError(t, err)

	par, parStats, err := Merge(context.Background(), src, existing, &upper{}, Options{MaxConcurrent: 8})
	require.NoError(t, err)

	require.True(t, tree.Equal(seq, par))
	require.Equal(t, jsonOf(t, seq), jsonOf(t, par))
	require.Equal(t, seqStats, parStats)
}

func TestMergeHooks(t *testing.T) {
	src := doc(t, `{"ns":{"a":"A","b":"B"}}`)

	var planned int
	var leaves []string
	_, _, err := Merge(context.Background(), src, nil, &upper{}, Options{
		MaxConcurrent: 4,
		OnPlan:        func(n int) { planned = n },
		OnLeaf: func(p tree.Path, s, d string) {
			leaves = append(leaves, p.String()+"="+d)
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, planned)
	require.ElementsMatch(t, []string{"ns.a=A", "ns.b=B"}, leaves)
}

func TestMergeCancelled(t *testing.T) {
	src := doc(t, `{"ns":{"a":"A","b":"B","c":"C"}}`)

	for _, n := range []int{1, 3} {
		ctx, cancel := context.WithCancel(context.Background())
		tr := TranslatorFunc(func(_ context.Context, l tree.Leaf) tree.Leaf {
			cancel()
			return l
		})
		merged, _, err := Merge(ctx, src, nil, tr, Options{MaxConcurrent: n})
		require.ErrorIs(t, err, context.Canceled)
		require.Nil(t, merged)
		cancel()
	}
}

func TestTranslateAll(t *testing.T) {
	src := doc(t, `{"a":"x","b":{"c":["y",3]}}`)
	out, stats, err := TranslateAll(context.Background(), src, &upper{}, Options{})
	require.NoError(t, err)
	require.Equal(t, `{"a":"X","b":{"c":["Y",3]}}`, jsonOf(t, out))
	require.Equal(t, 2, stats.NewNamespaces)
	require.Equal(t, 2, stats.Translated)
}

func mustMap(t *testing.T, m *tree.Map, key string) *tree.Map {
	t.Helper()
	v, ok := m.Get(key)
	require.True(t, ok)
	mm, ok := v.(*tree.Map)
	require.True(t, ok)
	return mm
}
