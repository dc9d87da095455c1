// Package tree implements the localized document model: an ordered tree of
// namespaces, keys and leaf values.
//
// A document is a *Map whose values are namespaces (usually *Map themselves).
// Every node is one of three variants:
//
//	Leaf  a string or a scalar (json.Number, bool, nil)
//	List  an ordered sequence of nodes
//	*Map  an ordered sequence of key/value pairs
//
// Key order is part of the document: it is preserved by every decoder and
// encoder in this package, including the pairs encoding used at store
// boundaries whose native map types do not keep order.
package tree

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind identifies the variant of a Node.
type Kind int

const (
	KindLeaf Kind = iota
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is a value in a document tree.
type Node interface {
	Kind() Kind
}

// ---------------------------------------------------------------------------
// Leaf
// ---------------------------------------------------------------------------

// Leaf holds a terminal value. Value is one of string, json.Number, bool
// or nil; other Go numbers are accepted by the encoders but never produced
// by the decoders.
type Leaf struct {
	Value any
}

// String returns a string leaf.
func String(s string) Leaf {
	return Leaf{Value: s}
}

// Kind implements Node.
func (Leaf) Kind() Kind { return KindLeaf }

// Str returns the leaf's text and whether the leaf is a string.
func (l Leaf) Str() (string, bool) {
	s, ok := l.Value.(string)
	return s, ok
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

// List is an ordered sequence of nodes.
type List []Node

// Kind implements Node.
func (List) Kind() Kind { return KindList }

// ---------------------------------------------------------------------------
// Map
// ---------------------------------------------------------------------------

// Pair is one key/value entry of a Map.
type Pair struct {
	Key   string
	Value Node
}

// Map is an ordered mapping from string keys to nodes.
// The zero value is not usable; call NewMap.
type Map struct {
	pairs []Pair
	index map[string]int
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// MapOf builds a map from pairs, in order.
func MapOf(pairs ...Pair) *Map {
	m := NewMap()
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

// Kind implements Node.
func (*Map) Kind() Kind { return KindMap }

// Set appends key, or replaces its value in place if it already exists.
func (m *Map) Set(key string, value Node) {
	if i, ok := m.index[key]; ok {
		m.pairs[i].Value = value
		return
	}
	m.index[key] = len(m.pairs)
	m.pairs = append(m.pairs, Pair{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Node, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.pairs[i].Value, true
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pairs)
}

// Keys returns the keys in order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.Len())
	for _, p := range m.Pairs() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Pairs returns the entries in order. The slice must not be modified.
func (m *Map) Pairs() []Pair {
	if m == nil {
		return nil
	}
	return m.pairs
}

// ---------------------------------------------------------------------------
// Comparison and copying
// ---------------------------------------------------------------------------

// Equal reports whether a and b are structurally equal, including key order.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Leaf:
		return leafEqual(av, b.(Leaf))
	case List:
		bv := b.(List)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv := b.(*Map)
		if av.Len() != bv.Len() {
			return false
		}
		bp := bv.Pairs()
		for i, p := range av.Pairs() {
			if p.Key != bp[i].Key || !Equal(p.Value, bp[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func leafEqual(a, b Leaf) bool {
	an, aNum := a.Value.(json.Number)
	bn, bNum := b.Value.(json.Number)
	if aNum && bNum {
		if an == bn {
			return true
		}
		af, aerr := an.Float64()
		bf, berr := bn.Float64()
		return aerr == nil && berr == nil && af == bf
	}
	// Uncomparable values compare unequal.
	defer func() { _ = recover() }()
	return a.Value == b.Value
}

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	switch v := n.(type) {
	case List:
		out := make(List, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	case *Map:
		out := NewMap()
		for _, p := range v.Pairs() {
			out.Set(p.Key, Clone(p.Value))
		}
		return out
	default:
		return n
	}
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// Path addresses a node from the document root. List positions are
// recorded as their decimal index.
type Path []string

// Child returns a copy of p extended by seg.
func (p Path) Child(seg string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// Index returns a copy of p extended by a list position.
func (p Path) Index(i int) Path {
	return p.Child(strconv.Itoa(i))
}

// String joins the segments with dots, e.g. "nav.home" or "items.2".
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Walk calls fn for every leaf reachable from n, in document order.
func Walk(n Node, fn func(Path, Leaf)) {
	walk(n, nil, fn)
}

func walk(n Node, p Path, fn func(Path, Leaf)) {
	switch v := n.(type) {
	case Leaf:
		fn(p, v)
	case List:
		for i, item := range v {
			walk(item, p.Index(i), fn)
		}
	case *Map:
		for _, pair := range v.Pairs() {
			walk(pair.Value, p.Child(pair.Key), fn)
		}
	}
}

// Lookup follows p from n and returns the node found there.
func Lookup(n Node, p Path) (Node, bool) {
	cur := n
	for _, seg := range p {
		switch v := cur.(type) {
		case *Map:
			next, ok := v.Get(seg)
			if !ok {
				return nil, false
			}
			cur = next
		case List:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			cur = v[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// CountStrings returns the number of string leaves in n.
func CountStrings(n Node) int {
	count := 0
	Walk(n, func(_ Path, l Leaf) {
		if _, ok := l.Str(); ok {
			count++
		}
	})
	return count
}
