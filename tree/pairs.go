package tree

import (
	"io"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/xerrors"
)

// The pairs encoding spells ordering out explicitly so a document survives
// storage engines that normalize object key order (PostgreSQL JSONB,
// DynamoDB maps):
//
//	*Map  -> {"m": [["key", <value>], ...]}
//	List  -> {"l": [<value>, ...]}
//	Leaf  -> the bare JSON scalar
//
// Tagged objects never collide with leaves because leaves are never objects.

const (
	pairsTagMap  = "m"
	pairsTagList = "l"
)

// MarshalPairs encodes n in the ordered pairs encoding.
func MarshalPairs(n Node) ([]byte, error) {
	return encode(compact, n, writePairs)
}

// UnmarshalPairs decodes data produced by MarshalPairs.
func UnmarshalPairs(data []byte) (Node, error) {
	iter := jsoniter.ParseBytes(compact, data)
	n := readPairs(iter)
	if iter.Error != nil && iter.Error != io.EOF {
		return nil, xerrors.Errorf("decoding pairs: %w", iter.Error)
	}
	return n, nil
}

// UnmarshalPairsMap decodes a pairs-encoded document whose root is a map.
func UnmarshalPairsMap(data []byte) (*Map, error) {
	n, err := UnmarshalPairs(data)
	if err != nil {
		return nil, err
	}
	m, ok := n.(*Map)
	if !ok {
		return nil, xerrors.Errorf("decoding pairs: root is a %s, want map", n.Kind())
	}
	return m, nil
}

func writePairs(stream *jsoniter.Stream, n Node) {
	switch v := n.(type) {
	case Leaf:
		writeLeaf(stream, v)
	case List:
		stream.WriteObjectStart()
		stream.WriteObjectField(pairsTagList)
		stream.WriteArrayStart()
		for i, item := range v {
			if i > 0 {
				stream.WriteMore()
			}
			writePairs(stream, item)
		}
		stream.WriteArrayEnd()
		stream.WriteObjectEnd()
	case *Map:
		stream.WriteObjectStart()
		stream.WriteObjectField(pairsTagMap)
		stream.WriteArrayStart()
		for i, p := range v.Pairs() {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteArrayStart()
			stream.WriteString(p.Key)
			stream.WriteMore()
			writePairs(stream, p.Value)
			stream.WriteArrayEnd()
		}
		stream.WriteArrayEnd()
		stream.WriteObjectEnd()
	case nil:
		stream.WriteNil()
	default:
		stream.Error = xerrors.Errorf("unsupported node %T", n)
	}
}

func readPairs(iter *jsoniter.Iterator) Node {
	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		var out Node
		iter.ReadObjectCB(func(it *jsoniter.Iterator, tag string) bool {
			if out != nil {
				it.ReportError("readPairs", "tagged object has more than one field")
				return false
			}
			switch tag {
			case pairsTagMap:
				out = readPairsMap(it)
			case pairsTagList:
				l := List{}
				it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
					l = append(l, readPairs(it))
					return it.Error == nil
				})
				out = l
			default:
				it.ReportError("readPairs", "unknown tag "+tag)
				return false
			}
			return it.Error == nil
		})
		if out == nil {
			iter.ReportError("readPairs", "empty tagged object")
			return Leaf{}
		}
		return out
	case jsoniter.ArrayValue:
		iter.ReportError("readPairs", "untagged array")
		return Leaf{}
	default:
		return readJSON(iter)
	}
}

func readPairsMap(iter *jsoniter.Iterator) *Map {
	m := NewMap()
	iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
		var key string
		n := 0
		it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			switch n {
			case 0:
				key = it.ReadString()
			case 1:
				m.Set(key, readPairs(it))
			default:
				it.ReportError("readPairs", "pair has more than two elements")
				return false
			}
			n++
			return it.Error == nil
		})
		if it.Error == nil && n != 2 {
			it.ReportError("readPairs", "pair must have two elements")
		}
		return it.Error == nil
	})
	return m
}
