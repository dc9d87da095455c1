package tree

import (
	"encoding/json"
	"io"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/xerrors"
)

// compact is used for the pairs encoding and single-line output.
var compact = jsoniter.Config{
	EscapeHTML:             false,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// indented matches the layout of hand-edited locale files.
var indented = jsoniter.Config{
	EscapeHTML:    false,
	UseNumber:     true,
	IndentionStep: 2,
}.Froze()

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// ParseJSON decodes a JSON document preserving object key order.
// The top-level value must be an object.
func ParseJSON(data []byte) (*Map, error) {
	iter := jsoniter.ParseBytes(compact, data)
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, xerrors.New("parsing JSON: top-level value must be an object")
	}
	n := readJSON(iter)
	if err := finish(iter, jsoniter.ObjectValue); err != nil {
		return nil, err
	}
	return n.(*Map), nil
}

// ParseJSONNode decodes any JSON value preserving object key order.
func ParseJSONNode(data []byte) (Node, error) {
	iter := jsoniter.ParseBytes(compact, data)
	first := iter.WhatIsNext()
	n := readJSON(iter)
	if err := finish(iter, first); err != nil {
		return nil, err
	}
	return n, nil
}

// finish checks that the top-level value of the given type was read
// completely and that only whitespace follows it. Only a number may run
// into the end of input, since reading one needs to look past its last
// digit.
func finish(iter *jsoniter.Iterator, top jsoniter.ValueType) error {
	switch {
	case iter.Error == io.EOF && top != jsoniter.NumberValue:
		return xerrors.New("parsing JSON: unexpected end of input")
	case iter.Error != nil && iter.Error != io.EOF:
		return xerrors.Errorf("parsing JSON: %w", iter.Error)
	case iter.Error == io.EOF:
		return nil
	}
	if iter.WhatIsNext() != jsoniter.InvalidValue || iter.Error != io.EOF {
		return xerrors.New("parsing JSON: unexpected data after top-level value")
	}
	return nil
}

func readJSON(iter *jsoniter.Iterator) Node {
	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		m := NewMap()
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			m.Set(key, readJSON(it))
			return it.Error == nil
		})
		return m
	case jsoniter.ArrayValue:
		l := List{}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			l = append(l, readJSON(it))
			return it.Error == nil
		})
		return l
	case jsoniter.StringValue:
		return String(iter.ReadString())
	case jsoniter.NumberValue:
		return Leaf{Value: iter.ReadNumber()}
	case jsoniter.BoolValue:
		return Leaf{Value: iter.ReadBool()}
	case jsoniter.NilValue:
		iter.ReadNil()
		return Leaf{}
	default:
		iter.ReportError("readJSON", "unexpected JSON value")
		return Leaf{}
	}
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// MarshalJSON encodes n as plain JSON on a single line, keys in order.
func MarshalJSON(n Node) ([]byte, error) {
	return encode(compact, n, writeJSON)
}

// MarshalIndent encodes n as plain JSON with two-space indentation and a
// trailing newline, keys in order.
func MarshalIndent(n Node) ([]byte, error) {
	data, err := encode(indented, n, writeJSON)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// MarshalJSON implements json.Marshaler so a *Map embedded in other
// structures keeps its order.
func (m *Map) MarshalJSON() ([]byte, error) {
	return MarshalJSON(m)
}

func encode(api jsoniter.API, n Node, write func(*jsoniter.Stream, Node)) ([]byte, error) {
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	write(stream, n)
	if stream.Error != nil {
		return nil, xerrors.Errorf("encoding JSON: %w", stream.Error)
	}
	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out, nil
}

func writeJSON(stream *jsoniter.Stream, n Node) {
	switch v := n.(type) {
	case Leaf:
		writeLeaf(stream, v)
	case List:
		if len(v) == 0 {
			stream.WriteEmptyArray()
			return
		}
		stream.WriteArrayStart()
		for i, item := range v {
			if i > 0 {
				stream.WriteMore()
			}
			writeJSON(stream, item)
		}
		stream.WriteArrayEnd()
	case *Map:
		if v.Len() == 0 {
			stream.WriteEmptyObject()
			return
		}
		stream.WriteObjectStart()
		for i, p := range v.Pairs() {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(p.Key)
			writeJSON(stream, p.Value)
		}
		stream.WriteObjectEnd()
	case nil:
		stream.WriteNil()
	default:
		stream.Error = xerrors.Errorf("unsupported node %T", n)
	}
}

func writeLeaf(stream *jsoniter.Stream, l Leaf) {
	switch v := l.Value.(type) {
	case nil:
		stream.WriteNil()
	case string:
		stream.WriteString(v)
	case json.Number:
		stream.WriteRaw(string(v))
	case bool:
		stream.WriteBool(v)
	default:
		stream.WriteVal(v)
	}
}
