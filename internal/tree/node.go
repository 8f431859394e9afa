// Package tree is a read-only view over arbitrarily nested JSON documents.
//
// Every node is one of a closed set of kinds (absent, mapping, sequence or
// scalar). Accessing a node as the wrong kind yields an absent node instead of
// an error, so extraction code can probe deep paths without checking every
// level. Mappings remember the order their keys appeared in the source document.
package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

type Kind int

const (
	KindAbsent Kind = iota
	KindMapping
	KindSequence
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindScalar:
		return "scalar"
	default:
		return "absent"
	}
}

// Node is a single value in a document. The zero value is an absent node.
type Node struct {
	kind   Kind
	keys   []string
	fields map[string]Node
	items  []Node
	// string, json.Number or bool
	value any
}

// Parse decodes a JSON document.
func Parse(data []byte) (Node, error) {
	return Decode(bytes.NewReader(data))
}

// Decode decodes a single JSON document from r, keeping mapping key order.
func Decode(r io.Reader) (Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	node, err := decodeValue(dec)
	if err != nil {
		return Node{}, fmt.Errorf("tree: decode: %w", err)
	}
	return node, nil
}

func decodeValue(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeMapping(dec)
		case '[':
			return decodeSequence(dec)
		}
		return Node{}, fmt.Errorf("unexpected delimiter %q", t)
	case nil:
		return Node{}, nil
	default:
		return Node{kind: KindScalar, value: t}, nil
	}
}

func decodeMapping(dec *json.Decoder) (Node, error) {
	node := Node{kind: KindMapping, fields: map[string]Node{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Node{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Node{}, fmt.Errorf("expected object key, got %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return Node{}, err
		}
		if _, duplicate := node.fields[key]; !duplicate {
			node.keys = append(node.keys, key)
		}
		node.fields[key] = value
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return Node{}, err
	}
	return node, nil
}

func decodeSequence(dec *json.Decoder) (Node, error) {
	node := Node{kind: KindSequence}
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return Node{}, err
		}
		node.items = append(node.items, value)
	}
	// closing ']'
	if _, err := dec.Token(); err != nil {
		return Node{}, err
	}
	return node, nil
}

// FromValue wraps an already decoded value (the output of json.Unmarshal into
// an `any` or hand-built literals). Go maps carry no order so their keys are sorted.
func FromValue(value any) Node {
	switch v := value.(type) {
	case nil:
		return Node{}
	case Node:
		return v
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		node := Node{kind: KindMapping, keys: keys, fields: make(map[string]Node, len(v))}
		for _, k := range keys {
			node.fields[k] = FromValue(v[k])
		}
		return node
	case []any:
		node := Node{kind: KindSequence, items: make([]Node, len(v))}
		for i, item := range v {
			node.items[i] = FromValue(item)
		}
		return node
	case []string:
		node := Node{kind: KindSequence, items: make([]Node, len(v))}
		for i, item := range v {
			node.items[i] = Node{kind: KindScalar, value: item}
		}
		return node
	case string, bool, json.Number:
		return Node{kind: KindScalar, value: v}
	case float64:
		return Node{kind: KindScalar, value: json.Number(strconv.FormatFloat(v, 'f', -1, 64))}
	case int:
		return Node{kind: KindScalar, value: json.Number(strconv.Itoa(v))}
	case int64:
		return Node{kind: KindScalar, value: json.Number(strconv.FormatInt(v, 10))}
	}
	return Node{}
}

func (n Node) Kind() Kind {
	return n.kind
}

func (n Node) IsAbsent() bool {
	return n.kind == KindAbsent
}

// Get returns the value under key, or an absent node if n is not a mapping
// or has no such key.
func (n Node) Get(key string) Node {
	if n.kind != KindMapping {
		return Node{}
	}
	return n.fields[key]
}

// GetFold is Get with case-insensitive key matching, the first matching key
// in document order wins.
func (n Node) GetFold(key string) Node {
	if n.kind != KindMapping {
		return Node{}
	}
	if exact, ok := n.fields[key]; ok {
		return exact
	}
	for _, k := range n.keys {
		if strings.EqualFold(k, key) {
			return n.fields[k]
		}
	}
	return Node{}
}

// GetAny returns the first present value among keys.
func (n Node) GetAny(keys ...string) Node {
	for _, k := range keys {
		v := n.Get(k)
		if !v.IsAbsent() {
			return v
		}
	}
	return Node{}
}

// Keys returns the mapping keys in document order. The slice must not be modified.
func (n Node) Keys() []string {
	if n.kind != KindMapping {
		return nil
	}
	return n.keys
}

// Items returns the sequence elements. The slice must not be modified.
func (n Node) Items() []Node {
	if n.kind != KindSequence {
		return nil
	}
	return n.items
}

func (n Node) Index(i int) Node {
	if n.kind != KindSequence || i < 0 || i >= len(n.items) {
		return Node{}
	}
	return n.items[i]
}

func (n Node) Len() int {
	switch n.kind {
	case KindMapping:
		return len(n.keys)
	case KindSequence:
		return len(n.items)
	}
	return 0
}

// String returns the value of a string scalar.
func (n Node) String() (string, bool) {
	s, ok := n.value.(string)
	return s, ok && n.kind == KindScalar
}

// Text returns the trimmed value of a string scalar or "".
func (n Node) Text() string {
	s, _ := n.String()
	return strings.TrimSpace(s)
}

// Number returns the value of a numeric scalar.
func (n Node) Number() (float64, bool) {
	num, ok := n.value.(json.Number)
	if !ok || n.kind != KindScalar {
		return 0, false
	}
	f, err := num.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int returns a numeric scalar truncated to an integer.
func (n Node) Int() (int64, bool) {
	num, ok := n.value.(json.Number)
	if !ok || n.kind != KindScalar {
		return 0, false
	}
	if i, err := num.Int64(); err == nil {
		return i, true
	}
	f, ok := n.Number()
	if !ok {
		return 0, false
	}
	return int64(f), true
}

func (n Node) Bool() (bool, bool) {
	b, ok := n.value.(bool)
	return b, ok && n.kind == KindScalar
}

// At follows path from n, sequence segments are decimal indexes.
func (n Node) At(path Path) Node {
	current := n
	for _, segment := range path {
		switch current.kind {
		case KindMapping:
			current = current.fields[segment]
		case KindSequence:
			i, err := strconv.Atoi(segment)
			if err != nil {
				return Node{}
			}
			current = current.Index(i)
		default:
			return Node{}
		}
		if current.IsAbsent() {
			return Node{}
		}
	}
	return current
}

// MarshalJSON writes the node back out, mappings keep their document order.
func (n Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	err := n.writeJSON(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n Node) writeJSON(buf *bytes.Buffer) error {
	switch n.kind {
	case KindMapping:
		buf.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			err = n.fields[k].writeJSON(buf)
			if err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			err := item.writeJSON(buf)
			if err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindScalar:
		encoded, err := json.Marshal(n.value)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	default:
		buf.WriteString("null")
	}
	return nil
}
