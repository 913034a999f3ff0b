//
// Copyright (c) 2011-2019 Canonical Ltd
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package yaml

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/yamlkit/yaml/internal/yamlh"
)

// Kind discriminates the Node variants.
type Kind int8

const (
	NullKind Kind = iota
	BoolKind
	IntKind
	FloatKind
	BinaryKind
	TimestampKind
	StringKind
	SequenceKind
	MappingKind
	UserKind
)

var kindStrings = []string{
	NullKind:      "null",
	BoolKind:      "bool",
	IntKind:       "int",
	FloatKind:     "float",
	BinaryKind:    "binary",
	TimestampKind: "timestamp",
	StringKind:    "string",
	SequenceKind:  "sequence",
	MappingKind:   "mapping",
	UserKind:      "user",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindStrings) {
		return fmt.Sprintf("unknown kind %d", k)
	}
	return kindStrings[k]
}

// UserValue is the contract for application values stored in nodes: the
// core needs equality to detect duplicate keys and repeated nodes.
type UserValue interface {
	EqualValue(other UserValue) bool
}

// Style aliases so callers do not import internal packages.
type (
	ScalarStyle     = yamlh.ScalarStyle
	CollectionStyle = yamlh.CollectionStyle
	Mark            = yamlh.Mark
	TagDirective    = yamlh.TagDirective
	LineBreak       = yamlh.Break
)

const (
	AnyScalarStyle     = yamlh.AnyScalarStyle
	PlainStyle         = yamlh.PlainScalarStyle
	SingleQuotedStyle  = yamlh.SingleQuotedScalarStyle
	DoubleQuotedStyle  = yamlh.DoubleQuotedScalarStyle
	LiteralStyle       = yamlh.LiteralScalarStyle
	FoldedStyle        = yamlh.FoldedScalarStyle
	AnyCollectionStyle = yamlh.AnyCollectionStyle
	BlockStyle         = yamlh.BlockCollectionStyle
	FlowStyle          = yamlh.FlowCollectionStyle
)

const (
	UnixBreak      = yamlh.LNBreak
	WindowsBreak   = yamlh.CRLNBreak
	MacintoshBreak = yamlh.CRBreak
)

// Pair is one ordered entry of a mapping.
type Pair struct {
	Key   *Node
	Value *Node
}

// Node is one value of a document: a typed scalar, a sequence, an
// ordered mapping, or an opaque user value. It remembers the explicit
// tag and presentation styles of the input so re-emission can reproduce
// the original shape.
type Node struct {
	kind Kind

	boolV  bool
	intV   int64
	floatV float64
	strV   string
	binV   []byte
	timeV  time.Time
	seq    []*Node
	pairs  []Pair
	user   UserValue

	// Tag is the explicit tag of the node, or empty when the tag was
	// implied by the value's form or the node was built programmatically.
	Tag string

	// ScalarStyle and CollectionStyle are remembered from the input and
	// honored on output where legal.
	ScalarStyle     ScalarStyle
	CollectionStyle CollectionStyle

	mark Mark
}

// Constructors.

func NullNode() *Node            { return &Node{kind: NullKind} }
func BoolNode(v bool) *Node      { return &Node{kind: BoolKind, boolV: v} }
func IntNode(v int64) *Node      { return &Node{kind: IntKind, intV: v} }
func FloatNode(v float64) *Node  { return &Node{kind: FloatKind, floatV: v} }
func StringNode(v string) *Node  { return &Node{kind: StringKind, strV: v} }
func BinaryNode(v []byte) *Node  { return &Node{kind: BinaryKind, binV: v} }
func TimestampNode(v time.Time) *Node {
	return &Node{kind: TimestampKind, timeV: v}
}

func SequenceNode(items ...*Node) *Node {
	return &Node{kind: SequenceKind, seq: items}
}

func MappingNode(pairs ...Pair) *Node {
	return &Node{kind: MappingKind, pairs: pairs}
}

// UserNode wraps an application value. The tag is required so the value
// can be serialized back through a Representer registration.
func UserNode(v UserValue, tag string) *Node {
	return &Node{kind: UserKind, user: v, Tag: tag}
}

// Accessors.

// Kind returns the variant of the node.
func (n *Node) Kind() Kind { return n.kind }

// IsNull reports whether the node holds the null value.
func (n *Node) IsNull() bool { return n.kind == NullKind }

// Mark returns the input position of the node, when it was composed from
// a document.
func (n *Node) Mark() Mark { return n.mark }

func (n *Node) Bool() (bool, bool) {
	if n.kind != BoolKind {
		return false, false
	}
	return n.boolV, true
}

func (n *Node) Int64() (int64, bool) {
	if n.kind != IntKind {
		return 0, false
	}
	return n.intV, true
}

func (n *Node) Float64() (float64, bool) {
	switch n.kind {
	case FloatKind:
		return n.floatV, true
	case IntKind:
		return float64(n.intV), true
	}
	return 0, false
}

func (n *Node) Str() (string, bool) {
	if n.kind != StringKind {
		return "", false
	}
	return n.strV, true
}

func (n *Node) Binary() ([]byte, bool) {
	if n.kind != BinaryKind {
		return nil, false
	}
	return n.binV, true
}

func (n *Node) Time() (time.Time, bool) {
	if n.kind != TimestampKind {
		return time.Time{}, false
	}
	return n.timeV, true
}

func (n *Node) User() (UserValue, bool) {
	if n.kind != UserKind {
		return nil, false
	}
	return n.user, true
}

// Len returns the number of children of a sequence or mapping, zero
// otherwise.
func (n *Node) Len() int {
	switch n.kind {
	case SequenceKind:
		return len(n.seq)
	case MappingKind:
		return len(n.pairs)
	}
	return 0
}

// At returns the i-th item of a sequence.
func (n *Node) At(i int) *Node {
	if n.kind != SequenceKind {
		panic("yaml: At on a non-sequence node")
	}
	return n.seq[i]
}

// Items returns the children of a sequence.
func (n *Node) Items() []*Node {
	return n.seq
}

// Pairs returns the ordered entries of a mapping.
func (n *Node) Pairs() []Pair {
	return n.pairs
}

// MapValue returns the value for a string key of a mapping.
func (n *Node) MapValue(key string) (*Node, bool) {
	if n.kind != MappingKind {
		return nil, false
	}
	for _, p := range n.pairs {
		if s, ok := p.Key.Str(); ok && s == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Mutators.

// Append adds an item to a sequence.
func (n *Node) Append(item *Node) {
	if n.kind != SequenceKind {
		panic("yaml: Append on a non-sequence node")
	}
	n.seq = append(n.seq, item)
}

// SetAt replaces the i-th item of a sequence.
func (n *Node) SetAt(i int, item *Node) {
	if n.kind != SequenceKind {
		panic("yaml: SetAt on a non-sequence node")
	}
	n.seq[i] = item
}

// Set replaces the value of an equal key, or appends a new pair.
func (n *Node) Set(key, value *Node) {
	if n.kind != MappingKind {
		panic("yaml: Set on a non-mapping node")
	}
	for i := range n.pairs {
		if n.pairs[i].Key.Equal(key) {
			n.pairs[i].Value = value
			return
		}
	}
	n.pairs = append(n.pairs, Pair{Key: key, Value: value})
}

// Delete removes the pair with an equal key and reports whether one
// existed.
func (n *Node) Delete(key *Node) bool {
	if n.kind != MappingKind {
		return false
	}
	for i := range n.pairs {
		if n.pairs[i].Key.Equal(key) {
			n.pairs = append(n.pairs[:i], n.pairs[i+1:]...)
			return true
		}
	}
	return false
}

// Equal reports deep value equality, ignoring tags, styles, and marks.
// Sequences and mappings compare their children in order; NaN compares
// equal to NaN so float keys behave.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil || n.kind != other.kind {
		return false
	}
	switch n.kind {
	case NullKind:
		return true
	case BoolKind:
		return n.boolV == other.boolV
	case IntKind:
		return n.intV == other.intV
	case FloatKind:
		if math.IsNaN(n.floatV) && math.IsNaN(other.floatV) {
			return true
		}
		return n.floatV == other.floatV
	case BinaryKind:
		return bytes.Equal(n.binV, other.binV)
	case TimestampKind:
		return n.timeV.Equal(other.timeV)
	case StringKind:
		return n.strV == other.strV
	case SequenceKind:
		if len(n.seq) != len(other.seq) {
			return false
		}
		for i := range n.seq {
			if !n.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	case MappingKind:
		if len(n.pairs) != len(other.pairs) {
			return false
		}
		for i := range n.pairs {
			if !n.pairs[i].Key.Equal(other.pairs[i].Key) ||
				!n.pairs[i].Value.Equal(other.pairs[i].Value) {
				return false
			}
		}
		return true
	case UserKind:
		if other.user == nil {
			return n.user == nil
		}
		return n.user != nil && n.user.EqualValue(other.user)
	}
	return false
}

// String renders a short debugging description.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.kind {
	case NullKind:
		return "null"
	case BoolKind:
		return fmt.Sprintf("%v", n.boolV)
	case IntKind:
		return fmt.Sprintf("%d", n.intV)
	case FloatKind:
		return fmt.Sprintf("%v", n.floatV)
	case BinaryKind:
		return fmt.Sprintf("binary(%d bytes)", len(n.binV))
	case TimestampKind:
		return n.timeV.Format(time.RFC3339Nano)
	case StringKind:
		return fmt.Sprintf("%q", n.strV)
	case SequenceKind:
		return fmt.Sprintf("sequence(%d)", len(n.seq))
	case MappingKind:
		return fmt.Sprintf("mapping(%d)", len(n.pairs))
	case UserKind:
		return fmt.Sprintf("user(%v)", n.user)
	}
	return "<invalid>"
}
