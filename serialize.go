package yaml

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yamlkit/yaml/internal/emitter"
	"github.com/yamlkit/yaml/internal/resolve"
	"github.com/yamlkit/yaml/internal/yamlh"
)

// Scalars at or below this size are cheaper to repeat than to anchor.
const anchorScalarThreshold = 64

// serializer walks a node tree and feeds events to the emitter. A
// pre-pass assigns anchors to nodes that occur more than once; the main
// pass emits the anchor on first occurrence and an alias afterwards.
type serializer struct {
	emitter     *emitter.Emitter
	resolver    *resolve.Resolver
	representer *Representer

	explicitStart bool
	explicitEnd   bool
	version       *yamlh.VersionDirective
	tagDirectives []yamlh.TagDirective

	anchors      map[*Node]string
	serialized   map[*Node]bool
	represented  map[*Node]*Node
	lastAnchorID int
}

func (s *serializer) open() error {
	return s.emitter.Emit(yamlh.Event{Type: yamlh.StreamStartEvent})
}

func (s *serializer) close() error {
	return s.emitter.Emit(yamlh.Event{Type: yamlh.StreamEndEvent})
}

func (s *serializer) serialize(root *Node) error {
	if root == nil {
		root = NullNode()
	}
	s.anchors = make(map[*Node]string)
	s.serialized = make(map[*Node]bool)
	if s.represented == nil {
		s.represented = make(map[*Node]*Node)
	}

	root, err := s.representNode(root)
	if err != nil {
		return err
	}
	if err := s.assignAnchors(root, make(map[*Node]bool)); err != nil {
		return err
	}

	if err := s.emitter.Emit(yamlh.Event{
		Type:          yamlh.DocumentStartEvent,
		Explicit:      s.explicitStart,
		Version:       s.version,
		TagDirectives: s.tagDirectives,
	}); err != nil {
		return err
	}
	if err := s.serializeNode(root); err != nil {
		return err
	}
	return s.emitter.Emit(yamlh.Event{
		Type:     yamlh.DocumentEndEvent,
		Explicit: s.explicitEnd,
	})
}

// representNode replaces a user node with its plain representation,
// cached by identity so anchors stay stable.
func (s *serializer) representNode(n *Node) (*Node, error) {
	if n.Kind() != UserKind {
		return n, nil
	}
	if r, ok := s.represented[n]; ok {
		return r, nil
	}
	if s.representer == nil {
		return nil, &yamlh.EmitterError{Problem: fmt.Sprintf("cannot serialize user value %v without a representer", n.user)}
	}
	r, err := s.representer.Represent(n.user)
	if err != nil {
		return nil, &yamlh.EmitterError{Problem: "cannot represent user value: " + err.Error()}
	}
	if r.Tag == "" {
		r.Tag = n.Tag
	}
	s.represented[n] = r
	return r, nil
}

// assignAnchors gives every node reached twice an auto-generated anchor,
// except small scalars where an alias would enlarge the output.
func (s *serializer) assignAnchors(n *Node, seen map[*Node]bool) error {
	n, err := s.representNode(n)
	if err != nil {
		return err
	}
	if seen[n] {
		if _, ok := s.anchors[n]; !ok && s.anchorWorthwhile(n) {
			s.lastAnchorID++
			s.anchors[n] = fmt.Sprintf("id%03d", s.lastAnchorID)
		}
		return nil
	}
	seen[n] = true
	switch n.Kind() {
	case SequenceKind:
		for _, item := range n.Items() {
			if err := s.assignAnchors(item, seen); err != nil {
				return err
			}
		}
	case MappingKind:
		for _, p := range n.Pairs() {
			if err := s.assignAnchors(p.Key, seen); err != nil {
				return err
			}
			if err := s.assignAnchors(p.Value, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *serializer) anchorWorthwhile(n *Node) bool {
	switch n.Kind() {
	case SequenceKind, MappingKind:
		return true
	default:
		value, _ := s.scalarString(n)
		return len(value) > anchorScalarThreshold
	}
}

func (s *serializer) serializeNode(n *Node) error {
	n, err := s.representNode(n)
	if err != nil {
		return err
	}

	anchor := s.anchors[n]
	if anchor != "" && s.serialized[n] {
		return s.emitter.Emit(yamlh.Event{Type: yamlh.AliasEvent, Anchor: anchor})
	}
	s.serialized[n] = true

	switch n.Kind() {
	case SequenceKind:
		return s.serializeSequence(n, anchor)
	case MappingKind:
		if n.Tag == yamlh.OmapTag || n.Tag == yamlh.PairsTag {
			return s.serializeKeyedSequence(n, anchor)
		}
		return s.serializeMapping(n, anchor)
	default:
		return s.serializeScalar(n, anchor)
	}
}

func (s *serializer) serializeScalar(n *Node, anchor string) error {
	value, defaultTag := s.scalarString(n)
	tag := n.Tag
	if tag == "" {
		tag = defaultTag
	}
	detected := s.resolver.Resolve(resolve.ScalarKind, "", value, true)
	return s.emitter.Emit(yamlh.Event{
		Type:           yamlh.ScalarEvent,
		Anchor:         anchor,
		Tag:            tag,
		Value:          value,
		Implicit:       tag == detected,
		QuotedImplicit: tag == yamlh.StrTag,
		ScalarStyle:    n.ScalarStyle,
	})
}

func (s *serializer) serializeSequence(n *Node, anchor string) error {
	tag := n.Tag
	if tag == "" {
		tag = yamlh.SeqTag
	}
	if err := s.emitter.Emit(yamlh.Event{
		Type:            yamlh.SequenceStartEvent,
		Anchor:          anchor,
		Tag:             tag,
		Implicit:        tag == yamlh.SeqTag,
		CollectionStyle: n.CollectionStyle,
	}); err != nil {
		return err
	}
	for _, item := range n.Items() {
		if err := s.serializeNode(item); err != nil {
			return err
		}
	}
	return s.emitter.Emit(yamlh.Event{Type: yamlh.SequenceEndEvent})
}

func (s *serializer) serializeMapping(n *Node, anchor string) error {
	tag := n.Tag
	if tag == "" {
		tag = yamlh.MapTag
	}
	if err := s.emitter.Emit(yamlh.Event{
		Type:            yamlh.MappingStartEvent,
		Anchor:          anchor,
		Tag:             tag,
		Implicit:        tag == yamlh.MapTag,
		CollectionStyle: n.CollectionStyle,
	}); err != nil {
		return err
	}
	for _, p := range n.Pairs() {
		if err := s.serializeNode(p.Key); err != nil {
			return err
		}
		if err := s.serializeNode(p.Value); err != nil {
			return err
		}
	}
	return s.emitter.Emit(yamlh.Event{Type: yamlh.MappingEndEvent})
}

// serializeKeyedSequence renders !!omap and !!pairs nodes in their
// canonical shape: a sequence of single-pair mappings.
func (s *serializer) serializeKeyedSequence(n *Node, anchor string) error {
	if err := s.emitter.Emit(yamlh.Event{
		Type:            yamlh.SequenceStartEvent,
		Anchor:          anchor,
		Tag:             n.Tag,
		CollectionStyle: n.CollectionStyle,
	}); err != nil {
		return err
	}
	for _, p := range n.Pairs() {
		if err := s.emitter.Emit(yamlh.Event{
			Type:     yamlh.MappingStartEvent,
			Tag:      yamlh.MapTag,
			Implicit: true,
		}); err != nil {
			return err
		}
		if err := s.serializeNode(p.Key); err != nil {
			return err
		}
		if err := s.serializeNode(p.Value); err != nil {
			return err
		}
		if err := s.emitter.Emit(yamlh.Event{Type: yamlh.MappingEndEvent}); err != nil {
			return err
		}
	}
	return s.emitter.Emit(yamlh.Event{Type: yamlh.SequenceEndEvent})
}

// scalarString renders a scalar node's canonical text and the tag of its
// kind.
func (s *serializer) scalarString(n *Node) (value, tag string) {
	switch n.Kind() {
	case NullKind:
		return "null", yamlh.NullTag
	case BoolKind:
		if n.boolV {
			return "true", yamlh.BoolTag
		}
		return "false", yamlh.BoolTag
	case IntKind:
		return strconv.FormatInt(n.intV, 10), yamlh.IntTag
	case FloatKind:
		return encodeFloat(n.floatV), yamlh.FloatTag
	case StringKind:
		return n.strV, yamlh.StrTag
	case BinaryKind:
		return base64.StdEncoding.EncodeToString(n.binV), yamlh.BinaryTag
	case TimestampKind:
		return encodeTimestamp(n.timeV), yamlh.TimestampTag
	}
	return "", yamlh.StrTag
}

// encodeFloat renders a float so it resolves back to !!float: always
// with a decimal point or one of the special forms.
func encodeFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	v := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.Contains(v, ".") {
		if i := strings.IndexAny(v, "eE"); i >= 0 {
			v = v[:i] + ".0" + v[i:]
		} else {
			v += ".0"
		}
	}
	return v
}

func encodeTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.999999999Z07:00")
}
