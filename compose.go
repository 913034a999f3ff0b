package yaml

import (
	"fmt"

	"github.com/yamlkit/yaml/internal/parserc"
	"github.com/yamlkit/yaml/internal/resolve"
	"github.com/yamlkit/yaml/internal/yamlh"
)

// composer stitches parser events into a node tree: it resolves tags,
// runs constructors, tracks anchors, and flattens merge keys.
type composer struct {
	parser      *parserc.Parser
	resolver    *resolve.Resolver
	constructor *Constructor

	// anchors maps names to finished nodes; a node still being composed
	// is held as the inProgress sentinel so aliases into it are caught.
	anchors map[string]*Node
}

// inProgress marks an anchor whose node is still being composed.
var inProgress = &Node{}

func newComposer(p *parserc.Parser, r *resolve.Resolver, c *Constructor) *composer {
	return &composer{parser: p, resolver: r, constructor: c}
}

// composeDocument consumes DOCUMENT-START through DOCUMENT-END and
// returns the document's root node. The anchor table is per-document.
func (c *composer) composeDocument() (*Node, error) {
	ev, err := c.parser.Next()
	if err != nil {
		return nil, err
	}
	if ev.Type != yamlh.DocumentStartEvent {
		return nil, c.composerError("", yamlh.Mark{},
			fmt.Sprintf("expected document start, got %v", ev.Type), ev.Start)
	}

	c.anchors = make(map[string]*Node)
	root, err := c.composeNode()
	if err != nil {
		return nil, err
	}

	ev, err = c.parser.Next()
	if err != nil {
		return nil, err
	}
	if ev.Type != yamlh.DocumentEndEvent {
		return nil, c.composerError("", yamlh.Mark{},
			fmt.Sprintf("expected document end, got %v", ev.Type), ev.Start)
	}
	return root, nil
}

func (c *composer) composerError(context string, contextMark yamlh.Mark, problem string, problemMark yamlh.Mark) error {
	return &yamlh.ComposerError{
		Context:     context,
		ContextMark: contextMark,
		Problem:     problem,
		ProblemMark: problemMark,
	}
}

func (c *composer) composeNode() (*Node, error) {
	ev, err := c.parser.Next()
	if err != nil {
		return nil, err
	}
	switch ev.Type {
	case yamlh.AliasEvent:
		n, ok := c.anchors[ev.Anchor]
		if !ok {
			return nil, c.composerError("", yamlh.Mark{},
				fmt.Sprintf("found undefined alias %q", ev.Anchor), ev.Start)
		}
		if n == inProgress {
			return nil, c.composerError("", yamlh.Mark{},
				fmt.Sprintf("found recursive alias %q", ev.Anchor), ev.Start)
		}
		return n, nil
	case yamlh.ScalarEvent:
		return c.composeScalar(&ev)
	case yamlh.SequenceStartEvent:
		return c.composeSequence(&ev)
	case yamlh.MappingStartEvent:
		return c.composeMapping(&ev)
	}
	return nil, c.composerError("", yamlh.Mark{},
		fmt.Sprintf("expected a node, got %v", ev.Type), ev.Start)
}

// reserveAnchor claims an anchor name before its node is composed.
func (c *composer) reserveAnchor(name string, mark yamlh.Mark) error {
	if name == "" {
		return nil
	}
	if _, ok := c.anchors[name]; ok {
		return c.composerError("", yamlh.Mark{},
			fmt.Sprintf("found duplicate anchor %q", name), mark)
	}
	c.anchors[name] = inProgress
	return nil
}

func (c *composer) bindAnchor(name string, n *Node) {
	if name != "" {
		c.anchors[name] = n
	}
}

func (c *composer) composeScalar(ev *yamlh.Event) (*Node, error) {
	if err := c.reserveAnchor(ev.Anchor, ev.Start); err != nil {
		return nil, err
	}

	tag := c.resolver.Resolve(resolve.ScalarKind, ev.Tag, ev.Value, ev.Implicit)
	n, err := c.constructor.constructScalar(tag, ev.Value)
	if err != nil {
		return nil, &yamlh.ConstructorError{
			Problem:     fmt.Sprintf("cannot construct %s", tag),
			ProblemMark: ev.Start,
			Err:         err,
		}
	}
	if ev.Tag != "" && ev.Tag != yamlh.NonSpecificTag {
		n.Tag = ev.Tag
	}
	n.ScalarStyle = ev.ScalarStyle
	n.mark = ev.Start

	c.bindAnchor(ev.Anchor, n)
	return n, nil
}

func (c *composer) composeSequence(ev *yamlh.Event) (*Node, error) {
	if err := c.reserveAnchor(ev.Anchor, ev.Start); err != nil {
		return nil, err
	}

	var items []*Node
	for {
		next, err := c.parser.Peek()
		if err != nil {
			return nil, err
		}
		if next.Type == yamlh.SequenceEndEvent {
			if _, err := c.parser.Next(); err != nil {
				return nil, err
			}
			break
		}
		item, err := c.composeNode()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	tag := c.resolver.Resolve(resolve.SequenceKind, ev.Tag, "", ev.Implicit)
	n, err := c.constructor.constructSequence(tag, items)
	if err != nil {
		return nil, &yamlh.ConstructorError{
			Problem:     fmt.Sprintf("cannot construct %s", tag),
			ProblemMark: ev.Start,
			Err:         err,
		}
	}
	if ev.Tag != "" && ev.Tag != yamlh.NonSpecificTag {
		n.Tag = ev.Tag
	}
	n.CollectionStyle = ev.CollectionStyle
	n.mark = ev.Start

	c.bindAnchor(ev.Anchor, n)
	return n, nil
}

func (c *composer) composeMapping(ev *yamlh.Event) (*Node, error) {
	if err := c.reserveAnchor(ev.Anchor, ev.Start); err != nil {
		return nil, err
	}

	tag := c.resolver.Resolve(resolve.MappingKind, ev.Tag, "", ev.Implicit)
	checkDuplicates := tag == yamlh.MapTag || tag == yamlh.SetTag || tag == yamlh.OmapTag

	type mergeSource struct {
		node *Node
		mark yamlh.Mark
	}
	var pairs []Pair
	var merges []mergeSource

	for {
		next, err := c.parser.Peek()
		if err != nil {
			return nil, err
		}
		if next.Type == yamlh.MappingEndEvent {
			if _, err := c.parser.Next(); err != nil {
				return nil, err
			}
			break
		}

		// A merge key defers its value until all explicit pairs are in.
		if next.Type == yamlh.ScalarEvent &&
			c.resolver.Resolve(resolve.ScalarKind, next.Tag, next.Value, next.Implicit) == yamlh.MergeTag {
			keyEv, err := c.parser.Next()
			if err != nil {
				return nil, err
			}
			value, err := c.composeNode()
			if err != nil {
				return nil, err
			}
			merges = append(merges, mergeSource{node: value, mark: keyEv.Start})
			continue
		}

		key, err := c.composeNode()
		if err != nil {
			return nil, err
		}
		value, err := c.composeNode()
		if err != nil {
			return nil, err
		}
		if checkDuplicates && containsKey(pairs, key) {
			return nil, c.composerError("while composing a mapping", ev.Start,
				fmt.Sprintf("found duplicate key %s", key), key.mark)
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}

	// Flatten the deferred merges: explicit keys win over merged ones,
	// earlier sources over later.
	for _, m := range merges {
		var err error
		pairs, err = c.mergeInto(pairs, m.node, ev.Start, m.mark)
		if err != nil {
			return nil, err
		}
	}

	n, err := c.constructor.constructMapping(tag, pairs)
	if err != nil {
		return nil, &yamlh.ConstructorError{
			Problem:     fmt.Sprintf("cannot construct %s", tag),
			ProblemMark: ev.Start,
			Err:         err,
		}
	}
	if ev.Tag != "" && ev.Tag != yamlh.NonSpecificTag {
		n.Tag = ev.Tag
	}
	n.CollectionStyle = ev.CollectionStyle
	n.mark = ev.Start

	c.bindAnchor(ev.Anchor, n)
	return n, nil
}

// mergeInto appends the absent keys of a merge source: a mapping, or a
// sequence of mappings flattened recursively.
func (c *composer) mergeInto(pairs []Pair, source *Node, contextMark, mark yamlh.Mark) ([]Pair, error) {
	switch source.Kind() {
	case MappingKind:
		for _, p := range source.Pairs() {
			if !containsKey(pairs, p.Key) {
				pairs = append(pairs, p)
			}
		}
		return pairs, nil
	case SequenceKind:
		var err error
		for _, item := range source.Items() {
			if item.Kind() != MappingKind {
				return nil, c.composerError("while composing a mapping", contextMark,
					"map merge requires map or sequence of maps as the value", mark)
			}
			pairs, err = c.mergeInto(pairs, item, contextMark, mark)
			if err != nil {
				return nil, err
			}
		}
		return pairs, nil
	}
	return nil, c.composerError("while composing a mapping", contextMark,
		"map merge requires map or sequence of maps as the value", mark)
}

func containsKey(pairs []Pair, key *Node) bool {
	for _, p := range pairs {
		if p.Key.Equal(key) {
			return true
		}
	}
	return false
}
