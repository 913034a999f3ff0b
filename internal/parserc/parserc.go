//
// Copyright (c) 2011-2019 Canonical Ltd
// Copyright (c) 2006-2010 Kirill Simonov
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package parserc

import (
	"fmt"

	"github.com/yamlkit/yaml/internal/common"
	"github.com/yamlkit/yaml/internal/yamlh"
)

// The parser implements the following grammar:
//
//	stream              ::= STREAM-START implicit_document? explicit_document* STREAM-END
//	implicit_document   ::= block_node DOCUMENT-END*
//	explicit_document   ::= DIRECTIVE* DOCUMENT-START block_node? DOCUMENT-END*
//	block_node_or_indentless_sequence ::=
//	                        ALIAS
//	                        | properties (block_content | indentless_block_sequence)?
//	                        | block_content
//	                        | indentless_block_sequence
//	block_node          ::= ALIAS | properties block_content? | block_content
//	flow_node           ::= ALIAS | properties flow_content? | flow_content
//	properties          ::= TAG ANCHOR? | ANCHOR TAG?
//	block_content       ::= block_collection | flow_collection | SCALAR
//	flow_content        ::= flow_collection | SCALAR
//	block_collection    ::= block_sequence | block_mapping
//	flow_collection     ::= flow_sequence | flow_mapping
//	block_sequence      ::= BLOCK-SEQUENCE-START (BLOCK-ENTRY block_node?)* BLOCK-END
//	indentless_sequence ::= (BLOCK-ENTRY block_node?)+
//	block_mapping       ::= BLOCK-MAPPING_START
//	                        ((KEY block_node_or_indentless_sequence?)?
//	                        (VALUE block_node_or_indentless_sequence?)?)*
//	                        BLOCK-END
//	flow_sequence       ::= FLOW-SEQUENCE-START
//	                        (flow_sequence_entry FLOW-ENTRY)*
//	                        flow_sequence_entry?
//	                        FLOW-SEQUENCE-END
//	flow_sequence_entry ::= flow_node | KEY flow_node? (VALUE flow_node?)?
//	flow_mapping        ::= FLOW-MAPPING-START
//	                        (flow_mapping_entry FLOW-ENTRY)*
//	                        flow_mapping_entry?
//	                        FLOW-MAPPING-END
//	flow_mapping_entry  ::= flow_node | KEY flow_node? (VALUE flow_node?)?

type parserState int8

const (
	parseStreamStartState parserState = iota

	parseImplicitDocumentStartState // expect the beginning of an implicit document
	parseDocumentStartState         // expect DOCUMENT-START
	parseDocumentContentState       // expect the content of a document
	parseDocumentEndState           // expect DOCUMENT-END

	parseBlockNodeState                         // expect a block node
	parseBlockNodeOrIndentlessSequenceState     // expect a block node or an indentless sequence
	parseFlowNodeState                          // expect a flow node
	parseBlockSequenceFirstEntryState           // expect the first entry of a block sequence
	parseBlockSequenceEntryState                // expect an entry of a block sequence
	parseIndentlessSequenceEntryState           // expect an entry of an indentless sequence
	parseBlockMappingFirstKeyState              // expect the first key of a block mapping
	parseBlockMappingKeyState                   // expect a key of a block mapping
	parseBlockMappingValueState                 // expect a value of a block mapping
	parseFlowSequenceFirstEntryState            // expect the first entry of a flow sequence
	parseFlowSequenceEntryState                 // expect an entry of a flow sequence
	parseFlowSequenceEntryMappingKeyState       // expect a key of an ordered mapping
	parseFlowSequenceEntryMappingValueState     // expect a value of an ordered mapping
	parseFlowSequenceEntryMappingEndState       // expect the end of an ordered mapping entry
	parseFlowMappingFirstKeyState               // expect the first key of a flow mapping
	parseFlowMappingKeyState                    // expect a key of a flow mapping
	parseFlowMappingValueState                  // expect a value of a flow mapping
	parseFlowMappingEmptyValueState             // expect an empty value of a flow mapping
	parseEndState                   parserState = -1
)

// Parser turns the token stream into an event stream. It keeps an
// explicit stack of grammar states so a collection context can be
// re-entered after a nested node is done.
type Parser struct {
	scanner *Scanner

	state  parserState
	states []parserState
	marks  []yamlh.Mark

	// Directives accumulated for the next document. tagDirectives is the
	// in-force set (explicit plus defaults); explicitDirectives is what
	// the DOCUMENT-START event carries.
	version            *yamlh.VersionDirective
	tagDirectives      []yamlh.TagDirective
	explicitDirectives []yamlh.TagDirective

	peeked    *yamlh.Event
	streamEnd bool
}

// NewParser returns a parser over the scanner's tokens.
func NewParser(s *Scanner) *Parser {
	return &Parser{scanner: s, state: parseStreamStartState}
}

// NewParserBytes is a convenience constructing the reader and scanner.
func NewParserBytes(input []byte) (*Parser, error) {
	r, err := NewReader(input)
	if err != nil {
		return nil, err
	}
	return NewParser(NewScanner(r)), nil
}

// Peek returns the next event without consuming it.
func (p *Parser) Peek() (*yamlh.Event, error) {
	if p.peeked == nil {
		e, err := p.next()
		if err != nil {
			return nil, err
		}
		p.peeked = &e
	}
	return p.peeked, nil
}

// Next consumes and returns the next event.
func (p *Parser) Next() (yamlh.Event, error) {
	if p.peeked != nil {
		e := *p.peeked
		p.peeked = nil
		return e, nil
	}
	return p.next()
}

// Done reports whether the STREAM-END event was produced.
func (p *Parser) Done() bool { return p.streamEnd && p.peeked == nil }

func (p *Parser) next() (yamlh.Event, error) {
	switch p.state {
	case parseStreamStartState:
		return p.parseStreamStart()
	case parseImplicitDocumentStartState:
		return p.parseDocumentStart(true)
	case parseDocumentStartState:
		return p.parseDocumentStart(false)
	case parseDocumentContentState:
		return p.parseDocumentContent()
	case parseDocumentEndState:
		return p.parseDocumentEnd()
	case parseBlockNodeState:
		return p.parseNode(true, false)
	case parseBlockNodeOrIndentlessSequenceState:
		return p.parseNode(true, true)
	case parseFlowNodeState:
		return p.parseNode(false, false)
	case parseBlockSequenceFirstEntryState:
		return p.parseBlockSequenceEntry(true)
	case parseBlockSequenceEntryState:
		return p.parseBlockSequenceEntry(false)
	case parseIndentlessSequenceEntryState:
		return p.parseIndentlessSequenceEntry()
	case parseBlockMappingFirstKeyState:
		return p.parseBlockMappingKey(true)
	case parseBlockMappingKeyState:
		return p.parseBlockMappingKey(false)
	case parseBlockMappingValueState:
		return p.parseBlockMappingValue()
	case parseFlowSequenceFirstEntryState:
		return p.parseFlowSequenceEntry(true)
	case parseFlowSequenceEntryState:
		return p.parseFlowSequenceEntry(false)
	case parseFlowSequenceEntryMappingKeyState:
		return p.parseFlowSequenceEntryMappingKey()
	case parseFlowSequenceEntryMappingValueState:
		return p.parseFlowSequenceEntryMappingValue()
	case parseFlowSequenceEntryMappingEndState:
		return p.parseFlowSequenceEntryMappingEnd()
	case parseFlowMappingFirstKeyState:
		return p.parseFlowMappingKey(true)
	case parseFlowMappingKeyState:
		return p.parseFlowMappingKey(false)
	case parseFlowMappingValueState:
		return p.parseFlowMappingValue(false)
	case parseFlowMappingEmptyValueState:
		return p.parseFlowMappingValue(true)
	}
	return yamlh.Event{}, p.parserError("", yamlh.Mark{}, "no more events", yamlh.Mark{})
}

func (p *Parser) parserError(context string, contextMark yamlh.Mark, problem string, problemMark yamlh.Mark) error {
	return &yamlh.ParserError{
		Context:     context,
		ContextMark: contextMark,
		Problem:     problem,
		ProblemMark: problemMark,
	}
}

func (p *Parser) popState() parserState {
	st := p.states[len(p.states)-1]
	p.states = p.states[:len(p.states)-1]
	return st
}

func (p *Parser) popMark() yamlh.Mark {
	m := p.marks[len(p.marks)-1]
	p.marks = p.marks[:len(p.marks)-1]
	return m
}

// processEmptyScalar produces the event for an omitted node.
func processEmptyScalar(mark yamlh.Mark) yamlh.Event {
	return yamlh.Event{
		Type:        yamlh.ScalarEvent,
		Start:       mark,
		End:         mark,
		Implicit:    true,
		ScalarStyle: yamlh.PlainScalarStyle,
	}
}

func (p *Parser) parseStreamStart() (yamlh.Event, error) {
	tok, err := p.scanner.Pop()
	if err != nil {
		return yamlh.Event{}, err
	}
	if tok.Type != yamlh.StreamStartToken {
		return yamlh.Event{}, p.parserError("", yamlh.Mark{},
			"did not find expected <stream-start>", tok.Start)
	}
	p.state = parseImplicitDocumentStartState
	return yamlh.Event{
		Type:     yamlh.StreamStartEvent,
		Start:    tok.Start,
		End:      tok.End,
		Encoding: tok.Encoding,
	}, nil
}

func (p *Parser) parseDocumentStart(implicit bool) (yamlh.Event, error) {
	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}

	if !implicit {
		for tok.Type == yamlh.DocumentEndToken {
			if _, err := p.scanner.Pop(); err != nil {
				return yamlh.Event{}, err
			}
			if tok, err = p.scanner.Peek(); err != nil {
				return yamlh.Event{}, err
			}
		}
	}

	if implicit &&
		tok.Type != yamlh.VersionDirectiveToken &&
		tok.Type != yamlh.TagDirectiveToken &&
		tok.Type != yamlh.DocumentStartToken &&
		tok.Type != yamlh.StreamEndToken {
		// An implicit document: content with no '---'.
		if err := p.processDirectives(); err != nil {
			return yamlh.Event{}, err
		}
		p.states = append(p.states, parseDocumentEndState)
		p.state = parseBlockNodeState
		return yamlh.Event{
			Type:          yamlh.DocumentStartEvent,
			Start:         tok.Start,
			End:           tok.Start,
			Version:       p.version,
			TagDirectives: p.explicitDirectives,
		}, nil
	}

	if tok.Type == yamlh.StreamEndToken {
		if _, err := p.scanner.Pop(); err != nil {
			return yamlh.Event{}, err
		}
		p.state = parseEndState
		p.streamEnd = true
		return yamlh.Event{Type: yamlh.StreamEndEvent, Start: tok.Start, End: tok.End}, nil
	}

	// An explicit document.
	start := tok.Start
	if err := p.processDirectives(); err != nil {
		return yamlh.Event{}, err
	}
	tok, err = p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}
	if tok.Type != yamlh.DocumentStartToken {
		return yamlh.Event{}, p.parserError("", yamlh.Mark{},
			"did not find expected '---' indicator", tok.Start)
	}
	end := tok.End
	if _, err := p.scanner.Pop(); err != nil {
		return yamlh.Event{}, err
	}
	p.states = append(p.states, parseDocumentEndState)
	p.state = parseDocumentContentState
	return yamlh.Event{
		Type:          yamlh.DocumentStartEvent,
		Start:         start,
		End:           end,
		Version:       p.version,
		TagDirectives: p.explicitDirectives,
		Explicit:      true,
	}, nil
}

// processDirectives accumulates %YAML and %TAG tokens up to the document
// content. Duplicates within one document are rejected; reserved
// directives never reach the parser.
func (p *Parser) processDirectives() error {
	p.version = nil
	p.tagDirectives = nil
	p.explicitDirectives = nil

	for {
		tok, err := p.scanner.Peek()
		if err != nil {
			return err
		}
		switch tok.Type {
		case yamlh.VersionDirectiveToken:
			if p.version != nil {
				return p.parserError("", yamlh.Mark{},
					"found duplicate %YAML directive", tok.Start)
			}
			if tok.Major != 1 {
				return p.parserError("", yamlh.Mark{},
					fmt.Sprintf("found incompatible YAML document version %d.%d", tok.Major, tok.Minor),
					tok.Start)
			}
			// Any 1.x is accepted; only 1.1 semantics are implemented.
			p.version = &yamlh.VersionDirective{Major: tok.Major, Minor: tok.Minor}
		case yamlh.TagDirectiveToken:
			dir := yamlh.TagDirective{Handle: tok.Value, Prefix: tok.Prefix}
			for _, have := range p.explicitDirectives {
				if have.Handle == dir.Handle {
					return p.parserError("", yamlh.Mark{},
						fmt.Sprintf("found duplicate %%TAG directive for handle %q", dir.Handle),
						tok.Start)
				}
			}
			p.explicitDirectives = append(p.explicitDirectives, dir)
		default:
			p.tagDirectives = append([]yamlh.TagDirective(nil), p.explicitDirectives...)
			for _, def := range common.DefaultTagDirectives {
				overridden := false
				for _, have := range p.explicitDirectives {
					if have.Handle == def.Handle {
						overridden = true
						break
					}
				}
				if !overridden {
					p.tagDirectives = append(p.tagDirectives, def)
				}
			}
			return nil
		}
		if _, err := p.scanner.Pop(); err != nil {
			return err
		}
	}
}

func (p *Parser) parseDocumentContent() (yamlh.Event, error) {
	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}
	switch tok.Type {
	case yamlh.VersionDirectiveToken, yamlh.TagDirectiveToken,
		yamlh.DocumentStartToken, yamlh.DocumentEndToken, yamlh.StreamEndToken:
		p.state = p.popState()
		return processEmptyScalar(tok.Start), nil
	}
	return p.parseNode(true, false)
}

func (p *Parser) parseDocumentEnd() (yamlh.Event, error) {
	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}
	start, end := tok.Start, tok.Start
	explicit := false
	if tok.Type == yamlh.DocumentEndToken {
		if _, err := p.scanner.Pop(); err != nil {
			return yamlh.Event{}, err
		}
		end = tok.End
		explicit = true
	}
	p.state = parseDocumentStartState
	return yamlh.Event{
		Type:     yamlh.DocumentEndEvent,
		Start:    start,
		End:      end,
		Explicit: explicit,
	}, nil
}

// resolveTagTokens turns a TAG token's (handle, suffix) into the event
// tag: verbatim URIs pass through, the lone '!' stays non-specific, and
// shorthands expand against the in-force tag directives.
func (p *Parser) resolveTagTokens(tok *yamlh.Token) (string, error) {
	handle, suffix := tok.Value, tok.Suffix
	if handle == "" {
		return suffix, nil
	}
	if handle == "!" && suffix == "" {
		return yamlh.NonSpecificTag, nil
	}
	for _, dir := range p.tagDirectives {
		if dir.Handle == handle {
			return dir.Prefix + suffix, nil
		}
	}
	return "", p.parserError("while parsing a node", tok.Start,
		fmt.Sprintf("found undefined tag handle %q", handle), tok.Start)
}

func (p *Parser) parseNode(block, indentlessSequence bool) (yamlh.Event, error) {
	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}

	if tok.Type == yamlh.AliasToken {
		t, err := p.scanner.Pop()
		if err != nil {
			return yamlh.Event{}, err
		}
		p.state = p.popState()
		return yamlh.Event{
			Type:   yamlh.AliasEvent,
			Start:  t.Start,
			End:    t.End,
			Anchor: t.Value,
		}, nil
	}

	start := tok.Start
	var anchor, tag string
	var tagged bool

	for (tok.Type == yamlh.AnchorToken && anchor == "") ||
		(tok.Type == yamlh.TagToken && !tagged) {
		t, err := p.scanner.Pop()
		if err != nil {
			return yamlh.Event{}, err
		}
		if t.Type == yamlh.AnchorToken {
			anchor = t.Value
		} else {
			if tag, err = p.resolveTagTokens(&t); err != nil {
				return yamlh.Event{}, err
			}
			tagged = true
		}
		if tok, err = p.scanner.Peek(); err != nil {
			return yamlh.Event{}, err
		}
	}

	implicit := tag == "" || tag == yamlh.NonSpecificTag

	if indentlessSequence && tok.Type == yamlh.BlockEntryToken {
		p.state = parseIndentlessSequenceEntryState
		return yamlh.Event{
			Type:            yamlh.SequenceStartEvent,
			Start:           start,
			End:             tok.End,
			Anchor:          anchor,
			Tag:             tag,
			Implicit:        implicit,
			CollectionStyle: yamlh.BlockCollectionStyle,
		}, nil
	}

	switch {
	case tok.Type == yamlh.ScalarToken:
		t, err := p.scanner.Pop()
		if err != nil {
			return yamlh.Event{}, err
		}
		plainImplicit := false
		quotedImplicit := false
		switch {
		case (t.Style == yamlh.PlainScalarStyle && tag == "") || tag == yamlh.NonSpecificTag:
			plainImplicit = true
		case tag == "":
			quotedImplicit = true
		}
		p.state = p.popState()
		return yamlh.Event{
			Type:           yamlh.ScalarEvent,
			Start:          start,
			End:            t.End,
			Anchor:         anchor,
			Tag:            tag,
			Value:          t.Value,
			Implicit:       plainImplicit,
			QuotedImplicit: quotedImplicit,
			ScalarStyle:    t.Style,
		}, nil

	case tok.Type == yamlh.FlowSequenceStartToken:
		p.state = parseFlowSequenceFirstEntryState
		return yamlh.Event{
			Type:            yamlh.SequenceStartEvent,
			Start:           start,
			End:             tok.End,
			Anchor:          anchor,
			Tag:             tag,
			Implicit:        implicit,
			CollectionStyle: yamlh.FlowCollectionStyle,
		}, nil

	case tok.Type == yamlh.FlowMappingStartToken:
		p.state = parseFlowMappingFirstKeyState
		return yamlh.Event{
			Type:            yamlh.MappingStartEvent,
			Start:           start,
			End:             tok.End,
			Anchor:          anchor,
			Tag:             tag,
			Implicit:        implicit,
			CollectionStyle: yamlh.FlowCollectionStyle,
		}, nil

	case block && tok.Type == yamlh.BlockSequenceStartToken:
		p.state = parseBlockSequenceFirstEntryState
		return yamlh.Event{
			Type:            yamlh.SequenceStartEvent,
			Start:           start,
			End:             tok.End,
			Anchor:          anchor,
			Tag:             tag,
			Implicit:        implicit,
			CollectionStyle: yamlh.BlockCollectionStyle,
		}, nil

	case block && tok.Type == yamlh.BlockMappingStartToken:
		p.state = parseBlockMappingFirstKeyState
		return yamlh.Event{
			Type:            yamlh.MappingStartEvent,
			Start:           start,
			End:             tok.End,
			Anchor:          anchor,
			Tag:             tag,
			Implicit:        implicit,
			CollectionStyle: yamlh.BlockCollectionStyle,
		}, nil

	case anchor != "" || tag != "":
		// A node with properties but no content is an empty scalar.
		p.state = p.popState()
		return yamlh.Event{
			Type:        yamlh.ScalarEvent,
			Start:       start,
			End:         start,
			Anchor:      anchor,
			Tag:         tag,
			Implicit:    implicit,
			ScalarStyle: yamlh.PlainScalarStyle,
		}, nil
	}

	context := "while parsing a flow node"
	if block {
		context = "while parsing a block node"
	}
	return yamlh.Event{}, p.parserError(context, start,
		"did not find expected node content", tok.Start)
}

func (p *Parser) parseBlockSequenceEntry(first bool) (yamlh.Event, error) {
	if first {
		tok, err := p.scanner.Pop() // BLOCK-SEQUENCE-START
		if err != nil {
			return yamlh.Event{}, err
		}
		p.marks = append(p.marks, tok.Start)
	}

	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}

	switch tok.Type {
	case yamlh.BlockEntryToken:
		entry, err := p.scanner.Pop()
		if err != nil {
			return yamlh.Event{}, err
		}
		if tok, err = p.scanner.Peek(); err != nil {
			return yamlh.Event{}, err
		}
		if tok.Type == yamlh.BlockEntryToken || tok.Type == yamlh.BlockEndToken {
			p.state = parseBlockSequenceEntryState
			return processEmptyScalar(entry.End), nil
		}
		p.states = append(p.states, parseBlockSequenceEntryState)
		return p.parseNode(true, false)

	case yamlh.BlockEndToken:
		end, err := p.scanner.Pop()
		if err != nil {
			return yamlh.Event{}, err
		}
		p.state = p.popState()
		p.popMark()
		return yamlh.Event{Type: yamlh.SequenceEndEvent, Start: end.Start, End: end.End}, nil
	}

	return yamlh.Event{}, p.parserError("while parsing a block collection",
		p.marks[len(p.marks)-1], "did not find expected '-' indicator", tok.Start)
}

func (p *Parser) parseIndentlessSequenceEntry() (yamlh.Event, error) {
	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}

	if tok.Type != yamlh.BlockEntryToken {
		p.state = p.popState()
		return yamlh.Event{Type: yamlh.SequenceEndEvent, Start: tok.Start, End: tok.Start}, nil
	}

	entry, err := p.scanner.Pop()
	if err != nil {
		return yamlh.Event{}, err
	}
	if tok, err = p.scanner.Peek(); err != nil {
		return yamlh.Event{}, err
	}
	switch tok.Type {
	case yamlh.BlockEntryToken, yamlh.KeyToken, yamlh.ValueToken, yamlh.BlockEndToken:
		p.state = parseIndentlessSequenceEntryState
		return processEmptyScalar(entry.End), nil
	}
	p.states = append(p.states, parseIndentlessSequenceEntryState)
	return p.parseNode(true, false)
}

func (p *Parser) parseBlockMappingKey(first bool) (yamlh.Event, error) {
	if first {
		tok, err := p.scanner.Pop() // BLOCK-MAPPING-START
		if err != nil {
			return yamlh.Event{}, err
		}
		p.marks = append(p.marks, tok.Start)
	}

	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}

	switch tok.Type {
	case yamlh.KeyToken:
		key, err := p.scanner.Pop()
		if err != nil {
			return yamlh.Event{}, err
		}
		if tok, err = p.scanner.Peek(); err != nil {
			return yamlh.Event{}, err
		}
		switch tok.Type {
		case yamlh.KeyToken, yamlh.ValueToken, yamlh.BlockEndToken:
			p.state = parseBlockMappingValueState
			return processEmptyScalar(key.End), nil
		}
		p.states = append(p.states, parseBlockMappingValueState)
		return p.parseNode(true, true)

	case yamlh.BlockEndToken:
		end, err := p.scanner.Pop()
		if err != nil {
			return yamlh.Event{}, err
		}
		p.state = p.popState()
		p.popMark()
		return yamlh.Event{Type: yamlh.MappingEndEvent, Start: end.Start, End: end.End}, nil
	}

	return yamlh.Event{}, p.parserError("while parsing a block mapping",
		p.marks[len(p.marks)-1], "did not find expected key", tok.Start)
}

func (p *Parser) parseBlockMappingValue() (yamlh.Event, error) {
	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}

	if tok.Type != yamlh.ValueToken {
		p.state = parseBlockMappingKeyState
		return processEmptyScalar(tok.Start), nil
	}

	value, err := p.scanner.Pop()
	if err != nil {
		return yamlh.Event{}, err
	}
	if tok, err = p.scanner.Peek(); err != nil {
		return yamlh.Event{}, err
	}
	switch tok.Type {
	case yamlh.KeyToken, yamlh.ValueToken, yamlh.BlockEndToken:
		p.state = parseBlockMappingKeyState
		return processEmptyScalar(value.End), nil
	}
	p.states = append(p.states, parseBlockMappingKeyState)
	return p.parseNode(true, true)
}

func (p *Parser) parseFlowSequenceEntry(first bool) (yamlh.Event, error) {
	if first {
		tok, err := p.scanner.Pop() // FLOW-SEQUENCE-START
		if err != nil {
			return yamlh.Event{}, err
		}
		p.marks = append(p.marks, tok.Start)
	}

	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}

	if tok.Type != yamlh.FlowSequenceEndToken {
		if !first {
			if tok.Type != yamlh.FlowEntryToken {
				return yamlh.Event{}, p.parserError("while parsing a flow sequence",
					p.marks[len(p.marks)-1], "did not find expected ',' or ']'", tok.Start)
			}
			if _, err := p.scanner.Pop(); err != nil {
				return yamlh.Event{}, err
			}
			if tok, err = p.scanner.Peek(); err != nil {
				return yamlh.Event{}, err
			}
		}

		switch {
		case tok.Type == yamlh.KeyToken:
			// A single flow pair: "[ key: value ]".
			key, err := p.scanner.Pop()
			if err != nil {
				return yamlh.Event{}, err
			}
			p.state = parseFlowSequenceEntryMappingKeyState
			return yamlh.Event{
				Type:            yamlh.MappingStartEvent,
				Start:           key.Start,
				End:             key.End,
				Implicit:        true,
				CollectionStyle: yamlh.FlowCollectionStyle,
			}, nil
		case tok.Type != yamlh.FlowSequenceEndToken:
			p.states = append(p.states, parseFlowSequenceEntryState)
			return p.parseNode(false, false)
		}
	}

	end, err := p.scanner.Pop() // FLOW-SEQUENCE-END
	if err != nil {
		return yamlh.Event{}, err
	}
	p.state = p.popState()
	p.popMark()
	return yamlh.Event{Type: yamlh.SequenceEndEvent, Start: end.Start, End: end.End}, nil
}

func (p *Parser) parseFlowSequenceEntryMappingKey() (yamlh.Event, error) {
	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}
	switch tok.Type {
	case yamlh.ValueToken, yamlh.FlowEntryToken, yamlh.FlowSequenceEndToken:
		p.state = parseFlowSequenceEntryMappingValueState
		return processEmptyScalar(tok.Start), nil
	}
	p.states = append(p.states, parseFlowSequenceEntryMappingValueState)
	return p.parseNode(false, false)
}

func (p *Parser) parseFlowSequenceEntryMappingValue() (yamlh.Event, error) {
	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}
	if tok.Type == yamlh.ValueToken {
		value, err := p.scanner.Pop()
		if err != nil {
			return yamlh.Event{}, err
		}
		if tok, err = p.scanner.Peek(); err != nil {
			return yamlh.Event{}, err
		}
		if tok.Type != yamlh.FlowEntryToken && tok.Type != yamlh.FlowSequenceEndToken {
			p.states = append(p.states, parseFlowSequenceEntryMappingEndState)
			return p.parseNode(false, false)
		}
		p.state = parseFlowSequenceEntryMappingEndState
		return processEmptyScalar(value.End), nil
	}
	p.state = parseFlowSequenceEntryMappingEndState
	return processEmptyScalar(tok.Start), nil
}

func (p *Parser) parseFlowSequenceEntryMappingEnd() (yamlh.Event, error) {
	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}
	p.state = parseFlowSequenceEntryState
	return yamlh.Event{Type: yamlh.MappingEndEvent, Start: tok.Start, End: tok.Start}, nil
}

func (p *Parser) parseFlowMappingKey(first bool) (yamlh.Event, error) {
	if first {
		tok, err := p.scanner.Pop() // FLOW-MAPPING-START
		if err != nil {
			return yamlh.Event{}, err
		}
		p.marks = append(p.marks, tok.Start)
	}

	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}

	if tok.Type != yamlh.FlowMappingEndToken {
		if !first {
			if tok.Type != yamlh.FlowEntryToken {
				return yamlh.Event{}, p.parserError("while parsing a flow mapping",
					p.marks[len(p.marks)-1], "did not find expected ',' or '}'", tok.Start)
			}
			if _, err := p.scanner.Pop(); err != nil {
				return yamlh.Event{}, err
			}
			if tok, err = p.scanner.Peek(); err != nil {
				return yamlh.Event{}, err
			}
		}

		switch {
		case tok.Type == yamlh.KeyToken:
			key, err := p.scanner.Pop()
			if err != nil {
				return yamlh.Event{}, err
			}
			if tok, err = p.scanner.Peek(); err != nil {
				return yamlh.Event{}, err
			}
			switch tok.Type {
			case yamlh.ValueToken, yamlh.FlowEntryToken, yamlh.FlowMappingEndToken:
				p.state = parseFlowMappingValueState
				return processEmptyScalar(key.End), nil
			}
			p.states = append(p.states, parseFlowMappingValueState)
			return p.parseNode(false, false)
		case tok.Type != yamlh.FlowMappingEndToken:
			p.states = append(p.states, parseFlowMappingEmptyValueState)
			return p.parseNode(false, false)
		}
	}

	end, err := p.scanner.Pop() // FLOW-MAPPING-END
	if err != nil {
		return yamlh.Event{}, err
	}
	p.state = p.popState()
	p.popMark()
	return yamlh.Event{Type: yamlh.MappingEndEvent, Start: end.Start, End: end.End}, nil
}

func (p *Parser) parseFlowMappingValue(empty bool) (yamlh.Event, error) {
	tok, err := p.scanner.Peek()
	if err != nil {
		return yamlh.Event{}, err
	}

	if empty {
		p.state = parseFlowMappingKeyState
		return processEmptyScalar(tok.Start), nil
	}

	if tok.Type == yamlh.ValueToken {
		value, err := p.scanner.Pop()
		if err != nil {
			return yamlh.Event{}, err
		}
		if tok, err = p.scanner.Peek(); err != nil {
			return yamlh.Event{}, err
		}
		if tok.Type != yamlh.FlowEntryToken && tok.Type != yamlh.FlowMappingEndToken {
			p.states = append(p.states, parseFlowMappingKeyState)
			return p.parseNode(false, false)
		}
		p.state = parseFlowMappingKeyState
		return processEmptyScalar(value.End), nil
	}

	p.state = parseFlowMappingKeyState
	return processEmptyScalar(tok.Start), nil
}
