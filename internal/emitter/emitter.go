package emitter

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/yamlkit/yaml/internal/common"
	"github.com/yamlkit/yaml/internal/yamlh"
)

type emitterState int8

// The emitter states.
const (
	emitStreamStartState emitterState = iota

	emitFirstDocumentStartState      // expect the first DOCUMENT-START or STREAM-END.
	emitDocumentStartState           // expect DOCUMENT-START or STREAM-END.
	emitDocumentContentState         // expect the content of a document.
	emitDocumentEndState             // expect DOCUMENT-END.
	emitFlowSequenceFirstItemState   // expect the first item of a flow sequence.
	emitFlowSequenceItemState        // expect an item of a flow sequence.
	emitFlowMappingFirstKeyState     // expect the first key of a flow mapping.
	emitFlowMappingKeyState          // expect a key of a flow mapping.
	emitFlowMappingSimpleValueState  // expect a value for a simple key of a flow mapping.
	emitFlowMappingValueState        // expect a value of a flow mapping.
	emitBlockSequenceFirstItemState  // expect the first item of a block sequence.
	emitBlockSequenceItemState       // expect an item of a block sequence.
	emitBlockMappingFirstKeyState    // expect the first key of a block mapping.
	emitBlockMappingKeyState         // expect the key of a block mapping.
	emitBlockMappingSimpleValueState // expect a value for a simple key of a block mapping.
	emitBlockMappingValueState       // expect a value of a block mapping.
	emitEndState                     // expect nothing.
)

// Emitter serializes an event stream as YAML text. Like the parser it is
// driven by a state stack; each incoming event advances the machine once
// enough look-ahead is buffered to settle implicit/explicit choices.
type Emitter struct {
	writer io.Writer

	canonical  bool
	bestIndent int
	bestWidth  int
	lineBreak  yamlh.Break

	state  emitterState
	states []emitterState

	events     []yamlh.Event
	eventsHead int

	indents []int
	indent  int

	flowLevel int

	rootContext      bool
	mappingContext   bool
	simpleKeyContext bool

	line       int
	column     int
	whitespace bool // The last written character was a whitespace.
	indention  bool // The line holds only indentation so far.
	openEnded  bool // The previous document was not explicitly ended.

	tagDirectives []yamlh.TagDirective

	anchorData struct {
		anchor string
		alias  bool
	}
	tagData struct {
		handle string
		suffix string
	}
	scalarData struct {
		value               string
		multiline           bool
		flowPlainAllowed    bool
		blockPlainAllowed   bool
		singleQuotedAllowed bool
		blockAllowed        bool
		style               yamlh.ScalarStyle
	}
}

// New returns an emitter writing to w with the default configuration:
// indent 2, width 80, Unix line breaks.
func New(w io.Writer) *Emitter {
	return &Emitter{
		writer:     w,
		bestIndent: 2,
		bestWidth:  80,
	}
}

// SetCanonical forces flow collections, double-quoted scalars, and
// explicit tags.
func (e *Emitter) SetCanonical(canonical bool) { e.canonical = canonical }

// SetIndent sets the indentation increment. Values outside 2..9 fall
// back to 2.
func (e *Emitter) SetIndent(spaces int) {
	if spaces < 2 || spaces > 9 {
		spaces = 2
	}
	e.bestIndent = spaces
}

// SetWidth sets the preferred line width. Non-positive means unlimited.
func (e *Emitter) SetWidth(width int) {
	if width <= 0 {
		width = 1<<31 - 1
	}
	e.bestWidth = width
}

// SetBreak sets the output line break style.
func (e *Emitter) SetBreak(lineBreak yamlh.Break) { e.lineBreak = lineBreak }

// Emit buffers one event and advances the state machine as far as the
// buffered look-ahead allows.
func (e *Emitter) Emit(event yamlh.Event) error {
	e.events = append(e.events, event)
	for !e.needMoreEvents() {
		ev := &e.events[e.eventsHead]
		if err := e.analyzeEvent(ev); err != nil {
			return err
		}
		if err := e.stateMachine(ev); err != nil {
			return err
		}
		e.eventsHead++
		if e.eventsHead == len(e.events) {
			e.events = e.events[:0]
			e.eventsHead = 0
		}
	}
	return nil
}

// needMoreEvents reports whether the head event must wait for more
// look-ahead: one extra event for DOCUMENT-START, two for SEQUENCE-START,
// three for MAPPING-START, so empty collections and simple keys can be
// detected before anything is written.
func (e *Emitter) needMoreEvents() bool {
	if len(e.events) == e.eventsHead {
		return true
	}
	var accumulate int
	switch e.events[e.eventsHead].Type {
	case yamlh.DocumentStartEvent:
		accumulate = 1
	case yamlh.SequenceStartEvent:
		accumulate = 2
	case yamlh.MappingStartEvent:
		accumulate = 3
	default:
		return false
	}
	if len(e.events)-e.eventsHead > accumulate {
		return false
	}
	level := 0
	for i := e.eventsHead; i < len(e.events); i++ {
		switch e.events[i].Type {
		case yamlh.StreamStartEvent, yamlh.DocumentStartEvent,
			yamlh.SequenceStartEvent, yamlh.MappingStartEvent:
			level++
		case yamlh.StreamEndEvent, yamlh.DocumentEndEvent,
			yamlh.SequenceEndEvent, yamlh.MappingEndEvent:
			level--
		}
		if level == 0 {
			return false
		}
	}
	return true
}

func (e *Emitter) stateMachine(event *yamlh.Event) error {
	switch e.state {
	case emitStreamStartState:
		return e.emitStreamStart(event)
	case emitFirstDocumentStartState:
		return e.emitDocumentStart(event, true)
	case emitDocumentStartState:
		return e.emitDocumentStart(event, false)
	case emitDocumentContentState:
		return e.emitDocumentContent(event)
	case emitDocumentEndState:
		return e.emitDocumentEnd(event)
	case emitFlowSequenceFirstItemState:
		return e.emitFlowSequenceItem(event, true)
	case emitFlowSequenceItemState:
		return e.emitFlowSequenceItem(event, false)
	case emitFlowMappingFirstKeyState:
		return e.emitFlowMappingKey(event, true)
	case emitFlowMappingKeyState:
		return e.emitFlowMappingKey(event, false)
	case emitFlowMappingSimpleValueState:
		return e.emitFlowMappingValue(event, true)
	case emitFlowMappingValueState:
		return e.emitFlowMappingValue(event, false)
	case emitBlockSequenceFirstItemState:
		return e.emitBlockSequenceItem(event, true)
	case emitBlockSequenceItemState:
		return e.emitBlockSequenceItem(event, false)
	case emitBlockMappingFirstKeyState:
		return e.emitBlockMappingKey(event, true)
	case emitBlockMappingKeyState:
		return e.emitBlockMappingKey(event, false)
	case emitBlockMappingSimpleValueState:
		return e.emitBlockMappingValue(event, true)
	case emitBlockMappingValueState:
		return e.emitBlockMappingValue(event, false)
	case emitEndState:
		return &yamlh.EmitterError{Problem: "expected nothing after STREAM-END"}
	}
	panic("invalid emitter state")
}

func (e *Emitter) popState() emitterState {
	st := e.states[len(e.states)-1]
	e.states = e.states[:len(e.states)-1]
	return st
}

func (e *Emitter) popIndent() {
	e.indent = e.indents[len(e.indents)-1]
	e.indents = e.indents[:len(e.indents)-1]
}

// increaseIndent pushes the current indentation level: 0 for the block
// root, bestIndent inside flow, current+bestIndent for nested block.
func (e *Emitter) increaseIndent(flow, indentless bool) {
	e.indents = append(e.indents, e.indent)
	if e.indent < 0 {
		if flow {
			e.indent = e.bestIndent
		} else {
			e.indent = 0
		}
	} else if !indentless {
		e.indent += e.bestIndent
	}
}

func (e *Emitter) emitStreamStart(event *yamlh.Event) error {
	if event.Type != yamlh.StreamStartEvent {
		return &yamlh.EmitterError{Problem: "expected STREAM-START"}
	}
	e.indent = -1
	e.line = 0
	e.column = 0
	e.whitespace = true
	e.indention = true
	e.state = emitFirstDocumentStartState
	return nil
}

func (e *Emitter) emitDocumentStart(event *yamlh.Event, first bool) error {
	switch event.Type {
	case yamlh.DocumentStartEvent:
	case yamlh.StreamEndEvent:
		if e.openEnded {
			if err := e.writeIndicator("...", true, false, false); err != nil {
				return err
			}
			if err := e.writeIndent(); err != nil {
				return err
			}
			e.openEnded = false
		}
		e.state = emitEndState
		return nil
	default:
		return &yamlh.EmitterError{Problem: "expected DOCUMENT-START or STREAM-END"}
	}

	if event.Version != nil {
		if err := analyzeVersionDirective(event.Version); err != nil {
			return err
		}
	}
	e.tagDirectives = e.tagDirectives[:0]
	for i := range event.TagDirectives {
		dir := event.TagDirectives[i]
		if err := analyzeTagDirective(dir); err != nil {
			return err
		}
		if err := e.appendTagDirective(dir, false); err != nil {
			return err
		}
	}
	for _, dir := range common.DefaultTagDirectives {
		if err := e.appendTagDirective(dir, true); err != nil {
			return err
		}
	}

	explicit := event.Explicit
	if !first || e.canonical {
		explicit = true
	}

	if e.openEnded && (event.Version != nil || len(event.TagDirectives) > 0) {
		// Directives of the next document may not follow unterminated
		// content.
		if err := e.writeIndicator("...", true, false, false); err != nil {
			return err
		}
		if err := e.writeIndent(); err != nil {
			return err
		}
		e.openEnded = false
	}

	if event.Version != nil {
		explicit = true
		directive := fmt.Sprintf("%%YAML %d.%d", event.Version.Major, event.Version.Minor)
		if err := e.writeIndicator(directive, true, false, false); err != nil {
			return err
		}
		if err := e.writeIndent(); err != nil {
			return err
		}
	}

	if len(event.TagDirectives) > 0 {
		explicit = true
		for _, dir := range event.TagDirectives {
			if err := e.writeIndicator("%TAG", true, false, false); err != nil {
				return err
			}
			if err := e.writeTagHandle(dir.Handle); err != nil {
				return err
			}
			if err := e.writeTagContent(dir.Prefix, true); err != nil {
				return err
			}
			if err := e.writeIndent(); err != nil {
				return err
			}
		}
	}

	if explicit {
		if err := e.writeIndent(); err != nil {
			return err
		}
		if err := e.writeIndicator("---", true, false, false); err != nil {
			return err
		}
		if e.canonical {
			if err := e.writeIndent(); err != nil {
				return err
			}
		}
	}

	e.state = emitDocumentContentState
	return nil
}

func (e *Emitter) emitDocumentContent(event *yamlh.Event) error {
	e.states = append(e.states, emitDocumentEndState)
	return e.emitNode(event, true, false, false)
}

func (e *Emitter) emitDocumentEnd(event *yamlh.Event) error {
	if event.Type != yamlh.DocumentEndEvent {
		return &yamlh.EmitterError{Problem: "expected DOCUMENT-END"}
	}
	if err := e.writeIndent(); err != nil {
		return err
	}
	if event.Explicit {
		if err := e.writeIndicator("...", true, false, false); err != nil {
			return err
		}
		if err := e.writeIndent(); err != nil {
			return err
		}
	}
	e.state = emitDocumentStartState
	e.tagDirectives = e.tagDirectives[:0]
	return nil
}

func (e *Emitter) emitNode(event *yamlh.Event, root, mapping, simpleKey bool) error {
	e.rootContext = root
	e.mappingContext = mapping
	e.simpleKeyContext = simpleKey

	switch event.Type {
	case yamlh.AliasEvent:
		return e.emitAlias(event)
	case yamlh.ScalarEvent:
		return e.emitScalar(event)
	case yamlh.SequenceStartEvent:
		return e.emitSequenceStart(event)
	case yamlh.MappingStartEvent:
		return e.emitMappingStart(event)
	}
	return &yamlh.EmitterError{
		Problem: fmt.Sprintf("expected SCALAR, SEQUENCE-START, MAPPING-START, or ALIAS, but got %v", event.Type),
	}
}

func (e *Emitter) emitAlias(event *yamlh.Event) error {
	if err := e.processAnchor(); err != nil {
		return err
	}
	e.state = e.popState()
	return nil
}

func (e *Emitter) emitScalar(event *yamlh.Event) error {
	if err := e.selectScalarStyle(event); err != nil {
		return err
	}
	if err := e.processAnchor(); err != nil {
		return err
	}
	if err := e.processTag(); err != nil {
		return err
	}
	e.increaseIndent(true, false)
	if err := e.processScalar(); err != nil {
		return err
	}
	e.popIndent()
	e.state = e.popState()
	return nil
}

func (e *Emitter) emitSequenceStart(event *yamlh.Event) error {
	if err := e.processAnchor(); err != nil {
		return err
	}
	if err := e.processTag(); err != nil {
		return err
	}
	if e.flowLevel > 0 || e.canonical ||
		event.CollectionStyle == yamlh.FlowCollectionStyle || e.checkEmptySequence() {
		e.state = emitFlowSequenceFirstItemState
	} else {
		e.state = emitBlockSequenceFirstItemState
	}
	return nil
}

func (e *Emitter) emitMappingStart(event *yamlh.Event) error {
	if err := e.processAnchor(); err != nil {
		return err
	}
	if err := e.processTag(); err != nil {
		return err
	}
	if e.flowLevel > 0 || e.canonical ||
		event.CollectionStyle == yamlh.FlowCollectionStyle || e.checkEmptyMapping() {
		e.state = emitFlowMappingFirstKeyState
	} else {
		e.state = emitBlockMappingFirstKeyState
	}
	return nil
}

func (e *Emitter) emitFlowSequenceItem(event *yamlh.Event, first bool) error {
	if first {
		if err := e.writeIndicator("[", true, true, false); err != nil {
			return err
		}
		e.increaseIndent(true, false)
		e.flowLevel++
	}

	if event.Type == yamlh.SequenceEndEvent {
		e.flowLevel--
		e.popIndent()
		if e.canonical && !first {
			if err := e.writeIndicator(",", false, false, false); err != nil {
				return err
			}
			if err := e.writeIndent(); err != nil {
				return err
			}
		}
		if err := e.writeIndicator("]", false, false, false); err != nil {
			return err
		}
		e.state = e.popState()
		return nil
	}

	if !first {
		if err := e.writeIndicator(",", false, false, false); err != nil {
			return err
		}
	}
	if e.canonical || e.column > e.bestWidth {
		if err := e.writeIndent(); err != nil {
			return err
		}
	}
	e.states = append(e.states, emitFlowSequenceItemState)
	return e.emitNode(event, false, false, false)
}

func (e *Emitter) emitFlowMappingKey(event *yamlh.Event, first bool) error {
	if first {
		if err := e.writeIndicator("{", true, true, false); err != nil {
			return err
		}
		e.increaseIndent(true, false)
		e.flowLevel++
	}

	if event.Type == yamlh.MappingEndEvent {
		e.flowLevel--
		e.popIndent()
		if e.canonical && !first {
			if err := e.writeIndicator(",", false, false, false); err != nil {
				return err
			}
			if err := e.writeIndent(); err != nil {
				return err
			}
		}
		if err := e.writeIndicator("}", false, false, false); err != nil {
			return err
		}
		e.state = e.popState()
		return nil
	}

	if !first {
		if err := e.writeIndicator(",", false, false, false); err != nil {
			return err
		}
	}
	if e.canonical || e.column > e.bestWidth {
		if err := e.writeIndent(); err != nil {
			return err
		}
	}

	if !e.canonical && e.checkSimpleKey() {
		e.states = append(e.states, emitFlowMappingSimpleValueState)
		return e.emitNode(event, false, true, true)
	}
	if err := e.writeIndicator("?", true, false, false); err != nil {
		return err
	}
	e.states = append(e.states, emitFlowMappingValueState)
	return e.emitNode(event, false, true, false)
}

func (e *Emitter) emitFlowMappingValue(event *yamlh.Event, simple bool) error {
	if simple {
		if err := e.writeIndicator(":", false, false, false); err != nil {
			return err
		}
	} else {
		if e.canonical || e.column > e.bestWidth {
			if err := e.writeIndent(); err != nil {
				return err
			}
		}
		if err := e.writeIndicator(":", true, false, false); err != nil {
			return err
		}
	}
	e.states = append(e.states, emitFlowMappingKeyState)
	return e.emitNode(event, false, true, false)
}

func (e *Emitter) emitBlockSequenceItem(event *yamlh.Event, first bool) error {
	if first {
		// An indentless sequence nests directly under its mapping key.
		e.increaseIndent(false, e.mappingContext && !e.indention)
	}

	if event.Type == yamlh.SequenceEndEvent {
		e.popIndent()
		e.state = e.popState()
		return nil
	}

	if err := e.writeIndent(); err != nil {
		return err
	}
	if err := e.writeIndicator("-", true, false, true); err != nil {
		return err
	}
	e.states = append(e.states, emitBlockSequenceItemState)
	return e.emitNode(event, false, false, false)
}

func (e *Emitter) emitBlockMappingKey(event *yamlh.Event, first bool) error {
	if first {
		e.increaseIndent(false, false)
	}

	if event.Type == yamlh.MappingEndEvent {
		e.popIndent()
		e.state = e.popState()
		return nil
	}

	if err := e.writeIndent(); err != nil {
		return err
	}
	if e.checkSimpleKey() {
		e.states = append(e.states, emitBlockMappingSimpleValueState)
		return e.emitNode(event, false, true, true)
	}
	if err := e.writeIndicator("?", true, false, true); err != nil {
		return err
	}
	e.states = append(e.states, emitBlockMappingValueState)
	return e.emitNode(event, false, true, false)
}

func (e *Emitter) emitBlockMappingValue(event *yamlh.Event, simple bool) error {
	if simple {
		if err := e.writeIndicator(":", false, false, false); err != nil {
			return err
		}
	} else {
		if err := e.writeIndent(); err != nil {
			return err
		}
		if err := e.writeIndicator(":", true, false, true); err != nil {
			return err
		}
	}
	e.states = append(e.states, emitBlockMappingKeyState)
	return e.emitNode(event, false, true, false)
}

// checkEmptySequence reports whether the buffered look-ahead shows an
// empty sequence at the head.
func (e *Emitter) checkEmptySequence() bool {
	if len(e.events)-e.eventsHead < 2 {
		return false
	}
	return e.events[e.eventsHead].Type == yamlh.SequenceStartEvent &&
		e.events[e.eventsHead+1].Type == yamlh.SequenceEndEvent
}

func (e *Emitter) checkEmptyMapping() bool {
	if len(e.events)-e.eventsHead < 2 {
		return false
	}
	return e.events[e.eventsHead].Type == yamlh.MappingStartEvent &&
		e.events[e.eventsHead+1].Type == yamlh.MappingEndEvent
}

// checkSimpleKey reports whether the head node fits the simple key form:
// single line and at most 128 characters of properties and content.
func (e *Emitter) checkSimpleKey() bool {
	length := 0
	switch e.events[e.eventsHead].Type {
	case yamlh.AliasEvent:
		length = len(e.anchorData.anchor)
	case yamlh.ScalarEvent:
		if e.scalarData.multiline {
			return false
		}
		length = len(e.anchorData.anchor) +
			len(e.tagData.handle) + len(e.tagData.suffix) +
			len(e.scalarData.value)
	case yamlh.SequenceStartEvent:
		if !e.checkEmptySequence() {
			return false
		}
		length = len(e.anchorData.anchor) + len(e.tagData.handle) + len(e.tagData.suffix)
	case yamlh.MappingStartEvent:
		if !e.checkEmptyMapping() {
			return false
		}
		length = len(e.anchorData.anchor) + len(e.tagData.handle) + len(e.tagData.suffix)
	default:
		return false
	}
	return length <= 128
}

func (e *Emitter) appendTagDirective(dir yamlh.TagDirective, allowDuplicates bool) error {
	for _, have := range e.tagDirectives {
		if have.Handle == dir.Handle {
			if allowDuplicates {
				return nil
			}
			return &yamlh.EmitterError{Problem: "duplicate %TAG directive"}
		}
	}
	e.tagDirectives = append(e.tagDirectives, dir)
	return nil
}

// Low-level output. The column is tracked in runes so the width limit
// applies to what a reader sees.

func (e *Emitter) writeString(s string) error {
	if _, err := io.WriteString(e.writer, s); err != nil {
		return &yamlh.EmitterError{Problem: "write error: " + err.Error()}
	}
	e.column += utf8.RuneCountInString(s)
	return nil
}

func (e *Emitter) writeRune(r rune) error {
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	if _, err := e.writer.Write(buf[:n]); err != nil {
		return &yamlh.EmitterError{Problem: "write error: " + err.Error()}
	}
	e.column++
	return nil
}

// putBreak writes the configured line break.
func (e *Emitter) putBreak() error {
	if _, err := io.WriteString(e.writer, e.lineBreak.String()); err != nil {
		return &yamlh.EmitterError{Problem: "write error: " + err.Error()}
	}
	e.column = 0
	e.line++
	e.indention = true
	return nil
}

// writeBreakRune writes a break character from a scalar value, mapping
// '\n' to the configured break and passing NEL/LS/PS through.
func (e *Emitter) writeBreakRune(r rune) error {
	if r == '\n' {
		return e.putBreak()
	}
	if err := e.writeRune(r); err != nil {
		return err
	}
	e.column = 0
	e.line++
	e.indention = true
	return nil
}
