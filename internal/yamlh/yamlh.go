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

package yamlh

import (
	"fmt"
)

// Mark is a position in the input or output stream. Line and Column are
// 0-based internally and rendered 1-based for diagnostics. Index is the
// rune offset from the start of the stream.
type Mark struct {
	Index  int
	Line   int
	Column int
}

func (m Mark) String() string {
	return fmt.Sprintf("line %d, column %d", m.Line+1, m.Column+1)
}

// VersionDirective is the value of a %YAML directive.
type VersionDirective struct {
	Major int8
	Minor int8
}

// TagDirective is the value of a %TAG directive: a (handle, prefix) pair.
// The handle begins and ends with '!'; the prefix is a URI or another
// handle-like string the emitter may shorten tags against.
type TagDirective struct {
	Handle string
	Prefix string
}

// Encoding of the raw input stream.
type Encoding int

const (
	// Detect the encoding from a BOM or the zero-byte pattern.
	AnyEncoding Encoding = iota

	UTF8Encoding
	UTF16LEEncoding
	UTF16BEEncoding
	UTF32LEEncoding
	UTF32BEEncoding
)

func (e Encoding) String() string {
	switch e {
	case UTF8Encoding:
		return "UTF-8"
	case UTF16LEEncoding:
		return "UTF-16LE"
	case UTF16BEEncoding:
		return "UTF-16BE"
	case UTF32LEEncoding:
		return "UTF-32LE"
	case UTF32BEEncoding:
		return "UTF-32BE"
	}
	return "unknown"
}

// Break is the line break style used on output.
type Break int

const (
	AnyBreak Break = iota

	CRBreak   // Use CR for line breaks (Mac style).
	LNBreak   // Use LN for line breaks (Unix style).
	CRLNBreak // Use CR LN for line breaks (DOS style).
)

// String returns the actual break characters.
func (b Break) String() string {
	switch b {
	case CRBreak:
		return "\r"
	case CRLNBreak:
		return "\r\n"
	default:
		return "\n"
	}
}

// ScalarStyle is the presentation style of a scalar.
type ScalarStyle int8

const (
	// Let the emitter choose the style.
	AnyScalarStyle ScalarStyle = iota

	PlainScalarStyle
	SingleQuotedScalarStyle
	DoubleQuotedScalarStyle
	LiteralScalarStyle
	FoldedScalarStyle
)

func (s ScalarStyle) String() string {
	switch s {
	case PlainScalarStyle:
		return "plain"
	case SingleQuotedScalarStyle:
		return "single-quoted"
	case DoubleQuotedScalarStyle:
		return "double-quoted"
	case LiteralScalarStyle:
		return "literal"
	case FoldedScalarStyle:
		return "folded"
	}
	return "any"
}

// CollectionStyle is the presentation style of a sequence or mapping.
type CollectionStyle int8

const (
	// Let the emitter choose the style.
	AnyCollectionStyle CollectionStyle = iota

	BlockCollectionStyle
	FlowCollectionStyle
)

// TokenType identifies the kind of a scanner token.
type TokenType int8

const (
	NoToken TokenType = iota

	StreamStartToken
	StreamEndToken

	VersionDirectiveToken
	TagDirectiveToken
	DocumentStartToken
	DocumentEndToken

	BlockSequenceStartToken
	BlockMappingStartToken
	BlockEndToken

	FlowSequenceStartToken
	FlowSequenceEndToken
	FlowMappingStartToken
	FlowMappingEndToken

	BlockEntryToken
	FlowEntryToken
	KeyToken
	ValueToken

	AliasToken
	AnchorToken
	TagToken
	ScalarToken
)

var tokenStrings = []string{
	NoToken:                 "none",
	StreamStartToken:        "STREAM-START",
	StreamEndToken:          "STREAM-END",
	VersionDirectiveToken:   "VERSION-DIRECTIVE",
	TagDirectiveToken:       "TAG-DIRECTIVE",
	DocumentStartToken:      "DOCUMENT-START",
	DocumentEndToken:        "DOCUMENT-END",
	BlockSequenceStartToken: "BLOCK-SEQUENCE-START",
	BlockMappingStartToken:  "BLOCK-MAPPING-START",
	BlockEndToken:           "BLOCK-END",
	FlowSequenceStartToken:  "FLOW-SEQUENCE-START",
	FlowSequenceEndToken:    "FLOW-SEQUENCE-END",
	FlowMappingStartToken:   "FLOW-MAPPING-START",
	FlowMappingEndToken:     "FLOW-MAPPING-END",
	BlockEntryToken:         "BLOCK-ENTRY",
	FlowEntryToken:          "FLOW-ENTRY",
	KeyToken:                "KEY",
	ValueToken:              "VALUE",
	AliasToken:              "ALIAS",
	AnchorToken:             "ANCHOR",
	TagToken:                "TAG",
	ScalarToken:             "SCALAR",
}

func (tt TokenType) String() string {
	if tt < 0 || int(tt) >= len(tokenStrings) {
		return fmt.Sprintf("unknown token %d", tt)
	}
	return tokenStrings[tt]
}

// Token is a single lexical unit produced by the scanner.
type Token struct {
	Type TokenType

	// The start and end of the token.
	Start, End Mark

	// The stream encoding (for StreamStartToken).
	Encoding Encoding

	// The alias, anchor, or scalar value, or the tag or tag directive
	// handle (for AliasToken, AnchorToken, ScalarToken, TagToken,
	// TagDirectiveToken).
	Value string

	// The tag suffix (for TagToken).
	Suffix string

	// The tag directive prefix (for TagDirectiveToken).
	Prefix string

	// The scalar style (for ScalarToken).
	Style ScalarStyle

	// The version directive numbers (for VersionDirectiveToken).
	Major, Minor int8
}

// EventType identifies the kind of a parser or serializer event.
type EventType int8

const (
	NoEvent EventType = iota

	StreamStartEvent
	StreamEndEvent
	DocumentStartEvent
	DocumentEndEvent
	AliasEvent
	ScalarEvent
	SequenceStartEvent
	SequenceEndEvent
	MappingStartEvent
	MappingEndEvent
)

var eventStrings = []string{
	NoEvent:            "none",
	StreamStartEvent:   "stream start",
	StreamEndEvent:     "stream end",
	DocumentStartEvent: "document start",
	DocumentEndEvent:   "document end",
	AliasEvent:         "alias",
	ScalarEvent:        "scalar",
	SequenceStartEvent: "sequence start",
	SequenceEndEvent:   "sequence end",
	MappingStartEvent:  "mapping start",
	MappingEndEvent:    "mapping end",
}

func (e EventType) String() string {
	if e < 0 || int(e) >= len(eventStrings) {
		return fmt.Sprintf("unknown event %d", e)
	}
	return eventStrings[e]
}

// Event is a single parsing or serialization event.
type Event struct {
	Type EventType

	// The start and end of the event.
	Start, End Mark

	// The stream encoding (for StreamStartEvent).
	Encoding Encoding

	// The version directive (for DocumentStartEvent).
	Version *VersionDirective

	// The tag directives (for DocumentStartEvent).
	TagDirectives []TagDirective

	// The anchor (for ScalarEvent, SequenceStartEvent, MappingStartEvent,
	// AliasEvent).
	Anchor string

	// The tag (for ScalarEvent, SequenceStartEvent, MappingStartEvent).
	Tag string

	// The scalar value (for ScalarEvent).
	Value string

	// Whether the document start/end indicator was explicit (for
	// DocumentStartEvent, DocumentEndEvent).
	Explicit bool

	// Whether the tag may be omitted for the plain style (for
	// ScalarEvent), or for the collection (for SequenceStartEvent,
	// MappingStartEvent).
	Implicit bool

	// Whether the tag may be omitted for any non-plain style (for
	// ScalarEvent).
	QuotedImplicit bool

	// The scalar style (for ScalarEvent).
	ScalarStyle ScalarStyle

	// The collection style (for SequenceStartEvent, MappingStartEvent).
	CollectionStyle CollectionStyle
}

// Canonical YAML 1.1 tags.
const (
	NullTag      = "tag:yaml.org,2002:null"
	BoolTag      = "tag:yaml.org,2002:bool"
	StrTag       = "tag:yaml.org,2002:str"
	IntTag       = "tag:yaml.org,2002:int"
	FloatTag     = "tag:yaml.org,2002:float"
	TimestampTag = "tag:yaml.org,2002:timestamp"

	SeqTag = "tag:yaml.org,2002:seq"
	MapTag = "tag:yaml.org,2002:map"

	SetTag    = "tag:yaml.org,2002:set"
	OmapTag   = "tag:yaml.org,2002:omap"
	PairsTag  = "tag:yaml.org,2002:pairs"
	BinaryTag = "tag:yaml.org,2002:binary"
	MergeTag  = "tag:yaml.org,2002:merge"
	ValueTag  = "tag:yaml.org,2002:value"

	DefaultScalarTag   = StrTag
	DefaultSequenceTag = SeqTag
	DefaultMappingTag  = MapTag
)

// NonSpecificTag is the explicit "!" tag: resolve to the default tag for
// the node kind, never to an implicit one.
const NonSpecificTag = "!"

// SimpleKey holds information about a potential simple key.
type SimpleKey struct {
	Possible    bool
	Required    bool // The key sits where only a key may legally appear.
	TokenNumber int  // The stream-wide number of the would-be KEY token.
	Mark        Mark
}
