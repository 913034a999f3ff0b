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
	"strings"
	"unicode/utf8"

	"github.com/yamlkit/yaml/internal/common"
	"github.com/yamlkit/yaml/internal/yamlh"
)

// The scanner turns the character stream into a token stream. Two parts of
// the job are genuinely tricky: block collection starts and simple keys.
//
// Block collections carry no explicit start indicator; the scanner derives
// BLOCK-SEQUENCE-START and BLOCK-MAPPING-START from indentation increases
// and emits BLOCK-END tokens when the indentation unwinds.
//
// A simple key is a mapping key written without '?'. The scanner cannot
// know a node is a key until it sees the following ':', so for every token
// that could begin a key it records a candidate (token number and
// position). When a ':' arrives while the candidate is still viable, a KEY
// token - and, if the ':' also opens a block mapping, a
// BLOCK-MAPPING-START token - is inserted into the queue before the
// recorded position. Candidates go stale once the scanner moves to another
// line or more than 1024 characters past them.

const maxSimpleKeyLength = 1024

// Scanner produces the token stream for one input.
type Scanner struct {
	reader *Reader

	// Queue of produced-but-unconsumed tokens and the count of tokens the
	// consumer already popped. The sum addresses tokens stream-wide, which
	// is how simple key candidates are recorded.
	tokens      yamlh.TokenQueue
	tokensTaken int

	streamStartProduced bool
	done                bool

	flowLevel int

	indent  int
	indents []int

	allowSimpleKey     bool
	possibleSimpleKeys map[int]yamlh.SimpleKey
}

// NewScanner returns a scanner over r.
func NewScanner(r *Reader) *Scanner {
	return &Scanner{
		reader:             r,
		indent:             -1,
		allowSimpleKey:     true,
		possibleSimpleKeys: make(map[int]yamlh.SimpleKey),
	}
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() (*yamlh.Token, error) {
	for {
		need, err := s.needMoreTokens()
		if err != nil {
			return nil, err
		}
		if !need {
			break
		}
		if err := s.fetchMoreTokens(); err != nil {
			return nil, err
		}
	}
	if s.tokens.Len() == 0 {
		return nil, s.scannerError("", yamlh.Mark{}, "no more tokens", s.reader.Mark())
	}
	return s.tokens.Peek(0), nil
}

// Pop consumes and returns the next token.
func (s *Scanner) Pop() (yamlh.Token, error) {
	if _, err := s.Peek(); err != nil {
		return yamlh.Token{}, err
	}
	s.tokensTaken++
	return s.tokens.Pop(), nil
}

// Check reports whether the next token has one of the given types.
func (s *Scanner) Check(types ...yamlh.TokenType) (bool, error) {
	t, err := s.Peek()
	if err != nil {
		return false, err
	}
	for _, tt := range types {
		if t.Type == tt {
			return true, nil
		}
	}
	return false, nil
}

func (s *Scanner) needMoreTokens() (bool, error) {
	if s.done {
		return false, nil
	}
	if s.tokens.Len() == 0 {
		return true, nil
	}
	// The front token may still be turned into a KEY by a ':' further
	// ahead; keep fetching while a candidate points at it.
	if err := s.staleSimpleKeys(); err != nil {
		return false, err
	}
	for _, key := range s.possibleSimpleKeys {
		if key.Possible && key.TokenNumber == s.tokensTaken {
			return true, nil
		}
	}
	return false, nil
}

// fetchMoreTokens performs one fetch step: position at the next
// significant character, retire stale simple keys, unwind the indentation
// stack, and dispatch on the character.
func (s *Scanner) fetchMoreTokens() error {
	if !s.streamStartProduced {
		s.fetchStreamStart()
		return nil
	}

	if err := s.scanToNextToken(); err != nil {
		return err
	}
	if err := s.staleSimpleKeys(); err != nil {
		return err
	}
	s.unwindIndent(s.reader.Mark().Column)

	c := s.reader.Peek()
	if c == common.EOF {
		return s.fetchStreamEnd()
	}

	atColumnZero := s.reader.Mark().Column == 0

	switch {
	case c == '%' && atColumnZero:
		return s.fetchDirective()
	case atColumnZero && s.checkDocumentIndicator('-'):
		return s.fetchDocumentIndicator(yamlh.DocumentStartToken)
	case atColumnZero && s.checkDocumentIndicator('.'):
		return s.fetchDocumentIndicator(yamlh.DocumentEndToken)
	case c == '[':
		return s.fetchFlowCollectionStart(yamlh.FlowSequenceStartToken)
	case c == '{':
		return s.fetchFlowCollectionStart(yamlh.FlowMappingStartToken)
	case c == ']':
		return s.fetchFlowCollectionEnd(yamlh.FlowSequenceEndToken)
	case c == '}':
		return s.fetchFlowCollectionEnd(yamlh.FlowMappingEndToken)
	case c == ',':
		return s.fetchFlowEntry()
	case c == '-' && common.IsBlankZ(s.reader.PeekAt(1)):
		return s.fetchBlockEntry()
	case c == '?' && (s.flowLevel > 0 || common.IsBlankZ(s.reader.PeekAt(1))):
		return s.fetchKey()
	case c == ':' && (s.flowLevel > 0 || common.IsBlankZ(s.reader.PeekAt(1))):
		return s.fetchValue()
	case c == '*':
		return s.fetchAnchorOrAlias(yamlh.AliasToken)
	case c == '&':
		return s.fetchAnchorOrAlias(yamlh.AnchorToken)
	case c == '!':
		return s.fetchTag()
	case c == '|' && s.flowLevel == 0:
		return s.fetchBlockScalar(yamlh.LiteralScalarStyle)
	case c == '>' && s.flowLevel == 0:
		return s.fetchBlockScalar(yamlh.FoldedScalarStyle)
	case c == '\'':
		return s.fetchFlowScalar(yamlh.SingleQuotedScalarStyle)
	case c == '"':
		return s.fetchFlowScalar(yamlh.DoubleQuotedScalarStyle)
	case s.checkPlain():
		return s.fetchPlain()
	}

	return s.scannerError("", yamlh.Mark{},
		fmt.Sprintf("found character %q that cannot start any token", c), s.reader.Mark())
}

func (s *Scanner) scannerError(context string, contextMark yamlh.Mark, problem string, problemMark yamlh.Mark) error {
	return &yamlh.ScannerError{
		Context:     context,
		ContextMark: contextMark,
		Problem:     problem,
		ProblemMark: problemMark,
	}
}

// checkDocumentIndicator reports whether the cursor sits on "---" or
// "..." (three times c) followed by a blank, break, or the stream end.
func (s *Scanner) checkDocumentIndicator(c rune) bool {
	for i := 0; i < 3; i++ {
		if s.reader.PeekAt(i) != c {
			return false
		}
	}
	return common.IsBlankZ(s.reader.PeekAt(3))
}

// checkPlain reports whether the current character may start a plain
// scalar.
func (s *Scanner) checkPlain() bool {
	c := s.reader.Peek()
	if c == common.EOF {
		return false
	}
	if !common.IsBlankZ(c) && !strings.ContainsRune("-?:,[]{}#&*!|>'\"%@`", c) {
		return true
	}
	next := s.reader.PeekAt(1)
	if common.IsBlankZ(next) {
		return false
	}
	if c == '-' {
		return true
	}
	return s.flowLevel == 0 && (c == '?' || c == ':')
}

// Simple keys.

// savePossibleSimpleKey records the next token as a simple key candidate
// for the current flow level.
func (s *Scanner) savePossibleSimpleKey() error {
	// A key is required when it sits exactly at the block indentation
	// column: if it turns out not to be a key, nothing else can legally
	// appear there.
	required := s.flowLevel == 0 && s.indent == s.reader.Mark().Column
	if !s.allowSimpleKey {
		return nil
	}
	if err := s.removePossibleSimpleKey(); err != nil {
		return err
	}
	s.possibleSimpleKeys[s.flowLevel] = yamlh.SimpleKey{
		Possible:    true,
		Required:    required,
		TokenNumber: s.tokensTaken + s.tokens.Len(),
		Mark:        s.reader.Mark(),
	}
	return nil
}

// removePossibleSimpleKey drops the candidate for the current flow level.
func (s *Scanner) removePossibleSimpleKey() error {
	key, ok := s.possibleSimpleKeys[s.flowLevel]
	if ok && key.Possible && key.Required {
		return s.scannerError("while scanning a simple key", key.Mark,
			"could not find expected ':'", s.reader.Mark())
	}
	delete(s.possibleSimpleKeys, s.flowLevel)
	return nil
}

// staleSimpleKeys retires candidates the scanner has moved too far past:
// a simple key must stay on one line and within 1024 characters.
func (s *Scanner) staleSimpleKeys() error {
	mark := s.reader.Mark()
	for level, key := range s.possibleSimpleKeys {
		if !key.Possible {
			continue
		}
		if key.Mark.Line < mark.Line || mark.Index-key.Mark.Index > maxSimpleKeyLength {
			if key.Required {
				return s.scannerError("while scanning a simple key", key.Mark,
					"could not find expected ':'", mark)
			}
			delete(s.possibleSimpleKeys, level)
		}
	}
	return nil
}

// Indentation.

// unwindIndent pops indentation levels above column, emitting a BLOCK-END
// token for each. No-op in flow context.
func (s *Scanner) unwindIndent(column int) {
	if s.flowLevel > 0 {
		return
	}
	mark := s.reader.Mark()
	for s.indent > column {
		s.indent = s.indents[len(s.indents)-1]
		s.indents = s.indents[:len(s.indents)-1]
		s.tokens.Push(yamlh.Token{Type: yamlh.BlockEndToken, Start: mark, End: mark})
	}
}

// addIndent pushes the current indentation level if column increases it.
func (s *Scanner) addIndent(column int) bool {
	if s.indent < column {
		s.indents = append(s.indents, s.indent)
		s.indent = column
		return true
	}
	return false
}

// Fetchers.

func (s *Scanner) fetchStreamStart() {
	mark := s.reader.Mark()
	s.streamStartProduced = true
	s.tokens.Push(yamlh.Token{
		Type:     yamlh.StreamStartToken,
		Start:    mark,
		End:      mark,
		Encoding: s.reader.Encoding(),
	})
}

func (s *Scanner) fetchStreamEnd() error {
	s.unwindIndent(-1)
	if err := s.removePossibleSimpleKey(); err != nil {
		return err
	}
	s.allowSimpleKey = false
	s.possibleSimpleKeys = make(map[int]yamlh.SimpleKey)
	mark := s.reader.Mark()
	s.tokens.Push(yamlh.Token{Type: yamlh.StreamEndToken, Start: mark, End: mark})
	s.done = true
	return nil
}

func (s *Scanner) fetchDirective() error {
	s.unwindIndent(-1)
	if err := s.removePossibleSimpleKey(); err != nil {
		return err
	}
	s.allowSimpleKey = false
	tok, err := s.scanDirective()
	if err != nil {
		return err
	}
	if tok.Type != yamlh.NoToken {
		s.tokens.Push(tok)
	}
	return nil
}

func (s *Scanner) fetchDocumentIndicator(typ yamlh.TokenType) error {
	s.unwindIndent(-1)
	if err := s.removePossibleSimpleKey(); err != nil {
		return err
	}
	s.allowSimpleKey = false
	start := s.reader.Mark()
	s.reader.SkipN(3)
	s.tokens.Push(yamlh.Token{Type: typ, Start: start, End: s.reader.Mark()})
	return nil
}

func (s *Scanner) fetchFlowCollectionStart(typ yamlh.TokenType) error {
	// '[' and '{' may themselves begin a simple key, e.g. "[a]: b".
	if err := s.savePossibleSimpleKey(); err != nil {
		return err
	}
	s.flowLevel++
	s.allowSimpleKey = true
	start := s.reader.Mark()
	s.reader.Skip()
	s.tokens.Push(yamlh.Token{Type: typ, Start: start, End: s.reader.Mark()})
	return nil
}

func (s *Scanner) fetchFlowCollectionEnd(typ yamlh.TokenType) error {
	if err := s.removePossibleSimpleKey(); err != nil {
		return err
	}
	if s.flowLevel > 0 {
		s.flowLevel--
	}
	s.allowSimpleKey = false
	start := s.reader.Mark()
	s.reader.Skip()
	s.tokens.Push(yamlh.Token{Type: typ, Start: start, End: s.reader.Mark()})
	return nil
}

func (s *Scanner) fetchFlowEntry() error {
	if err := s.removePossibleSimpleKey(); err != nil {
		return err
	}
	s.allowSimpleKey = true
	start := s.reader.Mark()
	s.reader.Skip()
	s.tokens.Push(yamlh.Token{Type: yamlh.FlowEntryToken, Start: start, End: s.reader.Mark()})
	return nil
}

func (s *Scanner) fetchBlockEntry() error {
	if s.flowLevel == 0 {
		if !s.allowSimpleKey {
			return s.scannerError("", yamlh.Mark{},
				"block sequence entries are not allowed here", s.reader.Mark())
		}
		if s.addIndent(s.reader.Mark().Column) {
			mark := s.reader.Mark()
			s.tokens.Push(yamlh.Token{Type: yamlh.BlockSequenceStartToken, Start: mark, End: mark})
		}
	}
	// In flow context a '-' entry is grammatically wrong; the parser
	// reports it with better context than the scanner could.
	if err := s.removePossibleSimpleKey(); err != nil {
		return err
	}
	s.allowSimpleKey = true
	start := s.reader.Mark()
	s.reader.Skip()
	s.tokens.Push(yamlh.Token{Type: yamlh.BlockEntryToken, Start: start, End: s.reader.Mark()})
	return nil
}

func (s *Scanner) fetchKey() error {
	if s.flowLevel == 0 {
		if !s.allowSimpleKey {
			return s.scannerError("", yamlh.Mark{},
				"mapping keys are not allowed here", s.reader.Mark())
		}
		if s.addIndent(s.reader.Mark().Column) {
			mark := s.reader.Mark()
			s.tokens.Push(yamlh.Token{Type: yamlh.BlockMappingStartToken, Start: mark, End: mark})
		}
	}
	if err := s.removePossibleSimpleKey(); err != nil {
		return err
	}
	s.allowSimpleKey = s.flowLevel == 0
	start := s.reader.Mark()
	s.reader.Skip()
	s.tokens.Push(yamlh.Token{Type: yamlh.KeyToken, Start: start, End: s.reader.Mark()})
	return nil
}

func (s *Scanner) fetchValue() error {
	key, hasKey := s.possibleSimpleKeys[s.flowLevel]
	if hasKey && key.Possible {
		// The recorded candidate is the key of this ':'. Plant a KEY
		// token before it, plus a BLOCK-MAPPING-START if this ':' opens a
		// new block mapping.
		delete(s.possibleSimpleKeys, s.flowLevel)
		at := key.TokenNumber - s.tokensTaken
		s.tokens.Insert(at, yamlh.Token{Type: yamlh.KeyToken, Start: key.Mark, End: key.Mark})
		if s.flowLevel == 0 && s.addIndent(key.Mark.Column) {
			s.tokens.Insert(at, yamlh.Token{
				Type:  yamlh.BlockMappingStartToken,
				Start: key.Mark,
				End:   key.Mark,
			})
		}
		s.allowSimpleKey = false
	} else {
		if s.flowLevel == 0 {
			if !s.allowSimpleKey {
				return s.scannerError("", yamlh.Mark{},
					"mapping values are not allowed here", s.reader.Mark())
			}
			if s.addIndent(s.reader.Mark().Column) {
				mark := s.reader.Mark()
				s.tokens.Push(yamlh.Token{Type: yamlh.BlockMappingStartToken, Start: mark, End: mark})
			}
		}
		s.allowSimpleKey = s.flowLevel == 0
		if err := s.removePossibleSimpleKey(); err != nil {
			return err
		}
	}
	start := s.reader.Mark()
	s.reader.Skip()
	s.tokens.Push(yamlh.Token{Type: yamlh.ValueToken, Start: start, End: s.reader.Mark()})
	return nil
}

func (s *Scanner) fetchAnchorOrAlias(typ yamlh.TokenType) error {
	if err := s.savePossibleSimpleKey(); err != nil {
		return err
	}
	s.allowSimpleKey = false
	tok, err := s.scanAnchor(typ)
	if err != nil {
		return err
	}
	s.tokens.Push(tok)
	return nil
}

func (s *Scanner) fetchTag() error {
	if err := s.savePossibleSimpleKey(); err != nil {
		return err
	}
	s.allowSimpleKey = false
	tok, err := s.scanTag()
	if err != nil {
		return err
	}
	s.tokens.Push(tok)
	return nil
}

func (s *Scanner) fetchBlockScalar(style yamlh.ScalarStyle) error {
	s.allowSimpleKey = true
	if err := s.removePossibleSimpleKey(); err != nil {
		return err
	}
	tok, err := s.scanBlockScalar(style)
	if err != nil {
		return err
	}
	s.tokens.Push(tok)
	return nil
}

func (s *Scanner) fetchFlowScalar(style yamlh.ScalarStyle) error {
	if err := s.savePossibleSimpleKey(); err != nil {
		return err
	}
	s.allowSimpleKey = false
	tok, err := s.scanFlowScalar(style)
	if err != nil {
		return err
	}
	s.tokens.Push(tok)
	return nil
}

func (s *Scanner) fetchPlain() error {
	if err := s.savePossibleSimpleKey(); err != nil {
		return err
	}
	s.allowSimpleKey = false
	tok, err := s.scanPlain()
	if err != nil {
		return err
	}
	s.tokens.Push(tok)
	return nil
}

// scanToNextToken skips whitespace and comments up to the next
// significant character. Line breaks in block context re-enable simple
// keys.
func (s *Scanner) scanToNextToken() error {
	for {
		// A BOM at the start of a line is skipped as presentation detail.
		if s.reader.Mark().Column == 0 && s.reader.Peek() == 0xfeff {
			s.reader.Skip()
		}
		// Tabs may separate tokens only where a simple key cannot start;
		// otherwise they would fake indentation.
		for s.reader.Peek() == ' ' ||
			(s.reader.Peek() == '\t' && (s.flowLevel > 0 || !s.allowSimpleKey)) {
			s.reader.Skip()
		}
		if s.reader.Peek() == '#' {
			for !common.IsBreakZ(s.reader.Peek()) {
				s.reader.Skip()
			}
		}
		if !common.IsBreak(s.reader.Peek()) {
			return nil
		}
		s.scanLineBreak()
		if s.flowLevel == 0 {
			s.allowSimpleKey = true
		}
	}
}

// scanLineBreak consumes one line break, folding CRLF and NEL into LF.
func (s *Scanner) scanLineBreak() string {
	c := s.reader.Peek()
	if c == '\r' && s.reader.PeekAt(1) == '\n' {
		s.reader.SkipN(2)
		return "\n"
	}
	if common.IsBreak(c) {
		s.reader.Skip()
		if c == 0x2028 || c == 0x2029 {
			return string(c)
		}
		return "\n"
	}
	return ""
}

// Directives.

// scanDirective scans '%YAML major.minor' or '%TAG handle prefix'.
// Reserved directives are skipped and produce no token.
func (s *Scanner) scanDirective() (yamlh.Token, error) {
	start := s.reader.Mark()
	s.reader.Skip() // '%'

	name, err := s.scanDirectiveName(start)
	if err != nil {
		return yamlh.Token{}, err
	}

	var tok yamlh.Token
	switch name {
	case "YAML":
		major, minor, err := s.scanVersionDirectiveValue(start)
		if err != nil {
			return yamlh.Token{}, err
		}
		tok = yamlh.Token{
			Type:  yamlh.VersionDirectiveToken,
			Start: start,
			End:   s.reader.Mark(),
			Major: major,
			Minor: minor,
		}
	case "TAG":
		handle, prefix, err := s.scanTagDirectiveValue(start)
		if err != nil {
			return yamlh.Token{}, err
		}
		tok = yamlh.Token{
			Type:   yamlh.TagDirectiveToken,
			Start:  start,
			End:    s.reader.Mark(),
			Value:  handle,
			Prefix: prefix,
		}
	default:
		// Reserved directive: consume the rest of the line.
		for !common.IsBreakZ(s.reader.Peek()) {
			s.reader.Skip()
		}
	}

	if err := s.scanDirectiveIgnoredLine(start); err != nil {
		return yamlh.Token{}, err
	}
	return tok, nil
}

func (s *Scanner) scanDirectiveName(start yamlh.Mark) (string, error) {
	var b strings.Builder
	for common.IsAlpha(s.reader.Peek()) {
		b.WriteRune(s.reader.Peek())
		s.reader.Skip()
	}
	if b.Len() == 0 {
		return "", s.scannerError("while scanning a directive", start,
			"could not find expected directive name", s.reader.Mark())
	}
	if !common.IsBlankZ(s.reader.Peek()) {
		return "", s.scannerError("while scanning a directive", start,
			fmt.Sprintf("found unexpected character %q", s.reader.Peek()), s.reader.Mark())
	}
	return b.String(), nil
}

func (s *Scanner) scanVersionDirectiveValue(start yamlh.Mark) (major, minor int8, err error) {
	for common.IsBlank(s.reader.Peek()) {
		s.reader.Skip()
	}
	major, err = s.scanVersionDirectiveNumber(start)
	if err != nil {
		return 0, 0, err
	}
	if s.reader.Peek() != '.' {
		return 0, 0, s.scannerError("while scanning a %YAML directive", start,
			"did not find expected digit or '.' character", s.reader.Mark())
	}
	s.reader.Skip()
	minor, err = s.scanVersionDirectiveNumber(start)
	if err != nil {
		return 0, 0, err
	}
	if !common.IsBlankZ(s.reader.Peek()) {
		return 0, 0, s.scannerError("while scanning a %YAML directive", start,
			"did not find expected comment or line break", s.reader.Mark())
	}
	return major, minor, nil
}

func (s *Scanner) scanVersionDirectiveNumber(start yamlh.Mark) (int8, error) {
	n, digits := 0, 0
	for common.IsDigit(s.reader.Peek()) {
		digits++
		if digits > 9 {
			return 0, s.scannerError("while scanning a %YAML directive", start,
				"found extremely long version number", s.reader.Mark())
		}
		n = n*10 + int(s.reader.Peek()-'0')
		s.reader.Skip()
	}
	if digits == 0 {
		return 0, s.scannerError("while scanning a %YAML directive", start,
			"did not find expected version number", s.reader.Mark())
	}
	if n > 127 {
		n = 127
	}
	return int8(n), nil
}

func (s *Scanner) scanTagDirectiveValue(start yamlh.Mark) (handle, prefix string, err error) {
	for common.IsBlank(s.reader.Peek()) {
		s.reader.Skip()
	}
	handle, err = s.scanTagHandle(true, start)
	if err != nil {
		return "", "", err
	}
	if !common.IsBlank(s.reader.Peek()) {
		return "", "", s.scannerError("while scanning a %TAG directive", start,
			"did not find expected whitespace", s.reader.Mark())
	}
	for common.IsBlank(s.reader.Peek()) {
		s.reader.Skip()
	}
	prefix, err = s.scanTagURI("while scanning a %TAG directive", "", start)
	if err != nil {
		return "", "", err
	}
	if !common.IsBlankZ(s.reader.Peek()) {
		return "", "", s.scannerError("while scanning a %TAG directive", start,
			"did not find expected whitespace or line break", s.reader.Mark())
	}
	return handle, prefix, nil
}

func (s *Scanner) scanDirectiveIgnoredLine(start yamlh.Mark) error {
	for common.IsBlank(s.reader.Peek()) {
		s.reader.Skip()
	}
	if s.reader.Peek() == '#' {
		for !common.IsBreakZ(s.reader.Peek()) {
			s.reader.Skip()
		}
	}
	if !common.IsBreakZ(s.reader.Peek()) {
		return s.scannerError("while scanning a directive", start,
			"did not find expected comment or line break", s.reader.Mark())
	}
	s.scanLineBreak()
	return nil
}

// Anchors, aliases, tags.

func (s *Scanner) scanAnchor(typ yamlh.TokenType) (yamlh.Token, error) {
	start := s.reader.Mark()
	indicator := s.reader.Peek()
	s.reader.Skip() // '&' or '*'

	var b strings.Builder
	for common.IsAlpha(s.reader.Peek()) {
		b.WriteRune(s.reader.Peek())
		s.reader.Skip()
	}

	context := "while scanning an anchor"
	if indicator == '*' {
		context = "while scanning an alias"
	}
	c := s.reader.Peek()
	if b.Len() == 0 ||
		!(common.IsBlankZ(c) || strings.ContainsRune("?:,]}%@`", c)) {
		return yamlh.Token{}, s.scannerError(context, start,
			"did not find expected alphabetic or numeric character", s.reader.Mark())
	}

	return yamlh.Token{
		Type:  typ,
		Start: start,
		End:   s.reader.Mark(),
		Value: b.String(),
	}, nil
}

// scanTag scans a verbatim '!<uri>', a shorthand '!handle!suffix' or
// '!suffix', or the non-specific '!'.
func (s *Scanner) scanTag() (yamlh.Token, error) {
	start := s.reader.Mark()

	var handle, suffix string
	var err error

	next := s.reader.PeekAt(1)
	if common.IsBlankZ(next) || (s.flowLevel > 0 && common.IsFlowIndicator(next)) {
		// The non-specific '!' tag.
		s.reader.Skip()
		return yamlh.Token{
			Type:  yamlh.TagToken,
			Start: start,
			End:   s.reader.Mark(),
			Value: "!",
		}, nil
	}

	if next == '<' {
		// Verbatim tag: empty handle marks the suffix as a raw URI.
		s.reader.SkipN(2)
		suffix, err = s.scanTagURI("while scanning a verbatim tag", "", start)
		if err != nil {
			return yamlh.Token{}, err
		}
		if s.reader.Peek() != '>' {
			return yamlh.Token{}, s.scannerError("while scanning a verbatim tag", start,
				"did not find the expected '>'", s.reader.Mark())
		}
		s.reader.Skip()
	} else {
		// Try to scan a '!handle!'. When the closing '!' is missing, the
		// consumed characters are really the head of a '!suffix' form.
		handle, err = s.scanTagHandle(false, start)
		if err != nil {
			return yamlh.Token{}, err
		}
		head := ""
		if !(len(handle) > 1 && handle[len(handle)-1] == '!') {
			head = handle
			handle = "!"
		}
		suffix, err = s.scanTagURI("while scanning a tag", head, start)
		if err != nil {
			return yamlh.Token{}, err
		}
	}

	c := s.reader.Peek()
	if !common.IsBlankZ(c) && !(s.flowLevel > 0 && common.IsFlowIndicator(c)) {
		return yamlh.Token{}, s.scannerError("while scanning a tag", start,
			"did not find expected whitespace or line break", s.reader.Mark())
	}

	return yamlh.Token{
		Type:   yamlh.TagToken,
		Start:  start,
		End:    s.reader.Mark(),
		Value:  handle,
		Suffix: suffix,
	}, nil
}

func (s *Scanner) scanTagHandle(directive bool, start yamlh.Mark) (string, error) {
	context := "while scanning a tag"
	if directive {
		context = "while scanning a %TAG directive"
	}
	if s.reader.Peek() != '!' {
		return "", s.scannerError(context, start,
			"did not find expected '!'", s.reader.Mark())
	}

	var b strings.Builder
	b.WriteByte('!')
	s.reader.Skip()
	for common.IsAlpha(s.reader.Peek()) {
		b.WriteRune(s.reader.Peek())
		s.reader.Skip()
	}
	if s.reader.Peek() == '!' {
		b.WriteByte('!')
		s.reader.Skip()
	} else if directive && b.String() != "!" {
		// A %TAG handle must be closed with '!'.
		return "", s.scannerError(context, start,
			"did not find expected '!'", s.reader.Mark())
	}
	return b.String(), nil
}

// scanTagURI scans the suffix (or directive prefix) of a tag, decoding
// %HH escapes into UTF-8. head holds characters a failed handle scan
// already consumed, leading '!' included; that '!' is dropped.
func (s *Scanner) scanTagURI(context, head string, start yamlh.Mark) (string, error) {
	var b []byte
	if len(head) > 1 {
		b = append(b, head[1:]...)
	}
	c := s.reader.Peek()
	for common.IsURIChar(c) {
		if c == '%' {
			decoded, err := s.scanURIEscapes(context, start)
			if err != nil {
				return "", err
			}
			b = append(b, decoded...)
		} else {
			b = utf8.AppendRune(b, c)
			s.reader.Skip()
		}
		c = s.reader.Peek()
	}
	if len(b) == 0 {
		return "", s.scannerError(context, start,
			"did not find expected tag URI", s.reader.Mark())
	}
	if !utf8.Valid(b) {
		return "", s.scannerError(context, start,
			"found invalid UTF-8 in URI escapes", s.reader.Mark())
	}
	return string(b), nil
}

// scanURIEscapes decodes one run of consecutive %HH escapes.
func (s *Scanner) scanURIEscapes(context string, start yamlh.Mark) ([]byte, error) {
	var b []byte
	for s.reader.Peek() == '%' {
		hi, lo := s.reader.PeekAt(1), s.reader.PeekAt(2)
		if !common.IsHex(hi) || !common.IsHex(lo) {
			return nil, s.scannerError(context, start,
				"did not find URI escaped octet", s.reader.Mark())
		}
		b = append(b, byte(common.AsHex(hi)<<4|common.AsHex(lo)))
		s.reader.SkipN(3)
	}
	return b, nil
}

// Block scalars.

func (s *Scanner) scanBlockScalar(style yamlh.ScalarStyle) (yamlh.Token, error) {
	const (
		chompStrip = -1
		chompClip  = 0
		chompKeep  = 1
	)
	folded := style == yamlh.FoldedScalarStyle
	start := s.reader.Mark()
	s.reader.Skip() // '|' or '>'

	// Header: chomping indicator and indentation indicator in either
	// order.
	chomping := chompClip
	increment := 0
	c := s.reader.Peek()
	if c == '+' || c == '-' {
		if c == '+' {
			chomping = chompKeep
		} else {
			chomping = chompStrip
		}
		s.reader.Skip()
		if common.IsDigit(s.reader.Peek()) {
			if s.reader.Peek() == '0' {
				return yamlh.Token{}, s.scannerError("while scanning a block scalar", start,
					"found an indentation indicator equal to 0", s.reader.Mark())
			}
			increment = int(s.reader.Peek() - '0')
			s.reader.Skip()
		}
	} else if common.IsDigit(c) {
		if c == '0' {
			return yamlh.Token{}, s.scannerError("while scanning a block scalar", start,
				"found an indentation indicator equal to 0", s.reader.Mark())
		}
		increment = int(c - '0')
		s.reader.Skip()
		c = s.reader.Peek()
		if c == '+' || c == '-' {
			if c == '+' {
				chomping = chompKeep
			} else {
				chomping = chompStrip
			}
			s.reader.Skip()
		}
	}

	// The rest of the header line must hold only blanks and a comment.
	for common.IsBlank(s.reader.Peek()) {
		s.reader.Skip()
	}
	if s.reader.Peek() == '#' {
		for !common.IsBreakZ(s.reader.Peek()) {
			s.reader.Skip()
		}
	}
	if !common.IsBreakZ(s.reader.Peek()) {
		return yamlh.Token{}, s.scannerError("while scanning a block scalar", start,
			"did not find expected comment or line break", s.reader.Mark())
	}
	s.scanLineBreak()

	end := s.reader.Mark()

	// Content indentation: explicit via the indicator, or auto-detected
	// from the first non-empty line.
	minIndent := s.indent + 1
	if minIndent < 1 {
		minIndent = 1
	}
	var breaks string
	var indent int
	if increment > 0 {
		indent = minIndent + increment - 1
		breaks, end = s.scanBlockScalarBreaks(indent)
	} else {
		var maxIndent int
		breaks, maxIndent, end = s.scanBlockScalarIndentation()
		indent = minIndent
		if maxIndent > indent {
			indent = maxIndent
		}
	}

	var chunks strings.Builder
	lineBreak := ""
	for s.reader.Mark().Column == indent && s.reader.Peek() != common.EOF {
		chunks.WriteString(breaks)
		leadingNonSpace := !common.IsBlank(s.reader.Peek())
		for !common.IsBreakZ(s.reader.Peek()) {
			chunks.WriteRune(s.reader.Peek())
			s.reader.Skip()
		}
		end = s.reader.Mark()
		lineBreak = s.scanLineBreak()
		breaks, end = s.scanBlockScalarBreaks(indent)
		if s.reader.Mark().Column != indent || s.reader.Peek() == common.EOF {
			break
		}
		// Folding: a single break between non-blank, non-indented lines
		// becomes a space; anything else is preserved.
		if folded && lineBreak == "\n" && leadingNonSpace && !common.IsBlank(s.reader.Peek()) {
			if breaks == "" {
				chunks.WriteByte(' ')
			}
		} else {
			chunks.WriteString(lineBreak)
		}
	}

	// Chomping: strip drops every trailing break, clip keeps exactly one,
	// keep preserves them all.
	if chomping != chompStrip {
		chunks.WriteString(lineBreak)
	}
	if chomping == chompKeep {
		chunks.WriteString(breaks)
	}

	return yamlh.Token{
		Type:  yamlh.ScalarToken,
		Start: start,
		End:   end,
		Value: chunks.String(),
		Style: style,
	}, nil
}

// scanBlockScalarIndentation consumes leading blank lines and determines
// the content indentation from the deepest one.
func (s *Scanner) scanBlockScalarIndentation() (breaks string, maxIndent int, end yamlh.Mark) {
	var b strings.Builder
	end = s.reader.Mark()
	for common.IsBreak(s.reader.Peek()) || s.reader.Peek() == ' ' {
		if s.reader.Peek() == ' ' {
			s.reader.Skip()
			if s.reader.Mark().Column > maxIndent {
				maxIndent = s.reader.Mark().Column
			}
		} else {
			b.WriteString(s.scanLineBreak())
			end = s.reader.Mark()
		}
	}
	return b.String(), maxIndent, end
}

// scanBlockScalarBreaks consumes breaks and up to indent spaces per line.
func (s *Scanner) scanBlockScalarBreaks(indent int) (breaks string, end yamlh.Mark) {
	var b strings.Builder
	end = s.reader.Mark()
	for {
		for s.reader.Mark().Column < indent && s.reader.Peek() == ' ' {
			s.reader.Skip()
		}
		if !common.IsBreak(s.reader.Peek()) {
			break
		}
		b.WriteString(s.scanLineBreak())
		end = s.reader.Mark()
	}
	return b.String(), end
}

// Flow scalars.

func (s *Scanner) scanFlowScalar(style yamlh.ScalarStyle) (yamlh.Token, error) {
	double := style == yamlh.DoubleQuotedScalarStyle
	start := s.reader.Mark()
	quote := s.reader.Peek()
	s.reader.Skip()

	var chunks strings.Builder
	for {
		if err := s.scanFlowScalarNonSpaces(&chunks, double, start); err != nil {
			return yamlh.Token{}, err
		}
		if s.reader.Peek() == quote {
			break
		}
		if err := s.scanFlowScalarSpaces(&chunks, start); err != nil {
			return yamlh.Token{}, err
		}
	}
	s.reader.Skip() // closing quote

	return yamlh.Token{
		Type:  yamlh.ScalarToken,
		Start: start,
		End:   s.reader.Mark(),
		Value: chunks.String(),
		Style: style,
	}, nil
}

// flowScalarContext names the enclosing construct in error messages.
func flowScalarContext(double bool) string {
	if double {
		return "while scanning a double-quoted scalar"
	}
	return "while scanning a single-quoted scalar"
}

var doubleQuotedEscapes = map[rune]rune{
	'0':  0,
	'a':  '\a',
	'b':  '\b',
	't':  '\t',
	'\t': '\t',
	'n':  '\n',
	'v':  '\v',
	'f':  '\f',
	'r':  '\r',
	'e':  0x1b,
	' ':  ' ',
	'"':  '"',
	'\\': '\\',
	'/':  '/',
	'N':  0x85,
	'_':  0xa0,
	'L':  0x2028,
	'P':  0x2029,
}

func (s *Scanner) scanFlowScalarNonSpaces(chunks *strings.Builder, double bool, start yamlh.Mark) error {
	for {
		c := s.reader.Peek()
		for !common.IsBlankZ(c) && c != '\'' && c != '"' && !(double && c == '\\') {
			chunks.WriteRune(c)
			s.reader.Skip()
			c = s.reader.Peek()
		}

		switch {
		case !double && c == '\'' && s.reader.PeekAt(1) == '\'':
			// '' is the only single-quoted escape.
			chunks.WriteByte('\'')
			s.reader.SkipN(2)
		case (double && c == '\'') || (!double && c == '"'):
			// The other quote character is plain content.
			chunks.WriteRune(c)
			s.reader.Skip()
		case double && c == '\\':
			if err := s.scanDoubleQuotedEscape(chunks, start); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *Scanner) scanDoubleQuotedEscape(chunks *strings.Builder, start yamlh.Mark) error {
	s.reader.Skip() // '\\'
	c := s.reader.Peek()

	if common.IsBreak(c) {
		// An escaped line break joins the lines with nothing between.
		s.scanLineBreak()
		breaks, err := s.scanFlowScalarBreaks(true, start)
		if err != nil {
			return err
		}
		chunks.WriteString(breaks)
		return nil
	}

	if r, ok := doubleQuotedEscapes[c]; ok {
		chunks.WriteRune(r)
		s.reader.Skip()
		return nil
	}

	var width int
	switch c {
	case 'x':
		width = 2
	case 'u':
		width = 4
	case 'U':
		width = 8
	default:
		return s.scannerError(flowScalarContext(true), start,
			fmt.Sprintf("found unknown escape character %q", c), s.reader.Mark())
	}

	s.reader.Skip()
	value := 0
	for i := 0; i < width; i++ {
		d := s.reader.Peek()
		if !common.IsHex(d) {
			return s.scannerError(flowScalarContext(true), start,
				fmt.Sprintf("expected escape sequence of %d hexadecimal numbers, but found %q", width, d),
				s.reader.Mark())
		}
		value = value<<4 | common.AsHex(d)
		s.reader.Skip()
	}
	if value > 0x10ffff || (value >= 0xd800 && value <= 0xdfff) {
		return s.scannerError(flowScalarContext(true), start,
			"found invalid Unicode character escape code", s.reader.Mark())
	}
	chunks.WriteRune(rune(value))
	return nil
}

func (s *Scanner) scanFlowScalarSpaces(chunks *strings.Builder, start yamlh.Mark) error {
	var whitespace strings.Builder
	for common.IsBlank(s.reader.Peek()) {
		whitespace.WriteRune(s.reader.Peek())
		s.reader.Skip()
	}

	c := s.reader.Peek()
	switch {
	case c == common.EOF:
		return s.scannerError(flowScalarContext(false), start,
			"found unexpected end of stream", s.reader.Mark())
	case common.IsBreak(c):
		lineBreak := s.scanLineBreak()
		breaks, err := s.scanFlowScalarBreaks(false, start)
		if err != nil {
			return err
		}
		switch {
		case lineBreak != "\n":
			chunks.WriteString(lineBreak)
		case breaks == "":
			chunks.WriteByte(' ')
		}
		chunks.WriteString(breaks)
	default:
		chunks.WriteString(whitespace.String())
	}
	return nil
}

func (s *Scanner) scanFlowScalarBreaks(double bool, start yamlh.Mark) (string, error) {
	var b strings.Builder
	for {
		if s.reader.Mark().Column == 0 &&
			(s.checkDocumentPrefix('-') || s.checkDocumentPrefix('.')) {
			return "", s.scannerError(flowScalarContext(double), start,
				"found unexpected document indicator", s.reader.Mark())
		}
		for common.IsBlank(s.reader.Peek()) {
			s.reader.Skip()
		}
		if !common.IsBreak(s.reader.Peek()) {
			if s.reader.Peek() == common.EOF {
				return "", s.scannerError(flowScalarContext(double), start,
					"found unexpected end of stream", s.reader.Mark())
			}
			return b.String(), nil
		}
		b.WriteString(s.scanLineBreak())
	}
}

func (s *Scanner) checkDocumentPrefix(c rune) bool {
	for i := 0; i < 3; i++ {
		if s.reader.PeekAt(i) != c {
			return false
		}
	}
	return common.IsBlankZ(s.reader.PeekAt(3))
}

// Plain scalars.

func (s *Scanner) scanPlain() (yamlh.Token, error) {
	start := s.reader.Mark()
	end := start
	indent := s.indent + 1

	var chunks strings.Builder
	var spaces string
	for {
		if s.reader.Peek() == '#' {
			break
		}
		length := 0
		for {
			c := s.reader.PeekAt(length)
			if common.IsBlankZ(c) {
				break
			}
			// A ':' ends the scalar before a separator, and in flow
			// context also before a flow indicator.
			if c == ':' {
				next := s.reader.PeekAt(length + 1)
				if common.IsBlankZ(next) || (s.flowLevel > 0 && common.IsFlowIndicator(next)) {
					break
				}
			}
			if s.flowLevel > 0 && (common.IsFlowIndicator(c) || c == '?') {
				break
			}
			length++
		}
		if length == 0 {
			break
		}
		s.allowSimpleKey = false
		chunks.WriteString(spaces)
		for ; length > 0; length-- {
			chunks.WriteRune(s.reader.Peek())
			s.reader.Skip()
		}
		end = s.reader.Mark()

		var more bool
		var err error
		spaces, more, err = s.scanPlainSpaces(indent)
		if err != nil {
			return yamlh.Token{}, err
		}
		if !more || s.reader.Peek() == '#' ||
			(s.flowLevel == 0 && s.reader.Mark().Column < indent) {
			break
		}
	}

	return yamlh.Token{
		Type:  yamlh.ScalarToken,
		Start: start,
		End:   end,
		Value: chunks.String(),
		Style: yamlh.PlainScalarStyle,
	}, nil
}

// scanPlainSpaces consumes the whitespace between plain scalar chunks,
// folding line breaks. more is false when the scalar cannot continue.
func (s *Scanner) scanPlainSpaces(indent int) (spaces string, more bool, err error) {
	var whitespace strings.Builder
	for s.reader.Peek() == ' ' {
		whitespace.WriteByte(' ')
		s.reader.Skip()
	}

	if !common.IsBreak(s.reader.Peek()) {
		if whitespace.Len() == 0 {
			return "", false, nil
		}
		return whitespace.String(), true, nil
	}

	lineBreak := s.scanLineBreak()
	s.allowSimpleKey = true

	if s.atDocumentIndicator() {
		return "", false, nil
	}

	var breaks strings.Builder
	for common.IsBreak(s.reader.Peek()) || s.reader.Peek() == ' ' {
		if s.reader.Peek() == ' ' {
			s.reader.Skip()
		} else {
			breaks.WriteString(s.scanLineBreak())
			if s.atDocumentIndicator() {
				return "", false, nil
			}
		}
	}

	var b strings.Builder
	switch {
	case lineBreak != "\n":
		b.WriteString(lineBreak)
	case breaks.Len() == 0:
		b.WriteByte(' ')
	}
	b.WriteString(breaks.String())
	return b.String(), b.Len() > 0, nil
}

func (s *Scanner) atDocumentIndicator() bool {
	return s.reader.Mark().Column == 0 &&
		(s.checkDocumentPrefix('-') || s.checkDocumentPrefix('.'))
}
