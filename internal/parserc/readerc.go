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
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"github.com/yamlkit/yaml/internal/common"
	"github.com/yamlkit/yaml/internal/yamlh"
)

// Byte order marks.
const (
	bomUTF8    = "\xef\xbb\xbf"
	bomUTF16LE = "\xff\xfe"
	bomUTF16BE = "\xfe\xff"
	bomUTF32LE = "\xff\xfe\x00\x00"
	bomUTF32BE = "\x00\x00\xfe\xff"
)

// Reader is a forward cursor over the decoded input. The input is
// transcoded to UTF-8 once at construction and shared immutably between
// every copy of the cursor, so Save is a plain value copy.
type Reader struct {
	src      []byte
	pos      int
	mark     yamlh.Mark
	encoding yamlh.Encoding
}

// NewReader decodes input to UTF-8, validating alignment and
// printability, and returns a cursor positioned at the first code point.
func NewReader(input []byte) (*Reader, error) {
	enc, bomLen := determineEncoding(input)
	input = input[bomLen:]

	var err error
	switch enc {
	case yamlh.UTF16LEEncoding:
		input, err = transcode(input, 2, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes)
	case yamlh.UTF16BEEncoding:
		input, err = transcode(input, 2, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes)
	case yamlh.UTF32LEEncoding:
		input, err = transcode(input, 4, utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM).NewDecoder().Bytes)
	case yamlh.UTF32BEEncoding:
		input, err = transcode(input, 4, utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM).NewDecoder().Bytes)
	}
	if err != nil {
		return nil, err
	}

	r := &Reader{src: input, encoding: enc}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Encoding reports the encoding of the raw input stream.
func (r *Reader) Encoding() yamlh.Encoding { return r.encoding }

// determineEncoding inspects the BOM, or failing that the zero-byte
// pattern of the first code units. UTF-32 BOMs are checked before UTF-16
// since a UTF-32LE BOM starts with a UTF-16LE one.
func determineEncoding(input []byte) (yamlh.Encoding, int) {
	s := string(input)
	switch {
	case len(s) >= 4 && s[:4] == bomUTF32LE:
		return yamlh.UTF32LEEncoding, 4
	case len(s) >= 4 && s[:4] == bomUTF32BE:
		return yamlh.UTF32BEEncoding, 4
	case len(s) >= 3 && s[:3] == bomUTF8:
		return yamlh.UTF8Encoding, 3
	case len(s) >= 2 && s[:2] == bomUTF16LE:
		return yamlh.UTF16LEEncoding, 2
	case len(s) >= 2 && s[:2] == bomUTF16BE:
		return yamlh.UTF16BEEncoding, 2
	}
	// No BOM: look at the zero pattern of what must be an ASCII-ish first
	// character (documents start with an indicator or printable text).
	switch {
	case len(input) >= 4 && input[0] == 0 && input[1] == 0 && input[2] == 0 && input[3] != 0:
		return yamlh.UTF32BEEncoding, 0
	case len(input) >= 4 && input[0] != 0 && input[1] == 0 && input[2] == 0 && input[3] == 0:
		return yamlh.UTF32LEEncoding, 0
	case len(input) >= 2 && input[0] == 0 && input[1] != 0:
		return yamlh.UTF16BEEncoding, 0
	case len(input) >= 2 && input[0] != 0 && input[1] == 0:
		return yamlh.UTF16LEEncoding, 0
	}
	return yamlh.UTF8Encoding, 0
}

func transcode(input []byte, unit int, decode func([]byte) ([]byte, error)) ([]byte, error) {
	if len(input)%unit != 0 {
		return nil, &yamlh.ReaderError{
			Problem: fmt.Sprintf("input is not aligned on a %d-byte code unit boundary", unit),
		}
	}
	out, err := decode(input)
	if err != nil {
		return nil, &yamlh.ReaderError{Problem: "cannot decode input: " + err.Error()}
	}
	return out, nil
}

// validate walks the decoded buffer once, rejecting malformed UTF-8 and
// non-printable characters before any scanning starts.
func (r *Reader) validate() error {
	mark := yamlh.Mark{}
	for pos := 0; pos < len(r.src); {
		c, size := utf8.DecodeRune(r.src[pos:])
		if c == utf8.RuneError && size <= 1 {
			return &yamlh.ReaderError{Problem: "invalid UTF-8 sequence", Mark: mark}
		}
		if !common.IsPrintable(c) {
			return &yamlh.ReaderError{
				Problem: fmt.Sprintf("control character %#U is not allowed", c),
				Mark:    mark,
			}
		}
		pos += size
		advanceMark(&mark, c, peekRune(r.src, pos))
	}
	return nil
}

func peekRune(src []byte, pos int) rune {
	if pos >= len(src) {
		return common.EOF
	}
	c, _ := utf8.DecodeRune(src[pos:])
	return c
}

// advanceMark moves mark past c, where next is the code point that
// follows. A CR immediately followed by LF does not advance the line; the
// LF does, so the pair collapses to a single break.
func advanceMark(mark *yamlh.Mark, c, next rune) {
	mark.Index++
	switch {
	case c == '\r' && next == '\n':
		mark.Column++
	case common.IsBreak(c):
		mark.Line++
		mark.Column = 0
	default:
		mark.Column++
	}
}

// Empty reports whether the cursor is past the last code point.
func (r *Reader) Empty() bool { return r.pos >= len(r.src) }

// Peek returns the code point under the cursor, or the EOF sentinel.
func (r *Reader) Peek() rune { return peekRune(r.src, r.pos) }

// PeekAt returns the code point n positions ahead of the cursor.
func (r *Reader) PeekAt(n int) rune {
	pos := r.pos
	for ; n > 0 && pos < len(r.src); n-- {
		_, size := utf8.DecodeRune(r.src[pos:])
		pos += size
	}
	return peekRune(r.src, pos)
}

// Skip advances the cursor one code point, updating the mark per the YAML
// line break rules.
func (r *Reader) Skip() {
	if r.pos >= len(r.src) {
		return
	}
	c, size := utf8.DecodeRune(r.src[r.pos:])
	r.pos += size
	advanceMark(&r.mark, c, peekRune(r.src, r.pos))
}

// SkipN advances the cursor n code points.
func (r *Reader) SkipN(n int) {
	for ; n > 0; n-- {
		r.Skip()
	}
}

// Mark returns the position of the cursor.
func (r *Reader) Mark() yamlh.Mark { return r.mark }

// Save returns an independent copy of the cursor. The decoded source is
// shared, so the copy is cheap.
func (r *Reader) Save() Reader { return *r }

// Restore rewinds the cursor to a previously saved copy.
func (r *Reader) Restore(saved Reader) { *r = saved }
