package emitter

import (
	"strings"
	"unicode/utf8"

	"github.com/yamlkit/yaml/internal/common"
)

// writeIndent breaks the line unless it is already empty and correctly
// positioned, then pads with spaces to the current indentation.
func (e *Emitter) writeIndent() error {
	indent := e.indent
	if indent < 0 {
		indent = 0
	}
	if !e.indention || e.column > indent || (e.column == indent && !e.whitespace) {
		if err := e.putBreak(); err != nil {
			return err
		}
	}
	for e.column < indent {
		if err := e.writeRune(' '); err != nil {
			return err
		}
	}
	e.whitespace = true
	e.indention = true
	return nil
}

func (e *Emitter) writeIndicator(indicator string, needWhitespace, isWhitespace, isIndention bool) error {
	if needWhitespace && !e.whitespace {
		if err := e.writeRune(' '); err != nil {
			return err
		}
	}
	if err := e.writeString(indicator); err != nil {
		return err
	}
	e.whitespace = isWhitespace
	e.indention = e.indention && isIndention
	e.openEnded = false
	return nil
}

func (e *Emitter) writeAnchor(value string) error {
	if err := e.writeString(value); err != nil {
		return err
	}
	e.whitespace = false
	e.indention = false
	return nil
}

func (e *Emitter) writeTagHandle(value string) error {
	if !e.whitespace {
		if err := e.writeRune(' '); err != nil {
			return err
		}
	}
	if err := e.writeString(value); err != nil {
		return err
	}
	e.whitespace = false
	e.indention = false
	return nil
}

// writeTagContent emits a tag suffix or directive prefix, %HH-escaping
// anything outside the URI character set.
func (e *Emitter) writeTagContent(value string, needWhitespace bool) error {
	if needWhitespace && !e.whitespace {
		if err := e.writeRune(' '); err != nil {
			return err
		}
	}
	for _, r := range value {
		if common.IsAlpha(r) || strings.ContainsRune(";/?:@&=+$,_.~*'()[]", r) {
			if err := e.writeRune(r); err != nil {
				return err
			}
			continue
		}
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], r)
		for k := 0; k < n; k++ {
			if err := e.writeString(percentEscape(buf[k])); err != nil {
				return err
			}
		}
	}
	e.whitespace = false
	e.indention = false
	return nil
}

func percentEscape(octet byte) string {
	const hex = "0123456789ABCDEF"
	return string([]byte{'%', hex[octet>>4], hex[octet&0x0f]})
}

func (e *Emitter) writePlainScalar(value string, allowBreaks bool) error {
	if len(value) > 0 && !e.whitespace {
		if err := e.writeRune(' '); err != nil {
			return err
		}
	}

	spaces := false
	breaks := false
	for i, w := 0, 0; i < len(value); i += w {
		r, width := utf8.DecodeRuneInString(value[i:])
		w = width
		switch {
		case r == ' ':
			if allowBreaks && !spaces && e.column > e.bestWidth &&
				i+w < len(value) && value[i+w] != ' ' {
				if err := e.writeIndent(); err != nil {
					return err
				}
			} else {
				if err := e.writeRune(r); err != nil {
					return err
				}
			}
			spaces = true
		case common.IsBreak(r):
			// A folded break inside the value doubles into a blank line.
			if !breaks && r == '\n' {
				if err := e.putBreak(); err != nil {
					return err
				}
			}
			if err := e.writeBreakRune(r); err != nil {
				return err
			}
			breaks = true
		default:
			if breaks {
				if err := e.writeIndent(); err != nil {
					return err
				}
			}
			if err := e.writeRune(r); err != nil {
				return err
			}
			e.indention = false
			spaces = false
			breaks = false
		}
	}

	if len(value) > 0 {
		e.whitespace = false
	}
	e.indention = false
	if e.rootContext {
		e.openEnded = true
	}
	return nil
}

func (e *Emitter) writeSingleQuotedScalar(value string, allowBreaks bool) error {
	if err := e.writeIndicator("'", true, false, false); err != nil {
		return err
	}

	spaces := false
	breaks := false
	for i, w := 0, 0; i < len(value); i += w {
		r, width := utf8.DecodeRuneInString(value[i:])
		w = width
		switch {
		case r == ' ':
			if allowBreaks && !spaces && e.column > e.bestWidth &&
				i > 0 && i+w < len(value) && value[i+w] != ' ' {
				if err := e.writeIndent(); err != nil {
					return err
				}
			} else {
				if err := e.writeRune(r); err != nil {
					return err
				}
			}
			spaces = true
		case common.IsBreak(r):
			if !breaks && r == '\n' {
				if err := e.putBreak(); err != nil {
					return err
				}
			}
			if err := e.writeBreakRune(r); err != nil {
				return err
			}
			breaks = true
		default:
			if breaks {
				if err := e.writeIndent(); err != nil {
					return err
				}
			}
			if r == '\'' {
				if err := e.writeRune('\''); err != nil {
					return err
				}
			}
			if err := e.writeRune(r); err != nil {
				return err
			}
			e.indention = false
			spaces = false
			breaks = false
		}
	}

	if err := e.writeIndicator("'", false, false, false); err != nil {
		return err
	}
	e.whitespace = false
	e.indention = false
	return nil
}

func (e *Emitter) writeDoubleQuotedScalar(value string, allowBreaks bool) error {
	if err := e.writeIndicator("\"", true, false, false); err != nil {
		return err
	}

	spaces := false
	for i, w := 0, 0; i < len(value); i += w {
		r, width := utf8.DecodeRuneInString(value[i:])
		w = width

		if !common.IsPrintable(r) || r == 0xfeff || common.IsBreak(r) ||
			r == '\t' || r == '"' || r == '\\' {
			if err := e.writeDoubleQuotedEscape(r); err != nil {
				return err
			}
			spaces = false
			continue
		}

		if r == ' ' {
			if allowBreaks && !spaces && e.column > e.bestWidth &&
				i > 0 && i+w < len(value) {
				if err := e.writeIndent(); err != nil {
					return err
				}
				// A split before another space needs the escape so the
				// fold does not swallow it.
				if value[i+w] == ' ' {
					if err := e.writeRune('\\'); err != nil {
						return err
					}
				}
			} else {
				if err := e.writeRune(r); err != nil {
					return err
				}
			}
			spaces = true
			continue
		}

		if err := e.writeRune(r); err != nil {
			return err
		}
		spaces = false
	}

	if err := e.writeIndicator("\"", false, false, false); err != nil {
		return err
	}
	e.whitespace = false
	e.indention = false
	return nil
}

var doubleQuotedEscapeNames = map[rune]byte{
	0x00:   '0',
	0x07:   'a',
	0x08:   'b',
	0x09:   't',
	0x0a:   'n',
	0x0b:   'v',
	0x0c:   'f',
	0x0d:   'r',
	0x1b:   'e',
	0x22:   '"',
	0x5c:   '\\',
	0x85:   'N',
	0xa0:   '_',
	0x2028: 'L',
	0x2029: 'P',
}

func (e *Emitter) writeDoubleQuotedEscape(r rune) error {
	if err := e.writeRune('\\'); err != nil {
		return err
	}
	if name, ok := doubleQuotedEscapeNames[r]; ok {
		return e.writeRune(rune(name))
	}

	var marker byte
	var digits int
	switch {
	case r <= 0xff:
		marker, digits = 'x', 2
	case r <= 0xffff:
		marker, digits = 'u', 4
	default:
		marker, digits = 'U', 8
	}
	if err := e.writeRune(rune(marker)); err != nil {
		return err
	}
	const hex = "0123456789ABCDEF"
	for k := (digits - 1) * 4; k >= 0; k -= 4 {
		if err := e.writeRune(rune(hex[(r>>uint(k))&0x0f])); err != nil {
			return err
		}
	}
	return nil
}

// writeBlockScalarHints emits the indentation indicator when the content
// starts with whitespace, and the chomping indicator derived from the
// trailing breaks.
func (e *Emitter) writeBlockScalarHints(value string) error {
	if value != "" {
		r, _ := utf8.DecodeRuneInString(value)
		if common.IsBlank(r) || common.IsBreak(r) {
			hint := string([]byte{'0' + byte(e.bestIndent)})
			if err := e.writeIndicator(hint, false, false, false); err != nil {
				return err
			}
		}
	}

	e.openEnded = false

	var chomp string
	keep := false
	switch {
	case value == "":
		chomp = "-"
	default:
		last, lastW := utf8.DecodeLastRuneInString(value)
		switch {
		case !common.IsBreak(last):
			chomp = "-"
		case len(value) == lastW:
			// The value is a single break: keep it.
			chomp = "+"
			keep = true
		default:
			prev, _ := utf8.DecodeLastRuneInString(value[:len(value)-lastW])
			if common.IsBreak(prev) {
				chomp = "+"
				keep = true
			}
		}
	}
	if chomp != "" {
		if err := e.writeIndicator(chomp, false, false, false); err != nil {
			return err
		}
	}
	// Set after the indicator, since writeIndicator clears the flag.
	e.openEnded = keep
	return nil
}

func (e *Emitter) writeLiteralScalar(value string) error {
	if err := e.writeIndicator("|", true, false, false); err != nil {
		return err
	}
	if err := e.writeBlockScalarHints(value); err != nil {
		return err
	}
	if err := e.putBreak(); err != nil {
		return err
	}
	e.whitespace = true

	breaks := true
	for i, w := 0, 0; i < len(value); i += w {
		r, width := utf8.DecodeRuneInString(value[i:])
		w = width
		if common.IsBreak(r) {
			if err := e.writeBreakRune(r); err != nil {
				return err
			}
			breaks = true
			continue
		}
		if breaks {
			if err := e.writeIndent(); err != nil {
				return err
			}
		}
		if err := e.writeRune(r); err != nil {
			return err
		}
		e.indention = false
		breaks = false
	}
	return nil
}

func (e *Emitter) writeFoldedScalar(value string) error {
	if err := e.writeIndicator(">", true, false, false); err != nil {
		return err
	}
	if err := e.writeBlockScalarHints(value); err != nil {
		return err
	}
	if err := e.putBreak(); err != nil {
		return err
	}
	e.whitespace = true

	breaks := true
	leadingSpaces := true
	for i, w := 0, 0; i < len(value); i += w {
		r, width := utf8.DecodeRuneInString(value[i:])
		w = width
		if common.IsBreak(r) {
			// A single fold between content lines needs a doubled break
			// so it survives the unfold.
			if !breaks && !leadingSpaces && r == '\n' {
				k := i
				for k < len(value) {
					br, bw := utf8.DecodeRuneInString(value[k:])
					if !common.IsBreak(br) {
						break
					}
					k += bw
				}
				if k < len(value) && !common.IsBlank(rune(value[k])) {
					if err := e.putBreak(); err != nil {
						return err
					}
				}
			}
			if err := e.writeBreakRune(r); err != nil {
				return err
			}
			breaks = true
			continue
		}
		if breaks {
			if err := e.writeIndent(); err != nil {
				return err
			}
			leadingSpaces = common.IsBlank(r)
		}
		if !breaks && r == ' ' && e.column > e.bestWidth &&
			i+w < len(value) && value[i+w] != ' ' {
			if err := e.writeIndent(); err != nil {
				return err
			}
		} else {
			if err := e.writeRune(r); err != nil {
				return err
			}
		}
		e.indention = false
		breaks = false
	}
	return nil
}
