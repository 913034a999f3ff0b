package common

import (
	"github.com/yamlkit/yaml/internal/yamlh"
)

// DefaultTagDirectives are in force for every document unless overridden
// by a %TAG directive.
var DefaultTagDirectives = []yamlh.TagDirective{
	{Handle: "!", Prefix: "!"},
	{Handle: "!!", Prefix: "tag:yaml.org,2002:"},
}

// EOF is the sentinel the reader returns past the end of the stream. The
// reader rejects NUL in the input, so the zero rune is free for this.
const EOF rune = 0

// IsBreak reports whether r is a YAML line break.
func IsBreak(r rune) bool {
	switch r {
	case '\n', '\r', 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// IsBlank reports whether r is a space or tab.
func IsBlank(r rune) bool {
	return r == ' ' || r == '\t'
}

// IsBlankZ reports whether r is a blank, a break, or the end of stream.
func IsBlankZ(r rune) bool {
	return IsBlank(r) || IsBreak(r) || r == EOF
}

// IsBreakZ reports whether r is a break or the end of stream.
func IsBreakZ(r rune) bool {
	return IsBreak(r) || r == EOF
}

// IsFlowIndicator reports whether r delimits flow collections.
func IsFlowIndicator(r rune) bool {
	switch r {
	case ',', '[', ']', '{', '}':
		return true
	}
	return false
}

// IsAlpha reports whether r may appear in an anchor or tag handle.
func IsAlpha(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r == '_' || r == '-'
}

// IsDigit reports whether r is an ASCII decimal digit.
func IsDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// IsHex reports whether r is an ASCII hexadecimal digit.
func IsHex(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'A' && r <= 'F' || r >= 'a' && r <= 'f'
}

// AsHex returns the value of a hexadecimal digit.
func AsHex(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	default:
		return int(r-'a') + 10
	}
}

// IsPrintable reports whether r may appear in a YAML stream outside an
// escape sequence.
func IsPrintable(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r' || r == 0x85:
		return true
	case r >= 0x20 && r <= 0x7e:
		return true
	case r >= 0xa0 && r <= 0xd7ff:
		return true
	case r >= 0xe000 && r <= 0xfffd:
		return true
	case r >= 0x10000 && r <= 0x10ffff:
		return true
	}
	return false
}

// IsURIChar reports whether r may appear unescaped in a tag URI.
func IsURIChar(r rune) bool {
	if IsAlpha(r) {
		return true
	}
	switch r {
	case ';', '/', '?', ':', '@', '&', '=', '+', '$', ',', '.', '!', '~', '*', '\'', '(', ')', '[', ']', '%', '#':
		return true
	}
	return false
}
