package parserc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yamlkit/yaml/internal/yamlh"
)

func TestReaderBasicCursor(t *testing.T) {
	r, err := NewReader([]byte("ab\ncd"))
	require.NoError(t, err)
	require.Equal(t, yamlh.UTF8Encoding, r.Encoding())

	require.Equal(t, 'a', r.Peek())
	require.Equal(t, 'b', r.PeekAt(1))
	require.Equal(t, '\n', r.PeekAt(2))
	require.Equal(t, 'c', r.PeekAt(3))

	require.Equal(t, yamlh.Mark{}, r.Mark())
	r.Skip()
	require.Equal(t, yamlh.Mark{Index: 1, Line: 0, Column: 1}, r.Mark())
	r.SkipN(2)
	require.Equal(t, yamlh.Mark{Index: 3, Line: 1, Column: 0}, r.Mark())
	r.SkipN(2)
	require.True(t, r.Empty())
	require.Equal(t, rune(0), r.Peek())
}

func TestReaderCRLFCountsOneLine(t *testing.T) {
	r, err := NewReader([]byte("a\r\nb"))
	require.NoError(t, err)
	r.SkipN(3)
	require.Equal(t, yamlh.Mark{Index: 3, Line: 1, Column: 0}, r.Mark())
	require.Equal(t, 'b', r.Peek())
}

func TestReaderUnicodeBreaks(t *testing.T) {
	r, err := NewReader([]byte("a\u0085b\u2028c"))
	require.NoError(t, err)
	r.SkipN(2)
	require.Equal(t, 1, r.Mark().Line)
	require.Equal(t, 'b', r.Peek())
	r.SkipN(2)
	require.Equal(t, 2, r.Mark().Line)
	require.Equal(t, 'c', r.Peek())
}

func TestReaderSaveRestore(t *testing.T) {
	r, err := NewReader([]byte("hello"))
	require.NoError(t, err)
	r.SkipN(2)
	saved := r.Save()
	r.SkipN(2)
	require.Equal(t, 'o', r.Peek())
	r.Restore(saved)
	require.Equal(t, 'l', r.Peek())
	require.Equal(t, 2, r.Mark().Index)
}

func TestReaderUTF8BOMStripped(t *testing.T) {
	r, err := NewReader([]byte("\xef\xbb\xbfkey"))
	require.NoError(t, err)
	require.Equal(t, 'k', r.Peek())
}

func encodeUTF16LE(s string, bom bool) []byte {
	var b []byte
	if bom {
		b = append(b, 0xff, 0xfe)
	}
	for _, r := range s {
		// Test inputs stay in the BMP.
		b = append(b, byte(r), byte(r>>8))
	}
	return b
}

func TestReaderUTF16LE(t *testing.T) {
	r, err := NewReader(encodeUTF16LE("key: value\n", true))
	require.NoError(t, err)
	require.Equal(t, yamlh.UTF16LEEncoding, r.Encoding())
	require.Equal(t, 'k', r.Peek())
}

func TestReaderUTF16BEByZeroPattern(t *testing.T) {
	var b []byte
	for _, r := range "ab" {
		b = append(b, 0, byte(r))
	}
	r, err := NewReader(b)
	require.NoError(t, err)
	require.Equal(t, yamlh.UTF16BEEncoding, r.Encoding())
	require.Equal(t, 'a', r.Peek())
}

func TestReaderUTF32LE(t *testing.T) {
	input := []byte{0xff, 0xfe, 0, 0, 'h', 0, 0, 0, 'i', 0, 0, 0}
	r, err := NewReader(input)
	require.NoError(t, err)
	require.Equal(t, yamlh.UTF32LEEncoding, r.Encoding())
	require.Equal(t, 'h', r.Peek())
	r.Skip()
	require.Equal(t, 'i', r.Peek())
}

func TestReaderMisalignedUTF16(t *testing.T) {
	input := append(encodeUTF16LE("ab", true), 'x')
	_, err := NewReader(input)
	var rerr *yamlh.ReaderError
	require.ErrorAs(t, err, &rerr)
	require.Contains(t, rerr.Problem, "code unit boundary")
}

func TestReaderRejectsControlCharacters(t *testing.T) {
	_, err := NewReader([]byte("ok\x01"))
	var rerr *yamlh.ReaderError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, 2, rerr.Mark.Column)
}

func TestReaderRejectsInvalidUTF8(t *testing.T) {
	_, err := NewReader([]byte{'a', 0xff, 0xfe, 0xfd})
	var rerr *yamlh.ReaderError
	require.ErrorAs(t, err, &rerr)
	require.Contains(t, rerr.Problem, "UTF-8")
}

func TestReaderAllowsTabAndBreaks(t *testing.T) {
	_, err := NewReader([]byte("a\tb\r\nc"))
	require.NoError(t, err)
}
