package yaml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yamlkit/yaml/internal/emitter"
	"github.com/yamlkit/yaml/internal/parserc"
	"github.com/yamlkit/yaml/internal/yamlh"
)

// loadDumpLoad checks the second law of §8: dumping a loaded tree and
// loading it again yields an equal tree.
func loadDumpLoad(t *testing.T, input string) {
	t.Helper()
	docs, err := LoadString(input)
	require.NoError(t, err, "input %q", input)

	out, err := DumpString(docs...)
	require.NoError(t, err, "input %q", input)

	again, err := LoadString(out)
	require.NoError(t, err, "re-input %q (from %q)", out, input)
	require.Equal(t, len(docs), len(again), "document count changed for %q -> %q", input, out)
	for i := range docs {
		require.True(t, docs[i].Equal(again[i]),
			"tree changed for %q:\nfirst:  %v\ndumped: %q\nsecond: %v", input, docs[i], out, again[i])
	}
}

func TestRoundTripDocuments(t *testing.T) {
	inputs := []string{
		"key: value\n",
		"- 1\n- 2\n- 3\n",
		"a: 1\nb: two\nc: [3, 4]\nd: {e: 5}\n",
		"nested:\n  list:\n  - x\n  - y: z\n",
		"|-\n  foo\n  bar\n",
		"|+\n  foo\n\n",
		">\n  folded text here\n",
		"'single quoted'\n",
		"\"double\\tquoted\"\n",
		"empty: ''\n",
		"nulls: [~, null, '']\n",
		"ints: [1, -2, 0x10, 0b11, 010]\n",
		"floats: [0.5, -3.25, .inf, -.inf]\n",
		"bools: [yes, False, on]\n",
		"when: 2001-12-15T02:59:43.1Z\n",
		"bin: !!binary aGVsbG8=\n",
		"tagged: !!str 123\n",
		"anchors: [&x inner, *x]\n",
		"deep:\n  a:\n    b:\n      c: d\n",
		"---\none\n---\ntwo\n",
		"? explicit key\n: and value\n",
		"looks: '123'\n",
	}
	for _, input := range inputs {
		loadDumpLoad(t, input)
	}
}

func TestRoundTripChompingMatrix(t *testing.T) {
	headers := []string{"|", "|-", "|+", ">", ">-", ">+"}
	tails := []string{"", "\n", "\n\n"} // 1, 2, and 3 trailing breaks
	for _, header := range headers {
		for _, tail := range tails {
			loadDumpLoad(t, header+"\n  x\n"+tail)
		}
	}
}

func TestRoundTripMergedMappingStaysFlat(t *testing.T) {
	docs, err := LoadString("base: &b {a: 1}\nuse:\n  <<: *b\n  c: 2\n")
	require.NoError(t, err)
	out, err := DumpString(docs...)
	require.NoError(t, err)
	// Merges are flattened before the user sees the tree, so the dump
	// holds the merged keys and no '<<'.
	require.NotContains(t, out, "<<")
	require.Contains(t, out, "a: 1")
	require.Contains(t, out, "c: 2")
}

// parseEvents runs the read side up to the event stream.
func parseEvents(t *testing.T, input string) []yamlh.Event {
	t.Helper()
	p, err := parserc.NewParserBytes([]byte(input))
	require.NoError(t, err)
	var events []yamlh.Event
	for {
		ev, err := p.Next()
		require.NoError(t, err)
		events = append(events, ev)
		if ev.Type == yamlh.StreamEndEvent {
			return events
		}
	}
}

// emitEvents runs the write side from an event stream.
func emitEvents(t *testing.T, events []yamlh.Event) string {
	t.Helper()
	var b strings.Builder
	e := emitter.New(&b)
	for i := range events {
		require.NoError(t, e.Emit(events[i]), "event %d (%v)", i, events[i].Type)
	}
	return b.String()
}

// TestRoundTripEventStream checks the first law of §8:
// parse(emit(events)) is equivalent to events up to implicit flags and
// whitespace.
func TestRoundTripEventStream(t *testing.T) {
	inputs := []string{
		"key: value\n",
		"- a\n- [b, c]\n- {d: e}\n",
		"--- |-\n  text\n",
		"anchors: [&x 1, *x]\n",
		"!!str 123\n",
		"? complex\n: value\n",
	}
	for _, input := range inputs {
		first := parseEvents(t, input)
		out := emitEvents(t, first)
		second := parseEvents(t, out)

		require.Equal(t, len(first), len(second),
			"event count changed for %q -> %q", input, out)
		for i := range first {
			a, b := first[i], second[i]
			require.Equal(t, a.Type, b.Type, "event %d for %q -> %q", i, input, out)
			require.Equal(t, a.Value, b.Value, "event %d value for %q -> %q", i, input, out)
			require.Equal(t, a.Anchor, b.Anchor, "event %d anchor for %q", i, input)
			if a.Type == yamlh.ScalarEvent && a.Tag != "" && a.Tag != yamlh.NonSpecificTag {
				require.Equal(t, a.Tag, b.Tag, "event %d tag for %q", i, input)
			}
		}
	}
}

func TestRoundTripWidthExtremes(t *testing.T) {
	docs, err := LoadString("words: one two three four five six seven eight nine ten\n")
	require.NoError(t, err)

	for _, width := range []int{1, 1000000} {
		var b strings.Builder
		d := NewDumper(&b)
		d.TextWidth = width
		require.NoError(t, d.Dump(docs...))

		again, err := LoadString(b.String())
		require.NoError(t, err, "width %d output %q", width, b.String())
		require.True(t, docs[0].Equal(again[0]), "width %d changed the tree: %q", width, b.String())
	}
}

func TestRoundTripUTF16(t *testing.T) {
	var b []byte
	b = append(b, 0xff, 0xfe)
	for _, r := range "unicode: \"\\u00e9\"\n" {
		b = append(b, byte(r), byte(r>>8))
	}
	docs, err := Load(b)
	require.NoError(t, err)
	v, ok := docs[0].MapValue("unicode")
	require.True(t, ok)
	s, _ := v.Str()
	require.Equal(t, "é", s)
	loadDumpLoad(t, "unicode: \"\\u00e9\"\n")
}
