package emitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yamlkit/yaml/internal/yamlh"
)

func emitAll(t *testing.T, configure func(*Emitter), events []yamlh.Event) string {
	t.Helper()
	var b strings.Builder
	e := New(&b)
	if configure != nil {
		configure(e)
	}
	for i := range events {
		require.NoError(t, e.Emit(events[i]), "event %d (%v)", i, events[i].Type)
	}
	return b.String()
}

func docEvents(body ...yamlh.Event) []yamlh.Event {
	events := []yamlh.Event{
		{Type: yamlh.StreamStartEvent},
		{Type: yamlh.DocumentStartEvent},
	}
	events = append(events, body...)
	events = append(events,
		yamlh.Event{Type: yamlh.DocumentEndEvent},
		yamlh.Event{Type: yamlh.StreamEndEvent},
	)
	return events
}

func plainScalar(value string) yamlh.Event {
	return yamlh.Event{Type: yamlh.ScalarEvent, Value: value, Implicit: true}
}

func TestEmitBlockMapping(t *testing.T) {
	out := emitAll(t, nil, docEvents(
		yamlh.Event{Type: yamlh.MappingStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		plainScalar("key"),
		plainScalar("value"),
		yamlh.Event{Type: yamlh.MappingEndEvent},
	))
	require.Equal(t, "key: value\n", out)
}

func TestEmitBlockSequence(t *testing.T) {
	out := emitAll(t, nil, docEvents(
		yamlh.Event{Type: yamlh.SequenceStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		plainScalar("1"),
		plainScalar("2"),
		plainScalar("3"),
		yamlh.Event{Type: yamlh.SequenceEndEvent},
	))
	require.Equal(t, "- 1\n- 2\n- 3\n", out)
}

func TestEmitNestedBlock(t *testing.T) {
	out := emitAll(t, nil, docEvents(
		yamlh.Event{Type: yamlh.MappingStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		plainScalar("outer"),
		yamlh.Event{Type: yamlh.MappingStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		plainScalar("inner"),
		plainScalar("v"),
		yamlh.Event{Type: yamlh.MappingEndEvent},
		yamlh.Event{Type: yamlh.MappingEndEvent},
	))
	require.Equal(t, "outer:\n  inner: v\n", out)
}

func TestEmitFlowSequence(t *testing.T) {
	out := emitAll(t, nil, docEvents(
		yamlh.Event{Type: yamlh.SequenceStartEvent, Implicit: true, CollectionStyle: yamlh.FlowCollectionStyle},
		plainScalar("1"),
		plainScalar("2"),
		yamlh.Event{Type: yamlh.SequenceEndEvent},
	))
	require.Equal(t, "[1, 2]\n", out)
}

func TestEmitFlowMapping(t *testing.T) {
	out := emitAll(t, nil, docEvents(
		yamlh.Event{Type: yamlh.MappingStartEvent, Implicit: true, CollectionStyle: yamlh.FlowCollectionStyle},
		plainScalar("a"),
		plainScalar("1"),
		yamlh.Event{Type: yamlh.MappingEndEvent},
	))
	require.Equal(t, "{a: 1}\n", out)
}

func TestEmitEmptyCollectionsStayFlow(t *testing.T) {
	out := emitAll(t, nil, docEvents(
		yamlh.Event{Type: yamlh.MappingStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		plainScalar("a"),
		yamlh.Event{Type: yamlh.SequenceStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		yamlh.Event{Type: yamlh.SequenceEndEvent},
		plainScalar("b"),
		yamlh.Event{Type: yamlh.MappingStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		yamlh.Event{Type: yamlh.MappingEndEvent},
		yamlh.Event{Type: yamlh.MappingEndEvent},
	))
	require.Equal(t, "a: []\nb: {}\n", out)
}

func TestEmitScalarStyles(t *testing.T) {
	tests := []struct {
		name  string
		event yamlh.Event
		want  string
	}{
		{
			name:  "plain",
			event: yamlh.Event{Type: yamlh.ScalarEvent, Value: "hello", Implicit: true},
			want:  "hello\n...\n",
		},
		{
			name: "single quoted",
			event: yamlh.Event{
				Type: yamlh.ScalarEvent, Value: "hello",
				QuotedImplicit: true, ScalarStyle: yamlh.SingleQuotedScalarStyle,
			},
			want: "'hello'\n",
		},
		{
			name: "double quoted with escapes",
			event: yamlh.Event{
				Type: yamlh.ScalarEvent, Value: "a\tb",
				QuotedImplicit: true, ScalarStyle: yamlh.DoubleQuotedScalarStyle,
			},
			want: "\"a\\tb\"\n",
		},
		{
			name: "literal",
			event: yamlh.Event{
				Type: yamlh.ScalarEvent, Value: "foo\nbar",
				QuotedImplicit: true, ScalarStyle: yamlh.LiteralScalarStyle,
			},
			want: "|-\n  foo\n  bar\n",
		},
		{
			name: "literal clip",
			event: yamlh.Event{
				Type: yamlh.ScalarEvent, Value: "foo\nbar\n",
				QuotedImplicit: true, ScalarStyle: yamlh.LiteralScalarStyle,
			},
			want: "|\n  foo\n  bar\n",
		},
		{
			name: "literal keep",
			event: yamlh.Event{
				Type: yamlh.ScalarEvent, Value: "foo\n\n",
				QuotedImplicit: true, ScalarStyle: yamlh.LiteralScalarStyle,
			},
			want: "|+\n  foo\n\n...\n",
		},
		{
			name: "folded",
			event: yamlh.Event{
				Type: yamlh.ScalarEvent, Value: "folded text\n",
				QuotedImplicit: true, ScalarStyle: yamlh.FoldedScalarStyle,
			},
			want: ">\n  folded text\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := emitAll(t, nil, docEvents(tt.event))
			require.Equal(t, tt.want, out)
		})
	}
}

func TestEmitQuotesWhenPlainIllegal(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"- leading dash", "'- leading dash'\n"},
		{"trailing space ", "'trailing space '\n"},
		{"#comment", "'#comment'\n"},
		{"a: b", "'a: b'\n"},
	}
	for _, tt := range tests {
		out := emitAll(t, nil, docEvents(yamlh.Event{
			Type: yamlh.ScalarEvent, Value: tt.value,
			Implicit: true, QuotedImplicit: true,
		}))
		require.Equal(t, tt.want, out, "value %q", tt.value)
	}
}

func TestEmitMultilineValueNotSimpleKey(t *testing.T) {
	out := emitAll(t, nil, docEvents(
		yamlh.Event{Type: yamlh.MappingStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		yamlh.Event{Type: yamlh.ScalarEvent, Value: "multi\nline", Implicit: true, QuotedImplicit: true},
		plainScalar("v"),
		yamlh.Event{Type: yamlh.MappingEndEvent},
	))
	require.Equal(t, "? 'multi\n\n  line'\n: v\n", out)
}

func TestEmitExplicitDocumentMarkers(t *testing.T) {
	out := emitAll(t, nil, []yamlh.Event{
		{Type: yamlh.StreamStartEvent},
		{Type: yamlh.DocumentStartEvent, Explicit: true},
		plainScalar("a"),
		{Type: yamlh.DocumentEndEvent, Explicit: true},
		{Type: yamlh.StreamEndEvent},
	})
	require.Equal(t, "--- a\n...\n", out)
}

func TestEmitSecondDocumentGetsMarker(t *testing.T) {
	out := emitAll(t, nil, []yamlh.Event{
		{Type: yamlh.StreamStartEvent},
		{Type: yamlh.DocumentStartEvent},
		{Type: yamlh.MappingStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		plainScalar("a"),
		plainScalar("1"),
		{Type: yamlh.MappingEndEvent},
		{Type: yamlh.DocumentEndEvent},
		{Type: yamlh.DocumentStartEvent},
		plainScalar("b"),
		{Type: yamlh.DocumentEndEvent},
		{Type: yamlh.StreamEndEvent},
	})
	require.Equal(t, "a: 1\n--- b\n...\n", out)
}

func TestEmitVersionDirective(t *testing.T) {
	out := emitAll(t, nil, []yamlh.Event{
		{Type: yamlh.StreamStartEvent},
		{
			Type:    yamlh.DocumentStartEvent,
			Version: &yamlh.VersionDirective{Major: 1, Minor: 1},
		},
		plainScalar("x"),
		{Type: yamlh.DocumentEndEvent},
		{Type: yamlh.StreamEndEvent},
	})
	require.Equal(t, "%YAML 1.1\n--- x\n...\n", out)
}

func TestEmitTagDirectiveShortensTags(t *testing.T) {
	out := emitAll(t, nil, []yamlh.Event{
		{Type: yamlh.StreamStartEvent},
		{
			Type: yamlh.DocumentStartEvent,
			TagDirectives: []yamlh.TagDirective{
				{Handle: "!e!", Prefix: "tag:example.com,2000:"},
			},
		},
		{Type: yamlh.ScalarEvent, Value: "v", Tag: "tag:example.com,2000:foo"},
		{Type: yamlh.DocumentEndEvent},
		{Type: yamlh.StreamEndEvent},
	})
	require.Equal(t, "%TAG !e! tag:example.com,2000:\n--- !e!foo v\n...\n", out)
}

func TestEmitDefaultHandleTags(t *testing.T) {
	out := emitAll(t, nil, docEvents(yamlh.Event{
		Type: yamlh.ScalarEvent, Value: "123", Tag: yamlh.StrTag,
	}))
	require.Equal(t, "!!str 123\n...\n", out)
}

func TestEmitVerbatimTag(t *testing.T) {
	out := emitAll(t, nil, docEvents(yamlh.Event{
		Type: yamlh.ScalarEvent, Value: "v", Tag: "tag:example.com,2000:x",
	}))
	require.Equal(t, "!<tag:example.com,2000:x> v\n...\n", out)
}

func TestEmitCanonicalScalar(t *testing.T) {
	out := emitAll(t, func(e *Emitter) { e.SetCanonical(true) }, docEvents(yamlh.Event{
		Type: yamlh.ScalarEvent, Value: "hi", Tag: yamlh.StrTag,
		Implicit: true, QuotedImplicit: true,
	}))
	require.Equal(t, "---\n!<tag:yaml.org,2002:str> \"hi\"\n", out)
}

func TestEmitCanonicalMapping(t *testing.T) {
	out := emitAll(t, func(e *Emitter) { e.SetCanonical(true) }, docEvents(
		yamlh.Event{Type: yamlh.MappingStartEvent, Tag: yamlh.MapTag, CollectionStyle: yamlh.BlockCollectionStyle},
		yamlh.Event{Type: yamlh.ScalarEvent, Value: "key", Tag: yamlh.StrTag, Implicit: true, QuotedImplicit: true},
		yamlh.Event{Type: yamlh.ScalarEvent, Value: "value", Tag: yamlh.StrTag, Implicit: true, QuotedImplicit: true},
		yamlh.Event{Type: yamlh.MappingEndEvent},
	))
	require.Equal(t, "---\n"+
		"!<tag:yaml.org,2002:map> {\n"+
		"  ? !<tag:yaml.org,2002:str> \"key\"\n"+
		"  : !<tag:yaml.org,2002:str> \"value\",\n"+
		"}\n", out)
}

func TestEmitAnchorsAndAliases(t *testing.T) {
	out := emitAll(t, nil, docEvents(
		yamlh.Event{Type: yamlh.SequenceStartEvent, Implicit: true, CollectionStyle: yamlh.FlowCollectionStyle},
		yamlh.Event{Type: yamlh.ScalarEvent, Value: "shared", Anchor: "a", Implicit: true},
		yamlh.Event{Type: yamlh.AliasEvent, Anchor: "a"},
		yamlh.Event{Type: yamlh.SequenceEndEvent},
	))
	require.Equal(t, "[&a shared, *a]\n", out)
}

func TestEmitInvalidAnchorRejected(t *testing.T) {
	var b strings.Builder
	e := New(&b)
	require.NoError(t, e.Emit(yamlh.Event{Type: yamlh.StreamStartEvent}))
	require.NoError(t, e.Emit(yamlh.Event{Type: yamlh.DocumentStartEvent}))
	err := e.Emit(yamlh.Event{Type: yamlh.ScalarEvent, Value: "v", Anchor: "bad anchor", Implicit: true})
	var eerr *yamlh.EmitterError
	require.ErrorAs(t, err, &eerr)
}

func TestEmitIndentKnob(t *testing.T) {
	events := docEvents(
		yamlh.Event{Type: yamlh.MappingStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		plainScalar("outer"),
		yamlh.Event{Type: yamlh.MappingStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		plainScalar("inner"),
		plainScalar("v"),
		yamlh.Event{Type: yamlh.MappingEndEvent},
		yamlh.Event{Type: yamlh.MappingEndEvent},
	)
	out := emitAll(t, func(e *Emitter) { e.SetIndent(4) }, events)
	require.Equal(t, "outer:\n    inner: v\n", out)
}

func TestEmitIndentlessSequenceUnderKey(t *testing.T) {
	out := emitAll(t, nil, docEvents(
		yamlh.Event{Type: yamlh.MappingStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		plainScalar("outer"),
		yamlh.Event{Type: yamlh.SequenceStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		plainScalar("x"),
		yamlh.Event{Type: yamlh.SequenceEndEvent},
		yamlh.Event{Type: yamlh.MappingEndEvent},
	))
	require.Equal(t, "outer:\n- x\n", out)
}

func TestEmitLineBreakKnob(t *testing.T) {
	out := emitAll(t, func(e *Emitter) { e.SetBreak(yamlh.CRLNBreak) }, docEvents(
		yamlh.Event{Type: yamlh.MappingStartEvent, Implicit: true, CollectionStyle: yamlh.BlockCollectionStyle},
		plainScalar("a"),
		plainScalar("1"),
		yamlh.Event{Type: yamlh.MappingEndEvent},
	))
	require.Equal(t, "a: 1\r\n", out)
}

func TestEmitWidthWrapsFlowSequence(t *testing.T) {
	body := []yamlh.Event{
		{Type: yamlh.SequenceStartEvent, Implicit: true, CollectionStyle: yamlh.FlowCollectionStyle},
	}
	for i := 0; i < 6; i++ {
		body = append(body, plainScalar(strings.Repeat("x", 8)))
	}
	body = append(body, yamlh.Event{Type: yamlh.SequenceEndEvent})

	out := emitAll(t, func(e *Emitter) { e.SetWidth(20) }, docEvents(body...))
	require.Greater(t, strings.Count(out, "\n"), 1, "expected wrapped output, got %q", out)
	// The break comes only once the column has passed the width, so a line
	// may end one ", item," past it: 20 + 10 = 30.
	for _, line := range strings.Split(out, "\n") {
		require.LessOrEqual(t, len(line), 30, "line %q too long", line)
	}
}

func TestEmitHugeWidthSingleLine(t *testing.T) {
	body := []yamlh.Event{
		{Type: yamlh.SequenceStartEvent, Implicit: true, CollectionStyle: yamlh.FlowCollectionStyle},
	}
	for i := 0; i < 20; i++ {
		body = append(body, plainScalar("word"))
	}
	body = append(body, yamlh.Event{Type: yamlh.SequenceEndEvent})
	out := emitAll(t, func(e *Emitter) { e.SetWidth(1000000) }, docEvents(body...))
	require.Equal(t, 1, strings.Count(out, "\n"))
}

func TestEmitRejectsEventAfterStreamEnd(t *testing.T) {
	var b strings.Builder
	e := New(&b)
	require.NoError(t, e.Emit(yamlh.Event{Type: yamlh.StreamStartEvent}))
	require.NoError(t, e.Emit(yamlh.Event{Type: yamlh.StreamEndEvent}))
	require.Error(t, e.Emit(yamlh.Event{Type: yamlh.ScalarEvent, Value: "x", Implicit: true}))
}
