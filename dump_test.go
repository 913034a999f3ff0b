package yaml

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDumpSimpleMapping(t *testing.T) {
	out, err := DumpString(MappingNode(
		Pair{Key: StringNode("key"), Value: StringNode("value")},
	))
	require.NoError(t, err)
	require.Equal(t, "key: value\n", out)
}

func TestDumpSequence(t *testing.T) {
	out, err := DumpString(SequenceNode(IntNode(1), IntNode(2), IntNode(3)))
	require.NoError(t, err)
	require.Equal(t, "- 1\n- 2\n- 3\n", out)
}

func TestDumpNestedMapping(t *testing.T) {
	out, err := DumpString(MappingNode(
		Pair{Key: StringNode("outer"), Value: MappingNode(
			Pair{Key: StringNode("inner"), Value: IntNode(1)},
		)},
	))
	require.NoError(t, err)
	require.Equal(t, "outer:\n  inner: 1\n", out)
}

func TestDumpScalarKinds(t *testing.T) {
	out, err := DumpString(MappingNode(
		Pair{Key: StringNode("null"), Value: NullNode()},
		Pair{Key: StringNode("bool"), Value: BoolNode(true)},
		Pair{Key: StringNode("int"), Value: IntNode(-42)},
		Pair{Key: StringNode("float"), Value: FloatNode(3.5)},
		Pair{Key: StringNode("str"), Value: StringNode("words")},
	))
	require.NoError(t, err)
	require.Equal(t, "'null': null\nbool: true\nint: -42\nfloat: 3.5\nstr: words\n", out)
}

func TestDumpStringsThatLookTyped(t *testing.T) {
	// A string that resolves as something else must not come out plain.
	out, err := DumpString(MappingNode(
		Pair{Key: StringNode("a"), Value: StringNode("123")},
		Pair{Key: StringNode("b"), Value: StringNode("true")},
		Pair{Key: StringNode("c"), Value: StringNode("")},
	))
	require.NoError(t, err)
	require.Equal(t, "a: '123'\nb: 'true'\nc: ''\n", out)
}

func TestDumpFloatAlwaysResolvable(t *testing.T) {
	out, err := DumpString(SequenceNode(FloatNode(1e6), FloatNode(0.5)))
	require.NoError(t, err)
	docs, err := LoadString(out)
	require.NoError(t, err)
	v0, ok := docs[0].At(0).Float64()
	require.True(t, ok)
	require.Equal(t, 1e6, v0)
}

func TestDumpSpecialFloats(t *testing.T) {
	out, err := DumpString(SequenceNode(
		FloatNode(math.Inf(1)), FloatNode(math.Inf(-1)), FloatNode(math.NaN()),
	))
	require.NoError(t, err)
	require.Equal(t, "- .inf\n- -.inf\n- .nan\n", out)
}

func TestDumpTimestamp(t *testing.T) {
	ts := time.Date(2001, 12, 15, 2, 59, 43, 100000000, time.UTC)
	out, err := DumpString(MappingNode(
		Pair{Key: StringNode("when"), Value: TimestampNode(ts)},
	))
	require.NoError(t, err)
	require.Equal(t, "when: 2001-12-15T02:59:43.1Z\n", out)
}

func TestDumpBinary(t *testing.T) {
	out, err := DumpString(MappingNode(
		Pair{Key: StringNode("data"), Value: BinaryNode([]byte("hello"))},
	))
	require.NoError(t, err)
	require.Equal(t, "data: !!binary aGVsbG8=\n", out)
}

func TestDumpPreservesStyles(t *testing.T) {
	docs, err := LoadString("block: |-\n  foo\n  bar\nflow: [1, 2]\n")
	require.NoError(t, err)
	out, err := DumpString(docs...)
	require.NoError(t, err)
	require.Equal(t, "block: |-\n  foo\n  bar\nflow: [1, 2]\n", out)
}

func TestDumpCanonicalScalar(t *testing.T) {
	var b strings.Builder
	d := NewDumper(&b)
	d.Canonical = true
	require.NoError(t, d.Dump(StringNode("hi")))
	require.Equal(t, "---\n!<tag:yaml.org,2002:str> \"hi\"\n", b.String())
}

func TestDumpNonCanonicalDropsRedundantTag(t *testing.T) {
	// An explicit !!str on a quoted scalar is redundant and re-emits bare.
	docs, err := LoadString("&a !!str \"hi\"\n")
	require.NoError(t, err)
	out, err := DumpString(docs...)
	require.NoError(t, err)
	require.Equal(t, "\"hi\"\n", out)
}

func TestDumpExplicitMarkers(t *testing.T) {
	var b strings.Builder
	d := NewDumper(&b)
	d.ExplicitStart = true
	d.ExplicitEnd = true
	require.NoError(t, d.Dump(MappingNode(
		Pair{Key: StringNode("a"), Value: IntNode(1)},
	)))
	require.Equal(t, "---\na: 1\n...\n", b.String())
}

func TestDumpVersionDirective(t *testing.T) {
	var b strings.Builder
	d := NewDumper(&b)
	d.Version = "1.1"
	require.NoError(t, d.Dump(StringNode("x")))
	require.Equal(t, "%YAML 1.1\n--- x\n...\n", b.String())

	d = NewDumper(&b)
	d.Version = "2.0"
	require.Error(t, d.Dump(StringNode("x")))
}

func TestDumpTagDirectives(t *testing.T) {
	var b strings.Builder
	d := NewDumper(&b)
	d.TagDirectives = []TagDirective{
		{Handle: "!e!", Prefix: "tag:example.com,2000:"},
	}
	n := StringNode("v")
	n.Tag = "tag:example.com,2000:foo"
	require.NoError(t, d.Dump(n))
	require.Equal(t, "%TAG !e! tag:example.com,2000:\n--- !e!foo v\n...\n", b.String())
}

func TestDumpIndentKnob(t *testing.T) {
	var b strings.Builder
	d := NewDumper(&b)
	d.Indent = 4
	require.NoError(t, d.Dump(MappingNode(
		Pair{Key: StringNode("outer"), Value: MappingNode(
			Pair{Key: StringNode("inner"), Value: IntNode(1)},
		)},
	)))
	require.Equal(t, "outer:\n    inner: 1\n", b.String())
}

func TestDumpLineBreakKnob(t *testing.T) {
	var b strings.Builder
	d := NewDumper(&b)
	d.LineBreak = WindowsBreak
	require.NoError(t, d.Dump(MappingNode(
		Pair{Key: StringNode("a"), Value: IntNode(1)},
	)))
	require.Equal(t, "a: 1\r\n", b.String())
}

func TestDumpSharedNodeGetsAnchor(t *testing.T) {
	shared := MappingNode(Pair{Key: StringNode("k"), Value: IntNode(1)})
	out, err := DumpString(SequenceNode(shared, shared))
	require.NoError(t, err)
	require.Equal(t, "- &id001\n  k: 1\n- *id001\n", out)

	docs, err := LoadString(out)
	require.NoError(t, err)
	require.Same(t, docs[0].At(0), docs[0].At(1))
}

func TestDumpSmallScalarNotAnchored(t *testing.T) {
	small := StringNode("tiny")
	out, err := DumpString(SequenceNode(small, small))
	require.NoError(t, err)
	require.Equal(t, "- tiny\n- tiny\n", out)
}

func TestDumpLargeScalarAnchored(t *testing.T) {
	big := StringNode(strings.Repeat("x", 100))
	out, err := DumpString(SequenceNode(big, big))
	require.NoError(t, err)
	require.Contains(t, out, "&id001")
	require.Contains(t, out, "*id001")
}

func TestDumpMultipleDocuments(t *testing.T) {
	var b strings.Builder
	d := NewDumper(&b)
	require.NoError(t, d.Dump(StringNode("one"), StringNode("two")))
	docs, err := LoadString(b.String())
	require.NoError(t, err)
	require.Len(t, docs, 2)
}

type temperature struct {
	celsius int
}

func (v temperature) EqualValue(other UserValue) bool {
	o, ok := other.(temperature)
	return ok && o == v
}

func TestDumpUserValueThroughRepresenter(t *testing.T) {
	var b strings.Builder
	d := NewDumper(&b)
	d.Representer().Add(temperature{}, func(v UserValue) (*Node, error) {
		return IntNode(int64(v.(temperature).celsius)), nil
	})
	require.NoError(t, d.Dump(MappingNode(
		Pair{Key: StringNode("temp"), Value: UserNode(temperature{celsius: 21}, "!temp")},
	)))
	require.Equal(t, "temp: !temp 21\n", b.String())
}

func TestDumpUserValueWithoutRepresenterFails(t *testing.T) {
	var b strings.Builder
	d := NewDumper(&b)
	err := d.Dump(UserNode(temperature{celsius: 1}, "!temp"))
	require.Error(t, err)
}

func TestDumpOmapShape(t *testing.T) {
	docs, err := LoadString("!!omap\n- a: 1\n- b: 2\n")
	require.NoError(t, err)
	out, err := DumpString(docs...)
	require.NoError(t, err)
	require.Equal(t, "!!omap\n- a: 1\n- b: 2\n", out)
}
