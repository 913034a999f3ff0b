package yaml

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNodeKindsAndAccessors(t *testing.T) {
	require.True(t, NullNode().IsNull())

	b, ok := BoolNode(true).Bool()
	require.True(t, ok)
	require.True(t, b)

	i, ok := IntNode(-5).Int64()
	require.True(t, ok)
	require.Equal(t, int64(-5), i)

	f, ok := FloatNode(2.5).Float64()
	require.True(t, ok)
	require.Equal(t, 2.5, f)

	// Ints read as floats too.
	f, ok = IntNode(3).Float64()
	require.True(t, ok)
	require.Equal(t, 3.0, f)

	s, ok := StringNode("x").Str()
	require.True(t, ok)
	require.Equal(t, "x", s)

	_, ok = StringNode("x").Int64()
	require.False(t, ok)

	bin, ok := BinaryNode([]byte{1, 2}).Binary()
	require.True(t, ok)
	require.Equal(t, []byte{1, 2}, bin)

	now := time.Now()
	ts, ok := TimestampNode(now).Time()
	require.True(t, ok)
	require.True(t, now.Equal(ts))
}

func TestNodeSequenceOps(t *testing.T) {
	n := SequenceNode(IntNode(1), IntNode(2))
	require.Equal(t, 2, n.Len())

	n.Append(IntNode(3))
	require.Equal(t, 3, n.Len())
	v, _ := n.At(2).Int64()
	require.Equal(t, int64(3), v)

	n.SetAt(0, IntNode(10))
	v, _ = n.At(0).Int64()
	require.Equal(t, int64(10), v)

	require.Panics(t, func() { MappingNode().Append(IntNode(1)) })
}

func TestNodeMappingOps(t *testing.T) {
	n := MappingNode(
		Pair{Key: StringNode("a"), Value: IntNode(1)},
	)
	v, ok := n.MapValue("a")
	require.True(t, ok)
	i, _ := v.Int64()
	require.Equal(t, int64(1), i)

	// Set replaces an equal key and appends a new one.
	n.Set(StringNode("a"), IntNode(2))
	require.Equal(t, 1, n.Len())
	v, _ = n.MapValue("a")
	i, _ = v.Int64()
	require.Equal(t, int64(2), i)

	n.Set(StringNode("b"), IntNode(3))
	require.Equal(t, 2, n.Len())

	require.True(t, n.Delete(StringNode("a")))
	require.False(t, n.Delete(StringNode("a")))
	require.Equal(t, 1, n.Len())

	_, ok = n.MapValue("a")
	require.False(t, ok)
}

func TestNodeEquality(t *testing.T) {
	require.True(t, IntNode(1).Equal(IntNode(1)))
	require.False(t, IntNode(1).Equal(IntNode(2)))
	require.False(t, IntNode(1).Equal(StringNode("1")))
	require.True(t, NullNode().Equal(NullNode()))
	require.True(t, FloatNode(math.NaN()).Equal(FloatNode(math.NaN())))

	a := MappingNode(
		Pair{Key: StringNode("k"), Value: SequenceNode(IntNode(1), IntNode(2))},
	)
	b := MappingNode(
		Pair{Key: StringNode("k"), Value: SequenceNode(IntNode(1), IntNode(2))},
	)
	require.True(t, a.Equal(b))

	b.Pairs()[0].Value.SetAt(1, IntNode(3))
	require.False(t, a.Equal(b))

	// Tags and styles do not take part in equality.
	tagged := StringNode("x")
	tagged.Tag = StrTag
	tagged.ScalarStyle = DoubleQuotedStyle
	require.True(t, StringNode("x").Equal(tagged))
}

func TestNodeUserValueEquality(t *testing.T) {
	a := UserNode(temperature{celsius: 20}, "!temp")
	b := UserNode(temperature{celsius: 20}, "!temp")
	c := UserNode(temperature{celsius: 21}, "!temp")
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))

	v, ok := a.User()
	require.True(t, ok)
	require.Equal(t, temperature{celsius: 20}, v)
}

func TestNodeDuplicateKeyDetectionUsesDeepEquality(t *testing.T) {
	// Keys that are nested collections compare by value.
	_, err := LoadString("? [1, 2]\n: a\n? [1, 2]\n: b\n")
	var cerr *ComposerError
	require.ErrorAs(t, err, &cerr)
	require.Contains(t, cerr.Problem, "duplicate key")
}

func TestNodeCollectionKeyAllowedWhenDistinct(t *testing.T) {
	docs, err := LoadString("? [1, 2]\n: a\n? [1, 3]\n: b\n")
	require.NoError(t, err)
	require.Equal(t, 2, docs[0].Len())
}
