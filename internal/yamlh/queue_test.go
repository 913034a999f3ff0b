package yamlh

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenQueueFIFO(t *testing.T) {
	var q TokenQueue
	q.Push(Token{Type: KeyToken})
	q.Push(Token{Type: ValueToken})
	require.Equal(t, 2, q.Len())
	require.Equal(t, KeyToken, q.Pop().Type)
	require.Equal(t, ValueToken, q.Pop().Type)
	require.Equal(t, 0, q.Len())
}

func TestTokenQueueInsert(t *testing.T) {
	var q TokenQueue
	q.Push(Token{Type: ScalarToken})
	q.Push(Token{Type: ValueToken})

	// Plant KEY before the scalar, then BLOCK-MAPPING-START before that.
	q.Insert(0, Token{Type: KeyToken})
	q.Insert(0, Token{Type: BlockMappingStartToken})

	require.Equal(t, BlockMappingStartToken, q.Pop().Type)
	require.Equal(t, KeyToken, q.Pop().Type)
	require.Equal(t, ScalarToken, q.Pop().Type)
	require.Equal(t, ValueToken, q.Pop().Type)
}

func TestTokenQueueInsertAfterPops(t *testing.T) {
	var q TokenQueue
	for i := 0; i < 4; i++ {
		q.Push(Token{Type: ScalarToken, Major: int8(i)})
	}
	q.Pop()
	q.Pop()

	q.Insert(1, Token{Type: KeyToken})
	require.Equal(t, 3, q.Len())
	require.Equal(t, int8(2), q.Pop().Major)
	require.Equal(t, KeyToken, q.Pop().Type)
	require.Equal(t, int8(3), q.Pop().Major)
}

func TestTokenQueuePeek(t *testing.T) {
	var q TokenQueue
	q.Push(Token{Type: KeyToken})
	q.Push(Token{Type: ValueToken})
	require.Equal(t, KeyToken, q.Peek(0).Type)
	require.Equal(t, ValueToken, q.Peek(1).Type)
	require.Equal(t, 2, q.Len())
}

func TestTokenQueueInsertOutOfRangePanics(t *testing.T) {
	var q TokenQueue
	require.Panics(t, func() { q.Insert(1, Token{}) })
}
