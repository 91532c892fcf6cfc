package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoshuaCandia/custom-chess/internal/color"
)

func applyAll(t *testing.T, e Engine, pos Position, ucis ...string) Position {
	t.Helper()
	for _, uci := range ucis {
		var mv Move
		mv.From, mv.To = uci[:2], uci[2:4]
		if len(uci) > 4 {
			mv.Promotion = uci[4:]
		}
		next, verdict, err := e.Apply(pos, mv)
		require.NoError(t, err)
		require.True(t, verdict.Legal, "expected %s to be legal", uci)
		pos = next
	}
	return pos
}

func TestInitialPosition(t *testing.T) {
	e := NewChessEngine()
	pos := e.InitialPosition()

	assert.Equal(t, color.White, pos.Turn())
	assert.Contains(t, pos.FEN(), "rnbqkbnr/pppppppp")
}

func TestApplyLegalMove(t *testing.T) {
	e := NewChessEngine()
	pos := e.InitialPosition()

	next, verdict, err := e.Apply(pos, Move{From: "e2", To: "e4"})
	require.NoError(t, err)
	require.True(t, verdict.Legal)

	assert.Equal(t, "e4", verdict.SAN)
	assert.False(t, verdict.IsCheck)
	assert.False(t, verdict.Terminal())
	assert.Equal(t, color.Black, next.Turn())

	// The original handle is untouched.
	assert.Equal(t, color.White, pos.Turn())
}

func TestApplyIllegalMove(t *testing.T) {
	e := NewChessEngine()
	pos := e.InitialPosition()

	next, verdict, err := e.Apply(pos, Move{From: "e2", To: "e5"})
	require.NoError(t, err)
	assert.False(t, verdict.Legal)
	assert.Same(t, pos, next)

	// Moving the opponent's piece is just as illegal.
	_, verdict, err = e.Apply(pos, Move{From: "e7", To: "e5"})
	require.NoError(t, err)
	assert.False(t, verdict.Legal)
}

func TestApplyDetectsCheckmate(t *testing.T) {
	e := NewChessEngine()

	// Fool's mate.
	pos := applyAll(t, e, e.InitialPosition(), "f2f3", "e7e5", "g2g4")

	next, verdict, err := e.Apply(pos, Move{From: "d8", To: "h4"})
	require.NoError(t, err)
	require.True(t, verdict.Legal)

	assert.Equal(t, "Qh4#", verdict.SAN)
	assert.True(t, verdict.IsCheck)
	assert.True(t, verdict.IsCheckmate)
	assert.True(t, verdict.Terminal())
	assert.False(t, verdict.IsDraw)
	_ = next
}

func TestApplyDetectsStalemate(t *testing.T) {
	e := NewChessEngine()

	// Shortest known stalemate (Sam Loyd, ten moves).
	pos := applyAll(t, e, e.InitialPosition(),
		"e2e3", "a7a5",
		"d1h5", "a8a6",
		"h5a5", "h7h5",
		"a5c7", "a6h6",
		"h2h4", "f7f6",
		"c7d7", "e8f7",
		"d7b7", "d8d3",
		"b7b8", "d3h7",
		"b8c8", "f7g6",
	)

	_, verdict, err := e.Apply(pos, Move{From: "c8", To: "e6"})
	require.NoError(t, err)
	require.True(t, verdict.Legal)

	assert.True(t, verdict.IsStalemate)
	assert.False(t, verdict.IsCheckmate)
	assert.True(t, verdict.Terminal())
}

func TestMoveUCI(t *testing.T) {
	assert.Equal(t, "e2e4", Move{From: "e2", To: "e4"}.UCI())
	assert.Equal(t, "e7e8q", Move{From: "e7", To: "e8", Promotion: "Q"}.UCI())
}
