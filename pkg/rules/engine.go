package rules

import (
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"

	"github.com/JoshuaCandia/custom-chess/internal/color"
)

// ChessEngine is the production Engine, backed by the chess library.
type ChessEngine struct{}

// NewChessEngine creates the chess-backed rules engine.
func NewChessEngine() *ChessEngine {
	return &ChessEngine{}
}

type position struct {
	game *chess.Game
}

func (p *position) FEN() string {
	return p.game.FEN()
}

func (p *position) Turn() color.Color {
	if p.game.Position().Turn() == chess.White {
		return color.White
	}
	return color.Black
}

// InitialPosition returns the standard starting position.
func (e *ChessEngine) InitialPosition() Position {
	return &position{game: chess.NewGame()}
}

// Apply validates mv against pos and, when legal, returns the resulting
// position together with check and terminal-state flags.
func (e *ChessEngine) Apply(pos Position, mv Move) (Position, Verdict, error) {
	cur, ok := pos.(*position)
	if !ok {
		return pos, Verdict{}, fmt.Errorf("rules: foreign position handle %T", pos)
	}

	next := cur.game.Clone()
	before := next.Position()

	move, err := chess.UCINotation{}.Decode(before, mv.UCI())
	if err != nil {
		return pos, Verdict{}, nil
	}

	san := chess.AlgebraicNotation{}.Encode(before, move)

	if err := next.Move(move, nil); err != nil {
		return pos, Verdict{}, nil
	}

	verdict := Verdict{
		Legal:   true,
		SAN:     san,
		IsCheck: strings.HasSuffix(san, "+") || strings.HasSuffix(san, "#"),
	}

	switch next.Method() {
	case chess.Checkmate:
		verdict.IsCheckmate = true
	case chess.Stalemate:
		verdict.IsStalemate = true
	default:
		if next.Outcome() == chess.Draw {
			verdict.IsDraw = true
		}
	}

	return &position{game: next}, verdict, nil
}
