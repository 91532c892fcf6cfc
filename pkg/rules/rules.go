// Package rules adapts the move-legality engine behind a narrow interface.
// Rooms carry the position handle between calls without inspecting it beyond
// the side to move.
package rules

import (
	"strings"

	"github.com/JoshuaCandia/custom-chess/internal/color"
)

// Move is a candidate move in coordinate form, e.g. {From: "e2", To: "e4"}.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// UCI returns the move in UCI notation.
func (m Move) UCI() string {
	return strings.ToLower(m.From + m.To + m.Promotion)
}

// Verdict reports the outcome of applying a candidate move to a position.
type Verdict struct {
	Legal       bool
	SAN         string
	IsCheck     bool
	IsCheckmate bool
	IsStalemate bool
	IsDraw      bool
}

// Terminal reports whether the verdict ends the game.
func (v Verdict) Terminal() bool {
	return v.IsCheckmate || v.IsStalemate || v.IsDraw
}

// Position is an opaque handle to a game position.
type Position interface {
	FEN() string
	Turn() color.Color
}

// Engine validates candidate moves and detects terminal position states.
type Engine interface {
	InitialPosition() Position
	// Apply validates mv against pos. When the move is illegal the returned
	// position is pos unchanged and the verdict carries Legal=false; the
	// error return is reserved for positions the engine cannot interpret.
	Apply(pos Position, mv Move) (Position, Verdict, error)
}
