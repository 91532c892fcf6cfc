// Package color provides basic color definitions for a chess game
package color

// Color represents a chess color
type Color string

// Possible color values; None marks the absence of a side, e.g. no pending
// draw offer or a stopped clock.
const (
	White Color = "w"
	Black Color = "b"
	None  Color = ""
)

// Opp returns the opposite color for the given color.
func (c Color) Opp() Color {
	if c == White {
		return Black
	}

	return White
}
