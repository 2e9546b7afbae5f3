package gomoku

import (
	"math"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Layout maps between screen pixels and board cells.
// Intersections sit Margin pixels from the top-left corner, Spacing pixels apart.
type Layout struct {
	Width   int
	Spacing int
	Margin  int
}

// NewLayout trims width to a multiple of the board size.
func NewLayout(width int) Layout {
	width -= width % entity.BoardSize
	spacing := width / entity.BoardSize

	return Layout{
		Width:   width,
		Spacing: spacing,
		Margin:  spacing / 2,
	}
}

// CellAt returns the intersection nearest to the pixel, halfway pixels going to the even index.
// Pixels below the board belong to the button bar.
func (that Layout) CellAt(px, py int) (entity.Position, bool) {
	if that.Spacing <= 0 || py > that.Width {
		return entity.Position{}, false
	}

	pos := entity.Position{
		Col: int(math.RoundToEven(float64(px-that.Margin) / float64(that.Spacing))),
		Row: int(math.RoundToEven(float64(py-that.Margin) / float64(that.Spacing))),
	}

	if !entity.InBounds(pos) {
		return entity.Position{}, false
	}

	return pos, true
}

// CellCenter returns the pixel of an intersection.
func (that Layout) CellCenter(pos entity.Position) (int, int) {
	return pos.Col*that.Spacing + that.Margin, pos.Row*that.Spacing + that.Margin
}
