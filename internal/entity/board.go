package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	BoardSize = 15
	WinLength = 5
)

// Mark is the occupant of a single board cell.
type Mark int

const (
	Empty Mark = iota
	Black
	White
)

// Opponent returns the other player's mark. Empty has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

// Number returns the wire player number of the mark (1 for Black, 2 for White).
func (that Mark) Number() int {
	return int(that)
}

func (that Mark) String() string {
	switch that {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// MarkFromNumber converts a wire player number back to a mark.
func MarkFromNumber(number int) Mark {
	switch number {
	case 1:
		return Black
	case 2:
		return White
	default:
		return Empty
	}
}

// Position addresses a cell by column and row.
type Position struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

func (that Position) String() string {
	return fmt.Sprintf("(%d,%d)", that.Col, that.Row)
}

// Center is the opening cell of the board.
var Center = Position{Col: BoardSize / 2, Row: BoardSize / 2}

// Direction is a unit step on the board.
type Direction struct {
	DCol, DRow int
}

// Axes holds one direction of each axis pair: vertical, horizontal and both diagonals.
var Axes = [4]Direction{
	{DCol: 0, DRow: 1},
	{DCol: 1, DRow: 0},
	{DCol: 1, DRow: 1},
	{DCol: 1, DRow: -1},
}

// Neighborhood lists the 8 neighbours of a cell in scan order.
var Neighborhood = [8]Direction{
	{DCol: -1, DRow: -1},
	{DCol: -1, DRow: 0},
	{DCol: -1, DRow: 1},
	{DCol: 0, DRow: -1},
	{DCol: 0, DRow: 1},
	{DCol: 1, DRow: -1},
	{DCol: 1, DRow: 0},
	{DCol: 1, DRow: 1},
}

func (that Position) Step(dir Direction, n int) Position {
	return Position{Col: that.Col + dir.DCol*n, Row: that.Row + dir.DRow*n}
}

// Board is the 15x15 grid indexed by [col][row].
type Board struct {
	cells [BoardSize][BoardSize]Mark
	moves int
}

func NewBoard() *Board {
	return &Board{}
}

func InBounds(pos Position) bool {
	return pos.Col >= 0 && pos.Col < BoardSize && pos.Row >= 0 && pos.Row < BoardSize
}

// At returns the mark at pos; positions off the board read as Empty.
func (that *Board) At(pos Position) Mark {
	if !InBounds(pos) {
		return Empty
	}
	return that.cells[pos.Col][pos.Row]
}

func (that *Board) IsEmpty(pos Position) bool {
	return InBounds(pos) && that.cells[pos.Col][pos.Row] == Empty
}

// Place is the only mutation of the board. It rejects out-of-range and occupied cells.
func (that *Board) Place(pos Position, mark Mark) error {
	if mark != Black && mark != White {
		return fmt.Errorf("%w: invalid mark %d", apperror.ErrIllegalMove, mark)
	}

	if !InBounds(pos) {
		return fmt.Errorf("%w: %w %s", apperror.ErrIllegalMove, apperror.ErrOutOfRange, pos)
	}

	if that.cells[pos.Col][pos.Row] != Empty {
		return fmt.Errorf("%w: %w %s", apperror.ErrIllegalMove, apperror.ErrCellOccupied, pos)
	}

	that.cells[pos.Col][pos.Row] = mark
	that.moves++

	return nil
}

// Moves returns the number of placed stones.
func (that *Board) Moves() int {
	return that.moves
}

func (that *Board) IsFull() bool {
	return that.moves == BoardSize*BoardSize
}

// LegalMoves returns every empty position in column-major order.
func (that *Board) LegalMoves() []Position {
	moves := make([]Position, 0, BoardSize*BoardSize-that.moves)
	for col := 0; col < BoardSize; col++ {
		for row := 0; row < BoardSize; row++ {
			if that.cells[col][row] == Empty {
				moves = append(moves, Position{Col: col, Row: row})
			}
		}
	}
	return moves
}

// CheckWin reports whether the run through last along any axis reaches WinLength.
func (that *Board) CheckWin(last Position, mark Mark) bool {
	if mark == Empty || that.At(last) != mark {
		return false
	}

	for _, axis := range Axes {
		if that.RunLength(last, axis, mark) >= WinLength {
			return true
		}
	}

	return false
}

// RunLength counts contiguous cells equal to mark through pos in both directions of axis.
func (that *Board) RunLength(pos Position, axis Direction, mark Mark) int {
	count := 1
	for _, sign := range [2]int{1, -1} {
		for n := 1; ; n++ {
			next := pos.Step(axis, n*sign)
			if !InBounds(next) || that.cells[next.Col][next.Row] != mark {
				break
			}
			count++
		}
	}
	return count
}

// Winner scans the whole board and returns the mark owning a five, or Empty.
func (that *Board) Winner() Mark {
	for col := 0; col < BoardSize; col++ {
		for row := 0; row < BoardSize; row++ {
			pos := Position{Col: col, Row: row}
			if mark := that.cells[col][row]; mark != Empty && that.CheckWin(pos, mark) {
				return mark
			}
		}
	}
	return Empty
}

// Clone returns an independent copy of the board.
func (that *Board) Clone() *Board {
	clone := *that
	return &clone
}

// Grid returns the marks as wire numbers (0 empty, 1 black, 2 white) for renderers.
func (that *Board) Grid() [BoardSize][BoardSize]int {
	var grid [BoardSize][BoardSize]int
	for col := 0; col < BoardSize; col++ {
		for row := 0; row < BoardSize; row++ {
			grid[col][row] = that.cells[col][row].Number()
		}
	}
	return grid
}
