package gomoku

import (
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Evaluator picks moves for one mark by pattern scoring of the lines through each candidate.
type Evaluator struct {
	mark entity.Mark
}

func NewEvaluator(mark entity.Mark) *Evaluator {
	return &Evaluator{mark: mark}
}

func (that *Evaluator) Mark() entity.Mark {
	return that.mark
}

// Candidate is a scored empty cell.
type Candidate struct {
	Position entity.Position
	Score    int
}

// Candidates returns the empty cells adjacent to any stone, in board scan order.
// An empty board yields the center only.
func Candidates(board *entity.Board) []entity.Position {
	seen := make(map[entity.Position]struct{})
	candidates := make([]entity.Position, 0, 32)

	for col := 0; col < entity.BoardSize; col++ {
		for row := 0; row < entity.BoardSize; row++ {
			pos := entity.Position{Col: col, Row: row}
			if board.At(pos) == entity.Empty {
				continue
			}

			for _, dir := range entity.Neighborhood {
				next := pos.Step(dir, 1)
				if !board.IsEmpty(next) {
					continue
				}
				if _, ok := seen[next]; ok {
					continue
				}
				seen[next] = struct{}{}
				candidates = append(candidates, next)
			}
		}
	}

	if len(candidates) == 0 && board.IsEmpty(entity.Center) {
		return []entity.Position{entity.Center}
	}

	return candidates
}

// Score values pos for the evaluator's mark: its own attack plus the opponent's attack it denies.
func (that *Evaluator) Score(board *entity.Board, pos entity.Position) int {
	attack := scoreLines(linesThrough(board, pos, that.mark))
	defence := scoreLines(linesThrough(board, pos, that.mark.Opponent()))

	return attack + defence
}

// Rank scores every candidate in generation order.
func (that *Evaluator) Rank(board *entity.Board) []Candidate {
	positions := Candidates(board)
	ranked := make([]Candidate, 0, len(positions))
	for _, pos := range positions {
		ranked = append(ranked, Candidate{Position: pos, Score: that.Score(board, pos)})
	}
	return ranked
}

// SelectMove returns the best scoring candidate. Ties keep the earliest candidate.
// The second result is false when the board has no candidate.
func (that *Evaluator) SelectMove(board *entity.Board) (entity.Position, bool) {
	var (
		best  Candidate
		found bool
	)

	for _, candidate := range that.Rank(board) {
		if !found || candidate.Score > best.Score {
			best = candidate
			found = true
		}
	}

	return best.Position, found
}

// linesThrough returns the four lines through pos as seen by mark after it plays pos.
// Each line spans the whole board and is closed by a blocking symbol at both edges.
func linesThrough(board *entity.Board, pos entity.Position, mark entity.Mark) [][]symbol {
	lines := make([][]symbol, 0, len(entity.Axes))

	for _, axis := range entity.Axes {
		start := pos
		for entity.InBounds(start.Step(axis, -1)) {
			start = start.Step(axis, -1)
		}

		line := make([]symbol, 0, entity.BoardSize+2)
		line = append(line, x)
		for cell := start; entity.InBounds(cell); cell = cell.Step(axis, 1) {
			line = append(line, symbolFor(board, cell, pos, mark))
		}
		line = append(line, x)

		lines = append(lines, line)
	}

	return lines
}

func symbolFor(board *entity.Board, cell, played entity.Position, mark entity.Mark) symbol {
	if cell == played {
		return o
	}

	switch board.At(cell) {
	case entity.Empty:
		return e
	case mark:
		return o
	default:
		return x
	}
}
