package gomoku

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Mode selects who answers the local player's moves.
type Mode int

const (
	ModeNone Mode = iota
	ModeTwoPlayer
	ModeAI
	ModeOnline
)

const (
	StatusBlackWins    = "Black wins!"
	StatusWhiteWins    = "White wins!"
	StatusDraw         = "Draw!"
	StatusYouWin       = "You win!"
	StatusAIWins       = "AI wins!"
	StatusOpponentWins = "Opponent wins!"
	StatusOpponentQuit = "Opponent quit, you win!"
	StatusWaiting      = "Waiting for opponent..."
)

// MoveSender forwards the local player's move to the server in online mode.
type MoveSender interface {
	SendMove(col, row int) error
}

// LocalGame is the game state the renderer draws from.
type LocalGame struct {
	Board    *entity.Board
	Mode     Mode
	ToMove   entity.Mark
	LastMove *entity.Position
	Finished bool
	Winner   entity.Mark
	Status   string

	ai     *Evaluator
	sender MoveSender

	// online only
	own     entity.Mark
	matched bool
}

func NewLocalGame() *LocalGame {
	return &LocalGame{
		Board: entity.NewBoard(),
		ai:    NewEvaluator(entity.White),
	}
}

// Start begins a fresh local game in the given mode.
func (that *LocalGame) Start(mode Mode) {
	that.reset()
	that.Mode = mode
	if mode == ModeOnline {
		that.Status = StatusWaiting
	}
}

// Reset returns to the mode selection screen.
func (that *LocalGame) Reset() {
	that.reset()
	that.Mode = ModeNone
	that.sender = nil
}

func (that *LocalGame) reset() {
	that.Board = entity.NewBoard()
	that.ToMove = entity.Black
	that.LastMove = nil
	that.Finished = false
	that.Winner = entity.Empty
	that.Status = ""
	that.own = entity.Empty
	that.matched = false
}

func (that *LocalGame) IsStarted() bool {
	return that.Mode != ModeNone
}

// OwnMark is the local player's mark in online mode, Empty before a match.
func (that *LocalGame) OwnMark() entity.Mark {
	return that.own
}

func (that *LocalGame) IsMatched() bool {
	return that.matched
}

// Click applies the local player's move at pos according to the current mode.
func (that *LocalGame) Click(pos entity.Position) error {
	if !that.IsStarted() {
		return apperror.ErrGameNotStarted
	}

	if that.Finished {
		return apperror.ErrGameFinished
	}

	switch that.Mode {
	case ModeTwoPlayer:
		return that.MakeTurn(that.ToMove, pos)
	case ModeAI:
		return that.clickAgainstAI(pos)
	case ModeOnline:
		return that.clickOnline(pos)
	default:
		return apperror.ErrGameNotStarted
	}
}

// MouseClick maps a pixel to a cell and clicks it.
func (that *LocalGame) MouseClick(layout Layout, px, py int) error {
	pos, ok := layout.CellAt(px, py)
	if !ok {
		return fmt.Errorf("%w: %w pixel (%d,%d)", apperror.ErrIllegalMove, apperror.ErrOutOfRange, px, py)
	}

	return that.Click(pos)
}

// MakeTurn places mark at pos and updates the outcome.
func (that *LocalGame) MakeTurn(mark entity.Mark, pos entity.Position) error {
	if that.Finished {
		return apperror.ErrGameFinished
	}

	if mark != that.ToMove {
		return apperror.ErrNotYourTurn
	}

	if err := that.Board.Place(pos, mark); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	that.LastMove = &pos
	that.updateGameStatus(mark, pos)

	return nil
}

func (that *LocalGame) clickAgainstAI(pos entity.Position) error {
	if that.ToMove != entity.Black {
		return apperror.ErrNotYourTurn
	}

	if err := that.MakeTurn(entity.Black, pos); err != nil {
		return err
	}

	if that.Finished {
		return nil
	}

	move, ok := that.ai.SelectMove(that.Board)
	if !ok {
		that.finish(entity.Empty)
		return nil
	}

	return that.MakeTurn(entity.White, move)
}

// clickOnline sends the move first and applies it locally once the send succeeded.
// The outcome is decided by the server.
func (that *LocalGame) clickOnline(pos entity.Position) error {
	if !that.matched || that.sender == nil {
		return apperror.ErrNotMatched
	}

	if that.ToMove != that.own {
		return apperror.ErrNotYourTurn
	}

	if !entity.InBounds(pos) {
		return fmt.Errorf("invalid turn: %w: %w %s", apperror.ErrIllegalMove, apperror.ErrOutOfRange, pos)
	}

	if !that.Board.IsEmpty(pos) {
		return fmt.Errorf("invalid turn: %w: %w %s", apperror.ErrIllegalMove, apperror.ErrCellOccupied, pos)
	}

	if err := that.sender.SendMove(pos.Col, pos.Row); err != nil {
		return fmt.Errorf("failed to send move: %w", err)
	}

	if err := that.Board.Place(pos, that.own); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	that.LastMove = &pos
	that.ToMove = that.own.Opponent()

	return nil
}

func (that *LocalGame) updateGameStatus(mark entity.Mark, pos entity.Position) {
	switch {
	case that.Board.CheckWin(pos, mark):
		that.finish(mark)
	case that.Board.IsFull():
		that.finish(entity.Empty)
	default:
		that.ToMove = mark.Opponent()
	}
}

func (that *LocalGame) finish(winner entity.Mark) {
	that.Finished = true
	that.Winner = winner
	that.Status = that.statusText(winner)
}

func (that *LocalGame) statusText(winner entity.Mark) string {
	if winner == entity.Empty {
		return StatusDraw
	}

	switch that.Mode {
	case ModeAI:
		if winner == entity.Black {
			return StatusYouWin
		}
		return StatusAIWins
	case ModeOnline:
		if winner == that.own {
			return StatusYouWin
		}
		return StatusOpponentWins
	default:
		if winner == entity.Black {
			return StatusBlackWins
		}
		return StatusWhiteWins
	}
}

// SetSender attaches the connection used for online moves.
func (that *LocalGame) SetSender(sender MoveSender) {
	that.sender = sender
}

// StartOnline sets up a matched online game with the local player number 1 (Black) or 2 (White).
func (that *LocalGame) StartOnline(playerNumber int) error {
	own := entity.MarkFromNumber(playerNumber)
	if own == entity.Empty {
		return fmt.Errorf("%w: player number %d", apperror.ErrProtocolViolation, playerNumber)
	}

	that.reset()
	that.Mode = ModeOnline
	that.own = own
	that.matched = true

	return nil
}

// ApplyServerMove records a move broadcast by the server. The echo of the local
// player's own optimistic move is acknowledged without placing it twice.
func (that *LocalGame) ApplyServerMove(pos entity.Position, playerNumber int) error {
	if that.Mode != ModeOnline || !that.matched {
		return apperror.ErrNotMatched
	}

	mark := entity.MarkFromNumber(playerNumber)
	if mark == entity.Empty {
		return fmt.Errorf("%w: player number %d", apperror.ErrProtocolViolation, playerNumber)
	}

	if mark == that.own && that.Board.At(pos) == that.own {
		return nil
	}

	if err := that.Board.Place(pos, mark); err != nil {
		return fmt.Errorf("invalid server move: %w", err)
	}

	that.LastMove = &pos
	that.ToMove = mark.Opponent()

	return nil
}

// FinishOnline ends the online game with the server's verdict. winnerNumber is 0 on a draw.
func (that *LocalGame) FinishOnline(winnerNumber int, draw bool) {
	if draw {
		that.finish(entity.Empty)
		that.matched = false
		return
	}

	that.finish(entity.MarkFromNumber(winnerNumber))
	that.matched = false
}

// OpponentQuit ends the online game in the local player's favour.
func (that *LocalGame) OpponentQuit() {
	that.Finished = true
	that.Winner = that.own
	that.Status = StatusOpponentQuit
	that.matched = false
}
