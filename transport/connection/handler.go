package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

// Conn is one framed client connection. ReadMessage is only called from the
// read loop, WriteMessage only from the peer's writer goroutine.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
	RemoteAddr() string
}

type gameManager interface {
	Connect(peer usecase.Peer) string
	Match(ctx context.Context, playerID string) error
	MakeMove(ctx context.Context, playerID string, pos entity.Position) error
	Quit(ctx context.Context, playerID string) error
	Disconnect(ctx context.Context, playerID string)
}

type handlerFunc func(ctx context.Context, playerID string, msg *protocol.Message) error

// Handler runs the per-connection protocol on top of the game manager.
type Handler struct {
	logger     *slog.Logger
	manager    gameManager
	sendBuffer int

	handlers map[string]handlerFunc
}

func NewHandler(logger *slog.Logger, manager gameManager, sendBuffer int) *Handler {
	handler := &Handler{
		logger:     logger.With("component", "connection"),
		manager:    manager,
		sendBuffer: sendBuffer,

		handlers: make(map[string]handlerFunc),
	}

	handler.handlers[protocol.TypeMatch] = handler.handleMatch
	handler.handlers[protocol.TypeMove] = handler.handleMove
	handler.handlers[protocol.TypeQuit] = handler.handleQuit

	return handler
}

// Serve registers the connection and runs its read loop until the connection
// is lost or ctx is cancelled. Cleanup runs exactly once.
func (that *Handler) Serve(ctx context.Context, conn Conn) {
	log := that.logger.With("method", "Serve", "remote", conn.RemoteAddr())

	p := newPeer(conn, that.sendBuffer, log)
	go p.writeLoop()

	playerID := that.manager.Connect(p)
	log = log.With("playerID", playerID)

	var cleanup sync.Once
	disconnect := func() {
		cleanup.Do(func() {
			p.close()
			that.manager.Disconnect(context.WithoutCancel(ctx), playerID)
		})
	}
	defer disconnect()

	stop := context.AfterFunc(ctx, p.close)
	defer stop()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			log.Info("connection lost", "error", fmt.Errorf("%w: %w", apperror.ErrConnectionLost, err))
			return
		}

		that.dispatch(ctx, log, playerID, data)
	}
}

func (that *Handler) dispatch(ctx context.Context, log *slog.Logger, playerID string, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		log.Debug("message dropped", "error", err)
		return
	}

	handler, ok := that.handlers[msg.Type]
	if !ok {
		log.Debug("message dropped", "error", fmt.Errorf("%w: %q from client", apperror.ErrUnknownMessage, msg.Type))
		return
	}

	if err = handler(ctx, playerID, msg); err != nil {
		log.Debug("message ignored", "type", msg.Type, "error", err)
	}
}

func (that *Handler) handleMatch(ctx context.Context, playerID string, _ *protocol.Message) error {
	if err := that.manager.Match(ctx, playerID); err != nil {
		return fmt.Errorf("failed to match: %w", err)
	}
	return nil
}

func (that *Handler) handleMove(ctx context.Context, playerID string, msg *protocol.Message) error {
	col, row, ok := msg.Cell()
	if !ok {
		return apperror.ErrProtocolViolation
	}

	if err := that.manager.MakeMove(ctx, playerID, entity.Position{Col: col, Row: row}); err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}
	return nil
}

func (that *Handler) handleQuit(ctx context.Context, playerID string, _ *protocol.Message) error {
	if err := that.manager.Quit(ctx, playerID); err != nil {
		return fmt.Errorf("failed to quit: %w", err)
	}
	return nil
}
