package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/transport/connection"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger         *slog.Logger
	handler        *connection.Handler
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

func New(logger *slog.Logger, handler *connection.Handler, maxMessageSize int) *Server {
	return &Server{
		logger:  logger.With("component", "websocket"),
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		maxMessageSize: int64(maxMessageSize),
	}
}

// Handler returns the mux serving the protocol on /ws.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.upgradeToWebSocket)
	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrBindFailure, err)
	}

	return that.Serve(ctx, ln)
}

// Serve handles upgrades on ln until ctx is done.
func (that *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:     that.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection and runs the protocol on it.
func (that *Server) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Debug("failed to upgrade connection", "error", err)
		return
	}

	if that.maxMessageSize > 0 {
		conn.SetReadLimit(that.maxMessageSize)
	}

	log.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	that.handler.Serve(req.Context(), &frameConn{conn: conn})
}

// frameConn carries one protocol message per text frame.
type frameConn struct {
	conn *websocket.Conn
}

func (that *frameConn) ReadMessage() ([]byte, error) {
	for {
		messageType, data, err := that.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read frame: %w", err)
		}

		if messageType == websocket.TextMessage || messageType == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (that *frameConn) WriteMessage(data []byte) error {
	if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

func (that *frameConn) Close() error {
	return that.conn.Close()
}

func (that *frameConn) RemoteAddr() string {
	return that.conn.RemoteAddr().String()
}
