package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/transport/connection"
)

type Server struct {
	logger         *slog.Logger
	handler        *connection.Handler
	maxMessageSize int

	wg sync.WaitGroup
}

func New(logger *slog.Logger, handler *connection.Handler, maxMessageSize int) *Server {
	return &Server{
		logger:         logger.With("component", "tcp"),
		handler:        handler,
		maxMessageSize: maxMessageSize,
	}
}

// Listen binds addr. Failures wrap apperror.ErrBindFailure.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrBindFailure, err)
	}
	return ln, nil
}

// Start - listens on port and serves until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	ln, err := Listen(":" + port)
	if err != nil {
		return err
	}

	return that.Serve(ctx, ln)
}

// Serve accepts connections until ctx is done, then waits for every connection to finish.
func (that *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := that.logger.With("method", "Serve", "addr", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	log.Info("accepting connections")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				that.wg.Wait()
				log.Info("listener closed")
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		that.wg.Add(1)
		go func() {
			defer that.wg.Done()
			that.handler.Serve(ctx, newLineConn(conn, that.maxMessageSize))
		}()
	}
}

// lineConn frames protocol messages as newline-delimited JSON.
type lineConn struct {
	conn   net.Conn
	reader *protocol.LineReader
}

func newLineConn(conn net.Conn, maxMessageSize int) *lineConn {
	return &lineConn{
		conn:   conn,
		reader: protocol.NewLineReader(conn, maxMessageSize),
	}
}

func (that *lineConn) ReadMessage() ([]byte, error) {
	return that.reader.Read()
}

func (that *lineConn) WriteMessage(data []byte) error {
	return protocol.WriteLine(that.conn, data)
}

func (that *lineConn) Close() error {
	return that.conn.Close()
}

func (that *lineConn) RemoteAddr() string {
	return that.conn.RemoteAddr().String()
}
