package connection

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
)

const defaultSendBuffer = 64

// peer queues outbound messages for one connection; a single writer goroutine drains the queue.
type peer struct {
	conn   Conn
	logger *slog.Logger

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newPeer(conn Conn, buffer int, logger *slog.Logger) *peer {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}

	return &peer{
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// Send never blocks. A client too slow to keep its queue below the limit is disconnected.
func (that *peer) Send(msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		that.logger.Error("failed to encode message", "type", msg.Type, "error", err)
		return
	}

	select {
	case <-that.done:
		return
	default:
	}

	select {
	case that.send <- data:
	default:
		that.logger.Warn("send buffer full, closing connection", "type", msg.Type)
		that.close()
	}
}

func (that *peer) writeLoop() {
	for {
		select {
		case data := <-that.send:
			if err := that.conn.WriteMessage(data); err != nil {
				that.logger.Debug("write failed", "error", err)
				that.close()
				return
			}
		case <-that.done:
			return
		}
	}
}

// close stops the writer and closes the connection, which also ends a blocked read.
func (that *peer) close() {
	that.once.Do(func() {
		close(that.done)
		if err := that.conn.Close(); err != nil {
			that.logger.Debug("failed to close connection", "error", err)
		}
	})
}
