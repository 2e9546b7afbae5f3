package websocket

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
	"github.com/rocketscienceinc/gomoku-backend/transport/connection"
)

const waitFor = 2 * time.Second

func startServer(t *testing.T) (string, *usecase.GameManager) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	manager := usecase.NewGameManager(logger, nil)
	server := New(logger, connection.NewHandler(logger, manager, 16), 512)

	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)

	return "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws", manager
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func read(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	msg, err := protocol.Decode(data)
	require.NoError(t, err)

	return *msg
}

func write(t *testing.T, conn *websocket.Conn, msg protocol.Message) {
	t.Helper()

	data, err := protocol.Encode(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestServer_Protocol(t *testing.T) {
	// Given: a websocket server and two browser-like clients
	url, manager := startServer(t)

	first := dial(t, url)
	firstConnect := read(t, first)
	require.Equal(t, protocol.TypeConnect, firstConnect.Type)

	// When: both ask for a match
	write(t, first, protocol.Match())
	require.Eventually(t, func() bool { return manager.Snapshot().Waiting == 1 }, waitFor, 5*time.Millisecond)

	second := dial(t, url)
	secondConnect := read(t, second)
	write(t, second, protocol.Match())

	// Then: each frame carries one matched message
	firstMatched := read(t, first)
	secondMatched := read(t, second)
	assert.Equal(t, protocol.Matched(firstMatched.RoomID, 1, secondConnect.PlayerID), firstMatched)
	assert.Equal(t, protocol.Matched(firstMatched.RoomID, 2, firstConnect.PlayerID), secondMatched)

	// And: moves are broadcast as frames to both
	write(t, first, protocol.MoveRequest(7, 7))
	expected := protocol.MoveBroadcast(firstConnect.PlayerID, 7, 7, 1)
	assert.Equal(t, expected, read(t, first))
	assert.Equal(t, expected, read(t, second))

	// When: the first client goes away
	require.NoError(t, first.Close())

	// Then: the second is told
	assert.Equal(t, protocol.OpponentQuit(), read(t, second))
}

func TestServer_UnknownFrameKeepsConnection(t *testing.T) {
	url, manager := startServer(t)
	conn := dial(t, url)
	read(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"wave"}`)))
	write(t, conn, protocol.Match())

	require.Eventually(t, func() bool { return manager.Snapshot().Waiting == 1 }, waitFor, 5*time.Millisecond)
}

func TestServer_Serve(t *testing.T) {
	// Given: a server on a real listener
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	manager := usecase.NewGameManager(logger, nil)
	server := New(logger, connection.NewHandler(logger, manager, 16), 512)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx, "0") }()

	// When: the context is cancelled
	cancel()

	// Then: Start returns without error
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("server did not stop")
	}
}
