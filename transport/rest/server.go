package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

const (
	shutdownTimeout = 5 * time.Second

	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

type statsSource interface {
	Snapshot() usecase.Stats
}

type resultStore interface {
	GetPlayerStats(ctx context.Context, playerID string) (*entity.PlayerStats, error)
	GetByRoomID(ctx context.Context, roomID string) (*entity.Result, error)
	Recent(ctx context.Context, limit int64) ([]*entity.Result, error)
}

type Server struct {
	logger  *slog.Logger
	live    statsSource
	results resultStore
}

// New builds the operational HTTP API. results may be nil when recording is disabled.
func New(logger *slog.Logger, live statsSource, results resultStore) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		live:    live,
		results: results,
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.pingHandler)
	mux.HandleFunc("GET /stats", that.statsHandler)
	mux.HandleFunc("GET /players/{id}/stats", that.playerStatsHandler)
	mux.HandleFunc("GET /results/recent", that.recentResultsHandler)
	mux.HandleFunc("GET /results/{room}", that.resultHandler)
	return mux
}

func (that *Server) Start(ctx context.Context, port string) error {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrBindFailure, err)
	}

	srv := &http.Server{
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	if err = srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.live.Snapshot())
}

func (that *Server) playerStatsHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "playerStatsHandler")

	if that.results == nil {
		http.Error(w, "results are not recorded", http.StatusNotFound)
		return
	}

	playerID := r.PathValue("id")

	stats, err := that.results.GetPlayerStats(r.Context(), playerID)
	if errors.Is(err, apperror.ErrPlayerNotFound) {
		http.Error(w, "player not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get player stats", "playerID", playerID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, http.StatusOK, stats)
}

func (that *Server) resultHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "resultHandler")

	if that.results == nil {
		http.Error(w, "results are not recorded", http.StatusNotFound)
		return
	}

	roomID := r.PathValue("room")

	result, err := that.results.GetByRoomID(r.Context(), roomID)
	if errors.Is(err, apperror.ErrResultNotFound) {
		http.Error(w, "result not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get result", "roomID", roomID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, http.StatusOK, result)
}

// recentResultsHandler lists concluded rooms newest first, limit defaults to 10 and is capped at 100.
func (that *Server) recentResultsHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "recentResultsHandler")

	if that.results == nil {
		http.Error(w, "results are not recorded", http.StatusNotFound)
		return
	}

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxRecentLimit)
	}

	results, err := that.results.Recent(r.Context(), int64(limit))
	if err != nil {
		log.Error("failed to list recent results", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if results == nil {
		results = []*entity.Result{}
	}

	that.writeJSON(w, http.StatusOK, results)
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Debug("failed to write response", "error", err)
	}
}
