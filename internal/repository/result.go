package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const (
	resultKeyPrefix = "result:"
	statsKeyPrefix  = "player_stats:"
	recentKey       = "results:recent"
)

type ResultRepository interface {
	Save(ctx context.Context, result *entity.Result) error
	GetByRoomID(ctx context.Context, roomID string) (*entity.Result, error)
	GetPlayerStats(ctx context.Context, playerID string) (*entity.PlayerStats, error)
	Recent(ctx context.Context, limit int64) ([]*entity.Result, error)
}

type dbResult struct {
	client   *redis.Client
	keepLast int64
}

// NewResultRepository stores finished rooms; the recent list is capped at keepLast entries.
func NewResultRepository(client *redis.Client, keepLast int64) ResultRepository {
	return &dbResult{
		client:   client,
		keepLast: keepLast,
	}
}

type dbStats struct {
	Wins   int64 `redis:"wins"`
	Losses int64 `redis:"losses"`
	Draws  int64 `redis:"draws"`
}

// Save writes the result document, both players' tallies and the recent list in one transaction.
func (that *dbResult) Save(ctx context.Context, result *entity.Result) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, resultKeyPrefix+result.RoomID, resultJSON, 0)

		if result.IsDraw() {
			pipe.HIncrBy(ctx, statsKeyPrefix+result.Black, "draws", 1)
			pipe.HIncrBy(ctx, statsKeyPrefix+result.White, "draws", 1)
		} else {
			pipe.HIncrBy(ctx, statsKeyPrefix+result.Winner, "wins", 1)
			pipe.HIncrBy(ctx, statsKeyPrefix+result.Loser(), "losses", 1)
		}

		pipe.LPush(ctx, recentKey, result.RoomID)
		if that.keepLast > 0 {
			pipe.LTrim(ctx, recentKey, 0, that.keepLast-1)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

func (that *dbResult) GetByRoomID(ctx context.Context, roomID string) (*entity.Result, error) {
	response, err := that.client.Get(ctx, resultKeyPrefix+roomID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrResultNotFound, roomID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	var result entity.Result
	if err = json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

func (that *dbResult) GetPlayerStats(ctx context.Context, playerID string) (*entity.PlayerStats, error) {
	cmd := that.client.HGetAll(ctx, statsKeyPrefix+playerID)

	fields, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, playerID)
	}

	var stats dbStats
	if err = cmd.Scan(&stats); err != nil {
		return nil, fmt.Errorf("failed to scan player stats: %w", err)
	}

	return &entity.PlayerStats{
		PlayerID: playerID,
		Wins:     stats.Wins,
		Losses:   stats.Losses,
		Draws:    stats.Draws,
	}, nil
}

// Recent returns up to limit results, newest first.
func (that *dbResult) Recent(ctx context.Context, limit int64) ([]*entity.Result, error) {
	if limit <= 0 {
		return nil, nil
	}

	roomIDs, err := that.client.LRange(ctx, recentKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recent results: %w", err)
	}

	if len(roomIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(roomIDs))
	for _, id := range roomIDs {
		keys = append(keys, resultKeyPrefix+id)
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent results: %w", err)
	}

	results := make([]*entity.Result, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var result entity.Result
		if err = json.Unmarshal([]byte(raw), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		results = append(results, &result)
	}

	return results, nil
}
