package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	pointsKey = "duel:lb:points"
	winsKey   = "duel:lb:wins"
)

// LeaderboardCache handles Redis ZSET operations for the global duel
// leaderboard
type LeaderboardCache interface {
	AddPoints(ctx context.Context, playerID string, points int) error
	AddWin(ctx context.Context, playerID string) error
	GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	GetRank(ctx context.Context, playerID string) (int64, error)
}

// LeaderboardEntry represents a single leaderboard entry
type LeaderboardEntry struct {
	PlayerID string `json:"playerId"`
	Points   int    `json:"points"`
	Wins     int    `json:"wins"`
	Rank     int    `json:"rank"`
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) AddPoints(ctx context.Context, playerID string, points int) error {
	return c.client.ZIncrBy(ctx, pointsKey, float64(points), playerID).Err()
}

func (c *leaderboardCache) AddWin(ctx context.Context, playerID string) error {
	return c.client.ZIncrBy(ctx, winsKey, 1, playerID).Err()
}

func (c *leaderboardCache) GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, pointsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, z := range results {
		playerID := z.Member.(string)

		wins, err := c.client.ZScore(ctx, winsKey, playerID).Result()
		if err != nil && err != redis.Nil {
			return nil, err
		}

		entries[i] = LeaderboardEntry{
			PlayerID: playerID,
			Points:   int(z.Score),
			Wins:     int(wins),
			Rank:     i + 1,
		}
	}
	return entries, nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, pointsKey, playerID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}
