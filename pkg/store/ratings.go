package store

import (
	"context"
	"math"

	"github.com/redis/go-redis/v9"
)

const (
	ratingsKey    = "ratings"
	defaultRating = 1200
	ratingFloor   = 100
	kFactor       = 32
)

// RatingStore keeps per-identity Elo ratings in a Redis hash. It implements
// game.RatingService.
type RatingStore struct {
	rdb *redis.Client
}

// NewRatingStore connects to redisURL and verifies the connection.
func NewRatingStore(redisURL string) (*RatingStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &RatingStore{rdb: rdb}, nil
}

// NewRatingStoreFromClient wraps an existing client. Used by tests.
func NewRatingStoreFromClient(rdb *redis.Client) *RatingStore {
	return &RatingStore{rdb: rdb}
}

// Close releases the Redis client.
func (s *RatingStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Rating returns the stored rating for an identity, or the default for
// players who have not finished a rated game yet.
func (s *RatingStore) Rating(ctx context.Context, identity string) (int, error) {
	val, err := s.rdb.HGet(ctx, ratingsKey, identity).Int()
	if err == redis.Nil {
		return defaultRating, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

// AdjustRatings applies one Elo exchange between winner and loser.
func (s *RatingStore) AdjustRatings(ctx context.Context, winnerID, loserID string) error {
	winner, err := s.Rating(ctx, winnerID)
	if err != nil {
		return err
	}
	loser, err := s.Rating(ctx, loserID)
	if err != nil {
		return err
	}

	winner, loser = applyElo(winner, loser)

	return s.rdb.HSet(ctx, ratingsKey,
		winnerID, winner,
		loserID, loser,
	).Err()
}

// applyElo transfers points from the loser to the winner, proportional to
// how unexpected the result was.
func applyElo(winner, loser int) (int, int) {
	expected := 1.0 / (1.0 + math.Pow(10, float64(loser-winner)/400.0))
	delta := int(math.Round(kFactor * (1.0 - expected)))

	winner += delta
	loser -= delta
	if loser < ratingFloor {
		loser = ratingFloor
	}

	return winner, loser
}
