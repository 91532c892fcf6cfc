package store

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRatingStore(t *testing.T) *RatingStore {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRatingStoreFromClient(rdb)
}

func TestRatingDefaultsForUnknownIdentity(t *testing.T) {
	s := newTestRatingStore(t)

	rating, err := s.Rating(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, defaultRating, rating)
}

func TestAdjustRatingsTransfersPoints(t *testing.T) {
	s := newTestRatingStore(t)
	ctx := context.Background()

	require.NoError(t, s.AdjustRatings(ctx, "alice", "bob"))

	alice, err := s.Rating(ctx, "alice")
	require.NoError(t, err)
	bob, err := s.Rating(ctx, "bob")
	require.NoError(t, err)

	// Equal ratings exchange exactly half the K factor.
	assert.Equal(t, defaultRating+kFactor/2, alice)
	assert.Equal(t, defaultRating-kFactor/2, bob)
}

func TestAdjustRatingsFavorsUpsets(t *testing.T) {
	s := newTestRatingStore(t)
	ctx := context.Background()

	require.NoError(t, s.rdb.HSet(ctx, ratingsKey, "underdog", 1000, "champion", 1800).Err())
	require.NoError(t, s.AdjustRatings(ctx, "underdog", "champion"))

	underdog, err := s.Rating(ctx, "underdog")
	require.NoError(t, err)

	// Beating a much stronger player is worth nearly the whole K factor.
	assert.Greater(t, underdog, 1000+kFactor/2)
}

func TestApplyElo(t *testing.T) {
	w, l := applyElo(1200, 1200)
	assert.Equal(t, 1216, w)
	assert.Equal(t, 1184, l)

	// The floor keeps ratings from collapsing.
	_, l = applyElo(1200, ratingFloor)
	assert.Equal(t, ratingFloor, l)
}
