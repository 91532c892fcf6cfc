package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JoshuaCandia/custom-chess/pkg/game"
)

func TestPutGetDelete(t *testing.T) {
	repo := NewInMemoryRepository(zap.NewNop())

	_, ok := repo.Get("ABC234")
	assert.False(t, ok)

	room := &game.Room{ID: "ABC234", Status: game.StatusWaiting}
	repo.Put(room)

	got, ok := repo.Get("ABC234")
	require.True(t, ok)
	assert.Same(t, room, got)
	assert.Len(t, repo.List(), 1)

	repo.Delete("ABC234")
	_, ok = repo.Get("ABC234")
	assert.False(t, ok)
	assert.Empty(t, repo.List())

	// Deleting an absent room is harmless.
	repo.Delete("ABC234")
}
