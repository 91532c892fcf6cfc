// Package repository provides storage for live rooms.
package repository

import (
	"sync"

	"go.uber.org/zap"

	"github.com/JoshuaCandia/custom-chess/pkg/game"
)

// InMemoryRoomRepository is an in-memory implementation of game.RoomRepository
type InMemoryRoomRepository struct {
	rooms  map[string]*game.Room
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository(logger *zap.Logger) *InMemoryRoomRepository {
	return &InMemoryRoomRepository{
		rooms:  make(map[string]*game.Room),
		logger: logger,
	}
}

// Put stores a room under its code.
func (r *InMemoryRoomRepository) Put(room *game.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms[room.ID] = room
}

// Get retrieves a room by its code.
func (r *InMemoryRoomRepository) Get(id string) (*game.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	return room, ok
}

// Delete removes a room.
func (r *InMemoryRoomRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; ok {
		delete(r.rooms, id)
		r.logger.Debug("room removed from repository", zap.String("room_id", id))
	}
}

// List returns all stored rooms.
func (r *InMemoryRoomRepository) List() []*game.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]*game.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}

	return rooms
}
