package storage

import (
	"sync"

	"mafia-game-be/internal/service/game"
)

// MemoryStore 是数据库不可用时的进程内降级实现，
// 进程退出即丢失，不提供持久化
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]game.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snaps: make(map[string]game.Snapshot),
	}
}

func (m *MemoryStore) Save(gameID string, snap game.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snaps[gameID] = snap

	return nil
}

func (m *MemoryStore) Load(gameID string) (*game.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snaps[gameID]
	if !ok {
		return nil, nil
	}

	return &snap, nil
}

func (m *MemoryStore) Delete(gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.snaps, gameID)

	return nil
}
