package storage

import (
	"mafia-game-be/internal/service/game"

	"go.uber.org/zap"
)

// Open 打开 SQLite 快照库；打不开时显式降级为进程内存储，
// 游戏照常进行，只是快照不再持久
func Open(dbPath string) game.SnapshotStore {
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		zap.L().Warn(
			"SQLite 不可用，降级为进程内存储（快照不持久）",
			zap.String("db_path", dbPath),
			zap.Error(err),
		)

		return NewMemoryStore()
	}

	zap.L().Info(
		"快照存储已就绪",
		zap.String("db_path", dbPath),
	)

	return store
}
