package storage

import (
	"database/sql"
	"encoding/json"
	"errors"

	"mafia-game-be/internal/service/game"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_snapshot (
	game_id    TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteStore 把每局游戏的快照存成一行 JSON，
// 键为 game_id，每次保存整行覆盖
type SQLiteStore struct {
	db *sqlx.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(gameID string, snap game.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO game_snapshot (game_id, data, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(game_id) DO UPDATE
		 SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		gameID, string(data),
	)

	return err
}

// Load 返回指定游戏的最新快照，不存在时返回 (nil, nil)
func (s *SQLiteStore) Load(gameID string) (*game.Snapshot, error) {
	var data string

	err := s.db.Get(&data, "SELECT data FROM game_snapshot WHERE game_id = ?", gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap game.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}

	return &snap, nil
}

func (s *SQLiteStore) Delete(gameID string) error {
	_, err := s.db.Exec("DELETE FROM game_snapshot WHERE game_id = ?", gameID)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
