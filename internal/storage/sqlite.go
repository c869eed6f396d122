package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/storage"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS game_states (
	id          TEXT PRIMARY KEY,
	story_id    TEXT NOT NULL,
	data        TEXT NOT NULL,
	updated_at  INTEGER NOT NULL,
	expires_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS game_states_expires_at ON game_states (expires_at);
`

// SQLiteStorage implements the Storage interface with game states in a
// SQLite file and story content on the filesystem. It suits single-node
// deployments that do not run Redis.
type SQLiteStorage struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
	storyDir
}

var _ storage.Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (or creates) the database at dbPath and runs migrations.
// ":memory:" gives a private in-memory database.
func NewSQLiteStorage(dbPath, dataDir string, ttl time.Duration, logger *slog.Logger) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection keeps a :memory: database shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultGameStateTTL
	}
	return &SQLiteStorage{
		db:       db,
		ttl:      ttl,
		now:      time.Now,
		storyDir: newStoryDir(dataDir, logger),
	}, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

// WaitForConnection checks the database once; a local file is either usable or not.
func (s *SQLiteStorage) WaitForConnection(ctx context.Context) error {
	if err := s.Ping(ctx); err != nil {
		return err
	}
	s.logger.Info("SQLite database ready")
	return nil
}

func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", "error", err)
		return err
	}
	s.logger.Info("SQLite database closed")
	return nil
}

func (s *SQLiteStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	now := s.now()
	gs.UpdatedAt = now

	data, err := json.Marshal(gs)
	if err != nil {
		s.logger.Error("Failed to marshal gamestate", "game_id", id, "error", err)
		return fmt.Errorf("failed to marshal gamestate: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO game_states (id, story_id, data, updated_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			story_id = excluded.story_id,
			data = excluded.data,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		id.String(), gs.StoryID, string(data), now.UnixNano(), now.Add(s.ttl).UnixNano(),
	)
	if err != nil {
		s.logger.Error("Failed to save gamestate", "game_id", id, "error", err)
		return fmt.Errorf("failed to save gamestate: %w", err)
	}
	return nil
}

// LoadGameState returns nil, nil for a missing or expired game.
func (s *SQLiteStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	var data string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM game_states WHERE id = ?`, id.String(),
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("Gamestate not found", "game_id", id)
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to load gamestate", "game_id", id, "error", err)
		return nil, fmt.Errorf("failed to load gamestate: %w", err)
	}

	if s.now().UnixNano() >= expiresAt {
		s.logger.Warn("Gamestate expired", "game_id", id)
		return nil, s.DeleteGameState(ctx, id)
	}

	var gs state.GameState
	if err := json.Unmarshal([]byte(data), &gs); err != nil {
		s.logger.Error("Failed to unmarshal gamestate", "game_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	gs.Normalize()
	return &gs, nil
}

func (s *SQLiteStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM game_states WHERE id = ?`, id.String()); err != nil {
		s.logger.Error("Failed to delete gamestate", "game_id", id, "error", err)
		return fmt.Errorf("failed to delete gamestate: %w", err)
	}
	return nil
}

// PurgeExpired removes every expired game and reports how many were removed.
func (s *SQLiteStorage) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM game_states WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired gamestates: %w", err)
	}
	return res.RowsAffected()
}
