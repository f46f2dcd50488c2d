package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveChampion(ctx context.Context, champion Champion) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	arch, err := json.Marshal(champion.Architecture)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO champions (id, run_id, task, generation, fitness, architecture, genome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			task = excluded.task,
			generation = excluded.generation,
			fitness = excluded.fitness,
			architecture = excluded.architecture,
			genome = excluded.genome,
			created_at = excluded.created_at
	`, champion.ID, champion.RunID, champion.Task, champion.Generation, champion.Fitness,
		string(arch), champion.Genome, champion.CreatedAt.UnixNano())
	return err
}

func (s *SQLiteStore) GetChampion(ctx context.Context, id string) (Champion, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Champion{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, run_id, task, generation, fitness, architecture, genome, created_at
		FROM champions WHERE id = ?
	`, id)
	champion, err := scanChampion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Champion{}, false, nil
		}
		return Champion{}, false, err
	}
	return champion, true, nil
}

func (s *SQLiteStore) ListChampions(ctx context.Context, runID string) ([]Champion, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, run_id, task, generation, fitness, architecture, genome, created_at
		FROM champions WHERE run_id = ?
		ORDER BY generation, created_at
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Champion
	for rows.Next() {
		champion, err := scanChampion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, champion)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChampion(row scanner) (Champion, error) {
	var (
		c       Champion
		arch    string
		created int64
	)
	if err := row.Scan(&c.ID, &c.RunID, &c.Task, &c.Generation, &c.Fitness, &arch, &c.Genome, &created); err != nil {
		return Champion{}, err
	}
	if err := json.Unmarshal([]byte(arch), &c.Architecture); err != nil {
		return Champion{}, fmt.Errorf("decode architecture of champion %s: %w", c.ID, err)
	}
	c.CreatedAt = time.Unix(0, created).UTC()
	return c, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS champions (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			task TEXT NOT NULL,
			generation INTEGER NOT NULL,
			fitness REAL NOT NULL,
			architecture TEXT NOT NULL,
			genome BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS champions_run ON champions (run_id, generation);
	`)
	return err
}
