package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store persists per-user conversation logs in SQLite. Reads and writes
// are serialized per store; each user's log is an append-only ordered
// sequence keyed by (user_id, seq).
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewStore opens (creating if needed) the history database at path.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	s := &Store{db: db, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_chat_history_user ON chat_history(user_id, seq);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Load returns the full ordered turn list for a user. A missing user is
// an empty history, not an error.
func (s *Store) Load(userID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT role, content, created_at FROM chat_history
		 WHERE user_id = ? ORDER BY seq ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("load history for %q: %w", userID, err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var created time.Time
		if err := rows.Scan(&t.Role, &t.Content, &created); err != nil {
			s.logger.Warn("skipping unreadable history row", zap.String("user", userID), zap.Error(err))
			continue
		}
		t.Timestamp = created
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Save replaces a user's history with the given ordered turn list.
func (s *Store) Save(userID string, turns []Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save history for %q: %w", userID, err)
	}
	if _, err := tx.Exec(`DELETE FROM chat_history WHERE user_id = ?`, userID); err != nil {
		tx.Rollback()
		return fmt.Errorf("save history for %q: %w", userID, err)
	}
	for i, t := range turns {
		if _, err := tx.Exec(
			`INSERT INTO chat_history (user_id, seq, role, content) VALUES (?, ?, ?, ?)`,
			userID, i, t.Role, t.Content); err != nil {
			tx.Rollback()
			return fmt.Errorf("save history for %q: %w", userID, err)
		}
	}
	return tx.Commit()
}

// Append adds one turn at the end of a user's history.
func (s *Store) Append(userID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO chat_history (user_id, seq, role, content)
		 VALUES (?, (SELECT COALESCE(MAX(seq), -1) + 1 FROM chat_history WHERE user_id = ?), ?, ?)`,
		userID, userID, role, content)
	if err != nil {
		return fmt.Errorf("append turn for %q: %w", userID, err)
	}
	return nil
}

// Clear removes a user's entire history.
func (s *Store) Clear(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM chat_history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear history for %q: %w", userID, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
