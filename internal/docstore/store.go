// Package docstore is the SQLite-backed document vector index behind the
// evidence gatherer. Documents are stored with their embeddings; search
// ranks by cosine similarity, falling back to keyword matching when no
// embedding engine is configured.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"regulaite/internal/embedding"
)

// Document is one indexed document chunk.
type Document struct {
	ID         int64
	Title      string
	Source     string
	Content    string
	Similarity float64
}

// Store wraps the documents table and the embedding engine.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	engine embedding.Engine // nil: keyword fallback only
	logger *zap.Logger
}

// NewStore opens (creating if needed) the document index at path. The
// engine may be nil, in which case search degrades to keyword matching.
func NewStore(path string, engine embedding.Engine, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create docstore directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open document index: %w", err)
	}
	s := &Store{db: db, engine: engine, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		embedding TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_documents_title ON documents(title);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create docstore schema: %w", err)
	}
	return nil
}

// Ingest stores one document chunk, embedding it when an engine is
// configured.
func (s *Store) Ingest(ctx context.Context, title, source, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("empty document content")
	}

	var embJSON sql.NullString
	if s.engine != nil {
		vec, err := s.engine.EmbedDocument(ctx, content)
		if err != nil {
			return fmt.Errorf("embed document %q: %w", title, err)
		}
		raw, err := json.Marshal(vec)
		if err != nil {
			return fmt.Errorf("serialize embedding: %w", err)
		}
		embJSON = sql.NullString{String: string(raw), Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO documents (title, source, content, embedding) VALUES (?, ?, ?, ?)`,
		title, source, content, embJSON)
	if err != nil {
		return fmt.Errorf("store document %q: %w", title, err)
	}
	s.logger.Debug("document ingested",
		zap.String("title", title), zap.Int("bytes", len(content)))
	return nil
}

// Search returns the k most relevant documents for a query.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		k = 10
	}
	if s.engine == nil {
		return s.keywordSearch(query, k)
	}

	queryVec, err := s.engine.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, title, source, content, embedding FROM documents WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("scan document index: %w", err)
	}
	defer rows.Close()

	var candidates []Document
	for rows.Next() {
		var doc Document
		var embJSON string
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Source, &doc.Content, &embJSON); err != nil {
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(embJSON), &vec); err != nil {
			continue
		}
		sim, err := embedding.CosineSimilarity(queryVec, vec)
		if err != nil {
			continue
		}
		doc.Similarity = sim
		candidates = append(candidates, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// keywordSearch is the engine-less fallback: LIKE matching on query
// keywords, newest first.
func (s *Store) keywordSearch(query string, k int) ([]Document, error) {
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil, nil
	}

	var conditions []string
	var args []interface{}
	for _, kw := range keywords {
		conditions = append(conditions, "LOWER(content) LIKE ?")
		args = append(args, "%"+kw+"%")
	}
	args = append(args, k)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT id, title, source, content FROM documents WHERE %s
		 ORDER BY created_at DESC LIMIT ?`,
		strings.Join(conditions, " OR ")), args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Source, &doc.Content); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Count returns the number of indexed documents.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
