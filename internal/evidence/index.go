package evidence

import (
	"context"

	"go.uber.org/zap"

	"regulaite/internal/docstore"
)

// IndexSearcher queries the local document vector index. Index failures
// are logged and swallowed; the vector store is expected to be reliably
// available or reliably absent, so there is no retry.
type IndexSearcher struct {
	store  *docstore.Store
	logger *zap.Logger
}

// NewIndexSearcher wraps a document store as an evidence Searcher.
func NewIndexSearcher(store *docstore.Store, logger *zap.Logger) *IndexSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexSearcher{store: store, logger: logger}
}

// Search returns up to k index records, or nothing on any failure.
func (s *IndexSearcher) Search(ctx context.Context, query string, k int) []Record {
	if s.store == nil {
		return nil
	}
	docs, err := s.store.Search(ctx, query, k)
	if err != nil {
		s.logger.Warn("index search failed", zap.Error(err))
		return nil
	}
	records := make([]Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, Record{
			Title:   d.Title,
			URL:     d.Source,
			Snippet: d.Content,
		})
	}
	return records
}
