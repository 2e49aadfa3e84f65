package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"askdoc/internal/domain"
)

// DocumentLoader resolves paths into documents.
type DocumentLoader interface {
	Load(paths []string) ([]domain.Document, error)
}

// IngestReport summarises an ingestion run.
type IngestReport struct {
	Documents int
	Chunks    int
	Index     domain.Index
}

// Ingestor builds the persisted index from source files.
type Ingestor struct {
	loader  DocumentLoader
	chunker domain.Chunker
	store   domain.VectorStore
	log     *zap.Logger
}

func NewIngestor(loader DocumentLoader, chunker domain.Chunker, store domain.VectorStore, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{loader: loader, chunker: chunker, store: store, log: logger.Named("ingest")}
}

// Ingest loads, chunks and saves. It halts on the first failure and never
// replaces the stored index with an empty one.
func (s *Ingestor) Ingest(ctx context.Context, paths []string) (IngestReport, error) {
	documents, err := s.loader.Load(paths)
	if err != nil {
		return IngestReport{}, fmt.Errorf("load documents: %w", err)
	}
	if len(documents) == 0 {
		return IngestReport{}, fmt.Errorf("%w: no supported documents found in %v", domain.ErrEmptyInput, paths)
	}

	var chunks []domain.Chunk
	for _, d := range documents {
		cs, err := s.chunker.Chunk(d)
		if err != nil {
			return IngestReport{}, fmt.Errorf("chunk %s: %w", d.Path, err)
		}
		chunks = append(chunks, cs...)
	}
	s.log.Info("documents chunked", zap.Int("documents", len(documents)), zap.Int("chunks", len(chunks)))

	idx, err := s.store.Save(ctx, chunks)
	if err != nil {
		return IngestReport{}, fmt.Errorf("save index: %w", err)
	}
	return IngestReport{Documents: len(documents), Chunks: len(chunks), Index: idx}, nil
}
