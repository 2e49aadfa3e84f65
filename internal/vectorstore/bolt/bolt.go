// Package bolt persists a vector index to a single bbolt file inside a
// store directory and loads it back into an in-memory index.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"askdoc/internal/domain"
	"askdoc/internal/vectorstore/memory"
)

// FileName is the index file created inside the store directory.
const FileName = "index.db"

var (
	bucketMeta   = []byte("meta")
	bucketChunks = []byte("chunks")

	keyModel     = []byte("model")
	keyDimension = []byte("dimension")
	keyCount     = []byte("count")
	keyBuildID   = []byte("build_id")
	keyCreatedAt = []byte("created_at")
)

type record struct {
	Chunk  domain.Chunk  `json:"chunk"`
	Vector domain.Vector `json:"vector"`
}

// Store implements domain.VectorStore on top of bbolt.
type Store struct {
	dir      string
	embedder domain.Embedder
	timeout  time.Duration
	log      *zap.Logger
}

// NewStore returns a store rooted at dir. The embedder is used to embed
// chunks on Save and to check the persisted model identifier on Load.
func NewStore(dir string, embedder domain.Embedder, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, embedder: embedder, timeout: 5 * time.Second, log: logger.Named("vectorstore")}
}

// Path returns the store directory.
func (s *Store) Path() string { return s.dir }

// Save embeds every chunk, builds the index and replaces the persisted one.
// It fails with ErrEmptyInput for zero chunks and creates no file in that case.
func (s *Store) Save(ctx context.Context, chunks []domain.Chunk) (domain.Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to save", domain.ErrEmptyInput)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	s.log.Info("embedding chunks", zap.Int("chunks", len(chunks)), zap.String("model", s.embedder.Model()))
	vectors, err := s.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	idx, err := memory.NewIndex(s.embedder.Model(), chunks, vectors)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	buildID := uuid.NewString()
	tmp := filepath.Join(s.dir, FileName+"."+buildID+".tmp")
	if err := s.write(tmp, buildID, idx); err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	final := filepath.Join(s.dir, FileName)
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("replace index: %w", err)
	}
	s.log.Info("index saved",
		zap.String("path", final),
		zap.String("build_id", buildID),
		zap.Int("chunks", idx.Len()),
		zap.Int("dimension", idx.Dimension()))
	return idx, nil
}

func (s *Store) write(path, buildID string, idx *memory.Index) error {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: s.timeout})
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		for k, v := range map[string]string{
			string(keyModel):     idx.Model(),
			string(keyDimension): strconv.Itoa(idx.Dimension()),
			string(keyCount):     strconv.Itoa(idx.Len()),
			string(keyBuildID):   buildID,
			string(keyCreatedAt): time.Now().UTC().Format(time.RFC3339),
		} {
			if err := meta.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucketIfNotExists(bucketChunks)
		if err != nil {
			return err
		}
		vectors := idx.Vectors()
		for i, c := range idx.Chunks() {
			data, err := json.Marshal(record{Chunk: c, Vector: vectors[i]})
			if err != nil {
				return err
			}
			if err := b.Put(seqKey(uint64(i)), data); err != nil {
				return err
			}
		}
		return nil
	})
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Load opens the persisted index read-only. A missing index is reported as
// ErrNotFound, which is the normal state before the first ingestion.
func (s *Store) Load(ctx context.Context) (domain.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("vector index not found", zap.String("path", path))
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %w", domain.ErrRetrievalFailed, path, err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{ReadOnly: true, Timeout: s.timeout})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrRetrievalFailed, path, err)
	}
	defer db.Close()

	var (
		model     string
		count     int
		dimension int
		chunks    []domain.Chunk
		vectors   []domain.Vector
	)
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		b := tx.Bucket(bucketChunks)
		if meta == nil || b == nil {
			return errors.New("missing buckets")
		}
		var err error
		model = string(meta.Get(keyModel))
		if count, err = metaInt(meta, keyCount); err != nil {
			return err
		}
		if dimension, err = metaInt(meta, keyDimension); err != nil {
			return err
		}
		// size from the stored keys, not from meta, which may be corrupt
		n := b.Stats().KeyN
		chunks = make([]domain.Chunk, 0, n)
		vectors = make([]domain.Vector, 0, n)
		// keys are big-endian sequence numbers, so cursor order is insertion order
		return b.ForEach(func(_, v []byte) error {
			var r record
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			chunks = append(chunks, r.Chunk)
			vectors = append(vectors, r.Vector)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrRetrievalFailed, path, err)
	}
	if len(chunks) != count {
		return nil, fmt.Errorf("%w: %s holds %d chunks, meta says %d", domain.ErrRetrievalFailed, path, len(chunks), count)
	}
	if len(vectors) > 0 && len(vectors[0]) != dimension {
		return nil, fmt.Errorf("%w: %s holds %d-dimensional vectors, meta says %d", domain.ErrRetrievalFailed, path, len(vectors[0]), dimension)
	}
	if s.embedder != nil && model != s.embedder.Model() {
		return nil, fmt.Errorf("%w: index built with %q, embedder is %q", domain.ErrModelMismatch, model, s.embedder.Model())
	}

	idx, err := memory.NewIndex(model, chunks, vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
	}
	s.log.Info("vector index loaded", zap.String("path", path), zap.Int("chunks", idx.Len()), zap.String("model", model))
	return idx, nil
}

// metaInt reads a non-negative integer from the meta bucket.
func metaInt(meta *bbolt.Bucket, key []byte) (int, error) {
	n, err := strconv.Atoi(string(meta.Get(key)))
	if err != nil {
		return 0, fmt.Errorf("bad %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("bad %s: %d is negative", key, n)
	}
	return n, nil
}

func seqKey(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
