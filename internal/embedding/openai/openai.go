package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"askdoc/internal/domain"
	"askdoc/internal/embedding"
)

// DefaultModel is the sentence-transformer the index is built with.
const DefaultModel = "all-MiniLM-L6-v2"

// Client is an OpenAI-compatible embeddings client implementing domain.Embedder.
// It works against api.openai.com as well as self-hosted servers
// (text-embeddings-inference, Ollama, LocalAI) exposing /v1/embeddings.
type Client struct {
	client      *goopenai.Client
	model       string
	batchSize   int
	concurrency int
	limiter     *rate.Limiter
	log         *zap.Logger
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	BatchSize         int
	Concurrency       int
	RequestsPerSecond float64
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: embedder base url is empty", domain.ErrInvalidArgument)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	oc := goopenai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		client:      goopenai.NewClientWithConfig(oc),
		model:       cfg.Model,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		limiter:     rate.NewLimiter(limit, cfg.Concurrency),
		log:         logger.Named("embedder"),
	}, nil
}

// Model returns the fixed embedding model identifier.
func (c *Client) Model() string { return c.model }

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) (domain.Vector, error) {
	vecs, err := c.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedMany embeds texts in batches, running up to Concurrency batches at a
// time. The result is parallel to texts.
func (c *Client) EmbedMany(ctx context.Context, texts []string) ([]domain.Vector, error) {
	if err := embedding.ValidateTexts(texts); err != nil {
		return nil, err
	}
	out := make([]domain.Vector, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		g.Go(func() error {
			vecs, err := c.embedBatch(gctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := sameDimension(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([]domain.Vector, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrProviderUnavailable, err)
	}
	start := time.Now()
	resp, err := c.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequestStrings{
		Input: texts,
		Model: goopenai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: model %s: %w", domain.ErrProviderUnavailable, c.model, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: model %s returned %d embeddings for %d inputs",
			domain.ErrProviderUnavailable, c.model, len(resp.Data), len(texts))
	}

	vecs := make([]domain.Vector, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vecs[d.Index] != nil {
			return nil, fmt.Errorf("%w: model %s returned bad embedding index %d",
				domain.ErrProviderUnavailable, c.model, d.Index)
		}
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("%w: model %s returned an empty vector", domain.ErrProviderUnavailable, c.model)
		}
		v := make(domain.Vector, len(d.Embedding))
		copy(v, d.Embedding)
		embedding.Normalize(v)
		vecs[d.Index] = v
	}
	c.log.Debug("embedded batch",
		zap.String("model", c.model),
		zap.Int("size", len(texts)),
		zap.Duration("took", time.Since(start)))
	return vecs, nil
}

func sameDimension(vecs []domain.Vector) error {
	if len(vecs) == 0 {
		return nil
	}
	dim := len(vecs[0])
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", domain.ErrProviderUnavailable, i, len(v), dim)
		}
	}
	return nil
}
