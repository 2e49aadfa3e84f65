package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"askdoc/internal/domain"
	"askdoc/internal/prompt"
)

// DefaultTopK is how many chunks are retrieved as context per question.
const DefaultTopK = 1

// AssistantOptions tunes retrieval and generation.
type AssistantOptions struct {
	TopK        int
	Temperature float64
}

// Assistant answers questions from the persisted index: it retrieves the
// top-K chunks, fills the prompt and asks the language model.
type Assistant struct {
	embedder    domain.Embedder
	store       domain.VectorStore
	llm         domain.LanguageModel
	topK        int
	temperature float64
	log         *zap.Logger

	mu    sync.Mutex
	index domain.Index
}

func NewAssistant(embedder domain.Embedder, store domain.VectorStore, llm domain.LanguageModel, opts AssistantOptions, logger *zap.Logger) (*Assistant, error) {
	if embedder == nil || store == nil || llm == nil {
		return nil, fmt.Errorf("%w: assistant needs an embedder, a store and a language model", domain.ErrInvalidArgument)
	}
	if opts.TopK == 0 {
		opts.TopK = DefaultTopK
	}
	if opts.TopK < 1 {
		return nil, fmt.Errorf("%w: top_k must be >= 1, got %d", domain.ErrInvalidArgument, opts.TopK)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		embedder:    embedder,
		store:       store,
		llm:         llm,
		topK:        opts.TopK,
		temperature: opts.Temperature,
		log:         logger.Named("assistant"),
	}, nil
}

// Index returns the loaded index, loading it on first use. A failed load is
// not cached, so an index created later is picked up by the next call.
func (a *Assistant) Index(ctx context.Context) (domain.Index, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.index != nil {
		return a.index, nil
	}
	idx, err := a.store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: run ingestion first: %w", domain.ErrIndexNotReady, err)
		}
		return nil, err
	}
	a.index = idx
	return idx, nil
}

// Retrieve returns the top-K chunks for question, most similar first.
func (a *Assistant) Retrieve(ctx context.Context, question string) ([]domain.SearchResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is blank", domain.ErrEmptyInput)
	}
	idx, err := a.Index(ctx)
	if err != nil {
		return nil, err
	}
	vec, err := a.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	results, err := idx.Query(vec, a.topK)
	if err != nil {
		if !errors.Is(err, domain.ErrRetrievalFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
		}
		return nil, fmt.Errorf("query index: %w", err)
	}
	return results, nil
}

// Answer runs the full retrieval-augmented flow. Every failing step is
// returned as an error; an empty Answer is never reported as success.
func (a *Assistant) Answer(ctx context.Context, question string) (domain.Answer, error) {
	answer, _, err := a.AnswerWithSources(ctx, question)
	return answer, err
}

// AnswerWithSources is Answer that also returns the retrieved chunks the
// prompt was filled with. The chunks are returned when only generation fails.
func (a *Assistant) AnswerWithSources(ctx context.Context, question string) (domain.Answer, []domain.SearchResult, error) {
	start := time.Now()
	results, err := a.Retrieve(ctx, question)
	if err != nil {
		a.log.Warn("retrieval failed", zap.String("question", question), zap.Error(err))
		return domain.Answer{}, nil, err
	}
	filled, err := prompt.Render(prompt.JoinContext(results), question)
	if err != nil {
		return domain.Answer{}, nil, err
	}
	answer, err := a.llm.Generate(ctx, filled, a.temperature)
	if err != nil {
		a.log.Warn("generation failed", zap.String("question", question), zap.Error(err))
		return domain.Answer{}, results, err
	}
	if strings.TrimSpace(answer.Text) == "" {
		return domain.Answer{}, results, fmt.Errorf("%w: empty answer", domain.ErrGenerationFailed)
	}
	a.log.Debug("answered",
		zap.String("question", question),
		zap.Int("chunks", len(results)),
		zap.Duration("took", time.Since(start)))
	return answer, results, nil
}
