package cli

import (
	"fmt"
	"time"

	"askdoc/internal/chunker"
	"askdoc/internal/domain"
	"askdoc/internal/embedding/hashing"
	"askdoc/internal/embedding/openai"
	"askdoc/internal/llm"
	"askdoc/internal/loader"
	"askdoc/internal/service"
	"askdoc/internal/vectorstore/bolt"
)

// Components are constructed once per process and injected; nothing below
// is rebuilt per question.

func (a *app) newEmbedder() (domain.Embedder, error) {
	switch a.cfg.Embedder.Type {
	case "hashing":
		return hashing.NewEmbedder(a.cfg.Embedder.Dimension), nil
	case "openai":
		o := a.cfg.Embedder.OpenAI
		return openai.NewClient(openai.Config{
			BaseURL:           o.BaseURL,
			APIKey:            o.APIKey,
			Model:             a.cfg.Embedder.Model,
			Timeout:           time.Duration(o.TimeoutSecs) * time.Second,
			BatchSize:         o.BatchSize,
			Concurrency:       o.Concurrency,
			RequestsPerSecond: o.RequestsPerSecond,
		}, a.log)
	default:
		return nil, fmt.Errorf("unknown embedder: %s", a.cfg.Embedder.Type)
	}
}

func (a *app) newStore(emb domain.Embedder) domain.VectorStore {
	return bolt.NewStore(a.cfg.Store.Path, emb, a.log)
}

func (a *app) newIngestor() (*service.Ingestor, error) {
	emb, err := a.newEmbedder()
	if err != nil {
		return nil, err
	}
	ch := chunker.NewSentenceChunker(a.cfg.Ingest.ChunkSize, a.cfg.Ingest.ChunkOverlap)
	return service.NewIngestor(loader.New(a.log), ch, a.newStore(emb), a.log), nil
}

// newAssistant also returns the chat client so callers can report its model.
func (a *app) newAssistant() (*service.Assistant, *llm.Client, error) {
	if err := a.cfg.RequireLLMKey(); err != nil {
		return nil, nil, err
	}
	emb, err := a.newEmbedder()
	if err != nil {
		return nil, nil, err
	}
	model, err := llm.NewClient(llm.Config{
		BaseURL:   a.cfg.LLM.BaseURL,
		APIKey:    a.cfg.LLM.APIKey,
		Model:     a.cfg.LLM.Model,
		MaxTokens: a.cfg.LLM.MaxTokens,
		Timeout:   a.cfg.LLMTimeout(),
	}, a.log)
	if err != nil {
		return nil, nil, err
	}
	assistant, err := service.NewAssistant(emb, a.newStore(emb), model, service.AssistantOptions{
		TopK:        a.cfg.Retrieval.TopK,
		Temperature: a.cfg.LLM.Temperature,
	}, a.log)
	if err != nil {
		return nil, nil, err
	}
	return assistant, model, nil
}
