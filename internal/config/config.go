package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLMConfig configures the hosted chat model.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`

	// APIKey is resolved from APIKeyEnv and never written back to disk.
	APIKey string `yaml:"-"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	BatchSize         int     `yaml:"batch_size"`
	Concurrency       int     `yaml:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	APIKey string `yaml:"-"`
}

// EmbedderConfig selects and configures the text embedder implementation.
// Model is fixed per index: changing it requires re-ingesting.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Model     string                `yaml:"model"`
	Dimension int                   `yaml:"dimension"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// StoreConfig locates the persisted vector index.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// IngestConfig configures how documents are found and split into chunks.
type IngestConfig struct {
	DataPath     string `yaml:"data_path"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

// RetrievalConfig configures context retrieval.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Store     StoreConfig     `yaml:"store"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Log       LogConfig       `yaml:"log"`
}

// LLMTimeout returns the chat request timeout.
func (c *AppConfig) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSecs) * time.Second
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults. Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	loadDotEnv()
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./askdoc.yaml first, then ~/.config/askdoc/config.yaml.
// If neither exists, it writes defaults to ~/.config/askdoc/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "askdoc.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	if err := Save(userPath, defaultConfig()); err != nil {
		return nil, "", err
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks value ranges. The LLM key is only required by commands
// that generate answers, see RequireLLMKey.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Retrieval.TopK < 1 {
		errs = append(errs, fmt.Errorf("retrieval.top_k must be >= 1, got %d", c.Retrieval.TopK))
	}
	if c.Ingest.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("ingest.chunk_size must be >= 1, got %d", c.Ingest.ChunkSize))
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		errs = append(errs, fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size), got %d", c.Ingest.ChunkOverlap))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be in [0, 2], got %g", c.LLM.Temperature))
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		errs = append(errs, errors.New("store.path is empty"))
	}
	switch c.Embedder.Type {
	case "openai", "hashing":
	default:
		errs = append(errs, fmt.Errorf("unknown embedder type %q", c.Embedder.Type))
	}
	return errors.Join(errs...)
}

// RequireLLMKey reports a missing LLM credential.
func (c *AppConfig) RequireLLMKey() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("missing LLM API key in env %s", c.LLM.APIKeyEnv)
	}
	return nil
}

func loadDotEnv() {
	_ = godotenv.Load()
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "askdoc", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		LLM: LLMConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			APIKeyEnv:   "GROQ_API_KEY",
			Model:       "llama-3.1-8b-instant",
			Temperature: 0.3,
			TimeoutSecs: 60,
		},
		Embedder: EmbedderConfig{
			Type:  "openai",
			Model: "all-MiniLM-L6-v2",
			OpenAI: &OpenAIEmbedderConfig{
				BaseURL:   "http://localhost:8080/v1",
				APIKeyEnv: "ASKDOC_EMBEDDING_API_KEY",
			},
		},
		Store:     StoreConfig{Path: "vectorstore/db"},
		Ingest:    IngestConfig{DataPath: "data/", ChunkSize: 500, ChunkOverlap: 50},
		Retrieval: RetrievalConfig{TopK: 1},
		Log:       LogConfig{Level: "info", Format: "console"},
	}
}

func applyEnv(cfg *AppConfig) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}
	setString("GROQ_MODEL_NAME", &cfg.LLM.Model)
	setString("ASKDOC_LLM_BASE_URL", &cfg.LLM.BaseURL)
	setString("ASKDOC_EMBEDDER", &cfg.Embedder.Type)
	setString("ASKDOC_STORE_PATH", &cfg.Store.Path)
	setString("ASKDOC_DATA_PATH", &cfg.Ingest.DataPath)
	setString("ASKDOC_LOG_LEVEL", &cfg.Log.Level)
	setInt("ASKDOC_CHUNK_SIZE", &cfg.Ingest.ChunkSize)
	setInt("ASKDOC_CHUNK_OVERLAP", &cfg.Ingest.ChunkOverlap)
	setInt("ASKDOC_TOP_K", &cfg.Retrieval.TopK)
	if cfg.Embedder.OpenAI != nil {
		setString("ASKDOC_EMBEDDING_BASE_URL", &cfg.Embedder.OpenAI.BaseURL)
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "GROQ_API_KEY"
	}
	cfg.LLM.APIKey = os.Getenv(cfg.LLM.APIKeyEnv)
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.Model == "" {
			cfg.Embedder.Model = "all-MiniLM-L6-v2"
		}
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "http://localhost:8080/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "ASKDOC_EMBEDDING_API_KEY"
		}
		o.APIKey = os.Getenv(o.APIKeyEnv)
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.BatchSize == 0 {
			o.BatchSize = 32
		}
		if o.Concurrency == 0 {
			o.Concurrency = 4
		}
	}
	if cfg.Embedder.Type == "hashing" && cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 384
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}
