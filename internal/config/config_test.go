package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadMissingFileReturnsDefaults checks that a first run without a
// config file still gets the values the assistant was tuned with.
func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_env")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.Model)
	assert.Equal(t, 0.3, cfg.LLM.Temperature)
	assert.Equal(t, "gsk_env", cfg.LLM.APIKey)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout())
	assert.Equal(t, "all-MiniLM-L6-v2", cfg.Embedder.Model)
	assert.Equal(t, "vectorstore/db", cfg.Store.Path)
	assert.Equal(t, "data/", cfg.Ingest.DataPath)
	assert.Equal(t, 500, cfg.Ingest.ChunkSize)
	assert.Equal(t, 50, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 1, cfg.Retrieval.TopK)
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.RequireLLMKey())
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "askdoc.yaml")
	yamlDoc := `
llm:
  model: mixtral-8x7b-32768
  api_key_env: MY_LLM_KEY
embedder:
  type: hashing
store:
  path: /var/lib/askdoc
retrieval:
  top_k: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	t.Setenv("MY_LLM_KEY", "secret")
	t.Setenv("ASKDOC_TOP_K", "2")
	t.Setenv("ASKDOC_CHUNK_SIZE", "800")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mixtral-8x7b-32768", cfg.LLM.Model)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, "hashing", cfg.Embedder.Type)
	assert.Equal(t, 384, cfg.Embedder.Dimension)
	assert.Equal(t, "/var/lib/askdoc", cfg.Store.Path)
	assert.Equal(t, 2, cfg.Retrieval.TopK)
	assert.Equal(t, 800, cfg.Ingest.ChunkSize)
	assert.Equal(t, 0.3, cfg.LLM.Temperature, "unset keys keep defaults")
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	cfg.Retrieval.TopK = 0
	cfg.Ingest.ChunkOverlap = 600
	cfg.LLM.Temperature = 3
	cfg.Embedder.Type = "word2vec"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"top_k", "chunk_overlap", "temperature", "word2vec"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestRequireLLMKey(t *testing.T) {
	cfg := defaultConfig()
	cfg.LLM.APIKey = ""
	err := cfg.RequireLLMKey()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestSaveDoesNotPersistSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.LLM.APIKey = "gsk_should_not_leak"
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "gsk_should_not_leak")
	assert.Contains(t, string(data), "api_key_env: GROQ_API_KEY")
}
