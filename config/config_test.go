package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Domains, 3)

	it, ok := cfg.GetDomain(AgentIT)
	require.True(t, ok)
	assert.Equal(t, "it", it.Collection)
	assert.Contains(t, it.Scope, "password")

	_, ok = cfg.GetDomain(AgentWebSearch)
	assert.False(t, ok, "web search has no domain descriptor")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown domain", func(c *Config) { c.Domains[0].ID = "LEGAL" }},
		{"duplicate domain", func(c *Config) { c.Domains[1] = c.Domains[0] }},
		{"missing collection", func(c *Config) { c.Domains[0].Collection = "" }},
		{"zero chunk size", func(c *Config) { c.Knowledge.ChunkSize = 0 }},
		{"overlap too large", func(c *Config) { c.Knowledge.ChunkOverlap = c.Knowledge.ChunkSize }},
		{"zero top k", func(c *Config) { c.Knowledge.TopK = 0 }},
		{"memory backend", func(c *Config) { c.Memory.Backend = "redis" }},
		{"search provider", func(c *Config) { c.Search.Provider = "bing" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
llm: openai
model: gpt-4o-mini
memory:
  backend: sqlite
knowledge:
  top_k: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLMClient)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "sqlite", cfg.Memory.Backend)
	assert.Equal(t, 3, cfg.Knowledge.TopK)
	// untouched fields keep their defaults
	assert.Equal(t, 1000, cfg.Knowledge.ChunkSize)
	assert.Len(t, cfg.Domains, 3)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"HELPDESK_LLM":    "gemini",
		"SERPAPI_API_KEY": "secret",
		"PORT":            "8080",
	}
	cfg := Default()
	applyEnv(cfg, func(k string) string { return env[k] })
	assert.Equal(t, "gemini", cfg.LLMClient)
	assert.Equal(t, "secret", cfg.Search.APIKey)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	cfg = Default()
	applyEnv(cfg, func(k string) string {
		if k == "PORT" {
			return "not-a-port"
		}
		return ""
	})
	assert.Equal(t, ":3000", cfg.Server.Addr)
}
