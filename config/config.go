package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/krishg0kul/genai-multi-agent/errors"
	"gopkg.in/yaml.v3"
)

// Specialist ids understood by the router. WEB_SEARCH has no domain entry.
const (
	AgentIT        = "IT"
	AgentHR        = "HR"
	AgentFinance   = "FINANCE"
	AgentWebSearch = "WEB_SEARCH"
)

// Domain describes one knowledge-base specialist.
type Domain struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	Scope       string `yaml:"scope"`
	Collection  string `yaml:"collection"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type MemoryConfig struct {
	Backend string `yaml:"backend"` // "file" or "sqlite"
	Dir     string `yaml:"dir"`
	Path    string `yaml:"path"`
}

type KnowledgeConfig struct {
	DataDir      string   `yaml:"data_dir"`
	IndexDir     string   `yaml:"index_dir"`
	Patterns     []string `yaml:"patterns"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	TopK         int      `yaml:"top_k"`
}

type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "gemini", "openai" or "hash"
	Model    string `yaml:"model"`
}

type SearchConfig struct {
	Provider   string        `yaml:"provider"` // "serpapi", "llm" or "none"
	APIKey     string        `yaml:"api_key"`
	Engine     string        `yaml:"engine"`
	MaxResults int           `yaml:"max_results"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
	CacheBytes int64         `yaml:"cache_bytes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

type Config struct {
	LLMClient       string          `yaml:"llm"`
	Model           string          `yaml:"model"`
	Temperature     float64         `yaml:"temperature"`
	MaxOutputTokens int             `yaml:"max_output_tokens"`
	Embedding       EmbeddingConfig `yaml:"embedding"`
	Domains         []Domain        `yaml:"domains"`
	WebSearchScope  string          `yaml:"web_search_scope"`
	HistoryWindow   int             `yaml:"history_window"`
	Server          ServerConfig    `yaml:"server"`
	Memory          MemoryConfig    `yaml:"memory"`
	Knowledge       KnowledgeConfig `yaml:"knowledge"`
	Search          SearchConfig    `yaml:"search"`
	Log             LogConfig       `yaml:"log"`
	Tracing         TracingConfig   `yaml:"tracing"`
}

// Default returns the built-in configuration: the three domain specialists,
// local file memory and a SerpAPI search provider.
func Default() *Config {
	return &Config{
		Temperature:     0.7,
		MaxOutputTokens: 1024,
		Embedding:       EmbeddingConfig{Provider: "hash"},
		Domains: []Domain{
			{
				ID:          AgentIT,
				DisplayName: "IT Support",
				Scope:       "IT Agent: technical issues, software problems, computer questions, IT infrastructure, technical support, system related questions, password",
				Collection:  "it",
			},
			{
				ID:          AgentHR,
				DisplayName: "Human Resources",
				Scope:       "HR Agent: employee policies, benefits, workplace issues, hiring, training, employee relations",
				Collection:  "hr",
			},
			{
				ID:          AgentFinance,
				DisplayName: "Finance",
				Scope:       "Finance Agent: budget questions, expenses, financial reports, accounting, investments, financial planning, reimbursement queries, allowances",
				Collection:  "finance",
			},
		},
		WebSearchScope: "Web Search Agent: general information, facts, current events, or anything not fitting the other categories",
		HistoryWindow:  20,
		Server:         ServerConfig{Addr: ":3000"},
		Memory:         MemoryConfig{Backend: "file", Dir: filepath.Join("memory", "local"), Path: filepath.Join("memory", "memory.db")},
		Knowledge: KnowledgeConfig{
			DataDir:      "data",
			IndexDir:     "vectorstores",
			Patterns:     []string{"**/*.md", "**/*.markdown", "**/*.txt", "**/*.csv"},
			ChunkSize:    1000,
			ChunkOverlap: 200,
			TopK:         5,
		},
		Search: SearchConfig{
			Provider:   "serpapi",
			Engine:     "google",
			MaxResults: 5,
			CacheTTL:   10 * time.Minute,
			CacheBytes: 8 << 20,
		},
		Log:     LogConfig{Level: "info", Format: "console"},
		Tracing: TracingConfig{ServiceName: "helpdesk"},
	}
}

// LoadConfig loads configuration from the user's home directory and the current
// working directory, with the latter taking precedence. Environment variables
// are applied last.
func LoadConfig() (*Config, error) {
	cfg := Default()

	// Load user-level config first
	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".helpdesk", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	// Load project-level config, overriding user-level
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".helpdesk", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	applyEnv(cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a single config file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := loadFromFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "error loading config %s", path)
	}
	applyEnv(cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites only the fields present in the YAML, so a project
	// file replaces individual user-level settings.
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("HELPDESK_LLM"); v != "" {
		cfg.LLMClient = v
	}
	if v := getenv("HELPDESK_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := getenv("HELPDESK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("SERPAPI_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			cfg.Server.Addr = ":" + v
		}
	}
}

// Validate checks the settings the rest of the program relies on.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Domains))
	for _, d := range c.Domains {
		switch d.ID {
		case AgentIT, AgentHR, AgentFinance:
		default:
			return errors.New("unknown domain agent id %q", d.ID)
		}
		if seen[d.ID] {
			return errors.New("domain agent %q configured twice", d.ID)
		}
		seen[d.ID] = true
		if d.Collection == "" {
			return errors.New("domain agent %q has no knowledge collection", d.ID)
		}
	}
	if c.Knowledge.ChunkSize <= 0 {
		return errors.New("knowledge.chunk_size must be positive, got %d", c.Knowledge.ChunkSize)
	}
	if c.Knowledge.ChunkOverlap < 0 || c.Knowledge.ChunkOverlap >= c.Knowledge.ChunkSize {
		return errors.New("knowledge.chunk_overlap must be in [0, chunk_size), got %d", c.Knowledge.ChunkOverlap)
	}
	if c.Knowledge.TopK <= 0 {
		return errors.New("knowledge.top_k must be positive, got %d", c.Knowledge.TopK)
	}
	switch c.Memory.Backend {
	case "file", "sqlite":
	default:
		return errors.New("unknown memory backend %q", c.Memory.Backend)
	}
	switch c.Search.Provider {
	case "serpapi", "llm", "none":
	default:
		return errors.New("unknown search provider %q", c.Search.Provider)
	}
	return nil
}

// GetDomain finds a domain specialist by id.
func (c *Config) GetDomain(id string) (*Domain, bool) {
	for i := range c.Domains {
		if c.Domains[i].ID == id {
			return &c.Domains[i], true
		}
	}
	return nil, false
}
