// Package config loads agentcrew settings from a .env file, the environment
// and an optional YAML, TOML or JSON config file.
//
// Environment variables:
//   - OPENAI_API_KEY, OPENAI_BASE_URL: OpenAI compatible provider (base URL for Ollama and friends)
//   - ANTHROPIC_API_KEY: Anthropic provider
//   - AGENTCREW_PROVIDER: openai (default), anthropic or ollama
//   - AGENTCREW_MODEL: model for every agent
//   - AGENTCREW_<ROLE>_MODEL: per-agent model, ROLE in ORCHESTRATOR, CODER, TESTER, DATABASE, RESEARCH
//   - AGENTCREW_WORKSPACE: workspace directory (default .agent_workspace)
//   - AGENTCREW_MAX_ITERATIONS, AGENTCREW_IDLE_TURNS: loop limits
//   - SERPERDEV_API_KEY: web search
//   - AGENTCREW_KNOWLEDGE_DIR: persistent knowledge store directory
//   - AGENTCREW_EMBEDDING_MODEL: embedding model for the knowledge store
//   - AGENTCREW_LOG_LEVEL, AGENTCREW_LOG_FORMAT: debug|info|warn|error and text|json
//   - AGENTCREW_ADDR: HTTP bridge listen address (default :8000)
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// DefaultOllamaBaseURL is used for the ollama provider when no base URL is set.
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

// Roles are the per-agent model keys.
var Roles = []string{"orchestrator", "coder", "tester", "database", "research"}

// ErrMissingAPIKey is returned by Validate when the provider has no key.
var ErrMissingAPIKey = errors.New("missing API key")

// Config holds all settings.
type Config struct {
	Provider string `mapstructure:"provider"`
	// Model is the default model name; empty means the provider default.
	Model string `mapstructure:"model"`
	// Models maps a role (see Roles) to a model name.
	Models map[string]string `mapstructure:"models"`

	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`

	Workspace     string `mapstructure:"workspace"`
	MaxIterations int    `mapstructure:"max_iterations"`
	IdleTurns     int    `mapstructure:"idle_turns"`

	Search    SearchConfig    `mapstructure:"search"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`

	Verbose bool `mapstructure:"verbose"`
	Stream  bool `mapstructure:"stream"`
}

// OpenAIConfig configures OpenAI compatible providers.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// SearchConfig configures web search.
type SearchConfig struct {
	SerperAPIKey string `mapstructure:"serper_api_key"`
}

// KnowledgeConfig configures the knowledge store.
type KnowledgeConfig struct {
	// Dir persists the vector store; empty keeps it in memory.
	Dir            string `mapstructure:"dir"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the HTTP bridge.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

var envBindings = map[string]string{
	"provider":                  "AGENTCREW_PROVIDER",
	"model":                     "AGENTCREW_MODEL",
	"openai.api_key":            "OPENAI_API_KEY",
	"openai.base_url":           "OPENAI_BASE_URL",
	"anthropic.api_key":         "ANTHROPIC_API_KEY",
	"workspace":                 "AGENTCREW_WORKSPACE",
	"max_iterations":            "AGENTCREW_MAX_ITERATIONS",
	"idle_turns":                "AGENTCREW_IDLE_TURNS",
	"search.serper_api_key":     "SERPERDEV_API_KEY",
	"knowledge.dir":             "AGENTCREW_KNOWLEDGE_DIR",
	"knowledge.embedding_model": "AGENTCREW_EMBEDDING_MODEL",
	"log.level":                 "AGENTCREW_LOG_LEVEL",
	"log.format":                "AGENTCREW_LOG_FORMAT",
	"server.addr":               "AGENTCREW_ADDR",
	"verbose":                   "AGENTCREW_VERBOSE",
	"stream":                    "AGENTCREW_STREAM",
}

// Load reads .env (when present), the environment and, when path is not
// empty, the config file at path. Environment values win over the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}
	for _, role := range Roles {
		if err := v.BindEnv("models."+role, "AGENTCREW_"+strings.ToUpper(role)+"_MODEL"); err != nil {
			return nil, fmt.Errorf("config: bind %s model: %w", role, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Models == nil {
		cfg.Models = map[string]string{}
	}
	for role, m := range cfg.Models {
		if m == "" {
			delete(cfg.Models, role)
		}
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderOpenAI)
	v.SetDefault("workspace", ".agent_workspace")
	v.SetDefault("max_iterations", 0)
	v.SetDefault("idle_turns", 3)
	v.SetDefault("knowledge.embedding_model", "text-embedding-3-small")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.addr", ":8000")
}

// ModelFor returns the model configured for role, falling back to Model.
func (c *Config) ModelFor(role string) string {
	if m, ok := c.Models[strings.ToLower(role)]; ok && m != "" {
		return m
	}
	return c.Model
}

// BaseURL returns the OpenAI compatible endpoint, defaulting for ollama.
func (c *Config) BaseURL() string {
	if c.OpenAI.BaseURL == "" && c.Provider == ProviderOllama {
		return DefaultOllamaBaseURL
	}
	return c.OpenAI.BaseURL
}

// Validate reports settings that make the crew unusable.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" && c.OpenAI.BaseURL == "" {
			return fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
		}
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("%w: set ANTHROPIC_API_KEY", ErrMissingAPIKey)
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if c.Workspace == "" {
		return errors.New("config: workspace must not be empty")
	}
	if c.MaxIterations < 0 || c.IdleTurns < 0 {
		return errors.New("config: iteration limits must not be negative")
	}
	return nil
}
