// Package config holds the file-driven configuration for the AutoAuth
// retrieval service. Each subsystem section delegates to its own defaults and
// merge rules; Load reads JSON or YAML, overlays it on the defaults, and
// returns the result.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultModel              = "gpt-4o"
	defaultMaxIterations      = 10
	defaultGenerationRetries  = 3
	defaultParseRetries       = 2
	defaultTurnTimeoutSeconds = 120
	defaultTopK               = 5
	defaultSearchMode         = "hybrid"
	defaultListenAddr         = ":8080"
	defaultStorePath          = "autoauth.db"
	defaultWorkerPoolSize     = 4
	defaultWorkerRetries      = 2
)

// Config aggregates all subsystem sections.
type Config struct {
	LLM           LLMConfig           `json:"llm" yaml:"llm"`
	Search        SearchConfig        `json:"search" yaml:"search"`
	Orchestration OrchestrationConfig `json:"orchestration" yaml:"orchestration"`
	Store         StoreConfig         `json:"store" yaml:"store"`
	Worker        WorkerConfig        `json:"worker" yaml:"worker"`
	Server        ServerConfig        `json:"server" yaml:"server"`
	RolesDir      string              `json:"roles_dir,omitempty" yaml:"roles_dir,omitempty"`
	PoliciesDir   string              `json:"policies_dir,omitempty" yaml:"policies_dir,omitempty"`
}

// LLMConfig configures the OpenAI-compatible completion endpoint.
type LLMConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Model   string `json:"model" yaml:"model"`
}

// SearchConfig configures the policy index.
type SearchConfig struct {
	Mode string `json:"mode" yaml:"mode"`
	TopK int    `json:"top_k" yaml:"top_k"`
}

// OrchestrationConfig configures the retrieval loop budgets.
type OrchestrationConfig struct {
	MaxIterations      int `json:"max_iterations" yaml:"max_iterations"`
	GenerationRetries  int `json:"generation_retries" yaml:"generation_retries"`
	ParseRetries       int `json:"parse_retries" yaml:"parse_retries"`
	TurnTimeoutSeconds int `json:"turn_timeout_seconds" yaml:"turn_timeout_seconds"`
}

// TurnTimeout returns the per-turn timeout as a duration.
func (c OrchestrationConfig) TurnTimeout() time.Duration {
	return time.Duration(c.TurnTimeoutSeconds) * time.Second
}

// StoreConfig configures case persistence.
type StoreConfig struct {
	Path string `json:"path" yaml:"path"`
}

// WorkerConfig configures the background retrieval pool.
type WorkerConfig struct {
	PoolSize int `json:"pool_size" yaml:"pool_size"`
	Retries  int `json:"retries" yaml:"retries"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
}

// Default returns a Config with working defaults for every subsystem. Only
// the LLM endpoint has no usable default and must come from file or flags.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Model: defaultModel,
		},
		Search: SearchConfig{
			Mode: defaultSearchMode,
			TopK: defaultTopK,
		},
		Orchestration: OrchestrationConfig{
			MaxIterations:      defaultMaxIterations,
			GenerationRetries:  defaultGenerationRetries,
			ParseRetries:       defaultParseRetries,
			TurnTimeoutSeconds: defaultTurnTimeoutSeconds,
		},
		Store: StoreConfig{
			Path: defaultStorePath,
		},
		Worker: WorkerConfig{
			PoolSize: defaultWorkerPoolSize,
			Retries:  defaultWorkerRetries,
		},
		Server: ServerConfig{
			ListenAddr: defaultListenAddr,
		},
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's merge rules.
func (c *Config) Merge(source *Config) {
	c.LLM.merge(&source.LLM)
	c.Search.merge(&source.Search)
	c.Orchestration.merge(&source.Orchestration)
	c.Store.merge(&source.Store)
	c.Worker.merge(&source.Worker)
	c.Server.merge(&source.Server)

	if source.RolesDir != "" {
		c.RolesDir = source.RolesDir
	}
	if source.PoliciesDir != "" {
		c.PoliciesDir = source.PoliciesDir
	}
}

func (c *LLMConfig) merge(source *LLMConfig) {
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.Model != "" {
		c.Model = source.Model
	}
}

func (c *SearchConfig) merge(source *SearchConfig) {
	if source.Mode != "" {
		c.Mode = source.Mode
	}
	if source.TopK > 0 {
		c.TopK = source.TopK
	}
}

func (c *OrchestrationConfig) merge(source *OrchestrationConfig) {
	if source.MaxIterations > 0 {
		c.MaxIterations = source.MaxIterations
	}
	if source.GenerationRetries > 0 {
		c.GenerationRetries = source.GenerationRetries
	}
	if source.ParseRetries > 0 {
		c.ParseRetries = source.ParseRetries
	}
	if source.TurnTimeoutSeconds > 0 {
		c.TurnTimeoutSeconds = source.TurnTimeoutSeconds
	}
}

func (c *StoreConfig) merge(source *StoreConfig) {
	if source.Path != "" {
		c.Path = source.Path
	}
}

func (c *WorkerConfig) merge(source *WorkerConfig) {
	if source.PoolSize > 0 {
		c.PoolSize = source.PoolSize
	}
	if source.Retries > 0 {
		c.Retries = source.Retries
	}
}

func (c *ServerConfig) merge(source *ServerConfig) {
	if source.ListenAddr != "" {
		c.ListenAddr = source.ListenAddr
	}
}

// Load reads a JSON or YAML config file, merges it with defaults, and returns
// the resulting Config. The format is chosen by file extension; anything that
// is not .yaml or .yml is treated as JSON.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
