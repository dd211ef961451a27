// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"legallens/internal/paths"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider names accepted in llm.provider.
const (
	ProviderOpenAI = "openai"
	ProviderNVIDIA = "nvidia"
	ProviderMock   = "mock"
	ProviderNone   = "none"
)

// Default environment variables holding credentials.
const (
	DefaultLLMKeyEnv    = "NVIDIA_API_KEY"
	DefaultTavilyKeyEnv = "TAVILY_API_KEY"
	DefaultGitHubEnv    = "GITHUB_TOKEN"
)

// Config represents the application configuration
type Config struct {
	// Default settings
	Defaults DefaultsConfig `yaml:"defaults"`

	// Model collaborator used for summaries, enhancement and chat
	LLM LLMConfig `yaml:"llm"`

	// Web and GitHub research providers
	Research ResearchConfig `yaml:"research"`

	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`

	// Optional taxonomy override file; empty uses the built-in tables
	TaxonomyFile string `yaml:"taxonomy_file"`

	// Profiles for different analysis scenarios
	Profiles map[string]Profile `yaml:"profiles"`
}

// DefaultsConfig holds output and logging defaults.
type DefaultsConfig struct {
	Format    string `yaml:"format"`
	Verbose   bool   `yaml:"verbose"`
	Debug     bool   `yaml:"debug"`
	NoColor   bool   `yaml:"no_color"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Workers   int    `yaml:"workers"`
}

// BackoffConfig shapes the delay between model retries.
type BackoffConfig struct {
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	Multiplier float64       `yaml:"multiplier"`
}

// LLMConfig configures the OpenAI-compatible chat completion client.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`

	Summary bool `yaml:"summary"`
	Enhance bool `yaml:"enhance"`

	SummaryAttempts int `yaml:"summary_attempts"`
	EnhanceAttempts int `yaml:"enhance_attempts"`
	SummaryExcerpt  int `yaml:"summary_excerpt"`
	EnhanceExcerpt  int `yaml:"enhance_excerpt"`

	Backoff BackoffConfig `yaml:"backoff"`
}

// ResearchConfig configures Tavily and GitHub lookups.
type ResearchConfig struct {
	Enabled bool `yaml:"enabled"`

	TavilyAPIKey    string `yaml:"tavily_api_key"`
	TavilyAPIKeyEnv string `yaml:"tavily_api_key_env"`
	TavilyBaseURL   string `yaml:"tavily_base_url"`

	GitHubToken    string `yaml:"github_token"`
	GitHubTokenEnv string `yaml:"github_token_env"`
	GitHubBaseURL  string `yaml:"github_base_url"`

	MaxResults         int           `yaml:"max_results"`
	MaxTokensPerSource int           `yaml:"max_tokens_per_source"`
	SearchDays         int           `yaml:"search_days"`
	PrecedentDays      int           `yaml:"precedent_days"`
	Timeout            time.Duration `yaml:"timeout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	CORSOrigins    []string      `yaml:"cors_origins"`
}

// StoreConfig configures the analysis history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Profile represents a named set of overrides. Zero values leave the
// base configuration untouched.
type Profile struct {
	Description     string `yaml:"description"`
	Format          string `yaml:"format"`
	Verbose         bool   `yaml:"verbose"`
	Debug           bool   `yaml:"debug"`
	NoColor         bool   `yaml:"no_color"`
	Workers         int    `yaml:"workers"`
	LLMProvider     string `yaml:"llm_provider"`
	DisableResearch bool   `yaml:"disable_research"`
	DisableStore    bool   `yaml:"disable_store"`
}

// Default returns the built-in configuration.
func Default() *Config {
	config := &Config{Profiles: builtinProfiles()}

	config.Defaults.Format = "text"
	config.Defaults.LogLevel = "info"
	config.Defaults.LogFormat = "text"
	config.Defaults.Workers = 4

	config.LLM.Provider = ProviderNVIDIA
	config.LLM.BaseURL = "https://integrate.api.nvidia.com/v1"
	config.LLM.Model = "meta/llama-3.3-70b-instruct"
	config.LLM.APIKeyEnv = DefaultLLMKeyEnv
	config.LLM.Temperature = 0
	config.LLM.Timeout = 60 * time.Second
	config.LLM.Summary = true
	config.LLM.Enhance = true
	config.LLM.SummaryAttempts = 3
	config.LLM.EnhanceAttempts = 1
	config.LLM.SummaryExcerpt = 2000
	config.LLM.EnhanceExcerpt = 1500
	config.LLM.Backoff = BackoffConfig{Initial: 500 * time.Millisecond, Max: 5 * time.Second, Multiplier: 2}

	config.Research.Enabled = true
	config.Research.TavilyAPIKeyEnv = DefaultTavilyKeyEnv
	config.Research.TavilyBaseURL = "https://api.tavily.com"
	config.Research.GitHubTokenEnv = DefaultGitHubEnv
	config.Research.GitHubBaseURL = "https://api.github.com"
	config.Research.MaxResults = 5
	config.Research.MaxTokensPerSource = 1000
	config.Research.SearchDays = 30
	config.Research.PrecedentDays = 365
	config.Research.Timeout = 30 * time.Second

	config.Server.Addr = ":8080"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 120 * time.Second
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.MaxUploadBytes = 10 << 20
	config.Server.CORSOrigins = []string{"*"}

	config.Store.Enabled = true
	return config
}

func builtinProfiles() map[string]Profile {
	return map[string]Profile{
		"offline": {
			Description:     "Rule-based analysis only; no model or research calls",
			LLMProvider:     ProviderNone,
			DisableResearch: true,
		},
		"ci": {
			Description: "Machine-readable output for pipelines",
			Format:      "json",
			NoColor:     true,
		},
	}
}

// LoadConfig loads configuration from the specified file path
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	// If no config file specified, return default config
	if configPath == "" {
		return config, nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := config.merge(data); err != nil {
		return nil, err
	}
	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := config.merge(data); err != nil {
		return nil, err
	}
	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

func (c *Config) merge(data []byte) error {
	builtin := c.Profiles

	// Keys absent from data keep their default values
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	// Built-in profiles survive unless the file redefines them
	if c.Profiles == nil {
		c.Profiles = make(map[string]Profile)
	}
	for name, p := range builtin {
		if _, ok := c.Profiles[name]; !ok {
			c.Profiles[name] = p
		}
	}

	c.Store.Path = paths.NormalizePath(c.Store.Path)
	c.TaxonomyFile = paths.NormalizePath(c.TaxonomyFile)
	return nil
}

// FindConfigFile looks for a configuration file in standard locations
func FindConfigFile() string {
	// Check current directory first (project-specific config)
	for _, name := range []string{"legallens.yaml", "legallens.yml", ".legallens.yaml", ".legallens.yml"} {
		if fileExists(name) {
			return name
		}
	}

	// Check standard location using platform-aware paths
	if standardConfig := paths.GetConfigFile(); fileExists(standardConfig) {
		return standardConfig
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ListProfiles returns the sorted names of available profiles
func (c *Config) ListProfiles() []string {
	profiles := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		profiles = append(profiles, name)
	}
	sort.Strings(profiles)
	return profiles
}

// GetProfile returns a profile by name, or nil if not found
func (c *Config) GetProfile(name string) *Profile {
	if profile, exists := c.Profiles[name]; exists {
		return &profile
	}
	return nil
}

// ApplyProfile overlays the named profile onto the configuration.
func (c *Config) ApplyProfile(name string) error {
	if name == "" {
		return nil
	}
	p := c.GetProfile(name)
	if p == nil {
		return fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(c.ListProfiles(), ", "))
	}

	if p.Format != "" {
		c.Defaults.Format = p.Format
	}
	if p.Workers > 0 {
		c.Defaults.Workers = p.Workers
	}
	if p.LLMProvider != "" {
		c.LLM.Provider = p.LLMProvider
	}
	c.Defaults.Verbose = c.Defaults.Verbose || p.Verbose
	c.Defaults.Debug = c.Defaults.Debug || p.Debug
	c.Defaults.NoColor = c.Defaults.NoColor || p.NoColor
	if p.DisableResearch {
		c.Research.Enabled = false
	}
	if p.DisableStore {
		c.Store.Enabled = false
	}
	return ValidateConfig(c)
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config == nil {
		return errors.New("configuration cannot be nil")
	}

	switch config.LLM.Provider {
	case ProviderOpenAI, ProviderNVIDIA, ProviderMock, ProviderNone:
	default:
		return fmt.Errorf("unknown llm provider %q", config.LLM.Provider)
	}
	if config.LLM.SummaryAttempts < 1 || config.LLM.EnhanceAttempts < 1 {
		return errors.New("llm attempts must be at least 1")
	}
	if config.LLM.SummaryExcerpt < 1 || config.LLM.EnhanceExcerpt < 1 {
		return errors.New("llm excerpt sizes must be positive")
	}
	if config.LLM.Temperature < 0 || config.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature %v out of range [0,2]", config.LLM.Temperature)
	}
	if config.Defaults.Workers < 0 {
		return errors.New("defaults.workers must not be negative")
	}
	if config.Research.MaxResults < 1 {
		return errors.New("research.max_results must be at least 1")
	}

	// Validate paths in configuration
	if err := paths.ValidatePath(config.Store.Path); err != nil {
		return fmt.Errorf("invalid store path: %w", err)
	}
	if err := paths.ValidatePath(config.TaxonomyFile); err != nil {
		return fmt.Errorf("invalid taxonomy file path: %w", err)
	}
	return nil
}

// ResolveAPIKey returns the inline key or the value of APIKeyEnv.
func (l LLMConfig) ResolveAPIKey() string {
	return resolveSecret(l.APIKey, l.APIKeyEnv, DefaultLLMKeyEnv)
}

// TavilyKey returns the Tavily API key, or empty when unset.
func (r ResearchConfig) TavilyKey() string {
	return resolveSecret(r.TavilyAPIKey, r.TavilyAPIKeyEnv, DefaultTavilyKeyEnv)
}

// GitHubAuthToken returns the GitHub token, or empty when unset.
func (r ResearchConfig) GitHubAuthToken() string {
	return resolveSecret(r.GitHubToken, r.GitHubTokenEnv, DefaultGitHubEnv)
}

func resolveSecret(inline, env, fallbackEnv string) string {
	if inline != "" {
		return inline
	}
	if env == "" {
		env = fallbackEnv
	}
	return strings.TrimSpace(os.Getenv(env))
}

// StorePath returns the configured history database path or the default.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return paths.GetHistoryFile()
}

// LoadSecrets loads KEY=VALUE files into the environment without overriding
// variables that are already set. With no arguments it reads the secrets.env
// in the config directory, then ./secrets.env and ./.env. Missing files are
// skipped.
func LoadSecrets(files ...string) error {
	if len(files) == 0 {
		files = []string{paths.GetSecretsFile(), "secrets.env", ".env"}
	}
	for _, f := range files {
		if !fileExists(f) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// LoadConfigOrDefault loads configuration from configFile (or searches standard locations
// when configFile is empty). If loading fails, it returns a default configuration.
// This is the shared helper used by the CLI, the web server and the MCP server.
func LoadConfigOrDefault(configFile string) *Config {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return Default()
	}
	return cfg
}
