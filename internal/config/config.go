// Package config handles loading and validating the config.toml configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration.
type Config struct {
	LLM    LLMConfig    `toml:"llm"`
	Stages StagesConfig `toml:"stages"`
	Output OutputConfig `toml:"output"`
}

// LLMConfig configures the generation provider shared by both pipeline stages.
type LLMConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	Endpoint string `toml:"endpoint"`
	Timeout  int    `toml:"timeout"` // HTTP timeout in seconds (0 = provider default)
	Retries  int    `toml:"retries"` // extra attempts after a failed generation call
}

// StagesConfig holds the per-stage sampling profiles.
type StagesConfig struct {
	Extraction StageConfig `toml:"extraction"`
	Reasoning  StageConfig `toml:"reasoning"`
}

// StageConfig is one stage's sampling profile. An empty Model falls back to llm.model.
type StageConfig struct {
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// OutputConfig configures output behavior.
type OutputConfig struct {
	Dir     string `toml:"dir"`
	Package bool   `toml:"package"`
}

// defaultModels is used when llm.model is unset. Ollama has no default
// because the available models depend on the local install.
var defaultModels = map[string]string{
	"anthropic": "claude-sonnet-4-5",
	"openai":    "gpt-4o",
	"groq":      "llama-3.1-70b-versatile",
	"gemini":    "gemini-2.5-flash",
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{Provider: "groq"},
		Stages: StagesConfig{
			Extraction: StageConfig{Temperature: 0.1, MaxTokens: 6000},
			Reasoning:  StageConfig{Temperature: 0.3, MaxTokens: 8000},
		},
		Output: OutputConfig{Dir: "outputs"},
	}
}

// Load reads a config.toml file and returns a validated Config.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s\n  Create one with: cp config.example.toml config.toml", path)
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return finish(cfg)
}

// LoadOrDefault behaves like Load, except that a missing file yields the
// defaults with environment overrides applied.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return finish(Default())
	}
	return Load(path)
}

func finish(cfg *Config) (*Config, error) {
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// providerKeyEnv names the conventional API key variable of each provider.
var providerKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"groq":      "GROQ_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// applyEnv overlays environment variables. MAPPER_* always win; a provider's
// conventional key variable only fills an empty api_key.
func (c *Config) applyEnv() {
	if provider := os.Getenv("MAPPER_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}
	if model := os.Getenv("MAPPER_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if key := os.Getenv("MAPPER_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if c.LLM.APIKey == "" {
		if name, ok := providerKeyEnv[strings.ToLower(c.LLM.Provider)]; ok {
			c.LLM.APIKey = os.Getenv(name)
		}
	}
}

func (c *Config) validate() error {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))

	switch c.LLM.Provider {
	case "anthropic", "openai", "groq", "ollama", "gemini":
		// valid
	case "":
		return fmt.Errorf("llm.provider is required (anthropic, openai, groq, ollama, gemini)")
	default:
		return fmt.Errorf("unsupported llm.provider: %q", c.LLM.Provider)
	}

	// API key required for cloud providers
	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		env := "MAPPER_API_KEY"
		if name, ok := providerKeyEnv[c.LLM.Provider]; ok {
			env += " or " + name
		}
		return fmt.Errorf("llm.api_key is required for provider %q (set it in the config or via %s)", c.LLM.Provider, env)
	}

	if c.LLM.Model == "" {
		c.LLM.Model = defaultModels[c.LLM.Provider]
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required for provider %q", c.LLM.Provider)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout must not be negative")
	}
	if c.LLM.Retries < 0 {
		return fmt.Errorf("llm.retries must not be negative")
	}

	for name, s := range map[string]StageConfig{"extraction": c.Stages.Extraction, "reasoning": c.Stages.Reasoning} {
		if s.Temperature < 0 || s.Temperature > 2 {
			return fmt.Errorf("stages.%s.temperature must be between 0 and 2, got %v", name, s.Temperature)
		}
		if s.MaxTokens < 0 {
			return fmt.Errorf("stages.%s.max_tokens must not be negative", name)
		}
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "outputs"
	}

	return nil
}

// StageModel returns the model a stage should use.
func (c *Config) StageModel(s StageConfig) string {
	if s.Model != "" {
		return s.Model
	}
	return c.LLM.Model
}
