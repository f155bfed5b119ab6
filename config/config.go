// Package config loads the YAML server configuration. String values may
// reference environment variables as ${VAR}; unresolved references are left
// verbatim so misconfiguration is visible rather than silently blanked.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Model         ModelConfig         `yaml:"model"`
	Orchestration OrchestrationConfig `yaml:"orchestration"`
	Sessions      SessionsConfig      `yaml:"sessions"`
	Logging       LoggingConfig       `yaml:"logging"`
	Capabilities  CapabilitiesConfig  `yaml:"capabilities"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type ModelConfig struct {
	Provider   string `yaml:"provider"` // "openai" or "anthropic"
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Deployment string `yaml:"deployment"`
}

type OrchestrationConfig struct {
	MaxTurns    int    `yaml:"max_turns"`
	MaxParallel int    `yaml:"max_parallel"`
	Preamble    string `yaml:"preamble"`
}

type SessionsConfig struct {
	Backend string `yaml:"backend"` // "memory" or "sqlite"
	DataDir string `yaml:"data_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

type CapabilitiesConfig struct {
	Extract   ExtractConfig   `yaml:"extract"`
	DocSearch DocSearchConfig `yaml:"document_search"`
	ImageGen  ImageGenConfig  `yaml:"image_generation"`
	MCP       []MCPServer     `yaml:"mcp_servers"`
}

type ExtractConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DocSearchConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Deployment string `yaml:"deployment"`
}

type ImageGenConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

type MCPServer struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	Transport string `yaml:"transport"` // "streamable-http" (default) or "sse"
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)}`)

func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func expandEnvFields(cfg *Config) {
	cfg.Model.BaseURL = expandEnv(cfg.Model.BaseURL)
	cfg.Model.APIKey = expandEnv(cfg.Model.APIKey)
	for i, srv := range cfg.Capabilities.MCP {
		cfg.Capabilities.MCP[i].URL = expandEnv(srv.URL)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Model.Provider == "" {
		cfg.Model.Provider = "openai"
	}
	if cfg.Sessions.Backend == "" {
		cfg.Sessions.Backend = "memory"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document, expands ${VAR} references and applies
// defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	expandEnvFields(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}
