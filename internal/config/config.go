package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models missionctl.yml.
type Config struct {
	API struct {
		BaseURL  string `yaml:"base_url"`
		TokenEnv string `yaml:"token_env"`
	} `yaml:"api"`
	Actor struct {
		// EmployeeID is the fallback actor identity used when the local
		// state cache has none. Optional; requests simply omit the actor
		// header when neither source resolves.
		EmployeeID string `yaml:"employee_id"`
	} `yaml:"actor"`
	Board struct {
		Default string `yaml:"default"`
	} `yaml:"board"`
	State struct {
		Dir string `yaml:"dir"`
	} `yaml:"state"`
}

// Load reads and validates config from dir.
func Load(dir string) (*Config, error) {
	path := Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; run mcc init first", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(dir string) (*Config, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("config.api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config.api.base_url must be an absolute URL")
	}
	return nil
}

// Path returns the config file path for a directory.
func Path(dir string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "missionctl.yml")
}

// StateDir resolves the local state directory, defaulting beside the config.
func (c *Config) StateDir(dir string) string {
	if c.State.Dir != "" {
		return c.State.Dir
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, ".missionctl")
}

// Token reads the capability token from the configured environment variable.
// Empty when unset; the gateway sends an empty bearer in that case and the
// server decides whether to reject.
func (c *Config) Token() string {
	env := c.API.TokenEnv
	if env == "" {
		env = "MISSIONCTL_TOKEN"
	}
	return os.Getenv(env)
}

// Default returns a config seeded for a local server.
func Default(baseURL string) *Config {
	var cfg Config
	cfg.API.BaseURL = baseURL
	cfg.API.TokenEnv = "MISSIONCTL_TOKEN"
	return &cfg
}

// GenerateDefault returns default config YAML for mcc init.
func GenerateDefault(baseURL string) string {
	return fmt.Sprintf(defaultTemplate, baseURL)
}

const defaultTemplate = `api:
  base_url: %s
  token_env: MISSIONCTL_TOKEN

actor:
  # Fallback actor identity when no cached one exists.
  employee_id: ""

board:
  default: ""

state:
  dir: ""
`
