package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spiffcs/gitextract/internal/constants"
	"github.com/spiffcs/gitextract/internal/log"
	"github.com/spiffcs/gitextract/internal/token"
)

const (
	// GitHubDomain is the table key GITHUB_TOKEN is stored under.
	GitHubDomain = "github.com"

	formatTable = "table"
	formatJSON  = "json"
)

// Config represents the application configuration
type Config struct {
	// OpenAI is an auxiliary credential kept for downstream tooling. It is
	// never sent to a Git host.
	OpenAI        string        `yaml:"openai,omitempty"`
	GitDomains    token.Table   `yaml:"git_domains,omitempty"`
	CacheDir      string        `yaml:"cache_dir,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	DefaultFormat string        `yaml:"default_format,omitempty"`
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".gitextract"
	}
	return filepath.Join(configDir, "gitextract")
}

// ConfigPath returns the path to the global config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the token file in the current directory
func LocalConfigPath() string {
	return "tokens.yaml"
}

// Load loads the global config and merges the local tokens.yaml on top.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadFrom loads the config from explicit paths. Missing files are skipped;
// unreadable or malformed files are errors.
func LoadFrom(globalPath, localPath string) (*Config, error) {
	cfg := &Config{}

	global, err := readFile(globalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load global config file: %w", err)
	}
	if global != nil {
		cfg = global
		log.Debug("loaded config", "path", globalPath, "domains", global.GitDomains.Domains())
	}

	local, err := readFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load local config file: %w", err)
	}
	if local != nil {
		cfg = mergeConfig(cfg, local)
		log.Debug("loaded config", "path", localPath, "domains", local.GitDomains.Domains())
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local scalars win when set; git_domains entries override or append.
func mergeConfig(global, local *Config) *Config {
	result := *global

	if local.OpenAI != "" {
		result.OpenAI = local.OpenAI
	}
	if local.CacheDir != "" {
		result.CacheDir = local.CacheDir
	}
	if local.Timeout != 0 {
		result.Timeout = local.Timeout
	}
	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	}
	result.GitDomains = global.GitDomains.Merge(local.GitDomains)

	return &result
}

func (c *Config) applyDefaults() {
	if c.CacheDir == "" {
		c.CacheDir = constants.DefaultCacheDir
	}
	if c.Timeout == 0 {
		c.Timeout = constants.DefaultRequestTimeout
	}
	if c.DefaultFormat == "" {
		c.DefaultFormat = formatTable
	}
}

// Validate reports settings that can never work.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	switch c.DefaultFormat {
	case "", formatTable, formatJSON:
	default:
		return fmt.Errorf("default_format must be %q or %q, got %q", formatTable, formatJSON, c.DefaultFormat)
	}
	return nil
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// Tokens returns the token table used for lookups. GITHUB_TOKEN fills
// github.com when the table has no exact entry for it.
func (c *Config) Tokens() token.Table {
	out := token.Table{}.Merge(c.GitDomains)

	env := c.GetGitHubToken()
	if env == "" {
		return out
	}
	for _, e := range out {
		if e.Domain == GitHubDomain {
			return out
		}
	}
	return append(out, token.Entry{Domain: GitHubDomain, Token: env})
}

// Masked returns a copy safe to print: every credential is masked.
func (c *Config) Masked() *Config {
	m := *c
	m.OpenAI = log.Mask(c.OpenAI)
	m.GitDomains = make(token.Table, len(c.GitDomains))
	for i, e := range c.GitDomains {
		m.GitDomains[i] = token.Entry{Domain: e.Domain, Token: log.Mask(e.Token)}
	}
	return &m
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# gitextract configuration file
# A tokens.yaml in the working directory is merged on top of this file.

# Credential for downstream LLM tooling (optional, never sent to Git hosts)
# openai: sk-...

# Tokens per Git host. Exact domain matches win; otherwise the first key
# contained in the domain is used, in file order.
git_domains:
  # github.com: ghp_...
  # gitlab.com: glpat-...
  # bitbucket.org: user:app-password
  # codeberg.org: ...
  # sr.ht: ...

# cache_dir: git_data_cache
# timeout: 30s

# Output format: table or json
default_format: table
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
