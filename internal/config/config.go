package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/gridcall/internal/api"
	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/logger"
)

// Transport kinds
const (
	TransportHTTP = "http"
	TransportRPC  = "rpc"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config represents the complete configuration for gridcall
type Config struct {
	Endpoint   string            `yaml:"endpoint"`
	Transport  string            `yaml:"transport"`
	RPCAddress string            `yaml:"rpc_address"`
	Timeout    time.Duration     `yaml:"timeout"`
	Auth       AuthConfig        `yaml:"auth"`
	Methods    map[string]string `yaml:"methods"`
	Schemas    map[string]string `yaml:"schemas"`
	Log        LogConfig         `yaml:"log"`
	Output     OutputConfig      `yaml:"output"`

	// directory of the loaded file, used to resolve relative schema paths
	dir string
}

// AuthConfig controls how calls are authenticated
type AuthConfig struct {
	Field    string `yaml:"field"`
	Token    string `yaml:"token"`
	TokenEnv string `yaml:"token_env"`
	// Public lists patterns of methods that are called without a credential.
	Public []MethodPattern `yaml:"public"`
}

// MethodPattern matches remote method names
type MethodPattern struct {
	Pattern string `yaml:"pattern"`
	Comment string `yaml:"comment,omitempty"`

	// compiled regex (not serialized)
	regex *regexp.Regexp
}

// LogConfig controls diagnostic logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	Color string `yaml:"color"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Endpoint:   "http://127.0.0.1:8007/webui",
		Transport:  TransportHTTP,
		RPCAddress: "127.0.0.1:8008",
		Timeout:    30 * time.Second,
		Auth: AuthConfig{
			Field:    api.DefaultAuthField,
			TokenEnv: "GRIDCALL_TOKEN",
			Public:   []MethodPattern{},
		},
		Methods: map[string]string{
			"grid-info":    "get_grid_info",
			"texture-size": "SizeOfHTTPGetTextureImage",
		},
		Schemas: make(map[string]string),
		Log: LogConfig{
			Level:  "info",
			Format: string(logger.FormatText),
		},
		Output: OutputConfig{
			Color: ColorAuto,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to read config file '%s'", path), err)
	}

	// Start with defaults
	cfg := NewConfig()

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to parse config file '%s'", path), err)
	}
	cfg.dir = filepath.Dir(path)

	// Compile regex patterns
	if err := cfg.compilePatterns(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".gridcall.yml", ".gridcall.yaml", "gridcall.yml", "gridcall.yaml"}

	// Start from current directory
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Search up the directory tree
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		// Move up one directory
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// compilePatterns compiles all regex patterns in the config
func (c *Config) compilePatterns() error {
	for i := range c.Auth.Public {
		p := &c.Auth.Public[i]
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			return errors.NewConfigError(fmt.Sprintf("invalid public method pattern '%s'", p.Pattern), err)
		}
		p.regex = regex
	}
	return nil
}

// Matches checks if this pattern matches the given method name
func (mp *MethodPattern) Matches(method string) bool {
	if mp.regex == nil {
		// Try to compile if not already compiled (fallback)
		regex, err := regexp.Compile(mp.Pattern)
		if err != nil {
			return false
		}
		mp.regex = regex
	}
	return mp.regex.MatchString(method)
}

// Validate checks that the configuration can be used to make calls
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportHTTP:
		u, err := url.Parse(c.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.NewConfigError(fmt.Sprintf("endpoint '%s' must be an http(s) URL", c.Endpoint), err)
		}
	case TransportRPC:
		if c.RPCAddress == "" {
			return errors.NewConfigError("rpc_address is required for the rpc transport", nil)
		}
	default:
		return errors.NewConfigError(fmt.Sprintf("unknown transport '%s' (expected http or rpc)", c.Transport), nil)
	}

	if c.Timeout <= 0 {
		return errors.NewConfigError(fmt.Sprintf("timeout must be positive, got %s", c.Timeout), nil)
	}
	if c.Auth.Field == "" {
		return errors.NewConfigError("auth.field must not be empty", nil)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return errors.NewConfigError("invalid log level", err)
	}
	if _, err := logger.ParseFormat(c.Log.Format); err != nil {
		return errors.NewConfigError("invalid log format", err)
	}
	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return errors.NewConfigError(fmt.Sprintf("unknown color mode '%s' (expected auto, always or never)", c.Output.Color), nil)
	}
	return nil
}

// MethodName returns the remote method for a name typed on the command line.
// Aliases are applied first, kebab-case names are converted to PascalCase and
// anything else is taken as the exact remote name.
func (c *Config) MethodName(name string) string {
	// Check custom mappings first
	if mapped, exists := c.Methods[name]; exists {
		return mapped
	}
	if strings.Contains(name, "-") {
		return strcase.ToCamel(name)
	}
	return name
}

// RequiresAuth reports whether calls to method carry the credential.
func (c *Config) RequiresAuth(method string) bool {
	for i := range c.Auth.Public {
		if c.Auth.Public[i].Matches(method) {
			return false
		}
	}
	return true
}

// SchemaPath returns the schema document configured for method, resolved
// against the directory of the config file.
func (c *Config) SchemaPath(method string) (string, bool) {
	p, ok := c.Schemas[method]
	if !ok || p == "" {
		return "", false
	}
	if !filepath.IsAbs(p) && c.dir != "" {
		p = filepath.Join(c.dir, p)
	}
	return p, true
}

// TokenSource returns where credentials come from: the literal token when
// set, otherwise the configured environment variable. It returns nil when
// neither is configured.
func (c *Config) TokenSource() api.TokenSource {
	if c.Auth.Token != "" {
		return api.StaticToken(c.Auth.Token)
	}
	if c.Auth.TokenEnv != "" {
		return api.EnvToken(c.Auth.TokenEnv)
	}
	return nil
}

// Overrides holds values given on the command line
type Overrides struct {
	Endpoint   string
	Transport  string
	RPCAddress string
	Timeout    time.Duration
	Debug      bool
	Color      string
}

// ApplyOverrides merges CLI overrides into the config.
// Non-empty values take precedence over file values.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Endpoint != "" {
		c.Endpoint = o.Endpoint
	}
	if o.Transport != "" {
		c.Transport = o.Transport
	}
	if o.RPCAddress != "" {
		c.RPCAddress = o.RPCAddress
	}
	if o.Timeout > 0 {
		c.Timeout = o.Timeout
	}
	if o.Debug {
		c.Log.Level = "debug"
	}
	if o.Color != "" {
		c.Output.Color = o.Color
	}
}

// LoadConfigWithCLI loads config with CLI argument precedence
func LoadConfigWithCLI(configPath string, o Overrides) (*Config, error) {
	// Start with defaults
	cfg := NewConfig()

	// Load config file if provided
	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	cfg.ApplyOverrides(o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
