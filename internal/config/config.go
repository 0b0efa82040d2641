package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	SettingsFile = "appsettings.json"

	DefaultSourceDir = "images/analysis"
	DefaultProvider  = ProviderAzure
)

// DefaultDestinationDir sits inside the source directory; only *.jpg files
// directly under the source are enumerated, so outputs are never picked up.
var DefaultDestinationDir = filepath.Join(DefaultSourceDir, "OUTPUTS")

const (
	ProviderAzure  = "azure"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Endpoint       string `json:"CognitiveServicesEndpoint"`
	Key            string `json:"CognitiveServiceKey"`
	Provider       string `json:"Provider"`
	Model          string `json:"Model"`
	Project        string `json:"Project"`
	Location       string `json:"Location"`
	SourceDir      string `json:"SourceDir"`
	DestinationDir string `json:"DestinationDir"`
}

// ConfigurationError reports a settings file that is missing, unreadable
// or lacks required keys.
type ConfigurationError struct {
	Path    string
	Missing []string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("configuration %s: missing required keys: %s", e.Path, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("configuration %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

var envOverrides = []struct {
	name  string
	field func(*Config) *string
}{
	{"COGNITIVE_SERVICES_ENDPOINT", func(c *Config) *string { return &c.Endpoint }},
	{"COGNITIVE_SERVICE_KEY", func(c *Config) *string { return &c.Key }},
	{"PROVIDER", func(c *Config) *string { return &c.Provider }},
	{"MODEL", func(c *Config) *string { return &c.Model }},
	{"PROJECT", func(c *Config) *string { return &c.Project }},
	{"LOCATION", func(c *Config) *string { return &c.Location }},
}

// Load reads the JSON settings file at path, applies values from an optional
// .env file and the process environment, and checks the keys the selected
// provider needs.
func Load(path string) (*Config, error) {
	if path == "" {
		path = SettingsFile
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &ConfigurationError{Path: ".env", Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}

	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.field(&cfg) = v
		}
	}

	cfg.normalize()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.SourceDir == "" {
		c.SourceDir = DefaultSourceDir
	}
	if c.DestinationDir == "" {
		c.DestinationDir = DefaultDestinationDir
	}
}

func (c *Config) validate(path string) error {
	var missing []string
	require := func(key, value string) {
		if value == "" {
			missing = append(missing, key)
		}
	}

	switch c.Provider {
	case ProviderAzure:
		require("CognitiveServicesEndpoint", c.Endpoint)
		require("CognitiveServiceKey", c.Key)
	case ProviderOpenAI:
		require("CognitiveServiceKey", c.Key)
		require("Model", c.Model)
	case ProviderGemini:
		require("Project", c.Project)
		require("Location", c.Location)
		require("Model", c.Model)
	default:
		return &ConfigurationError{Path: path, Err: fmt.Errorf("unknown provider %q", c.Provider)}
	}

	if len(missing) > 0 {
		return &ConfigurationError{Path: path, Missing: missing}
	}
	return nil
}
