package config_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example/captioner/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"COGNITIVE_SERVICES_ENDPOINT",
		"COGNITIVE_SERVICE_KEY",
		"PROVIDER",
		"MODEL",
		"PROJECT",
		"LOCATION",
	} {
		t.Setenv(name, "")
	}
}

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appsettings.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadReadsAzureSettings(t *testing.T) {
	clearEnv(t)
	path := writeSettings(t, `{
		"CognitiveServicesEndpoint": "https://example.cognitiveservices.azure.com/",
		"CognitiveServiceKey": "secret"
	}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.cognitiveservices.azure.com/", cfg.Endpoint)
	assert.Equal(t, "secret", cfg.Key)
	assert.Equal(t, config.ProviderAzure, cfg.Provider)
	assert.Equal(t, config.DefaultSourceDir, cfg.SourceDir)
	assert.Equal(t, config.DefaultDestinationDir, cfg.DestinationDir)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.json"))

	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadMissingKeys(t *testing.T) {
	clearEnv(t)
	path := writeSettings(t, `{"CognitiveServicesEndpoint": "https://example.test/"}`)

	_, err := config.Load(path)

	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"CognitiveServiceKey"}, cfgErr.Missing)
	assert.Contains(t, err.Error(), "CognitiveServiceKey")
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	clearEnv(t)
	path := writeSettings(t, `{"CognitiveServicesEndpoint": `)

	_, err := config.Load(path)

	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoadDoesNotValidateValueFormat(t *testing.T) {
	clearEnv(t)
	path := writeSettings(t, `{"CognitiveServicesEndpoint": "not a url", "CognitiveServiceKey": "?"}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "not a url", cfg.Endpoint)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("COGNITIVE_SERVICE_KEY", "from-env")
	path := writeSettings(t, `{
		"CognitiveServicesEndpoint": "https://example.test/",
		"CognitiveServiceKey": "from-file"
	}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Key)
}

func TestLoadProviderRequirements(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		missing []string
	}{
		{
			name:    "gemini needs project location model",
			body:    `{"Provider": "gemini"}`,
			missing: []string{"Project", "Location", "Model"},
		},
		{
			name:    "openai needs key and model",
			body:    `{"Provider": "OpenAI"}`,
			missing: []string{"CognitiveServiceKey", "Model"},
		},
		{
			name: "gemini ignores azure keys",
			body: `{"Provider": "gemini", "Project": "p", "Location": "us-central1", "Model": "gemini-2.0-flash"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := config.Load(writeSettings(t, tt.body))
			if tt.missing == nil {
				require.NoError(t, err)
				return
			}
			var cfgErr *config.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.missing, cfgErr.Missing)
		})
	}
}

func TestLoadUnknownProvider(t *testing.T) {
	clearEnv(t)
	_, err := config.Load(writeSettings(t, `{"Provider": "tesseract"}`))

	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "tesseract")
}
