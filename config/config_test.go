package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"medtech_outlook_agent/generator"
)

type ConfigTestSuite struct {
	suite.Suite
	tempDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
}

func (s *ConfigTestSuite) write(name, content string) string {
	path := filepath.Join(s.tempDir, name)
	require.NoError(s.T(), os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (s *ConfigTestSuite) TestDefaultsWithoutFile() {
	cfg, err := LoadConfig("")
	require.NoError(s.T(), err)

	assert.Equal(s.T(), ":8080", cfg.ServerAddr)
	assert.Equal(s.T(), string(generator.DefaultModel), cfg.DefaultModel)
	assert.Equal(s.T(), string(generator.DefaultModel), cfg.KeywordModel)
	assert.Equal(s.T(), 60*time.Second, cfg.RequestTimeout)
	assert.Equal(s.T(), "API_KEY", cfg.Gemini.APIKeyEnv)
	assert.Equal(s.T(), "OPENAI_API_KEY", cfg.OpenAI.APIKeyEnv)
	assert.Equal(s.T(), "info", cfg.Log.Level)
	assert.False(s.T(), cfg.Mock)
}

func (s *ConfigTestSuite) TestMissingFileFallsBackToDefaults() {
	cfg, err := LoadConfig(filepath.Join(s.tempDir, "config.json"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), ":8080", cfg.ServerAddr)
}

func (s *ConfigTestSuite) TestJSONFile() {
	path := s.write("config.json", `{
  "server_addr": ":9090",
  "default_model": "gpt-4o",
  "request_timeout": "15s",
  "document": {"path": "outlook.md", "watch": true},
  "openai": {"api_key": "sk-file", "base_url": "http://localhost:1234/v1"}
}`)

	cfg, err := LoadConfig(path)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), ":9090", cfg.ServerAddr)
	assert.Equal(s.T(), "gpt-4o", cfg.DefaultModel)
	assert.Equal(s.T(), 15*time.Second, cfg.RequestTimeout)
	assert.Equal(s.T(), "outlook.md", cfg.Document.Path)
	assert.True(s.T(), cfg.Document.Watch)
	assert.Equal(s.T(), "sk-file", cfg.OpenAI.APIKey)
	assert.Equal(s.T(), "http://localhost:1234/v1", cfg.OpenAI.BaseURL)
	// untouched keys keep defaults
	assert.Equal(s.T(), "OPENAI_API_KEY", cfg.OpenAI.APIKeyEnv)
}

func (s *ConfigTestSuite) TestYAMLFile() {
	path := s.write("config.yaml", "mock: true\nlog:\n  level: debug\n  pretty: true\n")

	cfg, err := LoadConfig(path)
	require.NoError(s.T(), err)
	assert.True(s.T(), cfg.Mock)
	assert.Equal(s.T(), "debug", cfg.Log.Level)
	assert.True(s.T(), cfg.Log.Pretty)
}

func (s *ConfigTestSuite) TestEnvOverrides() {
	s.T().Setenv("OUTLOOK_SERVER_ADDR", ":7070")
	s.T().Setenv("OUTLOOK_GEMINI_BASE_URL", "http://gemini.local")

	cfg, err := LoadConfig("")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), ":7070", cfg.ServerAddr)
	assert.Equal(s.T(), "http://gemini.local", cfg.Gemini.BaseURL)
}

func (s *ConfigTestSuite) TestMalformedFile() {
	path := s.write("config.json", `{"server_addr": ":9090",`)
	_, err := LoadConfig(path)
	assert.Error(s.T(), err)
}

func (s *ConfigTestSuite) TestUnknownModelRejected() {
	path := s.write("config.json", `{"default_model": "claude-2"}`)
	_, err := LoadConfig(path)
	require.Error(s.T(), err)
	assert.ErrorIs(s.T(), err, generator.ErrUnknownModel)
}

func (s *ConfigTestSuite) TestNonPositiveTimeoutRejected() {
	path := s.write("config.json", `{"request_timeout": "0s"}`)
	_, err := LoadConfig(path)
	assert.Error(s.T(), err)
}

func TestResolveAPIKey(t *testing.T) {
	env := map[string]string{"API_KEY": " env-key ", "EMPTY": ""}
	getenv := func(k string) string { return env[k] }

	tests := []struct {
		name string
		cfg  ProviderConfig
		want string
	}{
		{"explicit key wins", ProviderConfig{APIKey: "file-key", APIKeyEnv: "API_KEY"}, "file-key"},
		{"env fallback trimmed", ProviderConfig{APIKeyEnv: "API_KEY"}, "env-key"},
		{"empty env", ProviderConfig{APIKeyEnv: "EMPTY"}, ""},
		{"no source", ProviderConfig{}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.ResolveAPIKey(getenv))
		})
	}
	assert.Empty(t, ProviderConfig{APIKeyEnv: "API_KEY"}.ResolveAPIKey(nil))
}
