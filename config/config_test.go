package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  addr: ":9000"
model:
  provider: openai
  api_key: ${TOOLTURN_TEST_KEY}
  deployment: gpt-4o
orchestration:
  max_turns: 16
  max_parallel: 4
  preamble: "You are a helpful assistant."
sessions:
  backend: sqlite
  data_dir: /tmp/toolturn
logging:
  level: debug
  format: text
capabilities:
  extract:
    enabled: true
  document_search:
    enabled: true
    deployment: gpt-4o-mini
  mcp_servers:
    - name: search
      url: ${TOOLTURN_TEST_MCP}
      transport: sse
`

func TestParse(t *testing.T) {
	t.Setenv("TOOLTURN_TEST_KEY", "sk-secret")
	t.Setenv("TOOLTURN_TEST_MCP", "https://mcp.example.com/sse")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "sk-secret", cfg.Model.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Model.Deployment)
	assert.Equal(t, 16, cfg.Orchestration.MaxTurns)
	assert.Equal(t, "sqlite", cfg.Sessions.Backend)
	assert.True(t, cfg.Capabilities.Extract.Enabled)
	assert.Equal(t, "gpt-4o-mini", cfg.Capabilities.DocSearch.Deployment)
	require.Len(t, cfg.Capabilities.MCP, 1)
	assert.Equal(t, "https://mcp.example.com/sse", cfg.Capabilities.MCP[0].URL)
	assert.Equal(t, "sse", cfg.Capabilities.MCP[0].Transport)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "memory", cfg.Sessions.Backend)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestParse_UnresolvedEnvLeftVerbatim(t *testing.T) {
	cfg, err := Parse([]byte("model:\n  api_key: ${TOOLTURN_DOES_NOT_EXIST}\n"))
	require.NoError(t, err)
	assert.Equal(t, "${TOOLTURN_DOES_NOT_EXIST}", cfg.Model.APIKey)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("model: [not a map"))
	assert.Error(t, err)
}
