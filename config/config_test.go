package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\nproposal:\n  list_limit: 50\n  prepared_by: Sales\n"), 0644))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("AUTOSAVE_WORKERS", "8")
	t.Setenv("PROPOSAL_LIST_LIMIT", "not-a-number")

	c := loadConfig()
	assert.Equal(t, "9090", c.Server.Port, "配置文件覆盖默认值")
	assert.Equal(t, 50, c.Proposal.ListLimit, "非法环境变量不覆盖")
	assert.Equal(t, "Sales", c.Proposal.PreparedBy)
	assert.Equal(t, "sk-test", c.LLM.APIKey)
	assert.Equal(t, "mysql", c.Database.Type)
	assert.Equal(t, 8, c.Proposal.AutosaveWorkers)
	assert.Equal(t, "#E85D2B", c.Proposal.AccentColor)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	c := Default()
	c.LLM.Model = "custom"
	require.NoError(t, c.Save(path))

	t.Setenv("CONFIG_PATH", path)
	loaded := loadConfig()
	assert.Equal(t, "custom", loaded.LLM.Model)
}
