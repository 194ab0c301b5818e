package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default("plans/bridge.mpd")
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "plans/bridge.mpd", cfg.Source.Path)
	assert.Equal(t, 0, cfg.Source.ProjectID)
	assert.True(t, cfg.Import.RecordEvents)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "/v0", cfg.Server.BasePath)
	assert.ElementsMatch(t, []string{"import.run", "import.read"}, cfg.RolePermissions([]string{"owner", "viewer", "ghost"}))
}

func TestFromYAMLValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  string
	}{
		{"negative project", "source:\n  project_id: -1\n", "project_id"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"base path", "server:\n  base_path: v0\n", "base_path"},
		{"no owner", "rbac:\n  roles:\n    viewer:\n      permissions: [import.read]\n", "owner"},
		{"empty permission", "rbac:\n  roles:\n    owner:\n      permissions: [\"\"]\n", "empty permission"},
		{"not yaml", "source: [", "invalid config yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromYAML([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	_, err = Load(dir)
	assert.ErrorContains(t, err, "mpdi config init")

	require.NoError(t, os.WriteFile(Path(dir), []byte("source:\n  path: a.mpd\n  project_id: 3\nlog:\n  level: DEBUG\n"), 0o644))
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Source.ProjectID)
	assert.Equal(t, filepath.Join(dir, "mpdimport.yml"), Path(dir))

	cfg, err = FromFile(Path(dir))
	require.NoError(t, err)
	assert.Equal(t, "a.mpd", cfg.Source.Path)
}
