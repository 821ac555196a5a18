package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	assert.NotNil(t, loader)
}

func TestLoader_Load_FileNotFound(t *testing.T) {
	loader := NewLoader()

	cfg, err := loader.Load("/nonexistent/path/manifest.yaml")

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoader_Load_ValidYAML(t *testing.T) {
	loader := NewLoader()

	yamlContent := `
jobs:
  - name: sync
  - name: creator-fees
    dry_run: true
  - name: revenue
options:
  continue_on_error: true
`

	tmpDir := t.TempDir()
	manifestPath := filepath.Join(tmpDir, "test.yaml")
	err := os.WriteFile(manifestPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := loader.Load(manifestPath)

	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Len(t, cfg.Jobs, 3)
	assert.Equal(t, "sync", cfg.Jobs[0].Name)
	assert.False(t, cfg.Jobs[0].DryRun)
	assert.Equal(t, "creator-fees", cfg.Jobs[1].Name)
	assert.True(t, cfg.Jobs[1].DryRun)
	assert.Equal(t, "revenue", cfg.Jobs[2].Name)
	assert.True(t, cfg.Options.ContinueOnError)
}

func TestLoader_Load_ValidJSON(t *testing.T) {
	loader := NewLoader()

	jsonContent := `{
		"jobs": [
			{"name": "sync", "dry_run": true},
			{"name": "recent-orders"}
		],
		"options": {
			"continue_on_error": true
		}
	}`

	tmpDir := t.TempDir()
	manifestPath := filepath.Join(tmpDir, "test.json")
	err := os.WriteFile(manifestPath, []byte(jsonContent), 0644)
	require.NoError(t, err)

	cfg, err := loader.Load(manifestPath)

	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Len(t, cfg.Jobs, 2)
	assert.Equal(t, "sync", cfg.Jobs[0].Name)
	assert.True(t, cfg.Jobs[0].DryRun)
	assert.Equal(t, "recent-orders", cfg.Jobs[1].Name)
	assert.True(t, cfg.Options.ContinueOnError)
}

func TestLoader_Load_InvalidYAML(t *testing.T) {
	loader := NewLoader()

	yamlContent := `
jobs:
  - name: sync
invalid_yaml: [unclosed
`

	tmpDir := t.TempDir()
	manifestPath := filepath.Join(tmpDir, "test.yaml")
	err := os.WriteFile(manifestPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := loader.Load(manifestPath)

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestLoader_Load_InvalidJSON(t *testing.T) {
	loader := NewLoader()

	jsonContent := `{invalid json content}`

	tmpDir := t.TempDir()
	manifestPath := filepath.Join(tmpDir, "test.json")
	err := os.WriteFile(manifestPath, []byte(jsonContent), 0644)
	require.NoError(t, err)

	cfg, err := loader.Load(manifestPath)

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestLoader_Load_UnsupportedExtension(t *testing.T) {
	loader := NewLoader()

	tmpDir := t.TempDir()
	manifestPath := filepath.Join(tmpDir, "test.txt")
	err := os.WriteFile(manifestPath, []byte("content"), 0644)
	require.NoError(t, err)

	cfg, err := loader.Load(manifestPath)

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrUnsupportedExt)
}

func TestLoader_Load_YMLExtension(t *testing.T) {
	loader := NewLoader()

	yamlContent := `
jobs:
  - name: sync
`

	tmpDir := t.TempDir()
	manifestPath := filepath.Join(tmpDir, "test.yml")
	err := os.WriteFile(manifestPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := loader.Load(manifestPath)

	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Len(t, cfg.Jobs, 1)
}

func TestLoader_Load_ReadError(t *testing.T) {
	loader := NewLoader()

	tmpDir := t.TempDir()
	manifestPath := filepath.Join(tmpDir, "test.yaml")
	err := os.Mkdir(manifestPath, 0755)
	require.NoError(t, err)

	cfg, err := loader.Load(manifestPath)

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read manifest file")
}

func TestLoader_Load_NoJobs(t *testing.T) {
	loader := NewLoader()

	yamlContent := `
options:
  continue_on_error: true
`

	tmpDir := t.TempDir()
	manifestPath := filepath.Join(tmpDir, "test.yaml")
	err := os.WriteFile(manifestPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := loader.Load(manifestPath)

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrNoJobs)
}

func TestLoadFromBytes_YAML(t *testing.T) {
	loader := NewLoader()

	yamlContent := `
jobs:
  - name: creator-fees
`

	cfg, err := loader.LoadFromBytes([]byte(yamlContent), ".yaml")

	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Len(t, cfg.Jobs, 1)
	assert.Equal(t, "creator-fees", cfg.Jobs[0].Name)
}

func TestLoadFromBytes_JSON(t *testing.T) {
	loader := NewLoader()

	jsonContent := `{"jobs": [{"name": "sync"}]}`

	cfg, err := loader.LoadFromBytes([]byte(jsonContent), ".json")

	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Len(t, cfg.Jobs, 1)
}

func TestLoadFromBytes_InvalidExt(t *testing.T) {
	loader := NewLoader()

	cfg, err := loader.LoadFromBytes([]byte("content"), ".txt")

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrUnsupportedExt)
}

func TestLoadFromBytes_CaseInsensitiveExt(t *testing.T) {
	loader := NewLoader()

	yamlContent := `jobs: [{"name": "sync"}]`
	jsonContent := `{"jobs": [{"name": "sync"}]}`

	cfg, err := loader.LoadFromBytes([]byte(yamlContent), ".YAML")
	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	cfg, err = loader.LoadFromBytes([]byte(yamlContent), ".Yml")
	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	cfg, err = loader.LoadFromBytes([]byte(jsonContent), ".JSON")
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNoJobs", ErrNoJobs},
		{"ErrEmptyJobName", ErrEmptyJobName},
		{"ErrInvalidFormat", ErrInvalidFormat},
		{"ErrFileNotFound", ErrFileNotFound},
		{"ErrUnsupportedExt", ErrUnsupportedExt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}
