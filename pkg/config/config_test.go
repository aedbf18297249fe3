package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfigDefaults tests default values
func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "BigMart", cfg.Database.Name)
	assert.Equal(t, "item_info", cfg.Tables.Item)
	assert.Equal(t, "outlet_info", cfg.Tables.Outlet)
	assert.Equal(t, "sales_info", cfg.Tables.Sales)
	assert.Equal(t, int64(42), cfg.Training.RandomSeed)
	assert.Equal(t, 0.2, cfg.Training.TestSize)
	assert.False(t, cfg.Training.SkipFailedCandidates)
}

// TestLoadConfigFromEnv tests environment overrides
func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("RANDOM_SEED", "7")
	t.Setenv("TEST_SIZE", "0.25")
	t.Setenv("SKIP_FAILED_CANDIDATES", "true")
	t.Setenv("TRAIN_SCHEDULE", "0 3 * * *")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, int64(7), cfg.Training.RandomSeed)
	assert.Equal(t, 0.25, cfg.Training.TestSize)
	assert.True(t, cfg.Training.SkipFailedCandidates)
	assert.Equal(t, "0 3 * * *", cfg.Training.Schedule)
}

// TestLoadConfigFile tests YAML loading with env taking precedence
func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bigmart.yaml")
	content := `
environment: staging
database:
  driver: postgres
  host: db.internal
  port: 5432
  name: retail
tables:
  item: items
  outlet: outlets
  sales: sales
artifact_path: /var/lib/bigmart/model.json.zst
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("DB_HOST", "override.internal")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "override.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "items", cfg.Tables.Item)
	assert.Equal(t, "/var/lib/bigmart/model.json.zst", cfg.ArtifactPath)
	// untouched sections keep their defaults
	assert.Equal(t, 0.2, cfg.Training.TestSize)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"zero test size", func(c *Config) { c.Training.TestSize = 0 }},
		{"full test size", func(c *Config) { c.Training.TestSize = 1 }},
		{"empty table", func(c *Config) { c.Tables.Sales = "" }},
		{"empty artifact path", func(c *Config) { c.ArtifactPath = "" }},
		{"empty registry path", func(c *Config) { c.RegistryPath = "" }},
		{"bad schedule", func(c *Config) { c.Training.Schedule = "every tuesday" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
