package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/mimir-aip/bigmart-predictor/pkg/logging"
)

// DatabaseConfig describes the relational store holding the training tables
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql, postgres, sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	DSN      string `yaml:"dsn,omitempty"` // overrides the fields above when set
}

// TableConfig names the three source tables
type TableConfig struct {
	Item   string `yaml:"item"`
	Outlet string `yaml:"outlet"`
	Sales  string `yaml:"sales"`
}

// TrainingConfig holds the knobs of the offline training job
type TrainingConfig struct {
	RandomSeed           int64   `yaml:"random_seed"`
	TestSize             float64 `yaml:"test_size"`
	SkipFailedCandidates bool    `yaml:"skip_failed_candidates"`
	Schedule             string  `yaml:"schedule,omitempty"` // cron spec for scheduled retraining
}

// Config holds the application configuration
type Config struct {
	Environment  string                `yaml:"environment"`
	Logging      logging.LoggingConfig `yaml:"logging"`
	Database     DatabaseConfig        `yaml:"database"`
	Tables       TableConfig           `yaml:"tables"`
	Training     TrainingConfig        `yaml:"training"`
	ArtifactPath string                `yaml:"artifact_path"`
	RegistryPath string                `yaml:"registry_path"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Environment: "development",
		Logging: logging.LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Database: DatabaseConfig{
			Driver: "mysql",
			Host:   "localhost",
			Port:   3306,
			User:   "root",
			Name:   "BigMart",
		},
		Tables: TableConfig{
			Item:   "item_info",
			Outlet: "outlet_info",
			Sales:  "sales_info",
		},
		Training: TrainingConfig{
			RandomSeed: 42,
			TestSize:   0.2,
		},
		ArtifactPath: "bigmart_best_model.json.zst",
		RegistryPath: "bigmart.db",
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// and environment variables, in that order of precedence (last wins)
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.Environment = getEnv("ENVIRONMENT", config.Environment)
	config.Logging.Level = getEnv("LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = getEnv("LOG_FORMAT", config.Logging.Format)
	config.Database.Driver = getEnv("DB_DRIVER", config.Database.Driver)
	config.Database.Host = getEnv("DB_HOST", config.Database.Host)
	config.Database.Port = getEnvAsInt("DB_PORT", config.Database.Port)
	config.Database.User = getEnv("DB_USER", config.Database.User)
	config.Database.Password = getEnv("DB_PASSWORD", config.Database.Password)
	config.Database.Name = getEnv("DB_NAME", config.Database.Name)
	config.Database.DSN = getEnv("DB_DSN", config.Database.DSN)
	config.ArtifactPath = getEnv("ARTIFACT_PATH", config.ArtifactPath)
	config.RegistryPath = getEnv("REGISTRY_PATH", config.RegistryPath)
	config.Training.RandomSeed = int64(getEnvAsInt("RANDOM_SEED", int(config.Training.RandomSeed)))
	config.Training.TestSize = getEnvAsFloat("TEST_SIZE", config.Training.TestSize)
	config.Training.SkipFailedCandidates = getEnvAsBool("SKIP_FAILED_CANDIDATES", config.Training.SkipFailedCandidates)
	config.Training.Schedule = getEnv("TRAIN_SCHEDULE", config.Training.Schedule)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration for values the training and inference
// paths cannot work with
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Tables.Item == "" || c.Tables.Outlet == "" || c.Tables.Sales == "" {
		return fmt.Errorf("item, outlet and sales table names are required")
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("test_size must be in (0, 1), got %v", c.Training.TestSize)
	}
	if c.ArtifactPath == "" {
		return fmt.Errorf("artifact_path is required")
	}
	if c.RegistryPath == "" {
		return fmt.Errorf("registry_path is required")
	}
	if c.Training.Schedule != "" {
		if _, err := cron.ParseStandard(c.Training.Schedule); err != nil {
			return fmt.Errorf("invalid training schedule %q: %w", c.Training.Schedule, err)
		}
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
