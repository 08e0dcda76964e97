package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Trainer     TrainerConfig   `mapstructure:"trainer"`
	Training    TrainingConfig  `mapstructure:"training"`
	Forecast    ForecastConfig  `mapstructure:"forecast"`
	Artifacts   ArtifactsConfig `mapstructure:"artifacts"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TrainerConfig points at the external model-fitting service.
type TrainerConfig struct {
	ServiceURL string `mapstructure:"service_url"`
	Timeout    int    `mapstructure:"timeout"`
}

// TrainingConfig controls the training pipeline.
type TrainingConfig struct {
	MinTrainingRows    int     `mapstructure:"min_training_rows"`
	ValidationFraction float64 `mapstructure:"validation_fraction"`
}

// ForecastConfig controls the forecast engine.
type ForecastConfig struct {
	MaxHorizonDays  int `mapstructure:"max_horizon_days"`
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

// ArtifactsConfig controls where trained model artifacts are written.
type ArtifactsConfig struct {
	Dir string `mapstructure:"dir"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.Training.ValidationFraction <= 0 || c.Training.ValidationFraction >= 1 {
		return fmt.Errorf("training.validation_fraction must be in (0, 1), got %v", c.Training.ValidationFraction)
	}
	if c.Training.MinTrainingRows < 1 {
		return fmt.Errorf("training.min_training_rows must be positive, got %d", c.Training.MinTrainingRows)
	}
	if c.Forecast.MaxHorizonDays < 1 {
		return fmt.Errorf("forecast.max_horizon_days must be positive, got %d", c.Forecast.MaxHorizonDays)
	}
	return nil
}

func setDefaults() {
	// General defaults
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "fuelcast")
	viper.SetDefault("database.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Trainer service defaults
	viper.SetDefault("trainer.service_url", "http://localhost:5001")
	viper.SetDefault("trainer.timeout", 300)

	// Training defaults
	viper.SetDefault("training.min_training_rows", 60)
	viper.SetDefault("training.validation_fraction", 0.2)

	// Forecast defaults
	viper.SetDefault("forecast.max_horizon_days", 365)
	viper.SetDefault("forecast.cache_ttl_seconds", 60)

	// Artifact defaults
	viper.SetDefault("artifacts.dir", "./artifacts")
}
