package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Realtime RealtimeConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port" envconfig:"SERVER_PORT"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds" envconfig:"SERVER_TIMEOUT_SECONDS"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" envconfig:"DB_HOST"`
	Port     int    `mapstructure:"port" envconfig:"DB_PORT"`
	User     string `mapstructure:"user" envconfig:"DB_USER"`
	Password string `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name     string `mapstructure:"name" envconfig:"DB_NAME"`
	SSLMode  string `mapstructure:"sslmode" envconfig:"DB_SSLMODE"`
}

type RedisConfig struct {
	URL     string `mapstructure:"url" envconfig:"REDIS_URL"`
	Enabled bool   `mapstructure:"enabled" envconfig:"REDIS_ENABLED"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" envconfig:"JWT_SECRET"`
	ExpiryHours int    `mapstructure:"expiry_hours" envconfig:"JWT_EXPIRY_HOURS"`
}

type RealtimeConfig struct {
	AllowedOrigin   string `mapstructure:"allowed_origin" envconfig:"REALTIME_ALLOWED_ORIGIN"`
	ReadBufferSize  int    `mapstructure:"read_buffer_size" envconfig:"REALTIME_READ_BUFFER_SIZE"`
	WriteBufferSize int    `mapstructure:"write_buffer_size" envconfig:"REALTIME_WRITE_BUFFER_SIZE"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" envconfig:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" envconfig:"LOG_PRETTY"`
}

// LoadConfig reads config.yaml and then lets NOTIFY_* environment
// variables override individual fields.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeoutSeconds", 30)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("log.level", "info")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("NOTIFY", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment overrides: %w", err)
	}

	if config.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	return &config, nil
}
