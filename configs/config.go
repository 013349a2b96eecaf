package configs

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/peerbank/node/pkg/utils"
)

// Config holds the node configuration. ListenAddr doubles as the node's bank
// code: the address is the node identity in every account reference.
type Config struct {
	ListenAddr    string        `mapstructure:"LISTEN_ADDR" validate:"required"`
	ListenPort    int           `mapstructure:"LISTEN_PORT" validate:"min=1,max=65535"`
	AcceptBacklog int           `mapstructure:"ACCEPT_BACKLOG" validate:"min=1"`
	IdleTimeout   time.Duration `mapstructure:"IDLE_TIMEOUT" validate:"required"`

	DbAddr     string `mapstructure:"DB_ADDR" validate:"required"`
	DbName     string `mapstructure:"DB_NAME" validate:"required"`
	DbUser     string `mapstructure:"DB_USER" validate:"required"`
	DbPassword string `mapstructure:"DB_PASSWORD" validate:"required"`

	DbStartupTimeout time.Duration `mapstructure:"DB_STARTUP_TIMEOUT" validate:"required"`

	MetricsAddr      string `mapstructure:"METRICS_ADDR"`
	SessionRateLimit int    `mapstructure:"SESSION_RATE_LIMIT" validate:"min=0"`
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("LISTEN_ADDR", "127.0.0.1")
	viper.SetDefault("LISTEN_PORT", "65525")
	viper.SetDefault("ACCEPT_BACKLOG", "50")
	viper.SetDefault("IDLE_TIMEOUT", "60s")
	viper.SetDefault("DB_STARTUP_TIMEOUT", "30s")
	viper.SetDefault("SESSION_RATE_LIMIT", "0")

	// Optional: Read from config.yaml if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	if err := viper.ReadInConfig(); err == nil {
		logger.Info("loaded configuration file", zap.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}

	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
