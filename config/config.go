package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Remote  RemoteConfig
	Refresh RefreshConfig
}

type ServerConfig struct {
	Port string
}

// RemoteConfig points at the remote metrics service that computes all
// dashboard data. A zero RequestTimeout leaves fetches unbounded; a hung
// fetch then shows as stale data rather than an error.
type RemoteConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// RefreshConfig fixes the poll cadence for the lifetime of the process.
type RefreshConfig struct {
	Interval time.Duration
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("METRICS_BASE_URL", "http://localhost:5000")
	viper.SetDefault("METRICS_REQUEST_TIMEOUT", "0s")
	viper.SetDefault("REFRESH_INTERVAL", "30s")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config
	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Remote.BaseURL = viper.GetString("METRICS_BASE_URL")
	config.Remote.RequestTimeout = viper.GetDuration("METRICS_REQUEST_TIMEOUT")
	config.Refresh.Interval = viper.GetDuration("REFRESH_INTERVAL")

	log.Info().Interface("config", config).Msg("Config loaded")
	return &config, nil
}
