package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the sync daemon.
type Config struct {
	AppName       string
	AppEnv        string
	AppPort       string
	APIBaseURL    string
	APIToken      string
	RedisURL      string
	NATSURL       string
	SyncSubject   string
	ProbeInterval time.Duration
	HTTPTimeout   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Mobile Core")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8090")
	v.SetDefault("sync.subject", "gema.mobile.sync")
	v.SetDefault("probe.interval", "15s")
	v.SetDefault("http.timeout", "30s")

	probeInterval, err := time.ParseDuration(v.GetString("probe.interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid probe interval: %w", err)
	}

	httpTimeout, err := time.ParseDuration(v.GetString("http.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid http timeout: %w", err)
	}

	cfg := Config{
		AppName:       v.GetString("app.name"),
		AppEnv:        v.GetString("app.env"),
		AppPort:       v.GetString("app.port"),
		APIBaseURL:    strings.TrimRight(v.GetString("api.base_url"), "/"),
		APIToken:      v.GetString("api.token"),
		RedisURL:      v.GetString("redis.url"),
		NATSURL:       v.GetString("nats.url"),
		SyncSubject:   v.GetString("sync.subject"),
		ProbeInterval: probeInterval,
		HTTPTimeout:   httpTimeout,
	}

	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("api base url must be provided")
	}

	return cfg, nil
}
