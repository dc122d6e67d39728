package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type APICfg struct {
	BaseURL               string `mapstructure:"base_url"`
	TimeoutSeconds        int    `mapstructure:"timeout_seconds"`
	RetryMaxElapsedSecs   int    `mapstructure:"retry_max_elapsed_seconds"`
	BreakerOpenSeconds    int    `mapstructure:"breaker_open_seconds"`
	BreakerMaxFailures    int    `mapstructure:"breaker_max_failures"`
	MaxIdleConns          int    `mapstructure:"max_idle_conns"`
	IdleConnTimeoutSecs   int    `mapstructure:"idle_conn_timeout_seconds"`
}

type RealtimeCfg struct {
	URL                  string `mapstructure:"url"`
	PingIntervalSeconds  int    `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int    `mapstructure:"write_deadline_seconds"`
	MaxMessageSizeBytes  int64  `mapstructure:"max_message_size_bytes"`
}

type ChatCfg struct {
	NoticeSeconds int `mapstructure:"notice_seconds"`
	SendPerMinute int `mapstructure:"send_per_minute"`
	SendBurst     int `mapstructure:"send_burst"`
}

type AuthCfg struct {
	CallbackPort int `mapstructure:"callback_port"`
}

type Config struct {
	Env      string      `mapstructure:"env"`
	StateDir string      `mapstructure:"state_dir"`
	API      APICfg      `mapstructure:"api"`
	Realtime RealtimeCfg `mapstructure:"realtime"`
	Chat     ChatCfg     `mapstructure:"chat"`
	Auth     AuthCfg     `mapstructure:"auth"`

	// Derived
	APITimeout      time.Duration
	RetryMaxElapsed time.Duration
	BreakerOpen     time.Duration
	IdleConnTimeout time.Duration
	PingInterval    time.Duration
	WriteDeadline   time.Duration
	NoticeDuration  time.Duration
}

// Load reads the config file (optional), layered under TIMKEO_* env
// overrides, and fills defaults. A missing file is fine: the client runs
// against the public backend with defaults alone.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TIMKEO")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.API.BaseURL == "" {
		c.API.BaseURL = envOr("TIMKEO_API_URL", "http://localhost:4000")
	}
	if c.Realtime.URL == "" {
		c.Realtime.URL = envOr("TIMKEO_WS_URL", "ws://localhost:4000/ws")
	}
	if c.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.StateDir = filepath.Join(home, ".timkeo")
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = 5
	}
	if c.API.RetryMaxElapsedSecs == 0 {
		c.API.RetryMaxElapsedSecs = 15
	}
	if c.API.BreakerOpenSeconds == 0 {
		c.API.BreakerOpenSeconds = 30
	}
	if c.API.BreakerMaxFailures == 0 {
		c.API.BreakerMaxFailures = 5
	}
	if c.API.MaxIdleConns == 0 {
		c.API.MaxIdleConns = 10
	}
	if c.API.IdleConnTimeoutSecs == 0 {
		c.API.IdleConnTimeoutSecs = 90
	}
	if c.Realtime.PingIntervalSeconds == 0 {
		c.Realtime.PingIntervalSeconds = 25
	}
	if c.Realtime.WriteDeadlineSeconds == 0 {
		c.Realtime.WriteDeadlineSeconds = 10
	}
	if c.Realtime.MaxMessageSizeBytes == 0 {
		c.Realtime.MaxMessageSizeBytes = 65536
	}
	if c.Chat.NoticeSeconds == 0 {
		c.Chat.NoticeSeconds = 3
	}
	if c.Chat.SendPerMinute == 0 {
		c.Chat.SendPerMinute = 60
	}
	if c.Chat.SendBurst == 0 {
		c.Chat.SendBurst = 5
	}
	if c.Auth.CallbackPort == 0 {
		c.Auth.CallbackPort = 8790
	}

	c.APITimeout = time.Duration(c.API.TimeoutSeconds) * time.Second
	c.RetryMaxElapsed = time.Duration(c.API.RetryMaxElapsedSecs) * time.Second
	c.BreakerOpen = time.Duration(c.API.BreakerOpenSeconds) * time.Second
	c.IdleConnTimeout = time.Duration(c.API.IdleConnTimeoutSecs) * time.Second
	c.PingInterval = time.Duration(c.Realtime.PingIntervalSeconds) * time.Second
	c.WriteDeadline = time.Duration(c.Realtime.WriteDeadlineSeconds) * time.Second
	c.NoticeDuration = time.Duration(c.Chat.NoticeSeconds) * time.Second
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
