package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAPIBaseURL        = "http://localhost:8080"
	defaultAPITimeoutSeconds = 15
	defaultClientLogFile     = "quicknote-tui.log"
)

// ClientConfig captures runtime configuration for the terminal client.
type ClientConfig struct {
	APIBaseURL string
	APIToken   string
	APITimeout time.Duration
	OrderBy    string
	LogFile    string
	LogLevel   string
}

// NewClientViper returns a viper instance with client defaults and env bindings configured.
func NewClientViper() *viper.Viper {
	configViper := viper.New()
	ApplyClientDefaults(configViper)
	return configViper
}

// ApplyClientDefaults configures client defaults and env bindings on the provided viper instance.
func ApplyClientDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("api.base_url", defaultAPIBaseURL)
	configViper.SetDefault("api.timeout_seconds", defaultAPITimeoutSeconds)
	configViper.SetDefault("notes.order_by", "")
	configViper.SetDefault("log.file", defaultClientLogFile)
	configViper.SetDefault("log.level", defaultLogLevel)
}

// LoadClient parses terminal client configuration from viper.
func LoadClient(configViper *viper.Viper) (ClientConfig, error) {
	cfg := ClientConfig{
		APIBaseURL: strings.TrimRight(strings.TrimSpace(configViper.GetString("api.base_url")), "/"),
		APIToken:   strings.TrimSpace(configViper.GetString("api.token")),
		APITimeout: time.Duration(configViper.GetInt("api.timeout_seconds")) * time.Second,
		OrderBy:    strings.TrimSpace(configViper.GetString("notes.order_by")),
		LogFile:    configViper.GetString("log.file"),
		LogLevel:   configViper.GetString("log.level"),
	}
	if err := cfg.validate(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func (c ClientConfig) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	parsed, err := url.Parse(c.APIBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.APIBaseURL)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("api.timeout_seconds must be positive")
	}
	return nil
}
