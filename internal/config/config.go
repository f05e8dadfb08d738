package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix             = "QUICKNOTE"
	defaultHTTPAddress    = "0.0.0.0:8080"
	defaultStoreDriver    = StoreDriverSQLite
	defaultDatabasePath   = "quicknote.db"
	defaultMongoURI       = "mongodb://localhost:27017"
	defaultMongoDatabase  = "quicknote"
	defaultCollection     = "notes"
	defaultLogLevel       = "info"
	defaultCookieName     = "quicknote_session"
	defaultIssuer         = "quicknote-auth"
	defaultAudience       = "quicknote-api"
	defaultTokenTTL       = 720
	defaultGoogleJWKSURL  = "https://www.googleapis.com/oauth2/v3/certs"
	defaultAllowedOrigins = "http://localhost:8080"
)

const (
	// StoreDriverSQLite selects the GORM-backed SQLite note store.
	StoreDriverSQLite = "sqlite"
	// StoreDriverMongo selects the MongoDB document store.
	StoreDriverMongo = "mongo"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress        string
	StoreDriver        string
	DatabasePath       string
	MongoURI           string
	MongoDatabase      string
	NotesCollection    string
	NotesDefaultOrder  string
	SigningSecret      string
	SessionCookieName  string
	SessionIssuer      string
	SessionAudience    string
	TokenTTL           time.Duration
	GoogleClientID     string
	GoogleJWKSURL      string
	CORSAllowedOrigins []string
	MCPEnabled         bool
	LogLevel           string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("store.driver", defaultStoreDriver)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("mongo.uri", defaultMongoURI)
	configViper.SetDefault("mongo.database", defaultMongoDatabase)
	configViper.SetDefault("notes.collection", defaultCollection)
	configViper.SetDefault("notes.default_order", "")
	configViper.SetDefault("auth.cookie_name", defaultCookieName)
	configViper.SetDefault("auth.issuer", defaultIssuer)
	configViper.SetDefault("auth.audience", defaultAudience)
	configViper.SetDefault("auth.token_ttl_minutes", defaultTokenTTL)
	configViper.SetDefault("google.jwks_url", defaultGoogleJWKSURL)
	configViper.SetDefault("cors.allowed_origins", defaultAllowedOrigins)
	configViper.SetDefault("mcp.enabled", true)
	configViper.SetDefault("log.level", defaultLogLevel)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:        configViper.GetString("http.address"),
		StoreDriver:        strings.ToLower(strings.TrimSpace(configViper.GetString("store.driver"))),
		DatabasePath:       configViper.GetString("database.path"),
		MongoURI:           configViper.GetString("mongo.uri"),
		MongoDatabase:      configViper.GetString("mongo.database"),
		NotesCollection:    configViper.GetString("notes.collection"),
		NotesDefaultOrder:  configViper.GetString("notes.default_order"),
		SigningSecret:      configViper.GetString("auth.signing_secret"),
		SessionCookieName:  configViper.GetString("auth.cookie_name"),
		SessionIssuer:      configViper.GetString("auth.issuer"),
		SessionAudience:    configViper.GetString("auth.audience"),
		TokenTTL:           time.Duration(configViper.GetInt("auth.token_ttl_minutes")) * time.Minute,
		GoogleClientID:     strings.TrimSpace(configViper.GetString("google.client_id")),
		GoogleJWKSURL:      configViper.GetString("google.jwks_url"),
		CORSAllowedOrigins: splitList(configViper.GetStringSlice("cors.allowed_origins")),
		MCPEnabled:         configViper.GetBool("mcp.enabled"),
		LogLevel:           configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("auth.cookie_name is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl_minutes must be positive")
	}
	if strings.TrimSpace(c.NotesCollection) == "" {
		return fmt.Errorf("notes.collection is required")
	}
	switch c.StoreDriver {
	case StoreDriverSQLite:
		if strings.TrimSpace(c.DatabasePath) == "" {
			return fmt.Errorf("database.path is required")
		}
	case StoreDriverMongo:
		if strings.TrimSpace(c.MongoURI) == "" {
			return fmt.Errorf("mongo.uri is required")
		}
		if strings.TrimSpace(c.MongoDatabase) == "" {
			return fmt.Errorf("mongo.database is required")
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", StoreDriverSQLite, StoreDriverMongo, c.StoreDriver)
	}
	return nil
}

// splitList accepts both real lists and a single comma separated env value.
func splitList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}
	return result
}
