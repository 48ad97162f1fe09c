package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"go.uber.org/zap"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	BaseURL    string `yaml:"base_url"`

	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`

	Session struct {
		Secret string        `yaml:"secret"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"session"`

	Token struct {
		Secret string        `yaml:"secret"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"token"`

	// RequireEmailConfirmation marks password sign-ups as provisional until
	// the address is confirmed.
	RequireEmailConfirmation bool `yaml:"require_email_confirmation"`

	Providers []ProviderConfig `yaml:"providers"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	PrometheusEnabled bool     `yaml:"prometheus_enabled"`
	TrustedProxies    []string `yaml:"trusted_proxies"`
}

// ProviderConfig describes one OpenID Connect identity provider used for
// federated sign-in.
type ProviderConfig struct {
	Name         string   `yaml:"name"`
	IssuerURL    string   `yaml:"issuer_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

// Provider returns the provider configured under name.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// Load reads the optional YAML file named by APP_CONFIG_FILE and then applies
// APP_* environment variables on top of it.
func Load() (*Config, error) {
	cfg, err := readFile()
	if err != nil {
		return nil, err
	}

	cfg.ListenAddr = getenvDefault("APP_LISTEN_ADDR", orDefault(cfg.ListenAddr, ":8080"))
	cfg.BaseURL = getenvDefault("APP_BASE_URL", orDefault(cfg.BaseURL, "http://localhost:8080"))
	applyDSN(cfg)

	cfg.Session.Secret = getenvDefault("APP_SESSION_SECRET", cfg.Session.Secret)
	cfg.Session.TTL = getenvDuration("APP_SESSION_TTL", orDefaultDuration(cfg.Session.TTL, 7*24*time.Hour))
	cfg.Token.Secret = getenvDefault("APP_TOKEN_SECRET", orDefault(cfg.Token.Secret, cfg.Session.Secret))
	cfg.Token.TTL = getenvDuration("APP_TOKEN_TTL", orDefaultDuration(cfg.Token.TTL, time.Hour))
	cfg.RequireEmailConfirmation = getenvBool("APP_REQUIRE_EMAIL_CONFIRMATION", cfg.RequireEmailConfirmation)

	if id := os.Getenv("APP_OAUTH_CLIENT_ID"); id != "" {
		p := ProviderConfig{
			Name:         getenvDefault("APP_OAUTH_PROVIDER", "google"),
			IssuerURL:    getenvDefault("APP_OAUTH_ISSUER_URL", "https://accounts.google.com"),
			ClientID:     id,
			ClientSecret: os.Getenv("APP_OAUTH_CLIENT_SECRET"),
		}
		cfg.Providers = append(removeProvider(cfg.Providers, p.Name), p)
	}

	cfg.Log.Level = getenvDefault("APP_LOG_LEVEL", orDefault(cfg.Log.Level, "info"))
	cfg.Log.Format = getenvDefault("APP_LOG_FORMAT", orDefault(cfg.Log.Format, "json"))
	cfg.PrometheusEnabled = getenvBool("APP_PROMETHEUS_ENDPOINT_ENABLED", cfg.PrometheusEnabled)
	if proxies := getenvList("APP_TRUSTED_PROXIES"); proxies != nil {
		cfg.TrustedProxies = proxies
	}

	if cfg.DB.DSN == "" {
		return nil, errMissingDSN
	}
	if cfg.Session.Secret == "" {
		return nil, errors.New("APP_SESSION_SECRET is required")
	}
	if len(cfg.Session.Secret) < 32 {
		return nil, fmt.Errorf("APP_SESSION_SECRET must be at least 32 characters long (got %d)", len(cfg.Session.Secret))
	}
	if len(cfg.Token.Secret) < 32 {
		return nil, fmt.Errorf("APP_TOKEN_SECRET must be at least 32 characters long (got %d)", len(cfg.Token.Secret))
	}
	for _, p := range cfg.Providers {
		if p.Name == "" || p.IssuerURL == "" || p.ClientID == "" || p.ClientSecret == "" {
			return nil, fmt.Errorf("identity provider %q needs name, issuer url, client id and client secret", p.Name)
		}
	}

	if len(cfg.TrustedProxies) == 0 {
		zap.L().Warn("no APP_TRUSTED_PROXIES configured; forwarded client addresses are trusted from any peer")
	}

	return cfg, nil
}

// LoadDSN resolves only the database connection string, for tools that
// never serve HTTP.
func LoadDSN() (string, error) {
	cfg, err := readFile()
	if err != nil {
		return "", err
	}
	applyDSN(cfg)
	if cfg.DB.DSN == "" {
		return "", errMissingDSN
	}
	return cfg.DB.DSN, nil
}

var errMissingDSN = errors.New("APP_DB_DSN is required (or set APP_DB_HOST, APP_DB_NAME, APP_DB_USER, and APP_DB_PASSWORD)")

func readFile() (*Config, error) {
	cfg := &Config{}
	path := os.Getenv("APP_CONFIG_FILE")
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

func applyDSN(cfg *Config) {
	cfg.DB.DSN = getenvDefault("APP_DB_DSN", cfg.DB.DSN)
	if cfg.DB.DSN != "" {
		return
	}

	host := os.Getenv("APP_DB_HOST")
	name := os.Getenv("APP_DB_NAME")
	user := os.Getenv("APP_DB_USER")
	password := os.Getenv("APP_DB_PASSWORD")
	port := getenvDefault("APP_DB_PORT", "5432")
	sslmode := getenvDefault("APP_DB_SSLMODE", "require")

	if host != "" && name != "" && user != "" && password != "" {
		cfg.DB.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
	}
}

func removeProvider(providers []ProviderConfig, name string) []ProviderConfig {
	out := providers[:0:0]
	for _, p := range providers {
		if !strings.EqualFold(p.Name, name) {
			out = append(out, p)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func getenvList(key string) []string {
	if v := os.Getenv(key); v != "" {
		var result []string
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return nil
}
