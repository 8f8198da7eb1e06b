package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/brandkit/internal/validation"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
		// Path del panel del cliente al que vuelve el callback de OAuth.
		AccountsPath string `yaml:"accounts_path"`
	} `yaml:"app"`

	Server struct {
		Addr         string        `yaml:"addr"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		IdleTimeout  time.Duration `yaml:"idle_timeout"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Migrate  bool   `yaml:"migrate"`
		Postgres struct {
			MaxOpenConns    int           `yaml:"max_open_conns"`
			MinConns        int           `yaml:"min_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL time.Duration `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	// Auth valida los JWT que emite el proveedor de identidad externo.
	Auth struct {
		JWTSecret   string `yaml:"jwt_secret"`
		Issuer      string `yaml:"issuer"`
		Audience    string `yaml:"audience"`
		CookieName  string `yaml:"cookie_name"`
		TenantClaim string `yaml:"tenant_claim"`
		Membership  struct {
			CacheSize int           `yaml:"cache_size"`
			CacheTTL  time.Duration `yaml:"cache_ttl"`
		} `yaml:"membership"`
	} `yaml:"auth"`

	Meta struct {
		AppID       string        `yaml:"app_id"`
		AppSecret   string        `yaml:"app_secret"`
		RedirectURI string        `yaml:"redirect_uri"`
		Scopes      string        `yaml:"scopes"`
		GraphURL    string        `yaml:"graph_url"`
		DialogURL   string        `yaml:"dialog_url"`
		Timeout     time.Duration `yaml:"timeout"`
		RPS         float64       `yaml:"rps"`
		Burst       int           `yaml:"burst"`
	} `yaml:"meta"`

	OAuth struct {
		StateCookieName string        `yaml:"state_cookie_name"`
		StateCookiePath string        `yaml:"state_cookie_path"`
		StateTTL        time.Duration `yaml:"state_ttl"`
		SecureCookie    bool          `yaml:"secure_cookie"`
	} `yaml:"oauth"`

	Secrets struct {
		// Passphrase de la que se deriva la clave AES de los tokens.
		TokenEncryptionKey string `yaml:"token_encryption_key"`
	} `yaml:"secrets"`

	Cron struct {
		Secret string `yaml:"secret"`
		// Interval > 0 habilita el scheduler in-process.
		Interval time.Duration `yaml:"interval"`
		Workers  int           `yaml:"workers"`
	} `yaml:"cron"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`
	} `yaml:"rate"`

	SMTP struct {
		Host     string   `yaml:"host"`
		Port     int      `yaml:"port"`
		Username string   `yaml:"username"`
		Password string   `yaml:"password"`
		From     string   `yaml:"from"`
		ReportTo []string `yaml:"report_to"`
	} `yaml:"smtp"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

const DefaultScopes = "instagram_business_basic,pages_show_list,pages_read_engagement,business_management"

// ErrMissing se retorna cuando falta configuración requerida por un flujo.
var ErrMissing = errors.New("config: missing required values")

// Load lee el YAML en path, aplica defaults y overrides de entorno.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c, nil
}

// Resolve elige la fuente: path explícito, $CONFIG_PATH o configs/config.yaml
// si existe; si no hay archivo usa solo el entorno.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		if _, err := os.Stat("configs/config.yaml"); err == nil {
			path = "configs/config.yaml"
		}
	}
	if path == "" {
		return LoadFromEnv(), nil
	}
	return Load(path)
}

// LoadFromEnv arma la config solo con defaults + variables de entorno.
func LoadFromEnv() *Config {
	var c Config
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.AccountsPath == "" {
		c.App.AccountsPath = "/client/accounts"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// el harvest tenant-wide puede tardar
		c.Server.WriteTimeout = 120 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Storage.Postgres.MaxOpenConns == 0 {
		c.Storage.Postgres.MaxOpenConns = 10
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "brandkit:"
	}
	if c.Cache.Memory.DefaultTTL == 0 {
		c.Cache.Memory.DefaultTTL = 2 * time.Minute
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "bk_session"
	}
	if c.Auth.TenantClaim == "" {
		c.Auth.TenantClaim = "client_id"
	}
	if c.Auth.Membership.CacheSize == 0 {
		c.Auth.Membership.CacheSize = 1024
	}
	if c.Auth.Membership.CacheTTL == 0 {
		c.Auth.Membership.CacheTTL = 5 * time.Minute
	}
	if c.Meta.Scopes == "" {
		c.Meta.Scopes = DefaultScopes
	}
	if c.Meta.GraphURL == "" {
		c.Meta.GraphURL = "https://graph.facebook.com/v22.0"
	}
	if c.Meta.DialogURL == "" {
		c.Meta.DialogURL = "https://www.facebook.com/v22.0/dialog/oauth"
	}
	if c.Meta.Timeout == 0 {
		c.Meta.Timeout = 15 * time.Second
	}
	if c.Meta.RPS == 0 {
		c.Meta.RPS = 10
	}
	if c.Meta.Burst == 0 {
		c.Meta.Burst = 20
	}
	if c.OAuth.StateCookieName == "" {
		c.OAuth.StateCookieName = "ig_oauth_state"
	}
	if c.OAuth.StateCookiePath == "" {
		c.OAuth.StateCookiePath = "/"
	}
	if c.OAuth.StateTTL == 0 {
		c.OAuth.StateTTL = 15 * time.Minute
	}
	if c.Cron.Workers == 0 {
		c.Cron.Workers = 4
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 20
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

// firstEnv devuelve la primera variable seteada (para aliases).
func firstEnv(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := getEnvStr(k); ok {
			return v, true
		}
	}
	return "", false
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvFloat(key string) (float64, bool) {
	if s, ok := getEnvStr(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("APP_ACCOUNTS_PATH"); ok {
		c.App.AccountsPath = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_WRITE_TIMEOUT"); ok {
		c.Server.WriteTimeout = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := firstEnv("STORAGE_DSN", "DATABASE_URL"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvBool("STORAGE_MIGRATE"); ok {
		c.Storage.Migrate = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := getEnvStr("AUTH_JWT_ISSUER"); ok {
		c.Auth.Issuer = v
	}
	if v, ok := getEnvStr("AUTH_COOKIE_NAME"); ok {
		c.Auth.CookieName = v
	}

	// META (aliases INSTAGRAM_* heredados)
	if v, ok := firstEnv("META_APP_ID", "INSTAGRAM_APP_ID"); ok {
		c.Meta.AppID = v
	}
	if v, ok := firstEnv("META_APP_SECRET", "INSTAGRAM_APP_SECRET"); ok {
		c.Meta.AppSecret = v
	}
	if v, ok := firstEnv("INSTAGRAM_REDIRECT_URI", "META_BUSINESS_REDIRECT_URI"); ok {
		c.Meta.RedirectURI = v
	}
	if v, ok := getEnvStr("META_OAUTH_SCOPES"); ok {
		c.Meta.Scopes = v
	}
	if v, ok := getEnvStr("META_GRAPH_URL"); ok {
		c.Meta.GraphURL = strings.TrimRight(v, "/")
	}
	if v, ok := getEnvDur("META_TIMEOUT"); ok {
		c.Meta.Timeout = v
	}
	if v, ok := getEnvFloat("META_RPS"); ok {
		c.Meta.RPS = v
	}

	// OAUTH
	if v, ok := getEnvBool("OAUTH_SECURE_COOKIE"); ok {
		c.OAuth.SecureCookie = v
	}
	if v, ok := getEnvStr("OAUTH_STATE_COOKIE_PATH"); ok {
		c.OAuth.StateCookiePath = v
	}

	// SECRETS / CRON
	if v, ok := getEnvStr("INSTAGRAM_TOKEN_ENCRYPTION_KEY"); ok {
		c.Secrets.TokenEncryptionKey = v
	}
	if v, ok := getEnvStr("CRON_SECRET"); ok {
		c.Cron.Secret = v
	}
	if v, ok := getEnvDur("CRON_INTERVAL"); ok {
		c.Cron.Interval = v
	}
	if v, ok := getEnvInt("CRON_WORKERS"); ok {
		c.Cron.Workers = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvCSV("HARVEST_REPORT_TO"); ok {
		c.SMTP.ReportTo = v
	}

	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
}

// Validate revisa valores estructurales. La presencia de credenciales de Meta,
// la clave de cifrado y el secreto de cron se valida por flujo (ver Missing*).
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("%w: storage.dsn", ErrMissing)
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("%w: cache.redis.addr", ErrMissing)
		}
	default:
		return fmt.Errorf("config: unknown cache kind %q", c.Cache.Kind)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.jwt_secret", ErrMissing)
	}
	if _, err := validation.ParseScopes(c.Meta.Scopes); err != nil {
		return fmt.Errorf("config: meta.scopes: %w", err)
	}
	return nil
}

// MissingOAuth lista las claves faltantes para iniciar/cerrar el flujo OAuth.
func (c *Config) MissingOAuth() []string {
	var out []string
	if strings.TrimSpace(c.Meta.AppID) == "" {
		out = append(out, "meta.app_id")
	}
	if strings.TrimSpace(c.Meta.AppSecret) == "" {
		out = append(out, "meta.app_secret")
	}
	if strings.TrimSpace(c.Meta.RedirectURI) == "" {
		out = append(out, "meta.redirect_uri")
	}
	if strings.TrimSpace(c.Secrets.TokenEncryptionKey) == "" {
		out = append(out, "secrets.token_encryption_key")
	}
	return out
}

// Redacted devuelve una copia sin secretos, apta para loguear.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}
	c.Storage.DSN = mask(c.Storage.DSN)
	c.Cache.Redis.Password = mask(c.Cache.Redis.Password)
	c.Auth.JWTSecret = mask(c.Auth.JWTSecret)
	c.Meta.AppSecret = mask(c.Meta.AppSecret)
	c.Secrets.TokenEncryptionKey = mask(c.Secrets.TokenEncryptionKey)
	c.Cron.Secret = mask(c.Cron.Secret)
	c.SMTP.Password = mask(c.SMTP.Password)
	return c
}
