// Package config loads the service configuration from a YAML file.
// Values of the form ${NAME} are replaced with environment variables
// before decoding, so secrets can stay out of the file.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vadimbarashkov/shortlink/pkg/shortid"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	MinShortIDLength = 7
	MaxShortIDLength = 14
	maxSnowflakeNode = 1023
)

type Config struct {
	Env            string `yaml:"env"`
	LogLevel       string `yaml:"log_level"`
	BaseURL        string `yaml:"base_url"`
	MigrationsPath string `yaml:"migrations_path"`
	SwaggerFile    string `yaml:"swagger_file"`
	ShortID        `yaml:"short_id"`
	Retention      `yaml:"retention"`
	RateLimit      `yaml:"rate_limit"`
	HTTPServer     `yaml:"http_server"`
	Postgres       `yaml:"postgres"`
}

type ShortID struct {
	Generator     string `yaml:"generator"`
	Length        int    `yaml:"length"`
	MaxAttempts   int    `yaml:"max_attempts"`
	SnowflakeNode int64  `yaml:"snowflake_node"`
}

var defaultShortID = ShortID{
	Generator:   shortid.GeneratorNanoID,
	Length:      8,
	MaxAttempts: 10,
}

// Retention controls the background sweep that removes stale records.
type Retention struct {
	UnusedURLTTL  time.Duration `yaml:"unused_url_ttl"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

var defaultRetention = Retention{
	UnusedURLTTL:  90 * 24 * time.Hour,
	SessionTTL:    30 * 24 * time.Hour,
	SweepInterval: time.Hour,
}

type RateLimit struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

var defaultRateLimit = RateLimit{
	Requests: 100,
	Window:   15 * time.Minute,
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnectAttempts int           `yaml:"connect_attempts"`
	ConnectBackoff  time.Duration `yaml:"connect_backoff"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
	ConnectAttempts: 5,
	ConnectBackoff:  2 * time.Second,
}

// DSN returns the connection URL. Credentials are escaped.
func (p *Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.DB,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read config file: %w", op, err)
	}

	var cfg Config
	setDefaults(&cfg)

	dec := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(data))))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.LogLevel = "info"
	cfg.BaseURL = "http://localhost:8080"
	cfg.MigrationsPath = "file://migrations"
	cfg.SwaggerFile = "./docs/swagger.yml"
	cfg.ShortID = defaultShortID
	cfg.Retention = defaultRetention
	cfg.RateLimit = defaultRateLimit
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
}

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvDev, EnvStage, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("env: unknown value %q", c.Env))
	}

	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url: must be an absolute http(s) URL, got %q", c.BaseURL))
	}

	switch c.ShortID.Generator {
	case shortid.GeneratorNanoID:
		if c.ShortID.Length < MinShortIDLength || c.ShortID.Length > MaxShortIDLength {
			errs = append(errs, fmt.Errorf("short_id.length: must be between %d and %d", MinShortIDLength, MaxShortIDLength))
		}
	case shortid.GeneratorSnowflake:
		if c.ShortID.SnowflakeNode < 0 || c.ShortID.SnowflakeNode > maxSnowflakeNode {
			errs = append(errs, fmt.Errorf("short_id.snowflake_node: must be between 0 and %d", maxSnowflakeNode))
		}
	default:
		errs = append(errs, fmt.Errorf("short_id.generator: unknown value %q", c.ShortID.Generator))
	}

	if c.ShortID.MaxAttempts < 1 {
		errs = append(errs, errors.New("short_id.max_attempts: must be at least 1"))
	}

	if c.Retention.UnusedURLTTL <= 0 || c.Retention.SessionTTL <= 0 || c.Retention.SweepInterval <= 0 {
		errs = append(errs, errors.New("retention: durations must be positive"))
	}

	if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit: requests and window must be positive"))
	}

	if c.Env == EnvProd && (c.HTTPServer.CertFile == "" || c.HTTPServer.KeyFile == "") {
		errs = append(errs, errors.New("http_server: cert_file and key_file are required in prod"))
	}

	return errors.Join(errs...)
}
