package cli

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	go_ora "github.com/sijms/go-ora/v2"
	"github.com/spf13/viper"

	"github.com/atdtech/dcdash/pkg/session"
)

const (
	maxWalkDepth = 25
	envPrefix    = "DCDASH"
	redacted     = "********"
)

var configNames = []string{"dcdash.yaml", "dcdash.yml"}

// Config represents the dcdash configuration from dcdash.yaml.
type Config struct {
	App     AppConfig     `mapstructure:"app" json:"app"`
	Oracle  OracleConfig  `mapstructure:"oracle" json:"oracle"`
	Session SessionConfig `mapstructure:"session" json:"session"`
	Server  ServerConfig  `mapstructure:"server" json:"server"`
	Log     LogConfig     `mapstructure:"log" json:"log"`
}

// AppConfig holds application identity settings.
type AppConfig struct {
	Name  string `mapstructure:"name" json:"name"`
	Debug bool   `mapstructure:"debug" json:"debug"`
}

// OracleConfig holds database connection settings.
type OracleConfig struct {
	URL      string            `mapstructure:"url" json:"url,omitempty"`
	Host     string            `mapstructure:"host" json:"host"`
	Port     int               `mapstructure:"port" json:"port"`
	Service  string            `mapstructure:"service" json:"service"`
	User     string            `mapstructure:"user" json:"user"`
	Password string            `mapstructure:"password" json:"password,omitempty"`
	Options  map[string]string `mapstructure:"options" json:"options,omitempty"`
}

// SessionConfig holds the per-session context and pool settings.
type SessionConfig struct {
	Schema           string        `mapstructure:"schema" json:"schema"`
	ContextProcedure string        `mapstructure:"context_procedure" json:"context_procedure"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout" json:"connect_timeout"`
	QueryTimeout     time.Duration `mapstructure:"query_timeout" json:"query_timeout"`
	MaxOpenConns     int           `mapstructure:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime" json:"conn_max_lifetime"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" json:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error. Empty means info, or debug
	// when app.debug is set.
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// compatEnv maps keys to the unprefixed environment names deployments
// already set. The prefixed name always wins.
var compatEnv = map[string]string{
	"oracle.user":           "ORACLE_USER",
	"oracle.password":       "ORACLE_PASSWORD",
	"oracle.host":           "ORACLE_HOST",
	"oracle.port":           "ORACLE_PORT",
	"oracle.service":        "ORACLE_SERVICE",
	"server.port":           "PORT",
	"session.query_timeout": "WORKER_TIMEOUT",
	"app.debug":             "DEBUG",
	"log.level":             "LOG_LEVEL",
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	// 1. Set defaults first (lowest precedence)
	setDefaults(v)

	// 2. Set up environment variable binding
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range compatEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, "", fmt.Errorf("binding %s: %w", key, err)
		}
	}

	// 3. Find and load config file
	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	// 4. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "DC Dashboard API")
	v.SetDefault("app.debug", false)

	v.SetDefault("oracle.url", "")
	v.SetDefault("oracle.host", "")
	v.SetDefault("oracle.port", 1521)
	v.SetDefault("oracle.service", "")
	v.SetDefault("oracle.user", "")
	v.SetDefault("oracle.password", "")

	v.SetDefault("session.schema", session.DefaultSchema)
	v.SetDefault("session.context_procedure", session.DefaultContextProcedure)
	v.SetDefault("session.connect_timeout", 30*time.Second)
	v.SetDefault("session.query_timeout", 300*time.Second)
	v.SetDefault("session.max_open_conns", 10)
	v.SetDefault("session.max_idle_conns", 0)
	v.SetDefault("session.conn_max_lifetime", time.Duration(0))

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 300*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "text")
}

// decodeHook extends viper's default hooks so a bare number is read as
// seconds, which is how WORKER_TIMEOUT has always been set.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		secondsHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func secondsHook(from, to reflect.Type, data any) (any, error) {
	durationType := reflect.TypeOf(time.Duration(0))
	if to != durationType || from == durationType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String:
		s := strings.TrimSpace(data.(string))
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(n * float64(time.Second)), nil
		}
	case reflect.Int, reflect.Int32, reflect.Int64:
		return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
	}
	return data, nil
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for dcdash.yaml or dcdash.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// DSN returns the go-ora connection string.
// If oracle.url is set, it's returned directly.
// Otherwise, builds a DSN from discrete fields.
func (c *Config) DSN() (string, error) {
	o := c.Oracle

	if o.URL != "" {
		return o.URL, nil
	}

	if o.Host == "" {
		return "", fmt.Errorf("oracle.host is required when oracle.url is not set")
	}
	if o.Service == "" {
		return "", fmt.Errorf("oracle.service is required when oracle.url is not set")
	}
	if o.User == "" {
		return "", fmt.Errorf("oracle.user is required when oracle.url is not set")
	}

	var options map[string]string
	if len(o.Options) > 0 {
		options = o.Options
	}
	return go_ora.BuildUrl(o.Host, o.Port, o.Service, o.User, o.Password, options), nil
}

// Target names the database as host:port/service without credentials.
func (c *Config) Target() string {
	o := c.Oracle
	if o.URL != "" {
		u, err := url.Parse(o.URL)
		if err != nil {
			return "(unparseable oracle.url)"
		}
		return u.Host + u.Path
	}
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port)) + "/" + o.Service
}

// SessionConfig builds the session manager configuration.
func (c *Config) SessionConfig() (session.Config, error) {
	dsn, err := c.DSN()
	if err != nil {
		return session.Config{}, err
	}
	s := c.Session
	cfg := session.Config{
		DSN:              dsn,
		Target:           c.Target(),
		Schema:           s.Schema,
		ContextProcedure: s.ContextProcedure,
		ConnectTimeout:   s.ConnectTimeout,
		QueryTimeout:     s.QueryTimeout,
		MaxOpenConns:     s.MaxOpenConns,
		MaxIdleConns:     s.MaxIdleConns,
		ConnMaxLifetime:  s.ConnMaxLifetime,
	}
	if err := cfg.Validate(); err != nil {
		return session.Config{}, err
	}
	return cfg, nil
}

// LogLevel returns the effective log level name.
func (c *Config) LogLevel() string {
	if c.Log.Level != "" {
		return strings.ToLower(c.Log.Level)
	}
	if c.App.Debug {
		return "debug"
	}
	return "info"
}

// Redacted returns a copy safe to print: the password and any credentials
// embedded in oracle.url are masked.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Oracle.Password != "" {
		out.Oracle.Password = redacted
	}
	if out.Oracle.URL != "" {
		if u, err := url.Parse(out.Oracle.URL); err == nil {
			out.Oracle.URL = u.Redacted()
		} else {
			out.Oracle.URL = redacted
		}
	}
	if len(c.Oracle.Options) > 0 {
		out.Oracle.Options = make(map[string]string, len(c.Oracle.Options))
		for k, v := range c.Oracle.Options {
			if strings.Contains(strings.ToLower(k), "password") {
				v = redacted
			}
			out.Oracle.Options[k] = v
		}
	}
	return &out
}
