package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Store    Store
	MySQL    MySQL
	JWT      JWT
	Upload   Upload
	NATS     NATS
	Presence Presence
	Location Location
	Auth     Auth
	Log      Log
	CORS     CORS
}

type Server struct {
	Addr string
	// Port, when set, wins over Addr and listens on all interfaces.
	Port string
}

// ListenAddr is the address the HTTP server binds.
func (s Server) ListenAddr() string {
	if s.Port != "" {
		return ":" + s.Port
	}
	return s.Addr
}

type Store struct {
	Driver string
}

type MySQL struct {
	DSN string
}

type JWT struct {
	Secret string
	TTL    time.Duration
}

type Upload struct {
	Dir     string
	MaxSize int64 `mapstructure:"max_size"`
}

type NATS struct {
	URL           string
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type Presence struct {
	Tick time.Duration
}

type Location struct {
	Interval    time.Duration
	MinDistance float64 `mapstructure:"min_distance"`
}

type Auth struct {
	MaxFailures   int           `mapstructure:"max_failures"`
	FailureWindow time.Duration `mapstructure:"failure_window"`
}

type Log struct {
	Level string
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("store.driver", "mysql")
	v.SetDefault("mysql.dsn", "root:root@tcp(localhost:3306)/vault?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("jwt.secret", "vault-secret-key-change-in-production")
	v.SetDefault("jwt.ttl", 7*24*time.Hour)
	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.max_size", 50<<20)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "vault")
	v.SetDefault("presence.tick", 30*time.Second)
	v.SetDefault("location.interval", time.Minute)
	v.SetDefault("location.min_distance", 50.0)
	v.SetDefault("auth.max_failures", 5)
	v.SetDefault("auth.failure_window", 15*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// legacyEnv keeps the variables older deployments set.
var legacyEnv = map[string]string{
	"server.port": "PORT",
	"mysql.dsn":   "MYSQL_DSN",
	"jwt.secret":  "JWT_SECRET",
	"upload.dir":  "UPLOAD_DIR",
}

// Load reads defaults, then the optional YAML file at path, then VAULT_*
// environment variables (VAULT_MYSQL_DSN for mysql.dsn and so on).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("vault")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := "VAULT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, errors.Wrapf(err, "bind %s", env)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "mysql", "memory":
	default:
		return errors.Errorf("store.driver must be mysql or memory, got %q", c.Store.Driver)
	}
	if c.JWT.TTL <= 0 {
		return errors.New("jwt.ttl must be positive")
	}
	if c.Upload.MaxSize <= 0 {
		return errors.New("upload.max_size must be positive")
	}
	return nil
}
