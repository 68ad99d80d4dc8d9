package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Security    SecurityConfig    `yaml:"security"`
	Comments    CommentsConfig    `yaml:"comments"`
	Log         LogConfig         `yaml:"log"`
}

// DatabaseConfig holds PostgreSQL connection settings. Either DSN or the
// discrete Host/Name/User fields must be set; DSN wins when both are present.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	Host            string        `yaml:"host"               env:"DATABASE_HOST"               env-default:"localhost"`
	Port            int           `yaml:"port"               env:"DATABASE_PORT"               env-default:"5432"`
	Name            string        `yaml:"name"               env:"DATABASE_NAME"`
	User            string        `yaml:"user"               env:"DATABASE_USER"`
	Password        string        `yaml:"password"           env:"DATABASE_PASSWORD"`
	Charset         string        `yaml:"charset"            env:"DATABASE_CHARSET"            env-default:"UTF8"`
	SSLMode         string        `yaml:"sslmode"            env:"DATABASE_SSLMODE"            env-default:"disable"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"    env:"DATABASE_CONNECT_TIMEOUT"    env-default:"5s"`
}

// PersistenceConfig holds settings of the entity persistence layer.
type PersistenceConfig struct {
	// QueryTimeout bounds every statement issued by a repository. Zero disables it.
	QueryTimeout time.Duration `yaml:"query_timeout" env:"PERSISTENCE_QUERY_TIMEOUT" env-default:"5s"`
	// LoaderWait is how long an eager-load batch collects keys before firing.
	LoaderWait time.Duration `yaml:"loader_wait" env:"PERSISTENCE_LOADER_WAIT" env-default:"2ms"`
	// LoaderBatch caps the number of keys per eager-load query.
	LoaderBatch int `yaml:"loader_batch" env:"PERSISTENCE_LOADER_BATCH" env-default:"100"`
}

// SecurityConfig holds credential settings.
type SecurityConfig struct {
	PasswordHashCost int    `yaml:"password_hash_cost" env:"SECURITY_PASSWORD_HASH_COST" env-default:"12"`
	TwoFactorIssuer  string `yaml:"two_factor_issuer"  env:"SECURITY_TWO_FACTOR_ISSUER"  env-default:"renaltales"`
}

// CommentsConfig holds comment moderation settings.
type CommentsConfig struct {
	// PurgeRetentionDays is how long soft-deleted comments are kept before
	// cmd/cleanup removes them for good.
	PurgeRetentionDays int `yaml:"purge_retention_days" env:"COMMENTS_PURGE_RETENTION_DAYS" env-default:"30"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// ConnString returns the DSN to connect with. When DSN is empty it is built
// from the discrete fields; Charset maps to client_encoding.
func (c DatabaseConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}

	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.Charset != "" {
		q.Set("client_encoding", c.Charset)
	}
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()

	return u.String()
}
