package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Eventing     EventingConfig
	Replay       ReplayConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	// envconfig's required tag accepts a set-but-empty variable.
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("%s must not be empty", EnvJWTSecret)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AEROTRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"AEROTRACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AEROTRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AEROTRACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AEROTRACK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AEROTRACK_DB_DSN"`
	Driver string `envconfig:"AEROTRACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AEROTRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"AEROTRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AEROTRACK_DB_USER"`
	LegacyPassword string `envconfig:"AEROTRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"AEROTRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"AEROTRACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AEROTRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AEROTRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AEROTRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AEROTRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AEROTRACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AEROTRACK_REDIS_ADDR"`
	Password     string        `envconfig:"AEROTRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"AEROTRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AEROTRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AEROTRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AEROTRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AEROTRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AEROTRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AEROTRACK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AEROTRACK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AEROTRACK_JWT_EXPIRATION_MINUTES" default:"480"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AEROTRACK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AEROTRACK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AEROTRACK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AEROTRACK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AEROTRACK_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AEROTRACK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AEROTRACK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"AEROTRACK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AEROTRACK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"AEROTRACK_PUBSUB_DOMAIN_TOPIC" default:"aircraft-domain-events"`
}

// EventingConfig selects the domain event publisher and its behavior.
type EventingConfig struct {
	Publisher      string        `envconfig:"AEROTRACK_EVENT_PUBLISHER" default:"log"`
	Source         string        `envconfig:"AEROTRACK_EVENT_SOURCE" default:"aerotrack.backend"`
	PublishTimeout time.Duration `envconfig:"AEROTRACK_EVENT_PUBLISH_TIMEOUT" default:"15s"`
}

// ReplayConfig bounds a single event-replay run.
type ReplayConfig struct {
	Limit       int `envconfig:"AEROTRACK_EVENT_REPLAY_LIMIT" default:"50"`
	MaxAttempts int `envconfig:"AEROTRACK_EVENT_REPLAY_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
