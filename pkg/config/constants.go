package config

const EnvPrefix = "AEROTRACK"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "AEROTRACK_APP_ENV"
	EnvAppPort  = "AEROTRACK_APP_PORT"
	EnvLogLevel = "AEROTRACK_LOG_LEVEL"

	EnvDBDSN      = "AEROTRACK_DB_DSN"
	EnvDBHost     = "AEROTRACK_DB_HOST"
	EnvDBPort     = "AEROTRACK_DB_PORT"
	EnvDBUser     = "AEROTRACK_DB_USER"
	EnvDBPassword = "AEROTRACK_DB_PASSWORD"
	EnvDBName     = "AEROTRACK_DB_NAME"
	EnvDBSSLMode  = "AEROTRACK_DB_SSLMODE"

	EnvRedisURL = "AEROTRACK_REDIS_URL"

	EnvJWTSecret = "AEROTRACK_JWT_SECRET"
	EnvJWTIssuer = "AEROTRACK_JWT_ISSUER"

	EnvEventPublisher      = "AEROTRACK_EVENT_PUBLISHER"
	EnvEventSource         = "AEROTRACK_EVENT_SOURCE"
	EnvPubSubDomainTopic   = "AEROTRACK_PUBSUB_DOMAIN_TOPIC"
	EnvGCPProjectID        = "AEROTRACK_GCP_PROJECT_ID"
	EnvEventReplayLimit    = "AEROTRACK_EVENT_REPLAY_LIMIT"
	EnvEventReplayAttempts = "AEROTRACK_EVENT_REPLAY_MAX_ATTEMPTS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

// Publisher kinds accepted by AEROTRACK_EVENT_PUBLISHER.
const (
	PublisherNoop   = "noop"
	PublisherLog    = "log"
	PublisherPubSub = "pubsub"
)
