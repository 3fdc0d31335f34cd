package config

const (
	EnvPrefix = "RESERVATIONS"

	EnvAppEnv    = "RESERVATIONS_APP_ENV"
	EnvPort      = "RESERVATIONS_APP_PORT"
	EnvLogLevel  = "RESERVATIONS_LOG_LEVEL"
	EnvLogFormat = "RESERVATIONS_LOG_FORMAT"

	EnvDBDSN  = "RESERVATIONS_DB_DSN"
	EnvDBHost = "RESERVATIONS_DB_HOST"
	EnvDBUser = "RESERVATIONS_DB_USER"
	EnvDBName = "RESERVATIONS_DB_NAME"

	EnvRedisURL = "RESERVATIONS_REDIS_URL"

	EnvJWTSecret  = "RESERVATIONS_JWT_SECRET"
	EnvJWTIssuer  = "RESERVATIONS_JWT_ISSUER"
	EnvJWTExpMins = "RESERVATIONS_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite  = "RESERVATIONS_USE_SQLITE"
	EnvHoldMaxTTL = "RESERVATIONS_HOLD_MAX_TTL"

	EnvGCPProjectID       = "RESERVATIONS_GCP_PROJECT_ID"
	EnvPubSubBookingTopic = "RESERVATIONS_PUBSUB_BOOKINGS_TOPIC"
	EnvPubSubBookingSub   = "RESERVATIONS_PUBSUB_BOOKINGS_SUBSCRIPTION"

	EnvAMQPURL    = "RESERVATIONS_AMQP_URL"
	EnvOutboxSink = "RESERVATIONS_OUTBOX_SINK"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	OutboxSinkPubSub = "pubsub"
	OutboxSinkAMQP   = "amqp"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
