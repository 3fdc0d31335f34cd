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
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Reservations ReservationsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	AMQP         AMQPConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	HTTP         HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Outbox.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RESERVATIONS_APP_ENV" required:"true"`
	Port         string `envconfig:"RESERVATIONS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"RESERVATIONS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"RESERVATIONS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"RESERVATIONS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"RESERVATIONS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"RESERVATIONS_DB_DSN"`
	Driver string `envconfig:"RESERVATIONS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RESERVATIONS_DB_HOST"`
	LegacyPort     int    `envconfig:"RESERVATIONS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RESERVATIONS_DB_USER"`
	LegacyPassword string `envconfig:"RESERVATIONS_DB_PASSWORD"`
	LegacyName     string `envconfig:"RESERVATIONS_DB_NAME"`
	LegacySSLMode  string `envconfig:"RESERVATIONS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RESERVATIONS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RESERVATIONS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RESERVATIONS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RESERVATIONS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RESERVATIONS_REDIS_URL"`
	Address      string        `envconfig:"RESERVATIONS_REDIS_ADDR"`
	Password     string        `envconfig:"RESERVATIONS_REDIS_PASSWORD"`
	DB           int           `envconfig:"RESERVATIONS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RESERVATIONS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RESERVATIONS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RESERVATIONS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RESERVATIONS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RESERVATIONS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RESERVATIONS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RESERVATIONS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RESERVATIONS_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RESERVATIONS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RESERVATIONS_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"RESERVATIONS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type ReservationsConfig struct {
	HoldMaxTTL      time.Duration `envconfig:"RESERVATIONS_HOLD_MAX_TTL" default:"1h"`
	TxRetryAttempts int           `envconfig:"RESERVATIONS_TX_RETRY_ATTEMPTS" default:"3"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"RESERVATIONS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"RESERVATIONS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"RESERVATIONS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	BookingsTopic        string `envconfig:"RESERVATIONS_PUBSUB_BOOKINGS_TOPIC" default:"rsv-booking-events"`
	BookingsSubscription string `envconfig:"RESERVATIONS_PUBSUB_BOOKINGS_SUBSCRIPTION" default:"rsv-booking-events-notifications"`
}

type AMQPConfig struct {
	URL      string `envconfig:"RESERVATIONS_AMQP_URL"`
	Exchange string `envconfig:"RESERVATIONS_AMQP_EXCHANGE" default:"reservations.events"`
}

type OutboxConfig struct {
	Sink            string        `envconfig:"RESERVATIONS_OUTBOX_SINK" default:"pubsub"`
	BatchSize       int           `envconfig:"RESERVATIONS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS  int           `envconfig:"RESERVATIONS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts     int           `envconfig:"RESERVATIONS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionWindow time.Duration `envconfig:"RESERVATIONS_OUTBOX_RETENTION" default:"720h"`
}

func (o OutboxConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(o.Sink)) {
	case OutboxSinkPubSub, OutboxSinkAMQP:
		return nil
	default:
		return fmt.Errorf("%s must be one of %q or %q", EnvOutboxSink, OutboxSinkPubSub, OutboxSinkAMQP)
	}
}

type CronConfig struct {
	Interval time.Duration `envconfig:"RESERVATIONS_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"RESERVATIONS_CRON_LOCK_TTL" default:"5m"`

	NotificationRetention time.Duration `envconfig:"RESERVATIONS_NOTIFICATION_RETENTION" default:"720h"`
}

// HTTPConfig holds API server settings. A zero TenantWriteLimit disables
// the per-tenant write limiter.
type HTTPConfig struct {
	CORSOrigins       []string      `envconfig:"RESERVATIONS_CORS_ORIGINS" default:"http://localhost:3000"`
	RateLimitWindow   time.Duration `envconfig:"RESERVATIONS_RATE_LIMIT_WINDOW" default:"1m"`
	TenantWriteLimit  int           `envconfig:"RESERVATIONS_RATE_LIMIT_TENANT_WRITES" default:"600"`
	ReadHeaderTimeout time.Duration `envconfig:"RESERVATIONS_HTTP_READ_HEADER_TIMEOUT" default:"5s"`
	ShutdownTimeout   time.Duration `envconfig:"RESERVATIONS_HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
		if db.DSN == "" {
			db.DSN = "file:reservations.db?cache=shared"
		}
		return nil
	}
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
