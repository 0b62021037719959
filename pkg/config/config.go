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
	API          APIConfig
	DB           DBConfig
	Redis        RedisConfig
	Wallet       WalletConfig
	Orders       OrdersConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AGRIBAZAAR_APP_ENV" required:"true"`
	Port         string `envconfig:"AGRIBAZAAR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGRIBAZAAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGRIBAZAAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AGRIBAZAAR_SERVICE_KIND" default:"api"`
}

type APIConfig struct {
	CORSOrigins      []string      `envconfig:"AGRIBAZAAR_API_CORS_ORIGINS" default:"http://localhost:3000"`
	RateLimitWindow  time.Duration `envconfig:"AGRIBAZAAR_API_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitPerUser int           `envconfig:"AGRIBAZAAR_API_RATE_LIMIT_PER_USER" default:"120"`
}

type DBConfig struct {
	DSN    string `envconfig:"AGRIBAZAAR_DB_DSN"`
	Driver string `envconfig:"AGRIBAZAAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGRIBAZAAR_DB_HOST"`
	LegacyPort     int    `envconfig:"AGRIBAZAAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGRIBAZAAR_DB_USER"`
	LegacyPassword string `envconfig:"AGRIBAZAAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGRIBAZAAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGRIBAZAAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGRIBAZAAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGRIBAZAAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGRIBAZAAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGRIBAZAAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGRIBAZAAR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGRIBAZAAR_REDIS_ADDR"`
	Password     string        `envconfig:"AGRIBAZAAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGRIBAZAAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGRIBAZAAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGRIBAZAAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGRIBAZAAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGRIBAZAAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGRIBAZAAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// WalletConfig bounds the optimistic-concurrency retry loop for wallet mutations.
type WalletConfig struct {
	MutationMaxRetries int           `envconfig:"AGRIBAZAAR_WALLET_MUTATION_MAX_RETRIES" default:"5"`
	MutationBackoff    time.Duration `envconfig:"AGRIBAZAAR_WALLET_MUTATION_BACKOFF" default:"20ms"`
}

// OrdersConfig carries order workflow tunables: the nightly quiet window during
// which auto-cancellation is suppressed, and delivery fee pricing.
type OrdersConfig struct {
	QuietWindowStartHour int    `envconfig:"AGRIBAZAAR_ORDERS_QUIET_START_HOUR" default:"23"`
	QuietWindowEndHour   int    `envconfig:"AGRIBAZAAR_ORDERS_QUIET_END_HOUR" default:"5"`
	DeliveryFeePercent   string `envconfig:"AGRIBAZAAR_ORDERS_DELIVERY_FEE_PERCENT" default:"5"`
	DeliveryFeeMinPaise  int64  `envconfig:"AGRIBAZAAR_ORDERS_DELIVERY_FEE_MIN_PAISE" default:"2000"`
	Timezone             string `envconfig:"AGRIBAZAAR_ORDERS_TIMEZONE" default:"Asia/Kolkata"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AGRIBAZAAR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AGRIBAZAAR_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AGRIBAZAAR_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"AGRIBAZAAR_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AGRIBAZAAR_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"AGRIBAZAAR_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"AGRIBAZAAR_PUBSUB_ORDERS_SUBSCRIPTION"`
	WalletTopic        string `envconfig:"AGRIBAZAAR_PUBSUB_WALLET_TOPIC" default:"ab-wallet-events"`
	WalletSubscription string `envconfig:"AGRIBAZAAR_PUBSUB_WALLET_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"AGRIBAZAAR_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"AGRIBAZAAR_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"AGRIBAZAAR_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"AGRIBAZAAR_OUTBOX_RETENTION_DAYS" default:"14"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"AGRIBAZAAR_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"AGRIBAZAAR_CRON_LOCK_TTL" default:"10m"`
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
