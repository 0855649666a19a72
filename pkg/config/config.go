package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Service    ServiceConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Encryption EncryptionConfig
	Payments   PaymentsConfig
	GCP        GCPConfig
	PubSub     PubSubConfig
	Outbox     OutboxConfig
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
	Env          string `envconfig:"DUKAPAY_APP_ENV" required:"true"`
	Port         string `envconfig:"DUKAPAY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DUKAPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DUKAPAY_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"DUKAPAY_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"DUKAPAY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DUKAPAY_DB_DSN"`
	Driver string `envconfig:"DUKAPAY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DUKAPAY_DB_HOST"`
	LegacyPort     int    `envconfig:"DUKAPAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DUKAPAY_DB_USER"`
	LegacyPassword string `envconfig:"DUKAPAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"DUKAPAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"DUKAPAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DUKAPAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DUKAPAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DUKAPAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DUKAPAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DUKAPAY_REDIS_URL" required:"true"`
	Password     string        `envconfig:"DUKAPAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"DUKAPAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DUKAPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DUKAPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DUKAPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DUKAPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DUKAPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DUKAPAY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DUKAPAY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DUKAPAY_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type EncryptionConfig struct {
	// KeyHex is the hex-encoded 32-byte key protecting stored gateway
	// credentials.
	KeyHex string `envconfig:"DUKAPAY_ENCRYPTION_KEY" required:"true"`
}

type PaymentsConfig struct {
	StripeCurrency   string `envconfig:"DUKAPAY_PAYMENTS_STRIPE_CURRENCY" default:"USD"`
	PaystackCurrency string `envconfig:"DUKAPAY_PAYMENTS_PAYSTACK_CURRENCY" default:"NGN"`
	MpesaCurrency    string `envconfig:"DUKAPAY_PAYMENTS_MPESA_CURRENCY" default:"KES"`

	LedgerConflictRetries int           `envconfig:"DUKAPAY_PAYMENTS_LEDGER_CONFLICT_RETRIES" default:"3"`
	IdempotencyTTL        time.Duration `envconfig:"DUKAPAY_PAYMENTS_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"DUKAPAY_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"DUKAPAY_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	PaymentsTopic        string `envconfig:"DUKAPAY_PUBSUB_PAYMENTS_TOPIC" required:"true"`
	PaymentsSubscription string `envconfig:"DUKAPAY_PUBSUB_PAYMENTS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DUKAPAY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DUKAPAY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DUKAPAY_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
