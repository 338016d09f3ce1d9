package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Cashfree CashfreeConfig
	Payments PaymentsConfig
	URLs     URLConfig
	Eventing EventingConfig
	Flags    FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Flags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	cfg.Cashfree.applyLegacyAliases()
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CRAFTKART_APP_ENV" required:"true"`
	Port         string `envconfig:"CRAFTKART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CRAFTKART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CRAFTKART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CRAFTKART_DB_DSN"`
	Driver string `envconfig:"CRAFTKART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CRAFTKART_DB_HOST"`
	LegacyPort     int    `envconfig:"CRAFTKART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CRAFTKART_DB_USER"`
	LegacyPassword string `envconfig:"CRAFTKART_DB_PASSWORD"`
	LegacyName     string `envconfig:"CRAFTKART_DB_NAME"`
	LegacySSLMode  string `envconfig:"CRAFTKART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRAFTKART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRAFTKART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRAFTKART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRAFTKART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CRAFTKART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CRAFTKART_REDIS_ADDR"`
	Password     string        `envconfig:"CRAFTKART_REDIS_PASSWORD"`
	DB           int           `envconfig:"CRAFTKART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CRAFTKART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CRAFTKART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CRAFTKART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CRAFTKART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CRAFTKART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CashfreeConfig is the process-level credential fallback. Persisted gateway
// settings win over these values when both are present.
type CashfreeConfig struct {
	ClientID     string `envconfig:"CRAFTKART_CASHFREE_CLIENT_ID"`
	ClientSecret string `envconfig:"CRAFTKART_CASHFREE_CLIENT_SECRET"`
	Env          string `envconfig:"CRAFTKART_CASHFREE_ENV" default:"sandbox"`
	Enabled      bool   `envconfig:"CRAFTKART_CASHFREE_ENABLED" default:"false"`

	// Deprecated aliases kept for one migration window. CLIENT_ID/CLIENT_SECRET
	// are canonical; APP_ID/SECRET_KEY are read only when the canonical vars are
	// unset.
	LegacyAppID     string `envconfig:"CRAFTKART_CASHFREE_APP_ID"`
	LegacySecretKey string `envconfig:"CRAFTKART_CASHFREE_SECRET_KEY"`

	WebhookSecret string        `envconfig:"CRAFTKART_CASHFREE_WEBHOOK_SECRET"`
	APIVersion    string        `envconfig:"CRAFTKART_CASHFREE_API_VERSION" default:"2023-08-01"`
	Timeout       time.Duration `envconfig:"CRAFTKART_CASHFREE_TIMEOUT" default:"12s"`
}

// Environment returns the normalized Cashfree environment (sandbox/live).
func (c CashfreeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(c.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

func (c *CashfreeConfig) applyLegacyAliases() {
	if strings.TrimSpace(c.ClientID) == "" {
		c.ClientID = c.LegacyAppID
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		c.ClientSecret = c.LegacySecretKey
	}
}

type PaymentsConfig struct {
	MaxOrderAmount     string        `envconfig:"CRAFTKART_PAYMENTS_MAX_ORDER_AMOUNT" default:"500000"`
	OrderIDPrefix      string        `envconfig:"CRAFTKART_PAYMENTS_ORDER_ID_PREFIX" default:"order"`
	OrderExpiry        time.Duration `envconfig:"CRAFTKART_PAYMENTS_ORDER_EXPIRY" default:"24h"`
	CustomerIDSalt     string        `envconfig:"CRAFTKART_PAYMENTS_CUSTOMER_ID_SALT" default:"craftkart"`
	StatusRetries      int           `envconfig:"CRAFTKART_PAYMENTS_STATUS_RETRIES" default:"3"`
	StatusRetryBackoff time.Duration `envconfig:"CRAFTKART_PAYMENTS_STATUS_RETRY_BACKOFF" default:"500ms"`
}

// URLConfig carries the loopback port-swap pair used for same-machine
// development. Externally reachable URLs are derived per request from
// forwarding headers, never configured statically.
type URLConfig struct {
	LocalClientPort string `envconfig:"CRAFTKART_LOCAL_CLIENT_PORT" default:"3000"`
	LocalServerPort string `envconfig:"CRAFTKART_LOCAL_SERVER_PORT" default:"8080"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"CRAFTKART_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CRAFTKART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CRAFTKART_AUTO_MIGRATE" default:"false"`
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
