package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "TABLEMESA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "TABLEMESA_DB_DSN"
	EnvDBHost = "TABLEMESA_DB_HOST"
	EnvDBUser = "TABLEMESA_DB_USER"
	EnvDBName = "TABLEMESA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Pricing      PricingConfig
	Polling      PollingConfig
	FeatureFlags FeatureFlagsConfig
	Idempotency  IdempotencyConfig
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
	Env          string `envconfig:"TABLEMESA_APP_ENV" required:"true"`
	Port         string `envconfig:"TABLEMESA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TABLEMESA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TABLEMESA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TABLEMESA_DB_DSN"`
	Driver string `envconfig:"TABLEMESA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TABLEMESA_DB_HOST"`
	LegacyPort     int    `envconfig:"TABLEMESA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TABLEMESA_DB_USER"`
	LegacyPassword string `envconfig:"TABLEMESA_DB_PASSWORD"`
	LegacyName     string `envconfig:"TABLEMESA_DB_NAME"`
	LegacySSLMode  string `envconfig:"TABLEMESA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TABLEMESA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TABLEMESA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TABLEMESA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TABLEMESA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TABLEMESA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TABLEMESA_REDIS_ADDR"`
	Password     string        `envconfig:"TABLEMESA_REDIS_PASSWORD"`
	DB           int           `envconfig:"TABLEMESA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TABLEMESA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TABLEMESA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TABLEMESA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TABLEMESA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TABLEMESA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PricingConfig carries the cart pricing knobs. The tax rate is expressed in
// basis points so it stays an integer in the environment.
type PricingConfig struct {
	TaxRateBps      int `envconfig:"TABLEMESA_PRICING_TAX_RATE_BPS" default:"1000"`
	ServiceFeeCents int `envconfig:"TABLEMESA_PRICING_SERVICE_FEE_CENTS" default:"199"`
}

type PollingConfig struct {
	DinerInterval   time.Duration `envconfig:"TABLEMESA_POLL_DINER_INTERVAL" default:"10s"`
	ConsoleInterval time.Duration `envconfig:"TABLEMESA_POLL_CONSOLE_INTERVAL" default:"15s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TABLEMESA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TABLEMESA_AUTO_MIGRATE" default:"false"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"TABLEMESA_IDEMPOTENCY_TTL" default:"168h"`
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
