package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Orders        OrdersConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LCC_APP_ENV" required:"true"`
	Port         string `envconfig:"LCC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LCC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LCC_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"LCC_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	out := []string{}
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

type ServiceConfig struct {
	Kind string `envconfig:"LCC_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LCC_DB_DSN"`
	Driver string `envconfig:"LCC_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"LCC_DB_HOST"`
	Port     int    `envconfig:"LCC_DB_PORT" default:"5432"`
	User     string `envconfig:"LCC_DB_USER"`
	Password string `envconfig:"LCC_DB_PASSWORD"`
	Name     string `envconfig:"LCC_DB_NAME"`
	SSLMode  string `envconfig:"LCC_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"LCC_SQLITE_PATH" default:"file:lcc.db?cache=shared&_foreign_keys=on"`

	MaxOpenConns    int           `envconfig:"LCC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LCC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LCC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LCC_DB_CONN_MAX_IDLE_TIME" default:"30s"`
	SlowQuery       time.Duration `envconfig:"LCC_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LCC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LCC_REDIS_ADDR"`
	Password     string        `envconfig:"LCC_REDIS_PASSWORD"`
	DB           int           `envconfig:"LCC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LCC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LCC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LCC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LCC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LCC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LCC_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LCC_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LCC_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LCC_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LCC_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LCC_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LCC_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LCC_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LCC_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"LCC_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"LCC_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"LCC_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"LCC_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"LCC_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"LCC_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LCC_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LCC_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"LCC_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type OrdersConfig struct {
	IdempotencyTTL      time.Duration `envconfig:"LCC_ORDERS_IDEMPOTENCY_TTL" default:"24h"`
	NumberRetryAttempts int           `envconfig:"LCC_ORDERS_NUMBER_RETRY_ATTEMPTS" default:"5"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"LCC_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"LCC_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"LCC_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription string `envconfig:"LCC_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LCC_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LCC_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LCC_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval      time.Duration `envconfig:"LCC_CRON_INTERVAL" default:"1h"`
	LockTTL       time.Duration `envconfig:"LCC_CRON_LOCK_TTL" default:"10m"`
	RetentionDays int           `envconfig:"LCC_CRON_RETENTION_DAYS" default:"30"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
