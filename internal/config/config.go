package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable; a .env file in the working directory (or
// the file named by ENV_FILE) is loaded first without overriding values
// already present in the environment.
type Config struct {
	Env            string        `envconfig:"APP_ENV" default:"dev"`              // application environment (dev/test/prod)
	Port           string        `envconfig:"APP_PORT" required:"true"`           // HTTP port to listen on
	DBUser         string        `envconfig:"DB_USER" required:"true"`            // database username
	DBPass         string        `envconfig:"DB_PASS"`                            // database password (optional)
	DBHost         string        `envconfig:"DB_HOST" required:"true"`            // database host address
	DBPort         string        `envconfig:"DB_PORT" required:"true"`            // database port number
	DBName         string        `envconfig:"DB_NAME" required:"true"`            // database name
	DBMaxOpenConns int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`     // connection pool bound
	MigrateOnStart bool          `envconfig:"DB_MIGRATE" default:"true"`          // apply embedded migrations at startup
	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`         // secret used to sign session tokens
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"1h"`             // session token lifetime
	BcryptCost     int           `envconfig:"BCRYPT_COST" default:"10"`           // bcrypt cost for password hashing
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s"`       // per-request store deadline
	AMQPURL        string        `envconfig:"RABBITMQ_URL"`                       // broker for domain events; empty disables publishing
	EventLogPath   string        `envconfig:"EVENT_LOG_PATH" default:"logs/events.log"`
	AdminEmail     string        `envconfig:"BOOTSTRAP_ADMIN_EMAIL"`    // optional admin account created at startup
	AdminPassword  string        `envconfig:"BOOTSTRAP_ADMIN_PASSWORD"` // password for the bootstrap admin

	Cache     CacheConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

// Load reads the optional .env file and then the environment.  Missing
// required variables produce an error naming the variable.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.RateLimit.normalize()
	return cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must not be empty")
	}
	if len(c.JWTSecret) < 16 && c.Env == "prod" {
		return errors.New("config: JWT_SECRET must be at least 16 characters in prod")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: TOKEN_TTL must be positive")
	}
	if c.DBMaxOpenConns < 1 {
		return errors.New("config: DB_MAX_OPEN_CONNS must be at least 1")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("config: BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	return nil
}
