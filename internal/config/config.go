package config // package config loads application configuration from environment variables

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Values are read once at startup and the struct
// is passed by value afterwards, so nothing here changes while serving.
type Config struct {
	Env      string // application environment (e.g. "dev", "prod")
	Port     string // HTTP port to listen on
	LogLevel string // logrus level name

	DBUser    string        // database username
	DBPass    string        // database password (optional)
	DBHost    string        // database host address
	DBPort    string        // database port number
	DBName    string        // database name
	DBTimeout time.Duration // bound for a single record store call

	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // default access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing

	RabbitURL      string        // AMQP broker used for background email delivery
	EmailQueue     string        // queue the email tasks are published to
	EmailSendDelay time.Duration // simulated delivery latency in the worker
}

// AccessTTL returns the default token lifetime as a duration.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
}

// Load reads configuration values from the environment (and a .env file
// when present) and returns a Config. Required variables are enforced by
// must() and missing values stop the process with a fatal log entry.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, relying on environment variables")
	}

	cost := envInt("BCRYPT_COST", bcrypt.DefaultCost)
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	ttl := envInt("ACCESS_TOKEN_TTL_MIN", 30)
	if ttl < 1 {
		ttl = 30
	}
	q := LoadQueueConfig()

	return Config{
		Env:      envStr("APP_ENV", "dev"),
		Port:     envStr("APP_PORT", "8080"),
		LogLevel: envStr("LOG_LEVEL", "info"),

		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"), // empty allowed
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		DBTimeout: envDur("DB_TIMEOUT", 5*time.Second),

		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: ttl,
		BcryptCost:   cost,

		RabbitURL:      q.RabbitURL,
		EmailQueue:     q.EmailQueue,
		EmailSendDelay: q.EmailSendDelay,
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}
