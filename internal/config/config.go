package config // package config loads application configuration from environment variables

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values. It is built once by Load
// at process start and handed to the components that need it; nothing reads
// the environment after that.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	JWTSecret      string        // secret used to sign session tokens
	TokenTTL       time.Duration // session token lifetime
	BcryptCost     int           // bcrypt cost for password hashing
	PublicBaseURL  string        // externally reachable base URL, used in QR links
	FrontendOrigin string        // allowed CORS origin
	EventLogDir    string        // directory the checkout event consumer writes to
	RabbitMQURL    string        // broker URL; empty disables events
	Upload         UploadConfig
	Mail           MailConfig
}

// UploadConfig controls where uploaded images are written and how large
// they may be.
type UploadConfig struct {
	Dir       string // directory on disk
	URLPrefix string // path the directory is served under
	MaxBytes  int64  // per-file size cap
}

// MailConfig holds SMTP settings. An empty Host selects the log-only mailer.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// Enabled reports whether an SMTP server is configured.
func (m MailConfig) Enabled() bool { return m.Host != "" }

// Load reads configuration values from environment variables. Required
// variables that are missing are reported together in a single error.
func Load() (Config, error) {
	var missing []string
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}

	port := getenv("APP_PORT", "3000")
	cfg := Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           port,
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         getenv("DB_PORT", "3306"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		TokenTTL:       envDur("TOKEN_TTL", 24*time.Hour),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		PublicBaseURL:  strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		FrontendOrigin: getenv("FRONTEND_ORIGIN", "http://localhost:8080"),
		EventLogDir:    getenv("EVENT_LOG_DIR", "logs"),
		RabbitMQURL:    getenv("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		Upload: UploadConfig{
			Dir:       getenv("UPLOAD_DIR", "uploads"),
			URLPrefix: "/" + strings.Trim(getenv("UPLOAD_URL_PREFIX", "/uploads"), "/"),
			MaxBytes:  int64(envInt("UPLOAD_MAX_BYTES", 5<<20)),
		},
		Mail: MailConfig{
			Host:     os.Getenv("MAIL_HOST"),
			Port:     envInt("MAIL_PORT", 587),
			Username: os.Getenv("MAIL_USER"),
			Password: os.Getenv("MAIL_PASS"),
			From:     getenv("MAIL_FROM", os.Getenv("MAIL_USER")),
			Timeout:  envDur("MAIL_TIMEOUT", 15*time.Second),
		},
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("invalid TOKEN_TTL: %s", cfg.TokenTTL)
	}
	return cfg, nil
}

// Address returns the listen address for the HTTP server.
func (c Config) Address() string { return ":" + c.Port }

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
