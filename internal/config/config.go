package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is loaded from a YAML file and overridden by environment variables.
// cleanenv applies env-default whenever a value is left at its zero value, so a
// zero in the file does not switch a setting off.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel overrides the environment's default log level when set (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" yaml:"logLevel"`

	// Scan configures how partner pages are fetched and where reports are written
	Scan struct {
		// TimeoutPerPage bounds a single page fetch; on expiry the partner is recorded as failed
		TimeoutPerPage time.Duration `env:"SCAN_TIMEOUT_PER_PAGE" env-default:"5s" yaml:"timeoutPerPage"`
		// DelayBetweenRequests is the pause between two successive partner fetches
		DelayBetweenRequests time.Duration `env:"SCAN_DELAY_BETWEEN_REQUESTS" env-default:"500ms" yaml:"delayBetweenRequests"` //nolint: lll
		// MaxRetries is how many times a failed (non-timeout) fetch is retried
		MaxRetries int `env:"SCAN_MAX_RETRIES" env-default:"0" yaml:"maxRetries"`
		// RetryInitialInterval is the first backoff interval between retries
		RetryInitialInterval time.Duration `env:"SCAN_RETRY_INITIAL_INTERVAL" env-default:"500ms" yaml:"retryInitialInterval"` //nolint: lll
		// IncludeNotLaunched also scans partners whose page is not public yet
		IncludeNotLaunched bool `env:"SCAN_INCLUDE_NOT_LAUNCHED" env-default:"false" yaml:"includeNotLaunched"`
		// UserAgent is sent with every page request
		UserAgent string `env:"SCAN_USER_AGENT" yaml:"userAgent"`
		// MaxBodyBytes limits how much of a page is read
		MaxBodyBytes int64 `env:"SCAN_MAX_BODY_BYTES" env-default:"8388608" yaml:"maxBodyBytes"`
		// PartnersFile is a YAML partner list; the built-in list is used when empty
		PartnersFile string `env:"SCAN_PARTNERS_FILE" yaml:"partnersFile"`
		// VocabularyFile is a YAML status vocabulary; the built-in one is used when empty
		VocabularyFile string `env:"SCAN_VOCABULARY_FILE" yaml:"vocabularyFile"`
		// OutputDir is where the scan command writes its reports
		OutputDir string `env:"SCAN_OUTPUT_DIR" env-default:"." yaml:"outputDir"`
	} `yaml:"scan"`

	// Worker configures the background scan job
	Worker struct {
		// Interval between periodic scans
		Interval time.Duration `env:"WORKER_INTERVAL" env-default:"6h" yaml:"interval"`
		// DisablePeriodic turns periodic scans off; scans then only run when requested through the API
		DisablePeriodic bool `env:"WORKER_DISABLE_PERIODIC" env-default:"false" yaml:"disablePeriodic"`
		// MaxAttempts is the number of times a failed scan job is attempted
		MaxAttempts int `env:"WORKER_MAX_ATTEMPTS" env-default:"3" yaml:"maxAttempts"`
		// JobTimeout bounds a whole background scan
		JobTimeout time.Duration `env:"WORKER_JOB_TIMEOUT" env-default:"30m" yaml:"jobTimeout"`
	} `yaml:"worker"`

	// Auth contains the keys used to sign and verify API tokens
	Auth struct {
		// PublicKeyPath is the PEM encoded RSA public key used to verify tokens
		PublicKeyPath string `env:"AUTH_PUBLIC_KEY_PATH" env-default:"keys/public.pem" yaml:"publicKeyPath"`
		// PrivateKeyPath is the PEM encoded RSA private key used by the jwt command
		PrivateKeyPath string `env:"AUTH_PRIVATE_KEY_PATH" env-default:"keys/private.pem" yaml:"privateKeyPath"`
		// Issuer is the expected "iss" claim
		Issuer string `env:"AUTH_ISSUER" env-default:"domainscan" yaml:"issuer"`
	} `yaml:"auth"`

	// HTTP configures the API server. RequestTimeout bounds a single handler;
	// the other timeouts map to the http.Server fields of the same name.
	HTTP struct {
		Addr              string        `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"30s" yaml:"readTimeout"`
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"5s" yaml:"readHeaderTimeout"`
		WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"1m" yaml:"writeTimeout"`
		IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		RequestTimeout    time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"15s" yaml:"requestTimeout"`
		// MaxHeaderBytes of 0 keeps http.DefaultMaxHeaderBytes
		MaxHeaderBytes int    `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		MetricsPath    string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// AllowedOrigin is echoed in Access-Control-Allow-Origin
		AllowedOrigin string `env:"HTTP_ALLOWED_ORIGIN" env-default:"*" yaml:"allowedOrigin"`
	} `yaml:"http"`

	// Database is where runs and the job queue live.
	Database struct {
		Username     string `env:"DATABASE_USERNAME" env-default:"domainscan" yaml:"username"`
		Password     string `env:"DATABASE_PASSWORD" env-default:"domainscan" yaml:"password"`
		Host         string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		Port         int    `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		SslMode      string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		DatabaseName string `env:"DATABASE_NAME" env-default:"domainscan" yaml:"name"`
		// pool limits; MaxIdleConnections becomes the pool minimum
		MaxOpenConnections int           `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
		MaxIdleConnections int           `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"2" yaml:"maxIdleConnections"`
		ConnMaxLifetime    time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"30m" yaml:"connMaxLifetime"`
		ConnMaxIdleTime    time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"5m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	// GracefulShutdownTimeout bounds how long serve waits for requests and jobs on exit
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load reads configPath, applies the environment and validates the result.
func Load(configPath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that cleanenv cannot express as defaults.
func (c *Config) Validate() error {
	switch {
	case c.Scan.TimeoutPerPage <= 0:
		return fmt.Errorf("scan.timeoutPerPage must be positive, got %s", c.Scan.TimeoutPerPage)
	case c.Scan.DelayBetweenRequests < 0:
		return fmt.Errorf("scan.delayBetweenRequests must not be negative, got %s", c.Scan.DelayBetweenRequests)
	case c.Scan.MaxRetries < 0:
		return fmt.Errorf("scan.maxRetries must not be negative, got %d", c.Scan.MaxRetries)
	case c.Worker.Interval <= 0:
		return fmt.Errorf("worker.interval must be positive, got %s", c.Worker.Interval)
	}

	return nil
}
