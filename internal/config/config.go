// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every flag name to form its environment variable.
const EnvPrefix = "KINGSCUP"

// Config is the server's runtime configuration.
type Config struct {
	Bind      string
	Port      int
	PublicURL string
	TLSCert   string
	TLSKey    string
	Verbose   bool
	LogJSON   bool

	CatalogFile string
	ImageDir    string

	DatabaseURL string
	RedisAddr   string
	RedisDB     int
	QueueName   string

	OutboundQueue   int
	PingInterval    time.Duration
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	RateLimit       float64
	RateBurst       int
	ShutdownTimeout time.Duration

	BatchSize  int
	FlushEvery time.Duration
}

// Validate reports the first setting the server cannot run with.
func (c *Config) Validate() error {
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.OutboundQueue < 1 {
		return fmt.Errorf("invalid outbound queue size: %d", c.OutboundQueue)
	}
	if c.PingInterval <= 0 || c.WriteTimeout <= 0 {
		return errors.New("ping interval and write timeout must be positive")
	}
	if c.RateLimit <= 0 || c.RateBurst < 1 {
		return fmt.Errorf("invalid rate limit %v/s burst %d", c.RateLimit, c.RateBurst)
	}
	if c.PublicURL != "" && !strings.HasPrefix(c.PublicURL, "http://") && !strings.HasPrefix(c.PublicURL, "https://") {
		return fmt.Errorf("public url must start with http:// or https://: %q", c.PublicURL)
	}
	return nil
}

// ValidateHistorian checks the settings the historian needs.
func (c *Config) ValidateHistorian() error {
	if c.DatabaseURL == "" {
		return errors.New("--database-url is required")
	}
	if c.RedisAddr == "" {
		return errors.New("--redis-addr is required")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("invalid batch size: %d", c.BatchSize)
	}
	if c.FlushEvery <= 0 {
		return errors.New("flush interval must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

func (c *Config) Scheme() string {
	if c.TLSCert != "" && c.TLSKey != "" {
		return "https"
	}
	return "http"
}

// NewLogger builds the process logger: Info by default, Debug when verbose.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if c.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	if c.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// RegisterServerFlags adds the server's flags to fs.
func RegisterServerFlags(fs *pflag.FlagSet, c *Config) {
	normalize(fs)
	registerStorageFlags(fs, c)
	fs.StringVarP(&c.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: KINGSCUP_BIND)")
	fs.IntVarP(&c.Port, "port", "p", 8080, "port to listen on (env: KINGSCUP_PORT)")
	fs.StringVar(&c.PublicURL, "public-url", "", "base URL used in join links, defaults to the request host (env: KINGSCUP_PUBLIC_URL)")
	fs.StringVar(&c.TLSCert, "tls-cert", "", "path to tls certificate (env: KINGSCUP_TLS_CERT)")
	fs.StringVar(&c.TLSKey, "tls-key", "", "path to tls keyfile (env: KINGSCUP_TLS_KEY)")
	fs.StringVar(&c.CatalogFile, "catalog", "", "JSON card catalog to load instead of the built-in deck (env: KINGSCUP_CATALOG)")
	fs.StringVar(&c.ImageDir, "image-dir", "", "directory served under /images (env: KINGSCUP_IMAGE_DIR)")
	fs.IntVar(&c.OutboundQueue, "outbound-queue", 32, "per-connection outbound message buffer (env: KINGSCUP_OUTBOUND_QUEUE)")
	fs.DurationVar(&c.PingInterval, "ping-interval", 30*time.Second, "websocket keepalive ping interval (env: KINGSCUP_PING_INTERVAL)")
	fs.DurationVar(&c.WriteTimeout, "write-timeout", 5*time.Second, "websocket write timeout (env: KINGSCUP_WRITE_TIMEOUT)")
	fs.DurationVar(&c.ReadTimeout, "read-timeout", 10*time.Second, "HTTP read header timeout (env: KINGSCUP_READ_TIMEOUT)")
	fs.Float64Var(&c.RateLimit, "rate-limit", 10, "inbound messages per second per connection (env: KINGSCUP_RATE_LIMIT)")
	fs.IntVar(&c.RateBurst, "rate-burst", 20, "inbound message burst per connection (env: KINGSCUP_RATE_BURST)")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", 5*time.Second, "grace period for in-flight requests on shutdown (env: KINGSCUP_SHUTDOWN_TIMEOUT)")
}

// RegisterHistorianFlags adds the historian's flags to fs.
func RegisterHistorianFlags(fs *pflag.FlagSet, c *Config) {
	normalize(fs)
	registerStorageFlags(fs, c)
	fs.IntVar(&c.BatchSize, "batch-size", 20, "actions per database transaction (env: KINGSCUP_BATCH_SIZE)")
	fs.DurationVar(&c.FlushEvery, "flush-every", 500*time.Millisecond, "flush a partial batch after this long (env: KINGSCUP_FLUSH_EVERY)")
}

func registerStorageFlags(fs *pflag.FlagSet, c *Config) {
	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "log at debug level (env: KINGSCUP_VERBOSE)")
	fs.BoolVar(&c.LogJSON, "log-json", false, "log as JSON (env: KINGSCUP_LOG_JSON)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "postgres URL; empty disables custom decks (env: KINGSCUP_DATABASE_URL)")
	fs.StringVar(&c.RedisAddr, "redis-addr", "", "redis address; empty disables the action log (env: KINGSCUP_REDIS_ADDR)")
	fs.IntVar(&c.RedisDB, "redis-db", 0, "redis database index (env: KINGSCUP_REDIS_DB)")
	fs.StringVar(&c.QueueName, "queue-name", "kingscup_actions", "redis list session actions are pushed to (env: KINGSCUP_QUEUE_NAME)")
}

func normalize(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

// ApplyEnv fills every flag the command line left unset from its KINGSCUP_* variable.
func ApplyEnv(fs *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var firstErr error
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("env %s_%s: %w", EnvPrefix, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err)
			}
		}
	})
	return firstErr
}
