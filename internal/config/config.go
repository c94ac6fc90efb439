// v2
// config.go

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds runtime configuration for the meter simulator. Values come
// from environment variables with sane defaults, optionally overlaid by a
// key=value .properties file (PROPERTIES_PATH).
type AppConfig struct {
	ListenAddr string

	// Simulation
	TickInterval     time.Duration // default per-source tick
	SubscriberBuffer int           // bounded channel capacity per subscriber

	// External publisher
	BrokerKind      string // "mqtt" or "kafka"
	BrokerHost      string
	BrokerPort      int
	BrokerUsername  string
	BrokerPassword  string
	BrokerTLS       bool
	BrokerCACert    string
	TopicPrefix     string
	PublishEnabled  bool
	PublishInterval time.Duration
	BackoffMin      time.Duration
	BackoffMax      time.Duration
	AttemptTimeout  time.Duration // bound on a single connect/publish attempt
}

// Load reads environment variables and the optional properties file.
func Load(log *slog.Logger) (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:       getEnv("LISTEN_ADDR", ":8080"),
		TickInterval:     getEnvMillis("TICK_INTERVAL_MS", 1000*time.Millisecond, log),
		SubscriberBuffer: getEnvInt("SUBSCRIBER_BUFFER", 16, log),
		BrokerKind:       strings.ToLower(getEnv("BROKER_KIND", "mqtt")),
		BrokerHost:       os.Getenv("BROKER_HOST"),
		BrokerPort:       getEnvInt("BROKER_PORT", 1883, log),
		BrokerUsername:   os.Getenv("BROKER_USERNAME"),
		BrokerPassword:   os.Getenv("BROKER_PASSWORD"),
		BrokerTLS:        getEnvBool("BROKER_TLS_ENABLED", false, log),
		BrokerCACert:     os.Getenv("BROKER_CA_CERT"),
		TopicPrefix:      getEnv("BROKER_TOPIC_PREFIX", "mock/energy_meter/id001"),
		PublishEnabled:   getEnvBool("BROKER_PUBLISH_ENABLED", true, log),
		PublishInterval:  getEnvMillis("PUBLISH_INTERVAL_MS", 1000*time.Millisecond, log),
		BackoffMin:       getEnvMillis("PUBLISH_BACKOFF_MIN_MS", 500*time.Millisecond, log),
		BackoffMax:       getEnvMillis("PUBLISH_BACKOFF_MAX_MS", 30*time.Second, log),
		AttemptTimeout:   getEnvMillis("PUBLISH_ATTEMPT_TIMEOUT_MS", 5*time.Second, log),
	}

	if path := os.Getenv("PROPERTIES_PATH"); path != "" {
		props, err := loadProps(path)
		if err != nil {
			return nil, err
		}
		cfg.applyProps(props, log)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.TickInterval <= 0 {
		return errors.New("tick interval must be positive")
	}
	if c.PublishInterval <= 0 {
		return errors.New("publish interval must be positive")
	}
	if c.SubscriberBuffer <= 0 {
		return errors.New("subscriber buffer must be positive")
	}
	if c.BackoffMin <= 0 || c.BackoffMax < c.BackoffMin {
		return fmt.Errorf("invalid backoff bounds: min=%s max=%s", c.BackoffMin, c.BackoffMax)
	}
	if c.BrokerKind != "mqtt" && c.BrokerKind != "kafka" {
		return fmt.Errorf("unknown broker kind %q (want mqtt or kafka)", c.BrokerKind)
	}
	if c.BrokerPort < 1 || c.BrokerPort > 65535 {
		return fmt.Errorf("broker port %d out of range [1, 65535]", c.BrokerPort)
	}
	return nil
}

func (c *AppConfig) applyProps(m map[string]string, log *slog.Logger) {
	for k, v := range m {
		switch k {
		case "listen.addr":
			c.ListenAddr = v
		case "tick.interval.ms":
			c.TickInterval = parseMillis(k, v, c.TickInterval, log)
		case "subscriber.buffer":
			c.SubscriberBuffer = parseInt(k, v, c.SubscriberBuffer, log)
		case "broker.kind":
			c.BrokerKind = strings.ToLower(v)
		case "broker.host":
			c.BrokerHost = v
		case "broker.port":
			c.BrokerPort = parseInt(k, v, c.BrokerPort, log)
		case "broker.username":
			c.BrokerUsername = v
		case "broker.password":
			c.BrokerPassword = v
		case "broker.tls.enabled":
			c.BrokerTLS = parseBool(k, v, c.BrokerTLS, log)
		case "broker.ca.cert":
			c.BrokerCACert = v
		case "broker.topic.prefix":
			c.TopicPrefix = v
		case "broker.publish.enabled":
			c.PublishEnabled = parseBool(k, v, c.PublishEnabled, log)
		case "publish.interval.ms":
			c.PublishInterval = parseMillis(k, v, c.PublishInterval, log)
		case "publish.backoff.min.ms":
			c.BackoffMin = parseMillis(k, v, c.BackoffMin, log)
		case "publish.backoff.max.ms":
			c.BackoffMax = parseMillis(k, v, c.BackoffMax, log)
		default:
			log.Warn("unknown property ignored", "key", k)
		}
	}
}

func loadProps(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load properties file: %w", err)
	}
	m := map[string]string{}
	for _, ln := range strings.Split(string(b), "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "#") || strings.HasPrefix(ln, "//") {
			continue
		}
		k, v, ok := strings.Cut(ln, "=")
		if !ok {
			continue
		}
		m[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return m, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int, log *slog.Logger) int {
	if v := os.Getenv(key); v != "" {
		return parseInt(key, v, def, log)
	}
	return def
}

func getEnvBool(key string, def bool, log *slog.Logger) bool {
	if v := os.Getenv(key); v != "" {
		return parseBool(key, v, def, log)
	}
	return def
}

func getEnvMillis(key string, def time.Duration, log *slog.Logger) time.Duration {
	if v := os.Getenv(key); v != "" {
		return parseMillis(key, v, def, log)
	}
	return def
}

func parseInt(key, v string, def int, log *slog.Logger) int {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	log.Warn("invalid integer, using default", "key", key, "val", v, "default", def)
	return def
}

func parseBool(key, v string, def bool, log *slog.Logger) bool {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	log.Warn("invalid boolean, using default", "key", key, "val", v, "default", def)
	return def
}

func parseMillis(key, v string, def time.Duration, log *slog.Logger) time.Duration {
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Millisecond
	}
	log.Warn("invalid duration, using default", "key", key, "val", v, "default", def.String())
	return def
}
