// v1
// config_test.go

package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LISTEN_ADDR", "TICK_INTERVAL_MS", "SUBSCRIBER_BUFFER",
		"BROKER_KIND", "BROKER_HOST", "BROKER_PORT", "BROKER_USERNAME", "BROKER_PASSWORD",
		"BROKER_TOPIC_PREFIX", "BROKER_PUBLISH_ENABLED", "BROKER_TLS_ENABLED", "BROKER_CA_CERT",
		"PUBLISH_INTERVAL_MS", "PUBLISH_BACKOFF_MIN_MS", "PUBLISH_BACKOFF_MAX_MS",
		"PUBLISH_ATTEMPT_TIMEOUT_MS", "PROPERTIES_PATH",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(testLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("listen addr: %q", cfg.ListenAddr)
	}
	if cfg.TickInterval != time.Second {
		t.Fatalf("tick interval: %s", cfg.TickInterval)
	}
	if cfg.SubscriberBuffer != 16 {
		t.Fatalf("subscriber buffer: %d", cfg.SubscriberBuffer)
	}
	if cfg.BrokerKind != "mqtt" || cfg.BrokerPort != 1883 {
		t.Fatalf("broker defaults: kind=%q port=%d", cfg.BrokerKind, cfg.BrokerPort)
	}
	if cfg.TopicPrefix != "mock/energy_meter/id001" {
		t.Fatalf("topic prefix: %q", cfg.TopicPrefix)
	}
	if !cfg.PublishEnabled {
		t.Fatalf("publish should default to enabled")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("TICK_INTERVAL_MS", "200")
	t.Setenv("BROKER_KIND", "KAFKA")
	t.Setenv("BROKER_HOST", "kafka.local")
	t.Setenv("BROKER_PORT", "9092")
	t.Setenv("BROKER_PUBLISH_ENABLED", "false")
	t.Setenv("BROKER_TLS_ENABLED", "true")
	t.Setenv("BROKER_CA_CERT", "/etc/certs/ca.pem")

	cfg, err := Load(testLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("listen addr: %q", cfg.ListenAddr)
	}
	if cfg.TickInterval != 200*time.Millisecond {
		t.Fatalf("tick interval: %s", cfg.TickInterval)
	}
	if cfg.BrokerKind != "kafka" || cfg.BrokerHost != "kafka.local" || cfg.BrokerPort != 9092 {
		t.Fatalf("broker: %+v", cfg)
	}
	if cfg.PublishEnabled {
		t.Fatalf("publish enabled despite override")
	}
	if !cfg.BrokerTLS || cfg.BrokerCACert != "/etc/certs/ca.pem" {
		t.Fatalf("tls overrides not applied: tls=%v ca=%q", cfg.BrokerTLS, cfg.BrokerCACert)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad broker kind", key: "BROKER_KIND", value: "carrier-pigeon"},
		{name: "port out of range", key: "BROKER_PORT", value: "70000"},
		{name: "port negative", key: "BROKER_PORT", value: "-1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(testLogger()); err == nil {
				t.Fatalf("invalid %s=%q accepted", tc.key, tc.value)
			}
		})
	}
}

func TestLoadInvalidNumbersFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TICK_INTERVAL_MS", "soon")
	t.Setenv("SUBSCRIBER_BUFFER", "many")

	cfg, err := Load(testLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TickInterval != time.Second || cfg.SubscriberBuffer != 16 {
		t.Fatalf("defaults not applied: tick=%s buffer=%d", cfg.TickInterval, cfg.SubscriberBuffer)
	}
}

func TestPropertiesOverlay(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "meter.properties")
	content := `
# comment
// another comment
broker.host = props.broker
broker.port = 8883
tick.interval.ms = 500
broker.publish.enabled = false
not-a-pair
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write properties: %v", err)
	}
	t.Setenv("PROPERTIES_PATH", path)

	cfg, err := Load(testLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BrokerHost != "props.broker" || cfg.BrokerPort != 8883 {
		t.Fatalf("properties not applied: %+v", cfg)
	}
	if cfg.TickInterval != 500*time.Millisecond {
		t.Fatalf("tick interval from properties: %s", cfg.TickInterval)
	}
	if cfg.PublishEnabled {
		t.Fatalf("publish.enabled from properties not applied")
	}
}

func TestPropertiesFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROPERTIES_PATH", filepath.Join(t.TempDir(), "nope.properties"))
	if _, err := Load(testLogger()); err == nil {
		t.Fatalf("missing properties file accepted")
	}
}
