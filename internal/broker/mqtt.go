// v2
// mqtt.go

package broker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// ErrAttemptTimeout marks a connect or publish that did not finish within its
// context deadline.
var ErrAttemptTimeout = errors.New("broker attempt timed out")

// newMQTTClient is a seam for tests.
var newMQTTClient = mqtt.NewClient

// MQTTBackend publishes snapshots over MQTT and subscribes to the control
// topic for inbound PAUSE/RESUME commands. The publisher loop owns
// reconnection, so auto-reconnect stays off.
type MQTTBackend struct {
	log       *slog.Logger
	onControl func(payload []byte)

	mu     sync.Mutex
	client mqtt.Client
}

// NewMQTTBackend creates the backend. onControl may be nil when inbound
// control is not wanted.
func NewMQTTBackend(log *slog.Logger, onControl func(payload []byte)) *MQTTBackend {
	return &MQTTBackend{
		log:       log.With(slog.String("component", "mqtt")),
		onControl: onControl,
	}
}

func (b *MQTTBackend) Connect(ctx context.Context, cfg Config) error {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURI(cfg)).
		SetClientID("metersim-" + uuid.NewString()[:8]).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectTimeout(timeLeft(ctx))
	if cfg.Username != "" || cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.TLS {
		tc, err := tlsConfig(cfg.CACert)
		if err != nil {
			return fmt.Errorf("mqtt tls: %w", err)
		}
		opts.SetTLSConfig(tc)
	}

	client := newMQTTClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeLeft(ctx)) {
		client.Disconnect(0)
		return ErrAttemptTimeout
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return fmt.Errorf("mqtt connect: %w", err)
	}

	if b.onControl != nil {
		handler := func(_ mqtt.Client, msg mqtt.Message) {
			b.log.Info("control message received", "topic", msg.Topic())
			b.onControl(msg.Payload())
		}
		sub := client.Subscribe(cfg.ControlTopic(), 0, handler)
		if !sub.WaitTimeout(timeLeft(ctx)) || sub.Error() != nil {
			// Publishing still works without the control subscription.
			b.log.Warn("control topic subscribe failed", "topic", cfg.ControlTopic(), "err", sub.Error())
		} else {
			b.log.Info("subscribed to control topic", "topic", cfg.ControlTopic())
		}
	}

	b.mu.Lock()
	b.client = client
	b.mu.Unlock()
	return nil
}

func (b *MQTTBackend) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	client := b.client
	b.mu.Unlock()
	if client == nil {
		return errors.New("mqtt client not connected")
	}

	token := client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(timeLeft(ctx)) {
		return ErrAttemptTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}

func (b *MQTTBackend) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client != nil && b.client.IsConnectionOpen()
}

func (b *MQTTBackend) Close() {
	b.mu.Lock()
	client := b.client
	b.client = nil
	b.mu.Unlock()
	if client != nil {
		client.Disconnect(250)
	}
}

// brokerURI picks the scheme from the TLS toggle.
func brokerURI(cfg Config) string {
	scheme := "tcp"
	if cfg.TLS {
		scheme = "tls"
	}
	return fmt.Sprintf("%s://%s", scheme, cfg.Addr())
}

// tlsConfig builds the client TLS configuration, trusting the CA bundle at
// caPath when one is configured and the system roots otherwise.
func tlsConfig(caPath string) (*tls.Config, error) {
	tc := &tls.Config{MinVersion: tls.VersionTLS12}
	if caPath == "" {
		return tc, nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("read ca cert: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", caPath)
	}
	tc.RootCAs = pool
	return tc, nil
}

// timeLeft converts a context deadline into the wait-timeout paho expects.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 5 * time.Second
	}
	left := time.Until(deadline)
	if left <= 0 {
		return time.Millisecond
	}
	return left
}
