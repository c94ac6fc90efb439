// v1
// mqtt_test.go

package broker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Error() error                   { return t.err }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeClient struct {
	connectErr  error
	connected   bool
	disconnects int
}

func (c *fakeClient) Connect() mqtt.Token {
	if c.connectErr == nil {
		c.connected = true
	}
	return fakeToken{err: c.connectErr}
}

func (c *fakeClient) Disconnect(uint) {
	c.disconnects++
	c.connected = false
}

func (c *fakeClient) IsConnected() bool      { return c.connected }
func (c *fakeClient) IsConnectionOpen() bool { return c.connected }
func (c *fakeClient) Publish(string, byte, bool, interface{}) mqtt.Token {
	return fakeToken{}
}
func (c *fakeClient) Subscribe(string, byte, mqtt.MessageHandler) mqtt.Token {
	return fakeToken{}
}
func (c *fakeClient) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return fakeToken{}
}
func (c *fakeClient) Unsubscribe(...string) mqtt.Token        { return fakeToken{} }
func (c *fakeClient) AddRoute(string, mqtt.MessageHandler)    {}
func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader { return mqtt.ClientOptionsReader{} }

func withFakeClient(t *testing.T, client *fakeClient) **mqtt.ClientOptions {
	t.Helper()
	var captured *mqtt.ClientOptions
	orig := newMQTTClient
	newMQTTClient = func(o *mqtt.ClientOptions) mqtt.Client {
		captured = o
		return client
	}
	t.Cleanup(func() { newMQTTClient = orig })
	return &captured
}

func TestConnectFailureDisconnectsClient(t *testing.T) {
	client := &fakeClient{connectErr: errors.New("not authorized")}
	withFakeClient(t, client)

	b := NewMQTTBackend(testLogger(), nil)
	cfg := Config{Host: "broker.local", Port: 1883, TopicPrefix: "t"}
	if err := b.Connect(context.Background(), cfg); err == nil {
		t.Fatalf("connect failure not surfaced")
	}
	if client.disconnects != 1 {
		t.Fatalf("failed client not cleaned up: %d disconnects", client.disconnects)
	}
	if b.Connected() {
		t.Fatalf("backend reports connected after failed connect")
	}
}

func TestConnectSchemeFollowsTLSToggle(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "plain", cfg: Config{Host: "broker.local", Port: 1883}, want: "tcp://broker.local:1883"},
		{name: "tls", cfg: Config{Host: "broker.local", Port: 8883, TLS: true}, want: "tls://broker.local:8883"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{}
			captured := withFakeClient(t, client)

			b := NewMQTTBackend(testLogger(), nil)
			if err := b.Connect(context.Background(), tc.cfg); err != nil {
				t.Fatalf("connect: %v", err)
			}
			opts := *captured
			if len(opts.Servers) != 1 || opts.Servers[0].String() != tc.want {
				t.Fatalf("broker uri: got %v want %s", opts.Servers, tc.want)
			}
			if tc.cfg.TLS && opts.TLSConfig == nil {
				t.Fatalf("tls enabled but no tls config set")
			}
		})
	}
}

func TestTLSConfigCABundle(t *testing.T) {
	tc, err := tlsConfig("")
	if err != nil {
		t.Fatalf("empty ca path: %v", err)
	}
	if tc.RootCAs != nil {
		t.Fatalf("system roots expected when no ca bundle is configured")
	}

	if _, err := tlsConfig(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Fatalf("missing ca file accepted")
	}

	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o644); err != nil {
		t.Fatalf("write garbage pem: %v", err)
	}
	if _, err := tlsConfig(garbage); err == nil {
		t.Fatalf("garbage ca file accepted")
	}
}
