// v2
// config.go

package broker

import (
	"fmt"
	"strings"
	"sync"
)

// Supported broker kinds. The backend is chosen at startup; reconfiguration
// changes endpoint, topic and credentials but not the transport.
const (
	KindMQTT  = "mqtt"
	KindKafka = "kafka"
)

// Config is one immutable snapshot of the external-publisher connection
// parameters. A reconfiguration builds a whole new Config with the next
// revision; fields are never mutated in place, so the publisher can never
// observe a mix of old and new values.
type Config struct {
	Kind           string `json:"kind"`
	Host           string `json:"host"`
	Port           int    `json:"port"`
	TopicPrefix    string `json:"topicPrefix"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"-"`
	TLS            bool   `json:"tls"`
	CACert         string `json:"caCert,omitempty"`
	PublishEnabled bool   `json:"publishEnabled"`
	Revision       uint64 `json:"revision"`
}

// DataTopic is where snapshots are published.
func (c Config) DataTopic() string { return c.TopicPrefix + "/data" }

// ControlTopic carries inbound PAUSE/RESUME commands (MQTT backend only).
func (c Config) ControlTopic() string { return c.TopicPrefix + "/control" }

// Addr returns host:port.
func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// Redacted returns a copy safe for the configuration read surface.
func (c Config) Redacted() Config {
	c.Username = ""
	c.Password = ""
	return c
}

// kafkaTopic maps an MQTT-style slash topic onto Kafka's dotted naming.
func kafkaTopic(topic string) string {
	return strings.ReplaceAll(topic, "/", ".")
}

// ConfigStore holds the current Config and swaps it atomically. Install is
// only called by the control processor after validation.
type ConfigStore struct {
	mu  sync.RWMutex
	cur Config
}

// NewConfigStore installs the boot configuration as revision 1.
func NewConfigStore(initial Config) *ConfigStore {
	initial.Revision = 1
	return &ConfigStore{cur: initial}
}

// Current returns the latest installed snapshot.
func (s *ConfigStore) Current() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Install swaps in the next configuration, assigning the next revision, and
// returns the installed snapshot.
func (s *ConfigStore) Install(next Config) Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	next.Kind = s.cur.Kind
	next.Revision = s.cur.Revision + 1
	s.cur = next
	return next
}
