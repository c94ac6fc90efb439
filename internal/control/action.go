package control

// Action kinds accepted by the processor. Anything else is rejected before it
// can touch state.
const (
	KindStart             = "start"
	KindStop              = "stop"
	KindReset             = "reset"
	KindSetInterval       = "set_interval"
	KindReconfigureBroker = "reconfigure_broker"
)

// Credentials carries optional broker credentials in a reconfiguration.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// BrokerUpdate is a partial update of the broker configuration. Nil fields
// keep their current value; the processor merges the update into a fresh
// Config snapshot so no partial state is ever visible.
type BrokerUpdate struct {
	Host           *string      `json:"host,omitempty"`
	Port           *int         `json:"port,omitempty"`
	TopicPrefix    *string      `json:"topic,omitempty"`
	Credentials    *Credentials `json:"credentials,omitempty"`
	PublishEnabled *bool        `json:"publishEnabled,omitempty"`
}

// Action is one control request, a tagged variant over the kinds above.
type Action struct {
	Kind   string        `json:"action"`
	Source string        `json:"source,omitempty"`
	Value  float64       `json:"value,omitempty"`
	Broker *BrokerUpdate `json:"broker,omitempty"`
}

// Result acknowledges or rejects an action. State carries the resulting
// source state or the redacted broker configuration.
type Result struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	State    any    `json:"state,omitempty"`
}

func reject(reason string) Result {
	return Result{Accepted: false, Reason: reason}
}

func accept(state any) Result {
	return Result{Accepted: true, State: state}
}
