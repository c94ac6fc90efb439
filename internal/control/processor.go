// v2
// processor.go

package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pratikpanchal22/multi-source-energy-meter/internal/broker"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/metrics"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/sim"
)

// Source is the processor's view of one simulator. Only the processor mutates
// source state; everyone else reads.
type Source interface {
	Name() string
	Start()
	Stop()
	Reset()
	SetInterval(d time.Duration)
	State() sim.SourceState
}

type request struct {
	action Action
	reply  chan Result
}

// Processor is the single serialization point for all mutating requests.
// Actions are validated first and applied one at a time by the run loop, so
// no two actions ever interleave their effects.
type Processor struct {
	log     *slog.Logger
	sources map[string]Source
	brokers *broker.ConfigStore
	reqs    chan request
}

// New creates a processor over the given sources and broker config store.
func New(log *slog.Logger, sources []Source, brokers *broker.ConfigStore) *Processor {
	m := make(map[string]Source, len(sources))
	for _, s := range sources {
		m[s.Name()] = s
	}
	return &Processor{
		log:     log.With(slog.String("component", "control")),
		sources: m,
		brokers: brokers,
		reqs:    make(chan request),
	}
}

// Run starts the serialized apply loop.
func (p *Processor) Run(ctx context.Context) {
	go func() {
		for {
			select {
			case req := <-p.reqs:
				res := p.handle(req.action)
				req.reply <- res
			case <-ctx.Done():
				p.log.Info("control processor stopped")
				return
			}
		}
	}()
}

// Apply submits one action and waits for its acknowledgment or rejection.
func (p *Processor) Apply(ctx context.Context, a Action) Result {
	req := request{action: a, reply: make(chan Result, 1)}
	select {
	case p.reqs <- req:
	case <-ctx.Done():
		return reject("processor unavailable")
	}
	select {
	case res := <-req.reply:
		return res
	case <-ctx.Done():
		return reject("processor unavailable")
	}
}

func (p *Processor) handle(a Action) Result {
	res := p.dispatch(a)
	result := "accepted"
	if !res.Accepted {
		result = "rejected"
		p.log.Warn("control action rejected", "action", a.Kind, "source", a.Source, "reason", res.Reason)
	} else {
		p.log.Info("control action applied", "action", a.Kind, "source", a.Source)
	}
	metrics.IncControlAction(metricKind(a.Kind), result)
	return res
}

// metricKind keeps the action label set bounded: client-supplied strings
// outside the known action kinds are all counted as "unknown".
func metricKind(kind string) string {
	switch kind {
	case KindStart, KindStop, KindReset, KindSetInterval, KindReconfigureBroker:
		return kind
	}
	return "unknown"
}

func (p *Processor) dispatch(a Action) Result {
	switch a.Kind {
	case KindStart, KindStop, KindReset:
		src, ok := p.sources[a.Source]
		if !ok {
			return reject(fmt.Sprintf("unknown source %q", a.Source))
		}
		switch a.Kind {
		case KindStart:
			src.Start()
		case KindStop:
			src.Stop()
		case KindReset:
			src.Reset()
		}
		return accept(src.State())

	case KindSetInterval:
		src, ok := p.sources[a.Source]
		if !ok {
			return reject(fmt.Sprintf("unknown source %q", a.Source))
		}
		if a.Value <= 0 {
			return reject("interval must be a positive number of milliseconds")
		}
		src.SetInterval(time.Duration(a.Value * float64(time.Millisecond)))
		return accept(src.State())

	case KindReconfigureBroker:
		return p.reconfigureBroker(a.Broker)

	default:
		return reject(fmt.Sprintf("unknown action %q", a.Kind))
	}
}

// reconfigureBroker validates the partial update against the current
// configuration and installs a new revision. Validation failures leave the
// installed configuration untouched.
func (p *Processor) reconfigureBroker(u *BrokerUpdate) Result {
	if u == nil {
		return reject("missing broker configuration")
	}

	next := p.brokers.Current()
	if u.Host != nil {
		if *u.Host == "" {
			return reject("broker host must not be empty")
		}
		next.Host = *u.Host
	}
	if u.Port != nil {
		if *u.Port < 1 || *u.Port > 65535 {
			return reject(fmt.Sprintf("broker port %d out of range [1, 65535]", *u.Port))
		}
		next.Port = *u.Port
	}
	if u.TopicPrefix != nil {
		if *u.TopicPrefix == "" {
			return reject("broker topic must not be empty")
		}
		next.TopicPrefix = *u.TopicPrefix
	}
	if u.Credentials != nil {
		next.Username = u.Credentials.Username
		next.Password = u.Credentials.Password
	}
	if u.PublishEnabled != nil {
		next.PublishEnabled = *u.PublishEnabled
	}

	installed := p.brokers.Install(next)
	p.log.Info("broker reconfigured", "addr", installed.Addr(), "revision", installed.Revision)
	return accept(installed.Redacted())
}
