// Package buttons samples the keypad lines and feeds debounced edges to the
// input tracker.
package buttons

import (
	"context"
	"time"

	"deskctl-go/bus"
	"deskctl-go/services/input"
	"deskctl-go/types"
	"deskctl-go/x/logx"
)

// Pin reads a digital input line. machine.Pin satisfies it.
type Pin interface {
	Get() bool
}

type Config struct {
	PeriodMS int `json:"period_ms"`
	// StableSamples identical samples are needed before a level counts.
	StableSamples int `json:"stable_samples"`
	// Invert treats a low line as pressed (pull-up wiring).
	Invert bool `json:"invert"`
}

func (c Config) withDefaults() Config {
	if c.PeriodMS <= 0 {
		c.PeriodMS = 2
	}
	if c.StableSamples <= 0 {
		c.StableSamples = 5
	}
	return c
}

type line struct {
	button types.Button
	pin    Pin
	raw    bool // last sample
	run    int  // identical samples in a row
	level  bool // debounced level
}

// Sampler owns the input.Sampler writer handle.
type Sampler struct {
	cfg    Config
	lines  []*line
	out    *input.Sampler
	conn   *bus.Connection
	remote types.Button
	log    logx.Logger
}

// New wires pins to buttons. Buttons without a pin can still be driven
// remotely through types.TopicKeys when conn is set.
func New(pins map[types.Button]Pin, out *input.Sampler, conn *bus.Connection, cfg Config) *Sampler {
	s := &Sampler{cfg: cfg.withDefaults(), out: out, conn: conn, log: logx.New("buttons")}
	for _, b := range types.Buttons {
		if p, ok := pins[b]; ok && p != nil {
			s.lines = append(s.lines, &line{button: b, pin: p})
		}
	}
	return s
}

func (s *Sampler) sample(l *line) bool {
	v := l.pin.Get()
	if s.cfg.Invert {
		v = !v
	}
	return v
}

// step takes one sample of every line and returns the debounced held set.
func (s *Sampler) step() types.Button {
	var held types.Button
	for _, l := range s.lines {
		v := s.sample(l)
		if v == l.raw {
			if l.run < s.cfg.StableSamples {
				l.run++
			}
		} else {
			l.raw = v
			l.run = 1
		}
		if l.run >= s.cfg.StableSamples {
			l.level = l.raw
		}
		if l.level {
			held |= l.button
		}
	}
	return held
}

func (s *Sampler) apply(held types.Button) {
	for _, b := range types.Buttons {
		s.out.Set(b, held.Has(b))
	}
}

// Run samples until ctx ends.
func (s *Sampler) Run(ctx context.Context) error {
	var keys <-chan *bus.Message
	if s.conn != nil {
		sub := s.conn.Subscribe(types.TopicKeys)
		defer s.conn.Unsubscribe(sub)
		keys = sub.Channel()
	}

	tick := time.NewTicker(time.Duration(s.cfg.PeriodMS) * time.Millisecond)
	defer tick.Stop()
	s.log.Infof("sampling %d lines every %dms", len(s.lines), s.cfg.PeriodMS)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-keys:
			if b, ok := msg.Payload.(types.Button); ok {
				s.remote = b & types.ButtonAll
			}
		case <-tick.C:
			s.apply(s.step() | s.remote)
		}
	}
}
