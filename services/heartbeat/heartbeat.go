// Package heartbeat prints a periodic status line and flags a drive task
// that stops acknowledging direction requests.
package heartbeat

import (
	"context"
	"fmt"
	"time"

	"deskctl-go/bus"
	"deskctl-go/services/direction"
	"deskctl-go/types"
	"deskctl-go/x/logx"
)

var topicConfigHeartbeat = bus.T("config", "heartbeat")

type Config struct {
	// Interval between beats in seconds.
	Interval float64 `json:"interval"`
	// StallBeats is how many consecutive beats a request may stay
	// unacknowledged before the drive counts as stalled.
	StallBeats int `json:"stall_beats"`
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 2
	}
	if c.StallBeats <= 0 {
		c.StallBeats = 3
	}
	return c
}

func (c Config) period() time.Duration {
	return time.Duration(c.Interval * float64(time.Second))
}

// Sensor is the part of the measurement path the heartbeat reads.
type Sensor interface {
	Height() types.Height
	Raw() uint16
}

// Status is published retained on types.TopicStatus every beat.
type Status struct {
	Height    types.Height    `json:"height"`
	Raw       uint16          `json:"raw"`
	Direction types.Direction `json:"direction"`
	Planned   types.Direction `json:"planned"`
	Pending   bool            `json:"pending"`
	Mode      string          `json:"mode"`
	Stalled   bool            `json:"stalled"`
}

func (s Status) String() string {
	h := "???"
	if s.Height.Calibrated {
		h = s.Height.MM.String()
	}
	planned := "-"
	if s.Pending {
		planned = s.Planned.String()
	}
	return fmt.Sprintf("height=%s raw=%d dir=%v planned=%s mode=%s", h, s.Raw, s.Direction, planned, s.Mode)
}

type Service struct {
	sensor Sensor
	dir    *direction.Observer
	mode   func() string
	conn   *bus.Connection
	cfg    Config
	log    logx.Logger

	pendingBeats int
}

// New creates the service. mode may be nil.
func New(sensor Sensor, dir *direction.Observer, mode func() string, conn *bus.Connection, cfg Config) *Service {
	return &Service{
		sensor: sensor,
		dir:    dir,
		mode:   mode,
		conn:   conn,
		cfg:    cfg.withDefaults(),
		log:    logx.New("heartbeat"),
	}
}

// beat samples the system once and updates the stall counter.
func (s *Service) beat() Status {
	st := Status{
		Height:    s.sensor.Height(),
		Raw:       s.sensor.Raw(),
		Direction: s.dir.Get(),
	}
	st.Planned, st.Pending = s.dir.Planned()
	if s.mode != nil {
		st.Mode = s.mode()
	}

	if st.Pending {
		s.pendingBeats++
	} else {
		s.pendingBeats = 0
	}
	st.Stalled = s.pendingBeats >= s.cfg.StallBeats
	return st
}

func (s *Service) applyConfig(p any) {
	m, ok := p.(map[string]any)
	if !ok {
		return
	}
	if iv, ok := m["interval"].(float64); ok && iv > 0 {
		s.cfg.Interval = iv
		s.log.Infof("interval set to %gs", iv)
	}
	if sb, ok := m["stall_beats"].(float64); ok && sb >= 1 {
		s.cfg.StallBeats = int(sb)
	}
}

func (s *Service) Run(ctx context.Context) error {
	cfgSub := s.conn.Subscribe(topicConfigHeartbeat)
	defer s.conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.cfg.period())
	defer tick.Stop()

	wasStalled := false
	for {
		select {
		case <-ctx.Done():
			s.log.Infof("stopping")
			return ctx.Err()
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return nil
			}
			s.applyConfig(msg.Payload)
			tick.Reset(s.cfg.period())
		case <-tick.C:
			st := s.beat()
			s.log.Infof("%v", st)
			if st.Stalled && !wasStalled {
				s.log.Warnf("drive has not acknowledged %v for %d beats", st.Planned, s.pendingBeats)
			}
			wasStalled = st.Stalled
			s.conn.Publish(s.conn.NewMessage(types.TopicStatus, st, true))
		}
	}
}
