// Package sensing turns raw sensor samples into the shared raw reading and
// calibrated height.
package sensing

import (
	"context"
	"slices"
	"time"

	"deskctl-go/bus"
	"deskctl-go/calibration"
	"deskctl-go/types"
	"deskctl-go/x/cell"
	"deskctl-go/x/logx"
)

// Source yields one raw ADC sample.
type Source interface {
	Sample() (uint16, error)
}

type Config struct {
	PeriodMS int `json:"period_ms"`
	// Samples per reading; the median is used.
	Samples int `json:"samples"`
}

func (c Config) withDefaults() Config {
	if c.PeriodMS <= 0 {
		c.PeriodMS = 10
	}
	if c.Samples <= 0 {
		c.Samples = 16
	}
	return c
}

// Reader gives read access to the latest measurement.
type Reader struct {
	raw    *cell.Reader[uint16]
	height *cell.Reader[types.Height]
}

func (r *Reader) Raw() uint16          { return r.raw.Get() }
func (r *Reader) Height() types.Height { return r.height.Get() }

// Service is the only writer of the raw and height cells.
type Service struct {
	src    Source
	conn   *bus.Connection
	cfg    Config
	raw    *cell.Writer[uint16]
	height *cell.Writer[types.Height]
	table  calibration.Table
	buf    []uint16
	log    logx.Logger
}

func New(src Source, conn *bus.Connection, cfg Config) (*Service, *Reader) {
	cfg = cfg.withDefaults()
	rawW, rawR := cell.New[uint16](0)
	hW, hR := cell.New(types.Height{})
	return &Service{
			src:    src,
			conn:   conn,
			cfg:    cfg,
			raw:    rawW,
			height: hW,
			buf:    make([]uint16, 0, cfg.Samples),
			log:    logx.New("sensing"),
		},
		&Reader{raw: rawR, height: hR}
}

// Median of samples; even counts average the two middle values.
func Median(samples []uint16) uint16 {
	if len(samples) == 0 {
		return 0
	}
	slices.Sort(samples)
	n := len(samples)
	if n%2 == 1 {
		return samples[n/2]
	}
	return uint16((uint32(samples[n/2-1]) + uint32(samples[n/2])) / 2)
}

// read collects one filtered reading. A failed sample drops the reading.
func (s *Service) read() (uint16, error) {
	s.buf = s.buf[:0]
	for i := 0; i < s.cfg.Samples; i++ {
		v, err := s.src.Sample()
		if err != nil {
			return 0, err
		}
		s.buf = append(s.buf, v)
	}
	return Median(s.buf), nil
}

func (s *Service) publish(raw uint16) {
	h := types.Height{MM: s.table.Transform(raw), Calibrated: !s.table.IsEmpty()}
	s.raw.Set(raw)
	if h != s.height.Reader().Get() {
		s.height.Set(h)
		if s.conn != nil {
			s.conn.Publish(s.conn.NewMessage(types.TopicHeight, h, true))
		}
	}
}

// Run samples until ctx ends. Calibration updates arrive on
// types.TopicCalibration.
func (s *Service) Run(ctx context.Context) error {
	var calCh <-chan *bus.Message
	if s.conn != nil {
		sub := s.conn.Subscribe(types.TopicCalibration)
		defer s.conn.Unsubscribe(sub)
		calCh = sub.Channel()
	}

	tick := time.NewTicker(time.Duration(s.cfg.PeriodMS) * time.Millisecond)
	defer tick.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-calCh:
			if t, ok := msg.Payload.(calibration.Table); ok {
				s.table = t
				s.log.Infof("calibration: %d points", t.Len())
				s.publish(s.raw.Reader().Get())
			}
		case <-tick.C:
			raw, err := s.read()
			if err != nil {
				// Skip the cycle; log the first failure of a run only.
				if failures == 0 {
					s.log.Warnf("sample: %v", err)
				}
				failures++
				continue
			}
			if failures > 0 {
				s.log.Infof("sampling recovered after %d failures", failures)
				failures = 0
			}
			s.publish(raw)
		}
	}
}
