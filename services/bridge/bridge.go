// Package bridge links the desk to a remote console: screen frames go out,
// key levels come back in and join the local buttons.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"deskctl-go/bus"
	"deskctl-go/services/display"
	"deskctl-go/types"
	"deskctl-go/x/logx"
	"deskctl-go/x/timex"

	"go.bug.st/serial"
)

var (
	topicConfigBridge = bus.T("config", "bridge")
	topicState        = bus.T("bridge", "state")
)

// Start runs the bridge until ctx is cancelled. It waits for JSON config on
// config/bridge and (re)configures the link on every message.
func Start(ctx context.Context, conn *bus.Connection) error {
	s := &Service{conn: conn, log: logx.New("bridge")}
	s.run(ctx)
	return ctx.Err()
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Config is the JSON-encoded configuration expected on config/bridge.
type Config struct {
	Transport TransportConfig `json:"transport"`
	// PingS is the keepalive period in seconds; 0 selects 5.
	PingS int `json:"ping_s,omitempty"`
}

type TransportConfig struct {
	// "uart" or "serial".
	Type   string        `json:"type"`
	UART   *UARTConfig   `json:"uart,omitempty"`
	Serial *SerialConfig `json:"serial,omitempty"`
}

// UARTConfig carries enough for an injected dialler to open an MCU UART.
type UARTConfig struct {
	Baud  int `json:"baud"`
	RxPin int `json:"rx_pin"`
	TxPin int `json:"tx_pin"`
}

// SerialConfig names a host serial port.
type SerialConfig struct {
	Port string `json:"port"`
	Baud int    `json:"baud"`
}

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

type Service struct {
	conn *bus.Connection
	log  logx.Logger

	mu     sync.Mutex
	curRun context.CancelFunc
}

func (s *Service) run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigBridge)
	defer s.conn.Unsubscribe(cfgSub)

	s.publishState("idle", "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.stopCurrent()
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.publishState("error", "config_subscription_closed", nil)
				return
			}
			cfg, err := decodeConfig(msg.Payload)
			if err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			s.reconfigure(ctx, cfg)
		}
	}
}

func (s *Service) stopCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
}

func (s *Service) reconfigure(parent context.Context, cfg Config) {
	s.mu.Lock()
	if s.curRun != nil {
		s.curRun()
	}
	ctx, cancel := context.WithCancel(parent)
	s.curRun = cancel
	s.mu.Unlock()

	go s.runLink(ctx, cfg)
}

// -----------------------------------------------------------------------------
// Link supervision and I/O
// -----------------------------------------------------------------------------

func (s *Service) runLink(ctx context.Context, cfg Config) {
	tr, err := newTransport(cfg.Transport)
	if err != nil {
		s.publishState("error", "transport_init_failed", err)
		return
	}
	ping := time.Duration(cfg.PingS) * time.Second
	if ping <= 0 {
		ping = 5 * time.Second
	}

	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for ctx.Err() == nil {
		rwc, err := tr.Open(ctx)
		if err != nil {
			delay := backoff()
			s.publishState("degraded", "dial_failed_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !timex.Sleep(ctx, delay) {
				return
			}
			continue
		}

		s.publishState("up", "link_established", nil)
		s.log.Infof("link up on %s", tr)
		if err := s.handleLink(ctx, rwc, ping); err != nil {
			delay := backoff()
			s.publishState("degraded", "link_lost_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !timex.Sleep(ctx, delay) {
				return
			}
			continue
		}
		return
	}
}

// handleLink owns the link until ctx ends or I/O fails. Remote keys are
// released whenever the link goes away.
func (s *Service) handleLink(ctx context.Context, rwc io.ReadWriteCloser, ping time.Duration) error {
	defer rwc.Close()
	defer s.publishKeys(types.ButtonNone)

	rd := newFramedReader(rwc)
	wr := newFramedWriter(rwc)

	screens := s.conn.Subscribe(types.TopicScreen)
	defer s.conn.Unsubscribe(screens)

	errCh := make(chan error, 1)
	go func() {
		for {
			f, err := rd.ReadFrame()
			if err != nil {
				errCh <- err
				return
			}
			switch f.Type {
			case framePing:
				if err := wr.WriteFrame(Frame{Type: framePong}); err != nil {
					errCh <- err
					return
				}
			case frameKeys:
				if len(f.Payload) == 1 {
					s.publishKeys(types.Button(f.Payload[0]) & types.ButtonAll)
				}
			case frameClose:
				errCh <- nil
				return
			}
		}
	}()

	tick := time.NewTicker(ping)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = wr.WriteFrame(Frame{Type: frameClose})
			return nil
		case err := <-errCh:
			if err == nil {
				err = errors.New("remote closed link")
			}
			return err
		case <-tick.C:
			if err := wr.WriteFrame(Frame{Type: framePing}); err != nil {
				return err
			}
		case msg, ok := <-screens.Channel():
			if !ok {
				return nil
			}
			f, ok := msg.Payload.(display.Frame)
			if !ok {
				continue
			}
			b, err := json.Marshal(f)
			if err != nil {
				continue
			}
			if err := wr.WriteFrame(Frame{Type: frameScreen, Payload: b}); err != nil {
				return err
			}
		}
	}
}

func (s *Service) publishKeys(b types.Button) {
	s.conn.Publish(s.conn.NewMessage(types.TopicKeys, b, false))
}

// -----------------------------------------------------------------------------
// Transports
// -----------------------------------------------------------------------------

// Transport is a pluggable link dialler.
type Transport interface {
	Open(ctx context.Context) (io.ReadWriteCloser, error)
	String() string
}

var errNoDial = errors.New("UARTDial not implemented")

func newTransport(cfg TransportConfig) (Transport, error) {
	switch cfg.Type {
	case "uart":
		if cfg.UART == nil {
			return nil, errors.New("uart transport requires uart config")
		}
		return &uartTransport{cfg: *cfg.UART}, nil
	case "serial":
		if cfg.Serial == nil || cfg.Serial.Port == "" {
			return nil, errors.New("serial transport requires a port")
		}
		return &serialTransport{cfg: *cfg.Serial}, nil
	default:
		return nil, fmt.Errorf("unknown transport type: %q", cfg.Type)
	}
}

// UARTDial is injected by platform code and opens the configured UART.
var UARTDial func(ctx context.Context, u UARTConfig) (io.ReadWriteCloser, error)

type uartTransport struct{ cfg UARTConfig }

func (u *uartTransport) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	if UARTDial == nil {
		return nil, errNoDial
	}
	return UARTDial(ctx, u.cfg)
}

func (u *uartTransport) String() string { return "uart" }

// serialOpen is swapped in tests.
var serialOpen = func(port string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(port, mode)
}

type serialTransport struct{ cfg SerialConfig }

func (t *serialTransport) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	baud := t.cfg.Baud
	if baud <= 0 {
		baud = 115200
	}
	return serialOpen(t.cfg.Port, &serial.Mode{BaudRate: baud})
}

func (t *serialTransport) String() string { return "serial:" + t.cfg.Port }

// -----------------------------------------------------------------------------
// Utilities
// -----------------------------------------------------------------------------

func decodeConfig(p any) (Config, error) {
	var cfg Config
	var b []byte
	switch v := p.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case map[string]any, Config:
		var err error
		if b, err = json.Marshal(v); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config payload type: %T", p)
	}
	err := json.Unmarshal(b, &cfg)
	return cfg, err
}

func (s *Service) publishState(level, status string, err error) {
	payload := map[string]any{
		"level":  level,
		"status": status,
		"ts_ms":  timex.NowMs(),
	}
	if err != nil {
		payload["error"] = err.Error()
		s.log.Warnf("%s: %v", status, err)
	}
	s.conn.Publish(s.conn.NewMessage(topicState, payload, true))
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}
