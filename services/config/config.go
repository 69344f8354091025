// Package config resolves device profiles and publishes them on the bus.
package config

import (
	"context"
	"encoding/json"
	"time"

	"deskctl-go/bus"
	"deskctl-go/errcode"
	"deskctl-go/services/bridge"
	"deskctl-go/services/buttons"
	"deskctl-go/services/drive"
	"deskctl-go/services/heartbeat"
	"deskctl-go/services/input"
	"deskctl-go/services/opmode"
	"deskctl-go/services/sensing"
	"deskctl-go/services/storage"
	"deskctl-go/x/logx"
)

const configPrefix = "config"

// EmbeddedConfigLookup allows overriding how profiles are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// InputConfig is the JSON form of input.Options.
type InputConfig struct {
	SettleMS int `json:"settle_ms"`
	PollMS   int `json:"poll_ms"`
}

func (c InputConfig) Options() input.Options {
	return input.Options{
		Settle: time.Duration(c.SettleMS) * time.Millisecond,
		Poll:   time.Duration(c.PollMS) * time.Millisecond,
	}
}

// StorageConfig places the record and describes the EEPROM holding it.
type StorageConfig struct {
	Offset   int64  `json:"offset"`
	Address  uint16 `json:"address"`
	PageSize uint16 `json:"page_size"`
	Size     uint16 `json:"size"`
}

func (c StorageConfig) Options() storage.Options { return storage.Options{Offset: c.Offset} }

func (c StorageConfig) EEPROM() storage.EEPROMConfig {
	return storage.EEPROMConfig{Address: c.Address, PageSize: c.PageSize, Size: c.Size}
}

// Profile is the typed view of one device's configuration.
type Profile struct {
	Input     InputConfig      `json:"input"`
	Buttons   buttons.Config   `json:"buttons"`
	Drive     drive.Config     `json:"drive"`
	Sensing   sensing.Config   `json:"sensing"`
	Opmode    opmode.Config    `json:"opmode"`
	Storage   StorageConfig    `json:"storage"`
	Heartbeat heartbeat.Config `json:"heartbeat"`
	Bridge    *bridge.Config   `json:"bridge,omitempty"`
}

// Default returns the built-in profile.
func Default() Profile {
	return Profile{
		Input:     InputConfig{SettleMS: 80, PollMS: 2},
		Buttons:   buttons.Config{PeriodMS: 2, StableSamples: 5},
		Drive:     drive.Config{PeriodMS: 10},
		Sensing:   sensing.Config{PeriodMS: 10, Samples: 16},
		Opmode:    opmode.DefaultConfig(),
		Storage:   StorageConfig{Size: 4096},
		Heartbeat: heartbeat.Config{Interval: 2, StallBeats: 3},
	}
}

// Decode fills dst from JSON bytes, a JSON string, or an already decoded
// value such as a bus payload.
func Decode[T any](src any, dst *T) error {
	var err error
	switch v := src.(type) {
	case []byte:
		err = json.Unmarshal(v, dst)
	case string:
		err = json.Unmarshal([]byte(v), dst)
	default:
		var b []byte
		if b, err = json.Marshal(v); err == nil {
			err = json.Unmarshal(b, dst)
		}
	}
	if err != nil {
		return errcode.Wrap(errcode.Decode, "config.decode", err)
	}
	return nil
}

// Load overlays the embedded profile for device on Default. Sections and
// fields missing from the profile keep their defaults.
func Load(device string) (Profile, error) {
	p := Default()
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return p, &errcode.E{C: errcode.InvalidParams, Op: "config.load", Msg: "no embedded config for device: " + device}
	}
	if err := Decode(raw, &p); err != nil {
		return Default(), err
	}
	return p, nil
}

// Service publishes each top-level section of a device profile as a
// retained message on config/<section>.
type Service struct {
	device string
	log    logx.Logger
}

func NewService(device string) *Service {
	return &Service{device: device, log: logx.New("config")}
}

func (s *Service) publish(conn *bus.Connection) error {
	if s.device == "" {
		return &errcode.E{C: errcode.InvalidParams, Op: "config.publish", Msg: "missing device ID"}
	}
	raw, ok := EmbeddedConfigLookup(s.device)
	if !ok || len(raw) == 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "config.publish", Msg: "no embedded config for device: " + s.device}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return errcode.Wrap(errcode.Decode, "config.publish", err)
	}
	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	s.log.Infof("published %d sections for %s", len(m), s.device)
	return nil
}

// Run publishes once and returns. A missing profile is logged, not fatal:
// every consumer has defaults.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) error {
	if err := s.publish(conn); err != nil {
		s.log.Warnf("%v", err)
	}
	return nil
}
