// Package storage keeps the operator's configuration in a single record on
// a byte-addressed device.
//
// The record is loaded lazily on first use. Every update rewrites the whole
// record.
package storage

import (
	"errors"
	"io"
	"sync"

	"deskctl-go/errcode"
	"deskctl-go/x/logx"
)

// LoadStatus tells how the in-memory configuration was obtained.
type LoadStatus uint8

const (
	// NotLoaded: nothing has touched the store yet.
	NotLoaded LoadStatus = iota
	// Loaded: a valid record was read.
	Loaded
	// Absent: no record (first boot or older layout); defaults in use.
	Absent
	// Corrupt: the marker matched but the record was damaged; defaults in use.
	Corrupt
	// ReadFailed: the device returned an error; defaults in use.
	ReadFailed
)

func (s LoadStatus) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Absent:
		return "absent"
	case Corrupt:
		return "corrupt"
	case ReadFailed:
		return "read_failed"
	default:
		return "not_loaded"
	}
}

type Options struct {
	// Offset is the address of the record on the device.
	Offset int64
}

// Store guards the configuration record. Get and Update are safe for
// concurrent use.
type Store struct {
	mu     sync.Mutex
	dev    Device
	opts   Options
	magic  [4]byte
	inner  InnerConfiguration
	status LoadStatus
	dirty  bool
	log    logx.Logger
}

func New(dev Device, opts Options) *Store {
	return &Store{dev: dev, opts: opts, log: logx.New("storage")}
}

// ensureLoaded reads the record once; the in-memory magic tells whether
// that already happened. Callers hold s.mu.
func (s *Store) ensureLoaded() {
	if s.magic == Magic {
		return
	}
	s.magic = Magic
	s.inner = InnerConfiguration{}

	buf := make([]byte, RecordSize)
	n, err := s.dev.ReadAt(buf, s.opts.Offset)
	if err != nil && !(errors.Is(err, io.EOF) && n > 0) {
		s.status = ReadFailed
		s.log.Errorf("load: %v; using defaults", errcode.Wrap(errcode.StorageRead, "load", err))
		return
	}

	inner, err := Decode(buf[:n])
	switch {
	case err == nil:
		s.inner = inner
		s.status = Loaded
		s.log.Infof("loaded: %d calibration points", inner.Calibration.Len())
	case errors.Is(err, errcode.BadMagic):
		s.status = Absent
		s.log.Infof("no stored configuration; using defaults")
	default:
		s.status = Corrupt
		s.log.Errorf("stored configuration damaged (%v); using defaults", err)
	}
}

// Get returns a copy of the configuration, loading it on first use.
func (s *Store) Get() InnerConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	return s.inner
}

// Update applies f and writes the whole record. The in-memory change is
// kept even when the write fails; the returned error is the write error.
func (s *Store) Update(f func(c *InnerConfiguration)) (InnerConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	f(&s.inner)

	rec := Encode(s.inner)
	if _, err := s.dev.WriteAt(rec, s.opts.Offset); err != nil {
		s.dirty = true
		err = errcode.Wrap(errcode.StorageWrite, "update", err)
		s.log.Errorf("%v; change not durable", err)
		return s.inner, err
	}
	s.dirty = false
	return s.inner, nil
}

// Status reports how the configuration was loaded.
func (s *Store) Status() LoadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Unsaved reports whether the last write failed.
func (s *Store) Unsaved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}
