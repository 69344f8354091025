package storage

import (
	"io"
	"os"
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/at24cx"
)

// Device is the byte storage primitive: read or write len(p) bytes at off.
type Device interface {
	io.ReaderAt
	io.WriterAt
}

// ---- Memory ----

// Memory is a RAM-backed device for tests and the simulator. Erased cells
// read as 0xFF.
type Memory struct {
	mu  sync.Mutex
	buf []byte

	// ReadErr and WriteErr, when set, are returned instead of touching buf.
	ReadErr  error
	WriteErr error
}

func NewMemory(size int) *Memory {
	m := &Memory{buf: make([]byte, size)}
	for i := range m.buf {
		m.buf[i] = 0xFF
	}
	return m
}

func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	if off < 0 || off >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	if off < 0 || off+int64(len(p)) > int64(len(m.buf)) {
		return 0, io.ErrShortWrite
	}
	return copy(m.buf[off:], p), nil
}

// Bytes returns a copy of the contents.
func (m *Memory) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.buf...)
}

// Poke overwrites one byte, bypassing WriteErr.
func (m *Memory) Poke(off int, v byte) {
	m.mu.Lock()
	m.buf[off] = v
	m.mu.Unlock()
}

// ---- File ----

// OpenFile opens or creates path as a device of at least size bytes.
// New space reads as 0xFF like an erased EEPROM.
func OpenFile(path string, size int64) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if pad := size - st.Size(); pad > 0 {
		fill := make([]byte, pad)
		for i := range fill {
			fill[i] = 0xFF
		}
		if _, err := f.WriteAt(fill, st.Size()); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// ---- EEPROM ----

type EEPROMConfig struct {
	// Address is the 7-bit I2C address; 0 selects at24cx.Address.
	Address  uint16
	PageSize uint16
	// Size is the device capacity in bytes; 0 selects 4096 (AT24C32).
	Size uint16
}

// EEPROM serves the device interface from an AT24Cxx on an I2C bus.
type EEPROM struct {
	mu  sync.Mutex
	dev at24cx.Device
}

func NewEEPROM(bus drivers.I2C, cfg EEPROMConfig) *EEPROM {
	dev := at24cx.New(bus)
	if cfg.Address != 0 {
		dev.Address = cfg.Address
	}
	dev.Configure(at24cx.Config{PageSize: cfg.PageSize, EndRAMAddress: cfg.Size})
	return &EEPROM{dev: dev}
}

func (e *EEPROM) ReadAt(p []byte, off int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dev.ReadAt(p, off)
}

func (e *EEPROM) WriteAt(p []byte, off int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dev.WriteAt(p, off)
}
