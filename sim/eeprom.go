package sim

import (
	"errors"
	"sync"
)

var ErrNoDevice = errors.New("sim: i2c address not acknowledged")

// I2CEEPROM behaves like an AT24Cxx on an I2C bus: a two-byte big endian
// address followed by data writes, an address then a read fetches. It
// implements tinygo.org/x/drivers.I2C.
type I2CEEPROM struct {
	mu   sync.Mutex
	addr uint16
	mem  []byte
	ptr  int

	// Fail, when set, makes every transaction fail.
	Fail error
	// Writes counts write transactions.
	Writes int
}

func NewI2CEEPROM(addr uint16, size int) *I2CEEPROM {
	e := &I2CEEPROM{addr: addr, mem: make([]byte, size)}
	for i := range e.mem {
		e.mem[i] = 0xFF
	}
	return e
}

func (e *I2CEEPROM) Tx(addr uint16, w, r []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Fail != nil {
		return e.Fail
	}
	if addr != e.addr {
		return ErrNoDevice
	}
	if len(w) >= 2 {
		e.ptr = (int(w[0])<<8 | int(w[1])) % len(e.mem)
		if data := w[2:]; len(data) > 0 {
			e.Writes++
			for _, b := range data {
				e.mem[e.ptr] = b
				e.ptr = (e.ptr + 1) % len(e.mem)
			}
		}
	}
	for i := range r {
		r[i] = e.mem[e.ptr]
		e.ptr = (e.ptr + 1) % len(e.mem)
	}
	return nil
}

// Snapshot returns a copy of the memory array.
func (e *I2CEEPROM) Snapshot() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]byte(nil), e.mem...)
}
