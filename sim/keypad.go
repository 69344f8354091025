package sim

import (
	"sync"

	"deskctl-go/types"
)

// Keypad is a set of virtual buttons read through pins. Pins report true
// while held.
type Keypad struct {
	mu   sync.Mutex
	held types.Button
}

func (k *Keypad) Set(b types.Button, down bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if down {
		k.held |= b
	} else {
		k.held &^= b
	}
}

func (k *Keypad) Held() types.Button {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.held
}

// KeyPin reads one button of a Keypad.
type KeyPin struct {
	k *Keypad
	b types.Button
}

func (p KeyPin) Get() bool { return p.k.Held()&p.b != 0 }

// Pins returns one pin per button.
func (k *Keypad) Pins() map[types.Button]KeyPin {
	m := make(map[types.Button]KeyPin, len(types.Buttons))
	for _, b := range types.Buttons {
		m[b] = KeyPin{k: k, b: b}
	}
	return m
}
