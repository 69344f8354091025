package bridge

import (
	"fmt"
	"io"
	"sync"

	"deskctl-go/types"
)

const (
	framePing   byte = 0x01
	framePong   byte = 0x02
	frameKeys   byte = 0x20 // payload: one byte, held Button set
	frameScreen byte = 0x21 // payload: JSON display.Frame
	frameClose  byte = 0x7f
)

// Frame is a length-prefixed link frame: type, u16 big-endian length,
// payload.
type Frame struct {
	Type    byte
	Payload []byte
}

type framedReader struct{ r io.Reader }

// framedWriter serialises whole frames from several goroutines.
type framedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newFramedReader(r io.Reader) *framedReader { return &framedReader{r: r} }
func newFramedWriter(w io.Writer) *framedWriter { return &framedWriter{w: w} }

func (fr *framedReader) ReadFrame() (Frame, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(fr.r, hdr[:]); err != nil {
		return Frame{}, err
	}
	n := int(hdr[1])<<8 | int(hdr[2])
	var buf []byte
	if n > 0 {
		buf = make([]byte, n)
		if _, err := io.ReadFull(fr.r, buf); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Type: hdr[0], Payload: buf}, nil
}

func (fw *framedWriter) WriteFrame(f Frame) error {
	if len(f.Payload) > 0xFFFF {
		return fmt.Errorf("frame too large: %d", len(f.Payload))
	}
	b := make([]byte, 0, 3+len(f.Payload))
	b = append(b, f.Type, byte(len(f.Payload)>>8), byte(len(f.Payload)))
	b = append(b, f.Payload...)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	_, err := fw.w.Write(b)
	return err
}

// KeysFrame builds the frame a console sends for its held keys.
func KeysFrame(b types.Button) Frame {
	return Frame{Type: frameKeys, Payload: []byte{byte(b & types.ButtonAll)}}
}
