// Package display turns screen models into text frames and hands them to a
// sink.
package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"deskctl-go/bus"
	"deskctl-go/types"
	"deskctl-go/x/logx"
)

// Signal holds the latest screen. Show never blocks; a waiting consumer
// only ever sees the newest value.
type Signal struct {
	mu     sync.Mutex
	screen types.Screen
	ready  chan struct{}
}

func NewSignal() *Signal {
	return &Signal{ready: make(chan struct{}, 1)}
}

func (s *Signal) Show(sc types.Screen) {
	s.mu.Lock()
	s.screen = sc
	s.mu.Unlock()
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Wait blocks until a screen has been shown since the last Wait.
func (s *Signal) Wait(ctx context.Context) (types.Screen, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ready:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen, nil
}

// Sink draws a frame on a panel.
type Sink interface {
	Draw(f Frame) error
}

// WriterSink prints frames as text, one block per frame.
type WriterSink struct {
	W io.Writer
}

func (w WriterSink) Draw(f Frame) error {
	var b strings.Builder
	b.WriteString("+------------------------------------\n")
	for _, l := range f.Lines {
		b.WriteString("| " + l + "\n")
	}
	if f.Footer != "" {
		b.WriteString("| " + strings.Repeat("-", len(f.Footer)) + "\n| " + f.Footer + "\n")
	}
	_, err := fmt.Fprint(w.W, b.String())
	return err
}

// Service renders shown screens, skipping frames identical to the last.
type Service struct {
	sig  *Signal
	sink Sink
	conn *bus.Connection
	log  logx.Logger
}

// New creates the service. sink and conn may be nil.
func New(sig *Signal, sink Sink, conn *bus.Connection) *Service {
	return &Service{sig: sig, sink: sink, conn: conn, log: logx.New("display")}
}

func sameFrame(a, b Frame) bool {
	if a.Footer != b.Footer || len(a.Lines) != len(b.Lines) {
		return false
	}
	for i := range a.Lines {
		if a.Lines[i] != b.Lines[i] {
			return false
		}
	}
	return true
}

func (s *Service) Run(ctx context.Context) error {
	var last Frame
	first := true
	for {
		sc, err := s.sig.Wait(ctx)
		if err != nil {
			return err
		}
		f := Lines(sc)
		if !first && sameFrame(f, last) {
			continue
		}
		first = false
		last = f

		if s.sink != nil {
			if err := s.sink.Draw(f); err != nil {
				s.log.Warnf("draw: %v", err)
			}
		}
		if s.conn != nil {
			s.conn.Publish(s.conn.NewMessage(types.TopicScreen, f, true))
		}
	}
}
