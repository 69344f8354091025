package input

import (
	"context"
	"errors"
	"testing"
	"time"

	"deskctl-go/types"
)

func newFast(t *testing.T) (*Sampler, *Tracker) {
	t.Helper()
	return New(Options{Settle: 40 * time.Millisecond, Poll: time.Millisecond})
}

func TestShortPressIsNotConfirmed(t *testing.T) {
	s, tr := newFast(t)
	w := tr.Watch()

	go func() {
		time.Sleep(5 * time.Millisecond)
		s.Press(types.ButtonUp)
		time.Sleep(10 * time.Millisecond)
		s.Release(types.ButtonUp)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	b, err := w.WaitForPress(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitForPress = %v, %v; want deadline exceeded", b, err)
	}
}

func TestLongPressIsConfirmed(t *testing.T) {
	s, tr := newFast(t)
	w := tr.Watch()

	go func() {
		time.Sleep(5 * time.Millisecond)
		s.Press(types.ButtonPos2)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	b, err := w.WaitForPress(ctx)
	if err != nil || b != types.ButtonPos2 {
		t.Fatalf("WaitForPress = %v, %v; want pos2", b, err)
	}
}

func TestGlitchDuringSettleIsIgnored(t *testing.T) {
	s, tr := newFast(t)
	w := tr.Watch()
	s.Press(types.ButtonDown)

	// Released and pressed again inside the settle window: same held set
	// but a lost edge. The first attempt is discarded; the button stays
	// held so a later attempt confirms it.
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Release(types.ButtonDown)
		s.Press(types.ButtonDown)
	}()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	b, err := w.WaitForPress(ctx)
	if err != nil || b != types.ButtonDown {
		t.Fatalf("WaitForPress = %v, %v", b, err)
	}
	if time.Since(start) < 60*time.Millisecond {
		t.Fatal("glitched press confirmed on the first settle")
	}
}

func TestChordPress(t *testing.T) {
	s, tr := newFast(t)
	w := tr.Watch()
	s.Press(types.ButtonUp)
	s.Press(types.ButtonDown)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	b, err := w.WaitForPress(ctx)
	if err != nil || b != types.ButtonUpAndDown {
		t.Fatalf("WaitForPress = %v, %v; want up+down", b, err)
	}
}

func TestWaitForSinglePressIsImmediate(t *testing.T) {
	s, tr := newFast(t)
	w := tr.Watch()
	s.Press(types.ButtonPos1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	b, err := w.WaitForSinglePress(ctx)
	if err != nil || b != types.ButtonPos1 {
		t.Fatalf("WaitForSinglePress = %v, %v", b, err)
	}
}

func TestWaitAllReleased(t *testing.T) {
	s, tr := newFast(t)
	s.Press(types.ButtonUp)
	s.Press(types.ButtonPos1)
	w := tr.Watch()

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		done <- w.WaitAllReleased(ctx)
	}()

	s.Release(types.ButtonUp)
	select {
	case err := <-done:
		t.Fatalf("returned with pos1 still held: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	s.Release(types.ButtonPos1)
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for release")
	}
}

func TestWaitForReleaseMask(t *testing.T) {
	s, tr := newFast(t)
	s.Press(types.ButtonUp)
	s.Press(types.ButtonPos2)
	w := tr.Watch()

	go func() {
		time.Sleep(5 * time.Millisecond)
		s.Release(types.ButtonUp)
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := w.WaitForRelease(ctx, types.ButtonUp); err != nil {
		t.Fatalf("WaitForRelease(up) = %v", err)
	}
	if w.Last().Held() != types.ButtonPos2 {
		t.Fatalf("Held() = %v, want pos2", w.Last().Held())
	}
}
