// Package input tracks keypad state as wrapping change counters and
// offers blocking waits for presses and releases.
//
// The sampler is the single writer; any number of watchers read.
package input

import (
	"context"
	"time"

	"deskctl-go/types"
	"deskctl-go/x/cell"
	"deskctl-go/x/logx"
	"deskctl-go/x/timex"
)

const (
	DefaultSettle = 80 * time.Millisecond
	DefaultPoll   = 2 * time.Millisecond
)

type Options struct {
	// Settle is how long a provisional press must stay unchanged.
	Settle time.Duration
	// Poll is the delay between reads of the shared state.
	Poll time.Duration
}

func (o Options) withDefaults() Options {
	if o.Settle <= 0 {
		o.Settle = DefaultSettle
	}
	if o.Poll <= 0 {
		o.Poll = DefaultPoll
	}
	return o
}

// Sampler is the writer handle. Only the button sampling task holds it.
type Sampler struct {
	w   *cell.Writer[Inputs]
	log logx.Logger
}

// Tracker is the reader handle shared by logic tasks.
type Tracker struct {
	r    *cell.Reader[Inputs]
	opts Options
}

// New creates the shared keypad state and its two role handles.
func New(opts Options) (*Sampler, *Tracker) {
	w, r := cell.New(Inputs{})
	return &Sampler{w: w, log: logx.New("input")},
		&Tracker{r: r, opts: opts.withDefaults()}
}

// Press marks b as down. It is a no-op if b already is down.
func (s *Sampler) Press(b types.Button) {
	var changed bool
	s.w.Update(func(in *Inputs) { changed = in.press(b) })
	if changed {
		s.log.Debugf("press %v", b)
	}
}

// Release marks b as up. It is a no-op if b already is up.
func (s *Sampler) Release(b types.Button) {
	var changed bool
	s.w.Update(func(in *Inputs) { changed = in.release(b) })
	if changed {
		s.log.Debugf("release %v", b)
	}
}

// Set presses or releases b.
func (s *Sampler) Set(b types.Button, down bool) {
	if down {
		s.Press(b)
	} else {
		s.Release(b)
	}
}

// Snapshot returns the current keypad state.
func (t *Tracker) Snapshot() Inputs { return t.r.Get() }

// Watch starts a watcher whose reference is the current state.
func (t *Tracker) Watch() *Watcher {
	return &Watcher{t: t, last: t.r.Get(), log: logx.New("input")}
}

// Watcher remembers the last snapshot it consumed. It is owned by a single
// task.
type Watcher struct {
	t    *Tracker
	last Inputs
	log  logx.Logger
}

// Last is the reference snapshot.
func (w *Watcher) Last() Inputs { return w.last }

// Poll reads the shared state, returns the changes relative to the
// reference snapshot and makes the new state the reference.
func (w *Watcher) Poll() StateChanges {
	in := w.t.r.Get()
	ch := in.ChangedSince(w.last)
	w.last = in
	return ch
}

// waitForChange polls until check accepts the changes.
func waitForChange[T any](ctx context.Context, w *Watcher, check func(StateChanges) (T, bool)) (T, error) {
	for {
		if v, ok := check(w.Poll()); ok {
			return v, nil
		}
		if !timex.Sleep(ctx, w.t.opts.Poll) {
			var zero T
			return zero, ctx.Err()
		}
	}
}

func pressedSet(c StateChanges) (types.Button, bool) {
	p := c.Pressed()
	return p, p != 0
}

// unchangedAfter waits for the settle delay and reports whether the held
// set relative to the reference is still want and no edge was lost.
func (w *Watcher) unchangedAfter(ctx context.Context, want types.Button) (bool, error) {
	if !timex.Sleep(ctx, w.t.opts.Settle) {
		return false, ctx.Err()
	}
	ch := w.t.r.Get().ChangedSince(w.last)
	return ch.Pressed() == want && !ch.Missed(), nil
}

// WaitForPress blocks until a set of buttons is held and stays unchanged
// for the settle delay. It returns the held set, which may be a chord.
// A button still held from before counts; call WaitAllReleased first to
// require a new press.
func (w *Watcher) WaitForPress(ctx context.Context) (types.Button, error) {
	for {
		b, err := waitForChange(ctx, w, pressedSet)
		if err != nil {
			return types.ButtonNone, err
		}
		w.log.Debugf("provisional press %v", b)
		ok, err := w.unchangedAfter(ctx, b)
		if err != nil {
			return types.ButtonNone, err
		}
		if ok {
			w.log.Debugf("press %v", b)
			return b, nil
		}
		w.log.Debugf("press %v changed while settling, ignored", b)
	}
}

// WaitForSinglePress returns the first held set without settling.
func (w *Watcher) WaitForSinglePress(ctx context.Context) (types.Button, error) {
	return waitForChange(ctx, w, pressedSet)
}

// WaitForRelease blocks until every button in mask is up.
func (w *Watcher) WaitForRelease(ctx context.Context, mask types.Button) error {
	_, err := waitForChange(ctx, w, func(c StateChanges) (struct{}, bool) {
		return struct{}{}, c.Released()&mask == mask
	})
	return err
}

// WaitAllReleased blocks until no button is held.
func (w *Watcher) WaitAllReleased(ctx context.Context) error {
	return w.WaitForRelease(ctx, types.ButtonAll)
}
