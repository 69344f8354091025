// Package drive applies planned directions to the two motor lines and
// acknowledges them.
//
// Lines: both low stops, one high drives that way, both high starts the
// controller's reset drive.
package drive

import (
	"context"
	"time"

	"deskctl-go/services/direction"
	"deskctl-go/types"
	"deskctl-go/x/logx"
)

// OutPin drives a digital output. machine.Pin satisfies it.
type OutPin interface {
	Set(high bool)
}

type Config struct {
	PeriodMS int `json:"period_ms"`
}

// Driver is the only holder of the direction.Drive handle.
type Driver struct {
	up, down OutPin
	arb      *direction.Drive
	period   time.Duration
	log      logx.Logger
}

func New(up, down OutPin, arb *direction.Drive, cfg Config) *Driver {
	if cfg.PeriodMS <= 0 {
		cfg.PeriodMS = 10
	}
	return &Driver{
		up:     up,
		down:   down,
		arb:    arb,
		period: time.Duration(cfg.PeriodMS) * time.Millisecond,
		log:    logx.New("drive"),
	}
}

func levels(d types.Direction) (up, down bool) {
	switch d {
	case types.Up:
		return true, false
	case types.Down:
		return false, true
	case types.ResetDrive:
		return true, true
	default:
		return false, false
	}
}

// actuate lowers lines before raising any, so a reversal never passes
// through the both-high reset state.
func (d *Driver) actuate(dir types.Direction) {
	up, down := levels(dir)
	if !up {
		d.up.Set(false)
	}
	if !down {
		d.down.Set(false)
	}
	if up {
		d.up.Set(true)
	}
	if down {
		d.down.Set(true)
	}
}

// step handles one planned direction. A panic inside stops the motor.
func (d *Driver) step() {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("panic: %v; stopping", r)
			d.stop()
		}
	}()
	dir, ok := d.arb.Planned()
	if !ok {
		return
	}
	d.actuate(dir)
	d.arb.Acknowledge(dir)
	d.log.Infof("%v", dir)
}

func (d *Driver) stop() {
	d.actuate(types.Stopped)
	d.arb.Acknowledge(types.Stopped)
}

// Run polls the arbiter until ctx ends and always leaves the motor stopped.
func (d *Driver) Run(ctx context.Context) error {
	d.stop()
	defer d.stop()

	tick := time.NewTicker(d.period)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			d.step()
		}
	}
}
