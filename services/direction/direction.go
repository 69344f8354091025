// Package direction hands drive direction decisions from the logic tasks
// to the motor task.
//
// Logic writes "requested", the drive task writes "current". Planned is
// the requested direction while it differs from current.
package direction

import (
	"deskctl-go/types"
	"deskctl-go/x/cell"
	"deskctl-go/x/logx"
)

// Logic is the handle for tasks that decide where the column goes.
type Logic struct {
	requested *cell.Writer[types.Direction]
	current   *cell.Reader[types.Direction]
	log       logx.Logger
}

// Drive is the handle for the single task that actuates the motor.
type Drive struct {
	requested *cell.Reader[types.Direction]
	current   *cell.Writer[types.Direction]
	log       logx.Logger
}

// Observer can only read. Display and diagnostics use it.
type Observer struct {
	requested *cell.Reader[types.Direction]
	current   *cell.Reader[types.Direction]
}

// New creates both cells, starting Stopped, and the role handles.
func New() (*Logic, *Drive, *Observer) {
	reqW, reqR := cell.New(types.Stopped)
	curW, curR := cell.New(types.Stopped)
	return &Logic{requested: reqW, current: curR, log: logx.New("direction")},
		&Drive{requested: reqR, current: curW, log: logx.New("drive")},
		&Observer{requested: reqR, current: curR}
}

func planned(req, cur types.Direction) (types.Direction, bool) {
	if req == cur {
		return types.Stopped, false
	}
	return req, true
}

// Request asks for d. Only the latest request matters.
func (l *Logic) Request(d types.Direction) {
	l.log.Debugf("request %v", d)
	l.requested.Set(d)
}

// Get returns the acknowledged direction.
func (l *Logic) Get() types.Direction { return l.current.Get() }

// Requested returns the last request.
func (l *Logic) Requested() types.Direction { return l.requested.Reader().Get() }

// Planned returns the requested direction if the drive task has not
// acknowledged it yet.
func (d *Drive) Planned() (types.Direction, bool) {
	return planned(d.requested.Get(), d.current.Reader().Get())
}

// Acknowledge records that dir is now physically applied.
func (d *Drive) Acknowledge(dir types.Direction) {
	d.log.Debugf("ack %v", dir)
	d.current.Set(dir)
}

// Get returns the acknowledged direction.
func (d *Drive) Get() types.Direction { return d.current.Reader().Get() }

func (o *Observer) Get() types.Direction       { return o.current.Get() }
func (o *Observer) Requested() types.Direction { return o.requested.Get() }

func (o *Observer) Planned() (types.Direction, bool) {
	return planned(o.requested.Get(), o.current.Get())
}
