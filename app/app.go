// Package app wires the desk's tasks together and runs them as one group.
package app

import (
	"context"

	"deskctl-go/bus"
	"deskctl-go/services/bridge"
	"deskctl-go/services/buttons"
	"deskctl-go/services/config"
	"deskctl-go/services/direction"
	"deskctl-go/services/display"
	"deskctl-go/services/drive"
	"deskctl-go/services/heartbeat"
	"deskctl-go/services/input"
	"deskctl-go/services/opmode"
	"deskctl-go/services/sensing"
	"deskctl-go/services/storage"
	"deskctl-go/types"
	"deskctl-go/x/logx"

	"golang.org/x/sync/errgroup"
)

// Hardware is everything board specific.
type Hardware struct {
	Source   sensing.Source
	Pins     map[types.Button]buttons.Pin
	Up, Down drive.OutPin
	Storage  storage.Device
	// Sink draws frames locally; nil leaves the bus as the only output.
	Sink display.Sink
}

type App struct {
	Bus       *bus.Bus
	Store     *storage.Store
	Machine   *opmode.Machine
	Sensor    *sensing.Reader
	Direction *direction.Observer
	Keys      *input.Sampler

	device  string
	sensing *sensing.Service
	buttons *buttons.Sampler
	driver  *drive.Driver
	display *display.Service
	beat    *heartbeat.Service
	log     logx.Logger
}

// New builds every service for device from profile p.
func New(device string, p config.Profile, hw Hardware) *App {
	b := bus.NewBus(8)
	a := &App{Bus: b, device: device, log: logx.New("app")}

	keys, tracker := input.New(p.Input.Options())
	a.Keys = keys
	logic, drv, obs := direction.New()
	a.Direction = obs

	a.Store = storage.New(hw.Storage, p.Storage.Options())
	a.sensing, a.Sensor = sensing.New(hw.Source, b.NewConnection("sensing"), p.Sensing)
	a.buttons = buttons.New(hw.Pins, keys, b.NewConnection("buttons"), p.Buttons)
	a.driver = drive.New(hw.Up, hw.Down, drv, p.Drive)

	screens := display.NewSignal()
	a.display = display.New(screens, hw.Sink, b.NewConnection("display"))

	a.Machine = opmode.New(opmode.Deps{
		Input:     tracker,
		Direction: logic,
		Store:     a.Store,
		Sensor:    a.Sensor,
		Screens:   screens,
		Conn:      b.NewConnection("opmode"),
	}, p.Opmode)

	a.beat = heartbeat.New(a.Sensor, obs, func() string { return a.Machine.Mode().String() },
		b.NewConnection("heartbeat"), p.Heartbeat)
	return a
}

// Run starts every task and blocks until ctx ends or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	// Profile first so retained config is in place for late subscribers.
	if err := config.NewService(a.device).Run(ctx, a.Bus.NewConnection("config")); err != nil {
		return err
	}

	g.Go(func() error { return a.driver.Run(ctx) })
	g.Go(func() error { return a.sensing.Run(ctx) })
	g.Go(func() error { return a.buttons.Run(ctx) })
	g.Go(func() error { return a.display.Run(ctx) })
	g.Go(func() error { return a.beat.Run(ctx) })
	g.Go(func() error { return bridge.Start(ctx, a.Bus.NewConnection("bridge")) })
	g.Go(func() error { return a.Machine.Run(ctx) })

	a.Store.Get()
	a.log.Infof("running %s (storage %v)", a.device, a.Store.Status())
	return g.Wait()
}
