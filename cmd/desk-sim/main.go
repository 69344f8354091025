// Command desk-sim runs the desk controller against a simulated column and
// keypad on the host. Commands are read from stdin, one per line.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"deskctl-go/app"
	"deskctl-go/bus"
	"deskctl-go/services/bridge"
	"deskctl-go/services/buttons"
	"deskctl-go/services/config"
	"deskctl-go/services/display"
	"deskctl-go/services/storage"
	"deskctl-go/sim"
	"deskctl-go/types"
	"deskctl-go/x/logx"
)

func main() {
	var (
		device   = flag.String("device", "sim", "embedded profile to load")
		store    = flag.String("store", "", "file backing the configuration record (default: in memory)")
		eeprom   = flag.Bool("eeprom", false, "keep the record in a simulated AT24C32 on a fake I2C bus")
		port     = flag.String("serial", "", "serial port for a remote console")
		baud     = flag.Int("baud", 115200, "serial baud rate")
		start    = flag.Float64("start", 100, "initial column extension in mm")
		noise    = flag.Int("noise", 3, "peak ADC noise")
		logLevel = flag.String("log", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	logx.SetWriter(os.Stderr)
	if lv, ok := parseLevel(*logLevel); ok {
		logx.SetLevel(lv)
	}
	log := logx.New("main")

	p, err := config.Load(*device)
	if err != nil {
		log.Warnf("%v; using defaults", err)
	}

	dev, closeDev, err := openStorage(*store, *eeprom, p.Storage)
	if err != nil {
		log.Errorf("storage: %v", err)
		os.Exit(1)
	}
	defer closeDev()

	col := sim.NewColumn(sim.ColumnConfig{Start: *start, Noise: *noise})
	kp := &sim.Keypad{}
	pins := map[types.Button]buttons.Pin{}
	for b, pin := range kp.Pins() {
		pins[b] = pin
	}

	a := app.New(*device, p, app.Hardware{
		Source:  col,
		Pins:    pins,
		Up:      col.UpLine(),
		Down:    col.DownLine(),
		Storage: dev,
		Sink:    display.WriterSink{W: os.Stdout},
	})
	if *port != "" {
		publishSerial(a.Bus, *port, *baud)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	c := &console{keys: kp, column: col, app: a, out: os.Stdout}
	go func() {
		c.loop(ctx, os.Stdin)
		stop()
	}()

	if err := <-done; err != nil && ctx.Err() == nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func parseLevel(s string) (logx.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return logx.LevelDebug, true
	case "info":
		return logx.LevelInfo, true
	case "warn":
		return logx.LevelWarn, true
	case "error":
		return logx.LevelError, true
	}
	return 0, false
}

// openStorage picks the record backend: file, simulated EEPROM or memory.
func openStorage(path string, eeprom bool, cfg config.StorageConfig) (storage.Device, func(), error) {
	size := int(cfg.Size)
	if size <= 0 {
		size = 4096
	}
	switch {
	case path != "":
		f, err := storage.OpenFile(path, int64(size))
		if err != nil {
			return nil, nil, err
		}
		return f, func() { _ = f.Close() }, nil
	case eeprom:
		ec := cfg.EEPROM()
		if ec.Address == 0 {
			ec.Address = 0x50
		}
		i2c := sim.NewI2CEEPROM(ec.Address, size)
		return storage.NewEEPROM(i2c, ec), func() {}, nil
	default:
		return storage.NewMemory(size), func() {}, nil
	}
}

func publishSerial(b *bus.Bus, port string, baud int) {
	cfg := bridge.Config{Transport: bridge.TransportConfig{
		Type:   "serial",
		Serial: &bridge.SerialConfig{Port: port, Baud: baud},
	}}
	b.Publish(b.NewMessage(bus.T("config", "bridge"), cfg, true))
}

func (c *console) loop(ctx context.Context, in io.Reader) {
	sc := bufio.NewScanner(in)
	fmt.Fprintln(c.out, "desk-sim ready; type help")
	for sc.Scan() {
		quit, err := c.exec(ctx, sc.Text())
		if err != nil {
			fmt.Fprintln(c.out, "error:", err)
		}
		if quit || ctx.Err() != nil {
			return
		}
	}
}
