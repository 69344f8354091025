//go:build rp2040 || rp2350

// Command desk-fw is the controller firmware for RP2 boards.
package main

import (
	"context"
	"io"
	"machine"
	"time"

	"deskctl-go/app"
	"deskctl-go/services/bridge"
	"deskctl-go/services/buttons"
	"deskctl-go/services/config"
	"deskctl-go/services/storage"
	"deskctl-go/types"
	"deskctl-go/x/logx"
)

const device = "desk"

// Board wiring.
const (
	pinUp      = machine.GP10
	pinDown    = machine.GP11
	pinPos1    = machine.GP12
	pinPos2    = machine.GP13
	pinMotorUp = machine.GP14
	pinMotorDn = machine.GP15
	pinSensor  = machine.ADC0
)

type inPin struct{ p machine.Pin }

func (i inPin) Get() bool { return i.p.Get() }

type outPin struct{ p machine.Pin }

func (o outPin) Set(v bool) { o.p.Set(v) }

// adcSource scales the 16-bit machine reading back to the 12-bit converter.
type adcSource struct{ a machine.ADC }

func (s adcSource) Sample() (uint16, error) { return s.a.Get() >> 4, nil }

type uartLink struct{ u *machine.UART }

func (l uartLink) Read(p []byte) (int, error) {
	for l.u.Buffered() == 0 {
		time.Sleep(time.Millisecond)
	}
	return l.u.Read(p)
}
func (l uartLink) Write(p []byte) (int, error) { return l.u.Write(p) }
func (l uartLink) Close() error                { return nil }

func input(p machine.Pin) buttons.Pin {
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return inPin{p}
}

func output(p machine.Pin) outPin {
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	return outPin{p}
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	log := logx.New("main")

	p, err := config.Load(device)
	if err != nil {
		log.Warnf("%v; using defaults", err)
	}

	machine.InitADC()
	adc := machine.ADC{Pin: pinSensor}
	adc.Configure(machine.ADCConfig{})

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		log.Errorf("i2c0: %v", err)
	}

	bridge.UARTDial = func(ctx context.Context, u bridge.UARTConfig) (io.ReadWriteCloser, error) {
		uart := machine.UART0
		if err := uart.Configure(machine.UARTConfig{
			BaudRate: uint32(u.Baud),
			TX:       machine.Pin(u.TxPin),
			RX:       machine.Pin(u.RxPin),
		}); err != nil {
			return nil, err
		}
		return uartLink{uart}, nil
	}

	a := app.New(device, p, app.Hardware{
		Source: adcSource{adc},
		Pins: map[types.Button]buttons.Pin{
			types.ButtonUp:   input(pinUp),
			types.ButtonDown: input(pinDown),
			types.ButtonPos1: input(pinPos1),
			types.ButtonPos2: input(pinPos2),
		},
		Up:      output(pinMotorUp),
		Down:    output(pinMotorDn),
		Storage: storage.NewEEPROM(i2c, p.Storage.EEPROM()),
	})

	println("[main] boot", device)
	if err := a.Run(context.Background()); err != nil {
		log.Errorf("stopped: %v", err)
	}
	// Nothing left to drive; hold the motor lines low.
	for {
		time.Sleep(time.Hour)
	}
}
