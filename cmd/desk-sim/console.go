package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"deskctl-go/app"
	"deskctl-go/sim"
	"deskctl-go/types"
	"deskctl-go/x/timex"

	"github.com/google/shlex"
)

const defaultTap = 150 * time.Millisecond

const helpText = `commands:
  press <keys>         hold keys down (keys: up, down, pos1, pos2, joined with +)
  release [keys]       let keys go; all when none given
  tap <keys> [dur]     press and release after dur (default 150ms)
  hold <keys> <dur>    press, wait dur, release
  set <mm>             move the column instantly
  status               print height, direction and mode
  help                 this text
  quit                 exit`

type console struct {
	keys   *sim.Keypad
	column *sim.Column
	app    *app.App
	out    io.Writer
}

var errUsage = errors.New("usage; see help")

func parseKeys(s string) (types.Button, error) {
	var set types.Button
	for _, name := range strings.Split(s, "+") {
		b, ok := types.ParseButton(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return 0, fmt.Errorf("unknown key %q", name)
		}
		set |= b
	}
	return set, nil
}

// exec runs one command line. It reports whether the console should quit.
func (c *console) exec(ctx context.Context, line string) (bool, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}

	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "quit", "exit":
		return true, nil

	case "help", "?":
		fmt.Fprintln(c.out, helpText)

	case "press":
		if len(args) != 1 {
			return false, errUsage
		}
		keys, err := parseKeys(args[0])
		if err != nil {
			return false, err
		}
		c.keys.Set(keys, true)

	case "release":
		keys := types.ButtonAll
		if len(args) == 1 {
			if keys, err = parseKeys(args[0]); err != nil {
				return false, err
			}
		}
		c.keys.Set(keys, false)

	case "tap", "hold":
		if len(args) < 1 || len(args) > 2 || (cmd == "hold" && len(args) != 2) {
			return false, errUsage
		}
		keys, err := parseKeys(args[0])
		if err != nil {
			return false, err
		}
		d := defaultTap
		if len(args) == 2 {
			if d, err = time.ParseDuration(args[1]); err != nil {
				return false, err
			}
		}
		c.keys.Set(keys, true)
		ok := timex.Sleep(ctx, d)
		c.keys.Set(keys, false)
		if !ok {
			return false, ctx.Err()
		}

	case "set":
		if len(args) != 1 {
			return false, errUsage
		}
		mm, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return false, err
		}
		c.column.SetPosition(mm)

	case "status":
		fmt.Fprintln(c.out, c.status())

	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}

func (c *console) status() string {
	h := "???"
	if ht := c.app.Sensor.Height(); ht.Calibrated {
		h = ht.MM.String()
	}
	up, down := c.column.Lines()
	s := fmt.Sprintf("height=%s raw=%d column=%.1fmm lines=%v/%v dir=%v mode=%v keys=%v storage=%v",
		h, c.app.Sensor.Raw(), c.column.Position(), up, down,
		c.app.Direction.Get(), c.app.Machine.Mode(), c.keys.Held(), c.app.Store.Status())
	if c.app.Store.Unsaved() {
		s += " (unsaved)"
	}
	return s
}
