// Package logx is a tiny levelled logger for firmware builds.
//
// Lines look like "Info: [opmode] running start screen". The default sink is
// the builtin println, which TinyGo routes to the USB/UART console without
// pulling in fmt-heavy writers.
package logx

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "Debug"
	case LevelInfo:
		return "Info"
	case LevelWarn:
		return "Warn"
	default:
		return "Error"
	}
}

var (
	minLevel atomic.Int32

	sinkMu sync.RWMutex
	sink   = func(line string) { println(line) }
)

func init() { minLevel.Store(int32(LevelInfo)) }

// SetLevel drops every line below l.
func SetLevel(l Level) { minLevel.Store(int32(l)) }

// SetSink replaces the output function. nil restores println.
func SetSink(f func(line string)) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if f == nil {
		f = func(line string) { println(line) }
	}
	sink = f
}

// SetWriter sends lines to w, one per Write.
func SetWriter(w io.Writer) {
	var mu sync.Mutex
	SetSink(func(line string) {
		mu.Lock()
		_, _ = io.WriteString(w, line+"\n")
		mu.Unlock()
	})
}

// Logger prefixes every line with its tag.
type Logger struct {
	tag string
}

func New(tag string) Logger { return Logger{tag: tag} }

func (l Logger) Debugf(format string, a ...any) { l.logf(LevelDebug, format, a...) }
func (l Logger) Infof(format string, a ...any)  { l.logf(LevelInfo, format, a...) }
func (l Logger) Warnf(format string, a ...any)  { l.logf(LevelWarn, format, a...) }
func (l Logger) Errorf(format string, a ...any) { l.logf(LevelError, format, a...) }

func (l Logger) logf(lv Level, format string, a ...any) {
	if int32(lv) < minLevel.Load() {
		return
	}
	line := lv.String() + ": [" + l.tag + "] " + fmt.Sprintf(format, a...)
	sinkMu.RLock()
	out := sink
	sinkMu.RUnlock()
	out(line)
}
