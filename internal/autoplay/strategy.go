package autoplay

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

const (
	compileBudget = 2 * time.Second
	dobetBudget   = 1 * time.Second
	maxLogLines   = 200
)

// LogEntry is one line the strategy wrote with log() or console.log().
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Strategy is a compiled autoplay script. After every settled round it
// sees the session through its variables and decides the next stake and
// mode in dobet(). A Strategy belongs to the goroutine running the engine;
// only Logs may be called from elsewhere.
type Strategy struct {
	rt      *goja.Runtime
	dobet   goja.Callable
	stopped bool
	logs    logRing
}

// Compile runs source once in a fresh sandbox with vars bound, then reads
// back the opening nextbet and mode. The script must leave a dobet()
// function behind.
func Compile(source string, vars *Variables) (*Strategy, error) {
	s := &Strategy{rt: goja.New()}
	s.sandbox()
	injectConstants(s.rt)
	injectVariables(s.rt, vars)

	err := s.budget("script", compileBudget, func() error {
		_, err := s.rt.RunString(source)
		return err
	})
	if err != nil {
		return nil, err
	}

	fn, ok := goja.AssertFunction(s.rt.Get("dobet"))
	if !ok {
		return nil, errors.New("script must define a dobet() function")
	}
	s.dobet = fn
	syncFromVM(s.rt, vars)
	return s, nil
}

// Next hands the settled round to dobet() and returns the stake and mode
// it chose, written back into vars.
func (s *Strategy) Next(vars *Variables) error {
	injectVariables(s.rt, vars)
	err := s.budget("dobet()", dobetBudget, func() error {
		_, err := s.dobet(goja.Undefined())
		return err
	})
	if err != nil {
		return err
	}
	syncFromVM(s.rt, vars)
	if _, _, err := vars.next(); err != nil {
		return fmt.Errorf("dobet(): %w", err)
	}
	return nil
}

// Stopped reports whether the script called stop().
func (s *Strategy) Stopped() bool { return s.stopped }

// Logs returns the most recent script output, oldest first.
func (s *Strategy) Logs() []LogEntry { return s.logs.snapshot() }

// budget runs fn and interrupts the runtime if it overruns d.
func (s *Strategy) budget(what string, d time.Duration, fn func() error) error {
	timer := time.AfterFunc(d, func() { s.rt.Interrupt("budget exceeded") })
	err := fn()
	timer.Stop()
	s.rt.ClearInterrupt()

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("%s timed out after %s", what, d)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// sandbox installs the script-facing globals and removes escape hatches.
func (s *Strategy) sandbox() {
	rt := s.rt
	logFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		s.logs.add(strings.Join(parts, " "))
		return goja.Undefined()
	}
	rt.Set("log", logFn)
	console := rt.NewObject()
	console.Set("log", logFn)
	rt.Set("console", console)

	rt.Set("stop", func(goja.FunctionCall) goja.Value {
		s.stopped = true
		rt.Set("running", false)
		return goja.Undefined()
	})

	for _, name := range []string{"require", "fetch", "XMLHttpRequest", "eval", "Function"} {
		rt.Set(name, goja.Undefined())
	}
}

// logRing keeps the last maxLogLines entries.
type logRing struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (l *logRing) add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == maxLogLines {
		l.entries = append(l.entries[:0], l.entries[1:]...)
	}
	l.entries = append(l.entries, LogEntry{Time: time.Now(), Message: msg})
}

func (l *logRing) snapshot() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}
