// Package app provides the process bootstrap: a Launcher that runs every
// long-lived component (HTTP server, saga recovery loop, AML sweep worker,
// outbox pumps) as goroutines inside one process.
package app

import (
	"fmt"
	"sync"

	"github.com/meridianledger/corebank/internal/platform/mlog"
)

// Component is anything the Launcher can run for the lifetime of the
// process. Run blocks until the component stops or fails.
type Component interface {
	Run(l *Launcher) error
}

// Option configures a Launcher.
type Option func(l *Launcher)

// WithLogger attaches the logger every component logs startup/shutdown
// through.
func WithLogger(logger mlog.Logger) Option {
	return func(l *Launcher) { l.Logger = logger }
}

// Register adds a named component to the launcher.
func Register(name string, c Component) Option {
	return func(l *Launcher) { l.Add(name, c) }
}

// Launcher runs a fixed set of named components concurrently and blocks
// until all of them return.
type Launcher struct {
	Logger mlog.Logger

	components map[string]Component
	wg         sync.WaitGroup
}

// Add registers a component under name.
func (l *Launcher) Add(name string, c Component) *Launcher {
	l.components[name] = c
	return l
}

// Run starts every registered component in its own goroutine and blocks
// until they all return.
func (l *Launcher) Run() {
	count := len(l.components)
	l.wg.Add(count)

	l.Logger.Infof("launcher: starting %d component(s)", count)

	for name, c := range l.components {
		go func(name string, c Component) {
			defer l.wg.Done()

			l.Logger.Infof("launcher: %s starting", name)

			if err := c.Run(l); err != nil {
				l.Logger.Errorf("launcher: %s exited with error: %v", name, err)
				return
			}

			l.Logger.Infof("launcher: %s finished", name)
		}(name, c)
	}

	l.wg.Wait()

	l.Logger.Info("launcher: terminated")
}

// New builds a Launcher from the given options.
func New(opts ...Option) *Launcher {
	l := &Launcher{
		Logger:     &mlog.NoneLogger{},
		components: make(map[string]Component),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// RunFunc adapts a plain no-argument loop function into a Component, for
// components (outbox pumps, recovery loops) that don't need the Launcher
// reference; a loop that needs a context captures it in a closure.
type RunFunc func()

// Run implements Component.
func (f RunFunc) Run(*Launcher) error {
	f()
	return nil
}

// ListenAddr is a small formatting helper used by Server-style components to
// describe themselves in logs.
func ListenAddr(addr string) string {
	return fmt.Sprintf("listening on %s", addr)
}
