// Package executortest provides in-memory Dialer and Session fakes.
package executortest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andrej220/netaudit/pkg/executor"
	dm "github.com/andrej220/netaudit/pkg/shared-models"
)

// Session answers commands from Outputs and records every call.
// Commands without an entry in Outputs or Errors return "".
type Session struct {
	Host      string
	Outputs   map[string]string
	Errors    map[string]error
	ConfigErr error
	PanicOn   string

	mu       sync.Mutex
	commands []string
	pushed   [][]string
	closes   int
}

var _ executor.Session = (*Session)(nil)

func (s *Session) Exec(ctx context.Context, command string) (string, error) {
	s.mu.Lock()
	s.commands = append(s.commands, command)
	s.mu.Unlock()

	if s.PanicOn != "" && s.PanicOn == command {
		panic(fmt.Sprintf("fake session: %s", command))
	}
	if err := ctx.Err(); err != nil {
		return "", &executor.CommandError{Host: s.Host, Command: command, Err: err}
	}
	if err, ok := s.Errors[command]; ok {
		return "", &executor.CommandError{Host: s.Host, Command: command, Err: err}
	}
	return s.Outputs[command], nil
}

func (s *Session) PushConfig(ctx context.Context, lines []string) error {
	s.mu.Lock()
	s.pushed = append(s.pushed, append([]string(nil), lines...))
	s.mu.Unlock()

	if s.ConfigErr != nil {
		return &executor.ConfigError{Host: s.Host, Err: s.ConfigErr}
	}
	return nil
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
}

func (s *Session) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *Session) Pushed() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.pushed...)
}

func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Dialer hands out the Session registered for each hostname. Hostnames in
// Errors fail with *executor.ConnectionError; Delays hold Open back.
type Dialer struct {
	Sessions map[string]*Session
	Errors   map[string]error
	Delays   map[string]time.Duration

	mu     sync.Mutex
	opened []string
}

var _ executor.Dialer = (*Dialer)(nil)

func (d *Dialer) Open(ctx context.Context, dev dm.Device) (executor.Session, error) {
	if delay := d.Delays[dev.Hostname]; delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &executor.ConnectionError{Host: dev.Hostname, Err: ctx.Err()}
		}
	}

	d.mu.Lock()
	d.opened = append(d.opened, dev.Hostname)
	d.mu.Unlock()

	if err, ok := d.Errors[dev.Hostname]; ok {
		return nil, &executor.ConnectionError{Host: dev.Hostname, Err: err}
	}
	if s, ok := d.Sessions[dev.Hostname]; ok {
		return s, nil
	}
	return nil, &executor.ConnectionError{Host: dev.Hostname, Err: fmt.Errorf("no fake session for %s", dev.Hostname)}
}

// Opened lists hostnames in the order Open reached them.
func (d *Dialer) Opened() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.opened...)
}
