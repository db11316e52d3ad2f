package executor

import (
	"context"

	dm "github.com/andrej220/netaudit/pkg/shared-models"
)

// Dialer opens an authenticated command channel to a device.
// Open fails with *ConnectionError.
type Dialer interface {
	Open(ctx context.Context, dev dm.Device) (Session, error)
}

// Session executes commands against one device. A Session is owned by a
// single goroutine and is not safe for concurrent use.
type Session interface {
	// Exec runs a single command and returns its text output.
	// It fails with *CommandError.
	Exec(ctx context.Context, command string) (string, error)
	// PushConfig applies configuration lines in configuration mode.
	// It fails with *ConfigError.
	PushConfig(ctx context.Context, lines []string) error
	// Close releases the session. It is idempotent.
	Close()
}
