package executor

import "fmt"

// ConnectionError means the device could not be reached or authenticated.
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommandError means a command could not be run or did not complete.
type CommandError struct {
	Host    string
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: command %q: %v", e.Host, e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ConfigError means configuration lines were not applied.
type ConfigError struct {
	Host string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: push config: %v", e.Host, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
