package tasks

import "fmt"

// UnknownTaskError is returned when a selection names a task that is not
// registered.
type UnknownTaskError struct {
	ID string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("unknown task %q", e.ID)
}

// TaskError wraps the failure of a single task on a device.
type TaskError struct {
	Task ID
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// BackupWriteError means the backup file or its directory could not be written.
type BackupWriteError struct {
	Path string
	Err  error
}

func (e *BackupWriteError) Error() string {
	return fmt.Sprintf("write backup %s: %v", e.Path, e.Err)
}

func (e *BackupWriteError) Unwrap() error { return e.Err }

// VersionParseError means "show version" carried no system image line.
type VersionParseError struct {
	Host string
	Err  error
}

func (e *VersionParseError) Error() string {
	return fmt.Sprintf("%s: parse show version: %v", e.Host, e.Err)
}

func (e *VersionParseError) Unwrap() error { return e.Err }
