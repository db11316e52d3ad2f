package datamodels

import (
	"time"

	"github.com/google/uuid"
)

// Connection parameter keys understood by the SSH dialer.
const (
	ConnDeviceType = "device_type"
	ConnHost       = "host"
	ConnPort       = "port"
	ConnUsername   = "username"
	ConnPassword   = "password"
	ConnSecret     = "secret"
	ConnKeyFile    = "key_file"
)

// Device describes one inventory entry. It is read-only once loaded.
type Device struct {
	Hostname string            `yaml:"hostname" json:"hostname" bson:"hostname" validate:"required,max=253,excludesall=/\\"`
	ConnInfo map[string]string `yaml:"conn_info" json:"conn_info" bson:"-" validate:"required"`
}

// Param returns a connection parameter or "" if it is absent.
func (d Device) Param(key string) string {
	if d.ConnInfo == nil {
		return ""
	}
	return d.ConnInfo[key]
}

// Address returns the management address, falling back to the hostname.
func (d Device) Address() string {
	if h := d.Param(ConnHost); h != "" {
		return h
	}
	return d.Hostname
}

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ReportField is one report entry. Scalar fields carry Value, grouped fields
// carry Fields.
type ReportField struct {
	Name   string        `json:"name" bson:"name"`
	Value  string        `json:"value,omitempty" bson:"value,omitempty"`
	Fields []ReportField `json:"fields,omitempty" bson:"fields,omitempty"`
}

// RunRecord is the per-device document shipped to result sinks.
type RunRecord struct {
	RunID      uuid.UUID         `json:"run_id" bson:"run_id"`
	Hostname   string            `json:"hostname" bson:"hostname"`
	Status     string            `json:"status" bson:"status"`
	Line       string            `json:"line,omitempty" bson:"line,omitempty"`
	Report     []ReportField     `json:"report,omitempty" bson:"report,omitempty"`
	Error      string            `json:"error,omitempty" bson:"error,omitempty"`
	TaskErrors map[string]string `json:"task_errors,omitempty" bson:"task_errors,omitempty"`
	Timestamp  time.Time         `json:"timestamp" bson:"timestamp"`
}
