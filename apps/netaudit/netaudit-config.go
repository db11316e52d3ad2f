package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andrej220/netaudit/internal/tasks"
	"github.com/andrej220/netaudit/pkg/config/configstore"
	"github.com/andrej220/netaudit/pkg/config/filestore"
	"github.com/andrej220/netaudit/pkg/executor"
	"github.com/go-playground/validator/v10"
)

const SERVICENAME = "netaudit"
const DEFAULTBACKUPDIR = "backups"

type NetauditConfig struct {
	BackupDir string `yaml:"backup_dir" json:"backup_dir" validate:"required"`
	NTPServer string `yaml:"ntp_server" json:"ntp_server" validate:"required,hostname_rfc1123|ip"`
	Workers   int    `yaml:"workers" json:"workers" validate:"gte=0"`

	SSH struct {
		DialTimeout    time.Duration `yaml:"dial_timeout" json:"dial_timeout" validate:"gte=0"`
		CommandTimeout time.Duration `yaml:"command_timeout" json:"command_timeout" validate:"gte=0"`
		KnownHosts     string        `yaml:"known_hosts" json:"known_hosts"`
		Retries        uint64        `yaml:"retries" json:"retries"`
	} `yaml:"ssh" json:"ssh"`

	Output struct {
		JSONFile    string `yaml:"json_file" json:"json_file"`
		MetricsFile string `yaml:"metrics_file" json:"metrics_file"`
	} `yaml:"output" json:"output"`

	Kafka struct {
		Brokers []string `yaml:"brokers" json:"brokers" validate:"omitempty,dive,hostname_port"`
		Topic   string   `yaml:"topic" json:"topic" validate:"required_with=Brokers"`
	} `yaml:"kafka" json:"kafka"`

	Mongo struct {
		URI        string `yaml:"uri" json:"uri" validate:"omitempty,uri"`
		Database   string `yaml:"database" json:"database" validate:"required_with=URI"`
		Collection string `yaml:"collection" json:"collection" validate:"required_with=URI"`
	} `yaml:"mongo" json:"mongo"`
}

func NewNetauditConfig() *NetauditConfig {
	cfg := &NetauditConfig{
		BackupDir: DEFAULTBACKUPDIR,
		NTPServer: tasks.DefaultNTPServer,
	}
	ssh := executor.DefaultSSHSettings()
	cfg.SSH.DialTimeout = ssh.DialTimeout
	cfg.SSH.CommandTimeout = ssh.CommandTimeout
	cfg.SSH.Retries = ssh.Retries
	return cfg
}

// loadConfig overlays the file at path on the defaults. An empty path or an
// empty file leaves the defaults untouched.
func loadConfig(path string) (*NetauditConfig, error) {
	cfg := NewNetauditConfig()
	if path == "" {
		return cfg, nil
	}
	if err := filestore.New(path).Load(cfg); err != nil && !errors.Is(err, configstore.ErrEmpty) {
		return nil, err
	}
	return cfg, nil
}

var configValidator = validator.New()

func (c *NetauditConfig) Validate() error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", strings.TrimPrefix(fe.Namespace(), "NetauditConfig."), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func (c *NetauditConfig) SSHSettings() executor.SSHSettings {
	return executor.SSHSettings{
		DialTimeout:    c.SSH.DialTimeout,
		CommandTimeout: c.SSH.CommandTimeout,
		KnownHostsFile: c.SSH.KnownHosts,
		Retries:        c.SSH.Retries,
	}
}
