package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/andrej220/netaudit/internal/lg"
	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/crypto/ssh"
)

// Markers IOS prints when a configuration line is rejected.
var configRejectMarkers = []string{"% Invalid input", "% Incomplete command", "% Ambiguous command"}

// SSHSession runs commands on one device. Every Exec opens its own channel
// on the shared connection; channel opening goes through the circuit breaker
// and is retried with backoff.
type SSHSession struct {
	host           string
	client         *ssh.Client
	resConf        *ResilienceConfig
	breaker        *gobreaker.CircuitBreaker
	commandTimeout time.Duration
	secret         string
	logger         lg.Logger

	closeOnce sync.Once
}

var _ Session = (*SSHSession)(nil)

func (s *SSHSession) Exec(ctx context.Context, command string) (string, error) {
	ctx, cancel := s.withCommandTimeout(ctx)
	defer cancel()

	var out string
	operation := func() error {
		sess, err := s.newChannel()
		if err != nil {
			return err
		}
		defer sess.Close()

		var stdout, stderr bytes.Buffer
		sess.Stdout = &stdout
		sess.Stderr = &stderr
		if err := sess.Start(command); err != nil {
			return fmt.Errorf("start: %w", err)
		}
		if err := waitSession(ctx, sess); err != nil {
			return backoff.Permanent(err)
		}
		out = stdout.String()
		if stderr.Len() > 0 {
			s.logger.Debug("command wrote to stderr",
				lg.String("command", command), lg.String("stderr", stderr.String()))
		}
		return nil
	}

	if err := backoff.Retry(operation, s.resConf.newBackOff(ctx)); err != nil {
		return "", &CommandError{Host: s.host, Command: command, Err: err}
	}
	return out, nil
}

// PushConfig feeds lines to an interactive shell in configuration mode,
// entering privileged mode first when an enable secret is known.
func (s *SSHSession) PushConfig(ctx context.Context, lines []string) error {
	ctx, cancel := s.withCommandTimeout(ctx)
	defer cancel()

	sess, err := s.newChannel()
	if err != nil {
		return &ConfigError{Host: s.host, Err: err}
	}
	defer sess.Close()

	modes := ssh.TerminalModes{ssh.ECHO: 0}
	if err := sess.RequestPty("vt100", 80, 200, modes); err != nil {
		return &ConfigError{Host: s.host, Err: fmt.Errorf("request pty: %w", err)}
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		return &ConfigError{Host: s.host, Err: fmt.Errorf("stdin pipe: %w", err)}
	}
	var output bytes.Buffer
	sess.Stdout = &output

	if err := sess.Shell(); err != nil {
		return &ConfigError{Host: s.host, Err: fmt.Errorf("shell: %w", err)}
	}
	if _, err := io.WriteString(stdin, configScript(s.secret, lines)); err != nil {
		return &ConfigError{Host: s.host, Err: fmt.Errorf("write: %w", err)}
	}
	stdin.Close()

	if err := waitSession(ctx, sess); err != nil {
		return &ConfigError{Host: s.host, Err: err}
	}
	for _, marker := range configRejectMarkers {
		if strings.Contains(output.String(), marker) {
			return &ConfigError{Host: s.host, Err: fmt.Errorf("device rejected configuration: %s", marker)}
		}
	}
	return nil
}

func (s *SSHSession) Close() {
	s.closeOnce.Do(func() {
		if err := s.client.Close(); err != nil {
			s.logger.Debug("closing ssh connection", lg.Err(err))
		}
	})
}

func (s *SSHSession) newChannel() (*ssh.Session, error) {
	res, err := s.breaker.Execute(func() (any, error) {
		return s.client.NewSession()
	})
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	return res.(*ssh.Session), nil
}

func (s *SSHSession) withCommandTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.commandTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.commandTimeout)
}

// waitSession waits for the remote command, closing the channel if ctx ends
// first. Devices that omit exit-status are treated as successful.
func waitSession(ctx context.Context, sess *ssh.Session) error {
	done := make(chan error, 1)
	go func() { done <- sess.Wait() }()

	select {
	case <-ctx.Done():
		sess.Close()
		return ctx.Err()
	case err := <-done:
		var missing *ssh.ExitMissingError
		if errors.As(err, &missing) {
			return nil
		}
		return err
	}
}

func configScript(secret string, lines []string) string {
	var b strings.Builder
	if secret != "" {
		b.WriteString("enable\n")
		b.WriteString(secret + "\n")
	}
	b.WriteString("terminal length 0\n")
	b.WriteString("configure terminal\n")
	for _, line := range lines {
		b.WriteString(line + "\n")
	}
	b.WriteString("end\n")
	b.WriteString("exit\n")
	return b.String()
}
