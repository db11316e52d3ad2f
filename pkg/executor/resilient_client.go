package executor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/andrej220/netaudit/internal/lg"
	dm "github.com/andrej220/netaudit/pkg/shared-models"
	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const defaultPort = "22"

// SSHSettings are the collaborator-level limits applied to every device.
type SSHSettings struct {
	DialTimeout    time.Duration
	CommandTimeout time.Duration
	KnownHostsFile string
	Retries        uint64
}

func DefaultSSHSettings() SSHSettings {
	return SSHSettings{
		DialTimeout:    10 * time.Second,
		CommandTimeout: 60 * time.Second,
		Retries:        3,
	}
}

// ResilienceConfig holds the retry and circuit breaker settings used when
// opening channels on an established connection.
type ResilienceConfig struct {
	Retries                uint64
	InitialInterval        time.Duration
	MaxInterval            time.Duration
	CircuitBreakerSettings gobreaker.Settings
}

func NewResilienceConfig(host string, retries uint64) *ResilienceConfig {
	return &ResilienceConfig{
		Retries:         retries,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		CircuitBreakerSettings: gobreaker.Settings{
			Name:        "ssh-" + host,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		},
	}
}

// newBackOff builds a fresh policy per operation; ExponentialBackOff keeps
// state and must not be shared between callers.
func (r *ResilienceConfig) newBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.InitialInterval
	b.MaxInterval = r.MaxInterval
	b.Multiplier = 1.5
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, r.Retries), ctx)
}

// SSHDialer implements Dialer over golang.org/x/crypto/ssh.
type SSHDialer struct {
	settings SSHSettings
}

var _ Dialer = (*SSHDialer)(nil)

func NewSSHDialer(settings SSHSettings) *SSHDialer {
	return &SSHDialer{settings: settings}
}

// Open dials the device and returns a session bound to that connection.
func (d *SSHDialer) Open(ctx context.Context, dev dm.Device) (Session, error) {
	logger := lg.FromContext(ctx)

	clientConfig, err := d.clientConfig(dev)
	if err != nil {
		return nil, &ConnectionError{Host: dev.Hostname, Err: err}
	}

	port := dev.Param(dm.ConnPort)
	if port == "" {
		port = defaultPort
	}
	addr := net.JoinHostPort(dev.Address(), port)

	dialCtx := ctx
	if d.settings.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, d.settings.DialTimeout)
		defer cancel()
	}

	logger.Debug("dialing device", lg.String("addr", addr))
	client, err := dialContext(dialCtx, addr, clientConfig)
	if err != nil {
		return nil, &ConnectionError{Host: dev.Hostname, Err: err}
	}

	resConf := NewResilienceConfig(dev.Hostname, d.settings.Retries)
	return &SSHSession{
		host:           dev.Hostname,
		client:         client,
		resConf:        resConf,
		breaker:        gobreaker.NewCircuitBreaker(resConf.CircuitBreakerSettings),
		commandTimeout: d.settings.CommandTimeout,
		secret:         dev.Param(dm.ConnSecret),
		logger:         logger,
	}, nil
}

func (d *SSHDialer) clientConfig(dev dm.Device) (*ssh.ClientConfig, error) {
	user := dev.Param(dm.ConnUsername)
	if user == "" {
		return nil, errors.New("username is not set")
	}

	var auth []ssh.AuthMethod
	if keyFile := dev.Param(dm.ConnKeyFile); keyFile != "" {
		keyAuth, err := publicKeyAuth(keyFile)
		if err != nil {
			return nil, err
		}
		auth = append(auth, keyAuth)
	}
	if password := dev.Param(dm.ConnPassword); password != "" {
		auth = append(auth,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}
	if len(auth) == 0 {
		return nil, errors.New("no password or key_file given")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if d.settings.KnownHostsFile != "" {
		cb, err := knownhosts.New(d.settings.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("known hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         d.settings.DialTimeout,
		BannerCallback:  func(message string) error { return nil }, // ignore banner
	}, nil
}

// dialContext is ssh.Dial with cancellation of the TCP connect and handshake.
func dialContext(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Time{})
	return ssh.NewClient(c, chans, reqs), nil
}

func publicKeyAuth(privateKeyPath string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key: %w", err)
	}
	return ssh.PublicKeys(signer), nil
}
