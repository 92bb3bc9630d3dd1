package hsmsss

import (
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/arloliu/go-secsgem/hsms"
	"github.com/arloliu/go-secsgem/logger"
	"github.com/arloliu/go-secsgem/schema"
)

// ConnectionConfig represents the configuration parameters for an HSMS-SS (Single Session) connection.
//
// Options flagged as runtime options can be changed on an open connection with
// Connection.UpdateConfigOptions; the others are fixed once the connection is created.
type ConnectionConfig struct {
	mu sync.RWMutex

	// host specifies the host of the remote HSMS-SS device, or the local address to listen on
	// in passive mode.
	host string

	// port specifies the TCP port number for the HSMS-SS connection.
	port int

	// isEquip indicates whether the HSMS connection is in the equipment role (true) or host role (false).
	// Defaults to false (host role).
	isEquip bool

	// isActive indicates whether the connection should be established in active (true) or passive (false) mode.
	// Defaults to true (active mode).
	isActive bool

	// autoLinktest indicates whether to send periodic linktest requests in the selected state.
	// Defaults to true.
	autoLinktest bool
	// linktestInterval defines the interval between automatic linktest requests.
	// Defaults to 10 seconds.
	linktestInterval time.Duration
	// linktestMaxFailures is the number of consecutive linktest failures tolerated before the
	// connection is torn down. Defaults to 1.
	linktestMaxFailures int

	// t3Timeout defines the reply timeout (T3) for data messages. Defaults to 45 seconds.
	t3Timeout time.Duration
	// t5Timeout defines the connect separation time (T5), the upper bound of the reconnect
	// back-off. Defaults to 10 seconds.
	t5Timeout time.Duration
	// t6Timeout defines the control transaction timeout (T6). Defaults to 5 seconds.
	t6Timeout time.Duration
	// t7Timeout defines the not selected timeout (T7). Defaults to 10 seconds.
	t7Timeout time.Duration
	// t8Timeout defines the inter-character timeout (T8). Defaults to 5 seconds.
	t8Timeout time.Duration

	// connectRemoteTimeout defines the dial timeout in active mode. Defaults to 3 seconds.
	connectRemoteTimeout time.Duration

	// acceptConnTimeout defines the timeout of each accept iteration in passive mode.
	// Defaults to 1 second.
	acceptConnTimeout time.Duration

	// closeConnTimeout defines how long Close waits for the connection goroutines to terminate.
	// Defaults to 3 seconds.
	closeConnTimeout time.Duration

	// dataMsgQueueSize defines the size of the queue of each message handler.
	// Defaults to 10.
	dataMsgQueueSize int

	// registry holds the message schemas used to validate inbound and outbound data messages.
	// Defaults to schema.Standard().
	registry *schema.Registry

	// maxBlockSize is the largest body of a single-block message. Defaults to 32 KiB.
	maxBlockSize int

	// logger provides a logger instance for logging HSMS-related events and errors.
	logger logger.Logger
}

// NewConnectionConfig creates a new HSMS-SS connection configuration with the given host, port number,
// and optional functional options.
//
// It returns the configuration and the first error returned by an option.
func NewConnectionConfig(host string, port int, opts ...ConnOption) (*ConnectionConfig, error) {
	cfg := &ConnectionConfig{
		isEquip:              false,
		isActive:             true,
		autoLinktest:         true,
		linktestInterval:     10 * time.Second,
		linktestMaxFailures:  1,
		t3Timeout:            45 * time.Second,
		t5Timeout:            10 * time.Second,
		t6Timeout:            5 * time.Second,
		t7Timeout:            10 * time.Second,
		t8Timeout:            5 * time.Second,
		connectRemoteTimeout: 3 * time.Second,
		acceptConnTimeout:    1 * time.Second,
		closeConnTimeout:     3 * time.Second,
		dataMsgQueueSize:     10,
		registry:             schema.Standard(),
		maxBlockSize:         schema.DefaultMaxBlockSize,
		logger:               logger.GetLogger(),
	}

	if err := withRemoteHost(host).apply(cfg); err != nil {
		return cfg, err
	}

	if err := withPort(port).apply(cfg); err != nil {
		return cfg, err
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// Host returns the remote host in active mode, or the listen address in passive mode.
func (cfg *ConnectionConfig) Host() string { return cfg.host }

// Port returns the TCP port.
func (cfg *ConnectionConfig) Port() int { return cfg.port }

// IsEquip reports whether the local entity is the equipment.
func (cfg *ConnectionConfig) IsEquip() bool { return cfg.isEquip }

// IsActive reports whether the connection is opened in active mode.
func (cfg *ConnectionConfig) IsActive() bool { return cfg.isActive }

// Role returns the local role used to check message directions.
func (cfg *ConnectionConfig) Role() schema.Role {
	if cfg.isEquip {
		return schema.RoleEquipment
	}

	return schema.RoleHost
}

// AutoLinktest reports whether periodic linktest is enabled.
func (cfg *ConnectionConfig) AutoLinktest() bool {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.autoLinktest
}

// LinktestInterval returns the periodic linktest interval.
func (cfg *ConnectionConfig) LinktestInterval() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.linktestInterval
}

// LinktestMaxFailures returns the number of consecutive linktest failures tolerated.
func (cfg *ConnectionConfig) LinktestMaxFailures() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.linktestMaxFailures
}

// T3Timeout returns the reply timeout.
func (cfg *ConnectionConfig) T3Timeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.t3Timeout
}

// T5Timeout returns the connect separation time.
func (cfg *ConnectionConfig) T5Timeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.t5Timeout
}

// T6Timeout returns the control transaction timeout.
func (cfg *ConnectionConfig) T6Timeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.t6Timeout
}

// T7Timeout returns the not selected timeout.
func (cfg *ConnectionConfig) T7Timeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.t7Timeout
}

// T8Timeout returns the inter-character timeout.
func (cfg *ConnectionConfig) T8Timeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.t8Timeout
}

func (cfg *ConnectionConfig) connectRemoteTimeoutValue() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.connectRemoteTimeout
}

func (cfg *ConnectionConfig) acceptConnTimeoutValue() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.acceptConnTimeout
}

func (cfg *ConnectionConfig) closeConnTimeoutValue() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.closeConnTimeout
}

// ConnOption represents a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc struct {
	name      string
	runtime   bool
	applyFunc func(*ConnectionConfig) error
}

func (c *connOptFunc) apply(cfg *ConnectionConfig) error { return c.applyFunc(cfg) }

func newConnOptFunc(name string, runtime bool, f func(*ConnectionConfig) error) *connOptFunc {
	return &connOptFunc{
		name:    name,
		runtime: runtime,
		applyFunc: func(cfg *ConnectionConfig) error {
			if cfg == nil {
				return hsms.ErrConnConfigNil
			}

			cfg.mu.Lock()
			defer cfg.mu.Unlock()

			return f(cfg)
		},
	}
}

// withRemoteHost sets the host for the HSMS-SS connection. The host must be an IP address or a
// resolvable domain name; an empty host is accepted in passive mode and listens on all interfaces.
func withRemoteHost(host string) ConnOption {
	return newConnOptFunc("withRemoteHost", false, func(cfg *ConnectionConfig) error {
		if host == "" {
			cfg.host = host
			return nil
		}

		if ip := net.ParseIP(host); ip != nil {
			cfg.host = host
			return nil
		}

		host = strings.TrimPrefix(host, ".")
		host = strings.TrimSuffix(host, ".")
		if _, err := net.LookupHost(host); err == nil {
			cfg.host = host
			return nil
		}

		return errors.New("invalid host")
	})
}

// withPort sets the TCP port number. Port 0 picks a free port in passive mode.
func withPort(port int) ConnOption {
	return newConnOptFunc("withPort", false, func(cfg *ConnectionConfig) error {
		if port < 0 || port > 65535 {
			return errors.New("port is out of range [1, 65535]")
		}
		cfg.port = port

		return nil
	})
}

// WithEquipRole sets the HSMS-SS connection as equipment role.
//
// The equipment answers unrecognized or illegal messages with stream 9 error reports and may
// only send messages whose schema allows the equipment to host direction.
//
// The default role is host. This option can't be changed at runtime.
func WithEquipRole() ConnOption {
	return newConnOptFunc("WithEquipRole", false, func(cfg *ConnectionConfig) error {
		cfg.isEquip = true
		return nil
	})
}

// WithHostRole sets the HSMS-SS connection as host role.
//
// The default role is host. This option can't be changed at runtime.
func WithHostRole() ConnOption {
	return newConnOptFunc("WithHostRole", false, func(cfg *ConnectionConfig) error {
		cfg.isEquip = false
		return nil
	})
}

// WithActive sets the connection mode to active: the connection dials the remote and sends
// Select.req.
//
// The default mode is active. This option can't be changed at runtime.
func WithActive() ConnOption {
	return newConnOptFunc("WithActive", false, func(cfg *ConnectionConfig) error {
		cfg.isActive = true
		return nil
	})
}

// WithPassive sets the connection mode to passive: the connection listens and answers Select.req.
//
// The default mode is active. This option can't be changed at runtime.
func WithPassive() ConnOption {
	return newConnOptFunc("WithPassive", false, func(cfg *ConnectionConfig) error {
		cfg.isActive = false
		return nil
	})
}

// WithAutoLinktest enables or disables the periodic linktest in the selected state.
//
// The default value is true. This option can be changed at runtime.
func WithAutoLinktest(val bool) ConnOption {
	return newConnOptFunc("WithAutoLinktest", true, func(cfg *ConnectionConfig) error {
		cfg.autoLinktest = val
		return nil
	})
}

// WithLinktestInterval sets the interval between periodic linktest requests.
//
// The default value is 10 seconds. This option can be changed at runtime.
func WithLinktestInterval(interval time.Duration) ConnOption {
	return newConnOptFunc("WithLinktestInterval", true, func(cfg *ConnectionConfig) error {
		if interval <= 0 {
			return errors.New("linktest interval must be positive")
		}
		cfg.linktestInterval = interval

		return nil
	})
}

// WithLinktestMaxFailures sets the number of consecutive linktest failures, T6 timeouts or
// rejects, after which the connection is torn down. It must be within [1, 100].
//
// The default value is 1. This option can be changed at runtime.
func WithLinktestMaxFailures(n int) ConnOption {
	return newConnOptFunc("WithLinktestMaxFailures", true, func(cfg *ConnectionConfig) error {
		if n < 1 || n > 100 {
			return errors.New("linktest max failures out of range [1, 100]")
		}
		cfg.linktestMaxFailures = n

		return nil
	})
}

// WithT3Timeout sets the reply timeout (T3) for data messages, within [1, 120] seconds.
//
// The default value is 45 seconds. This option can be changed at runtime.
func WithT3Timeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithT3Timeout", true, func(cfg *ConnectionConfig) error {
		if val < 1*time.Second || val > 120*time.Second {
			return errors.New("t3 timeout out of range [1, 120]")
		}
		cfg.t3Timeout = val

		return nil
	})
}

// WithT5Timeout sets the connect separation time (T5), within [0.01, 240] seconds.
//
// The default value is 10 seconds. This option can be changed at runtime.
func WithT5Timeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithT5Timeout", true, func(cfg *ConnectionConfig) error {
		if val < 10*time.Millisecond || val > 240*time.Second {
			return errors.New("t5 timeout out of range [0.01, 240]")
		}
		cfg.t5Timeout = val

		return nil
	})
}

// WithT6Timeout sets the control transaction timeout (T6), within [1, 240] seconds.
//
// The default value is 5 seconds. This option can be changed at runtime.
func WithT6Timeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithT6Timeout", true, func(cfg *ConnectionConfig) error {
		if val < 1*time.Second || val > 240*time.Second {
			return errors.New("t6 timeout out of range [1, 240]")
		}
		cfg.t6Timeout = val

		return nil
	})
}

// WithT7Timeout sets the not selected timeout (T7), within [1, 240] seconds.
//
// The default value is 10 seconds. This option can be changed at runtime.
func WithT7Timeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithT7Timeout", true, func(cfg *ConnectionConfig) error {
		if val < 1*time.Second || val > 240*time.Second {
			return errors.New("t7 timeout out of range [1, 240]")
		}
		cfg.t7Timeout = val

		return nil
	})
}

// WithT8Timeout sets the inter-character timeout (T8), within [1, 120] seconds.
//
// The default value is 5 seconds. This option can be changed at runtime.
func WithT8Timeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithT8Timeout", true, func(cfg *ConnectionConfig) error {
		if val < 1*time.Second || val > 120*time.Second {
			return errors.New("t8 timeout out of range [1, 120]")
		}
		cfg.t8Timeout = val

		return nil
	})
}

// WithConnectRemoteTimeout sets the dial timeout in active mode, within [0.1, 30] seconds.
//
// The default value is 3 seconds. This option can be changed at runtime.
func WithConnectRemoteTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithConnectRemoteTimeout", true, func(cfg *ConnectionConfig) error {
		if val < 100*time.Millisecond || val > 30*time.Second {
			return errors.New("connect remote timeout out of range [0.1, 30]")
		}
		cfg.connectRemoteTimeout = val

		return nil
	})
}

// WithAcceptConnTimeout sets the timeout of each accept iteration in passive mode, within
// [0.1, 2] seconds.
//
// The default value is 1 second. This option can be changed at runtime.
func WithAcceptConnTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithAcceptConnTimeout", true, func(cfg *ConnectionConfig) error {
		if val < 100*time.Millisecond || val > 2*time.Second {
			return errors.New("accept connection timeout out of range [0.1, 2]")
		}
		cfg.acceptConnTimeout = val

		return nil
	})
}

// WithCloseConnTimeout sets how long Close waits for the connection goroutines, within
// [1, 30] seconds.
//
// The default value is 3 seconds. This option can be changed at runtime.
func WithCloseConnTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithCloseConnTimeout", true, func(cfg *ConnectionConfig) error {
		if val < 1*time.Second || val > 30*time.Second {
			return errors.New("close connection timeout out of range [1, 30]")
		}
		cfg.closeConnTimeout = val

		return nil
	})
}

// WithDataMsgQueueSize sets the size of the queue buffering received primary messages for each
// message handler, within [1, 1000].
//
// The default value is 10. This option can't be changed at runtime.
func WithDataMsgQueueSize(size int) ConnOption {
	return newConnOptFunc("WithDataMsgQueueSize", false, func(cfg *ConnectionConfig) error {
		if size < 1 || size > 1000 {
			return errors.New("the data message queue size out of range [1, 1000]")
		}
		cfg.dataMsgQueueSize = size

		return nil
	})
}

// WithRegistry sets the schema registry used to validate data messages, e.g. a registry from
// schema.NewStandardRegistry extended with vendor messages.
//
// The default is schema.Standard(). This option can't be changed at runtime.
func WithRegistry(registry *schema.Registry) ConnOption {
	return newConnOptFunc("WithRegistry", false, func(cfg *ConnectionConfig) error {
		if registry == nil {
			return errors.New("registry is nil")
		}
		cfg.registry = registry

		return nil
	})
}

// WithMaxBlockSize sets the largest body, in bytes, of a message whose schema does not allow
// multiple blocks. It must be at least 244 bytes, the SECS-I block size.
//
// The default value is 32 KiB. This option can't be changed at runtime.
func WithMaxBlockSize(size int) ConnOption {
	return newConnOptFunc("WithMaxBlockSize", false, func(cfg *ConnectionConfig) error {
		if size < 244 {
			return errors.New("max block size must be at least 244 bytes")
		}
		cfg.maxBlockSize = size

		return nil
	})
}

// WithLogger sets the logger for the HSMS-SS connection.
//
// The default logger is the global logger instance. This option can't be changed at runtime.
func WithLogger(l logger.Logger) ConnOption {
	return newConnOptFunc("WithLogger", false, func(cfg *ConnectionConfig) error {
		if l == nil {
			return errors.New("logger is nil")
		}
		cfg.logger = l

		return nil
	})
}
