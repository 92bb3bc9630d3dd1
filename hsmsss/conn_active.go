package hsmsss

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/arloliu/go-secsgem/internal/pool"
)

const (
	initialRetryDelay = 100 * time.Millisecond
	retryDelayFactor  = 2
)

// connectTask dials the remote once. A failed dial waits for the retry delay and asks to be
// run again; the delay grows exponentially up to T5.
func (c *Connection) connectTask() bool {
	ctx := c.taskMgr.Context()

	conn, err := c.dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}

		c.metrics.incConnRetryGauge()

		delay := c.nextRetryDelay()
		c.logger.Debug("failed to connect to the remote, retry later", "error", err, "delay", delay)

		return pool.Sleep(ctx.Done(), delay)
	}

	c.metrics.resetConnRetryGauge()
	c.connected(conn)

	return false
}

func (c *Connection) dial(ctx context.Context) (net.Conn, error) {
	address := net.JoinHostPort(c.cfg.host, strconv.Itoa(c.cfg.port))
	dialer := &net.Dialer{KeepAlive: 30 * time.Second}

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.connectRemoteTimeoutValue())
	defer cancel()

	return dialer.DialContext(dialCtx, "tcp", address)
}

// nextRetryDelay returns the current retry delay and doubles it, capped at T5.
func (c *Connection) nextRetryDelay() time.Duration {
	delay := c.retryDelay.Load()

	next := delay * retryDelayFactor
	if t5 := c.cfg.T5Timeout(); next > t5 {
		next = t5
	}
	c.retryDelay.Store(next)

	return delay
}

// selectTask runs the select procedure of the active side. The receiver moves the connection
// to the selected state when Select.rsp arrives with status 0.
func (c *Connection) selectTask() bool {
	if err := c.session.selectSession(); err != nil {
		if c.taskMgr.Context().Err() == nil {
			c.logger.Warn("failed to select session, close connection", "error", err)
			c.stateMgr.ToNotConnectedAsync()
		}
	}

	return false
}
