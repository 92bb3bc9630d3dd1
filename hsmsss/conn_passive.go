package hsmsss

import (
	"errors"
	"net"
	"strconv"
	"time"
)

func (c *Connection) openPassive() error {
	c.listenerMu.Lock()
	if c.listener == nil {
		address := net.JoinHostPort(c.cfg.host, strconv.Itoa(c.cfg.port))

		var lc net.ListenConfig
		listener, err := lc.Listen(c.pctx, "tcp", address)
		if err != nil {
			c.listenerMu.Unlock()
			c.logger.Error("failed to listen", "address", address, "error", err)

			return err
		}
		c.listener = listener
		c.logger.Info("listen success", "address", listener.Addr().String())
	}
	c.listenerMu.Unlock()

	return c.taskMgr.Start("acceptTask", c.acceptTask)
}

// ListenAddr returns the address the passive connection listens on, or nil.
func (c *Connection) ListenAddr() net.Addr {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	if c.listener == nil {
		return nil
	}

	return c.listener.Addr()
}

// acceptTask accepts one connection per iteration. HSMS-SS serves a single connection, further
// connections are closed right away.
func (c *Connection) acceptTask() bool {
	if conn := c.takeParkedConn(); conn != nil {
		return c.connected(conn)
	}

	listener := c.tcpListener()
	if listener == nil {
		return false
	}

	conn, err := listener.Accept()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true // the task loop checks the context before the next accept
		}

		if c.shutdown.Load() || errors.Is(err, net.ErrClosed) {
			return false
		}

		c.logger.Error("failed to accept connection", "method", "acceptTask", "error", err)

		return true
	}

	if c.currentConn() != nil && !c.stateMgr.IsNotConnected() {
		c.logger.Warn("connection already existed", "method", "acceptTask", "remote_addr", conn.RemoteAddr().String())
		_ = conn.Close()

		return true
	}

	return c.connected(conn)
}

func (c *Connection) tcpListener() *net.TCPListener {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	if c.listener == nil {
		return nil
	}

	tcpListener, ok := c.listener.(*net.TCPListener)
	if !ok {
		c.logger.Error("listener is not a TCP listener")
		return nil
	}

	if err := tcpListener.SetDeadline(time.Now().Add(c.cfg.acceptConnTimeoutValue())); err != nil {
		c.logger.Error("failed to set deadline for tcp listener", "error", err)
		return nil
	}

	// wakeListener may have run before the deadline above was set
	if c.taskMgr.Context().Err() != nil {
		return nil
	}

	return tcpListener
}

// wakeListener makes a pending Accept return, the accept task of a closed connection must not
// take the next connection.
func (c *Connection) wakeListener() {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	if tcpListener, ok := c.listener.(*net.TCPListener); ok {
		_ = tcpListener.SetDeadline(time.Now())
	}
}

// parkConn keeps a connection accepted while the previous one was torn down. The next accept
// task takes it over.
func (c *Connection) parkConn(conn net.Conn) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	if c.parked != nil {
		_ = c.parked.Close()
	}
	c.parked = conn
	c.logger.Debug("connection parked until reopen", "remote_addr", conn.RemoteAddr().String())
}

func (c *Connection) takeParkedConn() net.Conn {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	conn := c.parked
	c.parked = nil

	return conn
}

func (c *Connection) closeListener() error {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	if c.parked != nil {
		_ = c.parked.Close()
		c.parked = nil
	}

	if c.listener == nil {
		return nil
	}

	err := c.listener.Close()
	c.listener = nil

	return err
}
