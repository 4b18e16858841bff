// Package irc implements the core of an IRC client session: transport,
// framing, capability negotiation, authentication, flow shaping, message
// splitting, and a structured event stream, with bounded reconnection on
// transient disconnects. See doc.go for an overview.
package irc

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/birdwatch-irc/ircsession/internal/frame"
	"github.com/birdwatch-irc/ircsession/internal/metrics"
	"github.com/birdwatch-irc/ircsession/ircdebug"
)

// Client manages one IRC server session: exactly the one-server-at-a-time
// scope spec.md's Non-goals call for (no multi-server federation).
type Client struct {
	// ID uniquely identifies this session instance, for correlating log
	// lines and metrics across reconnects of the same Client.
	ID string

	opt     Options
	session *Session
	events  *EventBus
	metrics *metrics.Metrics

	codec     *frame.Codec
	transport Transport
	sender    Sender

	capState         capState
	nickInUseCounter int

	requestedDisconnect bool
	retryCount          int
	reconnectTimer      *time.Timer

	// fatalErr is the one error a handler panic can surface, mirroring the
	// teacher's ConnectAndRun error channel: it captures exactly one error
	// and lets everything else drain. Run returns it once stopCh closes.
	fatalErr error

	// cmdCh is the single hand-off point user-facing CommandAPI calls use
	// to reach the session goroutine, per spec.md §5's single-writer rule.
	cmdCh    chan func()
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewClient constructs a Client from opt, applying no defaults opt itself
// didn't already set — callers typically start from DefaultOptions().
func NewClient(opt Options) *Client {
	return &Client{
		ID:      uuid.New().String(),
		opt:     opt,
		session: newSession(opt.ChannelPrefixes),
		events:  newEventBus(),
		metrics: opt.metrics(),
		codec:   frame.NewCodec(nil, opt.StripColors),
		cmdCh:   make(chan func(), 32),
		stopCh:  make(chan struct{}),
	}
}

func (c *Client) logger() *log.Logger { return c.opt.logger() }

// Events returns the session's EventBus for subscribing to protocol
// occurrences (on/once/off/emit), per spec.md §4.7.
func (c *Client) Events() *EventBus { return c.events }

// Session exposes the in-memory model for read-only inspection from the
// session goroutine (handlers, or synchronous calls made from within an
// event callback). Cross-goroutine callers should not read this directly;
// route through CommandAPI or a command submitted via Do.
func (c *Client) Session() *Session { return c.session }

// Do hands fn off to the session goroutine and returns immediately. Use
// this from any goroutine other than a currently-executing handler to
// safely read or mutate session state.
func (c *Client) Do(fn func()) {
	c.cmdCh <- fn
}

func nowMillis() int64 { return time.Now().UnixMilli() }

// Run starts the session goroutine: it dials, then loops reading frames
// and draining command requests until the connection is closed and no
// further reconnect is scheduled. Run blocks until the session ends either
// by explicit Disconnect or by exhausting the reconnect budget.
func (c *Client) Run() error {
	c.connectLocked()
	for {
		select {
		case fn, ok := <-c.cmdCh:
			if !ok {
				return c.fatalErr
			}
			fn()
		case <-c.stopCh:
			return c.fatalErr
		}
	}
}

// connectLocked opens the transport and starts the background reader. It
// must only be called from the session goroutine (directly from Run, or
// via a closure posted to cmdCh, e.g. from scheduleReconnect).
func (c *Client) connectLocked() {
	t, err := dialTransport(c.opt)
	if err != nil {
		c.logger().Printf("irc: connect failed: %v", err)
		c.events.Emit("netError", err)
		c.scheduleReconnect()
		return
	}
	c.transport = t
	if c.opt.Debug {
		c.transport = ircdebug.WriteTo(c.logger().Writer(), t, "-> ", "<- ")
	}
	c.codec.Reset()
	c.capState = capNone
	c.session.PendingCapReq = nil

	write := func(b []byte) {
		c.metrics.FrameSent()
		if _, err := c.transport.Write(b); err != nil {
			c.logger().Printf("irc: write error: %v", err)
		}
	}
	if c.opt.FloodProtection {
		c.sender = newQueuedSender(write, time.Duration(c.opt.FloodProtectionMS)*time.Millisecond, c.metrics.SetSendQueueDepth, c.Do)
	} else {
		c.sender = newDirectSender(write)
	}

	c.events.Emit("open")

	frames := make(chan []byte, 64)
	go c.readLoop(c.transport, frames)

	go func() {
		for chunk := range frames {
			c.cmdCh <- func() { c.onChunk(chunk) }
		}
		c.cmdCh <- func() { c.onTransportClosed() }
	}()

	if c.opt.webircConfigured() {
		c.send(frame.Serialize("WEBIRC", c.opt.WebIRC.Pass, c.opt.WebIRC.User, c.opt.WebIRC.IP))
	}
	if c.opt.Password != "" && !c.opt.SASL {
		c.send(frame.Serialize("PASS", c.opt.Password))
	}
	c.send(frame.Serialize("CAP", "LS", "302"))
	c.send(frame.Serialize("NICK", c.opt.Nick))
	c.send(frame.Serialize("USER", c.opt.UserName, "0", "*", c.opt.RealName))

	c.events.Once("cap-end", func(args ...any) {
		c.events.Emit("connect")
	})
}

func (c *Client) readLoop(t Transport, out chan<- []byte) {
	buf := make([]byte, 4096)
	for {
		n, err := t.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			out <- chunk
		}
		if err != nil {
			close(out)
			return
		}
	}
}

func (c *Client) onChunk(chunk []byte) {
	frames, err := c.codec.Decode(chunk)
	if err != nil {
		c.events.Emit("error", err)
		return
	}
	for _, f := range frames {
		c.dispatch(f)
	}
}

// dispatch wraps handleFrame with the recover-unless-shutting-down policy
// spec.md §4.7/§7 specify: a handler failure during raw dispatch must not
// interrupt processing of subsequent frames, except when the session is
// not in a requested-disconnect state, where it is surfaced as session-
// fatal. Rather than re-panicking (which would unwind out of Run on
// whatever goroutine called it), the panic value is captured as Run's
// eventual error result, mirroring the teacher's ConnectAndRun error
// channel, which captures exactly one error and lets everything else drain.
func (c *Client) dispatch(f frame.Frame) {
	defer func() {
		if r := recover(); r != nil {
			c.logger().Printf("irc: handler panic on %s: %v", f.Command, r)
			if !c.requestedDisconnect {
				c.failLocked(r)
			}
		}
	}()
	c.events.Emit("raw", f)
	c.handleFrame(f)
}

// failLocked records r as the session's one fatal error and tears the
// connection down the same way Disconnect does, so onTransportClosed closes
// stopCh once the read loop drains. Only the first call wins; later ones are
// dropped, matching a channel that can hold exactly one error.
func (c *Client) failLocked(r any) {
	if c.fatalErr == nil {
		if err, ok := r.(error); ok {
			c.fatalErr = err
		} else {
			c.fatalErr = fmt.Errorf("irc: handler panic: %v", r)
		}
	}
	c.requestedDisconnect = true
	if c.transport != nil {
		c.transport.Close()
	}
}

func (c *Client) onTransportClosed() {
	if c.transport != nil {
		c.transport.Close()
	}
	if c.sender != nil {
		c.sender.Close()
	}
	c.events.Emit("close")
	if !c.requestedDisconnect {
		c.scheduleReconnect()
		return
	}
	// A requested disconnect has fully drained: nothing else will arrive on
	// cmdCh, so let Run return instead of leaking the session goroutine.
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// send writes one already-serialized frame through the active Sender.
func (c *Client) send(b []byte) {
	if c.requestedDisconnect {
		return
	}
	if c.sender == nil {
		return
	}
	c.sender.Send(b)
}
