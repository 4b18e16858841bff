/*
Package irc implements the core session engine of an IRC client: the part
that dials a server, tracks negotiated capabilities and channel state, and
turns protocol frames into a structured stream of events.

This overview provides brief introductions for types and concepts. The
godoc for each type contains expanded documentation.

API

These are the main types you will interact with while using this package:

	// Options configures a Client: server address, nickname, auth,
	// flood protection, reconnect policy, and so on.
	type Options struct {
		Server string
		Nick   string
		// ...
	}

	// A Client manages a connection to an IRC server.
	type Client struct {
		// ...
	}

	// Run dials and drives the session until it ends.
	func (c *Client) Run() error

	// Events returns the pub/sub surface for protocol occurrences.
	func (c *Client) Events() *EventBus

Client

The Client type owns one server session: the transport, the frame codec,
the flood-protection sender, and the in-memory Session model (own nick,
joined channels, WHOIS/WHO accumulators, ISUPPORT-derived limits). Run
starts the session's single logical goroutine; every state mutation and
event emission happens there, so handlers never need locks. CommandAPI
methods (Join, Part, Say, Whois, and so on) are safe to call from any
goroutine — they hand their work off to the session goroutine through a
small command channel before touching anything.

EventBus

Protocol occurrences are delivered as named events rather than through a
single callback interface:

	client.Events().On("message", func(args ...any) {
		nick, target, text := args[0].(string), args[1].(string), args[2].(string)
		log.Printf("<%s> %s: %s", target, nick, text)
	})

Once subscribes a handler that fires exactly one time and is removed
before it runs, which makes it safe for a one-shot handler to resubscribe
to the same event without immediately re-firing:

	client.Events().Once("registered", func(args ...any) {
		client.Join("#channel", "", nil)
	})

Handlers run synchronously, in registration order, on the session
goroutine — in the same order the underlying frames arrived on the wire.

Frames

Wire-level parsing lives in the internal/frame package: ParseFrame never
fails, Serialize builds outbound lines with the IRC trailing-argument
marker applied where needed, and numeric replies are exposed under their
symbolic name (rpl_welcome, err_nicknameinuse, and so on) with the raw
numeric preserved separately. Client code never touches internal/frame
directly; it only sees the resulting events and Session fields.

Flood Protection

A Sender is chosen once, at connect time, based on Options.FloodProtection:
a direct sender writes immediately, a queued sender paces writes on a
fixed interval. This replaces a runtime method-swap with a type choice,
since Go has no equivalent of reassigning a method on a live object.

Reconnection

On an unexpected transport close, the session schedules another connect
attempt after Options.RetryDelayMS, up to Options.RetryCount attempts (nil
means unbounded). Exhausting the budget emits "abort" instead of looping
forever. Calling Disconnect marks the session as having requested its own
close, which suppresses the next reconnect attempt.
*/
package irc
