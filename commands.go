package irc

import (
	"strings"

	"github.com/birdwatch-irc/ircsession/internal/frame"
)

// Connect dials the server and negotiates registration. cb, if non-nil, is
// invoked once on "registered".
func (c *Client) Connect(cb func()) {
	if cb != nil {
		c.events.Once("registered", func(args ...any) { cb() })
	}
	c.Do(func() { c.connectLocked() })
}

// Disconnect sends QUIT (bypassing flood protection) and closes the
// transport. cb, if non-nil, is invoked once the transport reports "close".
func (c *Client) Disconnect(message string, cb func()) {
	c.Do(func() {
		c.requestedDisconnect = true
		if c.sender != nil {
			c.sender.ClearQueue()
			c.sender.SendImmediate(frame.Serialize("QUIT", message))
		}
		if cb != nil {
			c.events.Once("close", func(args ...any) { cb() })
		}
		if c.transport != nil {
			c.transport.Close()
		}
	})
}

// Join sends JOIN for channel (optionally with a key), adds it to the
// tracked channel set once the server confirms membership, and invokes cb.
func (c *Client) Join(channel, key string, cb func()) {
	c.Do(func() {
		c.events.Once("selfjoin"+channel, func(args ...any) {
			if !containsFold(c.opt.Channels, channel) {
				c.opt.Channels = append(c.opt.Channels, channel)
			}
			if cb != nil {
				cb()
			}
		})
		if key != "" {
			c.send(frame.Serialize("JOIN", channel, key))
		} else {
			c.send(frame.Serialize("JOIN", channel))
		}
	})
}

// Part sends PART for channel, with an optional reason, removes it from
// the tracked channel set, and invokes cb once the server confirms.
func (c *Client) Part(channel, message string, cb func()) {
	c.Do(func() {
		c.opt.Channels = removeFold(c.opt.Channels, channel)
		c.events.Once("part"+channel, func(args ...any) {
			if cb != nil {
				cb()
			}
		})
		if message != "" {
			c.send(frame.Serialize("PART", channel, message))
		} else {
			c.send(frame.Serialize("PART", channel))
		}
	})
}

// Say sends text to target as PRIVMSG, splitting it into protocol-legal
// sub-lines and emitting a "selfMessage" event per sub-line sent.
func (c *Client) Say(target, text string) {
	c.Do(func() {
		for _, line := range splitText(text, c.maxLineFor(target)) {
			c.send(frame.Serialize("PRIVMSG", target, line))
			c.events.Emit("selfMessage", target, line)
		}
	})
}

// Notice sends text to target as NOTICE, split the same way Say splits.
func (c *Client) Notice(target, text string) {
	c.Do(func() {
		for _, line := range splitText(text, c.maxLineFor(target)) {
			c.send(frame.Serialize("NOTICE", target, line))
		}
	})
}

// Action sends a CTCP ACTION ("/me") to channel, one per non-empty line.
func (c *Client) Action(channel, text string) {
	c.Do(func() {
		for _, line := range splitText(text, c.maxLineFor(channel)) {
			if line == "" {
				continue
			}
			c.send(frame.Serialize("PRIVMSG", channel, wrapCTCP("ACTION", line)))
		}
	})
}

// CTCP sends a raw CTCP query or reply to target. kind "privmsg" routes
// through PRIVMSG (a query); anything else routes through NOTICE (a
// reply), per spec.md §4.6.
func (c *Client) CTCP(target, kind, ctcpType, text string) {
	c.Do(func() {
		payload := wrapCTCP(ctcpType, text)
		if kind == "privmsg" {
			c.send(frame.Serialize("PRIVMSG", target, payload))
		} else {
			c.send(frame.Serialize("NOTICE", target, payload))
		}
	})
}

// Whois sends WHOIS for nick and delivers the accumulated result to cb
// once, matched case-insensitively against the nick the server echoes
// back.
func (c *Client) Whois(nick string, cb func(*WhoisAccumulator)) {
	c.Do(func() {
		if cb != nil {
			var onWhois func(args ...any)
			onWhois = func(args ...any) {
				acc, _ := args[0].(*WhoisAccumulator)
				if acc == nil || !strings.EqualFold(acc.Nick, nick) {
					c.events.Once("whois", onWhois)
					return
				}
				cb(acc)
			}
			c.events.Once("whois", onWhois)
		}
		c.send(frame.Serialize("WHOIS", nick))
	})
}

// List sends LIST with args passed straight through.
func (c *Client) List(args ...string) {
	c.Do(func() {
		c.send(frame.Serialize("LIST", args...))
	})
}

// Who sends WHO for target with an optional format string. A bare "o"
// format always passes through; a "%"-style WHOX format is used only if
// the server advertised WHOX support, and is filtered to recognized field
// letters; otherwise the format is dropped and a plain WHO is sent.
func (c *Client) Who(target, format string) {
	c.Do(func() {
		if format == "o" {
			c.send(frame.Serialize("WHO", target, "o"))
			c.recordWhoFormat(target, "")
			return
		}
		effective := ""
		if strings.HasPrefix(format, "%") && c.session.Supported.WHOX {
			effective = filterWhoxFormat(format)
		}
		if effective != "" {
			c.send(frame.Serialize("WHO", target, effective))
		} else {
			c.send(frame.Serialize("WHO", target))
		}
		c.recordWhoFormat(target, effective)
	})
}

func (c *Client) recordWhoFormat(target, format string) {
	st := c.session.Who[lower(target)]
	if st == nil {
		st = &WhoState{}
		c.session.Who[lower(target)] = st
	}
	if format == "" {
		format = "%cuhsnfdr"
	}
	st.Queue = append(st.Queue, format)
}

func filterWhoxFormat(format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch == '%' {
			b.WriteByte(ch)
			continue
		}
		if _, ok := whoxFieldNames[ch]; ok {
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// SetChanMode batches a MODE change for nicks on channel, requiring local
// op, filtering to nicks missing (for "+") or holding (for "-") the mode
// already, and splitting into multiple MODE lines bounded by
// supported.Modes (max modes per line).
func (c *Client) SetChanMode(channel string, sign byte, mode byte, nicks []string) {
	c.Do(func() {
		if !c.session.haveOp(c.logf, channel) {
			c.logger().Printf("irc: setChanMode %s: not opped", channel)
			return
		}
		ch := c.session.ChanData(channel, false)
		if ch == nil {
			return
		}
		var targets []string
		for _, n := range nicks {
			u, ok := ch.Users[lower(n)]
			if !ok {
				continue
			}
			has := c.session.userHasChanMode(u, mode)
			if sign == '+' && !has {
				targets = append(targets, n)
			} else if sign == '-' && has {
				targets = append(targets, n)
			}
		}
		batchSize := c.session.Supported.Modes
		if batchSize <= 0 {
			batchSize = 1
		}
		for i := 0; i < len(targets); i += batchSize {
			end := i + batchSize
			if end > len(targets) {
				end = len(targets)
			}
			batch := targets[i:end]
			modes := strings.Repeat(string(mode), len(batch))
			args := append([]string{channel, string(sign) + modes}, batch...)
			c.send(frame.Serialize("MODE", args...))
		}
	})
}

func (c *Client) logf(format string, args ...any) {
	c.logger().Printf(format, args...)
}

func (c *Client) maxLineFor(target string) int {
	n := c.session.MaxLineLength - len(target)
	if n <= 0 {
		n = 1
	}
	return n
}

func containsFold(list []string, v string) bool {
	for _, x := range list {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

func removeFold(list []string, v string) []string {
	out := list[:0]
	for _, x := range list {
		if !strings.EqualFold(x, v) {
			out = append(out, x)
		}
	}
	return out
}
