package irc

import (
	"strings"

	"github.com/birdwatch-irc/ircsession/internal/frame"
	"github.com/birdwatch-irc/ircsession/internal/sasl"
)

// capState is the IRCv3 capability-negotiation state machine from
// spec.md §4.5.1: None -> LSOpen -> Requested -> Acked -> End.
type capState int

const (
	capNone capState = iota
	capLSOpen
	capRequested
	capAcked
	capEnded
)

func (c *Client) onCAP(f frame.Frame) {
	if len(f.Args) < 2 {
		return
	}
	sub := strings.ToUpper(f.Args[1])
	switch sub {
	case "LS":
		c.onCapLS(f)
	case "ACK":
		c.onCapAck(f)
	case "NAK":
		c.onCapNak(f)
	}
}

func (c *Client) onCapLS(f frame.Frame) {
	c.capState = capLSOpen
	last := f.Args[len(f.Args)-1]
	multiline := len(f.Args) >= 3 && f.Args[2] == "*"
	var capsArg string
	if multiline {
		if len(f.Args) >= 4 {
			capsArg = f.Args[3]
		}
	} else {
		capsArg = last
	}
	for _, tok := range strings.Fields(capsArg) {
		name, value, _ := strings.Cut(tok, "=")
		c.session.Supported.Capabilities[name] = value
	}
	if multiline {
		return
	}

	c.events.Emit("cap-ls", c.session.Supported.Capabilities)

	var req []string
	seen := map[string]bool{}
	for _, want := range c.opt.Capabilities {
		if _, ok := c.session.Supported.Capabilities[want]; ok && !seen[want] {
			req = append(req, want)
			seen[want] = true
		}
	}
	if c.opt.SASL {
		if _, ok := c.session.Supported.Capabilities["sasl"]; ok && !seen["sasl"] {
			req = append(req, "sasl")
			seen["sasl"] = true
		}
	}
	c.session.PendingCapReq = req
	if len(req) > 0 {
		c.capState = capRequested
		c.send(frame.Serialize("CAP", "REQ", strings.Join(req, " ")))
		return
	}
	// Nothing to request: a compliant server holds registration open until
	// CAP END arrives, so negotiation must still be closed out even when
	// there was nothing to ACK/NAK.
	c.finishCapNegotiation()
}

func (c *Client) onCapAck(f frame.Frame) {
	acked := strings.Fields(f.Args[len(f.Args)-1])
	for _, name := range acked {
		c.session.Capabilities[name] = true
		c.session.PendingCapReq = removeString(c.session.PendingCapReq, name)
	}
	c.capState = capAcked
	if len(c.session.PendingCapReq) == 0 {
		c.finishCapNegotiation()
	}
}

func (c *Client) onCapNak(f frame.Frame) {
	naked := strings.Fields(f.Args[len(f.Args)-1])
	for _, name := range naked {
		c.session.PendingCapReq = removeString(c.session.PendingCapReq, name)
	}
	if len(c.session.PendingCapReq) == 0 {
		c.finishCapNegotiation()
	}
}

func (c *Client) finishCapNegotiation() {
	if c.opt.SASL && c.session.Capabilities["sasl"] {
		c.send(frame.Serialize("AUTHENTICATE", "PLAIN"))
		return
	}
	c.send(frame.Serialize("CAP", "END"))
	c.capState = capEnded
	c.events.Emit("cap-end")
}

func (c *Client) onAuthenticate(f frame.Frame) {
	if len(f.Args) == 0 || f.Args[0] != "+" {
		return
	}
	resp := sasl.EncodePlain(c.opt.UserName, c.opt.UserName, c.opt.Password)
	c.send(frame.Serialize("AUTHENTICATE", resp))
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if !strings.EqualFold(x, v) {
			out = append(out, x)
		}
	}
	return out
}
