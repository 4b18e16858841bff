package irc

import "github.com/birdwatch-irc/ircsession/internal/frame"

// newTestClient builds a Client with no live transport, suitable for
// feeding frames directly into handleFrame/dispatch without a socket.
func newTestClient() *Client {
	opt := DefaultOptions()
	opt.Server = "irc.example.net"
	opt.Nick = "nick"
	c := NewClient(opt)
	c.sender = newDirectSender(func(b []byte) {})
	return c
}

// feedFrame parses line and runs it through the same dispatch path a real
// connection would, on the calling goroutine (tests run single-threaded).
func feedFrame(c *Client, line string) {
	f := frame.ParseFrame(line, c.opt.StripColors)
	c.dispatch(f)
}
