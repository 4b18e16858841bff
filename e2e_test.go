package irc

import (
	"testing"
	"time"

	"github.com/birdwatch-irc/ircsession/irctest"
)

// dialServer wires a fresh irctest.Server into a Client via Options.DialFn,
// the same substitution point the teacher's DialFn lets client_test.go use
// in place of a real socket.
func dialServer(t *testing.T) (*Client, *irctest.Server) {
	t.Helper()
	srv := irctest.NewServer()
	t.Cleanup(func() { srv.Close() })

	opt := DefaultOptions()
	opt.Server = "irc.example.net"
	opt.Nick = "nick"
	opt.DialFn = func() (Transport, error) { return srv, nil }

	c := NewClient(opt)
	go c.Run()
	t.Cleanup(func() { c.Disconnect("", nil) })
	return c, srv
}

func nextLine(t *testing.T, srv *irctest.Server) string {
	t.Helper()
	select {
	case l := <-srv.Lines:
		return l
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a line from the client")
		return ""
	}
}

// TestEndToEndRegistration exercises the full open-to-registered path over
// the in-memory transport: CAP LS with nothing requested, then 001/005,
// matching the scenario 1 and scenario 2 end-to-end cases from spec.md §8.
func TestEndToEndRegistration(t *testing.T) {
	c, srv := dialServer(t)

	if got := nextLine(t, srv); got != "CAP LS 302" {
		t.Fatalf("first line = %q, want CAP LS 302", got)
	}
	if got := nextLine(t, srv); got != "NICK nick" {
		t.Fatalf("second line = %q, want NICK nick", got)
	}
	if got := nextLine(t, srv); got != "USER nodebot 0 * :nodeJS IRC client" {
		t.Fatalf("third line = %q, want USER line", got)
	}

	registered := make(chan struct{}, 1)
	c.Events().Once("registered", func(args ...any) { registered <- struct{}{} })

	srv.SendLine(":srv CAP * LS :")
	// Nothing was requested, so the client closes out negotiation on its own.
	if got := nextLine(t, srv); got != "CAP END" {
		t.Fatalf("line = %q, want CAP END", got)
	}
	srv.SendLine(":srv 001 nick :Welcome to IRC nick!u@h.example")
	srv.SendLine(":srv 005 NICKLEN=16 CHANTYPES=# PREFIX=(ov)@+ :are supported")

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for registered")
	}

	// PING/PONG is the synchronization point: since all frames on one
	// connection dispatch strictly in arrival order on the session
	// goroutine, seeing "pong" here guarantees 001 and 005 already ran.
	pinged := make(chan struct{}, 1)
	c.Events().Once("pong", func(args ...any) { pinged <- struct{}{} })
	srv.SendLine(":srv PONG :sync")
	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pong")
	}

	done := make(chan struct{})
	c.Do(func() {
		defer close(done)
		if c.session.OwnNick != "nick" {
			t.Errorf("ownNick = %q, want nick", c.session.OwnNick)
		}
		if c.session.Supported.NickLength != 16 {
			t.Errorf("nicklength = %d, want 16", c.session.Supported.NickLength)
		}
	})
	<-done
}

// TestEndToEndCAPAndSASL reproduces spec.md §8's CAP flow property: a
// multi-prefix + sasl LS response with both requested in opt.Capabilities,
// followed by the SASL PLAIN exchange through to cap-end/connect.
func TestEndToEndCAPAndSASL(t *testing.T) {
	srv := irctest.NewServer()
	t.Cleanup(func() { srv.Close() })

	opt := DefaultOptions()
	opt.Server = "irc.example.net"
	opt.Nick = "nick"
	opt.UserName = "u"
	opt.Password = "p"
	opt.SASL = true
	opt.Capabilities = []string{"multi-prefix"}
	opt.DialFn = func() (Transport, error) { return srv, nil }

	c := NewClient(opt)
	go c.Run()
	t.Cleanup(func() { c.Disconnect("", nil) })

	nextLine(t, srv) // CAP LS 302
	nextLine(t, srv) // NICK
	nextLine(t, srv) // USER

	connected := make(chan struct{}, 1)
	c.Events().Once("connect", func(args ...any) { connected <- struct{}{} })

	srv.SendLine(":srv CAP * LS :sasl multi-prefix")
	if got := nextLine(t, srv); got != "CAP REQ :multi-prefix sasl" {
		t.Fatalf("CAP REQ line = %q, want \"CAP REQ :multi-prefix sasl\"", got)
	}

	srv.SendLine(":srv CAP * ACK :multi-prefix sasl")
	if got := nextLine(t, srv); got != "AUTHENTICATE PLAIN" {
		t.Fatalf("line = %q, want AUTHENTICATE PLAIN", got)
	}

	srv.SendLine("AUTHENTICATE +")
	// onAuthenticate sends base64(userName + NUL + userName + NUL + password) =
	// base64("u\x00u\x00p") = "dQB1AHA=".
	if got := nextLine(t, srv); got != "AUTHENTICATE dQB1AHA=" {
		t.Fatalf("AUTHENTICATE response = %q, want AUTHENTICATE dQB1AHA=", got)
	}

	srv.SendLine(":srv 903 nick :SASL authentication successful")
	if got := nextLine(t, srv); got != "CAP END" {
		t.Fatalf("line = %q, want CAP END", got)
	}

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connect")
	}
}

// TestEndToEndJoinAndWho exercises self-JOIN triggering MODE+WHO and the
// resulting membership sync, matching end-to-end scenarios 3 and 4.
func TestEndToEndJoinAndWho(t *testing.T) {
	c, srv := dialServer(t)
	nextLine(t, srv) // CAP LS 302
	nextLine(t, srv) // NICK
	nextLine(t, srv) // USER

	srv.SendLine(":srv CAP * LS :")
	nextLine(t, srv) // CAP END (nothing was requested)
	srv.SendLine(":srv 001 nick :Welcome to IRC nick!u@h.example")

	selfjoin := make(chan struct{}, 1)
	c.Events().Once("selfjoin#x", func(args ...any) { selfjoin <- struct{}{} })

	srv.SendLine(":nick!u@h JOIN #x")

	select {
	case <-selfjoin:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for selfjoin#x")
	}

	if got := nextLine(t, srv); got != "MODE #x" {
		t.Fatalf("line = %q, want MODE #x", got)
	}
	if got := nextLine(t, srv); got != "WHO #x" {
		t.Fatalf("line = %q, want WHO #x", got)
	}

	joinsync := make(chan struct{}, 1)
	c.Events().Once("joinsync", func(args ...any) { joinsync <- struct{}{} })

	srv.SendLine(":srv 352 nick #x u h s othernick H@ :0 Real Name")
	srv.SendLine(":srv 315 nick #x :End of /WHO list.")

	select {
	case <-joinsync:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for joinsync")
	}

	done := make(chan struct{})
	c.Do(func() {
		defer close(done)
		ch := c.session.Chans["#x"]
		if ch == nil {
			t.Error("expected #x to exist")
			return
		}
		u := ch.Users["othernick"]
		if u == nil {
			t.Error("expected othernick to be populated from the WHO reply")
			return
		}
		if u.Username != "u" || u.Host != "h" {
			t.Errorf("username/host = %q/%q, want u/h", u.Username, u.Host)
		}
	})
	<-done
}
