// Package ircdebug wraps a Transport so every line read from or written to
// it is also copied, prefixed, to a second io.Writer — useful for tracing a
// session's wire traffic to os.Stdout or a log file while developing
// against it.
package ircdebug

import (
	"io"
	"sync"
)

// WriteTo returns a new io.ReadWriteCloser that copies all reads/writes for
// rwc to w, prefixing reads with inPrefix and writes with outPrefix. The
// returned value satisfies irc.Transport, so it can be dialed in place of a
// raw socket.
//
// Reads happen on the session's background reader goroutine while writes
// happen on the session goroutine itself, so both sides share one mutex
// guarding w to keep a read trace line from interleaving mid-write with a
// write trace line.
func WriteTo(w io.Writer, rwc io.ReadWriteCloser, outPrefix, inPrefix string) io.ReadWriteCloser {
	var mu sync.Mutex
	return &tracedConn{
		ReadWriteCloser: rwc,
		r:               io.TeeReader(rwc, &linePrefixer{w: w, mu: &mu, prefix: inPrefix}),
		w:               io.MultiWriter(rwc, &linePrefixer{w: w, mu: &mu, prefix: outPrefix}),
	}
}

type tracedConn struct {
	io.ReadWriteCloser
	r io.Reader
	w io.Writer
}

func (c *tracedConn) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c *tracedConn) Write(p []byte) (int, error) { return c.w.Write(p) }

// linePrefixer writes prefix followed by p to w, under mu so a trace of
// each direction can't land byte-interleaved with the other.
type linePrefixer struct {
	w      io.Writer
	mu     *sync.Mutex
	prefix string
}

func (lp *linePrefixer) Write(p []byte) (int, error) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	n, err := lp.w.Write(append([]byte(lp.prefix), p...))
	// On the write side lp sits inside an io.MultiWriter, which errors if any
	// of its writers reports fewer bytes written than it was given; lie about
	// the prefix bytes so the real payload's count comes out right.
	n -= len(lp.prefix)
	if n < 0 {
		n = 0
	}
	return n, err
}
