// Package irctest provides a mock IRC server for exercising a Client
// without a real socket, adapted from the teacher's io.Pipe-based harness:
// two pipe pairs stand in for the two directions of a TCP stream, and
// Server implements irc.Transport so it can be substituted directly for a
// dialed connection in tests.
package irctest

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// NewServer creates a mock IRC server. The caller owns the returned value
// for the lifetime of one test; Close once the test is done.
func NewServer() *Server {
	s := &Server{}
	s.sendReader, s.sendWriter = io.Pipe()
	s.recvReader, s.recvWriter = io.Pipe()
	s.Lines = make(chan string, 16)
	go s.scanClientLines()
	return s
}

// Server is a mock IRC server: it implements irc.Transport so a Client can
// dial it directly, and exposes Lines for a test to observe everything the
// client wrote.
type Server struct {
	// Lines receives every line the client writes, without the CRLF
	// terminator, in order.
	Lines chan string

	closeOnce sync.Once

	recvReader *io.PipeReader
	recvWriter *io.PipeWriter

	sendReader *io.PipeReader
	sendWriter *io.PipeWriter
}

// Read satisfies irc.Transport: it is how the client reads bytes written by
// the mock server via Send/SendLine.
func (s *Server) Read(p []byte) (int, error) {
	return s.sendReader.Read(p)
}

// Write satisfies irc.Transport: it is how the client sends bytes to the
// mock server. Every CRLF-terminated line that arrives is published on
// Lines.
func (s *Server) Write(p []byte) (int, error) {
	return s.recvWriter.Write(p)
}

// Close shuts down both pipe pairs. Safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		_ = s.recvWriter.Close()
		_ = s.sendWriter.Close()
		close(s.Lines)
	})
	return nil
}

// SendLine writes one line to the client, appending \r\n if not already
// present.
func (s *Server) SendLine(line string) {
	if !strings.HasSuffix(line, "\r\n") {
		line += "\r\n"
	}
	_, _ = s.sendWriter.Write([]byte(line))
}

func (s *Server) scanClientLines() {
	scanner := bufio.NewScanner(s.recvReader)
	for scanner.Scan() {
		s.Lines <- scanner.Text()
	}
}
