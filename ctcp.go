package irc

import "strings"

const ctcpDelim = "\x01"

// isCTCP reports whether payload is wrapped in \x01, the CTCP envelope
// used inside PRIVMSG/NOTICE bodies.
func isCTCP(payload string) bool {
	return len(payload) >= 2 && strings.HasPrefix(payload, ctcpDelim) && strings.HasSuffix(payload, ctcpDelim)
}

// splitCTCP pulls the CTCP command and its argument text out of an
// already-unwrapped payload (delimiters stripped).
func splitCTCP(inner string) (cmd, text string) {
	parts := strings.SplitN(inner, " ", 2)
	cmd = strings.ToUpper(parts[0])
	if len(parts) == 2 {
		text = parts[1]
	}
	return
}

func wrapCTCP(cmd, text string) string {
	if text == "" {
		return ctcpDelim + cmd + ctcpDelim
	}
	return ctcpDelim + cmd + " " + text + ctcpDelim
}
