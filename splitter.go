package irc

import "strings"

// splitLine breaks line into sub-lines no longer than max, preferring to
// cut on whitespace. Scanning backward from position max for the first
// whitespace character mirrors spec.md §4.6.1 exactly: cut there
// (consuming the one whitespace), or hard-cut at max if none is found.
func splitLine(line string, max int) []string {
	if max <= 0 {
		return []string{line}
	}
	var out []string
	for len(line) > max {
		cut := max
		for cut >= 0 && line[cut] != ' ' && line[cut] != '\t' {
			cut--
		}
		if cut < 0 {
			// no whitespace in [0..max]: hard-cut
			out = append(out, line[:max])
			line = line[max:]
			continue
		}
		out = append(out, line[:cut])
		line = line[cut+1:]
	}
	out = append(out, line)
	return out
}

// splitText splits text on newlines first, then each resulting line
// through splitLine, flattening the result into one ordered slice of
// protocol-legal sub-lines.
func splitText(text string, max int) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		out = append(out, splitLine(l, max)...)
	}
	return out
}
