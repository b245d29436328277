package executor

import "bytes"

// countLines returns the number of newline-delimited lines in b.
// A trailing newline terminates the last line, it does not open an empty one.
func countLines(b []byte) int {
	if len(b) == 0 {
		return 0
	}

	n := bytes.Count(b, []byte{'\n'})
	if b[len(b)-1] != '\n' {
		n++
	}

	return n
}

const maxLoggedStderr = 512

// tail keeps the end of the diagnostic output, where the cause usually is.
func tail(b []byte) string {
	if len(b) <= maxLoggedStderr {
		return string(b)
	}

	return "..." + string(b[len(b)-maxLoggedStderr:])
}
