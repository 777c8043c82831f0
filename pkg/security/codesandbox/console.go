package codesandbox

import "strings"

// consoleSink captures console.log/warn/error calls from sandboxed scripts,
// capping both entry count and total text size so a noisy or adversarial
// script can't exhaust memory. Once either cap is hit, further calls are
// dropped silently rather than erroring the script out.
type consoleSink struct {
	maxEntries int
	maxBytes   int
	usedBytes  int
	entries    []ConsoleEntry
}

func newConsoleSink(maxEntries, maxBytes int) *consoleSink {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	if maxBytes <= 0 {
		maxBytes = 10240
	}
	return &consoleSink{maxEntries: maxEntries, maxBytes: maxBytes}
}

func (c *consoleSink) record(level string, args []string) {
	if len(c.entries) >= c.maxEntries {
		return
	}
	text := strings.Join(args, " ")
	if c.usedBytes+len(text) > c.maxBytes {
		remaining := c.maxBytes - c.usedBytes
		if remaining <= 0 {
			return
		}
		text = text[:remaining]
	}
	c.usedBytes += len(text)
	c.entries = append(c.entries, ConsoleEntry{Level: level, Text: text})
}
