package codesandbox

import (
	"fmt"
	"regexp"

	"github.com/dop251/goja"
)

// scriptError is the sanitized form of a script failure: a message plus an
// optional line/column position in the author's own source, with any
// host-internal detail (goja stack frames, Go file paths) stripped.
type scriptError struct {
	Message string
	Line    int
	Column  int
}

func (e *scriptError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d)", e.Message, e.Line)
	}
	return e.Message
}

var hostPathPattern = regexp.MustCompile(`(?:/[\w.\-]+)+\.go(?::\d+)?`)

// sanitizeError converts a raw goja execution error into a scriptError that
// exposes only what the block author wrote: a message and a line number
// relative to their own script, with the IIFE wrapper's line offset removed
// and any Go-side file path scrubbed out.
func sanitizeError(err error) error {
	if err == nil {
		return nil
	}

	var exc *goja.Exception
	if ex, ok := err.(*goja.Exception); ok {
		exc = ex
	}
	if exc == nil {
		return &scriptError{Message: hostPathPattern.ReplaceAllString(err.Error(), "<script>")}
	}

	msg := exc.Value().String()
	msg = hostPathPattern.ReplaceAllString(msg, "<script>")

	// exc.Error() renders the exception plus its goja-generated stack
	// trace, which includes a "<eval>:N:M" frame for code run via
	// RunString. That frame's line number is relative to our IIFE
	// wrapper, so subtract iifeLineOffset to land on the author's line.
	line := 0
	if m := evalFramePattern.FindStringSubmatch(exc.Error()); m != nil {
		fmt.Sscanf(m[1], "%d", &line)
	}
	if line > iifeLineOffset {
		line -= iifeLineOffset
	}

	return &scriptError{Message: msg, Line: line}
}

var evalFramePattern = regexp.MustCompile(`<eval>:(\d+):(\d+)`)
