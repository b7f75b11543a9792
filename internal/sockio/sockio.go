package sockio

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// CompletionTag classifies how a reliability-layer call ended.
type CompletionTag int

const (
	// Complete means the full requested byte count was transferred.
	Complete CompletionTag = iota
	// PartialEOF means the peer ended the stream before the requested
	// count; the bytes transferred so far are valid.
	PartialEOF
	// Transient means the call stopped on a condition expected to resolve
	// on retry; the caller decides whether to retry or abort.
	Transient
	// Fatal means the connection cannot proceed.
	Fatal
)

func (t CompletionTag) String() string {
	switch t {
	case Complete:
		return "complete"
	case PartialEOF:
		return "partial-eof"
	case Transient:
		return "transient"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("completion(%d)", int(t))
	}
}

// TransferOutcome is the result of one reliability-layer call: the bytes
// actually moved and how the call ended.
type TransferOutcome struct {
	N   int
	Tag CompletionTag
}

// Canceler is a cooperative cancellation token shared across transfer loops.
// A fatal receive error trips it; every loop handed the same token checks it
// each iteration and exits promptly once tripped. A nil *Canceler never
// cancels.
type Canceler struct {
	tripped atomic.Bool
}

// NewCanceler returns an untripped token.
func NewCanceler() *Canceler { return &Canceler{} }

// Trip marks the token. Safe to call from any goroutine, any number of times.
func (c *Canceler) Trip() {
	if c != nil {
		c.tripped.Store(true)
	}
}

// Tripped reports whether the token has been tripped.
func (c *Canceler) Tripped() bool {
	return c != nil && c.tripped.Load()
}

var diag = struct {
	mu sync.Mutex
	w  io.Writer
}{w: os.Stderr}

// SetDiagnostics redirects the package's warning stream, primarily for tests.
// Passing nil restores stderr.
func SetDiagnostics(w io.Writer) {
	diag.mu.Lock()
	defer diag.mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	diag.w = w
}

func warnf(format string, args ...any) {
	diag.mu.Lock()
	defer diag.mu.Unlock()
	fmt.Fprintf(diag.w, "[sockio] "+format+"\n", args...)
}
