// Package txtime sends payloads with optional ancillary control data: a
// scheduled transmit time (absolute monotonic nanoseconds, via SCM_TXTIME)
// and an explicit type-of-service marking (via IP_TOS). Control entries are
// built fresh per call and sized to exactly the entries present. On
// platforms without control-message scheduling the send degrades to an
// ordinary full-buffer send with a capability diagnostic instead of failing
// the transfer.
package txtime

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// TOSUnset omits the type-of-service control entry.
const TOSUnset = -1

// Sender is the raw send surface: a connected socket able to carry
// ancillary control data alongside a payload.
type Sender interface {
	// Write issues one plain send of p.
	Write(p []byte) (n int, err error)

	// SendMsg issues one send of p with control data oob attached.
	SendMsg(p, oob []byte) (n int, err error)
}

// Send failures, each distinguishable with errors.Is.
var (
	ErrClockUnavailable = errors.New("txtime: monotonic clock read failed")
	ErrControlBuild     = errors.New("txtime: cannot construct control data")
	ErrNotConfigured    = errors.New("txtime: control message not configured on this socket")
	ErrUnsupported      = errors.New("txtime: control message not supported by the network stack")
	ErrPermission       = errors.New("txtime: permission denied, may need CAP_NET_ADMIN")
)

// SendTOS sends buf with only a type-of-service marking. It behaves exactly
// like SendScheduled with a zero delay.
func SendTOS(s Sender, buf []byte, tos int) (int, error) {
	return SendScheduled(s, buf, 0, tos)
}

// SendDelayed sends buf with only a scheduled transmit time. It behaves
// exactly like SendScheduled with the marking omitted.
func SendDelayed(s Sender, buf []byte, delay time.Duration) (int, error) {
	return SendScheduled(s, buf, delay, TOSUnset)
}

var diag = struct {
	mu sync.Mutex
	w  io.Writer
}{w: os.Stderr}

// SetDiagnostics redirects the package's warning stream, primarily for
// tests. Passing nil restores stderr.
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
	fmt.Fprintf(diag.w, "[txtime] "+format+"\n", args...)
}
