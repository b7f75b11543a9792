//go:build !linux

package txtime

import "time"

// SendScheduled on platforms without control-message scheduling degrades to
// an ordinary full-buffer send: the capability gap is reported as a
// diagnostic, never as a transfer failure.
func SendScheduled(s Sender, buf []byte, delay time.Duration, tos int) (int, error) {
	if delay > 0 || tos != TOSUnset {
		warnf("control messages not supported on this platform; sending without schedule/marking")
	}
	return s.Write(buf)
}
