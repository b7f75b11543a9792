package sockio

import (
	"errors"

	"golang.org/x/sys/unix"
)

// fatalErrnos is the fixed set of transport errors that end a connection.
// TCP's fatal codes are used even for UDP sockets.
var fatalErrnos = []unix.Errno{
	unix.ECONNRESET,
	unix.ECONNABORTED,
	unix.ECONNREFUSED,
	unix.EPIPE,
	unix.ETIMEDOUT,
	unix.EHOSTUNREACH,
	unix.EHOSTDOWN,
	unix.ENETUNREACH,
	unix.ENETDOWN,
	unix.ENETRESET,
	unix.ESHUTDOWN,
	unix.ENOTCONN,
	unix.EBADF,
}

// transientErrnos resolve on retry: interrupted calls, would-block results
// and short-lived resource exhaustion.
var transientErrnos = []unix.Errno{
	unix.EINTR,
	unix.EAGAIN,
	unix.EWOULDBLOCK,
	unix.ENOBUFS,
	unix.ENOMEM,
}

// IsFatal reports whether err belongs to the fatal transport error set.
func IsFatal(err error) bool {
	for _, e := range fatalErrnos {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsTransient reports whether err is expected to resolve on retry.
func IsTransient(err error) bool {
	for _, e := range transientErrnos {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func isInterrupted(err error) bool { return errors.Is(err, unix.EINTR) }

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
