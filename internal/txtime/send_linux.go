//go:build linux

package txtime

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// SendScheduled sends buf in one operation, attaching a scheduled transmit
// time when delay > 0 and a type-of-service marking when tos is in [0,255]
// (TOSUnset omits it). The transmit time is absolute: the monotonic clock
// read at call time plus delay, in nanoseconds. Only the control space for
// the entries actually present is allocated and sent.
func SendScheduled(s Sender, buf []byte, delay time.Duration, tos int) (int, error) {
	oob, err := buildControl(delay, tos)
	if err != nil {
		warnf("send aborted: %v", err)
		return 0, err
	}

	n, err := s.SendMsg(buf, oob)
	if err != nil {
		err = classifySendErr(err)
		warnf("sendmsg failed: %v", err)
		return n, err
	}
	return n, nil
}

// buildControl assembles the ancillary data block for the requested subset
// of entries. A request with neither entry yields no control data at all.
func buildControl(delay time.Duration, tos int) ([]byte, error) {
	if tos != TOSUnset && (tos < 0 || tos > 255) {
		return nil, fmt.Errorf("%w: tos %d out of range", ErrControlBuild, tos)
	}

	space := 0
	if delay > 0 {
		space += unix.CmsgSpace(8)
	}
	if tos >= 0 {
		space += unix.CmsgSpace(4)
	}
	if space == 0 {
		return nil, nil
	}

	oob := make([]byte, space)
	off := 0

	if delay > 0 {
		var now unix.Timespec
		if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &now); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrClockUnavailable, err)
		}
		txAt := uint64(now.Sec)*1e9 + uint64(now.Nsec) + uint64(delay.Nanoseconds())
		putCmsghdr(oob[off:], unix.SOL_SOCKET, unix.SCM_TXTIME, 8)
		binary.NativeEndian.PutUint64(oob[off+unix.CmsgLen(0):], txAt)
		off += unix.CmsgSpace(8)
	}

	if tos >= 0 {
		// The kernel expects a C int for IP_TOS control entries.
		putCmsghdr(oob[off:], unix.IPPROTO_IP, unix.IP_TOS, 4)
		binary.NativeEndian.PutUint32(oob[off+unix.CmsgLen(0):], uint32(tos))
		off += unix.CmsgSpace(4)
	}

	return oob, nil
}

func putCmsghdr(b []byte, level, typ, dataLen int) {
	h := (*unix.Cmsghdr)(unsafe.Pointer(&b[0]))
	h.Level = int32(level)
	h.Type = int32(typ)
	h.SetLen(unix.CmsgLen(dataLen))
}

func classifySendErr(err error) error {
	switch {
	case errors.Is(err, unix.EINVAL):
		return fmt.Errorf("%w: %v", ErrNotConfigured, err)
	case errors.Is(err, unix.EOPNOTSUPP):
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	case errors.Is(err, unix.EPERM):
		return fmt.Errorf("%w: %v", ErrPermission, err)
	default:
		return fmt.Errorf("txtime: sendmsg: %w", err)
	}
}
