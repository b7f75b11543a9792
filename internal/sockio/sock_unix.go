//go:build unix

package sockio

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// SocketConn drives a connected socket descriptor directly, exposing the
// receive flags and ancillary-data sends that net.Conn hides.
type SocketConn struct {
	fd   int
	file *os.File // keeps a dup'd descriptor alive when built from net.Conn
}

// NewSocketConn wraps an already-connected descriptor. The caller retains
// ownership of fd's lifecycle unless Close is used.
func NewSocketConn(fd int) *SocketConn { return &SocketConn{fd: fd} }

// filer matches net.TCPConn and net.UDPConn: File returns a blocking
// duplicate of the connection's descriptor.
type filer interface{ File() (*os.File, error) }

// FromNetConn duplicates an already-connected net.Conn's descriptor so the
// primitives can drive it at the syscall level. The duplicate is in blocking
// mode; the original connection stays open and should still be closed by its
// owner.
func FromNetConn(c any) (*SocketConn, error) {
	f, ok := c.(filer)
	if !ok {
		return nil, fmt.Errorf("sockio: %T cannot expose its descriptor", c)
	}
	file, err := f.File()
	if err != nil {
		return nil, fmt.Errorf("sockio: dup descriptor: %w", err)
	}
	return &SocketConn{fd: int(file.Fd()), file: file}, nil
}

func (s *SocketConn) Read(p []byte) (int, error) {
	n, err := unix.Read(s.fd, p)
	if n < 0 {
		n = 0
	}
	return n, err
}

func (s *SocketConn) Recv(p []byte, mode RecvMode) (int, error) {
	var flags int
	switch mode {
	case RecvWaitAll:
		flags = unix.MSG_WAITALL
	case RecvPeek:
		flags = unix.MSG_PEEK
	case RecvProbe:
		flags = unix.MSG_DONTWAIT
	}
	n, _, err := unix.Recvfrom(s.fd, p, flags)
	if n < 0 {
		n = 0
	}
	return n, err
}

func (s *SocketConn) Write(p []byte) (int, error) {
	n, err := unix.Write(s.fd, p)
	if n < 0 {
		n = 0
	}
	return n, err
}

// SendMsg sends p with ancillary control data attached in oob.
func (s *SocketConn) SendMsg(p, oob []byte) (int, error) {
	return unix.SendmsgN(s.fd, p, oob, nil, 0)
}

// SetTimeouts applies receive and send timeouts on the descriptor. Zero
// leaves the corresponding side unlimited. These timeouts are what turn a
// stalled peer into the zero/error results the primitives classify.
func (s *SocketConn) SetTimeouts(recv, send time.Duration) error {
	if recv > 0 {
		tv := unix.NsecToTimeval(recv.Nanoseconds())
		if err := unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
			return fmt.Errorf("sockio: set receive timeout: %w", err)
		}
	}
	if send > 0 {
		tv := unix.NsecToTimeval(send.Nanoseconds())
		if err := unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv); err != nil {
			return fmt.Errorf("sockio: set send timeout: %w", err)
		}
	}
	return nil
}

// FD returns the underlying descriptor.
func (s *SocketConn) FD() int { return s.fd }

// Close releases the descriptor (the duplicate when built via FromNetConn).
func (s *SocketConn) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return unix.Close(s.fd)
}
