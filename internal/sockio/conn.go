package sockio

// RecvMode selects the flag semantics of one raw receive call.
type RecvMode int

const (
	// RecvDefault is a plain receive.
	RecvDefault RecvMode = iota
	// RecvWaitAll hints the kernel to block until the full request is
	// available, where the platform supports it.
	RecvWaitAll
	// RecvPeek observes pending bytes without consuming them.
	RecvPeek
	// RecvProbe is a non-blocking consuming receive, used to disambiguate
	// a zero-byte peek between "no data yet" and "peer closed".
	RecvProbe
)

// Conn is the raw, already-connected transport surface the reliability
// primitives drive. The production implementation is a file-descriptor
// socket; tests substitute fakes.
type Conn interface {
	// Read issues one underlying read and returns the bytes moved.
	Read(p []byte) (n int, err error)

	// Recv issues one underlying receive with the given mode.
	Recv(p []byte, mode RecvMode) (n int, err error)

	// Write issues one underlying write and returns the bytes moved.
	Write(p []byte) (n int, err error)
}
