// Package sockio turns partial syscall-level transfers into fully accounted
// ones. Its three primitives (ReadFull, RecvFull, WriteFull) loop the raw
// operation until the caller's buffer is satisfied, classifying every early
// stop as a graceful close, a transient condition, or a fatal transport error.
//
// The primitives are stateless with respect to each other and safe to drive
// concurrently on distinct connections with distinct buffers. The only shared
// piece is the cooperative [Canceler]: a fatal receive error trips it, and
// every looping primitive handed the same token exits promptly once it is
// tripped. The orchestrating layer decides how widely one token is shared.
//
// No primitive owns a timeout. A connection's own receive/send timeout
// configuration is what produces the zero-byte and error results these loops
// classify.
package sockio
