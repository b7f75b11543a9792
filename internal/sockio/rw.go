package sockio

// ReadFull repeatedly reads until buf is full, the stream ends, or a fatal
// error occurs. An interrupted read counts as zero progress and is retried,
// never surfaced. A short count with tag PartialEOF means end-of-stream was
// reached first.
func ReadFull(c Conn, buf []byte, cancel *Canceler) TransferOutcome {
	total := 0
	for total < len(buf) && !cancel.Tripped() {
		n, err := c.Read(buf[total:])
		if err != nil {
			if isInterrupted(err) {
				continue
			}
			warnf("read failed: %v (bytes=%d)", err, total)
			return TransferOutcome{N: total, Tag: Fatal}
		}
		if n == 0 {
			return TransferOutcome{N: total, Tag: PartialEOF}
		}
		total += n
	}
	if total < len(buf) {
		return TransferOutcome{N: total, Tag: Transient}
	}
	return TransferOutcome{N: total, Tag: Complete}
}

// RecvPolicy selects between the two RecvFull behaviors.
type RecvPolicy int

const (
	// RecvExhaustive consumes bytes until the request is satisfied, the
	// peer closes, or an error stops the loop.
	RecvExhaustive RecvPolicy = iota
	// RecvPeeking waits until the full request is observable without
	// consuming it.
	RecvPeeking
)

// RecvFull receives len(buf) bytes under the given policy.
//
// Exhaustive policy: the loop prefers the platform's wait-all hint. A fatal
// error stops the loop, trips the shared token, and reports Fatal. A
// non-fatal error stops this call without internal retry and reports
// Transient, leaving retry to the caller. A mid-loop zero-byte result is a
// graceful close, reported as PartialEOF with the bytes moved so far.
//
// Peeking policy: bytes are observed without being consumed. A zero-byte
// peek is ambiguous between "no data yet" and "peer closed", so it is
// disambiguated with a one-byte non-blocking consuming probe; only a
// zero-byte probe confirms the close. The outcome's N is the bytes
// observable when the loop ended.
func RecvFull(c Conn, buf []byte, policy RecvPolicy, cancel *Canceler) TransferOutcome {
	if policy == RecvPeeking {
		return peekFull(c, buf, cancel)
	}

	total := 0
	for total < len(buf) && !cancel.Tripped() {
		n, err := c.Recv(buf[total:], RecvWaitAll)
		if err != nil {
			if IsFatal(err) {
				warnf("recv failed: %v (bytes=%d)", err, total)
				cancel.Trip()
				return TransferOutcome{N: total, Tag: Fatal}
			}
			return TransferOutcome{N: total, Tag: Transient}
		}
		if n == 0 {
			return TransferOutcome{N: total, Tag: PartialEOF}
		}
		total += n
	}
	if total < len(buf) {
		return TransferOutcome{N: total, Tag: Transient}
	}
	return TransferOutcome{N: total, Tag: Complete}
}

func peekFull(c Conn, buf []byte, cancel *Canceler) TransferOutcome {
	seen := 0
	for seen < len(buf) && !cancel.Tripped() {
		n, err := c.Recv(buf, RecvPeek)
		if err != nil {
			if IsFatal(err) {
				warnf("recv peek failed: %v", err)
				cancel.Trip()
				return TransferOutcome{N: seen, Tag: Fatal}
			}
			continue
		}
		if n == 0 {
			var probe [1]byte
			pn, perr := c.Recv(probe[:], RecvProbe)
			switch {
			case perr != nil && isWouldBlock(perr):
				// No data yet, connection still open. Keep waiting.
				continue
			case perr == nil && pn == 0:
				// Orderly shutdown confirmed.
				return TransferOutcome{N: seen, Tag: PartialEOF}
			case perr != nil:
				warnf("recv peek probe failed: %v", perr)
				return TransferOutcome{N: seen, Tag: PartialEOF}
			default:
				// The probe consumed a byte that raced in after the
				// peek. That byte is dropped; the next peek observes
				// the stream without it.
				continue
			}
		}
		seen = n
	}
	if seen < len(buf) {
		return TransferOutcome{N: seen, Tag: Transient}
	}
	return TransferOutcome{N: seen, Tag: Complete}
}

// WriteFull repeatedly writes until buf is drained or a fatal error occurs.
// Interrupted, would-block and buffer-exhaustion results are retried without
// being reported; a zero-byte write is a transient timeout and is retried
// too. Any other error is fatal: the loop stops with the partial count and a
// diagnostic. attempts, when non-nil, is incremented once per underlying
// write attempt; it is instrumentation only and never drives control flow.
func WriteFull(c Conn, buf []byte, attempts *int, cancel *Canceler) TransferOutcome {
	sent := 0
	for sent < len(buf) && !cancel.Tripped() {
		n, err := c.Write(buf[sent:])
		if attempts != nil {
			*attempts++
		}
		if err != nil {
			if isInterrupted(err) || isWouldBlock(err) || IsTransient(err) {
				continue
			}
			warnf("write failed: %v (bytes=%d)", err, sent)
			return TransferOutcome{N: sent, Tag: Fatal}
		}
		if n == 0 {
			// Write timeout. Retry.
			continue
		}
		sent += n
	}
	if sent < len(buf) {
		return TransferOutcome{N: sent, Tag: Transient}
	}
	return TransferOutcome{N: sent, Tag: Complete}
}
