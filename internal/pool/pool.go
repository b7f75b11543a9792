// Package pool recycles payload buffers across stream workers. Traffic
// models sample a small set of message lengths, so buffers are pooled per
// size class and reused instead of reallocated on every send.
package pool

import "sync"

// BufferPool manages reusable payload buffers keyed by size class.
type BufferPool struct {
	classes sync.Map // map[int]chan []byte
	depth   int      // max buffers retained per class
}

// NewBufferPool creates a pool retaining up to depth buffers per size class.
func NewBufferPool(depth int) *BufferPool {
	if depth <= 0 {
		depth = 16 // default depth
	}
	return &BufferPool{
		depth: depth,
	}
}

// classFor rounds size up to the next power of two so that nearby lengths
// share one class.
func classFor(size int) int {
	c := 1
	for c < size {
		c <<= 1
	}
	return c
}

// Get returns a buffer of exactly size bytes, backed by a class-sized
// allocation. If reused is true the backing buffer came from the pool.
func (p *BufferPool) Get(size int) (buf []byte, reused bool) {
	if size <= 0 {
		return nil, false
	}
	class := classFor(size)
	chVal, _ := p.classes.LoadOrStore(class, make(chan []byte, p.depth))
	ch := chVal.(chan []byte)

	select {
	case b := <-ch:
		return b[:size], true
	default:
		return make([]byte, size, class), false
	}
}

// Put returns a buffer to its size class for reuse. Buffers whose class is
// full are dropped for the collector to reclaim.
func (p *BufferPool) Put(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	class := classFor(cap(buf))
	if class != cap(buf) {
		// Not one of ours; keeping odd capacities would fragment the classes.
		return
	}
	chVal, ok := p.classes.Load(class)
	if !ok {
		return
	}
	ch := chVal.(chan []byte)

	select {
	case ch <- buf[:cap(buf)]:
	default:
	}
}

// Fill stamps a repeating pattern into buf so payloads are recognizable in
// captures. The pattern matches ASCII digits cycling 0-9.
func Fill(buf []byte) {
	for i := range buf {
		buf[i] = byte('0' + i%10)
	}
}
