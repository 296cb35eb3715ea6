package sink

import (
	"io"
	"sync"
)

// RingBuffer is a thread-safe byte ring implementing io.Reader. The
// producer never blocks: on overflow the oldest bytes are dropped. Readers
// block until data arrives or the buffer is closed.
type RingBuffer struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []byte
	readPos  int
	writePos int
	count    int
	dropped  uint64
	closed   bool
}

// NewRingBuffer creates a ring buffer holding up to capacity bytes.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	rb := &RingBuffer{buf: make([]byte, capacity)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write appends p, discarding the oldest bytes if p does not fit. It always
// reports len(p) written unless the buffer is closed.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed {
		return 0, io.ErrClosedPipe
	}
	n := len(p)
	if n == 0 {
		return 0, nil
	}

	capacity := len(rb.buf)
	data := p
	if len(data) > capacity {
		rb.dropped += uint64(len(data) - capacity)
		data = data[len(data)-capacity:]
	}

	if overflow := rb.count + len(data) - capacity; overflow > 0 {
		rb.readPos = (rb.readPos + overflow) % capacity
		rb.count -= overflow
		rb.dropped += uint64(overflow)
	}

	first := copy(rb.buf[rb.writePos:], data)
	copy(rb.buf, data[first:])
	rb.writePos = (rb.writePos + len(data)) % capacity
	rb.count += len(data)

	rb.cond.Signal()
	return n, nil
}

// Read implements io.Reader. It returns io.EOF once the buffer is closed
// and drained.
func (rb *RingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count == 0 {
		if rb.closed {
			return 0, io.EOF
		}
		rb.cond.Wait()
	}

	n := len(p)
	if n > rb.count {
		n = rb.count
	}

	capacity := len(rb.buf)
	first := capacity - rb.readPos
	if first >= n {
		copy(p, rb.buf[rb.readPos:rb.readPos+n])
	} else {
		copy(p, rb.buf[rb.readPos:])
		copy(p[first:], rb.buf[:n-first])
	}
	rb.readPos = (rb.readPos + n) % capacity
	rb.count -= n

	return n, nil
}

// Buffered returns the number of bytes waiting to be read.
func (rb *RingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Cap returns the capacity in bytes.
func (rb *RingBuffer) Cap() int {
	return len(rb.buf)
}

// Dropped returns the total number of bytes discarded on overflow.
func (rb *RingBuffer) Dropped() uint64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.dropped
}

// Close wakes any blocked reader. Reads drain what is left, then return
// io.EOF.
func (rb *RingBuffer) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	rb.cond.Broadcast()
}
