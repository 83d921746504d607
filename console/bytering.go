package console

import (
	"sync/atomic"
	"time"
)

// Power-of-two size for cheap modulo.
const ringSize = 128

// ByteRing is a single-producer/single-consumer byte ring buffer. The
// producer side (Deposit) is the serial read goroutine standing in for the
// receive interrupt; the consumer side (Receive) is the line assembler task.
// Exactly one goroutine may call Deposit and exactly one may call Receive.
//
// head is published by the producer, tail by the consumer. The element write
// happens before the head store, so the consumer always observes a fully
// written byte once it sees the new head.
type ByteRing struct {
	buf    [ringSize]byte
	head   atomic.Uint32
	tail   atomic.Uint32
	notify chan struct{} // coalesced wake-up, cap 1
}

func NewByteRing() *ByteRing {
	return &ByteRing{notify: make(chan struct{}, 1)}
}

func (r *ByteRing) used() uint32 {
	return r.head.Load() - r.tail.Load()
}

// Len returns the number of buffered bytes.
func (r *ByteRing) Len() int {
	return int(r.used())
}

// Deposit stores one byte and wakes the consumer. It never blocks; it returns
// false when the ring is full and the byte was dropped.
func (r *ByteRing) Deposit(b byte) bool {
	if r.used() == ringSize {
		return false
	}
	h := r.head.Load()
	r.buf[h%ringSize] = b
	r.head.Store(h + 1)
	select {
	case r.notify <- struct{}{}:
	default:
	}
	return true
}

// TryReceive copies up to len(p) buffered bytes into p without blocking.
// A return value of 0 means no data is buffered right now.
func (r *ByteRing) TryReceive(p []byte) int {
	n := 0
	for n < len(p) && r.used() > 0 {
		t := r.tail.Load()
		p[n] = r.buf[t%ringSize]
		r.tail.Store(t + 1)
		n++
	}
	return n
}

// Receive blocks until at least one byte is available or timeout elapses,
// then copies up to len(p) bytes into p. It returns 0 on timeout. The wake-up
// channel is coalesced, so the state is re-checked after every wake.
func (r *ByteRing) Receive(p []byte, timeout time.Duration) int {
	if n := r.TryReceive(p); n > 0 {
		return n
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-r.notify:
			if n := r.TryReceive(p); n > 0 {
				return n
			}
			// Stale wake-up from an earlier drain; keep waiting.
		case <-timer.C:
			return 0
		}
	}
}

// Clear discards all buffered bytes. Used once at startup to flush stale
// input left over from power-on; only the consumer may call it.
func (r *ByteRing) Clear() {
	r.tail.Store(r.head.Load())
	select {
	case <-r.notify:
	default:
	}
}
