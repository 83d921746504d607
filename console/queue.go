package console

import (
	"time"
)

const (
	// CommandMax is the fixed slot size of the command queue. Commands are
	// single menu selections, so this is generous.
	CommandMax = 32

	// MessageMax is the fixed slot size of the output queue. It must hold the
	// longest menu block with headroom.
	MessageMax = 512

	commandDepth = 5
	messageDepth = 10

	// DefaultEnqueueTimeout bounds how long a producer may be stalled by a
	// full queue before the enqueue fails and the item is dropped.
	DefaultEnqueueTimeout = 100 * time.Millisecond
)

// Command is one pending user command, copied by value into the command
// queue. The sender's buffer can be reused immediately after enqueue.
type Command struct {
	buf [CommandMax]byte
	n   int
}

// NewCommand copies s into a fixed-capacity command, truncating if s is
// longer than CommandMax.
func NewCommand(s string) Command {
	var c Command
	c.n = copy(c.buf[:], s)
	return c
}

func (c Command) String() string {
	return string(c.buf[:c.n])
}

// Message is one unit of output text, copied by value into the output queue.
type Message struct {
	buf [MessageMax]byte
	n   int
}

// NewMessage copies s into a fixed-capacity message, truncating if s is
// longer than MessageMax. Truncation is deliberate: the queue footprint stays
// constant no matter what callers pass in.
func NewMessage(s string) Message {
	var m Message
	m.n = copy(m.buf[:], s)
	return m
}

func (m Message) Bytes() []byte {
	return m.buf[:m.n]
}

func (m Message) String() string {
	return string(m.buf[:m.n])
}

// Queue is a bounded FIFO of value-copied items. Enqueue blocks for at most a
// bounded timeout and then fails instead of stalling the producer, so one
// slow consumer can never wedge the rest of the pipeline.
type Queue[T any] struct {
	ch chan T
}

func NewQueue[T any](depth int) *Queue[T] {
	return &Queue[T]{ch: make(chan T, depth)}
}

// Enqueue appends v, waiting up to timeout for a free slot. It reports
// whether v was accepted.
func (q *Queue[T]) Enqueue(v T, timeout time.Duration) bool {
	select {
	case q.ch <- v:
		return true
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case q.ch <- v:
		return true
	case <-timer.C:
		return false
	}
}

// TryEnqueue appends v only if a slot is free right now. Safe to call from
// contexts that must never block.
func (q *Queue[T]) TryEnqueue(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// Dequeue removes the oldest item, waiting up to timeout. The second return
// value is false on timeout.
func (q *Queue[T]) Dequeue(timeout time.Duration) (T, bool) {
	var zero T
	select {
	case v := <-q.ch:
		return v, true
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case v := <-q.ch:
		return v, true
	case <-timer.C:
		return zero, false
	}
}

// TryDequeue removes the oldest item without blocking.
func (q *Queue[T]) TryDequeue() (T, bool) {
	var zero T
	select {
	case v := <-q.ch:
		return v, true
	default:
		return zero, false
	}
}

func (q *Queue[T]) Len() int {
	return len(q.ch)
}

func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}
