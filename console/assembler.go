package console

import (
	"log/slog"
	"time"
)

// Assembler is the reception task. It drains the byte relay, echoes input,
// assembles line-terminated commands, and hands completed lines to the
// command queue. It never touches the transmit hardware: every byte of
// feedback goes through the output queue.
//
// The line buffer is exactly one command slot wide. A line that cannot fit a
// command slot could never be dispatched, so it takes the overflow path
// instead of being truncated on enqueue.
type Assembler struct {
	ring   *ByteRing
	cmds   *Queue[Command]
	out    *Queue[Message]
	wake   func()       // wakes the dispatcher after a successful enqueue
	onLine func(string) // reports completed lines, may be nil
	wd     *TaskRecord

	recvTimeout    time.Duration
	enqueueTimeout time.Duration

	line [CommandMax]byte
	n    int
}

// run is the task loop. The receive timeout is short enough that the watchdog
// record is fed periodically even under total input silence.
func (a *Assembler) run() {
	// Stale bytes from power-on glitches would otherwise show up as the
	// first "command".
	a.ring.Clear()
	a.n = 0

	a.send(welcomeBanner)
	a.send(mainMenu)

	buf := make([]byte, 64)
	for {
		n := a.ring.Receive(buf, a.recvTimeout)
		for _, b := range buf[:n] {
			a.handleByte(b)
		}
		a.wd.Feed()
	}
}

// handleByte advances the per-line state machine by one input byte.
func (a *Assembler) handleByte(b byte) {
	switch {
	case b == '\r' || b == '\n':
		if a.n == 0 {
			// Empty line, nothing to do.
			return
		}
		line := string(a.line[:a.n])
		a.n = 0
		if a.cmds.Enqueue(NewCommand(line), a.enqueueTimeout) {
			if a.onLine != nil {
				a.onLine(line)
			}
			a.wake()
		} else {
			slog.Warn("Command queue full, dropping line", "line", line)
			a.send(msgQueueFull)
		}

	case b == '\b' || b == 0x7f:
		if a.n > 0 {
			a.n--
			// Move left, blank the character, move left again.
			a.send(eraseSeq)
		}

	default:
		a.echo(b)
		if a.n < CommandMax {
			a.line[a.n] = b
			a.n++
		} else {
			slog.Warn("Line buffer overflow, discarding line")
			a.send(msgBufferOverflow)
			a.n = 0
		}
	}
}

func (a *Assembler) echo(b byte) {
	var m Message
	m.buf[0] = b
	m.n = 1
	if !a.out.Enqueue(m, a.enqueueTimeout) {
		slog.Warn("Output queue full, dropping echo byte")
	}
}

func (a *Assembler) send(text string) {
	if !a.out.Enqueue(NewMessage(text), a.enqueueTimeout) {
		slog.Warn("Output queue full, dropping message", "len", len(text))
	}
}
