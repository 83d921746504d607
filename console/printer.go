package console

import (
	"io"
	"log/slog"
	"time"
)

// Printer is the print task, the sole owner of the transmit side of the
// serial port. Every other component requests output through the output
// queue; nothing else writes to w. The dequeue timeout lets the task feed its
// watchdog record while idle.
type Printer struct {
	w      io.Writer
	out    *Queue[Message]
	onSent func(string) // reports transmitted messages, may be nil
	wd     *TaskRecord

	idleTimeout time.Duration
}

func (p *Printer) run() {
	for {
		if msg, ok := p.out.Dequeue(p.idleTimeout); ok {
			// Transmit to completion before looking at the next message.
			// A failed write is discarded; the transport owns retries.
			if _, err := p.w.Write(msg.Bytes()); err != nil {
				slog.Error("Serial port write error", "error", err)
			} else if p.onSent != nil {
				p.onSent(msg.String())
			}
		}
		p.wd.Feed()
	}
}
