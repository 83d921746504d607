// Package console implements the concurrent control plane of a serial menu
// console: a byte relay fed by the serial read goroutine, a line assembler
// task, a menu dispatcher task, and a print task that owns the transmit side
// exclusively. All buffers and queues are created once at startup and live
// for the process lifetime.
package console

import (
	"io"
	"log/slog"
	"time"
)

// Listener observes console traffic. Callbacks run on pipeline goroutines
// and must not block.
type Listener interface {
	// LineReceived is called for every completed command line accepted from
	// the peer.
	LineReceived(line string)
	// LineSent is called for every message actually transmitted.
	LineSent(text string)
}

// Config tunes the pipeline. Zero values pick the defaults.
type Config struct {
	// ReceiveTimeout bounds how long the reception and print tasks block
	// while idle; it must be shorter than the watchdog window so the records
	// are fed even under total silence.
	ReceiveTimeout time.Duration
	// EnqueueTimeout bounds how long any producer may wait on a full queue.
	EnqueueTimeout time.Duration
	// WatchdogWindow is the per-task liveness deadline.
	WatchdogWindow time.Duration
}

func (c *Config) applyDefaults() {
	if c.ReceiveTimeout == 0 {
		c.ReceiveTimeout = 2 * time.Second
	}
	if c.EnqueueTimeout == 0 {
		c.EnqueueTimeout = DefaultEnqueueTimeout
	}
	if c.WatchdogWindow == 0 {
		c.WatchdogWindow = 5 * time.Second
	}
}

// Console wires the whole pipeline together.
type Console struct {
	ring *ByteRing
	cmds *Queue[Command]
	out  *Queue[Message]

	asm     *Assembler
	disp    *Dispatcher
	printer *Printer
	wd      *Watchdog

	rw io.ReadWriter

	enqueueTimeout time.Duration
}

// Start creates the buffers and queues, then starts the serial read
// goroutine and the three tasks. rw is the serial port; sink is the LED
// effects collaborator; listener may be nil.
func Start(rw io.ReadWriter, sink PatternSink, listener Listener, cfg Config) *Console {
	cfg.applyDefaults()

	c := &Console{
		ring:           NewByteRing(),
		cmds:           NewQueue[Command](commandDepth),
		out:            NewQueue[Message](messageDepth),
		wd:             NewWatchdog(),
		rw:             rw,
		enqueueTimeout: cfg.EnqueueTimeout,
	}

	c.disp = &Dispatcher{
		cmds:           c.cmds,
		out:            c.out,
		sink:           sink,
		wd:             c.wd.Register("dispatch", cfg.WatchdogWindow),
		wake:           make(chan struct{}, 1),
		idleTimeout:    cfg.ReceiveTimeout,
		enqueueTimeout: cfg.EnqueueTimeout,
	}

	var onLine func(string)
	var onSent func(string)
	if listener != nil {
		onLine = listener.LineReceived
		onSent = listener.LineSent
	}

	c.asm = &Assembler{
		ring:           c.ring,
		cmds:           c.cmds,
		out:            c.out,
		wake:           c.disp.Wake,
		onLine:         onLine,
		wd:             c.wd.Register("rx", cfg.WatchdogWindow),
		recvTimeout:    cfg.ReceiveTimeout,
		enqueueTimeout: cfg.EnqueueTimeout,
	}

	c.printer = &Printer{
		w:           rw,
		out:         c.out,
		onSent:      onSent,
		wd:          c.wd.Register("print", cfg.WatchdogWindow),
		idleTimeout: cfg.ReceiveTimeout,
	}

	go c.readLoop()
	go c.asm.run()
	go c.disp.run()
	go c.printer.run()

	return c
}

// readLoop is the sole producer of the byte relay. It stands in for the
// receive interrupt: it deposits every byte and immediately goes back to
// reading, never blocking on downstream consumers.
func (c *Console) readLoop() {
	buf := make([]byte, 64)
	for {
		n, err := c.rw.Read(buf)
		if err != nil {
			slog.Error("Serial port read error", "error", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		for _, b := range buf[:n] {
			if !c.ring.Deposit(b) {
				slog.Warn("Byte relay full, dropping byte")
			}
		}
	}
}

// MenuState returns a read-only snapshot of the dispatcher's state.
func (c *Console) MenuState() MenuState {
	return c.disp.State()
}

// SubmitCommand injects a command as if the user had typed it and pressed
// enter, bypassing line assembly. Used by the diagnostics API.
func (c *Console) SubmitCommand(line string) bool {
	if !c.cmds.Enqueue(NewCommand(line), c.enqueueTimeout) {
		return false
	}
	c.disp.Wake()
	return true
}

// CommandQueueLen returns the number of pending commands.
func (c *Console) CommandQueueLen() int {
	return c.cmds.Len()
}

// OutputQueueLen returns the number of messages waiting for transmission.
func (c *Console) OutputQueueLen() int {
	return c.out.Len()
}

// WatchdogSnapshot returns the liveness status of every task.
func (c *Console) WatchdogSnapshot() []TaskStatus {
	return c.wd.Snapshot()
}
