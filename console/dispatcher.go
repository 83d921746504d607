package console

import (
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// MenuState identifies the currently active menu.
type MenuState int32

const (
	MenuMain MenuState = iota
	MenuLedPatterns
)

func (s MenuState) String() string {
	switch s {
	case MenuMain:
		return "main"
	case MenuLedPatterns:
		return "led-patterns"
	}
	return "unknown"
}

// Dispatcher is the command-handler task. It owns the menu state machine:
// only the dispatcher goroutine ever writes the state, so no lock is needed.
// State exposes a read-only snapshot for diagnostics.
type Dispatcher struct {
	cmds *Queue[Command]
	out  *Queue[Message]
	sink PatternSink
	wd   *TaskRecord

	wake chan struct{} // coalesced, cap 1

	state          atomic.Int32
	idleTimeout    time.Duration
	enqueueTimeout time.Duration
}

// State returns a snapshot of the current menu state. Safe from any
// goroutine.
func (d *Dispatcher) State() MenuState {
	return MenuState(d.state.Load())
}

func (d *Dispatcher) setState(s MenuState) {
	d.state.Store(int32(s))
}

// Wake nudges the dispatcher to drain the command queue. Coalesced: waking an
// already-pending dispatcher is a no-op.
func (d *Dispatcher) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// run sleeps until woken, then drains every pending command before sleeping
// again, so a burst of queued commands is fully processed in one pass. The
// idle timeout exists only to feed the watchdog record during silence.
func (d *Dispatcher) run() {
	timer := time.NewTimer(d.idleTimeout)
	defer timer.Stop()
	for {
		select {
		case <-d.wake:
			d.drain()
		case <-timer.C:
		}
		d.wd.Feed()
		timer.Reset(d.idleTimeout)
	}
}

func (d *Dispatcher) drain() {
	for {
		cmd, ok := d.cmds.TryDequeue()
		if !ok {
			return
		}
		d.process(cmd.String())
	}
}

// process normalizes one command and advances the state machine.
func (d *Dispatcher) process(raw string) {
	cmd := strings.ToLower(strings.TrimSpace(raw))
	slog.Debug("Processing command", "command", cmd, "state", d.State())

	switch d.State() {
	case MenuMain:
		d.processMain(cmd)
	case MenuLedPatterns:
		d.processLedPatterns(cmd)
	default:
		// Unrecognized state value. Recover to a known menu.
		d.setState(MenuMain)
		d.send(mainMenu)
	}
}

func (d *Dispatcher) processMain(cmd string) {
	switch cmd {
	case "1":
		d.setState(MenuLedPatterns)
		d.send(ledPatternsMenu)
	case "2":
		d.sink.SetPattern(PatternNone)
		d.send(msgExited)
		d.send(mainMenu)
	default:
		d.send(msgInvalidOption)
		d.send(mainMenu)
	}
}

func (d *Dispatcher) processLedPatterns(cmd string) {
	switch cmd {
	case "0":
		d.setState(MenuMain)
		d.send(mainMenu)
	case "1":
		d.activate(Pattern1, "\r\nNow playing LED Pattern 1\r\n")
	case "2":
		d.activate(Pattern2, "\r\nNow playing LED Pattern 2\r\n")
	case "3":
		d.activate(Pattern3, "\r\nNow playing LED Pattern 3\r\n")
	case "4":
		d.sink.SetPattern(PatternNone)
		d.send(msgAllOff)
		d.send(ledPatternsMenu)
	default:
		d.send(msgInvalidOption)
		d.send(ledPatternsMenu)
	}
}

func (d *Dispatcher) activate(p Pattern, confirmation string) {
	d.sink.SetPattern(p)
	d.send(confirmation)
	d.send(ledPatternsMenu)
}

func (d *Dispatcher) send(text string) {
	if !d.out.Enqueue(NewMessage(text), d.enqueueTimeout) {
		slog.Warn("Output queue full, dropping message", "len", len(text))
	}
}
