package console

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssembler(cmdDepth int) (*Assembler, *int) {
	wakes := 0
	a := &Assembler{
		ring:           NewByteRing(),
		cmds:           NewQueue[Command](cmdDepth),
		out:            NewQueue[Message](64),
		wake:           func() { wakes++ },
		recvTimeout:    50 * time.Millisecond,
		enqueueTimeout: 20 * time.Millisecond,
	}
	return a, &wakes
}

func (a *Assembler) feed(input string) {
	for i := 0; i < len(input); i++ {
		a.handleByte(input[i])
	}
}

// drainOutput concatenates every message currently queued for transmission.
func drainOutput(out *Queue[Message]) string {
	var sb strings.Builder
	for {
		m, ok := out.TryDequeue()
		if !ok {
			return sb.String()
		}
		sb.WriteString(m.String())
	}
}

func TestEchoMatchesInput(t *testing.T) {
	a, _ := newTestAssembler(5)
	a.feed("hello 123")
	assert.Equal(t, "hello 123", drainOutput(a.out))
}

func TestLineCompletion(t *testing.T) {
	a, wakes := newTestAssembler(5)
	a.feed("hi\r")

	cmd, ok := a.cmds.TryDequeue()
	require.True(t, ok, "completed line must be enqueued")
	assert.Equal(t, "hi", cmd.String())
	assert.Equal(t, 1, *wakes, "dispatcher must be woken exactly once")
	assert.Equal(t, 0, a.n, "line buffer must be reset")
	assert.Equal(t, "hi", drainOutput(a.out), "terminator is not echoed")
}

func TestCRLFYieldsSingleCommand(t *testing.T) {
	a, wakes := newTestAssembler(5)
	a.feed("ok\r\n")

	_, ok := a.cmds.TryDequeue()
	require.True(t, ok)
	_, ok = a.cmds.TryDequeue()
	assert.False(t, ok, "trailing LF must not produce a second command")
	assert.Equal(t, 1, *wakes)
}

func TestEmptyLinesIgnored(t *testing.T) {
	a, wakes := newTestAssembler(5)
	a.feed("\r\n\r\n")

	_, ok := a.cmds.TryDequeue()
	assert.False(t, ok)
	assert.Equal(t, 0, *wakes)
	assert.Empty(t, drainOutput(a.out))
}

func TestBackspaceEditsLine(t *testing.T) {
	a, _ := newTestAssembler(5)
	a.feed("ab\x7f" + "c\r")

	cmd, ok := a.cmds.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "ac", cmd.String())
	assert.Equal(t, "ab\b \bc", drainOutput(a.out), "erase triplet follows the echo of the deleted char")
}

func TestBackspaceOnEmptyLine(t *testing.T) {
	a, _ := newTestAssembler(5)
	a.feed("\b\b")
	assert.Empty(t, drainOutput(a.out), "nothing to erase, nothing to emit")
}

func TestMaxLengthLineRoundTrip(t *testing.T) {
	a, _ := newTestAssembler(5)
	line := strings.Repeat("z", CommandMax)
	a.feed(line + "\r")

	cmd, ok := a.cmds.TryDequeue()
	require.True(t, ok, "a maximum-length line must be enqueued")
	assert.Equal(t, line, cmd.String(), "no truncation on a maximum-length line")
}

func TestOverflowDiscardsLine(t *testing.T) {
	a, wakes := newTestAssembler(5)
	line := strings.Repeat("z", CommandMax+1)
	a.feed(line + "\r")

	_, ok := a.cmds.TryDequeue()
	assert.False(t, ok, "an overlong line must never be enqueued")
	assert.Equal(t, 0, *wakes)
	assert.Contains(t, drainOutput(a.out), msgBufferOverflow)
	assert.Equal(t, 0, a.n)

	// The pipeline self-heals: the next line goes through.
	a.feed("1\r")
	cmd, ok := a.cmds.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "1", cmd.String())
}

func TestCommandQueueFullBackpressure(t *testing.T) {
	a, wakes := newTestAssembler(1)
	require.True(t, a.cmds.TryEnqueue(NewCommand("stuck")), "saturate the queue")

	start := time.Now()
	a.feed("x\r")
	elapsed := time.Since(start)

	assert.Less(t, elapsed, time.Second, "enqueue must fail within its bounded timeout")
	assert.Equal(t, 0, *wakes, "no wake on a dropped line")
	assert.Contains(t, drainOutput(a.out), msgQueueFull)
	assert.Equal(t, 0, a.n, "dropped line resets the buffer")
}

// Startup and the full receive loop: bytes deposited into the relay come out
// as echo plus a dispatched command.
func TestRunStartupAndReceive(t *testing.T) {
	a, _ := newTestAssembler(5)
	a.wd = NewWatchdog().Register("rx", time.Minute)
	go a.run()

	// Banner and main menu come first.
	waitForOutput(t, a.out, welcomeBanner)
	waitForOutput(t, a.out, mainMenu)

	for _, b := range []byte("1\r") {
		require.True(t, a.ring.Deposit(b))
	}

	deadline := time.After(2 * time.Second)
	for {
		if cmd, ok := a.cmds.TryDequeue(); ok {
			assert.Equal(t, "1", cmd.String())
			return
		}
		select {
		case <-deadline:
			t.Fatal("command was not assembled from relayed bytes")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func waitForOutput(t *testing.T, out *Queue[Message], want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if m, ok := out.TryDequeue(); ok {
			if m.String() == want {
				return
			}
			t.Fatalf("unexpected output %q, want %q", m.String(), want)
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for output %q", want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}
