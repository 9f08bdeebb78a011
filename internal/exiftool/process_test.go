package exiftool

import (
	"errors"
	"io"
	"sync"
)

// stubChildProcess is an io.Pipe-backed childProcess, generalizing
// lsp/transport_test.go's mockPipe into a full process stand-in so
// Supervisor can be exercised without spawning a real exiftool.
type stubChildProcess struct {
	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter

	exitCh chan error

	mu        sync.Mutex
	terminate int
	kill      int
	pid       int
}

func newStubChildProcess() *stubChildProcess {
	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	return &stubChildProcess{
		stdinR:  stdinR,
		stdinW:  stdinW,
		stdoutR: stdoutR,
		stdoutW: stdoutW,
		stderrR: stderrR,
		stderrW: stderrW,
		exitCh:  make(chan error, 1),
		pid:     4242,
	}
}

func (p *stubChildProcess) Stdin() io.WriteCloser { return p.stdinW }
func (p *stubChildProcess) Stdout() io.Reader     { return p.stdoutR }
func (p *stubChildProcess) Stderr() io.Reader     { return p.stderrR }
func (p *stubChildProcess) Start() error          { return nil }
func (p *stubChildProcess) Wait() <-chan error    { return p.exitCh }
func (p *stubChildProcess) Pid() int              { return p.pid }

func (p *stubChildProcess) Terminate() error {
	p.mu.Lock()
	p.terminate++
	p.mu.Unlock()
	p.exit(nil)
	return nil
}

func (p *stubChildProcess) Kill() error {
	p.mu.Lock()
	p.kill++
	p.mu.Unlock()
	p.exit(errStubKilled)
	return nil
}

func (p *stubChildProcess) exit(err error) {
	select {
	case p.exitCh <- err:
	default:
	}
}

// drainStdin discards whatever is written to stdin (used in tests that
// only need to drain it without interpreting the script).
func (p *stubChildProcess) drainStdin() {
	go io.Copy(io.Discard, p.stdinR)
}

var errStubKilled = errors.New("stub: killed")
