package exiftool

import (
	"sync"
	"time"
)

// State is the Supervisor's externally visible lifecycle state (spec §6
// "state()"), matching the teacher's ServerStatus/SupervisorState enum shape.
type State int

const (
	// StateNotRunning means no child process is live.
	StateNotRunning State = iota
	// StateStarting means the child has been spawned but has not yet been
	// confirmed started by the OS.
	StateStarting
	// StateRunning means the child is live and accepting commands.
	StateRunning
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return "not-running"
	}
}

// EventType identifies the kind of Event delivered on Supervisor.Events().
type EventType int

const (
	// EventStarted fires as soon as the OS reports the child started.
	EventStarted EventType = iota
	// EventStateChanged fires on every State transition.
	EventStateChanged
	// EventError fires whenever the error state is (re)classified.
	EventError
	// EventFinished fires when the child process exits, carrying its exit
	// code and status.
	EventFinished
	// EventCommandCompleted fires exactly once per in-flight command that
	// both channels correlated successfully.
	EventCommandCompleted
	// EventSyncError fires when the two channels' awaited ids disagree, or
	// disagree with the running command. It is a diagnostic signal only;
	// spec §7 deliberately does not model it as an ErrorKind.
	EventSyncError
)

// String returns a human-readable event type name.
func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventStateChanged:
		return "state-changed"
	case EventError:
		return "error-occurred"
	case EventFinished:
		return "finished"
	case EventCommandCompleted:
		return "command-completed"
	case EventSyncError:
		return "sync-error"
	default:
		return "unknown"
	}
}

// Event is the single value delivered on Supervisor.Events(). Only the
// fields relevant to Type are meaningful.
type Event struct {
	Type EventType

	State State // EventStateChanged

	ErrorKind ErrorKind // EventError
	Message   string    // EventError

	ExitCode   int  // EventFinished
	ExitStatus bool // EventFinished: true if the process exited cleanly

	CommandID int32 // EventCommandCompleted, EventSyncError
	ElapsedMS int64 // EventCommandCompleted
	Stdout    []byte
	Stderr    []byte
}

// Config configures how the Supervisor launches the helper.
type Config struct {
	// HelperPath is the filesystem path to the exiftool executable.
	HelperPath string

	// InterpreterPath, if set, causes the Supervisor to launch
	// InterpreterPath with HelperPath as its first argument, for helpers
	// that require an explicit interpreter (spec §4.1).
	InterpreterPath string
}

// queuedCommand is one pending entry in the FIFO queue (spec §3 "Queue").
type queuedCommand struct {
	id     int32
	script []byte
}

// runningState mirrors spec §3's "Running State" record.
type runningState struct {
	id        int32 // MinCommandID-1 sentinel value means "none"
	execStart time.Time
	buffers   [2][]byte
	awaited   [2]int32 // 0 means "none"
	ready     [2]bool
}

func (r *runningState) hasRunning() bool { return r.id != noCommandID }

const noCommandID int32 = 0

// Supervisor owns the exiftool child process: its lifecycle, the pending
// command queue, and the await/ready demultiplexing of its two output
// streams (spec §4.1).
type Supervisor struct {
	cfg Config

	// newChild is overridden in tests to avoid spawning a real process.
	newChild func(cfg Config) childProcess

	mu      sync.Mutex
	state   State
	child   childProcess
	running runningState
	queue   []queuedCommand

	writeOpen    bool
	stopRequest  bool
	errKind      ErrorKind
	errMsg       string
	lastExitCode int
	lastExitOK   bool
	haveExited   bool

	startedCh  chan struct{}
	finishedCh chan struct{}

	events chan Event
}

// NewSupervisor creates a Supervisor for cfg. The process is not started.
func NewSupervisor(cfg Config) *Supervisor {
	s := &Supervisor{
		cfg:        cfg,
		newChild:   defaultNewChild,
		state:      StateNotRunning,
		startedCh:  make(chan struct{}),
		finishedCh: make(chan struct{}),
		events:     make(chan Event, 256),
	}
	return s
}

func defaultNewChild(cfg Config) childProcess {
	if cfg.InterpreterPath != "" {
		return newExecChildProcess(cfg.InterpreterPath, append([]string{cfg.HelperPath}, stayOpenArgs...))
	}
	return newExecChildProcess(cfg.HelperPath, stayOpenArgs)
}

var stayOpenArgs = []string{"-stay_open", "true", "-@", "-"}

// Events returns the channel on which Started/StateChanged/Error/Finished/
// CommandCompleted/SyncError events are delivered. Events are dropped if
// the channel is full; callers should drain it promptly.
func (s *Supervisor) Events() <-chan Event { return s.events }

func (s *Supervisor) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// IsRunning reports whether the child process is currently running.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateRunning
}

// IsBusy reports whether a command is currently in flight.
func (s *Supervisor) IsBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running.hasRunning()
}

// ProcessID returns the child's OS process id, or -1 if not running.
func (s *Supervisor) ProcessID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.child == nil || s.state == StateNotRunning {
		return -1
	}
	return s.child.Pid()
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Error returns the last recorded error kind and message.
func (s *Supervisor) Error() (ErrorKind, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errKind, s.errMsg
}

// ErrorString returns the last recorded error message alone.
func (s *Supervisor) ErrorString() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// ExitStatus returns the child's last exit code and whether it exited
// cleanly. ok is false if the child has never exited.
func (s *Supervisor) ExitStatus() (code int, clean bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastExitCode, s.lastExitOK, s.haveExited
}

func (s *Supervisor) setState(state State) {
	s.state = state
	s.emit(Event{Type: EventStateChanged, State: state})
}

func (s *Supervisor) setError(kind ErrorKind, msg string) {
	s.errKind = kind
	s.errMsg = msg
	s.emit(Event{Type: EventError, ErrorKind: kind, Message: msg})
}

// Start spawns the child in stay-open mode (spec §4.1 "start()").
func (s *Supervisor) Start() error {
	s.mu.Lock()
	if s.state != StateNotRunning {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}

	if !pathIsExecutable(s.cfg.HelperPath) {
		s.setError(ErrorKindStartFailed, "helper path does not exist or is not executable: "+s.cfg.HelperPath)
		s.mu.Unlock()
		return ErrHelperMissing
	}
	if s.cfg.InterpreterPath != "" && !pathIsExecutable(s.cfg.InterpreterPath) {
		s.setError(ErrorKindStartFailed, "interpreter path does not exist or is not executable: "+s.cfg.InterpreterPath)
		s.mu.Unlock()
		return ErrInterpreterMissing
	}

	s.setState(StateStarting)
	s.queue = nil
	s.errKind = ErrorKindUnknown
	s.errMsg = ""
	s.stopRequest = false
	s.haveExited = false
	s.startedCh = make(chan struct{})
	s.finishedCh = make(chan struct{})

	child := s.newChild(s.cfg)
	if err := child.Start(); err != nil {
		s.setState(StateNotRunning)
		s.setError(ErrorKindStartFailed, err.Error())
		s.mu.Unlock()
		return err
	}
	s.child = child
	s.writeOpen = true
	s.mu.Unlock()

	out := newChannelReader(child.Stdout(),
		func(id int32) { s.handleAwait(0, id) },
		func(buf []byte) { s.handleReady(0, buf) },
		func(err error) { s.handleChannelError(err) },
	)
	errR := newChannelReader(child.Stderr(),
		func(id int32) { s.handleAwait(1, id) },
		func(buf []byte) { s.handleReady(1, buf) },
		func(err error) { s.handleChannelError(err) },
	)
	go out.run()
	go errR.run()
	go s.watchExit(child)

	s.mu.Lock()
	s.setState(StateRunning)
	close(s.startedCh)
	s.mu.Unlock()
	s.emit(Event{Type: EventStarted})

	return nil
}

// Terminate asks the child to shut down gracefully by writing
// "-stay_open false" to its stdin (spec §4.1 "terminate()"). If the child
// is not running, it requests OS-level termination instead.
func (s *Supervisor) Terminate() {
	s.mu.Lock()
	s.stopRequest = true
	s.dropQueueLocked()

	child := s.child
	running := s.state == StateRunning
	s.mu.Unlock()

	if child == nil {
		return
	}

	if running {
		if stdin := child.Stdin(); stdin != nil {
			_, _ = stdin.Write(terminateScript)
			_ = stdin.Close()
		}
		s.mu.Lock()
		s.writeOpen = false
		s.mu.Unlock()
		return
	}

	_ = child.Terminate()
}

// Kill unconditionally destroys the child process.
func (s *Supervisor) Kill() {
	s.mu.Lock()
	s.stopRequest = true
	s.dropQueueLocked()
	child := s.child
	s.mu.Unlock()

	if child != nil {
		_ = child.Kill()
	}
}

// dropQueueLocked empties the pending queue without emitting events for
// the dropped commands (spec §5 "Cancellation"). Caller must hold s.mu.
func (s *Supervisor) dropQueueLocked() {
	s.queue = nil
}

// WaitStarted blocks up to timeout for the process to start.
func (s *Supervisor) WaitStarted(timeout time.Duration) bool {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		return true
	}
	ch := s.startedCh
	s.mu.Unlock()

	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

// WaitFinished blocks up to timeout for the process to exit.
func (s *Supervisor) WaitFinished(timeout time.Duration) bool {
	s.mu.Lock()
	if s.haveExited {
		s.mu.Unlock()
		return true
	}
	ch := s.finishedCh
	s.mu.Unlock()

	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

// handleAwait records the id parsed from channel idx's {await<N>} marker.
func (s *Supervisor) handleAwait(idx int, id int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running.awaited[idx] = id
}

// handleReady is invoked when channel idx reaches its {ready} marker; it
// resolves the in-flight command once both channels are ready.
func (s *Supervisor) handleReady(idx int, buf []byte) {
	s.mu.Lock()

	s.running.buffers[idx] = buf
	s.running.ready[idx] = true

	if !(s.running.ready[0] && s.running.ready[1]) {
		s.mu.Unlock()
		return
	}

	runningID := s.running.id
	awaited0, awaited1 := s.running.awaited[0], s.running.awaited[1]
	elapsed := time.Since(s.running.execStart).Milliseconds()
	stdout, stderr := s.running.buffers[0], s.running.buffers[1]

	s.running = runningState{id: noCommandID}

	matched := awaited0 == awaited1 && awaited0 == runningID

	s.mu.Unlock()

	if matched {
		s.emit(Event{
			Type:      EventCommandCompleted,
			CommandID: runningID,
			ElapsedMS: elapsed,
			Stdout:    stdout,
			Stderr:    stderr,
		})
	} else {
		s.emit(Event{Type: EventSyncError, CommandID: runningID})
	}

	s.dispatchNext()
}

func (s *Supervisor) handleChannelError(err error) {
	s.mu.Lock()
	writeOpen := s.writeOpen
	s.mu.Unlock()
	if !writeOpen {
		// Read errors are expected once a graceful terminate has closed
		// the write side and the child's pipes are shutting down.
		return
	}
	s.setError(ErrorKindReadError, err.Error())
}

// watchExit waits for the child to exit and publishes Finished (and, for
// unexpected exits, an Error of kind crashed).
func (s *Supervisor) watchExit(child childProcess) {
	exitErr := <-child.Wait()

	code, clean := exitCodeOf(exitErr)

	s.mu.Lock()
	s.lastExitCode = code
	s.lastExitOK = clean
	s.haveExited = true
	unexpected := !s.stopRequest && !clean
	s.dropQueueLocked()
	s.running = runningState{id: noCommandID}
	s.setState(StateNotRunning)
	close(s.finishedCh)
	s.mu.Unlock()

	if unexpected {
		s.setError(ErrorKindCrashed, "child process terminated unexpectedly")
	}

	s.emit(Event{Type: EventFinished, ExitCode: code, ExitStatus: clean})
}

// dispatchNext writes the queue head to the child's stdin if nothing is
// currently in flight. Caller must not hold s.mu.
func (s *Supervisor) dispatchNext() {
	s.mu.Lock()
	if s.running.hasRunning() || len(s.queue) == 0 || s.state != StateRunning {
		s.mu.Unlock()
		return
	}

	next := s.queue[0]
	s.queue = s.queue[1:]
	s.running = runningState{id: next.id, execStart: time.Now()}
	child := s.child
	s.mu.Unlock()

	if child == nil {
		s.mu.Lock()
		s.running = runningState{id: noCommandID}
		s.mu.Unlock()
		return
	}

	stdin := child.Stdin()
	if stdin == nil {
		s.mu.Lock()
		s.running = runningState{id: noCommandID}
		s.mu.Unlock()
		s.setError(ErrorKindWriteError, "no stdin pipe available")
		return
	}

	if _, err := stdin.Write(next.script); err != nil {
		s.mu.Lock()
		s.running = runningState{id: noCommandID}
		s.mu.Unlock()
		s.setError(ErrorKindWriteError, err.Error())
		return
	}
}

func exitCodeOf(err error) (code int, clean bool) {
	if err == nil {
		return 0, true
	}
	if ec, ok := exitCodeFromError(err); ok {
		return ec, false
	}
	return -1, false
}
