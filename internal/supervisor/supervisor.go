package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"awimctl/internal/config"
	"awimctl/internal/status"
	"awimctl/pkg/logging"
)

const (
	defaultStartupGrace   = 1200 * time.Millisecond
	defaultStopTimeout    = 3 * time.Second
	defaultQuietThreshold = 1500 * time.Millisecond
)

// Options tunes the supervisor. Zero values are replaced with defaults; the
// timing knobs exist because the quiet-period heuristic and the grace windows
// are empirically tuned, not derived.
type Options struct {
	// WorkerRoot is the directory the candidate binary paths are resolved
	// against. Defaults to the directory of the running executable.
	WorkerRoot string

	// CandidatePaths overrides executable resolution entirely when set.
	CandidatePaths []string

	// StartupGrace is how long a freshly spawned worker must survive before
	// it is presumed running.
	StartupGrace time.Duration

	// StopTimeout is how long a SIGTERM gets before escalating to SIGKILL.
	StopTimeout time.Duration

	// QuietThreshold is how long WaitingForServer must stay silent, with the
	// process alive, before the snapshot path promotes it to Connected.
	QuietThreshold time.Duration
}

func (o Options) withDefaults() Options {
	if o.WorkerRoot == "" {
		if exe, err := os.Executable(); err == nil {
			o.WorkerRoot = filepath.Dir(exe)
		}
	}
	if len(o.CandidatePaths) == 0 {
		o.CandidatePaths = []string{
			filepath.Join(o.WorkerRoot, "bin", "awim"),
			filepath.Join(o.WorkerRoot, "backend", "out", "awim"),
		}
	}
	if o.StartupGrace <= 0 {
		o.StartupGrace = defaultStartupGrace
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = defaultStopTimeout
	}
	if o.QuietThreshold <= 0 {
		o.QuietThreshold = defaultQuietThreshold
	}
	return o
}

// waitResult is published exactly once per process by the goroutine that
// calls cmd.Wait.
type waitResult struct {
	code int
	err  error
}

// Supervisor owns at most one awim worker process at a time and drives the
// shared status model from its output and exit code.
//
// opMu serializes the owner-facing operations (Start, Stop, Snapshot); procMu
// guards the handle and task bookkeeping and is only ever held briefly, never
// across a wait, so the background tasks can take it without deadlocking
// against an owner operation.
type Supervisor struct {
	opMu   sync.Mutex
	procMu sync.Mutex

	opts   Options
	store  *config.Store
	status *status.Model

	cmd      *exec.Cmd
	exitCh   chan waitResult
	readerWG *sync.WaitGroup
	tail     *tailBuffer
	stopping bool

	watcherStop chan struct{}
	watcherDone chan struct{}
}

// New creates a supervisor in the stopped state.
func New(store *config.Store, model *status.Model, opts Options) *Supervisor {
	return &Supervisor{
		opts:   opts.withDefaults(),
		store:  store,
		status: model,
	}
}

// Status exposes the shared status model.
func (s *Supervisor) Status() *status.Model { return s.status }

// Start launches the worker with the current settings. It is a no-op when a
// live process is already tracked. On failure the status is left at whatever
// the launch-failure or early-exit path set, never dangling in
// WaitingForServer.
func (s *Supervisor) Start() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.refreshLiveness()
	s.procMu.Lock()
	running := s.cmd != nil
	s.procMu.Unlock()
	if running {
		logging.Debug("Supervisor", "Start requested but awim is already running")
		return nil
	}
	// A watcher whose process already exited may still be parked; reap it
	// before spawning again.
	s.cancelWatcher()

	path, err := s.resolveExecutable()
	if err != nil {
		return err
	}

	cfg := s.store.Current()
	env := buildWorkerEnv()

	// Optimistic: the worker always begins by dialing the server, so the
	// first visible state is attempt 1 even before the spawn is confirmed.
	s.status.SetWaiting(1)

	args := []string{"--ip", cfg.IP, "--port", strconv.Itoa(cfg.Port)}
	if cfg.TCPMode {
		args = append(args, "--tcp-mode")
	}
	cmd := exec.Command(path, args...)
	cmd.Dir = filepath.Dir(path)
	cmd.Env = env

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		s.status.SetStopped()
		return &LaunchError{Err: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		s.status.SetStopped()
		return &LaunchError{Err: err}
	}

	if err := cmd.Start(); err != nil {
		s.status.SetStopped()
		return classifyLaunchError(path, err)
	}

	tail := newTailBuffer(64)
	wg := &sync.WaitGroup{}
	wg.Add(2)
	go s.consumeStream(wg, stdoutPipe, "stdout", tail)
	go s.consumeStream(wg, stderrPipe, "stderr", tail)

	exitCh := make(chan waitResult, 1)
	go func() {
		err := cmd.Wait()
		exitCh <- waitResult{code: exitCodeFrom(err), err: err}
	}()

	s.procMu.Lock()
	s.cmd = cmd
	s.exitCh = exitCh
	s.readerWG = wg
	s.tail = tail
	s.procMu.Unlock()

	logging.Info("Supervisor", "awim started with PID %d (%s %s)", cmd.Process.Pid, path, strings.Join(args, " "))

	// Early-exit grace: a worker that dies inside this window failed to
	// start, whatever the log output said.
	select {
	case res := <-exitCh:
		wg.Wait()
		s.procMu.Lock()
		s.cmd = nil
		s.exitCh = nil
		s.procMu.Unlock()
		s.applyExitStatus(res)
		output := tail.joined()
		logging.Error("Supervisor", res.err,
			"awim exited within startup grace (code %d, PIPEWIRE_MODULE_DIR=%q, SPA_PLUGIN_DIR=%q): %s",
			res.code, lookupEnv(env, "PIPEWIRE_MODULE_DIR"), lookupEnv(env, "SPA_PLUGIN_DIR"), output)
		return &EarlyExitError{Code: res.code, Output: output}
	case <-time.After(s.opts.StartupGrace):
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.procMu.Lock()
	s.watcherStop = stop
	s.watcherDone = done
	s.procMu.Unlock()
	go s.watchExit(cmd, exitCh, wg, stop, done)

	return nil
}

// Stop terminates the worker if one is tracked and always leaves the status
// at Stopped with all background tasks joined. Safe to call repeatedly and
// before any start.
func (s *Supervisor) Stop() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.procMu.Lock()
	cmd := s.cmd
	if cmd == nil {
		s.procMu.Unlock()
		s.cancelWatcher()
		s.status.SetStopped()
		return nil
	}
	s.stopping = true
	exitCh := s.exitCh
	wg := s.readerWG
	s.procMu.Unlock()

	// ESRCH here just means the process beat us to the exit.
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logging.Debug("Supervisor", "SIGTERM to awim failed: %v", err)
	}

	select {
	case <-exitCh:
		logging.Info("Supervisor", "awim stopped with SIGTERM")
	case <-time.After(s.opts.StopTimeout):
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			logging.Debug("Supervisor", "SIGKILL to awim failed: %v", err)
		}
		<-exitCh
		logging.Info("Supervisor", "awim stopped with SIGKILL")
	}
	wg.Wait()

	s.procMu.Lock()
	s.cmd = nil
	s.exitCh = nil
	s.stopping = false
	s.procMu.Unlock()

	s.cancelWatcher()
	s.status.SetStopped()
	return nil
}

// Running reports whether a live worker process is currently tracked,
// refreshing liveness first.
func (s *Supervisor) Running() bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.refreshLiveness()
	s.procMu.Lock()
	defer s.procMu.Unlock()
	return s.cmd != nil
}

// watchExit finalizes the status when the worker terminates on its own. A
// concurrent Stop sets the stopping flag first and owns finalization; in that
// case the watcher hands the exit result back and bows out.
func (s *Supervisor) watchExit(cmd *exec.Cmd, exitCh chan waitResult, wg *sync.WaitGroup, stop, done chan struct{}) {
	defer close(done)

	select {
	case <-stop:
		return
	case res := <-exitCh:
		s.procMu.Lock()
		if s.stopping || s.cmd != cmd {
			// The stop path or the liveness check owns this exit; put the
			// result back for whoever is waiting on it.
			exitCh <- res
			s.procMu.Unlock()
			return
		}
		s.cmd = nil
		s.exitCh = nil
		s.procMu.Unlock()

		wg.Wait()
		s.applyExitStatus(res)
		logging.Info("Supervisor", "awim exited unexpectedly with code %d", res.code)
	}
}

// refreshLiveness polls for an exit the watcher has not processed yet. The
// watcher's scheduling is not assumed to be instantaneous, so any state query
// performs the same check; the handle comparison keeps the two finalizers
// mutually exclusive.
func (s *Supervisor) refreshLiveness() {
	s.procMu.Lock()
	cmd := s.cmd
	exitCh := s.exitCh
	wg := s.readerWG
	s.procMu.Unlock()
	if cmd == nil || exitCh == nil {
		return
	}

	select {
	case res := <-exitCh:
		s.procMu.Lock()
		if s.stopping || s.cmd != cmd {
			exitCh <- res
			s.procMu.Unlock()
			return
		}
		s.cmd = nil
		s.exitCh = nil
		s.procMu.Unlock()

		s.cancelWatcher()
		wg.Wait()
		s.applyExitStatus(res)
		logging.Info("Supervisor", "awim exit observed by liveness check, code %d", res.code)
	default:
	}
}

// cancelWatcher cancels the exit watcher if one is parked and waits for it to
// return. Idempotent; a watcher that already finalized has closed its done
// channel and the wait returns immediately.
func (s *Supervisor) cancelWatcher() {
	s.procMu.Lock()
	stop, done := s.watcherStop, s.watcherDone
	s.watcherStop, s.watcherDone = nil, nil
	s.procMu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// applyExitStatus maps an exit code onto the status model: clean exit means
// the worker was told to stop, anything else is an error the UI should see.
func (s *Supervisor) applyExitStatus(res waitResult) {
	if res.code == 0 {
		s.status.SetStopped()
		return
	}
	s.status.SetError(res.code)
}

// consumeStream reads one output stream line by line, feeding the classifier
// and the diagnostic tail buffer. It ends when the pipe closes, which is
// bounded by the process exiting.
func (s *Supervisor) consumeStream(wg *sync.WaitGroup, r io.Reader, name string, tail *tailBuffer) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tail.append(line)
		logging.Info("Worker", "awim %s: %s", name, line)

		tr, ok := status.Classify(line, s.status.NextWaitingAttempt)
		if !ok {
			continue
		}
		switch tr.State {
		case status.StateConnected:
			s.status.SetConnected()
		case status.StateWaiting:
			s.status.SetWaiting(tr.Attempt)
		}
	}
}

func (s *Supervisor) resolveExecutable() (string, error) {
	for _, candidate := range s.opts.CandidatePaths {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w (checked %s)", ErrExecutableNotFound, strings.Join(s.opts.CandidatePaths, ", "))
}

func classifyLaunchError(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		// ENOENT with the file present means the kernel rejected the binary's
		// interpreter or dynamic loader, not the path.
		if _, statErr := os.Stat(path); statErr == nil {
			return &IncompatibleBinaryError{Path: path, Err: err}
		}
		return fmt.Errorf("%w (vanished at exec time: %s)", ErrExecutableNotFound, path)
	}
	if errors.Is(err, syscall.ENOEXEC) || errors.Is(err, syscall.EACCES) {
		return &IncompatibleBinaryError{Path: path, Err: err}
	}
	return &LaunchError{Err: err}
}

func exitCodeFrom(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
	}
	return -1
}

// tailBuffer keeps the most recent worker output lines for early-exit
// diagnostics.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	lines []string
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) append(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *tailBuffer) joined() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, " ")
}
