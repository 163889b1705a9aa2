package status

import (
	"sync"
	"time"
)

// State is the inferred connection state of the awim worker. The worker has
// no authoritative status channel, so beyond Stopped these values are derived
// from its log output and from process exit codes.
type State string

const (
	StateStopped   State = "Stopped"
	StateWaiting   State = "WaitingForServer"
	StateConnected State = "Connected"
	StateError     State = "Error"
)

// Model holds the current connection status plus the bookkeeping needed to
// auto-increment retry attempts and detect quiet periods. It is written by
// the log readers, the exit watcher and the snapshot path concurrently, so
// every access goes through the mutex.
type Model struct {
	mu sync.Mutex

	state     State
	attempt   int // current attempt while in StateWaiting
	errorCode int // worker exit code while in StateError

	// lastAttempt survives transitions away from StateWaiting so that retry
	// numbering keeps increasing within a session. Reset by SetWaiting(1)
	// from the launch path.
	lastAttempt int

	// lastWaitingSignal is set on every waiting transition and cleared on
	// every other one; the snapshot path uses it for quiet-period promotion.
	lastWaitingSignal time.Time

	now func() time.Time
}

// NewModel returns a model in the Stopped state.
func NewModel() *Model {
	return &Model{state: StateStopped, now: time.Now}
}

// SetStopped records a clean stop.
func (m *Model) SetStopped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateStopped
	m.attempt = 0
	m.errorCode = 0
	m.lastWaitingSignal = time.Time{}
}

// SetConnected records an established bridge connection.
func (m *Model) SetConnected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateConnected
	m.attempt = 0
	m.errorCode = 0
	m.lastWaitingSignal = time.Time{}
}

// SetWaiting records that the worker is (re)trying to reach the server and
// stamps the time of the signal.
func (m *Model) SetWaiting(attempt int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateWaiting
	m.attempt = attempt
	m.lastAttempt = attempt
	m.errorCode = 0
	m.lastWaitingSignal = m.now()
}

// SetError records an abnormal worker exit.
func (m *Model) SetError(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateError
	m.attempt = 0
	m.errorCode = code
	m.lastWaitingSignal = time.Time{}
}

// NextWaitingAttempt returns the attempt number to use for a retry signal
// that does not carry its own: 1 for the first of the session, otherwise one
// past the last known attempt.
func (m *Model) NextWaitingAttempt() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAttempt + 1
}

// PromoteIfQuiet flips WaitingForServer to Connected when no waiting signal
// has arrived for longer than threshold. Callers must have verified the
// worker process is still alive; a dead worker that merely went quiet is not
// connected. Reports whether a promotion happened.
func (m *Model) PromoteIfQuiet(threshold time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateWaiting || m.lastWaitingSignal.IsZero() {
		return false
	}
	if m.now().Sub(m.lastWaitingSignal) <= threshold {
		return false
	}
	m.state = StateConnected
	m.attempt = 0
	m.lastWaitingSignal = time.Time{}
	return true
}

// Current returns the state together with the waiting attempt and error code
// that accompany it. Attempt is zero outside StateWaiting, ErrorCode is zero
// outside StateError.
func (m *Model) Current() (State, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.attempt, m.errorCode
}
