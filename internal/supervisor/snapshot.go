package supervisor

// Snapshot is the externally visible state record returned by every state
// query and by every mutating host call.
type Snapshot struct {
	Address       string `json:"address"`
	Port          int    `json:"port"`
	TransportMode string `json:"transportMode"`
	Running       bool   `json:"running"`
	PID           int    `json:"pid,omitempty"`
	Status        string `json:"status"`
	Attempt       int    `json:"attempt,omitempty"`
	ErrorCode     int    `json:"errorCode,omitempty"`
}

// Snapshot refreshes process liveness, applies the quiet-period promotion and
// returns the current state record.
//
// The promotion is the best-effort heart of status inference: the worker logs
// nothing after its handshake succeeds, so a sustained silence following
// retry signals, with the process still alive, is read as Connected. It may
// be wrong, but it never demotes an established Connected.
func (s *Supervisor) Snapshot() Snapshot {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.refreshLiveness()

	s.procMu.Lock()
	cmd := s.cmd
	s.procMu.Unlock()
	running := cmd != nil

	if running {
		s.status.PromoteIfQuiet(s.opts.QuietThreshold)
	}

	st, attempt, errorCode := s.status.Current()
	cfg := s.store.Current()

	snap := Snapshot{
		Address:       cfg.IP,
		Port:          cfg.Port,
		TransportMode: string(cfg.Transport()),
		Running:       running,
		Status:        string(st),
		Attempt:       attempt,
		ErrorCode:     errorCode,
	}
	if running && cmd.Process != nil {
		snap.PID = cmd.Process.Pid
	}
	return snap
}

// SetEnabled maps the host's single toggle onto start/stop and returns the
// resulting snapshot.
func (s *Supervisor) SetEnabled(enabled bool) (Snapshot, error) {
	var err error
	if enabled {
		err = s.Start()
	} else {
		err = s.Stop()
	}
	return s.Snapshot(), err
}
