package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func staticAttempt(n int) func() int {
	return func() int { return n }
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		nextAttempt int
		wantMatch   bool
		want        Transition
	}{
		{
			name:      "connected lowercase",
			line:      "connected",
			wantMatch: true,
			want:      Transition{State: StateConnected},
		},
		{
			name:      "connected mixed case with whitespace",
			line:      "  Connected  ",
			wantMatch: true,
			want:      Transition{State: StateConnected},
		},
		{
			name:      "connected embedded in longer line is not a match",
			line:      "not yet connected",
			wantMatch: false,
		},
		{
			name:      "timeout with explicit attempt",
			line:      "Timed out waiting for data from server; attempt 4",
			wantMatch: true,
			want:      Transition{State: StateWaiting, Attempt: 4},
		},
		{
			name:        "timeout without attempt uses counter",
			line:        "timed out waiting for data from server",
			nextAttempt: 7,
			wantMatch:   true,
			want:        Transition{State: StateWaiting, Attempt: 7},
		},
		{
			name:      "timeout with log prefix",
			line:      "[warn] Timed out waiting for data from server; attempt 12",
			wantMatch: true,
			want:      Transition{State: StateWaiting, Attempt: 12},
		},
		{
			name:        "connection reset",
			line:        "read: Connection reset by peer",
			nextAttempt: 2,
			wantMatch:   true,
			want:        Transition{State: StateWaiting, Attempt: 2},
		},
		{
			name:        "connection closed",
			line:        "stream error: connection closed",
			nextAttempt: 3,
			wantMatch:   true,
			want:        Transition{State: StateWaiting, Attempt: 3},
		},
		{
			name:      "blank line",
			line:      "   ",
			wantMatch: false,
		},
		{
			name:      "unrelated output",
			line:      "initializing pipewire capture stream",
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.line, staticAttempt(tt.nextAttempt))
			assert.Equal(t, tt.wantMatch, ok)
			if tt.wantMatch {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClassifyAutoIncrementAgainstModel(t *testing.T) {
	// The retry counter must keep increasing across a session even when the
	// worker alternates between numbered and unnumbered signals.
	m := NewModel()
	m.SetWaiting(1)

	lines := []string{
		"Timed out waiting for data from server; attempt 2",
		"connection reset by peer",
		"timed out waiting for data from server",
	}
	wantAttempts := []int{2, 3, 4}

	for i, line := range lines {
		tr, ok := Classify(line, m.NextWaitingAttempt)
		assert.True(t, ok, "line %d should classify", i)
		assert.Equal(t, StateWaiting, tr.State)
		assert.Equal(t, wantAttempts[i], tr.Attempt, "line %q", line)
		m.SetWaiting(tr.Attempt)
	}
}
