package status

import (
	"regexp"
	"strconv"
	"strings"
)

// Transition is the status change implied by a single line of worker output.
type Transition struct {
	State   State
	Attempt int // meaningful only for StateWaiting
}

var timedOutPattern = regexp.MustCompile(`(?i)timed out waiting for data from server(?:; attempt (\d+))?`)

// Classify maps one line of worker output to a status transition. Rules are
// evaluated in order, first match wins; most lines match nothing and are only
// logged by the caller. nextAttempt supplies the attempt number for retry
// signals that do not carry their own.
func Classify(line string, nextAttempt func() int) (Transition, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Transition{}, false
	}

	if strings.EqualFold(line, "connected") {
		return Transition{State: StateConnected}, true
	}

	if m := timedOutPattern.FindStringSubmatch(line); m != nil {
		if m[1] != "" {
			if attempt, err := strconv.Atoi(m[1]); err == nil {
				return Transition{State: StateWaiting, Attempt: attempt}, true
			}
		}
		return Transition{State: StateWaiting, Attempt: nextAttempt()}, true
	}

	lower := strings.ToLower(line)
	if strings.Contains(lower, "connection reset") || strings.Contains(lower, "connection closed") {
		return Transition{State: StateWaiting, Attempt: nextAttempt()}, true
	}

	return Transition{}, false
}
