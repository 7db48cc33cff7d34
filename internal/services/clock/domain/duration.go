package domain

import (
	"fmt"
	"time"
)

// ComputeActiveDuration scans one history segment and returns the active
// working time: finalize minus start, minus every paired pause/resume span.
// The result is truncated to whole minutes.
//
// The boolean reports completeness: when the segment has no start or no
// finalize yet, the duration is not computable and (0, false, nil) is
// returned. Impossible orderings (a second start, a resume with no prior
// pause, a finalize that is not last, a negative total) yield
// ErrInconsistentHistory.
//
// The function is pure and safe for concurrent use.
func ComputeActiveDuration(history []Action) (time.Duration, bool, error) {
	var start, end time.Time
	var haveStart, haveEnd bool
	var pauses, resumes []time.Time

	for _, action := range history {
		if haveEnd {
			return 0, false, fmt.Errorf("%w: action %q after finalize", ErrInconsistentHistory, action.Kind)
		}
		switch action.Kind {
		case ActionStart:
			if haveStart {
				return 0, false, fmt.Errorf("%w: second start without finalize", ErrInconsistentHistory)
			}
			start = action.At
			haveStart = true
		case ActionPause:
			pauses = append(pauses, action.At)
		case ActionResume:
			if len(resumes) >= len(pauses) {
				return 0, false, fmt.Errorf("%w: resume without matching pause", ErrInconsistentHistory)
			}
			resumes = append(resumes, action.At)
		case ActionFinalize:
			end = action.At
			haveEnd = true
		default:
			return 0, false, fmt.Errorf("%w: unknown action kind %q", ErrInconsistentHistory, action.Kind)
		}
	}

	if !haveStart || !haveEnd {
		return 0, false, nil
	}

	total := end.Sub(start)
	// The i-th pause pairs with the i-th resume. A trailing pause with no
	// resume is ignored: sessions finalized while paused keep the final
	// paused stretch out of the pairing.
	for i := range resumes {
		total -= resumes[i].Sub(pauses[i])
	}
	if total < 0 {
		return 0, false, fmt.Errorf("%w: negative active duration", ErrInconsistentHistory)
	}
	return total.Truncate(time.Minute), true, nil
}

// FinalizedSegments splits a multi-session history into contiguous
// start-through-finalize blocks. A trailing block with no finalize is
// dropped.
func FinalizedSegments(history []Action) [][]Action {
	var segments [][]Action
	var current []Action
	for _, action := range history {
		current = append(current, action)
		if action.Kind == ActionFinalize {
			segments = append(segments, current)
			current = nil
		}
	}
	return segments
}
