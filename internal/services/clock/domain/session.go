package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// SessionState describes the lifecycle state of a clock session.
type SessionState int

const (
	// StateUnspecified represents an invalid session state value.
	StateUnspecified SessionState = iota
	// StatePausable indicates the session is accruing time and may be paused.
	StatePausable
	// StateResumable indicates the session is paused and may be resumed.
	StateResumable
	// StateFinalized indicates the session is closed. Terminal.
	StateFinalized
)

// String returns the storage token for the state.
func (s SessionState) String() string {
	switch s {
	case StatePausable:
		return "pausable"
	case StateResumable:
		return "resumable"
	case StateFinalized:
		return "finalized"
	default:
		return "unspecified"
	}
}

// ParseSessionState maps a stored token to a SessionState.
func ParseSessionState(raw string) SessionState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pausable":
		return StatePausable
	case "resumable":
		return StateResumable
	case "finalized":
		return StateFinalized
	default:
		return StateUnspecified
	}
}

// Open reports whether the session still accepts transitions.
func (s SessionState) Open() bool {
	return s == StatePausable || s == StateResumable
}

// Session is one tracked span of work time for one owner identity.
//
// Session values are immutable: transition methods return the successor value
// together with the action to persist, so callers can write durable state
// before replacing the in-memory record.
type Session struct {
	OwnerID           string
	History           []Action
	State             SessionState
	PresenceConfirmed bool
	StartedAt         time.Time
	UpdatedAt         time.Time
}

// TransitionInput carries the caller identity and wall-clock instant for one
// requested transition.
type TransitionInput struct {
	CallerID string
	// OverrideAuthorityID, when non-empty, names the identity allowed to
	// finalize sessions it does not own.
	OverrideAuthorityID string
	// Forced marks system-initiated finalization (presence timeout, display
	// removal); it bypasses the caller identity check.
	Forced bool
	At     time.Time
}

// StartSession opens a new session for ownerID with history seeded by one
// start action.
func StartSession(ownerID string, at time.Time) (Session, Action, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Session{}, Action{}, ErrOwnerIDRequired
	}
	start := Action{Kind: ActionStart, At: at.UTC()}
	return Session{
		OwnerID:   ownerID,
		History:   []Action{start},
		State:     StatePausable,
		StartedAt: start.At,
		UpdatedAt: start.At,
	}, start, nil
}

// Pause suspends time accrual. Only the owner may pause.
func (s Session) Pause(input TransitionInput) (Session, Action, error) {
	if s.State == StateFinalized {
		return s, Action{}, ErrAlreadyFinalized
	}
	if input.CallerID != s.OwnerID {
		return s, Action{}, ErrUnauthorized
	}
	if s.State != StatePausable {
		return s, Action{}, ErrInvalidTransition
	}
	return s.appended(Action{Kind: ActionPause, At: input.At.UTC()}, StateResumable), Action{Kind: ActionPause, At: input.At.UTC()}, nil
}

// Resume restarts time accrual after a pause. Only the owner may resume.
func (s Session) Resume(input TransitionInput) (Session, Action, error) {
	if s.State == StateFinalized {
		return s, Action{}, ErrAlreadyFinalized
	}
	if input.CallerID != s.OwnerID {
		return s, Action{}, ErrUnauthorized
	}
	if s.State != StateResumable {
		return s, Action{}, ErrInvalidTransition
	}
	return s.appended(Action{Kind: ActionResume, At: input.At.UTC()}, StatePausable), Action{Kind: ActionResume, At: input.At.UTC()}, nil
}

// ConfirmPresence records that the owner answered the presence challenge for
// the current watchdog cycle. Only the owner may confirm.
func (s Session) ConfirmPresence(callerID string) (Session, error) {
	if s.State == StateFinalized {
		return s, ErrAlreadyFinalized
	}
	if callerID != s.OwnerID {
		return s, ErrUnauthorized
	}
	s.PresenceConfirmed = true
	return s, nil
}

// ResetPresence clears the confirmation flag at the start of a watchdog cycle.
func (s Session) ResetPresence() Session {
	s.PresenceConfirmed = false
	return s
}

// Finalize closes the session. The owner, the override authority, and forced
// system paths may finalize; anyone else is rejected.
func (s Session) Finalize(input TransitionInput) (Session, Action, error) {
	if s.State == StateFinalized {
		return s, Action{}, ErrAlreadyFinalized
	}
	if !input.Forced && !s.allowedToFinalize(input.CallerID, input.OverrideAuthorityID) {
		return s, Action{}, ErrUnauthorized
	}
	action := Action{Kind: ActionFinalize, At: input.At.UTC()}
	return s.appended(action, StateFinalized), action, nil
}

// Replay rebuilds the session for ownerID from its trailing history segment.
// Earlier finalized segments are skipped; the walk rejects histories the state
// machine could not have produced.
func Replay(ownerID string, history []Action) (Session, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Session{}, ErrOwnerIDRequired
	}
	last := -1
	for i, action := range history {
		if action.Kind == ActionStart {
			last = i
		}
	}
	if last == -1 {
		return Session{}, fmt.Errorf("replay %s: no start action: %w", ownerID, ErrInconsistentHistory)
	}
	segment := history[last:]
	state := StatePausable
	for _, action := range segment[1:] {
		switch {
		case state == StateFinalized:
			return Session{}, fmt.Errorf("replay %s: action after finalize: %w", ownerID, ErrInconsistentHistory)
		case action.Kind == ActionPause && state == StatePausable:
			state = StateResumable
		case action.Kind == ActionResume && state == StateResumable:
			state = StatePausable
		case action.Kind == ActionFinalize:
			state = StateFinalized
		default:
			return Session{}, fmt.Errorf("replay %s: %s while %s: %w", ownerID, action.Kind, state, ErrInconsistentHistory)
		}
	}
	return Session{
		OwnerID:   ownerID,
		History:   slices.Clone(segment),
		State:     state,
		StartedAt: segment[0].At,
		UpdatedAt: segment[len(segment)-1].At,
	}, nil
}

func (s Session) allowedToFinalize(callerID, overrideAuthorityID string) bool {
	if callerID == s.OwnerID {
		return true
	}
	return overrideAuthorityID != "" && callerID == overrideAuthorityID
}

func (s Session) appended(action Action, next SessionState) Session {
	history := slices.Clone(s.History)
	s.History = append(history, action)
	s.State = next
	s.UpdatedAt = action.At
	return s
}
