package domain

import (
	"fmt"
	"strings"
	"time"
)

// ActionKind names one recorded clock event.
type ActionKind string

const (
	// ActionStart opens a clock session.
	ActionStart ActionKind = "start"
	// ActionPause suspends time accrual.
	ActionPause ActionKind = "pause"
	// ActionResume restarts time accrual after a pause.
	ActionResume ActionKind = "resume"
	// ActionFinalize closes a clock session. Terminal.
	ActionFinalize ActionKind = "finalize"
)

// Action is one immutable clock event. Actions are appended in occurrence
// order and never edited.
type Action struct {
	Kind ActionKind
	At   time.Time
}

// ParseActionKind maps a stored token to an ActionKind.
func ParseActionKind(raw string) (ActionKind, error) {
	switch ActionKind(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionStart:
		return ActionStart, nil
	case ActionPause:
		return ActionPause, nil
	case ActionResume:
		return ActionResume, nil
	case ActionFinalize:
		return ActionFinalize, nil
	default:
		return "", fmt.Errorf("unknown action kind %q", raw)
	}
}
