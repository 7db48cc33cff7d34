package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hostcarioca/timeclock/internal/services/clock/coordinator"
)

type call struct {
	op      string
	caller  string
	owner   string
	display string
}

type fakeClock struct {
	calls     []call
	summaries []coordinator.Summary
	err       error
}

func (f *fakeClock) StartSession(ctx context.Context, ownerID, displayRef string) error {
	f.calls = append(f.calls, call{op: "start", owner: ownerID, display: displayRef})
	return f.err
}

func (f *fakeClock) Pause(ctx context.Context, callerID, ownerID string) error {
	f.calls = append(f.calls, call{op: "pause", caller: callerID, owner: ownerID})
	return f.err
}

func (f *fakeClock) Resume(ctx context.Context, callerID, ownerID string) error {
	f.calls = append(f.calls, call{op: "resume", caller: callerID, owner: ownerID})
	return f.err
}

func (f *fakeClock) ConfirmPresence(ctx context.Context, callerID, ownerID string) error {
	f.calls = append(f.calls, call{op: "confirm", caller: callerID, owner: ownerID})
	return f.err
}

func (f *fakeClock) Finalize(ctx context.Context, callerID, ownerID string) error {
	f.calls = append(f.calls, call{op: "finalize", caller: callerID, owner: ownerID})
	return f.err
}

func (f *fakeClock) History(ctx context.Context, ownerID string) ([]coordinator.Summary, error) {
	f.calls = append(f.calls, call{op: "history", owner: ownerID})
	return f.summaries, f.err
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"pause", " Pause ", "PAUSE"} {
		cmd, err := ParseCommand(raw)
		if err != nil {
			t.Fatalf("ParseCommand(%q) error = %v", raw, err)
		}
		if cmd != CommandPause {
			t.Fatalf("ParseCommand(%q) = %s, want %s", raw, cmd, CommandPause)
		}
	}

	if _, err := ParseCommand("clock-out"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("ParseCommand(unknown) error = %v, want ErrUnknownCommand", err)
	}
}

func TestDispatchDefaultsTargetToCaller(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	d := NewDispatcher(clock)

	if _, err := d.Dispatch(context.Background(), Request{Command: CommandPause, CallerID: " user-1 "}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(clock.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(clock.calls))
	}
	got := clock.calls[0]
	if got.caller != "user-1" || got.owner != "user-1" {
		t.Fatalf("pause routed as %+v, want caller and owner user-1", got)
	}
}

func TestDispatchTargetsOtherOwner(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	d := NewDispatcher(clock)

	req := Request{Command: CommandFinalize, CallerID: "role-supervisor", OwnerID: "user-1"}
	if _, err := d.Dispatch(context.Background(), req); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	got := clock.calls[0]
	if got.caller != "role-supervisor" || got.owner != "user-1" {
		t.Fatalf("finalize routed as %+v", got)
	}
}

func TestDispatchStartOpensCallerSession(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	d := NewDispatcher(clock)

	req := Request{Command: CommandStartSession, CallerID: "user-1", OwnerID: "user-2", DisplayRef: "msg-1"}
	if _, err := d.Dispatch(context.Background(), req); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	got := clock.calls[0]
	if got.owner != "user-1" || got.display != "msg-1" {
		t.Fatalf("start routed as %+v, want caller's own session", got)
	}
}

func TestDispatchHistoryReturnsSummaries(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{summaries: []coordinator.Summary{{Duration: 25 * time.Minute, Complete: true}}}
	d := NewDispatcher(clock)

	result, err := d.Dispatch(context.Background(), Request{Command: CommandQueryHistory, CallerID: "user-1"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(result.Summaries) != 1 || result.Summaries[0].Duration != 25*time.Minute {
		t.Fatalf("result = %+v, want the coordinator's summaries", result)
	}
}

func TestDispatchPropagatesErrors(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{err: coordinator.ErrNoActiveSession}
	d := NewDispatcher(clock)

	if _, err := d.Dispatch(context.Background(), Request{Command: CommandResume, CallerID: "user-1"}); !errors.Is(err, coordinator.ErrNoActiveSession) {
		t.Fatalf("Dispatch() error = %v, want ErrNoActiveSession", err)
	}

	if _, err := d.Dispatch(context.Background(), Request{Command: "noop", CallerID: "user-1"}); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("Dispatch() error = %v, want ErrUnknownCommand", err)
	}
}
