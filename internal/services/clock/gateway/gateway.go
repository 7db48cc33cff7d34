// Package gateway is the boundary between the clock service and a chat
// platform integration. It defines the inbound command vocabulary and the
// outbound sender contract; it contains no chat client.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hostcarioca/timeclock/internal/services/clock/coordinator"
	"github.com/hostcarioca/timeclock/internal/services/clock/render"
)

// Command identifies one clock operation requested through the chat surface.
type Command string

const (
	CommandStartSession    Command = "start-session"
	CommandPause           Command = "pause"
	CommandResume          Command = "resume"
	CommandConfirmPresence Command = "confirm-presence"
	CommandFinalize        Command = "finalize"
	CommandQueryHistory    Command = "query-history"
)

// ErrUnknownCommand indicates an unrecognized command token.
var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand maps a wire token to a Command.
func ParseCommand(raw string) (Command, error) {
	switch Command(strings.ToLower(strings.TrimSpace(raw))) {
	case CommandStartSession:
		return CommandStartSession, nil
	case CommandPause:
		return CommandPause, nil
	case CommandResume:
		return CommandResume, nil
	case CommandConfirmPresence:
		return CommandConfirmPresence, nil
	case CommandFinalize:
		return CommandFinalize, nil
	case CommandQueryHistory:
		return CommandQueryHistory, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, raw)
	}
}

// Request carries one command invocation from the chat platform.
type Request struct {
	Command  Command
	CallerID string
	// OwnerID targets another identity's session. Empty defaults to the
	// caller.
	OwnerID string
	// DisplayRef names the chat message displaying the session, when the
	// integration has one.
	DisplayRef string
}

// Result carries a command outcome back to the integration.
type Result struct {
	// Summaries holds finalized segments for query-history requests.
	Summaries []coordinator.Summary
}

// Clock is the coordinator surface the dispatcher drives.
type Clock interface {
	StartSession(ctx context.Context, ownerID, displayRef string) error
	Pause(ctx context.Context, callerID, ownerID string) error
	Resume(ctx context.Context, callerID, ownerID string) error
	ConfirmPresence(ctx context.Context, callerID, ownerID string) error
	Finalize(ctx context.Context, callerID, ownerID string) error
	History(ctx context.Context, ownerID string) ([]coordinator.Summary, error)
}

// Sender delivers rendered clock output to the chat platform.
type Sender interface {
	SendText(ctx context.Context, target string, text string) error
	SendReport(ctx context.Context, target string, report render.Report) error
}

// Dispatcher routes chat commands to the clock coordinator.
type Dispatcher struct {
	clock Clock
}

// NewDispatcher builds a Dispatcher over the given coordinator surface.
func NewDispatcher(clock Clock) *Dispatcher {
	return &Dispatcher{clock: clock}
}

// Dispatch executes one command. The target session defaults to the
// caller's own; starting a session always opens the caller's.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	caller := strings.TrimSpace(req.CallerID)
	owner := strings.TrimSpace(req.OwnerID)
	if owner == "" {
		owner = caller
	}
	switch req.Command {
	case CommandStartSession:
		return Result{}, d.clock.StartSession(ctx, caller, req.DisplayRef)
	case CommandPause:
		return Result{}, d.clock.Pause(ctx, caller, owner)
	case CommandResume:
		return Result{}, d.clock.Resume(ctx, caller, owner)
	case CommandConfirmPresence:
		return Result{}, d.clock.ConfirmPresence(ctx, caller, owner)
	case CommandFinalize:
		return Result{}, d.clock.Finalize(ctx, caller, owner)
	case CommandQueryHistory:
		summaries, err := d.clock.History(ctx, owner)
		if err != nil {
			return Result{}, err
		}
		return Result{Summaries: summaries}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, req.Command)
	}
}
