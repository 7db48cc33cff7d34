package app

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/hostcarioca/timeclock/internal/services/clock/coordinator"
	"github.com/hostcarioca/timeclock/internal/services/clock/gateway"
	"github.com/hostcarioca/timeclock/internal/services/clock/render"
)

// notifier adapts coordinator lifecycle notifications onto the chat sender.
type notifier struct {
	sender              gateway.Sender
	loc                 render.Localizer
	historyChannelID    string
	overrideAuthorityID string
	// pick selects a reminder variant; swapped out in tests.
	pick func(n int) int
}

func newNotifier(sender gateway.Sender, locale, historyChannelID, overrideAuthorityID string) *notifier {
	return &notifier{
		sender:              sender,
		loc:                 render.Printer(locale),
		historyChannelID:    strings.TrimSpace(historyChannelID),
		overrideAuthorityID: strings.TrimSpace(overrideAuthorityID),
		pick:                rand.IntN,
	}
}

func (n *notifier) SessionStarted(ctx context.Context, ownerID string, grace time.Duration) error {
	return n.sender.SendText(ctx, ownerID, render.StartInstruction(n.loc, ownerID, grace))
}

func (n *notifier) PresenceReminder(ctx context.Context, ownerID string, grace time.Duration) error {
	text := render.Reminder(n.loc, ownerID, n.pick(render.ReminderVariants), grace)
	return n.sender.SendText(ctx, ownerID, text)
}

// SessionClosed fans the closure out: automatic closures notify the owner and
// the override authority, and every closure delivers its report to the
// history channel (or back to the owner when none is configured).
func (n *notifier) SessionClosed(ctx context.Context, closure coordinator.Closure) error {
	var errs []error
	switch closure.Cause {
	case coordinator.CauseTimeout:
		errs = append(errs, n.broadcast(ctx, closure.OwnerID, render.TimeoutNotice(n.loc, closure.OwnerID))...)
	case coordinator.CauseDisplayRemoved:
		errs = append(errs, n.broadcast(ctx, closure.OwnerID, render.DisplayRemovedNotice(n.loc, closure.OwnerID))...)
	}

	target := n.historyChannelID
	if target == "" {
		target = closure.OwnerID
	}
	report := render.Report{
		OwnerID:  closure.OwnerID,
		History:  closure.History,
		Duration: closure.Duration,
		Complete: closure.Complete,
	}
	if err := n.sender.SendReport(ctx, target, report); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (n *notifier) broadcast(ctx context.Context, ownerID, text string) []error {
	var errs []error
	if err := n.sender.SendText(ctx, ownerID, text); err != nil {
		errs = append(errs, err)
	}
	if n.overrideAuthorityID != "" && n.overrideAuthorityID != ownerID {
		if err := n.sender.SendText(ctx, n.overrideAuthorityID, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// logSender is the default outbound channel when no chat integration is
// attached: deliveries are written to the service log.
type logSender struct {
	loc render.Localizer
}

func newLogSender(locale string) logSender {
	return logSender{loc: render.Printer(locale)}
}

func (s logSender) SendText(ctx context.Context, target, text string) error {
	log.Printf("msg=%q target=%s text=%q", "outbound text", target, text)
	return nil
}

func (s logSender) SendReport(ctx context.Context, target string, report render.Report) error {
	log.Printf("msg=%q target=%s report=%q", "outbound report", target, render.FormatReport(s.loc, report))
	return nil
}
