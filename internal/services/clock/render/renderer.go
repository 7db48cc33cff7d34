// Package render produces localized chat copy for clock notifications and
// closure reports.
package render

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hostcarioca/timeclock/internal/services/clock/domain"
)

// ReminderVariants is the number of rotating presence reminder messages.
const ReminderVariants = 6

const (
	defaultTimeLayout    = "02/01/2006 at 15:04"
	defaultIncompleteMsg = "Not finalized."
)

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Printer returns a Localizer for the given BCP 47 locale tag. Unknown tags
// fall back to English.
func Printer(locale string) Localizer {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

// Report is one closure report: the owner, the session's action history, and
// the computed active duration.
type Report struct {
	OwnerID  string
	History  []domain.Action
	Duration time.Duration
	Complete bool
}

// Reminder returns one presence reminder variant with the grace-period line
// appended. pick selects the variant; any value is reduced modulo the variant
// count.
func Reminder(loc Localizer, ownerRef string, pick int, grace time.Duration) string {
	if pick < 0 {
		pick = -pick
	}
	key := fmt.Sprintf("clock.reminder.%d", pick%ReminderVariants)
	body := loc.Sprintf(key, ownerRef)
	return body + "\n" + graceLine(loc, grace)
}

// StartInstruction returns the message sent when a session opens, telling the
// owner to keep confirming presence.
func StartInstruction(loc Localizer, ownerRef string, grace time.Duration) string {
	return loc.Sprintf("clock.start.instruction", ownerRef) + "\n" + graceLine(loc, grace)
}

// TimeoutNotice returns the message sent when a session is auto-closed after
// a missed presence confirmation.
func TimeoutNotice(loc Localizer, ownerRef string) string {
	return loc.Sprintf("clock.timeout.notice", ownerRef)
}

// DisplayRemovedNotice returns the message sent when a session is closed
// because its display message was deleted.
func DisplayRemovedNotice(loc Localizer, ownerRef string) string {
	return loc.Sprintf("clock.display_removed.notice", ownerRef)
}

// FormatReport renders one closure report: a title, one line per recorded
// action, and the computed total (or an incomplete marker).
func FormatReport(loc Localizer, report Report) string {
	var b strings.Builder
	b.WriteString(loc.Sprintf("clock.report.title", report.OwnerID))
	b.WriteString("\n")
	for _, action := range report.History {
		b.WriteString(loc.Sprintf("clock.report.entry", actionLabel(loc, action.Kind), formatTime(loc, action.At)))
		b.WriteString("\n")
	}
	b.WriteString(loc.Sprintf("clock.report.total", FormatTotal(loc, report.Duration, report.Complete)))
	return b.String()
}

// FormatTotal renders an active duration as hours and minutes. Incomplete
// sessions render as a fixed marker; negative values are clamped to zero for
// display only.
func FormatTotal(loc Localizer, total time.Duration, complete bool) string {
	if !complete {
		return localizeWithFallback(loc, "clock.report.incomplete", defaultIncompleteMsg)
	}
	if total < 0 {
		total = 0
	}
	minutes := int(total.Minutes())
	return loc.Sprintf("clock.report.duration", minutes/60, minutes%60)
}

func graceLine(loc Localizer, grace time.Duration) string {
	minutes := int(grace.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return loc.Sprintf("clock.reminder.grace", minutes)
}

func formatTime(loc Localizer, at time.Time) string {
	layout := localizeWithFallback(loc, "clock.time_layout", defaultTimeLayout)
	return at.Format(layout)
}

func actionLabel(loc Localizer, kind domain.ActionKind) string {
	key := "clock.action." + string(kind)
	return localizeWithFallback(loc, key, string(kind))
}

func localizeWithFallback(loc Localizer, key string, fallback string) string {
	value := strings.TrimSpace(loc.Sprintf(key))
	if value == "" || value == key {
		return fallback
	}
	return value
}
