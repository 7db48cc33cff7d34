package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English
	message.SetString(lang, "clock.reminder.0", "🔔 %s, we are waiting for your presence confirmation.")
	message.SetString(lang, "clock.reminder.1", "👀 %s, are you still there? Confirm your presence.")
	message.SetString(lang, "clock.reminder.2", "⏰ %s, your session needs a presence confirmation.")
	message.SetString(lang, "clock.reminder.3", "📢 %s, confirm your presence to keep the session open.")
	message.SetString(lang, "clock.reminder.4", "🚨 %s, no confirmation yet. Are you around?")
	message.SetString(lang, "clock.reminder.5", "✅ %s, react to confirm you are still working.")
	message.SetString(lang, "clock.reminder.grace", "You have %d minutes to confirm, or the session will be closed automatically.")
	message.SetString(lang, "clock.start.instruction", "▶️ %s clocked in. React to the presence checks to keep the session open.")
	message.SetString(lang, "clock.timeout.notice", "⛔ %s did not confirm presence in time. The session was closed automatically.")
	message.SetString(lang, "clock.display_removed.notice", "🗑️ The clock message for %s was removed. The session was closed automatically.")
	message.SetString(lang, "clock.report.title", "📋 Session report for %s")
	message.SetString(lang, "clock.report.entry", "• %s: %s")
	message.SetString(lang, "clock.report.total", "Total time: %s")
	message.SetString(lang, "clock.report.duration", "%dh %dmin")
	message.SetString(lang, "clock.report.incomplete", "Not finalized.")
	message.SetString(lang, "clock.time_layout", "02/01/2006 at 15:04")
	message.SetString(lang, "clock.action.start", "Start")
	message.SetString(lang, "clock.action.pause", "Pause")
	message.SetString(lang, "clock.action.resume", "Resume")
	message.SetString(lang, "clock.action.finalize", "Finish")
}
