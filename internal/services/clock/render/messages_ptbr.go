package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.MustParse("pt-BR")
	message.SetString(lang, "clock.reminder.0", "🔔 %s, estamos esperando sua confirmação de presença.")
	message.SetString(lang, "clock.reminder.1", "👀 %s, você ainda está aí? Confirme sua presença.")
	message.SetString(lang, "clock.reminder.2", "⏰ %s, sua sessão precisa de uma confirmação de presença.")
	message.SetString(lang, "clock.reminder.3", "📢 %s, confirme sua presença para manter a sessão aberta.")
	message.SetString(lang, "clock.reminder.4", "🚨 %s, ainda sem confirmação. Você está por aí?")
	message.SetString(lang, "clock.reminder.5", "✅ %s, reaja para confirmar que ainda está trabalhando.")
	message.SetString(lang, "clock.reminder.grace", "Você tem %d minutos para confirmar, ou a sessão será encerrada automaticamente.")
	message.SetString(lang, "clock.start.instruction", "▶️ %s bateu o ponto. Reaja às checagens de presença para manter a sessão aberta.")
	message.SetString(lang, "clock.timeout.notice", "⛔ %s não confirmou presença a tempo. A sessão foi encerrada automaticamente.")
	message.SetString(lang, "clock.display_removed.notice", "🗑️ A mensagem do ponto de %s foi removida. A sessão foi encerrada automaticamente.")
	message.SetString(lang, "clock.report.title", "📋 Relatório da sessão de %s")
	message.SetString(lang, "clock.report.entry", "• %s: %s")
	message.SetString(lang, "clock.report.total", "Tempo total: %s")
	message.SetString(lang, "clock.report.duration", "%dh %dmin")
	message.SetString(lang, "clock.report.incomplete", "Não finalizado.")
	message.SetString(lang, "clock.time_layout", "02/01/2006 às 15:04")
	message.SetString(lang, "clock.action.start", "Início")
	message.SetString(lang, "clock.action.pause", "Pausa")
	message.SetString(lang, "clock.action.resume", "Retorno")
	message.SetString(lang, "clock.action.finalize", "Fim")
}
