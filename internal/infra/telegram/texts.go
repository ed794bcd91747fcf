package telegram

import (
	"fmt"
	"strings"

	"mental_math_bot/internal/app"
	"mental_math_bot/internal/domain/reminder"
)

const (
	textWelcome = "👋 Привет, %s!\n\n" +
		"Я помогу натренировать устный счёт: таблицу умножения и деление.\n" +
		"Буду напоминать о тренировках, расписание можно поменять в настройках."
	textWelcomeFallbackName = "друг"
	textMainMenu            = "📋 *Главное меню*\n\nВыбери действие:"
	textHelp                = "*Команды*\n\n" +
		"/start - Главное меню\n" +
		"/settings - Настройка уведомлений\n" +
		"/notifications - Текущие напоминания\n" +
		"/help - Эта справка"

	textSettingsNotifications = "⚙️ *Настройка уведомлений*\n\nВыбери, когда присылать напоминания о тренировке:"
	textNotificationsSet      = "✅ Уведомления настроены: %s\n\nВремя: %s"
	textNotificationsDisabled = "❌ Уведомления отключены"
	textDegradedNote          = "\n\n⚠️ Настройки сохранены, но напоминания начнут приходить чуть позже."
	textCurrentNotifications  = "✅ *Текущие настройки*\n\nРежим: %s\nВремя: %s\nСтатус: %s\nАктивных напоминаний: %d"
	textCurrentNoTimes        = "не задано"
	textStatusEnabled         = "включены"
	textStatusDisabled        = "выключены"

	textCustomTimePrompt = "🕒 *Своё время*\n\n" +
		"Отправь одно или несколько значений времени через запятую, например:\n" +
		"`07:30, 13:00, 21:15`"
	textCustomTimeInvalid   = "⚠️ Не получилось распознать время. Используй формат ЧЧ:ММ, например `08:00, 20:30`."
	textCustomTimeCancelled = "Настройка своего времени отменена."

	textNotificationError = "⚠️ *Не удалось настроить уведомления.* Попробуй позже."
	textGenericError      = "Произошла ошибка. Пожалуйста, попробуйте позже."

	btnSettings      = "⚙️ Настройка уведомлений"
	btnMyReminders   = "🔔 Мои напоминания"
	btnBackToMenu    = "⬅️ В меню"
	btnCancel        = "✖️ Отмена"
	callbackAnswerOK = "Готово"
)

// presetLabel is the button and confirmation name of a preset.
func presetLabel(p reminder.Preset) string {
	switch p {
	case reminder.PresetMorning:
		return "☀️ Утро"
	case reminder.PresetLunch:
		return "🍽️ Обед"
	case reminder.PresetEvening:
		return "🌙 Вечер"
	case reminder.PresetThreeTimes:
		return "3️⃣ Три раза в день"
	case reminder.PresetCustom:
		return "🕒 Своё время"
	case reminder.PresetDisabled:
		return "❌ Отключено"
	default:
		return string(p)
	}
}

// confirmationText renders the outcome of a preference update.
func confirmationText(r *app.PreferenceResult) string {
	var b strings.Builder
	if !r.Preset.Enabled() {
		b.WriteString(textNotificationsDisabled)
	} else {
		b.WriteString(fmt.Sprintf(textNotificationsSet, presetLabel(r.Preset), reminder.FormatTimes(r.Times)))
	}
	if r.Degraded {
		b.WriteString(textDegradedNote)
	}
	return b.String()
}

// settingsText renders /notifications.
func settingsText(s *app.Settings) string {
	times := textCurrentNoTimes
	if len(s.Times) > 0 {
		times = reminder.FormatTimes(s.Times)
	}
	status := textStatusDisabled
	if s.Enabled {
		status = textStatusEnabled
	}
	return fmt.Sprintf(textCurrentNotifications, presetLabel(s.Preset), times, status, len(s.ActiveJobs))
}
