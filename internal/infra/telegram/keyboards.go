package telegram

import (
	"mental_math_bot/internal/domain/reminder"

	"gopkg.in/telebot.v3"
)

// Callback uniques. Preset buttons carry the preset value as callback data.
const (
	uniqueSettings     = "settings_notifications"
	uniqueMyReminders  = "show_notifications"
	uniqueNotifyPreset = "notify_preset"
	uniqueCancelCustom = "cancel_custom_time"
	uniqueBackToMenu   = "back_to_menu"
)

func mainMenuKeyboard() *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data(btnSettings, uniqueSettings)),
		m.Row(m.Data(btnMyReminders, uniqueMyReminders)),
	)
	return m
}

func presetKeyboard() *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(reminder.AllPresets)+1)
	for _, p := range reminder.AllPresets {
		rows = append(rows, m.Row(m.Data(presetLabel(p), uniqueNotifyPreset, string(p))))
	}
	rows = append(rows, m.Row(m.Data(btnBackToMenu, uniqueBackToMenu)))
	m.Inline(rows...)
	return m
}

func cancelCustomKeyboard() *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(m.Row(m.Data(btnCancel, uniqueCancelCustom)))
	return m
}

func backToMenuKeyboard() *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(m.Row(m.Data(btnBackToMenu, uniqueBackToMenu)))
	return m
}

// endpoint is the handler key for an inline button unique.
func endpoint(unique string) *telebot.Btn {
	return &telebot.Btn{Unique: unique}
}
