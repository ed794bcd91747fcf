package telegram

import (
	"context"

	"gopkg.in/telebot.v3"
)

// Client defines an interface for sending messages via a Telegram bot.
// This helps in decoupling the application logic from the specific bot library.
//
// Implementations map delivery failures onto reminder.ErrRecipientUnavailable
// and reminder.ErrBadRequest so callers can branch with errors.Is.
type Client interface {
	SendMessage(ctx context.Context, recipientChatID int64, text string, options *telebot.SendOptions) error
}
