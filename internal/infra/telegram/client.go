// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"mental_math_bot/internal/domain/reminder"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified recipient.
// Failures are mapped onto reminder.ErrRecipientUnavailable and reminder.ErrBadRequest where possible.
func (tba *TelebotAdapter) SendMessage(ctx context.Context, recipientChatID int64, text string, options *telebot.SendOptions) error {
	// telebot has no context support; at least do not start a send that is already cancelled.
	if err := ctx.Err(); err != nil {
		return err
	}
	if options == nil {
		options = &telebot.SendOptions{}
	}

	recipient := &telebot.User{ID: recipientChatID} // Reminders go to private chats, chat ID == user ID
	_, err := tba.bot.Send(recipient, text, options)
	return classifySendError(err)
}

// classifySendError wraps telebot errors with the delivery failure kind.
func classifySendError(err error) error {
	if err == nil {
		return nil
	}

	var tbErr *telebot.Error
	if errors.As(err, &tbErr) {
		switch tbErr.Code {
		case http.StatusForbidden: // blocked, deactivated, kicked
			return fmt.Errorf("%w: %v", reminder.ErrRecipientUnavailable, err)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %v", reminder.ErrBadRequest, err)
		}
	}

	// Descriptions telebot does not know come back as "telegram: <description> (<code>)".
	msg := err.Error()
	switch {
	case strings.HasSuffix(msg, "(403)"):
		return fmt.Errorf("%w: %v", reminder.ErrRecipientUnavailable, err)
	case strings.HasSuffix(msg, "(400)"):
		return fmt.Errorf("%w: %v", reminder.ErrBadRequest, err)
	}
	return err
}
