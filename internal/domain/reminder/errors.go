package reminder

import "errors"

// Delivery failure kinds reported by the chat transport.
var (
	// ErrRecipientUnavailable means the user blocked the bot or the account is gone.
	ErrRecipientUnavailable = errors.New("reminder recipient unavailable")
	// ErrBadRequest means the transport rejected the message itself.
	ErrBadRequest = errors.New("reminder rejected by transport")
)
