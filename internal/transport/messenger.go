package transport

import "context"

// Choice is one selectable option in a conversational prompt. ID is what a
// reply must match; Label is what the recipient sees.
type Choice struct {
	ID    string
	Label string
}

// Messenger is the outbound half of the chat transport. The inbound half is
// the webhook controller feeding the chat router.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendChoices(ctx context.Context, to, body string, choices []Choice) error
}
