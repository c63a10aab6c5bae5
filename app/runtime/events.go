package runtime

import "context"

const BusyMessage = "The bot is busy right now. Please try again in a moment."

// Event is one incoming chat message. Handle produces the user-visible
// reply; its error, if any, is only recorded. Reply delivers the text back
// to the chat it came from.
type Event struct {
	Client string
	ChatID string
	Query  string
	Handle func(ctx context.Context, query string) (string, error)
	Reply  func(text string)
}
