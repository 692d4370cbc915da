package driven

import "context"

// TokenCounter counts model tokens in text.
type TokenCounter interface {
	// CountTokens returns the number of tokens in text.
	CountTokens(ctx context.Context, text string) (int, error)

	// Encoding returns the name of the encoding in use.
	Encoding() string
}
