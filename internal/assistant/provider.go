package assistant

import "context"

// Provider answers a single maternity-support question.
type Provider interface {
	Ask(ctx context.Context, question string) (string, error)
}
