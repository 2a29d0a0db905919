package assistant

import (
	"context"
	"log"
)

// Client asks the configured provider and masks any failure behind the
// canned fallback, so Ask never returns an error to the caller.
type Client struct {
	primary  Provider
	fallback Provider
	remote   *RemoteProvider // health probe target
}

func NewClient(primary Provider, remote *RemoteProvider) *Client {
	return &Client{primary: primary, fallback: NewCannedProvider(), remote: remote}
}

// Ask returns the answer and whether it came from the local fallback.
func (c *Client) Ask(ctx context.Context, question string) (string, bool) {
	answer, err := c.primary.Ask(ctx, question)
	if err == nil {
		return answer, false
	}
	log.Printf("[Assistant] ask failed, using fallback: %v", err)

	answer, _ = c.fallback.Ask(ctx, question)
	return answer, true
}

func (c *Client) HealthCheck(ctx context.Context) error {
	return c.remote.HealthCheck(ctx)
}
