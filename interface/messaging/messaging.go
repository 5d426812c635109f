package messaging

import "context"

// Publisher publishes messages to a topic
type Publisher interface {
	// Publish returns the id of the message once the server has acknowledged it
	Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error)
}
