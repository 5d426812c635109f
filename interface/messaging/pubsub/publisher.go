package pubsub

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/pubsub"
	"github.com/airbusgeo/s2-exporter/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Publisher publishes messages to a Google Pub/Sub topic
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPublisher creates a publisher on an existing topic.
// If PUBSUB_EMULATOR_HOST is set, the emulator is used.
func NewPublisher(ctx context.Context, project, topic string) (*Publisher, error) {
	if project == "" || topic == "" {
		return nil, fmt.Errorf("NewPublisher: project and topic are required")
	}
	client, err := pubsub.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("NewPublisher.NewClient: %w", err)
	}
	t := client.Topic(topic)
	if os.Getenv("PUBSUB_EMULATOR_HOST") == "" {
		exists, err := t.Exists(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("NewPublisher.Exists: %w", err)
		}
		if !exists {
			client.Close()
			return nil, fmt.Errorf("NewPublisher: topic %s does not exist in project %s", topic, project)
		}
	}
	return &Publisher{client: client, topic: t}, nil
}

// Publish implements messaging.Publisher
func (p *Publisher) Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error) {
	id, err := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes}).Get(ctx)
	if err != nil {
		switch status.Code(err) {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
			err = service.MakeTemporary(err)
		}
		return "", fmt.Errorf("Publish: %w", err)
	}
	return id, nil
}

// Close flushes the pending messages and closes the client
func (p *Publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
