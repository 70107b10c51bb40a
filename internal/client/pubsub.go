package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/windfall/spellcheck_service/internal/errors"
)

// PubSubClient publishes assessment events to a Google Cloud Pub/Sub topic.
type PubSubClient struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubClient creates a publisher for topicID in projectID.
func NewPubSubClient(ctx context.Context, projectID, topicID string) (*PubSubClient, error) {
	if projectID == "" || topicID == "" {
		return nil, errors.Configuration("pubsub project and topic are required")
	}

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, "failed to create pubsub client", err)
	}

	// One event per assessment; send each without waiting for a batch.
	topic := client.Topic(topicID)
	topic.PublishSettings.CountThreshold = 1
	topic.PublishSettings.DelayThreshold = 10 * time.Millisecond

	return &PubSubClient{client: client, topic: topic}, nil
}

// Close flushes pending messages and closes the client.
func (c *PubSubClient) Close() {
	c.topic.Stop()
	_ = c.client.Close()
}

// Publish sends data as JSON and waits for the server ack. The event type
// travels as the "type" attribute so subscribers can filter on it.
func (c *PubSubClient) Publish(ctx context.Context, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}

	result := c.topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type":         eventType,
			"content_type": "application/json",
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}
