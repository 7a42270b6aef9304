package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"rentilia/internal/app/policies"
)

// Publisher is satisfied by the Kafka producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, headers map[string]string, payload []byte) error
}

// KafkaNotifier hands notifications to the notification topic; a downstream
// consumer turns them into emails or push messages.
type KafkaNotifier struct {
	publisher Publisher
	topic     string
}

func NewKafkaNotifier(publisher Publisher, topic string) *KafkaNotifier {
	return &KafkaNotifier{publisher: publisher, topic: topic}
}

type notificationMessage struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	CreatedAt   string `json:"created_at"`
}

func (n *KafkaNotifier) Send(ctx context.Context, msg policies.Notification) error {
	payload, err := json.Marshal(notificationMessage{
		ID:          uuid.NewString(),
		RecipientID: msg.RecipientID,
		Subject:     msg.Subject,
		Body:        msg.Body,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	return n.publisher.Publish(ctx, n.topic, msg.RecipientID, nil, payload)
}
