package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"

	"fulqrun/backend/internal/connector/repository"
	"fulqrun/backend/internal/event"
)

// Consumer reads domain events from Kafka and fans them out to each enabled
// connector of the event's org.
type Consumer struct {
	reader     *kafka.Reader
	connectors repository.Repository
	dispatcher *Dispatcher
}

// NewConsumer returns nil when brokers or topic are empty, mirroring the
// publisher's disabled mode.
func NewConsumer(brokers []string, topic, groupID string, connectors repository.Repository, dispatcher *Dispatcher) *Consumer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &Consumer{reader: reader, connectors: connectors, dispatcher: dispatcher}
}

// Run consumes until ctx is cancelled. Dispatch failures are logged, never
// retried; the connector endpoint is not part of our availability story.
func (c *Consumer) Run(ctx context.Context) {
	if c == nil {
		return
	}
	log.Printf("connector dispatch: consumer started")
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Printf("connector dispatch: consumer stopped")
				return
			}
			log.Printf("connector dispatch: read: %v", err)
			continue
		}
		var e event.Event
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			log.Printf("connector dispatch: bad event payload: %v", err)
			continue
		}
		c.fanout(ctx, &e)
	}
}

func (c *Consumer) fanout(ctx context.Context, e *event.Event) {
	if e.OrgID == "" {
		return
	}
	conns, err := c.connectors.ListEnabledByOrg(ctx, e.OrgID)
	if err != nil {
		log.Printf("connector dispatch: list connectors for %s: %v", e.OrgID, err)
		return
	}
	for _, conn := range conns {
		if !conn.Wants(e.Type) {
			continue
		}
		if err := c.dispatcher.Dispatch(ctx, conn, e); err != nil {
			log.Printf("connector dispatch: %s (%s) failed for event %s: %v", conn.Name, conn.Kind, e.Type, err)
		}
	}
}

// Close releases the Kafka reader.
func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
