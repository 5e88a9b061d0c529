// Package events publie les événements métier (commandes, paiements, stock)
// sur Kafka. Sans broker configuré, les événements sont seulement journalisés.
package events

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const Topic = "pharmacy.orders"

const (
	OrderCommitted     = "order.committed"
	OrderStatusChanged = "order.status_changed"
	// PaymentOrphaned : paiement vérifié sans commande possible, à rembourser.
	PaymentOrphaned   = "payment.orphaned"
	InventoryAdjusted = "inventory.adjusted"
)

type Event struct {
	EventID   string         `json:"event_id"`
	Type      string         `json:"type"`
	Key       string         `json:"key"`
	CreatedAt time.Time      `json:"created_at"`
	Payload   map[string]any `json:"payload"`
}

// Publisher n'échoue jamais côté appelant : un événement perdu est journalisé.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload map[string]any)
	Close() error
}

func NewEvent(eventType, key string, payload map[string]any) Event {
	return Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		Key:       key,
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
	}
}

// KafkaPublisher écrit en asynchrone ; les erreurs remontent via Completion.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewPublisher retourne un KafkaPublisher si brokersCSV contient au moins un broker.
func NewPublisher(brokersCSV string) Publisher {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		log.Println("⚠️ KAFKA_BROKERS vide, événements journalisés uniquement")
		return LogPublisher{}
	}

	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Printf("❌ Publication Kafka échouée (%d messages): %v", len(messages), err)
			}
		},
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload map[string]any) {
	data, err := json.Marshal(NewEvent(eventType, key, payload))
	if err != nil {
		log.Printf("❌ Encodage événement %s: %v", eventType, err)
		return
	}
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   data,
		Time:    time.Now().UTC(),
		Headers: []kafka.Header{{Key: "type", Value: []byte(eventType)}},
	}
	if err := p.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		log.Printf("❌ Publication %s: %v", eventType, err)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, eventType, key string, _ map[string]any) {
	log.Printf("📣 %s %s", eventType, key)
}

func (LogPublisher) Close() error { return nil }
