package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// NotificationEvent is the single payload shape published for every lifecycle
// notification. Fields not relevant for a given Type stay zero.
type NotificationEvent struct {
	Type            string  `json:"type"`
	BookingID       int64   `json:"booking_id,omitempty"`
	BookingIDs      []int64 `json:"booking_ids,omitempty"`
	UserID          int64   `json:"user_id,omitempty"`
	UserIDs         []int64 `json:"user_ids,omitempty"`
	AccommodationID int64   `json:"accommodation_id,omitempty"`
	CheckInDate     string  `json:"check_in_date,omitempty"`
	CheckOutDate    string  `json:"check_out_date,omitempty"`
	AmountCents     int64   `json:"amount_cents,omitempty"`
}

const (
	EventBookingCreated       = "booking_created"
	EventBookingCanceled      = "booking_canceled"
	EventAccommodationCreated = "accommodation_created"
	EventAccommodationsFreed  = "accommodations_released"
	EventPaymentSuccess       = "payment_success"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
