// Package events publishes FNA header lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"fnaterm/internal/fna"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes header events to one topic, keyed by client id so a
// client's events stay ordered within a partition.
type Publisher struct {
	writer messageWriter
	topic  string
}

// NewPublisher connects to broker and returns a publisher for topic.
func NewPublisher(broker, topic string) (*Publisher, error) {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	conn.Close()

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: writer, topic: topic}, nil
}

// Notify publishes e.
func (p *Publisher) Notify(ctx context.Context, e fna.Event) error {
	msg, err := p.message(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Close flushes pending writes.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) message(e fna.Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}
	return kafka.Message{
		Topic: p.topic,
		Key:   []byte(e.ClientID),
		Value: value,
		Time:  e.At,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(e.Type)},
		},
	}, nil
}
