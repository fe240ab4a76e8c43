package sink

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"adexport/normalize"
)

// KafkaSink publishes one message per record, keyed by datasource so records
// from the same directory land on the same partition.
type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.LeastBytes{},
		},
	}
}

func (s *KafkaSink) Write(record *normalize.Record) error {
	data, err := json.Marshal(record.Flat())
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return s.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(record.Datasource),
		Value: data,
		Time:  time.Now(),
	})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
