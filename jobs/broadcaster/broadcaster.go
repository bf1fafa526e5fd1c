// Package broadcaster drains the trade outbox into Kafka. It is the
// only component that moves entries past NEW, so delivery bookkeeping
// stays in one place.
package broadcaster

import (
	"context"
	"time"

	"github.com/IBM/sarama"

	"matchd/infra/outbox"
	"matchd/pkg/logger"
)

// Broadcaster ships pending outbox entries to a Kafka topic on a
// fixed tick. Entries are marked SENT before the produce and ACKED
// after the broker confirms, so a crash in between means a re-send,
// never a loss.
type Broadcaster struct {
	box      *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      *logger.Logger
}

// New connects a synchronous producer to the brokers. Acks from all
// in-sync replicas are required before an entry is considered
// delivered.
func New(box *outbox.Outbox, brokers []string, topic string, interval time.Duration, log *logger.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return newWithProducer(box, producer, topic, interval, log), nil
}

func newWithProducer(box *outbox.Outbox, producer sarama.SyncProducer, topic string, interval time.Duration, log *logger.Logger) *Broadcaster {
	return &Broadcaster{
		box:      box,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      log,
	}
}

// Run drains the outbox until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.log.Info("broadcaster started", logger.Field{Key: "topic", Value: b.topic})
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.publishOnce()
		}
	}
}

func (b *Broadcaster) publishOnce() {
	err := b.box.ScanPending(func(seq uint64, e outbox.Entry) error {
		if err := b.box.MarkSent(seq); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder("trade"),
			Value: sarama.ByteEncoder(e.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			// left SENT; picked up again next tick
			b.log.Warn("publish failed",
				logger.Field{Key: "seq", Value: seq},
				logger.Field{Key: "error", Value: err.Error()},
			)
			return nil
		}

		return b.box.MarkAcked(seq)
	})
	if err != nil {
		b.log.Error(err, logger.Field{Key: "job", Value: "broadcaster"})
	}
}

// Close shuts the producer down.
func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
