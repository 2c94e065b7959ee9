package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"collab-service/internal/config"
	"collab-service/internal/filesync"
	"collab-service/internal/metrics"
	"collab-service/pkg/logger"

	"github.com/IBM/sarama"
)

const publishQueueSize = 4096

// NewSyncProducer builds a producer that waits for every in-sync replica.
// Messages are hash-partitioned by key so one file always lands on one
// partition.
func NewSyncProducer(cfg config.KafkaConfig) (sarama.SyncProducer, error) {
	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5
	sc.Producer.Return.Successes = true
	sc.Producer.Compression = sarama.CompressionSnappy
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	sc.Producer.MaxMessageBytes = 1000000
	sc.Version = sarama.V2_0_0_0
	sc.ClientID = "collab-service"

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

// Publisher is a write-ahead Persister: edits are appended to a Kafka topic
// and written to the File Store by cmd/persister. Persist only enqueues; a
// single goroutine publishes, keeping per-file order.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	queue    chan filesync.FileChange
	done     chan struct{}
	logger   *logger.Logger

	// mu guards closed and sends on queue against Close.
	mu     sync.Mutex
	closed bool
}

func NewPublisher(producer sarama.SyncProducer, topic string, log *logger.Logger) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		queue:    make(chan filesync.FileChange, publishQueueSize),
		done:     make(chan struct{}),
		logger:   log.Component("kafka_publisher"),
	}
	go p.run()
	return p
}

var _ filesync.Persister = (*Publisher)(nil)

func (p *Publisher) Persist(change filesync.FileChange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		metrics.PersistFailures.Inc()
		p.logger.Warn("Publisher closed, dropping file change",
			"projectID", change.ProjectID, "path", change.Path)
		return
	}

	select {
	case p.queue <- change:
	default:
		metrics.PersistFailures.Inc()
		p.logger.Error("Publish queue full, dropping file change",
			"projectID", change.ProjectID, "path", change.Path)
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for change := range p.queue {
		if err := p.publish(change); err != nil {
			metrics.PersistFailures.Inc()
			p.logger.Error("Failed to publish file change",
				"projectID", change.ProjectID, "path", change.Path, "error", err)
		}
	}
}

func (p *Publisher) publish(change filesync.FileChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal file change: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(change.Key()),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: change.At,
		Headers: []sarama.RecordHeader{
			{Key: []byte("event"), Value: []byte("fileChange")},
		},
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}
	p.logger.Debug("File change published", "path", change.Path, "partition", partition, "offset", offset)
	return nil
}

// Close stops accepting changes, publishes what is queued and closes the
// producer. If ctx ends first the producer is left open.
func (p *Publisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.producer.Close()
}
