package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"collab-service/internal/config"
	"collab-service/internal/filesync"
	"collab-service/pkg/logger"

	kafkago "github.com/segmentio/kafka-go"
)

const maxHandleAttempts = 3

// HandlerFunc applies one file change, typically by upserting it.
type HandlerFunc func(ctx context.Context, change filesync.FileChange) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads the file change topic in a consumer group. Offsets are
// committed only after the handler returns, so delivery is at-least-once.
type Consumer struct {
	reader  messageReader
	backoff time.Duration
	logger  *logger.Logger
}

func NewConsumer(cfg config.KafkaConfig, log *logger.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(reader, log)
}

func newConsumer(reader messageReader, log *logger.Logger) *Consumer {
	return &Consumer{
		reader:  reader,
		backoff: 500 * time.Millisecond,
		logger:  log.Component("kafka_consumer"),
	}
}

// Run processes messages until ctx is cancelled. A message that still fails
// after a few attempts is logged and skipped so one bad record cannot stall
// its partition.
func (c *Consumer) Run(ctx context.Context, handle HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		change, err := DecodeFileChange(msg)
		if err != nil {
			c.logger.Error("Skipping undecodable message", "offset", msg.Offset, "partition", msg.Partition, "error", err)
		} else {
			c.handle(ctx, handle, change)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handle HandlerFunc, change filesync.FileChange) {
	var err error
	for attempt := 1; attempt <= maxHandleAttempts; attempt++ {
		if err = handle(ctx, change); err == nil {
			return
		}
		c.logger.Warn("File change handler failed",
			"projectID", change.ProjectID, "path", change.Path, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
	c.logger.Error("Giving up on file change", "projectID", change.ProjectID, "path", change.Path, "error", err)
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeFileChange parses the value of a published file change.
func DecodeFileChange(msg kafkago.Message) (filesync.FileChange, error) {
	var change filesync.FileChange
	if err := json.Unmarshal(msg.Value, &change); err != nil {
		return change, fmt.Errorf("decode file change: %w", err)
	}
	if change.ProjectID == "" || change.Path == "" {
		return change, fmt.Errorf("decode file change: missing project or path")
	}
	return change, nil
}
