package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"status-dashboard/internal/logging"
	"status-dashboard/internal/models"
	"status-dashboard/internal/utils"
)

type Config struct {
	Broker  string
	Topic   string
	GroupID string
}

// EventWriter stores ingested events.
type EventWriter interface {
	CreateServerEvent(ctx context.Context, e models.ServerEvent) (models.ServerEvent, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer appends server status and backup events from Kafka to the event log.
type Consumer struct {
	reader messageReader
	store  EventWriter
	logger *logging.Logger
	delay  time.Duration
}

func NewConsumer(cfg Config, store EventWriter, logger *logging.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{cfg.Broker},
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return &Consumer{reader: r, store: store, logger: logger, delay: time.Second}
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("Kafka consumer started")
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
					c.logger.Infof("Kafka consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				select {
				case <-ctx.Done():
					c.logger.Infof("Kafka consumer stopped")
					return
				case <-time.After(c.delay):
				}
				continue
			}
			c.handle(ctx, msg)
			if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				c.logger.Errorf("Commit offset %d failed: %v", msg.Offset, err)
			}
		}
	}()
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	e, err := ParseEvent(msg.Value)
	if err != nil {
		c.logger.Warnf("Skipping message at offset %d: %v", msg.Offset, err)
		return
	}

	err = utils.Retry(ctx, c.logger, 3, c.delay, func() error {
		saved, err := c.store.CreateServerEvent(ctx, e)
		if err == nil {
			e = saved
		}
		return err
	})
	if err != nil {
		c.logger.Errorf("Dropping %s event for server %s: %v", e.Type, e.ServerID, err)
		return
	}
	c.logger.Debugf("Stored %s event %d for server %s", e.Type, e.ID, e.ServerID)
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Errorf("Failed to close Kafka reader: %v", err)
	}
}
