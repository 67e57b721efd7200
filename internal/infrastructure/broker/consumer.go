package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/Eduvent/bono-app-sub002/internal/config"
)

// Consumer listens on the bond-changed fanout exchange and hands the ids to
// a RecalcBatcher.
type Consumer struct {
	cfg    config.RabbitMQConfig
	logger logrus.FieldLogger

	conn    *amqp.Connection
	channel *amqp.Channel
	wg      sync.WaitGroup
	batcher *RecalcBatcher
}

func NewConsumer(cfg config.RabbitMQConfig, service Recalculator, logger logrus.FieldLogger) (*Consumer, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	batchCfg := BatchConfig{
		Size:    cfg.BatchSize,
		Timeout: cfg.BatchTimeout,
	}
	return &Consumer{
		cfg:     cfg,
		logger:  logger.WithField("component", "consumer"),
		batcher: NewRecalcBatcher(batchCfg, service, logger),
	}, nil
}

// Start connects, declares the topology and begins consuming.
func (c *Consumer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	c.conn = conn
	c.batcher.Run(ctx)

	deliveries, err := c.subscribe()
	if err != nil {
		_ = c.Close(ctx)
		return err
	}
	c.wg.Add(1)
	go c.consumeLoop(ctx, deliveries)

	c.logger.WithFields(logrus.Fields{
		"exchange": c.cfg.BondsExchange,
		"queue":    c.cfg.Queue,
	}).Info("rabbitmq consumer started")
	return nil
}

// Close stops consumption and flushes pending recalculations.
func (c *Consumer) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.wg.Wait()
	return c.batcher.Stop(ctx)
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	exchange := c.cfg.BondsExchange
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	// a named queue survives worker restarts; an anonymous one is per process
	durable := c.cfg.Queue != ""
	queue, err := ch.QueueDeclare(c.cfg.Queue, durable, !durable, !durable, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "", exchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("bind queue %s to %s: %w", queue.Name, exchange, err)
	}
	prefetch := c.cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(queue.Name, "", false, !durable, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("start consume: %w", err)
	}
	c.channel = ch
	return deliveries, nil
}

func (c *Consumer) consumeLoop(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				return
			}
			if err := c.handleDelivery(delivery.Body); err != nil {
				c.logger.WithError(err).Warn("failed to process message")
				// malformed messages would be redelivered forever
				_ = delivery.Nack(false, !errors.Is(err, errMalformed))
				continue
			}
			if err := delivery.Ack(false); err != nil {
				c.logger.WithError(err).Warn("failed to ack delivery")
			}
		}
	}
}

var errMalformed = errors.New("malformed message")

func (c *Consumer) handleDelivery(body []byte) error {
	var msg BondChanged
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if msg.BondUID == uuid.Nil {
		return fmt.Errorf("%w: bond_uid is empty", errMalformed)
	}
	return c.batcher.Add(msg.BondUID)
}
