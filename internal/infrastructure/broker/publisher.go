package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/Eduvent/bono-app-sub002/internal/config"
	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends bond events to fanout exchanges as JSON.
type Publisher struct {
	channel   publishChannel
	bondsEx   string
	computeEx string
	logger    logrus.FieldLogger
	mu        sync.Mutex
	now       func() time.Time
}

func NewPublisher(conn *amqp.Connection, cfg config.RabbitMQConfig, logger logrus.FieldLogger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}

	declared := map[string]struct{}{}
	for _, name := range []string{cfg.BondsExchange, cfg.CashflowsExchange} {
		if name == "" {
			ch.Close()
			return nil, errors.New("exchange name cannot be empty")
		}
		if _, ok := declared[name]; ok {
			continue
		}
		if err := ch.ExchangeDeclare(name, "fanout", true, false, false, false, nil); err != nil {
			ch.Close()
			return nil, fmt.Errorf("declare exchange %s: %w", name, err)
		}
		declared[name] = struct{}{}
	}
	return newPublisher(ch, cfg, logger), nil
}

func newPublisher(ch publishChannel, cfg config.RabbitMQConfig, logger logrus.FieldLogger) *Publisher {
	return &Publisher{
		channel:   ch,
		bondsEx:   cfg.BondsExchange,
		computeEx: cfg.CashflowsExchange,
		logger:    logger.WithField("component", "publisher"),
		now:       time.Now,
	}
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if err := p.channel.Close(); err != nil {
		p.logger.Errorf("close rabbitmq channel: %v", err)
	}
}

func (p *Publisher) PublishBondChanged(ctx context.Context, bondUID uuid.UUID) error {
	return p.publish(ctx, p.bondsEx, BondChanged{
		BondUID:   bondUID,
		ChangedAt: p.now().UTC(),
	})
}

func (p *Publisher) PublishScheduleComputed(ctx context.Context, schedule *bonds.Schedule) error {
	if schedule == nil {
		return errors.New("schedule is nil")
	}
	msg := ScheduleComputed{
		BondUID:    schedule.BondID,
		TermsHash:  schedule.TermsHash,
		Partial:    schedule.Partial,
		Warnings:   len(schedule.Warnings),
		ComputedAt: schedule.ComputedAt,
	}
	if n := len(schedule.Periods); n > 0 {
		msg.Periods = n - 1
	}
	if schedule.Metrics != nil {
		msg.TREA = schedule.Metrics.TREA
		msg.TCEA = schedule.Metrics.TCEA
	}
	return p.publish(ctx, p.computeEx, msg)
}

func (p *Publisher) publish(ctx context.Context, exchange string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(ctx, exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Body:         body,
	})
}
