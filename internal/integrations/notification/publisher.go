// Package notification публикует события бронирований и баллов в RabbitMQ.
// Публикация не блокирует вызывающего: события складываются в буфер и отправляются
// фоновой горутиной, при переполнении буфера событие отбрасывается с предупреждением.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Config параметры подключения к брокеру
type Config struct {
	URL        string
	Queue      string
	BufferSize int
}

// Publisher асинхронный публикатор событий
type Publisher struct {
	conn    *amqp.Connection
	channel Channel
	queue   string
	log     Logger

	events chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewPublisher подключается к брокеру, объявляет durable очередь и запускает отправку
func NewPublisher(cfg Config, log Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", ErrConnect, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: open channel: %v", ErrConnect, err)
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: declare queue %s: %v", ErrConnect, cfg.Queue, err)
	}

	p := newPublisher(ch, cfg.Queue, cfg.BufferSize, log)
	p.conn = conn
	return p, nil
}

func newPublisher(ch Channel, queue string, buffer int, log Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &Publisher{
		channel: ch,
		queue:   queue,
		log:     log,
		events:  make(chan Event, buffer),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish ставит событие в очередь на отправку и сразу возвращает управление
func (p *Publisher) Publish(_ context.Context, event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.log.Warn("Publish: publisher closed, dropping event type=%s id=%s", event.Type, event.ID)
		return
	}

	select {
	case p.events <- event:
	default:
		p.log.Warn("Publish: buffer full, dropping event type=%s id=%s", event.Type, event.ID)
	}
}

// Close отправляет оставшиеся события и закрывает соединение
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	<-p.done

	if err := p.channel.Close(); err != nil {
		p.log.Warn("Close: failed to close channel: %v", err)
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *Publisher) run() {
	defer close(p.done)

	for event := range p.events {
		if err := p.send(event); err != nil {
			p.log.Error("run: failed to publish event type=%s id=%s: %v", event.Type, event.ID, err)
		}
	}
}

func (p *Publisher) send(event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	return p.channel.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    event.OccurredAt.UTC(),
		Body:         body,
	})
}

// Discard публикатор, который ничего не отправляет. Используется, когда брокер отключён.
type Discard struct{}

// Publish ничего не делает
func (Discard) Publish(context.Context, Event) {}
