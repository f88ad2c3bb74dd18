package alerts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/spendwise/internal/daemon"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

// channel is the subset of *amqp091.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type dialFunc func(url string) (channel, io.Closer, error)

func dialAMQP(url string) (channel, io.Closer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, conn, nil
}

// Publisher sends anomaly alerts to a durable direct exchange. It reconnects
// lazily after connection failures and stops trying for a while once too
// many publishes in a row have failed.
type Publisher struct {
	url        string
	exchange   string
	routingKey string
	log        *logrus.Logger
	dial       dialFunc
	attempts   int

	mu           sync.Mutex
	ch           channel
	conn         io.Closer
	state        int32
	failureCount int64
	lastFailure  time.Time
}

var _ daemon.Publisher = (*Publisher)(nil)

// NewPublisher connects to url and declares the exchange.
func NewPublisher(ctx context.Context, url, exchange, routingKey string, log *logrus.Logger) (*Publisher, error) {
	p := newPublisher(url, exchange, routingKey, log, dialAMQP)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connect(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func newPublisher(url, exchange, routingKey string, log *logrus.Logger, dial dialFunc) *Publisher {
	return &Publisher{
		url:        url,
		exchange:   exchange,
		routingKey: routingKey,
		log:        log,
		dial:       dial,
		attempts:   3,
	}
}

// connect dials with exponential backoff. Caller holds p.mu.
func (p *Publisher) connect(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < p.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}

		ch, conn, err := p.dial(p.url)
		if err != nil {
			lastErr = err
			p.log.WithError(err).WithField("attempt", attempt+1).Warn("amqp connect failed")
			continue
		}

		err = ch.ExchangeDeclare(
			p.exchange, // name
			"direct",   // type
			true,       // durable
			false,      // auto-deleted
			false,      // internal
			false,      // no-wait
			nil,        // arguments
		)
		if err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return fmt.Errorf("declare exchange: %w", err)
		}

		p.ch, p.conn = ch, conn
		return nil
	}
	return fmt.Errorf("connecting to AMQP after %d attempts: %w", p.attempts, lastErr)
}

// Publish sends one alert as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, alert daemon.AnomalyAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isCircuitOpen() {
		return errors.New("circuit breaker is open")
	}

	if p.ch == nil {
		if err := p.connect(ctx); err != nil {
			p.recordFailure()
			return err
		}
	}

	msg := NewAnomalyMessage(alert)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(
		pubCtx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.MessageID,
			Type:         MessageType,
			Timestamp:    alert.DetectedAt,
			Body:         body,
		},
	)
	if err != nil {
		p.recordFailure()
		if isConnectionError(err) {
			p.reset()
		}
		return fmt.Errorf("publish message: %w", err)
	}

	p.recordSuccess()
	p.log.WithFields(logrus.Fields{
		"message_id":     msg.MessageID,
		"transaction_id": msg.TransactionID,
		"severity":       msg.Severity,
		"exchange":       p.exchange,
	}).Info("published anomaly alert")
	return nil
}

// reset drops the current connection so the next publish redials.
// Caller holds p.mu.
func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		err = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
	return err
}

// isCircuitOpen reports whether publishing is suspended. An open circuit
// turns half-open once openTimeout has passed since the last failure.
func (p *Publisher) isCircuitOpen() bool {
	if p.state != StateOpen {
		return false
	}
	if time.Since(p.lastFailure) > openTimeout {
		p.state = StateHalfOpen
		return false
	}
	return true
}

func (p *Publisher) recordFailure() {
	p.failureCount++
	p.lastFailure = time.Now()
	if p.state == StateHalfOpen || p.failureCount >= maxFailures {
		p.state = StateOpen
	}
}

func (p *Publisher) recordSuccess() {
	p.failureCount = 0
	p.state = StateClosed
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

var connectionErrorMarkers = []string{
	"connection refused",
	"connection closed",
	"connection reset",
	"EOF",
	"broken pipe",
	"use of closed network connection",
	"channel/connection is not open",
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, marker := range connectionErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
