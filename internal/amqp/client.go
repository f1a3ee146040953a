package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
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

// ErrReject marks a job that must be dropped instead of requeued.
var ErrReject = errors.New("reject job")

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	failMu       sync.Mutex
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{url: url, exchangeName: exchangeName, queueName: queueName}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	c.conn, c.channel = conn, channel
	return nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// routing key is the queue name on a direct exchange
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (c *Client) currentChannel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil || c.channel.IsClosed() {
		return nil
	}
	return c.channel
}

// PublishExportJob sends job to the export queue, reconnecting once when
// the broker connection has dropped.
func (c *Client) PublishExportJob(ctx context.Context, job *ExportJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return errors.New("circuit breaker is open, AMQP publishing paused")
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid export job: %w", err)
	}
	body, err := job.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = c.publish(ctx, body)
	if err != nil && isConnectionError(err) {
		slog.WarnContext(ctx, "AMQP connection lost, reconnecting", "error", err)
		if rerr := c.connect(); rerr != nil {
			c.recordFailure()
			return fmt.Errorf("reconnect: %w", rerr)
		}
		err = c.publish(ctx, body)
	}
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	slog.InfoContext(ctx, "Published export job",
		"kind", job.Kind,
		"key", job.Key,
		"start", job.Start,
		"end", job.End,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	ch := c.currentChannel()
	if ch == nil {
		return amqp091.ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return ch.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
}

// ConsumeExportJobs delivers jobs to handler until ctx is done, reconnecting
// with exponential backoff when the broker goes away. A handler error
// requeues the job once; a second failure or an ErrReject drops it.
func (c *Client) ConsumeExportJobs(ctx context.Context, handler func(context.Context, *ExportJob) error) error {
	attempt := 0
	for {
		err := c.consume(ctx, handler, func() { attempt = 0 })
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "Stopping export job consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP consumer disconnected, retrying", "error", err, "attempt", attempt+1, "backoff", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if err := c.connect(); err != nil {
			slog.ErrorContext(ctx, "AMQP reconnect failed", "error", err)
		}
		attempt++
	}
}

func (c *Client) consume(ctx context.Context, handler func(context.Context, *ExportJob) error, connected func()) error {
	ch := c.currentChannel()
	if ch == nil {
		return amqp091.ErrClosed
	}
	msgs, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	connected()
	slog.InfoContext(ctx, "Started consuming export jobs", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return amqp091.ErrClosed
			}
			c.handleDelivery(ctx, d, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, d amqp091.Delivery, handler func(context.Context, *ExportJob) error) {
	job, err := ExportJobFromJSON(d.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Dropping malformed export job", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, job); err != nil {
		requeue := !d.Redelivered && !errors.Is(err, ErrReject)
		slog.ErrorContext(ctx, "Failed to handle export job",
			"error", err, "kind", job.Kind, "key", job.Key, "requeue", requeue)
		_ = d.Nack(false, requeue)
		return
	}
	_ = d.Ack(false)
	slog.InfoContext(ctx, "Export job processed", "kind", job.Kind, "key", job.Key)
}

// Ping reports whether the broker connection is usable.
func (c *Client) Ping() error {
	if c.currentChannel() == nil {
		return amqp091.ErrClosed
	}
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	var err error
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		c.failMu.Lock()
		last := c.lastFailure
		c.failMu.Unlock()
		if time.Since(last) > openTimeout {
			atomic.StoreInt32(&c.state, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.failMu.Lock()
	c.lastFailure = time.Now()
	c.failMu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff doubles from one second, capped at maxBackoff.
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

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection closed", "eof", "broken pipe", "closed network connection", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
