package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const delayedQueueSuffix = ".delayed"

type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	// publishMu serializes publishes and declarations on the shared channel
	publishMu sync.Mutex
	declared  map[string]bool
}

func NewRabbitMQClient(ctx context.Context, amqpURL string, mainQueueNames []string) (*RabbitMQClient, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		err2 := conn.Close()
		if err2 != nil {
			slog.ErrorContext(ctx, "error occurred while closing connection", "error", err2.Error())
		}

		return nil, err
	}

	client := &RabbitMQClient{
		conn:     conn,
		channel:  ch,
		declared: map[string]bool{},
	}
	err = client.checkMainQueueDeclarations(mainQueueNames)
	if err != nil {
		slog.ErrorContext(ctx, "Error while checking declarations of main queues", "error", err.Error())
		client.closeQuietly()
		return nil, err
	}

	return client, nil
}

func DelayedQueueName(queueName string) string {
	return queueName + delayedQueueSuffix
}

func (c *RabbitMQClient) PublishMessage(ctx context.Context, queueName string, body []byte) (err error) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	err = c.checkQueueDeclaration(queueName)
	if err != nil {
		return err
	}

	return c.channel.PublishWithContext(
		ctx,
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
}

// PublishDelayedMessage parks the message in the delayed twin of queueName. When the per-message
// TTL expires the broker dead-letters it into queueName.
func (c *RabbitMQClient) PublishDelayedMessage(ctx context.Context, queueName string, body []byte, delay time.Duration) (err error) {
	if delay <= 0 {
		return c.PublishMessage(ctx, queueName, body)
	}

	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	err = c.checkQueueDeclaration(queueName)
	if err != nil {
		return err
	}

	delayedQueueName := DelayedQueueName(queueName)
	err = c.checkDelayedQueueDeclaration(queueName, delayedQueueName)
	if err != nil {
		return err
	}

	return c.channel.PublishWithContext(
		ctx,
		"",
		delayedQueueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
			Body:         body,
		})
}

// ConsumeMessages starts concurrency handlers on a dedicated channel with a matching prefetch.
// A delivery is acked after handler returns nil and requeued otherwise. Handlers stop once ctx
// is cancelled.
func (c *RabbitMQClient) ConsumeMessages(ctx context.Context, consumerName, queueName string, concurrency int, handler func(ctx context.Context, body []byte) error) error {
	if concurrency < 1 {
		concurrency = 1
	}

	c.publishMu.Lock()
	err := c.checkQueueDeclaration(queueName)
	c.publishMu.Unlock()
	if err != nil {
		return err
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}

	if err = ch.Qos(concurrency, 0, false); err != nil {
		_ = ch.Close()
		return err
	}

	msgs, err := ch.ConsumeWithContext(
		ctx,
		queueName,    // queue
		consumerName, // consumer
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		_ = ch.Close()
		return err
	}

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range msgs {
				if err := handler(ctx, d.Body); err != nil {
					slog.ErrorContext(ctx, "message handler failed, requeueing", "queue", queueName, "error", err.Error())
					if err2 := d.Nack(false, true); err2 != nil {
						slog.ErrorContext(ctx, "failed to nack message", "queue", queueName, "error", err2.Error())
					}
					continue
				}

				if err2 := d.Ack(false); err2 != nil {
					slog.ErrorContext(ctx, "failed to ack message", "queue", queueName, "error", err2.Error())
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			slog.Error("Error occurred while closing consumer channel", "queue", queueName, "error", err.Error())
		}
	}()

	return nil
}

func (c *RabbitMQClient) Close() error {
	err := c.channel.Close()
	if err != nil {
		return err
	}

	err = c.conn.Close()
	return err
}

func (c *RabbitMQClient) IsHealthy() bool {
	if c.conn.IsClosed() {
		slog.Error("RabbitMQ connection is closed, Rabbit is not healthy")
		return false
	}

	ch, err := c.conn.Channel()
	if err != nil {
		slog.Error("Failed to open RabbitMQ channel, Rabbit is not healthy", "error", err)
		return false
	}
	defer func() {
		err = ch.Close()
		if err != nil {
			slog.Error("Error occurred while closing rabbit channel created for health check", "error", err.Error())
		}
	}()

	return true
}

func (c *RabbitMQClient) checkMainQueueDeclarations(mainQueueNames []string) (err error) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	for _, queueName := range mainQueueNames {
		err = c.checkQueueDeclaration(queueName)
		if err != nil {
			return err
		}
	}

	return nil
}

// checkQueueDeclaration must be called with publishMu held.
func (c *RabbitMQClient) checkQueueDeclaration(queueName string) (err error) {
	if c.declared[queueName] {
		return nil
	}

	_, err = c.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", queueName, err)
	}

	c.declared[queueName] = true
	return nil
}

func (c *RabbitMQClient) checkDelayedQueueDeclaration(targetQueueName, delayedQueueName string) (err error) {
	if c.declared[delayedQueueName] {
		return nil
	}

	_, err = c.channel.QueueDeclare(
		delayedQueueName,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": targetQueueName,
		},
	)
	if err != nil {
		return fmt.Errorf("declare delayed queue %s: %w", delayedQueueName, err)
	}

	c.declared[delayedQueueName] = true
	return nil
}

func (c *RabbitMQClient) closeQuietly() {
	if err := c.channel.Close(); err != nil {
		slog.Error("error occurred while closing channel", "error", err.Error())
	}

	if err := c.conn.Close(); err != nil {
		slog.Error("error occurred while closing connection", "error", err.Error())
	}
}
