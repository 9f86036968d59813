// Package notify handles the two side-effect events of the live feed:
// chat messages (unread counter) and cash payment alerts (forwarded to
// RabbitMQ for whatever back-office consumer cares). A failed alert
// publish is logged and swallowed.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// publishJSON pushes one persistent JSON message onto a durable queue over
// a fresh per-publish connection. Errors are returned so the caller can
// choose to ignore them.
func publishJSON(ctx context.Context, url, queue string, payload any, logger *log.Logger) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", queue, err)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		logger.Printf("⚠️  rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Printf("⚠️  rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		logger.Printf("⚠️  rabbitmq: queue declare failed: %v", err)
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(pubCtx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		logger.Printf("⚠️  rabbitmq: publish to %s failed: %v", queue, err)
		return err
	}
	return nil
}
