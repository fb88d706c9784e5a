package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/bloodbank/internal/logging"
)

// Consumer listens on every event queue and appends one line per event to
// LogPath.  Run reconnects with exponential backoff until ctx is done.
type Consumer struct {
	URL     string
	LogPath string
	Log     logging.Logger
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn(ctx, "event consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn(ctx, "event consumer: consume loop ended; reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type delivery struct {
	queue string
	amqp.Delivery
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn(ctx, "event consumer: set QoS failed", "err", err)
	}

	merged := make(chan delivery)
	done := make(chan struct{})
	defer close(done)
	for _, name := range Queues {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		go func(name string, msgs <-chan amqp.Delivery) {
			for d := range msgs {
				select {
				case merged <- delivery{queue: name, Delivery: d}:
				case <-done:
					return
				}
			}
		}(name, msgs)
	}

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
	return c.serve(ctx, merged, connClosed, chClosed)
}

// serve handles deliveries until ctx is done or either the connection or
// the channel closes.  The broker can close a channel on its own (for
// example after a queue is deleted) while the connection stays up.
func (c *Consumer) serve(ctx context.Context, merged <-chan delivery, connClosed, chClosed <-chan *amqp.Error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-connClosed:
			if amqpErr == nil {
				return errors.New("connection closed")
			}
			return amqpErr
		case amqpErr := <-chClosed:
			if amqpErr == nil {
				return errors.New("channel closed")
			}
			return amqpErr
		case d := <-merged:
			line, err := FormatLine(d.queue, d.Body)
			if err == nil {
				err = AppendLine(c.LogPath, line)
			}
			if err != nil {
				c.Log.Error(ctx, "event consumer: handle message failed", "queue", d.queue, "err", err)
				_ = d.Nack(false, false) // do not requeue poison messages
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// FormatLine renders one event as a single audit-log line.
func FormatLine(queue string, body []byte) (string, error) {
	switch queue {
	case DonationRecordedQueue:
		var ev DonationRecordedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Donation recorded | donation_id=%d | donor_id=%d | recorded_by=%d | group=%s | quantity=%d ml | center=%q | status=%s | donated_on=%s\n",
			ev.RecordedAt, ev.DonationID, ev.DonorID, ev.RecordedBy, ev.BloodGroup, ev.QuantityML, ev.Center, ev.Status, ev.DonatedOn), nil
	case RequestFulfilledQueue:
		var ev RequestFulfilledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		ids := make([]string, len(ev.DonationIDs))
		for i, id := range ev.DonationIDs {
			ids[i] = fmt.Sprint(id)
		}
		return fmt.Sprintf("[%s] Request fulfilled | request_id=%d | group=%s | requested=%d ml | allocated=%d ml | hospital=%q | fulfilled_by=%d | units=[%s]\n",
			ev.FulfilledAt, ev.RequestID, ev.BloodGroup, ev.RequestedML, ev.AllocatedML, ev.Hospital, ev.FulfilledBy, strings.Join(ids, ",")), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}

// AppendLine appends line to the file at path, creating parent
// directories as needed.
func AppendLine(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
