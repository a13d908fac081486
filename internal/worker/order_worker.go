package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/storefront-api/internal/cache"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

const (
	orderQueueName = "orders"
	dlxExchange    = "orders.dlx"
	dlqQueueName   = "orders.dlq"
	idempotencyTTL = 24 * time.Hour
)

var errUnknownEvent = errors.New("unknown order event")

// Deduper remembers which events have already been applied.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: idempotencyTTL}
}

func (d *RedisDeduper) Seen(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDeduper) Mark(ctx context.Context, key string) error {
	return d.client.Set(ctx, key, "1", d.ttl).Err()
}

func eventKey(msg model.OrderMessage) string {
	return "order_event:" + msg.Event + ":" + msg.OrderID.String()
}

// OrderWorker applies order events to product stock: order.placed takes the
// ordered quantities out of countInStock and order.cancelled puts them back.
// Each (event, order) pair is applied at most once: Redis short-circuits
// redeliveries and order_stock_events is the record of what was applied.
type OrderWorker struct {
	channel     *amqp.Channel
	productRepo repository.ProductRepository
	dedup       Deduper
	cache       *cache.ProductCache
	log         *slog.Logger
	done        chan struct{}
}

func NewOrderWorker(
	ch *amqp.Channel,
	productRepo repository.ProductRepository,
	dedup Deduper,
	productCache *cache.ProductCache,
	log *slog.Logger,
) *OrderWorker {
	return &OrderWorker{
		channel:     ch,
		productRepo: productRepo,
		dedup:       dedup,
		cache:       productCache,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares the order queue with its dead-letter exchange and queue.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderQueueName,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *OrderWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(orderQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order worker started")
	return nil
}

func (w *OrderWorker) Stop() { close(w.done) }

func (w *OrderWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var orderMsg model.OrderMessage
	if err := json.Unmarshal(msg.Body, &orderMsg); err != nil {
		w.log.Error("unmarshal order message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("event", orderMsg.Event, "order_id", orderMsg.OrderID, "user_id", orderMsg.UserID)

	key := eventKey(orderMsg)
	seen, err := w.dedup.Seen(ctx, key)
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if seen {
		log.Info("order event already applied, skipping")
		_ = msg.Ack(false)
		return
	}

	applied, err := w.applyStock(ctx, orderMsg)
	if err != nil {
		log.Error("apply order event failed", "error", err)
		_ = msg.Nack(false, false) // dead-lettered
		return
	}

	if err := w.dedup.Mark(ctx, key); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	if applied {
		log.Info("order event applied", "lines", len(orderMsg.Items))
	} else {
		log.Warn("order event left stock unchanged")
	}
}

func stockSign(event string) (int, error) {
	switch event {
	case model.OrderEventPlaced:
		return -1, nil
	case model.OrderEventCancelled:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownEvent, event)
	}
}

// applyStock adjusts every line in one transaction so an order's stock moves
// all at once or not at all. The event is recorded in the same transaction.
// A cancellation only restocks an order whose placement took stock, and a
// placement arriving after its cancellation takes nothing. applied is false
// when stock was left unchanged.
func (w *OrderWorker) applyStock(ctx context.Context, msg model.OrderMessage) (applied bool, err error) {
	sign, err := stockSign(msg.Event)
	if err != nil {
		return false, err
	}

	tx, err := w.productRepo.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	fresh, err := w.productRepo.RecordStockEvent(ctx, tx, msg.OrderID, msg.Event)
	if err != nil {
		return false, err
	}
	skip := !fresh
	if fresh {
		if skip, err = w.outOfOrder(ctx, tx, msg); err != nil {
			return false, err
		}
	}
	if skip {
		if err = tx.Commit(ctx); err != nil {
			return false, fmt.Errorf("commit tx: %w", err)
		}
		return false, nil
	}

	ids := make([]uuid.UUID, 0, len(msg.Items))
	for _, line := range msg.Items {
		if err = w.productRepo.AdjustStock(ctx, tx, line.ProductID, sign*line.Quantity); err != nil {
			return false, fmt.Errorf("adjust stock for %s: %w", line.ProductID, err)
		}
		ids = append(ids, line.ProductID)
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	w.cache.Invalidate(ctx, ids...)
	return true, nil
}

// outOfOrder reports whether msg must leave stock alone: a placement whose
// order was already cancelled, or a cancellation whose placement never took
// stock.
func (w *OrderWorker) outOfOrder(ctx context.Context, tx pgx.Tx, msg model.OrderMessage) (bool, error) {
	if msg.Event == model.OrderEventPlaced {
		return w.productRepo.HasStockEvent(ctx, tx, msg.OrderID, model.OrderEventCancelled)
	}
	placed, err := w.productRepo.HasStockEvent(ctx, tx, msg.OrderID, model.OrderEventPlaced)
	return !placed, err
}
