package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"socialpush/logger"
	"socialpush/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var (
	rabbitConn    *amqp.Connection
	rabbitChannel *amqp.Channel
)

const (
	changeExchange = "entity_changes"
	pushExchange   = "push_notifications"
)

var ErrChannelNotInitialized = errors.New("RabbitMQ channel not initialized")

// InitRabbitMQ открывает соединение и объявляет оба topic exchange
func InitRabbitMQ(url string) error {
	if rabbitChannel != nil {
		return nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	for _, exchange := range []string{changeExchange, pushExchange} {
		if err := ch.ExchangeDeclare(
			exchange,
			"topic",
			true,  // durable
			false, // auto-delete
			false, // internal
			false, // no-wait
			nil,   // args
		); err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
		}
	}

	rabbitConn, rabbitChannel = conn, ch
	logger.Info("RabbitMQ initialized")
	return nil
}

func CloseRabbitMQ() error {
	if rabbitConn == nil {
		return nil
	}
	err := rabbitConn.Close()
	rabbitConn, rabbitChannel = nil, nil
	return err
}

// PushJob - задание для шлюза доставки (FCM и т.п.)
type PushJob struct {
	ID     string            `json:"id"`
	Token  string            `json:"token"`
	Kind   string            `json:"kind"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
	SentAt time.Time         `json:"sent_at"`
}

// AMQPPusher публикует push-задания в exchange push_notifications с ключом push.<kind>
type AMQPPusher struct {
	ch *amqp.Channel
}

func NewAMQPPusher() (*AMQPPusher, error) {
	if rabbitChannel == nil {
		return nil, ErrChannelNotInitialized
	}
	return &AMQPPusher{ch: rabbitChannel}, nil
}

func (p *AMQPPusher) Driver() string { return "amqp" }

func (p *AMQPPusher) Push(ctx context.Context, target models.PushTarget, msg models.NotificationMessage) error {
	job := PushJob{
		ID:     uuid.New().String(),
		Token:  string(target),
		Kind:   string(msg.Kind),
		Title:  msg.Title,
		Body:   msg.Body,
		Data:   msg.Data,
		SentAt: time.Now().UTC(),
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal push job: %w", err)
	}
	return p.ch.PublishWithContext(ctx,
		pushExchange,
		"push."+string(msg.Kind),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   job.ID,
			Body:        body,
		},
	)
}

// PublishChangeEvent публикует событие изменения с ключом <entity>.<type>
func PublishChangeEvent(ctx context.Context, ev *ChangeEvent) error {
	if rabbitChannel == nil {
		return ErrChannelNotInitialized
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return rabbitChannel.PublishWithContext(ctx,
		changeExchange,
		ev.RoutingKey(),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   ev.ID,
			Body:        body,
		},
	)
}

// StartChangeEventConsumer слушает события друзей и планов и передаёт их в Router.
// auto-ack: сбойное событие не переотправляется.
func StartChangeEventConsumer(ctx context.Context, queueName string, router *Router) error {
	if rabbitConn == nil {
		return ErrChannelNotInitialized
	}
	// отдельный канал под consumer, публикация идёт через rabbitChannel
	ch, err := rabbitConn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	for _, key := range []string{EntityFriendRequest + ".*", EntityPlan + ".*"} {
		if err := ch.QueueBind(q.Name, key, changeExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue to %s: %w", key, err)
		}
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn("change event delivery channel closed")
					return
				}
				handleDelivery(ctx, router, msg.Body)
			}
		}
	}()
	return nil
}

func handleDelivery(ctx context.Context, router *Router, body []byte) {
	ev, err := DecodeChangeEvent(body)
	if err != nil {
		logger.Error("failed to unmarshal change event", zap.Error(err))
		return
	}
	if _, err := router.Route(ctx, ev); err != nil {
		logger.Error("dropping change event", zap.String("event_id", ev.ID), zap.Error(err))
	}
}
