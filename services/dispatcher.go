package services

import (
	"context"
	"sync"
	"time"

	"socialpush/api/middleware"
	"socialpush/logger"
	"socialpush/models"

	"go.uber.org/zap"
)

// Pusher - канал доставки push-уведомлений. Одна попытка на вызов, без повторов.
type Pusher interface {
	Push(ctx context.Context, target models.PushTarget, msg models.NotificationMessage) error
	Driver() string
}

// Report - итог рассылки по одному событию
type Report struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

func (r *Report) Add(other Report) {
	r.Attempted += other.Attempted
	r.Sent += other.Sent
	r.Failed += other.Failed
	r.Skipped += other.Skipped
}

type Dispatcher struct {
	pusher      Pusher
	parallelism int
}

func NewDispatcher(pusher Pusher, parallelism int) *Dispatcher {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Dispatcher{pusher: pusher, parallelism: parallelism}
}

// Send делает ровно одну попытку доставки. Ошибка логируется и возвращается только для подсчёта.
func (d *Dispatcher) Send(ctx context.Context, rcpt Recipient, msg models.NotificationMessage) error {
	start := time.Now()
	err := d.pusher.Push(ctx, rcpt.Target, msg)
	elapsed := time.Since(start)

	if err != nil {
		middleware.RecordPush(string(msg.Kind), middleware.PushFailed, d.pusher.Driver(), elapsed)
		logger.Error("push delivery failed",
			zap.String("user_id", rcpt.UserID),
			zap.String("kind", string(msg.Kind)),
			zap.Error(err),
		)
		return err
	}

	middleware.RecordPush(string(msg.Kind), middleware.PushSent, d.pusher.Driver(), elapsed)
	logger.Info("push sent", zap.String("user_id", rcpt.UserID), zap.String("kind", string(msg.Kind)))
	return nil
}

// Fanout отправляет msg каждому получателю параллельно; сбой одного не влияет на остальных
func (d *Dispatcher) Fanout(ctx context.Context, recipients []Recipient, msg models.NotificationMessage) Report {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		report = Report{Attempted: len(recipients)}
		sem    = make(chan struct{}, d.parallelism)
	)

	for _, rcpt := range recipients {
		wg.Add(1)
		sem <- struct{}{}
		go func(rcpt Recipient) {
			defer wg.Done()
			defer func() { <-sem }()

			err := d.Send(ctx, rcpt, msg)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
			} else {
				report.Sent++
			}
		}(rcpt)
	}
	wg.Wait()
	return report
}

// Notifier связывает Resolver и Dispatcher: user id -> токены -> рассылка
type Notifier struct {
	resolver   *Resolver
	dispatcher *Dispatcher
}

func NewNotifier(resolver *Resolver, dispatcher *Dispatcher) *Notifier {
	return &Notifier{resolver: resolver, dispatcher: dispatcher}
}

func (n *Notifier) Notify(ctx context.Context, msg models.NotificationMessage, userIDs ...string) Report {
	recipients, skipped := n.resolver.Resolve(ctx, userIDs...)
	for i := 0; i < skipped; i++ {
		middleware.RecordPush(string(msg.Kind), middleware.PushSkipped, "", 0)
	}

	report := n.dispatcher.Fanout(ctx, recipients, msg)
	report.Skipped = skipped
	return report
}
