package services

import (
	"context"

	"socialpush/logger"
	"socialpush/models"

	"go.uber.org/zap"
)

// TokenStore - источник push-токенов. Пустой токен без ошибки означает "доставить некуда".
type TokenStore interface {
	PushToken(ctx context.Context, userID string) (models.PushTarget, error)
}

// Recipient - пользователь, которому можно доставить уведомление
type Recipient struct {
	UserID string
	Target models.PushTarget
}

type Resolver struct {
	tokens TokenStore
}

func NewResolver(tokens TokenStore) *Resolver {
	return &Resolver{tokens: tokens}
}

// Resolve возвращает доставляемых получателей в порядке входа и число пропущенных.
// Ошибка поиска токена пропускает только этого пользователя.
func (r *Resolver) Resolve(ctx context.Context, userIDs ...string) ([]Recipient, int) {
	recipients := make([]Recipient, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	skipped := 0

	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		target, err := r.tokens.PushToken(ctx, id)
		if err != nil {
			logger.Warn("push token lookup failed, skipping recipient", zap.String("user_id", id), zap.Error(err))
			skipped++
			continue
		}
		if target == "" {
			logger.Debug("no push token, skipping recipient", zap.String("user_id", id))
			skipped++
			continue
		}
		recipients = append(recipients, Recipient{UserID: id, Target: target})
	}
	return recipients, skipped
}
