package services

import (
	"context"
	"fmt"

	"socialpush/logger"
	"socialpush/models"

	"go.uber.org/zap"
)

// FriendshipStore проверяет, существует ли дружба между двумя пользователями (в любом направлении)
type FriendshipStore interface {
	FriendshipExists(ctx context.Context, userA, userB string) (bool, error)
}

// ProfileStore возвращает отображаемое имя пользователя; пустая строка, если имени нет
type ProfileStore interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

const fallbackUserName = "Alguien"

// FriendRequestHandler реагирует на создание и удаление заявок в друзья
type FriendRequestHandler struct {
	notifier    *Notifier
	friendships FriendshipStore
	profiles    ProfileStore
}

func NewFriendRequestHandler(notifier *Notifier, friendships FriendshipStore, profiles ProfileStore) *FriendRequestHandler {
	return &FriendRequestHandler{notifier: notifier, friendships: friendships, profiles: profiles}
}

// OnCreated - новая заявка: уведомляем получателя. Заявки не в статусе pending игнорируются.
func (h *FriendRequestHandler) OnCreated(ctx context.Context, req *models.FriendRequest) Report {
	if req == nil || req.Status != models.FriendRequestPending || req.To == "" {
		return Report{}
	}

	name := req.Name
	if name == "" {
		name = displayName(ctx, h.profiles, req.From)
	}

	msg := models.NotificationMessage{
		Kind:  models.KindFriendRequest,
		Title: "Nueva solicitud de amistad",
		Body:  fmt.Sprintf("%s te ha enviado una solicitud de amistad", name),
		Data:  map[string]string{"from": req.From, "to": req.To},
	}
	return h.notifier.Notify(ctx, msg, req.To)
}

// OnDeleted - заявка удалена. Только копия со статусом sent говорит о решении получателя:
// если дружба появилась, заявку приняли, иначе отклонили.
func (h *FriendRequestHandler) OnDeleted(ctx context.Context, req *models.FriendRequest) Report {
	if req == nil || req.Status != models.FriendRequestSent || req.From == "" {
		return Report{}
	}

	accepted, err := h.friendships.FriendshipExists(ctx, req.From, req.To)
	if err != nil {
		logger.Error("friendship lookup failed, dropping event",
			zap.String("from", req.From),
			zap.String("to", req.To),
			zap.Error(err),
		)
		return Report{}
	}

	name := displayName(ctx, h.profiles, req.To)
	msg := models.NotificationMessage{
		Kind:  models.KindFriendRejected,
		Title: "Solicitud rechazada",
		Body:  fmt.Sprintf("%s rechazó tu solicitud de amistad", name),
		Data:  map[string]string{"from": req.From, "to": req.To},
	}
	if accepted {
		msg.Kind = models.KindFriendAccepted
		msg.Title = "Solicitud aceptada"
		msg.Body = fmt.Sprintf("%s aceptó tu solicitud de amistad", name)
	}
	return h.notifier.Notify(ctx, msg, req.From)
}

func displayName(ctx context.Context, profiles ProfileStore, userID string) string {
	if profiles == nil || userID == "" {
		return fallbackUserName
	}
	name, err := profiles.DisplayName(ctx, userID)
	if err != nil {
		logger.Warn("display name lookup failed", zap.String("user_id", userID), zap.Error(err))
		return fallbackUserName
	}
	if name == "" {
		return fallbackUserName
	}
	return name
}
