package services

import (
	"context"
	"encoding/json"
	"errors"
	"unicode/utf8"

	"socialpush/models"
)

var ErrTargetOffline = errors.New("push target has no live connection")

const maxBodyRunes = 100

type NotifyPayload struct {
	Event string            `json:"event"`
	Kind  string            `json:"kind"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// WSPusher доставляет уведомления в открытые WebSocket-сокеты устройств
type WSPusher struct {
	manager *WSConnManager
}

func NewWSPusher(manager *WSConnManager) *WSPusher {
	if manager == nil {
		manager = GlobalWSConnManager
	}
	return &WSPusher{manager: manager}
}

func (p *WSPusher) Driver() string { return "ws" }

func (p *WSPusher) Push(_ context.Context, target models.PushTarget, msg models.NotificationMessage) error {
	payload := NotifyPayload{
		Event: "notification",
		Kind:  string(msg.Kind),
		Title: msg.Title,
		Body:  truncateBody(msg.Body),
		Data:  msg.Data,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if p.manager.Send(string(target), data) == 0 {
		return ErrTargetOffline
	}
	return nil
}

func truncateBody(body string) string {
	if utf8.RuneCountInString(body) <= maxBodyRunes {
		return body
	}
	return string([]rune(body)[:maxBodyRunes]) + "..."
}
