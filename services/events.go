package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"socialpush/api/middleware"
	"socialpush/logger"
	"socialpush/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EntityFriendRequest = "friend_request"
	EntityPlan          = "plan"

	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

var ErrUnknownEvent = errors.New("unknown change event")

// ChangeEvent - снимки документа до и после изменения, как их присылает источник изменений
type ChangeEvent struct {
	ID     string          `json:"id"`
	Entity string          `json:"entity"`
	Type   string          `json:"type"`
	Path   string          `json:"path,omitempty"`
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`
}

// RoutingKey - ключ для topic exchange, например "plan.updated"
func (e *ChangeEvent) RoutingKey() string {
	return e.Entity + "." + e.Type
}

// DecodeChangeEvent разбирает конверт события и проставляет ID, если его нет
func DecodeChangeEvent(body []byte) (*ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode change event: %w", err)
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	return &ev, nil
}

// Router направляет событие нужному обработчику. Обработчики независимы и не хранят состояние.
type Router struct {
	friendRequests *FriendRequestHandler
	attendance     *AttendanceClassifier
	fields         *FieldChangeClassifier
	deletions      *PlanDeletionHandler
}

func NewRouter(friendRequests *FriendRequestHandler, attendance *AttendanceClassifier, fields *FieldChangeClassifier, deletions *PlanDeletionHandler) *Router {
	return &Router{
		friendRequests: friendRequests,
		attendance:     attendance,
		fields:         fields,
		deletions:      deletions,
	}
}

// Route обрабатывает одно событие. Ошибку возвращает только для нераспознанного или битого конверта;
// отсутствие снимка - не ошибка, а пустой Report.
func (r *Router) Route(ctx context.Context, ev *ChangeEvent) (Report, error) {
	report, err := r.route(ctx, ev)

	status := "handled"
	if err != nil {
		status = "invalid"
	} else if report.Attempted == 0 && report.Skipped == 0 {
		status = "ignored"
	}
	middleware.RecordChangeEvent(ev.Entity, ev.Type, status)

	logger.Info("change event processed",
		zap.String("event_id", ev.ID),
		zap.String("entity", ev.Entity),
		zap.String("type", ev.Type),
		zap.String("status", status),
		zap.Int("attempted", report.Attempted),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, err
}

func (r *Router) route(ctx context.Context, ev *ChangeEvent) (Report, error) {
	switch ev.Entity {
	case EntityFriendRequest:
		switch ev.Type {
		case ChangeCreated:
			req, err := decodeSnapshot[models.FriendRequest](ev.After)
			if err != nil || req == nil {
				return Report{}, err
			}
			return r.friendRequests.OnCreated(ctx, req), nil
		case ChangeDeleted:
			req, err := decodeSnapshot[models.FriendRequest](ev.Before)
			if err != nil || req == nil {
				return Report{}, err
			}
			return r.friendRequests.OnDeleted(ctx, req), nil
		case ChangeUpdated:
			return Report{}, nil
		}

	case EntityPlan:
		switch ev.Type {
		case ChangeUpdated:
			before, err := decodeSnapshot[models.Plan](ev.Before)
			if err != nil {
				return Report{}, err
			}
			after, err := decodeSnapshot[models.Plan](ev.After)
			if err != nil {
				return Report{}, err
			}
			if before == nil || after == nil {
				return Report{}, nil
			}
			report := r.attendance.OnUpdated(ctx, before, after)
			report.Add(r.fields.OnUpdated(ctx, before, after))
			return report, nil
		case ChangeDeleted:
			plan, err := decodeSnapshot[models.Plan](ev.Before)
			if err != nil || plan == nil {
				return Report{}, err
			}
			return r.deletions.OnDeleted(ctx, plan), nil
		case ChangeCreated:
			return Report{}, nil
		}
	}

	return Report{}, fmt.Errorf("%w: %s", ErrUnknownEvent, ev.RoutingKey())
}

// decodeSnapshot возвращает nil без ошибки, если снимок отсутствует или равен null
func decodeSnapshot[T any](raw json.RawMessage) (*T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %T snapshot: %w", v, err)
	}
	return &v, nil
}
