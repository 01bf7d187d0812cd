package models

// PushTarget - непрозрачный токен доставки (FCM token и т.п.)
type PushTarget string

// NotificationKind - тип уведомления, используется для метрик и routing key
type NotificationKind string

const (
	KindFriendRequest  NotificationKind = "friend_request"
	KindFriendAccepted NotificationKind = "friend_accepted"
	KindFriendRejected NotificationKind = "friend_rejected"
	KindPlanJoined     NotificationKind = "plan_joined"
	KindPlanLeft       NotificationKind = "plan_left"
	KindFieldFinalized NotificationKind = "plan_field_finalized"
	KindFieldReopened  NotificationKind = "plan_field_reopened"
	KindFieldUpdated   NotificationKind = "plan_field_updated"
	KindPlanCancelled  NotificationKind = "plan_cancelled"
)

// NotificationMessage - сообщение, всегда адресованное одному получателю
type NotificationMessage struct {
	Kind  NotificationKind  `json:"kind"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}
