package models

import "time"

// Friend - запись о дружбе двух пользователей.
// Сервис уведомлений только проверяет её наличие, создаёт её клиентское приложение при принятии заявки.
type Friend struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"size:128;index:friend_pair_idx,unique" json:"user_id"`
	FriendID  string    `gorm:"size:128;index:friend_pair_idx,unique" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Friend) TableName() string {
	return "friends"
}

// Статусы заявки в друзья
const (
	// FriendRequestPending - заявка создана и ждёт решения получателя
	FriendRequestPending = "pending"
	// FriendRequestSent - копия заявки, которую отслеживает отправитель
	FriendRequestSent = "sent"
)

// FriendRequest - снимок документа заявки в друзья
type FriendRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Status string `json:"status"`
	Name   string `json:"name,omitempty"`
}
