package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AddFriend - POST /api/v1/friends, записывает дружбу, по которой различаются принятые и отклонённые заявки
func (h *ProfileHandlers) AddFriend(c *gin.Context) {
	type req struct {
		UserID   string `json:"user_id" binding:"required"`
		FriendID string `json:"friend_id" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if r.UserID == r.FriendID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot add yourself as friend"})
		return
	}
	if err := h.store.AddFriendship(c.Request.Context(), r.UserID, r.FriendID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "friendship saved"})
}

// FriendshipExists - GET /api/v1/friends/exists?user_id=&friend_id=
func (h *ProfileHandlers) FriendshipExists(c *gin.Context) {
	userID, friendID := c.Query("user_id"), c.Query("friend_id")
	if userID == "" || friendID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and friend_id are required"})
		return
	}
	exists, err := h.store.FriendshipExists(c.Request.Context(), userID, friendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}
