package handlers

import (
	"context"
	"net/http"

	"socialpush/logger"
	"socialpush/models"
	"socialpush/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenInvalidator сбрасывает закэшированный push-токен пользователя
type TokenInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// ProfileHandlers синхронизируют профили и дружбу из основного приложения
type ProfileHandlers struct {
	store *services.UserStore
	cache TokenInvalidator
}

func NewProfileHandlers(store *services.UserStore, cache TokenInvalidator) *ProfileHandlers {
	return &ProfileHandlers{store: store, cache: cache}
}

type SaveUserRequest struct {
	Name     string  `json:"name"`
	FCMToken *string `json:"fcm_token"`
}

// SaveUser - PUT /api/v1/users/:id
func (h *ProfileHandlers) SaveUser(c *gin.Context) {
	userID := c.Param("id")
	var req SaveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token := req.FCMToken
	if token != nil && *token == "" {
		token = nil
	}
	user := &models.User{ID: userID, Name: req.Name, FCMToken: token}
	if err := h.store.SaveUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(c.Request.Context(), userID); err != nil {
			logger.Warn("failed to invalidate push token cache", zap.String("user_id", userID), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "user saved"})
}
