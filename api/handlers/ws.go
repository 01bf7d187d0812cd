package handlers

import (
	"net/http"

	"socialpush/logger"
	"socialpush/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSDeviceHandler - GET /ws?token=..., устройство держит сокет и получает push по своему токену
func WSDeviceHandler(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	services.GlobalWSConnManager.Add(token, conn)
	defer services.GlobalWSConnManager.Remove(token, conn)

	if n := services.GlobalWSConnManager.Send(token, []byte(`{"event":"connected"}`)); n == 0 {
		return
	}

	// входящие сообщения не ожидаются, читаем только чтобы заметить закрытие
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logger.Debug("WebSocket closed", zap.Error(err))
			return
		}
	}
}
