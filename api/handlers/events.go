package handlers

import (
	"errors"
	"io"
	"net/http"

	"socialpush/services"

	"github.com/gin-gonic/gin"
)

// EventHandlers - webhook для источников изменений, которые не умеют AMQP/Redis
type EventHandlers struct {
	router *services.Router
}

func NewEventHandlers(router *services.Router) *EventHandlers {
	return &EventHandlers{router: router}
}

// Ingest - POST /api/v1/events, возвращает итог рассылки
func (h *EventHandlers) Ingest(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ev, err := services.DecodeChangeEvent(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid change event"})
		return
	}

	report, err := h.router.Route(c.Request.Context(), ev)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, services.ErrUnknownEvent) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error(), "event_id": ev.ID})
		return
	}

	c.JSON(http.StatusOK, gin.H{"event_id": ev.ID, "report": report})
}

// QueueStats - GET /api/v1/queue/stats, длина очереди Redis и число воркеров
func QueueStats(queue *services.QueueService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, queue.GetStats(c.Request.Context()))
	}
}
