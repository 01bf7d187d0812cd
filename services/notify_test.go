package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"socialpush/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startDeviceServer поднимает WS-сервер, который регистрирует сокеты в manager по ?token=
func startDeviceServer(t *testing.T, manager *WSConnManager) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		token := r.URL.Query().Get("token")
		manager.Add(token, conn)
		defer manager.Remove(token, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialDevice(t *testing.T, url, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"/?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWSPusherDeliversToDevice(t *testing.T) {
	manager := NewWSConnManager()
	url := startDeviceServer(t, manager)
	conn := dialDevice(t, url, "device-1")
	require.Eventually(t, func() bool { return manager.Connected("device-1") == 1 }, 2*time.Second, 10*time.Millisecond)

	pusher := NewWSPusher(manager)
	err := pusher.Push(context.Background(), "device-1", models.NotificationMessage{
		Kind:  models.KindPlanCancelled,
		Title: "Plan cancelado",
		Body:  "Ana canceló \"Asado\"",
		Data:  map[string]string{"planId": "p1"},
	})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var payload NotifyPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "notification", payload.Event)
	assert.Equal(t, string(models.KindPlanCancelled), payload.Kind)
	assert.Equal(t, "Plan cancelado", payload.Title)
	assert.Equal(t, "p1", payload.Data["planId"])
}

func TestWSPusherOfflineTarget(t *testing.T) {
	pusher := NewWSPusher(NewWSConnManager())
	err := pusher.Push(context.Background(), "nobody", models.NotificationMessage{Title: "x"})
	assert.ErrorIs(t, err, ErrTargetOffline)
	assert.Equal(t, "ws", pusher.Driver())
}

func TestWSConnManagerRemove(t *testing.T) {
	manager := NewWSConnManager()
	url := startDeviceServer(t, manager)
	conn := dialDevice(t, url, "device-2")
	require.Eventually(t, func() bool { return manager.Connected("device-2") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return manager.Connected("device-2") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestTruncateBody(t *testing.T) {
	assert.Equal(t, "corto", truncateBody("corto"))

	long := strings.Repeat("ñ", 150)
	got := truncateBody(long)
	assert.Equal(t, strings.Repeat("ñ", 100)+"...", got)
}
