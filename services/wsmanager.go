package services

import (
	"sync"

	"github.com/gorilla/websocket"
)

// wsClient сериализует запись: gorilla/websocket не допускает параллельных писателей
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) write(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// WSConnManager хранит открытые сокеты устройств по push-токену
type WSConnManager struct {
	mu      sync.RWMutex
	devices map[string][]*wsClient
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{
		devices: make(map[string][]*wsClient),
	}
}

func (m *WSConnManager) Add(token string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[token] = append(m.devices[token], &wsClient{conn: conn})
}

func (m *WSConnManager) Remove(token string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clients := m.devices[token]
	for i, c := range clients {
		if c.conn == conn {
			m.devices[token] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(m.devices[token]) == 0 {
		delete(m.devices, token)
	}
}

// Send пишет сообщение во все сокеты токена и возвращает число успешных записей
func (m *WSConnManager) Send(token string, message []byte) int {
	m.mu.RLock()
	clients := append([]*wsClient(nil), m.devices[token]...)
	m.mu.RUnlock()

	delivered := 0
	for _, c := range clients {
		if err := c.write(message); err == nil {
			delivered++
		}
	}
	return delivered
}

func (m *WSConnManager) Connected(token string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.devices[token])
}

var GlobalWSConnManager = NewWSConnManager()
