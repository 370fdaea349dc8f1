package models

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection. A client only receives events for
// user IDs it has subscribed to (its own, in practice).
type Client struct {
	ID           string
	Conn         *websocket.Conn
	Send         chan *AlertEvent
	Users        map[string]bool
	UsersMu      sync.RWMutex
	CloseHandler func()
}

func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:    id,
		Conn:  conn,
		Send:  make(chan *AlertEvent, 256),
		Users: make(map[string]bool),
	}
}

func (c *Client) Subscribe(userID string) {
	c.UsersMu.Lock()
	c.Users[userID] = true
	c.UsersMu.Unlock()
}

func (c *Client) Unsubscribe(userID string) {
	c.UsersMu.Lock()
	delete(c.Users, userID)
	c.UsersMu.Unlock()
}

func (c *Client) IsSubscribed(userID string) bool {
	c.UsersMu.RLock()
	defer c.UsersMu.RUnlock()
	return c.Users[userID]
}

func (c *Client) Close() {
	if c.CloseHandler != nil {
		c.CloseHandler()
	}
	c.Conn.Close()
}

type SocketMessage struct {
	Action string `json:"action"`
	UserID string `json:"user_id"`
}

type SubscriptionResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Users   []string `json:"users,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
