package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"sus-party/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 5 * time.Second
	maxInboundSize = 4096
)

var errNotConnected = errors.New("player is not connected")

type frame struct {
	Type    string     `json:"type"`
	Ref     string     `json:"ref,omitempty"`
	Text    string     `json:"text,omitempty"`
	Menu    [][]button `json:"menu,omitempty"`
	Address string     `json:"address,omitempty"`
}

type button struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// inbound is what a browser sends: either a button action or a photo
// confirmation for a task or a sabotage repair.
type inbound struct {
	Action  string `json:"action"`
	Confirm string `json:"confirm"`
	Photo   string `json:"photo"`
}

type wsClient struct {
	address string
	user    game.UserID
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) write(ctx context.Context, payload frame) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// wsHub is the websocket Messenger. Every connection gets its own address;
// a user is reachable at their most recent connection.
type wsHub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[string]*wsClient
	users   map[game.UserID]string
}

func newWSHub(logger *zap.Logger) *wsHub {
	return &wsHub{
		logger:  logger,
		clients: make(map[string]*wsClient),
		users:   make(map[game.UserID]string),
	}
}

func (h *wsHub) Add(user game.UserID, conn *websocket.Conn) *wsClient {
	client := &wsClient{address: uuid.NewString(), user: user, conn: conn}
	h.mu.Lock()
	previous := h.clients[h.users[user]]
	h.clients[client.address] = client
	h.users[user] = client.address
	h.mu.Unlock()
	if previous != nil {
		h.Remove(previous)
	}
	return client
}

func (h *wsHub) Remove(client *wsClient) {
	h.mu.Lock()
	delete(h.clients, client.address)
	if h.users[client.user] == client.address {
		delete(h.users, client.user)
	}
	h.mu.Unlock()
	_ = client.conn.Close()
}

// addressOf returns the address user is connected at, or "".
func (h *wsHub) addressOf(user game.UserID) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.users[user]
}

func (h *wsHub) lookup(to game.Recipient) (*wsClient, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[to.Address]; ok {
		return client, nil
	}
	if client, ok := h.clients[h.users[to.User]]; ok {
		return client, nil
	}
	return nil, errNotConnected
}

func (h *wsHub) SendMessage(ctx context.Context, to game.Recipient, text string, menu *game.Menu) (game.MessageRef, error) {
	client, err := h.lookup(to)
	if err != nil {
		return "", err
	}
	ref := uuid.NewString()
	payload := frame{Type: "message", Ref: ref, Text: text, Menu: toButtons(menu)}
	if err := client.write(ctx, payload); err != nil {
		h.Remove(client)
		return "", err
	}
	return game.MessageRef(ref), nil
}

func (h *wsHub) EditMessageText(ctx context.Context, to game.Recipient, ref game.MessageRef, text string) error {
	client, err := h.lookup(to)
	if err != nil {
		return err
	}
	if err := client.write(ctx, frame{Type: "edit", Ref: string(ref), Text: text}); err != nil {
		h.Remove(client)
		return err
	}
	return nil
}

func (h *wsHub) DeleteMessage(ctx context.Context, to game.Recipient, ref game.MessageRef) error {
	client, err := h.lookup(to)
	if err != nil {
		return err
	}
	if err := client.write(ctx, frame{Type: "delete", Ref: string(ref)}); err != nil {
		h.Remove(client)
		return err
	}
	return nil
}

func toButtons(menu *game.Menu) [][]button {
	if menu == nil {
		return nil
	}
	rows := make([][]button, 0, len(menu.Rows))
	for _, row := range menu.Rows {
		line := make([]button, 0, len(row))
		for _, b := range row {
			line = append(line, button{Label: b.Label, Action: b.Action})
		}
		rows = append(rows, line)
	}
	return rows
}

func (s *Server) handleWebsocket(c *gin.Context) {
	raw := c.Query("user_id")
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	user := game.UserID(value)
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := s.hub.Add(user, conn)
	s.logger.Info("ws connected", zap.Stringer("user", user), zap.String("address", client.address), zap.String("remote", c.Request.RemoteAddr))
	_ = client.write(context.Background(), frame{Type: "hello", Address: client.address})
	s.registry.Bind(user, client.address)
	go s.readWS(client)
}

func (s *Server) readWS(client *wsClient) {
	defer s.hub.Remove(client)
	client.conn.SetReadLimit(maxInboundSize)
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			s.logger.Debug("ws disconnected", zap.Stringer("user", client.user), zap.Error(err))
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("ws frame ignored", zap.Stringer("user", client.user), zap.Error(err))
			continue
		}
		s.route(client.user, msg)
	}
}

func (s *Server) route(user game.UserID, msg inbound) {
	switch {
	case msg.Action != "":
		s.registry.Submit(user, msg.Action)
	case msg.Confirm == "task":
		s.registry.ConfirmTaskPhoto(user, msg.Photo)
	case msg.Confirm == "sabotage":
		s.registry.ConfirmSabotagePhoto(user, msg.Photo)
	default:
		s.logger.Warn("ws frame ignored", zap.Stringer("user", user), zap.String("confirm", msg.Confirm))
	}
}
