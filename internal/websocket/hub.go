package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"duel-service/internal/constants"
	"duel-service/internal/game"

	"go.uber.org/zap"
)

const engineCallTimeout = 10 * time.Second

type ClientMessage struct {
	Client  *Client
	Message InboundMessage
}

// Hub is the presence router: it maps authenticated users to their live
// connections and sessions to their broadcast groups, and dispatches inbound
// game messages to the engine. Delivery is at-most-once per connection with
// no queued replay for offline users.
type Hub struct {
	clients  map[string]map[*Client]bool // userID -> connections
	sessions map[string]map[string]bool  // sessionID -> participant userIDs

	Register      chan *Client
	Unregister    chan *Client
	HandleMessage chan *ClientMessage

	engine *game.Engine
	logger *zap.Logger

	mu sync.RWMutex
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:       make(map[string]map[*Client]bool),
		sessions:      make(map[string]map[string]bool),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		HandleMessage: make(chan *ClientMessage),
		logger:        logger,
	}
}

// SetEngine breaks the construction cycle: the engine needs the hub as its
// notifier before the hub can dispatch to it.
func (h *Hub) SetEngine(engine *game.Engine) {
	h.engine = engine
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case clientMsg := <-h.HandleMessage:
			h.dispatch(clientMsg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true

	h.logger.Info("client connected",
		zap.String("user_id", client.UserID),
		zap.Int("connections", len(h.clients[client.UserID])))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.UserID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	client.CloseSend()
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}

	// Disconnection is not a forfeit: the session keeps running and missing
	// answers resolve through the timeout path. game:leave is the explicit
	// way out.
	h.logger.Info("client disconnected", zap.String("user_id", client.UserID))
}

// dispatch routes one inbound message to the engine. Engine calls run off the
// hub goroutine so a slow session cannot stall every other connection.
func (h *Hub) dispatch(clientMsg *ClientMessage) {
	client := clientMsg.Client
	msg := clientMsg.Message

	switch msg.Type {
	case constants.EventCreate:
		var p CreatePayload
		h.withPayload(client, msg.Payload, &p, func(ctx context.Context) error {
			_, err := h.engine.CreateGame(ctx, client.UserID, game.CreateParams{
				HostName:   client.Username,
				GuestID:    p.GuestID,
				Topic:      p.Topic,
				Difficulty: p.Difficulty,
				Rounds:     p.Rounds,
			})
			return err
		})

	case constants.EventAccept:
		var p AcceptPayload
		h.withPayload(client, msg.Payload, &p, func(ctx context.Context) error {
			return h.engine.AcceptGame(ctx, p.SessionID, client.UserID)
		})

	case constants.EventDecline:
		var p DeclinePayload
		h.withPayload(client, msg.Payload, &p, func(ctx context.Context) error {
			return h.engine.DeclineGame(ctx, p.SessionID, client.UserID)
		})

	case constants.EventAnswer:
		var p AnswerPayload
		h.withPayload(client, msg.Payload, &p, func(ctx context.Context) error {
			if p.Answer == "" {
				return game.ErrEmptyAnswer
			}
			return h.engine.SubmitAnswer(ctx, p.SessionID, client.UserID, p.Answer)
		})

	case constants.EventLeave:
		var p LeavePayload
		h.withPayload(client, msg.Payload, &p, func(ctx context.Context) error {
			return h.engine.LeaveGame(ctx, p.SessionID, client.UserID)
		})

	case MessageTypePing:
		client.SendMessage(MessageTypePong, nil)

	default:
		client.SendError(fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

// withPayload decodes the payload and runs the engine call in its own
// goroutine. Rejections go back to the originating client only; the opponent
// never sees the other side's failed attempts.
func (h *Hub) withPayload(client *Client, raw json.RawMessage, payload any, call func(ctx context.Context) error) {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, payload); err != nil {
			client.SendError("invalid payload")
			return
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), engineCallTimeout)
		defer cancel()

		if err := call(ctx); err != nil {
			h.logger.Debug("engine rejected operation",
				zap.String("user_id", client.UserID),
				zap.Error(err))
			client.SendError(game.UserMessage(err))
		}
	}()
}

// SendToUser delivers an event to every live connection of one user. If the
// user is offline the event is simply not received.
func (h *Hub) SendToUser(userID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		client.SendMessage(event, payload)
	}
}

// SendToSession broadcasts an event to all participants of a session group.
func (h *Hub) SendToSession(sessionID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID := range h.sessions[sessionID] {
		for client := range h.clients[userID] {
			client.SendMessage(event, payload)
		}
	}
}

// JoinSession adds users to a session's broadcast group. Membership is by
// user id, so it survives individual reconnects.
func (h *Hub) JoinSession(sessionID string, userIDs ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[string]bool)
	}
	for _, userID := range userIDs {
		h.sessions[sessionID][userID] = true
	}
}

// ReleaseSession drops a session's broadcast group after a terminal
// transition.
func (h *Hub) ReleaseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, sessionID)
}

func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}
