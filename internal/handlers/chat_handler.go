package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/anonto42/treegram/backend/internal/bridge"
	"github.com/anonto42/treegram/backend/internal/fanout"
	"github.com/anonto42/treegram/backend/internal/models"
	"github.com/anonto42/treegram/backend/internal/treestore"
	"github.com/anonto42/treegram/backend/internal/ws"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ChatHandler handles chat HTTP requests and the realtime endpoints
type ChatHandler struct {
	writer *fanout.Writer
	store  treestore.Store
	hub    *ws.Hub
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(writer *fanout.Writer, store treestore.Store, hub *ws.Hub) *ChatHandler {
	return &ChatHandler{writer: writer, store: store, hub: hub}
}

// RegisterChatRoutes registers chat-related routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.POST("/chats", h.CreateOrOpenChat)
	g.POST("/chats/:chat_id/messages", h.SendMessage)
	g.GET("/ws", h.StreamUser)
	g.GET("/ws/chats/:chat_id", h.StreamChat)
}

// CreateOrOpenChat returns the chat for the caller and the given user,
// creating it if the pair has none
func (h *ChatHandler) CreateOrOpenChat(c echo.Context) error {
	uid := getUID(c)

	var req models.CreateChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.UserID == uid {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot open a chat with yourself")
	}

	chatID, chat, err := h.writer.CreateOrOpenChat(c.Request().Context(), uid, req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open chat")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"id": chatID, "chat": chat}})
}

// SendMessage sends a message in a chat the caller participates in
func (h *ChatHandler) SendMessage(c echo.Context) error {
	uid := getUID(c)
	chatID := c.Param("chat_id")

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	msgID, chat, err := h.writer.SendMessage(c.Request().Context(), chatID, uid, req.Content)
	if err != nil {
		switch err.Error() {
		case "chat not found":
			return echo.NewHTTPError(http.StatusNotFound, "Chat not found")
		case "not a participant of this chat":
			return echo.NewHTTPError(http.StatusForbidden, "Not a participant of this chat")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to send message")
	}

	// nudge the other side's open sessions; their subscriptions will pull
	// the authoritative state
	event, _ := json.Marshal(echo.Map{"type": "chatUpdated", "chatId": chatID})
	for participant := range chat.Participants {
		if participant != uid {
			h.hub.SendToUser(participant, event)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"id": msgID}})
}

// StreamUser upgrades to a websocket carrying the caller's notification and
// chat-list views, re-sent in full on every change
func (h *ChatHandler) StreamUser(c echo.Context) error {
	uid := getUID(c)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := ws.NewClient(h.hub, conn, uid)
	h.hub.Register <- client
	go client.WritePump()

	notifBridge := bridge.NewNotificationBridge(h.store, uid, func(entries []bridge.NotificationEntry) {
		h.push(client, "notifications", entries)
	})
	chatListBridge := bridge.NewChatListBridge(h.store, uid, func(entries []bridge.ChatEntry) {
		h.push(client, "chats", entries)
	})
	ctx := c.Request().Context()
	if err := notifBridge.Open(ctx); err != nil {
		log.Printf("handlers: notification bridge for %s: %v", uid, err)
	}
	if err := chatListBridge.Open(ctx); err != nil {
		log.Printf("handlers: chat list bridge for %s: %v", uid, err)
	}

	client.ReadPump() // blocks until disconnect
	notifBridge.Close()
	chatListBridge.Close()
	return nil
}

// StreamChat upgrades to a websocket carrying one chat's message view.
// Opening the stream marks the chat read for the caller.
func (h *ChatHandler) StreamChat(c echo.Context) error {
	uid := getUID(c)
	chatID := c.Param("chat_id")

	var chat models.Chat
	if err := h.store.Get(c.Request().Context(), treestore.ChatPath(chatID), &chat); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open chat")
	}
	if len(chat.Participants) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Chat not found")
	}
	if !chat.HasParticipant(uid) {
		return echo.NewHTTPError(http.StatusForbidden, "Not a participant of this chat")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := ws.NewClient(h.hub, conn, uid)
	h.hub.Register <- client
	go client.WritePump()

	chatBridge := bridge.NewChatBridge(h.store, uid, chatID, func(view bridge.ChatView) {
		h.push(client, "messages", view)
	})
	if err := chatBridge.Open(c.Request().Context()); err != nil {
		log.Printf("handlers: chat bridge for %s/%s: %v", uid, chatID, err)
	}

	client.ReadPump()
	chatBridge.Close()
	return nil
}

func (h *ChatHandler) push(client *ws.Client, eventType string, data interface{}) {
	payload, err := json.Marshal(echo.Map{"type": eventType, "data": data})
	if err != nil {
		log.Printf("handlers: failed to encode %s event: %v", eventType, err)
		return
	}
	select {
	case client.Send <- payload:
	default: // slow consumer, drop the event; the next snapshot supersedes it
	}
}
