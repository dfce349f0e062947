package bridge

import (
	"context"
	"encoding/json"
	"log"
	"sort"

	"github.com/anonto42/treegram/backend/internal/models"
	"github.com/anonto42/treegram/backend/internal/treestore"
)

// MessageEntry is a message with its push key attached.
type MessageEntry struct {
	ID string `json:"id"`
	models.Message
}

// ChatView is the state a chat screen renders: the full message list,
// rebuilt from every snapshot, in push-key (chronological) order.
type ChatView struct {
	ChatID   string         `json:"chatId"`
	Messages []MessageEntry `json:"messages"`
}

// ChatBridge mirrors messages/{chatId} into a ChatView for one viewer.
// Merely viewing has write side effects: every snapshot marks messages
// addressed to the viewer as read and resets their unread counter, which is
// idempotent, so a re-delivered snapshot with no new messages writes
// nothing further.
type ChatBridge struct {
	lifecycle
	store    treestore.Store
	viewerID string
	chatID   string
	onUpdate func(ChatView)
}

// NewChatBridge creates a ChatBridge; onUpdate receives a ChatView after
// every snapshot.
func NewChatBridge(store treestore.Store, viewerID, chatID string, onUpdate func(ChatView)) *ChatBridge {
	return &ChatBridge{store: store, viewerID: viewerID, chatID: chatID, onUpdate: onUpdate}
}

// Open subscribes to the chat's message list. The first snapshot arrives
// with the current value.
func (b *ChatBridge) Open(ctx context.Context) error {
	if err := b.begin(); err != nil {
		return err
	}
	sub, err := b.store.Subscribe(ctx, treestore.MessagesPath(b.chatID), b.handleSnapshot)
	return b.activate(sub, err)
}

func (b *ChatBridge) handleSnapshot(data []byte) {
	var byID map[string]models.Message
	if err := json.Unmarshal(data, &byID); err != nil {
		log.Printf("bridge: bad message snapshot for chat %s: %v", b.chatID, err)
		return
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids) // push keys are time-ordered

	ctx := context.Background()
	entries := make([]MessageEntry, 0, len(byID))
	marked := false
	for _, id := range ids {
		msg := byID[id]
		if msg.SenderID != b.viewerID && !msg.Read[b.viewerID] {
			err := b.store.Set(ctx, treestore.MessageReadPath(b.chatID, id, b.viewerID), true)
			if err != nil {
				log.Printf("bridge: failed to mark message %s read: %v", id, err)
			} else {
				marked = true
				if msg.Read == nil {
					msg.Read = make(map[string]bool)
				}
				msg.Read[b.viewerID] = true
			}
		}
		entries = append(entries, MessageEntry{ID: id, Message: msg})
	}
	if marked {
		err := b.store.Set(ctx, treestore.ChatUnreadCountPath(b.chatID, b.viewerID), 0)
		if err != nil {
			log.Printf("bridge: failed to reset unread count for chat %s: %v", b.chatID, err)
		}
	}

	if b.onUpdate != nil {
		b.onUpdate(ChatView{ChatID: b.chatID, Messages: entries})
	}
}
