package bridge

import (
	"context"
	"encoding/json"
	"log"
	"sort"

	"github.com/anonto42/treegram/backend/internal/models"
	"github.com/anonto42/treegram/backend/internal/treestore"
)

// ChatEntry is a chat the viewer participates in, with the other
// participant's profile resolved for display.
type ChatEntry struct {
	ID string `json:"id"`
	models.Chat
	Other models.UserCompact `json:"other"`
}

// ChatListBridge mirrors the chat index into the viewer's chat list. The
// subscription covers the whole index; the participant filter is applied
// per snapshot. Profiles of counterparts are resolved once and cached for
// the bridge's lifetime.
type ChatListBridge struct {
	lifecycle
	store    treestore.Store
	viewerID string
	onUpdate func([]ChatEntry)
	profiles map[string]models.UserCompact // touched only by the snapshot goroutine
}

// NewChatListBridge creates a ChatListBridge.
func NewChatListBridge(store treestore.Store, viewerID string, onUpdate func([]ChatEntry)) *ChatListBridge {
	return &ChatListBridge{
		store:    store,
		viewerID: viewerID,
		onUpdate: onUpdate,
		profiles: make(map[string]models.UserCompact),
	}
}

// Open subscribes to the chat index.
func (b *ChatListBridge) Open(ctx context.Context) error {
	if err := b.begin(); err != nil {
		return err
	}
	sub, err := b.store.Subscribe(ctx, treestore.ChatsPath(), b.handleSnapshot)
	return b.activate(sub, err)
}

func (b *ChatListBridge) handleSnapshot(data []byte) {
	var byID map[string]models.Chat
	if err := json.Unmarshal(data, &byID); err != nil {
		log.Printf("bridge: bad chat index snapshot: %v", err)
		return
	}

	ctx := context.Background()
	entries := make([]ChatEntry, 0, len(byID))
	for id, chat := range byID {
		if !chat.HasParticipant(b.viewerID) {
			continue
		}
		entries = append(entries, ChatEntry{ID: id, Chat: chat, Other: b.otherProfile(ctx, chat)})
	}
	// most recent activity first
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastMessageTimestamp.After(entries[j].LastMessageTimestamp)
	})

	if b.onUpdate != nil {
		b.onUpdate(entries)
	}
}

func (b *ChatListBridge) otherProfile(ctx context.Context, chat models.Chat) models.UserCompact {
	for uid := range chat.Participants {
		if uid == b.viewerID {
			continue
		}
		if profile, ok := b.profiles[uid]; ok {
			return profile
		}
		var user models.User
		if err := b.store.Get(ctx, treestore.UserPath(uid), &user); err != nil {
			log.Printf("bridge: failed to resolve chat participant %s: %v", uid, err)
			return models.UserCompact{UID: uid}
		}
		profile := user.ToCompact()
		if profile.UID == "" {
			profile.UID = uid
		}
		b.profiles[uid] = profile
		return profile
	}
	return models.UserCompact{}
}
