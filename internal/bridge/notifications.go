package bridge

import (
	"context"
	"encoding/json"
	"log"
	"sort"

	"github.com/anonto42/treegram/backend/internal/models"
	"github.com/anonto42/treegram/backend/internal/treestore"
)

// NotificationEntry is a notification with its push key attached.
type NotificationEntry struct {
	ID string `json:"id"`
	models.Notification
}

// NotificationBridge mirrors notifications/{uid}, newest first.
type NotificationBridge struct {
	lifecycle
	store    treestore.Store
	viewerID string
	onUpdate func([]NotificationEntry)
}

// NewNotificationBridge creates a NotificationBridge.
func NewNotificationBridge(store treestore.Store, viewerID string, onUpdate func([]NotificationEntry)) *NotificationBridge {
	return &NotificationBridge{store: store, viewerID: viewerID, onUpdate: onUpdate}
}

// Open subscribes to the viewer's notification list.
func (b *NotificationBridge) Open(ctx context.Context) error {
	if err := b.begin(); err != nil {
		return err
	}
	sub, err := b.store.Subscribe(ctx, treestore.NotificationsPath(b.viewerID), b.handleSnapshot)
	return b.activate(sub, err)
}

func (b *NotificationBridge) handleSnapshot(data []byte) {
	var byID map[string]models.Notification
	if err := json.Unmarshal(data, &byID); err != nil {
		log.Printf("bridge: bad notification snapshot for %s: %v", b.viewerID, err)
		return
	}
	entries := make([]NotificationEntry, 0, len(byID))
	for id, n := range byID {
		entries = append(entries, NotificationEntry{ID: id, Notification: n})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if b.onUpdate != nil {
		b.onUpdate(entries)
	}
}
