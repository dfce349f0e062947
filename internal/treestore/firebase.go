package treestore

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"firebase.google.com/go/v4/db"
)

// DefaultPollInterval is how often Firebase subscriptions re-read their
// path. The Admin SDK has no streaming listener, so Subscribe polls and
// delivers a snapshot whenever the value differs from the previous one.
const DefaultPollInterval = 2 * time.Second

// FirebaseStore implements Store on the Firebase Realtime Database.
type FirebaseStore struct {
	client       *db.Client
	pollInterval time.Duration
}

// NewFirebaseStore creates a FirebaseStore. A non-positive pollInterval
// falls back to DefaultPollInterval.
func NewFirebaseStore(client *db.Client, pollInterval time.Duration) *FirebaseStore {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &FirebaseStore{client: client, pollInterval: pollInterval}
}

// Get implements Store.
func (s *FirebaseStore) Get(ctx context.Context, path string, v interface{}) error {
	return s.client.NewRef(path).Get(ctx, v)
}

// Set implements Store.
func (s *FirebaseStore) Set(ctx context.Context, path string, v interface{}) error {
	return s.client.NewRef(path).Set(ctx, v)
}

// Update implements Store.
func (s *FirebaseStore) Update(ctx context.Context, path string, values map[string]interface{}) error {
	return s.client.NewRef(path).Update(ctx, values)
}

// Delete implements Store.
func (s *FirebaseStore) Delete(ctx context.Context, path string) error {
	return s.client.NewRef(path).Delete(ctx)
}

// Push implements Store.
func (s *FirebaseStore) Push(ctx context.Context, path string, v interface{}) (string, error) {
	ref, err := s.client.NewRef(path).Push(ctx, v)
	if err != nil {
		return "", err
	}
	return ref.Key, nil
}

// QueryEqual implements Store using orderByChild + equalTo.
func (s *FirebaseStore) QueryEqual(ctx context.Context, path, child string, value interface{}, v interface{}) error {
	return s.client.NewRef(path).OrderByChild(child).EqualTo(value).Get(ctx, v)
}

type firebaseSub struct {
	cancel context.CancelFunc
	once   sync.Once
}

// Close implements Subscription.
func (sub *firebaseSub) Close() {
	sub.once.Do(sub.cancel)
}

// Subscribe implements Store by polling the path and invoking fn whenever
// the serialized value changes, plus once with the initial value.
func (s *FirebaseStore) Subscribe(ctx context.Context, path string, fn SnapshotFunc) (Subscription, error) {
	subCtx, cancel := context.WithCancel(context.Background())
	sub := &firebaseSub{cancel: cancel}

	go func() {
		var last []byte
		first := true
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			var raw json.RawMessage
			if err := s.client.NewRef(path).Get(subCtx, &raw); err != nil {
				if subCtx.Err() != nil {
					return
				}
				log.Printf("treestore: poll of %s failed: %v", path, err)
			} else if first || !bytes.Equal(raw, last) {
				first = false
				last = raw
				fn(raw)
			}
			select {
			case <-subCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return sub, nil
}
