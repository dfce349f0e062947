package treestore

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store used by tests and local development.
// It keeps the tree as nested maps and delivers subscription snapshots
// asynchronously, one goroutine per subscription, coalescing bursts of
// writes into a single snapshot the same way the hosted backend does.
type MemoryStore struct {
	mu        sync.RWMutex
	root      map[string]interface{}
	subs      map[int]*memorySub
	nextSubID int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		root: make(map[string]interface{}),
		subs: make(map[int]*memorySub),
	}
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// getNode walks the tree; returns nil when the path does not exist.
func (s *MemoryStore) getNode(segments []string) interface{} {
	var node interface{} = s.root
	for _, seg := range segments {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil
		}
		node = m[seg]
	}
	return node
}

func (s *MemoryStore) setNode(segments []string, value interface{}) {
	if len(segments) == 0 {
		if m, ok := value.(map[string]interface{}); ok {
			s.root = m
		}
		return
	}
	node := s.root
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			node[seg] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
}

func (s *MemoryStore) deleteNode(segments []string) {
	if len(segments) == 0 {
		s.root = make(map[string]interface{})
		return
	}
	node := s.root
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]interface{})
		if !ok {
			return
		}
		node = child
	}
	delete(node, segments[len(segments)-1])
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, path string, v interface{}) error {
	s.mu.RLock()
	node := s.getNode(splitPath(path))
	s.mu.RUnlock()
	return decodeInto(node, v)
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, path string, v interface{}) error {
	value, err := normalize(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.setNode(splitPath(path), value)
	s.mu.Unlock()
	s.notify(path)
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, path string, values map[string]interface{}) error {
	s.mu.Lock()
	touched := make([]string, 0, len(values))
	for child, v := range values {
		value, err := normalize(v)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		childPath := strings.Trim(path, "/") + "/" + child
		s.setNode(splitPath(childPath), value)
		touched = append(touched, childPath)
	}
	s.mu.Unlock()
	for _, p := range touched {
		s.notify(p)
	}
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	s.deleteNode(splitPath(path))
	s.mu.Unlock()
	s.notify(path)
	return nil
}

// Push implements Store.
func (s *MemoryStore) Push(ctx context.Context, path string, v interface{}) (string, error) {
	key := NewPushID()
	if err := s.Set(ctx, strings.Trim(path, "/")+"/"+key, v); err != nil {
		return "", err
	}
	return key, nil
}

// QueryEqual implements Store.
func (s *MemoryStore) QueryEqual(ctx context.Context, path, child string, value interface{}, v interface{}) error {
	want, err := normalize(value)
	if err != nil {
		return err
	}
	childSegs := splitPath(child)

	s.mu.RLock()
	node, _ := s.getNode(splitPath(path)).(map[string]interface{})
	result := make(map[string]interface{})
	for key, childVal := range node {
		probe := childVal
		for _, seg := range childSegs {
			m, ok := probe.(map[string]interface{})
			if !ok {
				probe = nil
				break
			}
			probe = m[seg]
		}
		if reflect.DeepEqual(probe, want) {
			result[key] = childVal
		}
	}
	s.mu.RUnlock()
	return decodeInto(result, v)
}

type memorySub struct {
	store  *MemoryStore
	id     int
	path   string
	fn     SnapshotFunc
	signal chan struct{}
	quit   chan struct{}
	once   sync.Once
}

// Subscribe implements Store. The callback fires immediately with the
// current value and again after every write touching the subscribed path.
func (s *MemoryStore) Subscribe(ctx context.Context, path string, fn SnapshotFunc) (Subscription, error) {
	sub := &memorySub{
		store:  s,
		path:   strings.Trim(path, "/"),
		fn:     fn,
		signal: make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}
	s.mu.Lock()
	sub.id = s.nextSubID
	s.nextSubID++
	s.subs[sub.id] = sub
	s.mu.Unlock()

	sub.signal <- struct{}{} // initial snapshot
	go sub.run()
	return sub, nil
}

func (sub *memorySub) run() {
	for {
		select {
		case <-sub.quit:
			return
		case <-sub.signal:
			sub.fn(sub.store.snapshotJSON(sub.path))
		}
	}
}

// Close implements Subscription.
func (sub *memorySub) Close() {
	sub.once.Do(func() {
		sub.store.mu.Lock()
		delete(sub.store.subs, sub.id)
		sub.store.mu.Unlock()
		close(sub.quit)
	})
}

func (s *MemoryStore) snapshotJSON(path string) []byte {
	s.mu.RLock()
	node := s.getNode(splitPath(path))
	data, err := json.Marshal(node)
	s.mu.RUnlock()
	if err != nil {
		return []byte("null")
	}
	return data
}

// notify signals every subscription whose path overlaps the written path.
func (s *MemoryStore) notify(path string) {
	path = strings.Trim(path, "/")
	s.mu.RLock()
	for _, sub := range s.subs {
		if pathsOverlap(sub.path, path) {
			select {
			case sub.signal <- struct{}{}:
			default: // a snapshot is already pending; it will see this write
			}
		}
	}
	s.mu.RUnlock()
}

func pathsOverlap(a, b string) bool {
	return a == b || strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}
