package treestore

import (
	"context"
	"encoding/json"
)

// SnapshotFunc receives the entire JSON-encoded value at a subscribed path.
// It is invoked once with the current value when the subscription becomes
// active and again after every change under the path. A missing path is
// delivered as JSON null.
type SnapshotFunc func(data []byte)

// Subscription is an active listener on a path. Close detaches the listener;
// it does not cancel reads already in flight.
type Subscription interface {
	Close()
}

// Store is the contract of the external tree database: path-addressed
// reads and writes with server-side last-write-wins per path, push-generated
// time-ordered keys, value-equality queries over child paths, and full-value
// change subscriptions. The backend enforces no cross-path invariants;
// callers maintain denormalized counters and indices themselves.
type Store interface {
	// Get unmarshals the value at path into v. A missing path leaves v
	// unmodified (the backend returns null), it is not an error.
	Get(ctx context.Context, path string, v interface{}) error

	// Set writes v at path, replacing any existing value.
	Set(ctx context.Context, path string, v interface{}) error

	// Update applies each entry as a write of a child path relative to path.
	Update(ctx context.Context, path string, values map[string]interface{}) error

	// Delete removes the value at path and everything under it.
	Delete(ctx context.Context, path string) error

	// Push writes v under a newly generated child key of path and returns
	// the key. Keys are globally unique and lexicographically time-ordered.
	Push(ctx context.Context, path string, v interface{}) (string, error)

	// QueryEqual reads the children of path whose value at the given child
	// path equals value, unmarshalling the matching children into v as a
	// map keyed by child key.
	QueryEqual(ctx context.Context, path, child string, value interface{}, v interface{}) error

	// Subscribe registers fn for full-value snapshots of path until the
	// returned subscription is closed.
	Subscribe(ctx context.Context, path string, fn SnapshotFunc) (Subscription, error)
}

// normalize round-trips v through JSON so every backend stores the same
// shapes (map[string]interface{}, []interface{}, float64, string, bool).
func normalize(v interface{}) (interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeInto copies a normalized value into a typed destination.
func decodeInto(src interface{}, dst interface{}) error {
	if src == nil {
		return nil
	}
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
