// Package bridge keeps local view state synchronized with remote paths for
// as long as a view is active. Each bridge owns one subscription and walks
// the state machine Unsubscribed -> Subscribing -> Active -> Unsubscribed;
// Active is re-entered on every snapshot. Consistency is whatever the store
// delivers: snapshots eventually reflect the last accepted write, and a
// stale snapshot may transiently overwrite an optimistic local value. There
// is no retry state for transport failures; that lives in the store backend.
package bridge

import (
	"fmt"
	"sync"

	"github.com/anonto42/treegram/backend/internal/treestore"
)

// State of a bridge's subscription.
type State int

const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateActive
)

func (s State) String() string {
	switch s {
	case StateSubscribing:
		return "subscribing"
	case StateActive:
		return "active"
	default:
		return "unsubscribed"
	}
}

// lifecycle is the subscription state machine shared by all bridges.
type lifecycle struct {
	mu    sync.Mutex
	state State
	sub   treestore.Subscription
}

// begin moves Unsubscribed -> Subscribing.
func (l *lifecycle) begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateUnsubscribed {
		return fmt.Errorf("bridge already %s", l.state)
	}
	l.state = StateSubscribing
	return nil
}

// activate records the live subscription, or rolls back to Unsubscribed
// when registration failed.
func (l *lifecycle) activate(sub treestore.Subscription, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state = StateUnsubscribed
		return err
	}
	l.sub = sub
	l.state = StateActive
	return nil
}

// State reports the current subscription state.
func (l *lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Close detaches the listener. Future snapshots stop; reads already in
// flight are not cancelled. Safe to call more than once.
func (l *lifecycle) Close() {
	l.mu.Lock()
	sub := l.sub
	l.sub = nil
	l.state = StateUnsubscribed
	l.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}
