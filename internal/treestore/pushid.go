package treestore

import (
	"crypto/rand"
	"sync"
	"time"
)

// Push keys are 20 characters: 8 encoding the millisecond timestamp followed
// by 12 random characters, over an alphabet whose byte order matches its
// lexicographic order. Keys generated in the same millisecond reuse the
// previous random suffix incremented by one so ordering holds even then.
const pushAlphabet = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

var pushMu sync.Mutex
var lastPushMillis int64
var lastRand [12]int

// NewPushID returns a globally unique, lexicographically time-ordered key.
func NewPushID() string {
	pushMu.Lock()
	defer pushMu.Unlock()

	now := time.Now().UnixMilli()
	if now == lastPushMillis {
		// same millisecond: increment the previous suffix
		for i := 11; i >= 0; i-- {
			lastRand[i]++
			if lastRand[i] < 64 {
				break
			}
			lastRand[i] = 0
		}
	} else {
		var buf [12]byte
		if _, err := rand.Read(buf[:]); err != nil {
			// crypto/rand never fails on supported platforms
			panic(err)
		}
		for i := range buf {
			lastRand[i] = int(buf[i] % 64)
		}
	}
	lastPushMillis = now

	var id [20]byte
	ts := now
	for i := 7; i >= 0; i-- {
		id[i] = pushAlphabet[ts%64]
		ts /= 64
	}
	for i := 0; i < 12; i++ {
		id[8+i] = pushAlphabet[lastRand[i]]
	}
	return string(id[:])
}
