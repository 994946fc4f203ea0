package reactor

import (
	"sync"

	"github.com/yourusername/tiler/internal/types"
)

// txidStore hands out transaction ids for frame writes. Ids come from one
// counter, so they increase per window no matter how windows are batched.
// Animation goroutines use it too, hence the lock.
type txidStore struct {
	mu      sync.Mutex
	counter types.TransactionID
	last    map[types.WindowID]types.TransactionID
	targets map[types.WindowID]types.Rect
}

func newTxidStore() *txidStore {
	return &txidStore{
		last:    make(map[types.WindowID]types.TransactionID),
		targets: make(map[types.WindowID]types.Rect),
	}
}

// assign returns a new id and records it as the last one sent to windows.
func (s *txidStore) assign(_ types.Pid, windows []types.WindowID) types.TransactionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	for _, wid := range windows {
		s.last[wid] = s.counter
	}
	return s.counter
}

func (s *txidStore) lastSent(wid types.WindowID) types.TransactionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[wid]
}

// setTarget remembers where the in-flight writes for wid will end up.
func (s *txidStore) setTarget(wid types.WindowID, frame types.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[wid] = frame
}

func (s *txidStore) target(wid types.WindowID) (types.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.targets[wid]
	return r, ok
}

func (s *txidStore) clearTarget(wid types.WindowID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.targets, wid)
}

func (s *txidStore) forget(wid types.WindowID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.last, wid)
	delete(s.targets, wid)
}
