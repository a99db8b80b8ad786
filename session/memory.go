package session

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

type memoryLog struct {
	mu        sync.Mutex
	exchanges []protocol.Exchange
}

type memoryItem struct {
	id       string
	log      *memoryLog
	lastUsed time.Time
}

// MemoryStore is an in-process Store. The store mutex only guards the session
// index and its LRU order; each session's log has its own lock.
type MemoryStore struct {
	mu sync.Mutex

	window      int
	maxSessions int
	ttl         time.Duration

	lru   *list.List // front=MRU
	index map[string]*list.Element
}

// NewMemoryStore creates a MemoryStore. Zero values in cfg fall back to
// DefaultConfig.
func NewMemoryStore(cfg Config) *MemoryStore {
	def := DefaultConfig()
	def.Merge(&cfg)
	return &MemoryStore{
		window:      def.Window,
		maxSessions: def.MaxSessions,
		ttl:         def.IdleTTL,
		lru:         list.New(),
		index:       map[string]*list.Element{},
	}
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, ex protocol.Exchange) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	l := s.acquire(sessionID, true)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.exchanges = append(l.exchanges, ex.Clone())
	if over := len(l.exchanges) - s.window; over > 0 {
		// Copy down so the evicted entries are released.
		l.exchanges = append(l.exchanges[:0:0], l.exchanges[over:]...)
	}
	return nil
}

func (s *MemoryStore) Recent(ctx context.Context, sessionID string, n int) ([]protocol.Exchange, error) {
	n = clamp(n, s.window)
	l := s.acquire(sessionID, false)
	if l == nil || n == 0 {
		return []protocol.Exchange{}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	start := max(0, len(l.exchanges)-n)
	out := make([]protocol.Exchange, 0, len(l.exchanges)-start)
	for _, ex := range l.exchanges[start:] {
		out = append(out, ex.Clone())
	}
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.index[sessionID]; e != nil {
		s.removeLocked(e)
	}
	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked(time.Now())
	return s.lru.Len()
}

// acquire returns the session log, creating it when create is set. Touching a
// session moves it to the front of the LRU order.
func (s *MemoryStore) acquire(sessionID string, create bool) *memoryLog {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked(now)

	if e := s.index[sessionID]; e != nil {
		it := e.Value.(*memoryItem)
		it.lastUsed = now
		s.lru.MoveToFront(e)
		return it.log
	}
	if !create {
		return nil
	}

	it := &memoryItem{id: sessionID, log: &memoryLog{}, lastUsed: now}
	s.index[sessionID] = s.lru.PushFront(it)
	s.evictOverLimitLocked()
	return it.log
}

func (s *MemoryStore) evictExpiredLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for e := s.lru.Back(); e != nil; {
		prev := e.Prev()
		if now.Sub(e.Value.(*memoryItem).lastUsed) <= s.ttl {
			break
		}
		s.removeLocked(e)
		e = prev
	}
}

func (s *MemoryStore) evictOverLimitLocked() {
	if s.maxSessions <= 0 {
		return
	}
	for s.lru.Len() > s.maxSessions {
		s.removeLocked(s.lru.Back())
	}
}

func (s *MemoryStore) removeLocked(e *list.Element) {
	delete(s.index, e.Value.(*memoryItem).id)
	s.lru.Remove(e)
}
