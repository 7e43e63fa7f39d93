package api

import (
	"time"

	"hotelops/internal/extraction"
	"hotelops/internal/store"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// SessionStore keeps wizard sessions in memory. Every lookup extends the
// session's lifetime by the store TTL.
type SessionStore struct {
	cache   *cache.Cache
	onCount func(int)
}

func NewSessionStore(ttl time.Duration, log *zap.Logger, onCount func(int)) *SessionStore {
	if onCount == nil {
		onCount = func(int) {}
	}
	s := &SessionStore{cache: cache.New(ttl, ttl/2), onCount: onCount}
	s.cache.OnEvicted(func(id string, _ interface{}) {
		if log != nil {
			log.Debug("extraction.session_evicted", zap.String("session_id", id))
		}
		s.onCount(s.Count())
	})
	return s
}

func (s *SessionStore) Put(sess *extraction.Session) {
	s.cache.Set(sess.ID(), sess, cache.DefaultExpiration)
	s.onCount(s.Count())
}

// Get returns the session and slides its expiry. Replace fails once the key
// is gone, so a concurrent Delete is never undone.
func (s *SessionStore) Get(id string) (*extraction.Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*extraction.Session)
	if err := s.cache.Replace(id, sess, cache.DefaultExpiration); err != nil {
		return nil, false
	}
	return sess, true
}

// Delete drops a session; the eviction callback updates the count.
func (s *SessionStore) Delete(id string) bool {
	if _, ok := s.cache.Get(id); !ok {
		return false
	}
	s.cache.Delete(id)
	return true
}

func (s *SessionStore) Count() int {
	return s.cache.ItemCount()
}

const menuItemsKey = "menu:items"

// MenuCache holds the menu listing until a commit invalidates it.
type MenuCache struct {
	cache *cache.Cache
}

func NewMenuCache(ttl time.Duration) *MenuCache {
	return &MenuCache{cache: cache.New(ttl, 2*ttl)}
}

func (m *MenuCache) Items() ([]store.MenuItem, bool) {
	v, ok := m.cache.Get(menuItemsKey)
	if !ok {
		return nil, false
	}
	return v.([]store.MenuItem), true
}

func (m *MenuCache) SetItems(items []store.MenuItem) {
	m.cache.SetDefault(menuItemsKey, items)
}

func (m *MenuCache) InvalidateMenu() {
	m.cache.Delete(menuItemsKey)
}
