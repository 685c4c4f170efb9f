package keystore

import (
	"sync"

	"github.com/dnssigner/zoneengine/zone"
)

// MemStore is an in-memory zone.KeyStore, the pure-Go counterpart to
// SQLiteStore used in tests the same way tdns keeps a pure-Go signing
// path alongside its DB-backed one.
type MemStore struct {
	mu   sync.Mutex
	keys map[string][]Key // zone name -> active keys
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{keys: make(map[string][]Key)}
}

// AddKey registers k as an active signing key for zone.
func (s *MemStore) AddKey(zoneName string, k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[zoneName] = append(s.keys[zoneName], k)
}

// RemoveKey drops the key with the given locator from zone's active set,
// modelling key rollover in tests without recreating the whole store.
func (s *MemStore) RemoveKey(zoneName, locator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.keys[zoneName][:0:0]
	for _, k := range s.keys[zoneName] {
		if k.Locator != locator {
			kept = append(kept, k)
		}
	}
	s.keys[zoneName] = kept
}

func (s *MemStore) ActiveKeys(zoneName string) ([]zone.SigningKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ks := s.keys[zoneName]
	if len(ks) == 0 {
		return nil, errNoActiveKeysZone
	}
	out := make([]zone.SigningKey, len(ks))
	for i, k := range ks {
		out[i] = k.toZoneKey()
	}
	return out, nil
}

func (s *MemStore) CreateContext(zoneName string) (zone.SigningContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byLocator := make(map[string]Key, len(s.keys[zoneName]))
	for _, k := range s.keys[zoneName] {
		byLocator[k.Locator] = k
	}
	return &signingContext{keys: byLocator}, nil
}
