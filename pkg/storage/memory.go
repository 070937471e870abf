package storage

import "sync"

// MemProvider is a map-backed Provider, used by tests that don't need
// durability. It implements the exact same contract as BoltProvider.
type MemProvider struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemProvider returns an empty MemProvider.
func NewMemProvider() *MemProvider {
	return &MemProvider{entries: make(map[string]Entry)}
}

func (p *MemProvider) Get(key []byte) (Entry, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[string(key)]
	return e, ok, nil
}

func (p *MemProvider) Put(ts int64, key []byte, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[string(key)] = Entry{
		Key:       append([]byte(nil), key...),
		Timestamp: ts,
		Value:     append([]byte(nil), value...),
	}
	return nil
}

func (p *MemProvider) Delete(ts int64, key []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[string(key)] = Entry{
		Key:       append([]byte(nil), key...),
		Timestamp: ts,
		Tombstone: true,
	}
	return nil
}

func (p *MemProvider) Scan(predicate func(key []byte) bool, fn func(Entry) bool) error {
	p.mu.RLock()
	entries := make([]Entry, 0, len(p.entries))
	for _, e := range p.entries {
		if predicate != nil && !predicate(e.Key) {
			continue
		}
		entries = append(entries, e)
	}
	p.mu.RUnlock()

	for _, e := range entries {
		if !fn(e) {
			return nil
		}
	}
	return nil
}

// Sync is a no-op: MemProvider holds nothing but an in-process map.
func (p *MemProvider) Sync() error { return nil }

func (p *MemProvider) Stop() error { return nil }
