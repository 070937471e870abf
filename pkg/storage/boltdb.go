package storage

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

const (
	tombstoneByte byte = 1
	liveByte      byte = 0
)

// BoltStore opens one bbolt database file and hands out a Provider per
// relation, each bound to its own bucket, the same bucket-per-domain shape
// used for fixed entity buckets elsewhere, generalized to an
// arbitrary relation name instead of a fixed entity list.
type BoltStore struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the bbolt file moorcore.db inside
// dataDir.
func Open(dataDir string) (*BoltStore, error) {
	path := filepath.Join(dataDir, "moorcore.db")
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, &ErrStorage{Op: "open", Err: err}
	}
	return &BoltStore{db: db}, nil
}

// Relation returns a Provider backed by the bucket named name, creating the
// bucket if this is the first time it has been opened.
func (s *BoltStore) Relation(name string) (*BoltProvider, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return nil, &ErrStorage{Op: fmt.Sprintf("create bucket %s", name), Err: err}
	}
	return &BoltProvider{db: s.db, bucket: []byte(name)}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// BoltProvider is a Provider bound to one bucket of a BoltStore.
type BoltProvider struct {
	db     *bolt.DB
	bucket []byte
}

func encodeValue(ts int64, tombstone bool, payload []byte) []byte {
	out := make([]byte, 9+len(payload))
	if tombstone {
		out[0] = tombstoneByte
	} else {
		out[0] = liveByte
	}
	binary.BigEndian.PutUint64(out[1:9], uint64(ts))
	copy(out[9:], payload)
	return out
}

func decodeValue(key, raw []byte) Entry {
	e := Entry{Key: append([]byte(nil), key...)}
	if len(raw) < 9 {
		return e
	}
	e.Tombstone = raw[0] == tombstoneByte
	e.Timestamp = int64(binary.BigEndian.Uint64(raw[1:9]))
	if !e.Tombstone && len(raw) > 9 {
		e.Value = append([]byte(nil), raw[9:]...)
	}
	return e
}

func (p *BoltProvider) Get(key []byte) (Entry, bool, error) {
	var entry Entry
	var found bool
	err := p.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(p.bucket)
		raw := b.Get(key)
		if raw == nil {
			return nil
		}
		found = true
		entry = decodeValue(key, raw)
		return nil
	})
	if err != nil {
		return Entry{}, false, &ErrStorage{Op: "get", Err: err}
	}
	return entry, found, nil
}

func (p *BoltProvider) Put(ts int64, key []byte, value []byte) error {
	err := p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(p.bucket)
		return b.Put(key, encodeValue(ts, false, value))
	})
	if err != nil {
		return &ErrStorage{Op: "put", Err: err}
	}
	return nil
}

func (p *BoltProvider) Delete(ts int64, key []byte) error {
	err := p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(p.bucket)
		return b.Put(key, encodeValue(ts, true, nil))
	})
	if err != nil {
		return &ErrStorage{Op: "delete", Err: err}
	}
	return nil
}

func (p *BoltProvider) Scan(predicate func(key []byte) bool, fn func(Entry) bool) error {
	err := p.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(p.bucket)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if predicate != nil && !predicate(k) {
				continue
			}
			if !fn(decodeValue(k, v)) {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return &ErrStorage{Op: "scan", Err: err}
	}
	return nil
}

// Sync forces the database file durably to disk. bbolt already fsyncs on
// every committed Update, so this exists for callers (checkpoint-on-
// shutdown) that want an explicit, named sync point rather than relying on
// that per-write behavior.
func (p *BoltProvider) Sync() error {
	if err := p.db.Sync(); err != nil {
		return &ErrStorage{Op: "sync", Err: err}
	}
	return nil
}

// Stop is a no-op per-relation; the owning BoltStore.Close releases the
// shared database handle.
func (p *BoltProvider) Stop() error { return nil }
