package relation

import (
	iradix "github.com/hashicorp/go-immutable-radix"
)

// OpKind is the kind of write a Txn has recorded against a domain key.
type OpKind uint8

const (
	OpInsert OpKind = iota
	OpUpdate
	OpDelete
)

// op is one pending write in a Txn's working set.
type op struct {
	Domain           []byte
	Kind             OpKind
	Value            Value
	GuaranteedUnique bool

	// base/baseSeen record what this transaction observed for Domain the
	// first time it touched it (via Get, or implicitly via Insert/Update/
	// Delete), used as the merge ancestor in SmartMerge resolution.
	base     entry
	baseSeen bool
}

// Txn is one relation's working set: a forked, cheap-to-create snapshot of
// the canonical Index plus a set of pending inserts/updates/deletes that
// have not yet been checked against, or applied to, that Index.
// A Txn is not safe for concurrent use.
type Txn struct {
	rel     *Relation
	base    *iradix.Txn
	loaded  bool
	working map[string]*op
	order   []string
}

func newTxn(rel *Relation, snapshot *Index) *Txn {
	return &Txn{
		rel:     rel,
		base:    snapshot.primary.Txn(),
		loaded:  snapshot.fullyLoaded,
		working: make(map[string]*op),
	}
}

// Get resolves domain through the working set first, then the forked
// snapshot, then (if the relation is not yet fully loaded) the durable
// provider, promoting any provider hit into the forked snapshot so a
// second Get in the same Txn doesn't round-trip again.
func (tx *Txn) Get(domain []byte) (Value, bool, error) {
	key := string(domain)
	if o, ok := tx.working[key]; ok {
		if o.Kind == OpDelete {
			return nil, false, nil
		}
		return o.Value, true, nil
	}
	if e, ok := tx.snapshotGet(domain); ok {
		if e.Tombstone {
			return nil, false, nil
		}
		return e.Value, true, nil
	}
	if tx.loaded {
		return nil, false, nil
	}
	pe, found, err := tx.rel.provider.Get(domain)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	val, err := tx.rel.codec.Decode(pe.Value)
	if err != nil {
		return nil, false, err
	}
	e := entry{Timestamp: pe.Timestamp, Value: val, Tombstone: pe.Tombstone}
	tx.base.Insert(domain, e)
	if e.Tombstone {
		return nil, false, nil
	}
	return e.Value, true, nil
}

func (tx *Txn) snapshotGet(domain []byte) (entry, bool) {
	v, ok := tx.base.Get(domain)
	if !ok {
		return entry{}, false
	}
	return v.(entry), true
}

// observeBase records (once) what this transaction first saw for domain, so
// later conflict resolution has a genuine common ancestor rather than
// whatever happens to be canonical at commit time.
func (tx *Txn) observeBase(domain []byte) (entry, bool, error) {
	if _, _, err := tx.Get(domain); err != nil {
		// Get only fails on provider errors; callers of Insert/Update/Delete
		// surface that via the returned error instead of losing it here.
		return entry{}, false, err
	}
	e, ok := tx.snapshotGet(domain)
	return e, ok, nil
}

func (tx *Txn) record(domain []byte, kind OpKind, value Value, guaranteedUnique bool) error {
	base, baseSeen, err := tx.observeBase(domain)
	if err != nil {
		return err
	}
	key := string(domain)
	if prev, ok := tx.working[key]; ok && prev.Kind == OpInsert && kind == OpUpdate {
		// Updating a key this Txn inserted itself is still an insert as far
		// as the canonical Index is concerned.
		kind, guaranteedUnique = OpInsert, prev.GuaranteedUnique
	}
	tx.working[key] = &op{
		Domain:           append([]byte(nil), domain...),
		Kind:             kind,
		Value:            value,
		GuaranteedUnique: guaranteedUnique,
		base:             base,
		baseSeen:         baseSeen,
	}
	if _, exists := tx.indexOf(key); !exists {
		tx.order = append(tx.order, key)
	}
	return nil
}

func (tx *Txn) indexOf(key string) (int, bool) {
	for i, k := range tx.order {
		if k == key {
			return i, true
		}
	}
	return -1, false
}

// Insert records that domain should be created with value v, failing at
// commit time with ConflictInsertDuplicate if domain already exists.
func (tx *Txn) Insert(domain []byte, v Value) error {
	return tx.record(domain, OpInsert, v, false)
}

// InsertUnique is Insert for a domain key the caller has generated fresh
// (e.g. a new object id). The op is marked GuaranteedUnique, but the
// commit's check phase does not read that mark: it tests the key for
// existence exactly as it does for Insert.
func (tx *Txn) InsertUnique(domain []byte, v Value) error {
	return tx.record(domain, OpInsert, v, true)
}

// Update records that domain's value should become v. If domain is absent
// as of this call, Update is a no-op and reports present=false rather than
// recording anything, mirroring insert's "must be absent" by requiring the
// opposite for update. Otherwise it stamps the op's read
// timestamp with the value last observed, and a concurrent change to the
// canonical entry between now and commit fails with ConflictUpdateNonExistent
// or ConflictConcurrentWrite.
func (tx *Txn) Update(domain []byte, v Value) (present bool, err error) {
	_, ok, err := tx.Get(domain)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return true, tx.record(domain, OpUpdate, v, false)
}

// Delete records that domain should be removed. If domain is absent as of
// this call, Delete is a no-op, as Update is.
func (tx *Txn) Delete(domain []byte) error {
	_, ok, err := tx.Get(domain)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return tx.record(domain, OpDelete, nil, false)
}

// Empty reports whether this Txn has recorded any writes at all.
func (tx *Txn) Empty() bool { return len(tx.order) == 0 }

// Scan iterates every domain currently visible through this Txn (working
// set overlaid on the forked snapshot; misses against the provider are not
// fetched) until fn returns false: first the snapshot's keys in domain key
// order, then keys that exist only in the working set, in the order they
// were first written.
func (tx *Txn) Scan(fn func(domain []byte, v Value) bool) error {
	seen := make(map[string]bool, len(tx.working))
	it := tx.base.Root().Iterator()
	for {
		k, raw, ok := it.Next()
		if !ok {
			break
		}
		key := string(k)
		seen[key] = true
		if o, pending := tx.working[key]; pending {
			if o.Kind == OpDelete {
				continue
			}
			if !fn(o.Domain, o.Value) {
				return nil
			}
			continue
		}
		e := raw.(entry)
		if e.Tombstone {
			continue
		}
		if !fn(k, e.Value) {
			return nil
		}
	}
	for _, key := range tx.order {
		if seen[key] {
			continue
		}
		o := tx.working[key]
		if o.Kind == OpDelete {
			continue
		}
		if !fn(o.Domain, o.Value) {
			return nil
		}
	}
	return nil
}
