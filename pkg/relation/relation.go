package relation

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cuemby/moorcore/pkg/storage"
)

// Codec encodes/decodes a relation's codomain values to/from the bytes a
// storage.Provider persists.
type Codec interface {
	Encode(Value) ([]byte, error)
	Decode([]byte) (Value, error)
}

// Relation owns one domain -> codomain mapping: its current Index, the
// durable Provider backing it, the Codec for its values, and (optionally) a
// function deriving a secondary key to index by, e.g. ObjectLocation's
// location -> contents lookup.
type Relation struct {
	name           string
	provider       storage.Provider
	codec          Codec
	secondaryKeyFn func(Value) ([]byte, bool)

	idx atomic.Pointer[Index]
	// commitMu serializes check+apply for this relation across concurrent
	// Coordinator.Commit calls; readers (Begin, ByCodomain) never take it.
	commitMu sync.Mutex
}

// NewRelation constructs an empty Relation. Call Load before serving
// transactions if the provider may already hold data from a prior run.
// secondaryKeyFn may be nil if this relation needs no reverse lookup.
func NewRelation(name string, provider storage.Provider, codec Codec, secondaryKeyFn func(Value) ([]byte, bool)) *Relation {
	r := &Relation{name: name, provider: provider, codec: codec, secondaryKeyFn: secondaryKeyFn}
	r.idx.Store(newIndex())
	return r
}

func (r *Relation) Name() string { return r.name }

// Len reports the number of live (non-tombstone) entries in the relation's
// current canonical index. Used only for metrics/introspection; never
// consulted by check/apply.
func (r *Relation) Len() int {
	n := 0
	it := r.idx.Load().primary.Root().Iterator()
	for {
		_, v, ok := it.Next()
		if !ok {
			break
		}
		if !v.(entry).Tombstone {
			n++
		}
	}
	return n
}

// Checkpoint forces the relation's provider to flush any buffered writes
// durably to disk.
func (r *Relation) Checkpoint() error {
	return r.provider.Sync()
}

// lock and unlock serialize commit's check+apply phases for this relation.
// Exported only to the Coordinator in this package.
func (r *Relation) lock()   { r.commitMu.Lock() }
func (r *Relation) unlock() { r.commitMu.Unlock() }

// Begin forks the current Index in O(log n) and returns a Txn a caller can
// read and write through without touching the canonical Index.
func (r *Relation) Begin() *Txn {
	return newTxn(r, r.idx.Load())
}

// Load replays every live entry the provider holds into a fresh Index,
// rebuilding the secondary index along the way, and marks the relation
// fully loaded so future Get misses no longer consult the provider. Call
// once at startup, before any Txn is begun.
func (r *Relation) Load() error {
	idx := newIndex()
	primaryTxn := idx.primary.Txn()
	secondary := idx.secondary

	var loadErr error
	err := r.provider.Scan(nil, func(e storage.Entry) bool {
		if e.Tombstone {
			return true
		}
		val, derr := r.codec.Decode(e.Value)
		if derr != nil {
			loadErr = derr
			return false
		}
		primaryTxn.Insert(e.Key, entry{Timestamp: e.Timestamp, Value: val})
		if r.secondaryKeyFn != nil {
			if sk, ok := r.secondaryKeyFn(val); ok {
				secondary = withSecondaryAdd(secondary, sk, e.Key)
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	if loadErr != nil {
		return loadErr
	}
	idx.primary = primaryTxn.Commit()
	idx.secondary = secondary
	idx.fullyLoaded = true
	r.idx.Store(idx)
	return nil
}

// ByCodomain looks up every domain key currently indexed under secondary key
// sk. Returns an error if this relation was built without a secondaryKeyFn.
func (r *Relation) ByCodomain(sk []byte) ([][]byte, error) {
	if r.secondaryKeyFn == nil {
		return nil, fmt.Errorf("relation %s: no secondary index", r.name)
	}
	idx := r.idx.Load()
	set := idx.secondarySet(sk)
	if set == nil {
		return nil, nil
	}
	var out [][]byte
	it := set.Root().Iterator()
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, append([]byte(nil), k...))
	}
	return out, nil
}

// resolvedOp is an op whose conflict (if any) has been resolved, ready for
// the apply phase.
type resolvedOp struct {
	o           *op
	kind        OpKind
	value       Value
	priorExists bool
	priorValue  Value
}

// check validates tx's working set against this relation's CURRENT canonical
// Index (not the snapshot tx forked from), consulting resolver for any
// concurrent write. It performs no mutation. Callers must hold the owning
// Coordinator's lock on this relation for the duration of check through
// apply so the canonical Index cannot move between the two phases.
func (r *Relation) check(tx *Txn, resolver Resolver) ([]*resolvedOp, error) {
	current := r.idx.Load()
	resolved := make([]*resolvedOp, 0, len(tx.order))

	for _, key := range tx.order {
		o := tx.working[key]
		theirs, theirsExists := current.get(o.Domain)
		theirsLive := theirsExists && !theirs.Tombstone

		switch o.Kind {
		case OpInsert:
			if !theirsLive {
				resolved = append(resolved, &resolvedOp{o: o, kind: OpInsert, value: o.Value, priorExists: theirsExists, priorValue: theirs.Value})
				continue
			}
			conflict := &Conflict{Relation: r.name, Domain: o.Domain, Kind: ConflictInsertDuplicate}
			res := resolver.Resolve(conflict, o.base.Value, theirs.Value, o.Value)
			if res.Decision != DecisionAccept {
				return nil, conflict
			}
			resolved = append(resolved, &resolvedOp{o: o, kind: OpUpdate, value: res.Resolved, priorExists: true, priorValue: theirs.Value})

		case OpUpdate:
			if !theirsLive {
				return nil, &Conflict{Relation: r.name, Domain: o.Domain, Kind: ConflictUpdateNonExistent}
			}
			if theirs.Timestamp != o.base.Timestamp {
				conflict := &Conflict{Relation: r.name, Domain: o.Domain, Kind: ConflictConcurrentWrite}
				res := resolver.Resolve(conflict, o.base.Value, theirs.Value, o.Value)
				if res.Decision != DecisionAccept {
					return nil, conflict
				}
				resolved = append(resolved, &resolvedOp{o: o, kind: OpUpdate, value: res.Resolved, priorExists: true, priorValue: theirs.Value})
				continue
			}
			resolved = append(resolved, &resolvedOp{o: o, kind: OpUpdate, value: o.Value, priorExists: true, priorValue: theirs.Value})

		case OpDelete:
			if !theirsLive {
				return nil, &Conflict{Relation: r.name, Domain: o.Domain, Kind: ConflictUpdateNonExistent}
			}
			if theirs.Timestamp != o.base.Timestamp {
				conflict := &Conflict{Relation: r.name, Domain: o.Domain, Kind: ConflictConcurrentWrite}
				res := resolver.Resolve(conflict, o.base.Value, theirs.Value, nil)
				if res.Decision != DecisionAccept {
					return nil, conflict
				}
			}
			resolved = append(resolved, &resolvedOp{o: o, kind: OpDelete, priorExists: true, priorValue: theirs.Value})
		}
	}
	return resolved, nil
}

// apply writes resolved ops into a fresh fork of the canonical Index at
// write timestamp ts and publishes the result. Must be called only after a
// successful check, while still holding the relation's lock.
func (r *Relation) apply(resolved []*resolvedOp, ts int64) error {
	current := r.idx.Load()
	primaryTxn := current.primary.Txn()
	secondary := current.secondary

	for _, ro := range resolved {
		switch ro.kind {
		case OpInsert, OpUpdate:
			encoded, err := r.codec.Encode(ro.value)
			if err != nil {
				return err
			}
			if err := r.provider.Put(ts, ro.o.Domain, encoded); err != nil {
				return err
			}
			primaryTxn.Insert(ro.o.Domain, entry{Timestamp: ts, Value: ro.value})
			if r.secondaryKeyFn != nil {
				if ro.priorExists {
					if oldSK, ok := r.secondaryKeyFn(ro.priorValue); ok {
						secondary = withSecondaryRemove(secondary, oldSK, ro.o.Domain)
					}
				}
				if newSK, ok := r.secondaryKeyFn(ro.value); ok {
					secondary = withSecondaryAdd(secondary, newSK, ro.o.Domain)
				}
			}
		case OpDelete:
			if err := r.provider.Delete(ts, ro.o.Domain); err != nil {
				return err
			}
			primaryTxn.Insert(ro.o.Domain, entry{Timestamp: ts, Tombstone: true})
			if r.secondaryKeyFn != nil {
				if oldSK, ok := r.secondaryKeyFn(ro.priorValue); ok {
					secondary = withSecondaryRemove(secondary, oldSK, ro.o.Domain)
				}
			}
		}
	}

	next := &Index{
		primary:     primaryTxn.Commit(),
		secondary:   secondary,
		fullyLoaded: current.fullyLoaded,
	}
	r.idx.Store(next)
	return nil
}
