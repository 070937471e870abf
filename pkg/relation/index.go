package relation

import (
	iradix "github.com/hashicorp/go-immutable-radix"
)

// entry is what the primary index stores per domain key.
type entry struct {
	Timestamp int64
	Value     Value
	Tombstone bool
}

// Index is a point-in-time, immutable view of a relation: domain -> entry,
// plus an optional secondary index from codomain key to the set of domains
// currently mapped to it. Both trees are persistent radix trees, so forking
// one for a writer is O(log n), never a full copy.
type Index struct {
	primary   *iradix.Tree
	secondary *iradix.Tree // codomain key -> *iradix.Tree of domain keys -> struct{}
	// fullyLoaded is true once a full provider scan has populated primary,
	// after which Get misses are trusted without consulting the provider.
	fullyLoaded bool
}

func newIndex() *Index {
	return &Index{primary: iradix.New(), secondary: iradix.New()}
}

func (idx *Index) get(domain []byte) (entry, bool) {
	v, ok := idx.primary.Get(domain)
	if !ok {
		return entry{}, false
	}
	return v.(entry), true
}

// secondarySet returns the set of domain keys currently indexed under
// codomain key sk, or nil if none.
func (idx *Index) secondarySet(sk []byte) *iradix.Tree {
	v, ok := idx.secondary.Get(sk)
	if !ok {
		return nil
	}
	return v.(*iradix.Tree)
}

// withSecondaryAdd returns a new secondary tree with domain added under sk.
func withSecondaryAdd(secondary *iradix.Tree, sk, domain []byte) *iradix.Tree {
	var set *iradix.Tree
	if v, ok := secondary.Get(sk); ok {
		set = v.(*iradix.Tree)
	} else {
		set = iradix.New()
	}
	setTxn := set.Txn()
	setTxn.Insert(domain, struct{}{})
	set = setTxn.Commit()

	secTxn := secondary.Txn()
	secTxn.Insert(sk, set)
	return secTxn.Commit()
}

// withSecondaryRemove returns a new secondary tree with domain removed from
// under sk, dropping the entry for sk entirely once its set is empty.
func withSecondaryRemove(secondary *iradix.Tree, sk, domain []byte) *iradix.Tree {
	v, ok := secondary.Get(sk)
	if !ok {
		return secondary
	}
	set := v.(*iradix.Tree)
	setTxn := set.Txn()
	setTxn.Delete(domain)
	set = setTxn.Commit()

	secTxn := secondary.Txn()
	if set.Len() == 0 {
		secTxn.Delete(sk)
	} else {
		secTxn.Insert(sk, set)
	}
	return secTxn.Commit()
}
