package worldstate

import "github.com/cuemby/moorcore/pkg/types"

// ancestorsOf walks o's parent chain (not including o itself) up to and
// excluding NOTHING, guarding against a corrupt cyclic chain by refusing to
// revisit an object already seen (invariant 1 promises this never triggers
// on a chain this package produced).
func ancestorsOf(tx *txnSet, o types.Obj) ([]types.Obj, error) {
	var out []types.Obj
	seen := map[types.Obj]bool{o: true}
	cur := o
	for {
		pv, ok, err := tx.parent.Get(cur.Key())
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		p, _ := pv.(types.Obj)
		if p.IsNothing() || seen[p] {
			break
		}
		out = append(out, p)
		seen[p] = true
		cur = p
	}
	return out, nil
}

// descendantsOf returns every object transitively parented to o (not
// including o itself), walking the ObjectParent secondary index. It reads
// through the relation's canonical committed view rather than the open
// transaction's working set: reparenting operations read the graph before
// making any edits in the same transaction, so this is equivalent in
// practice and avoids needing a transaction-scoped secondary index.
func descendantsOf(ws *WorldState, o types.Obj) ([]types.Obj, error) {
	var out []types.Obj
	frontier := []types.Obj{o}
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		children, err := ws.Children(next)
		if err != nil {
			return nil, err
		}
		out = append(out, children...)
		frontier = append(frontier, children...)
	}
	return out, nil
}

func containsObj(set []types.Obj, o types.Obj) bool {
	for _, x := range set {
		if x.Equal(o) {
			return true
		}
	}
	return false
}
