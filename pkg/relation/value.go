package relation

import "reflect"

// Value is whatever a relation's codomain decodes to. The relation layer
// never interprets it beyond equality and merge, both of which are optional.
type Value = any

// Equatable lets a codomain value supply its own notion of equality (e.g.
// types.Var's case-insensitive symbol comparison) instead of falling back to
// reflect.DeepEqual.
type Equatable interface {
	EqualValue(other Value) bool
}

// Mergeable lets a codomain value attempt a 3-way merge of itself ("mine")
// against a common ancestor and a concurrently-committed sibling. It returns
// the merged value and true if the merge succeeded, or false if the two
// sides diverged in a way that cannot be reconciled automatically.
type Mergeable interface {
	MergeWith(base, theirs Value) (Value, bool)
}

func valuesEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ea, ok := a.(Equatable); ok {
		return ea.EqualValue(b)
	}
	return reflect.DeepEqual(a, b)
}

func tryMerge(mine, base, theirs Value) (Value, bool) {
	m, ok := mine.(Mergeable)
	if !ok {
		return nil, false
	}
	return m.MergeWith(base, theirs)
}
