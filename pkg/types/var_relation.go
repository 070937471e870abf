package types

// EqualValue and MergeWith adapt Var to pkg/relation's generic Equatable and
// Mergeable interfaces (any, not Var, since relation must not import types).

func (v Var) EqualValue(other any) bool {
	o, ok := other.(Var)
	if !ok {
		return false
	}
	return v.Equal(o)
}

func (v Var) MergeWith(base, theirs any) (any, bool) {
	b, ok1 := base.(Var)
	t, ok2 := theirs.(Var)
	if !ok1 || !ok2 {
		return nil, false
	}
	merged, ok := v.Merge3(b, t)
	if !ok {
		return nil, false
	}
	return merged, true
}
