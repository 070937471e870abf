package worldstate

import (
	"github.com/cuemby/moorcore/pkg/match"
	"github.com/cuemby/moorcore/pkg/types"
)

// ResolveVerb walks o then its ancestors for the first VerbDef any of whose
// names matches name under match.Name's wildcard rule, and whose arg-spec
// accepts argspecMatches (nil skips the arg-spec check).
func (t *Transaction) ResolveVerb(o types.Obj, name string, argspecMatches func(types.VerbDef) bool) (types.Obj, types.VerbDef, error) {
	if err := t.requireValid(o); err != nil {
		return types.Obj{}, types.VerbDef{}, err
	}
	chain := append([]types.Obj{o}, mustAncestors(t, o)...)
	for _, holder := range chain {
		defsVal, ok, err := t.tx.verbDefs.Get(holder.Key())
		if err != nil {
			return types.Obj{}, types.VerbDef{}, err
		}
		if !ok {
			continue
		}
		for _, vd := range defsVal.([]types.VerbDef) {
			if !match.Any(vd.Names, name) {
				continue
			}
			if argspecMatches != nil && !argspecMatches(vd) {
				continue
			}
			return holder, vd, nil
		}
	}
	return types.Obj{}, types.VerbDef{}, &VerbNotFoundError{Obj: o, Name: name}
}
