package worldstate

import (
	"sync/atomic"

	"github.com/cuemby/moorcore/pkg/log"
	"github.com/cuemby/moorcore/pkg/relation"
	"github.com/cuemby/moorcore/pkg/storage"
	"github.com/cuemby/moorcore/pkg/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

// secondaryObj is the secondary-key function shared by the three
// Obj-codomain relations that need reverse lookup (ObjectOwner by owner,
// ObjectParent by parent, ObjectLocation by location): the codomain key is
// just the object's own domain-key encoding.
func secondaryObj(v relation.Value) ([]byte, bool) {
	o, ok := v.(types.Obj)
	if !ok {
		return nil, false
	}
	return o.Key(), true
}

// objsByCodomain resolves ByCodomain's raw domain-key bytes back into Objs
// for relations whose domain is a bare Obj key.
func objsByCodomain(r *relation.Relation, codomain types.Obj) ([]types.Obj, error) {
	keys, err := r.ByCodomain(codomain.Key())
	if err != nil {
		return nil, err
	}
	out := make([]types.Obj, 0, len(keys))
	for _, k := range keys {
		o, err := types.ParseObjKey(k)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// Relation name constants, one per bucket/table the engine persists.
const (
	RelObjectOwner     = "object_owner"
	RelObjectParent    = "object_parent"
	RelObjectLocation  = "object_location"
	RelObjectFlags     = "object_flags"
	RelObjectName      = "object_name"
	RelObjectVerbDefs  = "object_verb_defs"
	RelVerbProgram     = "verb_program"
	RelObjectPropDefs  = "object_prop_defs"
	RelObjectPropValue = "object_prop_value"
	RelObjectPropPerms = "object_prop_perms"
	RelSequences       = "sequences"
)

// clock is the engine-wide atomic counter handing out strictly increasing
// write timestamps across every relation.
type clock struct{ n atomic.Int64 }

func (c *clock) Next() int64 { return c.n.Add(1) }

// WorldState owns every relation in the engine and the single clock shared
// across all of them, so commits spanning several relations are
// stamped with one globally-increasing timestamp.
type WorldState struct {
	clock *clock

	ObjectOwner     *relation.Relation
	ObjectParent    *relation.Relation
	ObjectLocation  *relation.Relation
	ObjectFlags     *relation.Relation
	ObjectName      *relation.Relation
	ObjectVerbDefs  *relation.Relation
	VerbProgram     *relation.Relation
	ObjectPropDefs  *relation.Relation
	ObjectPropValue *relation.Relation
	ObjectPropPerms *relation.Relation
	Sequences       *relation.Relation

	// verbProgramCache short-circuits re-decoding a verb's compiled
	// program bytes: the hottest read in the engine, since every verb call
	// resolves then loads its program.
	verbProgramCache *lru.Cache[string, []byte]
}

// Providers bundles the durable storage.Provider for every relation, so
// callers can mix a BoltStore-backed set in production or MemProviders in
// tests without New having to know which.
type Providers struct {
	ObjectOwner     storage.Provider
	ObjectParent    storage.Provider
	ObjectLocation  storage.Provider
	ObjectFlags     storage.Provider
	ObjectName      storage.Provider
	ObjectVerbDefs  storage.Provider
	VerbProgram     storage.Provider
	ObjectPropDefs  storage.Provider
	ObjectPropValue storage.Provider
	ObjectPropPerms storage.Provider
	Sequences       storage.Provider
}

// MemProviders builds a Providers bundle entirely out of in-memory
// providers, for tests.
func MemProviders() Providers {
	return Providers{
		ObjectOwner:     storage.NewMemProvider(),
		ObjectParent:    storage.NewMemProvider(),
		ObjectLocation:  storage.NewMemProvider(),
		ObjectFlags:     storage.NewMemProvider(),
		ObjectName:      storage.NewMemProvider(),
		ObjectVerbDefs:  storage.NewMemProvider(),
		VerbProgram:     storage.NewMemProvider(),
		ObjectPropDefs:  storage.NewMemProvider(),
		ObjectPropValue: storage.NewMemProvider(),
		ObjectPropPerms: storage.NewMemProvider(),
		Sequences:       storage.NewMemProvider(),
	}
}

// BoltProviders builds a Providers bundle with every relation backed by its
// own bucket in store, for the serve command's durable deployment.
func BoltProviders(store *storage.BoltStore) (Providers, error) {
	names := []string{
		RelObjectOwner, RelObjectParent, RelObjectLocation, RelObjectFlags,
		RelObjectName, RelObjectVerbDefs, RelVerbProgram, RelObjectPropDefs,
		RelObjectPropValue, RelObjectPropPerms, RelSequences,
	}
	providers := make(map[string]storage.Provider, len(names))
	for _, name := range names {
		p, err := store.Relation(name)
		if err != nil {
			return Providers{}, err
		}
		providers[name] = p
	}
	return Providers{
		ObjectOwner:     providers[RelObjectOwner],
		ObjectParent:    providers[RelObjectParent],
		ObjectLocation:  providers[RelObjectLocation],
		ObjectFlags:     providers[RelObjectFlags],
		ObjectName:      providers[RelObjectName],
		ObjectVerbDefs:  providers[RelObjectVerbDefs],
		VerbProgram:     providers[RelVerbProgram],
		ObjectPropDefs:  providers[RelObjectPropDefs],
		ObjectPropValue: providers[RelObjectPropValue],
		ObjectPropPerms: providers[RelObjectPropPerms],
		Sequences:       providers[RelSequences],
	}, nil
}

// New builds a WorldState over the given providers. verbProgramCacheSize is
// the number of decoded verb programs the LRU cache holds; callers without
// an opinion should pass a few hundred.
func New(p Providers, verbProgramCacheSize int) (*WorldState, error) {
	if verbProgramCacheSize <= 0 {
		verbProgramCacheSize = 256
	}
	cache, err := lru.New[string, []byte](verbProgramCacheSize)
	if err != nil {
		return nil, err
	}

	ws := &WorldState{
		clock:            &clock{},
		verbProgramCache: cache,
	}
	ws.ObjectOwner = relation.NewRelation(RelObjectOwner, p.ObjectOwner, objCodec{}, secondaryObj)
	ws.ObjectParent = relation.NewRelation(RelObjectParent, p.ObjectParent, objCodec{}, secondaryObj)
	ws.ObjectLocation = relation.NewRelation(RelObjectLocation, p.ObjectLocation, objCodec{}, secondaryObj)
	ws.ObjectFlags = relation.NewRelation(RelObjectFlags, p.ObjectFlags, flagsCodec{}, nil)
	ws.ObjectName = relation.NewRelation(RelObjectName, p.ObjectName, stringCodec{}, nil)
	ws.ObjectVerbDefs = relation.NewRelation(RelObjectVerbDefs, p.ObjectVerbDefs, verbDefSetCodec{}, nil)
	ws.VerbProgram = relation.NewRelation(RelVerbProgram, p.VerbProgram, programCodec{}, nil)
	ws.ObjectPropDefs = relation.NewRelation(RelObjectPropDefs, p.ObjectPropDefs, propDefSetCodec{}, nil)
	ws.ObjectPropValue = relation.NewRelation(RelObjectPropValue, p.ObjectPropValue, varCodec{}, nil)
	ws.ObjectPropPerms = relation.NewRelation(RelObjectPropPerms, p.ObjectPropPerms, propPermsCodec{}, nil)
	ws.Sequences = relation.NewRelation(RelSequences, p.Sequences, relation.Int64Codec{}, nil)

	for _, r := range ws.all() {
		if err := r.Load(); err != nil {
			return nil, err
		}
		log.WithRelation(r.Name()).Debug().Int("entries", r.Len()).Msg("relation loaded")
	}
	return ws, nil
}

func (ws *WorldState) all() []*relation.Relation {
	return []*relation.Relation{
		ws.ObjectOwner, ws.ObjectParent, ws.ObjectLocation, ws.ObjectFlags, ws.ObjectName,
		ws.ObjectVerbDefs, ws.VerbProgram, ws.ObjectPropDefs, ws.ObjectPropValue, ws.ObjectPropPerms,
		ws.Sequences,
	}
}

// Children returns every object whose ObjectParent entry is parent.
func (ws *WorldState) Children(parent types.Obj) ([]types.Obj, error) {
	return objsByCodomain(ws.ObjectParent, parent)
}

// Contents returns every object whose ObjectLocation entry is location.
func (ws *WorldState) Contents(location types.Obj) ([]types.Obj, error) {
	return objsByCodomain(ws.ObjectLocation, location)
}

// Owned returns every object whose ObjectOwner entry is owner.
func (ws *WorldState) Owned(owner types.Obj) ([]types.Obj, error) {
	return objsByCodomain(ws.ObjectOwner, owner)
}

// RelationSizes reports the live entry count of every relation, keyed by
// name. Used by pkg/metrics's periodic collector; never consulted on the
// commit path.
func (ws *WorldState) RelationSizes() map[string]int {
	sizes := make(map[string]int, len(ws.all()))
	for _, r := range ws.all() {
		sizes[r.Name()] = r.Len()
	}
	return sizes
}
