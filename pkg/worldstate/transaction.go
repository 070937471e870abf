package worldstate

import (
	"github.com/cuemby/moorcore/pkg/relation"
	"github.com/cuemby/moorcore/pkg/types"
	"github.com/google/uuid"
)

// txnSet bundles one relation.Txn per relation, forked at the same moment so
// a Transaction's reads are snapshot-consistent across relations.
type txnSet struct {
	owner       *relation.Txn
	parent      *relation.Txn
	location    *relation.Txn
	flags       *relation.Txn
	name        *relation.Txn
	verbDefs    *relation.Txn
	verbProgram *relation.Txn
	propDefs    *relation.Txn
	propValue   *relation.Txn
	propPerms   *relation.Txn
	sequences   *relation.Txn
}

// Transaction is the object-oriented API a task executes against: a
// coordinated set of relation transactions plus the conflict resolver its
// commit uses.
type Transaction struct {
	ws       *WorldState
	tx       *txnSet
	resolver relation.Resolver
}

// Begin forks every relation and returns a Transaction. resolver may be nil,
// in which case Commit defaults to relation.FailOnConflict{}.
func (ws *WorldState) Begin(resolver relation.Resolver) *Transaction {
	return &Transaction{
		ws: ws,
		tx: &txnSet{
			owner:       ws.ObjectOwner.Begin(),
			parent:      ws.ObjectParent.Begin(),
			location:    ws.ObjectLocation.Begin(),
			flags:       ws.ObjectFlags.Begin(),
			name:        ws.ObjectName.Begin(),
			verbDefs:    ws.ObjectVerbDefs.Begin(),
			verbProgram: ws.VerbProgram.Begin(),
			propDefs:    ws.ObjectPropDefs.Begin(),
			propValue:   ws.ObjectPropValue.Begin(),
			propPerms:   ws.ObjectPropPerms.Begin(),
			sequences:   ws.Sequences.Begin(),
		},
		resolver: resolver,
	}
}

// Commit runs the two-phase commit across every relation this
// Transaction touched. A returned *relation.Conflict should be treated by
// the scheduler as a TaskConflictRetry signal.
func (t *Transaction) Commit() (committed bool, err error) {
	c := relation.NewCoordinator(
		relation.Participant{Relation: t.ws.ObjectOwner, Txn: t.tx.owner, Resolver: t.resolver},
		relation.Participant{Relation: t.ws.ObjectParent, Txn: t.tx.parent, Resolver: t.resolver},
		relation.Participant{Relation: t.ws.ObjectLocation, Txn: t.tx.location, Resolver: t.resolver},
		relation.Participant{Relation: t.ws.ObjectFlags, Txn: t.tx.flags, Resolver: t.resolver},
		relation.Participant{Relation: t.ws.ObjectName, Txn: t.tx.name, Resolver: t.resolver},
		relation.Participant{Relation: t.ws.ObjectVerbDefs, Txn: t.tx.verbDefs, Resolver: t.resolver},
		relation.Participant{Relation: t.ws.VerbProgram, Txn: t.tx.verbProgram, Resolver: t.resolver},
		relation.Participant{Relation: t.ws.ObjectPropDefs, Txn: t.tx.propDefs, Resolver: t.resolver},
		relation.Participant{Relation: t.ws.ObjectPropValue, Txn: t.tx.propValue, Resolver: t.resolver},
		relation.Participant{Relation: t.ws.ObjectPropPerms, Txn: t.tx.propPerms, Resolver: t.resolver},
		relation.Participant{Relation: t.ws.Sequences, Txn: t.tx.sequences, Resolver: t.resolver},
	)
	return c.Commit(t.ws.clock)
}

// Rollback simply drops the Transaction; nothing was published, so there is
// nothing to undo. Present for symmetry with Commit and so callers (the
// scheduler) have an explicit action to call on conflict or cancellation.
func (t *Transaction) Rollback() {}

// Valid reports whether o currently exists (has an ObjectFlags entry).
func (t *Transaction) Valid(o types.Obj) (bool, error) {
	_, ok, err := t.tx.flags.Get(o.Key())
	return ok, err
}

// Flags returns o's ObjectFlags bitset. Absent objects report the zero
// bitset rather than an error; callers that need existence should pair this
// with requireValid/Valid.
func (t *Transaction) Flags(o types.Obj) (types.ObjectFlags, error) {
	v, ok, err := t.tx.flags.Get(o.Key())
	if err != nil || !ok {
		return 0, err
	}
	return v.(types.ObjectFlags), nil
}

// Owner returns o's ObjectOwner entry.
func (t *Transaction) Owner(o types.Obj) (types.Obj, error) {
	v, ok, err := t.tx.owner.Get(o.Key())
	if err != nil || !ok {
		return types.NOTHING, err
	}
	return v.(types.Obj), nil
}

func (t *Transaction) requireValid(o types.Obj) error {
	ok, err := t.Valid(o)
	if err != nil {
		return err
	}
	if !ok {
		return &ObjectNotFoundError{Obj: o}
	}
	return nil
}

// CreateObjectAttrs are the initial facts recorded for a new object; Owner
// defaults to the new object itself when left as NOTHING.
type CreateObjectAttrs struct {
	Owner    types.Obj
	Parent   types.Obj
	Location types.Obj
	Flags    types.ObjectFlags
	Name     string
}

// CreateObject allocates (or takes the caller-supplied) id and writes its
// initial owner, name, parent, location and flags, bumping MaxObjectSequence
// as needed (invariant 7).
func (t *Transaction) CreateObject(id *types.Obj, attrs CreateObjectAttrs) (types.Obj, error) {
	var o types.Obj
	if id != nil {
		o = *id
	} else {
		next, err := t.nextObjectID()
		if err != nil {
			return types.Obj{}, err
		}
		o = next
	}

	if n, ok := o.ID(); ok {
		if err := t.bumpMaxObjectSequence(n); err != nil {
			return types.Obj{}, err
		}
	}

	owner := attrs.Owner
	if owner.IsNothing() {
		owner = o
	}
	if err := t.tx.owner.InsertUnique(o.Key(), owner); err != nil {
		return types.Obj{}, err
	}
	if err := t.tx.name.InsertUnique(o.Key(), attrs.Name); err != nil {
		return types.Obj{}, err
	}
	if err := t.tx.parent.InsertUnique(o.Key(), attrs.Parent); err != nil {
		return types.Obj{}, err
	}
	if err := t.tx.location.InsertUnique(o.Key(), attrs.Location); err != nil {
		return types.Obj{}, err
	}
	if err := t.tx.flags.InsertUnique(o.Key(), attrs.Flags); err != nil {
		return types.Obj{}, err
	}
	if err := t.tx.propDefs.InsertUnique(o.Key(), []types.PropDef(nil)); err != nil {
		return types.Obj{}, err
	}
	if err := t.tx.verbDefs.InsertUnique(o.Key(), []types.VerbDef(nil)); err != nil {
		return types.Obj{}, err
	}
	return o, nil
}

func (t *Transaction) nextObjectID() (types.Obj, error) {
	v, ok, err := t.tx.sequences.Get(relation.SequenceKey(relation.SeqMaxObject))
	if err != nil {
		return types.Obj{}, err
	}
	next := int64(0)
	if ok {
		next = v.(int64) + 1
		if _, err := t.tx.sequences.Update(relation.SequenceKey(relation.SeqMaxObject), next); err != nil {
			return types.Obj{}, err
		}
	} else if err := t.tx.sequences.InsertUnique(relation.SequenceKey(relation.SeqMaxObject), next); err != nil {
		return types.Obj{}, err
	}
	return types.NewObjID(next), nil
}

func (t *Transaction) bumpMaxObjectSequence(id int64) error {
	v, ok, err := t.tx.sequences.Get(relation.SequenceKey(relation.SeqMaxObject))
	if err != nil {
		return err
	}
	cur := int64(-1)
	if ok {
		cur = v.(int64)
	}
	if id <= cur {
		return nil
	}
	if ok {
		if _, err := t.tx.sequences.Update(relation.SequenceKey(relation.SeqMaxObject), id); err != nil {
			return err
		}
		return nil
	}
	err = t.tx.sequences.InsertUnique(relation.SequenceKey(relation.SeqMaxObject), id)
	return err
}

// RecycleObject implements invariant 6: contents move to NOTHING, immediate
// children are reparented to o's own parent, and every per-object entry for
// o is removed from every relation.
func (t *Transaction) RecycleObject(o types.Obj) error {
	if err := t.requireValid(o); err != nil {
		return err
	}

	parentVal, _, err := t.tx.parent.Get(o.Key())
	if err != nil {
		return err
	}
	newParentForChildren, _ := parentVal.(types.Obj)

	contents, err := t.ws.Contents(o)
	if err != nil {
		return err
	}
	for _, c := range contents {
		if _, err := t.tx.location.Update(c.Key(), types.NOTHING); err != nil {
			return err
		}
	}

	children, err := t.ws.Children(o)
	if err != nil {
		return err
	}
	for _, c := range children {
		if _, err := t.tx.parent.Update(c.Key(), newParentForChildren); err != nil {
			return err
		}
	}

	if err := t.tx.owner.Delete(o.Key()); err != nil {
		return err
	}
	if err := t.tx.parent.Delete(o.Key()); err != nil {
		return err
	}
	if err := t.tx.location.Delete(o.Key()); err != nil {
		return err
	}
	if err := t.tx.flags.Delete(o.Key()); err != nil {
		return err
	}
	if err := t.tx.name.Delete(o.Key()); err != nil {
		return err
	}

	defsVal, ok, err := t.tx.propDefs.Get(o.Key())
	if err != nil {
		return err
	}
	if ok {
		for _, pd := range defsVal.([]types.PropDef) {
			_ = t.tx.propValue.Delete(objUUIDKey(o, pd.UUID))
			_ = t.tx.propPerms.Delete(objUUIDKey(o, pd.UUID))
		}
	}
	if err := t.tx.propDefs.Delete(o.Key()); err != nil {
		return err
	}

	verbsVal, ok, err := t.tx.verbDefs.Get(o.Key())
	if err != nil {
		return err
	}
	if ok {
		for _, vd := range verbsVal.([]types.VerbDef) {
			_ = t.tx.verbProgram.Delete(objUUIDKey(o, vd.UUID))
		}
	}
	if err := t.tx.verbDefs.Delete(o.Key()); err != nil {
		return err
	}
	return nil
}

// SetObjectParent reparents o, adding PropDefs inherited from new ancestors
// (with clear value) to o and its descendants, and stripping PropDefs
// (value, perms and def) whose definer is no longer an ancestor of o
// (invariant 5).
func (t *Transaction) SetObjectParent(o, newParent types.Obj) error {
	if err := t.requireValid(o); err != nil {
		return err
	}

	oldAncestors, err := ancestorsOf(t.tx, o)
	if err != nil {
		return err
	}
	newAncestors := []types.Obj{}
	if !newParent.IsNothing() {
		rest, err := ancestorsOf(t.tx, newParent)
		if err != nil {
			return err
		}
		newAncestors = append([]types.Obj{newParent}, rest...)
	}

	var removedDefiners, addedDefiners []types.Obj
	for _, a := range oldAncestors {
		if !containsObj(newAncestors, a) {
			removedDefiners = append(removedDefiners, a)
		}
	}
	for _, a := range newAncestors {
		if !containsObj(oldAncestors, a) {
			addedDefiners = append(addedDefiners, a)
		}
	}

	if _, err := t.tx.parent.Update(o.Key(), newParent); err != nil {
		return err
	}

	if len(removedDefiners) == 0 && len(addedDefiners) == 0 {
		return nil
	}

	descendants, err := descendantsOf(t.ws, o)
	if err != nil {
		return err
	}
	affected := append([]types.Obj{o}, descendants...)

	for _, obj := range affected {
		if len(removedDefiners) > 0 {
			defsVal, ok, err := t.tx.propDefs.Get(obj.Key())
			if err != nil {
				return err
			}
			if ok {
				defs := defsVal.([]types.PropDef)
				kept := defs[:0:0]
				for _, pd := range defs {
					if containsObj(removedDefiners, pd.Definer) {
						_ = t.tx.propValue.Delete(objUUIDKey(obj, pd.UUID))
						_ = t.tx.propPerms.Delete(objUUIDKey(obj, pd.UUID))
						continue
					}
					kept = append(kept, pd)
				}
				if len(kept) != len(defs) {
					if _, err := t.tx.propDefs.Update(obj.Key(), kept); err != nil {
						return err
					}
				}
			}
		}

		for _, ancestor := range addedDefiners {
			ancestorDefsVal, ok, err := t.tx.propDefs.Get(ancestor.Key())
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			for _, pd := range ancestorDefsVal.([]types.PropDef) {
				if !pd.Definer.Equal(ancestor) {
					continue
				}
				if err := t.addInheritedPropDef(obj, pd); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (t *Transaction) addInheritedPropDef(obj types.Obj, pd types.PropDef) error {
	defsVal, ok, err := t.tx.propDefs.Get(obj.Key())
	if err != nil {
		return err
	}
	var defs []types.PropDef
	if ok {
		defs = defsVal.([]types.PropDef)
	}
	for _, existing := range defs {
		if existing.UUID == pd.UUID {
			return nil
		}
	}
	defs = append(defs, pd)
	if ok {
		_, err = t.tx.propDefs.Update(obj.Key(), defs)
	} else {
		err = t.tx.propDefs.InsertUnique(obj.Key(), defs)
	}
	if err != nil {
		return err
	}
	perms := types.PropPerms{Owner: pd.Definer, Flags: 0}
	err = t.tx.propPerms.InsertUnique(objUUIDKey(obj, pd.UUID), perms)
	return err
}

// SetObjectLocation moves o into newLoc, refusing a move that would place o
// inside its own contents chain.
func (t *Transaction) SetObjectLocation(o, newLoc types.Obj) error {
	if err := t.requireValid(o); err != nil {
		return err
	}
	if !newLoc.IsNothing() {
		cur := newLoc
		seen := map[types.Obj]bool{}
		for !cur.IsNothing() {
			if cur.Equal(o) {
				return &RecursiveMoveError{Obj: o, Dest: newLoc}
			}
			if seen[cur] {
				break
			}
			seen[cur] = true
			lv, ok, err := t.tx.location.Get(cur.Key())
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			cur, _ = lv.(types.Obj)
		}
	}
	_, err := t.tx.location.Update(o.Key(), newLoc)
	return err
}

// DefineProperty allocates a uuid and writes the PropDef on o and every
// descendant: perms on all of them, value only on o.
func (t *Transaction) DefineProperty(o types.Obj, name string, owner types.Obj, flags types.PropFlags, value *types.Var) (types.PropDef, error) {
	if err := t.requireValid(o); err != nil {
		return types.PropDef{}, err
	}
	if dup, err := t.propertyNameExists(o, name); err != nil {
		return types.PropDef{}, err
	} else if dup {
		return types.PropDef{}, &DuplicatePropertyDefinitionError{Obj: o, Name: name}
	}

	pd := types.PropDef{UUID: uuid.New(), Definer: o, Location: o, Name: types.NewSymbol(name)}
	if err := t.addInheritedPropDef(o, pd); err != nil {
		return types.PropDef{}, err
	}
	if _, err := t.tx.propPerms.Update(objUUIDKey(o, pd.UUID), types.PropPerms{Owner: owner, Flags: flags}); err != nil {
		return types.PropDef{}, err
	}
	if value != nil {
		if err := t.tx.propValue.InsertUnique(objUUIDKey(o, pd.UUID), *value); err != nil {
			return types.PropDef{}, err
		}
	}

	descendants, err := descendantsOf(t.ws, o)
	if err != nil {
		return types.PropDef{}, err
	}
	for _, d := range descendants {
		if err := t.addInheritedPropDef(d, pd); err != nil {
			return types.PropDef{}, err
		}
	}
	return pd, nil
}

// propertyNameExists checks o's ancestor chain and descendant chain for a
// PropDef already using name.
func (t *Transaction) propertyNameExists(o types.Obj, name string) (bool, error) {
	sym := types.NewSymbol(name)
	defsVal, ok, err := t.tx.propDefs.Get(o.Key())
	if err != nil {
		return false, err
	}
	if ok {
		for _, pd := range defsVal.([]types.PropDef) {
			if pd.Name.Equal(sym) {
				return true, nil
			}
		}
	}
	descendants, err := descendantsOf(t.ws, o)
	if err != nil {
		return false, err
	}
	for _, d := range descendants {
		dv, ok, err := t.tx.propDefs.Get(d.Key())
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		for _, pd := range dv.([]types.PropDef) {
			if pd.Name.Equal(sym) {
				return true, nil
			}
		}
	}
	return false, nil
}

// ResolvedProperty is resolve_property's result: the defining record, the
// value in effect (found on o or inherited from the nearest ancestor that
// holds one), and whether that value is inherited ("clear").
type ResolvedProperty struct {
	Def     types.PropDef
	Perms   types.PropPerms
	Value   types.Var
	IsClear bool
}

// ResolveProperty finds the PropDef for name on o (materialized on every
// object it is visible to, so no ancestor walk is needed to find it), then
// the nearest value in o's own chain.
func (t *Transaction) ResolveProperty(o types.Obj, name string) (ResolvedProperty, error) {
	if err := t.requireValid(o); err != nil {
		return ResolvedProperty{}, err
	}
	sym := types.NewSymbol(name)
	defsVal, ok, err := t.tx.propDefs.Get(o.Key())
	if err != nil {
		return ResolvedProperty{}, err
	}
	var def types.PropDef
	found := false
	if ok {
		for _, pd := range defsVal.([]types.PropDef) {
			if pd.Name.Equal(sym) {
				def, found = pd, true
				break
			}
		}
	}
	if !found {
		return ResolvedProperty{}, &PropertyNotFoundError{Obj: o, Name: name}
	}

	permsVal, ok, err := t.tx.propPerms.Get(objUUIDKey(o, def.UUID))
	if err != nil {
		return ResolvedProperty{}, err
	}
	var perms types.PropPerms
	if ok {
		perms = permsVal.(types.PropPerms)
	}

	chain := append([]types.Obj{o}, mustAncestors(t, o)...)
	for _, holder := range chain {
		vv, ok, err := t.tx.propValue.Get(objUUIDKey(holder, def.UUID))
		if err != nil {
			return ResolvedProperty{}, err
		}
		if ok {
			return ResolvedProperty{Def: def, Perms: perms, Value: vv.(types.Var), IsClear: !holder.Equal(o)}, nil
		}
	}
	return ResolvedProperty{Def: def, Perms: perms, Value: types.None(), IsClear: true}, nil
}

func mustAncestors(t *Transaction, o types.Obj) []types.Obj {
	chain, _ := ancestorsOf(t.tx, o)
	return chain
}

// UpdatePropertyInfo renames (definer only), re-owns, or re-permissions a
// property by its uuid.
func (t *Transaction) UpdatePropertyInfo(o types.Obj, id uuid.UUID, owner *types.Obj, flags *types.PropFlags, name *string) error {
	defsVal, ok, err := t.tx.propDefs.Get(o.Key())
	if err != nil {
		return err
	}
	if !ok {
		return &PropertyNotFoundError{Obj: o}
	}
	defs := defsVal.([]types.PropDef)
	idx := -1
	for i, pd := range defs {
		if pd.UUID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &PropertyNotFoundError{Obj: o}
	}

	if name != nil {
		if !defs[idx].Definer.Equal(o) {
			return &PropertyNotFoundError{Obj: o, Name: *name}
		}
		defs[idx].Name = types.NewSymbol(*name)
		if _, err := t.tx.propDefs.Update(o.Key(), defs); err != nil {
			return err
		}
	}

	if owner != nil || flags != nil {
		permsVal, ok, err := t.tx.propPerms.Get(objUUIDKey(o, id))
		if err != nil {
			return err
		}
		var perms types.PropPerms
		if ok {
			perms = permsVal.(types.PropPerms)
		}
		if owner != nil {
			perms.Owner = *owner
		}
		if flags != nil {
			perms.Flags = *flags
		}
		if ok {
			_, err = t.tx.propPerms.Update(objUUIDKey(o, id), perms)
		} else {
			err = t.tx.propPerms.InsertUnique(objUUIDKey(o, id), perms)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ClearProperty deletes the value entry at (o, id), leaving the def and
// perms intact so resolution falls back to the nearest ancestor's value.
func (t *Transaction) ClearProperty(o types.Obj, id uuid.UUID) error {
	return t.tx.propValue.Delete(objUUIDKey(o, id))
}

// SetPropertyValue writes (or overwrites) the local value entry at (o, id),
// the counterpart to ClearProperty. The value entry for a PropDef is
// optional: defining a property need not supply one, and set_property
// fills it in later.
func (t *Transaction) SetPropertyValue(o types.Obj, id uuid.UUID, v types.Var) error {
	key := objUUIDKey(o, id)
	if _, present, err := t.tx.propValue.Get(key); err != nil {
		return err
	} else if present {
		_, err := t.tx.propValue.Update(key, v)
		return err
	}
	return t.tx.propValue.Insert(key, v)
}

// DeleteProperty removes the PropDef (and its orphaned value/perms) from o
// and every descendant.
func (t *Transaction) DeleteProperty(o types.Obj, id uuid.UUID) error {
	targets := append([]types.Obj{o}, mustDescendants(t, o)...)
	removed := false
	for _, obj := range targets {
		defsVal, ok, err := t.tx.propDefs.Get(obj.Key())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		defs := defsVal.([]types.PropDef)
		kept := defs[:0:0]
		for _, pd := range defs {
			if pd.UUID == id {
				removed = true
				_ = t.tx.propValue.Delete(objUUIDKey(obj, id))
				_ = t.tx.propPerms.Delete(objUUIDKey(obj, id))
				continue
			}
			kept = append(kept, pd)
		}
		if len(kept) != len(defs) {
			if _, err := t.tx.propDefs.Update(obj.Key(), kept); err != nil {
				return err
			}
		}
	}
	if !removed {
		return &PropertyNotFoundError{Obj: o}
	}
	return nil
}

func mustDescendants(t *Transaction, o types.Obj) []types.Obj {
	d, _ := descendantsOf(t.ws, o)
	return d
}

// AddObjectVerb appends a new VerbDef to o and writes its program bytes.
func (t *Transaction) AddObjectVerb(o types.Obj, owner types.Obj, names []string, flags types.VerbFlags, dobj, iobj types.ArgSpec, prep string, kind types.ProgramKind, program []byte) (types.VerbDef, error) {
	if err := t.requireValid(o); err != nil {
		return types.VerbDef{}, err
	}
	vd := types.VerbDef{
		UUID: uuid.New(), Definer: o, Owner: owner, Names: names,
		Flags: flags, Dobj: dobj, Prep: prep, Iobj: iobj, Kind: kind,
	}
	defsVal, ok, err := t.tx.verbDefs.Get(o.Key())
	if err != nil {
		return types.VerbDef{}, err
	}
	var defs []types.VerbDef
	if ok {
		defs = defsVal.([]types.VerbDef)
	}
	defs = append(defs, vd)
	if ok {
		_, err = t.tx.verbDefs.Update(o.Key(), defs)
	} else {
		err = t.tx.verbDefs.InsertUnique(o.Key(), defs)
	}
	if err != nil {
		return types.VerbDef{}, err
	}
	if err := t.tx.verbProgram.InsertUnique(objUUIDKey(o, vd.UUID), program); err != nil {
		return types.VerbDef{}, err
	}
	return vd, nil
}

// DeleteVerb removes the VerbDef with id from o and its compiled program.
func (t *Transaction) DeleteVerb(o types.Obj, id uuid.UUID) error {
	defsVal, ok, err := t.tx.verbDefs.Get(o.Key())
	if err != nil {
		return err
	}
	if !ok {
		return &VerbNotFoundError{Obj: o}
	}
	defs := defsVal.([]types.VerbDef)
	kept := defs[:0:0]
	removed := false
	for _, vd := range defs {
		if vd.UUID == id {
			removed = true
			continue
		}
		kept = append(kept, vd)
	}
	if !removed {
		return &VerbNotFoundError{Obj: o}
	}
	if _, err := t.tx.verbDefs.Update(o.Key(), kept); err != nil {
		return err
	}
	return t.tx.verbProgram.Delete(objUUIDKey(o, id))
}

// UpdateVerb rewrites metadata and/or program bytes for an existing verb.
func (t *Transaction) UpdateVerb(o types.Obj, id uuid.UUID, mutate func(*types.VerbDef), program []byte) error {
	defsVal, ok, err := t.tx.verbDefs.Get(o.Key())
	if err != nil {
		return err
	}
	if !ok {
		return &VerbNotFoundError{Obj: o}
	}
	defs := defsVal.([]types.VerbDef)
	idx := -1
	for i, vd := range defs {
		if vd.UUID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &VerbNotFoundError{Obj: o}
	}
	if mutate != nil {
		mutate(&defs[idx])
		if _, err := t.tx.verbDefs.Update(o.Key(), defs); err != nil {
			return err
		}
	}
	if program != nil {
		if _, err := t.tx.verbProgram.Update(objUUIDKey(o, id), program); err != nil {
			return err
		}
	}
	return nil
}

// VerbProgram loads the compiled bytes for (o, id), consulting the
// world-state's decode cache first.
func (t *Transaction) VerbProgram(o types.Obj, id uuid.UUID) ([]byte, bool, error) {
	cacheKey := o.String() + ":" + id.String()
	if cached, ok := t.ws.verbProgramCache.Get(cacheKey); ok {
		return cached, true, nil
	}
	v, ok, err := t.tx.verbProgram.Get(objUUIDKey(o, id))
	if err != nil || !ok {
		return nil, ok, err
	}
	b := v.([]byte)
	t.ws.verbProgramCache.Add(cacheKey, b)
	return b, true, nil
}
