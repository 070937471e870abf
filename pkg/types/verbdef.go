package types

import "github.com/google/uuid"

// ArgSpec describes how a verb's direct or indirect object argument
// position matches a parsed command: no object allowed, any object, or
// specifically "this" (the object the verb is being resolved on).
type ArgSpec uint8

const (
	ArgSpecNone ArgSpec = iota
	ArgSpecAny
	ArgSpecThis
)

// ProgramKind tags what VerbProgram's compiled bytes represent. The compiler
// and VM that interpret the bytes live outside this repo; this
// tag only lets the core distinguish "has a real program" from placeholders
// used in tests.
type ProgramKind uint8

const (
	ProgramKindMOO ProgramKind = iota
	ProgramKindBuiltin
)

// VerbDef is the metadata record for one verb defined on an object. The
// compiled program bytes themselves live in the separate VerbProgram
// relation, keyed by (Definer, UUID).
type VerbDef struct {
	UUID     uuid.UUID
	Definer  Obj
	Owner    Obj
	Names    []string // may include "prefix*suffix" wildcard forms
	Flags    VerbFlags
	Dobj     ArgSpec
	Prep     string // "none", "any", or a specific preposition token
	Iobj     ArgSpec
	Kind     ProgramKind
}

// PropDef is the metadata record for one property defined somewhere in an
// object's ancestor chain. The value and permission entries for a given
// object are stored separately (ObjectPropValue / ObjectPropPerms), keyed by
// (object, UUID), so that a descendant can override one without the other.
type PropDef struct {
	UUID     uuid.UUID
	Definer  Obj
	Location Obj
	Name     Symbol
}

// PropPerms is the (owner, flags) pair stored per-object for a PropDef.
type PropPerms struct {
	Owner Obj
	Flags PropFlags
}
