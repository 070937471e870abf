package worldstate

import (
	"fmt"

	"github.com/cuemby/moorcore/pkg/types"
)

// ObjectNotFoundError reports that an operation named an object with no
// ObjectFlags entry.
type ObjectNotFoundError struct {
	Obj types.Obj
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("worldstate: object %s not found", e.Obj)
}

// RecursiveMoveError reports a set_object_location call that would move an
// object into its own contents chain.
type RecursiveMoveError struct {
	Obj, Dest types.Obj
}

func (e *RecursiveMoveError) Error() string {
	return fmt.Sprintf("worldstate: moving %s into %s would be recursive", e.Obj, e.Dest)
}

// DuplicatePropertyDefinitionError reports a define_property call whose name
// already exists on the object's ancestor or descendant chain.
type DuplicatePropertyDefinitionError struct {
	Obj  types.Obj
	Name string
}

func (e *DuplicatePropertyDefinitionError) Error() string {
	return fmt.Sprintf("worldstate: property %q already defined on %s's ancestor or descendant chain", e.Name, e.Obj)
}

// PropertyNotFoundError reports a property lookup that found no matching
// PropDef, or named a UUID no PropDef wears.
type PropertyNotFoundError struct {
	Obj  types.Obj
	Name string
}

func (e *PropertyNotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("worldstate: property %q not found on %s", e.Name, e.Obj)
	}
	return fmt.Sprintf("worldstate: property not found on %s", e.Obj)
}

// VerbNotFoundError reports a verb lookup or mutation that found no matching
// VerbDef.
type VerbNotFoundError struct {
	Obj  types.Obj
	Name string
}

func (e *VerbNotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("worldstate: verb %q not found on %s", e.Name, e.Obj)
	}
	return fmt.Sprintf("worldstate: verb not found on %s", e.Obj)
}
