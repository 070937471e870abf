package worldstate

import (
	"github.com/cuemby/moorcore/pkg/types"
	"github.com/google/uuid"
)

// objUUIDKey builds the domain key for relations whose domain is (Obj,Uuid)
// pairs: VerbProgram, ObjectPropValue, ObjectPropPerms.
func objUUIDKey(o types.Obj, id uuid.UUID) []byte {
	key := o.Key()
	b, _ := id.MarshalBinary()
	return append(key, b...)
}

func parseObjUUIDKey(b []byte) (types.Obj, uuid.UUID, error) {
	o, err := types.ParseObjKey(b)
	if err != nil {
		return types.Obj{}, uuid.Nil, err
	}
	var id uuid.UUID
	if err := id.UnmarshalBinary(b[types.ObjKeyLen:]); err != nil {
		return types.Obj{}, uuid.Nil, err
	}
	return o, id, nil
}
