package worldstate

import (
	"encoding/json"

	"github.com/cuemby/moorcore/pkg/relation"
	"github.com/cuemby/moorcore/pkg/types"
)

// objCodec is the Codec for relations whose codomain is a bare Obj
// (ObjectOwner, ObjectParent, ObjectLocation).
type objCodec struct{}

func (objCodec) Encode(v relation.Value) ([]byte, error) {
	o, _ := v.(types.Obj)
	return o.Key(), nil
}

func (objCodec) Decode(b []byte) (relation.Value, error) {
	return types.ParseObjKey(b)
}

// flagsCodec is the Codec for ObjectFlags.
type flagsCodec struct{}

func (flagsCodec) Encode(v relation.Value) ([]byte, error) {
	f, _ := v.(types.ObjectFlags)
	return []byte{byte(f)}, nil
}

func (flagsCodec) Decode(b []byte) (relation.Value, error) {
	if len(b) < 1 {
		return types.ObjectFlags(0), nil
	}
	return types.ObjectFlags(b[0]), nil
}

// stringCodec is the Codec for ObjectName.
type stringCodec struct{}

func (stringCodec) Encode(v relation.Value) ([]byte, error) {
	s, _ := v.(string)
	return []byte(s), nil
}

func (stringCodec) Decode(b []byte) (relation.Value, error) {
	return string(b), nil
}

// verbDefSetCodec is the Codec for ObjectVerbDefs: JSON-encoded over bbolt.
type verbDefSetCodec struct{}

func (verbDefSetCodec) Encode(v relation.Value) ([]byte, error) {
	defs, _ := v.([]types.VerbDef)
	return json.Marshal(defs)
}

func (verbDefSetCodec) Decode(b []byte) (relation.Value, error) {
	var defs []types.VerbDef
	if err := json.Unmarshal(b, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// propDefSetCodec is the Codec for ObjectPropDefs.
type propDefSetCodec struct{}

func (propDefSetCodec) Encode(v relation.Value) ([]byte, error) {
	defs, _ := v.([]types.PropDef)
	return json.Marshal(defs)
}

func (propDefSetCodec) Decode(b []byte) (relation.Value, error) {
	var defs []types.PropDef
	if err := json.Unmarshal(b, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// propPermsCodec is the Codec for ObjectPropPerms.
type propPermsCodec struct{}

func (propPermsCodec) Encode(v relation.Value) ([]byte, error) {
	perms, _ := v.(types.PropPerms)
	return json.Marshal(perms)
}

func (propPermsCodec) Decode(b []byte) (relation.Value, error) {
	var perms types.PropPerms
	if err := json.Unmarshal(b, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}

// varCodec is the Codec for ObjectPropValue: Var's own JSON marshalling.
type varCodec struct{}

func (varCodec) Encode(v relation.Value) ([]byte, error) {
	val, _ := v.(types.Var)
	return val.MarshalJSON()
}

func (varCodec) Decode(b []byte) (relation.Value, error) {
	var val types.Var
	if err := val.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return val, nil
}

// programCodec is the Codec for VerbProgram: opaque compiled bytes, handed
// through unchanged. Compilation is a host/VM concern, not this engine's.
type programCodec struct{}

func (programCodec) Encode(v relation.Value) ([]byte, error) {
	b, _ := v.([]byte)
	return b, nil
}

func (programCodec) Decode(b []byte) (relation.Value, error) {
	return append([]byte(nil), b...), nil
}
