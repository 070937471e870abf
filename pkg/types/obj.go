package types

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ObjKeyLen is the fixed width of Obj.Key()'s output, letting composite
// domain keys ((Obj, Uuid) pairs) append further bytes after it without an
// explicit length prefix.
const ObjKeyLen = 17

// ObjKind distinguishes the two identity shapes an Obj can carry.
type ObjKind uint8

const (
	ObjKindInt ObjKind = iota
	ObjKindUUID
)

// Obj identifies an object in the world: either a small signed integer id
// (the common case) or an opaque UUID-shaped id (used for anonymous/transient
// objects minted by builtins outside this package's scope).
type Obj struct {
	kind ObjKind
	id   int64
	u    uuid.UUID
}

// NOTHING is the distinguished absent object reference.
var NOTHING = NewObjID(-1)

// NewObjID builds an Obj from a small integer id.
func NewObjID(id int64) Obj {
	return Obj{kind: ObjKindInt, id: id}
}

// NewObjUUID builds an Obj from a UUID id.
func NewObjUUID(u uuid.UUID) Obj {
	return Obj{kind: ObjKindUUID, u: u}
}

// IsNothing reports whether o is the NOTHING sentinel.
func (o Obj) IsNothing() bool {
	return o.kind == ObjKindInt && o.id == -1
}

// IsUUID reports whether o carries a UUID identity rather than an integer one.
func (o Obj) IsUUID() bool {
	return o.kind == ObjKindUUID
}

// ID returns the integer id and true if o is integer-identified.
func (o Obj) ID() (int64, bool) {
	if o.kind != ObjKindInt {
		return 0, false
	}
	return o.id, true
}

// UUID returns the UUID id and true if o is UUID-identified.
func (o Obj) UUID() (uuid.UUID, bool) {
	if o.kind != ObjKindUUID {
		return uuid.Nil, false
	}
	return o.u, true
}

// Equal reports whether two Obj values name the same object.
func (o Obj) Equal(other Obj) bool {
	if o.kind != other.kind {
		return false
	}
	if o.kind == ObjKindInt {
		return o.id == other.id
	}
	return o.u == other.u
}

// String renders the MOO-conventional "#123" or "#uuid" form.
func (o Obj) String() string {
	if o.kind == ObjKindInt {
		return fmt.Sprintf("#%d", o.id)
	}
	return "#" + o.u.String()
}

// Key returns a fixed-width (ObjKeyLen-byte) encoding suitable for use as a
// relation domain key, or as the leading component of a composite key.
// Integer ids do not sort numerically under this encoding; only uniqueness
// and stable round-tripping are required.
func (o Obj) Key() []byte {
	buf := make([]byte, ObjKeyLen)
	if o.kind == ObjKindInt {
		buf[0] = 'i'
		binary.BigEndian.PutUint64(buf[1:9], uint64(o.id))
		return buf
	}
	buf[0] = 'u'
	b, _ := o.u.MarshalBinary()
	copy(buf[1:], b)
	return buf
}

// MarshalJSON renders Obj as its "#123"/"#uuid" string form, so it nests
// correctly inside VerbDef, PropDef and similar JSON-persisted records
// without needing to export kind/id/u.
func (o Obj) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Obj) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseObjString(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseObjString parses Obj.String()'s "#123" or "#uuid" form back into an Obj.
func ParseObjString(s string) (Obj, error) {
	s = strings.TrimPrefix(s, "#")
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NewObjID(id), nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return Obj{}, fmt.Errorf("types: invalid object string %q: %w", s, err)
	}
	return NewObjUUID(u), nil
}

// ParseObjKey decodes the first ObjKeyLen bytes of b as produced by Key.
func ParseObjKey(b []byte) (Obj, error) {
	if len(b) < ObjKeyLen {
		return Obj{}, fmt.Errorf("types: short object key (%d bytes)", len(b))
	}
	switch b[0] {
	case 'i':
		id := int64(binary.BigEndian.Uint64(b[1:9]))
		return NewObjID(id), nil
	case 'u':
		var u uuid.UUID
		if err := u.UnmarshalBinary(b[1:17]); err != nil {
			return Obj{}, err
		}
		return NewObjUUID(u), nil
	default:
		return Obj{}, fmt.Errorf("types: unknown object key tag %q", b[0])
	}
}
