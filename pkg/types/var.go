package types

// VarType tags the dynamic variant a Var currently holds.
type VarType uint8

const (
	TypeNone VarType = iota
	TypeInt
	TypeFloat
	TypeStr
	TypeSymbol
	TypeObj
	TypeErr
	TypeList
	TypeMap
	TypeBool
	TypeFlyweight
)

func (t VarType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeStr:
		return "str"
	case TypeSymbol:
		return "symbol"
	case TypeObj:
		return "obj"
	case TypeErr:
		return "err"
	case TypeList:
		return "list"
	case TypeMap:
		return "map"
	case TypeBool:
		return "bool"
	case TypeFlyweight:
		return "flyweight"
	default:
		return "unknown"
	}
}

// ErrorValue is the payload of a Var of kind TypeErr: a named error with an
// optional human message and an optional arbitrary payload.
type ErrorValue struct {
	Code    Symbol
	Message string
	Payload *Var
}

// Flyweight is a lightweight object-alike: a delegate object supplying
// inherited behavior, a slot map of attribute overrides, and an ordered
// content list.
type Flyweight struct {
	Delegate Obj
	Attrs    map[Symbol]Var
	Contents []Var
}

// Var is the universal dynamic value. The zero Var is TypeNone ("none").
type Var struct {
	typ  VarType
	i    int64
	f    float64
	s    string
	sym  Symbol
	obj  Obj
	err  *ErrorValue
	list []Var
	mp   *OrderedMap
	b    bool
	fly  *Flyweight
}

// None returns the none Var.
func None() Var { return Var{typ: TypeNone} }

func NewInt(i int64) Var     { return Var{typ: TypeInt, i: i} }
func NewFloat(f float64) Var { return Var{typ: TypeFloat, f: f} }
func NewStr(s string) Var    { return Var{typ: TypeStr, s: s} }
func NewBool(b bool) Var     { return Var{typ: TypeBool, b: b} }
func NewSymbolVar(sym Symbol) Var { return Var{typ: TypeSymbol, sym: sym} }
func NewObjVar(o Obj) Var     { return Var{typ: TypeObj, obj: o} }
func NewList(items ...Var) Var { return Var{typ: TypeList, list: items} }
func NewMap(m *OrderedMap) Var  { return Var{typ: TypeMap, mp: m} }
func NewFlyweight(fw *Flyweight) Var { return Var{typ: TypeFlyweight, fly: fw} }

func NewErr(code Symbol, message string, payload *Var) Var {
	return Var{typ: TypeErr, err: &ErrorValue{Code: code, Message: message, Payload: payload}}
}

// Type returns the variant tag currently held.
func (v Var) Type() VarType { return v.typ }

func (v Var) AsInt() (int64, error) {
	if v.typ != TypeInt {
		return 0, &WrongTypeError{Want: TypeInt, Got: v.typ}
	}
	return v.i, nil
}

func (v Var) AsFloat() (float64, error) {
	if v.typ != TypeFloat {
		return 0, &WrongTypeError{Want: TypeFloat, Got: v.typ}
	}
	return v.f, nil
}

func (v Var) AsStr() (string, error) {
	if v.typ != TypeStr {
		return "", &WrongTypeError{Want: TypeStr, Got: v.typ}
	}
	return v.s, nil
}

func (v Var) AsBool() (bool, error) {
	if v.typ != TypeBool {
		return false, &WrongTypeError{Want: TypeBool, Got: v.typ}
	}
	return v.b, nil
}

func (v Var) AsSymbol() (Symbol, error) {
	if v.typ != TypeSymbol {
		return Symbol{}, &WrongTypeError{Want: TypeSymbol, Got: v.typ}
	}
	return v.sym, nil
}

func (v Var) AsObj() (Obj, error) {
	if v.typ != TypeObj {
		return Obj{}, &WrongTypeError{Want: TypeObj, Got: v.typ}
	}
	return v.obj, nil
}

func (v Var) AsErr() (*ErrorValue, error) {
	if v.typ != TypeErr {
		return nil, &WrongTypeError{Want: TypeErr, Got: v.typ}
	}
	return v.err, nil
}

func (v Var) AsList() ([]Var, error) {
	if v.typ != TypeList {
		return nil, &WrongTypeError{Want: TypeList, Got: v.typ}
	}
	return v.list, nil
}

func (v Var) AsMap() (*OrderedMap, error) {
	if v.typ != TypeMap {
		return nil, &WrongTypeError{Want: TypeMap, Got: v.typ}
	}
	return v.mp, nil
}

func (v Var) AsFlyweight() (*Flyweight, error) {
	if v.typ != TypeFlyweight {
		return nil, &WrongTypeError{Want: TypeFlyweight, Got: v.typ}
	}
	return v.fly, nil
}

// IsNone reports whether v is the none value.
func (v Var) IsNone() bool { return v.typ == TypeNone }

// Equal performs a deep, order-sensitive equality check across variants.
func (v Var) Equal(other Var) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeNone:
		return true
	case TypeInt:
		return v.i == other.i
	case TypeFloat:
		return v.f == other.f
	case TypeStr:
		return v.s == other.s
	case TypeBool:
		return v.b == other.b
	case TypeSymbol:
		return v.sym.Equal(other.sym)
	case TypeObj:
		return v.obj.Equal(other.obj)
	case TypeErr:
		if (v.err == nil) != (other.err == nil) {
			return false
		}
		if v.err == nil {
			return true
		}
		return v.err.Code.Equal(other.err.Code) && v.err.Message == other.err.Message
	case TypeList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case TypeMap:
		return v.mp.Equal(other.mp)
	case TypeFlyweight:
		if v.fly == nil || other.fly == nil {
			return v.fly == other.fly
		}
		if !v.fly.Delegate.Equal(other.fly.Delegate) {
			return false
		}
		if len(v.fly.Attrs) != len(other.fly.Attrs) {
			return false
		}
		for k, val := range v.fly.Attrs {
			ov, ok := other.fly.Attrs[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		if len(v.fly.Contents) != len(other.fly.Contents) {
			return false
		}
		for i := range v.fly.Contents {
			if !v.fly.Contents[i].Equal(other.fly.Contents[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Merge3 implements the optional three-way merge SmartMerge delegates to
// (see pkg/relation). Only list and map variants attempt a structural
// merge; every other kind reports "no merge" and lets the caller fall back
// to conflict. A successful merge requires all three values to share the
// same variant.
func (v Var) Merge3(base, theirs Var) (Var, bool) {
	if v.typ != base.typ || v.typ != theirs.typ {
		return Var{}, false
	}
	switch v.typ {
	case TypeList:
		return mergeLists(base.list, theirs.list, v.list)
	case TypeMap:
		merged, ok := v.mp.Merge3(theirs.mp, base.mp)
		if !ok {
			return Var{}, false
		}
		return NewMap(merged), true
	default:
		return Var{}, false
	}
}

// mergeLists merges two list edits against a common base only when exactly
// one side actually changed the list; if both sides changed it, there is no
// well-defined merge and the caller should conflict.
func mergeLists(base, theirs, mine []Var) (Var, bool) {
	baseVar := Var{typ: TypeList, list: base}
	theirsVar := Var{typ: TypeList, list: theirs}
	mineVar := Var{typ: TypeList, list: mine}
	if baseVar.Equal(theirsVar) {
		return mineVar, true
	}
	if baseVar.Equal(mineVar) {
		return theirsVar, true
	}
	return Var{}, false
}
