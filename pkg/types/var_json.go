package types

import (
	"encoding/json"

	"github.com/google/uuid"
)

func parseUUIDString(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// jsonVar is the wire shape Var marshals to/from. Every Var variant fits in
// this one struct with the irrelevant fields omitted.
type jsonVar struct {
	Type    string             `json:"type"`
	Int     int64              `json:"i,omitempty"`
	Float   float64            `json:"f,omitempty"`
	Str     string             `json:"s,omitempty"`
	Bool    bool               `json:"b,omitempty"`
	Sym     string             `json:"sym,omitempty"`
	ObjKind string             `json:"obj_kind,omitempty"`
	ObjID   int64              `json:"obj_id,omitempty"`
	ObjUUID string             `json:"obj_uuid,omitempty"`
	ErrCode string             `json:"err_code,omitempty"`
	ErrMsg  string             `json:"err_msg,omitempty"`
	ErrPay  *jsonVar           `json:"err_payload,omitempty"`
	List    []jsonVar          `json:"list,omitempty"`
	Map     []jsonMapEntry     `json:"map,omitempty"`
	Fly     *jsonFlyweight     `json:"flyweight,omitempty"`
}

type jsonMapEntry struct {
	Key   jsonVar `json:"k"`
	Value jsonVar `json:"v"`
}

type jsonFlyweight struct {
	DelegateKind string            `json:"delegate_kind"`
	DelegateID   int64             `json:"delegate_id,omitempty"`
	DelegateUUID string            `json:"delegate_uuid,omitempty"`
	Attrs        map[string]jsonVar `json:"attrs,omitempty"`
	Contents     []jsonVar         `json:"contents,omitempty"`
}

func objToJSON(o Obj) (kind string, id int64, u string) {
	if uid, ok := o.UUID(); ok {
		return "uuid", 0, uid.String()
	}
	n, _ := o.ID()
	return "int", n, ""
}

func objFromJSON(kind string, id int64, u string) (Obj, error) {
	if kind == "uuid" {
		parsed, err := parseUUIDString(u)
		if err != nil {
			return Obj{}, err
		}
		return NewObjUUID(parsed), nil
	}
	return NewObjID(id), nil
}

func (v Var) toJSONVar() jsonVar {
	jv := jsonVar{Type: v.typ.String()}
	switch v.typ {
	case TypeInt:
		jv.Int = v.i
	case TypeFloat:
		jv.Float = v.f
	case TypeStr:
		jv.Str = v.s
	case TypeBool:
		jv.Bool = v.b
	case TypeSymbol:
		jv.Sym = v.sym.String()
	case TypeObj:
		jv.ObjKind, jv.ObjID, jv.ObjUUID = objToJSON(v.obj)
	case TypeErr:
		if v.err != nil {
			jv.ErrCode = v.err.Code.String()
			jv.ErrMsg = v.err.Message
			if v.err.Payload != nil {
				p := v.err.Payload.toJSONVar()
				jv.ErrPay = &p
			}
		}
	case TypeList:
		jv.List = make([]jsonVar, len(v.list))
		for i, item := range v.list {
			jv.List[i] = item.toJSONVar()
		}
	case TypeMap:
		if v.mp != nil {
			v.mp.Range(func(k, val Var) bool {
				jv.Map = append(jv.Map, jsonMapEntry{Key: k.toJSONVar(), Value: val.toJSONVar()})
				return true
			})
		}
	case TypeFlyweight:
		if v.fly != nil {
			fw := &jsonFlyweight{}
			fw.DelegateKind, fw.DelegateID, fw.DelegateUUID = objToJSON(v.fly.Delegate)
			if len(v.fly.Attrs) > 0 {
				fw.Attrs = make(map[string]jsonVar, len(v.fly.Attrs))
				for k, val := range v.fly.Attrs {
					fw.Attrs[k.String()] = val.toJSONVar()
				}
			}
			for _, c := range v.fly.Contents {
				fw.Contents = append(fw.Contents, c.toJSONVar())
			}
			jv.Fly = fw
		}
	}
	return jv
}

func fromJSONVar(jv jsonVar) (Var, error) {
	switch jv.Type {
	case "none", "":
		return None(), nil
	case "int":
		return NewInt(jv.Int), nil
	case "float":
		return NewFloat(jv.Float), nil
	case "str":
		return NewStr(jv.Str), nil
	case "bool":
		return NewBool(jv.Bool), nil
	case "symbol":
		return NewSymbolVar(NewSymbol(jv.Sym)), nil
	case "obj":
		o, err := objFromJSON(jv.ObjKind, jv.ObjID, jv.ObjUUID)
		if err != nil {
			return Var{}, err
		}
		return NewObjVar(o), nil
	case "err":
		var payload *Var
		if jv.ErrPay != nil {
			p, err := fromJSONVar(*jv.ErrPay)
			if err != nil {
				return Var{}, err
			}
			payload = &p
		}
		return NewErr(NewSymbol(jv.ErrCode), jv.ErrMsg, payload), nil
	case "list":
		items := make([]Var, len(jv.List))
		for i, item := range jv.List {
			v, err := fromJSONVar(item)
			if err != nil {
				return Var{}, err
			}
			items[i] = v
		}
		return NewList(items...), nil
	case "map":
		m := NewOrderedMap()
		for _, entry := range jv.Map {
			k, err := fromJSONVar(entry.Key)
			if err != nil {
				return Var{}, err
			}
			val, err := fromJSONVar(entry.Value)
			if err != nil {
				return Var{}, err
			}
			m.Set(k, val)
		}
		return NewMap(m), nil
	case "flyweight":
		if jv.Fly == nil {
			return NewFlyweight(&Flyweight{}), nil
		}
		delegate, err := objFromJSON(jv.Fly.DelegateKind, jv.Fly.DelegateID, jv.Fly.DelegateUUID)
		if err != nil {
			return Var{}, err
		}
		fw := &Flyweight{Delegate: delegate}
		if len(jv.Fly.Attrs) > 0 {
			fw.Attrs = make(map[Symbol]Var, len(jv.Fly.Attrs))
			for k, val := range jv.Fly.Attrs {
				v, err := fromJSONVar(val)
				if err != nil {
					return Var{}, err
				}
				fw.Attrs[NewSymbol(k)] = v
			}
		}
		for _, c := range jv.Fly.Contents {
			v, err := fromJSONVar(c)
			if err != nil {
				return Var{}, err
			}
			fw.Contents = append(fw.Contents, v)
		}
		return NewFlyweight(fw), nil
	default:
		return None(), nil
	}
}

// MarshalJSON lets a Var round-trip through the world-state's durable
// provider and through narrative events without exposing its internal
// layout.
func (v Var) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toJSONVar())
}

func (v *Var) UnmarshalJSON(data []byte) error {
	var jv jsonVar
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	parsed, err := fromJSONVar(jv)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
