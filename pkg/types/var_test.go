package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarAccessorsWrongType(t *testing.T) {
	v := NewInt(42)

	i, err := v.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(42), i)

	_, err = v.AsStr()
	var wte *WrongTypeError
	require.ErrorAs(t, err, &wte)
	assert.Equal(t, TypeStr, wte.Want)
	assert.Equal(t, TypeInt, wte.Got)
}

func TestVarEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Var
		equal bool
	}{
		{"ints equal", NewInt(1), NewInt(1), true},
		{"ints differ", NewInt(1), NewInt(2), false},
		{"str vs int", NewStr("1"), NewInt(1), false},
		{"symbols case-fold equal", NewSymbolVar(NewSymbol("Look")), NewSymbolVar(NewSymbol("look")), true},
		{"obj equal", NewObjVar(NewObjID(5)), NewObjVar(NewObjID(5)), true},
		{"obj differ", NewObjVar(NewObjID(5)), NewObjVar(NewObjID(6)), false},
		{"lists equal", NewList(NewInt(1), NewInt(2)), NewList(NewInt(1), NewInt(2)), true},
		{"lists differ length", NewList(NewInt(1)), NewList(NewInt(1), NewInt(2)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
		})
	}
}

func TestVarMerge3Lists(t *testing.T) {
	base := NewList(NewInt(1), NewInt(2))
	theirs := base
	mine := NewList(NewInt(1), NewInt(2), NewInt(3))

	merged, ok := mine.Merge3(base, theirs)
	require.True(t, ok)
	assert.True(t, merged.Equal(mine))

	// Both sides changed: no well-defined merge.
	theirsChanged := NewList(NewInt(9))
	_, ok = mine.Merge3(base, theirsChanged)
	assert.False(t, ok)
}

func TestOrderedMapPreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set(NewStr("a"), NewInt(1))
	m.Set(NewStr("b"), NewInt(2))
	m.Set(NewStr("a"), NewInt(3)) // update, not reorder

	var keys []string
	m.Range(func(k, v Var) bool {
		s, _ := k.AsStr()
		keys = append(keys, s)
		return true
	})
	assert.Equal(t, []string{"a", "b"}, keys)

	v, ok := m.Get(NewStr("a"))
	require.True(t, ok)
	i, _ := v.AsInt()
	assert.Equal(t, int64(3), i)
}

func TestSymbolInterningIsCaseInsensitive(t *testing.T) {
	a := NewSymbol("Desc")
	b := NewSymbol("DESC")
	assert.True(t, a.Equal(b))
	assert.Equal(t, "desc", a.String())
}

func TestObjNothing(t *testing.T) {
	assert.True(t, NOTHING.IsNothing())
	assert.False(t, NewObjID(0).IsNothing())
}

func TestObjKeyRoundTrip(t *testing.T) {
	for _, o := range []Obj{NewObjID(42), NewObjID(-7), NOTHING} {
		parsed, err := ParseObjKey(o.Key())
		require.NoError(t, err)
		assert.True(t, o.Equal(parsed))
	}
}

func TestVarJSONRoundTrip(t *testing.T) {
	m := NewOrderedMap()
	m.Set(NewStr("k"), NewInt(7))
	values := []Var{
		None(),
		NewInt(5),
		NewFloat(3.5),
		NewStr("hi"),
		NewBool(true),
		NewSymbolVar(NewSymbol("Foo")),
		NewObjVar(NewObjID(9)),
		NewObjVar(NewObjUUID(uuid.New())),
		NewErr(NewSymbol("e_propnf"), "not found", nil),
		NewList(NewInt(1), NewStr("x")),
		NewMap(m),
	}
	for _, v := range values {
		data, err := v.MarshalJSON()
		require.NoError(t, err)
		var out Var
		require.NoError(t, out.UnmarshalJSON(data))
		assert.True(t, v.Equal(out), "round-trip mismatch for %v", v)
	}
}
