package document

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny(t *testing.T) {
	when := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in := map[string]any{
		"s":       "text",
		"i":       int64(3),
		"u":       uint8(4),
		"f":       1.5,
		"b":       false,
		"n":       nil,
		"num":     json.Number("2.25"),
		"when":    when,
		"yaml":    map[any]any{"k": 1},
		"typed":   map[string]float64{"x": 0.5},
		"strings": []string{"a", "b"},
	}

	v, err := FromAny(in)
	require.NoError(t, err)

	want := Object{
		"s":       String("text"),
		"i":       Number(3),
		"u":       Number(4),
		"f":       Number(1.5),
		"b":       Bool(false),
		"n":       Null{},
		"num":     Number(2.25),
		"when":    String("2025-03-01T12:00:00Z"),
		"yaml":    Object{"k": Number(1)},
		"typed":   Object{"x": Number(0.5)},
		"strings": List{String("a"), String("b")},
	}
	assert.True(t, Equal(want, v), "got %#v", v)
}

func TestFromAny_RejectsNonFinite(t *testing.T) {
	_, err := FromAny(map[string]any{"x": math.NaN()})
	assert.Error(t, err)

	_, err = FromAny([]any{math.Inf(1)})
	assert.Error(t, err)
}

func TestToAny_RoundTrip(t *testing.T) {
	doc := Object{
		"a": List{Number(1), String("two"), Null{}},
		"b": Object{"c": Bool(true)},
	}

	plain := ToAny(doc)
	assert.Equal(t, map[string]any{
		"a": []any{1.0, "two", nil},
		"b": map[string]any{"c": true},
	}, plain)

	back, err := FromAny(plain)
	require.NoError(t, err)
	assert.True(t, Equal(doc, back))
}

func TestObject_Accessors(t *testing.T) {
	doc := Object{
		"name":  String("x"),
		"score": Number(7),
		"tags":  List{String("t")},
		"inner": Object{"deep": Object{"leaf": String("y")}},
	}

	s, ok := doc.GetString("name")
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = doc.GetString("score")
	assert.False(t, ok)

	n, ok := doc.GetNumber("score")
	assert.True(t, ok)
	assert.Equal(t, 7.0, n)

	l, ok := doc.GetList("tags")
	assert.True(t, ok)
	assert.Len(t, l, 1)

	assert.Equal(t, []string{"inner", "name", "score", "tags"}, doc.Keys())

	leaf, ok := Lookup(doc, "inner.deep.leaf")
	assert.True(t, ok)
	assert.Equal(t, String("y"), leaf)

	_, ok = Lookup(doc, "inner.missing.leaf")
	assert.False(t, ok)
}

func TestClone_IsDeep(t *testing.T) {
	orig := Object{"list": List{String("a")}, "obj": Object{"k": Number(1)}}
	cp := orig.Clone()

	cp["list"].(List)[0] = String("changed")
	cp["obj"].(Object)["k"] = Number(2)

	assert.Equal(t, String("a"), orig["list"].(List)[0])
	assert.Equal(t, Number(1), orig["obj"].(Object)["k"])
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Null{}, nil))
	assert.True(t, Equal(List{Number(1)}, List{Number(1)}))
	assert.False(t, Equal(List{Number(1)}, List{Number(1), Number(2)}))
	assert.False(t, Equal(Object{"a": Number(1)}, Object{"a": String("1")}))
	assert.False(t, Equal(Object{"a": Number(1)}, Object{"b": Number(1)}))
}

func TestMarshal_Deterministic(t *testing.T) {
	doc := Object{"b": Null{}, "a": List{Bool(true), Number(1.5)}}

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":[true,1.5],"b":null}`, string(out))
	assert.Equal(t, `{"a":[true,1.5],"b":null}`, string(out))
}
