package value

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qimcis/raq/internal/qerr"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = Int(1)
	var _ Value = Float(1.5)
	var _ Value = String("a")
	var _ Value = Bool(true)
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int int", Int(3), Int(3), true},
		{"int int differ", Int(3), Int(4), false},
		{"int float integral", Int(1), Float(1.0), true},
		{"float int integral", Float(2.0), Int(2), true},
		{"int float fractional", Int(1), Float(1.5), false},
		{"float float", Float(0.5), Float(0.5), true},
		{"string string", String("A"), String("A"), true},
		{"string case", String("A"), String("a"), false},
		{"bool bool", Bool(true), Bool(true), true},
		{"bool vs int", Bool(true), Int(1), false},
		{"null null", Null{}, Null{}, true},
		{"null vs zero", Null{}, Int(0), false},
		{"string vs int", String("1"), Int(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a), "Equal must be symmetric")
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want Order
	}{
		{"int less", Int(1), Int(2), -1},
		{"int greater", Int(5), Int(2), 1},
		{"mixed numeric", Int(2), Float(2.5), -1},
		{"mixed equal", Float(3.0), Int(3), 0},
		{"strings", String("abc"), String("abd"), -1},
		{"bools", Bool(false), Bool(true), -1},
		{"int above float precision", Int(1<<53 + 1), Float(1 << 53), Greater},
		{"float below int above precision", Float(1 << 53), Int(1<<53 + 1), Less},
		{"int against fraction", Int(-3), Float(-2.5), Less},
		{"negative fraction against int", Float(-2.5), Int(-2), Less},
		{"int against huge float", Int(math.MaxInt64), Float(math.Pow(2, 63)), Less},
		{"int against infinity", Int(math.MinInt64), Float(math.Inf(-1)), Greater},
		{"nan against int", Float(math.NaN()), Int(5), Unordered},
		{"int against nan", Int(5), Float(math.NaN()), Unordered},
		{"nan against float", Float(1), Float(math.NaN()), Unordered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareAgreesWithEqual(t *testing.T) {
	pairs := [][2]Value{
		{Int(1<<53 + 1), Float(1 << 53)},
		{Int(1 << 53), Float(1 << 53)},
		{Int(7), Float(7.5)},
		{Int(-1), Float(-1)},
	}
	for _, p := range pairs {
		order, err := Compare(p[0], p[1])
		require.NoError(t, err)
		assert.Equal(t, Equal(p[0], p[1]), order == Same, "%v vs %v", p[0], p[1])
	}
}

func TestOrderHolds(t *testing.T) {
	tests := []struct {
		order Order
		op    string
		want  bool
	}{
		{Less, "<", true},
		{Less, "<=", true},
		{Less, ">", false},
		{Less, ">=", false},
		{Same, "<", false},
		{Same, "<=", true},
		{Same, ">=", true},
		{Greater, ">", true},
		{Greater, "<=", false},
		{Unordered, "<", false},
		{Unordered, "<=", false},
		{Unordered, ">", false},
		{Unordered, ">=", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.order.Holds(tt.op), "%d %s", tt.order, tt.op)
	}
}

func TestCompareUnordered(t *testing.T) {
	pairs := [][2]Value{
		{Int(1), String("1")},
		{Null{}, Int(1)},
		{Null{}, Null{}},
		{Bool(true), Int(1)},
		{String("a"), Float(1)},
	}

	for _, p := range pairs {
		_, err := Compare(p[0], p[1])
		require.Error(t, err)
		assert.True(t, qerr.Is(err, qerr.KindUnorderedComparison), "got %v", err)
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(Null{}))
	assert.False(t, Truthy(Int(0)))
	assert.False(t, Truthy(Float(0)))
	assert.False(t, Truthy(String("")))
	assert.False(t, Truthy(Bool(false)))

	assert.True(t, Truthy(Int(-1)))
	assert.True(t, Truthy(Float(0.1)))
	assert.True(t, Truthy(String("0")))
	assert.True(t, Truthy(Bool(true)))
}

func TestAppendKeyAgreesWithEqual(t *testing.T) {
	values := []Value{
		Null{}, Bool(true), Bool(false),
		Int(0), Int(1), Int(-7), Float(1.0), Float(1.5), Float(-7),
		String(""), String("1"), String("a"), String("ab"),
	}

	for _, a := range values {
		for _, b := range values {
			ka := string(AppendKey(nil, a))
			kb := string(AppendKey(nil, b))
			assert.Equal(t, Equal(a, b), ka == kb, "%s vs %s", Literal(a), Literal(b))
		}
	}
}

func TestAppendKeyTupleBoundaries(t *testing.T) {
	// ("ab", "c") and ("a", "bc") must not collide when concatenated.
	k1 := AppendKey(AppendKey(nil, String("ab")), String("c"))
	k2 := AppendKey(AppendKey(nil, String("a")), String("bc"))
	assert.NotEqual(t, string(k1), string(k2))

	k3 := AppendKey(AppendKey(nil, Int(1)), Int(23))
	k4 := AppendKey(AppendKey(nil, Int(12)), Int(3))
	assert.NotEqual(t, string(k3), string(k4))
}

func TestLiteralAndCell(t *testing.T) {
	assert.Equal(t, `"A"`, Literal(String("A")))
	assert.Equal(t, "A", Cell(String("A")))
	assert.Equal(t, "30", Literal(Int(30)))
	assert.Equal(t, "30.0", Literal(Float(30)))
	assert.Equal(t, "2.5", Literal(Float(2.5)))
	assert.Equal(t, "null", Literal(Null{}))
	assert.Equal(t, "NULL", Cell(Null{}))
	assert.Equal(t, "true", Cell(Bool(true)))
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		in   any
		want Value
	}{
		{nil, Null{}},
		{true, Bool(true)},
		{"x", String("x")},
		{[]byte("raw"), String("raw")},
		{42, Int(42)},
		{int32(7), Int(7)},
		{uint16(9), Int(9)},
		{2.5, Float(2.5)},
		{float32(0.5), Float(0.5)},
		{json.Number("12"), Int(12)},
		{json.Number("1.25"), Float(1.25)},
		{Int(3), Int(3)},
	}

	for _, tt := range tests {
		got, err := FromAny(tt.in)
		require.NoError(t, err, "input %#v", tt.in)
		assert.Equal(t, tt.want, got, "input %#v", tt.in)
	}

	_, err := FromAny(struct{}{})
	assert.Error(t, err)
	_, err = FromAny(uint64(1 << 63))
	assert.Error(t, err)
}

func TestToAny(t *testing.T) {
	assert.Nil(t, ToAny(Null{}))
	assert.Equal(t, int64(3), ToAny(Int(3)))
	assert.Equal(t, 1.5, ToAny(Float(1.5)))
	assert.Equal(t, "s", ToAny(String("s")))
	assert.Equal(t, true, ToAny(Bool(true)))
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal([]Value{Null{}, Int(1), Float(2.5), String("a"), Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, `[null,1,2.5,"a",false]`, string(data))
}

func TestFromAnyNormalizesStrings(t *testing.T) {
	for _, raw := range []any{"Rene\u0301", []byte("Rene\u0301"), "Ren\u00e9"} {
		v, err := FromAny(raw)
		require.NoError(t, err)
		assert.Equal(t, String("Ren\u00e9"), v)
	}
	assert.Equal(t, Text("Ren\u00e9"), Text("Rene\u0301"))
}
