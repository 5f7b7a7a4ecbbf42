package value

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/qimcis/raq/internal/qerr"
)

// Value is a sealed interface over the runtime values a relation cell or a
// predicate constant can hold. Only Null, Int, Float, String and Bool
// implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null is the absent value. It equals only itself and is never ordered.
type Null struct{}

func (Null) value() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Int is a 64-bit integer value.
type Int int64

func (Int) value() {}

// Float is a 64-bit floating-point value.
type Float float64

func (Float) value() {}

// String is a text value.
type String string

func (String) value() {}

// Text builds a String in Unicode NFC. Every source of string values (query
// literals, definition files, databases) goes through it, so canonically
// equivalent spellings compare equal.
func Text(s string) String {
	return String(norm.NFC.String(s))
}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// KindName returns a short name for the variant of v, for messages.
func KindName(v Value) string {
	switch v.(type) {
	case Null:
		return "null"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Equal reports whether a and b are the same value.
//
// This is the one equality law used for deduplication, set operations and
// the predicate == operator:
//   - Null equals only Null.
//   - Int and Float compare numerically with each other; a Float equals an
//     Int only when it is integral and represents exactly that integer.
//   - Strings compare byte-wise, Bools by truth value.
//   - Values of any other pair of kinds are never equal (true != 1).
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Float:
			return floatEqualsInt(float64(y), int64(x))
		}
	case Float:
		switch y := b.(type) {
		case Float:
			return x == y
		case Int:
			return floatEqualsInt(float64(x), int64(y))
		}
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	}
	return false
}

// Order is the outcome of Compare.
type Order int

const (
	Less      Order = -1
	Same      Order = 0
	Greater   Order = 1
	Unordered Order = 2 // a NaN operand; every ordering operator is false
)

// Compare orders a and b.
//
// Numbers (Int and Float in any mix), Strings and Bools (false < true) are
// ordered among their own kind. Int against Float is compared exactly, so
// Compare agrees with Equal above 2^53. A NaN operand yields Unordered.
// Every other pair, including any Null, fails with an UNORDERED_COMPARISON
// error.
func Compare(a, b Value) (Order, error) {
	switch x := a.(type) {
	case Int:
		switch y := b.(type) {
		case Int:
			return cmpOrdered(x, y), nil
		case Float:
			return cmpIntFloat(int64(x), float64(y)), nil
		}
	case Float:
		switch y := b.(type) {
		case Float:
			return cmpFloat(float64(x), float64(y)), nil
		case Int:
			return cmpIntFloat(int64(y), float64(x)).reverse(), nil
		}
	case String:
		if y, ok := b.(String); ok {
			return cmpOrdered(x, y), nil
		}
	case Bool:
		if y, ok := b.(Bool); ok {
			return cmpOrdered(boolRank(x), boolRank(y)), nil
		}
	}
	return Same, qerr.New(qerr.KindUnorderedComparison,
		"cannot order %s %s and %s %s", KindName(a), Literal(a), KindName(b), Literal(b))
}

func (o Order) reverse() Order {
	if o == Unordered {
		return o
	}
	return -o
}

// Holds reports whether o satisfies the ordering operator op, one of
// "<", "<=", ">" and ">=". Unordered satisfies none of them.
func (o Order) Holds(op string) bool {
	if o == Unordered {
		return false
	}
	switch op {
	case "<":
		return o == Less
	case "<=":
		return o != Greater
	case ">":
		return o == Greater
	case ">=":
		return o != Less
	default:
		return false
	}
}

// Truthy reports whether v counts as true in a boolean context.
// Null, false, 0, 0.0 and the empty string are false; everything else is true.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Float:
		return x != 0
	case String:
		return x != ""
	default:
		return false
	}
}

// AppendKey appends a canonical encoding of v to buf.
// Two values have identical encodings exactly when Equal reports true,
// except that every NaN shares one encoding, so a row set keeps one NaN row.
func AppendKey(buf []byte, v Value) []byte {
	switch x := v.(type) {
	case Null:
		return append(buf, 'n')
	case Bool:
		if x {
			return append(buf, 't')
		}
		return append(buf, 'f')
	case Int:
		buf = append(buf, 'i')
		buf = strconv.AppendInt(buf, int64(x), 10)
		return append(buf, 0)
	case Float:
		f := float64(x)
		if n, ok := integral(f); ok {
			buf = append(buf, 'i')
			buf = strconv.AppendInt(buf, n, 10)
			return append(buf, 0)
		}
		buf = append(buf, 'd')
		buf = strconv.AppendFloat(buf, f, 'g', -1, 64)
		return append(buf, 0)
	case String:
		buf = append(buf, 's')
		buf = binary.AppendUvarint(buf, uint64(len(x)))
		return append(buf, x...)
	default:
		return append(buf, '?')
	}
}

// Literal renders v the way it would be written in a query: strings quoted,
// null/true/false as keywords, floats always with a decimal point.
func Literal(v Value) string {
	switch x := v.(type) {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(bool(x))
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Float:
		return formatFloat(float64(x))
	case String:
		return strconv.Quote(string(x))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Cell renders v for tabular display: strings unquoted, null as NULL.
func Cell(v Value) string {
	switch x := v.(type) {
	case Null:
		return "NULL"
	case String:
		return string(x)
	default:
		return Literal(v)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	for _, c := range s {
		if c == '.' || c == 'e' {
			return s
		}
	}
	return s + ".0"
}

func floatEqualsInt(f float64, n int64) bool {
	m, ok := integral(f)
	return ok && m == n
}

// integral returns f as an int64 when f is a whole number inside the int64 range.
func integral(f float64) (int64, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < -9.223372036854775808e18 || f >= 9.223372036854775808e18 {
		return 0, false
	}
	return int64(f), true
}

func boolRank(b Bool) int {
	if b {
		return 1
	}
	return 0
}

func cmpOrdered[T ~int | ~int64 | ~string](a, b T) Order {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Same
	}
}

func cmpFloat(a, b float64) Order {
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		return Unordered
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Same
	}
}

// cmpIntFloat compares n with f without rounding n to a float64.
func cmpIntFloat(n int64, f float64) Order {
	switch {
	case math.IsNaN(f):
		return Unordered
	case f >= 9.223372036854775808e18:
		return Less
	case f < -9.223372036854775808e18:
		return Greater
	}
	t := math.Trunc(f)
	m := int64(t)
	switch {
	case n < m:
		return Less
	case n > m:
		return Greater
	case f > t:
		return Less
	case f < t:
		return Greater
	default:
		return Same
	}
}
