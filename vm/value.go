package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies which payload a Value carries.
type ValueKind uint8

const (
	KindString ValueKind = iota
	KindInteger
	KindDouble
	KindBoolean
	KindColor
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindDouble:
		return "double"
	case KindBoolean:
		return "boolean"
	case KindColor:
		return "color"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is a dynamically-typed Scratch scalar.
//
// Values are immutable and copied by value. The only way to build one is
// through the From* constructors (or ParseLiteral), so the kind always
// matches the populated payload. The zero Value is the empty string.
type Value struct {
	kind ValueKind
	i    int
	d    float64
	b    bool
	s    string
	c    Color
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// FromInt returns an Integer value.
func FromInt(n int) Value { return Value{kind: KindInteger, i: n} }

// FromFloat64 returns a Double value.
func FromFloat64(f float64) Value { return Value{kind: KindDouble, d: f} }

// FromBool returns a Boolean value.
func FromBool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// FromString returns a String value.
func FromString(s string) Value { return Value{kind: KindString, s: s} }

// FromColor returns a Color value.
func FromColor(c Color) Value { return Value{kind: KindColor, c: c} }

// ParseLiteral converts a decoded JSON literal into a Value.
//
// Whole numbers become Integers, numeric-looking strings are converted to
// numbers (the Infinity tokens stay strings), and arrays use their second
// element, which is where project files keep the literal of a primitive.
func ParseLiteral(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Value{}
	case bool:
		return FromBool(x)
	case int:
		return FromInt(x)
	case float64:
		return numberValue(x)
	case string:
		if x == "Infinity" || x == "-Infinity" {
			return FromString(x)
		}
		if isNumber(x) {
			f, _ := parseNumber(x)
			return numberValue(f)
		}
		return FromString(x)
	case []any:
		if len(x) > 1 {
			return ParseLiteral(x[1])
		}
		return FromInt(0)
	}
	return FromInt(0)
}

func numberValue(f float64) Value {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return FromInt(int(f))
	}
	return FromFloat64(f)
}

// ---------------------------------------------------------------------------
// Type checks
// ---------------------------------------------------------------------------

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsInteger() bool { return v.kind == KindInteger }
func (v Value) IsDouble() bool  { return v.kind == KindDouble }
func (v Value) IsBoolean() bool { return v.kind == KindBoolean }
func (v Value) IsString() bool  { return v.kind == KindString }
func (v Value) IsColor() bool   { return v.kind == KindColor }

// IsNumeric reports whether v takes part in arithmetic as a number.
func (v Value) IsNumeric() bool {
	switch v.kind {
	case KindInteger, KindDouble, KindBoolean, KindColor:
		return true
	case KindString:
		return v.s == "Infinity" || v.s == "-Infinity" || isNumber(v.s)
	}
	return false
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

// AsDouble converts v to a float64. Non-numeric strings convert to 0.
func (v Value) AsDouble() float64 {
	switch v.kind {
	case KindInteger:
		return float64(v.i)
	case KindDouble:
		return v.d
	case KindBoolean:
		if v.b {
			return 1
		}
		return 0
	case KindColor:
		return float64(v.AsInt())
	case KindString:
		// The Infinity tokens stay infinite so arithmetic on them still
		// prints as Infinity.
		f, _ := parseNumber(v.s)
		return f
	}
	return 0
}

// AsInt converts v to an int, rounding doubles to the nearest integer.
func (v Value) AsInt() int {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindDouble:
		return roundToInt(v.d)
	case KindBoolean:
		if v.b {
			return 1
		}
		return 0
	case KindColor:
		rgb := HSBToRGB(v.c)
		return channel(rgb.R)*0x10000 + channel(rgb.G)*0x100 + channel(rgb.B)
	case KindString:
		switch v.s {
		case "Infinity":
			return math.MaxInt
		case "-Infinity":
			return -math.MaxInt
		}
		f, ok := parseNumber(v.s)
		if !ok {
			return 0
		}
		return roundToInt(f)
	}
	return 0
}

// AsString renders v the way Scratch displays it.
func (v Value) AsString() string {
	switch v.kind {
	case KindInteger:
		return strconv.Itoa(v.i)
	case KindDouble:
		return formatDouble(v.d)
	case KindBoolean:
		if v.b {
			return "true"
		}
		return "false"
	case KindString:
		return v.s
	case KindColor:
		rgb := HSBToRGB(v.c)
		return fmt.Sprintf("#%02x%02x%02x", channel(rgb.R), channel(rgb.G), channel(rgb.B))
	}
	return ""
}

// String implements fmt.Stringer.
func (v Value) String() string { return v.AsString() }

// AsBool applies Scratch truthiness: false, 0, "", "0" and "false" (in any
// case) are false, everything else is true.
func (v Value) AsBool() bool {
	switch v.kind {
	case KindBoolean:
		return v.b
	case KindInteger:
		return v.i != 0
	case KindDouble:
		return v.d != 0 && !math.IsNaN(v.d)
	case KindColor:
		return true
	case KindString:
		return v.s != "" && v.s != "0" && !strings.EqualFold(v.s, "false")
	}
	return false
}

// AsColor converts v to an HSB color. Strings must be exactly #RRGGBB;
// anything else yields black.
func (v Value) AsColor() Color {
	switch v.kind {
	case KindInteger:
		return colorFromInt(v.i)
	case KindDouble:
		return colorFromInt(int(v.d))
	case KindBoolean:
		if v.b {
			return Color{Brightness: 100}
		}
		return Color{}
	case KindColor:
		return v.c
	case KindString:
		if len(v.s) != 7 || v.s[0] != '#' || !allDigits(v.s[1:], 16) {
			return Color{}
		}
		n, err := strconv.ParseUint(v.s[1:], 16, 32)
		if err != nil {
			return Color{}
		}
		return colorFromInt(int(n))
	}
	return Color{}
}

func colorFromInt(n int) Color {
	return RGBToHSB(RGB{
		R: float64((n >> 16) & 0xFF),
		G: float64((n >> 8) & 0xFF),
		B: float64(n & 0xFF),
	})
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

func numericOrZero(v Value) Value {
	if v.IsNumeric() {
		return v
	}
	return FromInt(0)
}

// Integer arithmetic that would wrap falls back to doubles.

func addOverflows(a, b int) bool {
	c := a + b
	return (a^c)&(b^c) < 0
}

func subOverflows(a, b int) bool {
	c := a - b
	return (a^b)&(a^c) < 0
}

func mulOverflows(a, b int) bool {
	if a == 0 || b == 0 {
		return false
	}
	if (a == -1 && b == math.MinInt) || (b == -1 && a == math.MinInt) {
		return true
	}
	return (a*b)/b != a
}

// Add returns v + o. Non-numeric operands count as zero.
func (v Value) Add(o Value) Value {
	a, b := numericOrZero(v), numericOrZero(o)
	if a.kind == KindInteger && b.kind == KindInteger && !addOverflows(a.i, b.i) {
		return FromInt(a.i + b.i)
	}
	return FromFloat64(a.AsDouble() + b.AsDouble())
}

// Sub returns v - o.
func (v Value) Sub(o Value) Value {
	a, b := numericOrZero(v), numericOrZero(o)
	if a.kind == KindInteger && b.kind == KindInteger && !subOverflows(a.i, b.i) {
		return FromInt(a.i - b.i)
	}
	return FromFloat64(a.AsDouble() - b.AsDouble())
}

// Mul returns v * o.
func (v Value) Mul(o Value) Value {
	a, b := numericOrZero(v), numericOrZero(o)
	if a.kind == KindInteger && b.kind == KindInteger && !mulOverflows(a.i, b.i) {
		return FromInt(a.i * b.i)
	}
	return FromFloat64(a.AsDouble() * b.AsDouble())
}

// Div returns v / o as a Double. Division by zero yields Integer 0.
func (v Value) Div(o Value) Value {
	a, b := numericOrZero(v), numericOrZero(o)
	d := b.AsDouble()
	if d == 0 {
		return FromInt(0)
	}
	return FromFloat64(a.AsDouble() / d)
}

// Mod returns the floored modulo of v by o; the result takes the sign of o.
// Modulo by zero yields Integer 0.
func (v Value) Mod(o Value) Value {
	a, b := numericOrZero(v), numericOrZero(o)
	if a.kind == KindInteger && b.kind == KindInteger {
		if b.i == 0 {
			return FromInt(0)
		}
		r := a.i % b.i
		if r != 0 && (r < 0) != (b.i < 0) {
			r += b.i
		}
		return FromInt(r)
	}
	d := b.AsDouble()
	if d == 0 {
		return FromInt(0)
	}
	r := math.Mod(a.AsDouble(), d)
	if r != 0 && (r < 0) != (d < 0) {
		r += d
	}
	return FromFloat64(r)
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

// Equals compares same-kind values directly and everything else by string form.
func (v Value) Equals(o Value) bool {
	if v.kind == o.kind {
		switch v.kind {
		case KindInteger:
			return v.i == o.i
		case KindDouble:
			return v.d == o.d
		case KindBoolean:
			return v.b == o.b
		case KindString:
			return v.s == o.s
		case KindColor:
			return v.c == o.c
		}
	}
	return v.AsString() == o.AsString()
}

// Less compares numerically when both sides are numeric, else by string form.
func (v Value) Less(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		return v.AsDouble() < o.AsDouble()
	}
	return v.AsString() < o.AsString()
}

// Greater compares numerically when both sides are numeric, else by string form.
func (v Value) Greater(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		return v.AsDouble() > o.AsDouble()
	}
	return v.AsString() > o.AsString()
}

// ---------------------------------------------------------------------------
// Numeric parsing
// ---------------------------------------------------------------------------

// isNumber recognises decimal (sign, fraction, exponent), 0x, 0b and 0o literals.
func isNumber(s string) bool {
	if s == "" {
		return false
	}
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return allDigits(s[2:], 16)
		case 'b', 'B':
			return allDigits(s[2:], 2)
		case 'o', 'O':
			return allDigits(s[2:], 8)
		}
	}
	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

// parseNumber converts a numeric-looking string. ok is false for strings
// that are not numbers at all; malformed or out-of-range literals are
// logged and read as zero.
func parseNumber(s string) (f float64, ok bool) {
	switch s {
	case "Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	if !isNumber(s) {
		return 0, false
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				log.Warningf("invalid number format: %s", s)
				return 0, true
			}
			return float64(n), true
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Warningf("number out of range: %s", s)
		return 0, true
	}
	return f, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func allDigits(s string, base int) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'a' && c <= 'f':
			d = int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = int(c-'A') + 10
		default:
			return false
		}
		if d >= base {
			return false
		}
	}
	return true
}

func roundToInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= -math.MaxInt:
		return -math.MaxInt
	}
	return int(math.Round(f))
}

func formatDouble(d float64) string {
	switch {
	case math.IsInf(d, 1):
		return "Infinity"
	case math.IsInf(d, -1):
		return "-Infinity"
	case math.IsNaN(d):
		return "NaN"
	case d == 0:
		return "0"
	}
	if d == math.Trunc(d) && math.Abs(d) < 1e21 {
		return strconv.FormatFloat(d, 'f', 0, 64)
	}
	return strconv.FormatFloat(d, 'g', -1, 64)
}

func channel(f float64) int {
	switch {
	case f < 0:
		return 0
	case f > 255:
		return 255
	}
	return int(math.Round(f))
}
