package vm

import (
	"math"
	"strings"
	"unicode/utf8"
)

func (e *Executor) registerOperators() {
	binary := func(op func(a, b Value) Value) ReporterFunc {
		return func(e *Executor, t *Thread, b *Block) Value {
			return op(e.InputValue(t, b, "NUM1"), e.InputValue(t, b, "NUM2"))
		}
	}
	compare := func(op func(a, b Value) bool) ReporterFunc {
		return func(e *Executor, t *Thread, b *Block) Value {
			return FromBool(op(e.InputValue(t, b, "OPERAND1"), e.InputValue(t, b, "OPERAND2")))
		}
	}

	e.Reporter("operator_add", binary(Value.Add))
	e.Reporter("operator_subtract", binary(Value.Sub))
	e.Reporter("operator_multiply", binary(Value.Mul))
	e.Reporter("operator_divide", binary(Value.Div))
	e.Reporter("operator_mod", binary(Value.Mod))
	e.Reporter("operator_gt", compare(Value.Greater))
	e.Reporter("operator_lt", compare(Value.Less))
	e.Reporter("operator_equals", compare(looseEqual))
	e.Reporter("operator_and", func(e *Executor, t *Thread, b *Block) Value {
		return FromBool(e.condition(t, b, "OPERAND1") && e.condition(t, b, "OPERAND2"))
	})
	e.Reporter("operator_or", func(e *Executor, t *Thread, b *Block) Value {
		return FromBool(e.condition(t, b, "OPERAND1") || e.condition(t, b, "OPERAND2"))
	})
	e.Reporter("operator_not", func(e *Executor, t *Thread, b *Block) Value {
		return FromBool(!e.condition(t, b, "OPERAND"))
	})
	e.Reporter("operator_random", operatorRandom)
	e.Reporter("operator_join", func(e *Executor, t *Thread, b *Block) Value {
		return FromString(e.InputValue(t, b, "STRING1").AsString() + e.InputValue(t, b, "STRING2").AsString())
	})
	e.Reporter("operator_letter_of", func(e *Executor, t *Thread, b *Block) Value {
		s := []rune(e.InputValue(t, b, "STRING").AsString())
		i := e.InputValue(t, b, "LETTER").AsInt()
		if i < 1 || i > len(s) {
			return FromString("")
		}
		return FromString(string(s[i-1]))
	})
	e.Reporter("operator_length", func(e *Executor, t *Thread, b *Block) Value {
		return FromInt(utf8.RuneCountInString(e.InputValue(t, b, "STRING").AsString()))
	})
	e.Reporter("operator_contains", func(e *Executor, t *Thread, b *Block) Value {
		hay := strings.ToLower(e.InputValue(t, b, "STRING1").AsString())
		needle := strings.ToLower(e.InputValue(t, b, "STRING2").AsString())
		return FromBool(strings.Contains(hay, needle))
	})
	e.Reporter("operator_round", func(e *Executor, t *Thread, b *Block) Value {
		return numberValue(math.Floor(e.InputValue(t, b, "NUM").AsDouble() + 0.5))
	})
	e.Reporter("operator_mathop", func(e *Executor, t *Thread, b *Block) Value {
		return FromFloat64(mathop(b.Field("OPERATOR"), e.InputValue(t, b, "NUM").AsDouble()))
	})

	// Literal shadows that reach Evaluate as blocks rather than primitives.
	for _, op := range []string{"math_number", "math_integer", "math_whole_number", "math_positive_number", "math_angle"} {
		e.Reporter(op, func(e *Executor, _ *Thread, b *Block) Value {
			return ParseLiteral(b.Field("NUM"))
		})
	}
	e.Reporter("text", func(e *Executor, _ *Thread, b *Block) Value {
		return FromString(b.Field("TEXT"))
	})
	e.Reporter("colour_picker", func(e *Executor, _ *Thread, b *Block) Value {
		return FromString(b.Field("COLOUR"))
	})
}

// looseEqual compares numerically when both sides are numbers and
// case-insensitively otherwise.
func looseEqual(a, b Value) bool {
	if a.IsNumeric() && b.IsNumeric() && !blank(a) && !blank(b) {
		return a.AsDouble() == b.AsDouble()
	}
	return strings.EqualFold(a.AsString(), b.AsString())
}

func blank(v Value) bool {
	return v.IsString() && strings.TrimSpace(v.AsString()) == ""
}

// intLike reports whether v should pick a whole random number.
func intLike(v Value) bool {
	switch v.Kind() {
	case KindDouble:
		d := v.AsDouble()
		return d == math.Trunc(d)
	case KindString:
		return !strings.Contains(v.AsString(), ".")
	}
	return true
}

func operatorRandom(e *Executor, t *Thread, b *Block) Value {
	from, to := e.InputValue(t, b, "FROM"), e.InputValue(t, b, "TO")
	lo, hi := from.AsDouble(), to.AsDouble()
	if lo > hi {
		lo, hi = hi, lo
	}
	if intLike(from) && intLike(to) {
		l, h := roundToInt(lo), roundToInt(hi)
		n := h - l + 1
		if n <= 0 {
			return FromInt(l)
		}
		return FromInt(l + e.rt.rand.IntN(n))
	}
	return FromFloat64(lo + e.rt.rand.Float64()*(hi-lo))
}

func mathop(op string, n float64) float64 {
	const rad = math.Pi / 180
	round10 := func(f float64) float64 { return math.Round(f*1e10) / 1e10 }
	switch op {
	case "abs":
		return math.Abs(n)
	case "floor":
		return math.Floor(n)
	case "ceiling":
		return math.Ceil(n)
	case "sqrt":
		return math.Sqrt(n)
	case "sin":
		return round10(math.Sin(n * rad))
	case "cos":
		return round10(math.Cos(n * rad))
	case "tan":
		switch math.Mod(n, 360) {
		case 90, -270:
			return math.Inf(1)
		case 270, -90:
			return math.Inf(-1)
		}
		return round10(math.Tan(n * rad))
	case "asin":
		return math.Asin(n) / rad
	case "acos":
		return math.Acos(n) / rad
	case "atan":
		return math.Atan(n) / rad
	case "ln":
		return math.Log(n)
	case "log":
		return math.Log10(n)
	case "e ^":
		return math.Exp(n)
	case "10 ^":
		return math.Pow(10, n)
	}
	log.Warningf("unknown math operator %q", op)
	return 0
}
