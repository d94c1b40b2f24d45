package eval

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// coercions model the global conversion functions. A false result means the
// conversion produced NaN or could not be decided, and the call falls back to
// its generic rendering.
var coercions = map[string]func(args []Value) (Value, bool){
	"parseInt":   coerceParseInt,
	"parseFloat": coerceParseFloat,
	"String":     coerceString,
	"Number":     coerceNumber,
}

var floatPrefix = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

func coerceParseInt(args []Value) (Value, bool) {
	var s string
	switch {
	case args[0].IsString():
		s = args[0].Str()
	case args[0].IsNumber():
		s = FormatNumber(args[0].Num())
	default:
		return Value{}, false
	}
	radix := 0
	if len(args) > 1 {
		if !args[1].IsNumber() {
			return Value{}, false
		}
		radix = int(args[1].Num())
	}
	n := parseIntPrefix(s, radix)
	if math.IsNaN(n) {
		return Value{}, false
	}
	return Number(n), true
}

func coerceParseFloat(args []Value) (Value, bool) {
	switch {
	case args[0].IsNumber():
		return args[0], !math.IsNaN(args[0].Num())
	case args[0].IsString():
		m := floatPrefix.FindString(strings.TrimLeft(args[0].Str(), " \t\n\r\v\f"))
		if m == "" {
			return Value{}, false
		}
		if strings.HasSuffix(m, "Infinity") {
			if strings.HasPrefix(m, "-") {
				return Number(math.Inf(-1)), true
			}
			return Number(math.Inf(1)), true
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return Value{}, false
		}
		return Number(f), true
	}
	return Value{}, false
}

func coerceString(args []Value) (Value, bool) {
	switch args[0].Kind {
	case KindLiteral, KindComposite:
		return String(args[0].Render()), true
	}
	return Value{}, false
}

func coerceNumber(args []Value) (Value, bool) {
	v := args[0]
	if v.Kind != KindLiteral {
		return Value{}, false
	}
	var n float64
	switch v.Lit {
	case LitNumber:
		n = v.Num()
	case LitString:
		n = stringToNumber(v.Str())
	case LitBool:
		if v.BoolValue() {
			n = 1
		}
	case LitNull:
		n = 0
	default:
		n = math.NaN()
	}
	if math.IsNaN(n) {
		return Value{}, false
	}
	return Number(n), true
}

// parseIntPrefix reads the longest valid integer prefix of s in radix, with
// radix 0 meaning 10 unless s carries a 0x prefix.
func parseIntPrefix(s string, radix int) float64 {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if radix == 0 || radix == 16 {
		if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			s = s[2:]
			radix = 16
		}
	}
	if radix == 0 {
		radix = 10
	}
	if radix < 2 || radix > 36 {
		return math.NaN()
	}

	var n float64
	digits := 0
	for _, r := range s {
		d := digitValue(r)
		if d < 0 || d >= radix {
			break
		}
		n = n*float64(radix) + float64(d)
		digits++
	}
	if digits == 0 {
		return math.NaN()
	}
	if neg {
		n = -n
	}
	return n
}

func digitValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'z':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'Z':
		return int(r-'A') + 10
	}
	return -1
}

// stringToNumber applies the whole-string numeric conversion: surrounding
// whitespace is ignored, the empty string is zero and any trailing garbage
// yields NaN.
func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			u, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(u)
		}
	}
	if floatPrefix.FindString(s) != s {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
