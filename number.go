package calico

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders f the way ECMAScript's Number-to-String does:
// integral values have no fraction, magnitudes outside [1e-6, 1e21) use
// exponent notation, negative zero prints as "0" and non-finite values
// print as NaN, Infinity or -Infinity.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		// Go pads the exponent to two digits; ECMAScript does not.
		return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// IsFinite reports whether v is not a NaN or infinite number.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
