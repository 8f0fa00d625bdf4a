// Package decimal implements the DB's 128-bit fixed-point DECIMAL type:
// scale fixed at 12, precision at most 38 digits, sign-magnitude on the
// wire. Arithmetic runs on math/big, the level this package's 16-byte
// wire codec actually operates on (see DESIGN.md).
package decimal

import (
	"math/big"
	"strings"

	"github.com/juju/errors"
)

// DefaultScale is the number of fractional digits a DECIMAL always carries
// on the wire.
const DefaultScale = 12

// MaxPrecision is the maximum number of total significant digits.
const MaxPrecision = 38

// maxIntegerDigits is the maximum number of digits left of the point.
const maxIntegerDigits = MaxPrecision - DefaultScale

// ErrDomain is raised when a value is syntactically fine but exceeds the
// DECIMAL's scale or precision limits.
var ErrDomain = errors.New("decimal: value out of domain")

// NullSentinel is the 16-byte pattern (minimum signed 128-bit integer,
// 0x80 followed by fifteen 0x00 bytes) that marks a NULL DECIMAL on the
// wire. It is distinct from every legal encoded value.
var NullSentinel = [16]byte{0x80}

var ten12 = new(big.Int).Exp(big.NewInt(10), big.NewInt(DefaultScale), nil)

// Decimal is a sign-magnitude fixed-point number with implicit scale
// DefaultScale. The zero value represents 0.
type Decimal struct {
	negative bool
	unscaled *big.Int // magnitude of value * 10^DefaultScale
}

// Zero is the additive identity, always represented non-negative so it
// never collides with the NULL sentinel during encoding.
var Zero = Decimal{unscaled: big.NewInt(0)}

// NullDecimal pairs a Decimal with a validity flag, mirroring
// database/sql.NullString for the one DECIMAL-specific NULL sentinel.
type NullDecimal struct {
	Decimal Decimal
	Valid   bool
}

// Negative reports whether d is strictly less than zero.
func (d Decimal) Negative() bool { return d.negative && d.unscaled.Sign() != 0 }

// Equal reports whether d and o represent the same value.
func (d Decimal) Equal(o Decimal) bool {
	if d.unscaled == nil {
		d.unscaled = big.NewInt(0)
	}
	if o.unscaled == nil {
		o.unscaled = big.NewInt(0)
	}
	if d.unscaled.Sign() == 0 && o.unscaled.Sign() == 0 {
		return true
	}
	return d.Negative() == o.Negative() && d.unscaled.Cmp(o.unscaled) == 0
}

// Parse reads a plain or exponential decimal string ("-12.340", "1.5E+3")
// into a Decimal, rejecting inputs whose scale exceeds DefaultScale or
// whose integer part exceeds maxIntegerDigits.
func Parse(s string) (Decimal, error) {
	negative, digits, exponent, err := parseParts(s)
	if err != nil {
		return Decimal{}, err
	}
	return fromDigits(negative, digits, exponent)
}

// parseParts splits s into a sign, a run of significant decimal digits
// with no point, and the power-of-ten exponent those digits must be
// multiplied by to reconstruct the original value (mirrors Python's
// Decimal.as_tuple()).
func parseParts(s string) (negative bool, digits string, exponent int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, "", 0, errors.Annotate(ErrDomain, "empty decimal string")
	}
	if s[0] == '+' || s[0] == '-' {
		negative = s[0] == '-'
		s = s[1:]
	}

	mantissa := s
	exp := 0
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa = s[:i]
		n, convErr := parseExponent(s[i+1:])
		if convErr != nil {
			return false, "", 0, errors.Annotatef(ErrDomain, "invalid exponent in %q", s)
		}
		exp = n
	}

	intPart, fracPart := mantissa, ""
	if i := strings.IndexByte(mantissa, '.'); i >= 0 {
		intPart, fracPart = mantissa[:i], mantissa[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return false, "", 0, errors.Annotatef(ErrDomain, "no digits in %q", s)
	}
	for _, c := range intPart + fracPart {
		if c < '0' || c > '9' {
			return false, "", 0, errors.Annotatef(ErrDomain, "non-digit character in %q", s)
		}
	}

	digits = strings.TrimLeft(intPart, "0") + fracPart
	leadingZerosStripped := len(intPart) - len(strings.TrimLeft(intPart, "0"))
	_ = leadingZerosStripped
	exponent = exp - len(fracPart)
	if digits == "" {
		digits = "0"
	}
	return negative, digits, exponent, nil
}

func parseExponent(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty exponent")
	}
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "" {
		return 0, errors.New("empty exponent digits")
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errors.New("non-digit exponent")
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}

// fromDigits builds a Decimal from a (sign, digit run, exponent) tuple,
// where the value equals (-1)^negative * digits * 10^exponent.
func fromDigits(negative bool, digits string, exponent int) (Decimal, error) {
	scale := -exponent
	if scale > DefaultScale {
		return Decimal{}, errors.Annotatef(ErrDomain, "scale %d exceeds max %d", scale, DefaultScale)
	}
	precision := len(strings.TrimLeft(digits, "0"))
	if precision == 0 {
		precision = 1
	}
	integerDigits := precision - scale
	if integerDigits > maxIntegerDigits {
		return Decimal{}, errors.Annotatef(ErrDomain, "integer part of %d digits exceeds max %d", integerDigits, maxIntegerDigits)
	}

	mag, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, errors.Annotatef(ErrDomain, "invalid digits %q", digits)
	}
	scaleUp := DefaultScale - scale
	if scaleUp > 0 {
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scaleUp)), nil)
		mag.Mul(mag, factor)
	}
	if mag.Sign() == 0 {
		negative = false
	}
	return Decimal{negative: negative, unscaled: mag}, nil
}

// Encode produces the 16-byte sign-magnitude wire form, or ErrDomain if the
// unscaled magnitude does not fit in 127 bits (precision > 38 digits).
func (d Decimal) Encode() ([16]byte, error) {
	var out [16]byte
	mag := d.unscaled
	if mag == nil {
		mag = big.NewInt(0)
	}
	if mag.Sign() < 0 {
		return out, errors.Annotate(ErrDomain, "unscaled magnitude must be non-negative")
	}
	if mag.BitLen() > 127 {
		return out, errors.Annotatef(ErrDomain, "unscaled value requires %d bits, max is 127", mag.BitLen())
	}
	mag.FillBytes(out[:])
	if d.negative && mag.Sign() != 0 {
		out[0] |= 0x80
	}
	return out, nil
}

// EncodeNull returns the NULL DECIMAL wire form.
func EncodeNull() [16]byte { return NullSentinel }

// Decode reverses Encode. It reports ok=false (and a zero Decimal) if buf
// is the NULL sentinel.
func Decode(buf [16]byte) (d Decimal, ok bool, err error) {
	if buf == NullSentinel {
		return Decimal{}, false, nil
	}
	negative := buf[0]&0x80 != 0
	buf[0] &= 0x7F // clear the sign bit; masking with it (the source's bug) would zero the magnitude instead
	mag := new(big.Int).SetBytes(buf[:])
	if mag.Sign() == 0 {
		negative = false
	}
	return Decimal{negative: negative, unscaled: mag}, true, nil
}

// String renders d in plain fixed-point notation, e.g. "-12.340000000000".
func (d Decimal) String() string {
	mag := d.unscaled
	if mag == nil {
		mag = big.NewInt(0)
	}
	digits := mag.String()
	if len(digits) <= DefaultScale {
		digits = strings.Repeat("0", DefaultScale-len(digits)+1) + digits
	}
	intPart := digits[:len(digits)-DefaultScale]
	fracPart := digits[len(digits)-DefaultScale:]
	sign := ""
	if d.negative && mag.Sign() != 0 {
		sign = "-"
	}
	return sign + intPart + "." + fracPart
}

// EngineeringString renders d using engineering notation (an exponent that
// is a multiple of 3), the form used for DECIMAL_STRING on the wire.
func (d Decimal) EngineeringString() string {
	mag := d.unscaled
	if mag == nil {
		mag = big.NewInt(0)
	}
	if mag.Sign() == 0 {
		return "0E+0"
	}
	digits := strings.TrimRight(mag.String(), "0")
	trimmed := len(mag.String()) - len(digits)
	if digits == "" {
		digits = "0"
		trimmed = len(mag.String()) - 1
	}
	// value = digits * 10^(trimmed - DefaultScale)
	exp := trimmed - DefaultScale
	// Shift so the decimal point sits after 1..3 leading digits and the
	// remaining exponent is a multiple of 3, padding the digit run with
	// zeros when it is shorter than the leading part.
	adjusted := exp + len(digits) - 1
	shift := adjusted % 3
	if shift < 0 {
		shift += 3
	}
	adjExp := adjusted - shift
	for len(digits) < shift+1 {
		digits += "0"
	}

	var b strings.Builder
	if d.negative {
		b.WriteByte('-')
	}
	b.WriteString(digits[:shift+1])
	if len(digits) > shift+1 {
		b.WriteByte('.')
		b.WriteString(digits[shift+1:])
	}
	b.WriteString("E")
	if adjExp >= 0 {
		b.WriteByte('+')
	}
	b.WriteString(big.NewInt(int64(adjExp)).String())
	return b.String()
}
