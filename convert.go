package regcodec

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// Scale is an optional scale factor. The zero Scale is absent.
type Scale struct {
	f  float64
	ok bool
}

// NoScale is the absent scale factor.
var NoScale Scale

func ScaleBy(f float64) Scale { return Scale{f: f, ok: true} }

// Pow10 returns the scale factor 10^exp, the form SunSpec models publish.
func Pow10(exp int) Scale { return ScaleBy(math.Pow10(exp)) }

func (s Scale) Present() bool   { return s.ok }
func (s Scale) Factor() float64 { return s.f }

func (s Scale) String() string {
	if !s.ok {
		return "none"
	}
	return strconv.FormatFloat(s.f, 'g', -1, 64)
}

func (s Scale) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts a number or "none" (also the empty string).
func (s *Scale) UnmarshalText(b []byte) error {
	switch t := string(b); t {
	case "", "none":
		*s = NoScale
	default:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return fmt.Errorf("regcodec: invalid scale factor %q: %w", t, err)
		}
		*s = ScaleBy(f)
	}
	return nil
}

func (s Scale) check() *fault {
	if s.f == 0 || math.IsNaN(s.f) || math.IsInf(s.f, 0) {
		return failf(ErrInvalidScaleFactor, "%v", s.f)
	}
	return nil
}

// intBounds returns the inclusive range of an integer of width bytes.
func intBounds(width int, signed bool) (lo, hi *big.Int) {
	bits := uint(8 * width)
	if signed {
		hi = new(big.Int).Lsh(big.NewInt(1), bits-1)
		lo = new(big.Int).Neg(hi)
		hi.Sub(hi, big.NewInt(1))
		return lo, hi
	}
	hi = new(big.Int).Lsh(big.NewInt(1), bits)
	hi.Sub(hi, big.NewInt(1))
	return new(big.Int), hi
}

// putInt writes n as a big-endian integer filling buf, failing when n does
// not fit the signed or unsigned width len(buf).
func putInt(buf []byte, n *big.Int, signed bool) *fault {
	lo, hi := intBounds(len(buf), signed)
	if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
		return failf(ErrRange, "%s does not fit %s", n, intName(len(buf), signed))
	}
	m := n
	if n.Sign() < 0 {
		m = new(big.Int).Lsh(big.NewInt(1), uint(8*len(buf)))
		m.Add(m, n)
	}
	m.FillBytes(buf)
	return nil
}

// readInt interprets buf as a big-endian integer.
func readInt(buf []byte, signed bool) *big.Int {
	n := new(big.Int).SetBytes(buf)
	if signed && len(buf) > 0 && buf[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(8*len(buf))))
	}
	return n
}

func intName(width int, signed bool) string {
	if signed {
		return "int" + strconv.Itoa(8*width)
	}
	return "uint" + strconv.Itoa(8*width)
}

// roundInt rounds f half away from zero into an integer.
func roundInt(f float64) (*big.Int, *fault) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, failf(ErrRange, "%v is not a finite number", f)
	}
	n, _ := big.NewFloat(math.Round(f)).Int(nil)
	return n, nil
}

// intValue converts n to a Value of kind k, failing when it does not fit.
func intValue(n *big.Int, k Kind) (Value, *fault) {
	switch k {
	case KindBool:
		return BoolValue(n.Sign() != 0), nil
	case KindInt8, KindInt16, KindInt32, KindInt64:
		if !n.IsInt64() {
			break
		}
		i := n.Int64()
		bits := bitsOf(k)
		if i < -1<<(bits-1) || i > 1<<(bits-1)-1 {
			break
		}
		return Value{kind: k, lo: uint64(i)}, nil
	case KindUint8, KindUint16, KindUint32, KindUint64:
		if !n.IsUint64() {
			break
		}
		u := n.Uint64()
		if bits := bitsOf(k); bits < 64 && u > 1<<bits-1 {
			break
		}
		return Value{kind: k, lo: u}, nil
	case KindInt128:
		if i, ok := Int128FromBig(n); ok {
			return Int128Value(i), nil
		}
	case KindUint128:
		if u, ok := Uint128FromBig(n); ok {
			return Uint128Value(u), nil
		}
	case KindFloat32:
		f, _ := new(big.Float).SetInt(n).Float32()
		if math.IsInf(float64(f), 0) {
			break
		}
		return Float32Value(f), nil
	case KindFloat64:
		return Float64Value(bigFloat(n)), nil
	default:
		return Value{}, fail(ErrUnsupportedType)
	}
	return Value{}, failf(ErrRange, "%s does not fit %s", n, k)
}

// floatValue converts f to a Value of kind k. Integer and bool kinds round
// half away from zero first.
func floatValue(f float64, k Kind) (Value, *fault) {
	switch k {
	case KindFloat64:
		return Float64Value(f), nil
	case KindFloat32:
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return Value{}, failf(ErrRange, "%v does not fit float32", f)
		}
		return Float32Value(float32(f)), nil
	}
	if !k.integer() && k != KindBool {
		return Value{}, fail(ErrUnsupportedType)
	}
	n, ft := roundInt(f)
	if ft != nil {
		return Value{}, ft
	}
	return intValue(n, k)
}

// numeric returns an integer or float Value as float64.
func numeric(v Value) float64 {
	if v.kind.float() {
		return v.float()
	}
	return bigFloat(v.bigInt())
}

func bigFloat(n *big.Int) float64 {
	f, _ := new(big.Float).SetInt(n).Float64()
	return f
}
