package regcodec

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"net/netip"
	"strconv"
)

// Kind is the logical type held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindInt128
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindUint128
	KindFloat32
	KindFloat64
	KindString
	KindIP
	KindBytes
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindInt128:  "int128",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindUint128: "uint128",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindString:  "string",
	KindIP:      "ip",
	KindBytes:   "bytes",
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if i != int(KindInvalid) && n == s {
			return Kind(i), nil
		}
	}
	return KindInvalid, fmt.Errorf("%w: unknown kind %q", ErrUnsupportedType, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if k == KindInvalid || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("%w: kind %d", ErrUnsupportedType, uint8(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func (k Kind) integer() bool { return k >= KindInt8 && k <= KindUint128 }
func (k Kind) float() bool   { return k == KindFloat32 || k == KindFloat64 }
func (k Kind) wide() bool    { return k == KindInt128 || k == KindUint128 }

// Value is a tagged union over the logical types the codec transcodes.
// The zero Value is the null value.
type Value struct {
	kind Kind
	hi   uint64 // upper half of 128-bit integers
	lo   uint64 // bool, integers (two's complement) and float bits
	str  string
	raw  []byte
	ip   netip.Addr
}

func BoolValue(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.lo = 1
	}
	return v
}

func Int8Value(n int8) Value       { return Value{kind: KindInt8, lo: uint64(n)} }
func Int16Value(n int16) Value     { return Value{kind: KindInt16, lo: uint64(n)} }
func Int32Value(n int32) Value     { return Value{kind: KindInt32, lo: uint64(n)} }
func Int64Value(n int64) Value     { return Value{kind: KindInt64, lo: uint64(n)} }
func Int128Value(n Int128) Value   { return Value{kind: KindInt128, hi: n.Hi, lo: n.Lo} }
func Uint8Value(n uint8) Value     { return Value{kind: KindUint8, lo: uint64(n)} }
func Uint16Value(n uint16) Value   { return Value{kind: KindUint16, lo: uint64(n)} }
func Uint32Value(n uint32) Value   { return Value{kind: KindUint32, lo: uint64(n)} }
func Uint64Value(n uint64) Value   { return Value{kind: KindUint64, lo: n} }
func Uint128Value(n Uint128) Value { return Value{kind: KindUint128, hi: n.Hi, lo: n.Lo} }

func Float32Value(f float32) Value {
	return Value{kind: KindFloat32, lo: uint64(math.Float32bits(f))}
}

func Float64Value(f float64) Value {
	return Value{kind: KindFloat64, lo: math.Float64bits(f)}
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// IPValue wraps addr. An invalid (zero) netip.Addr yields the null value.
func IPValue(addr netip.Addr) Value {
	if !addr.IsValid() {
		return Value{}
	}
	return Value{kind: KindIP, ip: addr}
}

// BytesValue copies b.
func BytesValue(b []byte) Value {
	return Value{kind: KindBytes, raw: append([]byte{}, b...)}
}

func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the zero Value.
func (v Value) IsNull() bool { return v.kind == KindInvalid }

func (v Value) must(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("regcodec: Value.%s called on %s value", k, v.kind))
	}
}

// The typed accessors panic when the Value holds a different kind.

func (v Value) Bool() bool       { v.must(KindBool); return v.lo != 0 }
func (v Value) Int8() int8       { v.must(KindInt8); return int8(v.lo) }
func (v Value) Int16() int16     { v.must(KindInt16); return int16(v.lo) }
func (v Value) Int32() int32     { v.must(KindInt32); return int32(v.lo) }
func (v Value) Int64() int64     { v.must(KindInt64); return int64(v.lo) }
func (v Value) Int128() Int128   { v.must(KindInt128); return Int128{Hi: v.hi, Lo: v.lo} }
func (v Value) Uint8() uint8     { v.must(KindUint8); return uint8(v.lo) }
func (v Value) Uint16() uint16   { v.must(KindUint16); return uint16(v.lo) }
func (v Value) Uint32() uint32   { v.must(KindUint32); return uint32(v.lo) }
func (v Value) Uint64() uint64   { v.must(KindUint64); return v.lo }
func (v Value) Uint128() Uint128 { v.must(KindUint128); return Uint128{Hi: v.hi, Lo: v.lo} }
func (v Value) Float32() float32 { v.must(KindFloat32); return math.Float32frombits(uint32(v.lo)) }
func (v Value) Float64() float64 { v.must(KindFloat64); return math.Float64frombits(v.lo) }
func (v Value) Addr() netip.Addr { v.must(KindIP); return v.ip }
func (v Value) Bytes() []byte    { v.must(KindBytes); return append([]byte{}, v.raw...) }

func (v Value) byteLen() (int, bool) {
	switch v.kind {
	case KindBytes:
		return len(v.raw), true
	case KindIP:
		return v.ip.BitLen() / 8, true
	}
	return 0, false
}

// Any returns the held value as its Go type.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.Bool()
	case KindInt8:
		return v.Int8()
	case KindInt16:
		return v.Int16()
	case KindInt32:
		return v.Int32()
	case KindInt64:
		return v.Int64()
	case KindInt128:
		return v.Int128()
	case KindUint8:
		return v.Uint8()
	case KindUint16:
		return v.Uint16()
	case KindUint32:
		return v.Uint32()
	case KindUint64:
		return v.Uint64()
	case KindUint128:
		return v.Uint128()
	case KindFloat32:
		return v.Float32()
	case KindFloat64:
		return v.Float64()
	case KindString:
		return v.str
	case KindIP:
		return v.ip
	case KindBytes:
		return v.Bytes()
	}
	return nil
}

// Equal reports whether v and o hold the same kind and value.
// Floats compare by bit pattern.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindIP:
		return v.ip == o.ip
	case KindBytes:
		return string(v.raw) == string(o.raw)
	}
	return v.hi == o.hi && v.lo == o.lo
}

// String renders the exact text form parsed by ParseValue.
// For KindString it is the string itself.
func (v Value) String() string {
	switch v.kind {
	case KindInvalid:
		return "<nil>"
	case KindBool:
		return strconv.FormatBool(v.Bool())
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return strconv.FormatInt(int64(v.lo), 10)
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return strconv.FormatUint(v.lo, 10)
	case KindInt128:
		return v.Int128().String()
	case KindUint128:
		return v.Uint128().String()
	case KindFloat32:
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case KindString:
		return v.str
	case KindIP:
		return v.ip.String()
	case KindBytes:
		return hex.EncodeToString(v.raw)
	}
	return fmt.Sprintf("%s(?)", v.kind)
}

// ParseValue parses the text form produced by Value.String.
func ParseValue(k Kind, s string) (Value, error) {
	switch k {
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case KindInt8, KindInt16, KindInt32, KindInt64:
		n, err := strconv.ParseInt(s, 10, bitsOf(k))
		if err != nil {
			return Value{}, err
		}
		return Value{kind: k, lo: uint64(n)}, nil
	case KindUint8, KindUint16, KindUint32, KindUint64:
		n, err := strconv.ParseUint(s, 10, bitsOf(k))
		if err != nil {
			return Value{}, err
		}
		return Value{kind: k, lo: n}, nil
	case KindInt128:
		n, err := ParseInt128(s)
		if err != nil {
			return Value{}, err
		}
		return Int128Value(n), nil
	case KindUint128:
		n, err := ParseUint128(s)
		if err != nil {
			return Value{}, err
		}
		return Uint128Value(n), nil
	case KindFloat32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Value{}, err
		}
		return Float32Value(float32(f)), nil
	case KindFloat64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, err
		}
		return Float64Value(f), nil
	case KindString:
		return StringValue(s), nil
	case KindIP:
		a, err := netip.ParseAddr(s)
		if err != nil {
			return Value{}, err
		}
		return IPValue(a), nil
	case KindBytes:
		b, err := hex.DecodeString(s)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindBytes, raw: b}, nil
	}
	return Value{}, fmt.Errorf("%w: cannot parse %s", ErrUnsupportedType, k)
}

func bitsOf(k Kind) int {
	switch k {
	case KindInt8, KindUint8:
		return 8
	case KindInt16, KindUint16:
		return 16
	case KindInt32, KindUint32, KindFloat32:
		return 32
	case KindInt64, KindUint64, KindFloat64:
		return 64
	case KindInt128, KindUint128:
		return 128
	}
	return 0
}

// bigInt returns the integer held by a bool or integer Value.
func (v Value) bigInt() *big.Int {
	switch v.kind {
	case KindBool, KindUint8, KindUint16, KindUint32, KindUint64:
		return new(big.Int).SetUint64(v.lo)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return big.NewInt(int64(v.lo))
	case KindInt128:
		return v.Int128().Big()
	case KindUint128:
		return v.Uint128().Big()
	}
	return nil
}

// float returns a float Value as float64.
func (v Value) float() float64 {
	if v.kind == KindFloat32 {
		return float64(v.Float32())
	}
	return v.Float64()
}
