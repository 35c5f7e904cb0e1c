package regcodec

import (
	"fmt"
	"net/netip"
)

// Scalar lists the Go types that map one-to-one onto a Value kind.
type Scalar interface {
	bool | int8 | int16 | int32 | int64 | Int128 |
		uint8 | uint16 | uint32 | uint64 | Uint128 |
		float32 | float64 | string | netip.Addr | []byte
}

// ValueOf wraps v in a Value.
func ValueOf[T Scalar](v T) Value {
	switch x := any(v).(type) {
	case bool:
		return BoolValue(x)
	case int8:
		return Int8Value(x)
	case int16:
		return Int16Value(x)
	case int32:
		return Int32Value(x)
	case int64:
		return Int64Value(x)
	case Int128:
		return Int128Value(x)
	case uint8:
		return Uint8Value(x)
	case uint16:
		return Uint16Value(x)
	case uint32:
		return Uint32Value(x)
	case uint64:
		return Uint64Value(x)
	case Uint128:
		return Uint128Value(x)
	case float32:
		return Float32Value(x)
	case float64:
		return Float64Value(x)
	case string:
		return StringValue(x)
	case netip.Addr:
		return IPValue(x)
	case []byte:
		if x == nil {
			return Value{}
		}
		return BytesValue(x)
	}
	return Value{}
}

// KindOf returns the Value kind that T maps to.
func KindOf[T Scalar]() Kind {
	var zero T
	switch any(zero).(type) {
	case bool:
		return KindBool
	case int8:
		return KindInt8
	case int16:
		return KindInt16
	case int32:
		return KindInt32
	case int64:
		return KindInt64
	case Int128:
		return KindInt128
	case uint8:
		return KindUint8
	case uint16:
		return KindUint16
	case uint32:
		return KindUint32
	case uint64:
		return KindUint64
	case Uint128:
		return KindUint128
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	case string:
		return KindString
	case netip.Addr:
		return KindIP
	case []byte:
		return KindBytes
	}
	return KindInvalid
}

// As extracts the Go value of kind T from v.
func As[T Scalar](v Value) (T, error) {
	var zero T
	if v.kind != KindOf[T]() {
		return zero, fmt.Errorf("%w: have %s, want %s", ErrUnsupportedType, v.kind, KindOf[T]())
	}
	return v.Any().(T), nil
}

// Encode is Serialize for a plain Go value.
func Encode[T Scalar](c *Codec, v T, targetLength int, enc Encoding, signed bool, sf Scale) ([]uint16, error) {
	return c.Serialize(ValueOf(v), targetLength, enc, signed, sf)
}

// Decode is Deserialize into a plain Go value.
func Decode[T Scalar](c *Codec, regs []uint16, enc Encoding, signed bool, sf Scale) (T, error) {
	v, err := c.Deserialize(regs, enc, signed, sf, KindOf[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](v)
}

// Field bundles the parameters of one register block so they can be loaded
// from configuration and reused across calls.
type Field struct {
	Length   int      `json:"length"`
	Encoding Encoding `json:"encoding"`
	Signed   bool     `json:"signed,omitempty"`
	Scale    Scale    `json:"scale"`
	Kind     Kind     `json:"kind"`
}

// EncodeField serializes v into f.Length registers.
func (c *Codec) EncodeField(f Field, v Value) ([]uint16, error) {
	return c.Serialize(v, f.Length, f.Encoding, f.Signed, f.Scale)
}

// DecodeField deserializes regs, which must hold exactly f.Length registers.
func (c *Codec) DecodeField(f Field, regs []uint16) (Value, error) {
	if regs != nil && len(regs) != f.Length {
		return Value{}, c.reject("deserialize", f.Encoding, f.Kind, 2*len(regs),
			failf(ErrLengthMismatch, "%d registers for a %d register field", len(regs), f.Length))
	}
	return c.Deserialize(regs, f.Encoding, f.Signed, f.Scale, f.Kind)
}
