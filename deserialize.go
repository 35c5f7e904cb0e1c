package regcodec

import (
	"encoding/binary"
	"math"
	"net/netip"
)

// decode interprets the canonical buffer buf as a Value of kind want.
// Length checks come before the target kind check.
func (c *Codec) decode(buf []byte, enc Encoding, signed bool, sf Scale, want Kind) (Value, *fault) {
	if !enc.Valid() {
		return Value{}, fail(ErrUnsupportedEncoding)
	}
	if len(buf) == 0 {
		return Value{}, failf(ErrUnsupportedLength, "empty register block")
	}
	if ft := checkScale(enc, sf); ft != nil {
		return Value{}, ft
	}

	switch enc {
	case UTF8, UTF16:
		if want != KindString {
			return Value{}, fail(ErrUnsupportedType)
		}
		s, ft := decodeText(enc, buf)
		if ft != nil {
			return Value{}, ft
		}
		return StringValue(s), nil

	case IEEE754:
		if ft := checkWidth(enc, len(buf)); ft != nil {
			return Value{}, ft
		}
		if !want.float() {
			return Value{}, fail(ErrUnsupportedType)
		}
		if len(buf) == 4 {
			f := math.Float32frombits(binary.BigEndian.Uint32(buf))
			if want == KindFloat32 {
				return Float32Value(f), nil
			}
			return Float64Value(float64(f)), nil
		}
		return floatValue(math.Float64frombits(binary.BigEndian.Uint64(buf)), want)

	case IntAndScaleFactor:
		if ft := checkWidth(enc, len(buf)); ft != nil {
			return Value{}, ft
		}
		if !(want.float() || want.integer() || want == KindBool) || want.wide() {
			return Value{}, fail(ErrUnsupportedType)
		}
		raw := bigFloat(readInt(buf, signed))
		return floatValue(raw*sf.Factor(), want)

	case Int:
		if ft := checkWidth(enc, len(buf)); ft != nil {
			return Value{}, ft
		}
		if !(want.float() || want.integer() || want == KindBool) {
			return Value{}, fail(ErrUnsupportedType)
		}
		return intValue(readInt(buf, signed), want)

	case IPAddress:
		if ft := checkWidth(enc, len(buf)); ft != nil {
			return Value{}, ft
		}
		if want != KindIP {
			return Value{}, fail(ErrUnsupportedType)
		}
		addr, _ := netip.AddrFromSlice(buf)
		return IPValue(addr), nil

	case RawBytes:
		if want != KindBytes {
			return Value{}, fail(ErrUnsupportedType)
		}
		return Value{kind: KindBytes, raw: buf}, nil
	}
	return Value{}, fail(ErrUnsupportedEncoding)
}
