package regcodec

import (
	"encoding/binary"
	"math"
)

// encode builds the canonical buffer of 2*targetLength bytes for v.
func (c *Codec) encode(v Value, targetLength int, enc Encoding, signed bool, sf Scale) ([]byte, *fault) {
	if !enc.Valid() {
		return nil, fail(ErrUnsupportedEncoding)
	}
	if targetLength <= 0 || targetLength > math.MaxInt/2 {
		return nil, failf(ErrUnsupportedLength, "target length %d", targetLength)
	}
	if v.IsNull() {
		return nil, fail(ErrNullValue)
	}
	if ft := checkScale(enc, sf); ft != nil {
		return nil, ft
	}

	if ft := checkSize(v, enc, 2*targetLength); ft != nil {
		return nil, ft
	}

	buf := make([]byte, 2*targetLength)
	var ft *fault
	switch enc {
	case UTF8, UTF16:
		ft = c.putString(buf, v, enc)
	case IEEE754:
		ft = putFloat(buf, v)
	case IntAndScaleFactor:
		ft = putScaled(buf, v, signed, sf)
	case Int:
		ft = putInteger(buf, v, signed)
	case IPAddress, RawBytes:
		putExact(buf, v, enc)
	}
	if ft != nil {
		return nil, ft
	}
	return buf, nil
}

// putString copies the encoded string into the zero-filled buf, cutting it at
// the buffer length.
func (c *Codec) putString(buf []byte, v Value, enc Encoding) *fault {
	if v.kind != KindString {
		return fail(ErrUnsupportedType)
	}
	b, ft := encodeText(enc, v.str)
	if ft != nil {
		return ft
	}
	if len(b) > len(buf) {
		c.hooks.StringTruncated(enc, len(b), len(buf))
	}
	copy(buf, b)
	return nil
}

func putFloat(buf []byte, v Value) *fault {
	if !v.kind.float() {
		return fail(ErrUnsupportedType)
	}
	if len(buf) == 8 {
		binary.BigEndian.PutUint64(buf, math.Float64bits(v.float()))
		return nil
	}
	if v.kind == KindFloat32 {
		binary.BigEndian.PutUint32(buf, uint32(v.lo))
		return nil
	}
	f := v.Float64()
	if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return failf(ErrRange, "%v does not fit float32", f)
	}
	binary.BigEndian.PutUint32(buf, math.Float32bits(float32(f)))
	return nil
}

// putScaled writes round(v / sf) as an integer of len(buf) bytes.
func putScaled(buf []byte, v Value, signed bool, sf Scale) *fault {
	if !(v.kind.float() || v.kind.integer()) || v.kind.wide() {
		return fail(ErrUnsupportedType)
	}
	n, ft := roundInt(numeric(v) / sf.Factor())
	if ft != nil {
		return ft
	}
	return putInt(buf, n, signed)
}

func putInteger(buf []byte, v Value, signed bool) *fault {
	switch {
	case v.kind == KindBool, v.kind.integer():
		return putInt(buf, v.bigInt(), signed)
	case v.kind.float():
		n, ft := roundInt(v.float())
		if ft != nil {
			return ft
		}
		return putInt(buf, n, signed)
	}
	return fail(ErrUnsupportedType)
}

// checkSize rejects a block size the encoding cannot fill before any buffer
// is allocated. Text encodings accept any size and truncate.
func checkSize(v Value, enc Encoding, size int) *fault {
	switch enc {
	case UTF8, UTF16:
		return nil
	case IPAddress, RawBytes:
		return checkExact(v, enc, size)
	}
	return checkWidth(enc, size)
}

// checkExact requires an IP address or byte block of exactly size bytes.
func checkExact(v Value, enc Encoding, size int) *fault {
	want := KindBytes
	if enc == IPAddress {
		want = KindIP
	}
	if v.kind != want {
		return fail(ErrUnsupportedType)
	}
	if enc == IPAddress && v.ip.Zone() != "" {
		return failf(ErrUnsupportedType, "zoned address %s", v.ip)
	}
	n, _ := v.byteLen()
	if n != size {
		return failf(ErrLengthMismatch, "%d byte value into %d byte block", n, size)
	}
	return nil
}

// putExact copies a value already accepted by checkExact.
func putExact(buf []byte, v Value, enc Encoding) {
	if enc == IPAddress {
		copy(buf, v.ip.AsSlice())
		return
	}
	copy(buf, v.raw)
}
