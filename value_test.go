package regcodec

import (
	"encoding/json"
	"net/netip"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestValueTextRoundTrip(t *testing.T) {
	values := []Value{
		BoolValue(true),
		Int8Value(-128),
		Int16Value(-500),
		Int32Value(1 << 30),
		Int64Value(-1 << 62),
		Int128Value(MinInt128),
		Uint8Value(250),
		Uint16Value(60000),
		Uint32Value(4294967295),
		Uint64Value(1 << 63),
		Uint128Value(MaxUint128),
		Float32Value(3.4e38),
		Float64Value(-1.7e-308),
		StringValue("Hello World!"),
		IPValue(netip.MustParseAddr("fe80::1")),
		BytesValue([]byte{0xde, 0xad, 0xbe, 0xef}),
	}
	for _, v := range values {
		back, err := ParseValue(v.Kind(), v.String())
		assert.NilError(t, err, v.Kind().String())
		assert.Check(t, back.Equal(v), "%s: %v != %v", v.Kind(), back, v)
	}
}

func TestParseValueErrors(t *testing.T) {
	cases := []struct {
		kind Kind
		text string
	}{
		{KindInt8, "200"},
		{KindUint16, "-1"},
		{KindInt128, "170141183460469231731687303715884105728"},
		{KindUint128, "-1"},
		{KindIP, "10.0.0"},
		{KindBytes, "zz"},
		{KindInvalid, "x"},
	}
	for _, tc := range cases {
		v, err := ParseValue(tc.kind, tc.text)
		assert.Check(t, err != nil, "%s %q", tc.kind, tc.text)
		assert.Check(t, v.IsNull())
	}
}

func TestInt128Bounds(t *testing.T) {
	assert.Equal(t, MaxUint128.String(), "340282366920938463463374607431768211455")
	assert.Equal(t, MaxInt128.String(), "170141183460469231731687303715884105727")
	assert.Equal(t, MinInt128.String(), "-170141183460469231731687303715884105728")
	assert.Equal(t, Int128From64(-1).String(), "-1")
	assert.Check(t, Int128From64(-1).Negative())

	n, err := ParseInt128("-42")
	assert.NilError(t, err)
	assert.Equal(t, n, Int128From64(-42))

	_, ok := Uint128FromBig(MinInt128.Big())
	assert.Check(t, !ok)
}

func TestValueEqual(t *testing.T) {
	assert.Check(t, Value{}.Equal(Value{}))
	assert.Check(t, !Int16Value(1).Equal(Uint16Value(1)))
	assert.Check(t, BytesValue([]byte{1}).Equal(BytesValue([]byte{1})))
	assert.Check(t, !BytesValue([]byte{1}).Equal(BytesValue([]byte{2})))
	assert.Check(t, IPValue(netip.Addr{}).IsNull())
}

func TestBytesValueCopies(t *testing.T) {
	b := []byte{1, 2}
	v := BytesValue(b)
	b[0] = 9
	assert.DeepEqual(t, v.Bytes(), []byte{1, 2})

	out := v.Bytes()
	out[1] = 9
	assert.DeepEqual(t, v.Bytes(), []byte{1, 2})
}

func TestAccessorKindMismatchPanics(t *testing.T) {
	defer func() {
		r := recover()
		assert.Check(t, r != nil)
	}()
	_ = Int16Value(1).Uint16()
}

func TestAsKindMismatch(t *testing.T) {
	_, err := As[string](Int16Value(1))
	assert.Check(t, is.ErrorIs(err, ErrUnsupportedType))

	s, err := As[string](StringValue("x"))
	assert.NilError(t, err)
	assert.Equal(t, s, "x")
	assert.Equal(t, KindOf[netip.Addr](), KindIP)
}

func TestTextNames(t *testing.T) {
	for _, e := range []Encoding{Int, IntAndScaleFactor, IEEE754, UTF8, UTF16, IPAddress, RawBytes} {
		b, err := e.MarshalText()
		assert.NilError(t, err)
		var back Encoding
		assert.NilError(t, back.UnmarshalText(b))
		assert.Equal(t, back, e)
	}
	_, err := ParseEncoding("int24")
	assert.Check(t, is.ErrorIs(err, ErrUnsupportedEncoding))

	for _, w := range []WordOrder{BigEndianWords, LittleEndianWords, MidBigEndianWords, MidLittleEndianWords} {
		b, err := w.MarshalText()
		assert.NilError(t, err)
		var back WordOrder
		assert.NilError(t, back.UnmarshalText(b))
		assert.Equal(t, back, w)
		assert.Equal(t, w.Layout().String(), w.String())
	}

	k, err := ParseKind("uint128")
	assert.NilError(t, err)
	assert.Equal(t, k, KindUint128)
	_, err = KindInvalid.MarshalText()
	assert.Check(t, err != nil)
}

func TestFieldJSON(t *testing.T) {
	in := `{"length":2,"encoding":"int+sf","signed":true,"scale":"0.01","kind":"float64"}`
	var f Field
	assert.NilError(t, json.Unmarshal([]byte(in), &f))
	assert.Equal(t, f.Length, 2)
	assert.Equal(t, f.Encoding, IntAndScaleFactor)
	assert.Check(t, f.Signed)
	assert.Equal(t, f.Scale, ScaleBy(0.01))
	assert.Equal(t, f.Kind, KindFloat64)

	out, err := json.Marshal(Field{Length: 1, Encoding: Int, Kind: KindUint16})
	assert.NilError(t, err)
	assert.Equal(t, string(out), `{"length":1,"encoding":"int","scale":"none","kind":"uint16"}`)
}
