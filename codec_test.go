package regcodec

import (
	"errors"
	"math"
	"net/netip"
	"strings"
	"sync"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

type layoutCase struct {
	order  ByteOrder
	swap   bool
	signed bool
}

// every byte order, word swap and signedness combination
func allLayouts() []layoutCase {
	var out []layoutCase
	for _, o := range []ByteOrder{LittleEndian, BigEndian} {
		for _, swap := range []bool{false, true} {
			for _, signed := range []bool{false, true} {
				out = append(out, layoutCase{order: o, swap: swap, signed: signed})
			}
		}
	}
	return out
}

func boolp(b bool) *bool { return &b }

type roundTripCase struct {
	name   string
	length int
	enc    Encoding
	sf     Scale
	signed *bool // nil => taken from the layout case
	in     Value
	want   Value
	approx bool
}

var roundTripCases = []roundTripCase{
	{name: "utf8", length: 6, enc: UTF8, in: StringValue("Hello World!"), want: StringValue("Hello World!")},
	{name: "utf8 truncated", length: 5, enc: UTF8, in: StringValue("Hello World!"), want: StringValue("Hello Worl")},
	{name: "utf8 padded", length: 7, enc: UTF8, in: StringValue("Hello World!!"), want: StringValue("Hello World!!")},
	{name: "utf8 multibyte", length: 8, enc: UTF8, in: StringValue("Hello World!│"), want: StringValue("Hello World!│")},
	{name: "utf16", length: 12, enc: UTF16, in: StringValue("Hello World!"), want: StringValue("Hello World!")},
	{name: "utf16 truncated", length: 11, enc: UTF16, in: StringValue("Hello World!"), want: StringValue("Hello World")},
	{name: "utf16 padded", length: 13, enc: UTF16, in: StringValue("Hello World!"), want: StringValue("Hello World!")},
	{name: "float32 negative", length: 2, enc: IEEE754, in: Float32Value(-3.4e-38), want: Float32Value(-3.4e-38)},
	{name: "float32 positive", length: 2, enc: IEEE754, in: Float32Value(3.4e38), want: Float32Value(3.4e38)},
	{name: "float32 infinity", length: 2, enc: IEEE754, in: Float32Value(float32(math.Inf(1))), want: Float32Value(float32(math.Inf(1)))},
	{name: "float64 negative smallest", length: 4, enc: IEEE754, in: Float64Value(-1.7e-308), want: Float64Value(-1.7e-308)},
	{name: "float64 positive biggest", length: 4, enc: IEEE754, in: Float64Value(1.7e308), want: Float64Value(1.7e308)},
	{name: "float64 infinity", length: 4, enc: IEEE754, in: Float64Value(math.Inf(1)), want: Float64Value(math.Inf(1))},
	{name: "int wider than needed", length: 2, enc: Int, in: Uint16Value(500), want: Uint16Value(500)},
	{name: "int bool", length: 1, enc: Int, in: BoolValue(true), want: BoolValue(true)},
	{name: "int byte high", length: 1, enc: Int, in: Uint8Value(250), want: Uint8Value(250)},
	{name: "int sbyte negative", length: 1, enc: Int, signed: boolp(true), in: Int8Value(-100), want: Int8Value(-100)},
	{name: "int ushort high", length: 1, enc: Int, signed: boolp(false), in: Uint16Value(60000), want: Uint16Value(60000)},
	{name: "int short negative", length: 1, enc: Int, signed: boolp(true), in: Int16Value(-500), want: Int16Value(-500)},
	{name: "int double", length: 1, enc: Int, signed: boolp(false), in: Float64Value(60000), want: Float64Value(60000)},
	{name: "int double negative", length: 1, enc: Int, signed: boolp(true), in: Float64Value(-5000), want: Float64Value(-5000)},
	{name: "int uint32 max in 64 bits", length: 4, enc: Int, signed: boolp(false), in: Uint32Value(math.MaxUint32), want: Uint32Value(math.MaxUint32)},
	{name: "int uint128 max", length: 8, enc: Int, signed: boolp(false), in: Uint128Value(MaxUint128), want: Uint128Value(MaxUint128)},
	{name: "int int128 min", length: 8, enc: Int, signed: boolp(true), in: Int128Value(MinInt128), want: Int128Value(MinInt128)},
	{name: "scaled double", length: 4, enc: IntAndScaleFactor, sf: ScaleBy(0.01), signed: boolp(true), in: Float64Value(5.88), want: Float64Value(5.88), approx: true},
	{name: "scaled double negative", length: 4, enc: IntAndScaleFactor, sf: ScaleBy(0.01), signed: boolp(true), in: Float64Value(-5.88), want: Float64Value(-5.88), approx: true},
	{name: "scaled ushort max", length: 2, enc: IntAndScaleFactor, sf: ScaleBy(0.01), signed: boolp(false), in: Uint16Value(math.MaxUint16), want: Uint16Value(math.MaxUint16)},
	{name: "scaled ushort one register", length: 1, enc: IntAndScaleFactor, sf: ScaleBy(0.01), signed: boolp(false), in: Uint16Value(50), want: Uint16Value(50)},
	{name: "scaled short negative", length: 2, enc: IntAndScaleFactor, sf: ScaleBy(0.01), signed: boolp(true), in: Float64Value(-5000), want: Float64Value(-5000), approx: true},
	{name: "ipv4", length: 2, enc: IPAddress, in: IPValue(netip.MustParseAddr("10.0.0.228")), want: IPValue(netip.MustParseAddr("10.0.0.228"))},
	{name: "ipv6", length: 8, enc: IPAddress, in: IPValue(netip.MustParseAddr("fe80::1:2")), want: IPValue(netip.MustParseAddr("fe80::1:2"))},
	{name: "raw 18 bytes", length: 9, enc: RawBytes, in: BytesValue([]byte("0123456789abcdefgh")), want: BytesValue([]byte("0123456789abcdefgh"))},
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range roundTripCases {
		for _, lc := range allLayouts() {
			signed := lc.signed
			if tc.signed != nil {
				signed = *tc.signed
			}
			c := Construct(lc.swap, lc.order)
			regs, err := c.Serialize(tc.in, tc.length, tc.enc, signed, tc.sf)
			assert.NilError(t, err, "%s [%s signed=%v]", tc.name, c.Layout(), signed)
			assert.Check(t, is.Len(regs, tc.length), tc.name)

			got, err := c.Deserialize(regs, tc.enc, signed, tc.sf, tc.want.Kind())
			assert.NilError(t, err, "%s [%s signed=%v]", tc.name, c.Layout(), signed)
			if tc.approx {
				assert.Check(t, math.Abs(got.Float64()-tc.want.Float64()) < 0.00001, "%s: %v != %v", tc.name, got, tc.want)
				continue
			}
			assert.Check(t, got.Equal(tc.want), "%s [%s signed=%v]: %v != %v", tc.name, c.Layout(), signed, got, tc.want)
		}
	}
}

func TestSharedCodecConcurrentUse(t *testing.T) {
	c := Construct(true, LittleEndian)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				for _, tc := range roundTripCases {
					signed := tc.signed == nil || *tc.signed
					regs, err := c.Serialize(tc.in, tc.length, tc.enc, signed, tc.sf)
					if !assert.Check(t, err, tc.name) {
						return
					}
					got, err := c.Deserialize(regs, tc.enc, signed, tc.sf, tc.want.Kind())
					if !assert.Check(t, err, tc.name) {
						return
					}
					if !tc.approx {
						assert.Check(t, got.Equal(tc.want), "%s: %v != %v", tc.name, got, tc.want)
					}
				}
			}
		}()
	}
	wg.Wait()
}

func TestLayoutRegisters(t *testing.T) {
	cases := []struct {
		order WordOrder
		want  []uint16
	}{
		{BigEndianWords, []uint16{0x1122, 0x3344}},
		{LittleEndianWords, []uint16{0x4433, 0x2211}},
		{MidBigEndianWords, []uint16{0x3344, 0x1122}},
		{MidLittleEndianWords, []uint16{0x2211, 0x4433}},
	}
	for _, tc := range cases {
		c, err := New(Options{WordOrder: tc.order.String()})
		assert.NilError(t, err)
		regs, err := Encode(c, uint32(0x11223344), 2, Int, false, NoScale)
		assert.NilError(t, err)
		assert.DeepEqual(t, regs, tc.want)

		back, err := Decode[uint32](c, regs, Int, false, NoScale)
		assert.NilError(t, err)
		assert.Equal(t, back, uint32(0x11223344), tc.order.String())
	}
}

func TestByteOrderIsInvolution(t *testing.T) {
	in := []byte{1, 2, 3, 4, 5}
	for _, o := range []ByteOrder{BigEndian, LittleEndian} {
		once := o.Transform(in)
		assert.DeepEqual(t, o.Transform(once), in)
	}
	assert.DeepEqual(t, LittleEndian.Transform(in), []byte{5, 4, 3, 2, 1})
	assert.DeepEqual(t, in, []byte{1, 2, 3, 4, 5}) // input untouched
}

func TestLayoutBytesDoesNotMutateRegisters(t *testing.T) {
	regs := []uint16{1, 2, 3}
	l := Layout{WordSwap: true, Order: LittleEndian}
	b := l.Bytes(regs)
	assert.DeepEqual(t, regs, []uint16{1, 2, 3})
	assert.DeepEqual(t, l.Registers(b), regs)
}

func TestSerializeErrors(t *testing.T) {
	c := Construct(false, BigEndian)
	cases := []struct {
		name   string
		v      Value
		length int
		enc    Encoding
		signed bool
		sf     Scale
		want   error
	}{
		{"unknown encoding", Int16Value(1), 1, Encoding(42), false, NoScale, ErrUnsupportedEncoding},
		{"null value", Value{}, 1, Int, false, NoScale, ErrNullValue},
		{"zero length", Int16Value(1), 0, Int, false, NoScale, ErrUnsupportedLength},
		{"string with scale", StringValue("x"), 2, UTF8, false, ScaleBy(10), ErrUnexpectedScaleFactor},
		{"int with scale", Int16Value(1), 1, Int, true, ScaleBy(10), ErrUnexpectedScaleFactor},
		{"ieee with scale", Float32Value(1), 2, IEEE754, false, ScaleBy(10), ErrUnexpectedScaleFactor},
		{"scaled without scale", Float64Value(1), 2, IntAndScaleFactor, true, NoScale, ErrMissingScaleFactor},
		{"zero scale", Float64Value(1), 2, IntAndScaleFactor, true, ScaleBy(0), ErrInvalidScaleFactor},
		{"scaled 128 bit", Float64Value(1), 8, IntAndScaleFactor, true, ScaleBy(0.1), ErrUnsupportedLength},
		{"scaled int128 value", Int128Value(Int128From64(1)), 4, IntAndScaleFactor, true, ScaleBy(0.1), ErrUnsupportedType},
		{"scaled bool", BoolValue(true), 1, IntAndScaleFactor, true, ScaleBy(1), ErrUnsupportedType},
		{"ieee 16 bit", Float32Value(1), 1, IEEE754, false, NoScale, ErrUnsupportedLength},
		{"ieee int value", Int32Value(1), 2, IEEE754, false, NoScale, ErrUnsupportedType},
		{"int 48 bit", Int64Value(1), 3, Int, true, NoScale, ErrUnsupportedLength},
		{"int string value", StringValue("1"), 1, Int, true, NoScale, ErrUnsupportedType},
		{"utf8 int value", Int16Value(1), 2, UTF8, false, NoScale, ErrUnsupportedType},
		{"ipv6 in 2 words", IPValue(netip.MustParseAddr("::1")), 2, IPAddress, false, NoScale, ErrLengthMismatch},
		{"ipv4 in 8 words", IPValue(netip.MustParseAddr("10.0.0.1")), 8, IPAddress, false, NoScale, ErrLengthMismatch},
		{"ip bytes value", BytesValue([]byte{1, 2, 3, 4}), 2, IPAddress, false, NoScale, ErrUnsupportedType},
		{"raw short", BytesValue([]byte{1, 2}), 2, RawBytes, false, NoScale, ErrLengthMismatch},
		{"raw long", BytesValue([]byte{1, 2, 3, 4, 5}), 2, RawBytes, false, NoScale, ErrLengthMismatch},
		{"unsigned overflow", Uint16Value(60000), 1, Int, true, NoScale, ErrRange},
		{"negative unsigned", Int16Value(-1), 1, Int, false, NoScale, ErrRange},
		{"nan int", Float64Value(math.NaN()), 2, Int, true, NoScale, ErrRange},
		{"float32 overflow", Float64Value(1e300), 2, IEEE754, false, NoScale, ErrRange},
		{"scaled overflow", Float64Value(1000), 1, IntAndScaleFactor, true, ScaleBy(0.001), ErrRange},
		{"length overflows bytes", Int16Value(1), math.MaxInt/2 + 1, Int, true, NoScale, ErrUnsupportedLength},
		{"ieee huge length", Float32Value(1), math.MaxInt / 2, IEEE754, false, NoScale, ErrUnsupportedLength},
		{"scaled huge length", Float64Value(1), math.MaxInt / 2, IntAndScaleFactor, true, ScaleBy(0.1), ErrUnsupportedLength},
		{"ip huge length", IPValue(netip.MustParseAddr("10.0.0.1")), math.MaxInt / 2, IPAddress, false, NoScale, ErrLengthMismatch},
		{"raw huge length", BytesValue([]byte{1, 2}), math.MaxInt / 2, RawBytes, false, NoScale, ErrLengthMismatch},
		{"utf8 ill-formed", StringValue("a\xffb"), 4, UTF8, false, NoScale, ErrUnsupportedType},
		{"utf16 ill-formed", StringValue("a\xffb"), 4, UTF16, false, NoScale, ErrUnsupportedType},
		{"utf8 cut rune", StringValue("ab\xe2\x94"), 4, UTF8, false, NoScale, ErrUnsupportedType},
		{"zoned ipv6", IPValue(netip.MustParseAddr("fe80::1%eth0")), 8, IPAddress, false, NoScale, ErrUnsupportedType},
	}
	for _, tc := range cases {
		regs, err := c.Serialize(tc.v, tc.length, tc.enc, tc.signed, tc.sf)
		assert.Check(t, is.ErrorIs(err, tc.want), tc.name)
		assert.Check(t, is.Nil(regs), tc.name)

		var ce *CodecError
		assert.Check(t, errors.As(err, &ce), tc.name)
		assert.Check(t, IsConfigError(err), tc.name)
	}
}

func TestDeserializeErrors(t *testing.T) {
	c := Construct(true, LittleEndian)
	cases := []struct {
		name string
		regs []uint16
		enc  Encoding
		sf   Scale
		want Kind
		err  error
	}{
		{"nil registers", nil, Int, NoScale, KindInt16, ErrNullValue},
		{"empty registers", []uint16{}, Int, NoScale, KindInt16, ErrUnsupportedLength},
		{"unknown encoding", []uint16{1}, Encoding(99), NoScale, KindInt16, ErrUnsupportedEncoding},
		{"length before type", []uint16{1, 2, 3}, Int, NoScale, KindString, ErrUnsupportedLength},
		{"ieee length before type", []uint16{1, 2, 3}, IEEE754, NoScale, KindString, ErrUnsupportedLength},
		{"ieee int target", []uint16{1, 2}, IEEE754, NoScale, KindInt32, ErrUnsupportedType},
		{"scaled 128 bit", make([]uint16, 8), IntAndScaleFactor, ScaleBy(1), KindFloat64, ErrUnsupportedLength},
		{"scaled int128 target", make([]uint16, 4), IntAndScaleFactor, ScaleBy(1), KindInt128, ErrUnsupportedType},
		{"scaled missing", []uint16{1}, IntAndScaleFactor, NoScale, KindFloat64, ErrMissingScaleFactor},
		{"int with scale", []uint16{1}, Int, ScaleBy(2), KindInt16, ErrUnexpectedScaleFactor},
		{"int string target", []uint16{1}, Int, NoScale, KindString, ErrUnsupportedType},
		{"int narrow target", []uint16{0xFFFF}, Int, NoScale, KindUint8, ErrRange},
		{"string int target", []uint16{0x4142}, UTF8, NoScale, KindInt16, ErrUnsupportedType},
		{"ip 3 words", []uint16{1, 2, 3}, IPAddress, NoScale, KindIP, ErrUnsupportedLength},
		{"ip bytes target", []uint16{1, 2}, IPAddress, NoScale, KindBytes, ErrUnsupportedType},
		{"raw string target", []uint16{1, 2}, RawBytes, NoScale, KindString, ErrUnsupportedType},
	}
	for _, tc := range cases {
		v, err := c.Deserialize(tc.regs, tc.enc, false, tc.sf, tc.want)
		assert.Check(t, is.ErrorIs(err, tc.err), tc.name)
		assert.Check(t, v.IsNull(), tc.name)
	}
}

func TestUTF8TruncationIsByteExact(t *testing.T) {
	c := Construct(false, BigEndian)
	regs, err := Encode(c, "Hello World!", 5, UTF8, false, NoScale)
	assert.NilError(t, err)
	assert.DeepEqual(t, regs, []uint16{0x4865, 0x6c6c, 0x6f20, 0x576f, 0x726c})

	// cut in the middle of a 3 byte rune
	regs, err = Encode(c, "ab│", 2, UTF8, false, NoScale)
	assert.NilError(t, err)
	s, err := Decode[string](c, regs, UTF8, false, NoScale)
	assert.NilError(t, err)
	assert.Check(t, strings.HasPrefix(s, "ab\uFFFD"), "%q", s)
}

func TestStringPaddingTrimmed(t *testing.T) {
	c := Construct(false, BigEndian)
	regs := []uint16{0x4142, 0x2000, 0x0000}
	s, err := Decode[string](c, regs, UTF8, false, NoScale)
	assert.NilError(t, err)
	assert.Equal(t, s, "AB")
}

func TestUTF16IsLittleEndianUnits(t *testing.T) {
	c := Construct(false, BigEndian)
	regs, err := Encode(c, "AB", 2, UTF16, false, NoScale)
	assert.NilError(t, err)
	assert.DeepEqual(t, regs, []uint16{0x4100, 0x4200})
}

func TestScaleRounding(t *testing.T) {
	c := Construct(false, BigEndian)
	for _, f := range []float64{5.88, -5.88} {
		regs, err := Encode(c, f, 2, IntAndScaleFactor, true, ScaleBy(0.01))
		assert.NilError(t, err)
		raw, err := Decode[int32](c, regs, Int, true, NoScale)
		assert.NilError(t, err)
		assert.Equal(t, raw, int32(math.Round(f*100)))

		got, err := Decode[float64](c, regs, IntAndScaleFactor, true, ScaleBy(0.01))
		assert.NilError(t, err)
		assert.Check(t, math.Abs(got-f) < 1e-9)

		// integer targets round half away from zero
		n, err := Decode[int16](c, regs, IntAndScaleFactor, true, ScaleBy(0.01))
		assert.NilError(t, err)
		assert.Equal(t, n, int16(math.Copysign(6, f)))
	}
}

func TestPow10Scale(t *testing.T) {
	c := Construct(false, BigEndian)
	regs, err := Encode(c, float32(230.4), 1, IntAndScaleFactor, false, Pow10(-1))
	assert.NilError(t, err)
	assert.DeepEqual(t, regs, []uint16{2304})

	v, err := Decode[float32](c, regs, IntAndScaleFactor, false, Pow10(-1))
	assert.NilError(t, err)
	assert.Check(t, math.Abs(float64(v)-230.4) < 1e-4)
}

func TestInt128Width(t *testing.T) {
	c := Construct(true, LittleEndian)
	regs, err := Encode(c, MaxInt128, 8, Int, true, NoScale)
	assert.NilError(t, err)
	got, err := Decode[Int128](c, regs, Int, true, NoScale)
	assert.NilError(t, err)
	assert.Equal(t, got, MaxInt128)

	// unsigned view of the same bits does not fit int128
	_, err = Decode[Int128](c, regs, Int, false, NoScale)
	assert.NilError(t, err)
	regs, err = Encode(c, MaxUint128, 8, Int, false, NoScale)
	assert.NilError(t, err)
	_, err = Decode[Int128](c, regs, Int, false, NoScale)
	assert.Check(t, is.ErrorIs(err, ErrRange))

	// floats into 128 bits
	regs, err = Encode(c, -1e20, 8, Int, true, NoScale)
	assert.NilError(t, err)
	f, err := Decode[float64](c, regs, Int, true, NoScale)
	assert.NilError(t, err)
	assert.Equal(t, f, -1e20)
}

func TestIntFloatRounding(t *testing.T) {
	c := Construct(false, BigEndian)
	regs, err := Encode(c, 2.5, 1, Int, true, NoScale)
	assert.NilError(t, err)
	assert.DeepEqual(t, regs, []uint16{3})

	regs, err = Encode(c, -2.5, 1, Int, true, NoScale)
	assert.NilError(t, err)
	assert.DeepEqual(t, regs, []uint16{0xFFFD})
}

func TestIntBoolTarget(t *testing.T) {
	c := Construct(false, BigEndian)
	b, err := Decode[bool](c, []uint16{0, 7}, Int, false, NoScale)
	assert.NilError(t, err)
	assert.Check(t, b)
	b, err = Decode[bool](c, []uint16{0}, Int, false, NoScale)
	assert.NilError(t, err)
	assert.Check(t, !b)
}

func TestIPAddressNetworkOrder(t *testing.T) {
	c := Construct(false, BigEndian)
	regs, err := Encode(c, netip.MustParseAddr("10.0.0.228"), 2, IPAddress, false, NoScale)
	assert.NilError(t, err)
	assert.DeepEqual(t, regs, []uint16{0x0a00, 0x00e4})

	_, err = Encode(c, netip.MustParseAddr("2001:db8::1"), 2, IPAddress, false, NoScale)
	assert.Check(t, is.ErrorIs(err, ErrLengthMismatch))
}

func TestRawBytesCopy(t *testing.T) {
	c := Construct(true, LittleEndian)
	in := []byte{1, 2, 3, 4}
	regs, err := Encode(c, in, 2, RawBytes, false, NoScale)
	assert.NilError(t, err)
	in[0] = 9
	out, err := Decode[[]byte](c, regs, RawBytes, false, NoScale)
	assert.NilError(t, err)
	assert.DeepEqual(t, out, []byte{1, 2, 3, 4})
}

type truncations struct {
	NopHooks
	got [][3]int
}

func (h *truncations) StringTruncated(enc Encoding, size, capacity int) {
	h.got = append(h.got, [3]int{int(enc), size, capacity})
}

type recordingLogger struct {
	NopLogger
	msgs []Fields
}

func (l *recordingLogger) Debug(_ string, f Fields) { l.msgs = append(l.msgs, f) }

func TestHooksAndLogging(t *testing.T) {
	h := &truncations{}
	l := &recordingLogger{}
	c, err := New(Options{Hooks: h, Logger: l})
	assert.NilError(t, err)

	_, err = Encode(c, "Hello World!", 5, UTF8, false, NoScale)
	assert.NilError(t, err)
	_, err = Encode(c, "Hi", 5, UTF8, false, NoScale)
	assert.NilError(t, err)
	assert.DeepEqual(t, h.got, [][3]int{{int(UTF8), 12, 10}})

	_, err = Encode(c, "Hi", 5, UTF8, false, ScaleBy(1))
	assert.Check(t, err != nil)
	assert.Assert(t, is.Len(l.msgs, 1))
	assert.Equal(t, l.msgs[0]["op"], "serialize")
	assert.Equal(t, l.msgs[0]["encoding"], "utf8")
}

func TestNewRejectsUnknownWordOrder(t *testing.T) {
	_, err := New(Options{WordOrder: "sideways"})
	assert.ErrorContains(t, err, "unknown word order")
}

func TestCodecErrorMessage(t *testing.T) {
	c := Construct(false, BigEndian)
	_, err := Encode(c, uint16(60000), 1, Int, true, NoScale)
	assert.Error(t, err, "serialize int uint16 (2 bytes): regcodec: value out of range: 60000 does not fit int16")
}

func TestDecodeFieldLength(t *testing.T) {
	c := Construct(false, BigEndian)
	f := Field{Length: 2, Encoding: Int, Signed: true, Kind: KindInt32}
	regs, err := c.EncodeField(f, Int32Value(-7))
	assert.NilError(t, err)
	v, err := c.DecodeField(f, regs)
	assert.NilError(t, err)
	assert.Equal(t, v.Int32(), int32(-7))

	_, err = c.DecodeField(f, regs[:1])
	assert.Check(t, is.ErrorIs(err, ErrLengthMismatch))
}
