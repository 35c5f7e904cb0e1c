package regcodec

import "errors"

// Codec is the configured transcoding engine for one data source arrangement.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	layout Layout
	log    Logger
	hooks  Hooks
}

// Options tune a Codec. The zero Options is a big-endian, unswapped codec.
type Options struct {
	WordSwap  bool
	ByteOrder ByteOrder // nil => BigEndian

	// WordOrder, when set, names the arrangement ("big", "little", "mid-big",
	// "mid-little") and takes precedence over WordSwap and ByteOrder.
	WordOrder string

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

func New(opts Options) (*Codec, error) {
	layout := Layout{WordSwap: opts.WordSwap, Order: coalesce[ByteOrder](opts.ByteOrder, BigEndian)}
	if opts.WordOrder != "" {
		wo, err := ParseWordOrder(opts.WordOrder)
		if err != nil {
			return nil, err
		}
		layout = wo.Layout()
	}
	return &Codec{
		layout: layout,
		log:    coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:  coalesce[Hooks](opts.Hooks, NopHooks{}),
	}, nil
}

// Construct returns a codec for the given word swap and byte order.
// A nil order means BigEndian.
func Construct(wordSwap bool, order ByteOrder) *Codec {
	c, _ := New(Options{WordSwap: wordSwap, ByteOrder: order})
	return c
}

func (c *Codec) Layout() Layout { return c.layout }

// Serialize encodes v into targetLength registers.
//
// The scale factor must be present for IntAndScaleFactor and absent for every
// other encoding. On failure no registers are returned.
func (c *Codec) Serialize(v Value, targetLength int, enc Encoding, signed bool, sf Scale) ([]uint16, error) {
	buf, ft := c.encode(v, targetLength, enc, signed, sf)
	if ft != nil {
		return nil, c.reject("serialize", enc, v.kind, 2*targetLength, ft)
	}
	return c.layout.Registers(buf), nil
}

// Deserialize decodes regs into a Value of kind want.
func (c *Codec) Deserialize(regs []uint16, enc Encoding, signed bool, sf Scale, want Kind) (Value, error) {
	if regs == nil {
		return Value{}, c.reject("deserialize", enc, want, 0, fail(ErrNullValue))
	}
	v, ft := c.decode(c.layout.Bytes(regs), enc, signed, sf, want)
	if ft != nil {
		return Value{}, c.reject("deserialize", enc, want, 2*len(regs), ft)
	}
	return v, nil
}

func (c *Codec) reject(op string, enc Encoding, k Kind, size int, ft *fault) error {
	if size < 0 {
		size = 0
	}
	err := &CodecError{Op: op, Encoding: enc, Kind: k, Length: size, Err: ft.err, Detail: ft.detail}
	c.log.Debug("regcodec: call rejected", Fields{
		"op":       op,
		"encoding": enc.String(),
		"kind":     k.String(),
		"bytes":    size,
		"layout":   c.layout.String(),
		"err":      err.Error(),
	})
	return err
}

// checkScale enforces that a scale factor is given exactly when enc needs one.
func checkScale(enc Encoding, sf Scale) *fault {
	if enc.scaled() {
		if !sf.Present() {
			return fail(ErrMissingScaleFactor)
		}
		return sf.check()
	}
	if sf.Present() {
		return failf(ErrUnexpectedScaleFactor, "%s", sf)
	}
	return nil
}

func checkWidth(enc Encoding, n int) *fault {
	for _, w := range enc.widths() {
		if w == n {
			return nil
		}
	}
	return failf(ErrUnsupportedLength, "%d bytes (want one of %v)", n, enc.widths())
}

// IsConfigError reports whether err is a caller configuration fault raised by
// the codec, as opposed to an error from a collaborator.
func IsConfigError(err error) bool {
	var ce *CodecError
	return errors.As(err, &ce)
}
