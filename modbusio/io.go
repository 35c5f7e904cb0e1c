// Package modbusio moves register blocks between a goburrow/modbus client,
// the codec and a register bank.
package modbusio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/unkn0wn-root/regcodec"
	"github.com/unkn0wn-root/regcodec/bank"
	"github.com/unkn0wn-root/regcodec/codec"
)

// MaxQuantity is the protocol limit for one read of holding or input registers.
const MaxQuantity = 125

var (
	ErrQuantity      = errors.New("modbusio: register quantity out of range")
	ErrShortResponse = errors.New("modbusio: response length does not match request")
	ErrReadOnly      = errors.New("modbusio: input registers are read-only")
)

type Options struct {
	Logger      regcodec.Logger // if nil, NopLogger is used
	MaxQuantity uint16          // per request; 0 => MaxQuantity
	TTL         time.Duration   // bank TTL for captured images; 0 => bank default
}

// IO serializes access to one client; goburrow clients are not safe for
// concurrent requests.
type IO struct {
	mu     sync.Mutex
	client modbus.Client
	codec  *regcodec.Codec
	log    regcodec.Logger
	maxQty uint16
	ttl    time.Duration
}

func New(client modbus.Client, c *regcodec.Codec, opts Options) (*IO, error) {
	if client == nil {
		return nil, fmt.Errorf("modbusio: client is required")
	}
	if c == nil {
		return nil, fmt.Errorf("modbusio: codec is required")
	}
	m := &IO{client: client, codec: c, ttl: opts.TTL}
	m.log = opts.Logger
	if m.log == nil {
		m.log = regcodec.NopLogger{}
	}
	m.maxQty = opts.MaxQuantity
	if m.maxQty == 0 || m.maxQty > MaxQuantity {
		m.maxQty = MaxQuantity
	}
	return m, nil
}

// Words splits a Modbus response payload into big-endian registers.
func Words(b []byte) ([]uint16, error) { return codec.Registers{}.Decode(b) }

// Payload joins registers into a Modbus request payload.
func Payload(regs []uint16) []byte {
	b, _ := codec.Registers{}.Encode(regs)
	return b
}

// ReadRegisters reads quantity registers starting at address.
func (m *IO) ReadRegisters(ctx context.Context, t Table, address, quantity uint16) ([]uint16, error) {
	if quantity == 0 || quantity > m.maxQty {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrQuantity, quantity, m.maxQty)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		raw []byte
		err error
	)
	switch t {
	case Holding:
		raw, err = m.client.ReadHoldingRegisters(address, quantity)
	case Input:
		raw, err = m.client.ReadInputRegisters(address, quantity)
	default:
		return nil, fmt.Errorf("modbusio: unknown table %d", uint8(t))
	}
	if err != nil {
		m.log.Warn("modbus read failed", regcodec.Fields{"table": t.String(), "address": address, "quantity": quantity, "err": err})
		return nil, fmt.Errorf("modbusio: read %s %d+%d: %w", t, address, quantity, err)
	}
	regs, err := Words(raw)
	if err != nil || len(regs) != int(quantity) {
		return nil, fmt.Errorf("%w: %d bytes for %d registers", ErrShortResponse, len(raw), quantity)
	}
	return regs, nil
}

// WriteRegisters writes regs to holding registers starting at address.
// A single register uses function code 6, longer blocks function code 16.
func (m *IO) WriteRegisters(ctx context.Context, address uint16, regs []uint16) error {
	if len(regs) == 0 || len(regs) > int(m.maxQty) {
		return fmt.Errorf("%w: %d (max %d)", ErrQuantity, len(regs), m.maxQty)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	var err error
	if len(regs) == 1 {
		_, err = m.client.WriteSingleRegister(address, regs[0])
	} else {
		_, err = m.client.WriteMultipleRegisters(address, uint16(len(regs)), Payload(regs))
	}
	if err != nil {
		m.log.Warn("modbus write failed", regcodec.Fields{"address": address, "quantity": len(regs), "err": err})
		return fmt.Errorf("modbusio: write holding %d+%d: %w", address, len(regs), err)
	}
	return nil
}

// Read fetches block b and decodes it.
func (m *IO) Read(ctx context.Context, b Block) (regcodec.Value, error) {
	if b.Length <= 0 || b.Length > int(m.maxQty) {
		return regcodec.Value{}, fmt.Errorf("%w: %d (max %d)", ErrQuantity, b.Length, m.maxQty)
	}
	regs, err := m.ReadRegisters(ctx, b.Table, b.Address, uint16(b.Length))
	if err != nil {
		return regcodec.Value{}, err
	}
	return m.codec.DecodeField(b.Field, regs)
}

// Write encodes v and writes it to block b.
func (m *IO) Write(ctx context.Context, b Block, v regcodec.Value) error {
	if b.Table != Holding {
		return ErrReadOnly
	}
	regs, err := m.codec.EncodeField(b.Field, v)
	if err != nil {
		return err
	}
	return m.WriteRegisters(ctx, b.Address, regs)
}

// Capture reads block b and stores its raw image in bk under b.Key(), then
// the decoded value as the key's snapshot. The generation is observed before
// the read, so an Invalidate issued while the request is in flight wins.
//
// A block that does not decode still keeps its image; the codec error is
// logged and no snapshot is written.
func (m *IO) Capture(ctx context.Context, bk bank.Bank, b Block) error {
	if b.Length <= 0 || b.Length > int(m.maxQty) {
		return fmt.Errorf("%w: %d (max %d)", ErrQuantity, b.Length, m.maxQty)
	}
	key := b.Key()
	obs := bk.SnapshotGen(key)
	regs, err := m.ReadRegisters(ctx, b.Table, b.Address, uint16(b.Length))
	if err != nil {
		return err
	}
	if err := bk.PutWithGen(ctx, key, regs, obs, m.ttl); err != nil {
		return err
	}
	v, err := m.codec.DecodeField(b.Field, regs)
	if err != nil {
		m.log.Warn("captured block does not decode", regcodec.Fields{"key": key, "err": err})
		return nil
	}
	return bk.PutValueWithGen(ctx, key, v, obs, m.ttl)
}

// CaptureMany reads every block, stores the images as one bulk write and
// then a snapshot per block. It stops at the first failed read and stores
// nothing.
func (m *IO) CaptureMany(ctx context.Context, bk bank.Bank, blocks []Block) error {
	keys := make([]string, len(blocks))
	for i, b := range blocks {
		keys[i] = b.Key()
	}
	gens := bk.SnapshotGens(keys)

	images := make(map[string][]uint16, len(blocks))
	for i, b := range blocks {
		if b.Length <= 0 || b.Length > int(m.maxQty) {
			return fmt.Errorf("%w: %d (max %d)", ErrQuantity, b.Length, m.maxQty)
		}
		regs, err := m.ReadRegisters(ctx, b.Table, b.Address, uint16(b.Length))
		if err != nil {
			return err
		}
		images[keys[i]] = regs
	}
	if err := bk.PutManyWithGens(ctx, images, gens, m.ttl); err != nil {
		return err
	}
	for i, b := range blocks {
		v, err := m.codec.DecodeField(b.Field, images[keys[i]])
		if err != nil {
			m.log.Warn("captured block does not decode", regcodec.Fields{"key": keys[i], "err": err})
			continue
		}
		if err := bk.PutValueWithGen(ctx, keys[i], v, gens[keys[i]], m.ttl); err != nil {
			return err
		}
	}
	return nil
}
