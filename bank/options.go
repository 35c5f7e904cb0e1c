package bank

import (
	"context"
	"time"

	"github.com/unkn0wn-root/regcodec"
	"github.com/unkn0wn-root/regcodec/codec"
	gen "github.com/unkn0wn-root/regcodec/genstore"
	pr "github.com/unkn0wn-root/regcodec/provider"
)

type SetCostFunc func(key string, raw []byte, isBulk bool, bulkCount int) int64

// Bank stores register images, the raw words of a register block exactly as
// the device returned them, behind per-key generations. A write only lands
// when the generation observed before reading the device is still current,
// so an Invalidate racing a slow poll cannot be overwritten by stale data.
type Bank interface {
	Enabled() bool
	Close(context.Context) error

	// Single
	Get(ctx context.Context, key string) (regs []uint16, ok bool, err error)
	PutWithGen(ctx context.Context, key string, regs []uint16, observedGen uint64, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error

	// Many (order-agnostic return; use your own ordering by keys slice)
	GetMany(ctx context.Context, keys []string) (images map[string][]uint16, missing []string, err error)
	PutManyWithGens(ctx context.Context, images map[string][]uint16, observedGens map[string]uint64, ttl time.Duration) error

	// Decoded snapshots, stored next to the image under the same generation
	GetValue(ctx context.Context, key string) (v regcodec.Value, ok bool, err error)
	PutValueWithGen(ctx context.Context, key string, v regcodec.Value, observedGen uint64, ttl time.Duration) error

	// Generation snapshots (for CAS)
	SnapshotGen(key string) uint64
	SnapshotGens(keys []string) map[string]uint64
}

// Options tune a Bank. Only Namespace and Provider are required.
type Options struct {
	Namespace string // e.g. "plant:inverter-3"
	Provider  pr.Provider

	Logger          regcodec.Logger // if nil, NopLogger is used
	Hooks           regcodec.Hooks  // if nil, NopHooks is used
	DefaultTTL      time.Duration   // singles; 0 => 10m
	BulkTTL         time.Duration   // bulks; 0 => 10m
	CleanupInterval time.Duration   // local gen cleanup; 0 => 1h
	GenRetention    time.Duration   // 0 => 30d
	Disabled        bool            // default false (enabled)
	ComputeSetCost  SetCostFunc     // default 1
	GenStore        gen.GenStore    // nil => LocalGenStore (in-process)
	DisableBulk     bool            // default false => bulk enabled

	// ValueCodec serializes decoded snapshots. nil => JSON records, reads
	// capped at 64 KiB.
	ValueCodec codec.Codec[regcodec.Value]
}

func New(opts Options) (Bank, error) {
	b, err := newBank(opts)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
