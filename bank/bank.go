package bank

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/unkn0wn-root/regcodec"
	"github.com/unkn0wn-root/regcodec/codec"
	gen "github.com/unkn0wn-root/regcodec/genstore"
	"github.com/unkn0wn-root/regcodec/internal/util"
	"github.com/unkn0wn-root/regcodec/internal/wire"
	pr "github.com/unkn0wn-root/regcodec/provider"
)

const (
	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

type bank struct {
	ns             string
	provider       pr.Provider
	log            regcodec.Logger
	hooks          regcodec.Hooks
	enabled        bool
	bulkEnabled    bool
	defaultTTL     time.Duration
	bulkTTL        time.Duration
	computeSetCost SetCostFunc
	gen            gen.GenStore
	values         codec.Codec[regcodec.Value]
}

func newBank(opts Options) (*bank, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("bank: provider is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("bank: namespace is required")
	}

	b := &bank{
		ns:          opts.Namespace,
		provider:    opts.Provider,
		enabled:     !opts.Disabled,
		bulkEnabled: !opts.DisableBulk,
	}

	b.log = coalesce[regcodec.Logger](opts.Logger, regcodec.NopLogger{})
	b.hooks = coalesce[regcodec.Hooks](opts.Hooks, regcodec.NopHooks{})
	b.defaultTTL = coalesce(opts.DefaultTTL, 10*time.Minute)
	b.bulkTTL = coalesce(opts.BulkTTL, 10*time.Minute)

	if opts.ComputeSetCost != nil {
		b.computeSetCost = opts.ComputeSetCost
	} else {
		b.computeSetCost = func(_ string, _ []byte, _ bool, _ int) int64 { return 1 }
	}

	b.values = opts.ValueCodec
	if b.values == nil {
		b.values = defaultValueCodec()
	}

	if opts.GenStore != nil {
		b.gen = opts.GenStore
	} else {
		b.gen = gen.NewLocalGenStore(
			coalesce(opts.CleanupInterval, defaultSweep),
			coalesce(opts.GenRetention, defaultGenRetention),
		)
	}
	if _, local := b.gen.(*gen.LocalGenStore); local && b.enabled && b.bulkEnabled {
		b.hooks.LocalGenWithBulk()
	}
	return b, nil
}

func (b *bank) Enabled() bool { return b.enabled }

func (b *bank) Close(ctx context.Context) error {
	// gen store first (best effort)
	if b.gen != nil {
		_ = b.gen.Close(ctx)
	}
	return b.provider.Close(ctx)
}

func (b *bank) Get(ctx context.Context, key string) ([]uint16, bool, error) {
	if !b.enabled {
		return nil, false, nil
	}
	k := b.singleKey(key)
	raw, ok, err := b.provider.Get(ctx, k)
	if err != nil || !ok {
		return nil, false, err
	}
	g, regs, err := wire.DecodeSingle(raw)
	if err != nil {
		b.heal(ctx, k, "corrupt")
		return nil, false, nil
	}
	if g != b.snapshotGen(ctx, k) {
		b.heal(ctx, k, "gen_mismatch")
		return nil, false, nil
	}
	return regs, true, nil
}

func (b *bank) heal(ctx context.Context, storageKey, reason string) {
	_ = b.provider.Del(ctx, storageKey)
	b.hooks.SelfHeal(storageKey, reason)
}

func (b *bank) PutWithGen(ctx context.Context, key string, regs []uint16, observedGen uint64, ttl time.Duration) error {
	if !b.enabled {
		return nil
	}
	if ttl == 0 {
		ttl = b.defaultTTL
	}
	k := b.singleKey(key)
	if b.snapshotGen(ctx, k) != observedGen {
		// generation moved; skip stale write
		b.log.Debug("PutWithGen skipped (gen mismatch)", regcodec.Fields{"key": key, "obs": observedGen})
		return nil
	}
	frame := wire.EncodeSingle(observedGen, regs)
	ok, err := b.provider.Set(ctx, k, frame, b.computeSetCost(k, frame, false, 1), ttl)
	if err != nil {
		return err
	}
	if !ok {
		b.hooks.ProviderSetRejected(k, false)
		b.log.Debug("PutWithGen rejected by provider (pressure)", regcodec.Fields{"key": key})
	}
	return nil
}

func (b *bank) Invalidate(ctx context.Context, key string) error {
	if !b.enabled {
		return nil
	}
	k := b.singleKey(key)
	newGen, bumpErr := b.gen.Bump(ctx, k)
	if bumpErr != nil {
		b.hooks.GenBumpError(k, bumpErr)
	}
	delErr := b.provider.Del(ctx, k)
	// the bumped generation hides a leftover snapshot as well
	_ = b.provider.Del(ctx, b.valueKey(key))

	switch {
	case bumpErr != nil && delErr != nil:
		b.hooks.InvalidateOutage(key, bumpErr, delErr)
		return &InvalidateError{Namespace: b.ns, Key: key, BumpErr: bumpErr, DelErr: delErr}
	case bumpErr != nil:
		return &InvalidateError{Namespace: b.ns, Key: key, BumpErr: bumpErr}
	case delErr != nil:
		// the bumped generation already hides the old image
		b.log.Warn("invalidate: delete failed", regcodec.Fields{"key": key, "err": delErr})
	}
	b.log.Debug("invalidated key (bumped gen + cleared single and snapshot)", regcodec.Fields{"key": key, "newGen": newGen})
	return nil
}

func (b *bank) GetMany(ctx context.Context, keys []string) (map[string][]uint16, []string, error) {
	out := make(map[string][]uint16, len(keys))
	if !b.enabled {
		missing := make([]string, 0, len(keys))
		missing = append(missing, keys...)
		return out, missing, nil
	}
	if len(keys) == 0 {
		return out, nil, nil
	}

	if b.bulkEnabled {
		if got, missing, ok := b.getBulk(ctx, keys); ok {
			return got, missing, nil
		}
	}

	// fallback: singles
	var missing []string
	for _, k := range keys {
		regs, ok, err := b.Get(ctx, k)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			out[k] = regs
		} else {
			missing = append(missing, k)
		}
	}
	return out, missing, nil
}

// getBulk serves keys from a bulk frame. ok=false means the caller must fall
// back to singles.
func (b *bank) getBulk(ctx context.Context, keys []string) (map[string][]uint16, []string, bool) {
	bk := b.bulkKey(keys)
	raw, hit, err := b.provider.Get(ctx, bk)
	if err != nil || !hit {
		return nil, nil, false
	}
	items, err := wire.DecodeBulk(raw)
	if err != nil {
		_ = b.provider.Del(ctx, bk)
		b.hooks.BulkRejected(b.ns, len(keys), "decode_error")
		return nil, nil, false
	}
	if !b.bulkValid(ctx, items) {
		_ = b.provider.Del(ctx, bk)
		b.hooks.BulkRejected(b.ns, len(keys), "invalid_or_stale")
		return nil, nil, false
	}

	byKey := make(map[string]wire.BulkItem, len(items))
	for _, it := range items {
		byKey[it.Key] = it
	}
	out := make(map[string][]uint16, len(keys))
	var missing []string
	for _, k := range keys {
		it, ok := byKey[k]
		if !ok {
			missing = append(missing, k)
			continue
		}
		out[k] = it.Regs
		// opportunistic single warmup (CAS-protected)
		_ = b.PutWithGen(ctx, k, it.Regs, it.Gen, b.defaultTTL)
	}
	return out, missing, true
}

func (b *bank) PutManyWithGens(ctx context.Context, images map[string][]uint16, observedGens map[string]uint64, ttl time.Duration) error {
	if !b.enabled || len(images) == 0 {
		return nil
	}
	if ttl == 0 {
		ttl = b.bulkTTL
	}

	keys := make([]string, 0, len(images))
	for k := range images {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if !b.bulkEnabled {
		return b.seedSingles(ctx, keys, images, observedGens)
	}

	// verify all observed gens still current
	current := b.snapshotMany(ctx, keys)
	for _, k := range keys {
		obs, ok := observedGens[k]
		if !ok || current[k] != obs {
			b.log.Debug("PutManyWithGens skipped bulk (gen mismatch)", regcodec.Fields{"key": k})
			return b.seedSingles(ctx, keys, images, observedGens)
		}
	}

	items := make([]wire.BulkItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, wire.BulkItem{Key: k, Gen: observedGens[k], Regs: images[k]})
	}
	frame, err := wire.EncodeBulk(items)
	if err != nil {
		return err
	}

	bk := b.bulkKey(keys)
	ok, err := b.provider.Set(ctx, bk, frame, b.computeSetCost(bk, frame, true, len(items)), ttl)
	if err != nil {
		return err
	}
	if !ok {
		b.hooks.ProviderSetRejected(bk, true)
		b.log.Debug("bulk Set rejected; seeding singles", regcodec.Fields{"bulkKey": bk})
	}
	return b.seedSingles(ctx, keys, images, observedGens)
}

// seedSingles writes every image that has an observed generation, best effort.
func (b *bank) seedSingles(ctx context.Context, keys []string, images map[string][]uint16, observedGens map[string]uint64) error {
	for _, k := range keys {
		if obs, ok := observedGens[k]; ok {
			_ = b.PutWithGen(ctx, k, images[k], obs, b.defaultTTL)
		}
	}
	return nil
}

func (b *bank) SnapshotGen(key string) uint64 {
	return b.snapshotGen(context.Background(), b.singleKey(key))
}

func (b *bank) SnapshotGens(keys []string) map[string]uint64 {
	return b.snapshotMany(context.Background(), keys)
}

// snapshotMany maps user keys to generations. On a store error every key
// reads as 0, so CAS writes skip and reads self-heal.
func (b *bank) snapshotMany(ctx context.Context, keys []string) map[string]uint64 {
	storage := make([]string, len(keys))
	for i, k := range keys {
		storage[i] = b.singleKey(k)
	}
	out := make(map[string]uint64, len(keys))
	m, err := b.gen.SnapshotMany(ctx, storage)
	if err != nil {
		b.hooks.GenSnapshotError(len(keys), err)
		b.log.Warn("gen snapshot error", regcodec.Fields{"count": len(keys), "err": err})
		for _, k := range keys {
			out[k] = 0
		}
		return out
	}
	for i, k := range keys {
		out[k] = m[storage[i]]
	}
	return out
}

func (b *bank) snapshotGen(ctx context.Context, storageKey string) uint64 {
	g, err := b.gen.Snapshot(ctx, storageKey)
	if err != nil {
		b.hooks.GenSnapshotError(1, err)
		b.log.Warn("gen snapshot error", regcodec.Fields{"key": storageKey, "err": err})
		return 0
	}
	return g
}

func (b *bank) singleKey(userKey string) string {
	// isolate by namespace
	return "s:" + b.ns + ":" + userKey
}

func (b *bank) bulkKey(userKeys []string) string {
	return util.BulkKey("b:"+b.ns, userKeys)
}

func (b *bank) bulkValid(ctx context.Context, items []wire.BulkItem) bool {
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.Key
	}
	current := b.snapshotMany(ctx, keys)
	for _, it := range items {
		if it.Gen != current[it.Key] {
			return false
		}
	}
	return true
}
