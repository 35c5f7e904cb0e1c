package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/regcodec"
	"github.com/unkn0wn-root/regcodec/codec"
	"github.com/unkn0wn-root/regcodec/internal/wire"
)

// maxValueBytes caps decoded snapshot payloads read back with the default codec.
const maxValueBytes = 64 << 10

func defaultValueCodec() codec.Codec[regcodec.Value] {
	return codec.Limit[regcodec.Value]{
		Inner:     codec.Values{Inner: codec.JSON[codec.Record]{}},
		MaxDecode: maxValueBytes,
	}
}

// valueKey holds the decoded snapshot of key. It shares the generation of
// singleKey(key), so Invalidate hides both at once.
func (b *bank) valueKey(userKey string) string {
	return "v:" + b.ns + ":" + userKey
}

func (b *bank) GetValue(ctx context.Context, key string) (regcodec.Value, bool, error) {
	if !b.enabled {
		return regcodec.Value{}, false, nil
	}
	k := b.valueKey(key)
	raw, ok, err := b.provider.Get(ctx, k)
	if err != nil || !ok {
		return regcodec.Value{}, false, err
	}
	g, payload, err := wire.DecodeValue(raw)
	if err != nil {
		b.heal(ctx, k, "corrupt")
		return regcodec.Value{}, false, nil
	}
	if g != b.snapshotGen(ctx, b.singleKey(key)) {
		b.heal(ctx, k, "gen_mismatch")
		return regcodec.Value{}, false, nil
	}
	v, err := b.values.Decode(payload)
	if err != nil {
		b.log.Debug("GetValue: undecodable snapshot", regcodec.Fields{"key": key, "err": err})
		b.heal(ctx, k, "decode_error")
		return regcodec.Value{}, false, nil
	}
	return v, true, nil
}

func (b *bank) PutValueWithGen(ctx context.Context, key string, v regcodec.Value, observedGen uint64, ttl time.Duration) error {
	if !b.enabled {
		return nil
	}
	if ttl == 0 {
		ttl = b.defaultTTL
	}
	if b.snapshotGen(ctx, b.singleKey(key)) != observedGen {
		b.log.Debug("PutValueWithGen skipped (gen mismatch)", regcodec.Fields{"key": key, "obs": observedGen})
		return nil
	}
	payload, err := b.values.Encode(v)
	if err != nil {
		return fmt.Errorf("bank: encode value %q: %w", key, err)
	}
	k := b.valueKey(key)
	frame := wire.EncodeValue(observedGen, payload)
	ok, err := b.provider.Set(ctx, k, frame, b.computeSetCost(k, frame, false, 1), ttl)
	if err != nil {
		return err
	}
	if !ok {
		b.hooks.ProviderSetRejected(k, false)
		b.log.Debug("PutValueWithGen rejected by provider (pressure)", regcodec.Fields{"key": key})
	}
	return nil
}
