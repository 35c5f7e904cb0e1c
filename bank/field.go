package bank

import (
	"context"
	"time"

	"github.com/unkn0wn-root/regcodec"
)

// Load reads the image stored under key and decodes it as field f.
// A miss returns ok=false with a nil error.
func Load(ctx context.Context, b Bank, c *regcodec.Codec, key string, f regcodec.Field) (v regcodec.Value, ok bool, err error) {
	regs, ok, err := b.Get(ctx, key)
	if err != nil || !ok {
		return regcodec.Value{}, false, err
	}
	v, err = c.DecodeField(f, regs)
	if err != nil {
		return regcodec.Value{}, false, err
	}
	return v, true, nil
}

// Store encodes v as field f and writes the image, then the decoded
// snapshot, under the generation current at the time of the call.
func Store(ctx context.Context, b Bank, c *regcodec.Codec, key string, f regcodec.Field, v regcodec.Value, ttl time.Duration) error {
	obs := b.SnapshotGen(key)
	regs, err := c.EncodeField(f, v)
	if err != nil {
		return err
	}
	if err := b.PutWithGen(ctx, key, regs, obs, ttl); err != nil {
		return err
	}
	return b.PutValueWithGen(ctx, key, v, obs, ttl)
}
