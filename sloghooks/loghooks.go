// Package sloghooks reports codec and bank events through log/slog.
package sloghooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/regcodec"
)

type Options struct {
	// Log every Nth event of the noisy kinds; 0 and 1 log all.
	TruncateEvery   uint64
	SelfHealEvery   uint64
	BulkRejectEvery uint64

	// Redact rewrites storage keys before they are logged. The default is
	// the first 8 bytes of SHA-256 in hex.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	truncated   atomic.Uint64
	healed      atomic.Uint64
	bulkDropped atomic.Uint64
}

var _ regcodec.Hooks = (*Hooks)(nil)

// New returns hooks that log to l. A nil l silences every event.
func New(l *slog.Logger, opts Options) *Hooks {
	if opts.Redact == nil {
		opts.Redact = hashKey
	}
	return &Hooks{l: l, opts: opts}
}

func hashKey(k string) string {
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

// every reports whether this occurrence should be logged.
func every(n uint64, ctr *atomic.Uint64) bool {
	return n <= 1 || ctr.Add(1)%n == 0
}

func (h *Hooks) emit(level slog.Level, event string, attrs ...slog.Attr) {
	if h.l == nil {
		return
	}
	h.l.LogAttrs(context.Background(), level, "regcodec."+event, attrs...)
}

func (h *Hooks) StringTruncated(enc regcodec.Encoding, size, capacity int) {
	if !every(h.opts.TruncateEvery, &h.truncated) {
		return
	}
	h.emit(slog.LevelDebug, "string_truncated",
		slog.String("encoding", enc.String()), slog.Int("size", size), slog.Int("capacity", capacity))
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if !every(h.opts.SelfHealEvery, &h.healed) {
		return
	}
	h.emit(slog.LevelDebug, "self_heal", slog.String("key", h.opts.Redact(storageKey)), slog.String("reason", reason))
}

func (h *Hooks) BulkRejected(ns string, requested int, reason string) {
	if !every(h.opts.BulkRejectEvery, &h.bulkDropped) {
		return
	}
	h.emit(slog.LevelInfo, "bulk_rejected", slog.String("ns", ns), slog.Int("requested", requested), slog.String("reason", reason))
}

func (h *Hooks) ProviderSetRejected(storageKey string, isBulk bool) {
	h.emit(slog.LevelWarn, "provider_set_rejected", slog.String("key", h.opts.Redact(storageKey)), slog.Bool("bulk", isBulk))
}

func (h *Hooks) GenSnapshotError(count int, err error) {
	h.emit(slog.LevelWarn, "gen_snapshot_error", slog.Int("count", count), slog.Any("err", err))
}

func (h *Hooks) GenBumpError(storageKey string, err error) {
	h.emit(slog.LevelWarn, "gen_bump_error", slog.String("key", h.opts.Redact(storageKey)), slog.Any("err", err))
}

func (h *Hooks) InvalidateOutage(key string, bumpErr, delErr error) {
	h.emit(slog.LevelError, "invalidate_outage",
		slog.String("key", h.opts.Redact(key)), slog.Any("bump_err", bumpErr), slog.Any("del_err", delErr))
}

func (h *Hooks) LocalGenWithBulk() {
	h.emit(slog.LevelWarn, "local_gen_with_bulk",
		slog.String("detail", "bulk images with an in-process gen store can go stale across replicas"))
}
