package zerocas

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/zerocas/codec"
	"github.com/unkn0wn-root/zerocas/genstore"
	"github.com/unkn0wn-root/zerocas/internal/util"
	"github.com/unkn0wn-root/zerocas/internal/wire"
	pr "github.com/unkn0wn-root/zerocas/provider"
)

const (
	defaultTTL          = 10 * time.Minute
	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

// self-heal reasons
const (
	reasonCorrupt        = "corrupt"
	reasonGenMismatch    = "gen_mismatch"
	reasonValueDecode    = "value_decode"
	reasonLayoutMismatch = "layout_mismatch"
)

type cache[V any] struct {
	ns       string
	provider pr.Provider
	codec    codec.Codec[V]
	log      Logger
	hooks    Hooks

	enabled     bool
	bulkEnabled bool

	defaultTTL     time.Duration
	bulkTTL        time.Duration
	computeSetCost SetCostFunc
	gen            genstore.GenStore
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Provider == nil {
		return nil, errors.New("zerocas: provider is required")
	}
	if opts.Codec == nil {
		return nil, errors.New("zerocas: codec is required")
	}
	if opts.Namespace == "" {
		return nil, errors.New("zerocas: namespace is required")
	}

	c := &cache[V]{
		ns:          opts.Namespace,
		provider:    opts.Provider,
		codec:       opts.Codec,
		enabled:     !opts.Disabled,
		bulkEnabled: !opts.DisableBulk,
	}

	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.defaultTTL = coalesce(opts.DefaultTTL, defaultTTL)
	c.bulkTTL = coalesce(opts.BulkTTL, defaultTTL)

	if opts.ComputeSetCost != nil {
		c.computeSetCost = opts.ComputeSetCost
	} else {
		c.computeSetCost = func(string, []byte, bool, int) int64 { return 1 }
	}

	if opts.GenStore != nil {
		c.gen = opts.GenStore
	} else {
		sweep := coalesce(opts.CleanupInterval, defaultSweep)
		retention := coalesce(opts.GenRetention, defaultGenRetention)
		c.gen = genstore.NewLocalGenStore(sweep, retention)
		if c.enabled && c.bulkEnabled {
			c.hooks.LocalGenWithBulk()
		}
	}

	c.log.Debug("cache created", Fields{
		"ns":    c.ns,
		"codec": codecName(opts.Codec),
		"bulk":  c.bulkEnabled,
	})
	return c, nil
}

func codecName(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return "custom"
}

func (c *cache[V]) Enabled() bool { return c.enabled }

// Close closes the generation store and then the provider.
func (c *cache[V]) Close(ctx context.Context) error {
	var genErr, provErr error
	if c.gen != nil {
		genErr = c.gen.Close(ctx)
	}
	if c.provider != nil {
		provErr = c.provider.Close(ctx)
	}
	return errors.Join(genErr, provErr)
}

func (c *cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if !c.enabled {
		return zero, false, nil
	}
	k := c.singleKey(key)
	raw, ok, err := c.provider.Get(ctx, k)
	if err != nil || !ok {
		return zero, false, err
	}
	gen, payload, err := wire.DecodeSingle(raw)
	if err != nil {
		c.selfHeal(ctx, k, reasonCorrupt, err)
		return zero, false, nil
	}
	cur, err := c.gen.Snapshot(ctx, k)
	if err != nil {
		// can't prove freshness; miss without deleting
		c.hooks.GenSnapshotError(1, err)
		c.log.Warn("gen snapshot error", Fields{"key": k, "err": err})
		return zero, false, nil
	}
	if gen != cur {
		c.selfHeal(ctx, k, reasonGenMismatch, nil)
		return zero, false, nil
	}
	v, err := c.codec.Decode(payload)
	if err != nil {
		c.selfHeal(ctx, k, decodeReason(err), err)
		return zero, false, nil
	}
	return v, true, nil
}

func decodeReason(err error) string {
	if errors.Is(err, codec.ErrLayoutMismatch) {
		return reasonLayoutMismatch
	}
	return reasonValueDecode
}

func (c *cache[V]) selfHeal(ctx context.Context, storageKey, reason string, cause error) {
	if err := c.provider.Del(ctx, storageKey); err != nil {
		c.log.Warn("self-heal delete failed", Fields{"key": storageKey, "err": err})
	}
	c.hooks.SelfHealSingle(storageKey, reason)
	f := Fields{"key": storageKey, "reason": reason}
	if cause != nil {
		f["err"] = cause
	}
	c.log.Debug("self-healed single", f)
}

func (c *cache[V]) SetWithGen(ctx context.Context, key string, value V, observedGen uint64, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	k := c.singleKey(key)
	cur, err := c.gen.Snapshot(ctx, k)
	if err != nil {
		c.hooks.GenSnapshotError(1, err)
		c.log.Warn("SetWithGen skipped (gen snapshot error)", Fields{"key": key, "err": err})
		return nil
	}
	if cur != observedGen {
		c.log.Debug("SetWithGen skipped (gen mismatch)", Fields{"key": key, "obs": observedGen, "cur": cur})
		return nil
	}
	payload, err := c.codec.Encode(value)
	if err != nil {
		return err
	}
	framed := wire.EncodeSingle(observedGen, payload)
	ok, err := c.provider.Set(ctx, k, framed, c.computeSetCost(k, framed, false, 1), ttl)
	if err != nil {
		return err
	}
	if !ok {
		c.hooks.ProviderSetRejected(k, false)
		c.log.Debug("SetWithGen rejected by provider (pressure)", Fields{"key": key})
	}
	return nil
}

// Invalidate bumps the key's generation and deletes its single entry. Either
// step alone is enough to stop stale reads, so an error is returned only when
// both fail.
func (c *cache[V]) Invalidate(ctx context.Context, key string) error {
	if !c.enabled {
		return nil
	}
	k := c.singleKey(key)
	newGen, bumpErr := c.bumpGen(ctx, k)
	delErr := c.provider.Del(ctx, k)

	if bumpErr != nil && delErr != nil {
		c.hooks.InvalidateOutage(key, bumpErr, delErr)
		c.log.Error("invalidate failed", Fields{"key": key, "bumpErr": bumpErr, "delErr": delErr})
		return &InvalidateError{Key: key, BumpErr: bumpErr, DelErr: delErr}
	}
	if delErr != nil {
		c.log.Warn("invalidate delete failed (gen bumped)", Fields{"key": key, "err": delErr})
	}
	c.log.Debug("invalidated key", Fields{"key": key, "newGen": newGen})
	return nil
}

func (c *cache[V]) GetBulk(ctx context.Context, keys []string) (map[string]V, []string, error) {
	out := make(map[string]V, len(keys))
	if !c.enabled {
		missing := make([]string, 0, len(keys))
		missing = append(missing, keys...)
		return out, missing, nil
	}
	if len(keys) == 0 {
		return out, nil, nil
	}

	sorted := util.SortedUnique(keys)
	if c.bulkEnabled {
		if c.getBulkEntry(ctx, sorted, out) {
			return out, nil, nil
		}
	}

	// fallback: singles
	var missing []string
	for _, k := range sorted {
		if v, ok, _ := c.Get(ctx, k); ok {
			out[k] = v
		}
	}
	seen := make(map[string]struct{}, len(sorted))
	for _, k := range keys {
		if _, ok := out[k]; ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		missing = append(missing, k)
	}
	return out, missing, nil
}

// getBulkEntry fills out from the bulk entry for sorted and reports whether
// every member was served. Stale or corrupt entries are deleted.
func (c *cache[V]) getBulkEntry(ctx context.Context, sorted []string, out map[string]V) bool {
	bk := c.bulkKeySorted(sorted)
	raw, ok, err := c.provider.Get(ctx, bk)
	if err != nil || !ok {
		return false
	}

	reject := func(reason string) bool {
		_ = c.provider.Del(ctx, bk)
		c.hooks.BulkRejected(c.ns, len(sorted), reason)
		c.log.Debug("bulk rejected", Fields{"bulkKey": bk, "reason": reason})
		return false
	}

	items, err := wire.DecodeBulk(raw)
	if err != nil {
		return reject("decode_error")
	}
	if !c.bulkValid(ctx, sorted, items) {
		return reject("invalid_or_stale")
	}

	byKey := make(map[string]wire.BulkItem, len(items))
	for _, it := range items {
		byKey[it.Key] = it
	}
	vals := make(map[string]V, len(sorted))
	for _, k := range sorted {
		v, err := c.codec.Decode(byKey[k].Payload)
		if err != nil {
			return reject(decodeReason(err))
		}
		vals[k] = v
	}
	for _, k := range sorted {
		out[k] = vals[k]
		// opportunistic single warmup (CAS-protected)
		_ = c.SetWithGen(ctx, k, vals[k], byKey[k].Gen, c.defaultTTL)
	}
	return true
}

func (c *cache[V]) SetBulkWithGens(ctx context.Context, items map[string]V, observedGens map[string]uint64, ttl time.Duration) error {
	if !c.enabled || len(items) == 0 {
		return nil
	}
	if ttl == 0 {
		ttl = c.bulkTTL
	}

	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	keys = util.SortedUnique(keys)

	if !c.bulkEnabled {
		return c.seedSingles(ctx, keys, items, observedGens)
	}

	// every member must still be at its observed generation
	current, err := c.gen.SnapshotMany(ctx, c.storageKeys(keys))
	if err != nil {
		c.hooks.GenSnapshotError(len(keys), err)
		c.log.Warn("SetBulkWithGens skipped (gen snapshot error)", Fields{"count": len(keys), "err": err})
		return nil
	}
	for _, k := range keys {
		obs, ok := observedGens[k]
		if !ok || current[c.singleKey(k)] != obs {
			c.log.Debug("SetBulkWithGens skipped bulk (gen mismatch)", Fields{"key": k})
			return c.seedSingles(ctx, keys, items, observedGens)
		}
	}

	wireItems := make([]wire.BulkItem, 0, len(keys))
	for _, k := range keys {
		payload, err := c.codec.Encode(items[k])
		if err != nil {
			return err
		}
		wireItems = append(wireItems, wire.BulkItem{Key: k, Gen: observedGens[k], Payload: payload})
	}
	framed, err := wire.EncodeBulk(wireItems)
	if err != nil {
		return err
	}

	bk := c.bulkKeySorted(keys)
	ok, err := c.provider.Set(ctx, bk, framed, c.computeSetCost(bk, framed, true, len(keys)), ttl)
	if err != nil {
		return err
	}
	if !ok {
		c.hooks.ProviderSetRejected(bk, true)
		c.log.Debug("bulk Set rejected; seeding singles", Fields{"bulkKey": bk})
	}
	return c.seedSingles(ctx, keys, items, observedGens)
}

// seedSingles writes each member that has an observed generation. It returns
// the first encode/provider error.
func (c *cache[V]) seedSingles(ctx context.Context, keys []string, items map[string]V, observedGens map[string]uint64) error {
	var first error
	for _, k := range keys {
		obs, ok := observedGens[k]
		if !ok {
			continue
		}
		if err := c.SetWithGen(ctx, k, items[k], obs, c.defaultTTL); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c *cache[V]) SnapshotGen(key string) uint64 {
	return c.snapshotGen(c.singleKey(key))
}

func (c *cache[V]) SnapshotGens(keys []string) map[string]uint64 {
	out := make(map[string]uint64, len(keys))
	if len(keys) == 0 {
		return out
	}
	m, err := c.gen.SnapshotMany(context.Background(), c.storageKeys(keys))
	if err != nil {
		c.hooks.GenSnapshotError(len(keys), err)
		// conservative fallback: one by one
		for _, k := range keys {
			out[k] = c.SnapshotGen(k)
		}
		return out
	}
	for _, k := range keys {
		out[k] = m[c.singleKey(k)]
	}
	return out
}

func (c *cache[V]) snapshotGen(storageKey string) uint64 {
	g, err := c.gen.Snapshot(context.Background(), storageKey)
	if err != nil {
		// 0 makes CAS writes skip and reads self-heal
		c.hooks.GenSnapshotError(1, err)
		c.log.Warn("gen snapshot error", Fields{"key": storageKey, "err": err})
		return 0
	}
	return g
}

func (c *cache[V]) bumpGen(ctx context.Context, storageKey string) (uint64, error) {
	g, err := c.gen.Bump(ctx, storageKey)
	if err != nil {
		c.hooks.GenBumpError(storageKey, err)
		c.log.Error("gen bump error", Fields{"key": storageKey, "err": err})
		return 0, err
	}
	return g, nil
}

func (c *cache[V]) singleKey(userKey string) string {
	return "single:" + c.ns + ":" + userKey
}

func (c *cache[V]) storageKeys(userKeys []string) []string {
	out := make([]string, len(userKeys))
	for i, k := range userKeys {
		out[i] = c.singleKey(k)
	}
	return out
}

// bulkKeySorted expects sorted, de-duplicated keys.
func (c *cache[V]) bulkKeySorted(sortedKeys []string) string {
	return util.BulkKeySorted("bulk:"+c.ns, sortedKeys)
}

// bulkValid reports whether items holds every requested member at its current
// generation. Extra members are ignored.
func (c *cache[V]) bulkValid(ctx context.Context, sortedKeys []string, items []wire.BulkItem) bool {
	gens := make(map[string]uint64, len(items))
	for _, it := range items {
		gens[it.Key] = it.Gen
	}
	for _, k := range sortedKeys {
		if _, ok := gens[k]; !ok {
			return false
		}
	}
	current, err := c.gen.SnapshotMany(ctx, c.storageKeys(sortedKeys))
	if err != nil {
		c.hooks.GenSnapshotError(len(sortedKeys), err)
		return false
	}
	for _, k := range sortedKeys {
		if gens[k] != current[c.singleKey(k)] {
			return false
		}
	}
	return true
}
