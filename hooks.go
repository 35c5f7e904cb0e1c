package regcodec

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The codec and the register bank call them on hot paths.
type Hooks interface {
	// A string value was cut to fit its register block.
	// size is the encoded length in bytes, capacity the block length in bytes.
	StringTruncated(enc Encoding, size, capacity int)

	// A stored register image was deleted by the bank on read.
	// reason ∈ {"corrupt", "gen_mismatch"}
	SelfHeal(storageKey, reason string)

	// A bulk read path was rejected and fell back to singles.
	// reason ∈ {"decode_error", "invalid_or_stale"}
	BulkRejected(namespace string, requested int, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string, isBulk bool)

	// GenStore errors (snapshot or bump).
	// count is number of keys involved (1 for Snapshot/Bump, N for SnapshotMany).
	GenSnapshotError(count int, err error)
	GenBumpError(storageKey string, err error)

	// Both gen bump and delete failed during Invalidate (likely backend outage).
	InvalidateOutage(key string, bumpErr, delErr error)

	// Bulk is enabled with a local GenStore (stale bulks possible across replicas).
	LocalGenWithBulk()
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) StringTruncated(Encoding, int, int)    {}
func (NopHooks) SelfHeal(string, string)               {}
func (NopHooks) BulkRejected(string, int, string)      {}
func (NopHooks) ProviderSetRejected(string, bool)      {}
func (NopHooks) GenSnapshotError(int, error)           {}
func (NopHooks) GenBumpError(string, error)            {}
func (NopHooks) InvalidateOutage(string, error, error) {}
func (NopHooks) LocalGenWithBulk()                     {}
