// Package journal keeps a bounded in-memory ring of graph observations for
// diagnostics. Entries age out by TTL and fall off the back under capacity
// pressure; the whole ring can be exported and re-imported through the
// serialization pipeline.
package journal

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
	inframetrics "github.com/entanglegraph/entanglegraph/internal/infrastructure/metrics"
	"github.com/entanglegraph/entanglegraph/pkg/serialization"
)

// snapshotVersion guards Import against exports from an incompatible layout.
const snapshotVersion = 1

// Entry is one recorded observation, flattened for storage and transport.
// The core observation's error collapses to its message because errors do
// not round-trip through a codec.
type Entry struct {
	ID                string    `json:"id" msgpack:"id"`
	Graph             string    `json:"graph" msgpack:"graph"`
	Kind              string    `json:"kind" msgpack:"kind"`
	Source            string    `json:"source" msgpack:"source"`
	Target            string    `json:"target,omitempty" msgpack:"target,omitempty"`
	Strength          float64   `json:"strength,omitempty" msgpack:"strength,omitempty"`
	Bidirectional     bool      `json:"bidirectional,omitempty" msgpack:"bidirectional,omitempty"`
	Payload           any       `json:"payload,omitempty" msgpack:"payload,omitempty"`
	EffectiveStrength float64   `json:"effective_strength,omitempty" msgpack:"effective_strength,omitempty"`
	Error             string    `json:"error,omitempty" msgpack:"error,omitempty"`
	ObservedAt        time.Time `json:"observed_at" msgpack:"observed_at"`
	RecordedAt        time.Time `json:"recorded_at" msgpack:"recorded_at"`
}

// Filter narrows List, Export and KindTotals. Zero values match everything.
type Filter struct {
	Graph string
	Kind  string
	Node  string // matches either endpoint
	Limit int    // newest-first cap for List; ignored by Export
}

func (f Filter) matches(e Entry) bool {
	if f.Graph != "" && e.Graph != f.Graph {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Node != "" && e.Source != f.Node && e.Target != f.Node {
		return false
	}
	return true
}

// Config tunes the journal ring.
type Config struct {
	// Capacity bounds the ring; the oldest entry is evicted at the cap.
	Capacity int
	// TTL ages entries out. Zero disables expiry.
	TTL time.Duration
	// SweepInterval drives the background expiry pass. Only meaningful
	// with a TTL; defaults to one minute.
	SweepInterval time.Duration
	// Serializer handles Export and Import. Defaults to msgpack+zstd.
	Serializer *serialization.Serializer
}

// DefaultConfig returns the built-in journal settings: 1024 entries, no TTL.
func DefaultConfig() Config {
	return Config{
		Capacity:      1024,
		SweepInterval: time.Minute,
	}
}

// Journal provides bounded observation retention
// PRINCIPLES:
// - KISS: LRU ring plus a TTL pass, no index structures
// - SRP: Only responsible for retention and export, not fan-out
// - Thread-safe
type Journal struct {
	mu       sync.Mutex
	ring     *lru.Cache[string, Entry]
	ttl      time.Duration
	expiring bool // steers the evict callback while a TTL pass removes entries

	serializer *serialization.Serializer

	evictions   atomic.Int64
	expirations atomic.Int64
	recorded    atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

// New constructs a journal and, when a TTL is set, starts its sweep loop.
// Callers own the lifecycle and must Close it.
func New(cfg Config) (*Journal, error) {
	if cfg.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if cfg.TTL < 0 {
		return nil, ErrInvalidTTL
	}
	if cfg.Serializer == nil {
		cfg.Serializer = serialization.DefaultSerializer()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	j := &Journal{
		ttl:        cfg.TTL,
		serializer: cfg.Serializer,
		stop:       make(chan struct{}),
	}

	// The callback fires inside Add and Remove, both of which run under
	// j.mu, so reading j.expiring here is safe.
	ring, err := lru.NewWithEvict(cfg.Capacity, func(_ string, _ Entry) {
		if j.expiring {
			j.expirations.Add(1)
			inframetrics.AddJournalExpired(1)
			return
		}
		j.evictions.Add(1)
		inframetrics.AddJournalEvictions(1)
	})
	if err != nil {
		return nil, fmt.Errorf("journal ring: %w", err)
	}
	j.ring = ring

	if cfg.TTL > 0 {
		go j.sweep(cfg.SweepInterval)
	}
	return j, nil
}

// Record stores one observation and returns the created entry.
func (j *Journal) Record(graph string, o entangle.Observation) Entry {
	e := Entry{
		ID:                uuid.NewString(),
		Graph:             graph,
		Kind:              string(o.Kind),
		Source:            o.Source,
		Target:            o.Target,
		Strength:          o.Strength,
		Bidirectional:     o.Bidirectional,
		Payload:           o.Payload,
		EffectiveStrength: o.EffectiveStrength,
		ObservedAt:        o.At,
		RecordedAt:        time.Now(),
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.ring.Add(e.ID, e)
	j.recorded.Add(1)
	return e
}

// List returns entries matching f, newest first. Expired entries are removed
// before matching, so a read never surfaces stale records.
func (j *Journal) List(f Filter) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.expireLocked(time.Now())

	keys := j.ring.Keys()
	out := make([]Entry, 0)
	for i := len(keys) - 1; i >= 0; i-- {
		e, ok := j.ring.Peek(keys[i])
		if !ok || !f.matches(e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// Len returns the live entry count after an expiry pass.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.expireLocked(time.Now())
	return j.ring.Len()
}

// KindTotals counts live entries per observation kind, optionally narrowed
// to one graph.
func (j *Journal) KindTotals(graph string) map[string]int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.expireLocked(time.Now())

	totals := make(map[string]int64)
	for _, key := range j.ring.Keys() {
		e, ok := j.ring.Peek(key)
		if !ok {
			continue
		}
		if graph != "" && e.Graph != graph {
			continue
		}
		totals[e.Kind]++
	}
	return totals
}

// snapshot is the export envelope.
type snapshot struct {
	Version    int       `json:"version" msgpack:"version"`
	ExportedAt time.Time `json:"exported_at" msgpack:"exported_at"`
	Entries    []Entry   `json:"entries" msgpack:"entries"`
}

// Export serializes the entries matching f, oldest first, through the
// configured pipeline.
func (j *Journal) Export(f Filter) ([]byte, error) {
	j.mu.Lock()
	j.expireLocked(time.Now())

	snap := snapshot{
		Version:    snapshotVersion,
		ExportedAt: time.Now(),
	}
	for _, key := range j.ring.Keys() {
		if e, ok := j.ring.Peek(key); ok && f.matches(e) {
			snap.Entries = append(snap.Entries, e)
		}
	}
	j.mu.Unlock()

	data, err := j.serializer.Serialize(snap)
	if err != nil {
		return nil, fmt.Errorf("export journal: %w", err)
	}
	return data, nil
}

// Import appends a previously exported snapshot, keeping original entry ids
// and timestamps. Imported entries older than the TTL expire on the next
// read. Returns the number of entries loaded.
func (j *Journal) Import(data []byte) (int, error) {
	var snap snapshot
	if err := j.serializer.Deserialize(data, &snap); err != nil {
		return 0, fmt.Errorf("import journal: %w", err)
	}
	if snap.Version != snapshotVersion {
		return 0, fmt.Errorf("%w: version %d", ErrSnapshotVersion, snap.Version)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, e := range snap.Entries {
		j.ring.Add(e.ID, e)
	}
	return len(snap.Entries), nil
}

// CodecName reports the export codec, for transport metadata.
func (j *Journal) CodecName() string {
	return j.serializer.CodecName()
}

// Stats is a point-in-time view of journal counters.
type Stats struct {
	Entries     int   `json:"entries"`
	Recorded    int64 `json:"recorded"`
	Evictions   int64 `json:"evictions"`
	Expirations int64 `json:"expirations"`
}

// Stats returns the journal counters.
func (j *Journal) Stats() Stats {
	j.mu.Lock()
	entries := j.ring.Len()
	j.mu.Unlock()
	return Stats{
		Entries:     entries,
		Recorded:    j.recorded.Load(),
		Evictions:   j.evictions.Load(),
		Expirations: j.expirations.Load(),
	}
}

// Close stops the sweep loop. The journal remains readable afterwards.
func (j *Journal) Close() {
	j.stopOnce.Do(func() {
		close(j.stop)
	})
}

// expireLocked removes entries older than the TTL. Callers hold j.mu.
func (j *Journal) expireLocked(now time.Time) {
	if j.ttl <= 0 {
		return
	}
	var expired []string
	for _, key := range j.ring.Keys() {
		e, ok := j.ring.Peek(key)
		if !ok {
			continue
		}
		if now.Sub(e.RecordedAt) > j.ttl {
			expired = append(expired, key)
		}
	}
	if len(expired) == 0 {
		return
	}
	j.expiring = true
	for _, key := range expired {
		j.ring.Remove(key)
	}
	j.expiring = false
}

// sweep runs periodic expiry so idle journals do not hold dead entries
// until the next read.
func (j *Journal) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			j.mu.Lock()
			j.expireLocked(time.Now())
			j.mu.Unlock()
		case <-j.stop:
			return
		}
	}
}
