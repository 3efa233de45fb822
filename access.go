package stockroom

import (
	"sync"

	"github.com/TheBitDrifter/table"
)

// AccessMode is how a call site intends to touch a component column:
// Shared for reads, Exclusive for writes.
type AccessMode uint8

const (
	Shared AccessMode = iota
	Exclusive
)

func (m AccessMode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// AccessRequest names one component and the mode it will be accessed in.
// Build requests with AccessibleComponent.Read and AccessibleComponent.Write.
type AccessRequest struct {
	Component Component
	Mode      AccessMode
}

// accessKey identifies one physically shared resource: the column of one
// component within one archetype table. Views obtained through an entity
// handle, a cursor batch, or an observer notification all collapse to the
// same key when they reach the same memory.
type accessKey struct {
	tbl  table.Table
	comp Component
}

// accessRecord is the live state for one key. It exists only while at least
// one hold is open; the registry is empty at rest.
type accessRecord struct {
	mode    AccessMode
	holders int
}

// compatible is the entire conflict rule: any number of shared holders may
// coexist, an exclusive holder must be alone. A record with zero holders
// behaves like no record at all.
func compatible(existing *accessRecord, requested AccessMode) bool {
	if existing == nil || existing.holders == 0 {
		return true
	}
	return existing.mode == Shared && requested == Shared
}

// accessTracker is the per-storage registry of open holds. register and
// release are safe to call from nested scopes on one goroutine and from
// multiple goroutines iterating disjoint tables.
type accessTracker struct {
	mu      sync.Mutex
	records map[accessKey]*accessRecord
}

func newAccessTracker() *accessTracker {
	return &accessTracker{records: make(map[accessKey]*accessRecord)}
}

// register opens a hold on key in the given mode, or returns an
// AccessConflictError without changing the registry. It never waits: the
// first registrant for a key fixes its mode and a later incompatible
// registrant is the one that fails.
func (t *accessTracker) register(key accessKey, mode AccessMode) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	record := t.records[key]
	if !compatible(record, mode) {
		return AccessConflictError{
			Component: key.comp,
			Requested: mode,
			Held:      record.mode,
			Holders:   record.holders,
		}
	}
	if record == nil || record.holders == 0 {
		t.records[key] = &accessRecord{mode: mode, holders: 1}
	} else {
		record.holders++
	}
	if Config.traceAccess {
		logger.Debug("access acquired",
			"component", componentName(key.comp), "mode", mode)
	}
	return nil
}

// release closes one hold. The record is removed once its last holder
// releases, so a later unrelated access to the same key starts clean.
func (t *accessTracker) release(key accessKey) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record := t.records[key]
	if record == nil {
		return
	}
	record.holders--
	if record.holders <= 0 {
		delete(t.records, key)
	}
	if Config.traceAccess {
		logger.Debug("access released",
			"component", componentName(key.comp), "mode", record.mode)
	}
}

// liveRecords reports how many keys currently have open holds.
func (t *accessTracker) liveRecords() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// guard is the set of holds one call site has open. Its lifetime is bound to
// that call site's scope: releaseAll runs via defer so holds are returned on
// normal return and on panic alike.
type guard struct {
	tracker *accessTracker
	keys    []accessKey
}

// acquire opens a hold for every request against tbl, all-or-nothing. On
// conflict, holds this guard already took are rolled back in reverse order
// and the conflict escapes as a panic; the caller never sees a half-acquired
// state.
func acquire(tracker *accessTracker, tbl table.Table, requests []AccessRequest) *guard {
	g := &guard{tracker: tracker, keys: make([]accessKey, 0, len(requests))}
	for _, req := range requests {
		key := accessKey{tbl: tbl, comp: req.Component}
		if err := tracker.register(key, req.Mode); err != nil {
			g.releaseAll()
			raiseConflict(err)
		}
		g.keys = append(g.keys, key)
	}
	return g
}

func (g *guard) releaseAll() {
	for i := len(g.keys) - 1; i >= 0; i-- {
		g.tracker.release(g.keys[i])
	}
	g.keys = g.keys[:0]
}

// withTableAccess funnels every call-site family through one entry point:
// holds first, body only once all holds are open, release on every exit path.
func withTableAccess(tracker *accessTracker, tbl table.Table, requests []AccessRequest, body func()) {
	g := acquire(tracker, tbl, requests)
	defer g.releaseAll()
	body()
}

// raiseConflict reports the violation and unwinds. Conflicts are defects in
// the calling code, not runtime conditions, so they surface as panics.
func raiseConflict(err error) {
	if conflict, ok := err.(AccessConflictError); ok {
		logger.Error("access conflict",
			"component", componentName(conflict.Component),
			"requested", conflict.Requested,
			"held", conflict.Held,
			"holders", conflict.Holders,
		)
	}
	panic(err)
}
