package booking

import (
	"sort"
	"sync"
	"time"

	"github.com/channasilva/crms-server/internal/interval"
)

// ConflictIndex holds the active (pending or approved) occurrences per
// resource and answers overlap queries against them. Entries are kept
// ordered by interval start with a running max-end watermark so queries cost
// O(log n + k) rather than a full scan.
//
// Locking is striped per resource: operations on different resources never
// contend, and a multi-occurrence commit holds its resource's write lock for
// the whole check-and-insert, making the commit atomic to concurrent
// readers.
type ConflictIndex struct {
	mu        sync.RWMutex
	resources map[string]*resourceIndex
}

type resourceIndex struct {
	mu      sync.RWMutex
	entries []Occurrence
	// maxEnd[i] is the maximum interval end over entries[0..i]. An entry at
	// position j can only overlap a query interval if maxEnd[j] is after the
	// query start, which bounds the backward walk below.
	maxEnd []time.Time
}

// NewConflictIndex returns an empty index.
func NewConflictIndex() *ConflictIndex {
	return &ConflictIndex{resources: make(map[string]*resourceIndex)}
}

// Load seeds the index from previously persisted occurrences, skipping any
// that are no longer active. Called once at startup before the index serves
// traffic.
func (x *ConflictIndex) Load(occurrences []Occurrence) error {
	for _, occ := range occurrences {
		if !occ.Status.IsActive() {
			continue
		}
		if err := x.Insert(occ); err != nil {
			return err
		}
	}
	return nil
}

// Query returns the active occurrences on the resource overlapping iv, in
// ascending start order.
func (x *ConflictIndex) Query(resourceID string, iv interval.Interval) []Occurrence {
	r := x.lookup(resourceID)
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overlapping(iv, func(Occurrence) bool { return true })
}

// QueryApproved returns the approved occurrences on the resource overlapping
// iv, excluding occurrences of the given group. Pending soft holds are
// ignored: they never block a submission or an approval.
func (x *ConflictIndex) QueryApproved(resourceID string, iv interval.Interval, excludeGroupID string) []Occurrence {
	r := x.lookup(resourceID)
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overlapping(iv, func(occ Occurrence) bool {
		return occ.Status == StatusApproved && occ.GroupID != excludeGroupID
	})
}

// Insert adds a single occurrence to the active set.
func (x *ConflictIndex) Insert(occ Occurrence) error {
	r := x.ensure(occ.ResourceID)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(occ)
}

// CommitGroup atomically inserts every occurrence of a group, provided none
// of them overlaps an approved occurrence from another group. On conflict
// nothing is inserted and a ConflictError wrapping ErrResourceUnavailable
// names the first blocking occurrence. All occurrences of a group target the
// same resource, so a single resource lock covers the transaction.
func (x *ConflictIndex) CommitGroup(occurrences []Occurrence) error {
	if len(occurrences) == 0 {
		return nil
	}
	r := x.ensure(occurrences[0].ResourceID)
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, occ := range occurrences {
		conflicts := r.overlapping(occ.Interval, func(existing Occurrence) bool {
			return existing.Status == StatusApproved && existing.GroupID != occ.GroupID
		})
		if len(conflicts) > 0 {
			return newConflictError(ErrResourceUnavailable, conflicts[0])
		}
		if r.findLocked(occ.ID) >= 0 {
			return ErrDuplicateOccurrence
		}
	}
	for _, occ := range occurrences {
		if err := r.insertLocked(occ); err != nil {
			return err
		}
	}
	return nil
}

// Transition applies a lifecycle transition to an occurrence in the active
// set and returns the updated occurrence. Approvals re-check for overlap
// against approved occurrences of other groups at the moment of approval;
// competing pending holds for the same slot lose with ErrAlreadyBooked when
// approved second. Rejected and cancelled occurrences leave the active set.
func (x *ConflictIndex) Transition(resourceID, occurrenceID string, to Status) (Occurrence, error) {
	r := x.lookup(resourceID)
	if r == nil {
		return Occurrence{}, ErrOccurrenceNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	pos := r.findLocked(occurrenceID)
	if pos < 0 {
		return Occurrence{}, ErrOccurrenceNotFound
	}
	occ := r.entries[pos]
	if !occ.Status.CanTransitionTo(to) {
		return Occurrence{}, ErrInvalidTransition
	}

	if to == StatusApproved {
		conflicts := r.overlapping(occ.Interval, func(existing Occurrence) bool {
			return existing.Status == StatusApproved && existing.GroupID != occ.GroupID
		})
		if len(conflicts) > 0 {
			return Occurrence{}, newConflictError(ErrAlreadyBooked, conflicts[0])
		}
	}

	occ.Status = to
	if to.IsActive() {
		r.entries[pos] = occ
	} else {
		r.removeAtLocked(pos)
	}
	return occ, nil
}

// Remove deletes an occurrence from the active set. Absent ids are a no-op,
// not an error: rejection and cancellation may race with expiry sweeps.
func (x *ConflictIndex) Remove(resourceID, occurrenceID string) {
	r := x.lookup(resourceID)
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if pos := r.findLocked(occurrenceID); pos >= 0 {
		r.removeAtLocked(pos)
	}
}

// ActiveCount reports the size of the resource's active set.
func (x *ConflictIndex) ActiveCount(resourceID string) int {
	r := x.lookup(resourceID)
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (x *ConflictIndex) lookup(resourceID string) *resourceIndex {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.resources[resourceID]
}

func (x *ConflictIndex) ensure(resourceID string) *resourceIndex {
	x.mu.Lock()
	defer x.mu.Unlock()
	r, ok := x.resources[resourceID]
	if !ok {
		r = &resourceIndex{}
		x.resources[resourceID] = r
	}
	return r
}

// overlapping collects entries overlapping iv that match the filter, in
// ascending start order. Callers hold at least a read lock.
func (r *resourceIndex) overlapping(iv interval.Interval, match func(Occurrence) bool) []Occurrence {
	// First entry whose start is at or past the query end cannot overlap,
	// nor can anything after it.
	hi := sort.Search(len(r.entries), func(i int) bool {
		return !r.entries[i].Interval.Start.Before(iv.End)
	})

	var found []Occurrence
	for j := hi - 1; j >= 0 && r.maxEnd[j].After(iv.Start); j-- {
		occ := r.entries[j]
		if interval.Overlaps(occ.Interval, iv) && match(occ) {
			found = append(found, occ)
		}
	}
	// Reverse the backward walk into start order.
	for i, j := 0, len(found)-1; i < j; i, j = i+1, j-1 {
		found[i], found[j] = found[j], found[i]
	}
	return found
}

func (r *resourceIndex) insertLocked(occ Occurrence) error {
	if r.findLocked(occ.ID) >= 0 {
		return ErrDuplicateOccurrence
	}
	pos := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].Interval.Start.After(occ.Interval.Start)
	})
	r.entries = append(r.entries, Occurrence{})
	copy(r.entries[pos+1:], r.entries[pos:])
	r.entries[pos] = occ
	r.maxEnd = append(r.maxEnd, time.Time{})
	r.rebuildMaxEndLocked(pos)
	return nil
}

func (r *resourceIndex) removeAtLocked(pos int) {
	r.entries = append(r.entries[:pos], r.entries[pos+1:]...)
	r.maxEnd = r.maxEnd[:len(r.entries)]
	r.rebuildMaxEndLocked(pos)
}

func (r *resourceIndex) rebuildMaxEndLocked(from int) {
	for i := from; i < len(r.entries); i++ {
		end := r.entries[i].Interval.End
		if i > 0 && r.maxEnd[i-1].After(end) {
			end = r.maxEnd[i-1]
		}
		r.maxEnd[i] = end
	}
}

func (r *resourceIndex) findLocked(occurrenceID string) int {
	for i, occ := range r.entries {
		if occ.ID == occurrenceID {
			return i
		}
	}
	return -1
}
