// Package assemble decides accept/reject for each candidate record: it
// tracks seen image identities for cross-artist dedup and enforces
// per-class quota ceilings, and purges under-floor classes after the run.
package assemble

// Decision is the outcome of offering a record to the assembler.
type Decision int

const (
	// Accepted means the record became durable: the image URL entered the
	// seen index and the class counter advanced.
	Accepted Decision = iota
	// DuplicateRejected means the image URL was already accepted.
	DuplicateRejected
	// QuotaRejected means the class counter sits at its ceiling.
	QuotaRejected
)

// Assembler owns the run-wide mutable state: the seen-image index and the
// per-class counters. It is passed by reference to every traversal step;
// the sequential crawl is its only writer.
type Assembler struct {
	minPerClass int
	maxPerClass int // 0 = unbounded

	seenImages map[string]bool
	counts     map[string]int
}

// New returns an assembler with the given quota floor and ceiling. A
// ceiling of 0 disables quota enforcement (collector mode).
func New(minPerClass, maxPerClass int) *Assembler {
	return &Assembler{
		minPerClass: minPerClass,
		maxPerClass: maxPerClass,
		seenImages:  make(map[string]bool),
		counts:      make(map[string]int),
	}
}

// Accept offers one record, identified by its canonical image URL and
// class slug. On Accepted the seen index and class counter are updated
// before returning, so the next quota decision sees this record.
func (a *Assembler) Accept(imageURL, classID string) Decision {
	if a.seenImages[imageURL] {
		return DuplicateRejected
	}
	if a.Full(classID) {
		return QuotaRejected
	}

	a.seenImages[imageURL] = true
	a.counts[classID]++
	return Accepted
}

// Full reports whether a class reached its ceiling. The traversal uses
// this to stop pursuing an artist's remaining work pages early.
func (a *Assembler) Full(classID string) bool {
	return a.maxPerClass > 0 && a.counts[classID] >= a.maxPerClass
}

// Count returns the accepted count for one class.
func (a *Assembler) Count(classID string) int { return a.counts[classID] }

// Counts returns a copy of the per-class accepted counts.
func (a *Assembler) Counts() map[string]int {
	out := make(map[string]int, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}

// UnderFloor returns the classes whose final count missed the configured
// minimum; they are purged from the emitted dataset. The floor is
// evaluated over durable manifest row counts, not the accept-time
// counters: a record can be accepted and still fail to persist, and only
// persisted rows satisfy the floor.
func (a *Assembler) UnderFloor(rowCounts map[string]int) []string {
	if a.minPerClass <= 1 {
		return nil
	}
	var out []string
	for class, n := range rowCounts {
		if n < a.minPerClass {
			out = append(out, class)
		}
	}
	return out
}
