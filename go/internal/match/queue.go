package match

// waitingEntry is one unmatched participant. The surrogate flag is flipped
// once, at enqueue time, and travels with the entry into the session.
type waitingEntry struct {
	participantID string
	isSurrogate   bool
}

// matchQueue is the FIFO of unmatched participants. It is only ever touched
// from engine steps, so it carries no locking of its own.
type matchQueue struct {
	entries []waitingEntry
}

func (q *matchQueue) len() int {
	return len(q.entries)
}

func (q *matchQueue) contains(participantID string) bool {
	for _, e := range q.entries {
		if e.participantID == participantID {
			return true
		}
	}
	return false
}

func (q *matchQueue) push(entry waitingEntry) {
	q.entries = append(q.entries, entry)
}

// remove drops the entry for the given participant. It reports whether an
// entry was present, so callers can treat repeat removals as no-ops.
func (q *matchQueue) remove(participantID string) bool {
	for i, e := range q.entries {
		if e.participantID == participantID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// takePair pops the two earliest-inserted entries. Insertion order decides
// the pairing, never the entry that happened to tip the queue over two.
func (q *matchQueue) takePair() (waitingEntry, waitingEntry, bool) {
	if len(q.entries) < 2 {
		return waitingEntry{}, waitingEntry{}, false
	}
	first, second := q.entries[0], q.entries[1]
	q.entries = q.entries[2:]
	return first, second, true
}
