// Package status owns the server-confirmed voting status for one proposal:
// the fetch-and-cache store every other surface reads from, and the cooldown
// gate that schedules the post-action re-check.
package status

import (
	"context"
	"sync"
)

// Delegate identifies the member a vote was delegated to.
type Delegate struct {
	ID   string
	Name string
}

// Snapshot is one server-confirmed view of the user's status. Known is false
// when the last refresh failed: "could not be determined" rather than
// "confirmed: has not acted". Consumers must fail closed on Known=false.
type Snapshot struct {
	Known          bool
	HasVoted       bool
	VotedOption    int
	HasDelegated   bool
	Delegate       Delegate
	CanAct         bool
	CooldownActive bool
}

// Fetcher retrieves the current status from the server.
type Fetcher interface {
	FetchStatus(ctx context.Context, proposalID string) (Snapshot, error)
}

// Store is the single source of truth for one proposal's voting status.
// Refresh results are applied in request-initiation order: a response whose
// request is older than the most recently initiated one is discarded.
type Store struct {
	proposalID string
	fetcher    Fetcher

	mu      sync.Mutex
	seq     uint64
	closed  bool
	snap    Snapshot
	subs    map[int]func(Snapshot)
	subIDs  []int
	nextSub int

	// notifyMu serializes apply+notify so subscribers observe replacements
	// in the same order the store applied them.
	notifyMu sync.Mutex
}

func NewStore(proposalID string, fetcher Fetcher) *Store {
	return &Store{
		proposalID: proposalID,
		fetcher:    fetcher,
		subs:       make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the latest applied snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers fn to be called synchronously on every snapshot
// replacement. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subIDs = append(s.subIDs, id)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
		for i, sid := range s.subIDs {
			if sid == id {
				s.subIDs = append(s.subIDs[:i], s.subIDs[i+1:]...)
				break
			}
		}
	}
}

// Refresh fetches the status and replaces the snapshot. A failed fetch
// replaces the snapshot with an unknown one; dependents are notified either
// way. If a newer refresh was initiated while this one was outstanding, this
// result is discarded.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	snap, err := s.fetcher.FetchStatus(ctx, s.proposalID)
	if err != nil {
		snap = Snapshot{}
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed || seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.snap = snap
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, id := range s.subIDs {
		if fn, ok := s.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Close tears the store down. Responses still in flight are ignored and no
// further notifications are delivered.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = make(map[int]func(Snapshot))
	s.subIDs = nil
}
