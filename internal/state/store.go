package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/park285/cheese-arena/internal/rules"
)

// Store holds the single shared snapshot. The orchestration loop is the only
// caller of Publish; readers load an immutable *GameView and never block on it.
type Store struct {
	view atomic.Pointer[GameView]

	writeMu sync.Mutex

	viewerMu sync.Mutex
	viewers  int

	subMu  sync.Mutex
	subs   map[int]chan Snapshot
	nextID int

	now func() time.Time
}

func NewStore() *Store {
	s := &Store{subs: make(map[int]chan Snapshot), now: time.Now}
	s.view.Store(&GameView{
		Phase:      PhaseStarting,
		ActiveSide: rules.White,
		Tally:      Tally{}.clone(),
	})
	return s
}

// Publish applies mutate to a private copy of the current view and swaps it in atomically.
func (s *Store) Publish(mutate func(v *GameView)) Snapshot {
	s.writeMu.Lock()
	next := s.view.Load().clone()
	if mutate != nil {
		mutate(next)
	}
	next.UpdatedAt = s.now()
	s.view.Store(next)
	s.writeMu.Unlock()

	s.broadcast()
	return s.compose(next)
}

// RecordWin increments the winner's tally inside the same publish as the final status.
func (s *Store) RecordWin(winner rules.Side, mutate func(v *GameView)) Snapshot {
	return s.Publish(func(v *GameView) {
		if winner.Valid() {
			v.Tally[winner]++
		}
		if mutate != nil {
			mutate(v)
		}
	})
}

// Snapshot returns a consistent point-in-time copy.
func (s *Store) Snapshot() Snapshot {
	return s.compose(s.view.Load())
}

func (s *Store) compose(v *GameView) Snapshot {
	s.viewerMu.Lock()
	n := s.viewers
	s.viewerMu.Unlock()
	cp := v.clone()
	return Snapshot{GameView: *cp, Viewers: n}
}

func (s *Store) Sequence() int64 { return s.view.Load().Sequence }

func (s *Store) Tally() Tally { return s.view.Load().Tally.clone() }

// AddViewer increments the viewer count and returns the new value.
func (s *Store) AddViewer() int {
	s.viewerMu.Lock()
	s.viewers++
	n := s.viewers
	s.viewerMu.Unlock()
	s.broadcast()
	return n
}

// RemoveViewer decrements the viewer count, never below zero.
func (s *Store) RemoveViewer() int {
	s.viewerMu.Lock()
	if s.viewers > 0 {
		s.viewers--
	}
	n := s.viewers
	s.viewerMu.Unlock()
	s.broadcast()
	return n
}

func (s *Store) Viewers() int {
	s.viewerMu.Lock()
	defer s.viewerMu.Unlock()
	return s.viewers
}

// Subscribe returns a channel that receives the latest snapshot after each change.
// A slow subscriber only ever sees the newest snapshot; publishers never wait.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// broadcast composes under subMu so subscribers observe snapshots in publish order.
func (s *Store) broadcast() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if len(s.subs) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// drop the stale one and retry once
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
