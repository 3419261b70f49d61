package memstore

import (
	"sync"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

type faults struct {
	mu    sync.Mutex
	rules map[string]*rule
}

type rule struct {
	calls int
	nth   int
	err   error
}

// FailOn makes the nth call (1-based) of op return err wrapped as a storage error.
// Counting starts when FailOn is called.
func (s *Store) FailOn(op string, nth int, err error) {
	s.faults.mu.Lock()
	defer s.faults.mu.Unlock()
	s.faults.rules[op] = &rule{nth: nth, err: err}
}

func (f *faults) hit(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rules[op]
	if !ok {
		return nil
	}
	r.calls++
	if r.calls != r.nth {
		return nil
	}
	delete(f.rules, op)
	return restaurant.StorageError(op, r.err)
}
