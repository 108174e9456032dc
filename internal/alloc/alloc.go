// Package alloc implements allocation points (C5, the AP half): the
// reserve/commit fast path mutators use to get fresh object
// storage, plus the bounded retry/backoff policy that applies when a
// reservation races a concurrent relocation.
package alloc

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/movingc/igc/internal/arena"
	"github.com/movingc/igc/internal/format"
)

// ErrExhausted is returned when the backoff schedule gives up without the
// nursery ever having room; the caller (the root igc package) is expected
// to translate this into a hard allocation failure.
var ErrExhausted = errors.New("alloc: allocation point exhausted its retry budget")

// Policy bounds the backoff schedule an AP uses while waiting for space to
// free up (typically because a concurrent collection cycle is in
// progress). Zero-value Policy falls back to sane defaults.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

func (p Policy) backoff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = p.MaxElapsedTime
	if eb.MaxElapsedTime == 0 {
		eb.MaxElapsedTime = 2 * time.Second
	}
	return eb
}

// Reservation is a pending, uncommitted allocation: an address, the size
// reserved, and the space it was reserved against (captured by pointer,
// not looked up again later, since a Flip makes the generation's other,
// pre-existing *Space active, and that space's epoch counter is unaffected
// by the flip — comparing against whatever Active(0) returns at Commit
// time would let a stale reservation slip through right after a flip).
type Reservation struct {
	Addr  format.Addr
	Size  uint64
	space *arena.Space
	epoch uint64
}

// Space returns the exact Space this reservation was made against, so a
// caller writes its object's bytes into the same space Commit will later
// validate against, rather than re-reading the pool's Active(0), which
// may already point at a different space if a relocation raced Reserve.
func (r Reservation) Space() *arena.Space {
	return r.space
}

// AP is one allocation point, always targeting the nursery (generation 0)
// of a single pool: new objects are born young.
type AP struct {
	pool   *arena.Pool
	policy Policy
}

// NewCons returns an AP allocating cons cells in the nursery of pool.
func NewCons(pool *arena.Pool, policy Policy) *AP {
	return &AP{pool: pool, policy: policy}
}

// Reserve reserves size bytes from the nursery, retrying with backoff
// while the nursery is full (the caller's lifecycle controller is
// expected to be racing a collection cycle to free space).
func (a *AP) Reserve(size uint64) (Reservation, error) {
	space := a.pool.Active(0)

	var res Reservation
	op := func() error {
		space = a.pool.Active(0) // re-read: a relocation may have flipped it
		addr, ok := space.TryReserve(size)
		if !ok {
			return errRetryReserve
		}
		res = Reservation{Addr: addr, Size: size, space: space, epoch: space.Epoch()}
		return nil
	}

	if err := backoff.Retry(op, a.policy.backoff()); err != nil {
		return Reservation{}, ErrExhausted
	}
	return res, nil
}

var errRetryReserve = errors.New("alloc: nursery full, retrying")

// ErrStaleReservation is returned by Commit when a relocation cycle
// flipped the target generation's semispaces between Reserve and Commit;
// the caller must Reserve again.
var ErrStaleReservation = errors.New("alloc: reservation invalidated by a concurrent relocation")

// Commit finalizes a reservation, making it visible to the scanner.
// Commit fails with ErrStaleReservation if the nursery relocated between
// Reserve and Commit, since the bytes the caller wrote may now live in the
// wrong semispace (the epoch counter is the signal named in the data
// model's forwarding-marker invariants). The check compares the epoch of
// the exact *Space the reservation was made against, not whatever
// Active(0) currently returns: Flip swaps in the other *Space object,
// whose epoch the flip leaves unchanged, so re-reading Active(0) here
// would let a reservation made just before a flip read as fresh.
func (a *AP) Commit(res Reservation) error {
	if res.space.Epoch() != res.epoch {
		return ErrStaleReservation
	}
	res.space.Commit(res.Addr, res.Size)
	return nil
}
