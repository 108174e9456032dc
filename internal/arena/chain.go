// Package arena implements the pool/arena/generation chain: the
// virtual-memory-backed storage each generation and pool draws from, and
// the collection-cycle mechanics (mark, relocate, promote) that run over
// it. Allocation points live in internal/alloc; the state machine that
// drives a cycle lives in internal/lifecycle.
package arena

// Generation describes one step of the generation chain: a capacity and a
// mortality threshold used by the promotion rule (see promote.go).
type Generation struct {
	// Name is a short diagnostic label ("nursery", "old").
	Name string
	// CapacityBytes bounds how much live data this generation may hold
	// before its pools are considered full.
	CapacityBytes uint64
	// Mortality is the survival-fraction threshold at or above which a
	// generation's survivors are promoted to the next generation instead
	// of being re-collected in place. 0 <= Mortality <= 1.
	Mortality float64
}

// Chain is an ordered sequence of generations, youngest first.
type Chain struct {
	Generations []Generation
}

// DefaultChain returns the two-generation default configuration named in
// the data model: a 32000 KB nursery at 0.8 mortality and a 160045 KB old
// generation at 0.4 mortality.
func DefaultChain() Chain {
	const kb = 1024
	return Chain{
		Generations: []Generation{
			{Name: "nursery", CapacityBytes: 32000 * kb, Mortality: 0.8},
			{Name: "old", CapacityBytes: 160045 * kb, Mortality: 0.4},
		},
	}
}

// Last reports whether i is the index of the final (oldest) generation in
// the chain, i.e. there is no further generation to promote into.
func (c Chain) Last(i int) bool {
	return i == len(c.Generations)-1
}
