package relation

import "sort"

// Clock hands out the strictly increasing write timestamps that define the
// engine's global commit serialisation order. A single Clock is
// shared by every Relation in a WorldState.
type Clock interface {
	Next() int64
}

// Participant pairs a Txn with the Relation it was begun from, and the
// Resolver that should arbitrate any conflict found in it. A WorldState
// transaction typically touches several relations; Coordinator commits them
// all as one atomic unit.
type Participant struct {
	Relation *Relation
	Txn      *Txn
	Resolver Resolver
}

// Coordinator performs the two-phase (check, then apply) commit protocol
// across every relation a transaction wrote to. Relations are locked in a
// fixed order (by name) regardless of the order participants are supplied
// in, so concurrent commits touching overlapping relation sets cannot
// deadlock.
type Coordinator struct {
	participants []Participant
}

// NewCoordinator builds a Coordinator over the given participants.
func NewCoordinator(participants ...Participant) *Coordinator {
	return &Coordinator{participants: participants}
}

// Commit runs the check phase for every participant against its relation's
// current canonical Index; if every op in every participant resolves
// cleanly, it assigns one new timestamp from clock and applies all of them.
// A transaction touching no relations, or whose participants are all empty,
// is a no-op: Commit returns (false, nil) without consuming a timestamp.
// On conflict, Commit returns (false, the *Conflict) and nothing is
// mutated.
func (c *Coordinator) Commit(clock Clock) (committed bool, err error) {
	active := make([]Participant, 0, len(c.participants))
	for _, p := range c.participants {
		if !p.Txn.Empty() {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return false, nil
	}

	ordered := append([]Participant(nil), active...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Relation.name < ordered[j].Relation.name })

	for _, p := range ordered {
		p.Relation.lock()
	}
	defer func() {
		for _, p := range ordered {
			p.Relation.unlock()
		}
	}()

	resolvedByRelation := make([][]*resolvedOp, len(ordered))
	for i, p := range ordered {
		resolver := p.Resolver
		if resolver == nil {
			resolver = FailOnConflict{}
		}
		resolved, cerr := p.Relation.check(p.Txn, resolver)
		if cerr != nil {
			return false, cerr
		}
		resolvedByRelation[i] = resolved
	}

	ts := clock.Next()
	for i, p := range ordered {
		if err := p.Relation.apply(resolvedByRelation[i], ts); err != nil {
			return false, err
		}
	}
	return true, nil
}
