// Package memory implements the mark store on in-process maps. It mirrors the
// graph semantics of the cypher store (disjoint namespaces, one mark per
// triple, append-only changelog) and backs unit tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"spectra/internal/mark"
	"spectra/pkg/marktypes"
)

type edgeKey struct {
	onchain  bool
	from     string
	to       string
	markType marktypes.Type
}

// Store keeps marks and changelog entries keyed by namespace-qualified edges.
// All methods are safe for concurrent use; each Upsert holds the lock for its
// whole read-modify-write, which stands in for the graph transaction.
type Store struct {
	mu         sync.RWMutex
	marks      map[edgeKey]*mark.Mark
	changelogs map[edgeKey][]mark.ChangelogEntry

	// failNext forces the next Upsert to fail after the changelog append,
	// before the mark write. Tests use it to exercise rollback atomicity.
	failNext error
}

func New() *Store {
	return &Store{
		marks:      make(map[edgeKey]*mark.Mark),
		changelogs: make(map[edgeKey][]mark.ChangelogEntry),
	}
}

// FailNextUpsert makes the next Upsert roll back with err after the point
// where the changelog entry would have been written.
func (s *Store) FailNextUpsert(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Store) Upsert(_ context.Context, onchain bool, req mark.Request) (mark.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey{onchain: onchain, from: req.FromParticipantID, to: req.ToParticipantID, markType: req.Type}
	now := time.Now().UTC()

	entry := mark.ChangelogEntry{
		ID:            uuid.NewString(),
		ParticipantID: req.FromParticipantID,
		Value:         req.Value,
		CreatedAt:     now,
	}

	if err := s.failNext; err != nil {
		// The transaction rolls back as a whole, so the entry above is
		// discarded along with the mark write that never happened.
		s.failNext = nil
		return mark.UpsertResult{}, err
	}

	s.changelogs[key] = append(s.changelogs[key], entry)

	if existing, ok := s.marks[key]; ok {
		existing.Value = req.Value
		existing.UpdatedAt = now
		return mark.UpsertResult{Created: false, Mark: *existing}, nil
	}

	m := &mark.Mark{
		ID:                uuid.NewString(),
		FromParticipantID: req.FromParticipantID,
		ToParticipantID:   req.ToParticipantID,
		Type:              req.Type,
		Value:             req.Value,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.marks[key] = m
	return mark.UpsertResult{Created: true, Mark: *m}, nil
}

func (s *Store) MutualMarks(_ context.Context, onchain bool, from, to string, t marktypes.Type) (mark.MutualMarks, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out mark.MutualMarks
	if m, ok := s.marks[edgeKey{onchain, from, to, t}]; ok {
		out.FromTo = mark.Bool(m.Value)
	}
	if m, ok := s.marks[edgeKey{onchain, to, from, t}]; ok {
		out.ToFrom = mark.Bool(m.Value)
	}
	return out, nil
}

func (s *Store) CommonParticipants(_ context.Context, onchain bool, from, to string, t marktypes.Type) ([]mark.CommonParticipant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make(map[string]*mark.CommonParticipant)
	lookup := func(f, target string) *bool {
		if m, ok := s.marks[edgeKey{onchain, f, target, t}]; ok {
			return mark.Bool(m.Value)
		}
		return nil
	}

	for key := range s.marks {
		if key.onchain != onchain || key.markType != t {
			continue
		}
		for _, id := range []string{key.from, key.to} {
			if id == from || id == to {
				continue
			}
			if _, seen := candidates[id]; seen {
				continue
			}
			candidates[id] = &mark.CommonParticipant{
				IntermediateID:     id,
				IntermediateToFrom: lookup(id, from),
				FromToIntermediate: lookup(from, id),
				IntermediateToTo:   lookup(id, to),
				ToToIntermediate:   lookup(to, id),
			}
		}
	}

	var out []mark.CommonParticipant
	for _, c := range candidates {
		connectedFrom := c.IntermediateToFrom != nil || c.FromToIntermediate != nil
		connectedTo := c.IntermediateToTo != nil || c.ToToIntermediate != nil
		if connectedFrom && connectedTo {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IntermediateID < out[j].IntermediateID })
	return out, nil
}

func (s *Store) Changelog(_ context.Context, onchain bool, from, to string, t marktypes.Type) ([]mark.ChangelogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.changelogs[edgeKey{onchain, from, to, t}]
	out := append([]mark.ChangelogEntry{}, entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
