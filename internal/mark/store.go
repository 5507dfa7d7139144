package mark

import (
	"context"

	"spectra/pkg/marktypes"
)

// Store is the transactional graph store behind the mark repository and the
// reputation queries. Implementations must run Upsert as a single transaction:
// participant materialization, existence lookup, changelog append, and
// create/update either all commit or all roll back. The read methods never
// open write transactions and report "no data" as nil pointers or empty
// slices, not errors.
//
// The onchain flag selects the namespace; implementations never match marks
// across namespaces.
type Store interface {
	// Upsert creates or updates the mark for (from, to, type) in the given
	// namespace and appends one changelog entry in the same transaction.
	Upsert(ctx context.Context, onchain bool, req Request) (UpsertResult, error)

	// MutualMarks looks up the two directed marks between from and to
	// independently; either, both, or neither may exist.
	MutualMarks(ctx context.Context, onchain bool, from, to string, t marktypes.Type) (MutualMarks, error)

	// CommonParticipants returns every third participant holding at least one
	// mark (either direction) with from AND at least one with to, under the
	// given type and namespace.
	CommonParticipants(ctx context.Context, onchain bool, from, to string, t marktypes.Type) ([]CommonParticipant, error)

	// Changelog returns the entries authored by from and applying to to,
	// ascending by creation time.
	Changelog(ctx context.Context, onchain bool, from, to string, t marktypes.Type) ([]ChangelogEntry, error)
}
