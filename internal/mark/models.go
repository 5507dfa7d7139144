// Package mark holds the domain model for the trust-mark graph: directed,
// typed, boolean ratings between participants, their append-only changelog,
// and the result shapes of the reputation queries computed over them.
//
// Graph schema (mirrored by every store implementation):
//
//	(from:Participant)-[:GAVE]->(m:Mark)-[:ABOUT]->(to:Participant)
//	(m)-[:OF_TYPE]->(t:MarkType {name, onchain})
//	(from)-[:MADE_CHANGELOG]->(c:Changelog)-[:APPLIES_TO]->(to)
//	(c)-[:OF_TYPE]->(t)
//
// The onchain and offchain namespaces are disjoint subgraphs that share only
// Participant nodes. At most one Mark exists per (from, to, type, namespace)
// triple; that uniqueness is enforced by the upsert protocol, not by a store
// constraint.
package mark

import (
	"time"

	"spectra/pkg/marktypes"
)

// Mark is a directed boolean rating from one participant to another.
type Mark struct {
	ID                string
	FromParticipantID string
	ToParticipantID   string
	Type              marktypes.Type
	Value             bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Request carries everything needed to upsert a mark. The namespace is not
// part of the request; it is fixed per service instance.
type Request struct {
	FromParticipantID string
	ToParticipantID   string
	Type              marktypes.Type
	Value             bool
}

// UpsertResult reports what the upsert transaction did.
type UpsertResult struct {
	Created bool
	Mark    Mark
}

// ChangelogEntry is one immutable record of an upsert attempt.
type ChangelogEntry struct {
	ID            string
	ParticipantID string
	Value         bool
	CreatedAt     time.Time
}

// MutualMarks holds the two directed ratings between a pair of participants.
// A nil pointer means "no rating exists", never "neutral".
type MutualMarks struct {
	FromTo *bool
	ToFrom *bool
}

// CommonParticipant is a third participant connected by at least one mark to
// each endpoint of a queried pair, with all four possible directed ratings.
type CommonParticipant struct {
	IntermediateID     string
	IntermediateToFrom *bool
	FromToIntermediate *bool
	IntermediateToTo   *bool
	ToToIntermediate   *bool
}

// ReputationContext is the composition of the mutual-marks and
// common-participants queries.
type ReputationContext struct {
	MutualMarks        MutualMarks
	CommonParticipants []CommonParticipant
}

// ReputationCount partitions the common participants by their rating of the
// "to" endpoint. Participants with no rating of "to" count toward neither
// bucket but do count toward CommonCount.
type ReputationCount struct {
	Positive    int
	Negative    int
	CommonCount int
}

// Bool returns a pointer to v. Convenience for building query results.
func Bool(v bool) *bool {
	return &v
}
