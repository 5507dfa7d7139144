// Package cypher implements the mark store against neo4j. The upsert protocol
// runs inside one explicit transaction; the reputation queries run as managed
// read transactions over the same schema.
package cypher

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"spectra/internal/mark"
	"spectra/internal/platform/graph"
	"spectra/pkg/marktypes"
)

const (
	mergeParticipantsQuery = `
		MERGE (:Participant {participantId: $fromParticipantId})
		MERGE (:Participant {participantId: $toParticipantId})`

	findMarkQuery = `
		MATCH (from:Participant {participantId: $fromParticipantId})-[:GAVE]->(mark:Mark)-[:ABOUT]->(to:Participant {participantId: $toParticipantId}),
		      (mark)-[:OF_TYPE]->(:MarkType {name: $markType, onchain: $onchain})
		RETURN mark`

	createChangelogQuery = `
		MATCH (from:Participant {participantId: $fromParticipantId}), (to:Participant {participantId: $toParticipantId})
		MERGE (type:MarkType {name: $markType, onchain: $onchain})
		CREATE (change:Changelog {
			id: randomUUID(),
			value: $value,
			createdAt: datetime()
		})
		CREATE (from)-[:MADE_CHANGELOG]->(change)-[:APPLIES_TO]->(to)
		CREATE (change)-[:OF_TYPE]->(type)`

	createMarkQuery = `
		MATCH (from:Participant {participantId: $fromParticipantId}), (to:Participant {participantId: $toParticipantId})
		MERGE (type:MarkType {name: $markType, onchain: $onchain})
		CREATE (mark:Mark {
			id: randomUUID(),
			value: $value,
			createdAt: datetime(),
			updatedAt: datetime()
		})
		CREATE (from)-[:GAVE]->(mark)-[:ABOUT]->(to)
		CREATE (mark)-[:OF_TYPE]->(type)
		RETURN mark`

	updateMarkQuery = `
		MATCH (from:Participant {participantId: $fromParticipantId})-[:GAVE]->(mark:Mark)-[:ABOUT]->(to:Participant {participantId: $toParticipantId}),
		      (mark)-[:OF_TYPE]->(:MarkType {name: $markType, onchain: $onchain})
		SET mark.value = $value,
		    mark.updatedAt = datetime()
		RETURN mark`

	mutualMarksQuery = `
		OPTIONAL MATCH (:Participant {participantId: $fromParticipantId})-[:GAVE]->(markA:Mark)-[:ABOUT]->(:Participant {participantId: $toParticipantId}),
		               (markA)-[:OF_TYPE]->(:MarkType {name: $markType, onchain: $onchain})
		OPTIONAL MATCH (:Participant {participantId: $toParticipantId})-[:GAVE]->(markB:Mark)-[:ABOUT]->(:Participant {participantId: $fromParticipantId}),
		               (markB)-[:OF_TYPE]->(:MarkType {name: $markType, onchain: $onchain})
		RETURN markA.value AS fromTo, markB.value AS toFrom`

	commonParticipantsQuery = `
		MATCH (type:MarkType {name: $markType, onchain: $onchain})
		MATCH (intermediate:Participant)
		WHERE intermediate.participantId <> $fromParticipantId AND intermediate.participantId <> $toParticipantId

		OPTIONAL MATCH (intermediate)-[:GAVE]->(m1:Mark)-[:ABOUT]->(:Participant {participantId: $fromParticipantId})
		WHERE (m1)-[:OF_TYPE]->(type)

		OPTIONAL MATCH (:Participant {participantId: $fromParticipantId})-[:GAVE]->(m2:Mark)-[:ABOUT]->(intermediate)
		WHERE (m2)-[:OF_TYPE]->(type)

		OPTIONAL MATCH (intermediate)-[:GAVE]->(m3:Mark)-[:ABOUT]->(:Participant {participantId: $toParticipantId})
		WHERE (m3)-[:OF_TYPE]->(type)

		OPTIONAL MATCH (:Participant {participantId: $toParticipantId})-[:GAVE]->(m4:Mark)-[:ABOUT]->(intermediate)
		WHERE (m4)-[:OF_TYPE]->(type)

		WITH intermediate,
		     m1.value AS intermediateToFrom,
		     m2.value AS fromToIntermediate,
		     m3.value AS intermediateToTo,
		     m4.value AS toToIntermediate

		WHERE (intermediateToFrom IS NOT NULL OR fromToIntermediate IS NOT NULL)
		  AND (intermediateToTo IS NOT NULL OR toToIntermediate IS NOT NULL)

		RETURN intermediate.participantId AS intermediateId,
		       intermediateToFrom, fromToIntermediate, intermediateToTo, toToIntermediate
		ORDER BY intermediateId`

	changelogQuery = `
		MATCH (from:Participant {participantId: $fromParticipantId})-[:MADE_CHANGELOG]->(change:Changelog)-[:APPLIES_TO]->(:Participant {participantId: $toParticipantId}),
		      (change)-[:OF_TYPE]->(:MarkType {name: $markType, onchain: $onchain})
		RETURN change.id AS id, change.value AS value, change.createdAt AS createdAt,
		       from.participantId AS participantId
		ORDER BY change.createdAt ASC`
)

// Store runs the upsert protocol and the reputation queries over the gateway.
type Store struct {
	graph *graph.Gateway
}

func New(gateway *graph.Gateway) *Store {
	return &Store{graph: gateway}
}

// Upsert executes the whole protocol in one explicit transaction: materialize
// participants, look up the existing mark, append the changelog entry, then
// create or update. Any failure rolls the transaction back in full, changelog
// entry included.
func (s *Store) Upsert(ctx context.Context, onchain bool, req mark.Request) (mark.UpsertResult, error) {
	session := s.graph.WriteSession(ctx)
	defer session.Close(ctx)

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		return mark.UpsertResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Close(ctx)

	params := map[string]any{
		"fromParticipantId": req.FromParticipantID,
		"toParticipantId":   req.ToParticipantID,
		"markType":          req.Type.String(),
		"onchain":           onchain,
		"value":             req.Value,
	}

	res, err := s.upsertInTx(ctx, tx, params)
	if err != nil {
		_ = tx.Rollback(ctx)
		return mark.UpsertResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return mark.UpsertResult{}, fmt.Errorf("commit upsert: %w", err)
	}
	return res, nil
}

func (s *Store) upsertInTx(ctx context.Context, tx neo4j.ExplicitTransaction, params map[string]any) (mark.UpsertResult, error) {
	if _, err := tx.Run(ctx, mergeParticipantsQuery, params); err != nil {
		return mark.UpsertResult{}, fmt.Errorf("merge participants: %w", err)
	}

	existing, err := tx.Run(ctx, findMarkQuery, params)
	if err != nil {
		return mark.UpsertResult{}, fmt.Errorf("find mark: %w", err)
	}
	records, err := existing.Collect(ctx)
	if err != nil {
		return mark.UpsertResult{}, fmt.Errorf("collect find result: %w", err)
	}
	found := len(records) > 0

	// The changelog entry is written before the mark regardless of branch; a
	// later failure rolls it back together with everything else.
	if _, err := tx.Run(ctx, createChangelogQuery, params); err != nil {
		return mark.UpsertResult{}, fmt.Errorf("append changelog: %w", err)
	}

	query := createMarkQuery
	if found {
		query = updateMarkQuery
	}
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return mark.UpsertResult{}, fmt.Errorf("write mark: %w", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return mark.UpsertResult{}, fmt.Errorf("read written mark: %w", err)
	}

	m, err := markFromRecord(record, params)
	if err != nil {
		return mark.UpsertResult{}, err
	}
	return mark.UpsertResult{Created: !found, Mark: m}, nil
}

func (s *Store) MutualMarks(ctx context.Context, onchain bool, from, to string, t marktypes.Type) (mark.MutualMarks, error) {
	session := s.graph.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) (mark.MutualMarks, error) {
		result, err := tx.Run(ctx, mutualMarksQuery, queryParams(onchain, from, to, t))
		if err != nil {
			return mark.MutualMarks{}, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return mark.MutualMarks{}, err
		}
		if len(records) == 0 {
			return mark.MutualMarks{}, nil
		}
		return mark.MutualMarks{
			FromTo: boolPtrFromRecord(records[0], "fromTo"),
			ToFrom: boolPtrFromRecord(records[0], "toFrom"),
		}, nil
	})
	if err != nil {
		return mark.MutualMarks{}, fmt.Errorf("mutual marks query: %w", err)
	}
	return out, nil
}

func (s *Store) CommonParticipants(ctx context.Context, onchain bool, from, to string, t marktypes.Type) ([]mark.CommonParticipant, error) {
	session := s.graph.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]mark.CommonParticipant, error) {
		result, err := tx.Run(ctx, commonParticipantsQuery, queryParams(onchain, from, to, t))
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		participants := make([]mark.CommonParticipant, 0, len(records))
		for _, record := range records {
			id, _ := record.Get("intermediateId")
			intermediateID, ok := id.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected intermediateId value %v", id)
			}
			participants = append(participants, mark.CommonParticipant{
				IntermediateID:     intermediateID,
				IntermediateToFrom: boolPtrFromRecord(record, "intermediateToFrom"),
				FromToIntermediate: boolPtrFromRecord(record, "fromToIntermediate"),
				IntermediateToTo:   boolPtrFromRecord(record, "intermediateToTo"),
				ToToIntermediate:   boolPtrFromRecord(record, "toToIntermediate"),
			})
		}
		return participants, nil
	})
	if err != nil {
		return nil, fmt.Errorf("common participants query: %w", err)
	}
	return out, nil
}

func (s *Store) Changelog(ctx context.Context, onchain bool, from, to string, t marktypes.Type) ([]mark.ChangelogEntry, error) {
	session := s.graph.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]mark.ChangelogEntry, error) {
		result, err := tx.Run(ctx, changelogQuery, queryParams(onchain, from, to, t))
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		entries := make([]mark.ChangelogEntry, 0, len(records))
		for _, record := range records {
			entry, err := changelogFromRecord(record)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
		return entries, nil
	})
	if err != nil {
		return nil, fmt.Errorf("changelog query: %w", err)
	}
	return out, nil
}

func queryParams(onchain bool, from, to string, t marktypes.Type) map[string]any {
	return map[string]any{
		"fromParticipantId": from,
		"toParticipantId":   to,
		"markType":          t.String(),
		"onchain":           onchain,
	}
}

func markFromRecord(record *neo4j.Record, params map[string]any) (mark.Mark, error) {
	raw, ok := record.Get("mark")
	if !ok {
		return mark.Mark{}, fmt.Errorf("mark node missing from record")
	}
	node, ok := raw.(dbtype.Node)
	if !ok {
		return mark.Mark{}, fmt.Errorf("unexpected mark record value %T", raw)
	}

	id, _ := node.Props["id"].(string)
	value, _ := node.Props["value"].(bool)
	m := mark.Mark{
		ID:                id,
		FromParticipantID: params["fromParticipantId"].(string),
		ToParticipantID:   params["toParticipantId"].(string),
		Type:              marktypes.Type(params["markType"].(string)),
		Value:             value,
		CreatedAt:         timeProp(node.Props["createdAt"]),
		UpdatedAt:         timeProp(node.Props["updatedAt"]),
	}
	return m, nil
}

func changelogFromRecord(record *neo4j.Record) (mark.ChangelogEntry, error) {
	id, _ := record.Get("id")
	idStr, ok := id.(string)
	if !ok {
		return mark.ChangelogEntry{}, fmt.Errorf("unexpected changelog id value %v", id)
	}
	value, _ := record.Get("value")
	valueBool, ok := value.(bool)
	if !ok {
		return mark.ChangelogEntry{}, fmt.Errorf("unexpected changelog value %v", value)
	}
	participant, _ := record.Get("participantId")
	participantStr, _ := participant.(string)
	createdAt, _ := record.Get("createdAt")

	return mark.ChangelogEntry{
		ID:            idStr,
		ParticipantID: participantStr,
		Value:         valueBool,
		CreatedAt:     timeProp(createdAt),
	}, nil
}

// boolPtrFromRecord maps a nullable boolean column to a pointer. Null stays
// nil: "no rating exists" is distinct from any rating value.
func boolPtrFromRecord(record *neo4j.Record, key string) *bool {
	raw, ok := record.Get(key)
	if !ok || raw == nil {
		return nil
	}
	if b, ok := raw.(bool); ok {
		return mark.Bool(b)
	}
	return nil
}

func timeProp(raw any) time.Time {
	switch v := raw.(type) {
	case time.Time:
		return v
	case dbtype.Time:
		return v.Time()
	default:
		return time.Time{}
	}
}
