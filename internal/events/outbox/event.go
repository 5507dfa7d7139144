// Package outbox records mark-outcome events and relays them to the message
// broker. The emitter writes one outbox row per upsert attempt after the graph
// transaction has resolved; a relay worker publishes pending rows and marks
// them sent. Enqueue and publish failures never affect the upsert result.
package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"spectra/internal/mark"
	"spectra/pkg/marktypes"
)

// SchemaVersion of the outcome event envelope.
const SchemaVersion = "1.0.0"

// Millis is an epoch-milliseconds wrapper matching the wire envelope.
type Millis struct {
	Milliseconds int64 `json:"milliseconds"`
}

// Metadata is the event envelope shared by inbound and outbound messages.
type Metadata struct {
	EventID       string `json:"eventId"`
	SchemaVersion string `json:"schemaVersion"`
	EventTime     Millis `json:"eventTime"`
}

// OutcomeError is the structured failure payload of a failed upsert.
type OutcomeError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// OutcomeEvent is the "mark outcome" message produced after every upsert
// attempt. Exactly one of the per-namespace type codes is set.
type OutcomeEvent struct {
	FromParticipantID string        `json:"fromParticipantId"`
	ToParticipantID   string        `json:"toParticipantId"`
	Value             bool          `json:"value"`
	IsOnchain         bool          `json:"isOnchain"`
	OnchainMarkType   int32         `json:"onchainMarkType,omitempty"`
	OffchainMarkType  int32         `json:"offchainMarkType,omitempty"`
	Metadata          Metadata      `json:"metadata"`
	ID                string        `json:"id,omitempty"`
	CreatedAt         *Millis       `json:"createdAt,omitempty"`
	Error             *OutcomeError `json:"error,omitempty"`
}

// NewOutcomeEvent builds the outcome payload for a finished upsert attempt.
// On success res carries the persisted mark; on failure procErr carries the
// transactional error and res is nil.
func NewOutcomeEvent(onchain bool, req mark.Request, res *mark.UpsertResult, procErr error) (OutcomeEvent, error) {
	code, err := marktypes.Code(req.Type, onchain)
	if err != nil {
		return OutcomeEvent{}, fmt.Errorf("resolve mark type code: %w", err)
	}

	event := OutcomeEvent{
		FromParticipantID: req.FromParticipantID,
		ToParticipantID:   req.ToParticipantID,
		Value:             req.Value,
		IsOnchain:         onchain,
		Metadata: Metadata{
			EventID:       uuid.NewString(),
			SchemaVersion: SchemaVersion,
			EventTime:     Millis{Milliseconds: time.Now().UnixMilli()},
		},
	}
	if onchain {
		event.OnchainMarkType = code
	} else {
		event.OffchainMarkType = code
	}

	if procErr != nil {
		event.Error = &OutcomeError{
			Message: procErr.Error(),
			Code:    "TRANSACTIONAL",
		}
		return event, nil
	}
	if res != nil {
		event.ID = res.Mark.ID
		event.CreatedAt = &Millis{Milliseconds: res.Mark.CreatedAt.UnixMilli()}
	}
	return event, nil
}

// Marshal renders the event to its JSON wire form.
func (e OutcomeEvent) Marshal() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal outcome event: %w", err)
	}
	return payload, nil
}
