package ports

import "encoding/json"

// ClaimDecidedEventType is both the outbox event type and the bus topic.
const ClaimDecidedEventType = "claims.decided"

// DecidedPayload is the data section of a claims.decided envelope.
type DecidedPayload struct {
	ClaimID     string `json:"claim_id"`
	Status      string `json:"status"`
	UserID      string `json:"user_id,omitempty"`
	PolicyID    string `json:"policy_id,omitempty"`
	PayoutCents int64  `json:"payout_amount_cents,omitempty"`
	Reason      string `json:"reason,omitempty"`
	AdminID     string `json:"admin_id"`
}

// Envelope renders the event in the shared envelope format.
func (e DecidedEvent) Envelope() (EventEnvelope, error) {
	data, err := json.Marshal(DecidedPayload{
		ClaimID:     e.ClaimID,
		Status:      string(e.Status),
		UserID:      e.UserID,
		PolicyID:    e.PolicyID,
		PayoutCents: e.PayoutCents,
		Reason:      e.Reason,
		AdminID:     e.AdminID,
	})
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		EventID:          e.EventID,
		EventType:        e.EventType,
		OccurredAt:       e.OccurredAt.UTC(),
		SourceService:    "claim-service",
		SchemaVersion:    1,
		PartitionKeyPath: "claim_id",
		PartitionKey:     e.PartitionKey,
		Data:             data,
	}, nil
}

// DecodeDecidedPayload reads the data section of a claims.decided envelope.
func DecodeDecidedPayload(envelope EventEnvelope) (DecidedPayload, error) {
	var payload DecidedPayload
	err := json.Unmarshal(envelope.Data, &payload)
	return payload, err
}

