package ports

import (
	"context"
	"time"

	"showingcover/contexts/coverage/claim-service/domain/entities"
	"showingcover/internal/shared/events"
	"showingcover/internal/shared/outbox"
)

// Clock allows deterministic testing of timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts claim/event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Capabilities understood by the Authorizer.
const (
	CapabilityAdminOnly         = "admin_only"
	CapabilityAgentClaimsFiling = "agent_claims_filing"
	CapabilitySelfServiceRead   = "self_service_read"
)

// AuthorizationDecision is the authorizer's answer. Errors are reserved for
// lookups that could not be performed.
type AuthorizationDecision struct {
	Allowed bool
	Reason  string
}

type Authorizer interface {
	Authorize(ctx context.Context, userID string, capability string, resourceOwnerID string) (AuthorizationDecision, error)
}

// PolicyDirectory reads policies owned by the coverage ledger.
type PolicyDirectory interface {
	GetPolicies(ctx context.Context, policyIDs []string) (map[string]entities.PolicyRef, error)
	PoliciesOwnedBy(ctx context.Context, userID string) ([]string, error)
}

// OwnerDirectory resolves user ids to contact emails.
type OwnerDirectory interface {
	OwnerEmails(ctx context.Context, userIDs []string) (map[string]string, error)
}

// AuditEntry is one append-only record of an admin action.
type AuditEntry struct {
	AdminID      string
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	OccurredAt   time.Time
}

// AdminNote is a free-text note attached to a resource.
type AdminNote struct {
	ResourceType string
	ResourceID   string
	AdminID      string
	Note         string
	CreatedAt    time.Time
}

// AuditTrail appends audit entries and admin notes. AppendAuditEntry must
// report every failure to the caller.
type AuditTrail interface {
	AppendAuditEntry(ctx context.Context, entry AuditEntry) error
	AppendAdminNote(ctx context.Context, note AdminNote) error
}

// DecidedEvent is the outbound payload written to the claim outbox together
// with the status transition.
type DecidedEvent struct {
	EventID      string
	EventType    string
	ClaimID      string
	Status       entities.Status
	UserID       string
	PolicyID     string
	PayoutCents  int64
	Reason       string
	AdminID      string
	PartitionKey string
	OccurredAt   time.Time
}

// TransitionInput moves one claim out of pending.
type TransitionInput struct {
	ClaimID     string
	To          entities.Status
	PayoutCents *int64
	UpdatedAt   time.Time
	Event       DecidedEvent
}

type ClaimRepository interface {
	CreateClaim(ctx context.Context, claim entities.Claim) error
	GetClaim(ctx context.Context, claimID string) (entities.Claim, error)
	ListClaims(ctx context.Context) ([]entities.Claim, error)
	ListClaimsForOwner(ctx context.Context, userID string, policyIDs []string) ([]entities.Claim, error)
	CountClaimsByPolicy(ctx context.Context, policyIDs []string) (map[string]int, error)
	// TransitionFromPending must update status only where it is still pending
	// and persist the outbox event in the same write. It returns
	// ErrAlreadyProcessed when the guard did not match and ErrClaimNotFound
	// when the row does not exist.
	TransitionFromPending(ctx context.Context, input TransitionInput) (entities.Claim, error)
}

// IdempotencyRecord maps a client key to the claim it created.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	ClaimID     string
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

// EvidenceUpload is a presigned upload target for one evidence file.
type EvidenceUpload struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

type EvidenceStore interface {
	PresignUpload(ctx context.Context, ownerID string, filename string, contentType string, ttl time.Duration) (EvidenceUpload, error)
}

// OutboxMessage is a row ready to relay from the claim outbox.
type OutboxMessage = outbox.Message

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventDedupStore provides idempotent processing guarantees for consumed events.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

// EventEnvelope reuses the shared event envelope.
type EventEnvelope = events.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// RenderedEmail is a template rendered for one recipient.
type RenderedEmail struct {
	Subject string
	HTML    string
}

type EmailRenderer interface {
	Render(ctx context.Context, template string, vars map[string]any) (RenderedEmail, error)
}

type EmailSender interface {
	Send(ctx context.Context, to string, email RenderedEmail) (string, error)
}
