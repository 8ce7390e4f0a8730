package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	application "showingcover/contexts/coverage/claim-service/application"
	"showingcover/contexts/coverage/claim-service/domain/entities"
	"showingcover/contexts/coverage/claim-service/domain/services"
	"showingcover/contexts/coverage/claim-service/ports"
)

const (
	defaultNotifierGroup = "claim-decision-notifier"

	TemplateClaimApproved = "claim_approved"
	TemplateClaimDenied   = "claim_denied"
)

// DecisionNotifier emails the claim owner after a decision. Every failure is
// logged and swallowed; notification never affects the claim itself.
type DecisionNotifier struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Policies      ports.PolicyDirectory
	Owners        ports.OwnerDirectory
	Renderer      ports.EmailRenderer
	Sender        ports.EmailSender
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (n DecisionNotifier) Start(ctx context.Context) error {
	group := n.ConsumerGroup
	if group == "" {
		group = defaultNotifierGroup
	}
	return n.Subscriber.Subscribe(ctx, ports.ClaimDecidedEventType, group, n.Handle)
}

func (n DecisionNotifier) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(n.Logger)
	payload, err := ports.DecodeDecidedPayload(event)
	if err != nil {
		logger.Error("claim decision payload decode failed",
			"event", "claim_notify_decode_failed",
			"module", "coverage/claim-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return nil
	}

	if n.Dedup != nil {
		sum := sha256.Sum256(event.Data)
		duplicate, err := n.Dedup.ReserveEvent(ctx, event.EventID, hex.EncodeToString(sum[:]), n.now().Add(n.dedupTTL()))
		if err != nil {
			logger.Warn("claim decision dedupe failed",
				"event", "claim_notify_dedupe_failed",
				"module", "coverage/claim-service",
				"layer", "worker",
				"event_id", event.EventID,
				"error", err.Error(),
			)
			return nil
		}
		if duplicate {
			return nil
		}
	}

	email, ok := n.ownerEmail(ctx, logger, payload)
	if !ok {
		return nil
	}

	template := TemplateClaimApproved
	if payload.Status == string(entities.StatusDenied) {
		template = TemplateClaimDenied
	}
	rendered, err := n.Renderer.Render(ctx, template, map[string]any{
		"ClaimID":      payload.ClaimID,
		"PayoutAmount": services.Amount(payload.PayoutCents).StringFixed(2),
		"Reason":       payload.Reason,
	})
	if err != nil {
		logger.Error("claim decision email render failed",
			"event", "claim_notify_render_failed",
			"module", "coverage/claim-service",
			"layer", "worker",
			"claim_id", payload.ClaimID,
			"template", template,
			"error", err.Error(),
		)
		return nil
	}

	messageID, err := n.Sender.Send(ctx, email, rendered)
	if err != nil {
		logger.Error("claim decision email send failed",
			"event", "claim_notify_send_failed",
			"module", "coverage/claim-service",
			"layer", "worker",
			"claim_id", payload.ClaimID,
			"error", err.Error(),
		)
		return nil
	}
	logger.Info("claim decision email sent",
		"event", "claim_notify_sent",
		"module", "coverage/claim-service",
		"layer", "worker",
		"claim_id", payload.ClaimID,
		"status", payload.Status,
		"message_id", messageID,
	)
	return nil
}

func (n DecisionNotifier) ownerEmail(ctx context.Context, logger *slog.Logger, payload ports.DecidedPayload) (string, bool) {
	claim := entities.Claim{ClaimID: payload.ClaimID, UserID: payload.UserID, PolicyID: payload.PolicyID}
	policies := map[string]entities.PolicyRef{}
	if payload.UserID == "" && payload.PolicyID != "" && n.Policies != nil {
		loaded, err := n.Policies.GetPolicies(ctx, []string{payload.PolicyID})
		if err != nil {
			logger.Warn("claim owner policy lookup failed",
				"event", "claim_notify_policy_lookup_failed",
				"module", "coverage/claim-service",
				"layer", "worker",
				"claim_id", payload.ClaimID,
				"error", err.Error(),
			)
			return "", false
		}
		policies = loaded
	}

	owner := services.ResolveOwner(claim, policies)
	if owner.Kind == entities.OwnerUnresolved {
		logger.Warn("claim owner unresolved, skipping notification",
			"event", "claim_notify_owner_unresolved",
			"module", "coverage/claim-service",
			"layer", "worker",
			"claim_id", payload.ClaimID,
		)
		return "", false
	}

	emails, err := n.Owners.OwnerEmails(ctx, []string{owner.UserID})
	if err != nil || emails[owner.UserID] == "" {
		logger.Warn("claim owner email unavailable",
			"event", "claim_notify_email_missing",
			"module", "coverage/claim-service",
			"layer", "worker",
			"claim_id", payload.ClaimID,
			"user_id", owner.UserID,
		)
		return "", false
	}
	return emails[owner.UserID], true
}

func (n DecisionNotifier) dedupTTL() time.Duration {
	if n.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return n.DedupTTL
}

func (n DecisionNotifier) now() time.Time {
	if n.Clock == nil {
		return time.Now().UTC()
	}
	return n.Clock.Now().UTC()
}
