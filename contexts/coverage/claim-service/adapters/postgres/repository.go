package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"showingcover/contexts/coverage/claim-service/domain/entities"
	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"
	"showingcover/contexts/coverage/claim-service/domain/services"
	"showingcover/contexts/coverage/claim-service/ports"
	"showingcover/internal/shared/outbox"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateClaim(ctx context.Context, claim entities.Claim) error {
	row := claimModelFromEntity(claim)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) GetClaim(ctx context.Context, claimID string) (entities.Claim, error) {
	var row claimModel
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Claim{}, domainerrors.ErrClaimNotFound
		}
		return entities.Claim{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListClaims(ctx context.Context) ([]entities.Claim, error) {
	var rows []claimModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

func (r *Repository) ListClaimsForOwner(ctx context.Context, userID string, policyIDs []string) ([]entities.Claim, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if len(policyIDs) > 0 {
		query = query.Or("user_id IS NULL AND policy_id IN ?", policyIDs)
	}
	var rows []claimModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

func (r *Repository) CountClaimsByPolicy(ctx context.Context, policyIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(policyIDs))
	if len(policyIDs) == 0 {
		return counts, nil
	}
	for _, id := range policyIDs {
		counts[id] = 0
	}
	var rows []struct {
		PolicyID string
		Total    int
	}
	if err := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Select("policy_id, COUNT(*) AS total").
		Where("policy_id IN ?", policyIDs).
		Group("policy_id").
		Scan(&rows).
		Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PolicyID] = row.Total
	}
	return counts, nil
}

// TransitionFromPending updates the claim only while it is still pending and
// writes the decided event to claim_outbox in the same transaction.
func (r *Repository) TransitionFromPending(ctx context.Context, input ports.TransitionInput) (entities.Claim, error) {
	envelope, err := input.Event.Envelope()
	if err != nil {
		return entities.Claim{}, err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return entities.Claim{}, err
	}

	var updated entities.Claim
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":     string(input.To),
			"updated_at": input.UpdatedAt.UTC(),
		}
		if input.PayoutCents != nil {
			updates["payout_amount"] = services.Amount(*input.PayoutCents)
		}
		result := tx.Model(&claimModel{}).
			Where("claim_id = ? AND status = ?", input.ClaimID, string(entities.StatusPending)).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}

		var row claimModel
		if err := tx.Where("claim_id = ?", input.ClaimID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrClaimNotFound
			}
			return err
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrAlreadyProcessed
		}

		outboxRow := outboxModel{
			OutboxID:     input.Event.EventID,
			EventType:    input.Event.EventType,
			PartitionKey: input.Event.PartitionKey,
			Payload:      payload,
			Status:       outbox.StatusPending,
			CreatedAt:    input.UpdatedAt.UTC(),
		}
		if err := tx.Create(&outboxRow).Error; err != nil {
			return err
		}
		updated = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Claim{}, err
	}
	return updated, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":  outbox.StatusSent,
			"sent_at": sentAt.UTC(),
		}).
		Error
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ? AND expires_at > ?", strings.TrimSpace(key), now.UTC()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		ClaimID:     row.ClaimID,
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: record.RequestHash,
		ClaimID:     record.ClaimID,
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"request_hash", "claim_id", "expires_at"}),
		}).
		Create(&row).
		Error
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		r.logger.Debug("duplicate claim event skipped",
			"event", "claim_event_dedup_hit",
			"module", "coverage/claim-service",
			"layer", "adapter",
			"event_id", row.EventID,
		)
		return true, nil
	}
	return false, nil
}

type claimModel struct {
	ClaimID      string                      `gorm:"column:claim_id;primaryKey"`
	UserID       *string                     `gorm:"column:user_id"`
	PolicyID     *string                     `gorm:"column:policy_id"`
	IncidentDate time.Time                   `gorm:"column:incident_date"`
	DamagedItems datatypes.JSONSlice[string] `gorm:"column:damaged_items;type:jsonb"`
	Description  string                      `gorm:"column:description"`
	Files        datatypes.JSONSlice[string] `gorm:"column:files;type:jsonb"`
	Status       string                      `gorm:"column:status"`
	MaxPayout    decimal.Decimal             `gorm:"column:max_payout;type:numeric(12,2)"`
	PayoutAmount decimal.NullDecimal         `gorm:"column:payout_amount;type:numeric(12,2)"`
	CreatedAt    time.Time                   `gorm:"column:created_at"`
	UpdatedAt    time.Time                   `gorm:"column:updated_at"`
}

func (claimModel) TableName() string {
	return "claims"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "claim_outbox"
}

type idempotencyModel struct {
	Key         string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	ClaimID     string    `gorm:"column:claim_id"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "claim_idempotency"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "claim_event_dedup"
}

func claimModelFromEntity(claim entities.Claim) claimModel {
	row := claimModel{
		ClaimID:      claim.ClaimID,
		UserID:       optionalString(claim.UserID),
		PolicyID:     optionalString(claim.PolicyID),
		IncidentDate: claim.IncidentDate.UTC(),
		DamagedItems: datatypes.NewJSONSlice(copyOrEmpty(claim.DamagedItems)),
		Description:  claim.Description,
		Files:        datatypes.NewJSONSlice(copyOrEmpty(claim.Files)),
		Status:       string(claim.Status),
		MaxPayout:    services.Amount(claim.MaxPayoutCents),
		CreatedAt:    claim.CreatedAt.UTC(),
		UpdatedAt:    claim.UpdatedAt.UTC(),
	}
	if claim.PayoutCents != nil {
		row.PayoutAmount = decimal.NewNullDecimal(services.Amount(*claim.PayoutCents))
	}
	return row
}

func (m claimModel) toEntity() entities.Claim {
	claim := entities.Claim{
		ClaimID:        m.ClaimID,
		IncidentDate:   m.IncidentDate.UTC(),
		DamagedItems:   copyOrEmpty(m.DamagedItems),
		Description:    m.Description,
		Files:          copyOrEmpty(m.Files),
		Status:         entities.Status(m.Status),
		MaxPayoutCents: decimalToCents(m.MaxPayout),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
	if m.UserID != nil {
		claim.UserID = *m.UserID
	}
	if m.PolicyID != nil {
		claim.PolicyID = *m.PolicyID
	}
	if m.PayoutAmount.Valid {
		payout := decimalToCents(m.PayoutAmount.Decimal)
		claim.PayoutCents = &payout
	}
	return claim
}

func toEntities(rows []claimModel) []entities.Claim {
	items := make([]entities.Claim, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func decimalToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func copyOrEmpty(items []string) []string {
	if len(items) == 0 {
		return []string{}
	}
	return append([]string(nil), items...)
}
