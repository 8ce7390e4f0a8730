package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"showingcover/contexts/internal-ops/audit-trail-service/domain/entities"
	domainerrors "showingcover/contexts/internal-ops/audit-trail-service/domain/errors"
	"showingcover/contexts/internal-ops/audit-trail-service/ports"

	"github.com/google/uuid"
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
	return &Repository{db: db, logger: logger}
}

func (r *Repository) AppendAuditEntry(ctx context.Context, entry entities.AuditEntry) error {
	row := auditLogModel{
		AuditID:      entry.AuditID,
		AdminID:      entry.AdminID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      datatypes.JSONMap(entry.Details),
		CreatedAt:    entry.CreatedAt.UTC(),
	}
	if row.Details == nil {
		row.Details = datatypes.JSONMap{}
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) ListRecentAuditEntries(ctx context.Context, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []auditLogModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	out := make([]entities.AuditEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, entities.AuditEntry{
			AuditID:      row.AuditID,
			AdminID:      row.AdminID,
			Action:       row.Action,
			ResourceType: row.ResourceType,
			ResourceID:   row.ResourceID,
			Details:      map[string]any(row.Details),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *Repository) AppendNote(ctx context.Context, note entities.AdminNote) error {
	row := adminNoteModel{
		NoteID:       note.NoteID,
		ResourceType: note.ResourceType,
		ResourceID:   note.ResourceID,
		AdminID:      note.AdminID,
		Note:         note.Note,
		CreatedAt:    note.CreatedAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) ListNotes(ctx context.Context, resourceType string, resourceID string) ([]entities.AdminNote, error) {
	var rows []adminNoteModel
	if err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	out := make([]entities.AdminNote, 0, len(rows))
	for _, row := range rows {
		out = append(out, entities.AdminNote{
			NoteID:       row.NoteID,
			ResourceType: row.ResourceType,
			ResourceID:   row.ResourceID,
			AdminID:      row.AdminID,
			Note:         row.Note,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ? AND expires_at > ?", strings.TrimSpace(key), now.UTC()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ports.IdempotencyRecord{
		Key:          row.Key,
		RequestHash:  row.RequestHash,
		ResponseBody: append([]byte(nil), row.ResponseBody...),
		ExpiresAt:    row.ExpiresAt.UTC(),
	}, nil
}

func (r *Repository) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(key),
		RequestHash: requestHash,
		ExpiresAt:   expiresAt.UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Select("request_hash").
		Where("idempotency_key = ?", row.Key).
		First(&existing).
		Error; err != nil {
		return err
	}
	if existing.RequestHash != requestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) Complete(ctx context.Context, key string, responseBody []byte, _ time.Time) error {
	return r.db.WithContext(ctx).
		Model(&idempotencyModel{}).
		Where("idempotency_key = ?", strings.TrimSpace(key)).
		Update("response_body", responseBody).
		Error
}

type auditLogModel struct {
	AuditID      string            `gorm:"column:audit_id;primaryKey"`
	AdminID      string            `gorm:"column:admin_id"`
	Action       string            `gorm:"column:action"`
	ResourceType string            `gorm:"column:resource_type"`
	ResourceID   string            `gorm:"column:resource_id"`
	Details      datatypes.JSONMap `gorm:"column:details;type:jsonb;not null;default:'{}'"`
	CreatedAt    time.Time         `gorm:"column:created_at"`
}

func (auditLogModel) TableName() string {
	return "audit_logs"
}

type adminNoteModel struct {
	NoteID       string    `gorm:"column:note_id;primaryKey"`
	ResourceType string    `gorm:"column:resource_type"`
	ResourceID   string    `gorm:"column:resource_id"`
	AdminID      string    `gorm:"column:admin_id"`
	Note         string    `gorm:"column:note"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (adminNoteModel) TableName() string {
	return "admin_notes"
}

type idempotencyModel struct {
	Key          string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash  string    `gorm:"column:request_hash"`
	ResponseBody []byte    `gorm:"column:response_body"`
	ExpiresAt    time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "admin_note_idempotency"
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
