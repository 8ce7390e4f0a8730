package postgresadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"showingcover/contexts/billing/subscription-service/ports"
)

// EventDedup stores processor event reservations in payment_event_dedup.
// Expired rows are taken over by the next reservation.
type EventDedup struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewEventDedup(db *gorm.DB, logger *slog.Logger) *EventDedup {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventDedup{db: db, logger: logger}
}

func (d *EventDedup) Reserve(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	row := paymentEventDedupModel{
		EventID:    strings.TrimSpace(eventID),
		ReservedAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	result := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"reserved_at": row.ReservedAt,
				"expires_at":  row.ExpiresAt,
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Lt{Column: clause.Column{Table: "payment_event_dedup", Name: "expires_at"}, Value: now},
			}},
		}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		d.logger.Debug("payment event already reserved",
			"event", "payment_event_dedup_hit",
			"module", "billing/subscription-service",
			"layer", "adapter",
			"event_id", row.EventID,
		)
		return false, nil
	}
	return true, nil
}

func (d *EventDedup) Release(ctx context.Context, eventID string) error {
	return d.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Delete(&paymentEventDedupModel{}).
		Error
}

type paymentEventDedupModel struct {
	EventID    string    `gorm:"column:event_id;primaryKey"`
	ReservedAt time.Time `gorm:"column:reserved_at"`
	ExpiresAt  time.Time `gorm:"column:expires_at"`
}

func (paymentEventDedupModel) TableName() string {
	return "payment_event_dedup"
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

var _ ports.EventDedup = (*EventDedup)(nil)
