package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"showingcover/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "showingcover/contexts/identity-access/authorization-service/domain/errors"
	"showingcover/contexts/identity-access/authorization-service/ports"

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

func (r *Repository) GetProfile(ctx context.Context, userID string) (entities.Profile, error) {
	var row profileModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Profile{}, domainerrors.ErrProfileNotFound
		}
		return entities.Profile{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListProfiles(ctx context.Context, userIDs []string) ([]entities.Profile, error) {
	if len(userIDs) == 0 {
		return []entities.Profile{}, nil
	}
	var rows []profileModel
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Profile, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateProfile(ctx context.Context, profile entities.Profile) (entities.Profile, bool, error) {
	row := profileModelFromEntity(profile)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return entities.Profile{}, false, result.Error
	}
	if result.RowsAffected > 0 {
		return profile, true, nil
	}
	existing, err := r.GetProfile(ctx, profile.UserID)
	if err != nil {
		return entities.Profile{}, false, err
	}
	return existing, false, nil
}

// ApplySubscriptionSnapshot writes the processor's view unless a newer
// authoritative event has already been applied. Optimistic local values do
// not take part in the guard.
func (r *Repository) ApplySubscriptionSnapshot(ctx context.Context, snapshot ports.SubscriptionSnapshot, now time.Time) (bool, error) {
	updates := map[string]any{
		"subscription_status":   string(snapshot.Status),
		"subscription_event_at": snapshot.OccurredAt.UTC(),
		"subscription_sync":     string(entities.SubscriptionSyncConfirmed),
		"updated_at":            now.UTC(),
	}
	if snapshot.SubscriptionID != "" {
		updates["subscription_id"] = snapshot.SubscriptionID
	}
	if snapshot.StartedAt != nil {
		updates["subscription_start"] = snapshot.StartedAt.UTC()
	}

	result := r.db.WithContext(ctx).
		Model(&profileModel{}).
		Where("user_id = ? AND role = ?", snapshot.UserID, string(entities.RoleAgent)).
		Where("(subscription_event_at IS NULL OR subscription_event_at <= ?)", snapshot.OccurredAt.UTC()).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	existing, err := r.GetProfile(ctx, snapshot.UserID)
	if err != nil {
		return false, err
	}
	if existing.Role != entities.RoleAgent {
		return false, domainerrors.ErrRoleMismatch
	}
	return false, nil
}

func (r *Repository) MarkSubscriptionCancelled(ctx context.Context, userID string, subscriptionID string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&profileModel{}).
		Where("user_id = ? AND subscription_id = ? AND subscription_status = ?",
			userID, subscriptionID, string(entities.SubscriptionActive)).
		Updates(map[string]any{
			"subscription_status": string(entities.SubscriptionCancelled),
			"subscription_sync":   string(entities.SubscriptionSyncOptimistic),
			"updated_at":          now.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	if _, err := r.GetProfile(ctx, userID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *Repository) CountProfilesByRole(ctx context.Context) ([]ports.RoleCount, error) {
	var rows []struct {
		Role               string
		SubscriptionStatus string
		Count              int
	}
	if err := r.db.WithContext(ctx).
		Model(&profileModel{}).
		Select("role, subscription_status, COUNT(*) AS count").
		Group("role, subscription_status").
		Order("role, subscription_status").
		Scan(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.RoleCount, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.RoleCount{
			Role:               entities.Role(row.Role),
			SubscriptionStatus: entities.SubscriptionStatus(row.SubscriptionStatus),
			Count:              row.Count,
		})
	}
	return items, nil
}

type profileModel struct {
	UserID              string     `gorm:"column:user_id;primaryKey"`
	Email               string     `gorm:"column:email"`
	Role                string     `gorm:"column:role"`
	SubscriptionStatus  string     `gorm:"column:subscription_status"`
	SubscriptionID      *string    `gorm:"column:subscription_id"`
	SubscriptionStart   *time.Time `gorm:"column:subscription_start"`
	SubscriptionEventAt *time.Time `gorm:"column:subscription_event_at"`
	SubscriptionSync    string     `gorm:"column:subscription_sync"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
}

func (profileModel) TableName() string {
	return "users"
}

func profileModelFromEntity(profile entities.Profile) profileModel {
	row := profileModel{
		UserID:              profile.UserID,
		Email:               profile.Email,
		Role:                string(profile.Role),
		SubscriptionStatus:  string(profile.SubscriptionStatus),
		SubscriptionStart:   profile.SubscriptionStart,
		SubscriptionEventAt: profile.SubscriptionEventAt,
		SubscriptionSync:    string(profile.SubscriptionSync),
		CreatedAt:           profile.CreatedAt.UTC(),
		UpdatedAt:           profile.UpdatedAt.UTC(),
	}
	if profile.SubscriptionID != "" {
		id := profile.SubscriptionID
		row.SubscriptionID = &id
	}
	return row
}

func (m profileModel) toEntity() entities.Profile {
	profile := entities.Profile{
		UserID:              m.UserID,
		Email:               m.Email,
		Role:                entities.Role(m.Role),
		SubscriptionStatus:  entities.SubscriptionStatus(m.SubscriptionStatus),
		SubscriptionStart:   utcPtr(m.SubscriptionStart),
		SubscriptionEventAt: utcPtr(m.SubscriptionEventAt),
		SubscriptionSync:    entities.SubscriptionSync(m.SubscriptionSync),
		CreatedAt:           m.CreatedAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
	}
	if m.SubscriptionID != nil {
		profile.SubscriptionID = *m.SubscriptionID
	}
	return profile
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := value.UTC()
	return &v
}
