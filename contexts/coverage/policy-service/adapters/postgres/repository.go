package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"showingcover/contexts/coverage/policy-service/domain/entities"
	domainerrors "showingcover/contexts/coverage/policy-service/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
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

// CreatePolicy inserts the policy. A repeated source event id returns the
// previously stored policy instead of a duplicate row.
func (r *Repository) CreatePolicy(ctx context.Context, policy entities.Policy) (entities.Policy, bool, error) {
	row := policyModelFromEntity(policy)
	tx := r.db.WithContext(ctx)
	if row.SourceEventID != nil {
		tx = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_event_id"}},
			DoNothing: true,
		})
	}
	result := tx.Create(&row)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return entities.Policy{}, false, domainerrors.ErrDuplicatePolicy
		}
		return entities.Policy{}, false, result.Error
	}
	if result.RowsAffected > 0 {
		return policy, true, nil
	}

	var existing policyModel
	if err := r.db.WithContext(ctx).
		Where("source_event_id = ?", policy.SourceEventID).
		First(&existing).
		Error; err != nil {
		return entities.Policy{}, false, err
	}
	return existing.toEntity(), false, nil
}

func (r *Repository) GetPolicy(ctx context.Context, policyID string) (entities.Policy, error) {
	var row policyModel
	err := r.db.WithContext(ctx).
		Where("policy_id = ?", policyID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Policy{}, domainerrors.ErrPolicyNotFound
		}
		return entities.Policy{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListPoliciesByUser(ctx context.Context, userID string) ([]entities.Policy, error) {
	var rows []policyModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

func (r *Repository) ListPoliciesByIDs(ctx context.Context, policyIDs []string) ([]entities.Policy, error) {
	if len(policyIDs) == 0 {
		return []entities.Policy{}, nil
	}
	var rows []policyModel
	if err := r.db.WithContext(ctx).
		Where("policy_id IN ?", policyIDs).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

func (r *Repository) ListAllPolicies(ctx context.Context) ([]entities.Policy, error) {
	var rows []policyModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

type policyModel struct {
	PolicyID        string    `gorm:"column:policy_id;primaryKey"`
	UserID          string    `gorm:"column:user_id"`
	PropertyAddress string    `gorm:"column:property_address"`
	CoverageType    string    `gorm:"column:coverage_type"`
	Status          string    `gorm:"column:status"`
	SourceEventID   *string   `gorm:"column:source_event_id"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (policyModel) TableName() string {
	return "policies"
}

func policyModelFromEntity(policy entities.Policy) policyModel {
	row := policyModel{
		PolicyID:        policy.PolicyID,
		UserID:          policy.UserID,
		PropertyAddress: policy.PropertyAddress,
		CoverageType:    string(policy.CoverageType),
		Status:          string(policy.Status),
		CreatedAt:       policy.CreatedAt.UTC(),
	}
	if policy.SourceEventID != "" {
		source := policy.SourceEventID
		row.SourceEventID = &source
	}
	return row
}

func (m policyModel) toEntity() entities.Policy {
	policy := entities.Policy{
		PolicyID:        m.PolicyID,
		UserID:          m.UserID,
		PropertyAddress: m.PropertyAddress,
		CoverageType:    entities.CoverageType(m.CoverageType),
		Status:          entities.Status(m.Status),
		CreatedAt:       m.CreatedAt.UTC(),
	}
	if m.SourceEventID != nil {
		policy.SourceEventID = *m.SourceEventID
	}
	return policy
}

func toEntities(rows []policyModel) []entities.Policy {
	items := make([]entities.Policy, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
