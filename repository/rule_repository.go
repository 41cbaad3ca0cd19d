package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hotelops/tarifario/models"
	"gorm.io/gorm"
)

// RuleRepositoryImpl implements the RuleRepository interface
type RuleRepositoryImpl struct {
	*BaseRepository[models.Rule, models.RuleFilter]
}

// NewRuleRepository creates a new pricing rule repository
func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &RuleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Rule, models.RuleFilter](db),
	}
}

// ByUUID retrieves a rule by its public identifier
func (r *RuleRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Rule, error) {
	db := r.getDB(ctx)

	var rule models.Rule
	err := db.Where("uuid = ?", id).Last(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &rule, nil
}

// ListEnabled retrieves all enabled rules ordered for deterministic application
func (r *RuleRepositoryImpl) ListEnabled(ctx context.Context) ([]*models.Rule, error) {
	db := r.getDB(ctx)

	var rules []*models.Rule
	err := db.Where("enabled = true").
		Order("priority ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}

	return rules, nil
}

// ByFilter retrieves rules based on filter criteria
func (r *RuleRepositoryImpl) ByFilter(ctx context.Context, filter models.RuleFilter, orderBy string, limit, offset int) ([]*models.Rule, error) {
	db := r.getDB(ctx)

	var rules []*models.Rule
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&rules).Error
	if err != nil {
		return nil, err
	}

	return rules, nil
}

// Count returns the number of rules matching the filter
func (r *RuleRepositoryImpl) Count(ctx context.Context, filter models.RuleFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Rule{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *RuleRepositoryImpl) applyFilter(db *gorm.DB, filter models.RuleFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		db = db.Where("name = ?", *filter.Name)
	}
	if filter.Priority != nil {
		db = db.Where("priority = ?", *filter.Priority)
	}
	if filter.Enabled != nil {
		db = db.Where("enabled = ?", *filter.Enabled)
	}
	if filter.ExclusionGroup != nil {
		db = db.Where("exclusion_group = ?", *filter.ExclusionGroup)
	}
	return db
}
