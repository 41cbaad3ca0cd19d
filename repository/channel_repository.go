package repository

import (
	"context"

	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/utils"
	"gorm.io/gorm"
)

// ChannelRepositoryImpl implements the ChannelRepository interface
type ChannelRepositoryImpl struct {
	*BaseRepository[models.Channel, models.ChannelFilter]
}

// NewChannelRepository creates a new distribution channel repository
func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &ChannelRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Channel, models.ChannelFilter](db),
	}
}

// ListActive retrieves active channels ordered by priority
func (r *ChannelRepositoryImpl) ListActive(ctx context.Context) ([]*models.Channel, error) {
	filter := models.ChannelFilter{IsActive: utils.ToPtr(true)}
	return r.ByFilter(ctx, filter, "priority ASC, id ASC", 0, 0)
}

// ByFilter retrieves channels based on filter criteria
func (r *ChannelRepositoryImpl) ByFilter(ctx context.Context, filter models.ChannelFilter, orderBy string, limit, offset int) ([]*models.Channel, error) {
	db := r.getDB(ctx)

	var channels []*models.Channel
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

	err := query.Find(&channels).Error
	if err != nil {
		return nil, err
	}

	return channels, nil
}

// Count returns the number of channels matching the filter
func (r *ChannelRepositoryImpl) Count(ctx context.Context, filter models.ChannelFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Channel{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *ChannelRepositoryImpl) applyFilter(db *gorm.DB, filter models.ChannelFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		db = db.Where("name = ?", *filter.Name)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsDirect != nil {
		db = db.Where("is_direct = ?", *filter.IsDirect)
	}
	return db
}
