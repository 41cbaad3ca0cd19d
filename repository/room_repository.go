package repository

import (
	"context"
	"errors"

	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/utils"
	"gorm.io/gorm"
)

// RoomRepositoryImpl implements the RoomRepository interface
type RoomRepositoryImpl struct {
	*BaseRepository[models.Room, models.RoomFilter]
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &RoomRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Room, models.RoomFilter](db),
	}
}

// ByCategory retrieves a room by its category key
func (r *RoomRepositoryImpl) ByCategory(ctx context.Context, category string) (*models.Room, error) {
	db := r.getDB(ctx)

	var room models.Room
	err := db.Where("category = ?", category).Last(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &room, nil
}

// ListActive retrieves all active room categories
func (r *RoomRepositoryImpl) ListActive(ctx context.Context) ([]*models.Room, error) {
	filter := models.RoomFilter{IsActive: utils.ToPtr(true)}
	return r.ByFilter(ctx, filter, "category ASC", 0, 0)
}

// ByFilter retrieves rooms based on filter criteria
func (r *RoomRepositoryImpl) ByFilter(ctx context.Context, filter models.RoomFilter, orderBy string, limit, offset int) ([]*models.Room, error) {
	db := r.getDB(ctx)

	var rooms []*models.Room
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

	err := query.Find(&rooms).Error
	if err != nil {
		return nil, err
	}

	return rooms, nil
}

// Count returns the number of rooms matching the filter
func (r *RoomRepositoryImpl) Count(ctx context.Context, filter models.RoomFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Room{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *RoomRepositoryImpl) applyFilter(db *gorm.DB, filter models.RoomFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Category != nil {
		db = db.Where("category = ?", *filter.Category)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}
