package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shinyyama/inventory-vision-backend/internal/model"
	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, ownerUID string, id uint64) (*model.Item, error)
	FindByItemID(ctx context.Context, ownerUID, itemID string) (*model.Item, error)
	List(ctx context.Context, ownerUID string, limit, offset int) ([]model.Item, int64, error)
	ListAll(ctx context.Context, ownerUID string) ([]model.Item, error)
	Search(ctx context.Context, ownerUID, query string) ([]model.Item, error)
	Save(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, ownerUID string, id uint64) (bool, error)
	SetDB(db *gorm.DB)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *model.Item) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *itemRepository) FindByID(ctx context.Context, ownerUID string, id uint64) (*model.Item, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var item model.Item
	if err := r.db.WithContext(ctx).
		Where("owner_uid = ?", ownerUID).
		First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByItemID(ctx context.Context, ownerUID, itemID string) (*model.Item, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var item model.Item
	err := r.db.WithContext(ctx).
		Where("owner_uid = ? AND item_id = ?", ownerUID, itemID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) List(ctx context.Context, ownerUID string, limit, offset int) ([]model.Item, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		items []model.Item
		total int64
	)
	if err := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("owner_uid = ?", ownerUID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Where("owner_uid = ?", ownerUID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *itemRepository) ListAll(ctx context.Context, ownerUID string) ([]model.Item, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var items []model.Item
	if err := r.db.WithContext(ctx).
		Where("owner_uid = ?", ownerUID).
		Order("created_at desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) Search(ctx context.Context, ownerUID, query string) ([]model.Item, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	like := "%" + escapeLike(query) + "%"
	var items []model.Item
	if err := r.db.WithContext(ctx).
		Where("owner_uid = ?", ownerUID).
		Where("title LIKE ? OR item_id LIKE ? OR vendor LIKE ? OR description LIKE ?", like, like, like, like).
		Order("created_at desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) Save(ctx context.Context, item *model.Item) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *itemRepository) Delete(ctx context.Context, ownerUID string, id uint64) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Where("owner_uid = ?", ownerUID).
		Delete(&model.Item{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *itemRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
