package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"clientbook/backend/internal/model"
)

// AppointmentFilter 预约列表过滤条件
type AppointmentFilter struct {
	Status    model.AppointmentStatus
	Type      model.AppointmentType
	ClientID  string
	From      *time.Time
	To        *time.Time
	RootsOnly bool // 仅根预约（parent_id IS NULL），导出时折叠系列用
}

// AppointmentRepository 预约数据访问接口
//
// 范围化更新/删除的谓词只在本层构造：
// 点操作命中 appointment_id = X；系列操作命中
// appointment_id = X OR parent_id = X（根加全部子预约），
// 上层只传 single/series 的决议结果。
type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	BatchCreate(ctx context.Context, appts []model.Appointment) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	List(ctx context.Context, filter AppointmentFilter, offset, limit int) ([]model.Appointment, int64, error)
	ListByParent(ctx context.Context, parentID string) ([]model.Appointment, error)
	ListCalendarRoots(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
	CountChildren(ctx context.Context, rootID string) (int64, error)
	UpdateByID(ctx context.Context, id string, fields map[string]interface{}) (int64, error)
	UpdateSeries(ctx context.Context, rootID string, fields map[string]interface{}) (int64, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteSeries(ctx context.Context, rootID string) (int64, error)
}

type appointmentRepo struct {
	db *gorm.DB
}

func NewAppointmentRepo(db *gorm.DB) AppointmentRepository {
	return &appointmentRepo{db: db}
}

func (r *appointmentRepo) Create(ctx context.Context, appt *model.Appointment) error {
	return r.db.WithContext(ctx).Create(appt).Error
}

func (r *appointmentRepo) BatchCreate(ctx context.Context, appts []model.Appointment) error {
	if len(appts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&appts).Error
}

func (r *appointmentRepo) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	var appt model.Appointment
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("appointment_id = ?", id).
		First(&appt).Error
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepo) List(ctx context.Context, filter AppointmentFilter, offset, limit int) ([]model.Appointment, int64, error) {
	var appts []model.Appointment
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Appointment{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		db = db.Where("appointment_type = ?", filter.Type)
	}
	if filter.ClientID != "" {
		db = db.Where("client_id = ?", filter.ClientID)
	}
	if filter.From != nil {
		db = db.Where("start_time >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("start_time <= ?", *filter.To)
	}
	if filter.RootsOnly {
		db = db.Where("parent_id IS NULL")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Preload("Client").Order("start_time ASC")
	if limit > 0 {
		db = db.Offset(offset).Limit(limit)
	}
	err := db.Find(&appts).Error
	return appts, total, err
}

func (r *appointmentRepo) ListByParent(ctx context.Context, parentID string) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("start_time ASC").
		Find(&appts).Error
	return appts, err
}

// ListCalendarRoots 取日历导出范围内的根预约。
// 根自身在范围内，或者其系列有任一子预约落在 from 之后即命中，
// 避免开始于 from 之前的系列从日历里消失。
func (r *appointmentRepo) ListCalendarRoots(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL AND start_time <= ?", to).
		Where("start_time >= ? OR EXISTS (SELECT 1 FROM appointments c WHERE c.parent_id = appointments.appointment_id AND c.start_time >= ?)", from, from).
		Order("start_time ASC").
		Find(&appts).Error
	return appts, err
}

func (r *appointmentRepo) CountChildren(ctx context.Context, rootID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("parent_id = ?", rootID).
		Count(&count).Error
	return count, err
}

func (r *appointmentRepo) UpdateByID(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("appointment_id = ?", id).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepo) UpdateSeries(ctx context.Context, rootID string, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("appointment_id = ? OR parent_id = ?", rootID, rootID).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("appointment_id = ?", id).
		Delete(&model.Appointment{})
	return result.RowsAffected, result.Error
}

func (r *appointmentRepo) DeleteSeries(ctx context.Context, rootID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("appointment_id = ? OR parent_id = ?", rootID, rootID).
		Delete(&model.Appointment{})
	return result.RowsAffected, result.Error
}
