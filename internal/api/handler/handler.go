package handler

import "clientbook/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Appointment *AppointmentHandler
	Client      *ClientHandler
	Export      *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Appointment: NewAppointmentHandler(svc.Appointment),
		Client:      NewClientHandler(svc.Client),
		Export:      NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
