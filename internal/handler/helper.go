package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"actc_portal_go/internal/service"
	"actc_portal_go/pkg/token"
	"actc_portal_go/pkg/upload"

	"github.com/gin-gonic/gin"
)

// mapServiceError 把 Service 层哨兵错误转换为 HTTP 状态码和对外消息。
// 统一映射的价值：
// 1. Handler 不必散落大量 if/else 判断。
// 2. 对外返回口径稳定，避免泄露内部实现细节。
func mapServiceError(err error) (httpStatus int, message string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid request parameters"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, service.ErrAccountSuspended):
		return http.StatusUnauthorized, "Account suspended. Please contact administrator."
	case errors.Is(err, service.ErrUserAlreadyExists):
		return http.StatusBadRequest, "Username already exists"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, service.ErrWrongPassword):
		return http.StatusBadRequest, "Current password is incorrect"
	case errors.Is(err, service.ErrSamePassword):
		return http.StatusBadRequest, "New password must be different from current password"
	case errors.Is(err, service.ErrPasswordTooShort):
		return http.StatusBadRequest, "New password does not meet the length requirement"
	case errors.Is(err, service.ErrPasswordAlreadyChanged):
		return http.StatusBadRequest, "Password has already been changed"
	case errors.Is(err, service.ErrSelfAction):
		return http.StatusBadRequest, "Cannot perform this action on your own account"
	case errors.Is(err, service.ErrNewsNotFound):
		return http.StatusNotFound, "News not found"
	case errors.Is(err, service.ErrEventNotFound):
		return http.StatusNotFound, "Event not found"
	case errors.Is(err, service.ErrMemberNotFound):
		return http.StatusNotFound, "Corporate member not found"
	case errors.Is(err, service.ErrEventFull):
		return http.StatusBadRequest, "Event is full"
	case errors.Is(err, service.ErrRegistrationClosed):
		return http.StatusBadRequest, "Registration is not open"
	case errors.Is(err, service.ErrNoAttachment):
		return http.StatusNotFound, "Event has no attachment"
	case errors.Is(err, upload.ErrFileTooLarge):
		return http.StatusBadRequest, "File exceeds size limit"
	case errors.Is(err, upload.ErrFileTypeillegal):
		return http.StatusBadRequest, "File type not allowed"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// fail 按哨兵错误写统一格式的错误响应。
func fail(c *gin.Context, err error) {
	status, msg := mapServiceError(err)
	c.JSON(status, gin.H{
		"code":    status,
		"message": msg,
	})
}

// badRequest 写一个带自定义消息的 400 响应。
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    http.StatusBadRequest,
		"message": message,
	})
}

// getClaimsFromContext 从 Gin 上下文中读取 AuthMiddleware 注入的 claims。
// 如果上下文异常，该函数会直接写错误响应并返回 false，调用方只需 `if !ok { return }`。
func getClaimsFromContext(c *gin.Context) (*token.CustomClaims, bool) {
	claimsVal, exists := c.Get("claims")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "No token provided.",
		})
		return nil, false
	}

	claims, ok := claimsVal.(*token.CustomClaims)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Internal server error",
		})
		return nil, false
	}
	return claims, true
}

// parseIDParam 解析路径中的记录 id，失败时写 400 响应并返回 false。
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id64 == 0 {
		badRequest(c, "Invalid ID")
		return 0, false
	}
	return uint(id64), true
}

// bindStrictJSON 解析 JSON 请求体，未知字段一律拒绝。
// 显式 DTO + DisallowUnknownFields，字段打错名直接 400 而不是被静默丢弃。
func bindStrictJSON(c *gin.Context, dst interface{}) bool {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "Invalid request body")
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		badRequest(c, "Invalid request body")
		return false
	}
	return true
}

// parsePagination 读取 page/limit 查询参数，非法值回落到默认。
func parsePagination(c *gin.Context, defaultLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit
}
