package handler

import (
	"net/http"

	"actc_portal_go/internal/service"
	"actc_portal_go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责登录与密码生命周期相关 HTTP 接口。
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler 创建 AuthHandler。
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest 是登录接口请求体。
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest 是修改密码接口请求体。
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ForceChangePasswordRequest 是首登强制改密接口请求体。
type ForceChangePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// Login 处理登录请求并返回访问令牌。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindStrictJSON(c, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		badRequest(c, "Username and password are required")
		return
	}

	user, accessToken, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		log.Warnf("Login: failed for %q: %v", req.Username, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Login successful",
		"data": gin.H{
			"token": accessToken,
			"user": gin.H{
				"id":           user.ID,
				"username":     user.Username,
				"role":         user.Role,
				"isFirstLogin": user.IsFirstLogin,
			},
		},
	})
}

// ChangePassword 修改当前登录用户的密码。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims, ok := getClaimsFromContext(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if !bindStrictJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		log.Warnf("ChangePassword: failed for user %d: %v", claims.UserID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Password changed successfully",
	})
}

// ForceChangePassword 首次登录的强制改密。
func (h *AuthHandler) ForceChangePassword(c *gin.Context) {
	claims, ok := getClaimsFromContext(c)
	if !ok {
		return
	}

	var req ForceChangePasswordRequest
	if !bindStrictJSON(c, &req) {
		return
	}

	if err := h.authService.ForceChangePassword(claims.UserID, req.NewPassword); err != nil {
		log.Warnf("ForceChangePassword: failed for user %d: %v", claims.UserID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Password changed successfully",
	})
}

// Verify 回显令牌中的身份，供前端校验登录态。
func (h *AuthHandler) Verify(c *gin.Context) {
	claims, ok := getClaimsFromContext(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Token is valid",
		"data": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"role":         user.Role,
			"isFirstLogin": user.IsFirstLogin,
		},
	})
}
