package handler

import (
	"net/http"

	"actc_portal_go/internal/service"
	"actc_portal_go/pkg/log"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责管理员侧的账号管理 HTTP 接口。
// 全部路由挂在 AdminAuthMiddleware 之后，Handler 内不再做角色判断，
// 只处理“不能对自己操作”这类业务约束（由 service 层校验）。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建 UserHandler。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUserRequest 是创建账号请求体，不含密码：新账号一律用初始密码。
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// UpdateUserRequest 是更新账号请求体，nil 字段表示不修改。
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"fullName"`
	Role     *string `json:"role"`
}

// ListUsers 返回全部账号，按创建时间倒序。
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List()
	if err != nil {
		log.Warnf("ListUsers: %v", err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Users retrieved successfully",
		"data":    users,
	})
}

// GetUser 返回单个账号。
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(userID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "User retrieved successfully",
		"data":    user,
	})
}

// CreateUser 创建账号，初始密码由配置决定，首登强制改密。
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindStrictJSON(c, &req) {
		return
	}
	if req.Username == "" {
		badRequest(c, "Username is required")
		return
	}

	user, err := h.userService.Create(service.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		log.Warnf("CreateUser: failed to create %q: %v", req.Username, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "User created successfully",
		"data":    user,
	})
}

// UpdateUser 更新账号资料，管理员不能把自己降级。
func (h *UserHandler) UpdateUser(c *gin.Context) {
	claims, ok := getClaimsFromContext(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !bindStrictJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(claims.UserID, userID, service.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		log.Warnf("UpdateUser: failed to update %d: %v", userID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "User updated successfully",
		"data":    user,
	})
}

// ToggleUserStatus 切换账号启用/停用，自己不能停用自己。
func (h *UserHandler) ToggleUserStatus(c *gin.Context) {
	claims, ok := getClaimsFromContext(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.ToggleStatus(claims.UserID, userID)
	if err != nil {
		log.Warnf("ToggleUserStatus: failed for %d: %v", userID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "User status updated successfully",
		"data":    user,
	})
}

// ResetUserPassword 重置为初始密码并重新标记首登。
func (h *UserHandler) ResetUserPassword(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.ResetPassword(userID); err != nil {
		log.Warnf("ResetUserPassword: failed for %d: %v", userID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Password reset successfully",
	})
}

// DeleteUser 删除账号，自己不能删除自己。
func (h *UserHandler) DeleteUser(c *gin.Context) {
	claims, ok := getClaimsFromContext(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(claims.UserID, userID); err != nil {
		log.Warnf("DeleteUser: failed for %d: %v", userID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "User deleted successfully",
	})
}
