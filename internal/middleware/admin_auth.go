package middleware

import (
	"errors"
	"net/http"

	"actc_portal_go/internal/model"
	"actc_portal_go/internal/service"
	"actc_portal_go/pkg/token"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware 是管理员认证中间件，用于保护管理端接口。
// 该中间件必须在 AuthMiddleware 之后执行，因为管理员权限依赖于用户身份认证。
//
// 角色以数据库为准而不是令牌里的快照：管理员被降级或停用后，
// 已签发的令牌立即失效，不用等到过期。
func AdminAuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从 AuthMiddleware 中获取 claims
		claimsVal, exists := c.Get("claims")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "No token provided.",
			})
			return
		}
		claims, ok := claimsVal.(*token.CustomClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "Internal server error",
			})
			return
		}

		// 回表确认用户仍然存在且未被停用
		user, err := authService.GetUser(claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"code":    http.StatusUnauthorized,
					"message": "Invalid token.",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "Internal server error",
			})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Account suspended.",
			})
			return
		}
		if user.Role != model.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    http.StatusForbidden,
				"message": "Forbidden: Only admin can access this resource",
			})
			return
		}

		// 用数据库里的最新身份覆盖令牌快照
		claims.Role = user.Role
		c.Set("claims", claims)
		c.Set("user", user)

		c.Next()
	}
}
