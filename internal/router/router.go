package router

import (
	"net/http"

	"actc_portal_go/internal/config"
	"actc_portal_go/internal/handler"
	"actc_portal_go/internal/middleware"
	"actc_portal_go/internal/service"
	"actc_portal_go/pkg/token"
	"actc_portal_go/pkg/upload"

	"github.com/gin-gonic/gin"
)

// Handlers 汇集路由需要的所有 Handler。
type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	News   *handler.NewsHandler
	Event  *handler.EventHandler
	Member *handler.MemberHandler
}

// SetupRouter 配置 Gin 引擎、静态文件服务与全部 API 路由。
// 路由分三层：公开、登录后（AuthMiddleware）、管理员
// （AuthMiddleware + AdminAuthMiddleware）。
func SetupRouter(
	cfg *config.Config,
	h Handlers,
	jwtManager *token.JWTManager,
	authService service.AuthService,
	uploads *upload.Manager,
) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 上传文件的静态访问，路径与记录里的 /uploads/... 一致
	r.Static("/uploads", uploads.BaseDir())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	authed := middleware.AuthMiddleware(jwtManager)
	adminOnly := middleware.AdminAuthMiddleware(authService)

	// ====== 认证 ======
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/change-password", authed, h.Auth.ChangePassword)
		auth.POST("/force-change-password", authed, h.Auth.ForceChangePassword)
		auth.GET("/verify", authed, h.Auth.Verify)
	}

	// ====== 账号管理（全部管理员） ======
	users := api.Group("/users", authed, adminOnly)
	{
		users.GET("", h.User.ListUsers)
		users.POST("", h.User.CreateUser)
		users.GET("/:id", h.User.GetUser)
		users.PUT("/:id", h.User.UpdateUser)
		users.PATCH("/:id/toggle-status", h.User.ToggleUserStatus)
		users.PATCH("/:id/reset-password", h.User.ResetUserPassword)
		users.DELETE("/:id", h.User.DeleteUser)
	}

	// ====== 新闻 ======
	news := api.Group("/news")
	{
		news.GET("", h.News.ListNews)
		news.GET("/trending", h.News.GetTrendingNews)

		admin := news.Group("/admin", authed, adminOnly)
		{
			admin.GET("", h.News.AdminListNews)
			admin.POST("", h.News.CreateNews)
			admin.POST("/batch", h.News.BatchNews)
			admin.POST("/update-analytics", h.News.UpdateAnalytics)
			admin.GET("/:id", h.News.AdminGetNews)
			admin.PUT("/:id", h.News.UpdateNews)
			admin.DELETE("/:id", h.News.DeleteNews)
		}

		news.GET("/:id", h.News.GetNews)
	}

	// ====== 活动 ======
	events := api.Group("/events")
	{
		events.GET("", h.Event.ListEvents)

		admin := events.Group("/admin", authed, adminOnly)
		{
			admin.GET("", h.Event.AdminListEvents)
			admin.POST("/batch", h.Event.BatchEvents)
		}

		events.POST("", authed, h.Event.CreateEvent)
		events.GET("/:id", h.Event.GetEvent)
		events.PUT("/:id", authed, h.Event.UpdateEvent)
		events.DELETE("/:id", authed, h.Event.DeleteEvent)
		events.POST("/:id/register", h.Event.RegisterEvent)
		events.POST("/:id/unregister", h.Event.UnregisterEvent)
		events.GET("/:id/download", h.Event.DownloadEventFile)
	}

	// ====== 企业会员 ======
	members := api.Group("/corporate-members")
	{
		members.GET("/displayed", h.Member.ListDisplayedMembers)
		members.GET("/stats", h.Member.GetMemberStats)

		admin := members.Group("/admin", authed, adminOnly)
		{
			admin.GET("", h.Member.AdminListMembers)
			admin.POST("", h.Member.CreateMember)
			admin.PATCH("/batch", h.Member.BatchMembers)
			admin.GET("/:id", h.Member.AdminGetMember)
			admin.PUT("/:id", h.Member.UpdateMember)
			admin.PATCH("/:id/toggle-display", h.Member.ToggleMemberDisplay)
			admin.PATCH("/:id/toggle-active", h.Member.ToggleMemberActive)
			admin.PATCH("/:id/display-order", h.Member.SetMemberDisplayOrder)
			admin.DELETE("/:id", h.Member.DeleteMember)
		}
	}

	return r
}
