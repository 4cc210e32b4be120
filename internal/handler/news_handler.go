package handler

import (
	"net/http"
	"strconv"

	"actc_portal_go/internal/model"
	"actc_portal_go/internal/repository"
	"actc_portal_go/internal/service"
	"actc_portal_go/pkg/log"
	"actc_portal_go/pkg/upload"

	"github.com/gin-gonic/gin"
)

// 新闻上传限额：图片与附件各 5MB。
const (
	maxNewsImageSize = 5 << 20
	maxNewsFileSize  = 5 << 20
)

// 新闻 multipart 表单的字段允许清单。
var (
	newsFormValues = []string{
		"title", "content", "description", "videoUrl", "link",
		"publishDate", "status", "tags", "featured",
		"removeImage", "removeFile",
	}
	newsFormFiles = []string{"image", "file"}
)

// NewsHandler 负责新闻域相关 HTTP 接口。
// 公开路由只暴露已发布内容；管理路由由路由组上的中间件保护。
type NewsHandler struct {
	newsService      service.NewsService
	analyticsService service.AnalyticsService
	uploads          *upload.Manager
}

// NewNewsHandler 创建 NewsHandler。
func NewNewsHandler(newsService service.NewsService, analyticsService service.AnalyticsService, uploads *upload.Manager) *NewsHandler {
	return &NewsHandler{
		newsService:      newsService,
		analyticsService: analyticsService,
		uploads:          uploads,
	}
}

// NewsResponse 在模型之上把逗号分隔的标签转成数组。
type NewsResponse struct {
	model.News
	Tags []string `json:"tags"`
}

func newNewsResponse(n model.News) NewsResponse {
	return NewsResponse{News: n, Tags: service.SplitCSV(n.Tags)}
}

func newNewsResponseList(items []model.News) []NewsResponse {
	out := make([]NewsResponse, 0, len(items))
	for _, n := range items {
		out = append(out, newNewsResponse(n))
	}
	return out
}

// ListNews 公开新闻列表，只含已发布内容。
func (h *NewsHandler) ListNews(c *gin.Context) {
	page, limit := parsePagination(c, 10)
	filter := repository.NewsFilter{
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "Invalid featured parameter")
			return
		}
		filter.Featured = &featured
	}

	items, total, err := h.newsService.ListPublic(filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "News retrieved successfully",
		"data": gin.H{
			"items": newNewsResponseList(items),
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// GetTrendingNews 返回浏览量最高的已发布新闻。
func (h *NewsHandler) GetTrendingNews(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	items, err := h.analyticsService.Trending(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Trending news retrieved successfully",
		"data":    newNewsResponseList(items),
	})
}

// GetNews 公开读取单条新闻并计一次浏览。
func (h *NewsHandler) GetNews(c *gin.Context) {
	newsID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	news, err := h.newsService.GetPublic(newsID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "News retrieved successfully",
		"data":    newNewsResponse(*news),
	})
}

// AdminListNews 管理端新闻列表，含全部状态与状态统计。
func (h *NewsHandler) AdminListNews(c *gin.Context) {
	page, limit := parsePagination(c, 10)
	filter := repository.NewsFilter{
		Status: c.Query("status"),
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "Invalid featured parameter")
			return
		}
		filter.Featured = &featured
	}

	result, err := h.newsService.ListAdmin(filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "News retrieved successfully",
		"data": gin.H{
			"items":  newNewsResponseList(result.Items),
			"total":  result.Total,
			"page":   page,
			"limit":  limit,
			"counts": result.Counts,
		},
	})
}

// AdminGetNews 管理端读取单条新闻，任意状态。
func (h *NewsHandler) AdminGetNews(c *gin.Context) {
	newsID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	news, err := h.newsService.GetAdmin(newsID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "News retrieved successfully",
		"data":    newNewsResponse(*news),
	})
}

// CreateNews 创建新闻（multipart）。
func (h *NewsHandler) CreateNews(c *gin.Context) {
	claims, ok := getClaimsFromContext(c)
	if !ok {
		return
	}

	input, ok := h.bindNewsForm(c)
	if !ok {
		return
	}

	news, err := h.newsService.Create(claims.UserID, *input)
	if err != nil {
		log.Warnf("CreateNews: %v", err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "News created successfully",
		"data":    newNewsResponse(*news),
	})
}

// UpdateNews 更新新闻（multipart）。
func (h *NewsHandler) UpdateNews(c *gin.Context) {
	newsID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	input, ok := h.bindNewsForm(c)
	if !ok {
		return
	}

	news, err := h.newsService.Update(newsID, *input)
	if err != nil {
		log.Warnf("UpdateNews: failed for %d: %v", newsID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "News updated successfully",
		"data":    newNewsResponse(*news),
	})
}

// DeleteNews 删除新闻并回收其文件。
func (h *NewsHandler) DeleteNews(c *gin.Context) {
	newsID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.newsService.Delete(newsID); err != nil {
		log.Warnf("DeleteNews: failed for %d: %v", newsID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "News deleted successfully",
	})
}

// BatchNewsRequest 是批量操作请求体。
type BatchNewsRequest struct {
	IDs    []uint `json:"ids"`
	Action string `json:"action"`
}

// BatchNews 批量发布/转草稿/置顶/取消置顶/删除。
func (h *NewsHandler) BatchNews(c *gin.Context) {
	var req BatchNewsRequest
	if !bindStrictJSON(c, &req) {
		return
	}

	affected, err := h.newsService.Batch(req.Action, req.IDs)
	if err != nil {
		log.Warnf("BatchNews: action %q failed: %v", req.Action, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Batch operation completed",
		"data":    gin.H{"affected": affected},
	})
}

// UpdateAnalytics 同步触发一次外部浏览量刷新。
func (h *NewsHandler) UpdateAnalytics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	updated, err := h.analyticsService.RefreshViewCounts(c.Request.Context(), days)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "View counts updated successfully",
		"data":    gin.H{"updated": updated},
	})
}

// bindNewsForm 解析新闻的 multipart 表单并保存上传文件。
// 返回 false 时错误响应已写出，已落盘的文件已清理。
func (h *NewsHandler) bindNewsForm(c *gin.Context) (*service.NewsInput, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "Invalid multipart form")
		return nil, false
	}
	fv, err := parseStrictForm(form, newsFormValues, newsFormFiles)
	if err != nil {
		badRequest(c, err.Error())
		return nil, false
	}

	input := &service.NewsInput{
		Title:       fv.String("title"),
		Content:     fv.String("content"),
		Description: fv.String("description"),
		VideoURL:    fv.String("videoUrl"),
		Link:        fv.String("link"),
		Status:      fv.String("status"),
		Tags:        fv.String("tags"),
	}
	if input.PublishDate, err = fv.Time("publishDate"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if input.Featured, err = fv.Bool("featured"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if input.RemoveImage, err = fv.BoolFlag("removeImage"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if input.RemoveFile, err = fv.BoolFlag("removeFile"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}

	if fh := fv.File("image"); fh != nil {
		stored, err := h.uploads.Save(c, fh, "image", upload.ImageRule(maxNewsImageSize))
		if err != nil {
			fail(c, err)
			return nil, false
		}
		input.Image = stored
	}
	if fh := fv.File("file"); fh != nil {
		stored, err := h.uploads.Save(c, fh, "file", upload.DocumentRule(maxNewsFileSize))
		if err != nil {
			h.uploads.Cleanup(input.Image)
			fail(c, err)
			return nil, false
		}
		input.File = stored
	}
	return input, true
}
