package handler

import (
	"net/http"

	"actc_portal_go/internal/model"
	"actc_portal_go/internal/repository"
	"actc_portal_go/internal/service"
	"actc_portal_go/pkg/log"
	"actc_portal_go/pkg/upload"

	"github.com/gin-gonic/gin"
)

// 活动上传限额：图片与讲师照片 5MB，课件附件 20MB。
const (
	maxEventImageSize = 5 << 20
	maxEventFileSize  = 20 << 20
)

// 活动 multipart 表单的字段允许清单。
var (
	eventFormValues = []string{
		"title", "type", "description", "shortDescription", "date", "endDate",
		"location", "virtualLocation", "link", "capacity", "status", "tags",
		"requirements",
		"instructorName", "instructorTitle", "instructorCompany",
		"instructorBio", "instructorExpertise", "instructorLinkedin",
		"instructorTwitter", "instructorWebsite",
		"priceAmount", "priceCurrency", "isFree",
		"removeImage", "removeFile",
	}
	eventFormFiles = []string{"image", "file", "instructorPhoto"}
)

// EventHandler 负责活动域相关 HTTP 接口。
type EventHandler struct {
	eventService service.EventService
	uploads      *upload.Manager
}

// NewEventHandler 创建 EventHandler。
func NewEventHandler(eventService service.EventService, uploads *upload.Manager) *EventHandler {
	return &EventHandler{eventService: eventService, uploads: uploads}
}

// InstructorResponse 把讲师专长的逗号分隔字符串转成数组。
type InstructorResponse struct {
	model.Instructor
	Expertise []string `json:"expertise"`
}

// EventResponse 在模型之上转换标签与讲师专长为数组。
type EventResponse struct {
	model.Event
	Instructor InstructorResponse `json:"instructor"`
	Tags       []string           `json:"tags"`
}

func newEventResponse(e model.Event) EventResponse {
	return EventResponse{
		Event: e,
		Instructor: InstructorResponse{
			Instructor: e.Instructor,
			Expertise:  service.SplitCSV(e.Instructor.Expertise),
		},
		Tags: service.SplitCSV(e.Tags),
	}
}

func newEventResponseList(items []model.Event) []EventResponse {
	out := make([]EventResponse, 0, len(items))
	for _, e := range items {
		out = append(out, newEventResponse(e))
	}
	return out
}

// ListEvents 公开活动列表，按活动日期升序，草稿不返回。
func (h *EventHandler) ListEvents(c *gin.Context) {
	page, limit := parsePagination(c, 10)
	filter := repository.EventFilter{
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		Upcoming: c.Query("upcoming") == "true",
		Search:   c.Query("search"),
		Page:     page,
		Limit:    limit,
	}

	items, total, err := h.eventService.ListPublic(filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Events retrieved successfully",
		"data": gin.H{
			"items": newEventResponseList(items),
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// GetEvent 公开读取单个活动并计一次浏览。
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	event, err := h.eventService.GetPublic(eventID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Event retrieved successfully",
		"data":    newEventResponse(*event),
	})
}

// RegisterEvent 活动报名，仅在报名开放且未满员时成功。
func (h *EventHandler) RegisterEvent(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	event, err := h.eventService.Register(eventID)
	if err != nil {
		log.Warnf("RegisterEvent: failed for %d: %v", eventID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Registered successfully",
		"data": gin.H{
			"registeredCount": event.RegisteredCount,
			"capacity":        event.Capacity,
		},
	})
}

// UnregisterEvent 取消报名，计数永不为负。
func (h *EventHandler) UnregisterEvent(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	event, err := h.eventService.Unregister(eventID)
	if err != nil {
		log.Warnf("UnregisterEvent: failed for %d: %v", eventID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Unregistered successfully",
		"data": gin.H{
			"registeredCount": event.RegisteredCount,
			"capacity":        event.Capacity,
		},
	})
}

// DownloadEventFile 以原始文件名下发活动附件并计一次下载。
func (h *EventHandler) DownloadEventFile(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	download, err := h.eventService.GetDownload(eventID)
	if err != nil {
		fail(c, err)
		return
	}

	if download.MimeType != "" {
		c.Header("Content-Type", download.MimeType)
	}
	c.FileAttachment(download.DiskPath, download.OriginalName)
}

// CreateEvent 创建活动（multipart）。
func (h *EventHandler) CreateEvent(c *gin.Context) {
	input, ok := h.bindEventForm(c)
	if !ok {
		return
	}

	event, err := h.eventService.Create(*input)
	if err != nil {
		log.Warnf("CreateEvent: %v", err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "Event created successfully",
		"data":    newEventResponse(*event),
	})
}

// UpdateEvent 更新活动（multipart）。
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	input, ok := h.bindEventForm(c)
	if !ok {
		return
	}

	event, err := h.eventService.Update(eventID, *input)
	if err != nil {
		log.Warnf("UpdateEvent: failed for %d: %v", eventID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Event updated successfully",
		"data":    newEventResponse(*event),
	})
}

// DeleteEvent 删除活动并回收其文件。
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.eventService.Delete(eventID); err != nil {
		log.Warnf("DeleteEvent: failed for %d: %v", eventID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Event deleted successfully",
	})
}

// AdminListEvents 管理端活动列表，附按状态/类别的统计。
func (h *EventHandler) AdminListEvents(c *gin.Context) {
	page, limit := parsePagination(c, 10)
	filter := repository.EventFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}

	items, total, err := h.eventService.List(filter)
	if err != nil {
		fail(c, err)
		return
	}
	stats, err := h.eventService.Stats()
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Events retrieved successfully",
		"data": gin.H{
			"items": newEventResponseList(items),
			"total": total,
			"page":  page,
			"limit": limit,
			"stats": stats,
		},
	})
}

// BatchEventsRequest 是批量操作请求体。
type BatchEventsRequest struct {
	IDs    []uint `json:"ids"`
	Action string `json:"action"`
}

// BatchEvents 批量发布/取消/删除。
func (h *EventHandler) BatchEvents(c *gin.Context) {
	var req BatchEventsRequest
	if !bindStrictJSON(c, &req) {
		return
	}

	affected, err := h.eventService.Batch(req.Action, req.IDs)
	if err != nil {
		log.Warnf("BatchEvents: action %q failed: %v", req.Action, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Batch operation completed",
		"data":    gin.H{"affected": affected},
	})
}

// bindEventForm 解析活动的 multipart 表单并保存上传文件。
// 返回 false 时错误响应已写出，已落盘的文件已清理。
func (h *EventHandler) bindEventForm(c *gin.Context) (*service.EventInput, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "Invalid multipart form")
		return nil, false
	}
	fv, err := parseStrictForm(form, eventFormValues, eventFormFiles)
	if err != nil {
		badRequest(c, err.Error())
		return nil, false
	}

	input := &service.EventInput{
		Title:               fv.String("title"),
		Type:                fv.String("type"),
		Description:         fv.String("description"),
		ShortDesc:           fv.String("shortDescription"),
		Location:            fv.String("location"),
		VirtualLocation:     fv.String("virtualLocation"),
		Link:                fv.String("link"),
		Status:              fv.String("status"),
		Tags:                fv.String("tags"),
		Requirements:        fv.String("requirements"),
		InstructorName:      fv.String("instructorName"),
		InstructorTitle:     fv.String("instructorTitle"),
		InstructorCompany:   fv.String("instructorCompany"),
		InstructorBio:       fv.String("instructorBio"),
		InstructorExpertise: fv.String("instructorExpertise"),
		InstructorLinkedIn:  fv.String("instructorLinkedin"),
		InstructorTwitter:   fv.String("instructorTwitter"),
		InstructorWebsite:   fv.String("instructorWebsite"),
		PriceCurrency:       fv.String("priceCurrency"),
	}
	if input.Date, err = fv.Time("date"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if input.EndDate, err = fv.Time("endDate"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if input.Capacity, err = fv.Int("capacity"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if input.PriceAmount, err = fv.Float("priceAmount"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if input.PriceIsFree, err = fv.Bool("isFree"); err != nil {
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
		stored, err := h.uploads.Save(c, fh, "image", upload.ImageRule(maxEventImageSize))
		if err != nil {
			fail(c, err)
			return nil, false
		}
		input.Image = stored
	}
	if fh := fv.File("file"); fh != nil {
		stored, err := h.uploads.Save(c, fh, "file", upload.DocumentRule(maxEventFileSize))
		if err != nil {
			h.uploads.Cleanup(input.Image)
			fail(c, err)
			return nil, false
		}
		input.File = stored
	}
	if fh := fv.File("instructorPhoto"); fh != nil {
		stored, err := h.uploads.Save(c, fh, "instructorPhoto", upload.ImageRule(maxEventImageSize))
		if err != nil {
			h.uploads.Cleanup(input.Image, input.File)
			fail(c, err)
			return nil, false
		}
		input.InstructorPhoto = stored
	}
	return input, true
}
