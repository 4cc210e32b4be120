package service

import (
	"errors"
	"time"

	"actc_portal_go/internal/model"
	"actc_portal_go/internal/repository"
	"actc_portal_go/pkg/log"
	"actc_portal_go/pkg/upload"

	"gorm.io/gorm"
)

// EventInput 是活动创建/更新的输入，nil 字段表示不修改。
type EventInput struct {
	Title           *string
	Type            *string
	Description     *string
	ShortDesc       *string
	Date            *time.Time
	EndDate         *time.Time
	Location        *string
	VirtualLocation *string
	Link            *string
	Capacity        *int
	Status          *string
	Tags            *string
	Requirements    *string

	InstructorName      *string
	InstructorTitle     *string
	InstructorCompany   *string
	InstructorBio       *string
	InstructorExpertise *string
	InstructorLinkedIn  *string
	InstructorTwitter   *string
	InstructorWebsite   *string

	PriceAmount   *float64
	PriceCurrency *string
	PriceIsFree   *bool

	Image           *upload.Stored
	File            *upload.Stored
	InstructorPhoto *upload.Stored
	RemoveImage     bool
	RemoveFile      bool
}

// EventDownload 是附件下载接口需要的元数据。
type EventDownload struct {
	DiskPath     string
	OriginalName string
	MimeType     string
}

// EventBatchAction 是批量操作的动作名。
const (
	EventBatchPublish = "publish"
	EventBatchCancel  = "cancel"
	EventBatchDelete  = "delete"
)

// EventService 负责活动的读写、报名计数与附件下载。
type EventService interface {
	Create(input EventInput) (*model.Event, error)
	Update(eventID uint, input EventInput) (*model.Event, error)
	Delete(eventID uint) error
	Get(eventID uint) (*model.Event, error)
	GetPublic(eventID uint) (*model.Event, error)
	List(filter repository.EventFilter) ([]model.Event, int64, error)
	ListPublic(filter repository.EventFilter) ([]model.Event, int64, error)
	Register(eventID uint) (*model.Event, error)
	Unregister(eventID uint) (*model.Event, error)
	GetDownload(eventID uint) (*EventDownload, error)
	Batch(action string, ids []uint) (int64, error)
	Stats() (*repository.EventStats, error)
}

type eventService struct {
	eventRepo repository.EventRepository
	uploads   *upload.Manager
}

// NewEventService 创建 EventService。
func NewEventService(eventRepo repository.EventRepository, uploads *upload.Manager) EventService {
	return &eventService{eventRepo: eventRepo, uploads: uploads}
}

// Create 创建活动。类别归一化后校验枚举，结束时间不得早于开始时间。
func (s *eventService) Create(input EventInput) (*model.Event, error) {
	cleanup := func() { s.uploads.Cleanup(input.Image, input.File, input.InstructorPhoto) }

	if input.Title == nil || *input.Title == "" ||
		input.Type == nil || input.Description == nil || *input.Description == "" ||
		input.Date == nil || input.Location == nil || *input.Location == "" {
		cleanup()
		return nil, ErrInvalidInput
	}
	eventType := normalizeEventType(*input.Type)
	if !validEventType(eventType) {
		cleanup()
		return nil, ErrInvalidInput
	}

	event := &model.Event{
		Title:       *input.Title,
		Type:        eventType,
		Description: *input.Description,
		Date:        *input.Date,
		Location:    *input.Location,
		Status:      model.EventStatusDraft,
		Price:       model.Price{Currency: "TWD", IsFree: true},
	}
	if err := applyEventInput(event, input); err != nil {
		cleanup()
		return nil, err
	}
	if input.Image != nil {
		event.ImageURL = input.Image.Path
	}
	if input.File != nil {
		event.File = storedToAttachment(input.File)
	}
	if input.InstructorPhoto != nil {
		event.Instructor.Photo = input.InstructorPhoto.Path
	}

	if err := s.eventRepo.Create(event); err != nil {
		cleanup()
		log.Errorf("CreateEvent: failed to create: %v", err)
		return nil, ErrInternal
	}
	return event, nil
}

// Update 更新活动。替换文件时落库成功后才删旧文件。
func (s *eventService) Update(eventID uint, input EventInput) (*model.Event, error) {
	cleanup := func() { s.uploads.Cleanup(input.Image, input.File, input.InstructorPhoto) }

	event, err := s.findEvent(eventID)
	if err != nil {
		cleanup()
		return nil, err
	}

	if input.Title != nil && *input.Title != "" {
		event.Title = *input.Title
	}
	if input.Type != nil {
		eventType := normalizeEventType(*input.Type)
		if !validEventType(eventType) {
			cleanup()
			return nil, ErrInvalidInput
		}
		event.Type = eventType
	}
	if input.Description != nil && *input.Description != "" {
		event.Description = *input.Description
	}
	if input.Date != nil {
		event.Date = *input.Date
	}
	if input.Location != nil && *input.Location != "" {
		event.Location = *input.Location
	}
	if err := applyEventInput(event, input); err != nil {
		cleanup()
		return nil, err
	}

	var stale []string
	if input.Image != nil {
		if event.ImageURL != "" {
			stale = append(stale, event.ImageURL)
		}
		event.ImageURL = input.Image.Path
	} else if input.RemoveImage && event.ImageURL != "" {
		stale = append(stale, event.ImageURL)
		event.ImageURL = ""
	}
	if input.File != nil {
		if event.File.Path != "" {
			stale = append(stale, event.File.Path)
		}
		event.File = storedToAttachment(input.File)
	} else if input.RemoveFile && event.File.Path != "" {
		stale = append(stale, event.File.Path)
		event.File = model.Attachment{}
	}
	if input.InstructorPhoto != nil {
		if event.Instructor.Photo != "" {
			stale = append(stale, event.Instructor.Photo)
		}
		event.Instructor.Photo = input.InstructorPhoto.Path
	}

	if err := s.eventRepo.Update(event); err != nil {
		cleanup()
		log.Errorf("UpdateEvent: failed to update %d: %v", eventID, err)
		return nil, ErrInternal
	}
	for _, path := range stale {
		s.uploads.Remove(path)
	}
	return event, nil
}

// Delete 删除活动并回收其图片、附件与讲师照片。
func (s *eventService) Delete(eventID uint) error {
	event, err := s.findEvent(eventID)
	if err != nil {
		return err
	}
	if err := s.eventRepo.Delete(eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		log.Errorf("DeleteEvent: failed to delete %d: %v", eventID, err)
		return ErrInternal
	}
	s.removeEventFiles(event)
	return nil
}

func (s *eventService) Get(eventID uint) (*model.Event, error) {
	return s.findEvent(eventID)
}

// GetPublic 读取单个活动并计一次浏览。
func (s *eventService) GetPublic(eventID uint) (*model.Event, error) {
	event, err := s.findEvent(eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == model.EventStatusDraft {
		return nil, ErrEventNotFound
	}

	if err := s.eventRepo.IncrementViews(eventID); err != nil {
		log.Warnf("GetEvent: failed to increment views for %d: %v", eventID, err)
	} else {
		event.Views++
	}
	return event, nil
}

func (s *eventService) List(filter repository.EventFilter) ([]model.Event, int64, error) {
	items, total, err := s.eventRepo.List(filter)
	if err != nil {
		log.Errorf("ListEvents: %v", err)
		return nil, 0, ErrInternal
	}
	return items, total, nil
}

// ListPublic 公开列表，与 GetPublic 同一口径：草稿一律不可见。
func (s *eventService) ListPublic(filter repository.EventFilter) ([]model.Event, int64, error) {
	filter.ExcludeDrafts = true
	return s.List(filter)
}

// Register 报名。条件 UPDATE 未命中时再读一次区分原因：
// 不存在、未开放、已满员。
func (s *eventService) Register(eventID uint) (*model.Event, error) {
	ok, err := s.eventRepo.Register(eventID)
	if err != nil {
		log.Errorf("RegisterEvent: failed for %d: %v", eventID, err)
		return nil, ErrInternal
	}
	if ok {
		return s.findEvent(eventID)
	}

	event, err := s.findEvent(eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != model.EventStatusRegistrationOpen {
		return nil, ErrRegistrationClosed
	}
	return nil, ErrEventFull
}

// Unregister 取消报名。计数已为零时视为无事可做，直接返回当前状态。
func (s *eventService) Unregister(eventID uint) (*model.Event, error) {
	ok, err := s.eventRepo.Unregister(eventID)
	if err != nil {
		log.Errorf("UnregisterEvent: failed for %d: %v", eventID, err)
		return nil, ErrInternal
	}

	event, err := s.findEvent(eventID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if event.Status != model.EventStatusRegistrationOpen {
			return nil, ErrRegistrationClosed
		}
		// 计数为零：无报名可取消，不算错误
	}
	return event, nil
}

// GetDownload 返回附件下载所需的磁盘路径与元数据，并计一次下载。
func (s *eventService) GetDownload(eventID uint) (*EventDownload, error) {
	event, err := s.findEvent(eventID)
	if err != nil {
		return nil, err
	}
	if event.File.Path == "" {
		return nil, ErrNoAttachment
	}
	diskPath, ok := s.uploads.DiskPath(event.File.Path)
	if !ok {
		return nil, ErrNoAttachment
	}

	if err := s.eventRepo.IncrementDownloads(eventID); err != nil {
		log.Warnf("DownloadEvent: failed to increment downloads for %d: %v", eventID, err)
	}
	return &EventDownload{
		DiskPath:     diskPath,
		OriginalName: event.File.OriginalName,
		MimeType:     event.File.MimeType,
	}, nil
}

// Batch 批量操作：发布、取消、删除。删除会回收文件。
func (s *eventService) Batch(action string, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrInvalidInput
	}

	switch action {
	case EventBatchPublish:
		affected, err := s.eventRepo.BatchUpdateStatus(ids, model.EventStatusPublished)
		if err != nil {
			log.Errorf("BatchEvents: publish failed: %v", err)
			return 0, ErrInternal
		}
		return affected, nil
	case EventBatchCancel:
		affected, err := s.eventRepo.BatchUpdateStatus(ids, model.EventStatusCancelled)
		if err != nil {
			log.Errorf("BatchEvents: cancel failed: %v", err)
			return 0, ErrInternal
		}
		return affected, nil
	case EventBatchDelete:
		rows, err := s.eventRepo.FindByIDs(ids)
		if err != nil {
			log.Errorf("BatchEvents: failed to load events for delete: %v", err)
			return 0, ErrInternal
		}
		affected, err := s.eventRepo.BatchDelete(ids)
		if err != nil {
			log.Errorf("BatchEvents: delete failed: %v", err)
			return 0, ErrInternal
		}
		for i := range rows {
			s.removeEventFiles(&rows[i])
		}
		return affected, nil
	default:
		return 0, ErrInvalidInput
	}
}

func (s *eventService) Stats() (*repository.EventStats, error) {
	stats, err := s.eventRepo.Stats()
	if err != nil {
		log.Errorf("EventStats: %v", err)
		return nil, ErrInternal
	}
	return stats, nil
}

// applyEventInput 套用创建与更新共用的可选字段。
func applyEventInput(event *model.Event, input EventInput) error {
	if input.Status != nil {
		if !validEventStatus(*input.Status) {
			return ErrInvalidInput
		}
		event.Status = *input.Status
	}
	if input.EndDate != nil {
		if input.EndDate.Before(event.Date) {
			return ErrInvalidInput
		}
		event.EndDate = input.EndDate
	}
	if event.EndDate != nil && event.EndDate.Before(event.Date) {
		return ErrInvalidInput
	}
	if input.Capacity != nil {
		if *input.Capacity < 0 {
			return ErrInvalidInput
		}
		event.Capacity = input.Capacity
	}
	if input.ShortDesc != nil {
		event.ShortDesc = *input.ShortDesc
	}
	if input.VirtualLocation != nil {
		event.VirtualLocation = *input.VirtualLocation
	}
	if input.Link != nil {
		event.Link = *input.Link
	}
	if input.Tags != nil {
		event.Tags = NormalizeTags(*input.Tags)
	}
	if input.Requirements != nil {
		event.Requirements = *input.Requirements
	}

	if input.InstructorName != nil {
		event.Instructor.Name = *input.InstructorName
	}
	if input.InstructorTitle != nil {
		event.Instructor.Title = *input.InstructorTitle
	}
	if input.InstructorCompany != nil {
		event.Instructor.Company = *input.InstructorCompany
	}
	if input.InstructorBio != nil {
		event.Instructor.Bio = *input.InstructorBio
	}
	if input.InstructorExpertise != nil {
		event.Instructor.Expertise = NormalizeList(*input.InstructorExpertise)
	}
	if input.InstructorLinkedIn != nil {
		event.Instructor.LinkedIn = *input.InstructorLinkedIn
	}
	if input.InstructorTwitter != nil {
		event.Instructor.Twitter = *input.InstructorTwitter
	}
	if input.InstructorWebsite != nil {
		event.Instructor.Website = *input.InstructorWebsite
	}

	if input.PriceAmount != nil {
		if *input.PriceAmount < 0 {
			return ErrInvalidInput
		}
		event.Price.Amount = *input.PriceAmount
	}
	if input.PriceCurrency != nil && *input.PriceCurrency != "" {
		if !validCurrency(*input.PriceCurrency) {
			return ErrInvalidInput
		}
		event.Price.Currency = *input.PriceCurrency
	}
	if input.PriceIsFree != nil {
		event.Price.IsFree = *input.PriceIsFree
	}
	if event.Price.Amount > 0 && input.PriceIsFree == nil {
		event.Price.IsFree = false
	}
	return nil
}

// normalizeEventType 兼容历史数据里的 "others" 写法。
func normalizeEventType(eventType string) string {
	if eventType == "others" {
		return "other"
	}
	return eventType
}

func validEventType(eventType string) bool {
	for _, t := range model.EventTypes {
		if eventType == t {
			return true
		}
	}
	return false
}

func validCurrency(currency string) bool {
	switch currency {
	case "TWD", "USD", "EUR", "JPY":
		return true
	}
	return false
}

func validEventStatus(status string) bool {
	for _, st := range model.EventStatuses {
		if status == st {
			return true
		}
	}
	return false
}

func (s *eventService) removeEventFiles(event *model.Event) {
	if event.ImageURL != "" {
		s.uploads.Remove(event.ImageURL)
	}
	if event.File.Path != "" {
		s.uploads.Remove(event.File.Path)
	}
	if event.Instructor.Photo != "" {
		s.uploads.Remove(event.Instructor.Photo)
	}
}

func (s *eventService) findEvent(eventID uint) (*model.Event, error) {
	event, err := s.eventRepo.FindByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		log.Errorf("failed to query event %d: %v", eventID, err)
		return nil, ErrInternal
	}
	return event, nil
}
