package repository

import (
	"fmt"
	"time"

	"actc_portal_go/internal/model"

	"gorm.io/gorm"
)

// EventFilter 是活动列表查询条件。
// ExcludeDrafts 供公开列表使用，与单条公开查询同一口径：草稿不可见。
type EventFilter struct {
	Type          string
	Status        string
	Upcoming      bool
	Search        string
	ExcludeDrafts bool
	Page          int
	Limit         int
}

// EventStats 是管理端的活动聚合统计。
type EventStats struct {
	ByStatus map[string]int64 `json:"byStatus"`
	ByType   map[string]int64 `json:"byType"`
}

// EventRepository 接口定义了活动数据的持久化操作。
// Register/Unregister 用条件 UPDATE 表达状态机约束，依赖数据库的
// 单行原子性，不开显式事务。
type EventRepository interface {
	Create(event *model.Event) error
	FindByID(eventID uint) (*model.Event, error)
	FindByIDs(ids []uint) ([]model.Event, error)
	Update(event *model.Event) error
	Delete(eventID uint) error
	List(filter EventFilter) ([]model.Event, int64, error)
	IncrementViews(eventID uint) error
	IncrementDownloads(eventID uint) error
	Register(eventID uint) (bool, error)
	Unregister(eventID uint) (bool, error)
	BatchUpdateStatus(ids []uint, status string) (int64, error)
	BatchDelete(ids []uint) (int64, error)
	Stats() (*EventStats, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建一个新的 EventRepository 实例。
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(event *model.Event) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}
	return r.db.Create(event).Error
}

func (r *eventRepository) FindByID(eventID uint) (*model.Event, error) {
	var event model.Event
	if err := r.db.First(&event, eventID).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByIDs(ids []uint) ([]model.Event, error) {
	var items []model.Event
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *eventRepository) Update(event *model.Event) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}
	if event.ID == 0 {
		return fmt.Errorf("event id is required")
	}
	return r.db.Save(event).Error
}

func (r *eventRepository) Delete(eventID uint) error {
	tx := r.db.Delete(&model.Event{}, eventID)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List 按条件分页查询，按活动日期升序（最近的在前）。
func (r *eventRepository) List(filter EventFilter) ([]model.Event, int64, error) {
	query := r.db.Model(&model.Event{})

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ExcludeDrafts {
		query = query.Where("status <> ?", model.EventStatusDraft)
	}
	if filter.Upcoming {
		query = query.Where("date >= ?", time.Now())
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"title LIKE ? OR description LIKE ? OR instructor_name LIKE ? OR location LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Event{}, 0, nil
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}

	var items []model.Event
	err := query.Order("date ASC, created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *eventRepository) IncrementViews(eventID uint) error {
	return r.db.Model(&model.Event{}).
		Where("id = ?", eventID).
		Update("views", gorm.Expr("views + 1")).Error
}

func (r *eventRepository) IncrementDownloads(eventID uint) error {
	return r.db.Model(&model.Event{}).
		Where("id = ?", eventID).
		Update("downloads", gorm.Expr("downloads + 1")).Error
}

// Register 在报名开放且未满员时把报名数加一。
// WHERE 条件把状态检查和容量上限压进同一条 UPDATE，满员与关闭一律
// RowsAffected=0，由 service 层再读一次区分原因。
func (r *eventRepository) Register(eventID uint) (bool, error) {
	tx := r.db.Model(&model.Event{}).
		Where("id = ? AND status = ?", eventID, model.EventStatusRegistrationOpen).
		Where("capacity IS NULL OR registered_count < capacity").
		Update("registered_count", gorm.Expr("registered_count + 1"))
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// Unregister 在报名开放且计数大于零时把报名数减一，计数永不为负。
func (r *eventRepository) Unregister(eventID uint) (bool, error) {
	tx := r.db.Model(&model.Event{}).
		Where("id = ? AND status = ? AND registered_count > 0", eventID, model.EventStatusRegistrationOpen).
		Update("registered_count", gorm.Expr("registered_count - 1"))
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *eventRepository) BatchUpdateStatus(ids []uint, status string) (int64, error) {
	tx := r.db.Model(&model.Event{}).
		Where("id IN ?", ids).
		Update("status", status)
	return tx.RowsAffected, tx.Error
}

func (r *eventRepository) BatchDelete(ids []uint) (int64, error) {
	tx := r.db.Where("id IN ?", ids).Delete(&model.Event{})
	return tx.RowsAffected, tx.Error
}

// Stats 按状态和类别分组统计。
func (r *eventRepository) Stats() (*EventStats, error) {
	type row struct {
		Key   string
		Count int64
	}

	var byStatus []row
	err := r.db.Model(&model.Event{}).
		Select("status AS `key`, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, err
	}

	var byType []row
	err = r.db.Model(&model.Event{}).
		Select("type AS `key`, COUNT(*) AS count").
		Group("type").
		Scan(&byType).Error
	if err != nil {
		return nil, err
	}

	stats := &EventStats{
		ByStatus: make(map[string]int64, len(byStatus)),
		ByType:   make(map[string]int64, len(byType)),
	}
	for _, rw := range byStatus {
		stats.ByStatus[rw.Key] = rw.Count
	}
	for _, rw := range byType {
		stats.ByType[rw.Key] = rw.Count
	}
	return stats, nil
}
