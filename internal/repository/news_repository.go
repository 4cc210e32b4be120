package repository

import (
	"fmt"

	"actc_portal_go/internal/model"

	"gorm.io/gorm"
)

// NewsFilter 是新闻列表查询条件。
// Status 为空表示不过滤状态（管理端）；公开端固定传 published。
type NewsFilter struct {
	Status   string
	Featured *bool
	Tag      string
	Search   string
	Page     int
	Limit    int
}

// NewsRepository 接口定义了新闻数据的持久化操作。
type NewsRepository interface {
	Create(news *model.News) error
	FindByID(newsID uint) (*model.News, error)
	FindByIDs(ids []uint) ([]model.News, error)
	Update(news *model.News) error
	Delete(newsID uint) error
	List(filter NewsFilter) ([]model.News, int64, error)
	Trending(limit int) ([]model.News, error)
	IncrementViewCount(newsID uint) error
	SetViewCountByAnalyticsID(analyticsID string, count int64) (bool, error)
	BatchUpdateStatus(ids []uint, status string) (int64, error)
	BatchSetFeatured(ids []uint, featured bool) (int64, error)
	BatchDelete(ids []uint) (int64, error)
	CountByStatus() (map[string]int64, error)
}

type newsRepository struct {
	db *gorm.DB
}

// NewNewsRepository 创建一个新的 NewsRepository 实例。
func NewNewsRepository(db *gorm.DB) NewsRepository {
	return &newsRepository{db: db}
}

func (r *newsRepository) Create(news *model.News) error {
	if news == nil {
		return fmt.Errorf("news is nil")
	}
	return r.db.Create(news).Error
}

func (r *newsRepository) FindByID(newsID uint) (*model.News, error) {
	var news model.News
	if err := r.db.First(&news, newsID).Error; err != nil {
		return nil, err
	}
	return &news, nil
}

func (r *newsRepository) FindByIDs(ids []uint) ([]model.News, error) {
	var items []model.News
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Update 以整行写回的方式更新新闻。
// 调用方（service 层）负责先读出记录并套用变更，保证系统字段不被覆盖。
func (r *newsRepository) Update(news *model.News) error {
	if news == nil {
		return fmt.Errorf("news is nil")
	}
	if news.ID == 0 {
		return fmt.Errorf("news id is required")
	}
	return r.db.Save(news).Error
}

func (r *newsRepository) Delete(newsID uint) error {
	tx := r.db.Delete(&model.News{}, newsID)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List 按条件分页查询，按发布时间倒序。
func (r *newsRepository) List(filter NewsFilter) ([]model.News, int64, error) {
	query := r.db.Model(&model.News{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}
	if filter.Tag != "" {
		// 逗号分隔存储，用包裹匹配避免前缀误中
		query = query.Where("CONCAT(',', tags, ',') LIKE ?", "%,"+filter.Tag+",%")
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.News{}, 0, nil
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}

	var items []model.News
	err := query.Order("publish_date DESC, created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Trending 返回已发布新闻中浏览量最高的若干条。
func (r *newsRepository) Trending(limit int) ([]model.News, error) {
	if limit <= 0 {
		limit = 10
	}
	var items []model.News
	err := r.db.Where("status = ?", model.NewsStatusPublished).
		Order("view_count DESC, publish_date DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// IncrementViewCount 原子自增浏览量。
func (r *newsRepository) IncrementViewCount(newsID uint) error {
	return r.db.Model(&model.News{}).
		Where("id = ?", newsID).
		Update("view_count", gorm.Expr("view_count + 1")).Error
}

// SetViewCountByAnalyticsID 用外部分析数据覆盖浏览量，后写覆盖先写。
// 返回是否确实匹配到记录。
func (r *newsRepository) SetViewCountByAnalyticsID(analyticsID string, count int64) (bool, error) {
	tx := r.db.Model(&model.News{}).
		Where("analytics_id = ?", analyticsID).
		Update("view_count", count)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *newsRepository) BatchUpdateStatus(ids []uint, status string) (int64, error) {
	tx := r.db.Model(&model.News{}).
		Where("id IN ?", ids).
		Update("status", status)
	return tx.RowsAffected, tx.Error
}

func (r *newsRepository) BatchSetFeatured(ids []uint, featured bool) (int64, error) {
	tx := r.db.Model(&model.News{}).
		Where("id IN ?", ids).
		Update("featured", featured)
	return tx.RowsAffected, tx.Error
}

func (r *newsRepository) BatchDelete(ids []uint) (int64, error) {
	tx := r.db.Where("id IN ?", ids).Delete(&model.News{})
	return tx.RowsAffected, tx.Error
}

// CountByStatus 按状态统计数量，供管理端列表展示。
func (r *newsRepository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.Model(&model.News{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int64, len(rows))
	for _, rw := range rows {
		stats[rw.Status] = rw.Count
	}
	return stats, nil
}
