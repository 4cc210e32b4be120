package repository

import (
	"fmt"

	"actc_portal_go/internal/model"

	"gorm.io/gorm"
)

// MemberFilter 是管理端企业会员列表查询条件。
type MemberFilter struct {
	Search         string
	MembershipType string
	Industry       string
	IsActive       *bool
	IsDisplayed    *bool
	SortBy         string
	SortOrder      string
	Page           int
	Limit          int
}

// DisplayedFilter 是公开端展示列表查询条件，skip/limit 语义沿用前端约定。
type DisplayedFilter struct {
	MembershipType string
	Industry       string
	SortBy         string
	Skip           int
	Limit          int
}

// MembershipTypeStat 是按会员级别分组的统计行。
type MembershipTypeStat struct {
	MembershipType string `json:"membershipType"`
	Count          int64  `json:"count"`
	Active         int64  `json:"active"`
	Displayed      int64  `json:"displayed"`
}

// MemberStats 是企业会员总体统计。
type MemberStats struct {
	Total           int64                `json:"total"`
	Active          int64                `json:"active"`
	Displayed       int64                `json:"displayed"`
	MembershipTypes []MembershipTypeStat `json:"membershipTypes"`
}

// MemberRepository 接口定义了企业会员数据的持久化操作。
type MemberRepository interface {
	Create(member *model.CorporateMember) error
	FindByID(memberID uint) (*model.CorporateMember, error)
	Update(member *model.CorporateMember) error
	Delete(memberID uint) error
	List(filter MemberFilter) ([]model.CorporateMember, int64, error)
	ListDisplayed(filter DisplayedFilter) ([]model.CorporateMember, int64, error)
	SetDisplayed(memberID uint, displayed bool, updatedBy uint) error
	SetActive(memberID uint, active bool, updatedBy uint) error
	SetDisplayOrder(memberID uint, order int, updatedBy uint) error
	BatchUpdate(ids []uint, fields map[string]interface{}) (int64, error)
	Stats() (*MemberStats, error)
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository 创建一个新的 MemberRepository 实例。
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(member *model.CorporateMember) error {
	if member == nil {
		return fmt.Errorf("member is nil")
	}
	return r.db.Create(member).Error
}

func (r *memberRepository) FindByID(memberID uint) (*model.CorporateMember, error) {
	var member model.CorporateMember
	if err := r.db.First(&member, memberID).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) Update(member *model.CorporateMember) error {
	if member == nil {
		return fmt.Errorf("member is nil")
	}
	if member.ID == 0 {
		return fmt.Errorf("member id is required")
	}
	return r.db.Save(member).Error
}

func (r *memberRepository) Delete(memberID uint) error {
	tx := r.db.Delete(&model.CorporateMember{}, memberID)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// 管理端允许的排序列，白名单防 SQL 注入。
var memberSortColumns = map[string]string{
	"createdAt":      "created_at",
	"companyName":    "company_name",
	"joinDate":       "join_date",
	"displayOrder":   "display_order",
	"membershipType": "membership_type",
}

// List 管理端分页查询，支持跨公司名/联系人/邮箱的模糊搜索。
func (r *memberRepository) List(filter MemberFilter) ([]model.CorporateMember, int64, error) {
	query := r.db.Model(&model.CorporateMember{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"company_name LIKE ? OR company_name_en LIKE ? OR contact_person LIKE ? OR email LIKE ?",
			like, like, like, like,
		)
	}
	if filter.MembershipType != "" {
		query = query.Where("membership_type = ?", filter.MembershipType)
	}
	if filter.Industry != "" {
		query = query.Where("industry LIKE ?", "%"+filter.Industry+"%")
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsDisplayed != nil {
		query = query.Where("is_displayed = ?", *filter.IsDisplayed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.CorporateMember{}, 0, nil
	}

	column, ok := memberSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.SortOrder == "asc" {
		direction = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var items []model.CorporateMember
	err := query.Order(column + " " + direction).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListDisplayed 公开端展示列表：仅 isActive 且 isDisplayed 的会员。
func (r *memberRepository) ListDisplayed(filter DisplayedFilter) ([]model.CorporateMember, int64, error) {
	query := r.db.Model(&model.CorporateMember{}).
		Where("is_active = ? AND is_displayed = ?", true, true)

	if filter.MembershipType != "" {
		query = query.Where("membership_type = ?", filter.MembershipType)
	}
	if filter.Industry != "" {
		query = query.Where("industry LIKE ?", "%"+filter.Industry+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.CorporateMember{}, 0, nil
	}

	var order string
	switch filter.SortBy {
	case "joinDate":
		order = "join_date DESC"
	case "companyName":
		order = "company_name ASC"
	default:
		order = "display_order ASC, created_at DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	var items []model.CorporateMember
	err := query.Order(order).Offset(skip).Limit(limit).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *memberRepository) SetDisplayed(memberID uint, displayed bool, updatedBy uint) error {
	return r.updateFlags(memberID, map[string]interface{}{
		"is_displayed":  displayed,
		"updated_by_id": updatedBy,
	})
}

func (r *memberRepository) SetActive(memberID uint, active bool, updatedBy uint) error {
	return r.updateFlags(memberID, map[string]interface{}{
		"is_active":     active,
		"updated_by_id": updatedBy,
	})
}

func (r *memberRepository) SetDisplayOrder(memberID uint, order int, updatedBy uint) error {
	return r.updateFlags(memberID, map[string]interface{}{
		"display_order": order,
		"updated_by_id": updatedBy,
	})
}

// updateFlags 不检查受影响行数：值未变化时 MySQL 报告 0 行，
// 不能据此判定记录不存在；存在性由上层先读保证。
func (r *memberRepository) updateFlags(memberID uint, fields map[string]interface{}) error {
	return r.db.Model(&model.CorporateMember{}).
		Where("id = ?", memberID).
		Updates(fields).Error
}

// BatchUpdate 对一组 id 批量写入给定字段。
func (r *memberRepository) BatchUpdate(ids []uint, fields map[string]interface{}) (int64, error) {
	tx := r.db.Model(&model.CorporateMember{}).
		Where("id IN ?", ids).
		Updates(fields)
	return tx.RowsAffected, tx.Error
}

// Stats 按会员级别分组统计，并附带总量/有效/展示三个总数。
func (r *memberRepository) Stats() (*MemberStats, error) {
	stats := &MemberStats{}

	if err := r.db.Model(&model.CorporateMember{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.CorporateMember{}).Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.CorporateMember{}).Where("is_displayed = ?", true).Count(&stats.Displayed).Error; err != nil {
		return nil, err
	}

	err := r.db.Model(&model.CorporateMember{}).
		Select("membership_type, COUNT(*) AS count, " +
			"SUM(CASE WHEN is_active THEN 1 ELSE 0 END) AS active, " +
			"SUM(CASE WHEN is_displayed THEN 1 ELSE 0 END) AS displayed").
		Group("membership_type").
		Order("membership_type ASC").
		Scan(&stats.MembershipTypes).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
