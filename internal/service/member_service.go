package service

import (
	"errors"
	"strings"
	"time"

	"actc_portal_go/internal/model"
	"actc_portal_go/internal/repository"
	"actc_portal_go/pkg/log"
	"actc_portal_go/pkg/upload"

	"gorm.io/gorm"
)

// MemberInput 是企业会员创建/更新的输入，nil 字段表示不修改。
type MemberInput struct {
	CompanyName     *string
	CompanyNameEn   *string
	Description     *string
	ContactPerson   *string
	ContactTitle    *string
	Email           *string
	Phone           *string
	Website         *string
	Address         *string
	City            *string
	Country         *string
	MembershipType  *string
	MembershipLevel *string
	JoinDate        *time.Time
	ExpiryDate      *time.Time
	Industry        *string
	Services        *string
	Specialization  *string
	Tags            *string
	Notes           *string
	IsActive        *bool
	IsDisplayed     *bool
	DisplayOrder    *int
	Logo            *upload.Stored
	RemoveLogo      bool
}

// MemberBatchAction 是批量操作的动作名。
const (
	MemberBatchShow     = "show"
	MemberBatchHide     = "hide"
	MemberBatchActivate = "activate"
	MemberBatchSuspend  = "suspend"
	MemberBatchSetType  = "setMembershipType"
)

// MemberService 负责企业会员的读写、展示开关与统计。
// actorID 写入审计字段 createdBy/updatedBy。
type MemberService interface {
	Create(actorID uint, input MemberInput) (*model.CorporateMember, error)
	Update(actorID, memberID uint, input MemberInput) (*model.CorporateMember, error)
	Delete(memberID uint) error
	Get(memberID uint) (*model.CorporateMember, error)
	List(filter repository.MemberFilter) ([]model.CorporateMember, int64, error)
	ListDisplayed(filter repository.DisplayedFilter) ([]model.CorporateMember, int64, error)
	ToggleDisplay(actorID, memberID uint) (*model.CorporateMember, error)
	ToggleActive(actorID, memberID uint) (*model.CorporateMember, error)
	SetDisplayOrder(actorID, memberID uint, order int) (*model.CorporateMember, error)
	Batch(actorID uint, action string, ids []uint, membershipType string) (int64, error)
	Stats() (*repository.MemberStats, error)
}

type memberService struct {
	memberRepo repository.MemberRepository
	uploads    *upload.Manager
}

// NewMemberService 创建 MemberService。
func NewMemberService(memberRepo repository.MemberRepository, uploads *upload.Manager) MemberService {
	return &memberService{memberRepo: memberRepo, uploads: uploads}
}

// Create 创建企业会员。入会日期缺省为当天，国别缺省台湾（模型默认值）。
func (s *memberService) Create(actorID uint, input MemberInput) (*model.CorporateMember, error) {
	cleanup := func() { s.uploads.Cleanup(input.Logo) }

	if input.CompanyName == nil || strings.TrimSpace(*input.CompanyName) == "" ||
		input.ContactPerson == nil || strings.TrimSpace(*input.ContactPerson) == "" ||
		input.Email == nil || strings.TrimSpace(*input.Email) == "" {
		cleanup()
		return nil, ErrInvalidInput
	}

	member := &model.CorporateMember{
		CompanyName:     strings.TrimSpace(*input.CompanyName),
		ContactPerson:   strings.TrimSpace(*input.ContactPerson),
		Email:           strings.ToLower(strings.TrimSpace(*input.Email)),
		Country:         "Taiwan",
		MembershipType:  "regular",
		MembershipLevel: "C",
		JoinDate:        time.Now(),
		IsActive:        true,
		CreatedByID:     actorID,
		UpdatedByID:     actorID,
	}
	if err := applyMemberInput(member, input); err != nil {
		cleanup()
		return nil, err
	}
	if input.Logo != nil {
		member.Logo = input.Logo.Path
	}

	if err := s.memberRepo.Create(member); err != nil {
		cleanup()
		log.Errorf("CreateMember: failed to create: %v", err)
		return nil, ErrInternal
	}
	return member, nil
}

// Update 更新企业会员。替换 logo 时落库成功后才删旧文件。
func (s *memberService) Update(actorID, memberID uint, input MemberInput) (*model.CorporateMember, error) {
	cleanup := func() { s.uploads.Cleanup(input.Logo) }

	member, err := s.findMember(memberID)
	if err != nil {
		cleanup()
		return nil, err
	}

	if input.CompanyName != nil && strings.TrimSpace(*input.CompanyName) != "" {
		member.CompanyName = strings.TrimSpace(*input.CompanyName)
	}
	if input.ContactPerson != nil && strings.TrimSpace(*input.ContactPerson) != "" {
		member.ContactPerson = strings.TrimSpace(*input.ContactPerson)
	}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		member.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if err := applyMemberInput(member, input); err != nil {
		cleanup()
		return nil, err
	}
	member.UpdatedByID = actorID

	var staleLogo string
	if input.Logo != nil {
		staleLogo = member.Logo
		member.Logo = input.Logo.Path
	} else if input.RemoveLogo && member.Logo != "" {
		staleLogo = member.Logo
		member.Logo = ""
	}

	if err := s.memberRepo.Update(member); err != nil {
		cleanup()
		log.Errorf("UpdateMember: failed to update %d: %v", memberID, err)
		return nil, ErrInternal
	}
	if staleLogo != "" {
		s.uploads.Remove(staleLogo)
	}
	return member, nil
}

// Delete 删除企业会员并回收 logo 文件。
func (s *memberService) Delete(memberID uint) error {
	member, err := s.findMember(memberID)
	if err != nil {
		return err
	}
	if err := s.memberRepo.Delete(memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		log.Errorf("DeleteMember: failed to delete %d: %v", memberID, err)
		return ErrInternal
	}
	if member.Logo != "" {
		s.uploads.Remove(member.Logo)
	}
	return nil
}

func (s *memberService) Get(memberID uint) (*model.CorporateMember, error) {
	return s.findMember(memberID)
}

func (s *memberService) List(filter repository.MemberFilter) ([]model.CorporateMember, int64, error) {
	items, total, err := s.memberRepo.List(filter)
	if err != nil {
		log.Errorf("ListMembers: %v", err)
		return nil, 0, ErrInternal
	}
	return items, total, nil
}

// ListDisplayed 公开端目录，仅返回有效且对外展示的会员。
func (s *memberService) ListDisplayed(filter repository.DisplayedFilter) ([]model.CorporateMember, int64, error) {
	items, total, err := s.memberRepo.ListDisplayed(filter)
	if err != nil {
		log.Errorf("ListDisplayedMembers: %v", err)
		return nil, 0, ErrInternal
	}
	return items, total, nil
}

// ToggleDisplay 切换前台展示开关。
func (s *memberService) ToggleDisplay(actorID, memberID uint) (*model.CorporateMember, error) {
	member, err := s.findMember(memberID)
	if err != nil {
		return nil, err
	}
	member.IsDisplayed = !member.IsDisplayed
	member.UpdatedByID = actorID
	if err := s.memberRepo.SetDisplayed(memberID, member.IsDisplayed, actorID); err != nil {
		log.Errorf("ToggleDisplay: failed for %d: %v", memberID, err)
		return nil, ErrInternal
	}
	return member, nil
}

// ToggleActive 切换会员有效状态。
func (s *memberService) ToggleActive(actorID, memberID uint) (*model.CorporateMember, error) {
	member, err := s.findMember(memberID)
	if err != nil {
		return nil, err
	}
	member.IsActive = !member.IsActive
	member.UpdatedByID = actorID
	if err := s.memberRepo.SetActive(memberID, member.IsActive, actorID); err != nil {
		log.Errorf("ToggleActive: failed for %d: %v", memberID, err)
		return nil, ErrInternal
	}
	return member, nil
}

// SetDisplayOrder 指定前台排序值。
func (s *memberService) SetDisplayOrder(actorID, memberID uint, order int) (*model.CorporateMember, error) {
	if order < 0 {
		return nil, ErrInvalidInput
	}
	member, err := s.findMember(memberID)
	if err != nil {
		return nil, err
	}
	member.DisplayOrder = order
	member.UpdatedByID = actorID
	if err := s.memberRepo.SetDisplayOrder(memberID, order, actorID); err != nil {
		log.Errorf("SetDisplayOrder: failed for %d: %v", memberID, err)
		return nil, ErrInternal
	}
	return member, nil
}

// Batch 批量操作：展示/隐藏、启用/停用、改会员级别。
func (s *memberService) Batch(actorID uint, action string, ids []uint, membershipType string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrInvalidInput
	}

	fields := map[string]interface{}{"updated_by_id": actorID}
	switch action {
	case MemberBatchShow:
		fields["is_displayed"] = true
	case MemberBatchHide:
		fields["is_displayed"] = false
	case MemberBatchActivate:
		fields["is_active"] = true
	case MemberBatchSuspend:
		fields["is_active"] = false
	case MemberBatchSetType:
		if !validMembershipType(membershipType) {
			return 0, ErrInvalidInput
		}
		fields["membership_type"] = membershipType
	default:
		return 0, ErrInvalidInput
	}

	affected, err := s.memberRepo.BatchUpdate(ids, fields)
	if err != nil {
		log.Errorf("BatchMembers: action %q failed: %v", action, err)
		return 0, ErrInternal
	}
	return affected, nil
}

func (s *memberService) Stats() (*repository.MemberStats, error) {
	stats, err := s.memberRepo.Stats()
	if err != nil {
		log.Errorf("MemberStats: %v", err)
		return nil, ErrInternal
	}
	return stats, nil
}

// applyMemberInput 套用创建与更新共用的可选字段。
func applyMemberInput(member *model.CorporateMember, input MemberInput) error {
	if input.MembershipType != nil {
		if !validMembershipType(*input.MembershipType) {
			return ErrInvalidInput
		}
		member.MembershipType = *input.MembershipType
	}
	if input.MembershipLevel != nil {
		if !validMembershipLevel(*input.MembershipLevel) {
			return ErrInvalidInput
		}
		member.MembershipLevel = *input.MembershipLevel
	}
	if input.ExpiryDate != nil {
		member.ExpiryDate = input.ExpiryDate
	}
	if input.JoinDate != nil {
		member.JoinDate = *input.JoinDate
	}
	if member.ExpiryDate != nil && member.ExpiryDate.Before(member.JoinDate) {
		return ErrInvalidInput
	}

	if input.CompanyNameEn != nil {
		member.CompanyNameEn = *input.CompanyNameEn
	}
	if input.Description != nil {
		member.Description = *input.Description
	}
	if input.ContactTitle != nil {
		member.ContactTitle = *input.ContactTitle
	}
	if input.Phone != nil {
		member.Phone = *input.Phone
	}
	if input.Website != nil {
		member.Website = *input.Website
	}
	if input.Address != nil {
		member.Address = *input.Address
	}
	if input.City != nil {
		member.City = *input.City
	}
	if input.Country != nil && *input.Country != "" {
		member.Country = *input.Country
	}
	if input.Industry != nil {
		member.Industry = *input.Industry
	}
	if input.Services != nil {
		member.Services = NormalizeList(*input.Services)
	}
	if input.Specialization != nil {
		member.Specialization = NormalizeList(*input.Specialization)
	}
	if input.Tags != nil {
		member.Tags = NormalizeTags(*input.Tags)
	}
	if input.Notes != nil {
		member.Notes = *input.Notes
	}
	if input.IsActive != nil {
		member.IsActive = *input.IsActive
	}
	if input.IsDisplayed != nil {
		member.IsDisplayed = *input.IsDisplayed
	}
	if input.DisplayOrder != nil {
		if *input.DisplayOrder < 0 {
			return ErrInvalidInput
		}
		member.DisplayOrder = *input.DisplayOrder
	}
	return nil
}

func validMembershipType(membershipType string) bool {
	for _, t := range model.MembershipTypes {
		if membershipType == t {
			return true
		}
	}
	return false
}

func validMembershipLevel(level string) bool {
	for _, l := range model.MembershipLevels {
		if level == l {
			return true
		}
	}
	return false
}

func (s *memberService) findMember(memberID uint) (*model.CorporateMember, error) {
	member, err := s.memberRepo.FindByID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		log.Errorf("failed to query member %d: %v", memberID, err)
		return nil, ErrInternal
	}
	return member, nil
}
