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

// 企业会员 logo 上传限额。
const maxMemberLogoSize = 5 << 20

// 企业会员 multipart 表单的字段允许清单。
var (
	memberFormValues = []string{
		"companyName", "companyNameEn", "description",
		"contactPerson", "contactTitle", "email", "phone", "website",
		"address", "city", "country",
		"membershipType", "membershipLevel", "joinDate", "expiryDate",
		"industry", "services", "specialization", "tags", "notes",
		"isActive", "isDisplayed", "displayOrder", "removeLogo",
	}
	memberFormFiles = []string{"logo"}
)

// MemberHandler 负责企业会员目录相关 HTTP 接口。
type MemberHandler struct {
	memberService service.MemberService
	uploads       *upload.Manager
}

// NewMemberHandler 创建 MemberHandler。
func NewMemberHandler(memberService service.MemberService, uploads *upload.Manager) *MemberHandler {
	return &MemberHandler{memberService: memberService, uploads: uploads}
}

// MemberResponse 在模型之上转换 CSV 字段为数组并附上会员有效状态。
type MemberResponse struct {
	model.CorporateMember
	Services         []string `json:"services"`
	Specialization   []string `json:"specialization"`
	Tags             []string `json:"tags"`
	MembershipStatus string   `json:"membershipStatus"`
}

func newMemberResponse(m model.CorporateMember) MemberResponse {
	return MemberResponse{
		CorporateMember:  m,
		Services:         service.SplitCSV(m.Services),
		Specialization:   service.SplitCSV(m.Specialization),
		Tags:             service.SplitCSV(m.Tags),
		MembershipStatus: m.MembershipStatus(),
	}
}

func newMemberResponseList(items []model.CorporateMember) []MemberResponse {
	out := make([]MemberResponse, 0, len(items))
	for _, m := range items {
		out = append(out, newMemberResponse(m))
	}
	return out
}

// ListDisplayedMembers 公开目录：仅有效且对外展示的会员，skip/limit 分页。
func (h *MemberHandler) ListDisplayedMembers(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := repository.DisplayedFilter{
		MembershipType: c.Query("membershipType"),
		Industry:       c.Query("industry"),
		SortBy:         c.Query("sortBy"),
		Skip:           skip,
		Limit:          limit,
	}

	items, total, err := h.memberService.ListDisplayed(filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Corporate members retrieved successfully",
		"data": gin.H{
			"items":   newMemberResponseList(items),
			"total":   total,
			"hasMore": int64(skip+len(items)) < total,
		},
	})
}

// GetMemberStats 公开统计：总量与按会员级别分组的计数。
func (h *MemberHandler) GetMemberStats(c *gin.Context) {
	stats, err := h.memberService.Stats()
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Stats retrieved successfully",
		"data":    stats,
	})
}

// AdminListMembers 管理端列表：搜索、过滤、排序、分页。
func (h *MemberHandler) AdminListMembers(c *gin.Context) {
	page, limit := parsePagination(c, 20)
	filter := repository.MemberFilter{
		Search:         c.Query("search"),
		MembershipType: c.Query("membershipType"),
		Industry:       c.Query("industry"),
		SortBy:         c.Query("sortBy"),
		SortOrder:      c.Query("sortOrder"),
		Page:           page,
		Limit:          limit,
	}
	if raw := c.Query("isActive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "Invalid isActive parameter")
			return
		}
		filter.IsActive = &v
	}
	if raw := c.Query("isDisplayed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "Invalid isDisplayed parameter")
			return
		}
		filter.IsDisplayed = &v
	}

	items, total, err := h.memberService.List(filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Corporate members retrieved successfully",
		"data": gin.H{
			"items": newMemberResponseList(items),
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// AdminGetMember 管理端读取单个会员。
func (h *MemberHandler) AdminGetMember(c *gin.Context) {
	memberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, err := h.memberService.Get(memberID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Corporate member retrieved successfully",
		"data":    newMemberResponse(*member),
	})
}

// CreateMember 创建企业会员（multipart）。
func (h *MemberHandler) CreateMember(c *gin.Context) {
	claims, ok := getClaimsFromContext(c)
	if !ok {
		return
	}

	input, ok := h.bindMemberForm(c)
	if !ok {
		return
	}

	member, err := h.memberService.Create(claims.UserID, *input)
	if err != nil {
		log.Warnf("CreateMember: %v", err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "Corporate member created successfully",
		"data":    newMemberResponse(*member),
	})
}

// UpdateMember 更新企业会员（multipart）。
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	claims, ok := getClaimsFromContext(c)
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	input, ok := h.bindMemberForm(c)
	if !ok {
		return
	}

	member, err := h.memberService.Update(claims.UserID, memberID, *input)
	if err != nil {
		log.Warnf("UpdateMember: failed for %d: %v", memberID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Corporate member updated successfully",
		"data":    newMemberResponse(*member),
	})
}

// ToggleMemberDisplay 切换前台展示开关。
func (h *MemberHandler) ToggleMemberDisplay(c *gin.Context) {
	claims, ok := getClaimsFromContext(c)
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, err := h.memberService.ToggleDisplay(claims.UserID, memberID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Display status updated successfully",
		"data":    newMemberResponse(*member),
	})
}

// ToggleMemberActive 切换会员有效状态。
func (h *MemberHandler) ToggleMemberActive(c *gin.Context) {
	claims, ok := getClaimsFromContext(c)
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, err := h.memberService.ToggleActive(claims.UserID, memberID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Active status updated successfully",
		"data":    newMemberResponse(*member),
	})
}

// SetDisplayOrderRequest 是前台排序接口请求体。
type SetDisplayOrderRequest struct {
	DisplayOrder int `json:"displayOrder"`
}

// SetMemberDisplayOrder 设置前台排序值。
func (h *MemberHandler) SetMemberDisplayOrder(c *gin.Context) {
	claims, ok := getClaimsFromContext(c)
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetDisplayOrderRequest
	if !bindStrictJSON(c, &req) {
		return
	}

	member, err := h.memberService.SetDisplayOrder(claims.UserID, memberID, req.DisplayOrder)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Display order updated successfully",
		"data":    newMemberResponse(*member),
	})
}

// BatchMembersRequest 是批量操作请求体。
// Value 仅 updateMembershipType 动作使用。
type BatchMembersRequest struct {
	IDs    []uint `json:"ids"`
	Action string `json:"action"`
	Value  string `json:"value"`
}

// 批量动作名到 service 层动作的映射。
var memberBatchActions = map[string]struct{}{
	"toggleDisplay":        {},
	"toggleActive":         {},
	"updateMembershipType": {},
}

// BatchMembers 批量展示/隐藏、启用/停用、改会员级别。
// toggleDisplay/toggleActive 需要 value 指明目标状态（true/false）。
func (h *MemberHandler) BatchMembers(c *gin.Context) {
	claims, ok := getClaimsFromContext(c)
	if !ok {
		return
	}

	var req BatchMembersRequest
	if !bindStrictJSON(c, &req) {
		return
	}
	if _, ok := memberBatchActions[req.Action]; !ok {
		badRequest(c, "Invalid batch action")
		return
	}

	action, membershipType, ok := resolveMemberBatch(req)
	if !ok {
		badRequest(c, "Invalid batch value")
		return
	}

	affected, err := h.memberService.Batch(claims.UserID, action, req.IDs, membershipType)
	if err != nil {
		log.Warnf("BatchMembers: action %q failed: %v", req.Action, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Batch operation completed",
		"data":    gin.H{"affected": affected},
	})
}

// resolveMemberBatch 把对外的 {action, value} 组合翻译成 service 层动作。
func resolveMemberBatch(req BatchMembersRequest) (action, membershipType string, ok bool) {
	switch req.Action {
	case "toggleDisplay":
		v, err := strconv.ParseBool(req.Value)
		if err != nil {
			return "", "", false
		}
		if v {
			return service.MemberBatchShow, "", true
		}
		return service.MemberBatchHide, "", true
	case "toggleActive":
		v, err := strconv.ParseBool(req.Value)
		if err != nil {
			return "", "", false
		}
		if v {
			return service.MemberBatchActivate, "", true
		}
		return service.MemberBatchSuspend, "", true
	case "updateMembershipType":
		return service.MemberBatchSetType, req.Value, true
	}
	return "", "", false
}

// DeleteMember 删除企业会员并回收 logo。
func (h *MemberHandler) DeleteMember(c *gin.Context) {
	memberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.memberService.Delete(memberID); err != nil {
		log.Warnf("DeleteMember: failed for %d: %v", memberID, err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Corporate member deleted successfully",
	})
}

// bindMemberForm 解析企业会员的 multipart 表单并保存 logo。
// 返回 false 时错误响应已写出，已落盘的文件已清理。
func (h *MemberHandler) bindMemberForm(c *gin.Context) (*service.MemberInput, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "Invalid multipart form")
		return nil, false
	}
	fv, err := parseStrictForm(form, memberFormValues, memberFormFiles)
	if err != nil {
		badRequest(c, err.Error())
		return nil, false
	}

	input := &service.MemberInput{
		CompanyName:     fv.String("companyName"),
		CompanyNameEn:   fv.String("companyNameEn"),
		Description:     fv.String("description"),
		ContactPerson:   fv.String("contactPerson"),
		ContactTitle:    fv.String("contactTitle"),
		Email:           fv.String("email"),
		Phone:           fv.String("phone"),
		Website:         fv.String("website"),
		Address:         fv.String("address"),
		City:            fv.String("city"),
		Country:         fv.String("country"),
		MembershipType:  fv.String("membershipType"),
		MembershipLevel: fv.String("membershipLevel"),
		Industry:        fv.String("industry"),
		Services:        fv.String("services"),
		Specialization:  fv.String("specialization"),
		Tags:            fv.String("tags"),
		Notes:           fv.String("notes"),
	}
	if input.JoinDate, err = fv.Time("joinDate"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if input.ExpiryDate, err = fv.Time("expiryDate"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if input.IsActive, err = fv.Bool("isActive"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if input.IsDisplayed, err = fv.Bool("isDisplayed"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if input.DisplayOrder, err = fv.Int("displayOrder"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if input.RemoveLogo, err = fv.BoolFlag("removeLogo"); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}

	if fh := fv.File("logo"); fh != nil {
		stored, err := h.uploads.Save(c, fh, "logo", upload.ImageRule(maxMemberLogoSize))
		if err != nil {
			fail(c, err)
			return nil, false
		}
		input.Logo = stored
	}
	return input, true
}
