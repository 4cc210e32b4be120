package model

import "time"

// MembershipTypes 是合法的会员级别。
var MembershipTypes = []string{"platinum", "gold", "silver", "bronze", "regular"}

// MembershipLevels 是合法的会员评级。
var MembershipLevels = []string{"A+", "A", "B+", "B", "C"}

// CorporateMember 对应数据库中 corporate_members 表。
// IsActive 与 IsDisplayed 相互独立：会员可以有效但不对外展示。
// DisplayOrder 是管理员手工指定的前台排序。
type CorporateMember struct {
	ID              uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyName     string     `gorm:"type:varchar(200);not null;index" json:"companyName"`
	CompanyNameEn   string     `gorm:"type:varchar(200)" json:"companyNameEn"`
	Description     string     `gorm:"type:varchar(1000)" json:"description"`
	ContactPerson   string     `gorm:"type:varchar(100);not null" json:"contactPerson"`
	ContactTitle    string     `gorm:"type:varchar(100)" json:"contactTitle"`
	Email           string     `gorm:"type:varchar(255);not null" json:"email"`
	Phone           string     `gorm:"type:varchar(50)" json:"phone"`
	Website         string     `gorm:"type:varchar(300)" json:"website"`
	Address         string     `gorm:"type:varchar(300)" json:"address"`
	City            string     `gorm:"type:varchar(50)" json:"city"`
	Country         string     `gorm:"type:varchar(50);default:'Taiwan'" json:"country"`
	MembershipType  string     `gorm:"type:varchar(20);default:'regular';index" json:"membershipType"`
	MembershipLevel string     `gorm:"type:varchar(5);default:'C'" json:"membershipLevel"`
	JoinDate        time.Time  `json:"joinDate"`
	ExpiryDate      *time.Time `json:"expiryDate"`
	Logo            string     `gorm:"type:varchar(500)" json:"logo"`
	Industry        string     `gorm:"type:varchar(100);index" json:"industry"`
	Services        string     `gorm:"type:varchar(1000)" json:"-"`
	Specialization  string     `gorm:"type:varchar(500)" json:"-"`
	IsActive        bool       `gorm:"default:true;index" json:"isActive"`
	IsDisplayed     bool       `gorm:"default:false;index" json:"isDisplayed"`
	DisplayOrder    int        `gorm:"default:0;index" json:"displayOrder"`
	Tags            string     `gorm:"type:varchar(500)" json:"-"`
	Notes           string     `gorm:"type:varchar(1000)" json:"notes"`
	CreatedByID     uint       `json:"createdBy"`
	UpdatedByID     uint       `json:"updatedBy"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定 GORM 使用的表名
func (CorporateMember) TableName() string {
	return "corporate_members"
}

// MembershipStatus 返回会员的有效状态：inactive / expired / active。
func (m *CorporateMember) MembershipStatus() string {
	if !m.IsActive {
		return "inactive"
	}
	if m.ExpiryDate != nil && m.ExpiryDate.Before(time.Now()) {
		return "expired"
	}
	return "active"
}
