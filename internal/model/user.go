package model

import "time"

// 角色常量，一个账号同一时刻只有一个角色。
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User 对应数据库中 users 表。
// IsFirstLogin 标记账号仍在使用初始密码，首次登录后必须改密。
type User struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"type:varchar(255);not null;unique" json:"username"`
	Password     string     `gorm:"type:varchar(255);not null" json:"-"` // Hide password in json output
	Role         string     `gorm:"type:enum('admin','user');default:'user'" json:"role"`
	IsActive     bool       `gorm:"default:true" json:"isActive"`
	IsFirstLogin bool       `gorm:"default:true" json:"isFirstLogin"`
	Email        string     `gorm:"type:varchar(255)" json:"email"`
	FullName     string     `gorm:"type:varchar(255)" json:"fullName"`
	LastLogin    *time.Time `json:"lastLogin"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定 GORM 使用的表名
func (User) TableName() string {
	return "users"
}

// IsAdmin 判断账号是否为管理员。
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
