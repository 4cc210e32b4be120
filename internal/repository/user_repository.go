package repository

import (
	"fmt"
	"time"

	"actc_portal_go/internal/model"

	"gorm.io/gorm"
)

// UserRepository 接口定义了用户数据的持久化操作。
type UserRepository interface {
	Create(user *model.User) error
	FindByUsername(username string) (*model.User, error)
	FindByID(userID uint) (*model.User, error)
	FindAll() ([]model.User, error)
	UpdateProfile(user *model.User) error
	UpdatePassword(userID uint, hashed string, isFirstLogin bool) error
	UpdateLastLogin(userID uint, at time.Time) error
	SetActive(userID uint, active bool) error
	Delete(userID uint) error
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 创建一个新用户。
func (r *userRepository) Create(user *model.User) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	return r.db.Create(user).Error
}

// FindByUsername 根据用户名查找用户。
func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID 根据ID查找用户。
func (r *userRepository) FindByID(userID uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAll 查找所有用户，按创建时间倒序。
func (r *userRepository) FindAll() ([]model.User, error) {
	var users []model.User
	if err := r.db.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile 更新用户的资料字段。
// 只写入资料列，密码与状态标记走各自的专用方法。
// 不检查受影响行数：值未变化时 MySQL 报告 0 行，不能据此判定
// 记录不存在；存在性由 service 层先读保证。
func (r *userRepository) UpdateProfile(user *model.User) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	if user.ID == 0 {
		return fmt.Errorf("user id is required")
	}
	return r.db.Model(&model.User{}).
		Where("id = ?", user.ID).
		Select("username", "email", "full_name", "role").
		Updates(user).Error
}

// UpdatePassword 写入新的密码哈希并同步首登标记。
func (r *userRepository) UpdatePassword(userID uint, hashed string, isFirstLogin bool) error {
	tx := r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password":       hashed,
			"is_first_login": isFirstLogin,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateLastLogin 记录最近登录时间。
func (r *userRepository) UpdateLastLogin(userID uint, at time.Time) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login", at).Error
}

// SetActive 启用/停用账号。
func (r *userRepository) SetActive(userID uint, active bool) error {
	tx := r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("is_active", active)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 删除账号。
func (r *userRepository) Delete(userID uint) error {
	tx := r.db.Delete(&model.User{}, userID)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
