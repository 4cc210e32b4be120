package service

import (
	"errors"
	"strings"

	"actc_portal_go/internal/model"
	"actc_portal_go/internal/repository"
	"actc_portal_go/pkg/hash"
	"actc_portal_go/pkg/log"

	"gorm.io/gorm"
)

// CreateUserInput 是管理员创建账号的输入。
// 不含密码：新账号一律使用初始密码并强制首登改密。
type CreateUserInput struct {
	Username string
	Email    string
	FullName string
	Role     string
}

// UpdateUserInput 是管理员更新账号资料的输入，nil 字段表示不修改。
type UpdateUserInput struct {
	Username *string
	Email    *string
	FullName *string
	Role     *string
}

// UserService 负责管理员侧的账号管理。
// actorID 是当前操作者，用于禁止对自己执行停用/删除/降级。
type UserService interface {
	List() ([]model.User, error)
	Get(userID uint) (*model.User, error)
	Create(input CreateUserInput) (*model.User, error)
	Update(actorID, userID uint, input UpdateUserInput) (*model.User, error)
	ToggleStatus(actorID, userID uint) (*model.User, error)
	ResetPassword(userID uint) error
	Delete(actorID, userID uint) error
}

type userService struct {
	userRepo repository.UserRepository
	opts     AuthOptions
}

// NewUserService 创建 UserService。
func NewUserService(userRepo repository.UserRepository, opts AuthOptions) UserService {
	return &userService{userRepo: userRepo, opts: opts}
}

func (s *userService) List() ([]model.User, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		log.Errorf("ListUsers: %v", err)
		return nil, ErrInternal
	}
	return users, nil
}

func (s *userService) Get(userID uint) (*model.User, error) {
	return s.findUser(userID)
}

// Create 创建账号：初始密码 + 首登标记。
func (s *userService) Create(input CreateUserInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrInvalidInput
	}
	role := input.Role
	if role != model.RoleAdmin && role != model.RoleUser {
		role = model.RoleUser
	}

	// 1. 检查用户名占用
	existing, err := s.userRepo.FindByUsername(username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("CreateUser: failed to query user %q: %v", username, err)
		return nil, ErrInternal
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	// 2. 初始密码哈希
	hashed, err := hash.HashPassword(s.opts.DefaultPassword)
	if err != nil {
		log.Errorf("CreateUser: failed to hash default password: %v", err)
		return nil, ErrInternal
	}

	user := &model.User{
		Username:     username,
		Password:     hashed,
		Role:         role,
		Email:        strings.TrimSpace(input.Email),
		FullName:     strings.TrimSpace(input.FullName),
		IsActive:     true,
		IsFirstLogin: true,
	}
	if err := s.userRepo.Create(user); err != nil {
		log.Errorf("CreateUser: failed to create %q: %v", username, err)
		return nil, ErrInternal
	}
	return user, nil
}

// Update 更新资料字段。管理员不能把自己的角色降为普通用户。
func (s *userService) Update(actorID, userID uint, input UpdateUserInput) (*model.User, error) {
	user, err := s.findUser(userID)
	if err != nil {
		return nil, err
	}

	if input.Role != nil {
		role := *input.Role
		if role != model.RoleAdmin && role != model.RoleUser {
			return nil, ErrInvalidInput
		}
		if userID == actorID && role != model.RoleAdmin {
			return nil, ErrSelfAction
		}
		user.Role = role
	}
	if input.Username != nil && strings.TrimSpace(*input.Username) != "" {
		user.Username = strings.TrimSpace(*input.Username)
	}
	if input.Email != nil {
		user.Email = strings.TrimSpace(*input.Email)
	}
	if input.FullName != nil {
		user.FullName = strings.TrimSpace(*input.FullName)
	}

	if err := s.userRepo.UpdateProfile(user); err != nil {
		log.Errorf("UpdateUser: failed to update %d: %v", userID, err)
		return nil, ErrInternal
	}
	return user, nil
}

// ToggleStatus 切换启用/停用，自己不能停用自己。
func (s *userService) ToggleStatus(actorID, userID uint) (*model.User, error) {
	if actorID == userID {
		return nil, ErrSelfAction
	}
	user, err := s.findUser(userID)
	if err != nil {
		return nil, err
	}

	user.IsActive = !user.IsActive
	if err := s.userRepo.SetActive(userID, user.IsActive); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		log.Errorf("ToggleStatus: failed to update %d: %v", userID, err)
		return nil, ErrInternal
	}
	return user, nil
}

// ResetPassword 重置为初始密码并重新标记首登。
func (s *userService) ResetPassword(userID uint) error {
	if _, err := s.findUser(userID); err != nil {
		return err
	}
	hashed, err := hash.HashPassword(s.opts.DefaultPassword)
	if err != nil {
		log.Errorf("ResetPassword: failed to hash default password: %v", err)
		return ErrInternal
	}
	return s.userRepo.UpdatePassword(userID, hashed, true)
}

// Delete 删除账号，自己不能删除自己。
func (s *userService) Delete(actorID, userID uint) error {
	if actorID == userID {
		return ErrSelfAction
	}
	if err := s.userRepo.Delete(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		log.Errorf("DeleteUser: failed to delete %d: %v", userID, err)
		return ErrInternal
	}
	return nil
}

func (s *userService) findUser(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		log.Errorf("failed to query user %d: %v", userID, err)
		return nil, ErrInternal
	}
	return user, nil
}
