package service

import (
	"errors"
	"time"

	"actc_portal_go/internal/model"
	"actc_portal_go/internal/repository"
	"actc_portal_go/pkg/hash"
	"actc_portal_go/pkg/log"
	"actc_portal_go/pkg/token"

	"gorm.io/gorm"
)

// AuthService 负责登录与密码生命周期。
type AuthService interface {
	Login(username, password string) (*model.User, string, error)
	ChangePassword(userID uint, current, newPassword string) error
	ForceChangePassword(userID uint, newPassword string) error
	GetUser(userID uint) (*model.User, error)
}

// AuthOptions 是账号策略配置。
type AuthOptions struct {
	DefaultPassword   string
	MinPasswordLength int
}

type authService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
	opts       AuthOptions
}

// NewAuthService 创建 AuthService。
func NewAuthService(userRepo repository.UserRepository, jwtManager *token.JWTManager, opts AuthOptions) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		opts:       opts,
	}
}

// Login 校验凭证并签发访问令牌。
// 用户不存在与密码错误返回同一个错误，防止用户枚举；
// 账号停用单独返回 ErrAccountSuspended。
func (s *authService) Login(username, password string) (*model.User, string, error) {
	if s.jwtManager == nil {
		return nil, "", ErrInternal
	}
	if username == "" || password == "" {
		return nil, "", ErrInvalidInput
	}

	// 1. 查找用户
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		log.Errorf("Login: failed to query user %q: %v", username, err)
		return nil, "", ErrInternal
	}

	// 2. 校验密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	// 3. 密码正确后才区分停用状态
	if !user.IsActive {
		return nil, "", ErrAccountSuspended
	}

	// 4. 签发令牌
	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		log.Errorf("Login: failed to generate token for %q: %v", username, err)
		return nil, "", ErrInternal
	}

	// 5. 记录最近登录时间，失败只记日志不影响登录
	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
		log.Warnf("Login: failed to update last login for %q: %v", username, err)
	}
	user.LastLogin = &now

	return user, accessToken, nil
}

// ChangePassword 修改密码：要求当前密码正确、新旧不同、长度达标。
// 成功后清除首登标记。
func (s *authService) ChangePassword(userID uint, current, newPassword string) error {
	if current == "" || newPassword == "" {
		return ErrInvalidInput
	}
	if len(newPassword) < s.opts.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.findUser(userID)
	if err != nil {
		return err
	}

	if !hash.CheckPasswordHash(current, user.Password) {
		return ErrWrongPassword
	}
	if hash.CheckPasswordHash(newPassword, user.Password) {
		return ErrSamePassword
	}

	hashed, err := hash.HashPassword(newPassword)
	if err != nil {
		log.Errorf("ChangePassword: failed to hash password: %v", err)
		return ErrInternal
	}
	return s.userRepo.UpdatePassword(user.ID, hashed, false)
}

// ForceChangePassword 首次登录的强制改密。
// 只允许仍处于首登状态、或密码仍为初始密码的账号，其余一律拒绝。
func (s *authService) ForceChangePassword(userID uint, newPassword string) error {
	if newPassword == "" {
		return ErrInvalidInput
	}
	if len(newPassword) < s.opts.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.findUser(userID)
	if err != nil {
		return err
	}

	stillDefault := hash.CheckPasswordHash(s.opts.DefaultPassword, user.Password)
	if !user.IsFirstLogin && !stillDefault {
		return ErrPasswordAlreadyChanged
	}
	if hash.CheckPasswordHash(newPassword, user.Password) {
		return ErrSamePassword
	}

	hashed, err := hash.HashPassword(newPassword)
	if err != nil {
		log.Errorf("ForceChangePassword: failed to hash password: %v", err)
		return ErrInternal
	}
	return s.userRepo.UpdatePassword(user.ID, hashed, false)
}

// GetUser 按 id 读取用户，供中间件与 verify 接口使用。
func (s *authService) GetUser(userID uint) (*model.User, error) {
	return s.findUser(userID)
}

func (s *authService) findUser(userID uint) (*model.User, error) {
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
