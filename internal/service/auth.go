package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"ucenter/internal/audit"
	"ucenter/internal/model"
	"ucenter/internal/repository"
	"ucenter/pkg/logger"
)

// AuthService 认证服务接口
type AuthService interface {
	// Login 邮箱密码登录
	Login(ctx context.Context, req *model.LoginRequest, clientIP string) (*model.Credentials, error)

	// Register 注册并登录
	Register(ctx context.Context, req *model.RegisterRequest, clientIP string) (*model.Credentials, error)

	// BackPassword 通过邮箱验证码重置密码并登录
	BackPassword(ctx context.Context, req *model.BackPasswordRequest, clientIP string) (*model.Credentials, error)

	// CheckXToken 校验凭证是否有效
	CheckXToken(ctx context.Context, userID, token string) (*model.TokenCheckResult, error)

	// Logout 吊销凭证
	Logout(ctx context.Context, userID, token string) error

	// GetUserInfo 获取用户信息
	GetUserInfo(ctx context.Context, userID string) (*model.UserInfo, error)

	// GetPublicInfo 获取公开站点信息
	GetPublicInfo(ctx context.Context) (*model.PublicInfo, error)
}

// authService 认证服务实现
type authService struct {
	userRepo    repository.UserRepository
	codeRepo    repository.EmailCodeRepository
	tokenSvc    TokenService
	locationSvc IPLocationService
	events      *audit.Hub
	siteName    string
	rootDomain  string
}

// NewAuthService 创建认证服务实例
func NewAuthService(
	userRepo repository.UserRepository,
	codeRepo repository.EmailCodeRepository,
	tokenSvc TokenService,
	locationSvc IPLocationService,
	events *audit.Hub,
	siteName, rootDomain string,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		codeRepo:    codeRepo,
		tokenSvc:    tokenSvc,
		locationSvc: locationSvc,
		events:      events,
		siteName:    siteName,
		rootDomain:  rootDomain,
	}
}

// decodePassword 解码base64密码。前端只做混淆，这里还原明文交给bcrypt。
func decodePassword(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode password: %w", err)
	}
	return string(raw), nil
}

// Login 邮箱密码登录
func (s *authService) Login(ctx context.Context, req *model.LoginRequest, clientIP string) (*model.Credentials, error) {
	password, err := decodePassword(req.Password)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if user == nil || !user.ValidatePassword(password) {
		return nil, ErrInvalidCredentials
	}
	if user.Status == model.UserStatusDisabled {
		return nil, ErrUserDisabled
	}

	creds, err := s.tokenSvc.IssueCredentials(ctx, user)
	if err != nil {
		return nil, err
	}

	s.recordLogin(ctx, user, clientIP, audit.MethodPassword)
	return creds, nil
}

// Register 注册并登录
func (s *authService) Register(ctx context.Context, req *model.RegisterRequest, clientIP string) (*model.Credentials, error) {
	if err := s.codeRepo.ConsumeCode(ctx, req.Email, model.EmailTypeRegister, req.Code); err != nil {
		return nil, ErrCodeInvalid
	}

	password, err := decodePassword(req.Password)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	user := &model.User{
		Email:    req.Email,
		Password: password,
		Status:   model.UserStatusEnabled,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	creds, err := s.tokenSvc.IssueCredentials(ctx, user)
	if err != nil {
		return nil, err
	}

	s.recordLogin(ctx, user, clientIP, audit.MethodRegister)
	return creds, nil
}

// BackPassword 通过邮箱验证码重置密码并登录
func (s *authService) BackPassword(ctx context.Context, req *model.BackPasswordRequest, clientIP string) (*model.Credentials, error) {
	if err := s.codeRepo.ConsumeCode(ctx, req.Email, model.EmailTypeBackPassword, req.Code); err != nil {
		return nil, ErrCodeInvalid
	}

	password, err := decodePassword(req.Password)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, password); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	creds, err := s.tokenSvc.IssueCredentials(ctx, user)
	if err != nil {
		return nil, err
	}

	s.recordLogin(ctx, user, clientIP, audit.MethodPassword)
	return creds, nil
}

// CheckXToken 校验凭证是否有效
func (s *authService) CheckXToken(ctx context.Context, userID, token string) (*model.TokenCheckResult, error) {
	if err := s.tokenSvc.ValidateXToken(ctx, userID, token); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if user.Status == model.UserStatusDisabled {
		return nil, ErrUserDisabled
	}

	return &model.TokenCheckResult{UserID: user.ID, Email: user.Email}, nil
}

// Logout 吊销凭证
func (s *authService) Logout(ctx context.Context, userID, token string) error {
	return s.tokenSvc.RevokeCredentials(ctx, userID, token)
}

// GetUserInfo 获取用户信息
func (s *authService) GetUserInfo(ctx context.Context, userID string) (*model.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return &model.UserInfo{
		ID:              user.ID,
		Email:           user.Email,
		Nickname:        user.Nickname,
		WechatBound:     user.WechatOpenID != "",
		LastLoginAt:     user.LastLoginAt,
		LastLoginRegion: user.LastLoginRegion,
		CreatedAt:       user.CreatedAt,
	}, nil
}

// GetPublicInfo 获取公开站点信息
func (s *authService) GetPublicInfo(ctx context.Context) (*model.PublicInfo, error) {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	return &model.PublicInfo{
		SiteName:   s.siteName,
		UserCount:  count,
		RootDomain: s.rootDomain,
	}, nil
}

// recordLogin 记录登录位置并发布登录事件。失败只记日志，不影响登录。
func (s *authService) recordLogin(ctx context.Context, user *model.User, clientIP, method string) {
	region := ""
	if s.locationSvc != nil && clientIP != "" {
		if loc, err := s.locationSvc.SearchIP(ctx, clientIP); err == nil {
			region = loc.String()
		}
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now(), clientIP, region); err != nil {
		logger.Warn("Failed to update last login for user %s: %v", user.ID, err)
	}

	if s.events != nil {
		s.events.Publish(&audit.LoginEvent{
			UserID: user.ID,
			Email:  user.Email,
			Method: method,
			IP:     clientIP,
			Region: region,
			Time:   time.Now(),
		})
	}
}
