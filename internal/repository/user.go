package repository

import (
	"context"
	"errors"
	"time"

	"ucenter/internal/model"

	"gorm.io/gorm"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByWechatOpenID(ctx context.Context, openID string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID, password string) error
	BindWechat(ctx context.Context, userID, openID string) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time, ip, region string) error
	Count(ctx context.Context) (int64, error)
}

// userRepository 用户仓储实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 创建用户
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID 通过ID获取用户
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail 通过邮箱获取用户
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByWechatOpenID 通过微信openid获取用户
func (r *userRepository) GetByWechatOpenID(ctx context.Context, openID string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("wechat_open_id = ?", openID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// UpdatePassword 更新密码。先取出再Save以触发加密钩子。
func (r *userRepository) UpdatePassword(ctx context.Context, userID, password string) error {
	existing := &model.User{}
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(existing).Error; err != nil {
		return err
	}
	existing.Password = password
	return r.db.WithContext(ctx).Save(existing).Error
}

// BindWechat 绑定微信openid
func (r *userRepository) BindWechat(ctx context.Context, userID, openID string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).UpdateColumn("wechat_open_id", openID).Error
}

// UpdateLastLogin 更新最近登录信息。直接UpdateColumns，避免触发BeforeUpdate钩子。
func (r *userRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time, ip, region string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).UpdateColumns(map[string]interface{}{
		"last_login_at":     at,
		"last_login_ip":     ip,
		"last_login_region": region,
	}).Error
}

// Count 获取用户总数
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error
	return count, err
}
