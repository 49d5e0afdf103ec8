package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserStatus 用户状态
type UserStatus int

const (
	UserStatusDisabled UserStatus = iota // 禁用
	UserStatusEnabled                    // 启用
)

// User 用户模型
type User struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid"`
	Email     string     `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password  string     `json:"-" gorm:"type:varchar(100)"`
	Nickname  string     `json:"nickname" gorm:"type:varchar(100)"`
	Status    UserStatus `json:"status" gorm:"type:int;default:1"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// 微信扫码登录绑定的openid
	WechatOpenID string `json:"-" gorm:"type:varchar(100);index"`

	// 最近登录信息
	LastLoginAt     *time.Time `json:"last_login_at"`
	LastLoginIP     string     `json:"last_login_ip" gorm:"type:varchar(50)"`
	LastLoginRegion string     `json:"last_login_region" gorm:"type:varchar(100)"`
}

// BeforeCreate GORM的钩子，在创建记录前自动生成UUID和加密密码
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// BeforeUpdate GORM的钩子，在更新记录前加密密码
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	if u.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// ValidatePassword 验证密码
func (u *User) ValidatePassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// LoginRequest 登录请求。密码为base64编码（仅混淆，非加密）。
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Code     string `json:"code" binding:"required"`     // 邮箱验证码
	Password string `json:"password" binding:"required"` // base64编码
}

// BackPasswordRequest 找回密码请求
type BackPasswordRequest struct {
	Email    string `json:"email" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required"` // 新密码，base64编码
}

// EmailCodeType 邮箱验证码用途
const (
	EmailTypeRegister     = "register"
	EmailTypeBackPassword = "back_password"
)

// SendEmailRequest 发送验证码请求
type SendEmailRequest struct {
	Email string `json:"email" binding:"required"`
	Type  string `json:"type_" binding:"required"` // register / back_password
}

// UserInfo 用户信息（需认证）
type UserInfo struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Nickname        string     `json:"nickname"`
	WechatBound     bool       `json:"wechat_bound"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	LastLoginRegion string     `json:"last_login_region"`
	CreatedAt       time.Time  `json:"created_at"`
}

// PublicInfo 公开站点信息（无需认证）
type PublicInfo struct {
	SiteName   string `json:"site_name"`
	Notice     string `json:"notice"`
	UserCount  int64  `json:"user_count"`
	RootDomain string `json:"root_domain"`
}
