package config

import (
	"fmt"
	"time"

	"ucenter/pkg/database"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database database.Config `mapstructure:"database"`
	Redis    RedisConfig     `mapstructure:"redis"`
	JWT      JWTConfig       `mapstructure:"jwt"`
	Session  SessionConfig   `mapstructure:"session"`
	QR       QRConfig        `mapstructure:"qr"`
	Logout   LogoutConfig    `mapstructure:"logout"`
	Email    EmailConfig     `mapstructure:"email"`
	IPDB     IPDBConfig      `mapstructure:"ipdb"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int
	Mode string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret      string
	TokenExpire int `mapstructure:"token_expire"` // xtoken有效期(秒)
}

// SessionConfig 会话/Cookie配置
type SessionConfig struct {
	RootDomain string `mapstructure:"root_domain"` // 凭证Cookie作用的根域名
	CookieDays int    `mapstructure:"cookie_days"` // 凭证Cookie有效天数
}

// QRConfig 扫码登录配置
type QRConfig struct {
	PollIntervalMS int `mapstructure:"poll_interval_ms"` // 轮询间隔(毫秒)
	TicketTTL      int `mapstructure:"ticket_ttl"`       // 票据有效期(秒)
	TempTokenTTL   int `mapstructure:"temp_token_ttl"`   // 临时令牌有效期(秒)
}

// LogoutConfig 登出配置
type LogoutConfig struct {
	CASLogoutURL string `mapstructure:"cas_logout_url"` // 统一认证登出地址
}

// EmailConfig 邮件验证码配置
type EmailConfig struct {
	CodeTTL int  `mapstructure:"code_ttl"` // 验证码有效期(秒)
	DevMode bool `mapstructure:"dev_mode"` // 开发模式下只打印不发送
}

// IPDBConfig IP地理位置库配置
type IPDBConfig struct {
	Path string `mapstructure:"path"` // ip2region xdb文件路径
}

// PollInterval 轮询间隔
func (c *QRConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// TicketExpiry 票据有效期
func (c *QRConfig) TicketExpiry() time.Duration {
	return time.Duration(c.TicketTTL) * time.Second
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml") // 设置配置文件类型
	viper.AutomaticEnv()        // 读取环境变量

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
