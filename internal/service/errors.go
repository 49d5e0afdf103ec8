package service

import "errors"

var (
	// ErrInvalidCredentials 无效的凭证
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserDisabled 用户已禁用
	ErrUserDisabled = errors.New("user is disabled")
	// ErrEmailTaken 邮箱已被注册
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrCodeInvalid 邮箱验证码错误或已过期
	ErrCodeInvalid = errors.New("verification code invalid or expired")
	// ErrInvalidToken 无效的令牌
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired 令牌已过期
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked 令牌已被吊销
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTicketExpired 扫码票据已过期
	ErrTicketExpired = errors.New("qr ticket expired")
	// ErrTempTokenInvalid 微信临时令牌无效或已使用
	ErrTempTokenInvalid = errors.New("wechat temp token invalid or used")
	// ErrPackageNotFound 套餐不存在
	ErrPackageNotFound = errors.New("package not found")
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrCDKInvalid 兑换码不存在
	ErrCDKInvalid = errors.New("cdk not found")
	// ErrCDKUsed 兑换码已被使用
	ErrCDKUsed = errors.New("cdk already used")
)
