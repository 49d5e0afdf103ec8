package model

// 凭证Cookie名。三元组写在根域下，全部子域共享。
const (
	CookieUserID    = "xuserid"
	CookieToken     = "xtoken"
	CookieUUIDToken = "xy_uuid_token"

	// CookieCASToken CAS侧的访问令牌，登出时回传给统一认证中心
	CookieCASToken = "cas_access_token"
	// CookieLastCheck 上次凭证校验时间戳
	CookieLastCheck = "lastCheckTime"
)

// 凭证请求头名。与Cookie名一致：客户端从Cookie原样搬到请求头。
const (
	HeaderUserID    = CookieUserID
	HeaderToken     = CookieToken
	HeaderUUIDToken = CookieUUIDToken
)

// CredentialCookieNames 登出时需要清理的全部凭证相关Cookie
var CredentialCookieNames = []string{
	CookieUserID,
	CookieToken,
	CookieUUIDToken,
	CookieCASToken,
	CookieLastCheck,
}

// Credentials 凭证三元组。三者同时存在才视为"可能已登录"。
type Credentials struct {
	UserID    string `json:"xuserid"`
	Token     string `json:"xtoken"`
	UUIDToken string `json:"xy_uuid_token"`
}

// Complete 三元组是否完整
func (c Credentials) Complete() bool {
	return c.UserID != "" && c.Token != "" && c.UUIDToken != ""
}

// TokenCheckResult 凭证校验结果
type TokenCheckResult struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
