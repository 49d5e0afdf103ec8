package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ucenter/internal/model"
	"ucenter/pkg/api"
)

// FailureKind API调用失败的类别
type FailureKind int

const (
	FailureNetwork  FailureKind = iota // 网络错误或超时
	FailureAuth                        // 传输层401/403，凭证被拒
	FailureSession                     // 业务码20009，会话过期
	FailureBusiness                    // 其他非20000业务码
)

// APIError 带分类的API错误。FailureAuth与FailureSession是致命错误，
// 抛出前已向事件总线广播；FailureBusiness只影响当前调用。
type APIError struct {
	Kind       FailureKind
	HTTPStatus int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	switch e.Kind {
	case FailureNetwork:
		return fmt.Sprintf("network error: %s", e.Message)
	case FailureAuth:
		return fmt.Sprintf("auth rejected: http %d", e.HTTPStatus)
	case FailureSession:
		return fmt.Sprintf("session expired: %s", e.Message)
	default:
		return fmt.Sprintf("business error %d: %s", e.Code, e.Message)
	}
}

// IsFatal 是否应触发全局登出
func (e *APIError) IsFatal() bool {
	return e.Kind == FailureAuth || e.Kind == FailureSession
}

// Client 带凭证与统一错误分类的API客户端。
// 每次调用现取凭证，不缓存请求头，换号后无需重建。
type Client struct {
	baseURL string
	store   SessionStore
	bus     *FailureBus
	hc      *http.Client
	timeout time.Duration
}

// NewClient 创建API客户端。bus可为nil，此时致命错误只返回不广播。
func NewClient(baseURL string, store SessionStore, bus *FailureBus, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		store:   store,
		bus:     bus,
		hc:      &http.Client{},
		timeout: timeout,
	}
}

// do 发起一次请求并按统一规则分类结果。
// out非nil时将data字段解码进去。
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	// 每次现取，保证拿到的是最新凭证
	creds := ReadCredentials(c.store)
	if creds.UserID != "" {
		req.Header.Set(model.HeaderUserID, creds.UserID)
	}
	if creds.Token != "" {
		req.Header.Set(model.HeaderToken, creds.Token)
	}
	if creds.UUIDToken != "" {
		req.Header.Set(model.HeaderUUIDToken, creds.UUIDToken)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return &APIError{Kind: FailureNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		apiErr := &APIError{Kind: FailureAuth, HTTPStatus: resp.StatusCode}
		c.raise(Failure{Message: "登录状态异常，请重新登录", Code: resp.StatusCode})
		return apiErr
	}

	var envelope struct {
		Code int             `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &APIError{Kind: FailureNetwork, Message: err.Error()}
	}

	switch {
	case envelope.Code == api.CodeOK:
		if out != nil && len(envelope.Data) > 0 {
			if err := json.Unmarshal(envelope.Data, out); err != nil {
				return &APIError{Kind: FailureNetwork, Message: err.Error()}
			}
		}
		return nil
	case envelope.Code == api.CodeSessionExpired:
		apiErr := &APIError{Kind: FailureSession, Code: envelope.Code, Message: envelope.Msg}
		c.raise(Failure{Message: envelope.Msg, Code: envelope.Code})
		return apiErr
	default:
		return &APIError{Kind: FailureBusiness, Code: envelope.Code, Message: envelope.Msg}
	}
}

func (c *Client) raise(f Failure) {
	if c.bus != nil {
		c.bus.Raise(f)
	}
}

// CheckXToken 校验本地凭证是否仍被服务端承认
func (c *Client) CheckXToken(ctx context.Context) (*model.TokenCheckResult, error) {
	var result model.TokenCheckResult
	if err := c.do(ctx, http.MethodGet, "/u/check_xtoken", nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login 邮箱密码登录
func (c *Client) Login(ctx context.Context, req *model.LoginRequest) (*model.Credentials, error) {
	var creds model.Credentials
	if err := c.do(ctx, http.MethodPost, "/u/login", nil, req, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Register 注册并登录
func (c *Client) Register(ctx context.Context, req *model.RegisterRequest) (*model.Credentials, error) {
	var creds model.Credentials
	if err := c.do(ctx, http.MethodPost, "/u/register", nil, req, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// BackPassword 找回密码
func (c *Client) BackPassword(ctx context.Context, req *model.BackPasswordRequest) (*model.Credentials, error) {
	var creds model.Credentials
	if err := c.do(ctx, http.MethodPost, "/u/back_password", nil, req, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SendEmail 发送邮箱验证码
func (c *Client) SendEmail(ctx context.Context, req *model.SendEmailRequest) error {
	return c.do(ctx, http.MethodPost, "/u/send_email", nil, req, nil)
}

// GetUserInfo 获取用户信息（需认证）
func (c *Client) GetUserInfo(ctx context.Context) (*model.UserInfo, error) {
	var info model.UserInfo
	if err := c.do(ctx, http.MethodGet, "/u/get_user_info", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetPublicInfo 获取公开站点信息
func (c *Client) GetPublicInfo(ctx context.Context) (*model.PublicInfo, error) {
	var info model.PublicInfo
	if err := c.do(ctx, http.MethodGet, "/u/get_public_info", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// WechatLoginQR 签发扫码登录票据
func (c *Client) WechatLoginQR(ctx context.Context) (*model.QRTicket, error) {
	var ticket model.QRTicket
	if err := c.do(ctx, http.MethodGet, "/u/wechat_login_qr", nil, nil, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// QRLoginStatus 查询扫码状态。在传输层就把互斥的返回形态
// 解开成带类别的结果，上层不再面对裸的map。
// 票据过期（20001）是正常结果而非错误。
func (c *Client) QRLoginStatus(ctx context.Context, ticket string) (*model.QRStatusResult, error) {
	query := url.Values{}
	query.Set("ticket", ticket)

	var data struct {
		WechatTempToken string `json:"wechat_temp_token"`
		model.Credentials
	}
	err := c.do(ctx, http.MethodGet, "/u/qr_login_status", query, nil, &data)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == api.CodeTicketExpired {
			return &model.QRStatusResult{Kind: model.QRStatusExpired}, nil
		}
		return nil, err
	}

	switch {
	case data.WechatTempToken != "":
		return &model.QRStatusResult{Kind: model.QRStatusNewUser, TempToken: data.WechatTempToken}, nil
	case data.Credentials.Complete():
		creds := data.Credentials
		return &model.QRStatusResult{Kind: model.QRStatusBound, Credentials: &creds}, nil
	default:
		return &model.QRStatusResult{Kind: model.QRStatusWaiting}, nil
	}
}

// WechatBind 用临时令牌完成绑定或建号登录
func (c *Client) WechatBind(ctx context.Context, req *model.WechatBindRequest) (*model.Credentials, error) {
	var creds model.Credentials
	if err := c.do(ctx, http.MethodPost, "/u/wechat_bind", nil, req, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// ListPackages 获取套餐列表
func (c *Client) ListPackages(ctx context.Context) ([]model.Package, error) {
	var pkgs []model.Package
	if err := c.do(ctx, http.MethodGet, "/u/package", nil, nil, &pkgs); err != nil {
		return nil, err
	}
	return pkgs, nil
}

// CreateOrder 创建支付订单（需认证）
func (c *Client) CreateOrder(ctx context.Context, req *model.PayOrderRequest) (*model.Order, error) {
	var order model.Order
	if err := c.do(ctx, http.MethodPost, "/u/pay_order", nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder 获取订单（需认证）
func (c *Client) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	query := url.Values{}
	query.Set("order_id", orderID)
	var order model.Order
	if err := c.do(ctx, http.MethodGet, "/u/pay_order", query, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetPayStatus 查询支付状态（需认证）
func (c *Client) GetPayStatus(ctx context.Context, orderID string) (*model.PayStatusResult, error) {
	query := url.Values{}
	query.Set("order_id", orderID)
	var status model.PayStatusResult
	if err := c.do(ctx, http.MethodGet, "/u/get_pay_status", query, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ExchangeCDK 兑换CDK（需认证）
func (c *Client) ExchangeCDK(ctx context.Context, code string) (*model.Package, error) {
	var pkg model.Package
	req := &model.ExchangeCDKRequest{Code: code}
	if err := c.do(ctx, http.MethodPost, "/u/exchange_cdk", nil, req, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}
