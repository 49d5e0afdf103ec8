package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ucenter/internal/audit"
	"ucenter/internal/model"
	"ucenter/internal/repository"
	"ucenter/pkg/logger"

	"github.com/google/uuid"
)

// WechatService 微信扫码登录服务接口
type WechatService interface {
	// IssueLoginQR 签发扫码登录票据
	IssueLoginQR(ctx context.Context) (*model.QRTicket, error)

	// MarkScanned 标记票据已被某openid扫码（生产环境由微信回调触发）
	MarkScanned(ctx context.Context, ticket, openID string) error

	// QueryStatus 查询扫码状态
	QueryStatus(ctx context.Context, ticket string, clientIP string) (*model.QRStatusResult, error)

	// Bind 用临时令牌完成绑定或建号登录
	Bind(ctx context.Context, req *model.WechatBindRequest, clientIP string) (*model.Credentials, error)
}

// wechatService 微信扫码登录服务实现
type wechatService struct {
	ticketRepo   repository.TicketRepository
	userRepo     repository.UserRepository
	tokenSvc     TokenService
	locationSvc  IPLocationService
	events       *audit.Hub
	qrURLBase    string
	ticketTTL    time.Duration
	tempTokenTTL time.Duration
}

// NewWechatService 创建微信扫码登录服务实例
func NewWechatService(
	ticketRepo repository.TicketRepository,
	userRepo repository.UserRepository,
	tokenSvc TokenService,
	locationSvc IPLocationService,
	events *audit.Hub,
	qrURLBase string,
	ticketTTL, tempTokenTTL time.Duration,
) WechatService {
	return &wechatService{
		ticketRepo:   ticketRepo,
		userRepo:     userRepo,
		tokenSvc:     tokenSvc,
		locationSvc:  locationSvc,
		events:       events,
		qrURLBase:    qrURLBase,
		ticketTTL:    ticketTTL,
		tempTokenTTL: tempTokenTTL,
	}
}

// IssueLoginQR 签发扫码登录票据。票据写入存储并带TTL，
// 过期后查询按票据过期处理。
func (s *wechatService) IssueLoginQR(ctx context.Context) (*model.QRTicket, error) {
	ticket := uuid.New().String()
	record := &model.TicketRecord{Status: model.TicketStatusWaiting}
	if err := s.ticketRepo.SaveTicket(ctx, ticket, record, s.ticketTTL); err != nil {
		return nil, fmt.Errorf("failed to save ticket: %w", err)
	}

	logger.Debug("[QR] Issued login ticket %s", ticket)
	return &model.QRTicket{
		Ticket:    ticket,
		QRCodeURL: fmt.Sprintf("%s?ticket=%s", s.qrURLBase, ticket),
	}, nil
}

// MarkScanned 标记票据已被扫码
func (s *wechatService) MarkScanned(ctx context.Context, ticket, openID string) error {
	record, err := s.ticketRepo.GetTicket(ctx, ticket)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTicketExpired
		}
		return err
	}

	record.Status = model.TicketStatusScanned
	record.OpenID = openID
	// 保留原TTL语义：扫码不延长票据寿命
	return s.ticketRepo.SaveTicket(ctx, ticket, record, s.ticketTTL)
}

// QueryStatus 查询扫码状态。已扫码时票据被消费：
// 已绑定身份直接签发三元组，新身份签发单次使用的临时令牌。
func (s *wechatService) QueryStatus(ctx context.Context, ticket string, clientIP string) (*model.QRStatusResult, error) {
	record, err := s.ticketRepo.GetTicket(ctx, ticket)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.QRStatusResult{Kind: model.QRStatusExpired}, nil
		}
		return nil, err
	}

	if record.Status != model.TicketStatusScanned {
		return &model.QRStatusResult{Kind: model.QRStatusWaiting}, nil
	}

	// 已扫码，票据使命完成
	if err := s.ticketRepo.DeleteTicket(ctx, ticket); err != nil {
		logger.Warn("[QR] Failed to delete consumed ticket %s: %v", ticket, err)
	}

	user, err := s.userRepo.GetByWechatOpenID(ctx, record.OpenID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user by openid: %w", err)
	}

	if user != nil {
		// 已绑定的老用户：直接签发完整凭证，无需绑定步骤
		creds, err := s.tokenSvc.IssueCredentials(ctx, user)
		if err != nil {
			return nil, err
		}
		s.publishLogin(ctx, user, clientIP)
		return &model.QRStatusResult{Kind: model.QRStatusBound, Credentials: creds}, nil
	}

	// 新身份：签发临时令牌，等待客户端调用绑定接口
	tempToken := uuid.New().String()
	if err := s.ticketRepo.SaveTempToken(ctx, tempToken, record.OpenID, s.tempTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to save temp token: %w", err)
	}
	return &model.QRStatusResult{Kind: model.QRStatusNewUser, TempToken: tempToken}, nil
}

// Bind 用临时令牌完成绑定或建号登录。
// is_bind为false时以该微信身份创建全新账号；为true时绑定到
// 请求中凭证指向的已有账号。
func (s *wechatService) Bind(ctx context.Context, req *model.WechatBindRequest, clientIP string) (*model.Credentials, error) {
	openID, err := s.ticketRepo.TakeTempToken(ctx, req.WechatTempToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTempTokenInvalid
		}
		return nil, err
	}

	var user *model.User
	if req.IsBind {
		// 绑定到已有账号：必须携带有效凭证
		if err := s.tokenSvc.ValidateXToken(ctx, req.UserID, req.Token); err != nil {
			return nil, err
		}
		user, err = s.userRepo.GetByID(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to query user: %w", err)
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		if err := s.userRepo.BindWechat(ctx, user.ID, openID); err != nil {
			return nil, fmt.Errorf("failed to bind wechat: %w", err)
		}
		user.WechatOpenID = openID
	} else {
		// 全新账号，仅以微信身份登录
		user = &model.User{
			WechatOpenID: openID,
			Status:       model.UserStatusEnabled,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	creds, err := s.tokenSvc.IssueCredentials(ctx, user)
	if err != nil {
		return nil, err
	}

	s.publishLogin(ctx, user, clientIP)
	return creds, nil
}

// publishLogin 记录扫码登录
func (s *wechatService) publishLogin(ctx context.Context, user *model.User, clientIP string) {
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
			Method: audit.MethodWechat,
			IP:     clientIP,
			Region: region,
			Time:   time.Now(),
		})
	}
}
