package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ucenter/internal/model"
	"ucenter/internal/repository"

	"gorm.io/gorm"
)

// BillingService 套餐/订单/兑换码服务接口
type BillingService interface {
	// ListPackages 获取套餐列表
	ListPackages(ctx context.Context) ([]model.Package, error)

	// CreateOrder 创建支付订单
	CreateOrder(ctx context.Context, userID string, req *model.PayOrderRequest) (*model.Order, error)

	// GetOrder 获取订单
	GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error)

	// GetPayStatus 查询支付状态
	GetPayStatus(ctx context.Context, userID, orderID string) (*model.PayStatusResult, error)

	// ExchangeCDK 兑换CDK
	ExchangeCDK(ctx context.Context, userID string, req *model.ExchangeCDKRequest) (*model.Package, error)
}

// billingService 服务实现
type billingService struct {
	repo repository.BillingRepository
}

// NewBillingService 创建服务实例
func NewBillingService(repo repository.BillingRepository) BillingService {
	return &billingService{repo: repo}
}

// ListPackages 获取套餐列表
func (s *billingService) ListPackages(ctx context.Context) ([]model.Package, error) {
	return s.repo.ListPackages(ctx)
}

// CreateOrder 创建支付订单。支付二维码由外部网关生成，这里只落订单。
func (s *billingService) CreateOrder(ctx context.Context, userID string, req *model.PayOrderRequest) (*model.Order, error) {
	pkg, err := s.repo.GetPackage(ctx, req.PackageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query package: %w", err)
	}
	if pkg == nil || !pkg.Enabled {
		return nil, ErrPackageNotFound
	}

	order := &model.Order{
		UserID:     userID,
		PackageID:  pkg.ID,
		AmountCent: pkg.PriceCent,
		Status:     model.OrderStatusPending,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

// GetOrder 获取订单。只能查自己的订单。
func (s *billingService) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetPayStatus 查询支付状态
func (s *billingService) GetPayStatus(ctx context.Context, userID, orderID string) (*model.PayStatusResult, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return &model.PayStatusResult{OrderID: order.ID, Status: order.Status}, nil
}

// ExchangeCDK 兑换CDK。已使用的兑换码返回业务错误，不影响会话。
func (s *billingService) ExchangeCDK(ctx context.Context, userID string, req *model.ExchangeCDKRequest) (*model.Package, error) {
	cdk, err := s.repo.GetCDK(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to query cdk: %w", err)
	}
	if cdk == nil {
		return nil, ErrCDKInvalid
	}
	if cdk.Used {
		return nil, ErrCDKUsed
	}

	now := time.Now()
	cdk.UsedBy = userID
	cdk.UsedAt = &now
	if err := s.repo.MarkCDKUsed(ctx, cdk); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 并发兑换时另一请求抢先
			return nil, ErrCDKUsed
		}
		return nil, fmt.Errorf("failed to mark cdk used: %w", err)
	}

	pkg, err := s.repo.GetPackage(ctx, cdk.PackageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query package: %w", err)
	}
	return pkg, nil
}
