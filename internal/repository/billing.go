package repository

import (
	"context"
	"errors"

	"ucenter/internal/model"

	"gorm.io/gorm"
)

// BillingRepository 套餐/订单/兑换码仓储接口
type BillingRepository interface {
	ListPackages(ctx context.Context) ([]model.Package, error)
	GetPackage(ctx context.Context, id string) (*model.Package, error)
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error
	GetCDK(ctx context.Context, code string) (*model.CDK, error)
	MarkCDKUsed(ctx context.Context, cdk *model.CDK) error
}

// billingRepository 仓储实现
type billingRepository struct {
	db *gorm.DB
}

// NewBillingRepository 创建仓储实例
func NewBillingRepository(db *gorm.DB) BillingRepository {
	return &billingRepository{db: db}
}

// ListPackages 获取启用的套餐列表
func (r *billingRepository) ListPackages(ctx context.Context) ([]model.Package, error) {
	var pkgs []model.Package
	if err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("price_cent").Find(&pkgs).Error; err != nil {
		return nil, err
	}
	return pkgs, nil
}

// GetPackage 获取套餐
func (r *billingRepository) GetPackage(ctx context.Context, id string) (*model.Package, error) {
	var pkg model.Package
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

// CreateOrder 创建订单
func (r *billingRepository) CreateOrder(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetOrder 获取订单
func (r *billingRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus 更新订单状态
func (r *billingRepository) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).UpdateColumn("status", status).Error
}

// GetCDK 获取兑换码
func (r *billingRepository) GetCDK(ctx context.Context, code string) (*model.CDK, error) {
	var cdk model.CDK
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&cdk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cdk, nil
}

// MarkCDKUsed 标记兑换码已使用。带条件更新防止并发重复兑换。
func (r *billingRepository) MarkCDKUsed(ctx context.Context, cdk *model.CDK) error {
	res := r.db.WithContext(ctx).Model(&model.CDK{}).
		Where("code = ? AND used = ?", cdk.Code, false).
		UpdateColumns(map[string]interface{}{
			"used":    true,
			"used_by": cdk.UsedBy,
			"used_at": cdk.UsedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
