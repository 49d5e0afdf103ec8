package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Package 套餐模型
type Package struct {
	ID        string         `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	PriceCent int64          `json:"price_cent"` // 价格(分)
	Days      int            `json:"days"`       // 有效天数
	Features  pq.StringArray `json:"features" gorm:"type:text[]"`
	Enabled   bool           `json:"enabled" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
}

// BeforeCreate GORM的钩子，创建前生成UUID
func (p *Package) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// OrderStatus 订单状态
type OrderStatus int

const (
	OrderStatusPending OrderStatus = iota // 待支付
	OrderStatusPaid                       // 已支付
	OrderStatusClosed                     // 已关闭
)

// Order 支付订单
type Order struct {
	ID         string      `json:"id" gorm:"primaryKey;type:uuid"`
	UserID     string      `json:"user_id" gorm:"index;type:uuid"`
	PackageID  string      `json:"package_id" gorm:"type:uuid"`
	AmountCent int64       `json:"amount_cent"`
	Status     OrderStatus `json:"status" gorm:"type:int;default:0"`
	PayURL     string      `json:"pay_url" gorm:"type:varchar(500)"` // 支付二维码地址，由外部支付网关生成
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// BeforeCreate GORM的钩子，创建前生成UUID
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

// CDK 兑换码
type CDK struct {
	Code      string     `json:"code" gorm:"primaryKey;type:varchar(100)"`
	PackageID string     `json:"package_id" gorm:"type:uuid"`
	Used      bool       `json:"used" gorm:"default:false"`
	UsedBy    string     `json:"used_by" gorm:"type:uuid"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// PayOrderRequest 下单请求
type PayOrderRequest struct {
	PackageID string `json:"package_id" binding:"required"`
}

// PayStatusResult 支付状态查询结果
type PayStatusResult struct {
	OrderID string      `json:"order_id"`
	Status  OrderStatus `json:"status"`
}

// ExchangeCDKRequest 兑换码请求
type ExchangeCDKRequest struct {
	Code string `json:"code" binding:"required"`
}
