package repository

import (
	"errors"
	"strings"

	"github.com/toolshelf/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentOrderRepository 支付单数据访问接口
type PaymentOrderRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) PaymentOrderRepository

	Create(order *models.PaymentOrder) error
	GetByOrderNo(orderNo string) (*models.PaymentOrder, error)
	GetByOrderNoForUpdate(orderNo string) (*models.PaymentOrder, error)
	Update(order *models.PaymentOrder) error
}

// GormPaymentOrderRepository GORM 实现
type GormPaymentOrderRepository struct {
	db *gorm.DB
}

// NewPaymentOrderRepository 创建支付单仓库
func NewPaymentOrderRepository(db *gorm.DB) *GormPaymentOrderRepository {
	return &GormPaymentOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentOrderRepository) WithTx(tx *gorm.DB) PaymentOrderRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPaymentOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建支付单
func (r *GormPaymentOrderRepository) Create(order *models.PaymentOrder) error {
	return r.db.Create(order).Error
}

// GetByOrderNo 根据支付单号获取
func (r *GormPaymentOrderRepository) GetByOrderNo(orderNo string) (*models.PaymentOrder, error) {
	return r.getByOrderNo(r.db, orderNo)
}

// GetByOrderNoForUpdate 加锁获取支付单
func (r *GormPaymentOrderRepository) GetByOrderNoForUpdate(orderNo string) (*models.PaymentOrder, error) {
	return r.getByOrderNo(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), orderNo)
}

func (r *GormPaymentOrderRepository) getByOrderNo(db *gorm.DB, orderNo string) (*models.PaymentOrder, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	var order models.PaymentOrder
	if err := db.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Update 更新支付单
func (r *GormPaymentOrderRepository) Update(order *models.PaymentOrder) error {
	return r.db.Save(order).Error
}
