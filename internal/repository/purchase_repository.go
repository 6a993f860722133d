package repository

import (
	"errors"
	"strings"

	"github.com/toolshelf/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseRepository 成交记录数据访问接口
type PurchaseRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) PurchaseRepository

	Create(purchase *models.Purchase) error
	GetByID(id uint) (*models.Purchase, error)
	GetByIDForUpdate(id uint) (*models.Purchase, error)
	GetByPaymentRef(ref string) (*models.Purchase, error)
	CreateReversal(reversal *models.PurchaseReversal) error
	GetReversalByPurchaseID(purchaseID uint) (*models.PurchaseReversal, error)
	SumCreatorEarnings(creatorID uint, currency string) (int64, error)
	SumCreatorEarningsByCurrency(creatorID uint) ([]CurrencyAmount, error)
	CountCreatorSales(creatorID uint) (int64, error)
	ListCreatorSales(filter CreatorSalesFilter) ([]CreatorSaleRow, int64, error)
}

// GormPurchaseRepository GORM 实现
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository 创建成交记录仓库
func NewPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPurchaseRepository) WithTx(tx *gorm.DB) PurchaseRepository {
	if tx == nil {
		return r
	}
	return &GormPurchaseRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPurchaseRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建成交记录
func (r *GormPurchaseRepository) Create(purchase *models.Purchase) error {
	return r.db.Create(purchase).Error
}

// GetByID 根据 ID 获取成交记录（含冲正记录）
func (r *GormPurchaseRepository) GetByID(id uint) (*models.Purchase, error) {
	if id == 0 {
		return nil, nil
	}
	var purchase models.Purchase
	if err := r.db.Preload("Reversal").First(&purchase, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

// GetByIDForUpdate 加锁获取成交记录
func (r *GormPurchaseRepository) GetByIDForUpdate(id uint) (*models.Purchase, error) {
	if id == 0 {
		return nil, nil
	}
	var purchase models.Purchase
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&purchase, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

// GetByPaymentRef 根据支付流水号获取成交记录
func (r *GormPurchaseRepository) GetByPaymentRef(ref string) (*models.Purchase, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	var purchase models.Purchase
	if err := r.db.Where("payment_ref = ?", ref).First(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

// CreateReversal 创建冲正记录
func (r *GormPurchaseRepository) CreateReversal(reversal *models.PurchaseReversal) error {
	return r.db.Create(reversal).Error
}

// GetReversalByPurchaseID 获取成交的冲正记录
func (r *GormPurchaseRepository) GetReversalByPurchaseID(purchaseID uint) (*models.PurchaseReversal, error) {
	if purchaseID == 0 {
		return nil, nil
	}
	var reversal models.PurchaseReversal
	if err := r.db.Where("purchase_id = ?", purchaseID).First(&reversal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reversal, nil
}

// creatorPurchasesQuery 创作者名下未冲正的成交
func (r *GormPurchaseRepository) creatorPurchasesQuery(creatorID uint) *gorm.DB {
	return r.db.Model(&models.Purchase{}).
		Joins("JOIN resources ON resources.id = purchases.resource_id").
		Joins("LEFT JOIN purchase_reversals ON purchase_reversals.purchase_id = purchases.id").
		Where("resources.author_id = ?", creatorID).
		Where("purchase_reversals.id IS NULL")
}

// SumCreatorEarnings 汇总创作者指定币种的累计收益（不含已冲正成交）
func (r *GormPurchaseRepository) SumCreatorEarnings(creatorID uint, currency string) (int64, error) {
	if creatorID == 0 {
		return 0, nil
	}
	var row struct {
		Total int64
	}
	if err := r.creatorPurchasesQuery(creatorID).
		Where("purchases.currency = ?", strings.ToUpper(strings.TrimSpace(currency))).
		Select("COALESCE(SUM(purchases.creator_earnings), 0) AS total").
		Scan(&row).Error; err != nil {
		return 0, err
	}
	return row.Total, nil
}

// SumCreatorEarningsByCurrency 按币种汇总创作者累计收益
func (r *GormPurchaseRepository) SumCreatorEarningsByCurrency(creatorID uint) ([]CurrencyAmount, error) {
	if creatorID == 0 {
		return []CurrencyAmount{}, nil
	}
	var rows []CurrencyAmount
	if err := r.creatorPurchasesQuery(creatorID).
		Select("purchases.currency AS currency, COALESCE(SUM(purchases.creator_earnings), 0) AS amount").
		Group("purchases.currency").
		Order("purchases.currency asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountCreatorSales 统计创作者未冲正的成交数
func (r *GormPurchaseRepository) CountCreatorSales(creatorID uint) (int64, error) {
	if creatorID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.creatorPurchasesQuery(creatorID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListCreatorSales 分页查询创作者销售记录，按成交时间倒序
func (r *GormPurchaseRepository) ListCreatorSales(filter CreatorSalesFilter) ([]CreatorSaleRow, int64, error) {
	if filter.CreatorID == 0 {
		return []CreatorSaleRow{}, 0, nil
	}
	query := r.db.Model(&models.Purchase{}).
		Joins("JOIN resources ON resources.id = purchases.resource_id").
		Joins("LEFT JOIN users buyers ON buyers.id = purchases.buyer_id").
		Joins("LEFT JOIN purchase_reversals ON purchase_reversals.purchase_id = purchases.id").
		Where("resources.author_id = ?", filter.CreatorID)
	if currency := strings.ToUpper(strings.TrimSpace(filter.Currency)); currency != "" {
		query = query.Where("purchases.currency = ?", currency)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []CreatorSaleRow
	if err := query.Select(
		"purchases.id AS purchase_id",
		"purchases.resource_id AS resource_id",
		"resources.title AS resource_title",
		"resources.slug AS resource_slug",
		"purchases.buyer_id AS buyer_id",
		"COALESCE(buyers.display_name, '') AS buyer_display_name",
		"purchases.amount_total AS amount_total",
		"purchases.currency AS currency",
		"purchases.creator_percent AS creator_percent",
		"purchases.creator_earnings AS creator_earnings",
		"CASE WHEN purchase_reversals.id IS NULL THEN 0 ELSE 1 END AS reversed",
		"purchases.created_at AS sold_at",
	).Order("purchases.created_at desc").Order("purchases.id desc").Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
