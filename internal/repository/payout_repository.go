package repository

import (
	"errors"
	"strings"

	"github.com/toolshelf/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayoutRepository 提现申请数据访问接口
type PayoutRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) PayoutRepository

	Create(request *models.PayoutRequest) error
	GetByID(id uint) (*models.PayoutRequest, error)
	GetByIDForUpdate(id uint) (*models.PayoutRequest, error)
	Update(request *models.PayoutRequest) error
	SumAmountByStatuses(creatorID uint, currency string, statuses []string) (int64, error)
	SumAmountByStatus(creatorID uint) (map[string][]CurrencyAmount, error)
	List(filter PayoutListFilter) ([]models.PayoutRequest, int64, error)
}

// GormPayoutRepository GORM 实现
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository 创建提现申请仓库
func NewPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPayoutRepository) WithTx(tx *gorm.DB) PayoutRepository {
	if tx == nil {
		return r
	}
	return &GormPayoutRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPayoutRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建提现申请
func (r *GormPayoutRepository) Create(request *models.PayoutRequest) error {
	return r.db.Create(request).Error
}

// GetByID 根据 ID 获取提现申请
func (r *GormPayoutRepository) GetByID(id uint) (*models.PayoutRequest, error) {
	if id == 0 {
		return nil, nil
	}
	var request models.PayoutRequest
	if err := r.db.Preload("Creator").First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// GetByIDForUpdate 加锁获取提现申请
func (r *GormPayoutRepository) GetByIDForUpdate(id uint) (*models.PayoutRequest, error) {
	if id == 0 {
		return nil, nil
	}
	var request models.PayoutRequest
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// Update 更新提现申请
func (r *GormPayoutRepository) Update(request *models.PayoutRequest) error {
	return r.db.Omit("Creator").Save(request).Error
}

// SumAmountByStatuses 汇总创作者指定币种、指定状态的提现金额
func (r *GormPayoutRepository) SumAmountByStatuses(creatorID uint, currency string, statuses []string) (int64, error) {
	if creatorID == 0 || len(statuses) == 0 {
		return 0, nil
	}
	var row struct {
		Total int64
	}
	if err := r.db.Model(&models.PayoutRequest{}).
		Where("creator_id = ? AND currency = ? AND status IN ?", creatorID, strings.ToUpper(strings.TrimSpace(currency)), statuses).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return 0, err
	}
	return row.Total, nil
}

// SumAmountByStatus 按状态与币种汇总创作者的提现金额
func (r *GormPayoutRepository) SumAmountByStatus(creatorID uint) (map[string][]CurrencyAmount, error) {
	result := make(map[string][]CurrencyAmount)
	if creatorID == 0 {
		return result, nil
	}
	var rows []struct {
		Status   string
		Currency string
		Amount   int64
	}
	if err := r.db.Model(&models.PayoutRequest{}).
		Where("creator_id = ?", creatorID).
		Select("status, currency, COALESCE(SUM(amount), 0) AS amount").
		Group("status, currency").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.Status] = append(result[row.Status], CurrencyAmount{Currency: row.Currency, Amount: row.Amount})
	}
	return result, nil
}

// List 提现申请列表
func (r *GormPayoutRepository) List(filter PayoutListFilter) ([]models.PayoutRequest, int64, error) {
	query := r.db.Model(&models.PayoutRequest{})
	if filter.CreatorID != 0 {
		query = query.Where("creator_id = ?", filter.CreatorID)
	}
	if status := strings.ToUpper(strings.TrimSpace(filter.Status)); status != "" {
		query = query.Where("status = ?", status)
	}
	if currency := strings.ToUpper(strings.TrimSpace(filter.Currency)); currency != "" {
		query = query.Where("currency = ?", currency)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var requests []models.PayoutRequest
	if err := query.Preload("Creator").Order("id desc").Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}
