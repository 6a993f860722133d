package service

import (
	"context"
	"sort"

	"github.com/toolshelf/internal/cache"
	"github.com/toolshelf/internal/constants"
	"github.com/toolshelf/internal/logger"
	"github.com/toolshelf/internal/repository"
)

// SalesService 创作者销售与收益查询（只读）
type SalesService struct {
	purchaseRepo repository.PurchaseRepository
	payoutRepo   repository.PayoutRepository
}

// NewSalesService 创建销售查询服务
func NewSalesService(purchaseRepo repository.PurchaseRepository, payoutRepo repository.PayoutRepository) *SalesService {
	return &SalesService{
		purchaseRepo: purchaseRepo,
		payoutRepo:   payoutRepo,
	}
}

// CurrencyBalance 单一币种的收益与提现汇总
type CurrencyBalance struct {
	Currency      string `json:"currency"`
	TotalEarnings int64  `json:"total_earnings"`
	Pending       int64  `json:"pending"`
	Approved      int64  `json:"approved"`
	Paid          int64  `json:"paid"`
	Available     int64  `json:"available"`
}

// CreatorEarnings 创作者收益汇总
type CreatorEarnings struct {
	CreatorID  uint              `json:"creator_id"`
	SalesCount int64             `json:"sales_count"`
	Balances   []CurrencyBalance `json:"balances"`
}

// ListCreatorSales 分页查询创作者销售记录，按成交时间倒序
func (s *SalesService) ListCreatorSales(creatorID uint, page, pageSize int) ([]repository.CreatorSaleRow, int64, error) {
	rows, total, err := s.purchaseRepo.ListCreatorSales(repository.CreatorSalesFilter{
		Page:      page,
		PageSize:  pageSize,
		CreatorID: creatorID,
	})
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return rows, total, nil
}

// GetCreatorEarnings 创作者收益汇总，Redis 可用时短时缓存
func (s *SalesService) GetCreatorEarnings(ctx context.Context, creatorID uint) (*CreatorEarnings, error) {
	if creatorID == 0 {
		return nil, ErrCreatorNotFound
	}
	if ctx == nil {
		ctx = context.Background()
	}
	// 先取版本化 key 再查库，查询期间的失效会让本次写入落在旧版本上
	cacheKey, cacheErr := cache.CreatorEarningsVersionedKey(ctx, creatorID)
	if cacheErr != nil {
		logger.Warnw("creator_earnings_cache_version_failed", "creator_id", creatorID, "error", cacheErr)
	}
	if cacheKey != "" {
		var cached CreatorEarnings
		hit, err := cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warnw("creator_earnings_cache_get_failed", "creator_id", creatorID, "error", err)
		}
		if hit {
			return &cached, nil
		}
	}

	earnings, err := s.purchaseRepo.SumCreatorEarningsByCurrency(creatorID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	payouts, err := s.payoutRepo.SumAmountByStatus(creatorID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	salesCount, err := s.purchaseRepo.CountCreatorSales(creatorID)
	if err != nil {
		return nil, wrapPersistence(err)
	}

	balances := make(map[string]*CurrencyBalance)
	ensure := func(currency string) *CurrencyBalance {
		if item, ok := balances[currency]; ok {
			return item
		}
		item := &CurrencyBalance{Currency: currency}
		balances[currency] = item
		return item
	}
	for _, row := range earnings {
		ensure(row.Currency).TotalEarnings += row.Amount
	}
	for status, rows := range payouts {
		for _, row := range rows {
			item := ensure(row.Currency)
			switch status {
			case constants.PayoutStatusPending:
				item.Pending += row.Amount
			case constants.PayoutStatusApproved:
				item.Approved += row.Amount
			case constants.PayoutStatusPaid:
				item.Paid += row.Amount
			}
		}
	}

	result := &CreatorEarnings{
		CreatorID:  creatorID,
		SalesCount: salesCount,
		Balances:   make([]CurrencyBalance, 0, len(balances)),
	}
	for _, item := range balances {
		item.Available = item.TotalEarnings - item.Approved - item.Paid
		result.Balances = append(result.Balances, *item)
	}
	sort.Slice(result.Balances, func(i, j int) bool {
		return result.Balances[i].Currency < result.Balances[j].Currency
	})

	if cacheKey != "" {
		if err := cache.SetJSON(ctx, cacheKey, result, cache.CreatorEarningsTTL); err != nil {
			logger.Warnw("creator_earnings_cache_set_failed", "creator_id", creatorID, "error", err)
		}
	}
	return result, nil
}

var invalidateEarningsCache = cache.InvalidateCreatorEarnings

// invalidateCreatorEarnings 提交后推进收益缓存代数，失败时记录告警，缓存最迟在 TTL 后自愈
func invalidateCreatorEarnings(creatorID uint) {
	if err := invalidateEarningsCache(context.Background(), creatorID); err != nil {
		logger.Warnw("creator_earnings_cache_invalidate_failed", "creator_id", creatorID, "error", err)
	}
}
