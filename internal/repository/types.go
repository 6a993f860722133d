package repository

import "time"

// ResourceListFilter 查询资源列表的过滤条件
type ResourceListFilter struct {
	Page       int
	PageSize   int
	AuthorID   uint
	CategoryID uint
	Status     string
	Search     string
}

// CreatorSalesFilter 创作者销售记录查询条件
type CreatorSalesFilter struct {
	Page      int
	PageSize  int
	CreatorID uint
	Currency  string
}

// PayoutListFilter 提现申请列表过滤条件
type PayoutListFilter struct {
	Page      int
	PageSize  int
	CreatorID uint
	Status    string
	Currency  string
}

// CreatorSaleRow 创作者销售记录（联表结果）
type CreatorSaleRow struct {
	PurchaseID       uint      `json:"purchase_id"`
	ResourceID       uint      `json:"resource_id"`
	ResourceTitle    string    `json:"resource_title"`
	ResourceSlug     string    `json:"resource_slug"`
	BuyerID          uint      `json:"buyer_id"`
	BuyerDisplayName string    `json:"buyer_display_name"`
	AmountTotal      int64     `json:"amount_total"`
	Currency         string    `json:"currency"`
	CreatorPercent   int       `json:"creator_percent"`
	CreatorEarnings  int64     `json:"creator_earnings"`
	Reversed         bool      `json:"reversed"`
	SoldAt           time.Time `json:"sold_at"`
}

// CurrencyAmount 按币种汇总的金额
type CurrencyAmount struct {
	Currency string
	Amount   int64
}
