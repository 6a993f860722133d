package repository

import (
	"errors"
	"strings"

	"github.com/toolshelf/internal/models"

	"gorm.io/gorm"
)

// ResourceRepository 资源数据访问接口
type ResourceRepository interface {
	GetByID(id uint) (*models.Resource, error)
	GetBySlug(slug string) (*models.Resource, error)
	Create(resource *models.Resource) error
	List(filter ResourceListFilter) ([]models.Resource, int64, error)
	AdjustSalesCount(id uint, delta int64) error
	WithTx(tx *gorm.DB) ResourceRepository
}

// GormResourceRepository GORM 实现
type GormResourceRepository struct {
	db *gorm.DB
}

// NewResourceRepository 创建资源仓库
func NewResourceRepository(db *gorm.DB) *GormResourceRepository {
	return &GormResourceRepository{db: db}
}

// WithTx 绑定事务
func (r *GormResourceRepository) WithTx(tx *gorm.DB) ResourceRepository {
	if tx == nil {
		return r
	}
	return &GormResourceRepository{db: tx}
}

// GetByID 根据 ID 获取资源
func (r *GormResourceRepository) GetByID(id uint) (*models.Resource, error) {
	if id == 0 {
		return nil, nil
	}
	var resource models.Resource
	if err := r.db.First(&resource, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &resource, nil
}

// GetBySlug 根据标识获取资源（含创作者与分类）
func (r *GormResourceRepository) GetBySlug(slug string) (*models.Resource, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var resource models.Resource
	if err := r.db.Preload("Author").Preload("Category").Where("slug = ?", slug).First(&resource).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &resource, nil
}

// Create 创建资源
func (r *GormResourceRepository) Create(resource *models.Resource) error {
	return r.db.Create(resource).Error
}

// List 资源列表
func (r *GormResourceRepository) List(filter ResourceListFilter) ([]models.Resource, int64, error) {
	query := r.db.Model(&models.Resource{})
	if filter.AuthorID != 0 {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, args := searchCondition(r.db, search, "title", "slug")
		query = query.Where(condition, args...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var resources []models.Resource
	if err := query.Order("id desc").Find(&resources).Error; err != nil {
		return nil, 0, err
	}
	return resources, total, nil
}

// AdjustSalesCount 原子调整销量（sales_count = sales_count + delta），不做读改写
func (r *GormResourceRepository) AdjustSalesCount(id uint, delta int64) error {
	if id == 0 || delta == 0 {
		return nil
	}
	result := r.db.Model(&models.Resource{}).
		Where("id = ?", id).
		UpdateColumn("sales_count", gorm.Expr("sales_count + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
