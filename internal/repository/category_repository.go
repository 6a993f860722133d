package repository

import (
	"errors"
	"strings"

	"github.com/toolshelf/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository 分类数据访问接口
type CategoryRepository interface {
	List() ([]models.Category, error)
	GetByID(id uint) (*models.Category, error)
	Create(category *models.Category) error
	CountBySlug(slug string) (int64, error)
	CountPublishedResources(categoryIDs []uint) (map[uint]int64, error)
}

// GormCategoryRepository GORM 实现
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// List 分类列表
func (r *GormCategoryRepository) List() ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Order("sort_order DESC, id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// GetByID 根据 ID 获取分类
func (r *GormCategoryRepository) GetByID(id uint) (*models.Category, error) {
	if id == 0 {
		return nil, nil
	}
	var category models.Category
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// Create 创建分类
func (r *GormCategoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

// CountBySlug 统计 slug 数量
func (r *GormCategoryRepository) CountBySlug(slug string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Category{}).Where("slug = ?", strings.TrimSpace(slug)).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountPublishedResources 按分类统计已上架资源数
func (r *GormCategoryRepository) CountPublishedResources(categoryIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64, len(categoryIDs))
	if len(categoryIDs) == 0 {
		return result, nil
	}
	var rows []struct {
		CategoryID uint
		Total      int64
	}
	err := r.db.Model(&models.Resource{}).
		Select("category_id, COUNT(*) AS total").
		Where("category_id IN ? AND status = ?", categoryIDs, "published").
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.CategoryID] = row.Total
	}
	return result, nil
}
