package service

import (
	"strings"

	"github.com/toolshelf/internal/models"
	"github.com/toolshelf/internal/repository"
)

// CategoryService 分类业务服务
type CategoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// CreateCategoryInput 创建分类输入
type CreateCategoryInput struct {
	Slug      string
	Name      string
	SortOrder int
}

// CategoryView 分类及其已上架资源数
type CategoryView struct {
	models.Category
	ResourceCount int64 `json:"resource_count"`
}

// List 获取分类列表
func (s *CategoryService) List() ([]CategoryView, error) {
	categories, err := s.repo.List()
	if err != nil {
		return nil, wrapPersistence(err)
	}
	ids := make([]uint, 0, len(categories))
	for _, category := range categories {
		ids = append(ids, category.ID)
	}
	counts, err := s.repo.CountPublishedResources(ids)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	views := make([]CategoryView, 0, len(categories))
	for _, category := range categories {
		views = append(views, CategoryView{Category: category, ResourceCount: counts[category.ID]})
	}
	return views, nil
}

// Create 创建分类，需要管理员能力
func (s *CategoryService) Create(actor Actor, input CreateCategoryInput) (*models.Category, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	name := strings.TrimSpace(input.Name)
	if slug == "" || name == "" {
		return nil, ErrInvalidCategory
	}
	count, err := s.repo.CountBySlug(slug)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if count > 0 {
		return nil, ErrSlugExists
	}

	category := models.Category{
		Slug:      slug,
		Name:      name,
		SortOrder: input.SortOrder,
	}
	if err := s.repo.Create(&category); err != nil {
		return nil, wrapPersistence(err)
	}
	return &category, nil
}
