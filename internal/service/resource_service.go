package service

import (
	"strings"

	"github.com/toolshelf/internal/constants"
	"github.com/toolshelf/internal/models"
	"github.com/toolshelf/internal/repository"
)

// ResourceService 资源查询服务（仅公开视图）
type ResourceService struct {
	repo repository.ResourceRepository
}

// NewResourceService 创建资源服务
func NewResourceService(repo repository.ResourceRepository) *ResourceService {
	return &ResourceService{repo: repo}
}

// ListPublic 获取已上架资源列表
func (s *ResourceService) ListPublic(categoryID uint, search string, page, pageSize int) ([]models.Resource, int64, error) {
	resources, total, err := s.repo.List(repository.ResourceListFilter{
		Page:       page,
		PageSize:   pageSize,
		CategoryID: categoryID,
		Status:     constants.ResourceStatusPublished,
		Search:     strings.TrimSpace(search),
	})
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return resources, total, nil
}

// GetPublicBySlug 获取已上架资源详情，未上架视为不存在
func (s *ResourceService) GetPublicBySlug(slug string) (*models.Resource, error) {
	resource, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if resource == nil || resource.Status != constants.ResourceStatusPublished {
		return nil, ErrResourceNotFound
	}
	return resource, nil
}
