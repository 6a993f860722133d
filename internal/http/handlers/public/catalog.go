package public

import (
	"strconv"
	"strings"

	"github.com/toolshelf/internal/http/handlers/shared"
	"github.com/toolshelf/internal/http/response"
	"github.com/toolshelf/internal/models"

	"github.com/gin-gonic/gin"
)

// PublicResourceView 公开资源响应结构
type PublicResourceView struct {
	ID                uint               `json:"id"`
	Slug              string             `json:"slug"`
	Title             string             `json:"title"`
	Type              string             `json:"type"`
	Price             models.MinorAmount `json:"price"`
	CommissionPercent int                `json:"commission_percent"`
	SalesCount        int64              `json:"sales_count"`
	CategoryID        uint               `json:"category_id"`
	CategoryName      string             `json:"category_name,omitempty"`
	AuthorID          uint               `json:"author_id"`
	AuthorName        string             `json:"author_name,omitempty"`
}

func toPublicResourceView(resource *models.Resource) PublicResourceView {
	return PublicResourceView{
		ID:                resource.ID,
		Slug:              resource.Slug,
		Title:             resource.Title,
		Type:              resource.Type,
		Price:             models.MinorAmount{Minor: resource.Price, Currency: resource.Currency},
		CommissionPercent: resource.CommissionPercent,
		SalesCount:        resource.SalesCount,
		CategoryID:        resource.CategoryID,
		CategoryName:      resource.Category.Name,
		AuthorID:          resource.AuthorID,
		AuthorName:        resource.Author.DisplayName,
	}
}

// GetCategories 获取分类列表
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.CategoryService.List()
	if err != nil {
		respondServiceError(c, err, "category fetch failed")
		return
	}
	response.Success(c, categories)
}

// GetResources 获取已上架资源列表
func (h *Handler) GetResources(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)

	var categoryID uint
	if raw := strings.TrimSpace(c.Query("category_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid category_id", nil)
			return
		}
		categoryID = uint(parsed)
	}

	resources, total, err := h.ResourceService.ListPublic(categoryID, c.Query("search"), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "resource fetch failed")
		return
	}
	items := make([]PublicResourceView, 0, len(resources))
	for i := range resources {
		items = append(items, toPublicResourceView(&resources[i]))
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// GetResourceBySlug 获取资源详情
func (h *Handler) GetResourceBySlug(c *gin.Context) {
	resource, err := h.ResourceService.GetPublicBySlug(c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "resource fetch failed")
		return
	}
	response.Success(c, toPublicResourceView(resource))
}
