package models

import (
	"time"
)

// Category 资源分类
type Category struct {
	ID        uint      `gorm:"primarykey" json:"id"`                 // 主键
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`     // 分类标识
	Name      string    `gorm:"not null" json:"name"`                 // 分类名称
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"` // 排序
	CreatedAt time.Time `json:"created_at"`                           // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                           // 更新时间
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}
