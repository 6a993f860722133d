package admin

import (
	"github.com/toolshelf/internal/provider"
)

// Handler 后台管理接口处理器入口
// 说明：该处理器仅用于管理端 API，路由层已做 RBAC 校验，服务层再按 Actor 校验一次。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
