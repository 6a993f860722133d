package public

import (
	"github.com/toolshelf/internal/provider"
)

// Handler 公开接口与登录用户接口处理器入口
// 说明：买家结账、创作者收益与提现均在此处理，管理端见 admin 包。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
