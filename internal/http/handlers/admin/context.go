package admin

import (
	handlershared "github.com/toolshelf/internal/http/handlers/shared"
	"github.com/toolshelf/internal/service"

	"github.com/gin-gonic/gin"
)

// resolveActor 由当前用户与 casbin 角色构造 Actor
func (h *Handler) resolveActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := handlershared.GetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.ResolveActor(userID, h.AuthzService), true
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondServiceError(c *gin.Context, err error, fallbackMsg string) {
	handlershared.RespondServiceError(c, err, fallbackMsg)
}
