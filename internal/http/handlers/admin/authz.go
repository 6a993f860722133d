package admin

import (
	"github.com/toolshelf/internal/http/handlers/shared"
	"github.com/toolshelf/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SetUserRolesRequest 覆盖用户角色请求
type SetUserRolesRequest struct {
	Roles []string `json:"roles"`
}

// GetUserRoles 查询用户角色
func (h *Handler) GetUserRoles(c *gin.Context) {
	userID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid user id", nil)
		return
	}
	roles, err := h.AuthzService.GetUserRoles(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "role fetch failed", err)
		return
	}
	response.Success(c, gin.H{"user_id": userID, "roles": roles})
}

// SetUserRoles 覆盖用户角色，空列表表示撤销全部角色
func (h *Handler) SetUserRoles(c *gin.Context) {
	operatorID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	userID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid user id", nil)
		return
	}
	var req SetUserRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	// 不允许撤销自己的角色，避免锁死后台
	if userID == operatorID {
		respondError(c, response.CodeBadRequest, "cannot change own roles", nil)
		return
	}
	user, err := h.UserRepo.GetByID(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "role update failed", err)
		return
	}
	if user == nil {
		response.NotFound(c, "user not found")
		return
	}

	if err := h.AuthzService.SetUserRoles(userID, req.Roles); err != nil {
		respondError(c, response.CodeBadRequest, "role update failed", err)
		return
	}
	roles, err := h.AuthzService.GetUserRoles(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "role fetch failed", err)
		return
	}
	shared.RequestLog(c).Infow("admin_user_roles_updated",
		"operator_id", operatorID,
		"user_id", userID,
		"roles", roles,
	)
	response.Success(c, gin.H{"user_id": userID, "roles": roles})
}
