package admin

import (
	handlershared "github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// RolePolicyRequest 授予或撤销的单条规则
type RolePolicyRequest struct {
	Object string `json:"object" validate:"required,startswith=/"`
	Action string `json:"action" validate:"required,oneof=GET POST PUT DELETE PATCH * get post put delete patch"`
}

// ListRoles 已配置的角色
func (h *Handler) ListRoles(c *gin.Context) {
	roles, err := h.AuthzService.Roles()
	if err != nil {
		respondError(c, response.CodeInternal, "role query failed", err)
		return
	}
	response.Success(c, gin.H{"roles": roles})
}

// GetRolePolicies 角色生效策略（含继承）
func (h *Handler) GetRolePolicies(c *gin.Context) {
	policies, err := h.AuthzService.GetRolePolicies(c.Param("role"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "role invalid", err)
		return
	}
	response.Success(c, gin.H{"role": c.Param("role"), "policies": policies})
}

func (h *Handler) GrantRolePolicy(c *gin.Context) {
	var req RolePolicyRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	role := c.Param("role")
	if err := h.AuthzService.GrantRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "grant failed", err)
		return
	}
	handlershared.RequestLog(c).Infow("admin_authz_policy_granted",
		"admin_id", c.GetUint(handlershared.ContextAdminID),
		"role", role,
		"object", req.Object,
		"action", req.Action,
	)
	response.SuccessWithMsg(c, "granted", nil)
}

func (h *Handler) RevokeRolePolicy(c *gin.Context) {
	var req RolePolicyRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	role := c.Param("role")
	if err := h.AuthzService.RevokeRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "revoke failed", err)
		return
	}
	handlershared.RequestLog(c).Infow("admin_authz_policy_revoked",
		"admin_id", c.GetUint(handlershared.ContextAdminID),
		"role", role,
		"object", req.Object,
		"action", req.Action,
	)
	response.SuccessWithMsg(c, "revoked", nil)
}
