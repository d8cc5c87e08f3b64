package authz

import (
	"fmt"

	"github.com/bazaar-next/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 预置角色矩阵：operator 处理订单履约，admin 拥有全部管理权限
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.ActorRoleOperator,
			Policies: []Policy{
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
				{Object: "/admin/orders/:id/history", Action: "GET"},
				{Object: "/admin/orders/:id/status", Action: "PUT"},
				{Object: "/admin/orders/:id/mark-paid", Action: "POST"},
				{Object: "/admin/coupons", Action: "GET"},
				{Object: "/admin/coupons/:id", Action: "GET"},
				{Object: "/admin/loyalty/tiers", Action: "GET"},
				{Object: "/admin/loyalty/rewards", Action: "GET"},
				{Object: "/admin/loyalty/users/:id", Action: "GET"},
			},
		},
		{
			Role:     constants.ActorRoleAdmin,
			Inherits: []string{constants.ActorRoleOperator},
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略，重复执行不会产生重复规则
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return errUnavailable
	}
	for _, seed := range BuiltinRoleSeeds() {
		for _, parent := range seed.Inherits {
			if err := s.InheritRole(seed.Role, parent); err != nil {
				return err
			}
		}
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(seed.Role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("builtin role %s: %w", seed.Role, err)
			}
		}
	}
	return nil
}
