package authz

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const casbinTableName = "casbin_rule"

var errUnavailable = errors.New("authz service unavailable")

// 主体为角色，资源按 keyMatch2 匹配 gin 路由模板，动作 * 匹配任意方法
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy 一条授权规则
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// Service 管理端路由授权；策略存于 casbin_rule 表，写操作自动落库
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("authz adapter: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("authz enforcer: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz load policy: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return errUnavailable
	}
	return nil
}

// Enforce 原始判定，sub 需为完整主体名
func (s *Service) Enforce(sub, obj, act string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(strings.TrimSpace(sub), NormalizeObject(obj), NormalizeAction(act))
}

// EnforceRole 按令牌中的角色判定；角色为空视为拒绝而非错误
func (s *Service) EnforceRole(role, obj, act string) (bool, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return false, nil
	}
	return s.Enforce(subject, obj, act)
}

// Roles 所有出现在策略或继承关系中的角色，按名称排序
func (s *Service) Roles() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	subjects, err := s.enforcer.GetAllSubjects()
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	parents, err := s.enforcer.GetAllRoles()
	if err != nil {
		return nil, fmt.Errorf("list parent roles: %w", err)
	}
	var roles []string
	for _, subject := range append(subjects, parents...) {
		if strings.HasPrefix(subject, rolePrefix) && !slices.Contains(roles, subject) {
			roles = append(roles, subject)
		}
	}
	slices.Sort(roles)
	return roles, nil
}

// InheritRole child 获得 parent 的全部策略
func (s *Service) InheritRole(child, parent string) error {
	c, err := NormalizeRole(child)
	if err != nil {
		return err
	}
	p, err := NormalizeRole(parent)
	if err != nil {
		return err
	}
	if c == p {
		return errors.New("role cannot inherit itself")
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.AddGroupingPolicy(c, p); err != nil {
		return fmt.Errorf("inherit %s from %s: %w", c, p, err)
	}
	return nil
}

// GrantRolePolicy 幂等授权
func (s *Service) GrantRolePolicy(role, object, action string) error {
	rule, err := roleRule(role, object, action)
	if err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(rule...); err != nil {
		return fmt.Errorf("grant %v: %w", rule, err)
	}
	return nil
}

// RevokeRolePolicy 撤销授权，规则不存在时不报错
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	rule, err := roleRule(role, object, action)
	if err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.RemovePolicy(rule...); err != nil {
		return fmt.Errorf("revoke %v: %w", rule, err)
	}
	return nil
}

// GetRolePolicies 角色生效的全部策略（含继承），Subject 为实际持有规则的角色
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetImplicitPermissionsForUser(subject)
	if err != nil {
		return nil, fmt.Errorf("policies of %s: %w", subject, err)
	}
	policies := make([]Policy, 0, len(rules))
	for _, r := range rules {
		if len(r) < 3 {
			continue
		}
		policies = append(policies, Policy{Subject: r[0], Object: r[1], Action: r[2]})
	}
	slices.SortFunc(policies, func(a, b Policy) int {
		if a.Object != b.Object {
			return strings.Compare(a.Object, b.Object)
		}
		return strings.Compare(a.Action, b.Action)
	})
	return policies, nil
}

func roleRule(role, object, action string) ([]any, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	act := NormalizeAction(action)
	if act == "" {
		return nil, errors.New("action is required")
	}
	return []any{subject, NormalizeObject(object), act}, nil
}
