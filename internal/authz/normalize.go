package authz

import (
	"errors"
	"strings"
)

const (
	apiV1Prefix = "/api/v1"
	rolePrefix  = "role:"
)

var errRoleRequired = errors.New("role is required")

// NormalizeRole 小写、空格转下划线并补齐 role: 前缀
func NormalizeRole(role string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(role))
	name = strings.TrimPrefix(name, rolePrefix)
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if name == "" {
		return "", errRoleRequired
	}
	return rolePrefix + name, nil
}

// NormalizeObject 路由路径去掉 /api/v1 前缀，策略与 gin 的 FullPath 因此可以直接比较
func NormalizeObject(object string) string {
	path := strings.TrimSpace(object)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	switch {
	case path == apiV1Prefix:
		return "/"
	case strings.HasPrefix(path, apiV1Prefix+"/"):
		return path[len(apiV1Prefix):]
	}
	return path
}

func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
