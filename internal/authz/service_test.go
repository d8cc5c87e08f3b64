package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceRoleWithPolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("support", "/admin/orders/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}

	allow, err := svc.EnforceRole("support", "/api/v1/admin/orders/42", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceRole("support", "/api/v1/admin/orders/42/status", "PUT")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}

	allow, err = svc.EnforceRole("", "/api/v1/admin/orders/42", "GET")
	if err != nil || allow {
		t.Fatalf("empty role must be denied, allow=%v err=%v", allow, err)
	}
}

func TestRevokeRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("support", "/admin/coupons", "GET"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if err := svc.RevokeRolePolicy("support", "/admin/coupons", "GET"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	allow, err := svc.EnforceRole("support", "/admin/coupons", "GET")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if allow {
		t.Fatalf("expected revoked policy to deny")
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/orders/:id", want: "/admin/orders/:id"},
		{in: "/admin/orders/:id", want: "/admin/orders/:id"},
		{in: "admin/orders", want: "/admin/orders"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	got, err := NormalizeRole(" Operator ")
	if err != nil || got != "role:operator" {
		t.Fatalf("normalize role want role:operator got=%q err=%v", got, err)
	}
	if _, err := NormalizeRole("role:"); err == nil {
		t.Fatalf("expected empty role error")
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	// 幂等
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	roles, err := svc.Roles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{"role:admin": true, "role:operator": true}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}

	cases := []struct {
		role   string
		path   string
		method string
		allow  bool
	}{
		{role: "operator", path: "/api/v1/admin/orders/:id/status", method: "PUT", allow: true},
		{role: "operator", path: "/api/v1/admin/orders", method: "GET", allow: true},
		{role: "operator", path: "/api/v1/admin/coupons", method: "POST", allow: false},
		{role: "operator", path: "/api/v1/admin/loyalty/adjust", method: "POST", allow: false},
		{role: "admin", path: "/api/v1/admin/loyalty/adjust", method: "POST", allow: true},
		{role: "admin", path: "/api/v1/admin/coupons/:id/disable", method: "POST", allow: true},
		{role: "user", path: "/api/v1/admin/orders", method: "GET", allow: false},
	}
	for _, tc := range cases {
		allow, err := svc.EnforceRole(tc.role, tc.path, tc.method)
		if err != nil {
			t.Fatalf("enforce %s %s %s failed: %v", tc.role, tc.method, tc.path, err)
		}
		if allow != tc.allow {
			t.Fatalf("enforce %s %s %s want %v got %v", tc.role, tc.method, tc.path, tc.allow, allow)
		}
	}

	policies, err := svc.GetRolePolicies("admin")
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	if len(policies) < 2 {
		t.Fatalf("admin should see own and inherited policies, got=%v", policies)
	}
}

func TestInheritRole(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.InheritRole("admin", "admin"); err == nil {
		t.Fatalf("self inheritance should fail")
	}
	if err := svc.GrantRolePolicy("viewer", "/admin/coupons", "GET"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if err := svc.InheritRole("auditor", "viewer"); err != nil {
		t.Fatalf("inherit failed: %v", err)
	}
	allow, err := svc.EnforceRole("auditor", "/api/v1/admin/coupons", "GET")
	if err != nil || !allow {
		t.Fatalf("inherited policy should allow, allow=%v err=%v", allow, err)
	}
}
