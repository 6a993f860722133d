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

func TestBootstrapAdminGrantsCapability(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapAdmin(1); err != nil {
		t.Fatalf("bootstrap admin failed: %v", err)
	}

	ok, err := svc.IsAdmin(1)
	if err != nil || !ok {
		t.Fatalf("expected user 1 to be admin, got %v %v", ok, err)
	}
	ok, err = svc.IsAdmin(2)
	if err != nil || ok {
		t.Fatalf("expected user 2 not to be admin, got %v %v", ok, err)
	}

	allow, err := svc.EnforceUser(1, "/api/v1/admin/payouts/42/review", "post")
	if err != nil || !allow {
		t.Fatalf("expected admin route allowed, got %v %v", allow, err)
	}
	allow, err = svc.EnforceUser(2, "/api/v1/admin/payouts", "GET")
	if err != nil || allow {
		t.Fatalf("expected non admin route denied, got %v %v", allow, err)
	}
}

func TestBootstrapIsRepeatable(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	for i := 0; i < 2; i++ {
		if err := svc.BootstrapAdmin(1); err != nil {
			t.Fatalf("bootstrap round %d failed: %v", i, err)
		}
	}
	roles, err := svc.GetUserRoles(1)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:admin" {
		t.Fatalf("roles want [role:admin], got=%v", roles)
	}
}

func TestSetUserRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("reporting", "/admin/payouts", "GET"); err != nil {
		t.Fatalf("grant reporting policy failed: %v", err)
	}
	if err := svc.BootstrapAdmin(5); err != nil {
		t.Fatalf("bootstrap admin failed: %v", err)
	}
	if err := svc.SetUserRoles(5, []string{"reporting"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}

	ok, err := svc.IsAdmin(5)
	if err != nil || ok {
		t.Fatalf("admin role should be removed, got %v %v", ok, err)
	}
	allow, err := svc.EnforceUser(5, "/admin/payouts", "GET")
	if err != nil || !allow {
		t.Fatalf("expected reporting read allowed, got %v %v", allow, err)
	}
	allow, err = svc.EnforceUser(5, "/admin/payouts/1/paid", "POST")
	if err != nil || allow {
		t.Fatalf("expected reporting write denied, got %v %v", allow, err)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/payouts/:id", want: "/admin/payouts/:id"},
		{in: "/admin/payouts/:id", want: "/admin/payouts/:id"},
		{in: "admin/payouts", want: "/admin/payouts"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		if got := NormalizeObject(item.in); got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}
