package guard_test

import (
	"testing"

	"BizDesk/internal/guard"
	"BizDesk/internal/route"
	"BizDesk/internal/session"
)

func setup(t *testing.T, start string) (*guard.Guard, *session.MemoryBackend, *session.Store, *route.Location) {
	t.Helper()
	backend := session.NewMemoryBackend()
	store := session.NewStore(backend)
	loc := route.NewLocation(start, nil)
	return guard.New(store, loc, "", "", nil), backend, store, loc
}

func TestCheckAuthWithoutToken(t *testing.T) {
	g, _, _, loc := setup(t, route.Dashboard)

	if g.CheckAuth(loc.Current()) {
		t.Fatalf("CheckAuth() = true without token")
	}
	if loc.Current() != route.Login {
		t.Fatalf("location = %q, want login", loc.Current())
	}
}

func TestCheckAuthOnLoginPage(t *testing.T) {
	g, _, _, loc := setup(t, route.Login)

	if !g.CheckAuth(loc.Current()) {
		t.Fatalf("CheckAuth() = false on login page")
	}
	if len(loc.History()) != 1 {
		t.Fatalf("unexpected navigation: %v", loc.History())
	}
}

func TestCheckAuthWithToken(t *testing.T) {
	g, _, store, loc := setup(t, route.Dashboard)
	store.SetToken("abc123")

	if !g.CheckAuth(loc.Current()) {
		t.Fatalf("CheckAuth() = false with token")
	}
	if loc.Current() != route.Dashboard {
		t.Fatalf("location = %q", loc.Current())
	}
}

func TestCheckRole(t *testing.T) {
	g, _, store, loc := setup(t, route.Dashboard)
	store.SetUser(session.User{ID: "1", Role: "manager"})

	if !g.CheckRole("admin", "manager") {
		t.Fatalf("manager rejected")
	}
	if g.CheckRole("admin") {
		t.Fatalf("manager accepted for admin-only page")
	}
	if loc.Current() != route.Unauthorized {
		t.Fatalf("location = %q, want unauthorized", loc.Current())
	}
}

func TestCheckRoleWithoutProfile(t *testing.T) {
	g, _, _, loc := setup(t, route.Dashboard)

	if g.CheckRole("admin") {
		t.Fatalf("CheckRole() = true without profile")
	}
	if loc.Current() != route.Unauthorized {
		t.Fatalf("location = %q", loc.Current())
	}
}

func TestCheckRoleMalformedProfile(t *testing.T) {
	g, backend, _, loc := setup(t, route.Dashboard)
	backend.Put(map[string]string{session.KeyUser: "{broken"})

	if g.CheckRole("admin") {
		t.Fatalf("CheckRole() = true with malformed profile")
	}
	if loc.Current() != route.Unauthorized {
		t.Fatalf("location = %q", loc.Current())
	}
}
