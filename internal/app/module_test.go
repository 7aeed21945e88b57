package app

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/config"
	"github.com/matheus3301/mingle/internal/devserver"
	"github.com/matheus3301/mingle/internal/lock"
	"github.com/matheus3301/mingle/internal/session"
	"github.com/matheus3301/mingle/internal/status"
)

func testParams(t *testing.T) Params {
	t.Helper()
	t.Setenv(session.EnvHome, t.TempDir())

	srv := devserver.New(nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	cfg := config.Default()
	cfg.BaseURL = ts.URL + devserver.BasePath
	return Params{Profile: "test", Config: cfg}
}

func TestModuleLifecycle(t *testing.T) {
	p := testParams(t)

	var core Core
	app := fxtest.New(t, Module(p), Populate(&core), WithZapLogger())
	app.RequireStart()

	if got := core.Machine.Current(); got != status.SignedOut {
		t.Errorf("state after start = %s, want SIGNED_OUT", got)
	}
	if core.Screens.Fetcher == nil || core.Screens.Session == nil {
		t.Fatal("screen deps not wired")
	}

	// A second owner of the profile is refused while the first is running.
	if _, err := lock.Acquire(session.Dir(p.Profile)); err == nil {
		t.Error("lock acquired twice")
	} else {
		var held *lock.HeldError
		if !errors.As(err, &held) {
			t.Errorf("Acquire() error = %v, want HeldError", err)
		}
	}

	ctx := context.Background()
	if _, err := core.Account.SignUp(ctx, backend.SignUpForm{Name: "Ann", Password: "secret1", Mobile: "0771000001"}); err != nil {
		t.Fatal(err)
	}
	if _, err := core.Account.SignIn(ctx, "0771000001", "secret1"); err != nil {
		t.Fatal(err)
	}
	if got := core.Machine.Current(); got != status.Online {
		t.Errorf("state after sign in = %s, want ONLINE", got)
	}

	app.RequireStop()

	lk, err := lock.Acquire(session.Dir(p.Profile))
	if err != nil {
		t.Fatalf("lock not released on stop: %v", err)
	}
	_ = lk.Release()
}

func TestModuleRestoresSession(t *testing.T) {
	p := testParams(t)
	ctx := context.Background()

	var first Core
	app := fxtest.New(t, Module(p), Populate(&first), WithZapLogger())
	app.RequireStart()
	if _, err := first.Account.SignUp(ctx, backend.SignUpForm{Name: "Ann", Password: "secret1", Mobile: "0771000001"}); err != nil {
		t.Fatal(err)
	}
	if _, err := first.Account.SignIn(ctx, "0771000001", "secret1"); err != nil {
		t.Fatal(err)
	}
	app.RequireStop()

	var second Core
	app = fxtest.New(t, Module(p), Populate(&second), WithZapLogger())
	app.RequireStart()
	defer app.RequireStop()

	u, ok := second.Account.Current()
	if !ok || u.Name != "Ann" {
		t.Errorf("Current() = %+v, %v; want restored session", u, ok)
	}
	if got := second.Machine.Current(); got != status.Online {
		t.Errorf("state = %s, want ONLINE", got)
	}
}

func TestModuleRejectsBadBaseURL(t *testing.T) {
	p := testParams(t)
	p.Config.BaseURL = "http://"

	app := fx.New(Module(p), fx.NopLogger, fx.Invoke(func(Core) {}))
	if err := app.Err(); err == nil {
		t.Error("expected a construction error for an invalid base URL")
	}
}
