package router

import (
	"errors"
	"testing"

	httpmodel "github.com/searchktools/embedhttp/core/http"
)

func handlerReturning(resp httpmodel.Response) Handler {
	return func(req *httpmodel.Request) Outcome {
		return Handled(resp)
	}
}

func TestLongestPrefixWins(t *testing.T) {
	tbl := NewTable()
	tbl.AddRoute("/api", handlerReturning(httpmodel.String("short")))
	tbl.AddRoute("/api/widgets", handlerReturning(httpmodel.String("long")))

	req := httpmodel.NewRequest()
	req.Target = "/api/widgets/123"
	resp := tbl.Dispatch(req)

	if string(resp.Body) != "long" {
		t.Fatalf("body = %q, want %q", resp.Body, "long")
	}
	if req.Route != "/api/widgets" {
		t.Fatalf("route = %q, want /api/widgets", req.Route)
	}
}

func TestExactLengthMatch(t *testing.T) {
	tbl := NewTable()
	tbl.AddRoute("/metrics", handlerReturning(httpmodel.String("ok")))

	req := httpmodel.NewRequest()
	req.Target = "/metrics"
	if _, _, ok := tbl.Match(req.Target); !ok {
		t.Fatal("expected /metrics to match itself exactly")
	}
}

func TestNoSlashBoundaryNoMatch(t *testing.T) {
	tbl := NewTable()
	tbl.AddRoute("/api", handlerReturning(httpmodel.String("ok")))

	// "/apikey" must NOT match "/api": no slash at the boundary.
	if _, _, ok := tbl.Match("/apikey"); ok {
		t.Fatal("expected /apikey to not match /api")
	}
}

func TestNoRouteMatches404(t *testing.T) {
	tbl := NewTable()
	req := httpmodel.NewRequest()
	req.Target = "/nowhere"
	resp := tbl.Dispatch(req)
	if resp.Code != 404 {
		t.Fatalf("code = %d, want 404", resp.Code)
	}
}

func TestEmptyRouteRejected(t *testing.T) {
	tbl := NewTable()
	if err := tbl.AddRoute("", handlerReturning(httpmodel.NoContent())); !errors.Is(err, ErrEmptyRoute) {
		t.Fatalf("err = %v, want ErrEmptyRoute", err)
	}
}

func TestEarlyExitOutcomeWins(t *testing.T) {
	tbl := NewTable()
	tbl.AddRoute("/x", func(req *httpmodel.Request) Outcome {
		return EarlyExit(httpmodel.Unauthorized("nope"))
	})

	req := httpmodel.NewRequest()
	req.Target = "/x"
	resp := tbl.Dispatch(req)
	if resp.Code != 401 {
		t.Fatalf("code = %d, want 401", resp.Code)
	}
}

func TestHandlerErrorBecomes500(t *testing.T) {
	tbl := NewTable()
	tbl.AddRoute("/boom", func(req *httpmodel.Request) Outcome {
		return InternalError(errors.New("kaboom"))
	})

	req := httpmodel.NewRequest()
	req.Target = "/boom"
	resp := tbl.Dispatch(req)
	if resp.Code != 500 {
		t.Fatalf("code = %d, want 500", resp.Code)
	}
}
