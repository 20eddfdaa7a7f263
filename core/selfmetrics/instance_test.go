package selfmetrics

import (
	"strings"
	"testing"

	httpmodel "github.com/searchktools/embedhttp/core/http"
	"github.com/searchktools/embedhttp/core/metrics"
)

func TestIncrementHTTPRequestCountExactMethod(t *testing.T) {
	reg := metrics.NewRegistry()
	im := New(reg)
	im.AddHTTPRequests("/widgets", []string{"GET", "POST"})

	im.IncrementHTTPRequestCount("/widgets", "GET")
	im.IncrementHTTPRequestCount("/widgets", "GET")

	if got := im.httpRequests["GET/widgets"].Value(); got != 2 {
		t.Fatalf("GET/widgets = %d, want 2", got)
	}
	if got := im.httpRequests["POST/widgets"].Value(); got != 0 {
		t.Fatalf("POST/widgets = %d, want 0", got)
	}
}

func TestIncrementHTTPRequestCountFallsBackToOther(t *testing.T) {
	reg := metrics.NewRegistry()
	im := New(reg)
	im.AddHTTPRequests("/widgets", []string{"GET", "O"})

	// DELETE was never registered individually, so it must land in the "O"
	// bucket rather than vanish silently.
	im.IncrementHTTPRequestCount("/widgets", "DELETE")

	if got := im.httpRequests["O/widgets"].Value(); got != 1 {
		t.Fatalf("O/widgets = %d, want 1", got)
	}
	if got := im.httpRequests["GET/widgets"].Value(); got != 0 {
		t.Fatalf("GET/widgets = %d, want 0", got)
	}
}

func TestIncrementHTTPRequestCountNoMatchIsSilent(t *testing.T) {
	reg := metrics.NewRegistry()
	im := New(reg)
	im.AddHTTPRequests("/widgets", []string{"GET"})
	before := len(im.httpRequests)

	// Neither the exact key nor the "O" fallback exists; this must not panic
	// or register anything new.
	im.IncrementHTTPRequestCount("/widgets", "DELETE")

	if len(im.httpRequests) != before {
		t.Fatalf("expected no new counters, got %d entries, want %d", len(im.httpRequests), before)
	}
}

func TestAddHTTPRequestsDefaultsToAllMethods(t *testing.T) {
	reg := metrics.NewRegistry()
	im := New(reg)
	im.AddHTTPRequests("/api", nil)

	for _, method := range allMethods {
		if _, ok := im.httpRequests[method+"/api"]; !ok {
			t.Fatalf("missing counter for method %q on /api", method)
		}
	}
}

func TestAddHTTPRequestsIsIdempotent(t *testing.T) {
	reg := metrics.NewRegistry()
	im := New(reg)
	im.AddHTTPRequests("/api", []string{"GET"})
	im.AddHTTPRequests("/api", []string{"GET"}) // must not attempt a duplicate registration

	im.IncrementHTTPRequestCount("/api", "GET")
	if got := im.httpRequests["GET/api"].Value(); got != 1 {
		t.Fatalf("GET/api = %d, want 1", got)
	}
}

func TestHandlerRejectsNonGET(t *testing.T) {
	reg := metrics.NewRegistry()
	im := New(reg)
	h := im.Handler()

	req := httpmodel.NewRequest()
	req.Method = httpmodel.POST
	outcome := h(req)
	resp := outcome.Resolve()
	if resp.Code != 405 {
		t.Fatalf("code = %d, want 405", resp.Code)
	}
}

func TestHandlerRendersRegistry(t *testing.T) {
	reg := metrics.NewRegistry()
	im := New(reg)
	im.IncomingRequests().Inc(3)
	h := im.Handler()

	req := httpmodel.NewRequest()
	req.Method = httpmodel.GET
	outcome := h(req)
	resp := outcome.Resolve()

	if resp.Code != 200 {
		t.Fatalf("code = %d, want 200", resp.Code)
	}
	if resp.MimeType != metrics.ContentType {
		t.Fatalf("mime = %q, want %q", resp.MimeType, metrics.ContentType)
	}
	body := string(resp.Body)
	if !strings.Contains(body, "yahat_incoming_requests_total 3") {
		t.Fatalf("body missing incoming requests sample:\n%s", body)
	}
	if !strings.HasSuffix(body, "# EOF\n") {
		t.Fatalf("body missing EOF footer:\n%s", body)
	}
}
