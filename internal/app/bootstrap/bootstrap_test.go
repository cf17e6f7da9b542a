package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBuildAPIInMemoryHonorsCEWConfig(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("CEW_PAGE_PREFIX", "/kiosk/")
	t.Setenv("CEW_CAMPAIGN_CODE", "EXPO9")

	app, err := BuildAPI()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer func() { _ = app.Close() }()

	submit := func(pagePath string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]any{
			"pagePath":    pagePath,
			"pollIndex":   0,
			"question":    "Which pathway?",
			"options":     []string{"A", "B"},
			"optionIndex": 0,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/polls/submit", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		app.server.Mux().ServeHTTP(rr, req)
		return rr
	}

	// The configured prefix takes anonymous submissions.
	if rr := submit("/kiosk/entry"); rr.Code != http.StatusOK {
		t.Fatalf("configured prefix must accept anonymous votes, got %d body=%s", rr.Code, rr.Body.String())
	}
	// The built-in default prefix is no longer public once overridden.
	if rr := submit("/cew-polls/entry"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("overridden prefix must require a session, got %d body=%s", rr.Code, rr.Body.String())
	}
}
