package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"taskdeck/internal/engine"
	"taskdeck/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(storage.NewTaskStore(storage.NewMemory()), slog.New(slog.DiscardHandler))
}

func authed(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "isAuthenticated", Value: "true"})
	req.AddCookie(&http.Cookie{Name: "userEmail", Value: "user@example.com"})
	return req
}

func TestRoutingGuards(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name         string
		req          *http.Request
		wantStatus   int
		wantLocation string
	}{
		{
			name:       "landing shows login when anonymous",
			req:        httptest.NewRequest(http.MethodGet, "/", nil),
			wantStatus: http.StatusOK,
		},
		{
			name:         "landing redirects authenticated users to dashboard",
			req:          authed(httptest.NewRequest(http.MethodGet, "/", nil)),
			wantStatus:   http.StatusFound,
			wantLocation: "/dashboard",
		},
		{
			name:         "dashboard redirects anonymous users to landing",
			req:          httptest.NewRequest(http.MethodGet, "/dashboard", nil),
			wantStatus:   http.StatusFound,
			wantLocation: "/",
		},
		{
			name:       "dashboard renders for authenticated users",
			req:        authed(httptest.NewRequest(http.MethodGet, "/dashboard", nil)),
			wantStatus: http.StatusOK,
		},
		{
			name:         "unknown route redirects to landing",
			req:          httptest.NewRequest(http.MethodGet, "/nowhere", nil),
			wantStatus:   http.StatusFound,
			wantLocation: "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := srv.App().Test(tt.req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if tt.wantLocation != "" && resp.Header.Get("Location") != tt.wantLocation {
				t.Fatalf("expected redirect to %q, got %q", tt.wantLocation, resp.Header.Get("Location"))
			}
		})
	}
}

func TestLoginValidation(t *testing.T) {
	srv := newTestServer(t)

	form := url.Values{"email": {"not-an-email"}, "password": {"secret1"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login page with inline error, got status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Invalid credentials") {
		t.Fatalf("expected inline error in body")
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "isAuthenticated" && cookie.Value == "true" {
			t.Fatalf("expected no session cookie on failed login")
		}
	}
}

func TestLoginSuccessSetsSessionCookies(t *testing.T) {
	srv := newTestServer(t)

	form := url.Values{"email": {"user@example.com"}, "password": {"secret1"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/dashboard" {
		t.Fatalf("expected redirect to dashboard, got %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	var gotAuth, gotUser bool
	for _, cookie := range resp.Cookies() {
		switch cookie.Name {
		case "isAuthenticated":
			gotAuth = cookie.Value == "true"
		case "userEmail":
			gotUser = cookie.Value == "user@example.com"
		}
	}
	if !gotAuth || !gotUser {
		t.Fatalf("expected both session cookies to be set")
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreateRejectsUnknownPriority(t *testing.T) {
	srv := newTestServer(t)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"Rush","priority":"urgent"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown priority, got %d", resp.StatusCode)
	}

	listReq := authed(httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	listResp, err := srv.App().Test(listReq)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer listResp.Body.Close()
	var tasks []engine.Task
	if err := json.NewDecoder(listResp.Body).Decode(&tasks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected rejected create to persist nothing, got %d tasks", len(tasks))
	}
}

func TestPatchRejectsUnknownStatus(t *testing.T) {
	srv := newTestServer(t)

	createReq := authed(httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"Check"}`)))
	createReq.Header.Set("Content-Type", "application/json")
	createResp, err := srv.App().Test(createReq)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var tasks []engine.Task
	if err := json.NewDecoder(createResp.Body).Decode(&tasks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	createResp.Body.Close()

	patchReq := authed(httptest.NewRequest(http.MethodPatch, "/api/tasks/"+tasks[0].ID, strings.NewReader(`{"status":"done"}`)))
	patchReq.Header.Set("Content-Type", "application/json")
	patchResp, err := srv.App().Test(patchReq)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	defer patchResp.Body.Close()
	if patchResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", patchResp.StatusCode)
	}
}

func TestPatchNormalizesPriority(t *testing.T) {
	srv := newTestServer(t)

	createReq := authed(httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"Check"}`)))
	createReq.Header.Set("Content-Type", "application/json")
	createResp, err := srv.App().Test(createReq)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var tasks []engine.Task
	if err := json.NewDecoder(createResp.Body).Decode(&tasks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	createResp.Body.Close()

	patchReq := authed(httptest.NewRequest(http.MethodPatch, "/api/tasks/"+tasks[0].ID, strings.NewReader(`{"priority":" High "}`)))
	patchReq.Header.Set("Content-Type", "application/json")
	patchResp, err := srv.App().Test(patchReq)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	defer patchResp.Body.Close()
	if patchResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", patchResp.StatusCode)
	}
	var patched []engine.Task
	if err := json.NewDecoder(patchResp.Body).Decode(&patched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if patched[0].Priority != engine.PriorityHigh {
		t.Fatalf("expected normalized high priority, got %q", patched[0].Priority)
	}
}

func TestTaskAPIFlow(t *testing.T) {
	srv := newTestServer(t)

	create := func(title, priority string) []engine.Task {
		t.Helper()
		payload := `{"title":"` + title + `","priority":"` + priority + `","dueDate":"2025-01-01"}`
		req := authed(httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(payload)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := srv.App().Test(req)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		var tasks []engine.Task
		if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return tasks
	}

	tasks := create("First", "low")
	tasks = create("Second", "high")
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Title != "Second" {
		t.Fatalf("expected newest task first, got %q", tasks[0].Title)
	}

	// Search narrows the list.
	req := authed(httptest.NewRequest(http.MethodGet, "/api/tasks?q=FIR", nil))
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var filtered []engine.Task
	if err := json.NewDecoder(resp.Body).Decode(&filtered); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if len(filtered) != 1 || filtered[0].Title != "First" {
		t.Fatalf("expected search to find First, got %+v", filtered)
	}

	// Toggle the newest task.
	toggleReq := authed(httptest.NewRequest(http.MethodPost, "/api/tasks/"+tasks[0].ID+"/toggle", nil))
	resp, err = srv.App().Test(toggleReq)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	var toggled []engine.Task
	if err := json.NewDecoder(resp.Body).Decode(&toggled); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if toggled[0].Status != engine.StatusCompleted {
		t.Fatalf("expected completed status, got %s", toggled[0].Status)
	}

	// Patch only the title.
	patchReq := authed(httptest.NewRequest(http.MethodPatch, "/api/tasks/"+tasks[1].ID, strings.NewReader(`{"title":"Renamed"}`)))
	patchReq.Header.Set("Content-Type", "application/json")
	resp, err = srv.App().Test(patchReq)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	var patched []engine.Task
	if err := json.NewDecoder(resp.Body).Decode(&patched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if patched[1].Title != "Renamed" || patched[1].DueDate != "2025-01-01" {
		t.Fatalf("expected patched title with other fields intact, got %+v", patched[1])
	}

	// Deleting an unknown id leaves the list unchanged.
	delReq := authed(httptest.NewRequest(http.MethodDelete, "/api/tasks/missing", nil))
	resp, err = srv.App().Test(delReq)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	var afterDelete []engine.Task
	if err := json.NewDecoder(resp.Body).Decode(&afterDelete); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || len(afterDelete) != 2 {
		t.Fatalf("expected unknown-id delete to be a no-op, got status %d with %d tasks", resp.StatusCode, len(afterDelete))
	}
}
