package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mtzanidakis/hacksim/internal/config"
	"github.com/mtzanidakis/hacksim/internal/sim"
	"github.com/mtzanidakis/hacksim/internal/store"
)

const testProfiles = `[
	{"name": "Ava", "role": "Backend Engineer", "idea": "drone field mapping", "skills": ["go"]},
	{"name": "Ben", "role": "Product Designer", "idea": "drone field mapping", "skills": ["design"]},
	{"name": "Cara", "role": "UX Researcher", "idea": "community pantry router", "skills": ["research"]},
	{"name": "Dan", "role": "Data Analyst", "idea": "esports scrim analytics", "skills": ["data"]}
]`

const testScript = `[
	{"text": "agreed to team up", "signal": 1.0, "consensus_idea": "drone pantry logistics"},
	{"text": "kept separate tracks", "signal": -0.5},
	{"text": "joined the larger effort", "signal": 1.0, "consensus_idea": "drone pantry logistics"},
	{"text": "final alignment check", "signal": -0.5}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// testServer builds a Server and its routed handler without binding a port.
func testServer(t *testing.T, auth string) (*Server, http.Handler) {
	t.Helper()
	st, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{
		Simulation: config.SimulationConfig{
			ProfilesPath: writeFile(t, "profiles.json", testProfiles),
			Runs:         1,
			Rounds:       2,
			Seed:         42,
			CallBudget:   20,
			MinTeamSize:  2,
			MaxTeamSize:  4,
		},
		Narrative: config.NarrativeConfig{
			Provider:   config.ProviderReplay,
			ReplayPath: writeFile(t, "script.json", testScript),
		},
		Web: config.WebConfig{Port: 0, Auth: auth},
	}
	runner := sim.NewRunner(cfg, st, nil)

	srv := NewServer(st, nil, runner, nil, cfg.Web, "test")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", srv.handleLogin)
	mux.HandleFunc("POST /api/logout", srv.handleLogout)
	mux.HandleFunc("GET /api/auth/check", srv.handleAuthCheck)
	srv.registerAPI(mux)

	return srv, srv.withMiddleware(mux)
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Body.String(), "{") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return rec, out
}

func TestListRunsEmpty(t *testing.T) {
	_, handler := testServer(t, "")

	rec, _ := doJSON(t, handler, "GET", "/api/runs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want empty list", got)
	}
}

func TestStartSimulationPersistsRun(t *testing.T) {
	srv, handler := testServer(t, "")

	rec, out := doJSON(t, handler, "POST", "/api/simulations", `{"label": "from api"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	id, _ := out["id"].(string)
	if id == "" {
		t.Fatal("no simulation id returned")
	}

	// The run completes in the background; poll the store.
	deadline := time.Now().Add(5 * time.Second)
	for {
		run, err := srv.store.GetRun(id)
		if err != nil {
			t.Fatalf("get run: %v", err)
		}
		if run != nil && run.Status != "running" {
			if run.Status != "complete" {
				t.Fatalf("run status = %s, want complete", run.Status)
			}
			if run.Label != "from api" {
				t.Errorf("label = %q", run.Label)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("simulation did not finish in time")
		}
		time.Sleep(20 * time.Millisecond)
	}

	rec, _ = doJSON(t, handler, "GET", "/api/runs/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get run status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"summary"`) {
		t.Error("run detail missing summary")
	}
}

func TestGetRunNotFound(t *testing.T) {
	_, handler := testServer(t, "")

	rec, _ := doJSON(t, handler, "GET", "/api/runs/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestScheduleLifecycle(t *testing.T) {
	_, handler := testServer(t, "")

	rec, out := doJSON(t, handler, "POST", "/api/schedules", `{"name": "nightly", "schedule": "0 2 * * *"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	id, _ := out["id"].(string)
	if id == "" {
		t.Fatal("no schedule id")
	}
	if enabled, _ := out["enabled"].(bool); !enabled {
		t.Error("new schedule not enabled")
	}
	if _, ok := out["next_run"]; !ok {
		t.Error("active schedule has no next_run")
	}

	rec, out = doJSON(t, handler, "PUT", "/api/schedules/"+id, `{"enabled": false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	if status, _ := out["status"].(string); status != "paused" {
		t.Errorf("status = %q, want paused", status)
	}
	if _, ok := out["next_run"]; ok {
		t.Error("paused schedule still has next_run")
	}

	rec, _ = doJSON(t, handler, "DELETE", "/api/schedules/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec, _ = doJSON(t, handler, "GET", "/api/schedules", "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("schedules after delete = %q", got)
	}
}

func TestCreateScheduleRejectsBadCron(t *testing.T) {
	_, handler := testServer(t, "")

	rec, _ := doJSON(t, handler, "POST", "/api/schedules", `{"name": "broken", "schedule": "not a cron"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, handler := testServer(t, "")

	rec, out := doJSON(t, handler, "GET", "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if out["status"] != "ok" {
		t.Errorf("status field = %v", out["status"])
	}
	if agents, _ := out["agents"].(float64); agents != 4 {
		t.Errorf("agents = %v, want 4", out["agents"])
	}
	if out["provider"] != "replay" {
		t.Errorf("provider = %v", out["provider"])
	}
	if out["version"] != "test" {
		t.Errorf("version = %v", out["version"])
	}
}

func TestListProfiles(t *testing.T) {
	_, handler := testServer(t, "")

	rec, _ := doJSON(t, handler, "GET", "/api/profiles", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, name := range []string{"Ava", "Ben", "Cara", "Dan"} {
		if !strings.Contains(rec.Body.String(), name) {
			t.Errorf("profiles missing %s", name)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	_, handler := testServer(t, "hunter2")

	rec, _ := doJSON(t, handler, "GET", "/api/runs", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest("GET", "/api/runs", nil)
	req.SetBasicAuth("", "hunter2")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Errorf("basic auth status = %d, want 200", rec2.Code)
	}
}

func TestLoginSessionFlow(t *testing.T) {
	_, handler := testServer(t, "hunter2")

	rec, _ := doJSON(t, handler, "POST", "/api/login", `{"password": "wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", rec.Code)
	}

	rec, _ = doJSON(t, handler, "POST", "/api/login", `{"password": "hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie set")
	}

	req := httptest.NewRequest("GET", "/api/runs", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Errorf("session auth status = %d, want 200", rec2.Code)
	}
}
