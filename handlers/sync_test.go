package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"

	"github.com/taskfuchs/server/database"
	"github.com/taskfuchs/server/services"
)

type testEnv struct {
	server *httptest.Server
	token  string
	data   *database.DataService
	user   *database.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to init database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dataService := database.NewDataService(db)
	authService := services.NewAuthService("test-secret", services.SMTPConfig{})
	hub := services.NewHub()
	go hub.Run()

	user, err := dataService.FindOrCreateUser("fox@example.com", "")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	token, err := authService.CreateJWT(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	syncHandler := NewSyncHandler(dataService, hub)
	taskHandler := NewTaskHandler(dataService)
	authMiddleware := NewAuthMiddleware(authService, dataService)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Auth)
	api.HandleFunc("/sync/full", syncHandler.GetFull).Methods("GET")
	api.HandleFunc("/sync", syncHandler.Sync).Methods("POST")
	api.HandleFunc("/tasks/reorder", taskHandler.Reorder).Methods("POST")

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testEnv{server: server, token: token, data: dataService, user: user}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func strp(s string) *string { return &s }

func TestSyncRoundTripOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	payload := database.Snapshot{
		Tasks: []database.Task{
			{ID: "t1", Title: "Water plants", Position: 1},
			{ID: "t2", Title: "Write report", Position: 2},
		},
		ArchivedTasks: []database.Task{
			{ID: "t3", Title: "Old chore", Position: 3, Archived: true},
		},
		Columns:     []database.Column{{ID: "c1", Title: "Today", Type: "date"}},
		Tags:        []database.Tag{{ID: "g1", Name: "home"}},
		Preferences: json.RawMessage(`{"theme":"dark"}`),
	}

	resp := env.do(t, http.MethodPost, "/api/sync", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sync status = %d, want 200", resp.StatusCode)
	}
	ack := decode[map[string]any](t, resp)
	if ack["success"] != true {
		t.Fatalf("ack = %v, want success", ack)
	}
	if ack["syncedAt"] == nil || ack["syncedAt"] == "" {
		t.Fatal("ack carries no syncedAt")
	}

	resp = env.do(t, http.MethodGet, "/api/sync/full", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	snap := decode[database.Snapshot](t, resp)

	if len(snap.Tasks) != 2 || snap.Tasks[0].ID != "t1" {
		t.Fatalf("tasks = %+v", snap.Tasks)
	}
	if len(snap.ArchivedTasks) != 1 || snap.ArchivedTasks[0].ID != "t3" {
		t.Fatalf("archived tasks = %+v", snap.ArchivedTasks)
	}
	if snap.Tasks[0].DBID == "" || snap.Tasks[0].DBID == snap.Tasks[0].ID {
		t.Fatalf("task ids not normalized: id=%s dbId=%s", snap.Tasks[0].ID, snap.Tasks[0].DBID)
	}
	if snap.SyncedAt == "" {
		t.Fatal("snapshot carries no syncedAt")
	}
	var prefs map[string]any
	if err := json.Unmarshal(snap.Preferences, &prefs); err != nil || prefs["theme"] != "dark" {
		t.Fatalf("preferences = %s (err=%v)", snap.Preferences, err)
	}
}

func TestSyncFailureLeavesStateIntact(t *testing.T) {
	env := newTestEnv(t)

	good := database.Snapshot{
		Tasks: []database.Task{{ID: "t1", Title: "Keep me", Position: 1}},
	}
	resp := env.do(t, http.MethodPost, "/api/sync", good)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sync status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	bad := database.Snapshot{
		Tasks: []database.Task{
			{ID: "dup", Title: "One", Position: 1},
			{ID: "dup", Title: "Two", Position: 2},
		},
	}
	resp = env.do(t, http.MethodPost, "/api/sync", bad)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("sync status = %d, want 500", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["error"] == nil {
		t.Fatalf("error body = %v", body)
	}

	snap, err := env.data.GetSnapshot(env.user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(snap.Tasks) != 1 || snap.Tasks[0].ID != "t1" {
		t.Fatalf("prior state lost: %+v", snap.Tasks)
	}
}

func TestSyncRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/sync/full")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestReorderMoveOntoTask(t *testing.T) {
	env := newTestEnv(t)

	seed := database.Snapshot{
		Tasks: []database.Task{
			{ID: "a", Title: "A", Position: 1, ColumnID: strp("inbox")},
			{ID: "b", Title: "B", Position: 2, ColumnID: strp("inbox")},
			{ID: "c", Title: "C", Position: 3, ColumnID: strp("inbox")},
		},
	}
	resp := env.do(t, http.MethodPost, "/api/sync", seed)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sync status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/tasks/reorder", map[string]any{
		"taskId":       "a",
		"targetTaskId": "c",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reorder status = %d, want 200", resp.StatusCode)
	}
	out := decode[struct {
		Tasks []database.Task `json:"tasks"`
	}](t, resp)

	want := map[string]int64{"b": 0, "c": 1, "a": 2}
	for _, task := range out.Tasks {
		if pos, ok := want[task.ID]; ok && task.Position != pos {
			t.Fatalf("task %s at %d, want %d", task.ID, task.Position, pos)
		}
	}
	if len(out.Tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(out.Tasks))
	}
}

func TestReorderMoveToTopOfOtherColumn(t *testing.T) {
	env := newTestEnv(t)

	seed := database.Snapshot{
		Tasks: []database.Task{
			{ID: "a", Title: "A", Position: 1, ColumnID: strp("inbox")},
			{ID: "b", Title: "B", Position: 2, ColumnID: strp("inbox")},
			{ID: "x", Title: "X", Position: 1, ColumnID: strp("doing")},
		},
	}
	resp := env.do(t, http.MethodPost, "/api/sync", seed)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sync status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/tasks/reorder", map[string]any{
		"taskId":   "b",
		"columnId": "doing",
		"top":      true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reorder status = %d, want 200", resp.StatusCode)
	}
	out := decode[struct {
		Tasks []database.Task `json:"tasks"`
	}](t, resp)

	byID := map[string]database.Task{}
	for _, task := range out.Tasks {
		byID[task.ID] = task
	}
	moved := byID["b"]
	if moved.ColumnID == nil || *moved.ColumnID != "doing" {
		t.Fatalf("moved task column = %v, want doing", moved.ColumnID)
	}
	if moved.Position != 0 {
		t.Fatalf("moved task position = %d, want 0", moved.Position)
	}
	if byID["x"].Position != 1 {
		t.Fatalf("displaced task position = %d, want 1", byID["x"].Position)
	}
	if byID["a"].Position != 0 {
		t.Fatalf("source column not compacted: a at %d, want 0", byID["a"].Position)
	}
}
