package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bitbond-network/bitbond/internal/app/bank"
	"github.com/bitbond-network/bitbond/internal/app/escrow"
	"github.com/bitbond-network/bitbond/internal/domain"
	"github.com/bitbond-network/bitbond/internal/infra/chain"
	"github.com/bitbond-network/bitbond/internal/infra/sqlite"
)

func newTestServer(t *testing.T) (*Server, *chain.Clock) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock, err := chain.Open(db)
	if err != nil {
		t.Fatalf("open clock: %v", err)
	}

	bnk := bank.NewService(db)
	if err := bnk.Deposit("alice", 10_000_000, "tx-faucet"); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}

	esc := escrow.NewService(db, clock)
	return NewServer(esc, bnk, clock), clock
}

// call performs a JSON request against the server and decodes the response.
func call(t *testing.T, srv *Server, method, path, principal string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if principal != "" {
		req.Header.Set("X-Principal", principal)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return w.Code, out
}

func createTask(t *testing.T, srv *Server) uint64 {
	t.Helper()
	code, body := call(t, srv, "POST", "/v1/tasks", "alice", map[string]interface{}{
		"buddy":        "bob",
		"title":        "Finish the draft",
		"stake_amount": 1_000_000,
		"deadline":     1000,
	})
	if code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", code, body)
	}
	return uint64(body["task_id"].(float64))
}

// errorCode digs the contract code out of an error response.
func errorCode(t *testing.T, body map[string]interface{}) int {
	t.Helper()
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("no error object in %v", body)
	}
	return int(errObj["code"].(float64))
}

// ─── Task Lifecycle ─────────────────────────────────────────────────────────

func TestAPI_CreateTask(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := call(t, srv, "POST", "/v1/tasks", "alice", map[string]interface{}{
		"buddy":        "bob",
		"title":        "Run 5k",
		"stake_amount": 500_000,
		"deadline":     1000,
	})
	if code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", code)
	}
	if body["task_id"].(float64) != 1 {
		t.Errorf("task_id = %v, want 1", body["task_id"])
	}
	if body["txid"].(string) == "" {
		t.Error("txid missing from create response")
	}
}

func TestAPI_CreateTask_RequiresPrincipal(t *testing.T) {
	srv, _ := newTestServer(t)

	code, _ := call(t, srv, "POST", "/v1/tasks", "", map[string]interface{}{
		"buddy":        "bob",
		"stake_amount": 100,
		"deadline":     1000,
	})
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestAPI_CreateTask_ErrorCodes(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name       string
		principal  string
		body       map[string]interface{}
		wantStatus int
		wantCode   int
	}{
		{
			name:      "same user",
			principal: "alice",
			body: map[string]interface{}{
				"buddy": "alice", "stake_amount": 100, "deadline": 1000,
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   107,
		},
		{
			name:      "zero stake",
			principal: "alice",
			body: map[string]interface{}{
				"buddy": "bob", "stake_amount": 0, "deadline": 1000,
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   103,
		},
		{
			name:      "past deadline",
			principal: "alice",
			body: map[string]interface{}{
				"buddy": "bob", "stake_amount": 100, "deadline": 1,
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   108,
		},
		{
			name:      "unfunded caller",
			principal: "mallory",
			body: map[string]interface{}{
				"buddy": "bob", "stake_amount": 100, "deadline": 1000,
			},
			wantStatus: http.StatusPaymentRequired,
			wantCode:   106,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := call(t, srv, "POST", "/v1/tasks", tt.principal, tt.body)
			if code != tt.wantStatus {
				t.Errorf("status = %d, want %d", code, tt.wantStatus)
			}
			if got := errorCode(t, body); got != tt.wantCode {
				t.Errorf("error code = %d, want %d", got, tt.wantCode)
			}
		})
	}
}

func TestAPI_VerifyTask(t *testing.T) {
	srv, _ := newTestServer(t)
	createTask(t, srv)

	code, body := call(t, srv, "POST", "/v1/tasks/1/verify", "bob", map[string]interface{}{
		"success": true,
	})
	if code != http.StatusOK {
		t.Fatalf("status = %d, body = %v", code, body)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}

	// Verified task is immutable
	code, body = call(t, srv, "POST", "/v1/tasks/1/verify", "bob", map[string]interface{}{
		"success": false,
	})
	if code != http.StatusConflict {
		t.Errorf("second verify status = %d, want 409", code)
	}
	if got := errorCode(t, body); got != 105 {
		t.Errorf("error code = %d, want 105", got)
	}
}

func TestAPI_VerifyTask_Unauthorized(t *testing.T) {
	srv, _ := newTestServer(t)
	createTask(t, srv)

	code, body := call(t, srv, "POST", "/v1/tasks/1/verify", "carol", map[string]interface{}{
		"success": true,
	})
	if code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", code)
	}
	if got := errorCode(t, body); got != 102 {
		t.Errorf("error code = %d, want 102", got)
	}
}

func TestAPI_MarkCompleted(t *testing.T) {
	srv, _ := newTestServer(t)
	createTask(t, srv)

	code, body := call(t, srv, "POST", "/v1/tasks/1/complete", "alice", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, body = %v", code, body)
	}
	if body["status"] != string(domain.TaskPendingVerification) {
		t.Errorf("status field = %v, want %s", body["status"], domain.TaskPendingVerification)
	}
}

func TestAPI_ReclaimFlow(t *testing.T) {
	srv, clock := newTestServer(t)
	createTask(t, srv)

	// Too early
	code, body := call(t, srv, "POST", "/v1/tasks/1/reclaim", "alice", nil)
	if code != http.StatusConflict {
		t.Errorf("early reclaim status = %d, want 409", code)
	}
	if got := errorCode(t, body); got != 104 {
		t.Errorf("error code = %d, want 104", got)
	}

	// Advance past deadline + grace via the chain endpoint
	blocks := 1000 - clock.Height() + domain.GracePeriod + 1
	code, body = call(t, srv, "POST", "/v1/chain/advance", "", map[string]interface{}{
		"blocks": blocks,
	})
	if code != http.StatusOK {
		t.Fatalf("advance status = %d, body = %v", code, body)
	}

	// Non-creator still rejected
	code, body = call(t, srv, "POST", "/v1/tasks/1/reclaim", "carol", nil)
	if code != http.StatusForbidden {
		t.Errorf("non-creator reclaim status = %d, want 403", code)
	}

	code, body = call(t, srv, "POST", "/v1/tasks/1/reclaim", "alice", nil)
	if code != http.StatusOK {
		t.Fatalf("reclaim status = %d, body = %v", code, body)
	}
	if body["reclaimed"] != true {
		t.Errorf("reclaimed = %v, want true", body["reclaimed"])
	}

	// Stake returned
	code, body = call(t, srv, "GET", "/v1/accounts/alice/balance", "", nil)
	if code != http.StatusOK {
		t.Fatalf("balance status = %d", code)
	}
	if body["balance"].(float64) != 10_000_000 {
		t.Errorf("balance = %v, want 10000000", body["balance"])
	}
}

// ─── Queries ────────────────────────────────────────────────────────────────

func TestAPI_GetTask(t *testing.T) {
	srv, _ := newTestServer(t)
	createTask(t, srv)

	code, body := call(t, srv, "GET", "/v1/tasks/1", "", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["creator"] != "alice" || body["buddy"] != "bob" {
		t.Errorf("task = %v", body)
	}

	code, body = call(t, srv, "GET", "/v1/tasks/999", "", nil)
	if code != http.StatusNotFound {
		t.Errorf("missing task status = %d, want 404", code)
	}
	if got := errorCode(t, body); got != 101 {
		t.Errorf("error code = %d, want 101", got)
	}
}

func TestAPI_ListTasks(t *testing.T) {
	srv, _ := newTestServer(t)
	createTask(t, srv)
	createTask(t, srv)

	code, body := call(t, srv, "GET", "/v1/tasks?creator=alice", "", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	tasks := body["tasks"].([]interface{})
	if len(tasks) != 2 {
		t.Errorf("tasks = %d, want 2", len(tasks))
	}

	code, body = call(t, srv, "GET", "/v1/tasks?buddy=nobody", "", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(body["tasks"].([]interface{})) != 0 {
		t.Error("expected empty task list")
	}

	code, _ = call(t, srv, "GET", "/v1/tasks", "", nil)
	if code != http.StatusBadRequest {
		t.Errorf("unfiltered list status = %d, want 400", code)
	}
}

func TestAPI_ExpiredCheck_MissingTask(t *testing.T) {
	srv, _ := newTestServer(t)

	// A nonexistent id is false, not an error
	code, body := call(t, srv, "GET", "/v1/tasks/999/expired", "", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["expired"] != false {
		t.Errorf("expired = %v, want false", body["expired"])
	}
}

func TestAPI_UserStats(t *testing.T) {
	srv, _ := newTestServer(t)

	// Unknown principals get zeroed stats
	code, body := call(t, srv, "GET", "/v1/users/nobody/stats", "", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["tasks_created"].(float64) != 0 {
		t.Errorf("tasks_created = %v, want 0", body["tasks_created"])
	}

	createTask(t, srv)
	code, body = call(t, srv, "GET", "/v1/users/alice/stats", "", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["tasks_created"].(float64) != 1 || body["total_staked"].(float64) != 1_000_000 {
		t.Errorf("stats = %v", body)
	}
}

func TestAPI_EscrowEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := call(t, srv, "GET", "/v1/escrow/next-id", "", nil)
	if code != http.StatusOK || body["next_task_id"].(float64) != 1 {
		t.Errorf("next-id = %v (status %d), want 1", body, code)
	}

	code, body = call(t, srv, "GET", "/v1/escrow/balance", "", nil)
	if code != http.StatusOK || body["balance"].(float64) != 0 {
		t.Errorf("balance = %v (status %d), want 0", body, code)
	}

	createTask(t, srv)

	_, body = call(t, srv, "GET", "/v1/escrow/next-id", "", nil)
	if body["next_task_id"].(float64) != 2 {
		t.Errorf("next-id after create = %v, want 2", body["next_task_id"])
	}
	_, body = call(t, srv, "GET", "/v1/escrow/balance", "", nil)
	if body["balance"].(float64) != 1_000_000 {
		t.Errorf("custody after create = %v, want 1000000", body["balance"])
	}
}

func TestAPI_Deposit(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := call(t, srv, "POST", "/v1/accounts/dave/deposit", "", map[string]interface{}{
		"amount": 2500,
	})
	if code != http.StatusOK {
		t.Fatalf("status = %d, body = %v", code, body)
	}
	if body["balance"].(float64) != 2500 {
		t.Errorf("balance = %v, want 2500", body["balance"])
	}

	code, body = call(t, srv, "POST", "/v1/accounts/dave/deposit", "", map[string]interface{}{
		"amount": -1,
	})
	if code != http.StatusBadRequest {
		t.Errorf("negative deposit status = %d, want 400", code)
	}
	if got := errorCode(t, body); got != 103 {
		t.Errorf("error code = %d, want 103", got)
	}
}

func TestAPI_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := call(t, srv, "GET", "/health", "", nil)
	if code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestAPI_MalformedTaskID(t *testing.T) {
	srv, _ := newTestServer(t)

	code, _ := call(t, srv, "GET", "/v1/tasks/banana", "", nil)
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}
