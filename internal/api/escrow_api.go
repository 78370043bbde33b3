package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bitbond-network/bitbond/internal/app/escrow"
	"github.com/bitbond-network/bitbond/internal/domain"
	"github.com/bitbond-network/bitbond/internal/infra/chain"
)

var errMissingPrincipal = errors.New("X-Principal header is required")

// ─── Mutating Operations ────────────────────────────────────────────────────

type createTaskRequest struct {
	Buddy       string `json:"buddy"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StakeAmount int64  `json:"stake_amount"`
	Deadline    uint64 `json:"deadline"`
	// DeadlineAt resolves a calendar deadline into a block height when
	// Deadline is zero, the way the original dashboard does.
	DeadlineAt string `json:"deadline_at,omitempty"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	from := caller(r)
	if from == "" {
		writeError(w, http.StatusBadRequest, errMissingPrincipal)
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	deadline := req.Deadline
	if deadline == 0 && req.DeadlineAt != "" {
		target, err := time.Parse(time.RFC3339, req.DeadlineAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		deadline = chain.HeightForTime(s.clock.Height(), time.Now(), target)
	}

	txid := uuid.New().String()
	id, err := s.escrow.CreateTask(from, escrow.CreateTaskParams{
		Buddy:       domain.Principal(req.Buddy),
		Title:       req.Title,
		Description: req.Description,
		StakeAmount: req.StakeAmount,
		Deadline:    deadline,
	}, txid)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	log.Info().Uint64("task_id", id).Str("creator", string(from)).
		Str("buddy", req.Buddy).Int64("stake", req.StakeAmount).
		Str("txid", txid).Msg("task created")

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"task_id": id,
		"txid":    txid,
	})
}

type verifyTaskRequest struct {
	Success bool `json:"success"`
}

func (s *Server) handleVerifyTask(w http.ResponseWriter, r *http.Request) {
	from := caller(r)
	if from == "" {
		writeError(w, http.StatusBadRequest, errMissingPrincipal)
		return
	}

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req verifyTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	txid := uuid.New().String()
	success, err := s.escrow.VerifyTask(from, id, req.Success, txid)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	log.Info().Uint64("task_id", id).Bool("success", success).
		Str("buddy", string(from)).Str("txid", txid).Msg("task verified")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": success,
		"txid":    txid,
	})
}

func (s *Server) handleMarkCompleted(w http.ResponseWriter, r *http.Request) {
	from := caller(r)
	if from == "" {
		writeError(w, http.StatusBadRequest, errMissingPrincipal)
		return
	}

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := s.escrow.MarkTaskCompleted(from, id); err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task_id": id,
		"status":  domain.TaskPendingVerification,
	})
}

func (s *Server) handleReclaim(w http.ResponseWriter, r *http.Request) {
	from := caller(r)
	if from == "" {
		writeError(w, http.StatusBadRequest, errMissingPrincipal)
		return
	}

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	txid := uuid.New().String()
	reclaimed, err := s.escrow.ReclaimExpiredStake(from, id, txid)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	log.Info().Uint64("task_id", id).Str("creator", string(from)).
		Str("txid", txid).Msg("expired stake reclaimed")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reclaimed": reclaimed,
		"txid":      txid,
	})
}

// ─── Read-Only Queries ──────────────────────────────────────────────────────

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := s.escrow.Task(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, domain.ErrTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var (
		tasks []domain.Task
		err   error
	)

	switch {
	case r.URL.Query().Get("creator") != "":
		tasks, err = s.escrow.TasksByCreator(domain.Principal(r.URL.Query().Get("creator")))
	case r.URL.Query().Get("buddy") != "":
		tasks, err = s.escrow.TasksByBuddy(domain.Principal(r.URL.Query().Get("buddy")))
	default:
		writeError(w, http.StatusBadRequest, errors.New("creator or buddy query parameter is required"))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if tasks == nil {
		tasks = []domain.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (s *Server) handleExpiredCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	// Nonexistent ids report false, not an error.
	expired, err := s.escrow.IsTaskExpired(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"expired": expired})
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	p := domain.Principal(chi.URLParam(r, "principal"))
	stats, err := s.escrow.UserStats(p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleContractBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := s.escrow.ContractBalance()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": bal})
}

func (s *Server) handleNextTaskID(w http.ResponseWriter, r *http.Request) {
	id, err := s.escrow.NextTaskID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"next_task_id": id})
}

// ─── Accounts ───────────────────────────────────────────────────────────────

type depositRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	p := domain.Principal(chi.URLParam(r, "principal"))

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	txid := uuid.New().String()
	if err := s.bank.Deposit(p, req.Amount, txid); err != nil {
		writeLedgerError(w, err)
		return
	}

	bal, err := s.bank.Balance(p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"balance": bal,
		"txid":    txid,
	})
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	p := domain.Principal(chi.URLParam(r, "principal"))
	bal, err := s.bank.Balance(p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": bal})
}

func (s *Server) handleAccountLedger(w http.ResponseWriter, r *http.Request) {
	p := domain.Principal(chi.URLParam(r, "principal"))

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := s.bank.History(p, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// ─── Chain ──────────────────────────────────────────────────────────────────

type advanceRequest struct {
	Blocks uint64 `json:"blocks"`
}

func (s *Server) handleChainHeight(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]uint64{"height": s.clock.Height()})
}

func (s *Server) handleChainAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Blocks == 0 {
		req.Blocks = 1
	}

	h, err := s.clock.Advance(req.Blocks)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"height": h})
}

// taskID parses the {id} route parameter, writing a 400 on malformed ids.
func taskID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("task id must be a positive integer"))
		return 0, false
	}
	return id, true
}
