package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/cultural-survey/backend/internal/models"
	"github.com/cultural-survey/backend/internal/quality"
	"github.com/cultural-survey/backend/internal/review"
)

type Handler struct {
	service  *Service
	reviewer *review.Reviewer
}

func NewHandler(service *Service, reviewer *review.Reviewer) *Handler {
	return &Handler{service: service, reviewer: reviewer}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sessions", h.CreateSession).Methods("POST")
	r.HandleFunc("/sessions/{id}", h.GetSession).Methods("GET")
	r.HandleFunc("/sessions/{id}/progress", h.UpdateProgress).Methods("PUT")
	r.HandleFunc("/sessions/{id}/complete", h.CompleteSession).Methods("PUT")
	r.HandleFunc("/sessions/{id}/question", h.CurrentQuestion).Methods("GET")
	r.HandleFunc("/sessions/{id}/answers", h.SubmitAnswer).Methods("POST")
	r.HandleFunc("/sessions/{id}/back", h.NavigateBack).Methods("POST")
	r.HandleFunc("/sessions/{id}/jump", h.NavigateTo).Methods("POST")
	r.HandleFunc("/sessions/{id}/attention-check", h.GetAttentionCheck).Methods("GET")
	r.HandleFunc("/sessions/{id}/attention-check", h.SubmitAttentionCheck).Methods("POST")
	r.HandleFunc("/sessions/{id}/warning", h.GetWarning).Methods("GET")
	r.HandleFunc("/sessions/{id}/acknowledge", h.AcknowledgeWarning).Methods("POST")
	r.HandleFunc("/sessions/{id}/review", h.ReviewSession).Methods("GET")
	r.HandleFunc("/responses", h.SaveResponse).Methods("POST")
	r.HandleFunc("/responses/batch", h.SaveResponseBatch).Methods("POST")
	r.HandleFunc("/responses/{sessionId}", h.ListResponses).Methods("GET")
	r.HandleFunc("/survey/info", h.SurveyInfo).Methods("GET")
}

// ── Sessions ────────────────────────────────────────────

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	session, err := h.service.CreateSession(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.CreateSessionResponse{
		SessionID:      session.SessionID,
		TotalQuestions: session.Progress.TotalQuestions,
		Message:        "Session created",
	})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var progress models.Progress
	if err := json.NewDecoder(r.Body).Decode(&progress); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.service.UpdateProgress(r.Context(), mux.Vars(r)["id"], progress); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Progress updated"})
}

func (h *Handler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CompleteSession(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Session completed"})
}

func (h *Handler) CurrentQuestion(w http.ResponseWriter, r *http.Request) {
	question, err := h.service.CurrentQuestion(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

// ── Answers & Navigation ────────────────────────────────

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	result, err := h.service.SubmitAnswer(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) NavigateBack(w http.ResponseWriter, r *http.Request) {
	question, err := h.service.NavigateBack(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *Handler) NavigateTo(w http.ResponseWriter, r *http.Request) {
	var req models.JumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	question, err := h.service.NavigateTo(r.Context(), mux.Vars(r)["id"], req.QuestionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

// ── Attention Checks ────────────────────────────────────

func (h *Handler) GetAttentionCheck(w http.ResponseWriter, r *http.Request) {
	check, err := h.service.ServeAttentionCheck(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (h *Handler) SubmitAttentionCheck(w http.ResponseWriter, r *http.Request) {
	var req models.AttentionAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	result, err := h.service.SubmitAttentionCheck(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetWarning returns the unacknowledged intervention, if any, so a reloaded
// client can re-render the blocking prompt.
func (h *Handler) GetWarning(w http.ResponseWriter, r *http.Request) {
	verdict, ok := h.service.PendingWarning(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No pending warning"})
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

func (h *Handler) AcknowledgeWarning(w http.ResponseWriter, r *http.Request) {
	h.service.AcknowledgeWarning(mux.Vars(r)["id"])
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Warning acknowledged"})
}

// ── Review ──────────────────────────────────────────────

func (h *Handler) ReviewSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if _, err := h.service.GetSession(r.Context(), sessionID); err != nil {
		h.writeError(w, err)
		return
	}

	verdict, history, err := h.service.PatternVerdict(sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := struct {
		Pattern quality.PatternVerdict `json:"pattern"`
		Review  *review.Review         `json:"review,omitempty"`
	}{Pattern: verdict}

	if h.reviewer != nil && verdict.Suspicious {
		samples := make([]string, 0, len(history))
		for _, entry := range history {
			samples = append(samples, entry.Answer)
		}
		rev, err := h.reviewer.ReviewSession(r.Context(), verdict, samples)
		if err != nil {
			writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: "Review failed: " + err.Error()})
			return
		}
		resp.Review = rev
	}

	writeJSON(w, http.StatusOK, resp)
}

// ── Responses ───────────────────────────────────────────

func (h *Handler) SaveResponse(w http.ResponseWriter, r *http.Request) {
	var response models.Response
	if err := json.NewDecoder(r.Body).Decode(&response); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if response.SessionID == "" || response.QuestionID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "sessionId and questionId are required"})
		return
	}

	if err := h.service.SaveResponse(r.Context(), &response); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "Response saved"})
}

func (h *Handler) SaveResponseBatch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.SessionID == "" || len(req.Responses) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "sessionId and responses are required"})
		return
	}

	if err := h.service.SaveResponseBatch(r.Context(), req); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "Responses saved"})
}

func (h *Handler) ListResponses(w http.ResponseWriter, r *http.Request) {
	responses, err := h.service.ListResponses(mux.Vars(r)["sessionId"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	if responses == nil {
		responses = []models.Response{}
	}
	writeJSON(w, http.StatusOK, responses)
}

// ── Survey Metadata ─────────────────────────────────────

func (h *Handler) SurveyInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.SurveyInfo())
}

// ── Helpers ─────────────────────────────────────────────

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
	case errors.Is(err, ErrSessionCompleted):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Session already completed"})
	case errors.Is(err, ErrSessionExpired):
		writeJSON(w, http.StatusGone, models.ErrorResponse{Error: "Session expired"})
	case errors.Is(err, ErrInterventionActive):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNoPendingCheck):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No attention check pending"})
	case errors.Is(err, ErrAtBeginning):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Already at the first question"})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}
}

// isValidationError distinguishes request-shape problems from store failures
// so they map to 400 instead of 500.
func isValidationError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{
		"invalid region", "age must", "yearsInRegion", "answer must",
		"timeSpent must", "invalid question ID", "invalid position",
		"position ",
	} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
