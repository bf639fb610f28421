package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/priorauth/autoauth/store"
	"github.com/priorauth/autoauth/worker"
)

// JobQueue is the slice of the worker pool the handlers need.
type JobQueue interface {
	Enqueue(caseID string) error
	Cancel(caseID string) bool
	Status() worker.Status
}

// CaseHandler serves the Prior Authorization case API.
type CaseHandler struct {
	repo  store.CaseRepository
	queue JobQueue
}

func NewCaseHandler(repo store.CaseRepository, queue JobQueue) *CaseHandler {
	return &CaseHandler{repo: repo, queue: queue}
}

type submitCaseRequest struct {
	CaseID     string `json:"case_id"`
	Diagnosis  string `json:"diagnosis" binding:"required"`
	ICD10Code  string `json:"icd10_code"`
	Medication string `json:"medication" binding:"required"`
	Code       string `json:"code"`
	Dosage     string `json:"dosage"`
	Duration   string `json:"duration"`
	Rationale  string `json:"rationale"`
}

// Submit registers a new case. A missing case_id gets a generated one.
func (h *CaseHandler) Submit(c *gin.Context) {
	var req submitCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.CaseID == "" {
		req.CaseID = uuid.Must(uuid.NewV7()).String()
	}

	record := &store.Case{
		CaseID:     req.CaseID,
		Diagnosis:  req.Diagnosis,
		ICD10Code:  req.ICD10Code,
		Medication: req.Medication,
		Code:       req.Code,
		Dosage:     req.Dosage,
		Duration:   req.Duration,
		Rationale:  req.Rationale,
	}
	if err := h.repo.Create(record); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *CaseHandler) List(c *gin.Context) {
	cases, err := h.repo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cases)
}

func (h *CaseHandler) Get(c *gin.Context) {
	record, err := h.repo.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}

// Run queues a retrieval session for the case.
func (h *CaseHandler) Run(c *gin.Context) {
	caseID := c.Param("id")
	if _, err := h.repo.Get(caseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.queue.Enqueue(caseID); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err := h.repo.UpdateStatus(caseID, store.StatusQueued, ""); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "retrieval queued", "case_id": caseID})
}

// Cancel aborts the running retrieval session for the case.
func (h *CaseHandler) Cancel(c *gin.Context) {
	caseID := c.Param("id")
	if !h.queue.Cancel(caseID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no running session for case"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancellation requested", "case_id": caseID})
}

type verdictResponse struct {
	CaseID     string   `json:"case_id"`
	SessionID  string   `json:"session_id"`
	Policies   []string `json:"policies"`
	Reasoning  []string `json:"reasoning"`
	Retry      bool     `json:"retry"`
	Iterations int      `json:"iterations"`
}

// Verdict returns the stored retrieval outcome for the case.
func (h *CaseHandler) Verdict(c *gin.Context) {
	caseID := c.Param("id")
	outcome, err := h.repo.GetOutcome(caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no verdict for case"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var policies, reasoning []string
	if err := json.Unmarshal([]byte(outcome.Policies), &policies); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stored policies are corrupt"})
		return
	}
	if err := json.Unmarshal([]byte(outcome.Reasoning), &reasoning); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stored reasoning is corrupt"})
		return
	}

	c.JSON(http.StatusOK, verdictResponse{
		CaseID:     caseID,
		SessionID:  outcome.SessionID,
		Policies:   policies,
		Reasoning:  reasoning,
		Retry:      outcome.Retry,
		Iterations: outcome.Iterations,
	})
}

// Transcript returns the conversation behind the case's latest session.
func (h *CaseHandler) Transcript(c *gin.Context) {
	entries, err := h.repo.GetTranscript(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// QueueStatus reports worker pool depth and running session count.
func (h *CaseHandler) QueueStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.queue.Status())
}

// Health is the liveness probe.
func (h *CaseHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
