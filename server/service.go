// Package server exposes the AutoAuth retrieval core over HTTP: case intake,
// background retrieval runs, and verdict/transcript lookup.
package server

import (
	"context"
	"log/slog"

	"github.com/priorauth/autoauth/core/protocol"
	"github.com/priorauth/autoauth/orchestrate"
	"github.com/priorauth/autoauth/store"
)

// SessionRunner runs one retrieval session over clinical metadata.
type SessionRunner interface {
	Run(ctx context.Context, clinicalMetadata string) (*orchestrate.Result, error)
}

// RetrievalService executes queued retrieval jobs: it loads the case, runs a
// session, and persists the outcome. It satisfies worker.Runner.
type RetrievalService struct {
	repo   store.CaseRepository
	chat   SessionRunner
	logger *slog.Logger
}

func NewRetrievalService(repo store.CaseRepository, chat SessionRunner, logger *slog.Logger) *RetrievalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrievalService{repo: repo, chat: chat, logger: logger}
}

// RunCase executes the retrieval session for a stored case. Session errors
// mark the case failed and are returned so the worker pool can retry.
func (s *RetrievalService) RunCase(ctx context.Context, caseID string) error {
	c, err := s.repo.Get(caseID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(caseID, store.StatusRunning, ""); err != nil {
		return err
	}

	metadata := protocol.ClinicalMetadata{
		Diagnosis:             c.Diagnosis,
		ICD10Code:             c.ICD10Code,
		MedicationOrProcedure: c.Medication,
		Code:                  c.Code,
		Dosage:                c.Dosage,
		Duration:              c.Duration,
		Rationale:             c.Rationale,
	}

	result, err := s.chat.Run(ctx, metadata.Format())
	if err != nil {
		s.logger.Error("retrieval session failed", "case_id", caseID, "error", err)
		if updateErr := s.repo.UpdateStatus(caseID, store.StatusFailed, err.Error()); updateErr != nil {
			s.logger.Error("failed to mark case failed", "case_id", caseID, "error", updateErr)
		}
		return err
	}

	if err := s.repo.SaveOutcome(caseID, result.SessionID, result.Verdict, result.Transcript, result.Iterations); err != nil {
		s.logger.Error("failed to persist outcome", "case_id", caseID, "error", err)
		return err
	}

	s.logger.Info("retrieval session completed",
		"case_id", caseID, "session_id", result.SessionID,
		"iterations", result.Iterations, "retry", result.Verdict.Retry)
	return nil
}
