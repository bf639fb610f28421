package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/priorauth/autoauth/core/protocol"
	"github.com/priorauth/autoauth/core/verdict"
)

// CaseRepository persists cases and their retrieval results.
type CaseRepository interface {
	Create(c *Case) error
	Get(caseID string) (*Case, error)
	List() ([]Case, error)
	UpdateStatus(caseID, status, errorMsg string) error
	SaveOutcome(caseID, sessionID string, v verdict.Verdict, transcript []protocol.Message, iterations int) error
	GetOutcome(caseID string) (*Outcome, error)
	GetTranscript(caseID string) ([]TranscriptEntry, error)
}

type caseRepository struct {
	db *gorm.DB
}

func NewCaseRepository(db *gorm.DB) CaseRepository {
	return &caseRepository{db: db}
}

func (r *caseRepository) Create(c *Case) error {
	if c.Status == "" {
		c.Status = StatusPending
	}
	return r.db.Create(c).Error
}

func (r *caseRepository) Get(caseID string) (*Case, error) {
	var c Case
	err := r.db.Where("case_id = ?", caseID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) List() ([]Case, error) {
	var cases []Case
	err := r.db.Order("created_at DESC").Find(&cases).Error
	return cases, err
}

func (r *caseRepository) UpdateStatus(caseID, status, errorMsg string) error {
	return r.db.Model(&Case{}).
		Where("case_id = ?", caseID).
		Updates(map[string]interface{}{
			"status":     status,
			"error_msg":  errorMsg,
			"updated_at": time.Now(),
		}).Error
}

// SaveOutcome stores the verdict and transcript for a case, replacing any
// previous outcome from an earlier run, and marks the case completed.
func (r *caseRepository) SaveOutcome(caseID, sessionID string, v verdict.Verdict, transcript []protocol.Message, iterations int) error {
	policies, err := json.Marshal(v.NormalizedPolicies())
	if err != nil {
		return fmt.Errorf("failed to encode policies: %w", err)
	}
	reasoning, err := json.Marshal(v.Reasoning)
	if err != nil {
		return fmt.Errorf("failed to encode reasoning: %w", err)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("case_id = ?", caseID).Delete(&Outcome{}).Error; err != nil {
			return err
		}
		outcome := &Outcome{
			CaseID:     caseID,
			SessionID:  sessionID,
			Policies:   string(policies),
			Reasoning:  string(reasoning),
			Retry:      v.Retry,
			Iterations: iterations,
		}
		if err := tx.Create(outcome).Error; err != nil {
			return err
		}

		if err := tx.Where("case_id = ?", caseID).Delete(&TranscriptEntry{}).Error; err != nil {
			return err
		}
		for _, msg := range transcript {
			entry := &TranscriptEntry{
				CaseID:  caseID,
				Ordinal: msg.Ordinal,
				Role:    string(msg.Role),
				Author:  msg.AuthorName,
				Content: msg.Content,
			}
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		return tx.Model(&Case{}).
			Where("case_id = ?", caseID).
			Updates(map[string]interface{}{
				"status":     StatusCompleted,
				"error_msg":  "",
				"updated_at": time.Now(),
			}).Error
	})
}

func (r *caseRepository) GetOutcome(caseID string) (*Outcome, error) {
	var outcome Outcome
	err := r.db.Where("case_id = ?", caseID).First(&outcome).Error
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (r *caseRepository) GetTranscript(caseID string) ([]TranscriptEntry, error) {
	var entries []TranscriptEntry
	err := r.db.Where("case_id = ?", caseID).Order("ordinal").Find(&entries).Error
	return entries, err
}

// Verdict reconstructs the stored verdict from an outcome row.
func (o *Outcome) Verdict() (verdict.Verdict, error) {
	v := verdict.Verdict{Retry: o.Retry}
	if err := json.Unmarshal([]byte(o.Policies), &v.Policies); err != nil {
		return verdict.Verdict{}, fmt.Errorf("failed to decode policies: %w", err)
	}
	if err := json.Unmarshal([]byte(o.Reasoning), &v.Reasoning); err != nil {
		return verdict.Verdict{}, fmt.Errorf("failed to decode reasoning: %w", err)
	}
	return v, nil
}
