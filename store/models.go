// Package store persists Prior Authorization cases, their retrieval outcomes,
// and the conversation transcripts behind them.
package store

import (
	"time"
)

// Case lifecycle states.
const (
	StatusPending   = "pending"
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Case is one submitted Prior Authorization request.
type Case struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CaseID     string    `json:"case_id" gorm:"size:64;uniqueIndex;not null"`
	Diagnosis  string    `json:"diagnosis" gorm:"size:500"`
	ICD10Code  string    `json:"icd10_code" gorm:"size:50"`
	Medication string    `json:"medication" gorm:"size:500"`
	Code       string    `json:"code" gorm:"size:50"`
	Dosage     string    `json:"dosage" gorm:"size:255"`
	Duration   string    `json:"duration" gorm:"size:255"`
	Rationale  string    `json:"rationale" gorm:"type:text"`
	Status     string    `json:"status" gorm:"size:50;default:pending"` // pending, queued, running, completed, failed
	ErrorMsg   string    `json:"error_msg" gorm:"size:2000"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Outcome is the final retrieval verdict for a case. Policies and Reasoning
// are stored as JSON arrays. At most one outcome exists per case; reruns
// replace it.
type Outcome struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CaseID     string    `json:"case_id" gorm:"size:64;uniqueIndex;not null"`
	SessionID  string    `json:"session_id" gorm:"size:64"`
	Policies   string    `json:"policies" gorm:"type:text"`
	Reasoning  string    `json:"reasoning" gorm:"type:text"`
	Retry      bool      `json:"retry"`
	Iterations int       `json:"iterations"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TranscriptEntry is one conversation message of a case's latest retrieval
// session, in append order.
type TranscriptEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CaseID    string    `json:"case_id" gorm:"size:64;index;not null"`
	Ordinal   int       `json:"ordinal"`
	Role      string    `json:"role" gorm:"size:20"`
	Author    string    `json:"author" gorm:"size:100"`
	Content   string    `json:"content" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
