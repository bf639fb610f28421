package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priorauth/autoauth/core/protocol"
	"github.com/priorauth/autoauth/core/verdict"
	"github.com/priorauth/autoauth/orchestrate"
	"github.com/priorauth/autoauth/store"
)

type fakeSessionRunner struct {
	metadata string
	result   *orchestrate.Result
	err      error
}

func (f *fakeSessionRunner) Run(_ context.Context, clinicalMetadata string) (*orchestrate.Result, error) {
	f.metadata = clinicalMetadata
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newServiceFixture(t *testing.T, runner *fakeSessionRunner) (*RetrievalService, store.CaseRepository) {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	repo := store.NewCaseRepository(db)
	return NewRetrievalService(repo, runner, nil), repo
}

func TestRunCasePersistsOutcome(t *testing.T) {
	runner := &fakeSessionRunner{
		result: &orchestrate.Result{
			SessionID: "sess-1",
			Verdict: verdict.Verdict{
				Policies:  []string{"policies/adalimumab.pdf"},
				Reasoning: []string{"dosage criteria met"},
			},
			Transcript: []protocol.Message{
				{Role: protocol.RoleUser, AuthorName: "intake", Content: "metadata", Ordinal: 0},
			},
			Iterations: 1,
		},
	}
	svc, repo := newServiceFixture(t, runner)
	require.NoError(t, repo.Create(&store.Case{
		CaseID:     "case-001",
		Diagnosis:  "Crohn's disease",
		ICD10Code:  "K50.90",
		Medication: "Adalimumab",
		Dosage:     "40mg biweekly",
	}))

	require.NoError(t, svc.RunCase(context.Background(), "case-001"))

	// The session receives the formatted clinical metadata.
	assert.Contains(t, runner.metadata, "Diagnosis: Crohn's disease")
	assert.Contains(t, runner.metadata, "ICD-10 Code: K50.90")

	c, err := repo.Get("case-001")
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, c.Status)

	outcome, err := repo.GetOutcome("case-001")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", outcome.SessionID)
}

func TestRunCaseSessionFailure(t *testing.T) {
	runner := &fakeSessionRunner{err: errors.New("completion endpoint unreachable")}
	svc, repo := newServiceFixture(t, runner)
	require.NoError(t, repo.Create(&store.Case{CaseID: "case-002", Diagnosis: "d", Medication: "m"}))

	err := svc.RunCase(context.Background(), "case-002")
	require.Error(t, err)

	c, getErr := repo.Get("case-002")
	require.NoError(t, getErr)
	assert.Equal(t, store.StatusFailed, c.Status)
	assert.Equal(t, "completion endpoint unreachable", c.ErrorMsg)
}

func TestRunCaseUnknownCase(t *testing.T) {
	svc, _ := newServiceFixture(t, &fakeSessionRunner{})

	err := svc.RunCase(context.Background(), "missing")
	require.Error(t, err)
}
