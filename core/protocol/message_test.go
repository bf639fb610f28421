package protocol

import "testing"

func TestHistoryLast(t *testing.T) {
	var empty History
	if _, ok := empty.Last(); ok {
		t.Error("Last() on empty history returned ok")
	}

	h := History{
		NewUserMessage("intake", "metadata"),
		NewAgentMessage("formulator", "query"),
	}
	last, ok := h.Last()
	if !ok || last.AuthorName != "formulator" {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
}

func TestHistoryLastBy(t *testing.T) {
	h := History{
		NewUserMessage("intake", "metadata"),
		NewAgentMessage("formulator", "first query"),
		NewAgentMessage("retriever", "candidates"),
		NewAgentMessage("formulator", "second query"),
	}

	msg, ok := h.LastBy("formulator")
	if !ok || msg.Content != "second query" {
		t.Errorf("LastBy(formulator) = %+v, %v", msg, ok)
	}

	if _, ok := h.LastBy("evaluator"); ok {
		t.Error("LastBy(evaluator) returned ok for absent author")
	}
}

func TestHistorySeed(t *testing.T) {
	h := History{
		NewUserMessage("intake", "Diagnosis: Crohn's disease"),
		NewAgentMessage("formulator", "query"),
	}
	if got := h.Seed(); got != "Diagnosis: Crohn's disease" {
		t.Errorf("Seed() = %q", got)
	}

	var agentOnly History = []Message{NewAgentMessage("formulator", "query")}
	if got := agentOnly.Seed(); got != "" {
		t.Errorf("Seed() on history without user message = %q", got)
	}
}

func TestClinicalMetadataFormat(t *testing.T) {
	m := ClinicalMetadata{
		Diagnosis:             "Crohn's disease",
		ICD10Code:             "K50.90",
		MedicationOrProcedure: "Adalimumab",
		Dosage:                "40mg biweekly",
	}

	want := "Diagnosis: Crohn's disease\nICD-10 Code: K50.90\nMedication or Procedure: Adalimumab\nDosage: 40mg biweekly"
	if got := m.Format(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestClinicalMetadataFormatEmpty(t *testing.T) {
	if got := (ClinicalMetadata{}).Format(); got != "" {
		t.Errorf("Format() of zero metadata = %q, want empty", got)
	}
}
