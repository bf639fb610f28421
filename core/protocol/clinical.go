package protocol

import "strings"

// ClinicalMetadata is the structured clinical context extracted upstream from
// a Prior Authorization request. Callers may submit free-form metadata
// instead; Format renders the structured form into the seed message text.
type ClinicalMetadata struct {
	Diagnosis             string `json:"diagnosis" yaml:"diagnosis"`
	ICD10Code             string `json:"icd_10_code" yaml:"icd_10_code"`
	MedicationOrProcedure string `json:"medication_or_procedure" yaml:"medication_or_procedure"`
	Code                  string `json:"code" yaml:"code"`
	Dosage                string `json:"dosage" yaml:"dosage"`
	Duration              string `json:"duration" yaml:"duration"`
	Rationale             string `json:"rationale" yaml:"rationale"`
}

// Format renders the metadata as labeled lines, skipping empty fields.
// The result becomes the content of the conversation's seed user message.
func (m ClinicalMetadata) Format() string {
	fields := []struct {
		label string
		value string
	}{
		{"Diagnosis", m.Diagnosis},
		{"ICD-10 Code", m.ICD10Code},
		{"Medication or Procedure", m.MedicationOrProcedure},
		{"Code", m.Code},
		{"Dosage", m.Dosage},
		{"Duration", m.Duration},
		{"Rationale", m.Rationale},
	}

	var b strings.Builder
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.label)
		b.WriteString(": ")
		b.WriteString(f.value)
	}
	return b.String()
}
