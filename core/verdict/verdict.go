// Package verdict defines the structured output contract of the Evaluator
// agent: a JSON object with exactly the keys policies, reasoning, and retry.
// Anything else (missing keys, extra keys, wrong types) is a protocol
// violation, not a valid verdict.
package verdict

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Verdict is the Evaluator's structured decision for one retrieval session.
// Policies holds approved policy document references in evaluation order with
// no duplicates. Reasoning holds one statement per decision, aligned
// positionally with the combined approved and rejected items. Retry reports
// whether the Evaluator judged the available evidence insufficient and wants
// another formulate/retrieve/evaluate cycle.
type Verdict struct {
	Policies  []string `json:"policies"`
	Reasoning []string `json:"reasoning"`
	Retry     bool     `json:"retry"`
}

// Degraded returns the terminal verdict for a session that exhausted its
// iteration budget without satisfying the Evaluator: no approved policies,
// retry still requested, and an explanatory reasoning entry.
func Degraded(reason string) Verdict {
	return Verdict{
		Policies:  []string{},
		Reasoning: []string{reason},
		Retry:     true,
	}
}

// Satisfied reports whether the Evaluator accepted its result set and the
// session may terminate.
func (v Verdict) Satisfied() bool {
	return !v.Retry
}

// NormalizedPolicies returns the approved references trimmed to their last
// two path segments, matching how policy documents are reported downstream.
func (v Verdict) NormalizedPolicies() []string {
	out := make([]string, len(v.Policies))
	for i, p := range v.Policies {
		parts := strings.Split(p, "/")
		if len(parts) > 2 {
			parts = parts[len(parts)-2:]
		}
		out[i] = strings.Join(parts, "/")
	}
	return out
}

// requiredKeys are the only keys a verdict object may carry.
var requiredKeys = [3]string{"policies", "reasoning", "retry"}

// Parse decodes raw Evaluator output into a Verdict, enforcing the wire
// contract: exactly the three required keys, policies a sequence of unique
// strings, reasoning a sequence of strings, retry a boolean. The raw text may
// wrap the JSON object in a markdown code fence; Parse strips it before
// decoding. Violations return a *ParseError.
func Parse(raw string) (Verdict, error) {
	trimmed := stripFence(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return Verdict{}, &ParseError{Raw: raw, Reason: fmt.Sprintf("not a JSON object: %v", err)}
	}

	for _, key := range requiredKeys {
		if _, ok := fields[key]; !ok {
			return Verdict{}, &ParseError{Raw: raw, Reason: fmt.Sprintf("missing key %q", key)}
		}
	}
	if len(fields) != len(requiredKeys) {
		for key := range fields {
			if key != "policies" && key != "reasoning" && key != "retry" {
				return Verdict{}, &ParseError{Raw: raw, Reason: fmt.Sprintf("unexpected key %q", key)}
			}
		}
	}

	var v Verdict
	if err := json.Unmarshal(fields["policies"], &v.Policies); err != nil {
		return Verdict{}, &ParseError{Raw: raw, Reason: fmt.Sprintf("policies is not a string array: %v", err)}
	}
	if err := json.Unmarshal(fields["reasoning"], &v.Reasoning); err != nil {
		return Verdict{}, &ParseError{Raw: raw, Reason: fmt.Sprintf("reasoning is not a string array: %v", err)}
	}
	if err := json.Unmarshal(fields["retry"], &v.Retry); err != nil {
		return Verdict{}, &ParseError{Raw: raw, Reason: fmt.Sprintf("retry is not a boolean: %v", err)}
	}

	seen := make(map[string]struct{}, len(v.Policies))
	for _, p := range v.Policies {
		if _, dup := seen[p]; dup {
			return Verdict{}, &ParseError{Raw: raw, Reason: fmt.Sprintf("duplicate policy reference %q", p)}
		}
		seen[p] = struct{}{}
	}

	if v.Policies == nil {
		v.Policies = []string{}
	}
	if v.Reasoning == nil {
		v.Reasoning = []string{}
	}

	return v, nil
}

// stripFence removes a surrounding markdown code fence, with or without a
// language tag, so fenced model output still parses.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
