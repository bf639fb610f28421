package agents

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/priorauth/autoauth/llm"
)

// Definition is the declarative configuration of one agent role: its fixed
// instructions, generation settings, and the capability names it may invoke.
// Definitions are loaded once at construction and never change during a
// session.
type Definition struct {
	Name         string               `yaml:"name" json:"name"`
	Description  string               `yaml:"description" json:"description"`
	Instructions string               `yaml:"instructions" json:"instructions"`
	Generation   llm.GenerationConfig `yaml:"generation" json:"generation"`
	Capabilities []string             `yaml:"capabilities" json:"capabilities"`
}

const defaultMaxTokens = 2048

// DefaultDefinitions returns the built-in role definitions for the three
// retrieval agents. All run at temperature 0 so PA decisions replay
// deterministically.
func DefaultDefinitions() map[Identity]Definition {
	formulator := Definition{
		Name:        string(Formulator),
		Description: "Turns clinical metadata into a concise policy retrieval query.",
		Instructions: "You are an expert in search engine evaluation and a prior authorization specialist. " +
			"Review the clinical information provided (diagnosis, ICD-10 code, requested medication or procedure, " +
			"dosage, duration, rationale) and produce one concise search query that maximizes the likelihood of " +
			"finding the exact matching payor policy document. If a previous evaluation rejected the candidates, " +
			"reformulate the query with different terminology. Respond with the query text only.",
		Generation: llm.Deterministic(defaultMaxTokens),
	}

	retriever := Definition{
		Name:        string(Retriever),
		Description: "Classifies the query type and executes hybrid policy search.",
		Instructions: "You classify policy retrieval queries. Given a search query, respond with exactly one word: " +
			"\"semantic\" when the query is descriptive natural language, \"keyword\" when it is a short list of " +
			"exact terms, codes, or drug names, or \"hybrid\" when it mixes both. Respond with the single word only.",
		Generation:   llm.Deterministic(16),
		Capabilities: []string{CapabilityPolicySearch},
	}

	evaluatorGen := llm.Deterministic(defaultMaxTokens)
	evaluatorGen.JSONOutput = true
	evaluator := Definition{
		Name:        string(Evaluator),
		Description: "Scores candidate policies against the query and emits the structured verdict.",
		Instructions: "You are a prior authorization policy evaluator. Given the original clinical context, the " +
			"search query, and the candidate policy documents, decide which candidates are the correct governing " +
			"policies. Respond with a JSON object with exactly three keys: \"policies\" (array of approved document " +
			"paths, no duplicates), \"reasoning\" (array of strings, one statement per approved or rejected " +
			"candidate, in order), and \"retry\" (boolean, true when no candidate is sufficient and the search " +
			"should be reformulated). No other keys are permitted.",
		Generation: evaluatorGen,
	}

	return map[Identity]Definition{
		Formulator: formulator,
		Retriever:  retriever,
		Evaluator:  evaluator,
	}
}

// LoadDefinitions returns the built-in definitions overlaid with any role
// files found in dir. Files may be YAML or JSON and are matched to roles by
// their name field; files naming an unknown role are rejected. An empty dir
// returns the defaults unchanged.
func LoadDefinitions(dir string) (map[Identity]Definition, error) {
	defs := DefaultDefinitions()
	if dir == "" {
		return defs, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return defs, nil
		}
		return nil, fmt.Errorf("failed to read roles directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		def, err := parseDefinition(path, ext)
		if err != nil {
			return nil, err
		}

		id := Identity(def.Name)
		if !id.Known() {
			return nil, fmt.Errorf("role file %q names unknown agent %q", path, def.Name)
		}
		defs[id] = mergeDefinition(defs[id], def)
	}

	return defs, nil
}

func parseDefinition(path, ext string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to read role file %q: %w", path, err)
	}

	var def Definition
	if ext == ".json" {
		err = json.Unmarshal(data, &def)
	} else {
		err = yaml.Unmarshal(data, &def)
	}
	if err != nil {
		return Definition{}, fmt.Errorf("failed to parse role file %q: %w", path, err)
	}
	if def.Name == "" {
		return Definition{}, fmt.Errorf("role file %q has no name", path)
	}
	return def, nil
}

// mergeDefinition overlays non-zero fields from override onto def, keeping
// built-in defaults for anything the file leaves unset.
func mergeDefinition(def, override Definition) Definition {
	if override.Description != "" {
		def.Description = override.Description
	}
	if override.Instructions != "" {
		def.Instructions = override.Instructions
	}
	if override.Generation.Temperature != nil {
		def.Generation.Temperature = override.Generation.Temperature
	}
	if override.Generation.TopP != nil {
		def.Generation.TopP = override.Generation.TopP
	}
	if override.Generation.MaxTokens > 0 {
		def.Generation.MaxTokens = override.Generation.MaxTokens
	}
	if len(override.Capabilities) > 0 {
		def.Capabilities = override.Capabilities
	}
	return def
}
