package models

// ProviderRole identifies which configured provider a candidate is sent to
type ProviderRole string

const (
	ProviderPrimary    ProviderRole = "primary"
	ProviderAggregator ProviderRole = "aggregator"
)

// Persona is a user-selectable aggregator model configuration
type Persona string

// PersonaDeepReasoning is the default persona. Selecting it skips the
// aggregator stage and goes straight to the primary-provider chain.
const PersonaDeepReasoning Persona = "deep_reasoning"

// SelectionRequest is the per-turn input to model selection
type SelectionRequest struct {
	RequestID     string
	Messages      []Message
	LatestMessage string
	ForcedModel   string
	Persona       Persona
}

// Candidate is one (provider, profile) pair eligible to answer a request
type Candidate struct {
	Provider string       `json:"provider"`
	Role     ProviderRole `json:"role"`
	Profile  ModelProfile `json:"profile"`
}

// Key identifies a candidate for de-duplication. Profiles sharing a model ID
// with different settings are distinct candidates.
func (c Candidate) Key() string {
	return c.Provider + "/" + c.Profile.Name
}

// Stage is a contiguous group of candidates sharing a failure policy.
// When FallThroughOnAnyFailure is set, every failure in the stage advances
// to the next candidate regardless of classification.
type Stage struct {
	Name                    string
	Candidates              []Candidate
	FallThroughOnAnyFailure bool
}

// CandidateChain is the ordered, de-duplicated list of stages to attempt
type CandidateChain struct {
	Stages []Stage
}

// StagedCandidate is a flattened chain entry carrying its stage policy
type StagedCandidate struct {
	Candidate
	Stage                   string
	FallThroughOnAnyFailure bool
}

// Flatten returns the chain as a single ordered list with duplicates removed.
// The first occurrence of a (provider, profile) pair wins.
func (c CandidateChain) Flatten() []StagedCandidate {
	seen := make(map[string]bool)
	var out []StagedCandidate
	for _, stage := range c.Stages {
		for _, cand := range stage.Candidates {
			if seen[cand.Key()] {
				continue
			}
			seen[cand.Key()] = true
			out = append(out, StagedCandidate{
				Candidate:               cand,
				Stage:                   stage.Name,
				FallThroughOnAnyFailure: stage.FallThroughOnAnyFailure,
			})
		}
	}
	return out
}

// Len returns the number of distinct candidates in the chain
func (c CandidateChain) Len() int {
	return len(c.Flatten())
}

// CandidatePreview is one entry of a selection dry run
type CandidatePreview struct {
	Provider                string `json:"provider"`
	Model                   string `json:"model"`
	ModelID                 string `json:"model_id"`
	Stage                   string `json:"stage"`
	FallThroughOnAnyFailure bool   `json:"fall_through_on_any_failure,omitzero"`
}

// SelectModelResponse lists, in order, the candidates a generate call would try
type SelectModelResponse struct {
	Candidates []CandidatePreview `json:"candidates"`
}
