package ml

import (
	"errors"
	"fmt"
	"strings"

	"phasecast/internal/features"
	"phasecast/internal/pairs"
	"phasecast/internal/registry"
)

// ErrInvalidInput marks user-correctable validation failures. They are
// rejected at the boundary and never reach the classifier.
var ErrInvalidInput = errors.New("invalid trial input")

// TrialInput is the scoring contract's named input type. Using a
// struct rather than positional fields keeps the training and
// inference schemas from drifting apart.
type TrialInput struct {
	Intervention   string `json:"intervention"`
	BriefTitle     string `json:"briefTitle"`
	Condition      string `json:"condition"`
	OutcomeSummary string `json:"outcomeSummary"`
	OrgClass       string `json:"orgClass"`
	PrimaryPurpose string `json:"primaryPurpose"`
}

// Validate rejects inputs before they reach the model. The
// intervention must be non-empty after trimming, and the categorical
// selections must come from the fixed enumerations. Free-text fields
// other than the intervention may be empty.
func (in TrialInput) Validate() error {
	if strings.TrimSpace(in.Intervention) == "" {
		return fmt.Errorf("%w: intervention must not be empty", ErrInvalidInput)
	}
	if !registry.ValidOrgClass(in.OrgClass) {
		return fmt.Errorf("%w: unrecognized organization class %q", ErrInvalidInput, in.OrgClass)
	}
	if !registry.ValidPrimaryPurpose(in.PrimaryPurpose) {
		return fmt.Errorf("%w: unrecognized primary purpose %q", ErrInvalidInput, in.PrimaryPurpose)
	}
	return nil
}

// combinedText joins the free-text fields exactly as training does:
// normalized intervention, title, condition, outcome, single-space
// separated.
func (in TrialInput) combinedText() string {
	return strings.Join([]string{
		pairs.NormalizeIntervention(in.Intervention),
		strings.TrimSpace(in.BriefTitle),
		strings.TrimSpace(in.Condition),
		strings.TrimSpace(in.OutcomeSummary),
	}, " ")
}

// Result is the scoring contract's output: probability and label are
// always produced together, never partially.
type Result struct {
	Probability    float64 `json:"probability"`
	Label          int     `json:"label"`
	Classification string  `json:"classification"`
}

// Classification display strings.
const (
	ClassLikelySuccess = "Likely to succeed"
	ClassLikelyFailure = "Not likely to succeed"
)

// Score estimates the Phase III success probability for one trial
// description. The model is read-only; given identical input and the
// same loaded model the result is bit-identical across calls.
func (m *Model) Score(in TrialInput) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	v := m.Pipeline.Transform(features.Row{
		Text:           in.combinedText(),
		OrgClass:       in.OrgClass,
		PrimaryPurpose: in.PrimaryPurpose,
	})

	p := m.Classifier.PredictProba(v)
	label := 0
	classification := ClassLikelyFailure
	if p >= 0.5 {
		label = 1
		classification = ClassLikelySuccess
	}

	return Result{
		Probability:    p,
		Label:          label,
		Classification: classification,
	}, nil
}
