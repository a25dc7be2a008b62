// Package pairs builds the labeled Phase II → Phase III training
// dataset. Each pair joins one oncology Phase II trial to one Phase
// III trial that shares a normalized intervention, labeled by whether
// the Phase III trial reached the COMPLETED terminal status.
package pairs

import (
	"strings"

	"github.com/rs/zerolog/log"

	"phasecast/internal/registry"
)

// StatusCompleted is the Phase III terminal status that defines a
// successful transition. Trials with ambiguous or ongoing statuses are
// labeled 0, not excluded; only the intervention intersection filters
// rows out of the pair set.
const StatusCompleted = "COMPLETED"

// Pair is one labeled Phase II → Phase III record. The Phase II trial
// contributes every descriptive field; the Phase III trial contributes
// only its outcome status. Pairs are immutable once built.
type Pair struct {
	NCTID          string `json:"nctId"`
	OrgFullName    string `json:"orgFullName"`
	OrgClass       string `json:"orgClass"`
	BriefTitle     string `json:"briefTitle"`
	Conditions     string `json:"conditions"`
	Intervention   string `json:"intervention"` // normalized
	OutcomeMeasure string `json:"outcomeMeasure"`
	PrimaryPurpose string `json:"primaryPurpose"`
	StartDate      string `json:"startDate"`
	Phase2Status   string `json:"phase2Status"`
	Phase3Status   string `json:"phase3Status"`
	Label          int    `json:"label"`
}

// NormalizeIntervention is the join key normalization: lower-case and
// trimmed. Matching is pure string equality afterwards — trade names
// and generic names of the same drug are distinct keys and will not
// pair.
func NormalizeIntervention(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Build constructs the labeled pair dataset from a raw registry
// snapshot. An empty result is not an error; training rejects empty
// input separately.
func Build(studies []registry.Study) []Pair {
	var ph2, ph3 []registry.Study
	for _, s := range studies {
		if !s.IsOncology() {
			continue
		}
		if s.HasPhase("PHASE2") {
			ph2 = append(ph2, s)
		}
		if s.HasPhase("PHASE3") {
			ph3 = append(ph3, s)
		}
	}

	log.Info().
		Int("studies", len(studies)).
		Int("phase2", len(ph2)).
		Int("phase3", len(ph3)).
		Msg("oncology phase subsets selected")

	// Phase III rows grouped by normalized intervention. Only keys
	// present in both subsets survive.
	ph3ByKey := make(map[string][]registry.Study)
	for _, s := range ph3 {
		key := NormalizeIntervention(s.Interventions)
		if key == "" {
			continue
		}
		ph3ByKey[key] = append(ph3ByKey[key], s)
	}

	var out []Pair
	common := make(map[string]struct{})
	for _, s2 := range ph2 {
		key := NormalizeIntervention(s2.Interventions)
		if key == "" {
			continue
		}
		matches, ok := ph3ByKey[key]
		if !ok {
			continue
		}
		common[key] = struct{}{}

		// Many-to-many: every matching Phase III row yields a pair.
		for _, s3 := range matches {
			label := 0
			if s3.OverallStatus == StatusCompleted {
				label = 1
			}
			out = append(out, Pair{
				NCTID:          s2.NCTID,
				OrgFullName:    s2.OrgFullName,
				OrgClass:       s2.OrgClass,
				BriefTitle:     s2.BriefTitle,
				Conditions:     s2.Conditions,
				Intervention:   key,
				OutcomeMeasure: s2.OutcomeMeasure,
				PrimaryPurpose: s2.PrimaryPurpose,
				StartDate:      s2.StartDate,
				Phase2Status:   s2.OverallStatus,
				Phase3Status:   s3.OverallStatus,
				Label:          label,
			})
		}
	}

	log.Info().
		Int("commonInterventions", len(common)).
		Int("pairs", len(out)).
		Msg("pair dataset built")

	return out
}

// CombinedText is the free-text feature input for one pair: normalized
// intervention, title, conditions and outcome measure, space-joined in
// that order. Scoring must concatenate identically.
func (p Pair) CombinedText() string {
	return strings.Join([]string{p.Intervention, p.BriefTitle, p.Conditions, p.OutcomeMeasure}, " ")
}
