// Package registry models clinical-trial records as exported by the
// ClinicalTrials.gov registry, and provides loaders for both the flat
// CSV export format and the registry's v2 REST API.
package registry

import "strings"

// Study is one registered clinical trial. Records are immutable once
// ingested; every field is carried as the registry reports it, with
// missing values represented as empty strings.
type Study struct {
	NCTID          string `json:"nctId"`
	OrgFullName    string `json:"orgFullName"`
	OrgClass       string `json:"orgClass"`
	BriefTitle     string `json:"briefTitle"`
	Conditions     string `json:"conditions"`
	Interventions  string `json:"interventions"`
	MeshTerms      string `json:"meshTerms"`
	OutcomeMeasure string `json:"outcomeMeasure"`
	PrimaryPurpose string `json:"primaryPurpose"`
	Phases         string `json:"phases"`
	OverallStatus  string `json:"overallStatus"`
	StartDate      string `json:"startDate"`
}

// OrgClasses is the fixed sponsor-type enumeration.
var OrgClasses = []string{
	"INDUSTRY",
	"NIH",
	"NETWORK",
	"OTHER",
	"OTHER_GOV",
	"UNKNOWN",
	"FED",
	"INDIV",
}

// PrimaryPurposes is the fixed trial-intent enumeration.
var PrimaryPurposes = []string{
	"TREATMENT",
	"PREVENTION",
	"DIAGNOSTIC",
	"HEALTH_SERVICES_RESEARCH",
	"SCREENING",
	"SUPPORTIVE_CARE",
	"BASIC_SCIENCE",
	"OTHER",
	"Unknown",
}

// ValidOrgClass reports whether v is a member of the organization
// class enumeration.
func ValidOrgClass(v string) bool {
	return contains(OrgClasses, v)
}

// ValidPrimaryPurpose reports whether v is a member of the primary
// purpose enumeration.
func ValidPrimaryPurpose(v string) bool {
	return contains(PrimaryPurposes, v)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// IsOncology reports whether the study targets a neoplastic condition.
// The registry annotates oncology trials with a "Neoplasm" MeSH
// heading; the conditions text is checked as a fallback for rows with
// no MeSH annotation.
func (s Study) IsOncology() bool {
	if containsFold(s.MeshTerms, "neoplasm") {
		return true
	}
	return containsFold(s.Conditions, "neoplasm")
}

// HasPhase reports whether the study's phase annotation names the
// given phase token (e.g. "PHASE2"). Phases is a free-form field that
// may list several phases ("PHASE2|PHASE3").
func (s Study) HasPhase(phase string) bool {
	return strings.Contains(strings.ToUpper(s.Phases), strings.ToUpper(phase))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
