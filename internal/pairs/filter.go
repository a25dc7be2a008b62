package pairs

import (
	"sort"
	"strings"
)

// Query narrows the historical pair dataset for the dashboard API.
// Zero values leave the corresponding dimension unfiltered.
type Query struct {
	Search         string // matched against intervention, conditions and title, case-insensitive
	OrgClass       string
	PrimaryPurpose string
	Outcome        string // "success" or "failure"
}

// Filter applies q to the dataset and returns the matching pairs in
// their original order.
func Filter(ps []Pair, q Query) []Pair {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]Pair, 0, len(ps))
	for _, p := range ps {
		if q.OrgClass != "" && p.OrgClass != q.OrgClass {
			continue
		}
		if q.PrimaryPurpose != "" && p.PrimaryPurpose != q.PrimaryPurpose {
			continue
		}
		switch q.Outcome {
		case "success":
			if p.Label != 1 {
				continue
			}
		case "failure":
			if p.Label != 0 {
				continue
			}
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesSearch(p Pair, search string) bool {
	return strings.Contains(strings.ToLower(p.Intervention), search) ||
		strings.Contains(strings.ToLower(p.Conditions), search) ||
		strings.Contains(strings.ToLower(p.BriefTitle), search)
}

// GroupRate is a success rate within one categorical group.
type GroupRate struct {
	Group       string  `json:"group"`
	Total       int     `json:"total"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"successRate"`
}

// DatasetStats summarizes the historical dataset for the dashboard.
type DatasetStats struct {
	Total       int         `json:"total"`
	Successes   int         `json:"successes"`
	SuccessRate float64     `json:"successRate"`
	ByOrgClass  []GroupRate `json:"byOrgClass"`
	ByPurpose   []GroupRate `json:"byPurpose"`
}

// Stats computes overall and per-category success rates.
func Stats(ps []Pair) DatasetStats {
	st := DatasetStats{Total: len(ps)}
	for _, p := range ps {
		st.Successes += p.Label
	}
	if st.Total > 0 {
		st.SuccessRate = float64(st.Successes) / float64(st.Total)
	}
	st.ByOrgClass = groupRates(ps, func(p Pair) string { return p.OrgClass })
	st.ByPurpose = groupRates(ps, func(p Pair) string { return p.PrimaryPurpose })
	return st
}

func groupRates(ps []Pair, key func(Pair) string) []GroupRate {
	totals := make(map[string]int)
	successes := make(map[string]int)
	for _, p := range ps {
		k := key(p)
		if k == "" {
			k = "Unknown"
		}
		totals[k]++
		successes[k] += p.Label
	}

	groups := make([]string, 0, len(totals))
	for k := range totals {
		groups = append(groups, k)
	}
	sort.Strings(groups)

	out := make([]GroupRate, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupRate{
			Group:       g,
			Total:       totals[g],
			Successes:   successes[g],
			SuccessRate: float64(successes[g]) / float64(totals[g]),
		})
	}
	return out
}
