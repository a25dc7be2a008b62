package ml

import "sort"

// FeatureWeight is one named coefficient of the fitted classifier.
type FeatureWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// FeatureImportance maps the classifier coefficients back to the
// pipeline's feature names and returns the n strongest positive and n
// strongest negative ones. Positive weights push a trial toward the
// success class, negative toward failure; both lists are ordered by
// magnitude. Panics if the model is not fitted.
func (m *Model) FeatureImportance(n int) (positive, negative []FeatureWeight) {
	if m.Pipeline == nil || !m.Pipeline.Fitted() || m.Classifier == nil || !m.Classifier.Fitted() {
		panic("ml: Model.FeatureImportance called on an unfitted model")
	}

	names := m.Pipeline.FeatureNames()
	all := make([]FeatureWeight, len(m.Classifier.Weights))
	for i, w := range m.Classifier.Weights {
		all[i] = FeatureWeight{Name: names[i], Weight: w}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Weight != all[j].Weight {
			return all[i].Weight > all[j].Weight
		}
		return all[i].Name < all[j].Name
	})

	if n > len(all) {
		n = len(all)
	}
	positive = make([]FeatureWeight, n)
	copy(positive, all[:n])
	negative = make([]FeatureWeight, n)
	for i := 0; i < n; i++ {
		negative[i] = all[len(all)-1-i]
	}
	return positive, negative
}
