package features

import "sort"

// OneHotEncoder maps columns of categorical values to indicator
// blocks. Categories are learned at fit time; a value unseen during
// fitting transforms to an all-zero block rather than failing.
type OneHotEncoder struct {
	Categories [][]string // per column, sorted at fit time

	index []map[string]int // rebuilt lazily after deserialization
}

// NewOneHotEncoder creates an unfitted encoder.
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{}
}

// Fitted reports whether Fit has run.
func (e *OneHotEncoder) Fitted() bool { return e.Categories != nil }

// Fit learns the category set of each column from the training rows.
// Every row must have the same column count.
func (e *OneHotEncoder) Fit(rows [][]string) {
	if len(rows) == 0 {
		e.Categories = [][]string{}
		return
	}

	cols := len(rows[0])
	sets := make([]map[string]struct{}, cols)
	for i := range sets {
		sets[i] = make(map[string]struct{})
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			sets[i][row[i]] = struct{}{}
		}
	}

	e.Categories = make([][]string, cols)
	for i, set := range sets {
		cats := make([]string, 0, len(set))
		for c := range set {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		e.Categories[i] = cats
	}
	e.index = nil
}

func (e *OneHotEncoder) ensureIndex() {
	if e.index != nil {
		return
	}
	e.index = make([]map[string]int, len(e.Categories))
	for i, cats := range e.Categories {
		m := make(map[string]int, len(cats))
		for j, c := range cats {
			m[c] = j
		}
		e.index[i] = m
	}
}

// Transform maps one row of categorical values to the indices of the
// hot dimensions, offset so the columns' blocks are laid out back to
// back. Unseen values contribute no index (their block stays zero).
// Panics if the encoder has not been fitted.
func (e *OneHotEncoder) Transform(values []string) []int {
	if !e.Fitted() {
		panic("features: OneHotEncoder.Transform called before Fit")
	}
	e.ensureIndex()

	var indices []int
	offset := 0
	for i, cats := range e.Categories {
		if i < len(values) {
			if j, ok := e.index[i][values[i]]; ok {
				indices = append(indices, offset+j)
			}
		}
		offset += len(cats)
	}
	return indices
}

// FeatureNames returns one name per indicator dimension in block
// layout order, each prefixed with its column name.
func (e *OneHotEncoder) FeatureNames(columns []string) []string {
	var names []string
	for i, cats := range e.Categories {
		prefix := ""
		if i < len(columns) {
			prefix = columns[i] + "="
		}
		for _, c := range cats {
			names = append(names, prefix+c)
		}
	}
	return names
}

// Dim returns the total width of all indicator blocks.
func (e *OneHotEncoder) Dim() int {
	var d int
	for _, cats := range e.Categories {
		d += len(cats)
	}
	return d
}
